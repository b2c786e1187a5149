// service/permission_service.go
package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/chaosunly/iam-app/audit"
	"github.com/chaosunly/iam-app/model"
	"github.com/chaosunly/iam-app/pdp/engine"
	"github.com/chaosunly/iam-app/util"

	logger "github.com/chaosunly/iam-app/logging"
)

// TupleStore is the upstream-facing surface the permission service
// orchestrates. Implemented by dao.TupleDAO.
type TupleStore interface {
	Check(ctx context.Context, tuple model.RelationTuple) (bool, error)
	Grant(ctx context.Context, tuple model.RelationTuple) error
	Revoke(ctx context.Context, tuple model.RelationTuple) error
	ListForSubject(ctx context.Context, userID, namespace string) ([]model.RelationTuple, error)
	ListForObject(ctx context.Context, namespace, object string) ([]model.RelationTuple, error)
	HealthCheck(ctx context.Context) bool
}

// IPermissionService defines the raw tuple operations exposed to route
// handlers.
type IPermissionService interface {
	CheckPermission(ctx context.Context, tuple model.RelationTuple, skipCache bool) (bool, error)
	GrantPermission(ctx context.Context, tuple model.RelationTuple, granterID string) error
	RevokePermission(ctx context.Context, tuple model.RelationTuple, revokerID string) error
	ListUserPermissions(ctx context.Context, userID, namespace string) ([]model.RelationTuple, error)
	ListObjectPermissions(ctx context.Context, namespace, object string) ([]model.RelationTuple, error)
	HealthCheck(ctx context.Context) bool
}

// PermissionService handles business logic for tuple operations. Writes
// invalidate the affected subject's cached checks after the upstream
// accepts them, so the exposed write path reads its own writes; the
// store itself never touches the cache.
type PermissionService struct {
	store           TupleStore
	cache           *engine.CheckCache
	validationUtil  *util.ValidationUtil
	auditService    audit.Service
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IPermissionService = &PermissionService{}

// NewPermissionService creates a new instance of PermissionService
func NewPermissionService(store TupleStore, cache *engine.CheckCache, validationUtil *util.ValidationUtil, auditService audit.Service, notificationSvc *util.NotificationService, eventBus *util.EventBus) *PermissionService {
	service := &PermissionService{
		store:           store,
		cache:           cache,
		validationUtil:  validationUtil,
		auditService:    auditService,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	// Set up event subscriptions
	eventBus.Subscribe("tuple.granted", service.handleTupleGranted)
	eventBus.Subscribe("tuple.revoked", service.handleTupleRevoked)

	return service
}

func (s *PermissionService) handleTupleGranted(ctx context.Context, event util.Event) error {
	tuple := event.Payload.(model.RelationTuple)
	return s.notificationSvc.NotifyTupleChange(ctx, "granted", tuple)
}

func (s *PermissionService) handleTupleRevoked(ctx context.Context, event util.Event) error {
	tuple := event.Payload.(model.RelationTuple)
	return s.notificationSvc.NotifyTupleChange(ctx, "revoked", tuple)
}

// CheckPermission performs a cache-backed point check.
func (s *PermissionService) CheckPermission(ctx context.Context, tuple model.RelationTuple, skipCache bool) (bool, error) {
	if err := s.validationUtil.ValidateTuple(tuple); err != nil {
		return false, err
	}
	return s.cache.CheckCached(ctx, tuple, skipCache)
}

// GrantPermission upserts the tuple upstream and invalidates the
// subject's cached checks.
func (s *PermissionService) GrantPermission(ctx context.Context, tuple model.RelationTuple, granterID string) error {
	if err := s.validationUtil.ValidateTuple(tuple); err != nil {
		return err
	}

	if err := s.store.Grant(ctx, tuple); err != nil {
		logger.Error("Error granting permission", zap.Error(err), zap.String("tuple", tuple.String()), zap.String("granterID", granterID))
		return err
	}

	s.cache.InvalidateForSubject(tuple.Subject)
	s.eventBus.Publish(ctx, "tuple.granted", tuple)
	s.recordMutation(ctx, audit.ActionTupleGranted, tuple, granterID)

	logger.Info("Permission granted", zap.String("tuple", tuple.String()), zap.String("granterID", granterID))
	return nil
}

// RevokePermission deletes the tuple upstream and invalidates the
// subject's cached checks. Revoking a tuple that was never granted is
// not an error.
func (s *PermissionService) RevokePermission(ctx context.Context, tuple model.RelationTuple, revokerID string) error {
	if err := s.validationUtil.ValidateTuple(tuple); err != nil {
		return err
	}

	if err := s.store.Revoke(ctx, tuple); err != nil {
		logger.Error("Error revoking permission", zap.Error(err), zap.String("tuple", tuple.String()), zap.String("revokerID", revokerID))
		return err
	}

	s.cache.InvalidateForSubject(tuple.Subject)
	s.eventBus.Publish(ctx, "tuple.revoked", tuple)
	s.recordMutation(ctx, audit.ActionTupleRevoked, tuple, revokerID)

	logger.Info("Permission revoked", zap.String("tuple", tuple.String()), zap.String("revokerID", revokerID))
	return nil
}

// ListUserPermissions lists tuples held by a subject. Best-effort: the
// store returns an empty slice when the upstream is unreachable.
func (s *PermissionService) ListUserPermissions(ctx context.Context, userID, namespace string) ([]model.RelationTuple, error) {
	return s.store.ListForSubject(ctx, userID, namespace)
}

// ListObjectPermissions lists tuples attached to an object.
func (s *PermissionService) ListObjectPermissions(ctx context.Context, namespace, object string) ([]model.RelationTuple, error) {
	return s.store.ListForObject(ctx, namespace, object)
}

// HealthCheck probes the upstream authorization service.
func (s *PermissionService) HealthCheck(ctx context.Context) bool {
	return s.store.HealthCheck(ctx)
}

func (s *PermissionService) recordMutation(ctx context.Context, action string, tuple model.RelationTuple, actorID string) {
	details, _ := json.Marshal(tuple)
	entry := audit.AuditLog{
		Timestamp:     time.Now(),
		UserID:        actorID,
		Action:        action,
		Resource:      tuple.String(),
		AccessGranted: true,
		Details:       details,
	}
	if err := s.auditService.LogAccess(ctx, entry); err != nil {
		logger.Warn("Failed to write audit record", zap.Error(err), zap.String("action", action))
	}
}
