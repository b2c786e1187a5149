// service/authorization_service.go
package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chaosunly/iam-app/audit"
	"github.com/chaosunly/iam-app/model"

	logger "github.com/chaosunly/iam-app/logging"
)

// Dashboard routes derived from the caller's admin standing.
const (
	AdminDashboardRoute = "/admin"
	UserDashboardRoute  = "/dashboard"
)

// TupleChecker is the cache-backed check surface the policy layer
// decides on. Implemented by engine.CheckCache.
type TupleChecker interface {
	CheckCached(ctx context.Context, tuple model.RelationTuple, skipCache bool) (bool, error)
}

// IAuthorizationService translates application-level questions into
// tuple checks.
type IAuthorizationService interface {
	IsGlobalAdmin(ctx context.Context, userID string) bool
	HasOrgPermission(ctx context.Context, userID, orgID, permission string) bool
	HasAnyRole(ctx context.Context, userID string, roles []string, namespace string) bool
	HasAllRoles(ctx context.Context, userID string, roles []string, namespace string) bool
	DashboardRoute(ctx context.Context, userID string) string
	CanAccessAdmin(ctx context.Context, userID string) bool
}

// AuthorizationService is stateless per call; all memoization lives in
// the injected checker.
type AuthorizationService struct {
	checker      TupleChecker
	auditService audit.Service
}

var _ IAuthorizationService = &AuthorizationService{}

func NewAuthorizationService(checker TupleChecker, auditService audit.Service) *AuthorizationService {
	return &AuthorizationService{
		checker:      checker,
		auditService: auditService,
	}
}

// IsGlobalAdmin checks the global-admin tuple. Only positive results
// are audited here; denial auditing happens at the middleware layer.
func (s *AuthorizationService) IsGlobalAdmin(ctx context.Context, userID string) bool {
	tuple := model.GlobalAdminTuple(userID)
	allowed, err := s.checker.CheckCached(ctx, tuple, false)
	if err != nil {
		logger.Warn("Global admin check rejected", zap.Error(err), zap.String("userID", userID))
		return false
	}

	if allowed {
		s.record(ctx, audit.AuditLog{
			Timestamp:     time.Now(),
			UserID:        userID,
			Action:        audit.ActionAdminCheck,
			Resource:      model.NamespaceGlobalRole + ":" + model.GlobalAdminObject,
			AccessGranted: true,
		})
	}

	return allowed
}

// HasOrgPermission checks an organization-scoped permission. Global
// admins bypass the org tuple entirely. The final decision is audited
// whether granted or denied.
func (s *AuthorizationService) HasOrgPermission(ctx context.Context, userID, orgID, permission string) bool {
	entry := audit.AuditLog{
		UserID:   userID,
		Action:   audit.ActionOrgPermission,
		Resource: model.NamespaceOrganization + ":" + orgID + "#" + permission,
	}

	if !model.OrgPermissions[permission] {
		logger.Warn("Unknown org permission requested",
			zap.String("permission", permission),
			zap.String("userID", userID),
			zap.String("orgID", orgID))
		entry.Timestamp = time.Now()
		s.record(ctx, entry)
		return false
	}

	if s.IsGlobalAdmin(ctx, userID) {
		entry.Timestamp = time.Now()
		entry.AccessGranted = true
		s.record(ctx, entry)
		return true
	}

	allowed, err := s.checker.CheckCached(ctx, model.OrgPermissionTuple(orgID, permission, userID), false)
	if err != nil {
		logger.Warn("Org permission check rejected", zap.Error(err), zap.String("userID", userID), zap.String("orgID", orgID))
		allowed = false
	}

	entry.Timestamp = time.Now()
	entry.AccessGranted = allowed
	s.record(ctx, entry)
	return allowed
}

// HasAnyRole reports whether the user holds at least one of the roles.
// Every role tuple is checked concurrently; there is no network-level
// short circuit, so cached call counts stay deterministic.
func (s *AuthorizationService) HasAnyRole(ctx context.Context, userID string, roles []string, namespace string) bool {
	results := s.checkRoles(ctx, userID, roles, namespace)
	for _, allowed := range results {
		if allowed {
			return true
		}
	}
	return false
}

// HasAllRoles reports whether the user holds every one of the roles.
func (s *AuthorizationService) HasAllRoles(ctx context.Context, userID string, roles []string, namespace string) bool {
	if len(roles) == 0 {
		return true
	}
	results := s.checkRoles(ctx, userID, roles, namespace)
	for _, allowed := range results {
		if !allowed {
			return false
		}
	}
	return true
}

func (s *AuthorizationService) checkRoles(ctx context.Context, userID string, roles []string, namespace string) []bool {
	if namespace == "" {
		namespace = model.NamespaceGlobalRole
	}

	results := make([]bool, len(roles))
	g, gctx := errgroup.WithContext(ctx)
	for i, role := range roles {
		i, role := i, role
		g.Go(func() error {
			allowed, err := s.checker.CheckCached(gctx, model.RoleTuple(namespace, role, userID), false)
			if err != nil {
				logger.Warn("Role check rejected", zap.Error(err), zap.String("role", role), zap.String("userID", userID))
				allowed = false
			}
			results[i] = allowed
			return nil
		})
	}
	g.Wait()
	return results
}

// DashboardRoute resolves where a freshly authenticated user lands.
func (s *AuthorizationService) DashboardRoute(ctx context.Context, userID string) string {
	if s.IsGlobalAdmin(ctx, userID) {
		return AdminDashboardRoute
	}
	return UserDashboardRoute
}

// CanAccessAdmin reports whether the user may enter the admin surface.
func (s *AuthorizationService) CanAccessAdmin(ctx context.Context, userID string) bool {
	return s.IsGlobalAdmin(ctx, userID)
}

func (s *AuthorizationService) record(ctx context.Context, entry audit.AuditLog) {
	if err := s.auditService.LogAccess(ctx, entry); err != nil {
		logger.Warn("Failed to write audit record",
			zap.Error(err),
			zap.String("action", entry.Action),
			zap.String("userID", entry.UserID))
	}
}
