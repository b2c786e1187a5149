// util/notification_service.go

package util

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	logger "github.com/chaosunly/iam-app/logging"
	"github.com/chaosunly/iam-app/model"
)

type NotificationService struct {
	// You might want to add dependencies here, such as a message queue client
}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyTupleChange announces a grant or revoke to interested systems.
// In a real deployment this would feed a message queue; for now the
// announcement is a structured log line.
func (n *NotificationService) NotifyTupleChange(ctx context.Context, changeType string, tuple model.RelationTuple) error {
	switch changeType {
	case "granted":
		logger.Info("NOTIFICATION: Permission granted",
			zap.String("tuple", tuple.String()),
			zap.String("subject", tuple.Subject))
	case "revoked":
		logger.Info("NOTIFICATION: Permission revoked",
			zap.String("tuple", tuple.String()),
			zap.String("subject", tuple.Subject))
	default:
		return fmt.Errorf("unknown change type: %s", changeType)
	}

	return nil
}

// NotifyAdmins notifies all system administrators.
func (n *NotificationService) NotifyAdmins(ctx context.Context, message string) error {
	logger.Info("Notifying admins", zap.String("message", message))
	return nil
}
