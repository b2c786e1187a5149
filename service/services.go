// service/services.go
package service

import (
	"github.com/chaosunly/iam-app/audit"
	"github.com/chaosunly/iam-app/pdp/engine"
	"github.com/chaosunly/iam-app/util"
)

type Services struct {
	Permission IPermissionService
	Authz      IAuthorizationService
}

func InitializeServices(
	store TupleStore,
	cache *engine.CheckCache,
	auditService audit.Service,
	validationUtil *util.ValidationUtil,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
) *Services {
	return &Services{
		Permission: NewPermissionService(store, cache, validationUtil, auditService, notificationSvc, eventBus),
		Authz:      NewAuthorizationService(cache, auditService),
	}
}
