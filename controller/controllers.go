// controller/controllers.go
package controller

import "github.com/chaosunly/iam-app/service"

type Controllers struct {
	Permission *PermissionController
	Authz      *AuthzController
}

func InitializeControllers(services *service.Services) *Controllers {
	return &Controllers{
		Permission: NewPermissionController(services.Permission),
		Authz:      NewAuthzController(services.Authz),
	}
}
