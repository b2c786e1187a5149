// controller/authz_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	iam_errors "github.com/chaosunly/iam-app/errors"
	"github.com/chaosunly/iam-app/service"
	"github.com/chaosunly/iam-app/util"
)

type AuthzController struct {
	authzService service.IAuthorizationService
}

func NewAuthzController(authzService service.IAuthorizationService) *AuthzController {
	return &AuthzController{
		authzService: authzService,
	}
}

// RegisterRoutes registers the authorization-decision routes. These act
// on the authenticated caller, not on arbitrary subjects.
func (ac *AuthzController) RegisterRoutes(r *gin.RouterGroup) {
	authz := r.Group("/authz")
	{
		authz.GET("/dashboard-route", ac.DashboardRoute)
		authz.GET("/admin", ac.CanAccessAdmin)
		authz.GET("/organizations/:orgId/permissions/:permission", ac.HasOrgPermission)
		authz.POST("/roles/check", ac.CheckRoles)
	}
}

// DashboardRoute endpoint
func (ac *AuthzController) DashboardRoute(c *gin.Context) {
	userID := util.GetUserIDFromContext(c)
	if userID == "" {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", iam_errors.ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, gin.H{"route": ac.authzService.DashboardRoute(c, userID)})
}

// CanAccessAdmin endpoint
func (ac *AuthzController) CanAccessAdmin(c *gin.Context) {
	userID := util.GetUserIDFromContext(c)
	if userID == "" {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", iam_errors.ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, gin.H{"allowed": ac.authzService.CanAccessAdmin(c, userID)})
}

// HasOrgPermission endpoint
func (ac *AuthzController) HasOrgPermission(c *gin.Context) {
	userID := util.GetUserIDFromContext(c)
	if userID == "" {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", iam_errors.ErrUnauthorized)
		return
	}

	orgID := c.Param("orgId")
	permission := c.Param("permission")

	c.JSON(http.StatusOK, gin.H{"allowed": ac.authzService.HasOrgPermission(c, userID, orgID, permission)})
}

type rolesCheckRequest struct {
	Roles     []string `json:"roles" binding:"required"`
	Namespace string   `json:"namespace"`
	Mode      string   `json:"mode" binding:"required,oneof=any all"`
}

// CheckRoles endpoint combines role checks with OR ("any") or AND ("all")
func (ac *AuthzController) CheckRoles(c *gin.Context) {
	userID := util.GetUserIDFromContext(c)
	if userID == "" {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", iam_errors.ErrUnauthorized)
		return
	}

	var req rolesCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid roles check request", err)
		return
	}

	var allowed bool
	if req.Mode == "all" {
		allowed = ac.authzService.HasAllRoles(c, userID, req.Roles, req.Namespace)
	} else {
		allowed = ac.authzService.HasAnyRole(c, userID, req.Roles, req.Namespace)
	}

	c.JSON(http.StatusOK, gin.H{"allowed": allowed})
}
