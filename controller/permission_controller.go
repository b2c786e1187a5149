// controller/permission_controller.go
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	iam_errors "github.com/chaosunly/iam-app/errors"
	"github.com/chaosunly/iam-app/model"
	"github.com/chaosunly/iam-app/service"
	"github.com/chaosunly/iam-app/util"
)

type PermissionController struct {
	permissionService service.IPermissionService
}

func NewPermissionController(permissionService service.IPermissionService) *PermissionController {
	return &PermissionController{
		permissionService: permissionService,
	}
}

// tupleRequest is the JSON body for check, grant, and revoke calls.
type tupleRequest struct {
	Namespace string `json:"namespace" binding:"required"`
	Object    string `json:"object" binding:"required"`
	Relation  string `json:"relation" binding:"required"`
	Subject   string `json:"subject" binding:"required"`
}

func (r tupleRequest) tuple() model.RelationTuple {
	return model.RelationTuple{
		Namespace: r.Namespace,
		Object:    r.Object,
		Relation:  r.Relation,
		Subject:   r.Subject,
	}
}

// RegisterRoutes registers the API routes for raw permission operations
func (pc *PermissionController) RegisterRoutes(r *gin.RouterGroup) {
	permissions := r.Group("/permissions")
	{
		permissions.POST("/check", pc.CheckPermission)
		permissions.POST("", pc.GrantPermission)
		permissions.DELETE("", pc.RevokePermission)
		permissions.GET("/subjects/:id", pc.ListUserPermissions)
		permissions.GET("/objects/:namespace/:object", pc.ListObjectPermissions)
	}
}

// CheckPermission endpoint
func (pc *PermissionController) CheckPermission(c *gin.Context) {
	var req tupleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid tuple data", err)
		return
	}

	skipCache := c.Query("skip_cache") == "true"

	allowed, err := pc.permissionService.CheckPermission(c, req.tuple(), skipCache)
	if err != nil {
		if errors.Is(err, iam_errors.ErrInvalidTuple) {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid tuple data", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to check permission", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"allowed": allowed})
}

// GrantPermission endpoint
func (pc *PermissionController) GrantPermission(c *gin.Context) {
	var req tupleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid tuple data", err)
		return
	}
	granterID := util.GetUserIDFromContext(c)

	if err := pc.permissionService.GrantPermission(c, req.tuple(), granterID); err != nil {
		switch {
		case errors.Is(err, iam_errors.ErrInvalidTuple):
			util.RespondWithError(c, http.StatusBadRequest, "Invalid tuple data", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to grant permission", err)
		}
		return
	}

	c.JSON(http.StatusCreated, req.tuple())
}

// RevokePermission endpoint
func (pc *PermissionController) RevokePermission(c *gin.Context) {
	tuple := model.RelationTuple{
		Namespace: c.Query("namespace"),
		Object:    c.Query("object"),
		Relation:  c.Query("relation"),
		Subject:   c.Query("subject"),
	}
	revokerID := util.GetUserIDFromContext(c)

	if err := pc.permissionService.RevokePermission(c, tuple, revokerID); err != nil {
		switch {
		case errors.Is(err, iam_errors.ErrInvalidTuple):
			util.RespondWithError(c, http.StatusBadRequest, "Invalid tuple data", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to revoke permission", err)
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// ListUserPermissions endpoint
func (pc *PermissionController) ListUserPermissions(c *gin.Context) {
	userID := c.Param("id")
	namespace := c.Query("namespace")

	tuples, err := pc.permissionService.ListUserPermissions(c, userID, namespace)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to list permissions", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"relation_tuples": tuples})
}

// ListObjectPermissions endpoint
func (pc *PermissionController) ListObjectPermissions(c *gin.Context) {
	namespace := c.Param("namespace")
	object := c.Param("object")

	tuples, err := pc.permissionService.ListObjectPermissions(c, namespace, object)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to list permissions", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"relation_tuples": tuples})
}
