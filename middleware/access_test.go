// middleware/access_test.go
package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	logger "github.com/chaosunly/iam-app/logging"
	"github.com/chaosunly/iam-app/middleware"
	"github.com/chaosunly/iam-app/model"
	"github.com/chaosunly/iam-app/test/mock"
)

func TestMain(m *testing.M) {
	logger.InitTestLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newAccessFixture() (*middleware.AccessMiddleware, *mock.MockResolver, *mock.MockChecker) {
	resolver := mock.NewMockResolver()
	checker := mock.NewMockChecker()
	return middleware.NewAccessMiddleware(resolver, checker), resolver, checker
}

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func doRequest(router *gin.Engine, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("X-Session-Token", token)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	access, resolver, _ := newAccessFixture()
	resolver.AddSession("tok1", "u1")

	router := gin.New()
	router.GET("/protected", access.RequireAuth(), ok)

	assert.Equal(t, http.StatusUnauthorized, doRequest(router, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(router, "bogus").Code)
	assert.Equal(t, http.StatusOK, doRequest(router, "tok1").Code)
}

func TestRequireAuth_AcceptsBearerAndCookie(t *testing.T) {
	access, resolver, _ := newAccessFixture()
	resolver.AddSession("tok1", "u1")

	router := gin.New()
	router.GET("/protected", access.RequireAuth(), ok)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer tok1")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "tok1"})
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	access, resolver, checker := newAccessFixture()
	resolver.AddSession("admin-tok", "admin1")
	resolver.AddSession("user-tok", "u1")
	checker.Allow(model.GlobalAdminTuple("admin1"))

	router := gin.New()
	router.GET("/protected", access.RequireAdmin(), ok)

	assert.Equal(t, http.StatusUnauthorized, doRequest(router, "").Code)
	assert.Equal(t, http.StatusOK, doRequest(router, "admin-tok").Code)

	w := doRequest(router, "user-tok")
	assert.Equal(t, http.StatusForbidden, w.Code)
	// The denial names the missing tuple.
	assert.Contains(t, w.Body.String(), "GlobalRole:admin#members@u1")
}

func TestRequirePermission(t *testing.T) {
	access, resolver, checker := newAccessFixture()
	resolver.AddSession("tok1", "u1")
	checker.Allow(model.OrgPermissionTuple("org1", model.PermViewOrg, "u1"))

	router := gin.New()
	router.GET("/protected",
		access.RequireAuth(),
		access.RequirePermission(model.NamespaceOrganization, "org1", model.PermViewOrg),
		ok)
	router.GET("/locked",
		access.RequireAuth(),
		access.RequirePermission(model.NamespaceOrganization, "org1", model.PermManageOrg),
		ok)

	assert.Equal(t, http.StatusOK, doRequest(router, "tok1").Code)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/locked", nil)
	req.Header.Set("X-Session-Token", "tok1")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Organization:org1#manage_org@u1")
}

func TestRequirePermission_WithoutAuthIsUnauthorized(t *testing.T) {
	access, _, _ := newAccessFixture()

	router := gin.New()
	router.GET("/protected",
		access.RequirePermission(model.NamespaceOrganization, "org1", model.PermViewOrg),
		ok)

	assert.Equal(t, http.StatusUnauthorized, doRequest(router, "").Code)
}

func TestRequireAnyPermission(t *testing.T) {
	access, resolver, checker := newAccessFixture()
	resolver.AddSession("tok1", "u1")
	checker.Allow(model.OrgPermissionTuple("org1", model.PermViewOrg, "u1"))

	tuples := []model.RelationTuple{
		{Namespace: model.NamespaceOrganization, Object: "org1", Relation: model.PermManageOrg},
		{Namespace: model.NamespaceOrganization, Object: "org1", Relation: model.PermViewOrg},
	}

	router := gin.New()
	router.GET("/protected", access.RequireAuth(), access.RequireAnyPermission(tuples...), ok)

	assert.Equal(t, http.StatusOK, doRequest(router, "tok1").Code)
	// Both checks were issued; no short-circuit.
	assert.Equal(t, 2, checker.TotalCalls())
}

func TestRequireAllPermissions(t *testing.T) {
	access, resolver, checker := newAccessFixture()
	resolver.AddSession("tok1", "u1")
	checker.Allow(model.OrgPermissionTuple("org1", model.PermViewOrg, "u1"))

	tuples := []model.RelationTuple{
		{Namespace: model.NamespaceOrganization, Object: "org1", Relation: model.PermManageOrg},
		{Namespace: model.NamespaceOrganization, Object: "org1", Relation: model.PermViewOrg},
	}

	router := gin.New()
	router.GET("/protected", access.RequireAuth(), access.RequireAllPermissions(tuples...), ok)

	assert.Equal(t, http.StatusForbidden, doRequest(router, "tok1").Code)

	checker.Allow(model.OrgPermissionTuple("org1", model.PermManageOrg, "u1"))
	assert.Equal(t, http.StatusOK, doRequest(router, "tok1").Code)
}

func TestDeniedLooksTheSameWhenUpstreamFails(t *testing.T) {
	access, resolver, checker := newAccessFixture()
	resolver.AddSession("tok1", "u1")
	checker.Err = assert.AnError

	router := gin.New()
	router.GET("/protected",
		access.RequireAuth(),
		access.RequirePermission(model.NamespaceOrganization, "org1", model.PermViewOrg),
		ok)

	// Upstream failure is indistinguishable from denial.
	assert.Equal(t, http.StatusForbidden, doRequest(router, "tok1").Code)
}
