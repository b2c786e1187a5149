// middleware/access.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chaosunly/iam-app/identity"
	"github.com/chaosunly/iam-app/model"
	"github.com/chaosunly/iam-app/util"

	logger "github.com/chaosunly/iam-app/logging"
)

// PermissionChecker is the cache-backed check surface used for route
// protection. Implemented by engine.CheckCache.
type PermissionChecker interface {
	CheckCached(ctx context.Context, tuple model.RelationTuple, skipCache bool) (bool, error)
}

// AccessMiddleware enforces authorization at the request boundary.
// Every failure is terminal for the request: 401 when no valid session
// exists, 403 when a permission is denied. A denial never reveals
// whether the tuple is absent or the authorization service was
// unreachable.
type AccessMiddleware struct {
	resolver identity.Resolver
	checker  PermissionChecker
}

func NewAccessMiddleware(resolver identity.Resolver, checker PermissionChecker) *AccessMiddleware {
	return &AccessMiddleware{
		resolver: resolver,
		checker:  checker,
	}
}

// RequireAuth resolves the caller's session and stores the identity in
// the request context. Aborts with 401 when no session resolves.
func (m *AccessMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.authenticate(c) == nil {
			return
		}
		c.Next()
	}
}

// RequirePermission aborts with 403 unless the authenticated caller
// holds the given relation to the object. The denial names the missing
// tuple.
func (m *AccessMiddleware) RequirePermission(namespace, object, relation string) gin.HandlerFunc {
	return func(c *gin.Context) {
		uc := util.GetUserContext(c)
		if uc == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		tuple := model.RelationTuple{
			Namespace: namespace,
			Object:    object,
			Relation:  relation,
			Subject:   uc.UserID,
		}
		if !m.allowed(c, tuple) {
			m.deny(c, tuple)
			return
		}

		c.Next()
	}
}

// RequireAdmin composes RequireAuth with the global-admin tuple check.
// This is the canonical guard for every admin-only operation.
func (m *AccessMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		uc := m.authenticate(c)
		if uc == nil {
			return
		}

		tuple := model.GlobalAdminTuple(uc.UserID)
		if !m.allowed(c, tuple) {
			m.deny(c, tuple)
			return
		}

		c.Next()
	}
}

// RequireAnyPermission aborts with 403 unless the caller holds at least
// one of the relations. All checks are issued concurrently.
func (m *AccessMiddleware) RequireAnyPermission(tuples ...model.RelationTuple) gin.HandlerFunc {
	return func(c *gin.Context) {
		uc := util.GetUserContext(c)
		if uc == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		results := m.fanOut(c, uc.UserID, tuples)
		for _, allowed := range results {
			if allowed {
				c.Next()
				return
			}
		}

		m.denyAll(c, uc.UserID, tuples, "any")
	}
}

// RequireAllPermissions aborts with 403 unless the caller holds every
// one of the relations. All checks are issued concurrently.
func (m *AccessMiddleware) RequireAllPermissions(tuples ...model.RelationTuple) gin.HandlerFunc {
	return func(c *gin.Context) {
		uc := util.GetUserContext(c)
		if uc == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		results := m.fanOut(c, uc.UserID, tuples)
		for _, allowed := range results {
			if !allowed {
				m.denyAll(c, uc.UserID, tuples, "all")
				return
			}
		}

		c.Next()
	}
}

// authenticate resolves the session token and stores the caller in the
// request context. Returns nil after aborting with 401.
func (m *AccessMiddleware) authenticate(c *gin.Context) *model.UserContext {
	uc, err := m.resolver.Resolve(c.Request.Context(), sessionToken(c))
	if err != nil || uc == nil || uc.UserID == "" {
		logger.Debug("Session resolution failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		c.Abort()
		return nil
	}

	c.Set(util.ContextUserKey, uc)
	c.Set(util.ContextUserIDKey, uc.UserID)
	return uc
}

func (m *AccessMiddleware) allowed(c *gin.Context, tuple model.RelationTuple) bool {
	allowed, err := m.checker.CheckCached(c.Request.Context(), tuple, false)
	if err != nil {
		logger.Warn("Route permission check rejected", zap.Error(err), zap.String("tuple", tuple.String()))
		return false
	}
	return allowed
}

func (m *AccessMiddleware) fanOut(c *gin.Context, userID string, tuples []model.RelationTuple) []bool {
	results := make([]bool, len(tuples))
	g, gctx := errgroup.WithContext(c.Request.Context())
	for i, tuple := range tuples {
		i, tuple := i, tuple
		tuple.Subject = userID
		g.Go(func() error {
			allowed, err := m.checker.CheckCached(gctx, tuple, false)
			if err != nil {
				logger.Warn("Route permission check rejected", zap.Error(err), zap.String("tuple", tuple.String()))
				allowed = false
			}
			results[i] = allowed
			return nil
		})
	}
	g.Wait()
	return results
}

func (m *AccessMiddleware) deny(c *gin.Context, tuple model.RelationTuple) {
	logger.Warn("Permission denied",
		zap.String("tuple", tuple.String()),
		zap.String("path", c.Request.URL.Path))
	c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: missing permission " + tuple.String()})
	c.Abort()
}

func (m *AccessMiddleware) denyAll(c *gin.Context, userID string, tuples []model.RelationTuple, mode string) {
	descriptions := make([]string, len(tuples))
	for i, tuple := range tuples {
		tuple.Subject = userID
		descriptions[i] = tuple.String()
	}
	logger.Warn("Permission combination denied",
		zap.String("mode", mode),
		zap.Strings("tuples", descriptions),
		zap.String("path", c.Request.URL.Path))
	c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: missing permission " + strings.Join(descriptions, ", ")})
	c.Abort()
}

func sessionToken(c *gin.Context) string {
	if token := c.GetHeader("X-Session-Token"); token != "" {
		return token
	}
	if auth := c.GetHeader("Authorization"); auth != "" {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := c.Cookie("session_token"); err == nil {
		return cookie
	}
	return ""
}
