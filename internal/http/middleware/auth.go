package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/http/response"
	"github.com/yungbote/techlearn-backend/internal/platform/apierr"
	"github.com/yungbote/techlearn-backend/internal/platform/ctxutil"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
	"github.com/yungbote/techlearn-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	middlewareLogger := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService}
}

// RequireAuth decodes the bearer token and attaches the caller's principal to
// the request context.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c)
		if tokenString == "" {
			response.RespondError(c, apierr.Unauthorized("access token required"))
			return
		}
		p, err := am.authService.DecodeToken(tokenString)
		if err != nil {
			am.log.Debug("rejected token", "path", c.Request.URL.Path, "error", err)
			response.RespondError(c, err)
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

// RequireManager rejects callers that are neither managers nor admins.
// It must run after RequireAuth.
func (am *AuthMiddleware) RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := ctxutil.GetPrincipal(c.Request.Context())
		if !ok {
			response.RespondError(c, apierr.Unauthorized("access token required"))
			return
		}
		if !p.CanManage() {
			response.RespondError(c, apierr.Forbidden("access denied"))
			return
		}
		c.Next()
	}
}

// Principal returns the caller attached by RequireAuth.
func Principal(c *gin.Context) (types.Principal, bool) {
	return ctxutil.GetPrincipal(c.Request.Context())
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
