package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/http/response"
	"github.com/yungbote/techlearn-backend/internal/platform/apierr"
	"github.com/yungbote/techlearn-backend/internal/platform/ctxutil"
)

func principal(c *gin.Context) (types.Principal, bool) {
	p, ok := ctxutil.GetPrincipal(c.Request.Context())
	if !ok {
		response.RespondError(c, apierr.Unauthorized("access token required"))
	}
	return p, ok
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		response.RespondError(c, apierr.Validation("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, apierr.Validation("invalid request body: %v", err))
		return false
	}
	return true
}

// queryBool parses an optional boolean query parameter. Absent means nil.
func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		response.RespondError(c, apierr.Validation("invalid %s %q", name, raw))
		return nil, false
	}
	return &v, true
}
