package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/http/response"
	"github.com/yungbote/techlearn-backend/internal/platform/apierr"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
	"github.com/yungbote/techlearn-backend/internal/services"
)

type fakeAuth struct {
	tokens map[string]types.Principal
}

func (f *fakeAuth) Register(context.Context, services.RegisterInput) (*types.User, error) {
	return nil, nil
}

func (f *fakeAuth) Login(context.Context, services.LoginInput) (string, *types.User, error) {
	return "", nil, nil
}

func (f *fakeAuth) DecodeToken(token string) (types.Principal, error) {
	p, ok := f.tokens[token]
	if !ok {
		return types.Principal{}, apierr.Unauthorized("invalid token")
	}
	return p, nil
}

func (f *fakeAuth) Me(context.Context, types.Principal) (*services.Profile, error) { return nil, nil }

func (f *fakeAuth) AccessTTL() time.Duration { return time.Hour }

func newAuthRouter(t *testing.T) (*gin.Engine, types.Principal) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	learner := types.Principal{UserID: uuid.New(), Role: types.RoleLearner, OrganizationID: uuid.New()}
	manager := types.Principal{UserID: uuid.New(), Role: types.RoleManager, OrganizationID: learner.OrganizationID}
	am := NewAuthMiddleware(logger.Nop(), &fakeAuth{tokens: map[string]types.Principal{
		"learner-token": learner,
		"manager-token": manager,
	}})

	r := gin.New()
	protected := r.Group("/", am.RequireAuth())
	protected.GET("/me", func(c *gin.Context) {
		p, _ := Principal(c)
		c.JSON(http.StatusOK, gin.H{"id": p.UserID.String()})
	})
	protected.GET("/admin", am.RequireManager(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, learner
}

func doGet(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	r, learner := newAuthRouter(t)

	rec := doGet(r, "/me", "learner-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["id"] != learner.UserID.String() {
		t.Fatalf("principal not attached: %v", body)
	}

	for _, token := range []string{"", "forged"} {
		rec := doGet(r, "/me", token)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("token %q: status=%d", token, rec.Code)
		}
		var env response.ErrorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		if env.Error.Code != apierr.CodeUnauthorized || env.Error.Message == "" {
			t.Fatalf("unexpected envelope: %+v", env)
		}
	}
}

func TestRequireManager(t *testing.T) {
	r, _ := newAuthRouter(t)

	if rec := doGet(r, "/admin", "learner-token"); rec.Code != http.StatusForbidden {
		t.Fatalf("learner: status=%d", rec.Code)
	}
	if rec := doGet(r, "/admin", "manager-token"); rec.Code != http.StatusNoContent {
		t.Fatalf("manager: status=%d", rec.Code)
	}
}
