package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/platform/ctxutil"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

func TestCallerID(t *testing.T) {
	cases := map[string]string{
		"  req-42 ":              "req-42",
		"":                       "",
		"has space":              "",
		"line\nbreak":            "",
		strings.Repeat("a", 129): "",
		strings.Repeat("b", 128): strings.Repeat("b", 128),
	}
	for in, want := range cases {
		if got := callerID(in); got != want {
			t.Fatalf("callerID(%q)=%q want %q", in, got, want)
		}
	}
}

func TestAttachTraceContextHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen *ctxutil.TraceData
	r.GET("/x", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerRequestID, "req-42")
	req.Header.Set(headerTraceID, "bad trace\tid")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if seen == nil || seen.RequestID != "req-42" {
		t.Fatalf("request id not propagated: %+v", seen)
	}
	if seen.TraceID == "" || seen.TraceID == "bad trace\tid" {
		t.Fatalf("unexpected trace id %q", seen.TraceID)
	}
	if rec.Header().Get(headerRequestID) != "req-42" || rec.Header().Get(headerTraceID) != seen.TraceID {
		t.Fatalf("headers not echoed: %v", rec.Header())
	}
}

func TestAttachTraceContextTagsSpanWithCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	learner := types.Principal{UserID: uuid.New(), Role: types.RoleLearner, OrganizationID: uuid.New()}
	am := NewAuthMiddleware(logger.Nop(), &fakeAuth{tokens: map[string]types.Principal{"learner-token": learner}})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		ctx, span := tp.Tracer("test").Start(c.Request.Context(), "request")
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		span.End()
	})
	r.Use(AttachTraceContext())
	r.GET("/me", am.RequireAuth(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := doGet(r, "/me", "learner-token")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status=%d", rec.Code)
	}
	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans=%d", len(spans))
	}
	if rec.Header().Get(headerTraceID) != spans[0].SpanContext().TraceID().String() {
		t.Fatalf("trace header %q does not match span", rec.Header().Get(headerTraceID))
	}
	attrs := map[attribute.Key]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value.AsString()
	}
	if attrs["techlearn.organization_id"] != learner.OrganizationID.String() ||
		attrs["techlearn.user_id"] != learner.UserID.String() ||
		attrs["techlearn.role"] != string(learner.Role) ||
		attrs["techlearn.request_id"] == "" {
		t.Fatalf("unexpected span attributes: %v", attrs)
	}
}
