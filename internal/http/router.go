package http

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/techlearn-backend/internal/http/handlers"
	httpMW "github.com/yungbote/techlearn-backend/internal/http/middleware"
	"github.com/yungbote/techlearn-backend/internal/http/response"
	"github.com/yungbote/techlearn-backend/internal/observability"
	"github.com/yungbote/techlearn-backend/internal/platform/apierr"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

// multipart overhead allowed on top of the file size limit
const uploadEnvelopeBytes = 1 << 20

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	Metrics        *observability.Metrics
	MaxUploadBytes int64
	// UploadDir is served under /uploads when files are kept on local disk.
	UploadDir string
	// PublicDir holds an optional single-page client served for non-API paths.
	PublicDir string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler    *httpH.HealthHandler
	AuthHandler      *httpH.AuthHandler
	ContentHandler   *httpH.ContentHandler
	ModuleHandler    *httpH.ModuleHandler
	LearningHandler  *httpH.LearningHandler
	AnalyticsHandler *httpH.AnalyticsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.MaxMultipartMemory = 32 << 20

	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	if cfg.UploadDir != "" {
		r.Static("/uploads", cfg.UploadDir)
	}

	api := r.Group("/api/v1")

	// Health
	if cfg.HealthHandler != nil {
		api.GET("/health", cfg.HealthHandler.HealthCheck)
	}

	// Auth (public)
	if cfg.AuthHandler != nil {
		api.POST("/auth/register", cfg.AuthHandler.Register)
		api.POST("/auth/login", cfg.AuthHandler.Login)
	}

	protected := api.Group("/")
	manager := protected.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
		manager = protected.Group("/", cfg.AuthMiddleware.RequireManager())
	}

	if cfg.AuthHandler != nil {
		protected.GET("/auth/me", cfg.AuthHandler.Me)
	}

	// Content
	if cfg.ContentHandler != nil {
		uploadLimit := cfg.MaxUploadBytes
		if uploadLimit > 0 {
			uploadLimit += uploadEnvelopeBytes
		}
		manager.POST("/content/upload", httpMW.BodyLimit(uploadLimit), cfg.ContentHandler.Upload)
		protected.GET("/content", cfg.ContentHandler.List)
		protected.GET("/content/:id", cfg.ContentHandler.Get)
		manager.PUT("/content/:id", cfg.ContentHandler.Update)
		manager.DELETE("/content/:id", cfg.ContentHandler.Delete)
	}

	// Modules and questions
	if cfg.ModuleHandler != nil {
		protected.GET("/modules", cfg.ModuleHandler.List)
		protected.GET("/modules/:id", cfg.ModuleHandler.Get)
		manager.POST("/modules", cfg.ModuleHandler.Create)
		manager.PUT("/modules/:id", cfg.ModuleHandler.Update)
		manager.DELETE("/modules/:id", cfg.ModuleHandler.Delete)
		manager.PATCH("/modules/:id/publish", cfg.ModuleHandler.SetPublished)
		manager.POST("/modules/:id/questions", cfg.ModuleHandler.AddQuestion)
		manager.PUT("/questions/:id", cfg.ModuleHandler.UpdateQuestion)
		manager.DELETE("/questions/:id", cfg.ModuleHandler.DeleteQuestion)
	}

	// Learning
	if cfg.LearningHandler != nil {
		protected.GET("/learning/dashboard", cfg.LearningHandler.Dashboard)
		protected.POST("/learning/modules/:id/start", cfg.LearningHandler.Start)
		protected.PUT("/learning/progress/:id", cfg.LearningHandler.RecordProgress)
		protected.POST("/learning/modules/:id/assessment", cfg.LearningHandler.SubmitAssessment)
		protected.GET("/learning/modules/:id/assessments", cfg.LearningHandler.AssessmentHistory)
		protected.GET("/learning/achievements", cfg.LearningHandler.Achievements)
	}

	// Analytics
	if cfg.AnalyticsHandler != nil {
		manager.GET("/analytics/organization", cfg.AnalyticsHandler.Organization)
		manager.GET("/analytics/users", cfg.AnalyticsHandler.Users)
		manager.GET("/analytics/modules/:id", cfg.AnalyticsHandler.Module)
		protected.GET("/analytics/leaderboard", cfg.AnalyticsHandler.Leaderboard)
	}

	r.NoRoute(spaFallback(cfg.PublicDir))
	return r
}

// spaFallback serves files from dir and falls back to index.html so client
// side routes resolve. API paths always get a JSON 404.
func spaFallback(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqPath := c.Request.URL.Path
		if dir == "" || strings.HasPrefix(reqPath, "/api/") || c.Request.Method != http.MethodGet {
			response.RespondError(c, apierr.NotFound("route"))
			return
		}
		candidate := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+reqPath)))
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			c.File(candidate)
			return
		}
		index := filepath.Join(dir, "index.html")
		if _, err := os.Stat(index); err != nil {
			response.RespondError(c, apierr.NotFound("route"))
			return
		}
		c.File(index)
	}
}
