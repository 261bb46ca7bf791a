package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/techlearn-backend/internal/http"
	httpH "github.com/yungbote/techlearn-backend/internal/http/handlers"
	httpMW "github.com/yungbote/techlearn-backend/internal/http/middleware"
	"github.com/yungbote/techlearn-backend/internal/observability"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health    *httpH.HealthHandler
	Auth      *httpH.AuthHandler
	Content   *httpH.ContentHandler
	Module    *httpH.ModuleHandler
	Learning  *httpH.LearningHandler
	Analytics *httpH.AnalyticsHandler
}

func dbPing(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func wireHandlers(log *logger.Logger, cfg Config, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(cfg.Version, dbPing(db)),
		Auth:      httpH.NewAuthHandler(services.Auth),
		Content:   httpH.NewContentHandler(log, services.Content),
		Module:    httpH.NewModuleHandler(services.Module),
		Learning:  httpH.NewLearningHandler(services.Learning, services.Gamification),
		Analytics: httpH.NewAnalyticsHandler(services.Analytics),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	uploadDir := ""
	if cfg.ObjectStorageMode == StorageModeLocal {
		uploadDir = cfg.LocalStorageDir
	}
	return http.NewRouter(http.RouterConfig{
		Log:              log,
		ServiceName:      otelServiceName(),
		CORSOrigins:      cfg.CORSOrigins,
		Metrics:          metrics,
		MaxUploadBytes:   cfg.MaxUploadBytes,
		UploadDir:        uploadDir,
		PublicDir:        cfg.PublicDir,
		AuthMiddleware:   middleware.Auth,
		HealthHandler:    handlers.Health,
		AuthHandler:      handlers.Auth,
		ContentHandler:   handlers.Content,
		ModuleHandler:    handlers.Module,
		LearningHandler:  handlers.Learning,
		AnalyticsHandler: handlers.Analytics,
	})
}

// otelServiceName is empty when tracing is off so the router skips otelgin.
func otelServiceName() string {
	if !observability.TracingEnabled() {
		return ""
	}
	return ServiceName
}
