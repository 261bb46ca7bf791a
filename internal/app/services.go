package app

import (
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/techlearn-backend/internal/ingestion/derive"
	"github.com/yungbote/techlearn-backend/internal/ingestion/enrich"
	"github.com/yungbote/techlearn-backend/internal/ingestion/pipeline"
	"github.com/yungbote/techlearn-backend/internal/jobs"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
	"github.com/yungbote/techlearn-backend/internal/services"
)

type Services struct {
	// Auth
	Auth services.AuthService

	// Content + modules
	Content services.ContentService
	Module  services.ModuleService

	// Learning
	Gamification services.GamificationService
	Learning     services.LearningService
	Analytics    services.AnalyticsService

	// Background extraction
	Pipeline *pipeline.Pipeline
	Runner   *jobs.Runner
	Reaper   *jobs.Reaper
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) Services {
	log.Info("Wiring services...")

	authService := services.NewAuthService(
		db, log,
		repos.User,
		repos.Organization,
		repos.Points,
		cfg.JWTSecretKey,
		cfg.AccessTokenTTL,
		cfg.DefaultOrgSubdomain,
	)

	gamificationService := services.NewGamificationService(db, log, repos.Points, repos.Achievement, repos.Progress, time.Now)
	learningService := services.NewLearningService(
		db, log,
		repos.Module,
		repos.Question,
		repos.Progress,
		repos.Assessment,
		repos.Points,
		repos.Achievement,
		gamificationService,
		time.Now,
	)

	enricher := enrich.New(log, clients.Oracle, cfg.OpenAI.Timeout)
	deriver := derive.New(log, repos.Module, repos.Question)
	extraction := pipeline.New(db, log, repos.ContentItem, clients.Store, enricher, deriver)
	runner := jobs.NewRunner(log, cfg.ExtractionConcurrency, cfg.ExtractionTimeout)
	reaper := jobs.NewReaper(log, repos.ContentItem, cfg.StaleProcessingAfter, cfg.ReaperSchedule)

	contentService := services.NewContentService(db, log, repos.ContentItem, clients.Store, runner, extraction, cfg.MaxUploadBytes)
	moduleService := services.NewModuleService(db, log, repos.Module, repos.Question, repos.Progress, repos.ContentItem, clients.Store.URL)
	analyticsService := services.NewAnalyticsService(
		db, log,
		repos.Analytics,
		repos.Points,
		repos.Module,
		repos.Question,
		repos.Assessment,
		clients.Cache,
		cfg.AnalyticsCacheTTL,
	)

	return Services{
		Auth:         authService,
		Content:      contentService,
		Module:       moduleService,
		Gamification: gamificationService,
		Learning:     learningService,
		Analytics:    analyticsService,
		Pipeline:     extraction,
		Runner:       runner,
		Reaper:       reaper,
	}
}
