package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	analyticsrepo "github.com/yungbote/techlearn-backend/internal/data/repos/analytics"
	contentrepo "github.com/yungbote/techlearn-backend/internal/data/repos/content"
	gamificationrepo "github.com/yungbote/techlearn-backend/internal/data/repos/gamification"
	learningrepo "github.com/yungbote/techlearn-backend/internal/data/repos/learning"
	"github.com/yungbote/techlearn-backend/internal/data/repos/testutil"
	userrepo "github.com/yungbote/techlearn-backend/internal/data/repos/user"
	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/jobs"
	"github.com/yungbote/techlearn-backend/internal/platform/apierr"
	"github.com/yungbote/techlearn-backend/internal/platform/blob"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingProcessor struct {
	mu  sync.Mutex
	ids []uuid.UUID
	err error
}

func (p *recordingProcessor) Process(ctx context.Context, contentID uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, contentID)
	return p.err
}

type harness struct {
	ctx   context.Context
	db    *gorm.DB
	clock *fakeClock

	users        userrepo.UserRepo
	points       gamificationrepo.PointsRepo
	achievements gamificationrepo.AchievementRepo
	progress     learningrepo.ProgressRepo
	assessments  learningrepo.AssessmentRepo
	items        contentrepo.ContentItemRepo
	store        *blob.LocalStore
	processor    *recordingProcessor
	runner       *jobs.Runner

	auth         AuthService
	gamification GamificationService
	learning     LearningService
	content      ContentService
	modules      ModuleService
	analytics    AnalyticsService

	org     *types.Organization
	manager *types.User
	learner *types.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}

	users := userrepo.NewUserRepo(db, log)
	orgs := userrepo.NewOrganizationRepo(db, log)
	points := gamificationrepo.NewPointsRepo(db, log)
	achievements := gamificationrepo.NewAchievementRepo(db, log)
	modules := learningrepo.NewModuleRepo(db, log)
	questions := learningrepo.NewQuestionRepo(db, log)
	progress := learningrepo.NewProgressRepo(db, log)
	assessments := learningrepo.NewAssessmentRepo(db, log)
	items := contentrepo.NewContentItemRepo(db, log)
	stats := analyticsrepo.NewRepo(db, log)

	store, err := blob.NewLocalStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	runner := jobs.NewRunner(log, 2, 5*time.Second)
	t.Cleanup(func() { _ = runner.Shutdown(context.Background()) })
	processor := &recordingProcessor{}

	gam := NewGamificationService(db, log, points, achievements, progress, clock.Now)
	h := &harness{
		ctx:          ctx,
		db:           db,
		clock:        clock,
		users:        users,
		points:       points,
		achievements: achievements,
		progress:     progress,
		assessments:  assessments,
		items:        items,
		store:        store,
		processor:    processor,
		runner:       runner,
		auth:         NewAuthService(db, log, users, orgs, points, "test-secret", time.Hour, "demo"),
		gamification: gam,
		learning:     NewLearningService(db, log, modules, questions, progress, assessments, points, achievements, gam, clock.Now),
		content:      NewContentService(db, log, items, store, runner, processor, 1024),
		modules:      NewModuleService(db, log, modules, questions, progress, items, store.URL),
		analytics:    NewAnalyticsService(db, log, stats, points, modules, questions, assessments, nil, 0),
	}
	h.org = testutil.SeedOrganization(t, ctx, db, "acme")
	h.manager = testutil.SeedUser(t, ctx, db, h.org.ID, "manny", types.RoleManager)
	h.learner = testutil.SeedUser(t, ctx, db, h.org.ID, "lena", types.RoleLearner)
	return h
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if !apierr.IsCode(err, code) {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}
