package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	analyticsrepo "github.com/yungbote/techlearn-backend/internal/data/repos/analytics"
	gamificationrepo "github.com/yungbote/techlearn-backend/internal/data/repos/gamification"
	learningrepo "github.com/yungbote/techlearn-backend/internal/data/repos/learning"
	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/domain/gamification"
	"github.com/yungbote/techlearn-backend/internal/platform/apierr"
	"github.com/yungbote/techlearn-backend/internal/platform/cache"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

const (
	topPerformersLimit = 10
	leaderboardLimit   = 50
	activeWindow       = 7 * 24 * time.Hour
)

type LeaderboardPeriod string

const (
	PeriodAll   LeaderboardPeriod = "all"
	PeriodWeek  LeaderboardPeriod = "week"
	PeriodMonth LeaderboardPeriod = "month"
)

type OrganizationAnalytics struct {
	TotalUsers      int64                              `json:"totalUsers"`
	TotalModules    int64                              `json:"totalModules"`
	AverageProgress float64                            `json:"averageProgress"`
	CompletionRate  float64                            `json:"completionRate"`
	AverageScore    float64                            `json:"averageScore"`
	ActiveUsers     int64                              `json:"activeUsers"`
	TopPerformers   []*gamificationrepo.LeaderboardRow `json:"topPerformers"`
}

type QuestionStat struct {
	ID            uuid.UUID `json:"id"`
	QuestionText  string    `json:"question_text"`
	Difficulty    string    `json:"difficulty_level"`
	TimesAnswered int       `json:"times_answered"`
	CorrectRate   float64   `json:"correct_rate"`
}

type ModuleAnalytics struct {
	Completion *analyticsrepo.ModuleCompletion `json:"completion"`
	Assessment *analyticsrepo.ModuleAssessment `json:"assessment"`
	Questions  []QuestionStat                  `json:"questions"`
}

type LeaderboardResult struct {
	Leaderboard     []*gamificationrepo.LeaderboardRow `json:"leaderboard"`
	CurrentUserRank int                                `json:"currentUserRank"`
}

type AnalyticsService interface {
	Organization(ctx context.Context, p types.Principal) (*OrganizationAnalytics, error)
	Users(ctx context.Context, p types.Principal) ([]*analyticsrepo.UserRollup, error)
	Module(ctx context.Context, p types.Principal, moduleID uuid.UUID) (*ModuleAnalytics, error)
	Leaderboard(ctx context.Context, p types.Principal, period LeaderboardPeriod) (*LeaderboardResult, error)
}

type analyticsService struct {
	db          *gorm.DB
	log         *logger.Logger
	stats       analyticsrepo.Repo
	points      gamificationrepo.PointsRepo
	modules     learningrepo.ModuleRepo
	questions   learningrepo.QuestionRepo
	assessments learningrepo.AssessmentRepo
	cache       cache.Cache
	cacheTTL    time.Duration
	now         func() time.Time
}

// NewAnalyticsService caches organization overviews and leaderboards in c for
// ttl. A nil cache disables caching.
func NewAnalyticsService(
	db *gorm.DB,
	log *logger.Logger,
	stats analyticsrepo.Repo,
	points gamificationrepo.PointsRepo,
	modules learningrepo.ModuleRepo,
	questions learningrepo.QuestionRepo,
	assessments learningrepo.AssessmentRepo,
	c cache.Cache,
	ttl time.Duration,
) AnalyticsService {
	if c == nil || ttl <= 0 {
		c = cache.Nop()
	}
	return &analyticsService{
		db:          db,
		log:         log.With("service", "AnalyticsService"),
		stats:       stats,
		points:      points,
		modules:     modules,
		questions:   questions,
		assessments: assessments,
		cache:       c,
		cacheTTL:    ttl,
		now:         time.Now,
	}
}

func ratio(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

func (as *analyticsService) Organization(ctx context.Context, p types.Principal) (*OrganizationAnalytics, error) {
	if err := requireManager(p); err != nil {
		return nil, err
	}
	out, err := cache.GetOrLoad(ctx, as.log, as.cache, "analytics_org", p.OrganizationID.String(), as.cacheTTL,
		func(ctx context.Context) (*OrganizationAnalytics, error) {
			return as.loadOrganization(ctx, p.OrganizationID)
		})
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return out, nil
}

func (as *analyticsService) loadOrganization(ctx context.Context, orgID uuid.UUID) (*OrganizationAnalytics, error) {
	out := &OrganizationAnalytics{}
	var progress *analyticsrepo.ProgressStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.TotalUsers, err = as.stats.CountActiveUsers(gctx, nil, orgID)
		return err
	})
	g.Go(func() (err error) {
		out.TotalModules, err = as.stats.CountPublishedModules(gctx, nil, orgID)
		return err
	})
	g.Go(func() (err error) {
		progress, err = as.stats.ProgressStats(gctx, nil, orgID)
		return err
	})
	g.Go(func() (err error) {
		out.AverageScore, err = as.stats.AverageScore(gctx, nil, orgID)
		return err
	})
	g.Go(func() (err error) {
		out.ActiveUsers, err = as.stats.CountRecentlyActive(gctx, nil, orgID, as.now().UTC().Add(-activeWindow))
		return err
	})
	g.Go(func() (err error) {
		out.TopPerformers, err = as.points.Leaderboard(gctx, nil, orgID, "", topPerformersLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("organization analytics: %w", err)
	}
	if progress != nil {
		out.AverageProgress = progress.AvgProgress
		out.CompletionRate = ratio(float64(progress.Completed), float64(progress.Rows))
	}
	if out.TopPerformers == nil {
		out.TopPerformers = []*gamificationrepo.LeaderboardRow{}
	}
	return out, nil
}

func (as *analyticsService) Users(ctx context.Context, p types.Principal) ([]*analyticsrepo.UserRollup, error) {
	if err := requireManager(p); err != nil {
		return nil, err
	}
	rows, err := as.stats.UserRollups(ctx, nil, p.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("user analytics: %w", err)
	}
	if rows == nil {
		rows = []*analyticsrepo.UserRollup{}
	}
	return rows, nil
}

func (as *analyticsService) Module(ctx context.Context, p types.Principal, moduleID uuid.UUID) (*ModuleAnalytics, error) {
	if err := requireManager(p); err != nil {
		return nil, err
	}
	m, err := as.modules.GetInOrg(ctx, nil, p.OrganizationID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("load module: %w", err)
	}
	if m == nil {
		return nil, apierr.NotFound("module")
	}

	out := &ModuleAnalytics{}
	var questions []*types.Question
	var results []*types.AssessmentResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Completion, err = as.stats.ModuleCompletion(gctx, nil, m.ID)
		return err
	})
	g.Go(func() (err error) {
		out.Assessment, err = as.stats.ModuleAssessment(gctx, nil, m.ID)
		return err
	})
	g.Go(func() (err error) {
		questions, err = as.questions.GetByModuleID(gctx, nil, m.ID)
		return err
	})
	g.Go(func() (err error) {
		results, err = as.assessments.ListByModule(gctx, nil, m.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apierr.Internal(fmt.Errorf("module analytics: %w", err))
	}
	out.Questions = QuestionStats(questions, results)
	return out, nil
}

// QuestionStats derives per-question answer counts and correct rates from the
// answers stored on each assessment result.
func QuestionStats(questions []*types.Question, results []*types.AssessmentResult) []QuestionStat {
	type tally struct{ answered, correct int }
	counts := make(map[uuid.UUID]*tally, len(questions))
	for _, q := range questions {
		counts[q.ID] = &tally{}
	}
	for _, r := range results {
		for _, a := range r.Answers {
			t, ok := counts[a.QuestionID]
			if !ok {
				continue
			}
			t.answered++
			if a.IsCorrect {
				t.correct++
			}
		}
	}
	out := make([]QuestionStat, 0, len(questions))
	for _, q := range questions {
		t := counts[q.ID]
		out = append(out, QuestionStat{
			ID:            q.ID,
			QuestionText:  q.QuestionText,
			Difficulty:    q.Difficulty,
			TimesAnswered: t.answered,
			CorrectRate:   ratio(float64(t.correct), float64(t.answered)),
		})
	}
	return out
}

// ParsePeriod accepts all, week and month. Empty means all.
func ParsePeriod(raw string) (LeaderboardPeriod, error) {
	switch LeaderboardPeriod(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PeriodAll:
		return PeriodAll, nil
	case PeriodWeek:
		return PeriodWeek, nil
	case PeriodMonth:
		return PeriodMonth, nil
	}
	return "", apierr.Validation("unknown period %q", raw)
}

func (as *analyticsService) activeSince(period LeaderboardPeriod) string {
	today := as.now().UTC()
	switch period {
	case PeriodWeek:
		return today.AddDate(0, 0, -7).Format(gamification.DateLayout)
	case PeriodMonth:
		return today.AddDate(0, 0, -30).Format(gamification.DateLayout)
	}
	return ""
}

// Leaderboard ranks the caller's organization. CurrentUserRank is 1-based and
// 0 when the caller is outside the returned rows.
func (as *analyticsService) Leaderboard(ctx context.Context, p types.Principal, period LeaderboardPeriod) (*LeaderboardResult, error) {
	period, err := ParsePeriod(string(period))
	if err != nil {
		return nil, err
	}
	since := as.activeSince(period)
	key := p.OrganizationID.String() + ":" + string(period) + ":" + since
	rows, err := cache.GetOrLoad(ctx, as.log, as.cache, "leaderboard", key, as.cacheTTL,
		func(ctx context.Context) ([]*gamificationrepo.LeaderboardRow, error) {
			return as.points.Leaderboard(ctx, nil, p.OrganizationID, since, leaderboardLimit)
		})
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("leaderboard: %w", err))
	}
	if rows == nil {
		rows = []*gamificationrepo.LeaderboardRow{}
	}
	out := &LeaderboardResult{Leaderboard: rows}
	for i, row := range rows {
		if row.UserID == p.UserID {
			out.CurrentUserRank = i + 1
			break
		}
	}
	return out, nil
}
