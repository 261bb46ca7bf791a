package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	gamificationrepo "github.com/yungbote/techlearn-backend/internal/data/repos/gamification"
	learningrepo "github.com/yungbote/techlearn-backend/internal/data/repos/learning"
	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/domain/gamification"
	"github.com/yungbote/techlearn-backend/internal/observability"
	"github.com/yungbote/techlearn-backend/internal/platform/apierr"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

const (
	dashboardInProgressLimit   = 5
	dashboardRecommendedLimit  = 6
	dashboardAchievementsLimit = 5
	maxSubmitAttempts          = 3
)

type StartResult struct {
	Message    string               `json:"message"`
	ProgressID uuid.UUID            `json:"progressId"`
	Status     types.ProgressStatus `json:"status"`
}

type RecordProgressInput struct {
	ProgressPercentage *float64 `json:"progressPercentage"`
	TimeSpentMinutes   int      `json:"timeSpentMinutes"`
}

// SubmitInput maps question IDs to the chosen option label.
type SubmitInput struct {
	Answers map[string]string `json:"answers"`
}

type AssessmentOutcome struct {
	ResultID      uuid.UUID            `json:"resultId"`
	Score         int                  `json:"score"`
	MaxScore      int                  `json:"maxScore"`
	Percentage    float64              `json:"percentage"`
	Passed        bool                 `json:"passed"`
	AttemptNumber int                  `json:"attemptNumber"`
	PointsAwarded int                  `json:"pointsAwarded"`
	Results       []types.AnswerReview `json:"results"`

	raw float64
}

type DashboardStats struct {
	TotalPoints       int `json:"total_points"`
	CurrentStreakDays int `json:"current_streak_days"`
	LongestStreakDays int `json:"longest_streak_days"`
	Level             int `json:"level"`
}

type Dashboard struct {
	Summary            *learningrepo.ProgressSummary `json:"summary"`
	Stats              DashboardStats                `json:"stats"`
	InProgress         []*learningrepo.InProgressRow `json:"inProgress"`
	Recommended        []*learningrepo.ModuleRow     `json:"recommended"`
	RecentAchievements []*types.UserAchievement      `json:"recentAchievements"`
}

type LearningService interface {
	Start(ctx context.Context, p types.Principal, moduleID uuid.UUID) (*StartResult, error)
	RecordProgress(ctx context.Context, p types.Principal, progressID uuid.UUID, in RecordProgressInput) (*types.UserProgress, error)
	SubmitAssessment(ctx context.Context, p types.Principal, moduleID uuid.UUID, in SubmitInput) (*AssessmentOutcome, error)
	AssessmentHistory(ctx context.Context, p types.Principal, moduleID uuid.UUID) ([]*types.AssessmentResult, error)
	Dashboard(ctx context.Context, p types.Principal) (*Dashboard, error)
}

type learningService struct {
	db           *gorm.DB
	log          *logger.Logger
	modules      learningrepo.ModuleRepo
	questions    learningrepo.QuestionRepo
	progress     learningrepo.ProgressRepo
	assessments  learningrepo.AssessmentRepo
	points       gamificationrepo.PointsRepo
	achievements gamificationrepo.AchievementRepo
	gamification GamificationService
	now          func() time.Time
}

func NewLearningService(
	db *gorm.DB,
	log *logger.Logger,
	modules learningrepo.ModuleRepo,
	questions learningrepo.QuestionRepo,
	progress learningrepo.ProgressRepo,
	assessments learningrepo.AssessmentRepo,
	points gamificationrepo.PointsRepo,
	achievements gamificationrepo.AchievementRepo,
	gamificationService GamificationService,
	clock func() time.Time,
) LearningService {
	if clock == nil {
		clock = time.Now
	}
	return &learningService{
		db:           db,
		log:          log.With("service", "LearningService"),
		modules:      modules,
		questions:    questions,
		progress:     progress,
		assessments:  assessments,
		points:       points,
		achievements: achievements,
		gamification: gamificationService,
		now:          clock,
	}
}

// Start creates the progress record on first call and resumes it afterwards.
// A completed record is reported as is.
func (ls *learningService) Start(ctx context.Context, p types.Principal, moduleID uuid.UUID) (*StartResult, error) {
	if _, err := visibleModule(ctx, nil, ls.modules, p, moduleID); err != nil {
		return nil, err
	}
	var out *StartResult
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		out, err = ls.start(ctx, p, moduleID)
		if err == nil || !isDuplicate(err) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	ls.log.Debug("module started", "user_id", p.UserID, "module_id", moduleID, "status", out.Status)
	return out, nil
}

func (ls *learningService) start(ctx context.Context, p types.Principal, moduleID uuid.UUID) (*StartResult, error) {
	var out *StartResult
	err := ls.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := ls.now().UTC()
		existing, err := ls.progress.GetByUserAndModule(ctx, tx, p.UserID, moduleID)
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}
		switch {
		case existing != nil && existing.Status == types.ProgressCompleted:
			out = &StartResult{Message: "Module already completed", ProgressID: existing.ID, Status: existing.Status}
			return nil
		case existing != nil:
			updates := map[string]interface{}{
				"status":        types.ProgressInProgress,
				"last_accessed": now,
			}
			if existing.StartedAt == nil {
				updates["started_at"] = now
			}
			if err := ls.progress.UpdateFields(ctx, tx, existing.ID, updates); err != nil {
				return fmt.Errorf("resume progress: %w", err)
			}
			out = &StartResult{Message: "Module resumed", ProgressID: existing.ID, Status: types.ProgressInProgress}
		default:
			row := &types.UserProgress{
				UserID:       p.UserID,
				ModuleID:     moduleID,
				Status:       types.ProgressInProgress,
				StartedAt:    &now,
				LastAccessed: now,
			}
			if _, err := ls.progress.Create(ctx, tx, row); err != nil {
				return err
			}
			out = &StartResult{Message: "Module started", ProgressID: row.ID, Status: row.Status}
		}
		if _, err := ls.gamification.UpdateStreak(ctx, tx, p.UserID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (ls *learningService) RecordProgress(ctx context.Context, p types.Principal, progressID uuid.UUID, in RecordProgressInput) (*types.UserProgress, error) {
	if in.ProgressPercentage != nil && (math.IsNaN(*in.ProgressPercentage) || math.IsInf(*in.ProgressPercentage, 0)) {
		return nil, apierr.Validation("progressPercentage must be a number")
	}
	if in.TimeSpentMinutes < 0 {
		return nil, apierr.Validation("timeSpentMinutes must not be negative")
	}

	var out *types.UserProgress
	err := ls.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := ls.progress.GetByID(ctx, tx, progressID)
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}
		if row == nil || row.UserID != p.UserID {
			return apierr.NotFound("progress")
		}

		now := ls.now().UTC()
		updates := map[string]interface{}{"last_accessed": now}
		if in.TimeSpentMinutes > 0 {
			updates["time_spent_minutes"] = gorm.Expr("time_spent_minutes + ?", in.TimeSpentMinutes)
		}
		if row.Status != types.ProgressCompleted {
			if in.ProgressPercentage != nil {
				updates["progress_percentage"] = clampPercentage(*in.ProgressPercentage)
			}
			if row.Status == types.ProgressNotStarted {
				updates["status"] = types.ProgressInProgress
				if row.StartedAt == nil {
					updates["started_at"] = now
				}
			}
		}
		if err := ls.progress.UpdateFields(ctx, tx, row.ID, updates); err != nil {
			return fmt.Errorf("update progress: %w", err)
		}
		if _, err := ls.gamification.UpdateStreak(ctx, tx, p.UserID); err != nil {
			return err
		}
		out, err = ls.progress.GetByID(ctx, tx, row.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func clampPercentage(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ScoreAnswers grades answers against the stored keys. A label must match
// exactly.
func ScoreAnswers(questions []*types.Question, answers map[string]string) (earned, total int, reviews []types.AnswerReview) {
	reviews = make([]types.AnswerReview, 0, len(questions))
	for _, q := range questions {
		total += q.Points
		given := answers[q.ID.String()]
		correct := given != "" && given == q.CorrectAnswer
		if correct {
			earned += q.Points
		}
		reviews = append(reviews, types.AnswerReview{
			QuestionID:    q.ID,
			UserAnswer:    given,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     correct,
			Explanation:   q.Explanation,
		})
	}
	return earned, total, reviews
}

func (ls *learningService) SubmitAssessment(ctx context.Context, p types.Principal, moduleID uuid.UUID, in SubmitInput) (*AssessmentOutcome, error) {
	if _, err := visibleModule(ctx, nil, ls.modules, p, moduleID); err != nil {
		return nil, err
	}
	questions, err := ls.questions.GetByModuleID(ctx, nil, moduleID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, apierr.NoQuestions()
	}

	earned, total, reviews := ScoreAnswers(questions, in.Answers)
	raw := 0.0
	if total > 0 {
		raw = float64(earned) / float64(total) * 100
	}
	// Pass/fail and the award use the unrounded score.
	out := &AssessmentOutcome{
		Score:      earned,
		MaxScore:   total,
		Percentage: roundTo2(raw),
		Passed:     raw >= types.PassingPercentage,
		Results:    reviews,
		raw:        raw,
	}

	for attempt := 1; ; attempt++ {
		err = ls.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return ls.recordAttempt(ctx, tx, p.UserID, moduleID, out)
		})
		if err == nil || !isDuplicate(err) || attempt >= maxSubmitAttempts {
			break
		}
		ls.log.Warn("attempt number collision, retrying", "user_id", p.UserID, "module_id", moduleID, "try", attempt)
	}
	if err != nil {
		return nil, err
	}
	observability.Current().IncAssessment(out.Passed)
	ls.log.Info("assessment submitted",
		"user_id", p.UserID,
		"module_id", moduleID,
		"attempt", out.AttemptNumber,
		"percentage", out.Percentage,
		"passed", out.Passed,
	)
	return out, nil
}

func (ls *learningService) recordAttempt(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID, out *AssessmentOutcome) error {
	prev, err := ls.assessments.MaxAttempt(ctx, tx, userID, moduleID)
	if err != nil {
		return fmt.Errorf("load attempt number: %w", err)
	}
	now := ls.now().UTC()
	result := &types.AssessmentResult{
		UserID:        userID,
		ModuleID:      moduleID,
		AttemptNumber: prev + 1,
		Score:         out.Score,
		MaxScore:      out.MaxScore,
		Percentage:    out.Percentage,
		Passed:        out.Passed,
		Answers:       out.Results,
		TakenAt:       now,
	}
	if _, err := ls.assessments.Create(ctx, tx, result); err != nil {
		return err
	}
	out.ResultID = result.ID
	out.AttemptNumber = result.AttemptNumber
	out.PointsAwarded = 0
	if !out.Passed {
		return nil
	}

	if err := ls.complete(ctx, tx, userID, moduleID, now); err != nil {
		return err
	}
	award := int(math.Round(out.raw))
	if _, err := ls.gamification.AwardPoints(ctx, tx, userID, award, gamification.AchievementModuleCompletion, moduleID.String()); err != nil {
		return err
	}
	out.PointsAwarded = award
	if _, err := ls.gamification.CheckMilestones(ctx, tx, userID); err != nil {
		return err
	}
	return nil
}

// complete forces the progress record to completed. completed_at is only set
// the first time.
func (ls *learningService) complete(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID, now time.Time) error {
	row, err := ls.progress.GetByUserAndModule(ctx, tx, userID, moduleID)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	if row == nil {
		_, err := ls.progress.Create(ctx, tx, &types.UserProgress{
			UserID:             userID,
			ModuleID:           moduleID,
			Status:             types.ProgressCompleted,
			ProgressPercentage: 100,
			StartedAt:          &now,
			LastAccessed:       now,
			CompletedAt:        &now,
		})
		return err
	}
	updates := map[string]interface{}{
		"status":              types.ProgressCompleted,
		"progress_percentage": 100,
		"last_accessed":       now,
	}
	if row.CompletedAt == nil {
		updates["completed_at"] = now
	}
	if err := ls.progress.UpdateFields(ctx, tx, row.ID, updates); err != nil {
		return fmt.Errorf("complete progress: %w", err)
	}
	return nil
}

func (ls *learningService) AssessmentHistory(ctx context.Context, p types.Principal, moduleID uuid.UUID) ([]*types.AssessmentResult, error) {
	if _, err := visibleModule(ctx, nil, ls.modules, p, moduleID); err != nil {
		return nil, err
	}
	out, err := ls.assessments.ListByUserAndModule(ctx, nil, p.UserID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	if out == nil {
		out = []*types.AssessmentResult{}
	}
	return out, nil
}

func (ls *learningService) Dashboard(ctx context.Context, p types.Principal) (*Dashboard, error) {
	out := &Dashboard{Stats: DashboardStats{Level: 1}}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := ls.progress.Summary(gctx, nil, p.UserID)
		if err != nil {
			return fmt.Errorf("progress summary: %w", err)
		}
		out.Summary = summary
		return nil
	})
	g.Go(func() error {
		pts, err := ls.points.Get(gctx, nil, p.UserID)
		if err != nil {
			return fmt.Errorf("load points: %w", err)
		}
		if pts != nil {
			out.Stats = DashboardStats{
				TotalPoints:       pts.TotalPoints,
				CurrentStreakDays: pts.CurrentStreakDays,
				LongestStreakDays: pts.LongestStreakDays,
				Level:             pts.Level,
			}
		}
		return nil
	})
	g.Go(func() error {
		rows, err := ls.modules.ListInProgress(gctx, nil, p.UserID, dashboardInProgressLimit)
		if err != nil {
			return fmt.Errorf("in-progress modules: %w", err)
		}
		out.InProgress = rows
		return nil
	})
	g.Go(func() error {
		rows, err := ls.modules.ListRecommended(gctx, nil, p.OrganizationID, p.UserID, dashboardRecommendedLimit)
		if err != nil {
			return fmt.Errorf("recommended modules: %w", err)
		}
		out.Recommended = rows
		return nil
	})
	g.Go(func() error {
		rows, err := ls.achievements.ListByUser(gctx, nil, p.UserID, dashboardAchievementsLimit)
		if err != nil {
			return fmt.Errorf("recent achievements: %w", err)
		}
		out.RecentAchievements = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, apierr.Internal(err)
	}

	if out.Summary == nil {
		out.Summary = &learningrepo.ProgressSummary{}
	}
	if out.InProgress == nil {
		out.InProgress = []*learningrepo.InProgressRow{}
	}
	if out.Recommended == nil {
		out.Recommended = []*learningrepo.ModuleRow{}
	}
	if out.RecentAchievements == nil {
		out.RecentAchievements = []*types.UserAchievement{}
	}
	return out, nil
}
