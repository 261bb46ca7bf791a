package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	gamificationrepo "github.com/yungbote/techlearn-backend/internal/data/repos/gamification"
	learningrepo "github.com/yungbote/techlearn-backend/internal/data/repos/learning"
	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/domain/gamification"
	"github.com/yungbote/techlearn-backend/internal/observability"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

// GamificationService owns every write to user_points and user_achievement.
// Methods taking a tx run inside the caller's transaction.
type GamificationService interface {
	UpdateStreak(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserPoints, error)
	AwardPoints(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int, reasonType, referenceID string) (*types.UserPoints, error)
	CheckMilestones(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserAchievement, error)
	Achievements(ctx context.Context, p types.Principal) ([]*types.UserAchievement, error)
}

type gamificationService struct {
	db           *gorm.DB
	log          *logger.Logger
	points       gamificationrepo.PointsRepo
	achievements gamificationrepo.AchievementRepo
	progress     learningrepo.ProgressRepo
	now          func() time.Time
}

// NewGamificationService uses clock for calendar-day streaks; nil means time.Now.
// Streak days are UTC calendar days.
func NewGamificationService(
	db *gorm.DB,
	log *logger.Logger,
	points gamificationrepo.PointsRepo,
	achievements gamificationrepo.AchievementRepo,
	progress learningrepo.ProgressRepo,
	clock func() time.Time,
) GamificationService {
	if clock == nil {
		clock = time.Now
	}
	return &gamificationService{
		db:           db,
		log:          log.With("service", "GamificationService"),
		points:       points,
		achievements: achievements,
		progress:     progress,
		now:          clock,
	}
}

func (gs *gamificationService) today() time.Time {
	y, m, d := gs.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NextStreak applies one day of activity to a streak. last is the previous
// activity date in gamification.DateLayout, empty when there was none.
func NextStreak(current, longest int, last string, today time.Time) (newCurrent, newLongest int, changed bool) {
	todayStr := today.Format(gamification.DateLayout)
	if last == todayStr {
		return current, longest, false
	}
	newCurrent = 1
	if lastDay, err := time.Parse(gamification.DateLayout, last); err == nil {
		switch gap := int(today.Sub(lastDay).Hours() / 24); {
		case gap == 1:
			newCurrent = current + 1
		case gap < 0:
			return current, longest, false
		}
	}
	newLongest = longest
	if newCurrent > newLongest {
		newLongest = newCurrent
	}
	return newCurrent, newLongest, true
}

func (gs *gamificationService) UpdateStreak(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserPoints, error) {
	today := gs.today()
	todayStr := today.Format(gamification.DateLayout)

	pts, err := gs.points.GetForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("load points: %w", err)
	}

	current, longest, changed := NextStreak(pts.CurrentStreakDays, pts.LongestStreakDays, pts.LastActivityDate, today)
	if !changed {
		return pts, nil
	}
	if err := gs.points.UpdateStreak(ctx, tx, userID, current, longest, todayStr); err != nil {
		return nil, fmt.Errorf("update streak: %w", err)
	}
	pts.CurrentStreakDays = current
	pts.LongestStreakDays = longest
	pts.LastActivityDate = todayStr
	return pts, nil
}

func (gs *gamificationService) AwardPoints(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int, reasonType, referenceID string) (*types.UserPoints, error) {
	return gs.credit(ctx, tx, userID, amount, reasonType, fmt.Sprintf("Earned %d points", amount), referenceID)
}

// credit adds amount to the total, recomputes the level and records the award.
func (gs *gamificationService) credit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int, achievementType, name, referenceID string) (*types.UserPoints, error) {
	if amount <= 0 {
		return gs.points.GetForUpdate(ctx, tx, userID)
	}
	pts, err := gs.points.AddPoints(ctx, tx, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("add points: %w", err)
	}
	if _, err := gs.achievements.Create(ctx, tx, &types.UserAchievement{
		UserID:          userID,
		AchievementType: achievementType,
		AchievementName: name,
		PointsAwarded:   amount,
		ReferenceID:     referenceID,
		EarnedAt:        gs.now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("record achievement: %w", err)
	}
	observability.Current().AddPoints(achievementType, amount)
	gs.log.Debug("points awarded", "user_id", userID, "amount", amount, "reason", achievementType, "level", pts.Level)
	return pts, nil
}

// CheckMilestones grants every milestone at or below the completed-module count
// that the user does not hold yet. Each milestone is granted once.
func (gs *gamificationService) CheckMilestones(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserAchievement, error) {
	completed, err := gs.progress.CountCompleted(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("count completed modules: %w", err)
	}
	var granted []*types.UserAchievement
	for _, milestone := range gamification.Milestones {
		if completed < milestone {
			break
		}
		ref := strconv.Itoa(milestone)
		held, err := gs.achievements.Exists(ctx, tx, userID, gamification.AchievementMilestone, ref)
		if err != nil {
			return nil, fmt.Errorf("check milestone %d: %w", milestone, err)
		}
		if held {
			continue
		}
		name := fmt.Sprintf("Completed %d modules!", milestone)
		if _, err := gs.credit(ctx, tx, userID, milestone*10, gamification.AchievementMilestone, name, ref); err != nil {
			return nil, err
		}
		granted = append(granted, &types.UserAchievement{
			UserID:          userID,
			AchievementType: gamification.AchievementMilestone,
			AchievementName: name,
			PointsAwarded:   milestone * 10,
			ReferenceID:     ref,
		})
		gs.log.Info("milestone reached", "user_id", userID, "milestone", milestone)
	}
	return granted, nil
}

func (gs *gamificationService) Achievements(ctx context.Context, p types.Principal) ([]*types.UserAchievement, error) {
	out, err := gs.achievements.ListByUser(ctx, nil, p.UserID, 0)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return out, nil
}
