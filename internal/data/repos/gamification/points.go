package gamification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/domain/gamification"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

// LeaderboardRow is one ranked learner.
type LeaderboardRow struct {
	UserID           uuid.UUID `gorm:"column:user_id" json:"id"`
	Username         string    `gorm:"column:username" json:"username"`
	FullName         string    `gorm:"column:full_name" json:"full_name"`
	TotalPoints      int       `gorm:"column:total_points" json:"total_points"`
	Level            int       `gorm:"column:level" json:"level"`
	CurrentStreak    int       `gorm:"column:current_streak_days" json:"current_streak_days"`
	CompletedModules int       `gorm:"column:completed_modules" json:"completed_modules"`
}

type PointsRepo interface {
	Create(ctx context.Context, tx *gorm.DB, p *types.UserPoints) (*types.UserPoints, error)
	Get(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserPoints, error)
	// GetForUpdate returns the row, creating it at level 1 if absent, and locks it where the driver supports it.
	GetForUpdate(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserPoints, error)
	AddPoints(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int) (*types.UserPoints, error)
	UpdateStreak(ctx context.Context, tx *gorm.DB, userID uuid.UUID, current, longest int, lastActivity string) error
	Leaderboard(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, activeSince string, limit int) ([]*LeaderboardRow, error)
}

type pointsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPointsRepo(db *gorm.DB, baseLog *logger.Logger) PointsRepo {
	repoLog := baseLog.With("repo", "PointsRepo")
	return &pointsRepo{db: db, log: repoLog}
}

func (r *pointsRepo) Create(ctx context.Context, tx *gorm.DB, p *types.UserPoints) (*types.UserPoints, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if p.Level < 1 {
		p.Level = gamification.LevelFor(p.TotalPoints)
	}
	if err := transaction.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pointsRepo) Get(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserPoints, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var p types.UserPoints
	err := transaction.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pointsRepo) GetForUpdate(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserPoints, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	seed := &types.UserPoints{UserID: userID, Level: 1}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(seed).Error; err != nil {
		return nil, err
	}
	q := transaction.WithContext(ctx)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var p types.UserPoints
	if err := q.Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// AddPoints increments the total and derives the level from the incremented
// total in one UPDATE, then returns the stored row.
func (r *pointsRepo) AddPoints(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int) (*types.UserPoints, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if amount < 0 {
		amount = 0
	}
	if _, err := r.GetForUpdate(ctx, transaction, userID); err != nil {
		return nil, err
	}
	if err := transaction.WithContext(ctx).
		Model(&types.UserPoints{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"total_points": gorm.Expr("total_points + ?", amount),
			"level":        gorm.Expr("(total_points + ?) / ? + 1", amount, gamification.PointsPerLevel),
			"updated_at":   time.Now().UTC(),
		}).Error; err != nil {
		return nil, err
	}
	var p types.UserPoints
	if err := transaction.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pointsRepo) UpdateStreak(ctx context.Context, tx *gorm.DB, userID uuid.UUID, current, longest int, lastActivity string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.UserPoints{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"current_streak_days": current,
			"longest_streak_days": longest,
			"last_activity_date":  lastActivity,
			"updated_at":          time.Now().UTC(),
		}).Error
}

// Leaderboard ranks active learners of an org by total points. An empty activeSince disables the activity filter.
func (r *pointsRepo) Leaderboard(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, activeSince string, limit int) ([]*LeaderboardRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).
		Table(`"user" AS u`).
		Select(`u.id AS user_id, u.username, u.full_name,
			COALESCE(pts.total_points, 0) AS total_points,
			COALESCE(pts.level, 1) AS level,
			COALESCE(pts.current_streak_days, 0) AS current_streak_days,
			(SELECT COUNT(*) FROM user_progress up WHERE up.user_id = u.id AND up.status = ?) AS completed_modules`,
			types.ProgressCompleted).
		Joins("JOIN user_points pts ON pts.user_id = u.id").
		Where("u.organization_id = ? AND u.is_active = ?", orgID, true)
	if activeSince != "" {
		q = q.Where("pts.last_activity_date >= ?", activeSince)
	}
	var rows []*LeaderboardRow
	if err := q.Order("pts.total_points DESC").Order("u.username ASC").Limit(limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
