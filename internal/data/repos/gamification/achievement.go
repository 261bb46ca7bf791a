package gamification

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

type AchievementRepo interface {
	Create(ctx context.Context, tx *gorm.DB, a *types.UserAchievement) (*types.UserAchievement, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.UserAchievement, error)
	Exists(ctx context.Context, tx *gorm.DB, userID uuid.UUID, achievementType, referenceID string) (bool, error)
}

type achievementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAchievementRepo(db *gorm.DB, baseLog *logger.Logger) AchievementRepo {
	repoLog := baseLog.With("repo", "AchievementRepo")
	return &achievementRepo{db: db, log: repoLog}
}

func (r *achievementRepo) Create(ctx context.Context, tx *gorm.DB, a *types.UserAchievement) (*types.UserAchievement, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// ListByUser returns achievements newest first. limit <= 0 returns all.
func (r *achievementRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.UserAchievement, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Where("user_id = ?", userID).Order("earned_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.UserAchievement
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *achievementRepo) Exists(ctx context.Context, tx *gorm.DB, userID uuid.UUID, achievementType, referenceID string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.UserAchievement{}).
		Where("user_id = ? AND achievement_type = ? AND reference_id = ?", userID, achievementType, referenceID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
