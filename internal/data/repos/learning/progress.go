package learning

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

type ProgressSummary struct {
	TotalModules      int `gorm:"column:total_modules" json:"total_modules"`
	CompletedModules  int `gorm:"column:completed_modules" json:"completed_modules"`
	InProgressModules int `gorm:"column:in_progress_modules" json:"in_progress_modules"`
	TotalTimeSpent    int `gorm:"column:total_time_spent" json:"total_time_spent"`
}

type ProgressRepo interface {
	Create(ctx context.Context, tx *gorm.DB, p *types.UserProgress) (*types.UserProgress, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.UserProgress, error)
	GetByUserAndModule(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) (*types.UserProgress, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	CountCompleted(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error)
	Summary(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*ProgressSummary, error)
	DeleteByModuleID(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) error
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	repoLog := baseLog.With("repo", "ProgressRepo")
	return &progressRepo{db: db, log: repoLog}
}

func (r *progressRepo) Create(ctx context.Context, tx *gorm.DB, p *types.UserProgress) (*types.UserProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *progressRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.UserProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var p types.UserProgress
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *progressRepo) GetByUserAndModule(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) (*types.UserProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var p types.UserProgress
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *progressRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return transaction.WithContext(ctx).
		Model(&types.UserProgress{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *progressRepo) CountCompleted(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.UserProgress{}).
		Where("user_id = ? AND status = ?", userID, types.ProgressCompleted).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *progressRepo) Summary(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*ProgressSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out ProgressSummary
	err := transaction.WithContext(ctx).
		Model(&types.UserProgress{}).
		Select(`COUNT(*) AS total_modules,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed_modules,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS in_progress_modules,
			COALESCE(SUM(time_spent_minutes), 0) AS total_time_spent`,
			types.ProgressCompleted, types.ProgressInProgress).
		Where("user_id = ?", userID).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *progressRepo) DeleteByModuleID(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("module_id = ?", moduleID).Delete(&types.UserProgress{}).Error
}
