package learning

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

type AssessmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, result *types.AssessmentResult) (*types.AssessmentResult, error)
	MaxAttempt(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) (int, error)
	ListByUserAndModule(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) ([]*types.AssessmentResult, error)
	ListByModule(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) ([]*types.AssessmentResult, error)
}

type assessmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	repoLog := baseLog.With("repo", "AssessmentRepo")
	return &assessmentRepo{db: db, log: repoLog}
}

func (r *assessmentRepo) Create(ctx context.Context, tx *gorm.DB, result *types.AssessmentResult) (*types.AssessmentResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// MaxAttempt returns the highest attempt number so far, or 0.
func (r *assessmentRepo) MaxAttempt(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var n int
	err := transaction.WithContext(ctx).
		Model(&types.AssessmentResult{}).
		Select("COALESCE(MAX(attempt_number), 0)").
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		Scan(&n).Error
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *assessmentRepo) ListByUserAndModule(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) ([]*types.AssessmentResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.AssessmentResult
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		Order("attempt_number DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *assessmentRepo) ListByModule(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) ([]*types.AssessmentResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.AssessmentResult
	if err := transaction.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("taken_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
