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

// ModuleRow is a module plus the list-view columns joined from its source content and questions.
type ModuleRow struct {
	types.LearningModule
	ContentTitle  string `gorm:"column:content_title" json:"content_title,omitempty"`
	StorageKey    string `gorm:"column:storage_key" json:"-"`
	QuestionCount int    `gorm:"column:question_count" json:"question_count"`
}

// InProgressRow is a module the user is working through.
type InProgressRow struct {
	types.LearningModule
	ProgressPercentage float64   `gorm:"column:progress_percentage" json:"progress_percentage"`
	LastAccessed       time.Time `gorm:"column:last_accessed" json:"last_accessed"`
	TimeSpentMinutes   int       `gorm:"column:time_spent_minutes" json:"time_spent_minutes"`
}

type ModuleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, m *types.LearningModule) (*types.LearningModule, error)
	GetInOrg(ctx context.Context, tx *gorm.DB, orgID, id uuid.UUID) (*types.LearningModule, error)
	ExistsForContentItem(ctx context.Context, tx *gorm.DB, contentItemID uuid.UUID) (bool, error)
	ListInOrg(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, published *bool) ([]*ModuleRow, error)
	ListInProgress(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*InProgressRow, error)
	ListRecommended(ctx context.Context, tx *gorm.DB, orgID, userID uuid.UUID, limit int) ([]*ModuleRow, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type moduleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModuleRepo(db *gorm.DB, baseLog *logger.Logger) ModuleRepo {
	repoLog := baseLog.With("repo", "ModuleRepo")
	return &moduleRepo{db: db, log: repoLog}
}

func (r *moduleRepo) Create(ctx context.Context, tx *gorm.DB, m *types.LearningModule) (*types.LearningModule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

func (r *moduleRepo) GetInOrg(ctx context.Context, tx *gorm.DB, orgID, id uuid.UUID) (*types.LearningModule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var m types.LearningModule
	err := transaction.WithContext(ctx).
		Where("id = ? AND organization_id = ?", id, orgID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *moduleRepo) ExistsForContentItem(ctx context.Context, tx *gorm.DB, contentItemID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.LearningModule{}).
		Where("content_item_id = ?", contentItemID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *moduleRepo) listQuery(q *gorm.DB) *gorm.DB {
	return q.Table("learning_module AS m").
		Select(`m.*, c.title AS content_title, c.storage_key AS storage_key,
			(SELECT COUNT(*) FROM question q WHERE q.module_id = m.id) AS question_count`).
		Joins("LEFT JOIN content_item c ON c.id = m.content_item_id")
}

func (r *moduleRepo) ListInOrg(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, published *bool) ([]*ModuleRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := r.listQuery(transaction.WithContext(ctx)).Where("m.organization_id = ?", orgID)
	if published != nil {
		q = q.Where("m.is_published = ?", *published)
	}
	var rows []*ModuleRow
	if err := q.Order("m.sequence_order ASC").Order("m.created_at DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *moduleRepo) ListInProgress(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*InProgressRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*InProgressRow
	err := transaction.WithContext(ctx).
		Table("learning_module AS m").
		Select("m.*, up.progress_percentage, up.last_accessed, up.time_spent_minutes").
		Joins("JOIN user_progress up ON up.module_id = m.id").
		Where("up.user_id = ? AND up.status = ?", userID, types.ProgressInProgress).
		Order("up.last_accessed DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListRecommended returns published modules the user has not started, in sequence order.
func (r *moduleRepo) ListRecommended(ctx context.Context, tx *gorm.DB, orgID, userID uuid.UUID, limit int) ([]*ModuleRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*ModuleRow
	err := r.listQuery(transaction.WithContext(ctx)).
		Joins("LEFT JOIN user_progress up ON up.module_id = m.id AND up.user_id = ?", userID).
		Where("m.organization_id = ? AND m.is_published = ?", orgID, true).
		Where("(up.id IS NULL OR up.status = ?)", types.ProgressNotStarted).
		Order("m.sequence_order ASC").
		Order("m.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *moduleRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return transaction.WithContext(ctx).
		Model(&types.LearningModule{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *moduleRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.LearningModule{}).Error
}
