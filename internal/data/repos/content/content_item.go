package content

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

type ListFilter struct {
	Status      types.ContentStatus
	ContentType types.ContentKind
}

type ContentItemRepo interface {
	Create(ctx context.Context, tx *gorm.DB, item *types.ContentItem) (*types.ContentItem, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ContentItem, error)
	GetInOrg(ctx context.Context, tx *gorm.DB, orgID, id uuid.UUID) (*types.ContentItem, error)
	ListInOrg(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, filter ListFilter) ([]*types.ContentItem, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	MarkReady(ctx context.Context, tx *gorm.DB, id uuid.UUID, data datatypes.JSON) error
	MarkError(ctx context.Context, tx *gorm.DB, id uuid.UUID, message string) error
	MarkStaleAsError(ctx context.Context, tx *gorm.DB, olderThan time.Time, message string) (int64, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type contentItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentItemRepo(db *gorm.DB, baseLog *logger.Logger) ContentItemRepo {
	repoLog := baseLog.With("repo", "ContentItemRepo")
	return &contentItemRepo{db: db, log: repoLog}
}

func (r *contentItemRepo) Create(ctx context.Context, tx *gorm.DB, item *types.ContentItem) (*types.ContentItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *contentItemRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ContentItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var item types.ContentItem
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *contentItemRepo) withCreatorName(q *gorm.DB) *gorm.DB {
	return q.Select(`"content_item".*, "user".full_name AS created_by_name`).
		Joins(`LEFT JOIN "user" ON "user".id = "content_item".created_by`)
}

func (r *contentItemRepo) GetInOrg(ctx context.Context, tx *gorm.DB, orgID, id uuid.UUID) (*types.ContentItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var item types.ContentItem
	err := r.withCreatorName(transaction.WithContext(ctx).Model(&types.ContentItem{})).
		Where(`"content_item".id = ? AND "content_item".organization_id = ?`, id, orgID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *contentItemRepo) ListInOrg(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, filter ListFilter) ([]*types.ContentItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := r.withCreatorName(transaction.WithContext(ctx).Model(&types.ContentItem{})).
		Where(`"content_item".organization_id = ?`, orgID)
	if filter.Status != "" {
		q = q.Where(`"content_item".status = ?`, filter.Status)
	}
	if filter.ContentType != "" {
		q = q.Where(`"content_item".content_type = ?`, filter.ContentType)
	}
	var items []*types.ContentItem
	if err := q.Order(`"content_item".created_at DESC`).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *contentItemRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return transaction.WithContext(ctx).
		Model(&types.ContentItem{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *contentItemRepo) MarkReady(ctx context.Context, tx *gorm.DB, id uuid.UUID, data datatypes.JSON) error {
	return r.UpdateFields(ctx, tx, id, map[string]interface{}{
		"status":         types.ContentStatusReady,
		"extracted_data": data,
		"error_message":  "",
	})
}

func (r *contentItemRepo) MarkError(ctx context.Context, tx *gorm.DB, id uuid.UUID, message string) error {
	return r.UpdateFields(ctx, tx, id, map[string]interface{}{
		"status":        types.ContentStatusError,
		"error_message": message,
	})
}

// MarkStaleAsError moves items stuck in processing since before olderThan to error.
func (r *contentItemRepo) MarkStaleAsError(ctx context.Context, tx *gorm.DB, olderThan time.Time, message string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.ContentItem{}).
		Where("status = ? AND updated_at < ?", types.ContentStatusProcessing, olderThan).
		Updates(map[string]interface{}{
			"status":        types.ContentStatusError,
			"error_message": message,
			"updated_at":    time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *contentItemRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.ContentItem{}).Error
}
