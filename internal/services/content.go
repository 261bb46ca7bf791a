package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	contentrepo "github.com/yungbote/techlearn-backend/internal/data/repos/content"
	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/ingestion/extractor"
	"github.com/yungbote/techlearn-backend/internal/jobs"
	"github.com/yungbote/techlearn-backend/internal/platform/apierr"
	"github.com/yungbote/techlearn-backend/internal/platform/blob"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
	"github.com/yungbote/techlearn-backend/internal/platform/validate"
)

const DefaultMaxUploadBytes int64 = 500 * 1000 * 1000

// ContentProcessor turns a stored upload into extracted data and a module.
type ContentProcessor interface {
	Process(ctx context.Context, contentID uuid.UUID) error
}

type UploadInput struct {
	Title        string    `validate:"max=255"`
	Description  string    `validate:"max=5000"`
	File         io.Reader `validate:"-"`
	Size         int64
	MimeType     string
	OriginalName string
}

type UpdateContentInput struct {
	Title       *string              `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string              `json:"description" validate:"omitempty,max=5000"`
	Status      *types.ContentStatus `json:"status"`
}

type ContentService interface {
	Upload(ctx context.Context, p types.Principal, in UploadInput) (*types.ContentItem, *jobs.Task, error)
	List(ctx context.Context, p types.Principal, filter contentrepo.ListFilter) ([]*types.ContentItem, error)
	Get(ctx context.Context, p types.Principal, id uuid.UUID) (*types.ContentItem, error)
	Update(ctx context.Context, p types.Principal, id uuid.UUID, in UpdateContentInput) (*types.ContentItem, error)
	Delete(ctx context.Context, p types.Principal, id uuid.UUID) error
}

type contentService struct {
	db             *gorm.DB
	log            *logger.Logger
	items          contentrepo.ContentItemRepo
	store          blob.Store
	runner         *jobs.Runner
	processor      ContentProcessor
	maxUploadBytes int64
}

func NewContentService(
	db *gorm.DB,
	log *logger.Logger,
	items contentrepo.ContentItemRepo,
	store blob.Store,
	runner *jobs.Runner,
	processor ContentProcessor,
	maxUploadBytes int64,
) ContentService {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &contentService{
		db:             db,
		log:            log.With("service", "ContentService"),
		items:          items,
		store:          store,
		runner:         runner,
		processor:      processor,
		maxUploadBytes: maxUploadBytes,
	}
}

// Upload stores the file, records the item as processing and hands it to the
// extraction pipeline. The returned task reports the pipeline outcome.
func (cs *contentService) Upload(ctx context.Context, p types.Principal, in UploadInput) (*types.ContentItem, *jobs.Task, error) {
	if err := requireManager(p); err != nil {
		return nil, nil, err
	}
	if in.File == nil || in.Size <= 0 {
		return nil, nil, apierr.Validation("no file uploaded")
	}
	if err := validate.Struct(in); err != nil {
		return nil, nil, err
	}
	if in.Size > cs.maxUploadBytes {
		return nil, nil, apierr.Validation("file exceeds the %d byte upload limit", cs.maxUploadBytes)
	}
	mimeType := extractor.NormalizeMime(in.MimeType)
	kind, ok := extractor.ClassifyKind(mimeType)
	if !ok {
		return nil, nil, apierr.Validation("file type %s not supported", in.MimeType)
	}

	key, err := cs.store.Store(ctx, io.LimitReader(in.File, cs.maxUploadBytes), mimeType, in.OriginalName)
	if err != nil {
		return nil, nil, apierr.Internal(fmt.Errorf("store upload: %w", err))
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = in.OriginalName
	}
	item := &types.ContentItem{
		Title:          title,
		Description:    strings.TrimSpace(in.Description),
		ContentType:    kind,
		StorageKey:     key,
		OriginalName:   in.OriginalName,
		MimeType:       mimeType,
		SizeBytes:      in.Size,
		Status:         types.ContentStatusProcessing,
		CreatedBy:      p.UserID,
		OrganizationID: p.OrganizationID,
	}
	if _, err := cs.items.Create(ctx, nil, item); err != nil {
		if derr := cs.store.Delete(context.WithoutCancel(ctx), key); derr != nil {
			cs.log.Warn("failed to remove orphaned upload", "storage_key", key, "error", derr)
		}
		return nil, nil, fmt.Errorf("create content item: %w", err)
	}
	item.FileURL = cs.store.URL(key)

	contentID := item.ID
	task := cs.runner.Submit("extract_content", func(taskCtx context.Context) error {
		return cs.processor.Process(taskCtx, contentID)
	})
	cs.log.Info("content uploaded",
		"content_id", item.ID,
		"content_type", item.ContentType,
		"size_bytes", item.SizeBytes,
		"user_id", p.UserID,
	)
	return item, task, nil
}

func (cs *contentService) List(ctx context.Context, p types.Principal, filter contentrepo.ListFilter) ([]*types.ContentItem, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apierr.Validation("unknown status %q", filter.Status)
	}
	items, err := cs.items.ListInOrg(ctx, nil, p.OrganizationID, filter)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	if items == nil {
		items = []*types.ContentItem{}
	}
	for _, item := range items {
		item.FileURL = cs.store.URL(item.StorageKey)
	}
	return items, nil
}

func (cs *contentService) Get(ctx context.Context, p types.Principal, id uuid.UUID) (*types.ContentItem, error) {
	item, err := cs.items.GetInOrg(ctx, nil, p.OrganizationID, id)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	if item == nil {
		return nil, apierr.NotFound("content")
	}
	item.FileURL = cs.store.URL(item.StorageKey)
	return item, nil
}

func (cs *contentService) Update(ctx context.Context, p types.Principal, id uuid.UUID, in UpdateContentInput) (*types.ContentItem, error) {
	if err := requireManager(p); err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apierr.Validation("unknown status %q", *in.Status)
		}
		updates["status"] = *in.Status
	}
	if _, err := cs.Get(ctx, p, id); err != nil {
		return nil, err
	}
	if err := cs.items.UpdateFields(ctx, nil, id, updates); err != nil {
		return nil, fmt.Errorf("update content: %w", err)
	}
	return cs.Get(ctx, p, id)
}

// Delete removes the backing file before the row so a failed file removal
// leaves the item in place.
func (cs *contentService) Delete(ctx context.Context, p types.Principal, id uuid.UUID) error {
	if err := requireManager(p); err != nil {
		return err
	}
	item, err := cs.Get(ctx, p, id)
	if err != nil {
		return err
	}
	if item.StorageKey != "" {
		if err := cs.store.Delete(ctx, item.StorageKey); err != nil {
			return apierr.Internal(fmt.Errorf("delete file: %w", err))
		}
	}
	if err := cs.items.Delete(ctx, nil, item.ID); err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	cs.log.Info("content deleted", "content_id", item.ID, "user_id", p.UserID)
	return nil
}
