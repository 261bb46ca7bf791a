package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	contentrepo "github.com/yungbote/techlearn-backend/internal/data/repos/content"
	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/ingestion/derive"
	"github.com/yungbote/techlearn-backend/internal/ingestion/enrich"
	"github.com/yungbote/techlearn-backend/internal/ingestion/extractor"
	"github.com/yungbote/techlearn-backend/internal/observability"
	"github.com/yungbote/techlearn-backend/internal/platform/apierr"
	"github.com/yungbote/techlearn-backend/internal/platform/blob"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

var tracer = observability.Tracer("techlearn/ingestion")

// Pipeline extracts an uploaded item, enriches it when an oracle is configured,
// marks it ready and derives its module. Failures end in status error.
type Pipeline struct {
	db       *gorm.DB
	log      *logger.Logger
	items    contentrepo.ContentItemRepo
	store    blob.Store
	enricher *enrich.Enricher
	deriver  *derive.Deriver
}

func New(db *gorm.DB, log *logger.Logger, items contentrepo.ContentItemRepo, store blob.Store, enricher *enrich.Enricher, deriver *derive.Deriver) *Pipeline {
	return &Pipeline{
		db:       db,
		log:      log.With("component", "ExtractionPipeline"),
		items:    items,
		store:    store,
		enricher: enricher,
		deriver:  deriver,
	}
}

// Process runs the pipeline for one content item. A returned *apierr.Error with
// code extraction means the item was moved to status error.
func (p *Pipeline) Process(ctx context.Context, contentID uuid.UUID) (err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "extraction.process")
	span.SetAttributes(attribute.String("content_item_id", contentID.String()))
	defer span.End()

	item, err := p.items.GetByID(ctx, nil, contentID)
	if err != nil {
		return fmt.Errorf("load content item: %w", err)
	}
	if item == nil {
		return apierr.NotFound("content item")
	}
	kind := string(item.ContentType)
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.Current().ObserveExtraction(kind, result, time.Since(start))
	}()

	data, err := p.extract(ctx, item)
	if err != nil {
		return p.fail(ctx, item, err)
	}

	if data.RawText != "" {
		_, enrichSpan := tracer.Start(ctx, "extraction.enrich")
		res := p.enricher.Enrich(ctx, data.RawText)
		enrichSpan.SetAttributes(attribute.Bool("applied", res.Applied))
		enrichSpan.End()
		if res.Applied {
			data.LearningObjectives = res.Objectives
			data.GeneratedQuestions = res.Questions
		}
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return p.fail(ctx, item, fmt.Errorf("encode extracted data: %w", err))
	}
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := p.items.MarkReady(ctx, tx, item.ID, payload); err != nil {
			return fmt.Errorf("mark ready: %w", err)
		}
		if _, _, err := p.deriver.Derive(ctx, tx, item, data); err != nil {
			return fmt.Errorf("derive module: %w", err)
		}
		return nil
	})
	if err != nil {
		return p.fail(ctx, item, err)
	}
	p.log.Info("content processed",
		"content_item_id", item.ID,
		"kind", kind,
		"sections", len(data.Sections),
		"questions", len(data.GeneratedQuestions),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (p *Pipeline) extract(ctx context.Context, item *types.ContentItem) (*types.ExtractedData, error) {
	ctx, span := tracer.Start(ctx, "extraction.extract")
	span.SetAttributes(attribute.String("kind", string(item.ContentType)))
	defer span.End()

	switch item.ContentType {
	case types.ContentKindVideo:
		return &types.ExtractedData{Sections: []types.Section{}, FileSize: item.SizeBytes}, nil
	case types.ContentKindImage:
		return &types.ExtractedData{Sections: []types.Section{}, FileSize: item.SizeBytes}, nil
	case types.ContentKindDocument:
		raw, err := p.store.Read(ctx, item.StorageKey)
		if err != nil {
			if errors.Is(err, blob.ErrNotFound) {
				return nil, fmt.Errorf("stored file missing: %s", item.StorageKey)
			}
			return nil, fmt.Errorf("read stored file: %w", err)
		}
		text, err := extractor.ExtractText(item.OriginalName, item.MimeType, raw)
		if err != nil {
			return nil, err
		}
		return &types.ExtractedData{
			RawText:  text,
			Sections: extractor.ExtractSections(text),
			FileSize: int64(len(raw)),
		}, nil
	}
	return nil, fmt.Errorf("unsupported content type %q", item.ContentType)
}

func (p *Pipeline) fail(ctx context.Context, item *types.ContentItem, cause error) error {
	p.log.Error("content extraction failed", "content_item_id", item.ID, "error", cause)
	if err := p.items.MarkError(context.WithoutCancel(ctx), nil, item.ID, cause.Error()); err != nil {
		p.log.Error("failed to record extraction error", "content_item_id", item.ID, "error", err)
	}
	return apierr.Extraction(cause)
}
