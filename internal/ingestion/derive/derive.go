package derive

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	learningrepo "github.com/yungbote/techlearn-backend/internal/data/repos/learning"
	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/domain/learning"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

const (
	WordsPerMinute     = 200
	MinDurationMinutes = 5
)

// DurationFor estimates reading time at WordsPerMinute, never below MinDurationMinutes.
func DurationFor(words int) int {
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < MinDurationMinutes {
		return MinDurationMinutes
	}
	return minutes
}

type Deriver struct {
	log       *logger.Logger
	modules   learningrepo.ModuleRepo
	questions learningrepo.QuestionRepo
}

func New(log *logger.Logger, modules learningrepo.ModuleRepo, questions learningrepo.QuestionRepo) *Deriver {
	return &Deriver{log: log.With("component", "Deriver"), modules: modules, questions: questions}
}

// Derive turns a ready content item into one published module plus a question per
// generated question. It returns nil, nil when a module already references the item.
func (d *Deriver) Derive(ctx context.Context, tx *gorm.DB, item *types.ContentItem, data *types.ExtractedData) (*types.LearningModule, []*types.Question, error) {
	exists, err := d.modules.ExistsForContentItem(ctx, tx, item.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("check existing module: %w", err)
	}
	if exists {
		d.log.Info("module already derived; skipping", "content_item_id", item.ID)
		return nil, nil, nil
	}

	description := strings.TrimSpace(item.Description)
	if description == "" {
		description = "Learning module for " + item.Title
	}
	objectives := []string{}
	if data != nil && len(data.LearningObjectives) > 0 {
		objectives = append(objectives, data.LearningObjectives...)
	}
	itemID := item.ID
	owner := item.CreatedBy

	module := &types.LearningModule{
		Title:              item.Title,
		Description:        description,
		ContentItemID:      &itemID,
		LearningObjectives: objectives,
		EstimatedDuration:  DurationFor(data.WordCount()),
		DifficultyLevel:    types.DifficultyBeginner,
		OrganizationID:     item.OrganizationID,
		IsPublished:        true,
		CreatedBy:          &owner,
	}
	if _, err := d.modules.Create(ctx, tx, module); err != nil {
		return nil, nil, fmt.Errorf("create module: %w", err)
	}

	var generated []types.GeneratedQuestion
	if data != nil {
		generated = data.GeneratedQuestions
	}
	rows := make([]*types.Question, 0, len(generated))
	for _, g := range generated {
		rows = append(rows, &types.Question{
			ModuleID:      module.ID,
			QuestionText:  g.Question,
			QuestionType:  learning.QuestionTypeMultipleChoice,
			Options:       append([]string(nil), g.Options...),
			CorrectAnswer: g.Correct,
			Explanation:   g.Explanation,
			Difficulty:    learning.QuestionDifficultyMedium,
			Points:        1,
		})
	}
	questions, err := d.questions.Create(ctx, tx, rows)
	if err != nil {
		return nil, nil, fmt.Errorf("create questions: %w", err)
	}
	d.log.Info("derived module", "content_item_id", item.ID, "module_id", module.ID, "questions", len(questions))
	return module, questions, nil
}
