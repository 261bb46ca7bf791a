package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	contentrepo "github.com/yungbote/techlearn-backend/internal/data/repos/content"
	learningrepo "github.com/yungbote/techlearn-backend/internal/data/repos/learning"
	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/platform/apierr"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
	"github.com/yungbote/techlearn-backend/internal/platform/validate"
)

const defaultModuleDuration = 30

type CreateModuleInput struct {
	Title              string           `json:"title" validate:"required,max=255"`
	Description        string           `json:"description" validate:"max=5000"`
	ContentItemID      *uuid.UUID       `json:"contentItemId"`
	LearningObjectives []string         `json:"learningObjectives" validate:"max=20,dive,required"`
	EstimatedDuration  int              `json:"estimatedDuration" validate:"min=0,max=10000"`
	DifficultyLevel    types.Difficulty `json:"difficultyLevel"`
	SequenceOrder      int              `json:"sequenceOrder"`
	IsPublished        bool             `json:"isPublished"`
}

type UpdateModuleInput struct {
	Title              *string           `json:"title" validate:"omitempty,min=1,max=255"`
	Description        *string           `json:"description" validate:"omitempty,max=5000"`
	LearningObjectives []string          `json:"learningObjectives" validate:"omitempty,max=20,dive,required"`
	EstimatedDuration  *int              `json:"estimatedDuration" validate:"omitempty,min=1,max=10000"`
	DifficultyLevel    *types.Difficulty `json:"difficultyLevel"`
	SequenceOrder      *int              `json:"sequenceOrder"`
	IsPublished        *bool             `json:"isPublished"`
}

type QuestionInput struct {
	QuestionText  string   `json:"questionText" validate:"required,max=2000"`
	Options       []string `json:"options" validate:"len=4,dive,required"`
	CorrectAnswer string   `json:"correctAnswer" validate:"required,oneof=A B C D"`
	Explanation   string   `json:"explanation" validate:"max=5000"`
	Difficulty    string   `json:"difficultyLevel" validate:"omitempty,oneof=easy medium hard"`
	Points        int      `json:"points" validate:"min=0,max=100"`
}

type UpdateQuestionInput struct {
	QuestionText  *string  `json:"questionText" validate:"omitempty,min=1,max=2000"`
	Options       []string `json:"options" validate:"omitempty,len=4,dive,required"`
	CorrectAnswer *string  `json:"correctAnswer" validate:"omitempty,oneof=A B C D"`
	Explanation   *string  `json:"explanation" validate:"omitempty,max=5000"`
	Difficulty    *string  `json:"difficultyLevel" validate:"omitempty,oneof=easy medium hard"`
	Points        *int     `json:"points" validate:"omitempty,min=1,max=100"`
}

// ModuleDetail is a module with its questions, its source content and the caller's progress.
type ModuleDetail struct {
	*types.LearningModule
	ContentTitle  string               `json:"content_title,omitempty"`
	ContentType   types.ContentKind    `json:"content_type,omitempty"`
	FileURL       string               `json:"file_url,omitempty"`
	ExtractedData *types.ExtractedData `json:"extracted_data,omitempty"`
	Questions     []*types.Question    `json:"questions"`
	UserProgress  *types.UserProgress  `json:"userProgress"`
}

type ModuleService interface {
	List(ctx context.Context, p types.Principal, published *bool) ([]*learningrepo.ModuleRow, error)
	Get(ctx context.Context, p types.Principal, id uuid.UUID) (*ModuleDetail, error)
	Create(ctx context.Context, p types.Principal, in CreateModuleInput) (*types.LearningModule, error)
	Update(ctx context.Context, p types.Principal, id uuid.UUID, in UpdateModuleInput) (*types.LearningModule, error)
	Delete(ctx context.Context, p types.Principal, id uuid.UUID) error
	SetPublished(ctx context.Context, p types.Principal, id uuid.UUID, published bool) (*types.LearningModule, error)
	AddQuestion(ctx context.Context, p types.Principal, moduleID uuid.UUID, in QuestionInput) (*types.Question, error)
	UpdateQuestion(ctx context.Context, p types.Principal, id uuid.UUID, in UpdateQuestionInput) (*types.Question, error)
	DeleteQuestion(ctx context.Context, p types.Principal, id uuid.UUID) error
}

type moduleService struct {
	db        *gorm.DB
	log       *logger.Logger
	modules   learningrepo.ModuleRepo
	questions learningrepo.QuestionRepo
	progress  learningrepo.ProgressRepo
	items     contentrepo.ContentItemRepo
	fileURL   func(key string) string
}

// NewModuleService resolves content file URLs with fileURL; nil leaves them empty.
func NewModuleService(
	db *gorm.DB,
	log *logger.Logger,
	modules learningrepo.ModuleRepo,
	questions learningrepo.QuestionRepo,
	progress learningrepo.ProgressRepo,
	items contentrepo.ContentItemRepo,
	fileURL func(key string) string,
) ModuleService {
	if fileURL == nil {
		fileURL = func(string) string { return "" }
	}
	return &moduleService{
		db:        db,
		log:       log.With("service", "ModuleService"),
		modules:   modules,
		questions: questions,
		progress:  progress,
		items:     items,
		fileURL:   fileURL,
	}
}

func (ms *moduleService) List(ctx context.Context, p types.Principal, published *bool) ([]*learningrepo.ModuleRow, error) {
	if !p.CanManage() {
		yes := true
		published = &yes
	}
	rows, err := ms.modules.ListInOrg(ctx, nil, p.OrganizationID, published)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	if rows == nil {
		rows = []*learningrepo.ModuleRow{}
	}
	return rows, nil
}

func (ms *moduleService) Get(ctx context.Context, p types.Principal, id uuid.UUID) (*ModuleDetail, error) {
	m, err := visibleModule(ctx, nil, ms.modules, p, id)
	if err != nil {
		return nil, err
	}
	out := &ModuleDetail{LearningModule: m}

	if m.ContentItemID != nil {
		item, err := ms.items.GetInOrg(ctx, nil, p.OrganizationID, *m.ContentItemID)
		if err != nil {
			return nil, fmt.Errorf("load source content: %w", err)
		}
		if item != nil {
			out.ContentTitle = item.Title
			out.ContentType = item.ContentType
			out.FileURL = ms.fileURL(item.StorageKey)
			if data, err := item.Extracted(); err != nil {
				ms.log.Warn("unreadable extracted data", "content_id", item.ID, "error", err)
			} else {
				out.ExtractedData = data
			}
		}
	}

	questions, err := ms.questions.GetByModuleID(ctx, nil, m.ID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if questions == nil {
		questions = []*types.Question{}
	}
	if !p.CanManage() {
		for _, q := range questions {
			q.CorrectAnswer = ""
			q.Explanation = ""
		}
	}
	out.Questions = questions

	progress, err := ms.progress.GetByUserAndModule(ctx, nil, p.UserID, m.ID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	out.UserProgress = progress
	return out, nil
}

func (ms *moduleService) Create(ctx context.Context, p types.Principal, in CreateModuleInput) (*types.LearningModule, error) {
	if err := requireManager(p); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	difficulty := in.DifficultyLevel
	if difficulty == "" {
		difficulty = types.DifficultyBeginner
	}
	if !difficulty.Valid() {
		return nil, apierr.Validation("unknown difficulty %q", in.DifficultyLevel)
	}
	duration := in.EstimatedDuration
	if duration <= 0 {
		duration = defaultModuleDuration
	}
	if in.ContentItemID != nil {
		item, err := ms.items.GetInOrg(ctx, nil, p.OrganizationID, *in.ContentItemID)
		if err != nil {
			return nil, fmt.Errorf("load content: %w", err)
		}
		if item == nil {
			return nil, apierr.Validation("content item does not exist")
		}
	}
	createdBy := p.UserID
	m := &types.LearningModule{
		Title:              in.Title,
		Description:        strings.TrimSpace(in.Description),
		ContentItemID:      in.ContentItemID,
		LearningObjectives: datatypes.JSONSlice[string](in.LearningObjectives),
		EstimatedDuration:  duration,
		DifficultyLevel:    difficulty,
		SequenceOrder:      in.SequenceOrder,
		OrganizationID:     p.OrganizationID,
		IsPublished:        in.IsPublished,
		CreatedBy:          &createdBy,
	}
	if _, err := ms.modules.Create(ctx, nil, m); err != nil {
		return nil, fmt.Errorf("create module: %w", err)
	}
	ms.log.Info("module created", "module_id", m.ID, "user_id", p.UserID)
	return m, nil
}

func (ms *moduleService) Update(ctx context.Context, p types.Principal, id uuid.UUID, in UpdateModuleInput) (*types.LearningModule, error) {
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
	if in.LearningObjectives != nil {
		updates["learning_objectives"] = datatypes.JSONSlice[string](in.LearningObjectives)
	}
	if in.EstimatedDuration != nil {
		updates["estimated_duration_minutes"] = *in.EstimatedDuration
	}
	if in.DifficultyLevel != nil {
		if !in.DifficultyLevel.Valid() {
			return nil, apierr.Validation("unknown difficulty %q", *in.DifficultyLevel)
		}
		updates["difficulty_level"] = *in.DifficultyLevel
	}
	if in.SequenceOrder != nil {
		updates["sequence_order"] = *in.SequenceOrder
	}
	if in.IsPublished != nil {
		updates["is_published"] = *in.IsPublished
	}
	return ms.applyUpdates(ctx, p, id, updates)
}

func (ms *moduleService) SetPublished(ctx context.Context, p types.Principal, id uuid.UUID, published bool) (*types.LearningModule, error) {
	if err := requireManager(p); err != nil {
		return nil, err
	}
	m, err := ms.applyUpdates(ctx, p, id, map[string]interface{}{"is_published": published})
	if err != nil {
		return nil, err
	}
	ms.log.Info("module publish state changed", "module_id", id, "published", published)
	return m, nil
}

func (ms *moduleService) applyUpdates(ctx context.Context, p types.Principal, id uuid.UUID, updates map[string]interface{}) (*types.LearningModule, error) {
	m, err := ms.modules.GetInOrg(ctx, nil, p.OrganizationID, id)
	if err != nil {
		return nil, fmt.Errorf("load module: %w", err)
	}
	if m == nil {
		return nil, apierr.NotFound("module")
	}
	if len(updates) == 0 {
		return m, nil
	}
	if err := ms.modules.UpdateFields(ctx, nil, id, updates); err != nil {
		return nil, fmt.Errorf("update module: %w", err)
	}
	return ms.modules.GetInOrg(ctx, nil, p.OrganizationID, id)
}

// Delete removes the module with its questions and progress records.
// Assessment results are kept.
func (ms *moduleService) Delete(ctx context.Context, p types.Principal, id uuid.UUID) error {
	if err := requireManager(p); err != nil {
		return err
	}
	err := ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := ms.modules.GetInOrg(ctx, tx, p.OrganizationID, id)
		if err != nil {
			return fmt.Errorf("load module: %w", err)
		}
		if m == nil {
			return apierr.NotFound("module")
		}
		if err := ms.questions.DeleteByModuleID(ctx, tx, id); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		if err := ms.progress.DeleteByModuleID(ctx, tx, id); err != nil {
			return fmt.Errorf("delete progress: %w", err)
		}
		return ms.modules.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	ms.log.Info("module deleted", "module_id", id, "user_id", p.UserID)
	return nil
}

func (ms *moduleService) AddQuestion(ctx context.Context, p types.Principal, moduleID uuid.UUID, in QuestionInput) (*types.Question, error) {
	if err := requireManager(p); err != nil {
		return nil, err
	}
	in.QuestionText = strings.TrimSpace(in.QuestionText)
	in.CorrectAnswer = strings.ToUpper(strings.TrimSpace(in.CorrectAnswer))
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	m, err := ms.modules.GetInOrg(ctx, nil, p.OrganizationID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("load module: %w", err)
	}
	if m == nil {
		return nil, apierr.NotFound("module")
	}
	q := &types.Question{
		ModuleID:      m.ID,
		QuestionText:  in.QuestionText,
		Options:       datatypes.JSONSlice[string](in.Options),
		CorrectAnswer: in.CorrectAnswer,
		Explanation:   strings.TrimSpace(in.Explanation),
		Difficulty:    in.Difficulty,
		Points:        in.Points,
	}
	if _, err := ms.questions.Create(ctx, nil, []*types.Question{q}); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

func (ms *moduleService) UpdateQuestion(ctx context.Context, p types.Principal, id uuid.UUID, in UpdateQuestionInput) (*types.Question, error) {
	if err := requireManager(p); err != nil {
		return nil, err
	}
	if in.CorrectAnswer != nil {
		normalized := strings.ToUpper(strings.TrimSpace(*in.CorrectAnswer))
		in.CorrectAnswer = &normalized
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	q, err := ms.questions.GetInOrg(ctx, nil, p.OrganizationID, id)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	if q == nil {
		return nil, apierr.NotFound("question")
	}
	updates := map[string]interface{}{}
	if in.QuestionText != nil {
		updates["question_text"] = strings.TrimSpace(*in.QuestionText)
	}
	if in.Options != nil {
		updates["options"] = datatypes.JSONSlice[string](in.Options)
	}
	if in.CorrectAnswer != nil {
		updates["correct_answer"] = *in.CorrectAnswer
	}
	if in.Explanation != nil {
		updates["explanation"] = strings.TrimSpace(*in.Explanation)
	}
	if in.Difficulty != nil {
		updates["difficulty_level"] = *in.Difficulty
	}
	if in.Points != nil {
		updates["points"] = *in.Points
	}
	if len(updates) == 0 {
		return q, nil
	}
	if err := ms.questions.UpdateFields(ctx, nil, id, updates); err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}
	return ms.questions.GetInOrg(ctx, nil, p.OrganizationID, id)
}

func (ms *moduleService) DeleteQuestion(ctx context.Context, p types.Principal, id uuid.UUID) error {
	if err := requireManager(p); err != nil {
		return err
	}
	q, err := ms.questions.GetInOrg(ctx, nil, p.OrganizationID, id)
	if err != nil {
		return fmt.Errorf("load question: %w", err)
	}
	if q == nil {
		return apierr.NotFound("question")
	}
	if err := ms.questions.Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}
