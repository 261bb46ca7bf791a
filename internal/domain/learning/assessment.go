package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PassingPercentage is the inclusive threshold for a passed assessment.
const PassingPercentage = 70.0

// AnswerReview is the per-question outcome of one submission.
type AnswerReview struct {
	QuestionID    uuid.UUID `json:"question_id"`
	UserAnswer    string    `json:"user_answer"`
	CorrectAnswer string    `json:"correct_answer"`
	IsCorrect     bool      `json:"is_correct"`
	Explanation   string    `json:"explanation"`
}

// AssessmentResult is append-only.
type AssessmentResult struct {
	ID            uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID                         `gorm:"type:uuid;column:user_id;not null;uniqueIndex:idx_assessment_attempt,priority:1" json:"user_id"`
	ModuleID      uuid.UUID                         `gorm:"type:uuid;column:module_id;not null;uniqueIndex:idx_assessment_attempt,priority:2;index" json:"module_id"`
	AttemptNumber int                               `gorm:"column:attempt_number;not null;uniqueIndex:idx_assessment_attempt,priority:3" json:"attempt_number"`
	Score         int                               `gorm:"column:score;not null" json:"score"`
	MaxScore      int                               `gorm:"column:max_score;not null" json:"max_score"`
	Percentage    float64                           `gorm:"column:percentage;not null" json:"percentage"`
	Passed        bool                              `gorm:"column:passed;not null;index" json:"passed"`
	Answers       datatypes.JSONSlice[AnswerReview] `gorm:"column:answers" json:"answers"`
	TakenAt       time.Time                         `gorm:"column:taken_at;not null;index" json:"taken_at"`
}

func (AssessmentResult) TableName() string { return "assessment_result" }

func (a *AssessmentResult) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.TakenAt.IsZero() {
		a.TakenAt = time.Now().UTC()
	}
	return nil
}
