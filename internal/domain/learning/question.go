package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionDifficultyMedium   = "medium"
)

// Question belongs to exactly one module and is deleted with it.
type Question struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID      uuid.UUID                   `gorm:"type:uuid;column:module_id;not null;index" json:"module_id"`
	QuestionText  string                      `gorm:"column:question_text;not null" json:"question_text"`
	QuestionType  string                      `gorm:"column:question_type;not null;default:'multiple_choice'" json:"question_type"`
	Options       datatypes.JSONSlice[string] `gorm:"column:options" json:"options"`
	CorrectAnswer string                      `gorm:"column:correct_answer;not null" json:"correct_answer,omitempty"`
	Explanation   string                      `gorm:"column:explanation" json:"explanation,omitempty"`
	Difficulty    string                      `gorm:"column:difficulty_level;not null;default:'medium'" json:"difficulty_level"`
	Points        int                         `gorm:"column:points;not null;default:1" json:"points"`
	CreatedAt     time.Time                   `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time                   `gorm:"not null" json:"updated_at"`
}

func (Question) TableName() string { return "question" }

func (q *Question) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.QuestionType == "" {
		q.QuestionType = QuestionTypeMultipleChoice
	}
	if q.Difficulty == "" {
		q.Difficulty = QuestionDifficultyMedium
	}
	if q.Points < 1 {
		q.Points = 1
	}
	return nil
}
