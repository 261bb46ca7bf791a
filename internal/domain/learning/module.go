package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

type LearningModule struct {
	ID                 uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Title              string                      `gorm:"column:title;not null" json:"title"`
	Description        string                      `gorm:"column:description" json:"description"`
	ContentItemID      *uuid.UUID                  `gorm:"type:uuid;column:content_item_id;index" json:"content_item_id,omitempty"`
	LearningObjectives datatypes.JSONSlice[string] `gorm:"column:learning_objectives" json:"learning_objectives"`
	EstimatedDuration  int                         `gorm:"column:estimated_duration_minutes;not null;default:30" json:"estimated_duration_minutes"`
	DifficultyLevel    Difficulty                  `gorm:"column:difficulty_level;not null;default:'beginner'" json:"difficulty_level"`
	SequenceOrder      int                         `gorm:"column:sequence_order;not null;default:0;index" json:"sequence_order"`
	OrganizationID     uuid.UUID                   `gorm:"type:uuid;column:organization_id;not null;index" json:"organization_id"`
	IsPublished        bool                        `gorm:"column:is_published;not null;default:false;index" json:"is_published"`
	CreatedBy          *uuid.UUID                  `gorm:"type:uuid;column:created_by" json:"created_by,omitempty"`
	CreatedAt          time.Time                   `gorm:"not null;index" json:"created_at"`
	UpdatedAt          time.Time                   `gorm:"not null" json:"updated_at"`
}

func (LearningModule) TableName() string { return "learning_module" }

func (m *LearningModule) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.LearningObjectives == nil {
		m.LearningObjectives = datatypes.JSONSlice[string]{}
	}
	return nil
}
