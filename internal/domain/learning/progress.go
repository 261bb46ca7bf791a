package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not_started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
)

// UserProgress is unique per (user, module). Completed is terminal.
type UserProgress struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID      `gorm:"type:uuid;column:user_id;not null;uniqueIndex:idx_user_progress_user_module,priority:1" json:"user_id"`
	ModuleID           uuid.UUID      `gorm:"type:uuid;column:module_id;not null;uniqueIndex:idx_user_progress_user_module,priority:2;index" json:"module_id"`
	Status             ProgressStatus `gorm:"column:status;not null;default:'not_started';index" json:"status"`
	ProgressPercentage float64        `gorm:"column:progress_percentage;not null;default:0" json:"progress_percentage"`
	TimeSpentMinutes   int            `gorm:"column:time_spent_minutes;not null;default:0" json:"time_spent_minutes"`
	StartedAt          *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	LastAccessed       time.Time      `gorm:"column:last_accessed;not null;index" json:"last_accessed"`
	CompletedAt        *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt          time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null" json:"updated_at"`
}

func (UserProgress) TableName() string { return "user_progress" }

func (p *UserProgress) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
