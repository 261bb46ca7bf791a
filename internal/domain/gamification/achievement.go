package gamification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AchievementModuleCompletion = "module_completion"
	AchievementMilestone        = "milestone"
)

// Milestones are completed-module counts that grant a one-time bonus of milestone*10 points.
var Milestones = []int{5, 10, 25, 50, 100}

// UserAchievement is append-only.
type UserAchievement struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;column:user_id;not null;index" json:"user_id"`
	AchievementType string    `gorm:"column:achievement_type;not null;index" json:"achievement_type"`
	AchievementName string    `gorm:"column:achievement_name;not null" json:"achievement_name"`
	PointsAwarded   int       `gorm:"column:points_awarded;not null;default:0" json:"points_awarded"`
	ReferenceID     string    `gorm:"column:reference_id;index" json:"reference_id,omitempty"`
	EarnedAt        time.Time `gorm:"column:earned_at;not null;index" json:"earned_at"`
}

func (UserAchievement) TableName() string { return "user_achievement" }

func (a *UserAchievement) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.EarnedAt.IsZero() {
		a.EarnedAt = time.Now().UTC()
	}
	return nil
}
