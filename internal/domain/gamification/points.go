package gamification

import (
	"time"

	"github.com/google/uuid"
)

const (
	PointsPerLevel = 1000
	DateLayout     = "2006-01-02"
)

// LevelFor is floor(total/1000)+1.
func LevelFor(totalPoints int) int {
	if totalPoints < 0 {
		totalPoints = 0
	}
	return totalPoints/PointsPerLevel + 1
}

// UserPoints is 1:1 with a user. TotalPoints never decreases.
type UserPoints struct {
	UserID            uuid.UUID `gorm:"type:uuid;primaryKey;column:user_id" json:"user_id"`
	TotalPoints       int       `gorm:"column:total_points;not null;default:0;index" json:"total_points"`
	CurrentStreakDays int       `gorm:"column:current_streak_days;not null;default:0" json:"current_streak_days"`
	LongestStreakDays int       `gorm:"column:longest_streak_days;not null;default:0" json:"longest_streak_days"`
	LastActivityDate  string    `gorm:"column:last_activity_date;size:10;index" json:"last_activity_date"`
	Level             int       `gorm:"column:level;not null;default:1" json:"level"`
	CreatedAt         time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null" json:"updated_at"`
}

func (UserPoints) TableName() string { return "user_points" }
