package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleLearner Role = "learner"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleLearner:
		return true
	}
	return false
}

type User struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email          string     `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Username       string     `gorm:"column:username;uniqueIndex;not null" json:"username"`
	PasswordHash   string     `gorm:"column:password_hash;not null" json:"-"`
	FullName       string     `gorm:"column:full_name" json:"full_name"`
	Role           Role       `gorm:"column:role;not null;default:'learner';index" json:"role"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;column:organization_id;not null;index" json:"organization_id"`
	IsActive       bool       `gorm:"column:is_active;not null" json:"is_active"`
	LastLoginAt    *time.Time `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
