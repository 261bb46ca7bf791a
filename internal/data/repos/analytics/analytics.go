package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

// ProgressStats aggregates user_progress over an organization's learners.
type ProgressStats struct {
	Rows        int64   `gorm:"column:rows_total"`
	Completed   int64   `gorm:"column:completed"`
	AvgProgress float64 `gorm:"column:avg_progress"`
}

// UserRollup is one row of the team view.
type UserRollup struct {
	ID                  uuid.UUID  `gorm:"column:id" json:"id"`
	Username            string     `gorm:"column:username" json:"username"`
	FullName            string     `gorm:"column:full_name" json:"full_name"`
	Email               string     `gorm:"column:email" json:"email"`
	Role                string     `gorm:"column:role" json:"role"`
	LastLoginAt         *time.Time `gorm:"column:last_login_at" json:"last_login_at"`
	TotalPoints         int        `gorm:"column:total_points" json:"total_points"`
	Level               int        `gorm:"column:level" json:"level"`
	CurrentStreakDays   int        `gorm:"column:current_streak_days" json:"current_streak_days"`
	TotalModulesStarted int        `gorm:"column:total_modules_started" json:"total_modules_started"`
	CompletedModules    int        `gorm:"column:completed_modules" json:"completed_modules"`
	AvgProgress         float64    `gorm:"column:avg_progress" json:"avg_progress"`
}

// ModuleCompletion summarizes progress rows for one module.
type ModuleCompletion struct {
	TotalStarted int64   `gorm:"column:total_started" json:"total_started"`
	Completed    int64   `gorm:"column:completed" json:"completed"`
	AvgProgress  float64 `gorm:"column:avg_progress" json:"avg_progress"`
	AvgTimeSpent float64 `gorm:"column:avg_time_spent" json:"avg_time_spent"`
}

// ModuleAssessment summarizes assessment attempts for one module.
type ModuleAssessment struct {
	TotalAttempts int64   `gorm:"column:total_attempts" json:"total_attempts"`
	Passed        int64   `gorm:"column:passed_attempts" json:"-"`
	AvgScore      float64 `gorm:"column:avg_score" json:"avg_score"`
	PassRate      float64 `gorm:"-" json:"pass_rate"`
}

// Repo is the read-only side of analytics. Every query is scoped by organization.
type Repo interface {
	CountActiveUsers(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) (int64, error)
	CountPublishedModules(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) (int64, error)
	ProgressStats(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) (*ProgressStats, error)
	AverageScore(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) (float64, error)
	CountRecentlyActive(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, since time.Time) (int64, error)
	UserRollups(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*UserRollup, error)
	ModuleCompletion(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) (*ModuleCompletion, error)
	ModuleAssessment(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) (*ModuleAssessment, error)
}

type repo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepo(db *gorm.DB, baseLog *logger.Logger) Repo {
	repoLog := baseLog.With("repo", "AnalyticsRepo")
	return &repo{db: db, log: repoLog}
}

func (r *repo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *repo) CountActiveUsers(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) (int64, error) {
	var n int64
	err := r.conn(ctx, tx).
		Model(&types.User{}).
		Where("organization_id = ? AND is_active = ?", orgID, true).
		Count(&n).Error
	return n, err
}

func (r *repo) CountPublishedModules(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) (int64, error) {
	var n int64
	err := r.conn(ctx, tx).
		Model(&types.LearningModule{}).
		Where("organization_id = ? AND is_published = ?", orgID, true).
		Count(&n).Error
	return n, err
}

func (r *repo) ProgressStats(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) (*ProgressStats, error) {
	var out ProgressStats
	err := r.conn(ctx, tx).
		Table("user_progress AS up").
		Select(`COUNT(*) AS rows_total,
			COALESCE(SUM(CASE WHEN up.status = ? THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(AVG(up.progress_percentage), 0) AS avg_progress`, types.ProgressCompleted).
		Joins(`JOIN "user" u ON u.id = up.user_id`).
		Where("u.organization_id = ?", orgID).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *repo) AverageScore(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) (float64, error) {
	var avg float64
	err := r.conn(ctx, tx).
		Table("assessment_result AS ar").
		Select("COALESCE(AVG(ar.percentage), 0)").
		Joins(`JOIN "user" u ON u.id = ar.user_id`).
		Where("u.organization_id = ?", orgID).
		Scan(&avg).Error
	return avg, err
}

func (r *repo) CountRecentlyActive(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, since time.Time) (int64, error) {
	var n int64
	err := r.conn(ctx, tx).
		Table("user_progress AS up").
		Select("COUNT(DISTINCT up.user_id)").
		Joins(`JOIN "user" u ON u.id = up.user_id`).
		Where("u.organization_id = ? AND up.last_accessed >= ?", orgID, since).
		Scan(&n).Error
	return n, err
}

func (r *repo) UserRollups(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*UserRollup, error) {
	var rows []*UserRollup
	err := r.conn(ctx, tx).
		Table(`"user" AS u`).
		Select(`u.id, u.username, u.full_name, u.email, u.role, u.last_login_at,
			COALESCE(pts.total_points, 0) AS total_points,
			COALESCE(pts.level, 1) AS level,
			COALESCE(pts.current_streak_days, 0) AS current_streak_days,
			COUNT(DISTINCT prog.module_id) AS total_modules_started,
			COUNT(DISTINCT CASE WHEN prog.status = ? THEN prog.module_id END) AS completed_modules,
			COALESCE(AVG(CASE WHEN prog.status = ? THEN 100 ELSE prog.progress_percentage END), 0) AS avg_progress`,
			types.ProgressCompleted, types.ProgressCompleted).
		Joins("LEFT JOIN user_points pts ON pts.user_id = u.id").
		Joins("LEFT JOIN user_progress prog ON prog.user_id = u.id").
		Where("u.organization_id = ? AND u.is_active = ?", orgID, true).
		Group("u.id, u.username, u.full_name, u.email, u.role, u.last_login_at, pts.total_points, pts.level, pts.current_streak_days").
		Order("total_points DESC").
		Order("u.username ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) ModuleCompletion(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) (*ModuleCompletion, error) {
	var out ModuleCompletion
	err := r.conn(ctx, tx).
		Model(&types.UserProgress{}).
		Select(`COUNT(*) AS total_started,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(AVG(progress_percentage), 0) AS avg_progress,
			COALESCE(AVG(time_spent_minutes), 0) AS avg_time_spent`, types.ProgressCompleted).
		Where("module_id = ?", moduleID).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *repo) ModuleAssessment(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) (*ModuleAssessment, error) {
	var out ModuleAssessment
	err := r.conn(ctx, tx).
		Model(&types.AssessmentResult{}).
		Select(`COUNT(*) AS total_attempts,
			COALESCE(SUM(CASE WHEN passed THEN 1 ELSE 0 END), 0) AS passed_attempts,
			COALESCE(AVG(percentage), 0) AS avg_score`).
		Where("module_id = ?", moduleID).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	if out.TotalAttempts > 0 {
		out.PassRate = float64(out.Passed) * 100 / float64(out.TotalAttempts)
	}
	return &out, nil
}
