package domain

import (
	"github.com/yungbote/techlearn-backend/internal/domain/content"
	"github.com/yungbote/techlearn-backend/internal/domain/gamification"
	"github.com/yungbote/techlearn-backend/internal/domain/learning"
	"github.com/yungbote/techlearn-backend/internal/domain/user"
)

type Organization = user.Organization
type User = user.User
type Role = user.Role
type Principal = user.Principal

const (
	RoleAdmin   = user.RoleAdmin
	RoleManager = user.RoleManager
	RoleLearner = user.RoleLearner
)

type ContentItem = content.ContentItem
type ContentKind = content.Kind
type ContentStatus = content.Status
type ExtractedData = content.ExtractedData
type Section = content.Section
type GeneratedQuestion = content.GeneratedQuestion

const (
	ContentKindDocument = content.KindDocument
	ContentKindVideo    = content.KindVideo
	ContentKindImage    = content.KindImage

	ContentStatusProcessing = content.StatusProcessing
	ContentStatusReady      = content.StatusReady
	ContentStatusError      = content.StatusError
)

type LearningModule = learning.LearningModule
type Difficulty = learning.Difficulty
type Question = learning.Question
type UserProgress = learning.UserProgress
type ProgressStatus = learning.ProgressStatus
type AssessmentResult = learning.AssessmentResult
type AnswerReview = learning.AnswerReview

const (
	DifficultyBeginner     = learning.DifficultyBeginner
	DifficultyIntermediate = learning.DifficultyIntermediate
	DifficultyAdvanced     = learning.DifficultyAdvanced

	ProgressNotStarted = learning.ProgressNotStarted
	ProgressInProgress = learning.ProgressInProgress
	ProgressCompleted  = learning.ProgressCompleted

	PassingPercentage = learning.PassingPercentage
)

type UserPoints = gamification.UserPoints
type UserAchievement = gamification.UserAchievement

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&Organization{},
		&User{},
		&ContentItem{},
		&LearningModule{},
		&Question{},
		&UserProgress{},
		&AssessmentResult{},
		&UserPoints{},
		&UserAchievement{},
	}
}
