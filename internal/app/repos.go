package app

import (
	"gorm.io/gorm"

	analyticsrepo "github.com/yungbote/techlearn-backend/internal/data/repos/analytics"
	contentrepo "github.com/yungbote/techlearn-backend/internal/data/repos/content"
	gamificationrepo "github.com/yungbote/techlearn-backend/internal/data/repos/gamification"
	learningrepo "github.com/yungbote/techlearn-backend/internal/data/repos/learning"
	userrepo "github.com/yungbote/techlearn-backend/internal/data/repos/user"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

type Repos struct {
	User         userrepo.UserRepo
	Organization userrepo.OrganizationRepo
	ContentItem  contentrepo.ContentItemRepo
	Module       learningrepo.ModuleRepo
	Question     learningrepo.QuestionRepo
	Progress     learningrepo.ProgressRepo
	Assessment   learningrepo.AssessmentRepo
	Points       gamificationrepo.PointsRepo
	Achievement  gamificationrepo.AchievementRepo
	Analytics    analyticsrepo.Repo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:         userrepo.NewUserRepo(db, log),
		Organization: userrepo.NewOrganizationRepo(db, log),
		ContentItem:  contentrepo.NewContentItemRepo(db, log),
		Module:       learningrepo.NewModuleRepo(db, log),
		Question:     learningrepo.NewQuestionRepo(db, log),
		Progress:     learningrepo.NewProgressRepo(db, log),
		Assessment:   learningrepo.NewAssessmentRepo(db, log),
		Points:       gamificationrepo.NewPointsRepo(db, log),
		Achievement:  gamificationrepo.NewAchievementRepo(db, log),
		Analytics:    analyticsrepo.NewRepo(db, log),
	}
}
