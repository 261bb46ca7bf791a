package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/techlearn-backend/internal/domain"
)

func SeedOrganization(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Organization {
	tb.Helper()
	org := &types.Organization{Name: name, Subdomain: fmt.Sprintf("%s-%s", name, uuid.NewString()[:8])}
	if err := tx.WithContext(ctx).Create(org).Error; err != nil {
		tb.Fatalf("seed organization: %v", err)
	}
	return org
}

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, username string, role types.Role) *types.User {
	tb.Helper()
	u := &types.User{
		Email:          username + "@example.com",
		Username:       username,
		PasswordHash:   "hash",
		FullName:       "User " + username,
		Role:           role,
		OrganizationID: orgID,
		IsActive:       true,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func Principal(u *types.User) types.Principal {
	return types.Principal{UserID: u.ID, Role: u.Role, OrganizationID: u.OrganizationID}
}

func SeedModule(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, title string, published bool) *types.LearningModule {
	tb.Helper()
	m := &types.LearningModule{
		Title:              title,
		Description:        "about " + title,
		LearningObjectives: []string{"learn " + title},
		EstimatedDuration:  30,
		DifficultyLevel:    types.DifficultyBeginner,
		OrganizationID:     orgID,
		IsPublished:        published,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	return m
}

func SeedQuestion(tb testing.TB, ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, correct string, points int) *types.Question {
	tb.Helper()
	q := &types.Question{
		ModuleID:      moduleID,
		QuestionText:  "Which option is right?",
		Options:       []string{"A) one", "B) two", "C) three", "D) four"},
		CorrectAnswer: correct,
		Explanation:   "Because " + correct,
		Points:        points,
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed question: %v", err)
	}
	return q
}

func SeedContentItem(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID, ownerID uuid.UUID, kind types.ContentKind, status types.ContentStatus) *types.ContentItem {
	tb.Helper()
	item := &types.ContentItem{
		Title:          "Handbook",
		Description:    "ops handbook",
		ContentType:    kind,
		StorageKey:     "documents/handbook.txt",
		OriginalName:   "handbook.txt",
		MimeType:       "text/plain",
		Status:         status,
		CreatedBy:      ownerID,
		OrganizationID: orgID,
	}
	if err := tx.WithContext(ctx).Create(item).Error; err != nil {
		tb.Fatalf("seed content item: %v", err)
	}
	return item
}

func SeedProgress(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID, status types.ProgressStatus, pct float64) *types.UserProgress {
	tb.Helper()
	now := time.Now().UTC()
	p := &types.UserProgress{
		UserID:             userID,
		ModuleID:           moduleID,
		Status:             status,
		ProgressPercentage: pct,
		StartedAt:          &now,
		LastAccessed:       now,
	}
	if status == types.ProgressCompleted {
		p.CompletedAt = &now
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
	return p
}
