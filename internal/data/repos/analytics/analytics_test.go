package analytics

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/yungbote/techlearn-backend/internal/data/repos/testutil"
	types "github.com/yungbote/techlearn-backend/internal/domain"
)

func TestRepoToleratesEmptyOrganization(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewRepo(db, testutil.Logger(t))

	org := testutil.SeedOrganization(t, ctx, tx, "empty")

	stats, err := repo.ProgressStats(ctx, tx, org.ID)
	if err != nil {
		t.Fatalf("ProgressStats: %v", err)
	}
	if stats.Rows != 0 || stats.Completed != 0 || stats.AvgProgress != 0 {
		t.Fatalf("expected zeroed stats, got %+v", stats)
	}
	avg, err := repo.AverageScore(ctx, tx, org.ID)
	if err != nil || avg != 0 {
		t.Fatalf("AverageScore: %v %v", avg, err)
	}
	m := testutil.SeedModule(t, ctx, tx, org.ID, "Go", true)
	assessment, err := repo.ModuleAssessment(ctx, tx, m.ID)
	if err != nil {
		t.Fatalf("ModuleAssessment: %v", err)
	}
	if assessment.TotalAttempts != 0 || assessment.PassRate != 0 || math.IsNaN(assessment.PassRate) {
		t.Fatalf("unexpected assessment stats: %+v", assessment)
	}
}

func TestRepoAggregates(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewRepo(db, testutil.Logger(t))

	org := testutil.SeedOrganization(t, ctx, tx, "acme")
	other := testutil.SeedOrganization(t, ctx, tx, "other")
	ada := testutil.SeedUser(t, ctx, tx, org.ID, "ada", types.RoleLearner)
	bob := testutil.SeedUser(t, ctx, tx, org.ID, "bob", types.RoleLearner)
	eve := testutil.SeedUser(t, ctx, tx, other.ID, "eve", types.RoleLearner)

	m1 := testutil.SeedModule(t, ctx, tx, org.ID, "One", true)
	m2 := testutil.SeedModule(t, ctx, tx, org.ID, "Two", true)
	testutil.SeedModule(t, ctx, tx, org.ID, "Draft", false)
	foreign := testutil.SeedModule(t, ctx, tx, other.ID, "Elsewhere", true)

	testutil.SeedProgress(t, ctx, tx, ada.ID, m1.ID, types.ProgressCompleted, 100)
	testutil.SeedProgress(t, ctx, tx, ada.ID, m2.ID, types.ProgressInProgress, 40)
	testutil.SeedProgress(t, ctx, tx, bob.ID, m1.ID, types.ProgressInProgress, 20)
	testutil.SeedProgress(t, ctx, tx, eve.ID, foreign.ID, types.ProgressCompleted, 100)

	for _, r := range []*types.AssessmentResult{
		{UserID: ada.ID, ModuleID: m1.ID, AttemptNumber: 1, Score: 1, MaxScore: 2, Percentage: 50},
		{UserID: ada.ID, ModuleID: m1.ID, AttemptNumber: 2, Score: 2, MaxScore: 2, Percentage: 100, Passed: true},
		{UserID: eve.ID, ModuleID: foreign.ID, AttemptNumber: 1, Score: 0, MaxScore: 2, Percentage: 0},
	} {
		if err := tx.Create(r).Error; err != nil {
			t.Fatalf("seed assessment: %v", err)
		}
	}

	if n, err := repo.CountActiveUsers(ctx, tx, org.ID); err != nil || n != 2 {
		t.Fatalf("CountActiveUsers=%d err=%v", n, err)
	}
	if n, err := repo.CountPublishedModules(ctx, tx, org.ID); err != nil || n != 2 {
		t.Fatalf("CountPublishedModules=%d err=%v", n, err)
	}

	stats, err := repo.ProgressStats(ctx, tx, org.ID)
	if err != nil {
		t.Fatalf("ProgressStats: %v", err)
	}
	if stats.Rows != 3 || stats.Completed != 1 {
		t.Fatalf("unexpected progress stats: %+v", stats)
	}
	if math.Abs(stats.AvgProgress-(160.0/3)) > 0.01 {
		t.Fatalf("avg progress=%v", stats.AvgProgress)
	}

	if avg, err := repo.AverageScore(ctx, tx, org.ID); err != nil || avg != 75 {
		t.Fatalf("AverageScore=%v err=%v", avg, err)
	}

	if n, err := repo.CountRecentlyActive(ctx, tx, org.ID, time.Now().UTC().Add(-time.Hour)); err != nil || n != 2 {
		t.Fatalf("CountRecentlyActive=%d err=%v", n, err)
	}
	if n, err := repo.CountRecentlyActive(ctx, tx, org.ID, time.Now().UTC().Add(time.Hour)); err != nil || n != 0 {
		t.Fatalf("CountRecentlyActive(future)=%d err=%v", n, err)
	}

	rollups, err := repo.UserRollups(ctx, tx, org.ID)
	if err != nil {
		t.Fatalf("UserRollups: %v", err)
	}
	if len(rollups) != 2 {
		t.Fatalf("expected 2 rollups, got %d", len(rollups))
	}
	byName := map[string]*UserRollup{}
	for _, r := range rollups {
		byName[r.Username] = r
	}
	if a := byName["ada"]; a == nil || a.TotalModulesStarted != 2 || a.CompletedModules != 1 || a.AvgProgress != 70 {
		t.Fatalf("unexpected ada rollup: %+v", byName["ada"])
	}
	if b := byName["bob"]; b == nil || b.TotalModulesStarted != 1 || b.CompletedModules != 0 || b.Level != 1 {
		t.Fatalf("unexpected bob rollup: %+v", byName["bob"])
	}

	completion, err := repo.ModuleCompletion(ctx, tx, m1.ID)
	if err != nil {
		t.Fatalf("ModuleCompletion: %v", err)
	}
	if completion.TotalStarted != 2 || completion.Completed != 1 || completion.AvgProgress != 60 {
		t.Fatalf("unexpected completion: %+v", completion)
	}

	assessment, err := repo.ModuleAssessment(ctx, tx, m1.ID)
	if err != nil {
		t.Fatalf("ModuleAssessment: %v", err)
	}
	if assessment.TotalAttempts != 2 || assessment.Passed != 1 || assessment.PassRate != 50 || assessment.AvgScore != 75 {
		t.Fatalf("unexpected assessment stats: %+v", assessment)
	}
}
