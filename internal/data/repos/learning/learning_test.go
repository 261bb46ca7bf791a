package learning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/techlearn-backend/internal/data/repos/testutil"
	types "github.com/yungbote/techlearn-backend/internal/domain"
)

func TestModuleRepoListings(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)
	modules := NewModuleRepo(db, log)

	org := testutil.SeedOrganization(t, ctx, tx, "acme")
	other := testutil.SeedOrganization(t, ctx, tx, "globex")
	u := testutil.SeedUser(t, ctx, tx, org.ID, "ada", types.RoleLearner)

	first := testutil.SeedModule(t, ctx, tx, org.ID, "first", true)
	second := testutil.SeedModule(t, ctx, tx, org.ID, "second", true)
	draft := testutil.SeedModule(t, ctx, tx, org.ID, "draft", false)
	foreign := testutil.SeedModule(t, ctx, tx, other.ID, "foreign", true)
	if err := modules.UpdateFields(ctx, tx, first.ID, map[string]interface{}{"sequence_order": 1}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if err := modules.UpdateFields(ctx, tx, second.ID, map[string]interface{}{"sequence_order": 2}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	testutil.SeedQuestion(t, ctx, tx, first.ID, "A", 1)
	testutil.SeedQuestion(t, ctx, tx, first.ID, "B", 2)

	all, err := modules.ListInOrg(ctx, tx, org.ID, nil)
	if err != nil {
		t.Fatalf("ListInOrg: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 modules in org, got %d", len(all))
	}
	published := true
	pub, err := modules.ListInOrg(ctx, tx, org.ID, &published)
	if err != nil {
		t.Fatalf("ListInOrg(published): %v", err)
	}
	if len(pub) != 2 || pub[0].ID != first.ID || pub[1].ID != second.ID {
		t.Fatalf("unexpected published order: %+v", pub)
	}
	if pub[0].QuestionCount != 2 {
		t.Fatalf("expected question_count 2, got %d", pub[0].QuestionCount)
	}
	for _, row := range all {
		if row.ID == foreign.ID {
			t.Fatalf("foreign module leaked into listing")
		}
	}

	if got, err := modules.GetInOrg(ctx, tx, other.ID, draft.ID); err != nil || got != nil {
		t.Fatalf("GetInOrg across orgs: got=%v err=%v", got, err)
	}

	testutil.SeedProgress(t, ctx, tx, u.ID, first.ID, types.ProgressInProgress, 40)
	rec, err := modules.ListRecommended(ctx, tx, org.ID, u.ID, 6)
	if err != nil {
		t.Fatalf("ListRecommended: %v", err)
	}
	if len(rec) != 1 || rec[0].ID != second.ID {
		t.Fatalf("expected only the unstarted published module, got %+v", rec)
	}

	inProgress, err := modules.ListInProgress(ctx, tx, u.ID, 5)
	if err != nil {
		t.Fatalf("ListInProgress: %v", err)
	}
	if len(inProgress) != 1 || inProgress[0].ID != first.ID || inProgress[0].ProgressPercentage != 40 {
		t.Fatalf("unexpected in-progress rows: %+v", inProgress)
	}
}

func TestModuleRepoExistsForContentItem(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	modules := NewModuleRepo(db, testutil.Logger(t))

	org := testutil.SeedOrganization(t, ctx, tx, "acme")
	owner := testutil.SeedUser(t, ctx, tx, org.ID, "root", types.RoleAdmin)
	item := testutil.SeedContentItem(t, ctx, tx, org.ID, owner.ID, types.ContentKindDocument, types.ContentStatusReady)

	exists, err := modules.ExistsForContentItem(ctx, tx, item.ID)
	if err != nil || exists {
		t.Fatalf("expected no module yet: exists=%v err=%v", exists, err)
	}
	if _, err := modules.Create(ctx, tx, &types.LearningModule{
		Title:          "derived",
		ContentItemID:  &item.ID,
		OrganizationID: org.ID,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	exists, err = modules.ExistsForContentItem(ctx, tx, item.ID)
	if err != nil || !exists {
		t.Fatalf("expected module for content item: exists=%v err=%v", exists, err)
	}

	rows, err := modules.ListInOrg(ctx, tx, org.ID, nil)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListInOrg: rows=%d err=%v", len(rows), err)
	}
	if rows[0].ContentTitle != item.Title {
		t.Fatalf("expected joined content title %q, got %q", item.Title, rows[0].ContentTitle)
	}
}

func TestQuestionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	questions := NewQuestionRepo(db, testutil.Logger(t))

	org := testutil.SeedOrganization(t, ctx, tx, "acme")
	other := testutil.SeedOrganization(t, ctx, tx, "globex")
	m := testutil.SeedModule(t, ctx, tx, org.ID, "m", true)

	created, err := questions.Create(ctx, tx, []*types.Question{
		{ModuleID: m.ID, QuestionText: "q1", Options: []string{"A) a", "B) b"}, CorrectAnswer: "A"},
		{ModuleID: m.ID, QuestionText: "q2", Options: []string{"A) a", "B) b"}, CorrectAnswer: "B", Points: 3},
	})
	if err != nil || len(created) != 2 {
		t.Fatalf("Create: n=%d err=%v", len(created), err)
	}
	if created[0].Points != 1 || created[0].QuestionType != "multiple_choice" {
		t.Fatalf("defaults not applied: %+v", created[0])
	}

	got, err := questions.GetInOrg(ctx, tx, org.ID, created[1].ID)
	if err != nil || got == nil || got.Points != 3 {
		t.Fatalf("GetInOrg: got=%v err=%v", got, err)
	}
	if cross, err := questions.GetInOrg(ctx, tx, other.ID, created[1].ID); err != nil || cross != nil {
		t.Fatalf("GetInOrg across orgs: got=%v err=%v", cross, err)
	}

	if err := questions.DeleteByModuleID(ctx, tx, m.ID); err != nil {
		t.Fatalf("DeleteByModuleID: %v", err)
	}
	left, err := questions.GetByModuleID(ctx, tx, m.ID)
	if err != nil || len(left) != 0 {
		t.Fatalf("expected no questions after delete: n=%d err=%v", len(left), err)
	}
}

func TestProgressRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	progress := NewProgressRepo(db, testutil.Logger(t))

	org := testutil.SeedOrganization(t, ctx, tx, "acme")
	u := testutil.SeedUser(t, ctx, tx, org.ID, "ada", types.RoleLearner)
	m1 := testutil.SeedModule(t, ctx, tx, org.ID, "m1", true)
	m2 := testutil.SeedModule(t, ctx, tx, org.ID, "m2", true)

	p := testutil.SeedProgress(t, ctx, tx, u.ID, m1.ID, types.ProgressInProgress, 10)
	testutil.SeedProgress(t, ctx, tx, u.ID, m2.ID, types.ProgressCompleted, 100)

	now := time.Now().UTC()
	dup := &types.UserProgress{UserID: u.ID, ModuleID: m1.ID, LastAccessed: now}
	if _, err := progress.Create(ctx, tx, dup); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected duplicate key for second progress row, got %v", err)
	}

	if err := progress.UpdateFields(ctx, tx, p.ID, map[string]interface{}{
		"progress_percentage": 55.0,
		"time_spent_minutes":  gorm.Expr("time_spent_minutes + ?", 12),
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err := progress.GetByUserAndModule(ctx, tx, u.ID, m1.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByUserAndModule: got=%v err=%v", got, err)
	}
	if got.ProgressPercentage != 55 || got.TimeSpentMinutes != 12 {
		t.Fatalf("unexpected progress after update: %+v", got)
	}
	if missing, err := progress.GetByID(ctx, tx, uuid.New()); err != nil || missing != nil {
		t.Fatalf("GetByID(missing): got=%v err=%v", missing, err)
	}

	completed, err := progress.CountCompleted(ctx, tx, u.ID)
	if err != nil || completed != 1 {
		t.Fatalf("CountCompleted: n=%d err=%v", completed, err)
	}
	sum, err := progress.Summary(ctx, tx, u.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.TotalModules != 2 || sum.CompletedModules != 1 || sum.InProgressModules != 1 || sum.TotalTimeSpent != 12 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestAssessmentRepoAttempts(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	results := NewAssessmentRepo(db, testutil.Logger(t))

	org := testutil.SeedOrganization(t, ctx, tx, "acme")
	u := testutil.SeedUser(t, ctx, tx, org.ID, "ada", types.RoleLearner)
	m := testutil.SeedModule(t, ctx, tx, org.ID, "m", true)

	n, err := results.MaxAttempt(ctx, tx, u.ID, m.ID)
	if err != nil || n != 0 {
		t.Fatalf("MaxAttempt(empty): n=%d err=%v", n, err)
	}
	for attempt := 1; attempt <= 2; attempt++ {
		if _, err := results.Create(ctx, tx, &types.AssessmentResult{
			UserID: u.ID, ModuleID: m.ID, AttemptNumber: attempt,
			Score: attempt, MaxScore: 2, Percentage: float64(attempt) * 50, Passed: attempt == 2,
			Answers: []types.AnswerReview{{QuestionID: uuid.New(), UserAnswer: "A", CorrectAnswer: "A", IsCorrect: true}},
		}); err != nil {
			t.Fatalf("Create attempt %d: %v", attempt, err)
		}
	}
	n, err = results.MaxAttempt(ctx, tx, u.ID, m.ID)
	if err != nil || n != 2 {
		t.Fatalf("MaxAttempt: n=%d err=%v", n, err)
	}

	_, err = results.Create(ctx, tx, &types.AssessmentResult{UserID: u.ID, ModuleID: m.ID, AttemptNumber: 2, MaxScore: 2})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected duplicate attempt to be rejected, got %v", err)
	}

	history, err := results.ListByUserAndModule(ctx, tx, u.ID, m.ID)
	if err != nil || len(history) != 2 {
		t.Fatalf("ListByUserAndModule: n=%d err=%v", len(history), err)
	}
	if history[0].AttemptNumber != 2 || !history[0].Passed {
		t.Fatalf("expected newest attempt first: %+v", history[0])
	}
	if len(history[0].Answers) != 1 || !history[0].Answers[0].IsCorrect {
		t.Fatalf("answers did not round-trip: %+v", history[0].Answers)
	}

	all, err := results.ListByModule(ctx, tx, m.ID)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListByModule: n=%d err=%v", len(all), err)
	}
}
