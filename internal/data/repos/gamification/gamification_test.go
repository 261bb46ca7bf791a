package gamification

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/techlearn-backend/internal/data/repos/testutil"
	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/domain/gamification"
)

func TestPointsRepoAddPointsRecomputesLevel(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	points := NewPointsRepo(db, testutil.Logger(t))

	org := testutil.SeedOrganization(t, ctx, tx, "acme")
	u := testutil.SeedUser(t, ctx, tx, org.ID, "ada", types.RoleLearner)

	if got, err := points.Get(ctx, tx, u.ID); err != nil || got != nil {
		t.Fatalf("Get(missing): got=%v err=%v", got, err)
	}

	steps := []struct {
		amount    int
		wantTotal int
		wantLevel int
	}{
		{amount: 400, wantTotal: 400, wantLevel: 1},
		{amount: 600, wantTotal: 1000, wantLevel: 2},
		{amount: -50, wantTotal: 1000, wantLevel: 2},
		{amount: 1500, wantTotal: 2500, wantLevel: 3},
	}
	for _, step := range steps {
		p, err := points.AddPoints(ctx, tx, u.ID, step.amount)
		if err != nil {
			t.Fatalf("AddPoints(%d): %v", step.amount, err)
		}
		if p.TotalPoints != step.wantTotal || p.Level != step.wantLevel {
			t.Fatalf("AddPoints(%d): total=%d level=%d want %d/%d", step.amount, p.TotalPoints, p.Level, step.wantTotal, step.wantLevel)
		}
		stored, err := points.Get(ctx, tx, u.ID)
		if err != nil || stored == nil {
			t.Fatalf("Get: got=%v err=%v", stored, err)
		}
		if stored.TotalPoints != step.wantTotal || stored.Level != step.wantLevel {
			t.Fatalf("stored row drifted: %+v", stored)
		}
	}

	if err := points.UpdateStreak(ctx, tx, u.ID, 3, 7, "2026-01-02"); err != nil {
		t.Fatalf("UpdateStreak: %v", err)
	}
	stored, _ := points.Get(ctx, tx, u.ID)
	if stored.CurrentStreakDays != 3 || stored.LongestStreakDays != 7 || stored.LastActivityDate != "2026-01-02" {
		t.Fatalf("streak not stored: %+v", stored)
	}
}

func TestPointsRepoAddPointsLevelFollowsStoredTotal(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	points := NewPointsRepo(db, testutil.Logger(t))

	org := testutil.SeedOrganization(t, ctx, tx, "acme")
	u := testutil.SeedUser(t, ctx, tx, org.ID, "ada", types.RoleLearner)
	if _, err := points.AddPoints(ctx, tx, u.ID, 400); err != nil {
		t.Fatalf("AddPoints: %v", err)
	}

	// Another award lands between the read and the increment.
	armed := true
	err := db.Callback().Update().Before("gorm:update").Register("test:interleave_award", func(d *gorm.DB) {
		if !armed || d.Statement.Table != "user_points" {
			return
		}
		armed = false
		if err := d.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE user_points SET total_points = total_points + 900 WHERE user_id = ?", u.ID).Error; err != nil {
			t.Errorf("interleaved award: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	p, err := points.AddPoints(ctx, tx, u.ID, 200)
	if err != nil {
		t.Fatalf("AddPoints: %v", err)
	}
	if armed {
		t.Fatalf("interleaved award did not run")
	}
	if p.TotalPoints != 1500 || p.Level != gamification.LevelFor(1500) {
		t.Fatalf("returned total=%d level=%d", p.TotalPoints, p.Level)
	}
	stored, _ := points.Get(ctx, tx, u.ID)
	if stored.TotalPoints != 1500 || stored.Level != 2 {
		t.Fatalf("stored level out of step with total: %+v", stored)
	}
}

func TestPointsRepoLeaderboard(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	points := NewPointsRepo(db, testutil.Logger(t))

	org := testutil.SeedOrganization(t, ctx, tx, "acme")
	other := testutil.SeedOrganization(t, ctx, tx, "globex")
	ada := testutil.SeedUser(t, ctx, tx, org.ID, "ada", types.RoleLearner)
	bob := testutil.SeedUser(t, ctx, tx, org.ID, "bob", types.RoleLearner)
	eve := testutil.SeedUser(t, ctx, tx, other.ID, "eve", types.RoleLearner)
	m := testutil.SeedModule(t, ctx, tx, org.ID, "m", true)
	testutil.SeedProgress(t, ctx, tx, bob.ID, m.ID, types.ProgressCompleted, 100)

	for _, seed := range []*types.UserPoints{
		{UserID: ada.ID, TotalPoints: 120, LastActivityDate: "2026-01-01"},
		{UserID: bob.ID, TotalPoints: 900, LastActivityDate: "2026-03-01"},
		{UserID: eve.ID, TotalPoints: 5000, LastActivityDate: "2026-03-01"},
	} {
		if _, err := points.Create(ctx, tx, seed); err != nil {
			t.Fatalf("Create points: %v", err)
		}
	}

	rows, err := points.Leaderboard(ctx, tx, org.ID, "", 50)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(rows) != 2 || rows[0].UserID != bob.ID || rows[1].UserID != ada.ID {
		t.Fatalf("unexpected ranking: %+v", rows)
	}
	if rows[0].CompletedModules != 1 || rows[1].CompletedModules != 0 {
		t.Fatalf("unexpected completed counts: %+v %+v", rows[0], rows[1])
	}

	recent, err := points.Leaderboard(ctx, tx, org.ID, "2026-02-15", 50)
	if err != nil {
		t.Fatalf("Leaderboard(windowed): %v", err)
	}
	if len(recent) != 1 || recent[0].UserID != bob.ID {
		t.Fatalf("expected only recently active learner, got %+v", recent)
	}
}

func TestAchievementRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	achievements := NewAchievementRepo(db, testutil.Logger(t))

	org := testutil.SeedOrganization(t, ctx, tx, "acme")
	u := testutil.SeedUser(t, ctx, tx, org.ID, "ada", types.RoleLearner)

	for _, name := range []string{"Earned 80 points", "Completed 5 modules!"} {
		typ, ref := "module_completion", "m1"
		if name == "Completed 5 modules!" {
			typ, ref = "milestone", "5"
		}
		if _, err := achievements.Create(ctx, tx, &types.UserAchievement{
			UserID: u.ID, AchievementType: typ, AchievementName: name, PointsAwarded: 50, ReferenceID: ref,
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	exists, err := achievements.Exists(ctx, tx, u.ID, "milestone", "5")
	if err != nil || !exists {
		t.Fatalf("Exists(milestone 5): exists=%v err=%v", exists, err)
	}
	exists, err = achievements.Exists(ctx, tx, u.ID, "milestone", "10")
	if err != nil || exists {
		t.Fatalf("Exists(milestone 10): exists=%v err=%v", exists, err)
	}

	list, err := achievements.ListByUser(ctx, tx, u.ID, 1)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByUser(limit 1): n=%d err=%v", len(list), err)
	}
	all, err := achievements.ListByUser(ctx, tx, u.ID, 0)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListByUser(all): n=%d err=%v", len(all), err)
	}
}
