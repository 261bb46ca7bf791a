package services

import (
	"testing"
	"time"

	"github.com/yungbote/techlearn-backend/internal/data/repos/testutil"
	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/domain/gamification"
)

func TestNextStreak(t *testing.T) {
	today := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name        string
		current     int
		longest     int
		last        string
		wantCurrent int
		wantLongest int
		wantChanged bool
	}{
		{"first activity", 0, 0, "", 1, 1, true},
		{"same day", 4, 6, "2026-05-20", 4, 6, false},
		{"yesterday", 4, 6, "2026-05-19", 5, 6, true},
		{"yesterday sets record", 6, 6, "2026-05-19", 7, 7, true},
		{"gap resets", 9, 9, "2026-05-17", 1, 9, true},
		{"unparseable resets", 3, 5, "not-a-date", 1, 5, true},
		{"future date ignored", 3, 5, "2026-05-22", 3, 5, false},
	}
	for _, tc := range cases {
		cur, longest, changed := NextStreak(tc.current, tc.longest, tc.last, today)
		if cur != tc.wantCurrent || longest != tc.wantLongest || changed != tc.wantChanged {
			t.Fatalf("%s: got %d/%d/%v want %d/%d/%v", tc.name, cur, longest, changed, tc.wantCurrent, tc.wantLongest, tc.wantChanged)
		}
	}
}

func TestAwardPoints(t *testing.T) {
	h := newHarness(t)
	uid := h.learner.ID

	pts, err := h.gamification.AwardPoints(h.ctx, nil, uid, 0, gamification.AchievementModuleCompletion, "x")
	if err != nil {
		t.Fatalf("AwardPoints(0): %v", err)
	}
	if pts.TotalPoints != 0 || pts.Level != 1 {
		t.Fatalf("zero award changed points: %+v", pts)
	}

	for _, amount := range []int{600, 500, -20} {
		if _, err := h.gamification.AwardPoints(h.ctx, nil, uid, amount, gamification.AchievementModuleCompletion, "m"); err != nil {
			t.Fatalf("AwardPoints(%d): %v", amount, err)
		}
	}
	pts, _ = h.points.Get(h.ctx, nil, uid)
	if pts.TotalPoints != 1100 || pts.Level != 2 {
		t.Fatalf("unexpected points: %+v", pts)
	}
	awards, err := h.gamification.Achievements(h.ctx, testutil.Principal(h.learner))
	if err != nil {
		t.Fatalf("Achievements: %v", err)
	}
	if len(awards) != 2 {
		t.Fatalf("expected 2 achievement records, got %d", len(awards))
	}
}

func TestCheckMilestonesGrantsCrossedMilestones(t *testing.T) {
	h := newHarness(t)
	uid := h.learner.ID
	complete := func(n int) {
		for i := 0; i < n; i++ {
			m := testutil.SeedModule(t, h.ctx, h.db, h.org.ID, "M", true)
			testutil.SeedProgress(t, h.ctx, h.db, uid, m.ID, types.ProgressCompleted, 100)
		}
	}

	complete(4)
	granted, err := h.gamification.CheckMilestones(h.ctx, nil, uid)
	if err != nil || len(granted) != 0 {
		t.Fatalf("below first milestone: %v %v", granted, err)
	}

	complete(2)
	granted, err = h.gamification.CheckMilestones(h.ctx, nil, uid)
	if err != nil {
		t.Fatalf("CheckMilestones: %v", err)
	}
	if len(granted) != 1 || granted[0].PointsAwarded != 50 {
		t.Fatalf("skipped milestone not granted: %+v", granted)
	}

	complete(5)
	granted, err = h.gamification.CheckMilestones(h.ctx, nil, uid)
	if err != nil {
		t.Fatalf("CheckMilestones: %v", err)
	}
	if len(granted) != 1 || granted[0].ReferenceID != "10" || granted[0].PointsAwarded != 100 {
		t.Fatalf("unexpected grants at 11: %+v", granted)
	}

	granted, _ = h.gamification.CheckMilestones(h.ctx, nil, uid)
	if len(granted) != 0 {
		t.Fatalf("milestones granted twice: %+v", granted)
	}
	pts, _ := h.points.Get(h.ctx, nil, uid)
	if pts.TotalPoints != 150 {
		t.Fatalf("total=%d want 150", pts.TotalPoints)
	}
}
