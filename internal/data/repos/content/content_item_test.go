package content

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/techlearn-backend/internal/data/repos/testutil"
	types "github.com/yungbote/techlearn-backend/internal/domain"
)

func TestContentItemRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewContentItemRepo(db, testutil.Logger(t))

	org := testutil.SeedOrganization(t, ctx, tx, "acme")
	other := testutil.SeedOrganization(t, ctx, tx, "globex")
	owner := testutil.SeedUser(t, ctx, tx, org.ID, "mgr", types.RoleManager)

	doc := testutil.SeedContentItem(t, ctx, tx, org.ID, owner.ID, types.ContentKindDocument, types.ContentStatusProcessing)
	testutil.SeedContentItem(t, ctx, tx, org.ID, owner.ID, types.ContentKindVideo, types.ContentStatusReady)

	got, err := repo.GetInOrg(ctx, tx, org.ID, doc.ID)
	if err != nil || got == nil {
		t.Fatalf("GetInOrg: got=%v err=%v", got, err)
	}
	if got.CreatedByName != owner.FullName {
		t.Fatalf("created_by_name: want=%q got=%q", owner.FullName, got.CreatedByName)
	}
	if miss, err := repo.GetInOrg(ctx, tx, other.ID, doc.ID); err != nil || miss != nil {
		t.Fatalf("GetInOrg(other tenant): got=%v err=%v", miss, err)
	}

	all, err := repo.ListInOrg(ctx, tx, org.ID, ListFilter{})
	if err != nil || len(all) != 2 {
		t.Fatalf("ListInOrg: len=%d err=%v", len(all), err)
	}
	videos, err := repo.ListInOrg(ctx, tx, org.ID, ListFilter{ContentType: types.ContentKindVideo})
	if err != nil || len(videos) != 1 {
		t.Fatalf("ListInOrg(video): len=%d err=%v", len(videos), err)
	}
	processing, err := repo.ListInOrg(ctx, tx, org.ID, ListFilter{Status: types.ContentStatusProcessing})
	if err != nil || len(processing) != 1 || processing[0].ID != doc.ID {
		t.Fatalf("ListInOrg(processing): len=%d err=%v", len(processing), err)
	}

	if err := repo.MarkReady(ctx, tx, doc.ID, datatypes.JSON(`{"raw_text":"hi","sections":[]}`)); err != nil {
		t.Fatalf("MarkReady: %v", err)
	}
	got, _ = repo.GetByID(ctx, tx, doc.ID)
	data, err := got.Extracted()
	if got.Status != types.ContentStatusReady || err != nil || data == nil || data.RawText != "hi" {
		t.Fatalf("after MarkReady: status=%s data=%+v err=%v", got.Status, data, err)
	}

	if err := repo.Delete(ctx, tx, doc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if gone, _ := repo.GetByID(ctx, tx, doc.ID); gone != nil {
		t.Fatalf("expected item to be deleted")
	}
}

func TestMarkStaleAsError(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewContentItemRepo(db, testutil.Logger(t))

	org := testutil.SeedOrganization(t, ctx, db, "acme")
	owner := testutil.SeedUser(t, ctx, db, org.ID, "mgr", types.RoleManager)
	stale := testutil.SeedContentItem(t, ctx, db, org.ID, owner.ID, types.ContentKindDocument, types.ContentStatusProcessing)
	fresh := testutil.SeedContentItem(t, ctx, db, org.ID, owner.ID, types.ContentKindDocument, types.ContentStatusProcessing)

	old := time.Now().UTC().Add(-3 * time.Hour)
	if err := db.Model(&types.ContentItem{}).Where("id = ?", stale.ID).UpdateColumn("updated_at", old).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}

	n, err := repo.MarkStaleAsError(ctx, nil, time.Now().UTC().Add(-2*time.Hour), "processing timed out")
	if err != nil || n != 1 {
		t.Fatalf("MarkStaleAsError: n=%d err=%v", n, err)
	}
	got, _ := repo.GetByID(ctx, nil, stale.ID)
	if got.Status != types.ContentStatusError || got.ErrorMessage != "processing timed out" {
		t.Fatalf("stale item not marked: %+v", got)
	}
	got, _ = repo.GetByID(ctx, nil, fresh.ID)
	if got.Status != types.ContentStatusProcessing {
		t.Fatalf("fresh item should stay processing, got %s", got.Status)
	}
	if miss, _ := repo.GetByID(ctx, nil, uuid.New()); miss != nil {
		t.Fatalf("expected nil for unknown id")
	}
}
