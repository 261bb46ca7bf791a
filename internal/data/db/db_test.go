package db

import (
	"path/filepath"
	"testing"

	"github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

func TestOpenSQLiteMigrates(t *testing.T) {
	cfg := Config{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "test.db")}
	gdb, err := Open(logger.Nop(), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for _, m := range domain.Models() {
		if !gdb.Migrator().HasTable(m) {
			t.Fatalf("missing table for %T", m)
		}
	}
	if !gdb.Migrator().HasIndex(&domain.AssessmentResult{}, "idx_assessment_attempt") {
		t.Fatalf("missing unique attempt index")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(logger.Nop(), Config{Driver: "mysql"}); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
