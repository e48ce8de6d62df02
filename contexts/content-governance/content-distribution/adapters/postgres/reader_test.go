package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"maestro/contexts/content-governance/content-distribution/domain/entities"
	domainerrors "maestro/contexts/content-governance/content-distribution/domain/errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const proposalsTable = `CREATE TABLE governance_proposals (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	target_tier INTEGER NOT NULL,
	author_name TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '[]',
	featured BOOLEAN NOT NULL DEFAULT FALSE,
	sort_index INTEGER NOT NULL DEFAULT 0,
	distributable BOOLEAN NOT NULL DEFAULT FALSE,
	retracted_at DATETIME,
	revision INTEGER NOT NULL,
	updated_at DATETIME NOT NULL,
	approved_at DATETIME
)`

func newTestReader(t *testing.T) (*Reader, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.Exec(proposalsTable).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return NewReader(db, nil), db
}

func insertProposal(t *testing.T, db *gorm.DB, id string, status string, approvedAt *time.Time, mutate func(map[string]any)) {
	t.Helper()
	row := map[string]any{
		"id":            id,
		"title":         "Title " + id,
		"category":      "theoretical",
		"target_tier":   1,
		"status":        status,
		"content":       `[{"id":"b0","type":"text","content":"Intro","order":0},{"id":"b1","type":"code","content":"fib(n)","order":1}]`,
		"distributable": status == "approved",
		"revision":      3,
		"updated_at":    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		"approved_at":   approvedAt,
	}
	if mutate != nil {
		mutate(row)
	}
	if err := db.Table("governance_proposals").Create(row).Error; err != nil {
		t.Fatalf("insert %s: %v", id, err)
	}
}

func TestReaderListsOnlyDistributableApprovedContent(t *testing.T) {
	reader, db := newTestReader(t)
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	retractedAt := t1.Add(time.Hour)

	insertProposal(t, db, "late", "approved", &t1, nil)
	insertProposal(t, db, "early", "approved", &t0, nil)
	insertProposal(t, db, "featured", "approved", &t0, func(row map[string]any) { row["featured"] = true })
	insertProposal(t, db, "pending", "pending", nil, nil)
	insertProposal(t, db, "retracted", "approved", &t0, func(row map[string]any) {
		row["distributable"] = false
		row["retracted_at"] = &retractedAt
	})
	insertProposal(t, db, "tier-two", "approved", &t0, func(row map[string]any) { row["target_tier"] = 2 })

	items, err := reader.ListPublished(context.Background(), 1, entities.CategoryTheoretical)
	if err != nil {
		t.Fatalf("list published: %v", err)
	}
	got := make([]string, 0, len(items))
	for _, item := range items {
		got = append(got, item.ProposalID)
	}
	if strings.Join(got, ",") != "featured,early,late" {
		t.Fatalf("unexpected listing order: %v", got)
	}
	if len(items[0].Blocks) != 2 || items[0].Blocks[1].Type != "code" || !items[0].Servable() {
		t.Fatalf("unexpected decoded content: %+v", items[0])
	}
}

func TestReaderGetPublished(t *testing.T) {
	reader, db := newTestReader(t)
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	insertProposal(t, db, "p1", "approved", &t0, nil)
	insertProposal(t, db, "draft", "draft", nil, nil)

	content, err := reader.GetPublished(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get published: %v", err)
	}
	if !content.ApprovedAt.Equal(t0) || content.Revision != 3 {
		t.Fatalf("unexpected content: %+v", content)
	}
	for _, id := range []string{"draft", "missing"} {
		if _, err := reader.GetPublished(context.Background(), id); !errors.Is(err, domainerrors.ErrNotFound) {
			t.Fatalf("%s: expected not found, got %v", id, err)
		}
	}
}
