package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"focusd/internal/config"
	"focusd/internal/session"
	"focusd/internal/storage"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	mr := miniredis.RunT(t)

	cfg := config.RedisConfig{
		Host:         mr.Addr(), // full address "host:port"
		Port:         0,         // not used when host contains the port
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  "5s",
		ReadTimeout:  "3s",
		WriteTimeout: "3s",
	}

	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("open redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func testRecord(id string, startedAt time.Time) session.Record {
	return session.Record{
		ID:             id,
		Kind:           session.KindFocus,
		Label:          "reading",
		PlannedSeconds: 1500,
		ActualSeconds:  900,
		Completed:      false,
		StartedAt:      startedAt,
		EndedAt:        startedAt.Add(15 * time.Minute),
	}
}

func TestRecordRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	started := time.Date(2026, 8, 25, 9, 0, 0, 0, time.Local)
	if err := store.Records().Add(ctx, testRecord("rec-1", started)); err != nil {
		t.Fatalf("add record: %v", err)
	}

	got, err := store.Records().Get(ctx, "rec-1")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if got.Label != "reading" || got.ActualSeconds != 900 || got.Completed {
		t.Fatalf("unexpected record: %+v", got)
	}

	if _, err := store.Records().Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.Local)
	for i := 0; i < 4; i++ {
		rec := testRecord(fmt.Sprintf("rec-%d", i), base.Add(time.Duration(i)*time.Hour))
		if err := store.Records().Add(ctx, rec); err != nil {
			t.Fatalf("add record %d: %v", i, err)
		}
	}

	records, err := store.Records().List(ctx, 2)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "rec-3" || records[1].ID != "rec-2" {
		t.Fatalf("expected newest first, got %s, %s", records[0].ID, records[1].ID)
	}
}

func TestListDay(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	monday := time.Date(2026, 8, 24, 23, 30, 0, 0, time.Local)
	tuesday := time.Date(2026, 8, 25, 0, 30, 0, 0, time.Local)

	_ = store.Records().Add(ctx, testRecord("mon-1", monday))
	_ = store.Records().Add(ctx, testRecord("tue-1", tuesday))

	records, err := store.Records().ListDay(ctx, "2026-08-24")
	if err != nil {
		t.Fatalf("list day: %v", err)
	}
	if len(records) != 1 || records[0].ID != "mon-1" {
		t.Fatalf("unexpected records for day: %+v", records)
	}
}

func TestDeleteBefore(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	old := time.Now().AddDate(0, 0, -120)
	recent := time.Now().Add(-time.Hour)

	_ = store.Records().Add(ctx, testRecord("old-1", old))
	_ = store.Records().Add(ctx, testRecord("old-2", old.Add(time.Hour)))
	_ = store.Records().Add(ctx, testRecord("new-1", recent))

	deleted, err := store.Records().DeleteBefore(ctx, time.Now().AddDate(0, 0, -90))
	if err != nil {
		t.Fatalf("delete before: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}

	remaining, err := store.Records().List(ctx, 0)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "new-1" {
		t.Fatalf("unexpected survivors: %+v", remaining)
	}
}
