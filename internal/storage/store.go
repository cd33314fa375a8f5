// Package storage defines the persistence boundary for finished session
// records. Backends live in the sqlite, bolt, and redis subpackages.
package storage

import (
	"context"
	"errors"
	"os"
	"time"

	"focusd/internal/session"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// DayFormat is the date layout used for day-scoped queries.
const DayFormat = "2006-01-02"

// Store is the root storage interface.
type Store interface {
	Close() error
	Records() RecordStore
}

// RecordStore persists finalized session records.
type RecordStore interface {
	// Add inserts one finalized record.
	Add(ctx context.Context, rec session.Record) error

	// Get fetches a record by ID, ErrNotFound when missing.
	Get(ctx context.Context, id string) (*session.Record, error)

	// List returns up to limit records, newest first. A non-positive
	// limit returns everything.
	List(ctx context.Context, limit int) ([]session.Record, error)

	// ListDay returns the records started on the given day (DayFormat),
	// newest first.
	ListDay(ctx context.Context, day string) ([]session.Record, error)

	// DeleteBefore removes records started before the cutoff and returns
	// how many were deleted.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// EnsureDir ensures a directory exists with default permissions.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
