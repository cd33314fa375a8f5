// Package ledger accumulates finished session records into a daily
// statistics aggregate and a bounded most-recent-first history.
package ledger

import (
	"fmt"
	"sync"

	"focusd/internal/session"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultHistoryCap bounds the retained history when no cap is configured.
const DefaultHistoryCap = 100

// Ledger is single-writer: Record is only ever called from the scheduler's
// finalize path. Readers may run concurrently and always observe either the
// pre- or post-update state.
type Ledger struct {
	mu      sync.RWMutex
	stats   session.DailyStats
	history *lru.Cache[string, session.Record]
}

// New creates a ledger retaining at most cap records. A non-positive cap
// falls back to DefaultHistoryCap.
func New(cap int) (*Ledger, error) {
	if cap <= 0 {
		cap = DefaultHistoryCap
	}
	// Records are only ever added, never looked up, so the LRU eviction
	// order is exactly insertion order: the oldest record goes first.
	history, err := lru.New[string, session.Record](cap)
	if err != nil {
		return nil, fmt.Errorf("create history cache: %w", err)
	}
	return &Ledger{history: history}, nil
}

// Record folds one finalized record into the daily stats and prepends it to
// the history, evicting the oldest entry once the cap is exceeded. It
// implements scheduler.Recorder and never fails.
func (l *Ledger) Record(rec session.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stats.Apply(rec)
	l.history.Add(rec.ID, rec)
	return nil
}

// Stats returns a snapshot of the daily aggregate.
func (l *Ledger) Stats() session.DailyStats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stats
}

// History returns up to limit records, newest first. A non-positive limit
// returns the full retained history.
func (l *Ledger) History(limit int) []session.Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := l.history.Keys() // oldest to newest
	if limit <= 0 || limit > len(keys) {
		limit = len(keys)
	}

	records := make([]session.Record, 0, limit)
	for i := len(keys) - 1; i >= 0 && len(records) < limit; i-- {
		if rec, ok := l.history.Peek(keys[i]); ok {
			records = append(records, rec)
		}
	}
	return records
}

// ResetDay zeroes the daily stats. History retention is a separate policy
// and is deliberately left untouched.
func (l *Ledger) ResetDay() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stats = session.DailyStats{}
}
