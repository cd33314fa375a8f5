package session

import (
	"fmt"
	"time"
)

// Kind identifies the flavor of a timed session.
type Kind string

const (
	KindFocus      Kind = "focus"
	KindShortBreak Kind = "short_break"
	KindLongBreak  Kind = "long_break"
)

// IsBreak reports whether the kind is one of the break kinds.
func (k Kind) IsBreak() bool {
	return k == KindShortBreak || k == KindLongBreak
}

// Valid reports whether the kind is a known session kind.
func (k Kind) Valid() bool {
	switch k {
	case KindFocus, KindShortBreak, KindLongBreak:
		return true
	default:
		return false
	}
}

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown session kind: %q", s)
	}
	return k, nil
}

// State is the lifecycle state of a session.
type State string

const (
	StateIdle        State = "idle"
	StateRunning     State = "running"
	StatePaused      State = "paused"
	StateCompleted   State = "completed"
	StateInterrupted State = "interrupted"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateInterrupted
}

// Session is one live timed interval. The scheduler owns it exclusively
// while it is running or paused; callers only ever see copies.
type Session struct {
	ID        string
	Kind      Kind
	Label     string
	Planned   time.Duration
	Remaining time.Duration
	State     State
	StartedAt time.Time
	EndedAt   time.Time
}

// Record is the immutable snapshot of a terminated session.
type Record struct {
	ID             string    `json:"id"`
	Kind           Kind      `json:"kind"`
	Label          string    `json:"label"`
	PlannedSeconds int64     `json:"planned_duration_seconds"`
	ActualSeconds  int64     `json:"actual_duration_seconds"`
	Completed      bool      `json:"completed"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at"`
}

// Finalize produces the terminal Record for a session. The actual duration
// is always computed from the last known remaining time, never estimated.
func (s Session) Finalize(completed bool, endedAt time.Time) Record {
	remaining := s.Remaining
	if completed {
		remaining = 0
	}
	return Record{
		ID:             s.ID,
		Kind:           s.Kind,
		Label:          s.Label,
		PlannedSeconds: int64(s.Planned / time.Second),
		ActualSeconds:  int64((s.Planned - remaining) / time.Second),
		Completed:      completed,
		StartedAt:      s.StartedAt,
		EndedAt:        endedAt,
	}
}

// DailyStats aggregates finished sessions for one calendar day.
type DailyStats struct {
	FocusCompleted int   `json:"focus_sessions_completed"`
	BreakCompleted int   `json:"break_sessions_completed"`
	FocusSeconds   int64 `json:"total_focus_seconds"`
	BreakSeconds   int64 `json:"total_break_seconds"`
	Interruptions  int   `json:"interruptions"`
}

// Apply folds one record into the aggregate. Partial time always counts
// toward the duration totals; the completion counters only move for
// completed sessions.
func (d *DailyStats) Apply(rec Record) {
	if rec.Kind.IsBreak() {
		d.BreakSeconds += rec.ActualSeconds
		if rec.Completed {
			d.BreakCompleted++
		}
	} else {
		d.FocusSeconds += rec.ActualSeconds
		if rec.Completed {
			d.FocusCompleted++
		}
	}
	if !rec.Completed {
		d.Interruptions++
	}
}
