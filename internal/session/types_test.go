package session

import (
	"testing"
	"time"
)

func TestFinalizeCompleted(t *testing.T) {
	started := time.Now()
	sess := Session{
		ID:        "s1",
		Kind:      KindFocus,
		Label:     "deep work",
		Planned:   25 * time.Minute,
		Remaining: 7 * time.Minute, // stale value; completion zeroes it
		State:     StateRunning,
		StartedAt: started,
	}

	ended := started.Add(25 * time.Minute)
	rec := sess.Finalize(true, ended)

	if !rec.Completed {
		t.Fatal("expected completed record")
	}
	if rec.ActualSeconds != 1500 {
		t.Fatalf("completed session gets full credit: expected 1500s, got %d", rec.ActualSeconds)
	}
	if rec.PlannedSeconds != 1500 {
		t.Fatalf("expected planned 1500s, got %d", rec.PlannedSeconds)
	}
	if !rec.EndedAt.Equal(ended) {
		t.Fatalf("expected ended at %s, got %s", ended, rec.EndedAt)
	}
}

func TestFinalizeInterrupted(t *testing.T) {
	sess := Session{
		ID:        "s1",
		Kind:      KindFocus,
		Planned:   25 * time.Minute,
		Remaining: 10 * time.Minute,
		State:     StateRunning,
		StartedAt: time.Now(),
	}

	rec := sess.Finalize(false, time.Now())
	if rec.Completed {
		t.Fatal("expected interrupted record")
	}
	if rec.ActualSeconds != 900 {
		t.Fatalf("expected 900s elapsed, got %d", rec.ActualSeconds)
	}
}

func TestParseKind(t *testing.T) {
	for _, valid := range []string{"focus", "short_break", "long_break"} {
		if _, err := ParseKind(valid); err != nil {
			t.Fatalf("ParseKind(%q): %v", valid, err)
		}
	}
	if _, err := ParseKind("nap"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestKindIsBreak(t *testing.T) {
	if KindFocus.IsBreak() {
		t.Fatal("focus is not a break")
	}
	if !KindShortBreak.IsBreak() || !KindLongBreak.IsBreak() {
		t.Fatal("break kinds must report IsBreak")
	}
}

func TestStateTerminal(t *testing.T) {
	for _, terminal := range []State{StateCompleted, StateInterrupted} {
		if !terminal.Terminal() {
			t.Fatalf("%s should be terminal", terminal)
		}
	}
	for _, live := range []State{StateIdle, StateRunning, StatePaused} {
		if live.Terminal() {
			t.Fatalf("%s should not be terminal", live)
		}
	}
}
