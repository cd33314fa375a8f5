// Package scheduler drives alternating focus and break sessions: it owns the
// session state machine, runs the countdown clock on a background goroutine,
// and hands finished sessions to the configured record sinks.
package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"focusd/internal/clock"
	"focusd/internal/events"
	"focusd/internal/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config holds the per-run scheduling parameters. Changing it between
// sessions never affects an in-flight session's planned duration.
type Config struct {
	FocusDuration          time.Duration
	ShortBreak             time.Duration
	LongBreak              time.Duration
	SessionsUntilLongBreak int
	AutoAdvance            bool

	// CountInterrupted controls whether interrupted focus sessions count
	// toward the long-break cadence. Default is false: only completed
	// focus sessions advance the streak.
	CountInterrupted bool

	// TickInterval is the clock granularity. Production uses the default
	// of one second; tests shrink it.
	TickInterval time.Duration
}

// Validate rejects non-positive durations and cadence values.
func (c Config) Validate() error {
	if c.FocusDuration <= 0 {
		return fmt.Errorf("%w: focus duration must be positive, got %s", ErrInvalidConfig, c.FocusDuration)
	}
	if c.ShortBreak <= 0 {
		return fmt.Errorf("%w: short break duration must be positive, got %s", ErrInvalidConfig, c.ShortBreak)
	}
	if c.LongBreak <= 0 {
		return fmt.Errorf("%w: long break duration must be positive, got %s", ErrInvalidConfig, c.LongBreak)
	}
	if c.SessionsUntilLongBreak < 1 {
		return fmt.Errorf("%w: sessions until long break must be at least 1, got %d", ErrInvalidConfig, c.SessionsUntilLongBreak)
	}
	return nil
}

// DurationFor returns the planned duration for a session kind.
func (c Config) DurationFor(kind session.Kind) time.Duration {
	switch kind {
	case session.KindShortBreak:
		return c.ShortBreak
	case session.KindLongBreak:
		return c.LongBreak
	default:
		return c.FocusDuration
	}
}

// Recorder receives each finalized session record. The ledger and the
// persistence store both implement it; errors are surfaced synchronously to
// whichever call triggered finalization.
type Recorder interface {
	Record(rec session.Record) error
}

// Scheduler is the Pomodoro state machine. All commands synchronize on a
// single mutex; the clock goroutine holds it only long enough to mutate the
// current session, so commands never block behind a full tick delivery.
type Scheduler struct {
	mu             sync.Mutex
	cfg            Config
	current        *session.Session
	countdown      *clock.Countdown
	gen            uint64
	focusCompleted int
	lastFocusLabel string

	bus    *events.Bus
	sinks  []Recorder
	logger zerolog.Logger
}

// New creates a scheduler publishing to bus and recording to sinks.
func New(cfg Config, bus *events.Bus, logger zerolog.Logger, sinks ...Recorder) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = clock.DefaultInterval
	}
	return &Scheduler{
		cfg:    cfg,
		bus:    bus,
		sinks:  sinks,
		logger: logger.With().Str("component", "scheduler").Logger(),
	}, nil
}

// UpdateConfig swaps the scheduling parameters. The in-flight session, if
// any, keeps the planned duration it was created with.
func (s *Scheduler) UpdateConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = s.cfg.TickInterval
	}
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// Start creates a fresh session of the given kind and begins ticking. It
// returns a read-only snapshot immediately; ErrAlreadyRunning when a session
// is active.
func (s *Scheduler) Start(kind session.Kind, label string) (session.Session, error) {
	if !kind.Valid() {
		return session.Session{}, fmt.Errorf("%w: %q", ErrInvalidConfig, kind)
	}
	if kind.IsBreak() {
		label = ""
	}

	s.mu.Lock()
	if s.current != nil && !s.current.State.Terminal() {
		s.mu.Unlock()
		return session.Session{}, ErrAlreadyRunning
	}

	planned := s.cfg.DurationFor(kind)
	sess := &session.Session{
		ID:        uuid.NewString(),
		Kind:      kind,
		Label:     label,
		Planned:   planned,
		Remaining: planned,
		State:     session.StateRunning,
		StartedAt: time.Now(),
	}
	s.current = sess
	if kind == session.KindFocus {
		s.lastFocusLabel = label
	}

	s.gen++
	gen := s.gen
	cd := clock.NewCountdown(s.cfg.TickInterval, s.logger)
	s.countdown = cd
	snapshot := *sess
	s.mu.Unlock()

	s.logger.Info().
		Str("session_id", snapshot.ID).
		Str("kind", string(kind)).
		Str("label", label).
		Dur("planned", planned).
		Msg("Session started")

	go cd.Run(planned,
		func(remaining time.Duration) { s.handleTick(gen, remaining) },
		func() { s.handleExpire(gen) },
	)

	return snapshot, nil
}

// Pause freezes the running session at its last tick value. The clock is
// signalled to stop; its goroutine cleans up on its own.
func (s *Scheduler) Pause() error {
	s.mu.Lock()
	if s.current == nil || s.current.State != session.StateRunning {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.current.State = session.StatePaused
	s.gen++
	cd := s.countdown
	s.countdown = nil
	id := s.current.ID
	s.mu.Unlock()

	if cd != nil {
		cd.Stop()
	}
	s.logger.Info().Str("session_id", id).Msg("Session paused")
	return nil
}

// Resume restarts the clock with the frozen remaining time as the new
// countdown duration, preserving full credit toward the planned duration.
func (s *Scheduler) Resume() error {
	s.mu.Lock()
	if s.current == nil || s.current.State != session.StatePaused {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.current.State = session.StateRunning
	remaining := s.current.Remaining
	id := s.current.ID

	s.gen++
	gen := s.gen
	cd := clock.NewCountdown(s.cfg.TickInterval, s.logger)
	s.countdown = cd
	s.mu.Unlock()

	s.logger.Info().Str("session_id", id).Dur("remaining", remaining).Msg("Session resumed")

	go cd.Run(remaining,
		func(rem time.Duration) { s.handleTick(gen, rem) },
		func() { s.handleExpire(gen) },
	)
	return nil
}

// Stop interrupts the running or paused session and returns its finalized
// record synchronously. A persistence failure is returned alongside the
// record; the record itself is always valid.
func (s *Scheduler) Stop() (session.Record, error) {
	s.mu.Lock()
	if s.current == nil || s.current.State.Terminal() || s.current.State == session.StateIdle {
		s.mu.Unlock()
		return session.Record{}, ErrInvalidTransition
	}

	now := time.Now()
	s.current.State = session.StateInterrupted
	s.current.EndedAt = now
	rec := s.current.Finalize(false, now)
	if s.cfg.CountInterrupted && rec.Kind == session.KindFocus {
		s.focusCompleted++
	}

	s.gen++
	cd := s.countdown
	s.countdown = nil
	s.mu.Unlock()

	if cd != nil {
		cd.Stop()
	}

	s.logger.Info().
		Str("session_id", rec.ID).
		Int64("actual_seconds", rec.ActualSeconds).
		Msg("Session interrupted")

	err := s.record(rec)
	s.bus.PublishEnded(events.Ended{Record: rec, Next: session.KindFocus, Err: err})
	return rec, err
}

// Current returns a snapshot of the current session, safe to call from any
// goroutine. The boolean is false when no session has been started yet.
func (s *Scheduler) Current() (session.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return session.Session{}, false
	}
	return *s.current, true
}

// Shutdown stops any running clock without finalizing the session. Used on
// process teardown after the caller has already stopped or drained sessions.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	cd := s.countdown
	s.countdown = nil
	s.gen++
	s.mu.Unlock()
	if cd != nil {
		cd.Stop()
	}
}

// handleTick runs on the clock goroutine. Stale generations (a tick racing a
// pause or stop) are discarded so no two mutations of session state tear.
func (s *Scheduler) handleTick(gen uint64, remaining time.Duration) {
	s.mu.Lock()
	if gen != s.gen || s.current == nil || s.current.State != session.StateRunning {
		s.mu.Unlock()
		return
	}
	s.current.Remaining = remaining
	id := s.current.ID
	s.mu.Unlock()

	s.bus.PublishTick(events.Tick{SessionID: id, Remaining: remaining})
}

// handleExpire finalizes a naturally completed session and proposes (or
// auto-starts) the next one.
func (s *Scheduler) handleExpire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.current == nil || s.current.State != session.StateRunning {
		s.mu.Unlock()
		return
	}

	now := time.Now()
	s.current.State = session.StateCompleted
	s.current.Remaining = 0
	s.current.EndedAt = now
	rec := s.current.Finalize(true, now)

	if rec.Kind == session.KindFocus {
		s.focusCompleted++
	}
	next := s.proposeNextLocked(rec.Kind)
	autoAdvance := s.cfg.AutoAdvance
	label := ""
	if next == session.KindFocus {
		label = s.lastFocusLabel
	}
	s.countdown = nil
	s.mu.Unlock()

	s.logger.Info().
		Str("session_id", rec.ID).
		Str("kind", string(rec.Kind)).
		Str("next", string(next)).
		Msg("Session completed")

	err := s.record(rec)
	s.bus.PublishEnded(events.Ended{Record: rec, Next: next, Err: err})

	if autoAdvance {
		if _, startErr := s.Start(next, label); startErr != nil {
			s.logger.Error().Err(startErr).Str("kind", string(next)).Msg("Auto-advance failed")
		}
	}
}

// proposeNextLocked applies the sequencing policy: every Nth completed focus
// session earns a long break, other focus completions a short break, and any
// break completion proposes focus.
func (s *Scheduler) proposeNextLocked(finished session.Kind) session.Kind {
	if finished.IsBreak() {
		return session.KindFocus
	}
	if s.focusCompleted > 0 && s.focusCompleted%s.cfg.SessionsUntilLongBreak == 0 {
		return session.KindLongBreak
	}
	return session.KindShortBreak
}

// record hands the finalized record to every sink. Sink errors are joined;
// a failing sink never prevents delivery to the others.
func (s *Scheduler) record(rec session.Record) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Record(rec); err != nil {
			s.logger.Error().Err(err).Str("session_id", rec.ID).Msg("Record sink failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
