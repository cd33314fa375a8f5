package ledger

import (
	"context"
	"time"

	"focusd/internal/storage"
	"github.com/rs/zerolog"
)

// Rollover resets the daily aggregate at a configured time of day and prunes
// stored records past the retention window. The ledger itself is
// day-agnostic; this is the collaborator that decides day boundaries.
type Rollover struct {
	ledger        *Ledger
	records       storage.RecordStore
	resetTime     time.Time // only hour and minute are used
	retentionDays int
	logger        zerolog.Logger
	stopCh        chan struct{}
}

// NewRollover creates a rollover scheduler. resetTime is "HH:MM"; records
// may be nil when no store is configured.
func NewRollover(l *Ledger, records storage.RecordStore, resetTime string, retentionDays int, logger zerolog.Logger) (*Rollover, error) {
	parsed, err := time.Parse("15:04", resetTime)
	if err != nil {
		return nil, err
	}
	return &Rollover{
		ledger:        l,
		records:       records,
		resetTime:     parsed,
		retentionDays: retentionDays,
		logger:        logger.With().Str("component", "rollover").Logger(),
		stopCh:        make(chan struct{}),
	}, nil
}

// Start begins the rollover loop on its own goroutine.
func (r *Rollover) Start() {
	go r.run()
	r.logger.Info().
		Str("reset_time", r.resetTime.Format("15:04")).
		Int("retention_days", r.retentionDays).
		Msg("Day rollover scheduler started")
}

// Stop terminates the rollover loop.
func (r *Rollover) Stop() {
	close(r.stopCh)
	r.logger.Info().Msg("Day rollover scheduler stopped")
}

func (r *Rollover) run() {
	for {
		next := r.nextReset(time.Now())
		wait := time.Until(next)

		r.logger.Debug().Time("next_reset", next).Dur("wait", wait).Msg("Scheduled next day rollover")

		select {
		case <-time.After(wait):
			r.perform()
		case <-r.stopCh:
			return
		}
	}
}

func (r *Rollover) nextReset(now time.Time) time.Time {
	today := time.Date(
		now.Year(), now.Month(), now.Day(),
		r.resetTime.Hour(), r.resetTime.Minute(), 0, 0,
		now.Location(),
	)
	if now.After(today) {
		return today.AddDate(0, 0, 1)
	}
	return today
}

func (r *Rollover) perform() {
	r.ledger.ResetDay()
	r.logger.Info().Msg("Daily stats reset")

	if r.records == nil || r.retentionDays <= 0 {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -r.retentionDays)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := r.records.DeleteBefore(ctx, cutoff)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to prune old session records")
		return
	}
	r.logger.Info().
		Int("records_deleted", deleted).
		Time("cutoff", cutoff).
		Msg("Old session records pruned")
}
