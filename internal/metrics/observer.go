package metrics

import (
	"focusd/internal/events"
)

// Observer updates the Prometheus collectors from session events. Attach it
// to the event bus with Subscribe(observer.OnTick, observer.OnEnded).
type Observer struct{}

// NewObserver creates a metrics observer.
func NewObserver() *Observer {
	return &Observer{}
}

// OnTick records a countdown tick.
func (o *Observer) OnTick(evt events.Tick) {
	TicksTotal.Inc()
	SessionRemaining.Set(evt.Remaining.Seconds())
}

// OnEnded records a finished session.
func (o *Observer) OnEnded(evt events.Ended) {
	kind := string(evt.Record.Kind)
	if evt.Record.Completed {
		SessionsCompleted.WithLabelValues(kind).Inc()
	} else {
		SessionsInterrupted.WithLabelValues(kind).Inc()
	}
	SessionSeconds.WithLabelValues(kind).Add(float64(evt.Record.ActualSeconds))
	SessionRemaining.Set(0)
	if evt.Err != nil {
		RecordWriteErrors.Inc()
	}
}
