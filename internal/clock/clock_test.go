package clock

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestCountdownRunsToExpiry(t *testing.T) {
	cd := NewCountdown(10*time.Millisecond, zerolog.Nop())

	var (
		mu        sync.Mutex
		remaining []time.Duration
		expired   bool
	)

	cd.Run(50*time.Millisecond,
		func(r time.Duration) {
			mu.Lock()
			remaining = append(remaining, r)
			mu.Unlock()
		},
		func() {
			mu.Lock()
			expired = true
			mu.Unlock()
		},
	)

	mu.Lock()
	defer mu.Unlock()

	if !expired {
		t.Fatal("expected expiry callback to fire")
	}
	if len(remaining) == 0 {
		t.Fatal("expected at least one tick")
	}
	for i := 1; i < len(remaining); i++ {
		if remaining[i] >= remaining[i-1] {
			t.Fatalf("remaining not strictly decreasing: %v", remaining)
		}
	}
	if remaining[len(remaining)-1] != 0 {
		t.Fatalf("expected final tick at zero, got %s", remaining[len(remaining)-1])
	}
}

func TestCountdownStopPreventsExpiry(t *testing.T) {
	cd := NewCountdown(10*time.Millisecond, zerolog.Nop())

	var (
		mu      sync.Mutex
		expired bool
	)
	done := make(chan struct{})

	go func() {
		cd.Run(time.Hour,
			func(time.Duration) {},
			func() {
				mu.Lock()
				expired = true
				mu.Unlock()
			},
		)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cd.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}

	mu.Lock()
	defer mu.Unlock()
	if expired {
		t.Fatal("expiry callback fired on a stopped countdown")
	}
}

func TestCountdownStopIdempotent(t *testing.T) {
	cd := NewCountdown(10*time.Millisecond, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		cd.Run(time.Hour, func(time.Duration) {}, func() {})
		close(done)
	}()

	cd.Stop()
	cd.Stop()
	cd.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after repeated Stop calls")
	}
}

func TestCountdownRecoversTickPanic(t *testing.T) {
	cd := NewCountdown(5*time.Millisecond, zerolog.Nop())

	var (
		mu      sync.Mutex
		expired bool
	)

	cd.Run(20*time.Millisecond,
		func(time.Duration) { panic("tick handler blew up") },
		func() {
			mu.Lock()
			expired = true
			mu.Unlock()
		},
	)

	mu.Lock()
	defer mu.Unlock()
	if !expired {
		t.Fatal("expected countdown to survive a panicking tick handler")
	}
}

func TestCountdownAbsorbsSlowTicks(t *testing.T) {
	cd := NewCountdown(5*time.Millisecond, zerolog.Nop())

	var (
		mu    sync.Mutex
		ticks int
	)
	start := time.Now()

	cd.Run(50*time.Millisecond,
		func(time.Duration) {
			mu.Lock()
			ticks++
			mu.Unlock()
			// Each handler overruns the interval; the countdown must still
			// finish near the planned duration instead of accumulating lag.
			time.Sleep(7 * time.Millisecond)
		},
		func() {},
	)

	elapsed := time.Since(start)

	mu.Lock()
	defer mu.Unlock()
	if ticks == 0 {
		t.Fatal("expected ticks")
	}
	if elapsed > 150*time.Millisecond {
		t.Fatalf("countdown drifted too far: %s elapsed for 50ms planned", elapsed)
	}
}
