package engine

import (
	"context"
	"log/slog"
	"time"
)

// Ticker drives negotiation cycles on a fixed interval while the server is
// up. One cycle per tick; a cycle already in flight finishes before the
// ticker observes a stop.
type Ticker struct {
	Orch     *Orchestrator
	Interval time.Duration // Base interval between cycles
	Speed    float64       // Multiplier: 1.0 = normal, 0 = paused

	Tick    uint64 // Cycles fired so far (monotonic)
	running bool
	stop    chan struct{}
}

// NewTicker creates a cycle ticker with default settings.
func NewTicker(orch *Orchestrator, interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Ticker{
		Orch:     orch,
		Interval: interval,
		Speed:    1.0,
		stop:     make(chan struct{}),
	}
}

// Run fires cycles until Stop is called or the context is canceled. Blocks.
func (t *Ticker) Run(ctx context.Context) {
	t.running = true
	slog.Info("cycle ticker started", "interval", t.Interval, "speed", t.Speed)

	for t.running {
		if t.Speed <= 0 {
			// Paused — check again shortly.
			select {
			case <-ctx.Done():
				t.running = false
			case <-t.stop:
				t.running = false
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		start := time.Now()
		t.Tick++
		t.Orch.RunCycle(ctx)

		elapsed := time.Since(start)
		target := time.Duration(float64(t.Interval) / t.Speed)
		var wait time.Duration
		if elapsed < target {
			wait = target - elapsed
		}
		select {
		case <-ctx.Done():
			t.running = false
		case <-t.stop:
			t.running = false
		case <-time.After(wait):
		}
	}

	slog.Info("cycle ticker stopped", "ticks", t.Tick)
}

// Stop halts the ticker after the current cycle resolves.
func (t *Ticker) Stop() {
	select {
	case <-t.stop:
	default:
		close(t.stop)
	}
}
