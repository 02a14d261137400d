// Package engine provides the turn pipeline and the loop that drives it.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// Engine drives a world forward one turn at a time.
type Engine struct {
	World    *World
	Interval time.Duration // pause between turns; 0 runs flat out

	// OnTurn is called with every completed turn's snapshot. An error
	// stops the loop.
	OnTurn func(snap Snapshot) error

	stopped atomic.Bool
}

// NewEngine creates an engine for w with no pacing.
func NewEngine(w *World) *Engine {
	return &Engine{World: w}
}

// Run advances up to turns turns (0 means until stopped or cancelled).
// It returns the first turn or callback error; a stop or cancellation
// ends the loop cleanly after the turn in progress.
func (e *Engine) Run(ctx context.Context, turns int) error {
	e.stopped.Store(false)
	slog.Info("simulation engine started", "turn", e.World.Clock.Turn, "limit", turns, "run_id", e.World.RunID)

	for done := 0; turns == 0 || done < turns; done++ {
		if e.stopped.Load() || ctx.Err() != nil {
			break
		}
		start := time.Now()

		snap, err := e.World.Step()
		if err != nil {
			return err
		}
		if e.OnTurn != nil {
			if err := e.OnTurn(snap); err != nil {
				return fmt.Errorf("turn %d callback: %w", snap.Turn, err)
			}
		}

		if elapsed := time.Since(start); elapsed < e.Interval {
			select {
			case <-ctx.Done():
			case <-time.After(e.Interval - elapsed):
			}
		}
	}

	slog.Info("simulation engine stopped", "turn", e.World.Clock.Turn, "year", FormatYear(e.World.Clock.Year()))
	return nil
}

// Stop halts the loop after the turn in progress.
func (e *Engine) Stop() {
	e.stopped.Store(true)
}
