// Turn orchestration: one call to Step advances the world by one turn and
// appends a snapshot to the timeline.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/tellsim/internal/social"
)

// turnSetter is implemented by note sinks that stamp notes with the turn.
type turnSetter interface {
	SetTurn(turn int)
}

// Step runs one turn. On error the turn is aborted with a *TurnError and
// no snapshot is recorded.
func (w *World) Step() (Snapshot, error) {
	start := time.Now()
	w.Clock.Advance()
	w.stats = TurnStats{}
	if ts, ok := w.Notes.(turnSetter); ok {
		ts.SetTurn(w.Clock.Turn)
	}

	if err := w.runTurn(); err != nil {
		var te *TurnError
		phase := "unknown"
		if errors.As(err, &te) {
			phase = te.Phase
		}
		turnFailures.WithLabelValues(phase).Inc()
		slog.Error("turn aborted", "turn", w.Clock.Turn, "error", err)
		return Snapshot{}, err
	}

	w.recordTurn(time.Since(start).Seconds())
	snap := w.Snapshot()
	w.Timeline = append(w.Timeline, snap)

	slog.Info("turn complete",
		"turn", w.Clock.Turn,
		"year", FormatYear(snap.Year),
		"population", snap.Population,
		"clans", len(snap.Clans),
		"births", w.stats.Births,
		"deaths", w.stats.Deaths,
		"migrations", w.stats.Migrations,
	)
	return snap, nil
}

func (w *World) runTurn() error {
	w.updateAttitudes()
	w.processLeadership()
	if err := w.processDecisions(); err != nil {
		return err
	}

	for _, cl := range w.Registry.Clusters() {
		if err := w.runCluster(cl); err != nil {
			return err
		}
	}

	for _, s := range w.Registry.LiveSettlements() {
		if err := w.processClanLifecycle(s); err != nil {
			return err
		}
	}

	if err := w.evaluateMigration(); err != nil {
		return err
	}
	if err := w.executeMigration(); err != nil {
		return err
	}

	if n := w.pruneViews(); n > 0 {
		slog.Debug("views pruned", "count", n)
	}
	if n := w.seedViews(); n > 0 {
		slog.Debug("views seeded", "count", n)
	}
	w.processAbandonment()

	if err := w.Registry.CheckInvariants(); err != nil {
		return w.fail(PhaseInvariants, 0, 0, err)
	}
	return nil
}

// runCluster computes the cluster's shared state, then runs the settlement
// pipeline phase-major: every settlement finishes a phase before any
// starts the next.
func (w *World) runCluster(cl *social.Cluster) error {
	w.prepareCluster(cl)
	setts := w.Registry.SettlementsOf(cl.ID)
	each := func(f func(s *social.Settlement)) {
		for _, s := range setts {
			f(s)
		}
	}

	each(func(s *social.Settlement) { w.resetEconomy(s, cl) })
	each(w.maintainDitches)
	each(w.produce)
	each(w.distribute)
	w.exchange(cl)
	each(func(s *social.Settlement) { w.performRites(s) })
	each(w.consume)
	each(func(s *social.Settlement) {
		for _, c := range w.Registry.ClansOf(s.ID) {
			c.CommitTraits()
			c.Rebuilt = false
		}
	})
	each(func(s *social.Settlement) {
		for _, c := range w.Registry.ClansOf(s.ID) {
			c.AdvanceSeniority()
		}
	})
	if err := w.marry(cl); err != nil {
		return err
	}
	for _, s := range setts {
		if err := w.advancePopulation(s, cl); err != nil {
			return err
		}
	}
	each(func(s *social.Settlement) { s.GrowTell(w.Clock.YearsPerTurn) })
	return nil
}

// Run advances n turns, stopping at the first error.
func (w *World) Run(n int) error {
	for i := 0; i < n; i++ {
		if _, err := w.Step(); err != nil {
			return fmt.Errorf("run: %w", err)
		}
	}
	return nil
}
