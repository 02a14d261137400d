// Migration: every clan evaluates its options against staying, then the
// chosen moves execute with one new-settlement supplier per source.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/tellsim/internal/migration"
	"github.com/talgya/tellsim/internal/social"
)

// options lists the destinations offered to a clan: every live settlement
// of its cluster and of adjacent clusters, then the synthetic new option.
func (w *World) options(c *social.Clan, cl *social.Cluster) []migration.Option {
	var out []migration.Option
	add := func(clusterID int, same bool) {
		for _, s := range w.Registry.SettlementsOf(clusterID) {
			out = append(out, migration.Option{
				SettlementID: s.ID,
				SameCluster:  same,
				Population:   s.Population,
				Social:       w.socialPull(c, w.Registry.ClansOf(s.ID)),
			})
		}
	}
	add(cl.ID, true)
	for _, adj := range cl.Adjacent {
		add(adj, false)
	}
	out = append(out, migration.Option{
		SettlementID: migration.NewSettlement,
		SameCluster:  true,
		Social:       NeutralView,
	})
	return out
}

// evaluateMigration decides every clan's plan for the turn, clans in id
// order. Populations are read before any move executes.
func (w *World) evaluateMigration() error {
	for _, c := range w.Registry.Clans() {
		cl, ok := w.Registry.ClusterOf(c)
		if !ok {
			return w.fail(PhaseMigration, c.SettlementID, c.ID, fmt.Errorf("clan without cluster: %w", social.ErrInvariant))
		}
		home := w.socialPull(c, w.Registry.ClansOf(c.SettlementID))
		plan, err := migration.Decide(w.Rand, w.Params.Migration, c.ID, c.SettlementID, c.Traits, home, w.options(c, cl))
		if err != nil {
			return w.fail(PhaseMigration, c.SettlementID, c.ID, err)
		}
		c.Plan = plan
	}
	return nil
}

// executeMigration carries out every planned move. Clans bound for a new
// settlement from the same source co-found one settlement; when no site is
// free they stay.
func (w *World) executeMigration() error {
	suppliers := make(map[int]*NewSettlementSupplier)
	for _, c := range w.Registry.Clans() {
		if !c.Plan.Move {
			continue
		}
		source, ok := w.Registry.Settlement(c.SettlementID)
		if !ok {
			return w.fail(PhaseMigration, c.SettlementID, c.ID, fmt.Errorf("unknown settlement: %w", social.ErrInvariant))
		}

		targetID := c.Plan.Target.SettlementID
		if c.Plan.Target.New() {
			sup, ok := suppliers[source.ID]
			if !ok {
				sup = w.SupplierFor(source)
				suppliers[source.ID] = sup
			}
			dst, ok, err := sup.Get()
			if err != nil {
				return w.fail(PhaseMigration, source.ID, c.ID, err)
			}
			if !ok {
				slog.Debug("no site for a new settlement", "clan", c.Name, "source", source.Name)
				c.Plan.Move = false
				continue
			}
			targetID = dst.ID
		}

		dst, ok := w.Registry.Settlement(targetID)
		if !ok || dst.Abandoned {
			return w.fail(PhaseMigration, source.ID, c.ID, fmt.Errorf("target settlement %d unavailable: %w", targetID, social.ErrInvariant))
		}
		if err := w.Registry.MoveClan(c.ID, dst.ID); err != nil {
			return w.fail(PhaseMigration, source.ID, c.ID, err)
		}
		c.Traits = c.Traits.AfterMove()
		c.Seniority = 0
		w.stats.Migrations++
		w.Notes.AddNote("migration", fmt.Sprintf("The %s leave %s for %s", c.Name, source.Name, dst.Name))
		slog.Debug("clan migrates", "clan", c.Name, "from", source.Name, "to", dst.Name)
	}
	for _, sup := range suppliers {
		if s, ok := sup.Founded(); ok {
			slog.Debug("founders settled", "settlement", s.Name, "parent", sup.source.Name, "clans", len(w.Registry.ClansOf(s.ID)))
		}
	}
	return nil
}
