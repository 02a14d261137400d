// Settlement lifecycle: clan splits, merges and pruning, founding of
// daughter settlements by migrating clans, and abandonment.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/tellsim/internal/rites"
	"github.com/talgya/tellsim/internal/social"
	"github.com/talgya/tellsim/internal/world"
)

// processClanLifecycle prunes empty clans, splits large ones and merges
// small ones in one settlement, keeping the attitude boards in step.
func (w *World) processClanLifecycle(s *social.Settlement) error {
	for _, id := range w.Registry.Prune(s.ID) {
		w.Prestige.Remove(id)
		w.Alignment.Remove(id)
		w.stats.Pruned++
	}

	cadets, err := w.Registry.SplitLarge(w.Rand, s.ID, w.Params.MaxClanSize, w.Clock.Turn, func(*social.Clan) string {
		return w.Spawner.Name()
	})
	if err != nil {
		return w.fail(PhaseLifecycle, s.ID, 0, err)
	}
	for _, cadet := range cadets {
		w.Prestige.Inherit(cadet.Parent, cadet.ID)
		w.Alignment.Inherit(cadet.Parent, cadet.ID)
		w.stats.Splits++
		if p, ok := w.Registry.Clan(cadet.Parent); ok {
			w.Notes.AddNote("split", fmt.Sprintf("The %s clan of %s divides; the %s go their own way", p.Name, s.Name, cadet.Name))
		}
	}

	merges, err := w.Registry.MergeSmall(s.ID, w.Params.MinClanSize)
	if err != nil {
		return w.fail(PhaseLifecycle, s.ID, 0, err)
	}
	for _, m := range merges {
		w.Prestige.Remove(m.Absorbed)
		w.Alignment.Remove(m.Absorbed)
		w.stats.Merges++
		slog.Debug("clan absorbed", "settlement", s.Name, "absorber", m.Absorber, "absorbed", m.Absorbed)
	}
	return nil
}

// NewSettlementSupplier founds at most one daughter settlement per source
// settlement per turn, so every clan leaving the same source for a new
// settlement co-founds the same one.
type NewSettlementSupplier struct {
	w       *World
	source  *social.Settlement
	founded *social.Settlement
	failed  bool
}

// SupplierFor creates the new-settlement supplier for a source settlement.
func (w *World) SupplierFor(source *social.Settlement) *NewSettlementSupplier {
	return &NewSettlementSupplier{w: w, source: source}
}

// Get returns the daughter settlement, founding it on first use. It
// reports false when the cluster's placement policy finds no free site.
func (n *NewSettlementSupplier) Get() (*social.Settlement, bool, error) {
	if n.founded != nil {
		return n.founded, true, nil
	}
	if n.failed {
		return nil, false, nil
	}
	s, ok, err := n.w.foundSettlement(n.source)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		n.failed = true
		return nil, false, nil
	}
	n.founded = s
	return s, true, nil
}

// Founded returns the settlement founded by this supplier, if any.
func (n *NewSettlementSupplier) Founded() (*social.Settlement, bool) {
	return n.founded, n.founded != nil
}

// foundSettlement places a daughter of source in the same cluster.
func (w *World) foundSettlement(source *social.Settlement) (*social.Settlement, bool, error) {
	cl, ok := w.Registry.Cluster(source.ClusterID)
	if !ok {
		return nil, false, fmt.Errorf("settlement %d: unknown cluster %d: %w", source.ID, source.ClusterID, social.ErrInvariant)
	}
	site, ok := cl.DaughterSite(w.Map, source.Position, w.occupiedSites())
	if !ok {
		return nil, false, nil
	}

	s := social.NewSettlement(w.Registry.NextSettlementID(), w.settlementName(), site, cl.ID, w.Map.CatchmentOf(site))
	s.Parent = source.ID
	s.Founded = w.Clock.Turn
	s.Rites = rites.New(source.Rites.Policy)
	if err := w.Registry.AddSettlement(s); err != nil {
		return nil, false, err
	}
	source.Daughters = append(source.Daughters, s.ID)
	if hex := w.Map.Get(site); hex != nil {
		id := s.ID
		hex.SettlementID = &id
	}
	w.stats.Foundings++
	w.Notes.AddNote("founding", fmt.Sprintf("Clans from %s found %s", source.Name, s.Name))
	slog.Info("settlement founded",
		"name", s.Name,
		"parent", source.Name,
		"q", site.Q,
		"r", site.R,
		"turn", w.Clock.Turn,
	)
	return s, true, nil
}

// occupiedSites lists the positions of every live settlement.
func (w *World) occupiedSites() []world.HexCoord {
	var out []world.HexCoord
	for _, s := range w.Registry.LiveSettlements() {
		out = append(out, s.Position)
	}
	return out
}

// processAbandonment marks settlements left without clans as abandoned.
// The tell remains on the map.
func (w *World) processAbandonment() {
	for _, s := range w.Registry.LiveSettlements() {
		if len(s.Clans) > 0 {
			continue
		}
		s.Abandoned = true
		s.LeaderID = nil
		if w.Map != nil {
			if hex := w.Map.Get(s.Position); hex != nil {
				hex.SettlementID = nil
			}
		}
		w.stats.Abandonments++
		w.Notes.AddNote("abandonment", fmt.Sprintf("%s is abandoned, leaving a tell %.1f m high", s.Name, s.TellHeight))
		slog.Info("settlement abandoned", "name", s.Name, "tell_height", s.TellHeight, "turn", w.Clock.Turn)
	}
}
