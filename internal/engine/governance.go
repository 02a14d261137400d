// Governance: Condorcet leadership from prestige ballots and the rites
// each settlement performs under its leadership policy.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/tellsim/internal/attitude"
	"github.com/talgya/tellsim/internal/econ"
	"github.com/talgya/tellsim/internal/rites"
	"github.com/talgya/tellsim/internal/social"
)

// Leader infers a settlement's Condorcet leader from its clans' committed
// prestige views. The result reports Found false on cycles.
func (w *World) Leader(s *social.Settlement) attitude.CondorcetResult[int] {
	return attitude.Condorcet(s.Clans, func(voter, candidate int) (float64, bool) {
		return w.Prestige.Get(voter, candidate)
	})
}

// processLeadership refreshes every settlement's leader and notes changes.
func (w *World) processLeadership() {
	for _, s := range w.Registry.LiveSettlements() {
		res := w.Leader(s)
		prev := s.LeaderID
		if !res.Found {
			s.LeaderID = nil
			if prev != nil {
				slog.Debug("leadership lapses", "settlement", s.Name, "turn", w.Clock.Turn)
			}
			continue
		}
		id := res.Leader
		s.LeaderID = &id
		if prev == nil || *prev != id {
			name := fmt.Sprintf("clan %d", id)
			if c, ok := w.Registry.Clan(id); ok {
				name = c.Name
			}
			w.Notes.AddNote("leader", fmt.Sprintf("%s is recognized as first among the clans of %s", name, s.Name))
			slog.Info("new leader", "settlement", s.Name, "clan", name, "turn", w.Clock.Turn)
		}
	}
}

// performRites runs one settlement's rites: every clan takes part with its
// ritual effectiveness and its mean prestige among co-residents. Quality
// feeds the ritual skill, then the policy may drift.
func (w *World) performRites(s *social.Settlement) float64 {
	clans := w.Registry.ClansOf(s.ID)
	ps := make([]rites.Participant, len(clans))
	for i, c := range clans {
		ps[i] = rites.Participant{
			ClanID:        c.ID,
			Effectiveness: ritualEffectiveness(c),
			Prestige:      w.meanPrestige(c),
		}
	}
	q := s.Rites.Perform(ps)
	for _, c := range clans {
		c.Skills.Learn(econ.Ritual, econ.LearningRate*(q-1))
	}
	observeRites(q)
	s.Rites.DriftBy(w.Rand, w.Notes, s.Name, w.Params.DriftUp, w.Params.DriftDown)
	return q
}
