// Population dynamics: cohort advance per clan from subsistence and the
// cluster disease load.
package engine

import (
	"log/slog"

	"github.com/talgya/tellsim/internal/demography"
	"github.com/talgya/tellsim/internal/social"
)

// advancePopulation ages every clan of a settlement by one turn and
// refreshes the settlement's population.
func (w *World) advancePopulation(s *social.Settlement, cl *social.Cluster) error {
	for _, c := range w.Registry.ClansOf(s.ID) {
		change, err := demography.Advance(w.Rand, w.Params.Demography, c.Cohorts, c.Subsistence, cl.DiseaseLoad)
		if err != nil {
			return w.fail(PhasePopulation, s.ID, c.ID, err)
		}
		c.Cohorts = change.After
		c.LastChange = change
		w.stats.Births += change.Births
		w.stats.Deaths += change.Deaths() + change.ElderExits

		slog.Debug("population advance",
			"clan", c.Name,
			"before", change.Before.Total(),
			"after", change.After.Total(),
			"subsistence", c.Subsistence,
		)
	}
	w.Registry.RefreshPopulation(s.ID)
	return nil
}
