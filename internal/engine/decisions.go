// Clan decisions taken before production: housing and the labor plan.
package engine

import (
	"github.com/talgya/tellsim/internal/econ"
	"github.com/talgya/tellsim/internal/social"
)

// decideHousing records a clan's housing choice, imitating a
// prestige-weighted co-resident or guessing the best type. The choice is
// applied by applyHousing once every clan has decided.
func (w *World) decideHousing(c *social.Clan, clans []*social.Clan) error {
	models := make([]econ.HousingModel, 0, len(clans))
	for _, m := range clans {
		if m.ID == c.ID {
			continue
		}
		models = append(models, econ.HousingModel{
			ClanID:   m.ID,
			Housing:  m.Housing,
			Prestige: w.Prestige.GetOr(c.ID, m.ID, NeutralView),
		})
	}
	d, err := econ.DecideHousing(w.Rand, c.Housing, c.Population(), models)
	if err != nil {
		return err
	}
	c.HousingDecision = d
	return nil
}

// applyHousing moves a clan into the housing it decided on.
func applyHousing(c *social.Clan) {
	c.Rebuilt = c.HousingDecision.Chosen != c.Housing
	c.Housing = c.HousingDecision.Chosen
}

// allocateLabor fixes the housing and irrigation reservations for the turn.
func (w *World) allocateLabor(c *social.Clan, s *social.Settlement) {
	workforce := econ.Workforce(c.Cohorts)
	c.Labor.Housing = econ.HousingReservation(c.Housing, c.Rebuilt, c.Population(), workforce, w.Clock.YearsPerTurn)
	c.Labor.Irrigation = 0
	if s.Ditch.Active {
		c.Labor.Irrigation = econ.IrrigationReservation
	}
}

// forecast estimates yields for experimentation from last turn's flood and
// ditch state.
func forecast(c *social.Clan, s *social.Settlement) econ.Forecast {
	f := econ.Forecast{
		Population:    c.Population(),
		Workforce:     econ.Workforce(c.Cohorts),
		Discretionary: c.Labor.Discretionary(),
	}
	for i, skill := range econ.Discretionary {
		tfp := econ.ComputeTFP(skill, c.Skills.Get(skill), c.Traits, s.Flood, s.Ditch.Quality)
		f.Yield[i] = econ.OutputPerWorker[i] * tfp.Value
	}
	return f
}

// processDecisions runs housing, labor reservations and plan
// experimentation for every clan, settlements in id order. Every clan
// decides its housing against last turn's dwellings before any decision
// is applied.
func (w *World) processDecisions() error {
	setts := w.Registry.LiveSettlements()
	for _, s := range setts {
		clans := w.Registry.ClansOf(s.ID)
		for _, c := range clans {
			if err := w.decideHousing(c, clans); err != nil {
				return w.fail(PhaseDecisions, s.ID, c.ID, err)
			}
		}
	}
	for _, s := range setts {
		for _, c := range w.Registry.ClansOf(s.ID) {
			applyHousing(c)
			w.allocateLabor(c, s)
			plan, ex := econ.ExperimentPlan(w.Rand, c.Labor.Plan, c.Happiness.Value, forecast(c, s))
			c.Labor.Plan = plan
			c.Experiment = ex
		}
	}
	return nil
}
