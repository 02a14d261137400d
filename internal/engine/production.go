// Production and consumption: cluster commons, economic reset, ditching,
// production by skill node, per-capita distribution and consumption.
package engine

import (
	"github.com/talgya/tellsim/internal/econ"
	"github.com/talgya/tellsim/internal/social"
)

// fishingSlot is the plan index of the fishing skill.
const fishingSlot = 1

// workers is a clan's labor headcount for a plan slot.
func workers(c *social.Clan, slot int) float64 {
	return econ.Workforce(c.Cohorts) * c.Labor.Share(slot)
}

// prepareCluster computes the state every settlement of a cluster shares:
// flood level, disease load and the fishing commons with its cluster-wide
// worker count.
func (w *World) prepareCluster(cl *social.Cluster) {
	cl.FloodLevel = w.floodLevel(cl.ID)
	cl.FishingCommons, cl.FishWorkers, cl.Population = 0, 0, 0
	for _, s := range w.Registry.SettlementsOf(cl.ID) {
		s.Flood = cl.FloodLevel
		cl.FishingCommons += s.Land.Fish
		cl.Population += s.Population
		for _, c := range w.Registry.ClansOf(s.ID) {
			cl.FishWorkers += workers(c, fishingSlot)
		}
	}
	cl.DiseaseLoad = social.Disease(cl.Population, w.Clock.YearsElapsed())
}

// resetEconomy clears last turn's ledgers and sizes each node's land. The
// fishing node gets the settlement's share of the cluster commons.
func (w *World) resetEconomy(s *social.Settlement, cl *social.Cluster) {
	local := 0.0
	for _, c := range w.Registry.ClansOf(s.ID) {
		c.Ledger.Reset()
		clear(c.TradeLinks)
		c.Productivity = c.Productivity[:0]
		local += workers(c, fishingSlot)
	}
	s.Distribution.Reset()
	for i, skill := range econ.Discretionary {
		land := s.LandFor(skill)
		if skill == econ.Fishing {
			land = econ.CommonsShare(cl.FishingCommons, local, cl.FishWorkers)
		}
		s.Production[i].Reset(land)
	}
}

// maintainDitches applies the irrigation labor reserved this turn.
func (w *World) maintainDitches(s *social.Settlement) {
	irrigation := 0.0
	for _, c := range w.Registry.ClansOf(s.ID) {
		irrigation += econ.Workforce(c.Cohorts) * c.Labor.Irrigation
	}
	s.Ditch.Maintain(s.Population, irrigation)
}

// produce registers every clan's workers at its TFP and runs the nodes.
func (w *World) produce(s *social.Settlement) {
	for _, c := range w.Registry.ClansOf(s.ID) {
		for i, skill := range econ.Discretionary {
			tfp := econ.ComputeTFP(skill, c.Skills.Get(skill), c.Traits, s.Flood, s.Ditch.Quality)
			c.Productivity = append(c.Productivity, tfp)
			s.Production[i].AddWorkers(c.ID, workers(c, i), tfp.Value)
		}
	}
	for i, skill := range econ.Discretionary {
		out := s.Production[i].Produce()
		g, _ := econ.GoodFor(skill)
		s.Distribution.Collect(g, out)
	}
}

// distribute hands the pooled output to clans by population share.
func (w *World) distribute(s *social.Settlement) {
	clans := w.Registry.ClansOf(s.ID)
	pops := make([]int, len(clans))
	for i, c := range clans {
		pops[i] = c.Population()
	}
	shares := s.Distribution.Distribute(pops)
	for i, c := range clans {
		for g, amount := range shares[i] {
			if amount != 0 {
				c.Ledger.Add(econ.Good(g), econ.SourceCommons, amount)
			}
		}
	}
}

// consume turns the ledger into subsistence and happiness, stages skill
// learning from the labor plan, and lets long-settled content clans take
// the settled trait.
func (w *World) consume(s *social.Settlement) {
	for _, c := range w.Registry.ClansOf(s.ID) {
		pop := c.Population()
		c.Subsistence = econ.Subsistence(c.Ledger.Food(), pop)
		crafts := 0.0
		if pop > 0 {
			crafts = c.Ledger.Total(econ.Crafts) / float64(pop)
		}
		c.Happiness = econ.Happiness(c.Subsistence, c.Housing, s.Rites.Quality, crafts)
		c.Skills.LearnByDoing(c.Labor.Plan)
		if c.Seniority >= social.MaxSeniority && c.Happiness.Value > 0 && !c.Traits.Has(econ.Settled) {
			c.StageTraits(c.Traits.With(econ.Settled))
		}
	}
}
