// Kin relationships across a cluster: food exchange between parent and
// cadet clans, and marriage out of the young-adult cohort.
package engine

import (
	"fmt"
	"math"

	"github.com/talgya/tellsim/internal/demography"
	"github.com/talgya/tellsim/internal/econ"
	"github.com/talgya/tellsim/internal/social"
)

// Exchange and marriage constants.
const (
	ExchangeGap       = 0.10 // giver must exceed receiver food per capita by this ratio
	ExchangeShare     = 0.10 // share of the per-capita gap given per receiver head
	ExchangeCap       = 0.25 // max share of own food given to one receiver
	MarriageRate      = 0.2  // share of young women marrying out per turn
	CoResidentBonus   = 2.0  // marriage weight multiplier within a settlement
	RelatednessDecay  = 0.5
	RelatednessGrowth = 1.0
)

// clusterClans lists a cluster's clans, settlements in membership order and
// clans in residence order.
func (w *World) clusterClans(cl *social.Cluster) []*social.Clan {
	var out []*social.Clan
	for _, s := range w.Registry.SettlementsOf(cl.ID) {
		out = append(out, w.Registry.ClansOf(s.ID)...)
	}
	return out
}

// kin returns a clan's parent and cadets that live in the same cluster.
func kin(c *social.Clan, byID map[int]*social.Clan) []*social.Clan {
	var out []*social.Clan
	if p, ok := byID[c.Parent]; ok {
		out = append(out, p)
	}
	for _, id := range c.Cadets {
		if k, ok := byID[id]; ok {
			out = append(out, k)
		}
	}
	return out
}

// exchange lets better-fed clans gift food to hungrier kin anywhere in the
// cluster. Gifts come out of each food good in proportion to the giver's
// holdings and are recorded under the exchange source on both sides.
func (w *World) exchange(cl *social.Cluster) {
	clans := w.clusterClans(cl)
	byID := make(map[int]*social.Clan, len(clans))
	for _, c := range clans {
		byID[c.ID] = c
	}
	for _, giver := range clans {
		for _, recv := range kin(giver, byID) {
			gfpc, rfpc := giver.FoodPerCapita(), recv.FoodPerCapita()
			if recv.Population() == 0 || gfpc <= rfpc*(1+ExchangeGap) {
				continue
			}
			food := giver.Ledger.Food()
			gift := math.Min(ExchangeShare*(gfpc-rfpc)*float64(recv.Population()), ExchangeCap*food)
			if gift <= 0 {
				continue
			}
			for g := econ.Good(0); g < econ.NumGoods; g++ {
				if !g.IsFood() {
					continue
				}
				part := gift * giver.Ledger.Total(g) / food
				if part <= 0 {
					continue
				}
				giver.Ledger.Add(g, econ.SourceExchange, -part)
				recv.Ledger.Add(g, econ.SourceExchange, part)
			}
			giver.TradeLinks[recv.ID] += gift
			recv.TradeLinks[giver.ID] -= gift
		}
	}
}

// marry sends a share of each clan's young women to one partner clan in
// the cluster, chosen by weighted index over 1.02^alignment (doubled for
// co-residents). Relatedness first decays, then grows on both sides by
// the brides relative to the partner's size. One draw per marrying clan.
func (w *World) marry(cl *social.Cluster) error {
	clans := w.clusterClans(cl)
	for _, c := range clans {
		for id, v := range c.Relatedness {
			if v *= RelatednessDecay; v < 1e-4 {
				delete(c.Relatedness, id)
			} else {
				c.Relatedness[id] = v
			}
		}
	}

	touched := make(map[int]bool)
	for _, c := range clans {
		women := c.Cohorts.Get(1, demography.Female)
		n := int(math.Round(MarriageRate * float64(women)))
		if n == 0 {
			continue
		}
		var partners []*social.Clan
		var weights []float64
		for _, p := range clans {
			if p.ID == c.ID || p.Population() == 0 {
				continue
			}
			wt := prestigeWeight(w.Alignment.GetOr(c.ID, p.ID, NeutralView))
			if p.SettlementID == c.SettlementID {
				wt *= CoResidentBonus
			}
			partners = append(partners, p)
			weights = append(weights, wt)
		}
		if len(partners) == 0 {
			continue
		}
		i, err := w.Rand.WeightedIndex(weights)
		if err != nil {
			return w.fail(PhaseMarry, c.SettlementID, c.ID, fmt.Errorf("marriage: %w", err))
		}
		p := partners[i]
		c.Cohorts.Set(1, demography.Female, women-n)
		p.Cohorts.Set(1, demography.Female, p.Cohorts.Get(1, demography.Female)+n)

		ties := RelatednessGrowth * float64(n) / float64(p.Population())
		c.Relatedness[p.ID] = math.Min(1, c.Relatedness[p.ID]+ties)
		p.Relatedness[c.ID] = math.Min(1, p.Relatedness[c.ID]+ties)
		touched[c.SettlementID] = true
		touched[p.SettlementID] = true
	}
	for _, s := range w.Registry.SettlementsOf(cl.ID) {
		if touched[s.ID] {
			w.Registry.RefreshPopulation(s.ID)
		}
	}
	return nil
}
