// Prestige and alignment updates: every clan recomputes its view of every
// co-resident, staged across the whole world before any is committed.
package engine

import (
	"math"

	"github.com/talgya/tellsim/internal/attitude"
	"github.com/talgya/tellsim/internal/calc"
	"github.com/talgya/tellsim/internal/demography"
	"github.com/talgya/tellsim/internal/econ"
	"github.com/talgya/tellsim/internal/social"
)

// NeutralView is the view assumed where none has been formed.
const NeutralView = 50.0

// standing gathers a clan's prestige inputs.
func standing(c *social.Clan) attitude.Standing {
	pop := c.Population()
	st := attitude.Standing{
		Seniority:       c.Seniority,
		HousingPrestige: c.Housing.Spec().Prestige,
		Population:      pop,
		Rites:           ritualEffectiveness(c),
	}
	if pop > 0 {
		men := c.Cohorts.Get(1, demography.Male) + c.Cohorts.Get(2, demography.Male)
		elders := c.Cohorts.Get(3, demography.Female) + c.Cohorts.Get(3, demography.Male)
		st.Strength = float64(men) / float64(pop) * c.Traits.StrengthMultiplier()
		st.Intelligence = float64(elders) / float64(pop)
	}
	for _, s := range econ.Discretionary {
		st.Skill += c.Skills.Get(s) / econ.NumDiscretionary
	}
	return st
}

// ritualEffectiveness is a clan's contribution to rites.
func ritualEffectiveness(c *social.Clan) float64 {
	return (0.5 + c.Skills.Get(econ.Ritual)) * c.Traits.RitualMultiplier()
}

// relationship classifies how subject knows object: kin or established
// co-residents are neighbors, everyone else is a stranger.
func (w *World) relationship(subject, object *social.Clan) attitude.Relationship {
	switch {
	case subject.ID == object.ID:
		return attitude.Self
	case w.Registry.Kinship(subject.ID, object.ID) > 0:
		return attitude.Neighbor
	case subject.Seniority > 0 && object.Seniority > 0:
		return attitude.Neighbor
	}
	return attitude.Stranger
}

// models lists the co-residents a subject may learn from, with its
// committed prestige view of each.
func (w *World) models(subject *social.Clan, clans []*social.Clan) []attitude.Model[int] {
	out := make([]attitude.Model[int], 0, len(clans))
	for _, m := range clans {
		if m.ID == subject.ID {
			continue
		}
		out = append(out, attitude.Model[int]{
			ID:       m.ID,
			Prestige: w.Prestige.GetOr(subject.ID, m.ID, NeutralView),
		})
	}
	return out
}

// updateAttitudes stages prestige and alignment for every co-resident pair
// in every settlement, then commits both boards. Settlements run in id
// order and pairs in residence order, one prestige then one alignment
// inference per pair.
func (w *World) updateAttitudes() {
	for _, s := range w.Registry.LiveSettlements() {
		clans := w.Registry.ClansOf(s.ID)
		if len(clans) == 0 {
			continue
		}
		standings := make([]attitude.Standing, len(clans))
		for i, c := range clans {
			standings[i] = standing(c)
		}
		avg := attitude.AverageOf(standings)

		for _, subject := range clans {
			models := w.models(subject, clans)
			for j, object := range clans {
				pi := attitude.InferPrestige(w.Rand, w.Params.Prestige, w.relationship(subject, object), standings[j], avg, s.Population)
				w.Prestige.StartUpdate(subject.ID, object.ID, pi, s.Population, models)

				ties := attitude.Ties{
					Self:          subject.ID == object.ID,
					Kinship:       w.Registry.Kinship(subject.ID, object.ID),
					Relatedness:   subject.Relatedness[object.ID],
					BothSeniors:   subject.Seniority > 0 && object.Seniority > 0,
					SettlementPop: s.Population,
				}
				ai := attitude.InferAlignment(w.Rand, w.Params.Alignment, ties)
				w.Alignment.StartUpdate(subject.ID, object.ID, ai, s.Population, models)
			}
		}
	}
	w.Prestige.Commit()
	w.Alignment.Commit()
}

// meanPrestige is the mean committed prestige view of a clan held by its
// co-residents, or NeutralView when nobody else holds one.
func (w *World) meanPrestige(c *social.Clan) float64 {
	sum, n := 0.0, 0
	for _, other := range w.Registry.ClansOf(c.SettlementID) {
		if other.ID == c.ID {
			continue
		}
		if v, ok := w.Prestige.Get(other.ID, c.ID); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return NeutralView
	}
	return sum / float64(n)
}

// socialPull is a clan's prestige-weighted mean alignment toward a set of
// clans, NeutralView for an empty set.
func (w *World) socialPull(c *social.Clan, residents []*social.Clan) float64 {
	var values, weights []float64
	for _, r := range residents {
		if r.ID == c.ID {
			continue
		}
		values = append(values, w.Alignment.GetOr(c.ID, r.ID, NeutralView))
		weights = append(weights, prestigeWeight(w.Prestige.GetOr(c.ID, r.ID, NeutralView)))
	}
	if len(values) == 0 {
		return NeutralView
	}
	return calc.WeightedMean(values, weights)
}

// prestigeWeight is the 1.02^prestige weight used wherever a clan defers to
// those it respects.
func prestigeWeight(prestige float64) float64 {
	return math.Pow(1.02, calc.Clamp(prestige, -200, 200))
}

// pruneViews drops every view between clans that no longer share a
// settlement or no longer exist.
func (w *World) pruneViews() int {
	keep := func(subject, object int) bool {
		return w.Registry.CoResident(subject, object)
	}
	return w.Prestige.Prune(keep) + w.Alignment.Prune(keep)
}

// seedViews gives every co-resident pair without a view a neutral one on
// both boards, so clans that arrived this turn hold and are held in views
// before the next update. Seeded views are not heritable.
func (w *World) seedViews() int {
	n := 0
	for _, s := range w.Registry.LiveSettlements() {
		clans := w.Registry.ClansOf(s.ID)
		for _, a := range clans {
			for _, b := range clans {
				if _, ok := w.Prestige.Get(a.ID, b.ID); !ok {
					w.Prestige.Seed(a.ID, b.ID, NeutralView)
					n++
				}
				if _, ok := w.Alignment.Get(a.ID, b.ID); !ok {
					w.Alignment.Seed(a.ID, b.ID, NeutralView)
					n++
				}
			}
		}
	}
	return n
}
