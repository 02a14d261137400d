// Clan lifecycle: cadet splits, absorption of small clans, pruning of
// empty ones, and the kinship coefficient those links imply.
package social

import (
	"fmt"
	"math"
	"sort"

	"github.com/talgya/tellsim/internal/demography"
	"github.com/talgya/tellsim/internal/econ"
	"github.com/talgya/tellsim/internal/entropy"
)

// Lifecycle thresholds.
const (
	MaxClanSize      = 60
	MinClanSize      = 8
	SplitFractionMin = 0.3
	SplitFractionMax = 0.6
)

// Kinship is the kinship coefficient between two clans: 1 for self, 0.5
// for parent and cadet, 0.25 for cadets of the same parent.
func (r *Registry) Kinship(a, b int) float64 {
	if a == b {
		return 1
	}
	ca, ok1 := r.clans[a]
	cb, ok2 := r.clans[b]
	if !ok1 || !ok2 {
		return 0
	}
	switch {
	case ca.Parent == b || cb.Parent == a:
		return 0.5
	case ca.Parent != NoClan && ca.Parent == cb.Parent:
		return 0.25
	}
	return 0
}

// Split moves a random 30-60% of each cohort of parent into a new cadet
// clan in the same settlement. The cadet copies skills, traits, housing and
// plan, takes the matching share of the ledger, and is linked to the parent.
// Draws one uniform per cohort slot.
func (r *Registry) Split(src entropy.Source, parent *Clan, cadetID int, name string, turn int) (*Clan, error) {
	before := parent.Population()
	if before == 0 {
		return nil, fmt.Errorf("split clan %d: empty clan: %w", parent.ID, ErrInvariant)
	}

	var moved demography.Cohorts
	for i, n := range parent.Cohorts {
		f := entropy.Range(src, SplitFractionMin, SplitFractionMax)
		moved[i] = int(math.Round(float64(n) * f))
	}
	parent.Cohorts = parent.Cohorts.Sub(moved)

	cadet := NewClan(cadetID, name)
	cadet.Cohorts = moved
	cadet.Skills = econ.Skills{Level: parent.Skills.Level}
	cadet.Traits = parent.Traits
	cadet.Housing = parent.Housing
	cadet.Labor = econ.Labor{Plan: parent.Labor.Plan}
	cadet.Ledger = parent.Ledger.Split(float64(moved.Total()) / float64(before))
	cadet.Parent = parent.ID
	cadet.SettlementID = parent.SettlementID
	cadet.Seniority = parent.Seniority
	cadet.Founded = turn
	for id, v := range parent.Relatedness {
		cadet.Relatedness[id] = v
	}
	parent.Cadets = append(parent.Cadets, cadetID)

	if err := r.AddClan(cadet, parent.ID); err != nil {
		return nil, err
	}
	r.RefreshPopulation(parent.SettlementID)
	return cadet, nil
}

// SplitLarge splits every clan of a settlement above maxSize until none
// remain. names supplies cadet names.
func (r *Registry) SplitLarge(src entropy.Source, settlementID, maxSize, turn int, names func(parent *Clan) string) ([]*Clan, error) {
	var cadets []*Clan
	for _, c := range r.ClansOf(settlementID) {
		queue := []*Clan{c}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if cur.Population() <= maxSize {
				continue
			}
			cadet, err := r.Split(src, cur, r.NextClanID(), names(cur), turn)
			if err != nil {
				return cadets, err
			}
			cadets = append(cadets, cadet)
			queue = append(queue, cur, cadet)
		}
	}
	return cadets, nil
}

// Absorb folds absorbed into absorber: cohorts combine, skills are
// population-weighted, traits follow the larger clan, ledgers merge, and
// the absorbed clan's cadets are reparented to the absorber. The absorbed
// clan's own parent link is dropped.
func (r *Registry) Absorb(absorber, absorbed *Clan) error {
	if absorber.ID == absorbed.ID {
		return fmt.Errorf("clan %d absorbing itself: %w", absorber.ID, ErrInvariant)
	}
	if absorber.SettlementID != absorbed.SettlementID {
		return fmt.Errorf("absorb clan %d into %d across settlements: %w", absorbed.ID, absorber.ID, ErrInvariant)
	}
	wa, wb := float64(absorber.Population()), float64(absorbed.Population())

	r.RemoveClan(absorbed.ID)

	absorber.Skills = econ.BlendSkills(absorber.Skills, wa, absorbed.Skills, wb)
	if wb > wa {
		absorber.Traits = absorbed.Traits
	}
	absorber.Cohorts = absorber.Cohorts.Add(absorbed.Cohorts)
	absorber.Ledger.Merge(absorbed.Ledger)
	for id, v := range absorbed.Relatedness {
		if id != absorber.ID {
			absorber.Relatedness[id] = math.Max(absorber.Relatedness[id], v)
		}
	}
	delete(absorber.Relatedness, absorbed.ID)

	if p, ok := r.clans[absorbed.Parent]; ok {
		p.removeCadet(absorbed.ID)
	}
	absorber.removeCadet(absorbed.ID)
	if absorber.Parent == absorbed.ID {
		absorber.Parent = NoClan
	}
	for _, cid := range absorbed.Cadets {
		cadet, ok := r.clans[cid]
		if !ok || cid == absorber.ID {
			continue
		}
		cadet.Parent = absorber.ID
		if !absorber.HasCadet(cid) {
			absorber.Cadets = append(absorber.Cadets, cid)
		}
	}
	for _, other := range r.clans {
		delete(other.Relatedness, absorbed.ID)
		delete(other.TradeLinks, absorbed.ID)
	}

	r.RefreshPopulation(absorber.SettlementID)
	return nil
}

// Merge records one absorption.
type Merge struct {
	Absorber int `json:"absorber"`
	Absorbed int `json:"absorbed"`
}

// MergeSmall repeatedly folds the smallest clan of a settlement into the
// second smallest while the smallest is below minSize. Ties order by id.
func (r *Registry) MergeSmall(settlementID, minSize int) ([]Merge, error) {
	var merges []Merge
	for {
		clans := r.ClansOf(settlementID)
		if len(clans) < 2 {
			return merges, nil
		}
		sort.SliceStable(clans, func(i, j int) bool {
			pi, pj := clans[i].Population(), clans[j].Population()
			if pi != pj {
				return pi < pj
			}
			return clans[i].ID < clans[j].ID
		})
		smallest, next := clans[0], clans[1]
		if smallest.Population() >= minSize {
			return merges, nil
		}
		if err := r.Absorb(next, smallest); err != nil {
			return merges, err
		}
		merges = append(merges, Merge{Absorber: next.ID, Absorbed: smallest.ID})
	}
}

// Prune removes every clan of a settlement whose population is zero and
// unlinks it from its kin. Returns the removed ids.
func (r *Registry) Prune(settlementID int) []int {
	var removed []int
	for _, c := range r.ClansOf(settlementID) {
		if c.Population() > 0 {
			continue
		}
		if p, ok := r.clans[c.Parent]; ok {
			p.removeCadet(c.ID)
		}
		for _, cid := range c.Cadets {
			if cadet, ok := r.clans[cid]; ok && cadet.Parent == c.ID {
				cadet.Parent = NoClan
			}
		}
		r.RemoveClan(c.ID)
		for _, other := range r.clans {
			delete(other.Relatedness, c.ID)
			delete(other.TradeLinks, c.ID)
		}
		removed = append(removed, c.ID)
	}
	return removed
}
