// Package migration evaluates where a clan might move each turn and picks a
// destination by softmax over utilities that beat staying home.
package migration

import (
	"fmt"
	"strings"

	"github.com/talgya/tellsim/internal/calc"
	"github.com/talgya/tellsim/internal/econ"
	"github.com/talgya/tellsim/internal/entropy"
)

// NewSettlement is the target id of the synthetic found-a-settlement option.
const NewSettlement = -1

// Params are the utility constants.
type Params struct {
	PopulationCap      int     // targets above this are ineligible
	SettledInertia     float64 // per-trait moving cost
	MobileInertia      float64
	DefaultInertia     float64
	CrossClusterFactor float64 // inertia multiplier across clusters
	CrossClusterShift  float64 // then added
	NewPenalty         float64 // crowding term for a new settlement
	GoodsEnabled       bool
	GoodsClamp         float64
	SocialScale        float64
	Noise              float64
}

// DefaultParams returns the standard constants. The goods term is disabled.
func DefaultParams() Params {
	return Params{
		PopulationCap:      400,
		SettledInertia:     -2,
		MobileInertia:      -0.2,
		DefaultInertia:     -1,
		CrossClusterFactor: 2,
		CrossClusterShift:  -1,
		NewPenalty:         -0.5,
		GoodsClamp:         5,
		SocialScale:        0.1,
		Noise:              1,
	}
}

// Option describes one destination offered to a clan.
type Option struct {
	SettlementID int     `json:"settlement_id"` // NewSettlement for the synthetic option
	SameCluster  bool    `json:"same_cluster"`
	Population   int     `json:"population"`
	Social       float64 `json:"social"` // prestige-weighted alignment toward residents
	Goods        float64 `json:"goods"`  // local goods advantage; ignored while disabled
}

// Ineligibility reasons.
const (
	ReasonHome      = "home"
	ReasonCrowded   = "crowded"
	ReasonNotBetter = "not better than staying"
)

// Candidate is an evaluated option with its utility breakdown.
type Candidate struct {
	Option
	Inertia  float64 `json:"inertia"`
	Crowding float64 `json:"crowding"` // fixed penalty for new; placeholder 0 otherwise
	Goods    float64 `json:"goods"`    // 0 while disabled
	Social   float64 `json:"social"`
	Noise    float64 `json:"noise"`
	Utility  float64 `json:"utility"`
	Eligible bool    `json:"eligible"`
	Reason   string  `json:"reason,omitempty"`
}

// New reports whether the candidate founds a settlement.
func (c Candidate) New() bool { return c.SettlementID == NewSettlement }

// Calc is one clan's evaluation for the turn.
type Calc struct {
	ClanID     int         `json:"clan_id"`
	Home       int         `json:"home"`
	Stay       float64     `json:"stay"`
	Candidates []Candidate `json:"candidates"`
}

// Inertia is the moving cost for a clan's traits; crossing clusters doubles
// it and adds a shift.
func (p Params) Inertia(traits econ.Traits, sameCluster bool) float64 {
	base := p.DefaultInertia
	switch {
	case traits.Has(econ.Settled):
		base = p.SettledInertia
	case traits.Has(econ.Mobile):
		base = p.MobileInertia
	}
	if !sameCluster {
		base = base*p.CrossClusterFactor + p.CrossClusterShift
	}
	return base
}

// Evaluate scores every option against staying home. homeSocial is the
// clan's social term toward its current settlement. One Gaussian draw per
// non-home option, in option order.
func Evaluate(src entropy.Source, p Params, clanID, home int, traits econ.Traits, homeSocial float64, options []Option) *Calc {
	c := &Calc{ClanID: clanID, Home: home}
	for _, opt := range options {
		cand := Candidate{Option: opt}
		if opt.SettlementID == home {
			cand.Reason = ReasonHome
			c.Candidates = append(c.Candidates, cand)
			continue
		}

		cand.Inertia = p.Inertia(traits, opt.SameCluster)
		if cand.New() {
			cand.Crowding = p.NewPenalty
		}
		if p.GoodsEnabled {
			cand.Goods = calc.Clamp(opt.Goods, -p.GoodsClamp, p.GoodsClamp)
		}
		cand.Social = p.SocialScale * (opt.Social - homeSocial)
		cand.Noise = src.Gaussian(0, p.Noise)
		cand.Utility = calc.GuardNaN(cand.Inertia+cand.Crowding+cand.Goods+cand.Social+cand.Noise, c.Stay)

		switch {
		case opt.Population > p.PopulationCap:
			cand.Reason = ReasonCrowded
		case cand.Utility <= c.Stay:
			cand.Reason = ReasonNotBetter
		default:
			cand.Eligible = true
		}
		c.Candidates = append(c.Candidates, cand)
	}
	return c
}

// Eligible returns the eligible candidates.
func (c *Calc) Eligible() []Candidate {
	var out []Candidate
	for _, cand := range c.Candidates {
		if cand.Eligible {
			out = append(out, cand)
		}
	}
	return out
}

// Select samples one eligible candidate by softmax over their utilities.
// Staying is never a candidate: every eligible target already beats it, so a
// successful selection is always a move. Calling Select with nothing
// eligible is a precondition violation.
func (c *Calc) Select(src entropy.Source) (Candidate, bool, error) {
	eligible := c.Eligible()
	if len(eligible) == 0 {
		return Candidate{}, false, fmt.Errorf("clan %d migration: %w", c.ClanID, entropy.ErrExhaustedChoice)
	}
	utilities := make([]float64, len(eligible))
	for i, cand := range eligible {
		utilities[i] = cand.Utility
	}
	i, err := src.Softmax(utilities)
	if err != nil {
		return Candidate{}, false, fmt.Errorf("clan %d migration: %w", c.ClanID, err)
	}
	return eligible[i], true, nil
}

// Table renders the per-target value table.
func (c *Calc) Table() string {
	var b strings.Builder
	fmt.Fprintf(&b, "stay %.2f\n", c.Stay)
	for _, cand := range c.Candidates {
		target := fmt.Sprintf("%d", cand.SettlementID)
		if cand.New() {
			target = "new"
		}
		fmt.Fprintf(&b, "%-5s %6.2f inertia=%.2f crowding=%.2f goods=%.2f social=%.2f noise=%.2f",
			target, cand.Utility, cand.Inertia, cand.Crowding, cand.Goods, cand.Social, cand.Noise)
		if !cand.Eligible {
			fmt.Fprintf(&b, " (%s)", cand.Reason)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Plan is a clan's decision for the turn.
type Plan struct {
	Calc   *Calc     `json:"calc"`
	Move   bool      `json:"move"`
	Target Candidate `json:"target"`
}

// Decide evaluates and, when anything is eligible, selects.
func Decide(src entropy.Source, p Params, clanID, home int, traits econ.Traits, homeSocial float64, options []Option) (Plan, error) {
	c := Evaluate(src, p, clanID, home, traits, homeSocial, options)
	plan := Plan{Calc: c}
	if len(c.Eligible()) == 0 {
		return plan, nil
	}
	target, moved, err := c.Select(src)
	if err != nil {
		return plan, err
	}
	plan.Move, plan.Target = moved, target
	return plan, nil
}
