// Package rites computes collective ritual quality from participant
// effectiveness, a leadership weighting policy and the size of the group.
package rites

import (
	"fmt"
	"math"

	"github.com/talgya/tellsim/internal/calc"
	"github.com/talgya/tellsim/internal/entropy"
	"github.com/talgya/tellsim/internal/notes"
)

// Structure is the social reach of a rite.
type Structure uint8

const (
	Household Structure = iota // a single clan
	Lineage                    // 2-4 clans
	Communal                   // 5 or more
)

func (s Structure) String() string {
	switch s {
	case Household:
		return "household"
	case Lineage:
		return "lineage"
	}
	return "communal"
}

// StructureFor classifies a participant count.
func StructureFor(n int) Structure {
	switch {
	case n <= 1:
		return Household
	case n <= 4:
		return Lineage
	}
	return Communal
}

// Policy selects how participants are weighted. Policies are ordered; drift
// moves one step at a time.
type Policy uint8

const (
	Equal Policy = iota
	PrestigeWeak
	PrestigeModerate
	PrestigeStrong
	NumPolicies
)

var policyNames = [NumPolicies]string{"equal", "prestige-weak", "prestige-moderate", "prestige-strong"}

func (p Policy) String() string {
	if p < NumPolicies {
		return policyNames[p]
	}
	return "unknown"
}

// ParsePolicy looks a policy up by name.
func ParsePolicy(name string) (Policy, bool) {
	for i, n := range policyNames {
		if n == name {
			return Policy(i), true
		}
	}
	return Equal, false
}

// quotients for 2^((prestige-50)/q); zero means equal weights.
var quotients = [NumPolicies]float64{0, 40, 20, 10}

// Weight is the leadership weight of a participant with the given prestige.
func (p Policy) Weight(prestige float64) float64 {
	if p >= NumPolicies || quotients[p] == 0 {
		return 1
	}
	return math.Pow(2, (calc.Clamp(prestige, 0, 100)-50)/quotients[p])
}

var (
	scaleTable        = [9]float64{1.00, 1.15, 1.27, 1.37, 1.45, 1.52, 1.58, 1.63, 1.67}
	coordinationTable = [9]float64{1.00, 0.97, 0.94, 0.91, 0.88, 0.85, 0.82, 0.79, 0.76}
)

func tableIndex(n int) int { return calc.ClampInt(n, 1, len(scaleTable)) - 1 }

// Scale is the benefit of holding the rite with n participants.
func Scale(n int) float64 { return scaleTable[tableIndex(n)] }

// Coordination is the efficiency loss of coordinating n participants.
func Coordination(n int) float64 { return coordinationTable[tableIndex(n)] }

// Participant is one clan taking part.
type Participant struct {
	ClanID        int     `json:"clan_id"`
	Effectiveness float64 `json:"effectiveness"`
	Prestige      float64 `json:"prestige"`
}

// Item is one labelled factor of the quality breakdown.
type Item struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Rites is the ritual state of one settlement.
type Rites struct {
	Structure Structure `json:"structure"`
	Policy    Policy    `json:"policy"`
	Quality   float64   `json:"quality"`
	Items     []Item    `json:"items"`
	Weights   []float64 `json:"weights"` // per participant, in Perform order
}

// New creates rites under the given policy.
func New(policy Policy) *Rites {
	if policy >= NumPolicies {
		policy = Equal
	}
	return &Rites{Policy: policy}
}

// Perform computes quality = effectiveness x scale x coordination, where
// effectiveness is the policy-weighted harmonic mean. No participants
// yields zero quality.
func (r *Rites) Perform(ps []Participant) float64 {
	r.Structure = StructureFor(len(ps))
	r.Items, r.Weights = nil, nil
	if len(ps) == 0 {
		r.Quality = 0
		return 0
	}
	values := make([]float64, len(ps))
	r.Weights = make([]float64, len(ps))
	for i, p := range ps {
		values[i] = p.Effectiveness
		r.Weights[i] = r.Policy.Weight(p.Prestige)
	}
	eff := calc.WeightedHarmonicMean(values, r.Weights)
	scale, coord := Scale(len(ps)), Coordination(len(ps))
	r.Items = []Item{
		{Label: "effectiveness", Value: eff},
		{Label: "scale", Value: scale},
		{Label: "coordination", Value: coord},
	}
	r.Quality = calc.GuardNaN(eff*scale*coord, 0)
	return r.Quality
}

// Drift probabilities per turn.
const (
	DriftUp   = 0.05
	DriftDown = 0.05
)

// Drift moves the policy one step with low probability using one uniform
// draw, clamped to the valid range. A change is noted under label "rites".
func (r *Rites) Drift(src entropy.Source, sink notes.Sink, where string) bool {
	return r.DriftBy(src, sink, where, DriftUp, DriftDown)
}

// DriftBy is Drift with explicit step probabilities.
func (r *Rites) DriftBy(src entropy.Source, sink notes.Sink, where string, up, down float64) bool {
	u := src.Uniform()
	next := r.Policy
	switch {
	case u < up:
		if next+1 < NumPolicies {
			next++
		}
	case u < up+down:
		if next > 0 {
			next--
		}
	}
	if next == r.Policy {
		return false
	}
	if sink != nil {
		sink.AddNote("rites", fmt.Sprintf("Rites at %s turn from %s to %s leadership", where, r.Policy, next))
	}
	r.Policy = next
	return true
}
