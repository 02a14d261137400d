package attitude

import (
	"github.com/talgya/tellsim/internal/calc"
	"github.com/talgya/tellsim/internal/entropy"
)

// Relationship classifies a (subject, object) pair for the prestige baseline.
type Relationship uint8

const (
	Self Relationship = iota
	Neighbor
	Stranger
)

func (r Relationship) String() string {
	switch r {
	case Self:
		return "self"
	case Neighbor:
		return "neighbor"
	}
	return "stranger"
}

// Standing is the per-clan input to prestige, gathered by the caller.
type Standing struct {
	Seniority       int     `json:"seniority"`
	HousingPrestige float64 `json:"housing_prestige"`
	Population      int     `json:"population"`
	Strength        float64 `json:"strength"`     // adult male share x trait multiplier
	Intelligence    float64 `json:"intelligence"` // elder share
	Skill           float64 `json:"skill"`        // mean discretionary skill level
	Rites           float64 `json:"rites"`        // ritual effectiveness
}

// Average is the mean standing of a settlement's clans.
type Average struct {
	Seniority       float64 `json:"seniority"`
	HousingPrestige float64 `json:"housing_prestige"`
	Population      float64 `json:"population"` // mean clan size
	Strength        float64 `json:"strength"`
	Intelligence    float64 `json:"intelligence"`
	Skill           float64 `json:"skill"`
	Rites           float64 `json:"rites"`
}

// AverageOf averages a group. An empty group averages to zero.
func AverageOf(all []Standing) Average {
	var a Average
	if len(all) == 0 {
		return a
	}
	for _, s := range all {
		a.Seniority += float64(s.Seniority)
		a.HousingPrestige += s.HousingPrestige
		a.Population += float64(s.Population)
		a.Strength += s.Strength
		a.Intelligence += s.Intelligence
		a.Skill += s.Skill
		a.Rites += s.Rites
	}
	n := float64(len(all))
	a.Seniority /= n
	a.HousingPrestige /= n
	a.Population /= n
	a.Strength /= n
	a.Intelligence /= n
	a.Skill /= n
	a.Rites /= n
	return a
}

// PrestigeParams are the factor multipliers.
type PrestigeParams struct {
	SelfBaseline     float64
	NeighborBaseline float64
	StrangerPenalty  float64 // at full scale
	ScaleStart       int
	ScaleSpan        int
	Seniority        float64
	Housing          float64
	Size             float64
	Strength         float64
	Intelligence     float64
	Skill            float64
	Rites            float64
	Noise            float64
}

// DefaultPrestigeParams returns the standard multipliers.
func DefaultPrestigeParams() PrestigeParams {
	return PrestigeParams{
		SelfBaseline:     55,
		NeighborBaseline: 50,
		StrangerPenalty:  5,
		ScaleStart:       150,
		ScaleSpan:        150,
		Seniority:        2,
		Housing:          3,
		Size:             5,
		Strength:         4,
		Intelligence:     4,
		Skill:            4,
		Rites:            4,
		Noise:            2,
	}
}

// PrestigeInference is the inferred prestige with its factors.
type PrestigeInference struct {
	Relationship Relationship `json:"relationship"`
	Factors      []Factor     `json:"factors"`
	Total        float64      `json:"total"`
}

// Value is the inferred view, clamped to [0,100].
func (p PrestigeInference) Value() float64 { return p.Total }

// InferPrestige compares the object's standing with the settlement average.
// settlementPop is the settlement's total population. One Gaussian draw.
func InferPrestige(src entropy.Source, p PrestigeParams, rel Relationship, object Standing, avg Average, settlementPop int) PrestigeInference {
	var baseline float64
	switch rel {
	case Self:
		baseline = p.SelfBaseline
	case Neighbor:
		baseline = p.NeighborBaseline
	default:
		scale := calc.Clamp(float64(settlementPop-p.ScaleStart)/float64(p.ScaleSpan), 0, 1)
		baseline = p.NeighborBaseline - p.StrangerPenalty*scale
	}
	housing := p.Housing * (object.HousingPrestige - avg.HousingPrestige)
	if rel == Self {
		housing *= 2
	}
	inf := PrestigeInference{Relationship: rel}
	inf.Factors = []Factor{
		{Label: "baseline", Value: baseline},
		{Label: "seniority", Value: p.Seniority * (float64(object.Seniority) - avg.Seniority)},
		{Label: "housing", Value: housing},
		{Label: "size", Value: p.Size * calc.LogRatio(float64(object.Population), avg.Population)},
		{Label: "strength", Value: p.Strength * (object.Strength - avg.Strength)},
		{Label: "intelligence", Value: p.Intelligence * (object.Intelligence - avg.Intelligence)},
		{Label: "skill", Value: p.Skill * (object.Skill - avg.Skill)},
		{Label: "rites", Value: p.Rites * (object.Rites - avg.Rites)},
		{Label: "noise", Value: src.Gaussian(0, p.Noise)},
	}
	for _, f := range inf.Factors {
		inf.Total += f.Value
	}
	inf.Total = calc.Clamp(calc.GuardNaN(inf.Total, baseline), 0, 100)
	return inf
}
