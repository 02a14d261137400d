package attitude

import (
	"github.com/talgya/tellsim/internal/calc"
	"github.com/talgya/tellsim/internal/entropy"
)

// AlignmentParams are the alignment multipliers.
type AlignmentParams struct {
	Baseline     float64
	Kinship      float64
	Relatedness  float64
	Neighborhood float64 // bonus at population 0, scaled by 100/(100+pop)
	Noise        float64
}

// DefaultAlignmentParams returns the standard multipliers.
func DefaultAlignmentParams() AlignmentParams {
	return AlignmentParams{
		Baseline:     50,
		Kinship:      40,
		Relatedness:  20,
		Neighborhood: 5,
		Noise:        2,
	}
}

// Ties is the per-pair input to alignment, gathered by the caller.
type Ties struct {
	Self          bool    `json:"self"`
	Kinship       float64 `json:"kinship"`     // kinship coefficient in [0,1]
	Relatedness   float64 `json:"relatedness"` // marriage relatedness
	BothSeniors   bool    `json:"both_seniors"`
	SettlementPop int     `json:"settlement_pop"`
}

// AlignmentInference is the inferred alignment with its factors.
type AlignmentInference struct {
	Factors []Factor `json:"factors"`
	Total   float64  `json:"total"`
}

// Value is the inferred view, clamped to [0,100].
func (a AlignmentInference) Value() float64 { return a.Total }

// InferAlignment scores perceived helpfulness. Self pairs skip the
// neighborhood and noise terms and make no draw; others make one Gaussian
// draw.
func InferAlignment(src entropy.Source, p AlignmentParams, t Ties) AlignmentInference {
	inf := AlignmentInference{Factors: []Factor{
		{Label: "baseline", Value: p.Baseline},
		{Label: "kinship", Value: p.Kinship * calc.Clamp(t.Kinship, 0, 1)},
		{Label: "relatedness", Value: p.Relatedness * calc.Clamp(t.Relatedness, 0, 1)},
	}}
	if !t.Self {
		neighborhood := 0.0
		if t.BothSeniors {
			neighborhood = p.Neighborhood * 100 / (100 + float64(max(t.SettlementPop, 0)))
		}
		inf.Factors = append(inf.Factors,
			Factor{Label: "neighborhood", Value: neighborhood},
			Factor{Label: "noise", Value: src.Gaussian(0, p.Noise)},
		)
	}
	for _, f := range inf.Factors {
		inf.Total += f.Value
	}
	inf.Total = calc.Clamp(calc.GuardNaN(inf.Total, p.Baseline), 0, 100)
	return inf
}
