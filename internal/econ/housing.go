package econ

import (
	"fmt"
	"math"

	"github.com/talgya/tellsim/internal/calc"
	"github.com/talgya/tellsim/internal/entropy"
)

// Housing is a dwelling type.
type Housing uint8

const (
	Shelter Housing = iota
	Hut
	Pithouse
	Longhouse
	NumHousing
)

// HousingSpec is the static cost and value of a dwelling type.
type HousingSpec struct {
	Name     string  `json:"name"`
	Upkeep   float64 `json:"upkeep"`   // labor fraction reserved every turn
	Build    float64 `json:"build"`    // worker-years per head to build
	QoL      float64 `json:"qol"`      // quality-of-life value
	Prestige float64 `json:"prestige"` // display value
	MinSize  int     `json:"min_size"` // smallest clan able to use it
}

// Catalogue lists every housing type.
var Catalogue = [NumHousing]HousingSpec{
	{Name: "shelter", Upkeep: 0.01},
	{Name: "hut", Upkeep: 0.03, Build: 1, QoL: 1, Prestige: 1},
	{Name: "pithouse", Upkeep: 0.05, Build: 3, QoL: 2, Prestige: 2, MinSize: 12},
	{Name: "longhouse", Upkeep: 0.07, Build: 6, QoL: 3, Prestige: 4, MinSize: 25},
}

// Spec returns the catalogue entry.
func (h Housing) Spec() HousingSpec {
	if h >= NumHousing {
		return Catalogue[Shelter]
	}
	return Catalogue[h]
}

func (h Housing) String() string { return h.Spec().Name }

// MaxBuildShare caps the labor a rebuild may take in one turn.
const MaxBuildShare = 0.5

// HousingReservation is the mandatory housing labor fraction: upkeep plus,
// after a change of type, the build cost amortized over the turn.
func HousingReservation(h Housing, rebuilt bool, population int, workforce, yearsPerTurn float64) float64 {
	r := h.Spec().Upkeep
	if rebuilt && workforce > 0 && yearsPerTurn > 0 {
		r += math.Min(MaxBuildShare, h.Spec().Build*float64(population)/(workforce*yearsPerTurn))
	}
	return r
}

// BestAvailable is the highest-QoL type a clan of this size can use, capped
// at limit.
func BestAvailable(population int, limit Housing) Housing {
	best := Shelter
	for h := Shelter; h < NumHousing && h <= limit; h++ {
		if population >= h.Spec().MinSize && h.Spec().QoL >= best.Spec().QoL {
			best = h
		}
	}
	return best
}

// HousingModel is a neighbor a clan might imitate.
type HousingModel struct {
	ClanID   int     `json:"clan_id"`
	Housing  Housing `json:"housing"`
	Prestige float64 `json:"prestige"` // the deciding clan's view of the model
}

// HousingDecision records how a clan picked its housing.
type HousingDecision struct {
	Model    int     `json:"model"` // clan id imitated, -1 when none
	Imitated Housing `json:"imitated"`
	Guessed  Housing `json:"guessed"`
	Chosen   Housing `json:"chosen"`
	Flipped  bool    `json:"flipped"` // imitation and guess differed
}

// DecideHousing imitates a prestige-weighted neighbor, guesses the best
// type by QoL, and when the two differ flips a coin weighted 1.25^QoL.
func DecideHousing(src entropy.Source, current Housing, population int, models []HousingModel) (HousingDecision, error) {
	d := HousingDecision{Model: -1, Imitated: current}
	if len(models) > 0 {
		weights := make([]float64, len(models))
		for i, m := range models {
			weights[i] = math.Pow(1.02, calc.Clamp(m.Prestige, -200, 200))
		}
		i, err := src.WeightedIndex(weights)
		if err != nil {
			return d, fmt.Errorf("housing imitation: %w", err)
		}
		d.Model = models[i].ClanID
		d.Imitated = BestAvailable(population, models[i].Housing)
	}
	d.Guessed = BestAvailable(population, NumHousing-1)

	if d.Imitated == d.Guessed {
		d.Chosen = d.Imitated
		return d, nil
	}
	d.Flipped = true
	weights := []float64{
		math.Pow(1.25, d.Imitated.Spec().QoL),
		math.Pow(1.25, d.Guessed.Spec().QoL),
	}
	i, err := src.WeightedIndex(weights)
	if err != nil {
		return d, fmt.Errorf("housing coin flip: %w", err)
	}
	if i == 0 {
		d.Chosen = d.Imitated
	} else {
		d.Chosen = d.Guessed
	}
	return d, nil
}
