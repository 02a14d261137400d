package econ

import (
	"math"

	"github.com/talgya/tellsim/internal/calc"
)

// SubsistenceAppeal is the happiness contribution of per-capita food
// relative to need, saturating at 1.5.
func SubsistenceAppeal(subsistence float64) float64 {
	return 4 * (math.Min(calc.GuardNaN(subsistence, 0), 1.5) - 1)
}

// QoL is a clan's happiness with its component breakdown.
type QoL struct {
	Items []Item  `json:"items"`
	Value float64 `json:"value"`
}

// Happiness combines subsistence, housing, rites and crafts per capita.
func Happiness(subsistence float64, housing Housing, ritesQuality, craftsPerCapita float64) QoL {
	q := QoL{Items: []Item{
		{Label: "subsistence", Value: SubsistenceAppeal(subsistence)},
		{Label: "housing", Value: 0.5 * housing.Spec().QoL},
		{Label: "rites", Value: 2 * (calc.GuardNaN(ritesQuality, 0) - 1)},
		{Label: "crafts", Value: calc.GuardNaN(craftsPerCapita, 0)},
	}}
	for _, it := range q.Items {
		q.Value += it.Value
	}
	return q
}

// Subsistence is food per head relative to need. Zero population is zero.
func Subsistence(food float64, population int) float64 {
	if population <= 0 {
		return 0
	}
	return calc.GuardNaN(food/(float64(population)*FoodNeed), 0)
}
