package demography

import (
	"fmt"
	"math"

	"github.com/talgya/tellsim/internal/calc"
	"github.com/talgya/tellsim/internal/entropy"
)

// Params are the demographic constants.
type Params struct {
	BaseBirthRate      float64    // births per fertile woman per turn at subsistence 1
	FemaleBirthProb    float64    // probability a birth is female
	DiseaseBirthFactor float64    // share of births lost per unit disease load
	BaseDeathRates     [3]float64 // per-turn hazard for tiers 0-2 (female)
	MaleMortality      float64    // male hazard multiplier
}

// DefaultParams returns the standard demographic constants.
func DefaultParams() Params {
	return Params{
		BaseBirthRate:      3.0,
		FemaleBirthProb:    0.48,
		DiseaseBirthFactor: 0.5,
		BaseDeathRates:     [3]float64{0.20, 0.15, 0.35},
		MaleMortality:      1.1,
	}
}

// Rates compares the baseline rate, the rate expected under this turn's
// conditions, and the rate actually realized by the draws.
type Rates struct {
	Standard float64 `json:"standard"`
	Expected float64 `json:"expected"`
	Actual   float64 `json:"actual"`
}

// PopulationChange is the immutable record of one clan's transition.
type PopulationChange struct {
	Before       Cohorts `json:"before"`
	After        Cohorts `json:"after"`
	Subsistence  float64 `json:"subsistence"`
	DiseaseLoad  float64 `json:"disease_load"`
	HealthFactor float64 `json:"health_factor"`

	Births        int `json:"births"`
	FemaleBirths  int `json:"female_births"`
	MaleBirths    int `json:"male_births"`
	DiseaseDeaths int `json:"disease_deaths"`
	ElderExits    int `json:"elder_exits"`

	// HazardDeaths is indexed like Cohorts over the starting tiers 0-2.
	HazardDeaths Cohorts `json:"hazard_deaths"`

	BirthRate  Rates `json:"birth_rate"`
	InfantLoss Rates `json:"infant_loss"`
	// Mortality is indexed like Cohorts; tier 3 entries stay zero.
	Mortality [Tiers * 2]Rates `json:"mortality"`
}

// Deaths is the total of disease and hazard deaths (elder exits excluded).
func (pc PopulationChange) Deaths() int {
	return pc.DiseaseDeaths + pc.HazardDeaths.Total()
}

// HealthFactor scales mortality with nutrition: worse below subsistence 1,
// mildly better above it.
func HealthFactor(subsistence float64) float64 {
	var hf float64
	if subsistence < 1 {
		hf = 1 + 2*(1-math.Max(subsistence, 0))
	} else {
		hf = 1 - 0.2*math.Min(subsistence-1, 1)
	}
	return calc.Clamp(hf, 0.5, 3)
}

// Advance moves a clan's cohorts forward one turn. Draw order is fixed: one
// uniform per birth for its sex, then one uniform per individual in tiers 0-2
// (female before male, youngest tier first) for survival.
func Advance(src entropy.Source, p Params, before Cohorts, subsistence, diseaseLoad float64) (PopulationChange, error) {
	if err := before.Validate(); err != nil {
		return PopulationChange{}, fmt.Errorf("advance: %w", err)
	}

	subsistence = calc.GuardNaN(subsistence, 0)
	load := calc.Clamp(calc.GuardNaN(diseaseLoad, 0), 0, 1)
	hf := HealthFactor(subsistence)

	pc := PopulationChange{
		Before:       before,
		Subsistence:  subsistence,
		DiseaseLoad:  load,
		HealthFactor: hf,
	}

	// Births.
	women := before.Get(0, Female) + before.Get(1, Female)
	expected := 0.5 * float64(women) * p.BaseBirthRate * calc.Clamp(subsistence, 0, 2)
	births := int(math.Round(expected))
	for i := 0; i < births; i++ {
		if entropy.Bernoulli(src, p.FemaleBirthProb) {
			pc.FemaleBirths++
		} else {
			pc.MaleBirths++
		}
	}
	pc.Births = births
	if women > 0 {
		pc.BirthRate = Rates{
			Standard: 0.5 * p.BaseBirthRate,
			Expected: expected / float64(women),
			Actual:   float64(births) / float64(women),
		}
	}

	// Disease takes a share of the newborns, split by sex in proportion.
	dd := int(math.Round(float64(births) * load * p.DiseaseBirthFactor))
	if dd > births {
		dd = births
	}
	femaleLoss := 0
	if births > 0 {
		femaleLoss = int(math.Round(float64(dd) * float64(pc.FemaleBirths) / float64(births)))
	}
	if femaleLoss > pc.FemaleBirths {
		femaleLoss = pc.FemaleBirths
	}
	maleLoss := dd - femaleLoss
	if maleLoss > pc.MaleBirths {
		femaleLoss += maleLoss - pc.MaleBirths
		maleLoss = pc.MaleBirths
	}
	pc.DiseaseDeaths = dd
	if births > 0 {
		pc.InfantLoss = Rates{
			Standard: 0,
			Expected: load * p.DiseaseBirthFactor,
			Actual:   float64(dd) / float64(births),
		}
	}

	var after Cohorts
	after.Set(0, Female, pc.FemaleBirths-femaleLoss)
	after.Set(0, Male, pc.MaleBirths-maleLoss)

	// Hazard mortality: tiers 0-2 advance a tier; elders exit.
	for tier := 0; tier < Tiers-1; tier++ {
		for _, sex := range [2]Sex{Female, Male} {
			atRisk := before.Get(tier, sex)
			standard := p.BaseDeathRates[tier]
			if sex == Male {
				standard *= p.MaleMortality
			}
			death := calc.Clamp(standard*hf, 0, 1)
			survivors := 0
			for i := 0; i < atRisk; i++ {
				if src.Uniform() < 1-death {
					survivors++
				}
			}
			idx := Index(tier, sex)
			pc.HazardDeaths[idx] = atRisk - survivors
			after.Set(tier+1, sex, survivors)
			if atRisk > 0 {
				pc.Mortality[idx] = Rates{
					Standard: standard,
					Expected: death,
					Actual:   float64(atRisk-survivors) / float64(atRisk),
				}
			}
		}
	}
	pc.ElderExits = before.Get(Tiers-1, Female) + before.Get(Tiers-1, Male)

	if err := after.Validate(); err != nil {
		return PopulationChange{}, fmt.Errorf("advance produced invalid cohorts: %w", err)
	}
	pc.After = after
	return pc, nil
}
