package demography

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/tellsim/internal/entropy"
)

func sampleCohorts() Cohorts {
	// tier 0..3, female/male
	return Cohorts{10, 10, 8, 8, 6, 6, 2, 2}
}

func TestAdvanceExactWithLowDraws(t *testing.T) {
	// Every draw is 0.1: births are female and everyone survives.
	src := &entropy.Stub{Uniforms: []float64{0.1}}
	pc, err := Advance(src, DefaultParams(), sampleCohorts(), 1.0, 0.2)
	require.NoError(t, err)

	assert.Equal(t, 27, pc.Births) // 0.5 * 18 * 3.0
	assert.Equal(t, 27, pc.FemaleBirths)
	assert.Equal(t, 0, pc.MaleBirths)
	assert.Equal(t, 3, pc.DiseaseDeaths) // round(27 * 0.2 * 0.5)
	assert.Equal(t, 4, pc.ElderExits)
	assert.Equal(t, 0, pc.HazardDeaths.Total())
	assert.Equal(t, Cohorts{24, 0, 10, 10, 8, 8, 6, 6}, pc.After)
	assert.Equal(t, 72, pc.After.Total())

	assert.InDelta(t, 1.5, pc.BirthRate.Standard, 1e-12)
	assert.InDelta(t, 1.5, pc.BirthRate.Expected, 1e-12)
	assert.InDelta(t, 1.5, pc.BirthRate.Actual, 1e-12)
	assert.InDelta(t, 0.1, pc.InfantLoss.Expected, 1e-12)
	assert.InDelta(t, 3.0/27.0, pc.InfantLoss.Actual, 1e-12)
	assert.InDelta(t, 0.385, pc.Mortality[Index(2, Male)].Expected, 1e-12)
	assert.Equal(t, 0.0, pc.Mortality[Index(2, Male)].Actual)

	// 27 sex draws + 48 survival draws.
	assert.Equal(t, 27+48, src.Draws())
}

func TestAdvanceExactWithHighDraws(t *testing.T) {
	// Every draw is 0.9: births are male and nobody clears survival.
	src := &entropy.Stub{Uniforms: []float64{0.9}}
	pc, err := Advance(src, DefaultParams(), sampleCohorts(), 1.0, 0.2)
	require.NoError(t, err)

	assert.Equal(t, 27, pc.MaleBirths)
	assert.Equal(t, Cohorts{0, 24, 0, 0, 0, 0, 0, 0}, pc.After)
	assert.Equal(t, 48, pc.HazardDeaths.Total())
	assert.Equal(t, 3+48, pc.Deaths())
	assert.Equal(t, 1.0, pc.Mortality[Index(0, Female)].Actual)
}

func TestAdvanceZeroPopulation(t *testing.T) {
	pc, err := Advance(entropy.NewRand(1), DefaultParams(), Cohorts{}, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, pc.After.Total())
	assert.Equal(t, Rates{}, pc.BirthRate)
	assert.Equal(t, Rates{}, pc.InfantLoss)
	for _, r := range pc.Mortality {
		assert.Equal(t, Rates{}, r)
	}
}

func TestAdvanceRejectsNegativeCohort(t *testing.T) {
	_, err := Advance(entropy.NewRand(1), DefaultParams(), Cohorts{-1}, 1, 0)
	assert.Error(t, err)
}

func TestAdvanceCohortSumMatchesPopulation(t *testing.T) {
	src := entropy.NewRand(7)
	c := sampleCohorts()
	for turn := 0; turn < 10; turn++ {
		pc, err := Advance(src, DefaultParams(), c, 0.9, 0.3)
		require.NoError(t, err)
		require.NoError(t, pc.After.Validate())
		births := pc.Births - pc.DiseaseDeaths
		assert.Equal(t, c.Total()+births-pc.HazardDeaths.Total()-pc.ElderExits, pc.After.Total())
		c = pc.After
	}
}

func TestHealthFactor(t *testing.T) {
	assert.Equal(t, 1.0, HealthFactor(1))
	assert.Equal(t, 3.0, HealthFactor(0))
	assert.InDelta(t, 2.0, HealthFactor(0.5), 1e-12)
	assert.InDelta(t, 0.8, HealthFactor(5), 1e-12)
	assert.InDelta(t, 0.9, HealthFactor(1.5), 1e-12)
}

func TestCohortHelpers(t *testing.T) {
	c := Cohorts{}
	c.Set(1, Male, 4)
	assert.Equal(t, 4, c.Get(1, Male))
	assert.Equal(t, 3, Index(1, Male))
	sum := c.Add(Cohorts{1, 1})
	assert.Equal(t, 6, sum.Total())
	assert.Equal(t, c, sum.Sub(Cohorts{1, 1}))
	assert.Equal(t, "0:0/0 1:0/4 2:0/0 3:0/0", c.String())
}
