package rites

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/tellsim/internal/entropy"
	"github.com/talgya/tellsim/internal/notes"
)

func TestTablesClampOutOfRange(t *testing.T) {
	assert.Equal(t, 1.00, Scale(0))
	assert.Equal(t, 1.00, Coordination(-3))
	assert.Equal(t, 1.67, Scale(9))
	assert.Equal(t, 1.67, Scale(50))
	assert.Equal(t, 0.76, Coordination(12))
	assert.Equal(t, 1.27, Scale(3))
}

func TestStructureFor(t *testing.T) {
	assert.Equal(t, Household, StructureFor(1))
	assert.Equal(t, Lineage, StructureFor(4))
	assert.Equal(t, Communal, StructureFor(5))
}

func TestPerformEqualPolicy(t *testing.T) {
	r := New(Equal)
	q := r.Perform([]Participant{
		{ClanID: 1, Effectiveness: 0.5},
		{ClanID: 2, Effectiveness: 1.0},
	})
	// harmonic mean of 0.5 and 1.0 is 2/3
	assert.InDelta(t, 2.0/3.0*1.15*0.97, q, 1e-12)
	require.Len(t, r.Items, 3)
	assert.Equal(t, Lineage, r.Structure)
}

func TestPerformEmpty(t *testing.T) {
	r := New(PrestigeStrong)
	assert.Equal(t, 0.0, r.Perform(nil))
	assert.Equal(t, Household, r.Structure)
}

func TestEqualPolicyMonotoneInEffectiveness(t *testing.T) {
	base := []Participant{
		{ClanID: 1, Effectiveness: 0.4, Prestige: 30},
		{ClanID: 2, Effectiveness: 0.7, Prestige: 60},
		{ClanID: 3, Effectiveness: 0.9, Prestige: 80},
	}
	prev := -1.0
	for eff := 0.0; eff <= 2.0; eff += 0.1 {
		ps := append([]Participant(nil), base...)
		ps[1].Effectiveness = eff
		q := New(Equal).Perform(ps)
		assert.GreaterOrEqual(t, q, prev, "effectiveness %.1f", eff)
		prev = q
	}
}

func TestPrestigePolicyFavorsHighPrestige(t *testing.T) {
	ps := []Participant{
		{ClanID: 1, Effectiveness: 0.2, Prestige: 20},
		{ClanID: 2, Effectiveness: 1.0, Prestige: 90},
	}
	equal := New(Equal).Perform(ps)
	strong := New(PrestigeStrong).Perform(ps)
	assert.Greater(t, strong, equal)
	assert.InDelta(t, 1.0, PrestigeWeak.Weight(50), 1e-12)
	assert.InDelta(t, 2.0, PrestigeStrong.Weight(60), 1e-12)
}

func TestDriftProbabilities(t *testing.T) {
	m := &notes.Memory{}

	r := New(Equal)
	assert.False(t, r.Drift(&entropy.Stub{Uniforms: []float64{0.5}}, m, "Ashford"))
	assert.False(t, r.Drift(&entropy.Stub{Uniforms: []float64{0.07}}, m, "Ashford")) // down from the bottom
	assert.True(t, r.Drift(&entropy.Stub{Uniforms: []float64{0.01}}, m, "Ashford"))
	assert.Equal(t, PrestigeWeak, r.Policy)
	require.Equal(t, 1, m.Len())
	assert.Equal(t, "rites", m.Drain()[0].Label)

	r = New(PrestigeStrong)
	assert.False(t, r.Drift(&entropy.Stub{Uniforms: []float64{0.01}}, m, "Ashford"))
	assert.True(t, r.Drift(&entropy.Stub{Uniforms: []float64{0.07}}, nil, "Ashford"))
	assert.Equal(t, PrestigeModerate, r.Policy)
}

func TestDriftStaysInRange(t *testing.T) {
	src := entropy.NewRand(3)
	r := New(Equal)
	changes := 0
	const turns = 10000
	for i := 0; i < turns; i++ {
		if r.Drift(src, notes.Nop{}, "x") {
			changes++
		}
		require.Less(t, r.Policy, NumPolicies)
	}
	// At most 10% of turns can change policy.
	assert.Less(t, changes, turns*15/100)
	assert.Greater(t, changes, 0)
}

func TestDriftByZeroNeverMoves(t *testing.T) {
	r := New(PrestigeWeak)
	assert.False(t, r.DriftBy(&entropy.Stub{Uniforms: []float64{0}}, nil, "Ashford", 0, 0))
	assert.Equal(t, PrestigeWeak, r.Policy)
}

func TestParsePolicy(t *testing.T) {
	for p := Equal; p < NumPolicies; p++ {
		got, ok := ParsePolicy(p.String())
		require.True(t, ok)
		assert.Equal(t, p, got)
	}
	_, ok := ParsePolicy("theocracy")
	assert.False(t, ok)
}
