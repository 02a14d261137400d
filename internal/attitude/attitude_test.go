package attitude

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/tellsim/internal/entropy"
)

type fixed float64

func (f fixed) Value() float64 { return float64(f) }

func TestFirstComputationOmitsHeritage(t *testing.T) {
	b := NewBoard[int, fixed](DefaultParams())
	b.StartUpdate(1, 2, fixed(70), 100, nil)

	_, ok := b.Get(1, 2)
	assert.False(t, ok, "pending view must not be visible")

	b.Commit()
	c, ok := b.Calc(1, 2)
	require.True(t, ok)
	require.Len(t, c.Items, 1)
	assert.Equal(t, ItemInferred, c.Items[0].Kind)
	assert.Equal(t, 70.0, c.Value)

	b.StartUpdate(1, 2, fixed(30), 100, nil)
	b.Commit()
	c, _ = b.Calc(1, 2)
	require.Len(t, c.Items, 2)
	assert.Equal(t, ItemHeritage, c.Items[1].Kind)
	assert.InDelta(t, 50.0, c.Value, 1e-12) // (4*30 + 4*70) / 8
}

func TestStagingIsOrderIndependent(t *testing.T) {
	run := func(order []int) map[int]float64 {
		b := NewBoard[int, fixed](DefaultParams())
		for _, s := range []int{1, 2} {
			b.Seed(s, 3, 10*float64(s))
		}
		for _, s := range order {
			other := 3 - s
			b.StartUpdate(s, 3, fixed(60), 50, []Model[int]{{ID: other, Prestige: 50}})
		}
		b.Commit()
		return map[int]float64{1: b.GetOr(1, 3, -1), 2: b.GetOr(2, 3, -1)}
	}
	assert.Equal(t, run([]int{1, 2}), run([]int{2, 1}))
}

func TestModelsWeightedByPrestige(t *testing.T) {
	p := DefaultParams()
	b := NewBoard[int, fixed](p)
	b.Seed(2, 3, 80) // model 2 rates clan 3 at 80

	b.StartUpdate(1, 3, fixed(40), 100, []Model[int]{
		{ID: 1, Prestige: 99}, // subject skipped
		{ID: 3, Prestige: 99}, // object skipped
		{ID: 2, Prestige: 0},
		{ID: 4, Prestige: 50}, // no committed view of 3
	})
	b.Commit()

	c, _ := b.Calc(1, 3)
	require.Len(t, c.Items, 2)
	assert.Equal(t, ItemModel, c.Items[1].Kind)
	assert.Equal(t, 2, c.Items[1].Model)
	assert.InDelta(t, 0.25, c.Items[1].Weight, 1e-12)
	assert.InDelta(t, (4*40+0.25*80)/4.25, c.Value, 1e-12)
}

func TestModelsSkippedAboveScaleAndForSelf(t *testing.T) {
	b := NewBoard[int, fixed](DefaultParams())
	b.Seed(2, 1, 80)
	b.Seed(2, 3, 80)
	models := []Model[int]{{ID: 2, Prestige: 50}}

	b.StartUpdate(1, 3, fixed(40), 300, models)
	b.StartUpdate(1, 1, fixed(40), 10, models)
	b.Commit()

	c, _ := b.Calc(1, 3)
	assert.Len(t, c.Items, 1)
	c, _ = b.Calc(1, 1)
	assert.Len(t, c.Items, 1)
}

func TestSeededViewsAreNotHeritable(t *testing.T) {
	b := NewBoard[int, fixed](DefaultParams())
	b.Seed(1, 2, 90)
	v, ok := b.Get(1, 2)
	require.True(t, ok)
	assert.Equal(t, 90.0, v)

	b.StartUpdate(1, 2, fixed(20), 10, nil)
	b.Commit()
	assert.Equal(t, 20.0, b.GetOr(1, 2, 0))
}

func TestInheritRemovePrune(t *testing.T) {
	b := NewBoard[int, fixed](DefaultParams())
	b.Seed(1, 1, 60)
	b.Seed(1, 2, 40)
	b.Seed(2, 1, 45)

	b.Inherit(1, 5)
	assert.Equal(t, 60.0, b.GetOr(5, 5, 0))
	assert.Equal(t, 60.0, b.GetOr(5, 1, 0))
	assert.Equal(t, 60.0, b.GetOr(1, 5, 0))
	assert.Equal(t, 40.0, b.GetOr(5, 2, 0))
	assert.Equal(t, 45.0, b.GetOr(2, 5, 0))
	assert.Len(t, b.ViewsOf(5), 3)

	removed := b.Remove(5)
	assert.Equal(t, 5, removed)
	assert.Equal(t, 3, b.Len())

	pruned := b.Prune(func(s, o int) bool { return s == o })
	assert.Equal(t, 2, pruned)
	assert.Equal(t, 1, b.Len())
}

func TestInferPrestigeSelfBaselineAndHousing(t *testing.T) {
	src := &entropy.Stub{}
	obj := Standing{Seniority: 2, HousingPrestige: 2, Population: 40}
	avg := AverageOf([]Standing{obj, {Seniority: 0, HousingPrestige: 0, Population: 40}})

	self := InferPrestige(src, DefaultPrestigeParams(), Self, obj, avg, 80)
	other := InferPrestige(src, DefaultPrestigeParams(), Neighbor, obj, avg, 80)

	// seniority 2*(2-1), housing 3*(2-1) doubled for self, size 0
	assert.InDelta(t, 55+2+6, self.Value(), 1e-12)
	assert.InDelta(t, 50+2+3, other.Value(), 1e-12)
	assert.Len(t, self.Factors, 9)
}

func TestInferPrestigeStrangerScales(t *testing.T) {
	src := &entropy.Stub{}
	s := Standing{Population: 30}
	avg := AverageOf([]Standing{s})
	small := InferPrestige(src, DefaultPrestigeParams(), Stranger, s, avg, 100)
	large := InferPrestige(src, DefaultPrestigeParams(), Stranger, s, avg, 1000)
	assert.Equal(t, 50.0, small.Value())
	assert.Equal(t, 45.0, large.Value())
	assert.Equal(t, "stranger", large.Relationship.String())
}

func TestInferAlignment(t *testing.T) {
	src := &entropy.Stub{Normals: []float64{1}}
	self := InferAlignment(src, DefaultAlignmentParams(), Ties{Self: true, Kinship: 1})
	assert.Equal(t, 90.0, self.Value())
	assert.Len(t, self.Factors, 3)

	other := InferAlignment(src, DefaultAlignmentParams(), Ties{Kinship: 0.5, Relatedness: 0.1, BothSeniors: true, SettlementPop: 100})
	// 50 + 20 + 2 + 2.5 neighborhood + 2 noise
	assert.InDelta(t, 76.5, other.Value(), 1e-12)

	fresh := InferAlignment(src, DefaultAlignmentParams(), Ties{SettlementPop: 100})
	assert.InDelta(t, 52.0, fresh.Value(), 1e-12)
}

func ballotsFrom(views map[[2]string]float64) Ballots[string] {
	return func(voter, candidate string) (float64, bool) {
		v, ok := views[[2]string{voter, candidate}]
		return v, ok
	}
}

func TestCondorcetWinner(t *testing.T) {
	views := map[[2]string]float64{
		{"c", "a"}: 70, {"c", "b"}: 60,
		{"b", "a"}: 70, {"b", "c"}: 60,
		{"a", "b"}: 70, {"a", "c"}: 60,
	}
	res := Condorcet([]string{"a", "b", "c"}, ballotsFrom(views))
	require.True(t, res.Found)
	assert.Equal(t, "a", res.Leader)
	for j := 1; j < 3; j++ {
		assert.GreaterOrEqual(t, res.Wins[0][j], res.Wins[j][0])
	}
}

func TestCondorcetCycleHasNoLeader(t *testing.T) {
	views := map[[2]string]float64{
		{"c", "a"}: 70, {"c", "b"}: 60, // a beats b
		{"b", "c"}: 70, {"b", "a"}: 60, // c beats a
		{"a", "b"}: 70, {"a", "c"}: 60, // b beats c
	}
	res := Condorcet([]string{"a", "b", "c"}, ballotsFrom(views))
	assert.False(t, res.Found)
	assert.Equal(t, "", res.Leader)
}

func TestCondorcetSmallGroups(t *testing.T) {
	res := Condorcet([]string{"solo"}, ballotsFrom(nil))
	assert.True(t, res.Found)
	assert.Equal(t, "solo", res.Leader)

	// Two clans have no third-party ballots: a universal tie.
	res = Condorcet([]string{"a", "b"}, ballotsFrom(nil))
	assert.False(t, res.Found)
}
