package social

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/tellsim/internal/demography"
	"github.com/talgya/tellsim/internal/econ"
	"github.com/talgya/tellsim/internal/entropy"
	"github.com/talgya/tellsim/internal/world"
)

func newTestRegistry(t *testing.T) (*Registry, *Settlement) {
	t.Helper()
	r := NewRegistry()
	cl := NewCluster(r.NextClusterID())
	r.AddCluster(cl)
	s := NewSettlement(r.NextSettlementID(), "Reedford", world.HexCoord{}, cl.ID, world.Catchment{Arable: 100, Forage: 50, Fish: 20})
	require.NoError(t, r.AddSettlement(s))
	return r, s
}

func addClan(t *testing.T, r *Registry, s *Settlement, cohorts demography.Cohorts) *Clan {
	t.Helper()
	c := NewClan(r.NextClanID(), "clan")
	c.Cohorts = cohorts
	c.SettlementID = s.ID
	require.NoError(t, r.AddClan(c, NoClan))
	return c
}

func TestRegistryPopulationTracksClans(t *testing.T) {
	r, s := newTestRegistry(t)
	a := addClan(t, r, s, demography.Cohorts{5, 5, 5, 5, 2, 2, 1, 1})
	b := addClan(t, r, s, demography.Cohorts{3, 3, 3, 3, 1, 1, 0, 0})
	assert.Equal(t, a.Population()+b.Population(), s.Population)
	require.NoError(t, r.CheckInvariants())

	other := NewSettlement(r.NextSettlementID(), "Ashholm", world.HexCoord{Q: 3}, s.ClusterID, world.Catchment{})
	require.NoError(t, r.AddSettlement(other))
	require.NoError(t, r.MoveClan(b.ID, other.ID))
	assert.Equal(t, a.Population(), s.Population)
	assert.Equal(t, b.Population(), other.Population)
	assert.Equal(t, []int{b.ID}, other.Clans)
	require.NoError(t, r.CheckInvariants())
}

func TestCheckInvariantsDetectsStaleCache(t *testing.T) {
	r, s := newTestRegistry(t)
	c := addClan(t, r, s, demography.Cohorts{5, 5, 5, 5, 0, 0, 0, 0})
	c.Cohorts[0] += 3
	err := r.CheckInvariants()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariant))

	r.RefreshPopulation(s.ID)
	require.NoError(t, r.CheckInvariants())

	c.Cohorts[1] = -1
	assert.ErrorIs(t, r.CheckInvariants(), ErrInvariant)
}

func TestSplitConservesPopulationAndLedger(t *testing.T) {
	r, s := newTestRegistry(t)
	parent := addClan(t, r, s, demography.Cohorts{12, 12, 10, 10, 8, 8, 4, 4})
	parent.Ledger.Add(econ.Grain, econ.SourceCommons, 40)
	parent.Ledger.Add(econ.Fish, econ.SourceCommons, 12)
	parent.Ledger.Add(econ.Fish, econ.SourceExchange, 3)
	parent.Traits = econ.NewTraits(econ.Settled, econ.Pious)
	parent.Skills.Level[econ.Fishing] = 0.7
	before := parent.Population()
	grain, fish := parent.Ledger.Total(econ.Grain), parent.Ledger.Total(econ.Fish)

	src := &entropy.Stub{Uniforms: []float64{0, 0.5, 0.99}}
	cadet, err := r.Split(src, parent, r.NextClanID(), "cadet", 3)
	require.NoError(t, err)

	assert.Equal(t, before, parent.Population()+cadet.Population())
	assert.InDelta(t, grain, parent.Ledger.Total(econ.Grain)+cadet.Ledger.Total(econ.Grain), 1e-9)
	assert.InDelta(t, fish, parent.Ledger.Total(econ.Fish)+cadet.Ledger.Total(econ.Fish), 1e-9)
	assert.Equal(t, parent.ID, cadet.Parent)
	assert.Equal(t, []int{cadet.ID}, parent.Cadets)
	assert.Equal(t, parent.Traits, cadet.Traits)
	assert.Equal(t, 0.7, cadet.Skills.Get(econ.Fishing))
	assert.Equal(t, 3, cadet.Founded)
	assert.Equal(t, 8, src.Draws())
	// Cadet sits right after its parent.
	assert.Equal(t, []int{parent.ID, cadet.ID}, s.Clans)
	require.NoError(t, r.CheckInvariants())

	for i := range parent.Cohorts {
		assert.GreaterOrEqual(t, parent.Cohorts[i], 0)
	}
}

func TestSplitLargeBringsEveryClanUnderMax(t *testing.T) {
	r, s := newTestRegistry(t)
	big := addClan(t, r, s, demography.Cohorts{40, 40, 30, 30, 20, 20, 10, 10})
	small := addClan(t, r, s, demography.Cohorts{4, 4, 4, 4, 2, 2, 0, 0})
	total := big.Population() + small.Population()

	names := 0
	cadets, err := r.SplitLarge(entropy.NewRand(7), s.ID, MaxClanSize, 1, func(*Clan) string {
		names++
		return "cadet"
	})
	require.NoError(t, err)
	assert.NotEmpty(t, cadets)
	assert.Equal(t, len(cadets), names)

	sum := 0
	for _, c := range r.ClansOf(s.ID) {
		assert.LessOrEqual(t, c.Population(), MaxClanSize)
		sum += c.Population()
	}
	assert.Equal(t, total, sum)
	require.NoError(t, r.CheckInvariants())
}

func TestKinship(t *testing.T) {
	r, s := newTestRegistry(t)
	p := addClan(t, r, s, demography.Cohorts{20, 20, 20, 20, 10, 10, 5, 5})
	src := entropy.NewRand(1)
	a, err := r.Split(src, p, r.NextClanID(), "a", 1)
	require.NoError(t, err)
	b, err := r.Split(src, p, r.NextClanID(), "b", 1)
	require.NoError(t, err)
	stranger := addClan(t, r, s, demography.Cohorts{5, 5, 5, 5, 0, 0, 0, 0})

	assert.Equal(t, 1.0, r.Kinship(p.ID, p.ID))
	assert.Equal(t, 0.5, r.Kinship(p.ID, a.ID))
	assert.Equal(t, 0.5, r.Kinship(b.ID, p.ID))
	assert.Equal(t, 0.25, r.Kinship(a.ID, b.ID))
	assert.Equal(t, 0.0, r.Kinship(a.ID, stranger.ID))
	assert.Equal(t, 0.0, r.Kinship(a.ID, 999))
}

func TestAbsorbReparentsCadets(t *testing.T) {
	r, s := newTestRegistry(t)
	grand := addClan(t, r, s, demography.Cohorts{20, 20, 20, 20, 10, 10, 5, 5})
	src := entropy.NewRand(3)
	mid, err := r.Split(src, grand, r.NextClanID(), "mid", 1)
	require.NoError(t, err)
	leaf, err := r.Split(src, mid, r.NextClanID(), "leaf", 1)
	require.NoError(t, err)
	absorber := addClan(t, r, s, demography.Cohorts{10, 10, 10, 10, 5, 5, 2, 2})
	absorber.Skills.Level[econ.Agriculture] = 1
	mid.Skills.Level[econ.Agriculture] = 0
	wa, wb := float64(absorber.Population()), float64(mid.Population())
	total := absorber.Population() + mid.Population()

	require.NoError(t, r.Absorb(absorber, mid))

	_, ok := r.Clan(mid.ID)
	assert.False(t, ok)
	assert.Equal(t, total, absorber.Population())
	assert.InDelta(t, wa/(wa+wb), absorber.Skills.Get(econ.Agriculture), 1e-9)
	assert.Equal(t, absorber.ID, leaf.Parent)
	assert.Contains(t, absorber.Cadets, leaf.ID)
	assert.NotContains(t, grand.Cadets, mid.ID)
	assert.False(t, s.HasClan(mid.ID))
	require.NoError(t, r.CheckInvariants())
}

func TestMergeSmallFoldsSmallestFirst(t *testing.T) {
	r, s := newTestRegistry(t)
	a := addClan(t, r, s, demography.Cohorts{1, 1, 1, 0, 0, 0, 0, 0})     // 3
	b := addClan(t, r, s, demography.Cohorts{2, 1, 1, 0, 0, 0, 0, 0})     // 4
	c := addClan(t, r, s, demography.Cohorts{10, 10, 10, 10, 0, 0, 0, 0}) // 40

	merges, err := r.MergeSmall(s.ID, MinClanSize)
	require.NoError(t, err)
	require.Len(t, merges, 2)
	assert.Equal(t, Merge{Absorber: b.ID, Absorbed: a.ID}, merges[0])
	assert.Equal(t, Merge{Absorber: c.ID, Absorbed: b.ID}, merges[1])
	assert.Equal(t, []int{c.ID}, s.Clans)
	assert.Equal(t, 47, c.Population())
	require.NoError(t, r.CheckInvariants())
}

func TestPruneRemovesEmptyClans(t *testing.T) {
	r, s := newTestRegistry(t)
	p := addClan(t, r, s, demography.Cohorts{20, 20, 20, 20, 10, 10, 5, 5})
	cadet, err := r.Split(entropy.NewRand(5), p, r.NextClanID(), "cadet", 1)
	require.NoError(t, err)
	other := addClan(t, r, s, demography.Cohorts{5, 5, 5, 5, 0, 0, 0, 0})
	other.Relatedness[p.ID] = 0.3

	p.Cohorts = demography.Cohorts{}
	r.RefreshPopulation(s.ID)
	removed := r.Prune(s.ID)

	assert.Equal(t, []int{p.ID}, removed)
	assert.Equal(t, NoClan, cadet.Parent)
	assert.NotContains(t, other.Relatedness, p.ID)
	require.NoError(t, r.CheckInvariants())
}

func TestSeniorityAndTraitsCommit(t *testing.T) {
	c := NewClan(1, "x")
	for i := 0; i < 10; i++ {
		c.AdvanceSeniority()
	}
	assert.Equal(t, MaxSeniority, c.Seniority)

	c.Traits = econ.NewTraits(econ.Settled)
	c.StageTraits(econ.NewTraits(econ.Mobile))
	assert.True(t, c.Traits.Has(econ.Settled))
	c.Skills.Learn(econ.Crafting, 0.2)
	c.CommitTraits()
	assert.True(t, c.Traits.Has(econ.Mobile))
	assert.InDelta(t, 0.2, c.Skills.Get(econ.Crafting), 1e-12)
}

func TestDiseaseLoad(t *testing.T) {
	assert.InDelta(t, DiseaseBase, Disease(0, 0), 1e-12)
	assert.InDelta(t, DiseaseBase+DiseaseCrowding, Disease(5000, 0), 1e-12)
	assert.InDelta(t, DiseaseBase+DiseaseTrendMax, Disease(0, 1e6), 1e-12)
}

func TestTellGrowsOnlyWhenOccupied(t *testing.T) {
	s := NewSettlement(1, "x", world.HexCoord{}, 1, world.Catchment{})
	s.GrowTell(20)
	assert.Zero(t, s.TellHeight)
	s.Clans = []int{1}
	s.GrowTell(20)
	assert.InDelta(t, 0.4, s.TellHeight, 1e-12)
}

func TestSpawnerIsDeterministic(t *testing.T) {
	a, b := NewSpawner(11), NewSpawner(11)
	for i := 1; i <= 5; i++ {
		size := a.SpawnSize(30)
		assert.Equal(t, size, b.SpawnSize(30))
		ca := a.Spawn(i, 1, world.TerrainFloodplain, size, 0)
		cb := b.Spawn(i, 1, world.TerrainFloodplain, size, 0)
		assert.Equal(t, ca.Name, cb.Name)
		assert.Equal(t, ca.Cohorts, cb.Cohorts)
		assert.Equal(t, size, ca.Population())
		assert.GreaterOrEqual(t, size, MinClanSize)
		assert.LessOrEqual(t, size, MaxClanSize)
		require.NoError(t, ca.Cohorts.Validate())
	}
}
