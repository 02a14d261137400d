package world

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceAndNeighbors(t *testing.T) {
	origin := HexCoord{}
	for _, n := range origin.Neighbors() {
		assert.Equal(t, 1, Distance(origin, n))
	}
	assert.Equal(t, 3, Distance(HexCoord{Q: 2, R: 1}, HexCoord{Q: -1, R: 1}))
	assert.Equal(t, 4, Distance(HexCoord{Q: 2, R: -2}, HexCoord{Q: -1, R: 1}))
}

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := SmallTestConfig()
	a := Generate(cfg)
	b := Generate(cfg)
	require.Equal(t, a.HexCount(), b.HexCount())
	for _, c := range a.Coords() {
		assert.Equal(t, a.Get(c).Terrain, b.Get(c).Terrain, "terrain at %v", c)
		assert.Equal(t, a.Get(c).Arable, b.Get(c).Arable)
	}
	// Radius 6 holds 3*6*7+1 hexes.
	assert.Equal(t, 127, a.HexCount())
	assert.Greater(t, a.TerrainCounts()[TerrainRiver], 0)
}

func TestPlaceSettlementsSpacing(t *testing.T) {
	m := Generate(DefaultGenConfig())
	seeds := PlaceSettlements(m, 6, 3, 7)
	require.NotEmpty(t, seeds)
	names := map[string]bool{}
	for i, a := range seeds {
		assert.NotEqual(t, TerrainRiver, m.Get(a.Coord).Terrain)
		assert.False(t, names[a.Name], "duplicate name %s", a.Name)
		names[a.Name] = true
		for _, b := range seeds[i+1:] {
			assert.GreaterOrEqual(t, Distance(a.Coord, b.Coord), 3)
		}
	}
}

func TestGroupClusters(t *testing.T) {
	coords := []HexCoord{{Q: 0, R: 0}, {Q: 10, R: 0}, {Q: 2, R: 0}, {Q: 11, R: 0}, {Q: 4, R: 0}}
	groups := GroupClusters(coords, 2)
	assert.Equal(t, [][]int{{0, 2, 4}, {1, 3}}, groups)

	assert.True(t, Adjacent([]HexCoord{{Q: 4, R: 0}}, []HexCoord{{Q: 10, R: 0}}, 6))
	assert.False(t, Adjacent([]HexCoord{{Q: 4, R: 0}}, []HexCoord{{Q: 10, R: 0}}, 5))
}

func TestDaughterSiteRespectsDistance(t *testing.T) {
	m := Generate(DefaultGenConfig())
	seeds := PlaceSettlements(m, 3, 3, 7)
	require.NotEmpty(t, seeds)
	occupied := make([]HexCoord, len(seeds))
	for i, s := range seeds {
		occupied[i] = s.Coord
	}
	site, ok := m.DaughterSite(seeds[0].Coord, 2, 5, occupied)
	if !ok {
		t.Skip("no free site in this valley")
	}
	d := Distance(site, seeds[0].Coord)
	assert.GreaterOrEqual(t, d, 2)
	assert.LessOrEqual(t, d, 5)
	for _, o := range occupied {
		assert.GreaterOrEqual(t, Distance(site, o), 2)
	}
}

func TestFloodSeriesRangeAndDeterminism(t *testing.T) {
	a := NewFloodSeries(9)
	b := NewFloodSeries(9)
	for turn := 0; turn < 50; turn++ {
		for cluster := 0; cluster < 3; cluster++ {
			v := a.Level(cluster, turn)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
			assert.Equal(t, v, b.Level(cluster, turn))
		}
	}
}

func TestCatchmentSumsNeighbors(t *testing.T) {
	m := NewMap(1)
	nb := HexCoord{}.Neighbors()
	for _, c := range append([]HexCoord{{}}, nb[:]...) {
		m.Set(&Hex{Coord: c, Arable: 1, Forage: 2, Fish: 0.5})
	}
	c := m.CatchmentOf(HexCoord{})
	assert.Equal(t, Catchment{Arable: 7, Forage: 14, Fish: 3.5}, c)
}

func TestGenerateNameUnique(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	used := map[string]bool{}
	for i := 0; i < 200; i++ {
		GenerateName(rng, used)
	}
	assert.Len(t, used, 200)
}
