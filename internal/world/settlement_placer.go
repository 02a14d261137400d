// Settlement placement: scores valley sites, seeds the initial settlements,
// groups them into clusters, and finds daughter sites for new foundings.
package world

import (
	"math"
	"math/rand"
	"sort"
	"strconv"
)

// SettlementSeed holds the parameters for an initial settlement placement.
type SettlementSeed struct {
	Coord HexCoord
	Score float64 // Desirability score
	Name  string
}

// Catchment is the land a settlement works: its hex and the six around it.
type Catchment struct {
	Arable float64 `json:"arable"`
	Forage float64 `json:"forage"`
	Fish   float64 `json:"fish"`
}

// CatchmentOf sums land capacities over a hex and its neighbors.
func (m *Map) CatchmentOf(coord HexCoord) Catchment {
	var c Catchment
	add := func(h *Hex) {
		if h == nil {
			return
		}
		c.Arable += h.Arable
		c.Forage += h.Forage
		c.Fish += h.Fish
	}
	add(m.Get(coord))
	for _, nc := range coord.Neighbors() {
		add(m.Get(nc))
	}
	return c
}

// PlaceSettlements picks count sites, best first, at least minDist apart.
func PlaceSettlements(m *Map, count, minDist int, seed int64) []SettlementSeed {
	rng := rand.New(rand.NewSource(seed + 200))

	var candidates []SettlementSeed
	for _, coord := range m.Coords() {
		if s := settlementScore(m, coord); s > 0 {
			candidates = append(candidates, SettlementSeed{Coord: coord, Score: s})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	var seeds []SettlementSeed
	for _, c := range candidates {
		if len(seeds) >= count {
			break
		}
		if tooClose(c.Coord, seeds, minDist) {
			continue
		}
		seeds = append(seeds, c)
	}

	used := make(map[string]bool)
	for i := range seeds {
		seeds[i].Name = GenerateName(rng, used)
	}
	return seeds
}

// settlementScore evaluates how desirable a hex is for a settlement.
// Prefers dry ground beside the river with fields and forage in reach.
func settlementScore(m *Map, coord HexCoord) float64 {
	hex := m.Get(coord)
	if hex == nil {
		return 0
	}
	score := 0.0
	switch hex.Terrain {
	case TerrainFloodplain:
		score += 3.0
	case TerrainTerrace:
		score += 3.5 // Above the floods, beside the fields
	case TerrainForest:
		score += 1.5
	case TerrainMarsh:
		score += 0.5
	case TerrainUpland:
		score += 0.3
	default:
		return 0 // No building in the channel
	}

	for _, nc := range coord.Neighbors() {
		if nh := m.Get(nc); nh != nil && nh.Terrain == TerrainRiver {
			score += 1.0
			break
		}
	}

	c := m.CatchmentOf(coord)
	score += math.Log1p(c.Arable+c.Forage+c.Fish) * 0.4
	return score
}

func tooClose(coord HexCoord, existing []SettlementSeed, minDist int) bool {
	for _, s := range existing {
		if Distance(coord, s.Coord) < minDist {
			return true
		}
	}
	return false
}

// DaughterSite finds the best free site between minDist and maxDist hexes
// from origin that keeps minDist from every occupied hex.
func (m *Map) DaughterSite(origin HexCoord, minDist, maxDist int, occupied []HexCoord) (HexCoord, bool) {
	var best HexCoord
	bestScore := 0.0
	for _, coord := range m.Coords() {
		d := Distance(origin, coord)
		if d < minDist || d > maxDist {
			continue
		}
		if m.Get(coord).SettlementID != nil {
			continue
		}
		blocked := false
		for _, o := range occupied {
			if Distance(o, coord) < minDist {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}
		if s := settlementScore(m, coord); s > bestScore {
			best, bestScore = coord, s
		}
	}
	return best, bestScore > 0
}

// GroupClusters joins settlements into clusters by single linkage: two
// settlements within linkDist share a cluster. Returns seed indices per
// cluster, in order of each cluster's first member.
func GroupClusters(coords []HexCoord, linkDist int) [][]int {
	parent := make([]int, len(coords))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for i := range coords {
		for j := i + 1; j < len(coords); j++ {
			if Distance(coords[i], coords[j]) <= linkDist {
				ri, rj := find(i), find(j)
				if ri != rj {
					parent[max(ri, rj)] = min(ri, rj)
				}
			}
		}
	}

	index := make(map[int]int)
	var groups [][]int
	for i := range coords {
		root := find(i)
		g, ok := index[root]
		if !ok {
			g = len(groups)
			index[root] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

// Adjacent reports whether any hex of a is within dist of any hex of b.
func Adjacent(a, b []HexCoord, dist int) bool {
	for _, x := range a {
		for _, y := range b {
			if Distance(x, y) <= dist {
				return true
			}
		}
	}
	return false
}

var namePrefixes = []string{
	"Ash", "Reed", "Stone", "Mill", "Cross", "Black", "Willow",
	"Red", "White", "High", "Low", "Old", "Far", "Deep", "Long",
	"Broad", "Elm", "Oak", "Alder", "Heron", "Otter", "Salt",
	"Clay", "Flint", "Sedge", "Marl",
}

var nameSuffixes = []string{
	"ford", "hollow", "wick", "bank", "stead", "field", "dale",
	"mound", "tell", "marsh", "well", "brook", "moor", "bend",
	"reach", "holm", "ey", "ham", "ley", "mere",
}

// GenerateName produces a procedural place name not yet in used.
func GenerateName(rng *rand.Rand, used map[string]bool) string {
	for attempt := 0; ; attempt++ {
		name := namePrefixes[rng.Intn(len(namePrefixes))] + nameSuffixes[rng.Intn(len(nameSuffixes))]
		if attempt > 50 {
			name += " " + strconv.Itoa(attempt)
		}
		if !used[name] {
			used[name] = true
			return name
		}
	}
}
