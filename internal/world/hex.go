// Package world provides the river valley hex grid: terrain, land
// capacities, settlement sites and the flood regime.
// Uses axial coordinates (q, r) for the hex grid.
package world

// HexCoord represents a position on the hex grid using axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

// Less orders coordinates by q then r, for deterministic iteration.
func (h HexCoord) Less(o HexCoord) bool {
	if h.Q != o.Q {
		return h.Q < o.Q
	}
	return h.R < o.R
}

// Terrain types for valley hexes.
type Terrain uint8

const (
	TerrainFloodplain Terrain = iota // Silt-renewed fields along the river
	TerrainTerrace                   // Dry benches above the floodplain
	TerrainForest                    // Game and gathering
	TerrainMarsh                     // Fowl, reeds, some fish
	TerrainUpland                    // Valley walls; poor land
	TerrainRiver                     // Channel hexes; the fishing commons
)

// Hex represents a single tile of the valley.
type Hex struct {
	Coord   HexCoord `json:"coord"`
	Terrain Terrain  `json:"terrain"`

	Elevation float64 `json:"elevation"` // 0.0 (valley floor) to 1.0 (ridge)
	Rainfall  float64 `json:"rainfall"`  // 0.0 (arid) to 1.0 (wet)

	// Land capacities in worker units.
	Arable float64 `json:"arable"`
	Forage float64 `json:"forage"`
	Fish   float64 `json:"fish"`

	// Settlement on this hex, if any.
	SettlementID *int `json:"settlement_id,omitempty"`
}

// HexNeighborDirections defines the six neighbor offsets in axial coordinates.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Neighbors returns the six adjacent hex coordinates.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = HexCoord{Q: h.Q + dir.Q, R: h.R + dir.R}
	}
	return result
}

// Distance returns the hex distance between two coordinates: the largest
// absolute cube-coordinate difference.
func Distance(a, b HexCoord) int {
	return max(abs(a.Q-b.Q), abs(a.R-b.R), abs(a.S()-b.S()))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// TerrainName returns a human-readable name for a terrain type.
func TerrainName(t Terrain) string {
	switch t {
	case TerrainFloodplain:
		return "Floodplain"
	case TerrainTerrace:
		return "Terrace"
	case TerrainForest:
		return "Forest"
	case TerrainMarsh:
		return "Marsh"
	case TerrainUpland:
		return "Upland"
	case TerrainRiver:
		return "River"
	default:
		return "Unknown"
	}
}
