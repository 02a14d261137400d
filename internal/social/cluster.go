package social

import (
	"github.com/talgya/tellsim/internal/calc"
	"github.com/talgya/tellsim/internal/world"
)

// Disease pool constants.
const (
	DiseaseBase       = 0.05
	DiseaseCrowding   = 0.3
	DiseaseCrowdedPop = 2000
	DiseaseTrend      = 0.002 // per twenty years elapsed
	DiseaseTrendMax   = 0.1
)

// Placement is the daughter-settlement policy of a cluster.
type Placement struct {
	MinDist int `json:"min_dist"` // from any occupied site
	MaxDist int `json:"max_dist"` // from the founding settlement
}

// DefaultPlacement keeps daughters within a short walk of the parent.
func DefaultPlacement() Placement { return Placement{MinDist: 2, MaxDist: 4} }

// Cluster is a group of settlements sharing a fishing commons and a
// disease pool.
type Cluster struct {
	ID          int       `json:"id"`
	Settlements []int     `json:"settlements"`
	Adjacent    []int     `json:"adjacent"` // neighboring cluster ids
	Placement   Placement `json:"placement"`

	// Shared state, recomputed each turn before any settlement runs.
	FishingCommons float64 `json:"fishing_commons"`
	FishWorkers    float64 `json:"fish_workers"`
	DiseaseLoad    float64 `json:"disease_load"`
	FloodLevel     float64 `json:"flood_level"`
	Population     int     `json:"population"`
}

// NewCluster creates an empty cluster.
func NewCluster(id int) *Cluster {
	return &Cluster{ID: id, Placement: DefaultPlacement()}
}

// HasSettlement reports membership.
func (c *Cluster) HasSettlement(id int) bool {
	for _, sid := range c.Settlements {
		if sid == id {
			return true
		}
	}
	return false
}

// IsAdjacent reports whether another cluster neighbors this one.
func (c *Cluster) IsAdjacent(id int) bool {
	for _, a := range c.Adjacent {
		if a == id {
			return true
		}
	}
	return false
}

// Disease computes the pool's load from its population and the years
// elapsed since the start of the run.
func Disease(population int, yearsElapsed float64) float64 {
	crowd := calc.Clamp(float64(population)/DiseaseCrowdedPop, 0, 1)
	trend := calc.Clamp(DiseaseTrend*yearsElapsed/20, 0, DiseaseTrendMax)
	return calc.Clamp(DiseaseBase+DiseaseCrowding*crowd+trend, 0, 1)
}

// DaughterSite applies the placement policy around origin.
func (c *Cluster) DaughterSite(m *world.Map, origin world.HexCoord, occupied []world.HexCoord) (world.HexCoord, bool) {
	if m == nil {
		return world.HexCoord{}, false
	}
	return m.DaughterSite(origin, c.Placement.MinDist, c.Placement.MaxDist, occupied)
}
