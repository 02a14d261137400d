package world

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// FloodSeries yields each cluster's flood level per turn. Levels are
// smooth in time, so wet and dry spells last several turns, and clusters
// far apart on the noise field flood independently.
type FloodSeries struct {
	noise     opensimplex.Noise
	frequency float64
}

// NewFloodSeries creates a deterministic series.
func NewFloodSeries(seed int64) *FloodSeries {
	return &FloodSeries{
		noise:     opensimplex.NewNormalized(seed + 500),
		frequency: 0.45,
	}
}

// Level returns the flood level in [0,1].
func (f *FloodSeries) Level(cluster, turn int) float64 {
	v := octaveNoise(f.noise, float64(turn), float64(cluster)*7.3, 2, f.frequency, 0.5)
	return math.Max(0, math.Min(1, v))
}
