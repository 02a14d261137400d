// Valley generation using layered simplex noise.
// Elevation is shaped into a trough along a meandering axis, the main river
// follows steepest descent down the trough, and tributaries join from the
// valley walls. Land capacities derive from terrain and rainfall.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds valley generation parameters.
type GenConfig struct {
	Radius      int     // Hex grid radius
	Seed        int64   // Random seed (0 = random)
	ValleyWidth float64 // Half-width of the valley floor in hexes
	Tributaries int     // Side streams traced from the valley walls
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius:      12,
		ValleyWidth: 3,
		Tributaries: 3,
	}
}

// SmallTestConfig returns a tiny valley for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Radius:      6,
		Seed:        42,
		ValleyWidth: 2,
		Tributaries: 1,
	}
}

// Generate creates a complete valley map with terrain and land capacities.
func Generate(cfg GenConfig) *Map {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	if cfg.ValleyWidth <= 0 {
		cfg.ValleyWidth = 1
	}

	elevNoise := opensimplex.NewNormalized(seed)
	rainNoise := opensimplex.NewNormalized(seed + 1)
	axisNoise := opensimplex.NewNormalized(seed + 2)

	m := NewMap(cfg.Radius)
	radius := float64(cfg.Radius)

	for q := -cfg.Radius; q <= cfg.Radius; q++ {
		for r := -cfg.Radius; r <= cfg.Radius; r++ {
			coord := HexCoord{Q: q, R: r}
			if !m.InBounds(coord) {
				continue
			}

			// Hex axial to cartesian: x = q + r*0.5, y = r * sqrt(3)/2
			x := float64(q) + float64(r)*0.5
			y := float64(r) * math.Sqrt(3.0) / 2.0

			// The valley axis meanders around y = 0.
			axis := (axisNoise.Eval2(x*0.07, 0.5) - 0.5) * radius * 0.4
			wall := math.Min(math.Abs(y-axis)/(cfg.ValleyWidth*2.5), 1)

			// The valley descends from east (high x) to west.
			slope := (x + radius) / (2 * radius)

			elev := 0.55*wall + 0.15*slope + 0.30*octaveNoise(elevNoise, x, y, 4, 0.10, 0.5)
			rain := octaveNoise(rainNoise, x, y, 3, 0.06, 0.5)

			m.Set(&Hex{
				Coord:     coord,
				Terrain:   deriveTerrain(elev, rain, math.Abs(y-axis), cfg.ValleyWidth),
				Elevation: elev,
				Rainfall:  rain,
			})
		}
	}

	placeRivers(m, seed, cfg.Tributaries)

	for _, hex := range m.Hexes {
		setCapacities(hex)
	}
	return m
}

// deriveTerrain determines terrain from elevation, rainfall and distance to
// the valley axis.
func deriveTerrain(elev, rain, fromAxis, width float64) Terrain {
	switch {
	case elev > 0.65:
		return TerrainUpland
	case fromAxis <= width && rain > 0.65:
		return TerrainMarsh
	case fromAxis <= width:
		return TerrainFloodplain
	case rain > 0.5:
		return TerrainForest
	}
	return TerrainTerrace
}

// setCapacities populates land capacities from terrain, scaled by rainfall.
func setCapacities(hex *Hex) {
	wet := 0.7 + 0.6*hex.Rainfall
	switch hex.Terrain {
	case TerrainFloodplain:
		hex.Arable, hex.Forage, hex.Fish = 30*wet, 4, 0
	case TerrainTerrace:
		hex.Arable, hex.Forage, hex.Fish = 14*wet, 6, 0
	case TerrainForest:
		hex.Arable, hex.Forage, hex.Fish = 3, 24*wet, 0
	case TerrainMarsh:
		hex.Arable, hex.Forage, hex.Fish = 2, 12, 6
	case TerrainUpland:
		hex.Arable, hex.Forage, hex.Fish = 2, 8*wet, 0
	case TerrainRiver:
		hex.Arable, hex.Forage, hex.Fish = 8, 2, 22
	}
}

// placeRivers traces the main channel from the highest valley-floor hex and
// tributaries from randomly chosen upland hexes.
func placeRivers(m *Map, seed int64, tributaries int) {
	rng := rand.New(rand.NewSource(seed + 100))

	var head *Hex
	var uplands []HexCoord
	for _, coord := range m.Coords() {
		hex := m.Get(coord)
		switch hex.Terrain {
		case TerrainFloodplain, TerrainMarsh:
			if head == nil || hex.Elevation > head.Elevation {
				head = hex
			}
		case TerrainUpland:
			uplands = append(uplands, coord)
		}
	}
	if head == nil {
		return
	}
	traceRiver(m, head.Coord)

	rng.Shuffle(len(uplands), func(i, j int) {
		uplands[i], uplands[j] = uplands[j], uplands[i]
	})
	if len(uplands) > tributaries {
		uplands = uplands[:tributaries]
	}
	for _, start := range uplands {
		traceRiver(m, start)
	}
}

// traceRiver follows the steepest descent from a source hex until it joins
// an existing channel or runs out of downhill path.
func traceRiver(m *Map, start HexCoord) {
	current := start
	visited := make(map[HexCoord]bool)
	maxSteps := 4 * m.Radius

	for step := 0; step < maxSteps; step++ {
		visited[current] = true
		hex := m.Get(current)
		if hex == nil {
			break
		}
		if hex.Terrain == TerrainRiver && current != start {
			break
		}
		if hex.Terrain != TerrainUpland {
			hex.Terrain = TerrainRiver
		}

		var best *HexCoord
		bestElev := hex.Elevation
		for _, nc := range current.Neighbors() {
			if visited[nc] {
				continue
			}
			nh := m.Get(nc)
			if nh == nil {
				continue
			}
			if nh.Elevation < bestElev {
				bestElev = nh.Elevation
				c := nc
				best = &c
			}
		}
		if best == nil {
			break
		}
		current = *best
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
