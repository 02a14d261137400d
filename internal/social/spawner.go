// Clan spawning: creates the initial clans of a settlement with cohorts,
// skills suited to the local terrain, traits, and names.
package social

import (
	"math"
	"math/rand"
	"strconv"

	"github.com/talgya/tellsim/internal/demography"
	"github.com/talgya/tellsim/internal/econ"
	"github.com/talgya/tellsim/internal/world"
)

// Spawner creates clans for world bootstrap and names cadets.
type Spawner struct {
	rng  *rand.Rand
	used map[string]bool
}

// NewSpawner creates a clan spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		rng:  rand.New(rand.NewSource(seed + 300)),
		used: make(map[string]bool),
	}
}

// tierShares is the starting age pyramid.
var tierShares = [demography.Tiers]float64{0.40, 0.30, 0.20, 0.10}

// Spawn creates one clan of roughly the given size in a settlement on the
// given terrain.
func (s *Spawner) Spawn(id, settlementID int, terrain world.Terrain, size, turn int) *Clan {
	c := NewClan(id, s.Name())
	c.SettlementID = settlementID
	c.Founded = turn
	c.Cohorts = s.cohorts(size)
	c.Skills = s.skillsForTerrain(terrain)
	c.Traits = s.traits()
	c.Housing = econ.BestAvailable(c.Population(), econ.Hut)
	c.Labor.Plan = planForTerrain(terrain)
	return c
}

// SpawnSize draws a starting clan size around mean, within [MinClanSize, MaxClanSize].
func (s *Spawner) SpawnSize(mean float64) int {
	size := mean + s.rng.NormFloat64()*mean*0.25
	return int(math.Round(math.Max(MinClanSize, math.Min(MaxClanSize, size))))
}

func (s *Spawner) cohorts(size int) demography.Cohorts {
	var c demography.Cohorts
	left := size
	for tier := 0; tier < demography.Tiers; tier++ {
		n := int(math.Round(float64(size) * tierShares[tier]))
		if tier == demography.Tiers-1 || n > left {
			n = left
		}
		left -= n
		f := 0
		for i := 0; i < n; i++ {
			if s.rng.Float64() < 0.5 {
				f++
			}
		}
		c.Set(tier, demography.Female, f)
		c.Set(tier, demography.Male, n-f)
	}
	return c
}

// skillsForTerrain gives a strong skill in what the land offers and low
// levels elsewhere.
func (s *Spawner) skillsForTerrain(terrain world.Terrain) econ.Skills {
	var sk econ.Skills
	for i := range sk.Level {
		sk.Level[i] = 0.1 + s.rng.Float64()*0.15
	}
	var primary econ.Skill
	switch terrain {
	case world.TerrainFloodplain, world.TerrainTerrace:
		primary = econ.Agriculture
	case world.TerrainMarsh, world.TerrainRiver:
		primary = econ.Fishing
	default:
		primary = econ.Foraging
	}
	sk.Level[primary] = 0.35 + s.rng.Float64()*0.2
	sk.Level[econ.Ritual] = 0.2 + s.rng.Float64()*0.3
	return sk
}

func planForTerrain(terrain world.Terrain) econ.Plan {
	switch terrain {
	case world.TerrainFloodplain, world.TerrainTerrace:
		return econ.DefaultPlan()
	case world.TerrainMarsh, world.TerrainRiver:
		return econ.Plan{0.25, 0.4, 0.25, 0.1}
	}
	return econ.Plan{0.2, 0.2, 0.5, 0.1}
}

func (s *Spawner) traits() econ.Traits {
	var ts econ.Traits
	r := s.rng.Float64()
	switch {
	case r < 0.45:
		ts = ts.With(econ.Settled)
	case r < 0.75:
		ts = ts.With(econ.Mobile)
	}
	if s.rng.Float64() < 0.25 {
		ts = ts.With(econ.Industrious)
	}
	if s.rng.Float64() < 0.25 {
		ts = ts.With(econ.Pious)
	}
	if s.rng.Float64() < 0.2 {
		ts = ts.With(econ.Bold)
	}
	return ts
}

// Name returns a clan name not issued before by this spawner.
func (s *Spawner) Name() string {
	for attempt := 0; ; attempt++ {
		name := clanRoots[s.rng.Intn(len(clanRoots))] + clanEndings[s.rng.Intn(len(clanEndings))]
		if attempt > 50 {
			name += " " + strconv.Itoa(attempt)
		}
		if !s.used[name] {
			s.used[name] = true
			return name
		}
	}
}

// Name pools for procedural generation.
var clanRoots = []string{
	"Ael", "Bran", "Cor", "Dun", "Eb", "Fen", "Gor", "Hal", "Ir", "Jor",
	"Kel", "Lir", "Mor", "Nal", "Or", "Pel", "Ros", "Sul", "Tor", "Ul",
	"Var", "Wen", "Yr", "Zel", "Ash", "Bel", "Cad", "Dar", "Esk", "Fal",
}

var clanEndings = []string{
	"ing", "ec", "an", "ith", "or", "ad", "un", "el", "ach", "os",
	"ar", "in", "ut", "em", "ok",
}
