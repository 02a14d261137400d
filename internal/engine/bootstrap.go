// World bootstrap: generates a valley, places and clusters the first
// settlements, and seeds each with clans.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/talgya/tellsim/internal/entropy"
	"github.com/talgya/tellsim/internal/notes"
	"github.com/talgya/tellsim/internal/rites"
	"github.com/talgya/tellsim/internal/social"
	"github.com/talgya/tellsim/internal/world"
)

// Setup configures a generated world.
type Setup struct {
	Seed         int64
	Gen          world.GenConfig
	Settlements  int     // initial settlements
	MinDist      int     // minimum spacing between initial settlements
	ClusterLink  int     // settlements within this distance share a cluster
	AdjacentDist int     // clusters within this distance are adjacent
	ClansPer     int     // clans per initial settlement
	MeanClanSize float64 // mean of the Poisson clan size
	StartYear    int
	YearsPerTurn float64
	Policy       rites.Policy
	Placement    social.Placement
}

// DefaultSetup returns a small valley with a handful of villages.
func DefaultSetup() Setup {
	return Setup{
		Seed:         1,
		Gen:          world.DefaultGenConfig(),
		Settlements:  6,
		MinDist:      3,
		ClusterLink:  4,
		AdjacentDist: 8,
		ClansPer:     3,
		MeanClanSize: 30,
		StartYear:    DefaultStartYear,
		YearsPerTurn: DefaultYearsPerTurn,
		Policy:       rites.Equal,
		Placement:    social.DefaultPlacement(),
	}
}

// Bootstrap builds a world from setup. The map and initial population
// depend only on setup.Seed; turn draws come from src.
func Bootstrap(setup Setup, src entropy.Source, sink notes.Sink, p Params) (*World, error) {
	gen := setup.Gen
	gen.Seed = setup.Seed
	m := world.Generate(gen)

	seeds := world.PlaceSettlements(m, setup.Settlements, setup.MinDist, setup.Seed)
	if len(seeds) == 0 {
		return nil, fmt.Errorf("bootstrap: no habitable site on a radius %d map", gen.Radius)
	}
	coords := make([]world.HexCoord, len(seeds))
	for i, s := range seeds {
		coords[i] = s.Coord
	}

	reg := social.NewRegistry()
	spawner := social.NewSpawner(setup.Seed)
	groups := world.GroupClusters(coords, setup.ClusterLink)
	clusterCoords := make([][]world.HexCoord, len(groups))
	clusters := make([]*social.Cluster, len(groups))

	for g, members := range groups {
		cl := social.NewCluster(reg.NextClusterID())
		if setup.Placement != (social.Placement{}) {
			cl.Placement = setup.Placement
		}
		reg.AddCluster(cl)
		clusters[g] = cl

		for _, i := range members {
			seed := seeds[i]
			clusterCoords[g] = append(clusterCoords[g], seed.Coord)

			s := social.NewSettlement(reg.NextSettlementID(), seed.Name, seed.Coord, cl.ID, m.CatchmentOf(seed.Coord))
			s.Rites = rites.New(setup.Policy)
			if err := reg.AddSettlement(s); err != nil {
				return nil, fmt.Errorf("bootstrap: %w", err)
			}
			hex := m.Get(seed.Coord)
			id := s.ID
			hex.SettlementID = &id

			after := social.NoClan
			for k := 0; k < setup.ClansPer; k++ {
				c := spawner.Spawn(reg.NextClanID(), s.ID, hex.Terrain, spawner.SpawnSize(setup.MeanClanSize), 0)
				if err := reg.AddClan(c, after); err != nil {
					return nil, fmt.Errorf("bootstrap: %w", err)
				}
				after = c.ID
			}
		}
	}

	for i := range clusters {
		for j := i + 1; j < len(clusters); j++ {
			if world.Adjacent(clusterCoords[i], clusterCoords[j], setup.AdjacentDist) {
				clusters[i].Adjacent = append(clusters[i].Adjacent, clusters[j].ID)
				clusters[j].Adjacent = append(clusters[j].Adjacent, clusters[i].ID)
			}
		}
	}

	if err := reg.CheckInvariants(); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	w := NewWorld(reg, src, sink, p, setup.Seed)
	w.RunID = uuid.NewString()
	w.Clock = NewClock(setup.StartYear, setup.YearsPerTurn)
	w.Map = m
	w.Flood = world.NewFloodSeries(setup.Seed)
	w.Spawner = spawner

	slog.Info("world bootstrapped",
		"run_id", w.RunID,
		"seed", setup.Seed,
		"hexes", m.HexCount(),
		"settlements", len(seeds),
		"clusters", len(clusters),
		"clans", len(reg.Clans()),
		"population", w.Population(),
	)
	return w, nil
}
