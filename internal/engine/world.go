// World ties together the entity graph, the attitude boards and the
// collaborators a turn consumes: random source, note sink and clock.
package engine

import (
	"math/rand"

	"github.com/talgya/tellsim/internal/attitude"
	"github.com/talgya/tellsim/internal/demography"
	"github.com/talgya/tellsim/internal/entropy"
	"github.com/talgya/tellsim/internal/migration"
	"github.com/talgya/tellsim/internal/notes"
	"github.com/talgya/tellsim/internal/rites"
	"github.com/talgya/tellsim/internal/social"
	"github.com/talgya/tellsim/internal/world"
)

// PrestigeBoard holds every clan's prestige view of every co-resident.
type PrestigeBoard = attitude.Board[int, attitude.PrestigeInference]

// AlignmentBoard holds every clan's alignment view of every co-resident.
type AlignmentBoard = attitude.Board[int, attitude.AlignmentInference]

// Params collects the model constants of every subsystem.
type Params struct {
	Demography  demography.Params        `json:"demography"`
	Attitude    attitude.Params          `json:"attitude"`
	Prestige    attitude.PrestigeParams  `json:"prestige"`
	Alignment   attitude.AlignmentParams `json:"alignment"`
	Migration   migration.Params         `json:"migration"`
	MaxClanSize int                      `json:"max_clan_size"`
	MinClanSize int                      `json:"min_clan_size"`
	DriftUp     float64                  `json:"drift_up"`
	DriftDown   float64                  `json:"drift_down"`
}

// DefaultParams returns the standard constants.
func DefaultParams() Params {
	return Params{
		Demography:  demography.DefaultParams(),
		Attitude:    attitude.DefaultParams(),
		Prestige:    attitude.DefaultPrestigeParams(),
		Alignment:   attitude.DefaultAlignmentParams(),
		Migration:   migration.DefaultParams(),
		MaxClanSize: social.MaxClanSize,
		MinClanSize: social.MinClanSize,
		DriftUp:     rites.DriftUp,
		DriftDown:   rites.DriftDown,
	}
}

// World holds the complete simulation state.
type World struct {
	RunID    string
	Seed     int64
	Params   Params
	Clock    Clock
	Registry *social.Registry

	Prestige  *PrestigeBoard
	Alignment *AlignmentBoard

	Rand  entropy.Source
	Notes notes.Sink

	// Optional geography. Without a map no new settlement can be founded
	// and flood levels stay at FloodDefault.
	Map     *world.Map
	Flood   *world.FloodSeries
	Spawner *social.Spawner

	Timeline []Snapshot

	names     *rand.Rand
	usedNames map[string]bool
	stats     TurnStats
}

// FloodDefault is the flood level used when no flood series is attached.
const FloodDefault = 0.3

// NewWorld creates a world over an existing registry.
func NewWorld(reg *social.Registry, src entropy.Source, sink notes.Sink, p Params, seed int64) *World {
	if sink == nil {
		sink = notes.Nop{}
	}
	w := &World{
		Seed:      seed,
		Params:    p,
		Clock:     NewClock(DefaultStartYear, DefaultYearsPerTurn),
		Registry:  reg,
		Prestige:  attitude.NewBoard[int, attitude.PrestigeInference](p.Attitude),
		Alignment: attitude.NewBoard[int, attitude.AlignmentInference](p.Attitude),
		Rand:      src,
		Notes:     sink,
		Spawner:   social.NewSpawner(seed),
		names:     rand.New(rand.NewSource(seed + 400)),
		usedNames: make(map[string]bool),
	}
	for _, s := range reg.Settlements() {
		w.usedNames[s.Name] = true
	}
	return w
}

// Turn is the number of completed turns.
func (w *World) Turn() int { return w.Clock.Turn }

// Stats returns the counters of the last completed turn.
func (w *World) Stats() TurnStats { return w.stats }

// PrestigeViews returns a clan's committed prestige views.
func (w *World) PrestigeViews(clanID int) map[int]float64 { return w.Prestige.ViewsOf(clanID) }

// AlignmentViews returns a clan's committed alignment views.
func (w *World) AlignmentViews(clanID int) map[int]float64 { return w.Alignment.ViewsOf(clanID) }

// Population is the total over every live settlement.
func (w *World) Population() int {
	total := 0
	for _, s := range w.Registry.LiveSettlements() {
		total += s.Population
	}
	return total
}

// floodLevel is the cluster's flood level for the current turn.
func (w *World) floodLevel(clusterID int) float64 {
	if w.Flood == nil {
		return FloodDefault
	}
	return w.Flood.Level(clusterID, w.Clock.Turn)
}

// settlementName issues a place name not used before in this world.
func (w *World) settlementName() string {
	return world.GenerateName(w.names, w.usedNames)
}
