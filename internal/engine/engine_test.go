package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/tellsim/internal/demography"
	"github.com/talgya/tellsim/internal/econ"
	"github.com/talgya/tellsim/internal/entropy"
	"github.com/talgya/tellsim/internal/migration"
	"github.com/talgya/tellsim/internal/notes"
	"github.com/talgya/tellsim/internal/social"
	"github.com/talgya/tellsim/internal/world"
)

var testPyramids = map[int]demography.Cohorts{
	40: {8, 8, 6, 6, 4, 4, 2, 2},
	30: {6, 6, 5, 5, 3, 3, 1, 1},
	20: {4, 4, 3, 3, 2, 2, 1, 1},
}

// newVillage builds a one-settlement world with clans of the given sizes.
func newVillage(t *testing.T, seed int64, sink notes.Sink, sizes ...int) *World {
	t.Helper()
	reg := social.NewRegistry()
	cl := social.NewCluster(reg.NextClusterID())
	reg.AddCluster(cl)
	s := social.NewSettlement(reg.NextSettlementID(), "Reedford", world.HexCoord{}, cl.ID,
		world.Catchment{Arable: 120, Forage: 60, Fish: 30})
	require.NoError(t, reg.AddSettlement(s))
	for _, n := range sizes {
		cohorts, ok := testPyramids[n]
		require.True(t, ok, "no pyramid for size %d", n)
		c := social.NewClan(reg.NextClanID(), fmt.Sprintf("Clan%d", n))
		c.Cohorts = cohorts
		c.SettlementID = s.ID
		c.Housing = econ.Hut
		c.Skills.Level[econ.Agriculture] = 0.5
		c.Skills.Level[econ.Ritual] = 0.5
		require.NoError(t, reg.AddClan(c, social.NoClan))
	}
	return NewWorld(reg, entropy.NewRand(seed), sink, DefaultParams(), seed)
}

// terraceMap is a uniform map on which every hex is a valid site.
func terraceMap(radius int) *world.Map {
	m := world.NewMap(radius)
	for q := -radius; q <= radius; q++ {
		for r := -radius; r <= radius; r++ {
			c := world.HexCoord{Q: q, R: r}
			if m.InBounds(c) {
				m.Set(&world.Hex{Coord: c, Terrain: world.TerrainTerrace, Arable: 14, Forage: 6})
			}
		}
	}
	return m
}

func TestVillageIsReproducible(t *testing.T) {
	const turns = 8
	a := newVillage(t, 7, nil, 40, 30, 20)
	b := newVillage(t, 7, nil, 40, 30, 20)
	require.NoError(t, a.Run(turns))
	require.NoError(t, b.Run(turns))

	require.Len(t, a.Timeline, turns)
	assert.Equal(t, a.Timeline, b.Timeline)
	for _, c := range a.Registry.Clans() {
		assert.Equal(t, a.PrestigeViews(c.ID), b.PrestigeViews(c.ID))
		assert.Equal(t, a.AlignmentViews(c.ID), b.AlignmentViews(c.ID))
	}
}

// A constant source makes turn 1 of the standard village exact: every clan
// keeps its hut and shifts a tenth of its labor from fishing to farming,
// every marriage goes to the first partner, every birth is a girl and
// everyone survives the hazard draws.
func TestVillageFirstTurnGolden(t *testing.T) {
	w := newVillage(t, 7, nil, 40, 30, 20)
	w.Rand = &entropy.Stub{Uniforms: []float64{0.2}}

	snap, err := w.Step()
	require.NoError(t, err)

	s, ok := w.Registry.Settlement(1)
	require.True(t, ok)
	assert.Equal(t, 119, s.Population)
	assert.Equal(t, 119, snap.Population)
	assert.InDelta(t, 1.27*0.94, s.Rites.Quality, 1e-9)
	assert.Equal(t, 38, snap.Stats.Births)
	assert.Equal(t, 9, snap.Stats.Deaths)
	assert.Zero(t, snap.Stats.Migrations)

	want := map[int]demography.Cohorts{
		1: {17, 0, 8, 8, 7, 6, 4, 4},
		2: {13, 0, 6, 6, 5, 5, 3, 3},
		3: {7, 0, 4, 4, 2, 3, 2, 2},
	}
	for id, cohorts := range want {
		c, ok := w.Registry.Clan(id)
		require.True(t, ok)
		assert.Equal(t, cohorts, c.Cohorts, "clan %d", id)
		assert.Equal(t, econ.Hut, c.Housing)
		assert.InDelta(t, 58.391575/72, c.Subsistence, 1e-6, "clan %d", id)
	}
}

func TestSettlementPopulationMatchesClans(t *testing.T) {
	w := newVillage(t, 11, nil, 40, 30, 20)
	for turn := 1; turn <= 6; turn++ {
		snap, err := w.Step()
		require.NoError(t, err)
		assert.Equal(t, turn, snap.Turn)

		for _, s := range w.Registry.Settlements() {
			sum := 0
			for _, c := range w.Registry.ClansOf(s.ID) {
				sum += c.Population()
				assert.Equal(t, c.Cohorts.Total(), c.Population())
			}
			assert.Equal(t, sum, s.Population, "settlement %s turn %d", s.Name, turn)
		}
		assert.Equal(t, w.Population(), snap.Population)
	}
}

func TestStepRecordsStatsAndNotes(t *testing.T) {
	mem := &notes.Memory{}
	w := newVillage(t, 3, mem, 40, 30, 20)
	snap, err := w.Step()
	require.NoError(t, err)

	assert.Equal(t, w.Stats(), snap.Stats)
	assert.Positive(t, snap.Stats.Births)
	for _, n := range mem.Drain() {
		assert.Equal(t, 1, n.Turn)
	}
	for _, s := range snap.Settlements {
		if !s.Abandoned {
			assert.Greater(t, s.TellHeight, 0.0)
		}
	}
}

func TestLeaderFromPrestigeBallots(t *testing.T) {
	w := newVillage(t, 1, nil, 40, 30, 20)
	s, ok := w.Registry.Settlement(1)
	require.True(t, ok)
	require.Equal(t, []int{1, 2, 3}, s.Clans)

	w.Prestige.Seed(3, 1, 80)
	w.Prestige.Seed(3, 2, 40)
	w.Prestige.Seed(2, 1, 80)
	w.Prestige.Seed(2, 3, 30)
	w.Prestige.Seed(1, 2, 60)
	w.Prestige.Seed(1, 3, 50)
	res := w.Leader(s)
	require.True(t, res.Found)
	assert.Equal(t, 1, res.Leader)

	// 1 beats 2, 2 beats 3, 3 beats 1.
	w.Prestige.Seed(2, 1, 20)
	w.Prestige.Seed(2, 3, 70)
	res = w.Leader(s)
	assert.False(t, res.Found)
}

func TestSupplierFoundsOnce(t *testing.T) {
	w := newVillage(t, 5, nil, 40, 30)
	w.Map = terraceMap(5)
	source, _ := w.Registry.Settlement(1)

	sup := w.SupplierFor(source)
	_, ok := sup.Founded()
	assert.False(t, ok)

	first, ok, err := sup.Get()
	require.NoError(t, err)
	require.True(t, ok)
	second, ok, err := sup.Get()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, first, second)
	founded, ok := sup.Founded()
	require.True(t, ok)
	assert.Same(t, first, founded)

	d := world.Distance(source.Position, first.Position)
	assert.GreaterOrEqual(t, d, 2)
	assert.LessOrEqual(t, d, 4)
	assert.Equal(t, source.ID, first.Parent)
	assert.Equal(t, []int{first.ID}, source.Daughters)
	assert.Equal(t, source.ClusterID, first.ClusterID)
	require.NotNil(t, w.Map.Get(first.Position).SettlementID)
	assert.Equal(t, first.ID, *w.Map.Get(first.Position).SettlementID)
	assert.Equal(t, 1, w.Stats().Foundings)
}

func TestSupplierWithoutMap(t *testing.T) {
	w := newVillage(t, 5, nil, 40)
	source, _ := w.Registry.Settlement(1)
	_, ok, err := w.SupplierFor(source).Get()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, w.Registry.Settlements(), 1)
}

func TestMigrantsCoFoundOneSettlement(t *testing.T) {
	w := newVillage(t, 9, nil, 40, 30, 20)
	w.Map = terraceMap(5)
	newTarget := migration.Candidate{Option: migration.Option{SettlementID: migration.NewSettlement}}
	movers := []int{2, 3}
	for _, id := range movers {
		c, _ := w.Registry.Clan(id)
		c.Traits = econ.NewTraits(econ.Settled)
		c.Seniority = 3
		c.Plan = migration.Plan{Move: true, Target: newTarget}
	}

	require.NoError(t, w.executeMigration())
	require.Len(t, w.Registry.Settlements(), 2)
	dst := w.Registry.Settlements()[1]
	assert.Equal(t, movers, dst.Clans)
	for _, id := range movers {
		c, _ := w.Registry.Clan(id)
		assert.Equal(t, dst.ID, c.SettlementID)
		assert.Zero(t, c.Seniority)
		assert.True(t, c.Traits.Has(econ.Mobile))
		assert.False(t, c.Traits.Has(econ.Settled))
	}
	assert.Equal(t, 2, w.Stats().Migrations)
	require.NoError(t, w.Registry.CheckInvariants())
}

func TestMigrantsStayWithoutSite(t *testing.T) {
	w := newVillage(t, 9, nil, 40, 30)
	c, _ := w.Registry.Clan(2)
	c.Plan = migration.Plan{Move: true, Target: migration.Candidate{Option: migration.Option{SettlementID: migration.NewSettlement}}}

	require.NoError(t, w.executeMigration())
	assert.Equal(t, 1, c.SettlementID)
	assert.False(t, c.Plan.Move)
	assert.Zero(t, w.Stats().Migrations)
}

func TestAbandonmentLeavesTell(t *testing.T) {
	w := newVillage(t, 2, nil, 40)
	w.Map = terraceMap(5)
	source, _ := w.Registry.Settlement(1)
	source.TellHeight = 1.2
	c, _ := w.Registry.Clan(1)
	c.Plan = migration.Plan{Move: true, Target: migration.Candidate{Option: migration.Option{SettlementID: migration.NewSettlement}}}

	require.NoError(t, w.executeMigration())
	w.processAbandonment()
	assert.True(t, source.Abandoned)
	assert.Equal(t, 1.2, source.TellHeight)
	assert.Nil(t, w.Map.Get(source.Position).SettlementID)
	assert.Equal(t, 1, w.Stats().Abandonments)
	assert.Len(t, w.Registry.LiveSettlements(), 1)
	require.NoError(t, w.Registry.CheckInvariants())
}

func TestTurnErrorWrapsCause(t *testing.T) {
	w := newVillage(t, 4, nil, 40, 30)
	c, _ := w.Registry.Clan(1)
	c.Cohorts[0] = -1

	_, err := w.Step()
	require.Error(t, err)
	assert.ErrorContains(t, err, "negative")

	var te *TurnError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 1, te.Turn)
	assert.Equal(t, PhasePopulation, te.Phase)
	assert.Equal(t, 1, te.SettlementID)
	assert.Equal(t, 1, te.ClanID)
	assert.Empty(t, w.Timeline)
}

func TestTurnErrorMessage(t *testing.T) {
	err := &TurnError{Turn: 4, Phase: PhaseMigration, SettlementID: 2, ClanID: 7, Err: entropy.ErrExhaustedChoice}
	assert.Equal(t, "turn 4 migration settlement 2 clan 7: "+entropy.ErrExhaustedChoice.Error(), err.Error())
	assert.ErrorIs(t, err, entropy.ErrExhaustedChoice)
}

func TestClockFormatting(t *testing.T) {
	c := NewClock(DefaultStartYear, DefaultYearsPerTurn)
	assert.Equal(t, "Turn 0, 7,000 BCE (Early Neolithic)", c.String())
	c.Advance()
	assert.Equal(t, -6980, c.Year())
	assert.Equal(t, 20.0, c.YearsElapsed())
	assert.Equal(t, "1,250 CE", FormatYear(1250))
	assert.Equal(t, "Chalcolithic", EraName(-3500))
	assert.Equal(t, float64(DefaultYearsPerTurn), NewClock(0, -1).YearsPerTurn)
}

func TestEngineRunsTurnLimit(t *testing.T) {
	w := newVillage(t, 6, nil, 40, 30)
	e := NewEngine(w)
	var seen []int
	e.OnTurn = func(s Snapshot) error {
		seen = append(seen, s.Turn)
		return nil
	}
	require.NoError(t, e.Run(context.Background(), 3))
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestEngineStopsOnCallbackError(t *testing.T) {
	w := newVillage(t, 6, nil, 40, 30)
	e := NewEngine(w)
	boom := errors.New("disk full")
	e.OnTurn = func(s Snapshot) error {
		if s.Turn == 2 {
			return boom
		}
		return nil
	}
	err := e.Run(context.Background(), 0)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, w.Turn())
}

func TestEngineHonorsStop(t *testing.T) {
	w := newVillage(t, 6, nil, 40)
	e := NewEngine(w)
	e.OnTurn = func(s Snapshot) error {
		if s.Turn == 2 {
			e.Stop()
		}
		return nil
	}
	require.NoError(t, e.Run(context.Background(), 0))
	assert.Equal(t, 2, w.Turn())
}

func TestBootstrapBuildsValley(t *testing.T) {
	setup := DefaultSetup()
	setup.Seed = 42
	setup.Gen = world.SmallTestConfig()
	setup.Settlements = 3
	w, err := Bootstrap(setup, entropy.NewRand(42), nil, DefaultParams())
	require.NoError(t, err)

	assert.NotEmpty(t, w.RunID)
	assert.NotNil(t, w.Map)
	assert.NotEmpty(t, w.Registry.Clusters())
	for _, s := range w.Registry.Settlements() {
		assert.Len(t, s.Clans, setup.ClansPer)
		require.NotNil(t, w.Map.Get(s.Position).SettlementID)
	}
	require.NoError(t, w.Registry.CheckInvariants())

	_, err = w.Step()
	require.NoError(t, err)
}

func TestMigrantsGetViewsOfNewNeighbors(t *testing.T) {
	w := newVillage(t, 8, nil, 40, 30, 20)
	cl := w.Registry.Clusters()[0]
	far := social.NewSettlement(w.Registry.NextSettlementID(), "Ashmound", world.HexCoord{Q: 3}, cl.ID,
		world.Catchment{Arable: 80, Forage: 40, Fish: 20})
	require.NoError(t, w.Registry.AddSettlement(far))
	require.NoError(t, w.Registry.MoveClan(3, far.ID))
	w.updateAttitudes()
	_, ok := w.Prestige.Get(2, 3)
	require.False(t, ok)

	mover, _ := w.Registry.Clan(2)
	mover.Plan = migration.Plan{Move: true, Target: migration.Candidate{Option: migration.Option{SettlementID: far.ID}}}
	require.NoError(t, w.executeMigration())
	w.pruneViews()
	assert.Positive(t, w.seedViews())

	for _, pair := range [][2]int{{2, 3}, {3, 2}} {
		v, ok := w.Prestige.Get(pair[0], pair[1])
		require.True(t, ok, "prestige %v", pair)
		assert.Equal(t, NeutralView, v)
		v, ok = w.Alignment.Get(pair[0], pair[1])
		require.True(t, ok, "alignment %v", pair)
		assert.Equal(t, NeutralView, v)
		view, _ := w.Prestige.Calc(pair[0], pair[1])
		assert.False(t, view.Heritable)
	}
	_, ok = w.Prestige.Get(1, 2)
	assert.False(t, ok, "former neighbors lose their views")
	assert.Zero(t, w.seedViews(), "seeding is idempotent")
}

func TestHousingDecisionsSeeLastTurnDwellings(t *testing.T) {
	w := newVillage(t, 8, nil, 40, 30)
	w.Rand = &entropy.Stub{Uniforms: []float64{0.9}}
	require.NoError(t, w.processDecisions())

	first, _ := w.Registry.Clan(1)
	second, _ := w.Registry.Clan(2)
	assert.Equal(t, econ.Longhouse, first.Housing)
	assert.True(t, first.Rebuilt)

	// The second clan imitates the first clan's hut, not its new longhouse.
	d := second.HousingDecision
	assert.Equal(t, 1, d.Model)
	assert.Equal(t, econ.Hut, d.Imitated)
	assert.True(t, d.Flipped)
	assert.Equal(t, econ.Longhouse, second.Housing)
	assert.Greater(t, second.Labor.Housing, econ.Longhouse.Spec().Upkeep)
}

func TestMarriageFailureNamesClan(t *testing.T) {
	w := newVillage(t, 8, nil, 40, 30)
	w.Alignment.Seed(1, 2, math.NaN())
	w.Alignment.Seed(2, 1, math.NaN())

	err := w.marry(w.Registry.Clusters()[0])
	require.Error(t, err)
	var te *TurnError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, PhaseMarry, te.Phase)
	assert.Equal(t, 1, te.SettlementID)
	assert.Equal(t, 1, te.ClanID)
	assert.ErrorIs(t, err, entropy.ErrExhaustedChoice)
}
