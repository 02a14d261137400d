// Read-only snapshots of the world, appended to the timeline once per turn
// and consumed by persistence and reporting.
package engine

import (
	"github.com/talgya/tellsim/internal/attitude"
	"github.com/talgya/tellsim/internal/demography"
	"github.com/talgya/tellsim/internal/social"
)

// TurnStats counts the events of one turn.
type TurnStats struct {
	Births       int `json:"births" db:"births"`
	Deaths       int `json:"deaths" db:"deaths"`
	Migrations   int `json:"migrations" db:"migrations"`
	Foundings    int `json:"foundings" db:"foundings"`
	Abandonments int `json:"abandonments" db:"abandonments"`
	Splits       int `json:"splits" db:"splits"`
	Merges       int `json:"merges" db:"merges"`
	Pruned       int `json:"pruned" db:"pruned"`
}

// ClanSnapshot is one clan at the end of a turn.
type ClanSnapshot struct {
	ID           int                `json:"id"`
	Name         string             `json:"name"`
	SettlementID int                `json:"settlement_id"`
	Population   int                `json:"population"`
	Cohorts      demography.Cohorts `json:"cohorts"`
	Housing      string             `json:"housing"`
	Traits       string             `json:"traits"`
	Seniority    int                `json:"seniority"`
	Subsistence  float64            `json:"subsistence"`
	Happiness    float64            `json:"happiness"`
	Prestige     float64            `json:"prestige"` // mean view held by co-residents
	Parent       int                `json:"parent"`
	Moved        bool               `json:"moved"`
}

// SettlementSnapshot is one settlement at the end of a turn.
type SettlementSnapshot struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	ClusterID    int     `json:"cluster_id"`
	Population   int     `json:"population"`
	Clans        int     `json:"clans"`
	TellHeight   float64 `json:"tell_height"`
	RitesQuality float64 `json:"rites_quality"`
	RitesPolicy  string  `json:"rites_policy"`
	LeaderID     *int    `json:"leader_id,omitempty"`
	Ditch        float64 `json:"ditch"`
	Flood        float64 `json:"flood"`
	Abandoned    bool    `json:"abandoned"`
}

// Snapshot is the world at the end of a turn.
type Snapshot struct {
	Turn        int                  `json:"turn"`
	Year        int                  `json:"year"`
	Era         string               `json:"era"`
	Population  int                  `json:"population"`
	Stats       TurnStats            `json:"stats"`
	Clans       []ClanSnapshot       `json:"clans"`
	Settlements []SettlementSnapshot `json:"settlements"`
}

// Snapshot captures the current world.
func (w *World) Snapshot() Snapshot {
	snap := Snapshot{
		Turn:  w.Clock.Turn,
		Year:  w.Clock.Year(),
		Era:   w.Clock.Era(),
		Stats: w.stats,
	}
	for _, c := range w.Registry.Clans() {
		snap.Clans = append(snap.Clans, ClanSnapshot{
			ID:           c.ID,
			Name:         c.Name,
			SettlementID: c.SettlementID,
			Population:   c.Population(),
			Cohorts:      c.Cohorts,
			Housing:      c.Housing.String(),
			Traits:       c.Traits.String(),
			Seniority:    c.Seniority,
			Subsistence:  c.Subsistence,
			Happiness:    c.Happiness.Value,
			Prestige:     w.meanPrestige(c),
			Parent:       c.Parent,
			Moved:        c.Plan.Move,
		})
	}
	for _, s := range w.Registry.Settlements() {
		ss := SettlementSnapshot{
			ID:         s.ID,
			Name:       s.Name,
			ClusterID:  s.ClusterID,
			Population: s.Population,
			Clans:      len(s.Clans),
			TellHeight: s.TellHeight,
			Ditch:      s.Ditch.Quality,
			Flood:      s.Flood,
			Abandoned:  s.Abandoned,
		}
		if s.Rites != nil {
			ss.RitesQuality = s.Rites.Quality
			ss.RitesPolicy = s.Rites.Policy.String()
		}
		if s.LeaderID != nil {
			id := *s.LeaderID
			ss.LeaderID = &id
		}
		if !s.Abandoned {
			snap.Population += s.Population
		}
		snap.Settlements = append(snap.Settlements, ss)
	}
	return snap
}

// ClanDetail is the full state of one clan with the views it holds:
// cohorts, productivity breakdown, ledger, trade links and migration plan.
type ClanDetail struct {
	*social.Clan
	PrestigeViews  map[int]float64 `json:"prestige_views"`
	AlignmentViews map[int]float64 `json:"alignment_views"`
	MigrationTable string          `json:"migration_table,omitempty"`
}

// ClanDetail looks up one clan. The result shares the clan's state and is
// only valid until the next turn.
func (w *World) ClanDetail(id int) (ClanDetail, bool) {
	c, ok := w.Registry.Clan(id)
	if !ok {
		return ClanDetail{}, false
	}
	d := ClanDetail{
		Clan:           c,
		PrestigeViews:  w.PrestigeViews(id),
		AlignmentViews: w.AlignmentViews(id),
	}
	if c.Plan.Calc != nil {
		d.MigrationTable = c.Plan.Calc.Table()
	}
	return d, true
}

// SettlementDetail is one settlement with its leadership contest.
type SettlementDetail struct {
	*social.Settlement
	Leadership attitude.CondorcetResult[int] `json:"leadership"`
}

// SettlementDetail looks up one settlement, valid until the next turn.
func (w *World) SettlementDetail(id int) (SettlementDetail, bool) {
	s, ok := w.Registry.Settlement(id)
	if !ok {
		return SettlementDetail{}, false
	}
	return SettlementDetail{Settlement: s, Leadership: w.Leader(s)}, true
}
