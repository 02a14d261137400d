// Package social holds the entity graph of the simulation: clans, the
// settlements they live in and the clusters of settlements sharing a
// fishing commons and a disease pool. Entities refer to each other by
// stable integer id through a Registry.
package social

import (
	"github.com/talgya/tellsim/internal/demography"
	"github.com/talgya/tellsim/internal/econ"
	"github.com/talgya/tellsim/internal/migration"
)

// NoClan is the zero id; live clans are numbered from 1.
const NoClan = 0

// MaxSeniority bounds a clan's seniority counter.
const MaxSeniority = 5

// Clan is a kin group with its own cohorts, economy and social ties.
type Clan struct {
	ID   int    `json:"id"`
	Name string `json:"name"`

	// Demographics
	Cohorts    demography.Cohorts          `json:"cohorts"`
	LastChange demography.PopulationChange `json:"last_change"`

	// Economy
	Skills          econ.Skills          `json:"skills"`
	Traits          econ.Traits          `json:"traits"`
	PendingTraits   econ.Traits          `json:"pending_traits"`
	TraitsStaged    bool                 `json:"traits_staged"`
	Housing         econ.Housing         `json:"housing"`
	Rebuilt         bool                 `json:"rebuilt"` // housing changed this turn
	HousingDecision econ.HousingDecision `json:"housing_decision"`
	Labor           econ.Labor           `json:"labor"`
	Experiment      econ.Experiment      `json:"experiment"`
	Productivity    []econ.Productivity  `json:"productivity"` // per discretionary skill
	Ledger          econ.Ledger          `json:"ledger"`
	Subsistence     float64              `json:"subsistence"`
	Happiness       econ.QoL             `json:"happiness"`

	// Kinship and marriage
	Parent      int             `json:"parent"` // NoClan when none
	Cadets      []int           `json:"cadets"`
	Relatedness map[int]float64 `json:"relatedness"` // partner clan -> relatedness
	TradeLinks  map[int]float64 `json:"trade_links"` // partner clan -> net food given this turn

	// Residence
	SettlementID int            `json:"settlement_id"`
	Seniority    int            `json:"seniority"`
	Plan         migration.Plan `json:"plan"`
	Founded      int            `json:"founded"` // turn created
}

// NewClan creates an empty clan with initialized maps.
func NewClan(id int, name string) *Clan {
	return &Clan{
		ID:          id,
		Name:        name,
		Ledger:      econ.NewLedger(),
		Relatedness: make(map[int]float64),
		TradeLinks:  make(map[int]float64),
		Labor:       econ.Labor{Plan: econ.DefaultPlan()},
	}
}

// Population is the cohort sum.
func (c *Clan) Population() int { return c.Cohorts.Total() }

// StageTraits records a trait set to take effect at commit.
func (c *Clan) StageTraits(t econ.Traits) {
	c.PendingTraits = t
	c.TraitsStaged = true
}

// CommitTraits applies staged traits and committed skill changes.
func (c *Clan) CommitTraits() {
	if c.TraitsStaged {
		c.Traits = c.PendingTraits
		c.TraitsStaged = false
	}
	c.Skills.Commit()
}

// AdvanceSeniority increments seniority up to MaxSeniority.
func (c *Clan) AdvanceSeniority() {
	if c.Seniority < MaxSeniority {
		c.Seniority++
	}
}

// HasCadet reports whether id is one of the clan's cadets.
func (c *Clan) HasCadet(id int) bool {
	for _, cid := range c.Cadets {
		if cid == id {
			return true
		}
	}
	return false
}

func (c *Clan) removeCadet(id int) {
	out := c.Cadets[:0]
	for _, cid := range c.Cadets {
		if cid != id {
			out = append(out, cid)
		}
	}
	c.Cadets = out
}

// FoodPerCapita is the food in the ledger per head.
func (c *Clan) FoodPerCapita() float64 {
	if c.Population() == 0 {
		return 0
	}
	return c.Ledger.Food() / float64(c.Population())
}
