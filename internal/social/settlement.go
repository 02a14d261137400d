package social

import (
	"math"

	"github.com/talgya/tellsim/internal/econ"
	"github.com/talgya/tellsim/internal/rites"
	"github.com/talgya/tellsim/internal/world"
)

// TellGrowth is the tell height added per occupied year, in meters.
const TellGrowth = 0.02

// Settlement is a village on the valley floor holding an ordered list of
// clans.
type Settlement struct {
	ID        int            `json:"id"`
	Name      string         `json:"name"`
	Position  world.HexCoord `json:"position"`
	ClusterID int            `json:"cluster_id"`

	// Clans in residence order.
	Clans      []int `json:"clans"`
	Population int   `json:"population"` // cached sum of clan populations

	// Economy
	Land         world.Catchment                            `json:"land"`
	Production   [econ.NumDiscretionary]*econ.ProductionNode `json:"production"`
	Distribution econ.DistributionNode                      `json:"distribution"`
	Ditch        econ.Ditch                                 `json:"ditch"`
	Flood        float64                                    `json:"flood"` // this turn's level

	// Ritual and leadership
	Rites    *rites.Rites `json:"rites"`
	LeaderID *int         `json:"leader_id,omitempty"`

	// History
	TellHeight float64 `json:"tell_height"` // meters, never decreases
	Parent     int     `json:"parent"`      // founding settlement, 0 for initial ones
	Daughters  []int   `json:"daughters"`
	Founded    int     `json:"founded"`
	Abandoned  bool    `json:"abandoned"`
}

// NewSettlement creates an empty settlement with one production node per
// discretionary skill.
func NewSettlement(id int, name string, pos world.HexCoord, clusterID int, land world.Catchment) *Settlement {
	s := &Settlement{
		ID:        id,
		Name:      name,
		Position:  pos,
		ClusterID: clusterID,
		Land:      land,
		Rites:     rites.New(rites.Equal),
	}
	for i, skill := range econ.Discretionary {
		s.Production[i] = econ.NewProductionNode(skill, 0)
	}
	return s
}

// LandFor is the land available to a skill's node before the fishing
// commons is applied. Crafting does not bind.
func (s *Settlement) LandFor(skill econ.Skill) float64 {
	switch skill {
	case econ.Agriculture:
		return s.Land.Arable
	case econ.Foraging:
		return s.Land.Forage
	case econ.Fishing:
		return s.Land.Fish
	}
	return math.Inf(1)
}

// HasClan reports residence.
func (s *Settlement) HasClan(id int) bool {
	return s.indexOf(id) >= 0
}

func (s *Settlement) indexOf(id int) int {
	for i, cid := range s.Clans {
		if cid == id {
			return i
		}
	}
	return -1
}

// addClan appends a clan, or inserts it right after another resident.
func (s *Settlement) addClan(id, after int) {
	if s.HasClan(id) {
		return
	}
	if i := s.indexOf(after); i >= 0 {
		s.Clans = append(s.Clans, 0)
		copy(s.Clans[i+2:], s.Clans[i+1:])
		s.Clans[i+1] = id
		return
	}
	s.Clans = append(s.Clans, id)
}

func (s *Settlement) removeClan(id int) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.Clans = append(s.Clans[:i], s.Clans[i+1:]...)
	return true
}

// GrowTell raises the tell for a turn of occupation.
func (s *Settlement) GrowTell(yearsPerTurn float64) {
	if len(s.Clans) > 0 && yearsPerTurn > 0 {
		s.TellHeight += TellGrowth * yearsPerTurn
	}
}
