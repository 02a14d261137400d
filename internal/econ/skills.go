// Package econ covers the subsistence economy: skills and traits, goods and
// consumption ledgers, production and distribution nodes, labor allocation,
// housing choice and quality of life.
package econ

import "github.com/talgya/tellsim/internal/calc"

// Skill is a domain of proficiency.
type Skill uint8

const (
	Agriculture Skill = iota
	Fishing
	Foraging
	Crafting
	Ritual
	NumSkills
)

// NumDiscretionary is the number of skills that take labor.
const NumDiscretionary = 4

// Discretionary lists the labor-taking skills in plan order.
var Discretionary = [NumDiscretionary]Skill{Agriculture, Fishing, Foraging, Crafting}

var skillNames = [NumSkills]string{"agriculture", "fishing", "foraging", "crafting", "ritual"}

func (s Skill) String() string {
	if s < NumSkills {
		return skillNames[s]
	}
	return "unknown"
}

// LearningRate scales how fast labor share moves a skill level.
const LearningRate = 0.05

// Skills holds committed levels in [0,1] and the pending change applied at
// commit time.
type Skills struct {
	Level   [NumSkills]float64 `json:"level"`
	Pending [NumSkills]float64 `json:"pending"`
}

// Get returns the committed level.
func (s *Skills) Get(skill Skill) float64 { return s.Level[skill] }

// Learn accumulates a pending change, bounded so the committed level stays
// in [0,1] after commit.
func (s *Skills) Learn(skill Skill, delta float64) {
	next := s.Pending[skill] + calc.GuardNaN(delta, 0)
	s.Pending[skill] = calc.Clamp(s.Level[skill]+next, 0, 1) - s.Level[skill]
}

// Commit applies and clears pending changes.
func (s *Skills) Commit() {
	for i := range s.Level {
		s.Level[i] = calc.Clamp(s.Level[i]+s.Pending[i], 0, 1)
		s.Pending[i] = 0
	}
}

// LearnByDoing moves each discretionary skill by the share of discretionary
// labor it received relative to an even split.
func (s *Skills) LearnByDoing(plan Plan) {
	for i, skill := range Discretionary {
		s.Learn(skill, LearningRate*(plan[i]-1.0/NumDiscretionary))
	}
}

// BlendSkills returns the population-weighted mean of two skill sets.
// Pending changes are dropped.
func BlendSkills(a Skills, wa float64, b Skills, wb float64) Skills {
	var out Skills
	for i := range out.Level {
		out.Level[i] = calc.WeightedMean([]float64{a.Level[i], b.Level[i]}, []float64{wa, wb})
	}
	return out
}
