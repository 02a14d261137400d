package econ

import (
	"math"

	"github.com/talgya/tellsim/internal/calc"
	"github.com/talgya/tellsim/internal/demography"
	"github.com/talgya/tellsim/internal/entropy"
)

// Plan is the planned split of discretionary labor, indexed like
// Discretionary. It sums to 1.
type Plan [NumDiscretionary]float64

// DefaultPlan is the starting split for new clans.
func DefaultPlan() Plan { return Plan{0.4, 0.25, 0.25, 0.1} }

// Normalize clamps negatives and rescales to sum 1. An all-zero plan
// becomes an even split.
func (p Plan) Normalize() Plan {
	sum := 0.0
	for i := range p {
		p[i] = math.Max(0, calc.GuardNaN(p[i], 0))
		sum += p[i]
	}
	if sum <= 0 {
		for i := range p {
			p[i] = 1.0 / NumDiscretionary
		}
		return p
	}
	for i := range p {
		p[i] /= sum
	}
	return p
}

// Shift moves delta of the plan from one skill slot to another, bounded by
// what the source slot holds.
func (p Plan) Shift(from, to int, delta float64) Plan {
	if delta < 0 {
		from, to, delta = to, from, -delta
	}
	delta = math.Min(delta, p[from])
	p[from] -= delta
	p[to] += delta
	return p.Normalize()
}

// Labor is a clan's allocation: mandatory reservations first, the remainder
// split by plan.
type Labor struct {
	Housing    float64 `json:"housing"`
	Irrigation float64 `json:"irrigation"`
	Plan       Plan    `json:"plan"`
}

// Discretionary is the fraction left after reservations.
func (l Labor) Discretionary() float64 {
	return calc.Clamp(1-l.Housing-l.Irrigation, 0, 1)
}

// Share returns the total labor fraction going to a discretionary slot.
func (l Labor) Share(slot int) float64 { return l.Discretionary() * l.Plan[slot] }

// Fractions lists every allocation, reservations first; the sum is at most 1.
func (l Labor) Fractions() []Item {
	items := []Item{
		{Label: "housing", Value: math.Min(l.Housing, 1)},
		{Label: "irrigation", Value: math.Min(l.Irrigation, math.Max(0, 1-l.Housing))},
	}
	for i, s := range Discretionary {
		items = append(items, Item{Label: s.String(), Value: l.Share(i)})
	}
	return items
}

// Workforce counts working-age adults plus a quarter of the young.
func Workforce(c demography.Cohorts) float64 {
	adults := 0
	for _, tier := range []int{1, 2} {
		adults += c.Get(tier, demography.Female) + c.Get(tier, demography.Male)
	}
	young := c.Get(0, demography.Female) + c.Get(0, demography.Male)
	return float64(adults) + 0.25*float64(young)
}

// Forecast estimates how a plan would feed a clan, ignoring land limits.
type Forecast struct {
	Population    int                       `json:"population"`
	Workforce     float64                   `json:"workforce"`
	Discretionary float64                   `json:"discretionary"`
	Yield         [NumDiscretionary]float64 `json:"yield"` // output per worker: outputPerWorker x TFP
}

// Appeal predicts the subsistence and crafts happiness of a plan.
func (f Forecast) Appeal(p Plan) float64 {
	if f.Population <= 0 {
		return 0
	}
	var food, crafts float64
	for i, s := range Discretionary {
		out := f.Workforce * f.Discretionary * p[i] * f.Yield[i]
		g, _ := GoodFor(s)
		if g.IsFood() {
			food += out
		} else {
			crafts += out
		}
	}
	pop := float64(f.Population)
	return SubsistenceAppeal(food/(pop*FoodNeed)) + 0.5*crafts/pop
}

// Scenario is one candidate plan with its predicted appeal.
type Scenario struct {
	Label  string  `json:"label"`
	Plan   Plan    `json:"plan"`
	Appeal float64 `json:"appeal"`
}

// Experiment records a clan's labor experimentation decision.
type Experiment struct {
	Happiness   float64    `json:"happiness"`
	Probability float64    `json:"probability"`
	Tried       bool       `json:"tried"`
	From        Skill      `json:"from"`
	To          Skill      `json:"to"`
	Scenarios   []Scenario `json:"scenarios"`
	Chosen      int        `json:"chosen"`
}

// ExperimentStep is the reallocation tried between two skills.
const ExperimentStep = 0.10

// ExperimentProbability is 1/(1+e^h): unhappy clans experiment more.
func ExperimentProbability(happiness float64) float64 {
	return calc.Logistic(-happiness)
}

// ExperimentPlan decides whether to try a new plan and, if so, evaluates the
// status quo, +10% and -10% reallocation between two random discretionary
// skills, adopting the best. Ties keep the earlier scenario.
func ExperimentPlan(src entropy.Source, current Plan, happiness float64, f Forecast) (Plan, Experiment) {
	ex := Experiment{Happiness: happiness, Probability: ExperimentProbability(happiness)}
	if !entropy.Bernoulli(src, ex.Probability) {
		return current, ex
	}
	ex.Tried = true
	a := entropy.Intn(src, NumDiscretionary)
	b := entropy.Intn(src, NumDiscretionary-1)
	if b >= a {
		b++
	}
	ex.From, ex.To = Discretionary[a], Discretionary[b]
	ex.Scenarios = []Scenario{
		{Label: "status quo", Plan: current},
		{Label: "+10%", Plan: current.Shift(b, a, ExperimentStep)},
		{Label: "-10%", Plan: current.Shift(a, b, ExperimentStep)},
	}
	for i := range ex.Scenarios {
		ex.Scenarios[i].Appeal = f.Appeal(ex.Scenarios[i].Plan)
		if ex.Scenarios[i].Appeal > ex.Scenarios[ex.Chosen].Appeal {
			ex.Chosen = i
		}
	}
	return ex.Scenarios[ex.Chosen].Plan, ex
}
