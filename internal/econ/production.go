package econ

import (
	"encoding/json"
	"math"

	"github.com/talgya/tellsim/internal/calc"
)

// OutputPerWorker is the per-worker yield of each discretionary skill at TFP 1.
var OutputPerWorker = [NumDiscretionary]float64{1.6, 1.3, 1.0, 0.6}

// Item is one labelled factor of a breakdown.
type Item struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Productivity is a clan's TFP for one skill with its factors kept for
// display.
type Productivity struct {
	Skill Skill   `json:"skill"`
	Items []Item  `json:"items"`
	Value float64 `json:"value"`
}

// FloodFactor is agricultural TFP from flood level f in [0,1]: moderate
// floods fertilize, high floods destroy unless ditches hold them back.
func FloodFactor(f, ditchQuality float64) float64 {
	f = calc.Clamp(f, 0, 1)
	ditch := calc.Clamp(ditchQuality, 0, 1)
	return math.Max(0, 1+0.3*f-1.5*math.Max(0, f-0.6)*(1-ditch))
}

// ComputeTFP multiplies skill level, traits and (agriculture only) the flood
// factor.
func ComputeTFP(skill Skill, level float64, traits Traits, flood, ditchQuality float64) Productivity {
	p := Productivity{Skill: skill}
	p.Items = append(p.Items,
		Item{Label: "skill", Value: 0.5 + calc.Clamp(level, 0, 1)},
		Item{Label: "traits", Value: traits.ProductionMultiplier(skill)},
	)
	if skill == Agriculture {
		p.Items = append(p.Items, Item{Label: "flood", Value: FloodFactor(flood, ditchQuality)})
	}
	v := 1.0
	for _, it := range p.Items {
		v *= it.Value
	}
	p.Value = math.Max(0, calc.GuardNaN(v, 0))
	return p
}

// Contribution is one clan's input to and output from a production node.
type Contribution struct {
	ClanID  int     `json:"clan_id"`
	Workers float64 `json:"workers"`
	TFP     float64 `json:"tfp"`
	Land    float64 `json:"land"`
	Output  float64 `json:"output"`
}

// ProductionNode aggregates one skill's workers and land in a settlement.
type ProductionNode struct {
	Skill    Skill          `json:"skill"`
	Land     float64        `json:"land"` // +Inf when land does not bind
	Contribs []Contribution `json:"contribs"`
	Output   float64        `json:"output"`
}

// finite maps unbounded land to nil so it encodes as JSON null.
func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func (c Contribution) MarshalJSON() ([]byte, error) {
	type plain Contribution
	return json.Marshal(struct {
		plain
		Land *float64 `json:"land"`
	}{plain(c), finite(c.Land)})
}

func (n ProductionNode) MarshalJSON() ([]byte, error) {
	type plain ProductionNode
	return json.Marshal(struct {
		plain
		Land *float64 `json:"land"`
	}{plain(n), finite(n.Land)})
}

// NewProductionNode creates an empty node.
func NewProductionNode(skill Skill, land float64) *ProductionNode {
	return &ProductionNode{Skill: skill, Land: land}
}

// Reset clears contributions and sets the land available this turn.
func (n *ProductionNode) Reset(land float64) {
	n.Land = land
	n.Contribs = n.Contribs[:0]
	n.Output = 0
}

// AddWorkers registers a clan's workers at its TFP.
func (n *ProductionNode) AddWorkers(clanID int, workers, tfp float64) {
	n.Contribs = append(n.Contribs, Contribution{ClanID: clanID, Workers: math.Max(0, workers), TFP: tfp})
}

// Workers sums registered workers.
func (n *ProductionNode) Workers() float64 {
	w := 0.0
	for _, c := range n.Contribs {
		w += c.Workers
	}
	return w
}

// Produce partitions land by worker share and computes each clan's output
// as outputPerWorker x min(land, workers) x TFP. Returns the node total.
func (n *ProductionNode) Produce() float64 {
	total := n.Workers()
	opw := OutputPerWorker[n.Skill]
	n.Output = 0
	for i := range n.Contribs {
		c := &n.Contribs[i]
		if c.Workers <= 0 || total <= 0 {
			c.Land, c.Output = 0, 0
			continue
		}
		c.Land = n.Land * c.Workers / total
		c.Output = calc.GuardNaN(opw*math.Min(c.Land, c.Workers)*c.TFP, 0)
		n.Output += c.Output
	}
	return n.Output
}

// Of returns the contribution of one clan, if any.
func (n *ProductionNode) Of(clanID int) (Contribution, bool) {
	for _, c := range n.Contribs {
		if c.ClanID == clanID {
			return c, true
		}
	}
	return Contribution{}, false
}

// CommonsShare is the land a settlement's fishers may use: the cluster
// commons split by the settlement's share of cluster-wide fishing workers.
func CommonsShare(commonsLand, localWorkers, clusterWorkers float64) float64 {
	if clusterWorkers <= 0 {
		return 0
	}
	return commonsLand * localWorkers / clusterWorkers
}

// DistributionNode pools a settlement's output and hands it out by
// population share.
type DistributionNode struct {
	Totals [NumGoods]float64 `json:"totals"`
}

// Reset empties the pool.
func (d *DistributionNode) Reset() { d.Totals = [NumGoods]float64{} }

// Collect adds output to the pool.
func (d *DistributionNode) Collect(g Good, amount float64) { d.Totals[g] += amount }

// Distribute returns each recipient's share of every good, proportional to
// population. Zero total population yields all zeros.
func (d *DistributionNode) Distribute(populations []int) [][NumGoods]float64 {
	out := make([][NumGoods]float64, len(populations))
	total := 0
	for _, p := range populations {
		total += p
	}
	if total <= 0 {
		return out
	}
	for i, p := range populations {
		share := float64(p) / float64(total)
		for g := range d.Totals {
			out[i][g] = d.Totals[g] * share
		}
	}
	return out
}
