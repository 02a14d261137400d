// Package attitude implements the iterative model-of-others views clans hold
// of each other. A view is the weight-normalized sum of an inferred item, a
// heritage item (last turn's committed value) and, in small settlements, the
// views of respected model clans. Updates are double buffered: every pending
// view is computed from committed state before any is committed.
package attitude

import (
	"fmt"
	"math"

	"github.com/talgya/tellsim/internal/calc"
)

// Inference is the domain-specific part of a view.
type Inference interface {
	Value() float64
}

// Factor is one labelled term of an inference.
type Factor struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ItemKind distinguishes the weighted items of a view.
type ItemKind uint8

const (
	ItemInferred ItemKind = iota
	ItemHeritage
	ItemModel
)

func (k ItemKind) String() string {
	switch k {
	case ItemInferred:
		return "inferred"
	case ItemHeritage:
		return "heritage"
	case ItemModel:
		return "model"
	}
	return "unknown"
}

// Item is one weighted input to a view. Model is set for ItemModel only.
type Item[K comparable] struct {
	Kind   ItemKind `json:"kind"`
	Model  K        `json:"model"`
	Weight float64  `json:"weight"`
	Value  float64  `json:"value"`
}

func (it Item[K]) String() string {
	if it.Kind == ItemModel {
		return fmt.Sprintf("model %v: %.1f x %.2f", it.Model, it.Value, it.Weight)
	}
	return fmt.Sprintf("%s: %.1f x %.2f", it.Kind, it.Value, it.Weight)
}

// Params are the item weights.
type Params struct {
	InferredWeight float64
	HeritageWeight float64
	ModelWeight    float64 // scaled by ModelBase^prestige
	ModelBase      float64
	ScaleThreshold int // settlements at or above this population skip models
}

// DefaultParams returns the standard weights.
func DefaultParams() Params {
	return Params{
		InferredWeight: 4,
		HeritageWeight: 4,
		ModelWeight:    0.25,
		ModelBase:      1.02,
		ScaleThreshold: 300,
	}
}

// weightFor is the weight given to a model clan the subject regards with
// the given prestige.
func (p Params) weightFor(prestige float64) float64 {
	return p.ModelWeight * math.Pow(p.ModelBase, calc.Clamp(prestige, -200, 200))
}

// Calc is one (subject, object) view with committed and pending state.
type Calc[K comparable, I Inference] struct {
	Inferred I         `json:"inferred"`
	Items    []Item[K] `json:"items"`
	Value    float64   `json:"value"`

	// Heritable is false until the first computed value is committed.
	// Seeded views are not heritable.
	Heritable bool `json:"heritable"`

	committed       bool
	pending         bool
	pendingInferred I
	pendingItems    []Item[K]
	pendingValue    float64
}

// Pending reports whether a staged update awaits commit.
func (c *Calc[K, I]) Pending() bool { return c.pending }

func (c *Calc[K, I]) stage(inferred I, items []Item[K]) {
	var num, den float64
	for _, it := range items {
		num += it.Weight * it.Value
		den += it.Weight
	}
	c.pendingInferred = inferred
	c.pendingItems = items
	c.pendingValue = calc.GuardNaN(calc.SafeDiv(num, den, inferred.Value()), 0)
	c.pending = true
}

func (c *Calc[K, I]) commit() {
	if !c.pending {
		return
	}
	c.Inferred = c.pendingInferred
	c.Items = c.pendingItems
	c.Value = c.pendingValue
	c.Heritable = true
	c.committed = true
	c.pending = false
	c.pendingItems = nil
}
