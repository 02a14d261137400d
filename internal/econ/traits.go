package econ

import "strings"

// Trait is a personality tag carried by a clan.
type Trait uint8

const (
	Settled Trait = iota
	Mobile
	Industrious
	Pious
	Bold
	numTraits
)

var traitNames = [numTraits]string{"settled", "mobile", "industrious", "pious", "bold"}

func (t Trait) String() string {
	if t < numTraits {
		return traitNames[t]
	}
	return "unknown"
}

// ParseTrait maps a name back to its trait.
func ParseTrait(name string) (Trait, bool) {
	for i, n := range traitNames {
		if n == name {
			return Trait(i), true
		}
	}
	return 0, false
}

// Traits is a set of tags. Settled and Mobile are mutually exclusive.
type Traits uint8

// NewTraits builds a set from tags.
func NewTraits(ts ...Trait) Traits {
	var out Traits
	for _, t := range ts {
		out = out.With(t)
	}
	return out
}

// Has reports membership.
func (ts Traits) Has(t Trait) bool { return ts&(1<<t) != 0 }

// With adds a tag, dropping its exclusive counterpart.
func (ts Traits) With(t Trait) Traits {
	switch t {
	case Settled:
		ts = ts.Without(Mobile)
	case Mobile:
		ts = ts.Without(Settled)
	}
	return ts | 1<<t
}

// Without removes a tag.
func (ts Traits) Without(t Trait) Traits { return ts &^ (1 << t) }

// List returns the tags in declaration order.
func (ts Traits) List() []Trait {
	var out []Trait
	for t := Trait(0); t < numTraits; t++ {
		if ts.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

func (ts Traits) String() string {
	names := make([]string, 0, numTraits)
	for _, t := range ts.List() {
		names = append(names, t.String())
	}
	return strings.Join(names, ",")
}

// AfterMove is the set a clan carries after migrating: settled turns mobile.
func (ts Traits) AfterMove() Traits {
	if ts.Has(Settled) {
		return ts.With(Mobile)
	}
	return ts
}

// ProductionMultiplier is the trait contribution to a skill's TFP.
func (ts Traits) ProductionMultiplier(s Skill) float64 {
	m := 1.0
	if ts.Has(Industrious) && s != Ritual {
		m *= 1.10
	}
	switch {
	case ts.Has(Settled) && s == Agriculture:
		m *= 1.10
	case ts.Has(Mobile) && s == Foraging:
		m *= 1.15
	case ts.Has(Mobile) && s == Agriculture:
		m *= 0.95
	}
	return m
}

// RitualMultiplier scales ritual effectiveness.
func (ts Traits) RitualMultiplier() float64 {
	if ts.Has(Pious) {
		return 1.2
	}
	return 1
}

// StrengthMultiplier scales the strength term of prestige.
func (ts Traits) StrengthMultiplier() float64 {
	if ts.Has(Bold) {
		return 1.1
	}
	return 1
}
