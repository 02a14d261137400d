package econ

import "sort"

// Good is a produced and consumed commodity.
type Good uint8

const (
	Grain Good = iota
	Fish
	Game
	Crafts
	NumGoods
)

var goodNames = [NumGoods]string{"grain", "fish", "game", "crafts"}

func (g Good) String() string {
	if g < NumGoods {
		return goodNames[g]
	}
	return "unknown"
}

// IsFood reports whether the good counts toward subsistence.
func (g Good) IsFood() bool { return g != Crafts }

// FoodNeed is the food one person consumes per turn at subsistence 1.
const FoodNeed = 0.8

// GoodFor maps a discretionary skill to the good it yields.
func GoodFor(s Skill) (Good, bool) {
	switch s {
	case Agriculture:
		return Grain, true
	case Fishing:
		return Fish, true
	case Foraging:
		return Game, true
	case Crafting:
		return Crafts, true
	}
	return 0, false
}

// Ledger sources.
const (
	SourceCommons  = "commons"
	SourceExchange = "exchange"
)

// Ledger records consumption as good -> source -> amount.
type Ledger map[Good]map[string]float64

// NewLedger returns an empty ledger.
func NewLedger() Ledger { return make(Ledger) }

// Add records an amount; negative amounts record outflows.
func (l Ledger) Add(g Good, source string, amount float64) {
	m := l[g]
	if m == nil {
		m = make(map[string]float64)
		l[g] = m
	}
	m[source] += amount
}

// Amount returns the recorded amount for one source.
func (l Ledger) Amount(g Good, source string) float64 { return l[g][source] }

// Total sums a good over its sources in sorted order, so repeated runs
// round identically.
func (l Ledger) Total(g Good) float64 {
	t := 0.0
	for _, s := range l.Sources(g) {
		t += l[g][s]
	}
	return t
}

// Food sums every food good.
func (l Ledger) Food() float64 {
	t := 0.0
	for g := Good(0); g < NumGoods; g++ {
		if g.IsFood() {
			t += l.Total(g)
		}
	}
	return t
}

// Sources returns the sources recorded for a good, sorted.
func (l Ledger) Sources(g Good) []string {
	out := make([]string, 0, len(l[g]))
	for s := range l[g] {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for g, m := range l {
		cp := make(map[string]float64, len(m))
		for s, v := range m {
			cp[s] = v
		}
		out[g] = cp
	}
	return out
}

// Split moves fraction of every entry into a new ledger. The receiver keeps
// the remainder, so each good's total is conserved across the pair.
func (l Ledger) Split(fraction float64) Ledger {
	moved := NewLedger()
	for g, m := range l {
		for s, v := range m {
			part := v * fraction
			moved.Add(g, s, part)
			m[s] = v - part
		}
	}
	return moved
}

// Merge adds every entry of o into l.
func (l Ledger) Merge(o Ledger) {
	for g, m := range o {
		for s, v := range m {
			l.Add(g, s, v)
		}
	}
}

// Reset clears the ledger in place.
func (l Ledger) Reset() {
	for g := range l {
		delete(l, g)
	}
}
