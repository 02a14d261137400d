// Package demography advances clan age/sex cohorts by one turn: births,
// infant disease deaths and tiered hazard mortality.
package demography

import (
	"fmt"
	"strings"
)

// Sex indexes the two cohort columns.
type Sex uint8

const (
	Female Sex = 0
	Male   Sex = 1
)

// Tiers is the number of age tiers. One turn moves every survivor up a tier.
//
//	tier 0: 0-19 years, tier 1: 20-39, tier 2: 40-59, tier 3: 60+
const Tiers = 4

// Cohorts holds head counts laid out as tier*2 + sex.
type Cohorts [Tiers * 2]int

// Index returns the slot for a tier and sex.
func Index(tier int, sex Sex) int { return tier*2 + int(sex) }

// Get returns the head count of one slot.
func (c Cohorts) Get(tier int, sex Sex) int { return c[Index(tier, sex)] }

// Set assigns the head count of one slot.
func (c *Cohorts) Set(tier int, sex Sex, n int) { c[Index(tier, sex)] = n }

// Total is the population represented by the cohorts.
func (c Cohorts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Add returns the element-wise sum.
func (c Cohorts) Add(o Cohorts) Cohorts {
	var out Cohorts
	for i := range c {
		out[i] = c[i] + o[i]
	}
	return out
}

// Sub returns the element-wise difference.
func (c Cohorts) Sub(o Cohorts) Cohorts {
	var out Cohorts
	for i := range c {
		out[i] = c[i] - o[i]
	}
	return out
}

// Validate reports a negative slot.
func (c Cohorts) Validate() error {
	for i, v := range c {
		if v < 0 {
			return fmt.Errorf("cohort slot %d (tier %d, sex %d) is negative: %d", i, i/2, i%2, v)
		}
	}
	return nil
}

// String renders the cohorts as F/M pairs per tier.
func (c Cohorts) String() string {
	var b strings.Builder
	for t := 0; t < Tiers; t++ {
		if t > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d:%d/%d", t, c.Get(t, Female), c.Get(t, Male))
	}
	return b.String()
}
