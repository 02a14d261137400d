// Turn clock: eras and calendar years.
package engine

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Calendar defaults.
const (
	DefaultYearsPerTurn = 20
	DefaultStartYear    = -7000
)

// Clock tracks the turn counter and converts it to calendar years.
type Clock struct {
	Turn         int     `json:"turn"`
	StartYear    int     `json:"start_year"` // negative is BCE
	YearsPerTurn float64 `json:"years_per_turn"`
}

// NewClock creates a clock at turn 0.
func NewClock(startYear int, yearsPerTurn float64) Clock {
	if yearsPerTurn <= 0 {
		yearsPerTurn = DefaultYearsPerTurn
	}
	return Clock{StartYear: startYear, YearsPerTurn: yearsPerTurn}
}

// Advance moves to the next turn.
func (c *Clock) Advance() { c.Turn++ }

// YearsElapsed is the time since turn 0.
func (c Clock) YearsElapsed() float64 { return float64(c.Turn) * c.YearsPerTurn }

// Year is the calendar year of the current turn.
func (c Clock) Year() int { return c.StartYear + int(c.YearsElapsed()) }

// Era names the archaeological period of the current year.
func (c Clock) Era() string {
	return EraName(c.Year())
}

// EraName returns a human-readable era for a calendar year.
func EraName(year int) string {
	switch {
	case year < -6000:
		return "Early Neolithic"
	case year < -5000:
		return "Middle Neolithic"
	case year < -4000:
		return "Late Neolithic"
	case year < -3000:
		return "Chalcolithic"
	default:
		return "Bronze Age"
	}
}

// FormatYear renders a year as "7,000 BCE" or "120 CE".
func FormatYear(year int) string {
	if year < 0 {
		return humanize.Comma(int64(-year)) + " BCE"
	}
	return humanize.Comma(int64(year)) + " CE"
}

// String returns the clock as "Turn 3, 6,940 BCE (Early Neolithic)".
func (c Clock) String() string {
	return fmt.Sprintf("Turn %d, %s (%s)", c.Turn, FormatYear(c.Year()), c.Era())
}
