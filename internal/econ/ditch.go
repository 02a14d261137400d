package econ

import "github.com/talgya/tellsim/internal/calc"

// Ditching thresholds.
const (
	DitchingPopulation    = 60
	IrrigationReservation = 0.05
	DitchDecay            = 0.30
)

// Ditch is a settlement's irrigation works.
type Ditch struct {
	Active  bool    `json:"active"`
	Quality float64 `json:"quality"`
}

// Maintain starts ditching once the settlement is large enough, then moves
// quality halfway toward the irrigation labor per capita (full at 5% of the
// population) or decays it when no one works the ditches.
func (d *Ditch) Maintain(population int, irrigationWorkers float64) {
	if population >= DitchingPopulation {
		d.Active = true
	}
	if !d.Active {
		return
	}
	if irrigationWorkers <= 0 || population <= 0 {
		d.Quality *= 1 - DitchDecay
		return
	}
	target := calc.Clamp(irrigationWorkers/(IrrigationReservation*float64(population)), 0, 1)
	d.Quality = calc.Clamp(d.Quality+0.5*(target-d.Quality), 0, 1)
}
