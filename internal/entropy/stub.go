package entropy

import (
	"fmt"

	"github.com/talgya/tellsim/internal/calc"
)

// Stub is a scripted Source for tests. Uniform cycles through Uniforms (0.5
// when empty); Gaussian returns mean + stddev*z where z cycles through
// Normals (0 when empty).
type Stub struct {
	Uniforms []float64
	Normals  []float64

	ui, ni int
}

func (s *Stub) Uniform() float64 {
	if len(s.Uniforms) == 0 {
		return 0.5
	}
	v := s.Uniforms[s.ui%len(s.Uniforms)]
	s.ui++
	return v
}

func (s *Stub) Gaussian(mean, stddev float64) float64 {
	if len(s.Normals) == 0 {
		return mean
	}
	z := s.Normals[s.ni%len(s.Normals)]
	s.ni++
	return mean + stddev*z
}

func (s *Stub) Poisson(lambda float64) int { return poisson(s, lambda) }

func (s *Stub) WeightedIndex(weights []float64) (int, error) {
	return weightedIndex(s.Uniform(), weights)
}

func (s *Stub) Softmax(values []float64) (int, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("softmax over empty set: %w", ErrExhaustedChoice)
	}
	return weightedIndex(s.Uniform(), calc.Softmax(values))
}

// Draws reports how many uniform draws have been consumed.
func (s *Stub) Draws() int { return s.ui }
