// Package entropy provides the random-draw sources used by the simulation.
// Every stochastic decision takes a Source explicitly so runs can be seeded
// and tests can substitute a scripted Stub.
package entropy

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/talgya/tellsim/internal/calc"
)

// ErrExhaustedChoice is returned when a weighted choice is asked to pick from
// a set whose total weight is zero. It signals a modelling precondition
// violation and must not be papered over.
var ErrExhaustedChoice = errors.New("weighted choice over zero total weight")

// Source is the random-draw contract consumed by the core.
type Source interface {
	// Uniform returns a value in [0, 1).
	Uniform() float64
	// Gaussian returns a normal draw with the given mean and standard deviation.
	Gaussian(mean, stddev float64) float64
	// Poisson returns a Poisson draw with rate lambda.
	Poisson(lambda float64) int
	// WeightedIndex picks an index with probability proportional to its weight.
	WeightedIndex(weights []float64) (int, error)
	// Softmax picks an index with probability proportional to exp(value).
	Softmax(values []float64) (int, error)
}

// Rand is the seeded production Source.
type Rand struct {
	rng  *rand.Rand
	seed int64
}

// NewRand creates a Source seeded deterministically.
func NewRand(seed int64) *Rand {
	return &Rand{
		rng:  rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the seed the source was created with.
func (r *Rand) Seed() int64 { return r.seed }

func (r *Rand) Uniform() float64 { return r.rng.Float64() }

func (r *Rand) Gaussian(mean, stddev float64) float64 {
	return mean + r.rng.NormFloat64()*stddev
}

func (r *Rand) Poisson(lambda float64) int { return poisson(r, lambda) }

func (r *Rand) WeightedIndex(weights []float64) (int, error) {
	return weightedIndex(r.Uniform(), weights)
}

func (r *Rand) Softmax(values []float64) (int, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("softmax over empty set: %w", ErrExhaustedChoice)
	}
	return weightedIndex(r.Uniform(), calc.Softmax(values))
}

// weightedIndex maps one uniform draw u onto the cumulative weights.
// Negative and NaN weights count as zero.
func weightedIndex(u float64, weights []float64) (int, error) {
	total := 0.0
	for _, w := range weights {
		if w > 0 && !math.IsInf(w, 0) {
			total += w
		}
	}
	if total <= 0 {
		return 0, ErrExhaustedChoice
	}
	target := u * total
	acc := 0.0
	last := -1
	for i, w := range weights {
		if !(w > 0) || math.IsInf(w, 0) {
			continue
		}
		acc += w
		last = i
		if target < acc {
			return i, nil
		}
	}
	// Rounding can leave target == total; the last positive weight wins.
	return last, nil
}

// poisson uses Knuth's multiplication method for small rates and a rounded
// normal approximation above 30.
func poisson(s Source, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	if lambda > 30 {
		n := int(math.Round(s.Gaussian(lambda, math.Sqrt(lambda))))
		if n < 0 {
			return 0
		}
		return n
	}
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= s.Uniform()
		if p <= limit {
			return k
		}
		k++
	}
}

// Bernoulli returns true with probability p.
func Bernoulli(s Source, p float64) bool {
	return s.Uniform() < p
}

// Range returns a uniform draw in [lo, hi).
func Range(s Source, lo, hi float64) float64 {
	return lo + s.Uniform()*(hi-lo)
}

// Intn returns a uniform integer in [0, n). n must be positive.
func Intn(s Source, n int) int {
	i := int(s.Uniform() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
