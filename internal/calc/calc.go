// Package calc holds the small numeric helpers shared by every model package:
// clamping, weighted aggregation, softmax and the NaN guard applied at
// aggregation boundaries.
package calc

import "math"

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampInt limits v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// GuardNaN maps NaN and infinities to fallback.
func GuardNaN(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// SafeDiv returns num/den, or fallback when den is zero.
func SafeDiv(num, den, fallback float64) float64 {
	if den == 0 {
		return fallback
	}
	return num / den
}

// WeightedMean returns sum(w*v)/sum(w). Zero total weight yields 0.
func WeightedMean(values, weights []float64) float64 {
	var num, den float64
	for i, v := range values {
		num += weights[i] * v
		den += weights[i]
	}
	return GuardNaN(SafeDiv(num, den, 0), 0)
}

// WeightedHarmonicMean returns sum(w)/sum(w/v). Any participant with a
// non-positive value drags the mean to zero; zero total weight yields 0.
func WeightedHarmonicMean(values, weights []float64) float64 {
	var wsum, inv float64
	for i, v := range values {
		w := weights[i]
		if w <= 0 {
			continue
		}
		if v <= 0 {
			return 0
		}
		wsum += w
		inv += w / v
	}
	return GuardNaN(SafeDiv(wsum, inv, 0), 0)
}

// Softmax converts values into probabilities proportional to exp(v).
// The maximum is subtracted first so large utilities do not overflow.
func Softmax(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	maxV := math.Inf(-1)
	for _, v := range values {
		if v > maxV {
			maxV = v
		}
	}
	out := make([]float64, len(values))
	var total float64
	for i, v := range values {
		out[i] = math.Exp(v - maxV)
		total += out[i]
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

// Logistic is the standard sigmoid.
func Logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// LogRatio returns ln(a/b) with both sides floored at 1, so empty clans
// compare as size one instead of producing infinities.
func LogRatio(a, b float64) float64 {
	return math.Log(math.Max(a, 1) / math.Max(b, 1))
}
