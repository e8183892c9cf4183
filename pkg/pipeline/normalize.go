package pipeline

import "math"

// Scaling is the outcome of min-max scaling one partition's scores.
type Scaling struct {
	Scaled []float64
	// Invalid counts scores that were not finite numbers.
	Invalid int
	// Degenerate is set when no two valid scores differ; every scaled value is NaN.
	Degenerate bool
}

// Normalize rescales scores to [0, 1] using the partition's min and max.
// Non-finite scores are ignored for the range and scale to NaN.
func Normalize(scores []float64) Scaling {
	res := Scaling{Scaled: make([]float64, len(scores))}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			res.Invalid++
			continue
		}
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}

	if !(hi > lo) {
		res.Degenerate = true
		for i := range res.Scaled {
			res.Scaled[i] = math.NaN()
		}
		return res
	}

	span := hi - lo
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			res.Scaled[i] = math.NaN()
			continue
		}
		res.Scaled[i] = (s - lo) / span
	}
	return res
}
