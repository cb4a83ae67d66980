package pinch

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// maxCorrectionPasses bounds the feasibility correction. One pass is enough
// in IEEE arithmetic; the second absorbs any residue.
const maxCorrectionPasses = 2

// BuildCascade accumulates the interval heat loads from the hottest boundary
// down, starting from zero external heating, then shifts the whole cascade
// so that its minimum is exactly zero. The result has one entry per
// boundary temperature.
func BuildCascade(intervals []Interval) ([]float64, error) {
	if len(intervals) == 0 {
		return nil, fmt.Errorf("%w: no temperature intervals", ErrDegenerateNetwork)
	}

	cascade := make([]float64, len(intervals)+1)
	for i := 1; i < len(cascade); i++ {
		cascade[i] = cascade[i-1] - intervals[i-1].NetHeatLoad
	}

	for pass := 0; ; pass++ {
		if i := firstNonFinite(cascade); i >= 0 {
			return nil, fmt.Errorf("%w: cascade entry %d is %v", ErrNumericDivergence, i, cascade[i])
		}

		low := floats.Min(cascade)
		if low == 0 {
			return cascade, nil
		}
		if pass == maxCorrectionPasses {
			return nil, fmt.Errorf("%w: minimum is still %v after %d corrections", ErrNumericDivergence, low, pass)
		}

		floats.AddConst(-low, cascade)
	}
}

func firstNonFinite(s []float64) int {
	for i, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return i
		}
	}
	return -1
}
