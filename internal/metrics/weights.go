package metrics

import (
	"fmt"
	"math"
)

// NormalizeWeights clips negative raw weights to zero and scales the remainder
// to sum to one. When nothing is left after clipping every asset gets 1/N.
// The result keeps the order of ids.
func NormalizeWeights(raw []float64, ids []string) (WeightVector, error) {
	if len(raw) != len(ids) {
		return WeightVector{}, fmt.Errorf("%w: %d weights for %d assets", ErrLengthMismatch, len(raw), len(ids))
	}
	if len(ids) == 0 {
		return WeightVector{}, ErrNoAssets
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return WeightVector{}, fmt.Errorf("%w: %s", ErrDuplicateAsset, id)
		}
		seen[id] = struct{}{}
	}

	// NaN and infinities are clipped along with negatives. Scaling by the
	// largest weight keeps the sum finite.
	clipped := make([]float64, len(raw))
	peak := 0.0
	for i, w := range raw {
		if w > 0 && !math.IsInf(w, 1) {
			clipped[i] = w
			peak = math.Max(peak, w)
		}
	}
	total := 0.0
	for i := range clipped {
		if peak > 0 {
			clipped[i] /= peak
		}
		total += clipped[i]
	}

	out := WeightVector{
		Assets:  append([]string(nil), ids...),
		Weights: make([]float64, len(ids)),
	}
	for i := range clipped {
		if total == 0 {
			out.Weights[i] = 1.0 / float64(len(ids))
		} else {
			out.Weights[i] = clipped[i] / total
		}
	}
	return out, nil
}
