// Package anomaly implements the outlier classifier consumed by the
// analytics aggregator through the analytics.Classifier port.
//
// The detector scores each feature row by its robust distance from the
// per-column medians (MAD-scaled) and labels the top contamination
// fraction of rows as outliers. Output follows the isolation-forest
// convention: +1 inlier, -1 outlier.
package anomaly

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DefaultContamination is the fixed expected outlier share.
const DefaultContamination = 0.05

// madScale converts a median absolute deviation into a consistent
// estimator of the standard deviation under normality.
const madScale = 1.4826

type Detector struct {
	contamination float64
}

// NewDetector creates a detector flagging the given fraction of rows.
// Contamination must lie in (0, 0.5].
func NewDetector(contamination float64) (*Detector, error) {
	if contamination <= 0 || contamination > 0.5 {
		return nil, fmt.Errorf("contamination %v out of range (0, 0.5]", contamination)
	}
	return &Detector{contamination: contamination}, nil
}

// FitPredict scores every row and returns +1 or -1 per row. The number
// of -1 labels is round(n * contamination); a matrix too small for one
// outlier at the configured rate yields all +1. Ragged matrices are
// rejected.
func (d *Detector) FitPredict(features [][]float64) ([]int, error) {
	n := len(features)
	if n == 0 {
		return nil, nil
	}
	cols := len(features[0])
	for i, row := range features {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(row), cols)
		}
	}

	scores := d.score(features, n, cols)

	labels := make([]int, n)
	for i := range labels {
		labels[i] = 1
	}

	k := int(math.Round(float64(n) * d.contamination))
	if k == 0 {
		return labels, nil
	}

	// Rank rows by score, ties broken by row index for determinism.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	for _, i := range order[:k] {
		labels[i] = -1
	}
	return labels, nil
}

// score computes the squared MAD-normalized distance of each row from
// the column medians. Constant columns carry no signal and are skipped.
func (d *Detector) score(features [][]float64, n, cols int) []float64 {
	scores := make([]float64, n)
	column := make([]float64, n)
	deviations := make([]float64, n)

	for c := 0; c < cols; c++ {
		for i := 0; i < n; i++ {
			column[i] = features[i][c]
		}
		sort.Float64s(column)
		median := stat.Quantile(0.5, stat.Empirical, column, nil)

		for i := 0; i < n; i++ {
			deviations[i] = math.Abs(features[i][c] - median)
		}
		scaled := append([]float64(nil), deviations...)
		sort.Float64s(scaled)
		mad := stat.Quantile(0.5, stat.Empirical, scaled, nil) * madScale
		if mad == 0 {
			continue
		}

		for i := 0; i < n; i++ {
			z := deviations[i] / mad
			scores[i] += z * z
		}
	}
	return scores
}
