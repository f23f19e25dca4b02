package analytics

import (
	"fmt"

	"spendtrack/internal/core"
)

// Label is the per-record anomaly classification.
type Label string

const (
	LabelNormal  Label = "Normal"
	LabelAnomaly Label = "Anomaly"
)

// Classifier is the outlier-detection collaborator. FitPredict scores
// the feature matrix and returns +1 (inlier) or -1 (outlier) per row,
// matching the convention of the usual isolation-forest style models.
type Classifier interface {
	FitPredict(features [][]float64) ([]int, error)
}

// FeatureColumns is the width of the anomaly feature vector: amount,
// weekday index, month index, necessity flag, then one column per
// category in core.Categories order.
var FeatureColumns = 4 + len(core.Categories)

// Features builds the anomaly feature matrix from the ledger in a fixed
// column order. The encoding is deterministic: the same ledger always
// produces the same matrix.
func Features(l core.Ledger) [][]float64 {
	rows := make([][]float64, len(l))
	for i, e := range l {
		row := make([]float64, FeatureColumns)
		row[0] = e.Amount.Float64()
		row[1] = float64(mondayIndex(e.Date.Time.Weekday()))
		row[2] = float64(e.Date.Month())
		if e.IsNecessary {
			row[3] = 1
		}
		row[4+e.Category.Index()] = 1
		rows[i] = row
	}
	return rows
}

// AnomalyFlags classifies every ledger record as Normal or Anomaly by
// delegating to the classifier. The empty ledger fails closed: no flags
// and no error. Classifier failures are surfaced to the caller as-is.
func AnomalyFlags(l core.Ledger, c Classifier) ([]Label, error) {
	if l.IsEmpty() {
		return nil, nil
	}

	predictions, err := c.FitPredict(Features(l))
	if err != nil {
		return nil, fmt.Errorf("classify ledger: %w", err)
	}
	if len(predictions) != len(l) {
		return nil, fmt.Errorf("classifier returned %d predictions for %d records", len(predictions), len(l))
	}

	labels := make([]Label, len(predictions))
	for i, p := range predictions {
		if p == -1 {
			labels[i] = LabelAnomaly
		} else {
			labels[i] = LabelNormal
		}
	}
	return labels, nil
}
