package anomaly

import (
	"reflect"
	"testing"
)

func TestNewDetectorValidation(t *testing.T) {
	for _, c := range []float64{0, -0.1, 0.51, 1} {
		if _, err := NewDetector(c); err == nil {
			t.Errorf("contamination %v: expected error", c)
		}
	}
	if _, err := NewDetector(DefaultContamination); err != nil {
		t.Fatalf("default contamination rejected: %v", err)
	}
}

func TestFitPredictFlagsObviousOutlier(t *testing.T) {
	d, _ := NewDetector(DefaultContamination)

	// 39 unremarkable rows plus one far-off amount. round(40 * 0.05) = 2
	// rows get flagged; the extreme row must be among them.
	var features [][]float64
	for i := 0; i < 39; i++ {
		features = append(features, []float64{100 + float64(i%7), float64(i % 7), float64(i%12 + 1), 1})
	}
	features = append(features, []float64{250000, 3, 6, 0})

	labels, err := d.FitPredict(features)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(labels) != 40 {
		t.Fatalf("labels = %d, want 40", len(labels))
	}
	if labels[39] != -1 {
		t.Error("extreme row not flagged as outlier")
	}
	flagged := 0
	for _, l := range labels {
		if l == -1 {
			flagged++
		}
	}
	if flagged != 2 {
		t.Errorf("flagged %d rows, want 2", flagged)
	}
}

func TestFitPredictTinyMatrixAllInliers(t *testing.T) {
	d, _ := NewDetector(DefaultContamination)
	labels, err := d.FitPredict([][]float64{{1, 2}, {3, 4}, {5, 6}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// round(3 * 0.05) = 0: too few rows for one outlier at 5%.
	for i, l := range labels {
		if l != 1 {
			t.Errorf("row %d = %d, want +1", i, l)
		}
	}
}

func TestFitPredictEmpty(t *testing.T) {
	d, _ := NewDetector(DefaultContamination)
	labels, err := d.FitPredict(nil)
	if err != nil || labels != nil {
		t.Fatalf("empty input: labels %v err %v, want nil nil", labels, err)
	}
}

func TestFitPredictRaggedMatrix(t *testing.T) {
	d, _ := NewDetector(DefaultContamination)
	if _, err := d.FitPredict([][]float64{{1, 2}, {3}}); err == nil {
		t.Fatal("expected error on ragged matrix")
	}
}

func TestFitPredictDeterministic(t *testing.T) {
	d, _ := NewDetector(DefaultContamination)
	features := [][]float64{}
	for i := 0; i < 25; i++ {
		features = append(features, []float64{float64(i * i), float64(i % 7)})
	}
	a, _ := d.FitPredict(features)
	b, _ := d.FitPredict(features)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("predictions not deterministic")
	}
}
