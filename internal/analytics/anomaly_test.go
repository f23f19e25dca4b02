package analytics

import (
	"errors"
	"reflect"
	"testing"

	"spendtrack/internal/core"
)

type stubClassifier struct {
	predictions []int
	err         error
	seen        [][]float64
}

func (s *stubClassifier) FitPredict(features [][]float64) ([]int, error) {
	s.seen = features
	return s.predictions, s.err
}

func TestFeaturesFixedColumnOrder(t *testing.T) {
	// 2024-01-05 is a Friday.
	l := core.Ledger{rec(12550, core.Transport, 2024, 1, 5, true)}

	rows := Features(l)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if len(row) != FeatureColumns {
		t.Fatalf("columns = %d, want %d", len(row), FeatureColumns)
	}
	if row[0] != 125.50 {
		t.Errorf("amount column = %v, want 125.50", row[0])
	}
	if row[1] != 4 { // Friday, Monday-first index
		t.Errorf("weekday column = %v, want 4", row[1])
	}
	if row[2] != 1 {
		t.Errorf("month column = %v, want 1", row[2])
	}
	if row[3] != 1 {
		t.Errorf("necessity column = %v, want 1", row[3])
	}
	for i, c := range core.Categories {
		want := 0.0
		if c == core.Transport {
			want = 1
		}
		if row[4+i] != want {
			t.Errorf("one-hot column %d (%s) = %v, want %v", 4+i, c, row[4+i], want)
		}
	}
}

func TestFeaturesDeterministic(t *testing.T) {
	l := scenarioLedger()
	if !reflect.DeepEqual(Features(l), Features(l)) {
		t.Fatal("feature matrix not deterministic")
	}
}

func TestAnomalyFlagsMapping(t *testing.T) {
	l := scenarioLedger()
	c := &stubClassifier{predictions: []int{1, -1, 1}}

	labels, err := AnomalyFlags(l, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Label{LabelNormal, LabelAnomaly, LabelNormal}
	if !reflect.DeepEqual(labels, want) {
		t.Fatalf("labels = %v, want %v", labels, want)
	}
	if len(c.seen) != len(l) {
		t.Fatalf("classifier saw %d rows, want %d", len(c.seen), len(l))
	}
}

func TestAnomalyFlagsEmptyLedgerFailsClosed(t *testing.T) {
	labels, err := AnomalyFlags(core.Ledger{}, &stubClassifier{err: errors.New("should not be called")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels != nil {
		t.Fatalf("labels = %v, want nil", labels)
	}
}

func TestAnomalyFlagsClassifierErrorSurfaced(t *testing.T) {
	wantErr := errors.New("model blew up")
	_, err := AnomalyFlags(scenarioLedger(), &stubClassifier{err: wantErr})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped classifier error, got %v", err)
	}
}

func TestAnomalyFlagsLengthMismatch(t *testing.T) {
	_, err := AnomalyFlags(scenarioLedger(), &stubClassifier{predictions: []int{1}})
	if err == nil {
		t.Fatal("expected error on prediction length mismatch")
	}
}
