package request

import (
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/suggestd/internal/domain"
)

func f64(v float64) *float64 { return &v }

func TestNew_Defaults(t *testing.T) {
	o, err := New(0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.MaxResults() != DefaultMaxResults {
		t.Errorf("MaxResults() = %d, want %d", o.MaxResults(), DefaultMaxResults)
	}
	if o.Threshold() != DefaultThreshold {
		t.Errorf("Threshold() = %f, want %f", o.Threshold(), DefaultThreshold)
	}
	if o != Default() {
		t.Errorf("New(0, nil) = %+v, want Default()", o)
	}
}

func TestNew_ExplicitZeroThreshold(t *testing.T) {
	o, err := New(3, f64(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Threshold() != 0 {
		t.Errorf("Threshold() = %f, want 0", o.Threshold())
	}
	if o.MaxResults() != 3 {
		t.Errorf("MaxResults() = %d, want 3", o.MaxResults())
	}
}

func TestNew_KeepsLargeMaxResults(t *testing.T) {
	for _, n := range []int{101, 150, 5000} {
		o, err := New(n, nil)
		if err != nil {
			t.Fatalf("New(%d): unexpected error: %v", n, err)
		}
		if o.MaxResults() != n {
			t.Errorf("New(%d).MaxResults() = %d", n, o.MaxResults())
		}
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		max       int
		threshold *float64
	}{
		{"negative max", -1, nil},
		{"threshold below -1", 1, f64(-1.01)},
		{"threshold above 1", 1, f64(1.5)},
		{"threshold NaN", 1, f64(math.NaN())},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.max, tc.threshold)
			if !errors.Is(err, domain.ErrInvalidOptions) {
				t.Fatalf("expected ErrInvalidOptions, got %v", err)
			}
		})
	}
}

func TestNew_BoundaryThresholds(t *testing.T) {
	for _, v := range []float64{-1, 1} {
		if _, err := New(1, f64(v)); err != nil {
			t.Errorf("threshold %v should be valid: %v", v, err)
		}
	}
}

func TestPresets(t *testing.T) {
	if o := SimilarChats(); o.MaxResults() != 5 || o.Threshold() != 0.6 {
		t.Errorf("SimilarChats() = %+v", o)
	}
	if o := SimilarProjects(); o.MaxResults() != 3 || o.Threshold() != 0.5 {
		t.Errorf("SimilarProjects() = %+v", o)
	}
	if o := All(); o.Threshold() != -1 {
		t.Errorf("All() threshold = %f", o.Threshold())
	}
}

func TestWithOverrides(t *testing.T) {
	o, err := SimilarChats().WithOverrides(2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.MaxResults() != 2 || o.Threshold() != 0.6 {
		t.Errorf("got %+v", o)
	}

	o, err = SimilarChats().WithOverrides(0, f64(0.1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.MaxResults() != 5 || o.Threshold() != 0.1 {
		t.Errorf("got %+v", o)
	}

	if _, err := SimilarChats().WithOverrides(0, f64(2)); !errors.Is(err, domain.ErrInvalidOptions) {
		t.Errorf("expected ErrInvalidOptions, got %v", err)
	}
}
