package detection

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestBuildThresholds(t *testing.T) {
	field := mat.NewDense(2, 2, []float64{-2, 0, 3, 10})

	set, err := BuildThresholds(field, 4)
	if err != nil {
		t.Fatalf("BuildThresholds failed: %v", err)
	}

	if set.NBins() != 4 {
		t.Errorf("NBins: got %d, want 4", set.NBins())
	}
	if len(set.Boundaries) != 5 {
		t.Fatalf("boundary count: got %d, want 5", len(set.Boundaries))
	}
	if set.Boundaries[0] != -2 {
		t.Errorf("first boundary: got %g, want -2", set.Boundaries[0])
	}
	// Upper bound is max + 0.1*|max| = 11.
	if set.Boundaries[4] != 11 {
		t.Errorf("last boundary: got %g, want 11", set.Boundaries[4])
	}

	for i := 1; i < len(set.Boundaries); i++ {
		if set.Boundaries[i] <= set.Boundaries[i-1] {
			t.Fatalf("boundaries not strictly increasing: %v", set.Boundaries)
		}
	}
}

func TestBuildThresholds_BracketsValueRange(t *testing.T) {
	field := mat.NewDense(3, 3, []float64{0.5, -1.25, 2, 7.75, 3, -0.5, 1, 0, 4})

	set, err := BuildThresholds(field, 100)
	if err != nil {
		t.Fatalf("BuildThresholds failed: %v", err)
	}

	if first := set.Boundaries[0]; first > -1.25 {
		t.Errorf("first boundary %g should not exceed the field minimum -1.25", first)
	}
	if last := set.Boundaries[len(set.Boundaries)-1]; last < 7.75 {
		t.Errorf("last boundary %g should not fall below the field maximum 7.75", last)
	}
}

func TestBuildThresholds_AllNegative(t *testing.T) {
	// For a negative maximum the margin is taken on |max|, keeping the last
	// boundary above every value.
	field := mat.NewDense(2, 2, []float64{-8, -6, -4, -2})

	set, err := BuildThresholds(field, 10)
	if err != nil {
		t.Fatalf("BuildThresholds failed: %v", err)
	}

	last := set.Boundaries[len(set.Boundaries)-1]
	if last < -2 {
		t.Errorf("last boundary: got %g, want >= -2", last)
	}
	if last != -1.8 {
		t.Errorf("last boundary: got %g, want -1.8", last)
	}
}

func TestBuildThresholds_ConstantField(t *testing.T) {
	field := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			field.Set(i, j, 4.2)
		}
	}

	_, err := BuildThresholds(field, 10)
	var rangeErr *DegenerateRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected DegenerateRangeError, got %v", err)
	}
	if rangeErr.Value != 4.2 {
		t.Errorf("degenerate value: got %g, want 4.2", rangeErr.Value)
	}
}

func TestBuildThresholds_Invalid(t *testing.T) {
	field := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	t.Run("nil field", func(t *testing.T) {
		if _, err := BuildThresholds(nil, 10); err == nil {
			t.Error("expected error for nil field")
		}
	})

	t.Run("zero bins", func(t *testing.T) {
		if _, err := BuildThresholds(field, 0); err == nil {
			t.Error("expected error for zero bins")
		}
	})

	t.Run("negative bins", func(t *testing.T) {
		if _, err := BuildThresholds(field, -3); err == nil {
			t.Error("expected error for negative bins")
		}
	})

	t.Run("NaN value", func(t *testing.T) {
		bad := mat.NewDense(2, 2, []float64{1, math.NaN(), 3, 4})
		if _, err := BuildThresholds(bad, 10); err == nil {
			t.Error("expected error for NaN value")
		}
	})

	t.Run("infinite value", func(t *testing.T) {
		bad := mat.NewDense(2, 2, []float64{1, math.Inf(1), 3, 4})
		if _, err := BuildThresholds(bad, 10); err == nil {
			t.Error("expected error for infinite value")
		}
	})
}
