package training

import (
	"math"
	"testing"
)

func TestComputeMetricsPerfectFit(t *testing.T) {
	actual := []float64{10, 20, 30, 40}
	m := ComputeMetrics(actual, actual)
	if m.RMSE != 0 || m.MAE != 0 || m.MAPE != 0 {
		t.Fatalf("expected zero error metrics, got %+v", m)
	}
}

func TestComputeMetricsKnownValues(t *testing.T) {
	actual := []float64{100, 200}
	predicted := []float64{110, 190}

	m := ComputeMetrics(actual, predicted)
	if m.RMSE != 10 {
		t.Errorf("rmse = %v, want 10", m.RMSE)
	}
	if m.MAE != 10 {
		t.Errorf("mae = %v, want 10", m.MAE)
	}
	// |10/100| and |10/200| average to 7.5%.
	if m.MAPE != 7.5 {
		t.Errorf("mape = %v, want 7.5", m.MAPE)
	}
}

func TestComputeMetricsSkipsZeroActuals(t *testing.T) {
	actual := []float64{0, 100}
	predicted := []float64{50, 110}

	m := ComputeMetrics(actual, predicted)
	// Only the positive actual contributes to MAPE.
	if m.MAPE != 10 {
		t.Errorf("mape = %v, want 10", m.MAPE)
	}
}

func TestComputeMetricsAllZeroActuals(t *testing.T) {
	m := ComputeMetrics([]float64{0, 0}, []float64{5, 5})
	if m.MAPE != 0 {
		t.Errorf("mape = %v, want 0 when no positive actuals", m.MAPE)
	}
	if m.RMSE != 5 {
		t.Errorf("rmse = %v, want 5", m.RMSE)
	}
}

func TestComputeMetricsRounding(t *testing.T) {
	actual := []float64{3}
	predicted := []float64{2.99999}

	m := ComputeMetrics(actual, predicted)
	if m.RMSE != 0 {
		t.Errorf("rmse = %v, want rounded to 0", m.RMSE)
	}
}

func TestComputeMetricsLengthMismatch(t *testing.T) {
	m := ComputeMetrics([]float64{1, 2}, []float64{1})
	if m.RMSE != 0 || m.MAE != 0 || m.MAPE != 0 {
		t.Fatalf("expected zero metrics on mismatched lengths, got %+v", m)
	}
}

func TestClampNonNegative(t *testing.T) {
	got := clampNonNegative([]float64{-3, 0, 2.5})
	want := []float64{0, 0, 2.5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("clamp[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRoundTo(t *testing.T) {
	if v := roundTo(1.23456, 2); math.Abs(v-1.23) > 1e-12 {
		t.Errorf("roundTo = %v, want 1.23", v)
	}
	if v := roundTo(1.23456, 4); math.Abs(v-1.2346) > 1e-12 {
		t.Errorf("roundTo = %v, want 1.2346", v)
	}
}
