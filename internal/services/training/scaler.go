package training

import "fmt"

// MinMaxScaler maps values onto [0, 1] using the fitted data range.
// Exported fields so the scaler persists with its model artifact.
type MinMaxScaler struct {
	DataMin float64
	DataMax float64
	Fitted  bool
}

// Fit learns the data range.
func (s *MinMaxScaler) Fit(values []float64) error {
	if len(values) == 0 {
		return fmt.Errorf("cannot fit scaler on empty data")
	}
	s.DataMin, s.DataMax = values[0], values[0]
	for _, v := range values[1:] {
		if v < s.DataMin {
			s.DataMin = v
		}
		if v > s.DataMax {
			s.DataMax = v
		}
	}
	s.Fitted = true
	return nil
}

func (s *MinMaxScaler) scale() float64 {
	d := s.DataMax - s.DataMin
	if d == 0 {
		return 1
	}
	return d
}

// Transform scales a slice into [0, 1].
func (s *MinMaxScaler) Transform(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - s.DataMin) / s.scale()
	}
	return out
}

// TransformOne scales a single value.
func (s *MinMaxScaler) TransformOne(v float64) float64 {
	return (v - s.DataMin) / s.scale()
}

// InverseOne maps a scaled value back to the original range.
func (s *MinMaxScaler) InverseOne(v float64) float64 {
	return v*s.scale() + s.DataMin
}

// Inverse maps scaled values back to the original range.
func (s *MinMaxScaler) Inverse(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = s.InverseOne(v)
	}
	return out
}
