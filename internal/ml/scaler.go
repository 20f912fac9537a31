package ml

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes feature vectors to zero mean and unit variance
// per feature. Fields are exported for gob persistence alongside the
// model.
type Scaler struct {
	Mean []float64
	Std  []float64
}

// Fit computes per-feature mean and standard deviation from the
// training matrix. Features with zero variance scale by 1.
func (s *Scaler) Fit(x [][]float64) {
	if len(x) == 0 {
		return
	}
	features := len(x[0])
	s.Mean = make([]float64, features)
	s.Std = make([]float64, features)

	column := make([]float64, len(x))
	for j := 0; j < features; j++ {
		for i := range x {
			column[i] = x[i][j]
		}
		s.Mean[j] = stat.Mean(column, nil)
		s.Std[j] = stat.StdDev(column, nil)
		if s.Std[j] == 0 || math.IsNaN(s.Std[j]) {
			s.Std[j] = 1
		}
	}
}

// Transform standardizes a single feature vector.
func (s *Scaler) Transform(x []float64) []float64 {
	if len(s.Mean) != len(x) {
		return x
	}
	out := make([]float64, len(x))
	for i := range x {
		out[i] = (x[i] - s.Mean[i]) / s.Std[i]
	}
	return out
}

// TransformAll standardizes a feature matrix.
func (s *Scaler) TransformAll(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i := range x {
		out[i] = s.Transform(x[i])
	}
	return out
}
