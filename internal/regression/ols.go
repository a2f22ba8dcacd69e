// Package regression fits and evaluates the linear models that predict a
// transaction's batch-compressed size from cheap per-transaction features.
package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Model is a fitted linear predictor.
type Model struct {
	Intercept float64
	Coef      []float64
}

// Fit solves the ordinary least squares problem for the given feature rows
// and targets, with an intercept term.
func Fit(features [][]float64, targets []float64) (Model, error) {
	if len(features) == 0 {
		return Model{}, fmt.Errorf("no samples to fit")
	}
	if len(features) != len(targets) {
		return Model{}, fmt.Errorf("feature/target length mismatch: %d vs %d", len(features), len(targets))
	}
	cols := len(features[0])
	if cols == 0 {
		return Model{}, fmt.Errorf("no features to fit")
	}
	if len(features) < cols+1 {
		return Model{}, fmt.Errorf("need at least %d samples for %d features, got %d", cols+1, cols, len(features))
	}

	design := mat.NewDense(len(features), cols+1, nil)
	for i, row := range features {
		if len(row) != cols {
			return Model{}, fmt.Errorf("sample %d has %d features, want %d", i, len(row), cols)
		}
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}

	var qr mat.QR
	qr.Factorize(design)

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, mat.NewVecDense(len(targets), targets)); err != nil {
		return Model{}, fmt.Errorf("solving least squares: %w", err)
	}

	coef := make([]float64, cols)
	for j := range coef {
		coef[j] = beta.AtVec(j + 1)
	}
	return Model{Intercept: beta.AtVec(0), Coef: coef}, nil
}

// Predict evaluates the model on one feature row.
func (m Model) Predict(row []float64) float64 {
	v := m.Intercept
	for j, c := range m.Coef {
		v += c * row[j]
	}
	return v
}

// PredictAll evaluates the model on every row.
func (m Model) PredictAll(features [][]float64) []float64 {
	out := make([]float64, len(features))
	for i, row := range features {
		out[i] = m.Predict(row)
	}
	return out
}

// Metrics summarizes model fit quality on a sample set.
type Metrics struct {
	R2   float64
	RMSE float64
	MAE  float64
}

// Evaluate computes fit metrics for predictions against observed targets.
func Evaluate(predicted, observed []float64) Metrics {
	if len(predicted) == 0 || len(predicted) != len(observed) {
		return Metrics{}
	}

	var sumSq, sumAbs float64
	for i := range predicted {
		diff := predicted[i] - observed[i]
		sumSq += diff * diff
		if diff < 0 {
			diff = -diff
		}
		sumAbs += diff
	}
	n := float64(len(predicted))

	return Metrics{
		R2:   stat.RSquaredFrom(predicted, observed, nil),
		RMSE: math.Sqrt(sumSq / n),
		MAE:  sumAbs / n,
	}
}
