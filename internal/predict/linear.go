package predict

import (
	"fmt"
	"math"
)

// Model is a fitted regressor ready to serve predictions.
type Model interface {
	Name() string
	Predict(f Features) float64
}

// ModelFamily fits one kind of model to a batch of training rows and
// reports its residual RMSE, so model selection stays family-agnostic.
type ModelFamily interface {
	Name() string
	Fit(rows []TrainingRow) (Model, float64, error)
}

// LinearFamily fits an ordinary least-squares model on the five features
// plus an intercept, solving the normal equations directly.
type LinearFamily struct{}

func (LinearFamily) Name() string { return "linear" }

type linearModel struct {
	// coeffs[0] is the intercept, coeffs[1:] follow featureNames order.
	coeffs []float64
}

func (m *linearModel) Name() string { return "linear" }

func (m *linearModel) Predict(f Features) float64 {
	value := m.coeffs[0]
	for i, x := range f.vector() {
		value += m.coeffs[i+1] * x
	}
	return value
}

func (LinearFamily) Fit(rows []TrainingRow) (Model, float64, error) {
	n := len(rows)
	dim := len(featureNames) + 1
	if n < dim {
		return nil, 0, fmt.Errorf("%w: %d rows for %d coefficients", ErrTrainingFailed, n, dim)
	}

	// Normal equations: (X'X) b = X'y with a leading column of ones.
	xtx := make([][]float64, dim)
	for i := range xtx {
		xtx[i] = make([]float64, dim)
	}
	xty := make([]float64, dim)

	for _, row := range rows {
		x := append([]float64{1}, row.vector()...)
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				xtx[i][j] += x[i] * x[j]
			}
			xty[i] += x[i] * row.Performance
		}
	}

	coeffs, err := solveLinearSystem(xtx, xty)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrTrainingFailed, err)
	}

	m := &linearModel{coeffs: coeffs}
	return m, rmse(m, rows), nil
}

// solveLinearSystem solves Ax = b by Gaussian elimination with partial
// pivoting. A and b are overwritten.
func solveLinearSystem(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular system at column %d", col)
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for col := row + 1; col < n; col++ {
			sum -= a[row][col] * x[col]
		}
		x[row] = sum / a[row][row]
	}
	return x, nil
}

// rmse computes the root-mean-squared residual of a model over rows.
func rmse(m Model, rows []TrainingRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	var sumSq float64
	for _, row := range rows {
		r := m.Predict(row.Features) - row.Performance
		sumSq += r * r
	}
	return math.Sqrt(sumSq / float64(len(rows)))
}
