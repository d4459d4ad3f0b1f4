package predict

import (
	"fmt"
	"sort"
)

// BoostedStumpsFamily fits a gradient-boosted ensemble of single-split
// regression stumps. It captures the non-linear structure the linear
// family misses, and the greedy fit is fully deterministic.
type BoostedStumpsFamily struct {
	Rounds    int
	Shrinkage float64
}

// DefaultBoostedFamily returns the production boosting configuration.
func DefaultBoostedFamily() BoostedStumpsFamily {
	return BoostedStumpsFamily{Rounds: 50, Shrinkage: 0.3}
}

func (BoostedStumpsFamily) Name() string { return "boosted_stumps" }

type stump struct {
	feature   int
	threshold float64
	left      float64 // prediction for x <= threshold
	right     float64 // prediction for x > threshold
}

type boostedModel struct {
	base      float64
	shrinkage float64
	stumps    []stump
}

func (m *boostedModel) Name() string { return "boosted_stumps" }

func (m *boostedModel) Predict(f Features) float64 {
	x := f.vector()
	value := m.base
	for _, s := range m.stumps {
		if x[s.feature] <= s.threshold {
			value += m.shrinkage * s.left
		} else {
			value += m.shrinkage * s.right
		}
	}
	return value
}

func (fam BoostedStumpsFamily) Fit(rows []TrainingRow) (Model, float64, error) {
	if len(rows) < 2 {
		return nil, 0, fmt.Errorf("%w: need at least 2 rows to boost", ErrTrainingFailed)
	}

	var baseSum float64
	for _, row := range rows {
		baseSum += row.Performance
	}
	m := &boostedModel{
		base:      baseSum / float64(len(rows)),
		shrinkage: fam.Shrinkage,
	}

	residuals := make([]float64, len(rows))
	for i, row := range rows {
		residuals[i] = row.Performance - m.base
	}

	for round := 0; round < fam.Rounds; round++ {
		s, gain := bestStump(rows, residuals)
		if gain <= 1e-9 {
			break
		}
		m.stumps = append(m.stumps, s)
		for i, row := range rows {
			x := row.vector()
			if x[s.feature] <= s.threshold {
				residuals[i] -= fam.Shrinkage * s.left
			} else {
				residuals[i] -= fam.Shrinkage * s.right
			}
		}
	}

	return m, rmse(m, rows), nil
}

// bestStump exhaustively searches every feature and split midpoint for
// the stump that most reduces the residual sum of squares.
func bestStump(rows []TrainingRow, residuals []float64) (stump, float64) {
	var best stump
	var bestGain float64

	var totalSum float64
	for _, r := range residuals {
		totalSum += r
	}
	n := float64(len(residuals))
	baseline := totalSum * totalSum / n

	for feature := range featureNames {
		type pair struct{ x, r float64 }
		pairs := make([]pair, len(rows))
		for i, row := range rows {
			pairs[i] = pair{row.vector()[feature], residuals[i]}
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].x < pairs[j].x })

		var leftSum float64
		for i := 0; i < len(pairs)-1; i++ {
			leftSum += pairs[i].r
			if pairs[i].x == pairs[i+1].x {
				continue
			}
			leftN := float64(i + 1)
			rightN := float64(len(pairs) - i - 1)
			rightSum := totalSum - leftSum

			leftMean := leftSum / leftN
			rightMean := rightSum / rightN
			// SSE reduction of splitting at this midpoint.
			gain := leftSum*leftSum/leftN + rightSum*rightSum/rightN - baseline
			if gain > bestGain {
				bestGain = gain
				best = stump{
					feature:   feature,
					threshold: (pairs[i].x + pairs[i+1].x) / 2,
					left:      leftMean,
					right:     rightMean,
				}
			}
		}
	}

	return best, bestGain
}
