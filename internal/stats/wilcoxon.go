package stats

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

var ErrNoDifferences = errors.New("all differences are zero")

type WilcoxonResult struct {
	N         int     `json:"n"`
	Statistic float64 `json:"statistic"`
	Z         float64 `json:"z"`
	PValue    float64 `json:"pValue"`
}

// WilcoxonSignedRank runs a two-sided one-sample signed-rank test on diffs.
// Zero differences are dropped, tied magnitudes share their average rank and
// the p-value comes from the normal approximation with tie correction.
func WilcoxonSignedRank(diffs []float64) (WilcoxonResult, error) {
	nonzero := make([]float64, 0, len(diffs))
	for _, d := range diffs {
		if d != 0 && !math.IsNaN(d) {
			nonzero = append(nonzero, d)
		}
	}
	n := len(nonzero)
	if n == 0 {
		return WilcoxonResult{}, ErrNoDifferences
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return math.Abs(nonzero[order[a]]) < math.Abs(nonzero[order[b]])
	})

	ranks := make([]float64, n)
	tieTerm := 0.0
	for i := 0; i < n; {
		j := i
		for j+1 < n && math.Abs(nonzero[order[j+1]]) == math.Abs(nonzero[order[i]]) {
			j++
		}
		avg := float64(i+j+2) / 2
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		if t := float64(j - i + 1); t > 1 {
			tieTerm += t*t*t - t
		}
		i = j + 1
	}

	var plus, minus float64
	for i, d := range nonzero {
		if d > 0 {
			plus += ranks[i]
		} else {
			minus += ranks[i]
		}
	}

	fn := float64(n)
	t := math.Min(plus, minus)
	mean := fn * (fn + 1) / 4
	variance := fn*(fn+1)*(2*fn+1)/24 - tieTerm/48

	out := WilcoxonResult{N: n, Statistic: t, PValue: 1}
	if variance <= 0 {
		return out, nil
	}
	out.Z = (t - mean) / math.Sqrt(variance)
	out.PValue = math.Min(1, 2*distuv.UnitNormal.CDF(out.Z))
	return out, nil
}
