package analysis

import (
	"context"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"gridpulse/domain/core"
	"gridpulse/domain/pipeline"
)

// DefaultMaxLag is the lag search range in grid steps when none is configured.
const DefaultMaxLag = 24

// BestLagCorrelations searches, for every unordered sensor pair, the lag in
// [-maxLag, maxLag] maximizing Pearson correlation. Positive lag means B lags
// A: the correlation at lag l is computed between A at t and B at t+l over
// the non-absent overlap. Undefined correlations are excluded; a pair with no
// defined correlation at any lag records a nil lag and a NaN score.
//
// Pairs are computed in parallel; ordering (descending by correlation, NaN
// last, stable pair-enumeration tie-break) is applied after all pairs finish.
func BestLagCorrelations(ctx context.Context, f *core.Frame, maxLag int) ([]pipeline.LagResult, error) {
	type pair struct{ i, j int }
	var pairs []pair
	for i := 0; i < len(f.Sensors); i++ {
		for j := i + 1; j < len(f.Sensors); j++ {
			pairs = append(pairs, pair{i, j})
		}
	}

	results := make([]pipeline.LagResult, len(pairs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for idx, p := range pairs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a := f.Column(f.Sensors[p.i])
			b := f.Column(f.Sensors[p.j])
			lag, corr, found := scanLags(a, b, maxLag)
			res := pipeline.LagResult{
				A:           f.Sensors[p.i],
				B:           f.Sensors[p.j],
				Correlation: math.NaN(),
			}
			if found {
				res.Lag = &lag
				res.Correlation = round4(corr)
			}
			results[idx] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		ci, cj := results[i].Correlation, results[j].Correlation
		if math.IsNaN(ci) {
			return false
		}
		if math.IsNaN(cj) {
			return true
		}
		return ci > cj
	})
	return results, nil
}

// scanLags returns the lag with the strictly greatest defined correlation,
// scanning from -maxLag upward so exact ties keep the smallest lag.
func scanLags(a, b []float64, maxLag int) (bestLag int, bestCorr float64, found bool) {
	bestCorr = math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		corr := laggedCorrelation(a, b, lag)
		if math.IsNaN(corr) {
			continue
		}
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
			found = true
		}
	}
	if !found {
		return 0, math.NaN(), false
	}
	return bestLag, bestCorr, true
}

// laggedCorrelation aligns A at t with B at t+lag and computes Pearson over
// the rows where both are observed. NaN when fewer than two such rows remain
// or a side has zero variance.
func laggedCorrelation(a, b []float64, lag int) float64 {
	n := len(a)
	var x, y []float64
	switch {
	case lag >= 0:
		if lag >= n {
			return math.NaN()
		}
		x, y = a[:n-lag], b[lag:]
	default:
		k := -lag
		if k >= n {
			return math.NaN()
		}
		x, y = a[k:], b[:n-k]
	}
	return pearsonOverlap(x, y)
}

// pearsonOverlap computes Pearson correlation over the rows where both
// series are observed.
func pearsonOverlap(x, y []float64) float64 {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if core.IsAbsent(x[i]) || core.IsAbsent(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}
