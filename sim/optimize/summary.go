package optimize

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes the spread of a set of search results.
type Summary struct {
	Count      int     `json:"count"`
	ZeroRanDry int     `json:"zeroRanDry"`
	MeanScore  float64 `json:"meanScore"`
	StdScore   float64 `json:"stdScore"`
	// Cost statistics cover zero-ran-dry results only.
	MinCost    float64 `json:"minCost"`
	MedianCost float64 `json:"medianCost"`
	MaxCost    float64 `json:"maxCost"`
}

// Summarize computes a Summary. Safe for an empty slice.
func Summarize(rs []Result) Summary {
	s := Summary{Count: len(rs)}
	if len(rs) == 0 {
		return s
	}
	scores := make([]float64, 0, len(rs))
	var costs []float64
	for _, r := range rs {
		scores = append(scores, r.Score)
		if r.ZeroRanDry() {
			costs = append(costs, r.Cost)
		}
	}
	s.MeanScore, s.StdScore = stat.MeanStdDev(scores, nil)
	if len(scores) == 1 {
		s.StdScore = 0
	}
	s.ZeroRanDry = len(costs)
	if len(costs) > 0 {
		sort.Float64s(costs)
		s.MinCost = costs[0]
		s.MaxCost = costs[len(costs)-1]
		s.MedianCost = stat.Quantile(0.5, stat.Empirical, costs, nil)
	}
	return s
}
