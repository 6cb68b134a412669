package optimize

import (
	"context"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/hddwater/bargesim/sim"
)

// Variation is one tested value of a parameter.
type Variation struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Parameter is a cost or demand input varied by sensitivity analysis.
type Parameter struct {
	Name       string
	Variations []Variation
	Apply      func(cfg sim.Config, value float64) sim.Config
}

// DefaultParameters are the six inputs the analysis varies by default. Water
// consumption scales every rig rate; the others replace a cost constant.
func DefaultParameters() []Parameter {
	return []Parameter{
		{
			Name: "Water Consumption",
			Variations: []Variation{
				{"-20%", 0.8}, {"-10%", 0.9}, {"Baseline", 1.0}, {"+10%", 1.1}, {"+20%", 1.2}, {"+30%", 1.3},
			},
			Apply: func(c sim.Config, v float64) sim.Config { return c.ScaleConsumption(v) },
		},
		{
			Name: "Downtime Cost",
			Variations: []Variation{
				{"$5,000/hr", 5000}, {"$6,000/hr", 6000}, {"$6,591/hr (base)", 6591},
				{"$7,500/hr", 7500}, {"$8,500/hr", 8500}, {"$10,000/hr", 10000},
			},
			Apply: func(c sim.Config, v float64) sim.Config { c.Cost.DowntimeHourly = v; return c },
		},
		{
			Name: "Tug Day Rate",
			Variations: []Variation{
				{"$3,500", 3500}, {"$4,000", 4000}, {"$4,500 (base)", 4500},
				{"$5,000", 5000}, {"$5,500", 5500}, {"$6,000", 6000},
			},
			Apply: func(c sim.Config, v float64) sim.Config { c.Cost.Tug.DayRate = v; return c },
		},
		{
			Name:       "Large Barge Day Rate",
			Variations: []Variation{{"$600", 600}, {"$750 (base)", 750}, {"$900", 900}, {"$1,000", 1000}},
			Apply:      func(c sim.Config, v float64) sim.Config { c.Cost.Barge.LargeDayRate = v; return c },
		},
		{
			Name:       "Small Barge Day Rate",
			Variations: []Variation{{"$200", 200}, {"$250 (base)", 250}, {"$300", 300}, {"$350", 350}},
			Apply:      func(c sim.Config, v float64) sim.Config { c.Cost.Barge.SmallDayRate = v; return c },
		},
		{
			Name: "Fuel Price",
			Variations: []Variation{
				{"$2.50/gal", 2.5}, {"$3.00/gal (base)", 3.0}, {"$3.50/gal", 3.5}, {"$4.00/gal", 4.0}, {"$5.00/gal", 5.0},
			},
			Apply: func(c sim.Config, v float64) sim.Config { c.Cost.FuelPrice = v; return c },
		},
	}
}

// SensitivityOptions configures a sensitivity analysis.
type SensitivityOptions struct {
	Start         sim.Fleet
	Bounds        Bounds
	Parameters    []Parameter // DefaultParameters when empty
	MaxIterations int
	Workers       int
	// Progress, when set, is called before each optimization.
	Progress func(parameter, label string)
}

// VariationResult is the optimized outcome for one parameter value.
type VariationResult struct {
	Label       string    `json:"label"`
	Value       float64   `json:"value"`
	Cost        float64   `json:"cost"`
	RanDryCount int       `json:"ranDry"`
	CostDiff    float64   `json:"costDiff"`
	CostDiffPct float64   `json:"costDiffPct"`
	Fleet       sim.Fleet `json:"fleet"`
	Tested      int       `json:"iterations"`
}

// ParameterResult holds every variation of one parameter.
type ParameterResult struct {
	Name    string            `json:"name"`
	Results []VariationResult `json:"results"`
}

// Impact ranks a parameter by how far its zero-ran-dry optima move from the
// baseline cost. Available is false when no variation avoided running dry.
type Impact struct {
	Name         string  `json:"name"`
	Available    bool    `json:"available"`
	MaxAbsChange float64 `json:"maxAbsChange"`
	MaxImpactPct float64 `json:"maxImpactPct"`
	Range        float64 `json:"range"`
	RangePct     float64 `json:"rangePct"`
	MinCost      float64 `json:"minCost"`
	MaxCost      float64 `json:"maxCost"`
	MeanCost     float64 `json:"meanCost"`
	StdDevCost   float64 `json:"stdDevCost"`
	SuccessCount int     `json:"successCount"`
	TotalCount   int     `json:"totalCount"`
}

// SensitivityResult is the outcome of a sensitivity analysis.
type SensitivityResult struct {
	Baseline VariationResult   `json:"baseline"`
	Tests    []ParameterResult `json:"tests"`
	Impacts  []Impact          `json:"impacts"`
}

// Sensitivity runs the local optimizer on the unmodified configuration, then
// once per parameter variation, and ranks parameters by the largest absolute
// change of their zero-ran-dry optimal cost from the baseline.
func Sensitivity(ctx context.Context, cfg sim.Config, oracle sim.DistanceOracle, opts SensitivityOptions) (*SensitivityResult, error) {
	params := opts.Parameters
	if len(params) == 0 {
		params = DefaultParameters()
	}
	optimize := func(c sim.Config) (VariationResult, error) {
		r, err := NewRunner(c, oracle, opts.Workers)
		if err != nil {
			return VariationResult{}, err
		}
		lr, err := r.LocalOptimize(ctx, LocalOptions{Start: opts.Start, Bounds: opts.Bounds, MaxIterations: opts.MaxIterations})
		if err != nil {
			return VariationResult{}, err
		}
		return VariationResult{
			Cost:        lr.Optimal.Cost,
			RanDryCount: lr.Optimal.RanDryCount,
			Fleet:       lr.Optimal.Fleet,
			Tested:      lr.Tested,
		}, nil
	}

	if opts.Progress != nil {
		opts.Progress("Baseline", "")
	}
	base, err := optimize(cfg)
	if err != nil {
		return nil, err
	}
	base.Label = "Baseline"
	logrus.Infof("sensitivity baseline: %s at %.0f (%d ran dry)", base.Fleet, base.Cost, base.RanDryCount)

	res := &SensitivityResult{Baseline: base}
	for _, p := range params {
		pr := ParameterResult{Name: p.Name}
		for _, v := range p.Variations {
			if opts.Progress != nil {
				opts.Progress(p.Name, v.Label)
			}
			vr, err := optimize(p.Apply(cfg, v.Value))
			if err != nil {
				return nil, err
			}
			vr.Label, vr.Value = v.Label, v.Value
			vr.CostDiff = vr.Cost - base.Cost
			if base.Cost != 0 {
				vr.CostDiffPct = vr.CostDiff / base.Cost * 100
			}
			pr.Results = append(pr.Results, vr)
		}
		res.Tests = append(res.Tests, pr)
	}
	res.Impacts = RankImpacts(base.Cost, res.Tests)
	return res, nil
}

// RankImpacts computes one Impact per parameter and orders them by
// MaxImpactPct, highest first. Parameters without a zero-ran-dry variation
// sort last, in their original order.
func RankImpacts(baseline float64, tests []ParameterResult) []Impact {
	impacts := make([]Impact, 0, len(tests))
	for _, pr := range tests {
		im := Impact{Name: pr.Name, TotalCount: len(pr.Results)}
		var costs []float64
		for _, vr := range pr.Results {
			if vr.RanDryCount == 0 {
				costs = append(costs, vr.Cost)
			}
		}
		im.SuccessCount = len(costs)
		if len(costs) > 0 {
			im.Available = true
			im.MinCost = floats.Min(costs)
			im.MaxCost = floats.Max(costs)
			im.Range = im.MaxCost - im.MinCost
			im.MaxAbsChange = math.Max(math.Abs(im.MinCost-baseline), math.Abs(im.MaxCost-baseline))
			im.MeanCost = stat.Mean(costs, nil)
			if len(costs) > 1 {
				im.StdDevCost = stat.StdDev(costs, nil)
			}
			if baseline != 0 {
				im.RangePct = im.Range / baseline * 100
				im.MaxImpactPct = im.MaxAbsChange / baseline * 100
			}
		}
		impacts = append(impacts, im)
	}
	sort.SliceStable(impacts, func(i, j int) bool {
		if impacts[i].Available != impacts[j].Available {
			return impacts[i].Available
		}
		return impacts[i].MaxImpactPct > impacts[j].MaxImpactPct
	})
	return impacts
}
