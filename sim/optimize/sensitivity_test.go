package optimize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hddwater/bargesim/sim"
	"github.com/hddwater/bargesim/sim/internal/testutil"
)

func TestDefaultParameters_ApplyTouchesOnlyTheirInput(t *testing.T) {
	base := sim.DefaultConfig()
	params := DefaultParameters()
	require.Len(t, params, 6)

	water := params[0].Apply(base, 1.2)
	assert.Equal(t, 9000.0, water.Rigs["Blue"].Pilot)
	assert.Equal(t, 7500.0, base.Rigs["Blue"].Pilot)

	fuel := params[5].Apply(base, 4)
	assert.Equal(t, 4.0, fuel.Cost.FuelPrice)
	assert.Equal(t, base.Cost.Tug, fuel.Cost.Tug)
}

func TestRankImpacts_OrdersByLargestMoveFromBaseline(t *testing.T) {
	// GIVEN three parameters, one of which never avoided running dry
	tests := []ParameterResult{
		{Name: "Fuel Price", Results: []VariationResult{{Cost: 990}, {Cost: 1030}}},
		{Name: "Water Consumption", Results: []VariationResult{{Cost: 800}, {Cost: 1250}, {Cost: 1400, RanDryCount: 2}}},
		{Name: "Tug Day Rate", Results: []VariationResult{{Cost: 2000, RanDryCount: 1}}},
	}

	// WHEN ranked against a 1000 baseline
	impacts := RankImpacts(1000, tests)

	// THEN the widest zero-ran-dry swing comes first
	require.Len(t, impacts, 3)
	assert.Equal(t, "Water Consumption", impacts[0].Name)
	assert.InDelta(t, 250, impacts[0].MaxAbsChange, 1e-9)
	assert.InDelta(t, 25, impacts[0].MaxImpactPct, 1e-9)
	assert.InDelta(t, 450, impacts[0].Range, 1e-9)
	assert.Equal(t, 2, impacts[0].SuccessCount)
	assert.Equal(t, 3, impacts[0].TotalCount)
	assert.InDelta(t, 1025, impacts[0].MeanCost, 1e-9)

	assert.Equal(t, "Fuel Price", impacts[1].Name)
	assert.InDelta(t, 3, impacts[1].MaxImpactPct, 1e-9)

	// AND the parameter without a usable result sorts last
	assert.Equal(t, "Tug Day Rate", impacts[2].Name)
	assert.False(t, impacts[2].Available)
	assert.Zero(t, impacts[2].StdDevCost)
}

func TestSensitivity_FuelPriceMovesTheOptimalCost(t *testing.T) {
	// GIVEN a one-fleet search space and a single fuel price parameter
	p, routes := testutil.LoadProject(t)
	fleet := sim.Fleet{Tugs: 1, SmallTransport: 2, SmallStorage: 3}
	fixed := Bounds{
		Tugs:           Range{1, 1},
		SmallTransport: Range{2, 2},
		SmallStorage:   Range{3, 3},
	}
	var progress []string
	opts := SensitivityOptions{
		Start:  fleet,
		Bounds: fixed,
		Parameters: []Parameter{{
			Name:       "Fuel Price",
			Variations: []Variation{{"$2.50/gal", 2.5}, {"$5.00/gal", 5}},
			Apply:      func(c sim.Config, v float64) sim.Config { c.Cost.FuelPrice = v; return c },
		}},
		Workers:  2,
		Progress: func(param, label string) { progress = append(progress, param+" "+label) },
	}

	// WHEN analysed
	res, err := Sensitivity(context.Background(), p.Config, routes, opts)
	require.NoError(t, err)

	// THEN every run keeps the only fleet and dearer fuel costs more
	assert.Equal(t, "Baseline", res.Baseline.Label)
	assert.Equal(t, fleet, res.Baseline.Fleet)
	require.Len(t, res.Tests, 1)
	rows := res.Tests[0].Results
	require.Len(t, rows, 2)
	assert.Greater(t, rows[1].Cost, rows[0].Cost)
	assert.InDelta(t, rows[1].Cost-res.Baseline.Cost, rows[1].CostDiff, 1e-6)
	assert.Equal(t, []string{"Baseline ", "Fuel Price $2.50/gal", "Fuel Price $5.00/gal"}, progress)
	require.Len(t, res.Impacts, 1)
	testutil.AssertFloat64Equal(t, "total count", 2, float64(res.Impacts[0].TotalCount), 0)
}
