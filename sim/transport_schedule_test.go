package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hddwater/bargesim/sim/kernel"
)

func TestPlanTransport_RefillsBeforeStorageDrainsBelowTrigger(t *testing.T) {
	// GIVEN 160,000 gal of storage drawn at 75,000 gal/day
	cfg, _ := singleRigConfig().Normalize()
	_, hdds, router, _, plan := planFor(t, cfg, scenarioFleet)
	h := hdds[0]

	// THEN deliveries are planned inside the drilling span
	require.NotEmpty(t, plan.Intents)
	travel, _ := router.LoadedHours("S1", "H1", kernel.Small)
	last := -1e9
	for _, in := range plan.Intents {
		assert.Equal(t, IntentTransport, in.Kind)
		assert.Equal(t, kernel.Small, in.Size)
		assert.Equal(t, "S1", in.Source)
		assert.Greater(t, in.Volume, 0.0)
		assert.LessOrEqual(t, in.Volume, tugLoad(cfg, kernel.Small))
		assert.GreaterOrEqual(t, in.Arrival, h.Pilot)
		assert.Less(t, in.Arrival, h.RigDown)
		assert.InDelta(t, in.Arrival-travel-cfg.HookupTime, in.Dispatch, 1e-9)
		assert.Less(t, in.FillStart, in.Dispatch)
		assert.Equal(t, 0, in.PlannedTug)
		// AND spaced at least TransportSpacingHours apart
		assert.GreaterOrEqual(t, in.Arrival-last, cfg.Planning.TransportSpacingHours)
		last = in.Arrival
	}
}

func TestPlanTransport_NoTugsDefersEverything(t *testing.T) {
	fleet := scenarioFleet
	fleet.Tugs = 0
	_, _, _, _, plan := planFor(t, singleRigConfig(), fleet)

	require.NotEmpty(t, plan.Intents)
	for _, in := range plan.Intents {
		assert.Equal(t, PriorityDeferred, in.Priority)
	}
	assert.NotEmpty(t, plan.Warnings)
}

func TestPlanTransport_NoTransportBargesPlansNothing(t *testing.T) {
	_, _, _, _, plan := planFor(t, singleRigConfig(), Fleet{Tugs: 1, SmallStorage: 3})

	assert.Empty(t, plan.Intents)
	assert.NotEmpty(t, plan.Warnings)
}

func TestAssignTugs_DefersIntentWhenEveryTugIsBusy(t *testing.T) {
	// GIVEN two deliveries one hour apart and one tug
	cfg, _ := singleRigConfig().Normalize()
	router := NewRouter(testOracle(), cfg)
	intents := []*DeliveryIntent{
		{ID: 1, Kind: IntentTransport, Source: "S1", HDD: "H1", Size: kernel.Small, Volume: 160000, FillStart: 5, Dispatch: 10, Arrival: 12, Priority: PriorityScheduled},
		{ID: 2, Kind: IntentTransport, Source: "S1", HDD: "H1", Size: kernel.Small, Volume: 160000, FillStart: 6, Dispatch: 11, Arrival: 13, Priority: PriorityScheduled},
	}

	// WHEN assigned
	assignTugs(cfg, router, Fleet{Tugs: 1}, intents, func(string, ...any) {})

	// THEN the second waits for the first cycle to finish
	cycle, _ := router.CycleHours("S1", "H1", 160000, kernel.Small)
	freeAt := 10 + cycle - router.FillHours("S1", 160000)
	assert.Equal(t, PriorityScheduled, intents[0].Priority)
	assert.Equal(t, PriorityDeferred, intents[1].Priority)
	assert.InDelta(t, freeAt, intents[1].Dispatch, 1e-9)
	assert.InDelta(t, freeAt+2, intents[1].Arrival, 1e-9)
	assert.Equal(t, 0, intents[1].PlannedTug)
}
