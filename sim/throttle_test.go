package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hddwater/bargesim/sim/kernel"
)

func throttleSetup(t *testing.T) (*Simulator, *Tug) {
	t.Helper()
	s := newTestSimulator(t, singleRigConfig(), Fleet{Tugs: 2, SmallTransport: 2, SmallStorage: 2})
	s.now = s.byName["H1"].Pilot + 10
	stationFull(t, s, "H1", kernel.Small, 2)
	s.Kernel().SetStorageLevel("H1", 144000)
	require.NotNil(t, s.MobilizeTug("S1", "spare"))
	return s, loadedTugAt(t, s, "H1", 40000)
}

func TestRelease_NearlyFullStorageThrottles(t *testing.T) {
	// GIVEN a tug with 40,000 gal at a crossing with 16,000 gal headroom
	s, tug := throttleSetup(t)

	// WHEN released
	s.release(tug, "H1", 40000)

	// THEN it stands by at the rig
	st, ok := tug.State.(ThrottledStandby)
	require.True(t, ok, "state %s", tug.State.Status())
	assert.Equal(t, "H1", st.Crossing)
	assert.InDelta(t, s.now+0.5, st.NextCheck, 1e-9)
	assert.Equal(t, "H1", tug.Target())
}

func TestWorkThrottled_PumpsIncrementOfCurrentDraw(t *testing.T) {
	s, tug := throttleSetup(t)
	s.release(tug, "H1", 40000)

	// WHEN the next check comes due
	s.now += 0.5
	s.workThrottled(tug, tug.State.(ThrottledStandby))

	// THEN it meters in 1.5 hours of draw
	level, _ := s.Kernel().Storage("H1")
	assert.InDelta(t, 144000+11250, level, 1e-6)
	assert.InDelta(t, 40000-11250, s.Kernel().TugWater(tug.ID), 1e-6)
	st := tug.State.(ThrottledStandby)
	assert.InDelta(t, s.now+0.5, st.NextCheck, 1e-9)
}

func TestWorkThrottled_WaitsWhileAnotherTugHoldsThePump(t *testing.T) {
	// GIVEN a throttled tug and a delivering tug connected to the same crossing
	s, tug := throttleSetup(t)
	s.release(tug, "H1", 40000)
	s.pumpSlot["H1"] = "tug9"

	// WHEN the throttle check comes due
	s.now += 0.5
	s.workThrottled(tug, tug.State.(ThrottledStandby))

	// THEN nothing is metered in and the check stays due
	level, _ := s.Kernel().Storage("H1")
	assert.InDelta(t, 144000, level, 1e-6)
	assert.InDelta(t, 40000, s.Kernel().TugWater(tug.ID), 1e-6)
	st := tug.State.(ThrottledStandby)
	assert.LessOrEqual(t, st.NextCheck, s.now)

	// AND it pumps once the connection is free
	delete(s.pumpSlot, "H1")
	s.workThrottled(tug, st)
	level, _ = s.Kernel().Storage("H1")
	assert.InDelta(t, 144000+11250, level, 1e-6)
}

func TestWorkThrottled_GoesHomeWhenNearlyEmpty(t *testing.T) {
	s, tug := throttleSetup(t)
	s.release(tug, "H1", 40000)
	s.cfg.Throttle.WaterLow = 50000

	s.now += 0.5
	s.workThrottled(tug, tug.State.(ThrottledStandby))

	_, ok := tug.State.(EnRouteEmpty)
	assert.True(t, ok, "state %s", tug.State.Status())
}

func TestShouldThrottle_KeepsSafetyFloorOfFreeTugs(t *testing.T) {
	// GIVEN the loaded tug is the only one in service
	s := newTestSimulator(t, singleRigConfig(), Fleet{Tugs: 1, SmallTransport: 1, SmallStorage: 2})
	s.now = s.byName["H1"].Pilot + 10
	stationFull(t, s, "H1", kernel.Small, 2)
	s.Kernel().SetStorageLevel("H1", 144000)
	tug := loadedTugAt(t, s, "H1", 40000)

	// THEN it may not park at the rig
	assert.False(t, s.shouldThrottle(tug, "H1", 40000))
}
