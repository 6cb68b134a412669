package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hddwater/bargesim/sim/kernel"
)

func TestDeliveredCostPerGallon_ReadyWaterIsCheaper(t *testing.T) {
	// GIVEN a source with nothing filled
	s := newTestSimulator(t, singleRigConfig(), scenarioFleet)
	cold := s.costs.DeliveredCostPerGallon("S1", "H1", 160000, kernel.Small)

	// WHEN two full barges wait there
	fullTransportAt(t, s, "S1", 2)
	warm := s.costs.DeliveredCostPerGallon("S1", "H1", 160000, kernel.Small)

	// THEN the fill time drops out of the price
	assert.Greater(t, cold, warm)
	assert.Greater(t, warm, s.cfg.Cost.WaterAcquisition["S1"])
}

func TestDeliveredCostPerGallon_UnroutableOrEmptyIsInfinite(t *testing.T) {
	s := newTestSimulator(t, singleRigConfig(), scenarioFleet)

	assert.True(t, math.IsInf(s.costs.DeliveredCostPerGallon("S1", "H9", 1000, kernel.Small), 1))
	assert.True(t, math.IsInf(s.costs.DeliveredCostPerGallon("S1", "H1", 0, kernel.Small), 1))
}

func TestQueueHours_CountsHeadroomAheadInLine(t *testing.T) {
	s := newTestSimulator(t, singleRigConfig(), scenarioFleet)
	assert.Zero(t, s.costs.QueueHours("S1"))

	s.MobilizeBarge(kernel.Small, kernel.RoleTransport, "S1", "test")
	s.MobilizeBarge(kernel.Small, kernel.RoleTransport, "S1", "test")

	// two empty 80,000 gal barges at 48,000 gal/hr
	assert.InDelta(t, 160000.0/48000, s.costs.QueueHours("S1"), 1e-9)
}
