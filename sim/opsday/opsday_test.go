package opsday

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hddwater/bargesim/sim"
	"github.com/hddwater/bargesim/sim/internal/testutil"
	"github.com/hddwater/bargesim/sim/trace"
)

func TestMain(m *testing.M) {
	logrus.SetLevel(logrus.ErrorLevel)
	os.Exit(m.Run())
}

// handReport is a report for the test project with one critical crossing on
// 2026-03-06 (hour 96) and a second crossing still rigging up.
func handReport() *sim.Report {
	return &sim.Report{
		Timeline: map[string][]sim.StorageSample{
			"H1": {
				{Time: 96, Date: "2026-03-06", Hour: 0, Level: 90000, Capacity: 160000},
				{Time: 108, Date: "2026-03-06", Hour: 12, Level: 30000, Capacity: 160000},
			},
			"H2": {
				{Time: 96, Date: "2026-03-06", Hour: 0, Level: 80000, Capacity: 160000},
			},
		},
		AssetLog: []trace.AssetLogEntry{
			{Time: 80, Date: "2026-03-05", AssetType: trace.AssetTug, AssetID: "tug1", Status: "disconnect", Location: "H1", PumpedAmount: 160000},
			{Time: 98.25, Date: "2026-03-06", AssetType: trace.AssetTug, AssetID: "tug2", Status: "idle", Location: "S1"},
			{Time: 100, Date: "2026-03-06", AssetType: trace.AssetTug, AssetID: "tug1", Status: "en-route-loaded", Location: "S1 -> H1"},
			{Time: 105.5, Date: "2026-03-06", AssetType: trace.AssetTug, AssetID: "tug1", Status: "disconnect", Location: "H1", PumpedAmount: 80000, Detail: "pumped 80000 gal into H1"},
			{Time: 105.5, Date: "2026-03-06", AssetType: trace.AssetBarge, AssetID: "SB1", Status: "idle", Location: "H1"},
		},
	}
}

func TestExtract_GradesCrossingsAndRaisesAlerts(t *testing.T) {
	// GIVEN a report where H1 is drilling on a low tank and H2 is rigging up
	p, _ := testutil.LoadProject(t)

	// WHEN the brief for the second pilot day is extracted
	b, err := Extract(handReport(), p.Config, "2026-03-06")
	require.NoError(t, err)

	// THEN the header places the day in the campaign
	assert.Equal(t, "Friday, March 6, 2026", b.DisplayDate)
	assert.Equal(t, 5, b.ProjectDay)

	// AND H1 reads the noon sample and is critical
	require.Len(t, b.ActiveHDDs, 2)
	h1 := b.ActiveHDDs[0]
	assert.Equal(t, "H1", h1.Crossing)
	assert.Equal(t, sim.PhasePilot, h1.Phase)
	assert.Equal(t, 2, h1.PhaseDay)
	assert.Equal(t, 4, h1.PhaseTotalDays)
	assert.Equal(t, 30000.0, h1.StorageLevel)
	assert.Equal(t, 19.0, h1.StoragePercent)
	assert.Equal(t, 4.0, h1.SupplyHours)
	assert.Equal(t, StatusCritical, h1.Status)

	// AND H2 falls back to its first sample and is on standby
	h2 := b.ActiveHDDs[1]
	assert.Equal(t, sim.PhaseRigUp, h2.Phase)
	assert.Equal(t, 50.0, h2.StoragePercent)
	assert.Equal(t, float64(noDrawSupplyHours), h2.SupplyHours)
	assert.Equal(t, StatusStandby, h2.Status)

	// AND the alerts cover both crossings and the next day's pilot start
	require.Len(t, b.Alerts, 3)
	assert.Equal(t, "H1 Storage Critical", b.Alerts[0].Title)
	assert.Equal(t, "H2 Rig-Up in Progress", b.Alerts[1].Title)
	assert.Equal(t, "H2 Pilot Start in 1 Day", b.Alerts[2].Title)
	assert.Empty(t, b.Recommendations)

	assert.Equal(t, 35.0, b.Summary.AvgStoragePercent)
}

func TestExtract_TugsAndDeliveriesOfTheDay(t *testing.T) {
	p, _ := testutil.LoadProject(t)

	b, err := Extract(handReport(), p.Config, "2026-03-06")
	require.NoError(t, err)

	require.Len(t, b.Tugs, 2)
	assert.Equal(t, TugStatus{ID: "tug1", Name: "T1", Status: "pumping", Detail: "pumped 80000 gal into H1", Location: "H1"}, b.Tugs[0])
	assert.Equal(t, "idle", b.Tugs[1].Status)

	require.Len(t, b.Deliveries, 1)
	assert.Equal(t, Delivery{Hour: 9.5, Time: "9:30 AM", Tug: "T1", Destination: "H1", Volume: 80000}, b.Deliveries[0])
	assert.Equal(t, 1, b.Summary.TotalDeliveries)
	assert.Equal(t, 80000.0, b.Summary.TotalVolume)
}

func TestExtract_RejectsOptimizationModeReports(t *testing.T) {
	p, _ := testutil.LoadProject(t)

	_, err := Extract(&sim.Report{}, p.Config, "2026-03-06")

	assert.ErrorIs(t, err, ErrNoTimeline)
}

func TestExtract_FromASimulatedCampaign(t *testing.T) {
	p, _ := testutil.LoadProject(t)
	r := testutil.Run(t, p.Fleet, sim.Options{})

	b, err := Extract(r, p.Config, "2026-03-10")
	require.NoError(t, err)

	require.Len(t, b.ActiveHDDs, 2)
	for _, a := range b.ActiveHDDs {
		assert.Contains(t, []Status{StatusCritical, StatusWarning, StatusHealthy}, a.Status, a.Crossing)
		assert.LessOrEqual(t, a.StorageLevel, a.StorageCapacity)
	}
	assert.NotEmpty(t, b.Tugs)
}

func TestGrade(t *testing.T) {
	assert.Equal(t, StatusStandby, grade(sim.PhaseRigDown, 0, 0))
	assert.Equal(t, StatusCritical, grade(sim.PhaseReam, 0.9, 6))
	assert.Equal(t, StatusWarning, grade(sim.PhaseReam, 0.3, 40))
	assert.Equal(t, StatusHealthy, grade(sim.PhaseReam, 0.5, 20))
}

func TestClock(t *testing.T) {
	assert.Equal(t, "12:00 AM", clock(0))
	assert.Equal(t, "12:15 PM", clock(12.25))
	assert.Equal(t, "5:05 PM", clock(17+5.0/60))
}
