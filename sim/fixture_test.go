package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hddwater/bargesim/sim/kernel"
	"github.com/hddwater/bargesim/sim/route"
)

// singleRigConfig is one rig drilling one crossing at 7,500 gal/hr across all
// phases, fed by one 800 GPM source ten miles away. Hour 0 is Monday
// 2026-03-02 and pilot starts at hour 72.
func singleRigConfig() Config {
	cfg := DefaultConfig()
	cfg.Sources = map[string]SourceConfig{"S1": {FlowRate: 800, HoursPerDay: 24}}
	cfg.Cost.WaterAcquisition = map[string]float64{"S1": 0.02}
	cfg.Rigs = map[string]RigRates{"R1": {Pilot: 7500, Ream: 7500, Swab: 7500, Pull: 7500}}
	cfg.Schedule = []ScheduleEntry{{
		Rig: "R1", Crossing: "H1",
		Start: "2026-03-02", RigUp: "2026-03-03", Pilot: "2026-03-05", Ream: "2026-03-09",
		Swab: "2026-03-10", Pull: "2026-03-11", RigDown: "2026-03-12",
		WorksSundays: true,
	}}
	cfg.Planning.CompletionBufferDays = 3
	return cfg
}

// sameRigConfig adds a second crossing on R1 whose pilot starts gapDays after
// H1's rig-down.
func sameRigConfig(gapDays int) Config {
	cfg := singleRigConfig()
	pilot := mustDate("2026-03-12", gapDays)
	cfg.Schedule = append(cfg.Schedule, ScheduleEntry{
		Rig: "R1", Crossing: "H2",
		Start: "2026-03-12", RigUp: "2026-03-12", Pilot: pilot, Ream: mustDate(pilot, 2),
		Swab: mustDate(pilot, 3), Pull: mustDate(pilot, 4), RigDown: mustDate(pilot, 5),
		WorksSundays: true,
	})
	return cfg
}

func mustDate(base string, days int) string {
	d, err := time.Parse(dateLayout, base)
	if err != nil {
		panic(err)
	}
	return d.AddDate(0, 0, days).Format(dateLayout)
}

// twoRigConfig runs H3 on rig R2 over the same dates as H1.
func twoRigConfig() Config {
	cfg := singleRigConfig()
	cfg.Rigs["R2"] = cfg.Rigs["R1"]
	h3 := cfg.Schedule[0]
	h3.Rig, h3.Crossing = "R2", "H3"
	cfg.Schedule = append(cfg.Schedule, h3)
	return cfg
}

func testOracle() *route.Table {
	tbl := route.NewTable()
	tbl.Set("S1", "H1", 10)
	tbl.Set("S1", "H2", 10)
	tbl.Set("S1", "H3", 12)
	tbl.Set("H1", "H2", 8)
	tbl.Set("H1", "H3", 15)
	tbl.Set("H2", "H3", 9)
	tbl.Set("S2", "H1", 14)
	tbl.Set("S2", "H2", 14)
	tbl.Set("S2", "H3", 14)
	tbl.Set("S1", "S2", 6)
	return tbl
}

func newTestSimulator(t *testing.T, cfg Config, fleet Fleet) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, fleet, testOracle(), Options{})
	require.NoError(t, err)
	return s
}

// stationFull mobilizes n storage barges of size at S1, stations them at
// crossing through a carrier tug and tops the crossing's storage up.
func stationFull(t *testing.T, s *Simulator, crossing string, size kernel.Size, n int) {
	t.Helper()
	k := s.Kernel()
	_ = k.RegisterTug("carrier") // repeat calls find it registered
	for range n {
		b := s.MobilizeBarge(size, kernel.RoleStorage, "S1", "test")
		require.NotNil(t, b)
		require.NoError(t, k.AttachBarges("carrier", []string{b.ID()}, kernel.StatusEnRouteStorage))
		require.NoError(t, k.StationBargeAtHDD(b.ID(), crossing))
	}
	_, capacity := k.Storage(crossing)
	k.SetStorageLevel(crossing, capacity)
}

// loadedTugAt mobilizes a tug and one transport barge holding gallons and
// moors the pair at crossing.
func loadedTugAt(t *testing.T, s *Simulator, crossing string, gallons float64) *Tug {
	t.Helper()
	k := s.Kernel()
	tug := s.MobilizeTug("S1", "test")
	require.NotNil(t, tug)
	b := s.MobilizeBarge(kernel.Small, kernel.RoleTransport, "S1", "test")
	require.NotNil(t, b)
	require.Same(t, b, k.StartFill("S1"))
	k.AddFill("S1", gallons)
	require.NoError(t, k.AttachBarges(tug.ID, []string{b.ID()}, kernel.StatusAtRig))
	tug.Location = crossing
	return tug
}

// fullTransportAt mobilizes n transport barges at source and fills them.
func fullTransportAt(t *testing.T, s *Simulator, source string, n int) {
	t.Helper()
	k := s.Kernel()
	for range n {
		b := s.MobilizeBarge(kernel.Small, kernel.RoleTransport, source, "test")
		require.NotNil(t, b)
	}
	for k.StartFill(source) != nil {
		_, done := k.AddFill(source, s.cfg.SmallBargeVolume)
		require.NotNil(t, done)
	}
}
