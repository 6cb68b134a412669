package sim

import (
	"math"

	"github.com/hddwater/bargesim/sim/kernel"
)

// CostModel prices a delivery from a source to a crossing.
type CostModel struct {
	cfg    Config
	router *Router
	k      *kernel.Kernel
}

// NewCostModel builds a cost model over the live barge ledger.
func NewCostModel(cfg Config, router *Router, k *kernel.Kernel) *CostModel {
	return &CostModel{cfg: cfg, router: router, k: k}
}

// QueueHours is how long a new fill request at source would wait behind the
// barges already queued or filling there.
func (m *CostModel) QueueHours(source string) float64 {
	ahead := 0.0
	for _, b := range m.k.PooledBarges(source) {
		if b.FillRequested() || m.k.Filling(source) == b {
			ahead += b.Headroom()
		}
	}
	return m.router.FillHours(source, ahead)
}

// DeliveredCostPerGallon is the cost of moving gallons from source to
// crossing in barges of size: tug and barge time spent waiting and filling
// (day rates plus idle fuel), transit both ways and pumping (day rates plus
// running fuel), and the water itself, divided by gallons. Water already in
// full barges at the source needs no wait or fill. It returns +Inf when the
// pair has no route.
func (m *CostModel) DeliveredCostPerGallon(source, crossing string, gallons float64, size kernel.Size) float64 {
	if gallons <= 0 {
		return math.Inf(1)
	}
	out, ok := m.router.LoadedHours(source, crossing, size)
	if !ok {
		return math.Inf(1)
	}
	back, ok := m.router.EmptyHours(crossing, source)
	if !ok {
		return math.Inf(1)
	}

	ready := 0.0
	for _, b := range m.k.FreeBargesAtSource(source, size, kernel.RoleTransport) {
		if b.IsFull() {
			ready += b.Fill()
		}
	}
	wait, fill := 0.0, 0.0
	if ready < gallons {
		wait = m.QueueHours(source)
		fill = m.router.FillHours(source, gallons-ready)
	}

	c := m.cfg.Cost
	barges := math.Ceil(gallons / bargeVolume(m.cfg, size))
	bargeRate := c.Barge.SmallDayRate
	if size == kernel.Large {
		bargeRate = c.Barge.LargeDayRate
	}
	hourly := c.Tug.DayRate/24 + barges*bargeRate/24
	idle := (wait + fill) * (hourly + c.Tug.FuelIdleGPH*c.FuelPrice)
	transit := (out + back + m.cfg.SwitchoutTime) * (hourly + c.Tug.FuelRunningGPH*c.FuelPrice)
	pump := (2*m.cfg.HookupTime + m.router.PumpHours(gallons)) * (hourly + c.Tug.FuelIdleGPH*c.FuelPrice)
	water := gallons * c.WaterAcquisition[source]
	return (idle + transit + pump + water) / gallons
}
