// Tracks run-wide and per-day accumulators: water, ran-dry periods, costs,
// and the hourly storage timeline of every crossing.

package sim

import (
	"maps"
	"slices"
)

// DailyAggregate is the water balance and fleet usage of one calendar day.
type DailyAggregate struct {
	Date          string          `json:"date"`
	Demand        float64         `json:"demand"`
	Usage         float64         `json:"usage"`
	Deficit       float64         `json:"deficit"`
	Injected      float64         `json:"injected"`
	Filled        float64         `json:"filled"`
	RanDry        map[string]bool `json:"ranDry"` // rig -> ran dry at least once
	DowntimeHours float64         `json:"downtimeHours"`
	ActiveTugs    int             `json:"activeTugs"`
	ActiveBarges  int             `json:"activeBarges"`
}

// RanDryEvent is one contiguous period in which a rig could not be supplied.
type RanDryEvent struct {
	Rig      string  `json:"rig"`
	HDD      string  `json:"hdd"`
	Phase    Phase   `json:"phase"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
	Date     string  `json:"date"`
}

// StorageSample is one hourly reading of a crossing's storage.
type StorageSample struct {
	Time      float64 `json:"time"`
	Date      string  `json:"date"`
	Hour      int     `json:"hour"`
	Level     float64 `json:"level"`
	Capacity  float64 `json:"capacity"`
	Injected  float64 `json:"injected"`
	Withdrawn float64 `json:"withdrawn"`
}

// StorageMove records stationed barges handed from one crossing to the next
// crossing of the same rig.
type StorageMove struct {
	Time   float64  `json:"time"`
	From   string   `json:"from"`
	To     string   `json:"to"`
	Barges []string `json:"barges"`
	Water  float64  `json:"water"`
}

// CostBreakdown is the cost of a run by category.
type CostBreakdown struct {
	Rental       float64 `json:"rental"`
	Fuel         float64 `json:"fuel"`
	Downtime     float64 `json:"downtime"`
	Mobilization float64 `json:"mobilization"`
	Water        float64 `json:"water"`
	GrandTotal   float64 `json:"grandTotal"`
}

// Total sums the categories.
func (c CostBreakdown) Total() float64 {
	return c.Rental + c.Fuel + c.Downtime + c.Mobilization + c.Water
}

type openDry struct {
	hdd   string
	phase Phase
	start float64
	date  string
}

// Metrics aggregates run statistics for the final report.
type Metrics struct {
	Daily    map[string]*DailyAggregate
	RanDry   []RanDryEvent
	Timeline map[string][]StorageSample
	Moves    []StorageMove
	Costs    CostBreakdown

	TotalDemand   float64
	TotalUsage    float64
	TotalDeficit  float64
	TotalInjected float64
	TotalFilled   float64
	DowntimeHours float64

	open     map[string]openDry // rig -> open ran-dry period
	hourIn   map[string]float64 // crossing -> injected since the last sample
	hourOut  map[string]float64 // crossing -> withdrawn since the last sample
	keepTime bool
}

// NewMetrics returns empty accumulators. The hourly timeline is only kept
// when timeline is true.
func NewMetrics(timeline bool) *Metrics {
	return &Metrics{
		Daily:    make(map[string]*DailyAggregate),
		Timeline: make(map[string][]StorageSample),
		open:     make(map[string]openDry),
		hourIn:   make(map[string]float64),
		hourOut:  make(map[string]float64),
		keepTime: timeline,
	}
}

// Day returns the aggregate of date, creating it on first use.
func (m *Metrics) Day(date string) *DailyAggregate {
	d, ok := m.Daily[date]
	if !ok {
		d = &DailyAggregate{Date: date, RanDry: make(map[string]bool)}
		m.Daily[date] = d
	}
	return d
}

// Days returns the aggregated dates in order.
func (m *Metrics) Days() []string {
	return slices.Sorted(maps.Keys(m.Daily))
}

func (m *Metrics) recordInjected(date, crossing string, gal float64) {
	if gal <= 0 {
		return
	}
	m.Day(date).Injected += gal
	m.TotalInjected += gal
	m.hourIn[crossing] += gal
}

func (m *Metrics) recordFilled(date string, gal float64) {
	m.Day(date).Filled += gal
	m.TotalFilled += gal
}

// recordConsumption books one tick of demand at a crossing and opens or
// closes the rig's ran-dry period.
func (m *Metrics) recordConsumption(date string, now, dt float64, h *HDD, phase Phase, demand, drawn float64) {
	d := m.Day(date)
	deficit := max(0, demand-drawn)
	d.Demand += demand
	d.Usage += drawn
	d.Deficit += deficit
	m.TotalDemand += demand
	m.TotalUsage += drawn
	m.TotalDeficit += deficit
	m.hourOut[h.Crossing] += drawn

	if deficit > waterEpsilon {
		hours := dt * deficit / demand
		d.RanDry[h.Rig] = true
		d.DowntimeHours += hours
		m.DowntimeHours += hours
		if _, ok := m.open[h.Rig]; !ok {
			m.open[h.Rig] = openDry{hdd: h.Crossing, phase: phase, start: now, date: date}
		}
		return
	}
	m.closeDry(h, now)
}

// closeDry ends the rig's open period only when it was opened by this
// crossing; a sibling crossing of the same rig sitting idle leaves it open.
func (m *Metrics) closeDry(h *HDD, now float64) {
	o, ok := m.open[h.Rig]
	if !ok || o.hdd != h.Crossing {
		return
	}
	m.end(h.Rig, o, now)
}

// end records the period as an event dated by the day it started.
func (m *Metrics) end(rig string, o openDry, now float64) {
	delete(m.open, rig)
	m.RanDry = append(m.RanDry, RanDryEvent{
		Rig:      rig,
		HDD:      o.hdd,
		Phase:    o.phase,
		Start:    o.start,
		End:      now,
		Duration: now - o.start,
		Date:     o.date,
	})
}

// closeAll force-closes every open period at now, in rig order.
func (m *Metrics) closeAll(now float64) {
	for _, rig := range slices.Sorted(maps.Keys(m.open)) {
		m.end(rig, m.open[rig], now)
	}
}

func (m *Metrics) sample(crossing string, s StorageSample) {
	s.Injected = m.hourIn[crossing]
	s.Withdrawn = m.hourOut[crossing]
	m.hourIn[crossing] = 0
	m.hourOut[crossing] = 0
	if m.keepTime {
		m.Timeline[crossing] = append(m.Timeline[crossing], s)
	}
}
