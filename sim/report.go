package sim

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hddwater/bargesim/sim/trace"
)

// Report is the outcome of one simulation run.
type Report struct {
	Fleet        Fleet                      `json:"fleet"`
	StartDate    string                     `json:"startDate"`
	EndHours     float64                    `json:"endHours"`
	Daily        map[string]*DailyAggregate `json:"daily"`
	AssetLog     []trace.AssetLogEntry      `json:"assetLog,omitempty"`
	Dispatches   []trace.DispatchRecord     `json:"dispatches,omitempty"`
	RanDryEvents []RanDryEvent              `json:"ranDryEvents"`
	Timeline     map[string][]StorageSample `json:"timeline,omitempty"`
	StorageMoves []StorageMove              `json:"storageMoves"`
	Costs        CostBreakdown              `json:"costs"`

	RanDryCount   int     `json:"ranDryCount"`
	TotalDemand   float64 `json:"totalDemand"`
	TotalUsage    float64 `json:"totalUsage"`
	TotalDeficit  float64 `json:"totalDeficit"`
	TotalInjected float64 `json:"totalInjected"`
	TotalFilled   float64 `json:"totalFilled"`
	DowntimeHours float64 `json:"downtimeHours"`
	Score         float64 `json:"score"`
	Success       bool    `json:"success"`

	Abandoned int      `json:"abandonedIntents"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Days returns the report dates in order.
func (r *Report) Days() []string {
	m := Metrics{Daily: r.Daily}
	return m.Days()
}

// WriteJSON encodes the report with indentation.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

func (s *Simulator) report() *Report {
	m := s.metrics
	costs := m.Costs
	costs.Downtime = m.DowntimeHours * s.cfg.Cost.DowntimeHourly
	costs.GrandTotal = costs.Total()

	r := &Report{
		Fleet:         s.fleet,
		StartDate:     s.cal.Date(0),
		EndHours:      s.end,
		Daily:         m.Daily,
		RanDryEvents:  m.RanDry,
		StorageMoves:  m.Moves,
		Costs:         costs,
		RanDryCount:   len(m.RanDry),
		TotalDemand:   m.TotalDemand,
		TotalUsage:    m.TotalUsage,
		TotalDeficit:  m.TotalDeficit,
		TotalInjected: m.TotalInjected,
		TotalFilled:   m.TotalFilled,
		DowntimeHours: m.DowntimeHours,
		Abandoned:     s.abandoned,
		Warnings:      s.warnings,
	}
	r.Score = costs.GrandTotal + s.cfg.RanDryPenalty*float64(r.RanDryCount)
	r.Success = r.RanDryCount == 0
	if !s.opts.OptimizationMode {
		r.AssetLog = s.trace.Assets
		r.Dispatches = s.trace.Dispatches
		r.Timeline = m.Timeline
	}
	return r
}
