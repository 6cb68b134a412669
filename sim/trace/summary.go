package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	AssetEntries       int
	StatusCounts       map[string]int // asset status -> transitions into it
	TotalDispatches    int
	TriggerCounts      map[string]int
	MeanUrgency        float64
	MaxUrgency         float64
	DispatchedVolume   float64
	UniqueTargets      int
	TargetDistribution map[string]int // crossing -> dispatches
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		StatusCounts:       make(map[string]int),
		TriggerCounts:      make(map[string]int),
		TargetDistribution: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.AssetEntries = len(st.Assets)
	for _, a := range st.Assets {
		summary.StatusCounts[a.Status]++
	}

	if len(st.Dispatches) > 0 {
		totalUrgency := 0.0
		for _, d := range st.Dispatches {
			summary.TargetDistribution[d.Crossing]++
			summary.TriggerCounts[d.Trigger]++
			summary.DispatchedVolume += d.Volume
			totalUrgency += d.Urgency
			if d.Urgency > summary.MaxUrgency {
				summary.MaxUrgency = d.Urgency
			}
		}
		summary.TotalDispatches = len(st.Dispatches)
		summary.MeanUrgency = totalUrgency / float64(len(st.Dispatches))
	}

	summary.UniqueTargets = len(summary.TargetDistribution)

	return summary
}
