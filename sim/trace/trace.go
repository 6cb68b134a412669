package trace

// TraceLevel controls the verbosity of run tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelAssets captures every tug and barge state transition.
	TraceLevelAssets TraceLevel = "assets"
	// TraceLevelDecisions captures asset transitions plus every dispatch decision.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelAssets:    true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects the asset action log and dispatch decisions of one run.
type SimulationTrace struct {
	Config     TraceConfig
	Assets     []AssetLogEntry
	Dispatches []DispatchRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:     config,
		Assets:     make([]AssetLogEntry, 0),
		Dispatches: make([]DispatchRecord, 0),
	}
}

// RecordAsset appends an asset transition unless tracing is off.
func (st *SimulationTrace) RecordAsset(entry AssetLogEntry) {
	if st == nil || st.Config.Level == TraceLevelNone || st.Config.Level == "" {
		return
	}
	st.Assets = append(st.Assets, entry)
}

// RecordDispatch appends a dispatch decision at the decisions level.
func (st *SimulationTrace) RecordDispatch(record DispatchRecord) {
	if st == nil || st.Config.Level != TraceLevelDecisions {
		return
	}
	st.Dispatches = append(st.Dispatches, record)
}
