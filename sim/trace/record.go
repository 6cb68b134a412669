// Package trace provides the asset action log and dispatch decision records of
// a barge simulation run. This package has no dependencies on sim/; it stores
// pure data types.
package trace

// Asset types in the action log.
const (
	AssetTug   = "Tug"
	AssetBarge = "Barge"
)

// AssetLogEntry is one state transition of a tug or barge.
type AssetLogEntry struct {
	Time         float64 `json:"time"` // simulation hours
	Date         string  `json:"date"`
	Hour         int     `json:"hour"`
	AssetType    string  `json:"assetType"`
	AssetID      string  `json:"assetId"`
	Status       string  `json:"status"`
	Location     string  `json:"location"`
	Detail       string  `json:"detail,omitempty"`
	Cargo        string  `json:"cargo,omitempty"`
	CargoLevel   float64 `json:"cargoLevel"`
	PumpedAmount float64 `json:"pumpedAmount,omitempty"`
}

// SourceCandidate is one source considered for a dispatch.
type SourceCandidate struct {
	Source        string
	CostPerGallon float64
	HasTug        bool
	FilledWater   float64
}

// DispatchRecord captures a single dispatch policy decision.
type DispatchRecord struct {
	Time       float64
	Crossing   string
	Rig        string
	Trigger    string // continuous, reactive, proactive
	Urgency    float64
	Need       float64
	Source     string
	TugID      string
	Barges     []string
	Volume     float64
	Mobilized  bool // the tug was mobilized for this dispatch
	Candidates []SourceCandidate
}
