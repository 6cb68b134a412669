package trace

import (
	"testing"
)

func TestSimulationTrace_RecordAsset_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for asset logging
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelAssets})

	// WHEN an asset transition is recorded
	st.RecordAsset(AssetLogEntry{
		Time:      12.5,
		AssetType: AssetTug,
		AssetID:   "tug1",
		Status:    "en-route-loaded",
		Location:  "source1",
	})

	// THEN the trace contains one entry with correct data
	if len(st.Assets) != 1 {
		t.Fatalf("expected 1 asset entry, got %d", len(st.Assets))
	}
	if st.Assets[0].AssetID != "tug1" {
		t.Errorf("expected asset tug1, got %s", st.Assets[0].AssetID)
	}
}

func TestSimulationTrace_AssetsLevel_DropsDispatches(t *testing.T) {
	// GIVEN a trace at the assets level
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelAssets})

	// WHEN a dispatch decision is recorded
	st.RecordDispatch(DispatchRecord{Crossing: "HDD17", Trigger: "reactive"})

	// THEN it is not kept
	if len(st.Dispatches) != 0 {
		t.Errorf("expected no dispatch records, got %d", len(st.Dispatches))
	}
}

func TestSimulationTrace_NoneLevel_RecordsNothing(t *testing.T) {
	// GIVEN a disabled trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelNone})

	// WHEN records are added
	st.RecordAsset(AssetLogEntry{AssetID: "tug1"})
	st.RecordDispatch(DispatchRecord{Crossing: "HDD17"})

	// THEN nothing is kept
	if len(st.Assets) != 0 || len(st.Dispatches) != 0 {
		t.Error("expected an empty trace")
	}
}

func TestSimulationTrace_NilTrace_IsSafe(t *testing.T) {
	// GIVEN no trace
	var st *SimulationTrace

	// WHEN records are added THEN nothing panics
	st.RecordAsset(AssetLogEntry{AssetID: "tug1"})
	st.RecordDispatch(DispatchRecord{Crossing: "HDD17"})
}

func TestSimulationTrace_MultipleRecords_PreservesOrder(t *testing.T) {
	// GIVEN a trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN multiple records are added
	st.RecordAsset(AssetLogEntry{AssetID: "tug1", Time: 1})
	st.RecordAsset(AssetLogEntry{AssetID: "ST1", Time: 2})
	st.RecordDispatch(DispatchRecord{Crossing: "HDD17", Time: 1.5})

	// THEN order is preserved
	if len(st.Assets) != 2 {
		t.Fatalf("expected 2 asset entries, got %d", len(st.Assets))
	}
	if st.Assets[0].AssetID != "tug1" || st.Assets[1].AssetID != "ST1" {
		t.Error("asset order not preserved")
	}
	if len(st.Dispatches) != 1 || st.Dispatches[0].Crossing != "HDD17" {
		t.Error("dispatch record mismatch")
	}
}

func TestIsValidTraceLevel_ValidLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"assets", true},
		{"decisions", true},
		{"", true}, // empty defaults to none
		{"detailed", false},
		{"NONE", false}, // case-sensitive
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := IsValidTraceLevel(tt.level); got != tt.valid {
				t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.valid)
			}
		})
	}
}
