// Package sim is the tick-driven water-supply simulation for a campaign of
// horizontal directional drilling crossings served by tugs and barges.
//
// # Reading Guide
//
// Start with these files:
//   - calendar.go: the drilling schedule, phases and hourly demand
//   - kernel/: the barge ledger, the single owner of every barge, tug cargo,
//     storage level and fill queue
//   - tug.go: the sealed tug state machine
//   - simulator.go: the 5-minute tick loop and the order of each step
//
// # Planning and Execution
//
// Before the first tick the storage scheduler (storage_schedule.go) sizes and
// times storage deliveries, transfers and returns, and the transport
// scheduler (transport_schedule.go) lays out refill deliveries and assigns
// them to tug slots. Both emit DeliveryIntents that the tick loop executes
// from an IntentQueue (delivery.go). Reactive dispatch (dispatch.go) covers
// whatever the plan misses, priced by the CostModel. Partly unloaded tugs
// may reroute (reroute.go) or meter water into a full tank (throttle.go).
//
// # Sub-packages
//
//   - sim/kernel/: barge and storage ledger with validation
//   - sim/route/: distance oracles (table, YAML, great-circle)
//   - sim/trace/: asset log and dispatch decision records
//   - sim/optimize/: fleet search, local refinement and sensitivity sweeps
//   - sim/opsday/: single-day operations view of a finished run
package sim
