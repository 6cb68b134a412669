package sim

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Fleet holds the unmobilized pool counts for one run. Nothing is placed at
// t=0; assets are created from these counts as they are needed.
type Fleet struct {
	Tugs           int `yaml:"tugs" json:"tugs" validate:"min=0"`
	SmallTransport int `yaml:"small_transport" json:"smallTransport" validate:"min=0"`
	SmallStorage   int `yaml:"small_storage" json:"smallStorage" validate:"min=0"`
	LargeTransport int `yaml:"large_transport" json:"largeTransport" validate:"min=0"`
	LargeStorage   int `yaml:"large_storage" json:"largeStorage" validate:"min=0"`
}

func (f Fleet) String() string {
	return fmt.Sprintf("%dT %dST %dSS %dLT %dLS", f.Tugs, f.SmallTransport, f.SmallStorage, f.LargeTransport, f.LargeStorage)
}

// SourceConfig describes one water source.
type SourceConfig struct {
	FlowRate    float64 `yaml:"flow_rate" json:"flowRate"`         // GPM
	HoursPerDay float64 `yaml:"hours_per_day" json:"hoursPerDay"` // operating window length
	OpenHour    float64 `yaml:"open_hour" json:"openHour"`        // window start when HoursPerDay < 24
}

// RigRates are per-phase consumption rates in gallons per drilling hour.
type RigRates struct {
	Pilot float64 `yaml:"pilot" json:"pilot" validate:"min=0"`
	Ream  float64 `yaml:"ream" json:"ream" validate:"min=0"`
	Swab  float64 `yaml:"swab" json:"swab" validate:"min=0"`
	Pull  float64 `yaml:"pull" json:"pull" validate:"min=0"`
}

// ScheduleEntry is the static plan of one HDD crossing. Dates are YYYY-MM-DD.
type ScheduleEntry struct {
	Rig          string `yaml:"rig" json:"rig" validate:"required"`
	Crossing     string `yaml:"crossing" json:"crossing" validate:"required"`
	Start        string `yaml:"start" json:"start" validate:"required,datetime=2006-01-02"`
	RigUp        string `yaml:"rig_up" json:"rigUp" validate:"required,datetime=2006-01-02"`
	Pilot        string `yaml:"pilot" json:"pilot" validate:"required,datetime=2006-01-02"`
	Ream         string `yaml:"ream" json:"ream" validate:"required,datetime=2006-01-02"`
	Swab         string `yaml:"swab" json:"swab" validate:"required,datetime=2006-01-02"`
	Pull         string `yaml:"pull" json:"pull" validate:"required,datetime=2006-01-02"`
	RigDown      string `yaml:"rig_down" json:"rigDown" validate:"required,datetime=2006-01-02"`
	WorksSundays bool   `yaml:"works_sundays" json:"worksSundays"`
}

// TugCost groups tug rental and fuel burn.
type TugCost struct {
	DayRate        float64 `yaml:"day_rate" json:"dayRate"`
	FuelIdleGPH    float64 `yaml:"fuel_idle_gph" json:"fuelIdleGPH"`
	FuelRunningGPH float64 `yaml:"fuel_running_gph" json:"fuelRunningGPH"`
}

// BargeCost groups barge rental by size.
type BargeCost struct {
	SmallDayRate float64 `yaml:"small_day_rate" json:"smallDayRate"`
	LargeDayRate float64 `yaml:"large_day_rate" json:"largeDayRate"`
}

// MobilizationCost is the one-off cost of bringing an asset in and out of service.
type MobilizationCost struct {
	TugMob          float64 `yaml:"tug_mob" json:"tugMob"`
	TugDemob        float64 `yaml:"tug_demob" json:"tugDemob"`
	SmallBargeMob   float64 `yaml:"small_barge_mob" json:"smallBargeMob"`
	SmallBargeDemob float64 `yaml:"small_barge_demob" json:"smallBargeDemob"`
	LargeBargeMob   float64 `yaml:"large_barge_mob" json:"largeBargeMob"`
	LargeBargeDemob float64 `yaml:"large_barge_demob" json:"largeBargeDemob"`
}

// CostConfig is the nested cost structure used for the breakdown and score.
type CostConfig struct {
	Tug              TugCost            `yaml:"tug" json:"tug"`
	Barge            BargeCost          `yaml:"barge" json:"barge"`
	FuelPrice        float64            `yaml:"fuel_price" json:"fuelPrice"`               // $/gal
	DowntimeHourly   float64            `yaml:"downtime_hourly" json:"downtimeHourly"`     // $/hr of rig downtime
	Mobilization     MobilizationCost   `yaml:"mobilization" json:"mobilization"`
	WaterAcquisition map[string]float64 `yaml:"water_acquisition" json:"waterAcquisition"` // $/gal by source
}

// PlanningConfig holds scheduler and event-loop timing constants.
type PlanningConfig struct {
	RigDownBufferDays        int     `yaml:"rig_down_buffer_days" json:"rigDownBufferDays"`
	SameRigTransferGapDays   float64 `yaml:"same_rig_transfer_gap_days" json:"sameRigTransferGapDays"`
	MinTransferGapDays       float64 `yaml:"min_transfer_gap_days" json:"minTransferGapDays"`
	StorageTargetMultiplier  float64 `yaml:"storage_target_multiplier" json:"storageTargetMultiplier"`
	StorageArrivalLeadHours  float64 `yaml:"storage_arrival_lead_hours" json:"storageArrivalLeadHours"`
	StorageReturnBufferHours float64 `yaml:"storage_return_buffer_hours" json:"storageReturnBufferHours"`
	TransportTriggerFraction float64 `yaml:"transport_trigger_fraction" json:"transportTriggerFraction"`
	TransportSpacingHours    float64 `yaml:"transport_spacing_hours" json:"transportSpacingHours"`
	TransportTargetMultiple  float64 `yaml:"transport_target_multiple" json:"transportTargetMultiple"`
	MobilizationLeadHours    float64 `yaml:"mobilization_lead_hours" json:"mobilizationLeadHours"`
	BootstrapWindowHours     float64 `yaml:"bootstrap_window_hours" json:"bootstrapWindowHours"`
	DemobLookaheadHours      float64 `yaml:"demob_lookahead_hours" json:"demobLookaheadHours"`
	RetryHours               float64 `yaml:"retry_hours" json:"retryHours"`
	BackoffHours             float64 `yaml:"backoff_hours" json:"backoffHours"`
	FailuresBeforeBackoff    int     `yaml:"failures_before_backoff" json:"failuresBeforeBackoff"`
	MaxDispatchesPerTick     int     `yaml:"max_dispatches_per_tick" json:"maxDispatchesPerTick"`
	CompletionBufferDays     int     `yaml:"completion_buffer_days" json:"completionBufferDays"`
}

// ThrottleConfig tunes throttled standby.
type ThrottleConfig struct {
	EntryWater        float64 `yaml:"entry_water" json:"entryWater"`
	EntryHeadroom     float64 `yaml:"entry_headroom" json:"entryHeadroom"`
	UrgentSupplyHours float64 `yaml:"urgent_supply_hours" json:"urgentSupplyHours"`
	CheckInterval     float64 `yaml:"check_interval_hours" json:"checkIntervalHours"`
	BreakoutWater     float64 `yaml:"breakout_water" json:"breakoutWater"`
	WaterLow          float64 `yaml:"water_low" json:"waterLow"`
	IncrementHours    float64 `yaml:"increment_hours" json:"incrementHours"`
	SafetyFloor       int     `yaml:"safety_floor" json:"safetyFloor"`
}

// RerouteConfig tunes direct HDD-to-HDD rerouting.
type RerouteConfig struct {
	MinWater      float64 `yaml:"min_water" json:"minWater"`
	MaxDistanceNM float64 `yaml:"max_distance_nm" json:"maxDistanceNM"`
	MinScore      float64 `yaml:"min_score" json:"minScore"`
}

// Config is the complete engine configuration. Treat it as a value: the
// simulator keeps the normalized copy it was built with and never mutates it.
type Config struct {
	SmallBargeVolume  float64 `yaml:"small_barge_volume" json:"smallBargeVolume"`
	LargeBargeVolume  float64 `yaml:"large_barge_volume" json:"largeBargeVolume"`
	SmallBargesPerTug int     `yaml:"small_barges_per_tug" json:"smallBargesPerTug"`
	LargeBargesPerTug int     `yaml:"large_barges_per_tug" json:"largeBargesPerTug"`
	LoadedSpeedSmall  float64 `yaml:"loaded_speed_small" json:"loadedSpeedSmall"` // knots
	LoadedSpeedLarge  float64 `yaml:"loaded_speed_large" json:"loadedSpeedLarge"` // knots
	EmptySpeed        float64 `yaml:"empty_speed" json:"emptySpeed"`              // knots
	SwitchoutTime     float64 `yaml:"switchout_time" json:"switchoutTime"`        // hours
	HookupTime        float64 `yaml:"hookup_time" json:"hookupTime"`              // hours
	PumpRate          float64 `yaml:"pump_rate" json:"pumpRate"`                  // GPM
	DrillingStartHour float64 `yaml:"drilling_start_hour" json:"drillingStartHour"`
	DrillingEndHour   float64 `yaml:"drilling_end_hour" json:"drillingEndHour"`
	ContinuousOps     bool    `yaml:"continuous_ops" json:"continuousOps"`
	RanDryPenalty     float64 `yaml:"ran_dry_penalty" json:"ranDryPenalty"`

	Sources  map[string]SourceConfig `yaml:"sources" json:"sources" validate:"required,min=1"`
	Rigs     map[string]RigRates     `yaml:"rigs" json:"rigs" validate:"required,min=1,dive"`
	Schedule []ScheduleEntry         `yaml:"schedule" json:"schedule" validate:"required,min=1,dive"`
	Cost     CostConfig              `yaml:"cost" json:"cost"`
	Planning PlanningConfig          `yaml:"planning" json:"planning"`
	Throttle ThrottleConfig          `yaml:"throttle" json:"throttle"`
	Reroute  RerouteConfig           `yaml:"reroute" json:"reroute"`
}

// DefaultConfig returns the base project configuration: three sources, three
// rigs and a ten-crossing schedule.
func DefaultConfig() Config {
	return Config{
		SmallBargeVolume:  80000,
		LargeBargeVolume:  300000,
		SmallBargesPerTug: 2,
		LargeBargesPerTug: 1,
		LoadedSpeedSmall:  5,
		LoadedSpeedLarge:  4,
		EmptySpeed:        5,
		SwitchoutTime:     0.5,
		HookupTime:        0.33,
		PumpRate:          1000,
		DrillingStartHour: 7,
		DrillingEndHour:   17,
		RanDryPenalty:     1e6,
		Sources: map[string]SourceConfig{
			"source1": {FlowRate: 800, HoursPerDay: 24},
			"source2": {FlowRate: 200, HoursPerDay: 24},
			"source3": {FlowRate: 400, HoursPerDay: 24},
		},
		Rigs: map[string]RigRates{
			"Blue":  {Pilot: 7500, Ream: 20000, Swab: 17000, Pull: 14000},
			"Green": {Pilot: 7500, Ream: 20000, Swab: 17000, Pull: 14000},
			"Red":   {Pilot: 7500, Ream: 20000, Swab: 17000, Pull: 14000},
		},
		Schedule: []ScheduleEntry{
			{Rig: "Blue", Crossing: "HDD17", Start: "2026-05-14", RigUp: "2026-05-18", Pilot: "2026-05-24", Ream: "2026-05-27", Swab: "2026-05-28", Pull: "2026-05-29", RigDown: "2026-06-04"},
			{Rig: "Green", Crossing: "HDD18", Start: "2026-05-27", RigUp: "2026-05-31", Pilot: "2026-06-11", Ream: "2026-06-22", Swab: "2026-06-23", Pull: "2026-06-24", RigDown: "2026-06-30"},
			{Rig: "Blue", Crossing: "HDD20", Start: "2026-06-06", RigUp: "2026-06-09", Pilot: "2026-06-15", Ream: "2026-06-18", Swab: "2026-06-19", Pull: "2026-06-21", RigDown: "2026-06-26"},
			{Rig: "Red", Crossing: "HDD23", Start: "2026-06-21", RigUp: "2026-06-24", Pilot: "2026-07-03", Ream: "2026-07-10", Swab: "2026-07-12", Pull: "2026-07-13", RigDown: "2026-07-19"},
			{Rig: "Blue", Crossing: "HDD19", Start: "2026-06-28", RigUp: "2026-07-01", Pilot: "2026-07-08", Ream: "2026-07-13", Swab: "2026-07-14", Pull: "2026-07-15", RigDown: "2026-07-21"},
			{Rig: "Green", Crossing: "HDD21", Start: "2026-07-02", RigUp: "2026-07-05", Pilot: "2026-07-19", Ream: "2026-07-31", Swab: "2026-08-02", Pull: "2026-08-03", RigDown: "2026-08-09"},
			{Rig: "Red", Crossing: "HDD25", Start: "2026-07-21", RigUp: "2026-07-23", Pilot: "2026-08-03", Ream: "2026-08-13", Swab: "2026-08-14", Pull: "2026-08-16", RigDown: "2026-08-21"},
			{Rig: "Blue", Crossing: "HDD22", Start: "2026-07-23", RigUp: "2026-07-26", Pilot: "2026-07-30", Ream: "2026-08-02", Swab: "2026-08-03", Pull: "2026-08-04", RigDown: "2026-08-10"},
			{Rig: "Blue", Crossing: "HDD24", Start: "2026-08-12", RigUp: "2026-08-14", Pilot: "2026-08-18", Ream: "2026-08-20", Swab: "2026-08-21", Pull: "2026-08-23", RigDown: "2026-08-28"},
			{Rig: "Red", Crossing: "HDD26", Start: "2026-08-23", RigUp: "2026-08-26", Pilot: "2026-08-31", Ream: "2026-09-03", Swab: "2026-09-04", Pull: "2026-09-06", RigDown: "2026-09-11"},
		},
		Cost: CostConfig{
			Tug:            TugCost{DayRate: 4500, FuelIdleGPH: 10, FuelRunningGPH: 45},
			Barge:          BargeCost{SmallDayRate: 250, LargeDayRate: 750},
			FuelPrice:      3.00,
			DowntimeHourly: 6591,
			Mobilization: MobilizationCost{
				TugMob: 9000, TugDemob: 9000,
				SmallBargeMob: 500, SmallBargeDemob: 500,
				LargeBargeMob: 1500, LargeBargeDemob: 1500,
			},
			WaterAcquisition: map[string]float64{"source1": 0.02, "source2": 0.03, "source3": 0.03},
		},
		Planning: defaultPlanning(),
		Throttle: defaultThrottle(),
		Reroute:  defaultReroute(),
	}
}

func defaultPlanning() PlanningConfig {
	return PlanningConfig{
		RigDownBufferDays:        3,
		SameRigTransferGapDays:   14,
		MinTransferGapDays:       7,
		StorageTargetMultiplier:  1.5,
		StorageArrivalLeadHours:  12,
		StorageReturnBufferHours: 24,
		TransportTriggerFraction: 0.5,
		TransportSpacingHours:    4,
		TransportTargetMultiple:  1.5,
		MobilizationLeadHours:    24,
		BootstrapWindowHours:     48,
		DemobLookaheadHours:      72,
		RetryHours:               1,
		BackoffHours:             4,
		FailuresBeforeBackoff:    3,
		MaxDispatchesPerTick:     20,
		CompletionBufferDays:     14,
	}
}

func defaultThrottle() ThrottleConfig {
	return ThrottleConfig{
		EntryWater:        30000,
		EntryHeadroom:     50000,
		UrgentSupplyHours: 12,
		CheckInterval:     0.5,
		BreakoutWater:     50000,
		WaterLow:          10000,
		IncrementHours:    1.5,
		SafetyFloor:       2,
	}
}

func defaultReroute() RerouteConfig {
	return RerouteConfig{MinWater: 50000, MaxDistanceNM: 25, MinScore: 10}
}

// ValidateStructure checks the shape of the configuration: a non-empty
// schedule with rig, crossing and well-formed dates on every entry, and at
// least one source and rig. Range problems are not reported here; Normalize
// repairs those.
func (c Config) ValidateStructure() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateFleet checks that every fleet count is non-negative.
func ValidateFleet(f Fleet) error {
	if err := validator.New().Struct(f); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	var messages []string
	for _, e := range validationErrs {
		messages = append(messages, fmt.Sprintf("field '%s' failed validation: %s (value: '%v')", e.Namespace(), e.Tag(), e.Value()))
	}
	return fmt.Errorf("validation failed:\n  %s", strings.Join(messages, "\n  "))
}

// Normalize returns a copy of c with every out-of-range or missing value
// replaced by its default, plus one message per substitution. The receiver
// is not modified; maps and the schedule are deep-copied.
func (c Config) Normalize() (Config, []string) {
	def := DefaultConfig()
	n := c
	n.Sources = maps.Clone(c.Sources)
	n.Rigs = maps.Clone(c.Rigs)
	n.Schedule = slices.Clone(c.Schedule)
	n.Cost.WaterAcquisition = maps.Clone(c.Cost.WaterAcquisition)
	if n.Sources == nil {
		n.Sources = map[string]SourceConfig{}
	}
	if n.Cost.WaterAcquisition == nil {
		n.Cost.WaterAcquisition = map[string]float64{}
	}

	var fixes []string
	positive := func(name string, v *float64, d float64) {
		if *v <= 0 {
			fixes = append(fixes, fmt.Sprintf("%s=%g is not positive; using %g", name, *v, d))
			*v = d
		}
	}
	nonNegative := func(name string, v *float64, d float64) {
		if *v < 0 {
			fixes = append(fixes, fmt.Sprintf("%s=%g is negative; using %g", name, *v, d))
			*v = d
		}
	}
	positiveInt := func(name string, v *int, d int) {
		if *v <= 0 {
			fixes = append(fixes, fmt.Sprintf("%s=%d is not positive; using %d", name, *v, d))
			*v = d
		}
	}

	positive("small_barge_volume", &n.SmallBargeVolume, def.SmallBargeVolume)
	positive("large_barge_volume", &n.LargeBargeVolume, def.LargeBargeVolume)
	positiveInt("small_barges_per_tug", &n.SmallBargesPerTug, def.SmallBargesPerTug)
	positiveInt("large_barges_per_tug", &n.LargeBargesPerTug, def.LargeBargesPerTug)
	positive("loaded_speed_small", &n.LoadedSpeedSmall, def.LoadedSpeedSmall)
	positive("loaded_speed_large", &n.LoadedSpeedLarge, def.LoadedSpeedLarge)
	positive("empty_speed", &n.EmptySpeed, def.EmptySpeed)
	nonNegative("switchout_time", &n.SwitchoutTime, def.SwitchoutTime)
	nonNegative("hookup_time", &n.HookupTime, def.HookupTime)
	positive("pump_rate", &n.PumpRate, def.PumpRate)
	nonNegative("ran_dry_penalty", &n.RanDryPenalty, def.RanDryPenalty)

	if n.DrillingStartHour < 0 || n.DrillingEndHour > 24 || n.DrillingStartHour >= n.DrillingEndHour {
		fixes = append(fixes, fmt.Sprintf("drilling window [%g, %g) is invalid; using [%g, %g)",
			n.DrillingStartHour, n.DrillingEndHour, def.DrillingStartHour, def.DrillingEndHour))
		n.DrillingStartHour, n.DrillingEndHour = def.DrillingStartHour, def.DrillingEndHour
	}

	for _, id := range slices.Sorted(maps.Keys(n.Sources)) {
		src := n.Sources[id]
		positive("sources."+id+".flow_rate", &src.FlowRate, 400)
		if src.HoursPerDay <= 0 || src.HoursPerDay > 24 {
			fixes = append(fixes, fmt.Sprintf("sources.%s.hours_per_day=%g is outside (0, 24]; using 24", id, src.HoursPerDay))
			src.HoursPerDay = 24
		}
		if src.OpenHour < 0 || src.OpenHour >= 24 {
			fixes = append(fixes, fmt.Sprintf("sources.%s.open_hour=%g is outside [0, 24); using 6", id, src.OpenHour))
			src.OpenHour = 6
		}
		n.Sources[id] = src
		if _, ok := n.Cost.WaterAcquisition[id]; !ok {
			fixes = append(fixes, fmt.Sprintf("cost.water_acquisition.%s missing; using 0", id))
			n.Cost.WaterAcquisition[id] = 0
		}
	}

	cost := &n.Cost
	nonNegative("cost.tug.day_rate", &cost.Tug.DayRate, def.Cost.Tug.DayRate)
	nonNegative("cost.tug.fuel_idle_gph", &cost.Tug.FuelIdleGPH, def.Cost.Tug.FuelIdleGPH)
	nonNegative("cost.tug.fuel_running_gph", &cost.Tug.FuelRunningGPH, def.Cost.Tug.FuelRunningGPH)
	nonNegative("cost.barge.small_day_rate", &cost.Barge.SmallDayRate, def.Cost.Barge.SmallDayRate)
	nonNegative("cost.barge.large_day_rate", &cost.Barge.LargeDayRate, def.Cost.Barge.LargeDayRate)
	nonNegative("cost.fuel_price", &cost.FuelPrice, def.Cost.FuelPrice)
	nonNegative("cost.downtime_hourly", &cost.DowntimeHourly, def.Cost.DowntimeHourly)
	mob, dmob := &cost.Mobilization, def.Cost.Mobilization
	nonNegative("cost.mobilization.tug_mob", &mob.TugMob, dmob.TugMob)
	nonNegative("cost.mobilization.tug_demob", &mob.TugDemob, dmob.TugDemob)
	nonNegative("cost.mobilization.small_barge_mob", &mob.SmallBargeMob, dmob.SmallBargeMob)
	nonNegative("cost.mobilization.small_barge_demob", &mob.SmallBargeDemob, dmob.SmallBargeDemob)
	nonNegative("cost.mobilization.large_barge_mob", &mob.LargeBargeMob, dmob.LargeBargeMob)
	nonNegative("cost.mobilization.large_barge_demob", &mob.LargeBargeDemob, dmob.LargeBargeDemob)

	p, dp := &n.Planning, def.Planning
	positiveInt("planning.rig_down_buffer_days", &p.RigDownBufferDays, dp.RigDownBufferDays)
	positive("planning.same_rig_transfer_gap_days", &p.SameRigTransferGapDays, dp.SameRigTransferGapDays)
	nonNegative("planning.min_transfer_gap_days", &p.MinTransferGapDays, dp.MinTransferGapDays)
	if p.MinTransferGapDays > p.SameRigTransferGapDays {
		fixes = append(fixes, fmt.Sprintf("planning.min_transfer_gap_days=%g exceeds same_rig_transfer_gap_days=%g; using 0",
			p.MinTransferGapDays, p.SameRigTransferGapDays))
		p.MinTransferGapDays = 0
	}
	positive("planning.storage_target_multiplier", &p.StorageTargetMultiplier, dp.StorageTargetMultiplier)
	nonNegative("planning.storage_arrival_lead_hours", &p.StorageArrivalLeadHours, dp.StorageArrivalLeadHours)
	nonNegative("planning.storage_return_buffer_hours", &p.StorageReturnBufferHours, dp.StorageReturnBufferHours)
	positive("planning.transport_trigger_fraction", &p.TransportTriggerFraction, dp.TransportTriggerFraction)
	positive("planning.transport_spacing_hours", &p.TransportSpacingHours, dp.TransportSpacingHours)
	positive("planning.transport_target_multiple", &p.TransportTargetMultiple, dp.TransportTargetMultiple)
	nonNegative("planning.mobilization_lead_hours", &p.MobilizationLeadHours, dp.MobilizationLeadHours)
	nonNegative("planning.bootstrap_window_hours", &p.BootstrapWindowHours, dp.BootstrapWindowHours)
	positive("planning.demob_lookahead_hours", &p.DemobLookaheadHours, dp.DemobLookaheadHours)
	positive("planning.retry_hours", &p.RetryHours, dp.RetryHours)
	positive("planning.backoff_hours", &p.BackoffHours, dp.BackoffHours)
	positiveInt("planning.failures_before_backoff", &p.FailuresBeforeBackoff, dp.FailuresBeforeBackoff)
	positiveInt("planning.max_dispatches_per_tick", &p.MaxDispatchesPerTick, dp.MaxDispatchesPerTick)
	positiveInt("planning.completion_buffer_days", &p.CompletionBufferDays, dp.CompletionBufferDays)

	t, dt := &n.Throttle, def.Throttle
	positive("throttle.entry_water", &t.EntryWater, dt.EntryWater)
	positive("throttle.entry_headroom", &t.EntryHeadroom, dt.EntryHeadroom)
	positive("throttle.urgent_supply_hours", &t.UrgentSupplyHours, dt.UrgentSupplyHours)
	positive("throttle.check_interval_hours", &t.CheckInterval, dt.CheckInterval)
	positive("throttle.breakout_water", &t.BreakoutWater, dt.BreakoutWater)
	nonNegative("throttle.water_low", &t.WaterLow, dt.WaterLow)
	positive("throttle.increment_hours", &t.IncrementHours, dt.IncrementHours)
	positiveInt("throttle.safety_floor", &t.SafetyFloor, dt.SafetyFloor)

	r, dr := &n.Reroute, def.Reroute
	positive("reroute.min_water", &r.MinWater, dr.MinWater)
	positive("reroute.max_distance_nm", &r.MaxDistanceNM, dr.MaxDistanceNM)
	nonNegative("reroute.min_score", &r.MinScore, dr.MinScore)

	return n, fixes
}

// ScaleConsumption returns a copy with every rig rate multiplied by mult,
// rounded to whole gallons.
func (c Config) ScaleConsumption(mult float64) Config {
	out := c
	out.Rigs = make(map[string]RigRates, len(c.Rigs))
	for name, r := range c.Rigs {
		out.Rigs[name] = RigRates{
			Pilot: roundGallons(r.Pilot * mult),
			Ream:  roundGallons(r.Ream * mult),
			Swab:  roundGallons(r.Swab * mult),
			Pull:  roundGallons(r.Pull * mult),
		}
	}
	return out
}

func roundGallons(v float64) float64 { return math.Round(v) }
