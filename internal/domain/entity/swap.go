package entity

import (
	"fmt"
	"time"
)

// AircraftAssignmentSnapshot is the first observed aircraft of a flight leg
type AircraftAssignmentSnapshot struct {
	FlightKey
	AircraftReg  string
	AircraftType string
	FirstSeenAt  time.Time
}

// SwapCategory is the coarse reason bucket of a swap
type SwapCategory string

const (
	CategoryMaintenance SwapCategory = "MAINTENANCE"
	CategoryWeather     SwapCategory = "WEATHER"
	CategoryCrew        SwapCategory = "CREW"
	CategoryOperational SwapCategory = "OPERATIONAL"
	CategoryUnknown     SwapCategory = "UNKNOWN"
)

// RecoveryStatus tracks whether a swapped flight recovered
type RecoveryStatus string

const (
	RecoveryPending   RecoveryStatus = "PENDING"
	RecoveryRecovered RecoveryStatus = "RECOVERED"
	RecoveryDelayed   RecoveryStatus = "DELAYED"
	RecoveryCancelled RecoveryStatus = "CANCELLED"
)

// SwapEvent records one detected registration change of a flight leg
type SwapEvent struct {
	EventID        string
	FlightKey
	Arrival        string
	OriginalReg    string
	OriginalType   string
	SwappedReg     string
	SwappedType    string
	Category       SwapCategory
	Reason         string
	DelayMinutes   int
	RecoveryStatus RecoveryStatus
	ModLogRef      string
	DetectedAt     time.Time
	UpdatedAt      time.Time
}

// SwapPairKey identifies the at-most-once emission unit of a swap
type SwapPairKey struct {
	FlightKey
	OriginalReg string
	SwappedReg  string
}

// PairKey returns the uniqueness key of the event
func (e SwapEvent) PairKey() SwapPairKey {
	return SwapPairKey{FlightKey: e.FlightKey, OriginalReg: e.OriginalReg, SwappedReg: e.SwappedReg}
}

// FormatSwapEventID renders a sequence number as SW-0001
func FormatSwapEventID(seq int) string {
	return fmt.Sprintf("SW-%04d", seq)
}

// SwapFilter selects events for a query
type SwapFilter struct {
	Period   TimeWindow
	Category SwapCategory
	Page     int
	PageSize int
}

// TailImpact counts how often a registration appears in swaps
type TailImpact struct {
	Registration string
	SwapCount    int
	Severity     string
}

// ReasonCount is one row of the reason breakdown
type ReasonCount struct {
	Category SwapCategory
	Count    int
}

// SwapSummary is the KPI block of the swap report
type SwapSummary struct {
	TotalSwaps       int
	ImpactedFlights  int
	AvgDelayHours    float64
	RecoveryRate     float64
	SwapRate         float64
	PreviousSwaps    int
	TrendPercent     float64
	ReasonBreakdown  []ReasonCount
	TopImpactedTails []TailImpact
}

// SwapPage is one page of swap events plus the summary over the whole period
type SwapPage struct {
	Events   []SwapEvent
	Page     int
	PageSize int
	Total    int
	Summary  SwapSummary
}
