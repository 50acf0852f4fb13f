// ABOUTME: Static parameters of the ritual: result weights, level thresholds, timings
// ABOUTME: All tunable numbers live here so generator, store and CLI agree on them

package scroll

import "time"

// Base result weights before cultivation adjustment. They sum to 100.
const (
	WeightIncrement = 40
	WeightNeutral   = 30
	WeightEmpty     = 20
	WeightMarker    = 10
)

// Cultivation adjustment: each level above 1 moves LevelWeightStep from Empty
// to Increment, capped at LevelWeightCap. Empty never drops below EmptyWeightFloor.
const (
	LevelWeightStep  = 5
	LevelWeightCap   = 20
	EmptyWeightFloor = 5
)

// LevelThresholds are the minimum TotalEntries for each level; index 0 is level 1.
var LevelThresholds = [...]int{0, 30, 75, 150, 250, 400, 600, 850, 1150, 1500}

// MaxLevel is the highest cultivation level.
const MaxLevel = len(LevelThresholds)

// EmptySymbols are the interchangeable displays of an empty result.
var EmptySymbols = [...]string{"empty", "∅", "—", "・"}

// Gesture thresholds in pixels.
const (
	// TearThreshold is the horizontal drag needed to tear.
	TearThreshold = 50.0
	// FeedbackLimit bounds the drag distance that still distorts the scroll.
	FeedbackLimit = 100.0
)

// Timings of the tear sequence, used by presentation layers for pacing.
const (
	TearDragDuration = 300 * time.Millisecond
	CrackDelay       = 400 * time.Millisecond
	ResultDelay      = 600 * time.Millisecond
)

// DefaultHistoryLimit is how many entries a history view asks for.
const DefaultHistoryLimit = 30

// CacheKey is the key of the single device-local state record.
const CacheKey = "wen_state"
