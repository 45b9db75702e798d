package pipeline

import "sync/atomic"

type stageCounter struct {
	processed atomic.Uint64
}

type counters struct {
	captures        atomic.Uint64
	captureFailures atomic.Uint64
	configApplied   atomic.Uint64
	configFailures  atomic.Uint64
	averageResets   atomic.Uint64
	renders         atomic.Uint64
	skippedDisplays atomic.Uint64
	saves           atomic.Uint64
	saveFailures    atomic.Uint64
}

// StageStats is the item count for one stage
type StageStats struct {
	Name      string
	Processed uint64
}

// Stats is a point-in-time view of pipeline activity
type Stats struct {
	Stages          []StageStats
	Captures        uint64
	CaptureFailures uint64
	ConfigApplied   uint64
	ConfigFailures  uint64
	AverageResets   uint64
	Renders         uint64
	SkippedDisplays uint64
	Saves           uint64
	SaveFailures    uint64
}
