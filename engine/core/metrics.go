package core

import "sync/atomic"

// MetricsState is a point-in-time copy of the binding counters.
type MetricsState struct {
	// Descriptors copied into shader-visible heap space.
	DescriptorCopies uint64
	// Copies skipped because the destination already mirrored the source.
	RedundantCopiesSkipped uint64
	// Rebinding or unbinding a non-dynamic slot.
	DisciplineWarnings uint64
	// Mapping misses and type mismatches.
	ResolutionFailures uint64
	// Successful CommitShaderResources calls.
	Commits uint64
}

type metricsCounters struct {
	descriptorCopies       atomic.Uint64
	redundantCopiesSkipped atomic.Uint64
	disciplineWarnings     atomic.Uint64
	resolutionFailures     atomic.Uint64
	commits                atomic.Uint64
}

var metricsState metricsCounters

func MetricsInitialize() error {
	MetricsReset()
	return nil
}

func MetricsReset() {
	metricsState.descriptorCopies.Store(0)
	metricsState.redundantCopiesSkipped.Store(0)
	metricsState.disciplineWarnings.Store(0)
	metricsState.resolutionFailures.Store(0)
	metricsState.commits.Store(0)
}

func MetricsDescriptorCopied() {
	metricsState.descriptorCopies.Add(1)
}

func MetricsCopySkipped() {
	metricsState.redundantCopiesSkipped.Add(1)
}

func MetricsDisciplineWarning() {
	metricsState.disciplineWarnings.Add(1)
}

func MetricsResolutionFailure() {
	metricsState.resolutionFailures.Add(1)
}

func MetricsCommit() {
	metricsState.commits.Add(1)
}

func MetricsSnapshot() MetricsState {
	return MetricsState{
		DescriptorCopies:       metricsState.descriptorCopies.Load(),
		RedundantCopiesSkipped: metricsState.redundantCopiesSkipped.Load(),
		DisciplineWarnings:     metricsState.disciplineWarnings.Load(),
		ResolutionFailures:     metricsState.resolutionFailures.Load(),
		Commits:                metricsState.commits.Load(),
	}
}
