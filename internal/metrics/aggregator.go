package metrics

import (
	"github.com/LeanerCloud/aurora-sv2-advisor/internal/common"
)

// Aggregate reduces the raw utilization series of one instance to the
// representative scalars the cost model consumes: max of the window scaled
// by the headroom multiplier, for CPU and combined I/O independently.
//
// An empty series yields an unavailable reading rather than zero: a
// zero-utilization instance is a valid input, while a missing series is a
// data-collection gap that must be surfaced downstream.
//
// For clustered storage engines the I/O rate is not-applicable regardless
// of what the series contain: the engine does not meter I/O per instance,
// which is a property of the engine family, not a metrics failure.
func Aggregate(inst common.DatabaseInstance, cpu, read, write common.UtilizationSample, cfg common.ModelConfig) common.AggregatedMetrics {
	agg := common.AggregatedMetrics{
		InstanceID: inst.ID,
		CPUPercent: scaledMax(cpu, cfg.HeadroomMultiplier),
	}

	if inst.ClusteredStorage {
		agg.CombinedIORate = common.NotApplicableReading()
		return agg
	}

	readMax, readOK := windowMax(read)
	writeMax, writeOK := windowMax(write)
	if !readOK || !writeOK {
		agg.CombinedIORate = common.UnavailableReading()
		return agg
	}

	agg.CombinedIORate = common.Reading((readMax + writeMax) * cfg.HeadroomMultiplier)
	return agg
}

// scaledMax returns max-of-window times the headroom multiplier, or an
// unavailable reading for an empty series.
func scaledMax(sample common.UtilizationSample, headroom float64) common.MetricReading {
	max, ok := windowMax(sample)
	if !ok {
		return common.UnavailableReading()
	}
	return common.Reading(max * headroom)
}

// windowMax returns the maximum sample value and whether the series had any
// datapoints at all.
func windowMax(sample common.UtilizationSample) (float64, bool) {
	if len(sample.Datapoints) == 0 {
		return 0, false
	}
	max := sample.Datapoints[0].Value
	for _, p := range sample.Datapoints[1:] {
		if p.Value > max {
			max = p.Value
		}
	}
	return max, true
}
