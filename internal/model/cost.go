package model

import (
	"github.com/LeanerCloud/aurora-sv2-advisor/internal/common"
)

// EstimateCosts projects the monthly cost of one instance under each of the
// three pricing structures, in priority order. Exactly one estimate per
// structure present in the catalog is returned.
//
// A data gap in an input term marks the affected estimates incomplete
// instead of silently substituting zero; incomplete estimates remain in the
// output so the row can still be reported.
func EstimateCosts(inst common.DatabaseInstance, metrics common.AggregatedMetrics, capacityUnits common.MetricReading, catalog common.RateCatalog, cfg common.ModelConfig) []common.CostEstimate {
	estimates := make([]common.CostEstimate, 0, len(common.StructurePriority))
	for _, structure := range common.StructurePriority {
		entry, ok := catalog[structure]
		if !ok {
			continue
		}
		estimates = append(estimates, estimateStructure(inst, metrics, capacityUnits, entry, cfg))
	}
	return estimates
}

func estimateStructure(inst common.DatabaseInstance, metrics common.AggregatedMetrics, capacityUnits common.MetricReading, entry common.RateCatalogEntry, cfg common.ModelConfig) common.CostEstimate {
	est := common.CostEstimate{
		InstanceID: inst.ID,
		Structure:  entry.Structure,
	}

	// Compute term: ACU * rate * hours, times the topology factor for
	// replicated deployments (writer plus one reader, each billed).
	if capacityUnits.Available() {
		rate := entry.UnitHourlyRate
		if entry.Structure == common.StructureSavingsCommitment {
			// The commitment discount applies to the compute term only.
			rate = entry.CommitmentHourlyRate * (1 - cfg.CommitmentDiscount)
		}
		est.ComputeMonthly = capacityUnits.Value * rate * cfg.HoursPerMonth * topologyFactor(inst.Topology, cfg)
	} else {
		est.Incomplete = true
	}

	// I/O term. Omitted entirely (neither zero nor unavailable) for
	// engines without instance-level I/O metering; zero by definition for
	// io-optimized; unavailable data flags the estimate incomplete.
	switch {
	case metrics.CombinedIORate.State == common.MetricNotApplicable:
		est.IOOmitted = true
	case entry.Structure == common.StructureIOOptimized:
		est.IOMonthly = 0
	case metrics.CombinedIORate.State == common.MetricUnavailable:
		est.Incomplete = true
	case entry.IOUnitRate == nil:
		est.Incomplete = true
	default:
		est.IOMonthly = metrics.CombinedIORate.Value * cfg.SecondsPerMonth * (*entry.IOUnitRate)
	}

	est.StorageMonthly = inst.AllocatedStorageGB * entry.StorageUnitRate

	est.TotalMonthly = est.ComputeMonthly + est.IOMonthly + est.StorageMonthly
	return est
}

func topologyFactor(t common.Topology, cfg common.ModelConfig) float64 {
	if t == common.TopologyMultiNodeReplicated {
		return cfg.MultiNodeTopologyFactor
	}
	return 1
}
