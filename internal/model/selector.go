package model

import (
	"github.com/LeanerCloud/aurora-sv2-advisor/internal/common"
)

// SelectBestOption picks the cheapest complete estimate for an instance and
// derives the savings figures against its current monthly cost.
//
// Incomplete estimates are never selected while a complete alternative
// exists. Ties on total cost break by the fixed structure priority order so
// selection is deterministic regardless of input ordering. When every
// estimate is incomplete the instance yields a data-gap record instead of a
// recommendation, but is still reported.
func SelectBestOption(inst common.DatabaseInstance, metrics common.AggregatedMetrics, capacityUnits common.MetricReading, estimates []common.CostEstimate, compat common.CompatibilityFlags) common.SavingsResult {
	result := common.SavingsResult{
		Instance:      inst,
		Metrics:       metrics,
		CapacityUnits: capacityUnits,
		Estimates:     estimates,
		Compatibility: compat,
	}

	best, found := cheapestComplete(estimates)
	if !found {
		result.DataGap = true
		result.GapReason = "all cost estimates incomplete due to missing utilization data"
		return result
	}

	result.BestStructure = best.Structure
	result.BestMonthlyCost = best.TotalMonthly
	result.SavingsMonthly = inst.CurrentMonthlyCost - best.TotalMonthly

	// Percentage savings is undefined, not zero, for a zero-cost baseline.
	if inst.CurrentMonthlyCost > 0 {
		result.SavingsPercent = result.SavingsMonthly / inst.CurrentMonthlyCost * 100
		result.SavingsPercentDefined = true
	}

	return result
}

// cheapestComplete scans estimates in the fixed priority order, so equal
// totals resolve to the higher-priority structure no matter how the input
// slice is ordered.
func cheapestComplete(estimates []common.CostEstimate) (common.CostEstimate, bool) {
	var best common.CostEstimate
	found := false

	for _, structure := range common.StructurePriority {
		for _, est := range estimates {
			if est.Structure != structure || est.Incomplete {
				continue
			}
			if !found || est.TotalMonthly < best.TotalMonthly {
				best = est
				found = true
			}
		}
	}

	return best, found
}
