package fleet

import (
	"sort"

	"github.com/LeanerCloud/aurora-sv2-advisor/internal/common"
)

// Aggregate merges the per-region results into one report dataset, sorted
// deterministically by (region, instance identifier), and computes the
// fleet-level summary. Pure reduction; no I/O.
func Aggregate(results []common.SavingsResult) ([]common.SavingsResult, common.FleetSummary) {
	ordered := make([]common.SavingsResult, len(results))
	copy(ordered, results)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Instance.Region != ordered[j].Instance.Region {
			return ordered[i].Instance.Region < ordered[j].Instance.Region
		}
		return ordered[i].Instance.ID < ordered[j].Instance.ID
	})

	summary := common.FleetSummary{
		InstanceCount:          len(ordered),
		BestOptionDistribution: make(map[common.PricingStructure]int),
	}

	regionSet := make(map[string]bool)
	for _, res := range ordered {
		regionSet[res.Instance.Region] = true
		summary.TotalCurrentMonthlyCost += res.Instance.CurrentMonthlyCost

		if res.DataGap {
			summary.DataGapCount++
			continue
		}

		summary.TotalBestMonthlyCost += res.BestMonthlyCost
		summary.TotalMonthlySavings += res.SavingsMonthly
		summary.BestOptionDistribution[res.BestStructure]++
	}
	summary.QualifyingRegionCount = len(regionSet)

	return ordered, summary
}
