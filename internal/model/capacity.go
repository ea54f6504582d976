// Package model holds the pure numeric core: capacity-unit estimation,
// monthly cost projection under the three pricing structures, and
// best-option selection. No I/O happens here.
package model

import (
	"github.com/LeanerCloud/aurora-sv2-advisor/internal/common"
)

// EquivalentCapacityUnits converts aggregated CPU utilization and the
// provisioned vCPU count into the equivalent serverless capacity-unit
// quantity: (cpuPercent / 100) * vCPU * ACUsPerVCPU.
//
// The result is a non-negative real number and is never rounded here;
// rounding happens only at presentation. A CPU data gap propagates as an
// unavailable reading.
func EquivalentCapacityUnits(cpuPercent common.MetricReading, vcpuCount float64, cfg common.ModelConfig) common.MetricReading {
	if !cpuPercent.Available() {
		return common.UnavailableReading()
	}
	return common.Reading(cpuPercent.Value / 100 * vcpuCount * cfg.ACUsPerVCPU)
}
