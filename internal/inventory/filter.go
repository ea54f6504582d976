package inventory

import (
	"github.com/LeanerCloud/aurora-sv2-advisor/internal/common"
)

// Qualifies is the migration qualification predicate: the engine family
// must have a serverless target and the instance must not already be on
// usage-based billing.
func Qualifies(inst common.DatabaseInstance) bool {
	if inst.EngineFamily == common.EngineFamilyUnsupported {
		return false
	}
	return inst.CapacityMode == common.CapacityModeProvisioned
}

// QualifyingInstances returns the subsequence of instances that qualify for
// migration, preserving input order.
func QualifyingInstances(instances []common.DatabaseInstance) []common.DatabaseInstance {
	qualified := make([]common.DatabaseInstance, 0, len(instances))
	for _, inst := range instances {
		if Qualifies(inst) {
			qualified = append(qualified, inst)
		}
	}
	return qualified
}
