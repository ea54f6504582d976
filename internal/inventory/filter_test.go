package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LeanerCloud/aurora-sv2-advisor/internal/common"
)

func TestQualifies(t *testing.T) {
	tests := []struct {
		name     string
		inst     common.DatabaseInstance
		expected bool
	}{
		{
			name: "provisioned mysql qualifies",
			inst: common.DatabaseInstance{
				EngineFamily: common.EngineFamilyMySQL,
				CapacityMode: common.CapacityModeProvisioned,
			},
			expected: true,
		},
		{
			name: "provisioned aurora postgresql qualifies",
			inst: common.DatabaseInstance{
				EngineFamily: common.EngineFamilyPostgreSQL,
				CapacityMode: common.CapacityModeProvisioned,
			},
			expected: true,
		},
		{
			name: "unsupported engine excluded",
			inst: common.DatabaseInstance{
				EngineFamily: common.EngineFamilyUnsupported,
				CapacityMode: common.CapacityModeProvisioned,
			},
			expected: false,
		},
		{
			name: "already usage-billed excluded",
			inst: common.DatabaseInstance{
				EngineFamily: common.EngineFamilyMySQL,
				CapacityMode: common.CapacityModeUsageBilled,
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Qualifies(tt.inst))
		})
	}
}

func TestQualifyingInstancesPreservesOrder(t *testing.T) {
	instances := []common.DatabaseInstance{
		{ID: "a", EngineFamily: common.EngineFamilyMySQL, CapacityMode: common.CapacityModeProvisioned},
		{ID: "b", EngineFamily: common.EngineFamilyUnsupported, CapacityMode: common.CapacityModeProvisioned},
		{ID: "c", EngineFamily: common.EngineFamilyPostgreSQL, CapacityMode: common.CapacityModeProvisioned},
		{ID: "d", EngineFamily: common.EngineFamilyMySQL, CapacityMode: common.CapacityModeUsageBilled},
		{ID: "e", EngineFamily: common.EngineFamilyMySQL, CapacityMode: common.CapacityModeProvisioned},
	}

	qualified := QualifyingInstances(instances)

	ids := make([]string, 0, len(qualified))
	for _, inst := range qualified {
		ids = append(ids, inst.ID)
	}
	assert.Equal(t, []string{"a", "c", "e"}, ids)
}

func TestQualifyingInstancesEmpty(t *testing.T) {
	assert.Empty(t, QualifyingInstances(nil))
}
