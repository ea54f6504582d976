package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeanerCloud/aurora-sv2-advisor/internal/common"
)

func completeResult() common.SavingsResult {
	return common.SavingsResult{
		Instance: common.DatabaseInstance{
			ID:                 "orders-db",
			Region:             "eu-west-1",
			EngineFamily:       common.EngineFamilyPostgreSQL,
			EngineVersion:      "14.7",
			Topology:           common.TopologyMultiNodeReplicated,
			StorageClass:       common.StorageClassStandard,
			CurrentMonthlyCost: 1095.0,
		},
		Metrics: common.AggregatedMetrics{
			CPUPercent:     common.Reading(60),
			CombinedIORate: common.Reading(150),
		},
		CapacityUnits: common.Reading(6.4),
		Estimates: []common.CostEstimate{
			{Structure: common.StructureStandard, TotalMonthly: 639.48},
			{Structure: common.StructureIOOptimized, TotalMonthly: 560.64},
			{Structure: common.StructureSavingsCommitment, TotalMonthly: 443.26},
		},
		BestStructure:         common.StructureSavingsCommitment,
		BestMonthlyCost:       443.26,
		SavingsMonthly:        651.74,
		SavingsPercent:        59.52,
		SavingsPercentDefined: true,
		Compatibility:         common.CompatibilityFlags{InExtendedSupportWindow: false},
	}
}

func readCSV(t *testing.T, filename string) [][]string {
	t.Helper()
	file, err := os.Open(filename)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteResults(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "report.csv")

	err := NewWriter().WriteResults([]common.SavingsResult{completeResult()}, filename)
	require.NoError(t, err)

	rows := readCSV(t, filename)
	require.Len(t, rows, 2)
	assert.Equal(t, "Instance ID", rows[0][0])

	row := rows[1]
	assert.Equal(t, "orders-db", row[0])
	assert.Equal(t, "eu-west-1", row[1])
	assert.Equal(t, "postgresql-compatible", row[2])
	assert.Equal(t, "multi-node-replicated", row[4])
	assert.Equal(t, "1095.00", row[6])
	assert.Equal(t, "60.00", row[7])
	assert.Equal(t, "150.00", row[8])
	assert.Equal(t, "6.40", row[9])
	assert.Equal(t, "639.48", row[10])
	assert.Equal(t, "560.64", row[11])
	assert.Equal(t, "443.26", row[12])
	assert.Equal(t, "savings-commitment", row[13])
	assert.Equal(t, "651.74", row[14])
	assert.Equal(t, "59.5", row[15])
	assert.Equal(t, "false", row[16])
	assert.Equal(t, "false", row[17])
	assert.Equal(t, "false", row[18])
}

func TestWriteResultsDataGapRow(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "report.csv")

	gap := common.SavingsResult{
		Instance: common.DatabaseInstance{
			ID:           "legacy-db",
			Region:       "us-east-1",
			EngineFamily: common.EngineFamilyMySQL,
		},
		Metrics: common.AggregatedMetrics{
			CPUPercent:     common.UnavailableReading(),
			CombinedIORate: common.UnavailableReading(),
		},
		CapacityUnits: common.UnavailableReading(),
		Compatibility: common.CompatibilityFlags{NeedsMajorUpgrade: true},
		DataGap:       true,
		GapReason:     "metrics unavailable",
	}

	err := NewWriter().WriteResults([]common.SavingsResult{gap}, filename)
	require.NoError(t, err)

	rows := readCSV(t, filename)
	require.Len(t, rows, 2)

	row := rows[1]
	// Gaps are spelled out, never rendered as zeros.
	assert.Equal(t, "unavailable", row[7])
	assert.Equal(t, "unavailable", row[8])
	assert.Equal(t, "unavailable", row[9])
	assert.Equal(t, "n/a", row[10])
	assert.Equal(t, "n/a", row[13])
	assert.Equal(t, "n/a", row[14])
	assert.Equal(t, "n/a", row[15])
	assert.Equal(t, "true", row[16])
	assert.Equal(t, "true", row[18])
}

func TestWriteResultsNotApplicableIO(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "report.csv")

	res := completeResult()
	res.Metrics.CombinedIORate = common.NotApplicableReading()

	err := NewWriter().WriteResults([]common.SavingsResult{res}, filename)
	require.NoError(t, err)

	rows := readCSV(t, filename)
	assert.Equal(t, "n/a", rows[1][8])
}

func TestWriteResultsIncompleteEstimateMarked(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "report.csv")

	res := completeResult()
	res.Estimates[0].Incomplete = true

	err := NewWriter().WriteResults([]common.SavingsResult{res}, filename)
	require.NoError(t, err)

	rows := readCSV(t, filename)
	row := rows[1]
	assert.Equal(t, "n/a", row[10])    // incomplete standard estimate
	assert.Equal(t, "560.64", row[11]) // complete sibling unaffected
	assert.Equal(t, "true", row[18])   // incomplete-data flag set
}

func TestWriteResultsRequiresFilename(t *testing.T) {
	err := NewWriter().WriteResults(nil, "")

	assert.Error(t, err)
}

func TestWriteResultsCustomDelimiter(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "report.csv")

	err := NewWriterWithDelimiter(';').WriteResults([]common.SavingsResult{completeResult()}, filename)
	require.NoError(t, err)

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), "orders-db;eu-west-1")
}

func TestGenerateFilename(t *testing.T) {
	first := GenerateFilename()
	second := GenerateFilename()

	assert.Contains(t, first, "aurora-sv2-savings-")
	assert.Contains(t, first, ".csv")
	assert.NotEqual(t, first, second)
}

func TestPrintSummaryDoesNotPanic(t *testing.T) {
	summary := common.FleetSummary{
		InstanceCount:         2,
		QualifyingRegionCount: 1,
		BestOptionDistribution: map[common.PricingStructure]int{
			common.StructureStandard: 2,
		},
		DataGapCount: 1,
	}
	failures := []common.RegionFailure{{Region: "eu-west-3", Reason: "listing failed"}}

	PrintSummary(summary, failures, aws.Float64(1234.56))
	PrintSummary(common.FleetSummary{}, nil, nil)
}
