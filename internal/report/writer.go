// Package report writes the savings report as CSV and prints the console
// summary.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/LeanerCloud/aurora-sv2-advisor/internal/common"
)

// notApplicableMarker is what the CSV carries for omitted terms; gaps are
// spelled out, never silently zeroed.
const notApplicableMarker = "n/a"

// Writer handles CSV output for savings results
type Writer struct {
	delimiter rune
}

// NewWriter creates a new CSV writer with default settings
func NewWriter() *Writer {
	return &Writer{
		delimiter: ',',
	}
}

// NewWriterWithDelimiter creates a new CSV writer with a custom delimiter
func NewWriterWithDelimiter(delimiter rune) *Writer {
	return &Writer{
		delimiter: delimiter,
	}
}

// GenerateFilename builds a default report filename with a timestamp and a
// short unique suffix.
func GenerateFilename() string {
	timestamp := time.Now().Format("20060102-150405")
	suffix := uuid.New().String()[:8]
	return fmt.Sprintf("aurora-sv2-savings-%s-%s.csv", timestamp, suffix)
}

// WriteResults writes every savings result to a CSV file, one row per
// qualifying instance, including data-gap rows.
func (w *Writer) WriteResults(results []common.SavingsResult, filename string) error {
	if filename == "" {
		return fmt.Errorf("filename is required - CSV output to stdout is not supported")
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Comma = w.delimiter
	defer writer.Flush()

	headers := []string{
		"Instance ID",
		"Region",
		"Engine Family",
		"Engine Version",
		"Topology",
		"Storage Class",
		"Current Monthly Cost",
		"Aggregated CPU %",
		"Aggregated IO (ops/s)",
		"Capacity Units",
		"Standard Monthly",
		"IO-Optimized Monthly",
		"Savings-Commitment Monthly",
		"Best Structure",
		"Savings",
		"Savings %",
		"Needs Major Upgrade",
		"In Extended Support",
		"Incomplete Data",
	}

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, result := range results {
		if err := writer.Write(w.resultToRow(result)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return nil
}

// resultToRow converts a savings result to its CSV representation.
func (w *Writer) resultToRow(res common.SavingsResult) []string {
	row := []string{
		res.Instance.ID,
		res.Instance.Region,
		string(res.Instance.EngineFamily),
		res.Instance.EngineVersion,
		string(res.Instance.Topology),
		string(res.Instance.StorageClass),
		formatMoney(res.Instance.CurrentMonthlyCost),
		formatReading(res.Metrics.CPUPercent),
		formatReading(res.Metrics.CombinedIORate),
		formatReading(res.CapacityUnits),
	}

	for _, structure := range common.StructurePriority {
		if est, ok := res.EstimateFor(structure); ok && !est.Incomplete {
			row = append(row, formatMoney(est.TotalMonthly))
		} else {
			row = append(row, notApplicableMarker)
		}
	}

	if res.DataGap {
		row = append(row, notApplicableMarker, notApplicableMarker, notApplicableMarker)
	} else {
		savingsPercent := notApplicableMarker
		if res.SavingsPercentDefined {
			savingsPercent = fmt.Sprintf("%.1f", res.SavingsPercent)
		}
		row = append(row,
			string(res.BestStructure),
			formatMoney(res.SavingsMonthly),
			savingsPercent,
		)
	}

	row = append(row,
		strconv.FormatBool(res.Compatibility.NeedsMajorUpgrade),
		strconv.FormatBool(res.Compatibility.InExtendedSupportWindow),
		strconv.FormatBool(res.Incomplete()),
	)

	return row
}

func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatReading(m common.MetricReading) string {
	if !m.Available() {
		return m.String()
	}
	return fmt.Sprintf("%.2f", m.Value)
}

// PrintSummary prints the fleet-level summary in the console.
func PrintSummary(summary common.FleetSummary, failures []common.RegionFailure, actualMonthlySpend *float64) {
	fmt.Println("\n🎯 Fleet Summary:")
	fmt.Println("==========================================")
	fmt.Printf("Instances analyzed: %d\n", summary.InstanceCount)
	fmt.Printf("Regions with qualifying instances: %d\n", summary.QualifyingRegionCount)
	fmt.Printf("Total current monthly cost: $%.2f\n", summary.TotalCurrentMonthlyCost)
	fmt.Printf("Total best-case monthly cost: $%.2f\n", summary.TotalBestMonthlyCost)
	fmt.Printf("Total potential monthly savings: $%.2f\n", summary.TotalMonthlySavings)

	if actualMonthlySpend != nil {
		fmt.Printf("Actual RDS spend last month (Cost Explorer): $%.2f\n", *actualMonthlySpend)
	}

	if len(summary.BestOptionDistribution) > 0 {
		fmt.Println("\n📊 Best option distribution:")
		for _, structure := range common.StructurePriority {
			if count := summary.BestOptionDistribution[structure]; count > 0 {
				fmt.Printf("  %-20s %d\n", structure, count)
			}
		}
	}

	if summary.DataGapCount > 0 {
		fmt.Printf("\n⚠️  Instances with data gaps: %d (reported, not recommended)\n", summary.DataGapCount)
	}

	if len(failures) > 0 {
		fmt.Printf("\n❌ Regions skipped due to errors: %d\n", len(failures))
		for _, failure := range failures {
			fmt.Printf("  %s: %s\n", failure.Region, failure.Reason)
		}
	}
}
