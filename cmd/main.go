package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"

	"github.com/LeanerCloud/aurora-sv2-advisor/internal/account"
	"github.com/LeanerCloud/aurora-sv2-advisor/internal/common"
	"github.com/LeanerCloud/aurora-sv2-advisor/internal/fleet"
	"github.com/LeanerCloud/aurora-sv2-advisor/internal/pricing"
	"github.com/LeanerCloud/aurora-sv2-advisor/internal/regions"
	"github.com/LeanerCloud/aurora-sv2-advisor/internal/report"
	"github.com/LeanerCloud/aurora-sv2-advisor/internal/spend"
)

// Config holds all configuration for the advisor tool
type Config struct {
	Regions           []string
	Profile           string
	CSVOutput         string
	Concurrency       int
	LookbackDays      int
	Headroom          float64
	IncludeEngines    []string
	ExcludeEngines    []string
	SkipSpendSummary  bool
	CommitmentPercent float64
}

// Package-level Config that cobra flags bind to
var toolCfg = Config{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "aurora-sv2-advisor",
	Short: "Estimates Aurora Serverless v2 migration savings for a provisioned RDS fleet",
	Long: `A tool that audits provisioned RDS and Aurora instances across regions,
sizes an equivalent Aurora Serverless v2 capacity from observed CloudWatch
utilization, prices it under the standard, I/O-optimized and savings-commitment
structures, and reports the cheapest complete option per instance.`,
	PreRunE: validateFlags,
	Run:     runTool,
}

func init() {
	rootCmd.Flags().StringSliceVarP(&toolCfg.Regions, "regions", "r", []string{}, "AWS regions (comma-separated or multiple flags). If empty, audits all enabled regions")
	rootCmd.Flags().StringVar(&toolCfg.Profile, "profile", "", "AWS profile to use (defaults to AWS_PROFILE env var or default profile)")
	rootCmd.Flags().StringVarP(&toolCfg.CSVOutput, "output", "o", "", "Output CSV file path (if not specified, auto-generates filename)")
	rootCmd.Flags().IntVarP(&toolCfg.Concurrency, "concurrency", "c", common.DefaultRegionConcurrency, "Number of regions to process in parallel")
	rootCmd.Flags().IntVar(&toolCfg.LookbackDays, "lookback-days", common.DefaultLookbackDays, "Days of CloudWatch history to aggregate")
	rootCmd.Flags().Float64Var(&toolCfg.Headroom, "headroom", common.DefaultHeadroomMultiplier, "Headroom multiplier applied to observed peak I/O")
	rootCmd.Flags().Float64Var(&toolCfg.CommitmentPercent, "commitment-discount", common.DefaultCommitmentDiscount*100, "Savings-commitment discount on compute, as a percentage")
	rootCmd.Flags().StringSliceVar(&toolCfg.IncludeEngines, "include-engines", []string{}, "Only include these raw engine names (comma-separated, e.g., 'aurora-mysql,postgres')")
	rootCmd.Flags().StringSliceVar(&toolCfg.ExcludeEngines, "exclude-engines", []string{}, "Exclude these raw engine names (comma-separated)")
	rootCmd.Flags().BoolVar(&toolCfg.SkipSpendSummary, "skip-spend-summary", false, "Skip the Cost Explorer actual-spend lookup in the summary")
}

// validateFlags performs validation on command line flags before execution
func validateFlags(cmd *cobra.Command, args []string) error {
	if toolCfg.Concurrency < 1 || toolCfg.Concurrency > common.MaxRegionConcurrency {
		return fmt.Errorf("concurrency must be between 1 and %d, got: %d", common.MaxRegionConcurrency, toolCfg.Concurrency)
	}

	if toolCfg.LookbackDays < 1 {
		return fmt.Errorf("lookback-days must be at least 1, got: %d", toolCfg.LookbackDays)
	}

	if toolCfg.Headroom <= 0 {
		return fmt.Errorf("headroom must be positive, got: %.2f", toolCfg.Headroom)
	}

	if toolCfg.CommitmentPercent <= 0 || toolCfg.CommitmentPercent >= 100 {
		return fmt.Errorf("commitment-discount must be between 0 and 100 exclusive, got: %.2f", toolCfg.CommitmentPercent)
	}

	// Validate CSV output path if provided
	if toolCfg.CSVOutput != "" {
		dir := filepath.Dir(toolCfg.CSVOutput)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	// Validate filter flags
	if len(toolCfg.IncludeEngines) > 0 && len(toolCfg.ExcludeEngines) > 0 {
		for _, inc := range toolCfg.IncludeEngines {
			for _, exc := range toolCfg.ExcludeEngines {
				if inc == exc {
					return fmt.Errorf("engine '%s' cannot be both included and excluded", inc)
				}
			}
		}
	}

	return nil
}

// buildModelConfig merges flag overrides into the default model terms.
func buildModelConfig(cfg Config) common.ModelConfig {
	modelCfg := common.DefaultModelConfig()
	modelCfg.RegionConcurrency = cfg.Concurrency
	modelCfg.LookbackDays = cfg.LookbackDays
	modelCfg.HeadroomMultiplier = cfg.Headroom
	modelCfg.CommitmentDiscount = cfg.CommitmentPercent / 100
	return modelCfg
}

// buildEngineFilter returns the raw-engine-name predicate for the include and
// exclude flags, or nil when neither is set.
func buildEngineFilter(include, exclude []string) func(string) bool {
	if len(include) == 0 && len(exclude) == 0 {
		return nil
	}

	includeSet := make(map[string]bool, len(include))
	for _, e := range include {
		includeSet[strings.ToLower(e)] = true
	}
	excludeSet := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		excludeSet[strings.ToLower(e)] = true
	}

	return func(engine string) bool {
		engine = strings.ToLower(engine)
		if excludeSet[engine] {
			return false
		}
		if len(includeSet) > 0 {
			return includeSet[engine]
		}
		return true
	}
}

func runTool(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	modelCfg := buildModelConfig(toolCfg)
	if err := modelCfg.Validate(); err != nil {
		log.Fatalf("Invalid model configuration: %v", err)
	}

	// Load AWS configuration
	var configOptions []func(*config.LoadOptions) error
	configOptions = append(configOptions, config.WithRegion("us-east-1"))
	if toolCfg.Profile != "" {
		configOptions = append(configOptions, config.WithSharedConfigProfile(toolCfg.Profile))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	identity, err := account.NewLookup(awsCfg).CallerIdentity(ctx)
	if err != nil {
		log.Fatalf("Failed to resolve caller identity: %v", err)
	}
	common.AppLogger.Printf("🔐 Auditing account %s (%s)\n", identity.Alias, identity.AccountID)

	auditRegions := toolCfg.Regions
	if len(auditRegions) == 0 {
		auditRegions, err = regions.NewClient(awsCfg).ListRegions(ctx)
		if err != nil {
			log.Fatalf("Failed to discover regions: %v", err)
		}
	}
	if len(auditRegions) == 0 {
		common.AppLogger.Println("No enabled regions found, nothing to audit")
		return
	}
	common.AppLogger.Printf("🌍 Auditing %d region(s): %s\n", len(auditRegions), strings.Join(auditRegions, ", "))

	resolver := pricing.NewResolver(awsCfg, modelCfg)
	processor := fleet.NewProcessor(awsCfg, modelCfg, resolver)
	processor.EngineFilter = buildEngineFilter(toolCfg.IncludeEngines, toolCfg.ExcludeEngines)

	results, failures := processor.Run(ctx, auditRegions)

	sorted, summary := fleet.Aggregate(results)

	csvOutput := toolCfg.CSVOutput
	if csvOutput == "" {
		csvOutput = report.GenerateFilename()
	}
	if err := report.NewWriter().WriteResults(sorted, csvOutput); err != nil {
		log.Printf("Warning: Failed to write CSV output: %v", err)
	} else {
		common.AppLogger.Printf("\n📋 CSV report written to: %s\n", csvOutput)
	}

	var actualSpend *float64
	if !toolCfg.SkipSpendSummary {
		amount, err := spend.NewClient(awsCfg).LastMonthRDSSpend(ctx)
		if err != nil {
			common.AppLogger.Errorf("Could not fetch actual RDS spend: %v", err)
		} else {
			actualSpend = &amount
		}
	}

	report.PrintSummary(summary, failures, actualSpend)
}
