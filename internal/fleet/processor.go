// Package fleet drives the per-region analysis pipeline and merges the
// per-instance results into the final report dataset.
package fleet

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/LeanerCloud/aurora-sv2-advisor/internal/common"
	"github.com/LeanerCloud/aurora-sv2-advisor/internal/compat"
	"github.com/LeanerCloud/aurora-sv2-advisor/internal/inventory"
	"github.com/LeanerCloud/aurora-sv2-advisor/internal/metrics"
	"github.com/LeanerCloud/aurora-sv2-advisor/internal/model"
	"github.com/LeanerCloud/aurora-sv2-advisor/internal/pricing"
)

// InventoryClient lists the raw fleet of one region.
type InventoryClient interface {
	ListInstances(ctx context.Context) ([]common.DatabaseInstance, error)
}

// MetricsClient fetches utilization series for one region.
type MetricsClient interface {
	GetUtilization(ctx context.Context, instanceID string, kind common.MetricKind, lookbackDays int) (common.UtilizationSample, error)
}

// RateResolver resolves serverless rate catalogs and on-demand instance
// rates. Implementations must be safe for concurrent use and fetch each
// distinct key at most once per run.
type RateResolver interface {
	ResolveCatalog(ctx context.Context, region string, family common.EngineFamily) (common.RateCatalog, error)
	ResolveInstanceRate(ctx context.Context, region, instanceClass, engine string, multiAZ bool) (pricing.InstanceRate, error)
}

// Processor fans the analysis out over regions with bounded concurrency.
// Failures stay isolated to their region or instance; completed regions'
// results remain usable even when siblings fail.
type Processor struct {
	cfg      common.ModelConfig
	awsCfg   aws.Config
	resolver RateResolver

	newInventory func(aws.Config) InventoryClient
	newMetrics   func(aws.Config) MetricsClient

	// EngineFilter optionally restricts processing to matching raw engine
	// names. Nil means no restriction.
	EngineFilter func(engine string) bool
}

// NewProcessor creates a processor using the real AWS-backed clients. The
// rate resolver is shared across all region workers, so each pricing key is
// fetched at most once for the whole fleet.
func NewProcessor(awsCfg aws.Config, cfg common.ModelConfig, resolver RateResolver) *Processor {
	return &Processor{
		cfg:      cfg,
		awsCfg:   awsCfg,
		resolver: resolver,
		newInventory: func(cfg aws.Config) InventoryClient {
			return inventory.NewClient(cfg)
		},
		newMetrics: func(cfg aws.Config) MetricsClient {
			return metrics.NewClient(cfg)
		},
	}
}

// SetClientFactories overrides the per-region client constructors (for
// testing)
func (p *Processor) SetClientFactories(newInventory func(aws.Config) InventoryClient, newMetrics func(aws.Config) MetricsClient) {
	p.newInventory = newInventory
	p.newMetrics = newMetrics
}

// Run analyzes all regions and returns every per-instance result plus the
// failures of regions that could not be listed at all. Results arrive in
// completion order; Aggregate establishes the deterministic report order.
func (p *Processor) Run(ctx context.Context, regionIDs []string) ([]common.SavingsResult, []common.RegionFailure) {
	var (
		mu       sync.Mutex
		results  []common.SavingsResult
		failures []common.RegionFailure
		wg       sync.WaitGroup
	)

	// Bounded worker pool keeps us under the collaborator API rate limits.
	sem := make(chan struct{}, p.cfg.RegionConcurrency)

	for i, region := range regionIDs {
		wg.Add(1)
		go func(idx int, regionID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			common.AppLogger.Printf("  📍 [%d/%d] Region: %s\n", idx+1, len(regionIDs), regionID)

			regionResults, err := p.processRegion(ctx, regionID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				common.AppLogger.Errorf("  ❌ Region %s failed: %v", regionID, err)
				failures = append(failures, common.RegionFailure{
					Region: regionID,
					Reason: err.Error(),
				})
				return
			}
			results = append(results, regionResults...)
		}(i, region)
	}

	wg.Wait()
	return results, failures
}

// processRegion analyzes every qualifying instance of one region.
func (p *Processor) processRegion(ctx context.Context, region string) ([]common.SavingsResult, error) {
	regionalCfg := p.awsCfg.Copy()
	regionalCfg.Region = region

	inv := p.newInventory(regionalCfg)
	raw, err := inv.ListInstances(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventory listing failed: %w", err)
	}

	qualified := inventory.QualifyingInstances(raw)
	if p.EngineFilter != nil {
		kept := qualified[:0]
		for _, inst := range qualified {
			if p.EngineFilter(inst.Engine) {
				kept = append(kept, inst)
			}
		}
		qualified = kept
	}

	if len(qualified) == 0 {
		common.AppLogger.Printf("  ℹ️  %s: no qualifying instances\n", region)
		return nil, nil
	}
	common.AppLogger.Printf("  ✅ %s: %d of %d instances qualify\n", region, len(qualified), len(raw))

	mc := p.newMetrics(regionalCfg)

	results := make([]common.SavingsResult, 0, len(qualified))
	for _, inst := range qualified {
		results = append(results, p.processInstance(ctx, mc, inst))
	}
	return results, nil
}

// processInstance runs the full per-instance pipeline. Failures downgrade
// the row to a flagged or compatibility-only record; the instance is never
// silently dropped.
func (p *Processor) processInstance(ctx context.Context, mc MetricsClient, inst common.DatabaseInstance) common.SavingsResult {
	// The compatibility check is independent of cost and runs regardless of
	// what happens to the cost pipeline below.
	flags := compat.Check(p.cfg, inst.EngineFamily, inst.Engine, inst.EngineVersion)

	rate, err := p.resolver.ResolveInstanceRate(ctx, inst.Region, inst.InstanceClass, inst.Engine,
		inst.Topology == common.TopologyMultiNodeReplicated)
	if err != nil {
		common.AppLogger.Errorf("    %s: %v (compatibility-only record)", inst.ID, err)
		return compatOnlyResult(inst, flags, fmt.Sprintf("current-cost lookup failed: %v", err))
	}
	inst.VCPUCount = rate.VCPUCount
	inst.MemoryGiB = rate.MemoryGiB
	inst.CurrentHourlyCost = rate.HourlyRate
	inst.CurrentMonthlyCost = rate.HourlyRate * p.cfg.HoursPerMonth

	catalog, err := p.resolver.ResolveCatalog(ctx, inst.Region, inst.EngineFamily)
	if err != nil {
		common.AppLogger.Errorf("    %s: %v (compatibility-only record)", inst.ID, err)
		return compatOnlyResult(inst, flags, fmt.Sprintf("rate catalog unresolved: %v", err))
	}

	agg := p.aggregateMetrics(ctx, mc, inst)

	capacityUnits := model.EquivalentCapacityUnits(agg.CPUPercent, inst.VCPUCount, p.cfg)
	estimates := model.EstimateCosts(inst, agg, capacityUnits, catalog, p.cfg)
	return model.SelectBestOption(inst, agg, capacityUnits, estimates, flags)
}

// aggregateMetrics fetches the utilization series and reduces them. A
// failed or empty fetch becomes an unavailable reading, never a zero.
func (p *Processor) aggregateMetrics(ctx context.Context, mc MetricsClient, inst common.DatabaseInstance) common.AggregatedMetrics {
	cpu := p.fetchSample(ctx, mc, inst.ID, common.MetricCPUPercent)

	var read, write common.UtilizationSample
	if !inst.ClusteredStorage {
		read = p.fetchSample(ctx, mc, inst.ID, common.MetricReadOpsRate)
		write = p.fetchSample(ctx, mc, inst.ID, common.MetricWriteOpsRate)
	}

	return metrics.Aggregate(inst, cpu, read, write, p.cfg)
}

func (p *Processor) fetchSample(ctx context.Context, mc MetricsClient, instanceID string, kind common.MetricKind) common.UtilizationSample {
	sample, err := mc.GetUtilization(ctx, instanceID, kind, p.cfg.LookbackDays)
	if err != nil {
		common.AppLogger.Errorf("    %s: %v (treated as data gap)", instanceID, err)
		return common.UtilizationSample{InstanceID: instanceID, Kind: kind}
	}
	return sample
}

func compatOnlyResult(inst common.DatabaseInstance, flags common.CompatibilityFlags, reason string) common.SavingsResult {
	return common.SavingsResult{
		Instance: inst,
		Metrics: common.AggregatedMetrics{
			InstanceID:     inst.ID,
			CPUPercent:     common.UnavailableReading(),
			CombinedIORate: common.UnavailableReading(),
		},
		CapacityUnits: common.UnavailableReading(),
		Compatibility: flags,
		DataGap:       true,
		GapReason:     reason,
	}
}
