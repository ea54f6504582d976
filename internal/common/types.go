package common

import (
	"fmt"
	"time"
)

// EngineFamily identifies the migration-eligible engine families.
type EngineFamily string

const (
	EngineFamilyMySQL      EngineFamily = "mysql-compatible"
	EngineFamilyPostgreSQL EngineFamily = "postgresql-compatible"

	// EngineFamilyUnsupported marks engines (Oracle, SQL Server, MariaDB...)
	// that have no Aurora Serverless v2 migration target.
	EngineFamilyUnsupported EngineFamily = ""
)

// CapacityMode distinguishes provisioned instances from ones already on
// usage-based billing (db.serverless instance class).
type CapacityMode string

const (
	CapacityModeProvisioned CapacityMode = "provisioned"
	CapacityModeUsageBilled CapacityMode = "usage-billed"
)

// Topology describes the billed node layout of a deployment.
type Topology string

const (
	TopologySingleNode          Topology = "single-node"
	TopologyMultiNodeReplicated Topology = "multi-node-replicated"
)

// StorageClass describes the storage tier of the source instance.
type StorageClass string

const (
	StorageClassStandard    StorageClass = "standard"
	StorageClassIOOptimized StorageClass = "io-optimized"
)

// DatabaseInstance is one physical database instance as discovered in the
// fleet. Instances are immutable once built; every downstream stage derives
// new values instead of mutating them.
type DatabaseInstance struct {
	ID            string
	Region        string
	Engine        string // raw engine name, e.g. "aurora-postgresql"
	EngineFamily  EngineFamily
	EngineVersion string
	InstanceClass string
	CapacityMode  CapacityMode
	Topology      Topology
	StorageClass  StorageClass

	// ClusteredStorage is true for Aurora engines, whose I/O is metered at
	// the cluster storage layer rather than per instance.
	ClusteredStorage bool

	VCPUCount          float64
	MemoryGiB          float64
	AllocatedStorageGB float64

	CurrentHourlyCost  float64
	CurrentMonthlyCost float64
}

// MetricState tells a real zero apart from a data-collection gap and from
// metrics that do not exist for the engine at all.
type MetricState int

const (
	// MetricUnavailable is deliberately the zero value so a forgotten
	// reading reads as a data gap, never as zero utilization.
	MetricUnavailable MetricState = iota
	MetricAvailable
	MetricNotApplicable
)

// MetricReading is an aggregated metric value plus its availability state.
// A zero-utilization instance is a valid input; an unavailable series is a
// data gap that must be surfaced, never defaulted to zero.
type MetricReading struct {
	Value float64
	State MetricState
}

// Reading returns an available metric reading.
func Reading(v float64) MetricReading {
	return MetricReading{Value: v, State: MetricAvailable}
}

// UnavailableReading marks a data-collection gap.
func UnavailableReading() MetricReading {
	return MetricReading{State: MetricUnavailable}
}

// NotApplicableReading marks a metric that is not measurable for the engine.
func NotApplicableReading() MetricReading {
	return MetricReading{State: MetricNotApplicable}
}

// Available reports whether the reading carries a usable value.
func (m MetricReading) Available() bool {
	return m.State == MetricAvailable
}

func (m MetricReading) String() string {
	switch m.State {
	case MetricUnavailable:
		return "unavailable"
	case MetricNotApplicable:
		return "n/a"
	default:
		return fmt.Sprintf("%.2f", m.Value)
	}
}

// MetricKind identifies a utilization time series.
type MetricKind string

const (
	MetricCPUPercent   MetricKind = "CPUUtilization"
	MetricReadOpsRate  MetricKind = "ReadIOPS"
	MetricWriteOpsRate MetricKind = "WriteIOPS"
)

// SamplePoint is a single (timestamp, value) observation.
type SamplePoint struct {
	Timestamp time.Time
	Value     float64
}

// UtilizationSample is a raw utilization series for one instance and metric
// kind over the lookback window. An empty Datapoints slice means the
// monitoring service had no data, which is distinct from all-zero samples.
type UtilizationSample struct {
	InstanceID string
	Kind       MetricKind
	Datapoints []SamplePoint
}

// AggregatedMetrics holds the representative scalars derived from the raw
// utilization series of one instance.
type AggregatedMetrics struct {
	InstanceID string

	// CPUPercent is max-of-window CPU utilization scaled by the headroom
	// multiplier.
	CPUPercent MetricReading

	// CombinedIORate is the read+write operation rate (ops/sec), same
	// statistic and multiplier. Not-applicable for clustered storage
	// engines.
	CombinedIORate MetricReading
}

// PricingStructure is one of the three serverless pricing structures being
// compared.
type PricingStructure string

const (
	StructureStandard          PricingStructure = "standard"
	StructureIOOptimized       PricingStructure = "io-optimized"
	StructureSavingsCommitment PricingStructure = "savings-commitment"
)

// StructurePriority is the fixed tie-break order used by best-option
// selection. Earlier entries win ties.
var StructurePriority = []PricingStructure{
	StructureStandard,
	StructureIOOptimized,
	StructureSavingsCommitment,
}

// RateCatalogEntry holds the unit rates one pricing structure needs.
type RateCatalogEntry struct {
	Region       string
	EngineFamily EngineFamily
	Structure    PricingStructure

	// UnitHourlyRate is the price per capacity-unit hour.
	UnitHourlyRate float64

	// IOUnitRate is the price per I/O request. Nil for io-optimized, which
	// charges no I/O by definition.
	IOUnitRate *float64

	// StorageUnitRate is the price per GB-month. The io-optimized entry
	// already carries the uplifted rate; the cost model treats it as opaque.
	StorageUnitRate float64

	// CommitmentHourlyRate is the base rate the commitment discount applies
	// to. Only set for savings-commitment.
	CommitmentHourlyRate float64
}

// RateCatalog maps each pricing structure to its resolved rates for one
// (region, engine family) pair.
type RateCatalog map[PricingStructure]RateCatalogEntry

// CostEstimate is the projected monthly cost of one instance under one
// pricing structure.
type CostEstimate struct {
	InstanceID string
	Structure  PricingStructure

	ComputeMonthly float64
	IOMonthly      float64
	StorageMonthly float64
	TotalMonthly   float64

	// IOOmitted means the instance's engine does not meter I/O at the
	// instance level; the I/O term is absent, not zero.
	IOOmitted bool

	// Incomplete means an upstream data gap left the total missing a term.
	// Incomplete estimates stay comparable but are flagged in the output.
	Incomplete bool
}

// CompatibilityFlags are the version-derived migration indicators,
// independent of cost.
type CompatibilityFlags struct {
	NeedsMajorUpgrade       bool
	InExtendedSupportWindow bool
}

// SavingsResult is the terminal output of the engine for one qualifying
// instance. When DataGap is set no best option could be chosen; the row is
// still reported rather than dropped.
type SavingsResult struct {
	Instance DatabaseInstance
	Metrics  AggregatedMetrics

	CapacityUnits MetricReading

	Estimates []CostEstimate

	BestStructure   PricingStructure
	BestMonthlyCost float64

	SavingsMonthly        float64
	SavingsPercent        float64
	SavingsPercentDefined bool

	Compatibility CompatibilityFlags

	DataGap   bool
	GapReason string
}

// Incomplete reports whether any estimate backing this result was flagged
// incomplete.
func (r SavingsResult) Incomplete() bool {
	if r.DataGap {
		return true
	}
	for _, e := range r.Estimates {
		if e.Incomplete {
			return true
		}
	}
	return false
}

// EstimateFor returns the estimate for a structure, if present.
func (r SavingsResult) EstimateFor(s PricingStructure) (CostEstimate, bool) {
	for _, e := range r.Estimates {
		if e.Structure == s {
			return e, true
		}
	}
	return CostEstimate{}, false
}

// RegionFailure records a region whose processing failed entirely. Sibling
// regions are unaffected.
type RegionFailure struct {
	Region string
	Reason string
}

// FleetSummary is the fleet-level reduction over all per-instance results.
type FleetSummary struct {
	InstanceCount           int
	QualifyingRegionCount   int
	TotalCurrentMonthlyCost float64
	TotalBestMonthlyCost    float64
	TotalMonthlySavings     float64
	BestOptionDistribution  map[PricingStructure]int
	DataGapCount            int
}
