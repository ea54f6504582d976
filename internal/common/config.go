package common

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Modeling constants. These mirror current Aurora Serverless v2 platform
// terms and are expected to change as the terms evolve, so they live in
// ModelConfig rather than inline at the call sites.
const (
	// DefaultACUsPerVCPU is the capacity-unit equivalence ratio:
	// 1 vCPU = 4 ACUs (1 ACU = 0.25 vCPU).
	DefaultACUsPerVCPU = 4.0

	// DefaultHeadroomMultiplier is the safety factor applied to peak
	// utilization to size capacity conservatively.
	DefaultHeadroomMultiplier = 1.5

	// DefaultHoursPerMonth is the billing convention for monthly cost.
	DefaultHoursPerMonth = 730.0

	// DefaultSecondsPerMonth converts an ops/sec rate into monthly request
	// volume (730 * 3600).
	DefaultSecondsPerMonth = 2628000.0

	// DefaultCommitmentDiscount is the fixed discount a 1-year usage
	// commitment applies to the compute term only.
	DefaultCommitmentDiscount = 0.35

	// DefaultIOOptimizedStorageMultiplier is the uplift the I/O-optimized
	// tier applies to the standard storage rate.
	DefaultIOOptimizedStorageMultiplier = 1.175

	// DefaultMultiNodeTopologyFactor models one writer plus one reader,
	// each billed for compute.
	DefaultMultiNodeTopologyFactor = 2.0

	DefaultLookbackDays      = 14
	DefaultRegionConcurrency = 5

	// MaxRegionConcurrency caps the worker pool to respect AWS API rate
	// limits.
	MaxRegionConcurrency = 10
)

// VersionPolicy holds the migration-eligibility version thresholds for one
// engine family.
type VersionPolicy struct {
	// MinimumSupported lists the per-major-line version floors Aurora
	// Serverless v2 supports, ascending. An engine version below the lowest
	// floor needs a major upgrade before migration.
	MinimumSupported []string

	// ExtendedSupportStart/End bound the version range currently in the
	// paid extended-support window: start inclusive, end exclusive.
	ExtendedSupportStart string
	ExtendedSupportEnd   string
}

// ModelConfig carries every externally-tunable modeling constant, injected
// at run start. Malformed values are fatal before any region processing
// begins.
type ModelConfig struct {
	ACUsPerVCPU                  float64
	HeadroomMultiplier           float64
	HoursPerMonth                float64
	SecondsPerMonth              float64
	CommitmentDiscount           float64
	IOOptimizedStorageMultiplier float64
	MultiNodeTopologyFactor      float64
	LookbackDays                 int
	RegionConcurrency            int
	VersionPolicies              map[EngineFamily]VersionPolicy
}

// DefaultModelConfig returns the current platform terms.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		ACUsPerVCPU:                  DefaultACUsPerVCPU,
		HeadroomMultiplier:           DefaultHeadroomMultiplier,
		HoursPerMonth:                DefaultHoursPerMonth,
		SecondsPerMonth:              DefaultSecondsPerMonth,
		CommitmentDiscount:           DefaultCommitmentDiscount,
		IOOptimizedStorageMultiplier: DefaultIOOptimizedStorageMultiplier,
		MultiNodeTopologyFactor:      DefaultMultiNodeTopologyFactor,
		LookbackDays:                 DefaultLookbackDays,
		RegionConcurrency:            DefaultRegionConcurrency,
		VersionPolicies: map[EngineFamily]VersionPolicy{
			EngineFamilyMySQL: {
				MinimumSupported:     []string{"8.0"},
				ExtendedSupportStart: "5.7",
				ExtendedSupportEnd:   "8.0",
			},
			EngineFamilyPostgreSQL: {
				MinimumSupported:     []string{"13.6", "14.3", "15.2"},
				ExtendedSupportStart: "11",
				ExtendedSupportEnd:   "13",
			},
		},
	}
}

// Validate checks the configuration. Any error here aborts the run before
// region processing starts.
func (c ModelConfig) Validate() error {
	positives := map[string]float64{
		"acus-per-vcpu":        c.ACUsPerVCPU,
		"headroom-multiplier":  c.HeadroomMultiplier,
		"hours-per-month":      c.HoursPerMonth,
		"seconds-per-month":    c.SecondsPerMonth,
		"io-optimized-storage": c.IOOptimizedStorageMultiplier,
		"topology-factor":      c.MultiNodeTopologyFactor,
	}
	for name, v := range positives {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, v)
		}
	}

	if c.CommitmentDiscount <= 0 || c.CommitmentDiscount >= 1 {
		return fmt.Errorf("commitment-discount must be in (0, 1), got %v", c.CommitmentDiscount)
	}
	if c.LookbackDays < 1 {
		return fmt.Errorf("lookback-days must be at least 1, got %d", c.LookbackDays)
	}
	if c.RegionConcurrency < 1 || c.RegionConcurrency > MaxRegionConcurrency {
		return fmt.Errorf("region-concurrency must be between 1 and %d, got %d",
			MaxRegionConcurrency, c.RegionConcurrency)
	}

	if len(c.VersionPolicies) == 0 {
		return fmt.Errorf("no version policies configured")
	}
	for family, policy := range c.VersionPolicies {
		if err := policy.validate(); err != nil {
			return fmt.Errorf("version policy for %s: %w", family, err)
		}
	}

	return nil
}

func (p VersionPolicy) validate() error {
	if len(p.MinimumSupported) == 0 {
		return fmt.Errorf("minimum supported versions must not be empty")
	}
	prev := ""
	for _, v := range p.MinimumSupported {
		if !semver.IsValid("v" + v) {
			return fmt.Errorf("malformed version threshold %q", v)
		}
		if prev != "" && semver.Compare("v"+prev, "v"+v) >= 0 {
			return fmt.Errorf("version thresholds must be strictly ascending, got %q after %q", v, prev)
		}
		prev = v
	}

	if !semver.IsValid("v" + p.ExtendedSupportStart) {
		return fmt.Errorf("malformed extended-support start %q", p.ExtendedSupportStart)
	}
	if !semver.IsValid("v" + p.ExtendedSupportEnd) {
		return fmt.Errorf("malformed extended-support end %q", p.ExtendedSupportEnd)
	}
	if semver.Compare("v"+p.ExtendedSupportStart, "v"+p.ExtendedSupportEnd) >= 0 {
		return fmt.Errorf("extended-support window start %q must be below end %q",
			p.ExtendedSupportStart, p.ExtendedSupportEnd)
	}

	return nil
}
