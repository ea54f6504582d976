// Package pricing resolves Aurora Serverless v2 rate catalogs and
// on-demand instance rates from the AWS Price List API, with per-key
// caching so each distinct lookup hits the API at most once per run.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"

	"github.com/LeanerCloud/aurora-sv2-advisor/internal/common"
)

const (
	rdsServiceCode = "AmazonRDS"

	// pricingEndpointRegion is where the Price List API lives, regardless
	// of the region being priced.
	pricingEndpointRegion = "us-east-1"
)

// errNotFound marks a (region, engine family) pair the catalog has no data
// for. The affected instance is excluded from cost comparison but still
// reported as a compatibility-only record.
var errNotFound = errors.New("no rate catalog entry found")

// IsNotFound reports whether err is a catalog-gap error rather than a
// transport failure.
func IsNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}

// InstanceRate is the on-demand price and compute size of one RDS instance
// class, used as the current-cost baseline.
type InstanceRate struct {
	VCPUCount  float64
	MemoryGiB  float64
	HourlyRate float64
}

// Resolver caches rate lookups for the duration of a run. Safe for
// concurrent use by the per-region workers.
type Resolver struct {
	client PricingAPI
	cfg    common.ModelConfig

	mu            sync.RWMutex
	catalogs      map[string]common.RateCatalog
	instanceRates map[string]InstanceRate
}

// NewResolver creates a resolver backed by the Price List API endpoint.
// The endpoint only exists in us-east-1; the region being priced is passed
// per request as a filter.
func NewResolver(cfg aws.Config, modelCfg common.ModelConfig) *Resolver {
	endpointCfg := cfg.Copy()
	endpointCfg.Region = pricingEndpointRegion
	return &Resolver{
		client:        pricing.NewFromConfig(endpointCfg),
		cfg:           modelCfg,
		catalogs:      make(map[string]common.RateCatalog),
		instanceRates: make(map[string]InstanceRate),
	}
}

// SetPricingAPI sets a custom Price List API client (for testing)
func (r *Resolver) SetPricingAPI(api PricingAPI) {
	r.client = api
}

// ResolveCatalog returns the rate entries for all three pricing structures
// for a (region, engine family) pair. Either all three resolve or an error
// is returned; partial catalogs are never handed out.
//
// Within one run each distinct (region, engine family) is fetched at most
// once; repeated lookups return the cached catalog.
func (r *Resolver) ResolveCatalog(ctx context.Context, region string, family common.EngineFamily) (common.RateCatalog, error) {
	key := region + "|" + string(family)

	r.mu.RLock()
	if catalog, ok := r.catalogs[key]; ok {
		r.mu.RUnlock()
		return catalog, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring the write lock so a racing worker does
	// not trigger a second fetch for the same key.
	if catalog, ok := r.catalogs[key]; ok {
		return catalog, nil
	}

	catalog, err := r.fetchCatalog(ctx, region, family)
	if err != nil {
		return nil, err
	}

	r.catalogs[key] = catalog
	return catalog, nil
}

// fetchCatalog queries the Price List API and assembles the three entries.
func (r *Resolver) fetchCatalog(ctx context.Context, region string, family common.EngineFamily) (common.RateCatalog, error) {
	acuRate, err := r.fetchACURate(ctx, region, family)
	if err != nil {
		return nil, fmt.Errorf("capacity-unit rate for %s/%s: %w", region, family, err)
	}

	// The serverless I/O rate is engine independent in the catalog, so the
	// MySQL- and PostgreSQL-compatible families share this entry. This is a
	// deliberate modeling assumption, not a fallback.
	ioRate, err := r.fetchIORate(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("I/O rate for %s: %w", region, err)
	}

	storageRate, err := r.fetchStorageRate(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("storage rate for %s: %w", region, err)
	}

	standard := common.RateCatalogEntry{
		Region:          region,
		EngineFamily:    family,
		Structure:       common.StructureStandard,
		UnitHourlyRate:  acuRate,
		IOUnitRate:      aws.Float64(ioRate),
		StorageUnitRate: storageRate,
	}

	// The I/O-optimized tier trades the per-request charge for a higher
	// storage rate; the exact uplift is encoded here, the cost model treats
	// the rate as opaque.
	ioOptimized := common.RateCatalogEntry{
		Region:          region,
		EngineFamily:    family,
		Structure:       common.StructureIOOptimized,
		UnitHourlyRate:  acuRate,
		StorageUnitRate: storageRate * r.cfg.IOOptimizedStorageMultiplier,
	}

	// The catalog publishes no separate commitment SKU; the commitment
	// entry carries the base hourly rate and the cost model applies the
	// configured discount to the compute term.
	commitment := common.RateCatalogEntry{
		Region:               region,
		EngineFamily:         family,
		Structure:            common.StructureSavingsCommitment,
		UnitHourlyRate:       acuRate,
		IOUnitRate:           aws.Float64(ioRate),
		StorageUnitRate:      storageRate,
		CommitmentHourlyRate: acuRate,
	}

	return common.RateCatalog{
		common.StructureStandard:          standard,
		common.StructureIOOptimized:       ioOptimized,
		common.StructureSavingsCommitment: commitment,
	}, nil
}

// fetchACURate retrieves the serverless capacity-unit hourly rate.
func (r *Resolver) fetchACURate(ctx context.Context, region string, family common.EngineFamily) (float64, error) {
	doc, err := r.getFirstProduct(ctx, []types.Filter{
		termMatch("regionCode", region),
		termMatch("databaseEngine", serverlessEngineName(family)),
		termMatch("productFamily", "ServerlessV2"),
	})
	if err != nil {
		return 0, err
	}
	return doc.usdRate()
}

// fetchIORate retrieves the per-request I/O rate (engine independent).
func (r *Resolver) fetchIORate(ctx context.Context, region string) (float64, error) {
	doc, err := r.getFirstProduct(ctx, []types.Filter{
		termMatch("regionCode", region),
		termMatch("productFamily", "System Operation"),
		termMatch("databaseEngine", "Any"),
		termMatch("group", "Aurora I/O Operation"),
	})
	if err != nil {
		return 0, err
	}
	return doc.usdRate()
}

// fetchStorageRate retrieves the standard cluster storage GB-month rate.
func (r *Resolver) fetchStorageRate(ctx context.Context, region string) (float64, error) {
	doc, err := r.getFirstProduct(ctx, []types.Filter{
		termMatch("regionCode", region),
		termMatch("productFamily", "Database Storage"),
		termMatch("volumeType", "General Purpose-Aurora"),
	})
	if err != nil {
		return 0, err
	}
	return doc.usdRate()
}

// ResolveInstanceRate returns the on-demand hourly rate and compute size of
// an instance class, cached per (region, class, engine, deployment).
func (r *Resolver) ResolveInstanceRate(ctx context.Context, region, instanceClass, engine string, multiAZ bool) (InstanceRate, error) {
	deployment := "Single-AZ"
	if multiAZ {
		deployment = "Multi-AZ"
	}
	key := strings.Join([]string{region, instanceClass, engine, deployment}, "|")

	r.mu.RLock()
	if rate, ok := r.instanceRates[key]; ok {
		r.mu.RUnlock()
		return rate, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if rate, ok := r.instanceRates[key]; ok {
		return rate, nil
	}

	doc, err := r.getFirstProduct(ctx, []types.Filter{
		termMatch("regionCode", region),
		termMatch("instanceType", instanceClass),
		termMatch("databaseEngine", catalogEngineName(engine)),
		termMatch("licenseModel", "No License required"),
		termMatch("deploymentOption", deployment),
	})
	if err != nil {
		return InstanceRate{}, fmt.Errorf("on-demand rate for %s %s in %s: %w", instanceClass, engine, region, err)
	}

	hourly, err := doc.usdRate()
	if err != nil {
		return InstanceRate{}, err
	}
	vcpu, err := doc.attributeFloat("vcpu")
	if err != nil {
		return InstanceRate{}, err
	}
	memory, err := doc.attributeFloat("memory")
	if err != nil {
		return InstanceRate{}, err
	}

	rate := InstanceRate{
		VCPUCount:  vcpu,
		MemoryGiB:  memory,
		HourlyRate: hourly,
	}
	r.instanceRates[key] = rate
	return rate, nil
}

// getFirstProduct runs a GetProducts query and decodes the first match.
func (r *Resolver) getFirstProduct(ctx context.Context, filters []types.Filter) (*priceListDocument, error) {
	input := &pricing.GetProductsInput{
		ServiceCode:   aws.String(rdsServiceCode),
		FormatVersion: aws.String("aws_v1"),
		Filters:       filters,
		MaxResults:    aws.Int32(1),
	}

	output, err := r.client.GetProducts(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query price list: %w", err)
	}

	return parsePriceList(output.PriceList)
}

func termMatch(field, value string) types.Filter {
	return types.Filter{
		Type:  types.FilterTypeTermMatch,
		Field: aws.String(field),
		Value: aws.String(value),
	}
}

// serverlessEngineName maps an engine family to its serverless catalog
// engine name.
func serverlessEngineName(family common.EngineFamily) string {
	if family == common.EngineFamilyPostgreSQL {
		return "Aurora PostgreSQL"
	}
	return "Aurora MySQL"
}

// catalogEngineName maps a raw RDS engine name to the Price List
// databaseEngine attribute value.
func catalogEngineName(engine string) string {
	switch strings.ToLower(engine) {
	case "mysql":
		return "MySQL"
	case "aurora-mysql":
		return "Aurora MySQL"
	case "postgres", "postgresql":
		return "PostgreSQL"
	case "aurora-postgresql":
		return "Aurora PostgreSQL"
	default:
		return "MySQL"
	}
}
