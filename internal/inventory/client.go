// Package inventory lists the RDS fleet of a region and applies the
// migration qualification predicate.
package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/types"

	"github.com/LeanerCloud/aurora-sv2-advisor/internal/common"
)

// serverlessInstanceClass is the instance class RDS reports for instances
// already on usage-based billing.
const serverlessInstanceClass = "db.serverless"

// Client retrieves raw instance inventory for one region.
type Client struct {
	client RDSAPI
	region string
}

// NewClient creates an inventory client for the config's region.
func NewClient(cfg aws.Config) *Client {
	return &Client{
		client: rds.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

// SetRDSAPI sets a custom RDS API client (for testing)
func (c *Client) SetRDSAPI(api RDSAPI) {
	c.client = api
}

// Region returns the region this client lists.
func (c *Client) Region() string {
	return c.region
}

// ListInstances returns every DB instance in the region, unfiltered, mapped
// to the domain model. Compute size and cost fields are filled in later from
// the pricing catalog.
func (c *Client) ListInstances(ctx context.Context) ([]common.DatabaseInstance, error) {
	var instances []common.DatabaseInstance
	var marker *string

	for {
		input := &rds.DescribeDBInstancesInput{
			Marker: marker,
		}

		output, err := c.client.DescribeDBInstances(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to describe DB instances in %s: %w", c.region, err)
		}

		for _, db := range output.DBInstances {
			instances = append(instances, c.mapInstance(db))
		}

		if output.Marker == nil || aws.ToString(output.Marker) == "" {
			break
		}
		marker = output.Marker
	}

	return instances, nil
}

// mapInstance converts an RDS API record into a DatabaseInstance.
func (c *Client) mapInstance(db types.DBInstance) common.DatabaseInstance {
	engine := aws.ToString(db.Engine)
	instanceClass := aws.ToString(db.DBInstanceClass)

	capacityMode := common.CapacityModeProvisioned
	if instanceClass == serverlessInstanceClass {
		capacityMode = common.CapacityModeUsageBilled
	}

	topology := common.TopologySingleNode
	if aws.ToBool(db.MultiAZ) || aws.ToString(db.SecondaryAvailabilityZone) != "" {
		topology = common.TopologyMultiNodeReplicated
	}

	return common.DatabaseInstance{
		ID:                 aws.ToString(db.DBInstanceIdentifier),
		Region:             c.region,
		Engine:             engine,
		EngineFamily:       EngineFamilyOf(engine),
		EngineVersion:      aws.ToString(db.EngineVersion),
		InstanceClass:      instanceClass,
		CapacityMode:       capacityMode,
		Topology:           topology,
		StorageClass:       storageClassOf(aws.ToString(db.StorageType)),
		ClusteredStorage:   IsClusteredStorageEngine(engine),
		AllocatedStorageGB: float64(aws.ToInt32(db.AllocatedStorage)),
	}
}

// EngineFamilyOf maps a raw RDS engine name to its migration engine family.
// Unsupported engines map to EngineFamilyUnsupported and are filtered out.
func EngineFamilyOf(engine string) common.EngineFamily {
	switch strings.ToLower(engine) {
	case "mysql", "aurora-mysql":
		return common.EngineFamilyMySQL
	case "postgres", "postgresql", "aurora-postgresql":
		return common.EngineFamilyPostgreSQL
	default:
		return common.EngineFamilyUnsupported
	}
}

// IsClusteredStorageEngine reports whether the engine stores data in a
// shared cluster volume, which makes instance-level I/O unmeterable.
func IsClusteredStorageEngine(engine string) bool {
	return strings.HasPrefix(strings.ToLower(engine), "aurora")
}

// storageClassOf maps an RDS storage type to the coarse storage class the
// cost model distinguishes.
func storageClassOf(storageType string) common.StorageClass {
	st := strings.ToLower(storageType)
	if strings.Contains(st, "iopt") || st == "io1" || st == "io2" {
		return common.StorageClassIOOptimized
	}
	return common.StorageClassStandard
}
