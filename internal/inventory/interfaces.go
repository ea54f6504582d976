package inventory

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/rds"
)

// RDSAPI defines the interface for RDS operations we use (enables mocking)
type RDSAPI interface {
	DescribeDBInstances(ctx context.Context, params *rds.DescribeDBInstancesInput, optFns ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error)
}
