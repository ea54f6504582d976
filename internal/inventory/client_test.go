package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/LeanerCloud/aurora-sv2-advisor/internal/common"
	"github.com/LeanerCloud/aurora-sv2-advisor/internal/mocks"
)

func TestNewClient(t *testing.T) {
	client := NewClient(aws.Config{Region: "eu-west-1"})

	assert.NotNil(t, client)
	assert.Equal(t, "eu-west-1", client.Region())
}

func TestListInstancesPagination(t *testing.T) {
	mockRDS := &mocks.MockRDSClient{}
	client := NewClient(aws.Config{Region: "us-east-1"})
	client.SetRDSAPI(mockRDS)

	firstPage := &rds.DescribeDBInstancesOutput{
		DBInstances: []types.DBInstance{
			{
				DBInstanceIdentifier: aws.String("db-1"),
				Engine:               aws.String("postgres"),
				DBInstanceClass:      aws.String("db.m5.large"),
			},
		},
		Marker: aws.String("page-2"),
	}
	secondPage := &rds.DescribeDBInstancesOutput{
		DBInstances: []types.DBInstance{
			{
				DBInstanceIdentifier: aws.String("db-2"),
				Engine:               aws.String("mysql"),
				DBInstanceClass:      aws.String("db.r5.xlarge"),
			},
		},
	}

	mockRDS.On("DescribeDBInstances", mock.Anything, mock.MatchedBy(func(input *rds.DescribeDBInstancesInput) bool {
		return input.Marker == nil
	})).Return(firstPage, nil)
	mockRDS.On("DescribeDBInstances", mock.Anything, mock.MatchedBy(func(input *rds.DescribeDBInstancesInput) bool {
		return aws.ToString(input.Marker) == "page-2"
	})).Return(secondPage, nil)

	instances, err := client.ListInstances(context.Background())

	require.NoError(t, err)
	require.Len(t, instances, 2)
	assert.Equal(t, "db-1", instances[0].ID)
	assert.Equal(t, "db-2", instances[1].ID)
	mockRDS.AssertNumberOfCalls(t, "DescribeDBInstances", 2)
}

func TestListInstancesError(t *testing.T) {
	mockRDS := &mocks.MockRDSClient{}
	client := NewClient(aws.Config{Region: "us-east-1"})
	client.SetRDSAPI(mockRDS)

	mockRDS.On("DescribeDBInstances", mock.Anything, mock.Anything).
		Return(nil, errors.New("access denied"))

	_, err := client.ListInstances(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "us-east-1")
}

func TestMapInstance(t *testing.T) {
	mockRDS := &mocks.MockRDSClient{}
	client := NewClient(aws.Config{Region: "eu-central-1"})
	client.SetRDSAPI(mockRDS)

	output := &rds.DescribeDBInstancesOutput{
		DBInstances: []types.DBInstance{
			{
				DBInstanceIdentifier: aws.String("orders-db"),
				Engine:               aws.String("aurora-postgresql"),
				EngineVersion:        aws.String("14.7"),
				DBInstanceClass:      aws.String("db.r6g.large"),
				MultiAZ:              aws.Bool(true),
				StorageType:          aws.String("aurora-iopt1"),
				AllocatedStorage:     aws.Int32(200),
			},
			{
				DBInstanceIdentifier: aws.String("sessions-db"),
				Engine:               aws.String("mysql"),
				EngineVersion:        aws.String("8.0.35"),
				DBInstanceClass:      aws.String("db.serverless"),
				StorageType:          aws.String("gp3"),
				AllocatedStorage:     aws.Int32(50),
			},
		},
	}
	mockRDS.On("DescribeDBInstances", mock.Anything, mock.Anything).Return(output, nil)

	instances, err := client.ListInstances(context.Background())
	require.NoError(t, err)
	require.Len(t, instances, 2)

	aurora := instances[0]
	assert.Equal(t, "eu-central-1", aurora.Region)
	assert.Equal(t, common.EngineFamilyPostgreSQL, aurora.EngineFamily)
	assert.Equal(t, common.CapacityModeProvisioned, aurora.CapacityMode)
	assert.Equal(t, common.TopologyMultiNodeReplicated, aurora.Topology)
	assert.Equal(t, common.StorageClassIOOptimized, aurora.StorageClass)
	assert.True(t, aurora.ClusteredStorage)
	assert.Equal(t, 200.0, aurora.AllocatedStorageGB)

	serverless := instances[1]
	assert.Equal(t, common.CapacityModeUsageBilled, serverless.CapacityMode)
	assert.Equal(t, common.TopologySingleNode, serverless.Topology)
	assert.Equal(t, common.StorageClassStandard, serverless.StorageClass)
	assert.False(t, serverless.ClusteredStorage)
}

func TestMapInstanceReplicaTopology(t *testing.T) {
	// A standby AZ marks the deployment replicated even without MultiAZ.
	mockRDS := &mocks.MockRDSClient{}
	client := NewClient(aws.Config{Region: "us-west-2"})
	client.SetRDSAPI(mockRDS)

	output := &rds.DescribeDBInstancesOutput{
		DBInstances: []types.DBInstance{
			{
				DBInstanceIdentifier:      aws.String("reporting-db"),
				Engine:                    aws.String("postgres"),
				DBInstanceClass:           aws.String("db.m5.large"),
				SecondaryAvailabilityZone: aws.String("us-west-2b"),
			},
		},
	}
	mockRDS.On("DescribeDBInstances", mock.Anything, mock.Anything).Return(output, nil)

	instances, err := client.ListInstances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, common.TopologyMultiNodeReplicated, instances[0].Topology)
}

func TestEngineFamilyOf(t *testing.T) {
	tests := []struct {
		engine   string
		expected common.EngineFamily
	}{
		{"mysql", common.EngineFamilyMySQL},
		{"aurora-mysql", common.EngineFamilyMySQL},
		{"postgres", common.EngineFamilyPostgreSQL},
		{"aurora-postgresql", common.EngineFamilyPostgreSQL},
		{"MySQL", common.EngineFamilyMySQL},
		{"mariadb", common.EngineFamilyUnsupported},
		{"oracle-ee", common.EngineFamilyUnsupported},
		{"sqlserver-se", common.EngineFamilyUnsupported},
		{"", common.EngineFamilyUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.engine, func(t *testing.T) {
			assert.Equal(t, tt.expected, EngineFamilyOf(tt.engine))
		})
	}
}

func TestIsClusteredStorageEngine(t *testing.T) {
	assert.True(t, IsClusteredStorageEngine("aurora-mysql"))
	assert.True(t, IsClusteredStorageEngine("aurora-postgresql"))
	assert.False(t, IsClusteredStorageEngine("mysql"))
	assert.False(t, IsClusteredStorageEngine("postgres"))
}

func TestStorageClassOf(t *testing.T) {
	tests := []struct {
		storageType string
		expected    common.StorageClass
	}{
		{"aurora-iopt1", common.StorageClassIOOptimized},
		{"io1", common.StorageClassIOOptimized},
		{"io2", common.StorageClassIOOptimized},
		{"gp2", common.StorageClassStandard},
		{"gp3", common.StorageClassStandard},
		{"aurora", common.StorageClassStandard},
		{"", common.StorageClassStandard},
	}

	for _, tt := range tests {
		t.Run(tt.storageType, func(t *testing.T) {
			assert.Equal(t, tt.expected, storageClassOf(tt.storageType))
		})
	}
}
