// Package regions enumerates the AWS regions available to the account.
package regions

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// EC2API defines the interface for EC2 operations we use (enables mocking)
type EC2API interface {
	DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
}

// Client lists the regions enabled for the account.
type Client struct {
	client EC2API
}

// NewClient creates a region lister.
func NewClient(cfg aws.Config) *Client {
	return &Client{
		client: ec2.NewFromConfig(cfg),
	}
}

// SetEC2API sets a custom EC2 API client (for testing)
func (c *Client) SetEC2API(api EC2API) {
	c.client = api
}

// ListRegions returns the enabled region codes, sorted. An empty result
// means there is nothing to audit; callers treat it as such, not as an
// error.
func (c *Client) ListRegions(ctx context.Context) ([]string, error) {
	output, err := c.client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to describe regions: %w", err)
	}

	regionIDs := make([]string, 0, len(output.Regions))
	for _, region := range output.Regions {
		if name := aws.ToString(region.RegionName); name != "" {
			regionIDs = append(regionIDs, name)
		}
	}

	sort.Strings(regionIDs)
	return regionIDs, nil
}
