// Package spend reads the actual RDS bill from Cost Explorer, as a sanity
// check against the modeled estimates.
package spend

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
)

const rdsServiceName = "Amazon Relational Database Service"

// CostExplorerAPI defines the Cost Explorer operations we use
type CostExplorerAPI interface {
	GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

// Client wraps the AWS Cost Explorer client for spend lookups
type Client struct {
	client CostExplorerAPI
	now    func() time.Time
}

// NewClient creates a new spend client
func NewClient(cfg aws.Config) *Client {
	// Cost Explorer is only served out of us-east-1
	ceConfig := cfg.Copy()
	ceConfig.Region = "us-east-1"

	return &Client{
		client: costexplorer.NewFromConfig(ceConfig),
		now:    time.Now,
	}
}

// SetCostExplorerAPI allows injecting a mock Cost Explorer API for testing
func (c *Client) SetCostExplorerAPI(api CostExplorerAPI) {
	c.client = api
}

// SetClock allows injecting a fixed clock for testing
func (c *Client) SetClock(now func() time.Time) {
	c.now = now
}

// LastMonthRDSSpend returns the unblended RDS cost for the last full
// calendar month.
func (c *Client) LastMonthRDSSpend(ctx context.Context) (float64, error) {
	start, end := lastFullMonth(c.now())

	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &types.DateInterval{
			Start: aws.String(start.Format("2006-01-02")),
			End:   aws.String(end.Format("2006-01-02")),
		},
		Granularity: types.GranularityMonthly,
		Metrics:     []string{"UnblendedCost"},
		Filter: &types.Expression{
			Dimensions: &types.DimensionValues{
				Key:    types.DimensionService,
				Values: []string{rdsServiceName},
			},
		},
	}

	result, err := c.client.GetCostAndUsage(ctx, input)
	if err != nil {
		return 0, fmt.Errorf("failed to get RDS spend: %w", err)
	}

	var total float64
	for _, period := range result.ResultsByTime {
		metric, ok := period.Total["UnblendedCost"]
		if !ok || metric.Amount == nil {
			continue
		}
		amount, err := strconv.ParseFloat(*metric.Amount, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse spend amount %q: %w", *metric.Amount, err)
		}
		total += amount
	}

	return total, nil
}

// lastFullMonth returns the [start, end) interval of the last complete
// calendar month relative to now.
func lastFullMonth(now time.Time) (time.Time, time.Time) {
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, -1, 0)
	return start, end
}
