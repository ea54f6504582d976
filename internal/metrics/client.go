// Package metrics fetches RDS utilization series from CloudWatch and
// reduces them to representative scalars.
package metrics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/LeanerCloud/aurora-sv2-advisor/internal/common"
)

const (
	rdsNamespace      = "AWS/RDS"
	instanceDimension = "DBInstanceIdentifier"

	// samplePeriod is the fixed sampling granularity of the lookback window.
	samplePeriod = time.Hour
)

// Client retrieves raw utilization series for one region.
type Client struct {
	client CloudWatchAPI
	now    func() time.Time
}

// NewClient creates a metrics client for the config's region.
func NewClient(cfg aws.Config) *Client {
	return &Client{
		client: cloudwatch.NewFromConfig(cfg),
		now:    time.Now,
	}
}

// SetCloudWatchAPI sets a custom CloudWatch API client (for testing)
func (c *Client) SetCloudWatchAPI(api CloudWatchAPI) {
	c.client = api
}

// SetClock overrides the time source (for testing)
func (c *Client) SetClock(now func() time.Time) {
	c.now = now
}

// GetUtilization fetches one metric series for an instance over the
// lookback window. A series with no datapoints is returned as-is; callers
// must treat it as a data gap, not as zero utilization.
func (c *Client) GetUtilization(ctx context.Context, instanceID string, kind common.MetricKind, lookbackDays int) (common.UtilizationSample, error) {
	sample := common.UtilizationSample{
		InstanceID: instanceID,
		Kind:       kind,
	}

	endTime := c.now()
	startTime := endTime.AddDate(0, 0, -lookbackDays)

	input := &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(rdsNamespace),
		MetricName: aws.String(string(kind)),
		Dimensions: []types.Dimension{
			{
				Name:  aws.String(instanceDimension),
				Value: aws.String(instanceID),
			},
		},
		StartTime:  aws.Time(startTime),
		EndTime:    aws.Time(endTime),
		Period:     aws.Int32(int32(samplePeriod.Seconds())),
		Statistics: []types.Statistic{types.StatisticMaximum},
	}

	output, err := c.client.GetMetricStatistics(ctx, input)
	if err != nil {
		return sample, fmt.Errorf("failed to fetch %s for %s: %w", kind, instanceID, err)
	}

	points := make([]common.SamplePoint, 0, len(output.Datapoints))
	for _, dp := range output.Datapoints {
		points = append(points, common.SamplePoint{
			Timestamp: aws.ToTime(dp.Timestamp),
			Value:     aws.ToFloat64(dp.Maximum),
		})
	}
	// CloudWatch returns datapoints unordered.
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	sample.Datapoints = points

	return sample, nil
}
