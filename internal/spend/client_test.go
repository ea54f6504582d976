package spend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/LeanerCloud/aurora-sv2-advisor/internal/mocks"
)

func TestLastFullMonth(t *testing.T) {
	tests := []struct {
		name          string
		now           time.Time
		expectedStart string
		expectedEnd   string
	}{
		{
			name:          "mid month",
			now:           time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC),
			expectedStart: "2026-02-01",
			expectedEnd:   "2026-03-01",
		},
		{
			name:          "first of month",
			now:           time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			expectedStart: "2026-02-01",
			expectedEnd:   "2026-03-01",
		},
		{
			name:          "january wraps to december",
			now:           time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC),
			expectedStart: "2025-12-01",
			expectedEnd:   "2026-01-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := lastFullMonth(tt.now)
			assert.Equal(t, tt.expectedStart, start.Format("2006-01-02"))
			assert.Equal(t, tt.expectedEnd, end.Format("2006-01-02"))
		})
	}
}

func TestLastMonthRDSSpend(t *testing.T) {
	mockCE := &mocks.MockCostExplorerClient{}
	client := NewClient(aws.Config{Region: "eu-west-1"})
	client.SetCostExplorerAPI(mockCE)
	client.SetClock(func() time.Time {
		return time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	})

	mockCE.On("GetCostAndUsage", mock.Anything, mock.MatchedBy(func(input *costexplorer.GetCostAndUsageInput) bool {
		return aws.ToString(input.TimePeriod.Start) == "2026-02-01" &&
			aws.ToString(input.TimePeriod.End) == "2026-03-01" &&
			input.Granularity == types.GranularityMonthly &&
			input.Filter != nil &&
			input.Filter.Dimensions.Key == types.DimensionService &&
			input.Filter.Dimensions.Values[0] == "Amazon Relational Database Service"
	})).Return(&costexplorer.GetCostAndUsageOutput{
		ResultsByTime: []types.ResultByTime{
			{
				Total: map[string]types.MetricValue{
					"UnblendedCost": {Amount: aws.String("1234.56"), Unit: aws.String("USD")},
				},
			},
		},
	}, nil)

	total, err := client.LastMonthRDSSpend(context.Background())

	require.NoError(t, err)
	assert.InDelta(t, 1234.56, total, 1e-9)
	mockCE.AssertExpectations(t)
}

func TestLastMonthRDSSpendError(t *testing.T) {
	mockCE := &mocks.MockCostExplorerClient{}
	client := NewClient(aws.Config{Region: "eu-west-1"})
	client.SetCostExplorerAPI(mockCE)

	mockCE.On("GetCostAndUsage", mock.Anything, mock.Anything).
		Return(nil, errors.New("data unavailable"))

	_, err := client.LastMonthRDSSpend(context.Background())

	assert.Error(t, err)
}

func TestLastMonthRDSSpendMalformedAmount(t *testing.T) {
	mockCE := &mocks.MockCostExplorerClient{}
	client := NewClient(aws.Config{Region: "eu-west-1"})
	client.SetCostExplorerAPI(mockCE)

	mockCE.On("GetCostAndUsage", mock.Anything, mock.Anything).
		Return(&costexplorer.GetCostAndUsageOutput{
			ResultsByTime: []types.ResultByTime{
				{
					Total: map[string]types.MetricValue{
						"UnblendedCost": {Amount: aws.String("not-a-number")},
					},
				},
			},
		}, nil)

	_, err := client.LastMonthRDSSpend(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not-a-number")
}
