package sink

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidekiq-metrics-agent/internal/publish"
)

type stubCloudWatchAPI struct {
	mu     sync.Mutex
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (s *stubCloudWatchAPI) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.inputs = append(s.inputs, params)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestCloudWatchSubmit(t *testing.T) {
	api := &stubCloudWatchAPI{}
	cw := &CloudWatch{api: api}

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ms := []publish.Measurement{
		{
			Name: "ProcessedJobs", Value: 120, Unit: publish.UnitCount, Timestamp: ts,
			Dimensions: []publish.Dimension{{Name: "Environment", Value: "production"}},
		},
		{Name: "Utilization", Value: 37.5, Unit: publish.UnitPercent, Timestamp: ts},
		{
			Name: "QueueLatency", Value: 1.5, Unit: publish.UnitSeconds, Timestamp: ts,
			Dimensions: []publish.Dimension{{Name: "QueueName", Value: "default"}},
		},
	}

	require.NoError(t, cw.Submit(context.Background(), "Sidekiq", ms))
	require.Len(t, api.inputs, 1)

	in := api.inputs[0]
	assert.Equal(t, "Sidekiq", *in.Namespace)
	require.Len(t, in.MetricData, 3)

	first := in.MetricData[0]
	assert.Equal(t, "ProcessedJobs", *first.MetricName)
	assert.Equal(t, 120.0, *first.Value)
	assert.Equal(t, ts, *first.Timestamp)
	assert.Equal(t, cwtypes.StandardUnitCount, first.Unit)
	require.Len(t, first.Dimensions, 1)
	assert.Equal(t, "Environment", *first.Dimensions[0].Name)
	assert.Equal(t, "production", *first.Dimensions[0].Value)

	assert.Equal(t, cwtypes.StandardUnitPercent, in.MetricData[1].Unit)
	assert.Empty(t, in.MetricData[1].Dimensions)
	assert.Equal(t, cwtypes.StandardUnitSeconds, in.MetricData[2].Unit)
	assert.Equal(t, "QueueName", *in.MetricData[2].Dimensions[0].Name)
}

func TestCloudWatchSubmitEmptyBatch(t *testing.T) {
	api := &stubCloudWatchAPI{}
	cw := &CloudWatch{api: api}

	require.NoError(t, cw.Submit(context.Background(), "Sidekiq", nil))
	assert.Empty(t, api.inputs, "an empty batch must not reach the backend")
}

func TestCloudWatchSubmitRejectsOversizedBatch(t *testing.T) {
	api := &stubCloudWatchAPI{}
	cw := &CloudWatch{api: api}

	ms := make([]publish.Measurement, publish.SinkBatchLimit+1)
	err := cw.Submit(context.Background(), "Sidekiq", ms)
	require.Error(t, err)
	assert.Empty(t, api.inputs, "an oversized batch must be rejected before the API call")
}

func TestCloudWatchSubmitWrapsAPIError(t *testing.T) {
	api := &stubCloudWatchAPI{err: fmt.Errorf("Throttling: rate exceeded")}
	cw := &CloudWatch{api: api}

	err := cw.Submit(context.Background(), "Sidekiq", []publish.Measurement{{Name: "Workers"}})
	require.Error(t, err)
	assert.ErrorContains(t, err, "put metric data")
}
