// Package sink delivers measurement batches to the monitoring backend.
package sink

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/sidekiq-metrics-agent/internal/publish"
)

// cloudWatchAPI is the slice of the CloudWatch client we use.
type cloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatch submits measurement batches via PutMetricData.
type CloudWatch struct {
	api cloudWatchAPI
}

// NewCloudWatch creates a sink from an AWS config.
func NewCloudWatch(cfg aws.Config) *CloudWatch {
	return &CloudWatch{api: cloudwatch.NewFromConfig(cfg)}
}

// Submit sends one batch. Batches over publish.SinkBatchLimit are rejected
// locally; the backend would refuse the call anyway.
func (c *CloudWatch) Submit(ctx context.Context, namespace string, measurements []publish.Measurement) error {
	if len(measurements) == 0 {
		return nil
	}
	if len(measurements) > publish.SinkBatchLimit {
		return fmt.Errorf("sink: batch of %d exceeds the %d-measurement limit", len(measurements), publish.SinkBatchLimit)
	}

	data := make([]cwtypes.MetricDatum, 0, len(measurements))
	for _, m := range measurements {
		datum := cwtypes.MetricDatum{
			MetricName: aws.String(m.Name),
			Timestamp:  aws.Time(m.Timestamp),
			Value:      aws.Float64(m.Value),
			Unit:       standardUnit(m.Unit),
		}
		for _, d := range m.Dimensions {
			datum.Dimensions = append(datum.Dimensions, cwtypes.Dimension{
				Name:  aws.String(d.Name),
				Value: aws.String(d.Value),
			})
		}
		data = append(data, datum)
	}

	_, err := c.api.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(namespace),
		MetricData: data,
	})
	if err != nil {
		return fmt.Errorf("sink: put metric data: %w", err)
	}
	return nil
}

func standardUnit(u publish.Unit) cwtypes.StandardUnit {
	switch u {
	case publish.UnitPercent:
		return cwtypes.StandardUnitPercent
	case publish.UnitSeconds:
		return cwtypes.StandardUnitSeconds
	default:
		return cwtypes.StandardUnitCount
	}
}
