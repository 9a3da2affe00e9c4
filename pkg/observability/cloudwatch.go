package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// maxDatums is the PutMetricData limit per call
const maxDatums = 1000

// CloudWatchClient is the subset of the CloudWatch API used here
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics buffers business metrics and sends them on Flush.
// A nil client makes every call a no-op.
type CloudWatchMetrics struct {
	namespace string
	client    CloudWatchClient
	now       func() time.Time

	mu      sync.Mutex
	pending []types.MetricDatum
}

// NewCloudWatchMetrics creates a new metrics instance
func NewCloudWatchMetrics(namespace string, client CloudWatchClient) *CloudWatchMetrics {
	return &CloudWatchMetrics{namespace: namespace, client: client, now: time.Now}
}

func (m *CloudWatchMetrics) add(name string, value float64, unit types.StandardUnit, dims ...string) {
	if m.client == nil {
		return
	}
	dimensions := make([]types.Dimension, 0, len(dims)/2)
	for i := 0; i+1 < len(dims); i += 2 {
		dimensions = append(dimensions, types.Dimension{
			Name:  aws.String(dims[i]),
			Value: aws.String(dims[i+1]),
		})
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, types.MetricDatum{
		MetricName: aws.String(name),
		Dimensions: dimensions,
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(m.now()),
	})
}

func (m *CloudWatchMetrics) CommentSubmitted(outcome string) {
	m.add("CommentSubmitted", 1, types.StandardUnitCount, "Outcome", outcome)
}

func (m *CloudWatchMetrics) CommentsReconciled(outcome string) {
	m.add("CommentsReconciled", 1, types.StandardUnitCount, "Outcome", outcome)
}

func (m *CloudWatchMetrics) RoadmapSaved(outcome string, duration time.Duration) {
	m.add("RoadmapSaveLatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, "Outcome", outcome)
}

func (m *CloudWatchMetrics) RemoteCall(store, operation, outcome string, duration time.Duration) {
	m.add("RemoteCallLatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds,
		"Store", store, "Operation", operation, "Outcome", outcome)
}

func (m *CloudWatchMetrics) QueryCompleted(queryType, outcome string, duration time.Duration) {
	m.add("QueryLatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds,
		"QueryName", queryType, "Outcome", outcome)
}

// Pending returns the number of buffered datums
func (m *CloudWatchMetrics) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Flush sends buffered datums. Datums of a failed call are dropped.
func (m *CloudWatchMetrics) Flush(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	m.mu.Lock()
	batch := m.pending
	m.pending = nil
	m.mu.Unlock()

	for start := 0; start < len(batch); start += maxDatums {
		end := start + maxDatums
		if end > len(batch) {
			end = len(batch)
		}
		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: batch[start:end],
		})
		if err != nil {
			return fmt.Errorf("put metric data: %w", err)
		}
	}
	return nil
}
