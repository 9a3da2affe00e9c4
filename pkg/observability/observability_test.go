package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordsBusinessMetrics(t *testing.T) {
	c := NewCollector("silo")

	c.CommentSubmitted("success")
	c.CommentSubmitted("success")
	c.CommentSubmitted("failure")
	c.CommentsReconciled("success")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.commentsSubmitted.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.commentsSubmitted.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.commentsReconciled.WithLabelValues("success")))

	c.RoadmapSaved("success", 20*time.Millisecond)
	c.RemoteCall("GitHub API", "submit", "success", time.Millisecond)
	c.QueryCompleted("LoadRoadmapQuery", "success", time.Millisecond)
	c.ObserveHTTP(http.MethodGet, "/api/roadmap", 200, time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(c.roadmapSaves))
	assert.Equal(t, 1, testutil.CollectAndCount(c.remoteCalls))
	assert.Equal(t, 1, testutil.CollectAndCount(c.queries))
	assert.Equal(t, 1, testutil.CollectAndCount(c.httpRequests))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("silo")
	c.CommentSubmitted("success")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `silo_comments_submitted_total{outcome="success"} 1`)
}

type fakeCloudWatch struct {
	calls []*cloudwatch.PutMetricDataInput
	err   error
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.calls = append(f.calls, in)
	return &cloudwatch.PutMetricDataOutput{}, f.err
}

func TestCloudWatchMetrics_FlushBatches(t *testing.T) {
	client := &fakeCloudWatch{}
	m := NewCloudWatchMetrics("SiloPlanner", client)

	for i := 0; i < 1001; i++ {
		m.CommentSubmitted("success")
	}
	m.RemoteCall("JSONBin", "save", "failure", 40*time.Millisecond)
	assert.Equal(t, 1002, m.Pending())

	require.NoError(t, m.Flush(context.Background()))

	require.Len(t, client.calls, 2)
	assert.Equal(t, "SiloPlanner", aws.ToString(client.calls[0].Namespace))
	assert.Len(t, client.calls[0].MetricData, 1000)
	last := client.calls[1].MetricData[1]
	assert.Equal(t, "RemoteCallLatency", aws.ToString(last.MetricName))
	assert.Len(t, last.Dimensions, 3)
	assert.Equal(t, 40.0, aws.ToFloat64(last.Value))
	assert.Zero(t, m.Pending())
}

func TestCloudWatchMetrics_ErrorsAndNilClient(t *testing.T) {
	client := &fakeCloudWatch{err: errors.New("throttled")}
	m := NewCloudWatchMetrics("SiloPlanner", client)
	m.CommentsReconciled("failure")
	assert.ErrorContains(t, m.Flush(context.Background()), "throttled")

	noop := NewCloudWatchMetrics("SiloPlanner", nil)
	noop.RoadmapSaved("success", time.Second)
	assert.Zero(t, noop.Pending())
	assert.NoError(t, noop.Flush(context.Background()))
}

func TestTracer_Disabled(t *testing.T) {
	tracer := NewTracer("silo-planner", false)

	called := false
	err := tracer.TraceFunction(context.Background(), "op", func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, tracer.Middleware(handler))

	client := &http.Client{Timeout: time.Second}
	assert.Same(t, client, tracer.HTTPClient(client))

	tracer.AddAnnotation(context.Background(), "k", "v")
	tracer.RecordError(context.Background(), errors.New("x"))

	var nilTracer *Tracer
	assert.False(t, nilTracer.Enabled())
}

func TestTracer_EnabledWithoutSegment(t *testing.T) {
	tracer := NewTracer("silo-planner", true)

	err := tracer.TraceFunction(context.Background(), "op", func(ctx context.Context) error {
		return errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
	assert.NotNil(t, tracer.HTTPClient(nil))
}
