package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"silo-planner/application/commands"
	"silo-planner/application/commands/bus"
	commandhandlers "silo-planner/application/commands/handlers"
	"silo-planner/application/ports"
	"silo-planner/application/queries"
	querybus "silo-planner/application/queries/bus"
	queryhandlers "silo-planner/application/queries/handlers"
	"silo-planner/infrastructure/messaging/eventbridge"
	"silo-planner/infrastructure/persistence/memory"
	appErrors "silo-planner/pkg/errors"
	"silo-planner/pkg/observability"
	"silo-planner/pkg/ratelimit"
	"silo-planner/tests/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	handler   http.Handler
	collector *observability.Collector
}

func newTestServer(t *testing.T, comments ports.CommentStore, roadmaps ports.RoadmapStore, writeLimit int) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := mocks.NewPermissiveMetrics()
	publisher := eventbridge.NewLogPublisher(logger)

	commandBus := bus.NewCommandBus(bus.RecoveryMiddleware())
	addComment := commandhandlers.NewAddCommentHandler(comments, publisher, metrics, logger)
	saveRoadmap := commandhandlers.NewSaveRoadmapHandler(roadmaps, publisher, metrics, "silo-roadmap", logger)
	require.NoError(t, commandBus.Register(commands.AddCommentCommand{}, bus.CommandHandlerFunc(
		func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			return addComment.Handle(ctx, cmd.(commands.AddCommentCommand))
		})))
	require.NoError(t, commandBus.Register(commands.SaveRoadmapCommand{}, bus.CommandHandlerFunc(
		func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			return saveRoadmap.Handle(ctx, cmd.(commands.SaveRoadmapCommand))
		})))

	collector := observability.NewCollector("silo_test")
	queryBus := querybus.NewQueryBus().WithMetrics(collector)
	listComments := queryhandlers.NewListCommentsHandler(comments, logger)
	loadRoadmap := queryhandlers.NewLoadRoadmapHandler(roadmaps)
	require.NoError(t, queryBus.Register(queries.ListCommentsQuery{}, querybus.QueryHandlerFunc(
		func(ctx context.Context, q querybus.Query) (interface{}, error) {
			return listComments.Handle(ctx, q.(queries.ListCommentsQuery))
		})))
	require.NoError(t, queryBus.Register(queries.LoadRoadmapQuery{}, querybus.QueryHandlerFunc(
		func(ctx context.Context, q querybus.Query) (interface{}, error) {
			return loadRoadmap.Handle(ctx, q.(queries.LoadRoadmapQuery))
		})))

	var limiter ratelimit.RateLimiter
	if writeLimit > 0 {
		limiter = ratelimit.NewSlidingWindowLimiter(writeLimit, time.Minute)
	}

	router := NewRouter(commandBus, queryBus, limiter, collector, observability.NewTracer("silo-planner", false), RouterConfig{
		EnableCORS:     true,
		CORSOrigins:    []string{"*"},
		WriteLimit:     writeLimit,
		WriteWindow:    time.Minute,
		MetricsHandler: collector.Handler(),
		ReadinessChecks: map[string]ReadinessCheck{
			"self": func(context.Context) error { return nil },
		},
	}, logger)

	return &testServer{handler: router.Setup(), collector: collector}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestComments_AddThenList(t *testing.T) {
	srv := newTestServer(t, memory.NewCommentStore(), memory.NewRoadmapStore(nil), 0)

	rec := srv.do(http.MethodGet, "/api/comments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())

	rec = srv.do(http.MethodPost, "/api/comments", `{"key":"function:receiving","name":"Pat","text":"Needs work"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"issueNumber":1,"id":1}`, rec.Body.String())

	rec = srv.do(http.MethodPost, "/.netlify/functions/add-comment", `{"key":"function:receiving","name":"Sam","text":"Agreed","issueNumber":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"issueNumber":1,"id":2}`, rec.Body.String())

	rec = srv.do(http.MethodGet, "/.netlify/functions/get-comments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var index map[string][]map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &index))
	require.Len(t, index["function:receiving"], 2)
	assert.Equal(t, "Pat", index["function:receiving"][0]["name"])
	assert.Equal(t, true, index["function:receiving"][1]["isReply"])
	assert.Equal(t, float64(1), index["function:receiving"][1]["issueNumber"])

	rec = srv.do(http.MethodGet, "/api/comments?key=input:none", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestComments_BadRequests(t *testing.T) {
	srv := newTestServer(t, memory.NewCommentStore(), memory.NewRoadmapStore(nil), 0)

	rec := srv.do(http.MethodPost, "/api/comments", `{"key":"base:silo","name":"  ","text":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields: key, name, text", errorMessage(t, rec))

	rec = srv.do(http.MethodPost, "/api/comments", `{"key":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON body", errorMessage(t, rec))

	rec = srv.do(http.MethodPost, "/api/comments", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, memory.NewCommentStore(), memory.NewRoadmapStore(nil), 0)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPut, "/api/comments"},
		{http.MethodDelete, "/api/roadmap"},
		{http.MethodGet, "/.netlify/functions/add-comment"},
		{http.MethodGet, "/.netlify/functions/save-roadmap"},
		{http.MethodPost, "/.netlify/functions/load-roadmap"},
	} {
		rec := srv.do(tc.method, tc.path, "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, tc.method+" "+tc.path)
		assert.Equal(t, "Method not allowed", errorMessage(t, rec))
	}
}

func TestRoadmap_SaveThenLoad(t *testing.T) {
	srv := newTestServer(t, memory.NewCommentStore(), memory.NewRoadmapStore(nil), 0)

	rec := srv.do(http.MethodGet, "/.netlify/functions/load-roadmap", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	tree := `[{"id":"p1","name":"Ops","color":"#112233","initiatives":[{"id":"i1","name":"Dryers","modules":[{"id":"m1","name":"Audit","target":"Q2 2026","notes":""}]}]}]`
	rec = srv.do(http.MethodPost, "/api/roadmap", tree)
	require.Equal(t, http.StatusOK, rec.Code)
	var saved struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.True(t, saved.Success)
	assert.Contains(t, string(saved.Data), `"version":1`)

	rec = srv.do(http.MethodGet, "/api/roadmap", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, tree, rec.Body.String())

	rec = srv.do(http.MethodPost, "/.netlify/functions/save-roadmap", `{"not":"a list"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpstreamAndConfigurationErrors(t *testing.T) {
	comments := new(mocks.MockCommentStore)
	comments.On("Submit", mock.Anything, mock.Anything).
		Return(ports.SubmitResult{}, appErrors.NewConfigurationError("GitHub token not configured"))
	comments.On("FetchAll", mock.Anything).
		Return(nil, appErrors.NewRemoteStoreError("GitHub API", 503, "", errors.New("upstream")))
	roadmaps := new(mocks.MockRoadmapStore)
	roadmaps.On("Load", mock.Anything).Return(nil, appErrors.NewConfigurationError("API key not configured"))

	srv := newTestServer(t, comments, roadmaps, 0)

	rec := srv.do(http.MethodPost, "/api/comments", `{"key":"base:silo","name":"Pat","text":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "GitHub token not configured", errorMessage(t, rec))

	rec = srv.do(http.MethodGet, "/api/comments", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "GitHub API error: 503", errorMessage(t, rec))

	rec = srv.do(http.MethodGet, "/api/roadmap", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "API key not configured", errorMessage(t, rec))
}

func TestWriteRateLimit(t *testing.T) {
	srv := newTestServer(t, memory.NewCommentStore(), memory.NewRoadmapStore(nil), 1)

	rec := srv.do(http.MethodPost, "/api/roadmap", `[]`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(http.MethodPost, "/api/roadmap", `[]`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	rec = srv.do(http.MethodGet, "/api/roadmap", "")
	assert.Equal(t, http.StatusOK, rec.Code, "reads are not limited")
}

func TestOperationalEndpoints(t *testing.T) {
	srv := newTestServer(t, memory.NewCommentStore(), memory.NewRoadmapStore(nil), 0)

	rec := srv.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = srv.do(http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	srv.do(http.MethodGet, "/api/roadmap", "")
	rec = srv.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `silo_test_http_request_duration_seconds_count{method="GET",route="/api/roadmap",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `silo_test_query_duration_seconds_count{outcome="success",query="LoadRoadmapQuery"} 1`)

	rec = srv.do(http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, memory.NewCommentStore(), memory.NewRoadmapStore(nil), 0)

	req := httptest.NewRequest(http.MethodGet, "/.netlify/functions/get-comments", nil)
	req.Header.Set("Origin", "https://silo.example.com")
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestReadiness_FailingCheck(t *testing.T) {
	router := NewRouter(bus.NewCommandBus(), querybus.NewQueryBus(), nil, nil, nil, RouterConfig{
		ReadinessChecks: map[string]ReadinessCheck{
			"redis": func(context.Context) error { return errors.New("connection refused") },
		},
	}, zap.NewNop())

	rec := httptest.NewRecorder()
	router.Setup().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"not ready","check":"redis"}`, rec.Body.String())
}
