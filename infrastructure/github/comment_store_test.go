package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"silo-planner/application/ports"
	appErrors "silo-planner/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T, token string, mux *http.ServeMux) *CommentStore {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	store, err := NewCommentStore(server.Client(), Config{
		Token:   token,
		Owner:   "acme",
		Repo:    "planner",
		Label:   "comment",
		BaseURL: server.URL,
	}, zap.NewNop())
	require.NoError(t, err)
	return store
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestCommentStore_FetchAll(t *testing.T) {
	var replyCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/planner/issues", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "open", r.URL.Query().Get("state"))
		assert.Equal(t, "comment", r.URL.Query().Get("labels"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))

		if r.URL.Query().Get("page") == "2" {
			writeJSON(w, []map[string]interface{}{
				{"number": 9, "title": "output:feed", "body": "", "comments": 0, "created_at": "2026-01-03T00:00:00Z"},
			})
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<http://%s/repos/acme/planner/issues?page=2>; rel="next"`, r.Host))
		writeJSON(w, []map[string]interface{}{
			{"number": 7, "title": "function:receiving", "body": "**From:** Pat\n\nNeeds work", "comments": 1, "created_at": "2026-01-01T00:00:00Z"},
			{"number": 8, "title": "base:silo", "body": "plain body", "comments": 0, "created_at": "2026-01-02T00:00:00Z"},
		})
	})
	mux.HandleFunc("/repos/acme/planner/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&replyCalls, 1)
		writeJSON(w, []map[string]interface{}{
			{"id": 100, "body": "**From:** Sam\n\nAgreed", "created_at": "2026-01-01T01:00:00Z"},
		})
	})
	mux.HandleFunc("/repos/acme/planner/issues/8/comments", func(w http.ResponseWriter, r *http.Request) {
		t.Error("replies are not fetched for issues without comments")
	})

	store := newTestStore(t, "", mux)

	index, err := store.FetchAll(context.Background())
	require.NoError(t, err)

	require.Len(t, index["function:receiving"], 2)
	first, reply := index["function:receiving"][0], index["function:receiving"][1]
	assert.Equal(t, "Pat", first.Author)
	assert.Equal(t, "Needs work", first.Text)
	assert.Equal(t, 7, first.ThreadID)
	assert.False(t, first.IsReply)
	assert.Equal(t, int64(1767225600000), first.Timestamp)
	assert.Equal(t, "Sam", reply.Author)
	assert.True(t, reply.IsReply)
	assert.Equal(t, 7, reply.ThreadID)

	require.Len(t, index["base:silo"], 1)
	assert.Equal(t, "Anonymous", index["base:silo"][0].Author)
	assert.Equal(t, "plain body", index["base:silo"][0].Text)

	assert.Contains(t, index, "output:feed")
	assert.Empty(t, index["output:feed"], "an empty body yields no comment")
	assert.Equal(t, int32(1), atomic.LoadInt32(&replyCalls))
}

func TestCommentStore_FetchAll_UpstreamError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/planner/issues", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{"message": "try later"})
	})

	_, err := newTestStore(t, "", mux).FetchAll(context.Background())

	require.True(t, appErrors.IsRemoteStore(err))
	assert.Equal(t, http.StatusServiceUnavailable, appErrors.UpstreamStatus(err))
	assert.Equal(t, "GitHub API error: 503 - try later", appErrors.GetAppError(err).Message)
}

func TestCommentStore_FetchAll_ReplyFailureKeepsThread(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/planner/issues", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]interface{}{
			{"number": 7, "title": "function:receiving", "body": "**From:** Pat\n\nNeeds work", "comments": 2, "created_at": "2026-01-01T00:00:00Z"},
			{"number": 8, "title": "base:silo", "body": "**From:** Lee\n\nLooks fine", "comments": 1, "created_at": "2026-01-02T00:00:00Z"},
		})
	})
	mux.HandleFunc("/repos/acme/planner/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, map[string]string{"message": "boom"})
	})
	mux.HandleFunc("/repos/acme/planner/issues/8/comments", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]interface{}{
			{"id": 200, "body": "**From:** Sam\n\nAgreed", "created_at": "2026-01-02T01:00:00Z"},
		})
	})

	index, err := newTestStore(t, "", mux).FetchAll(context.Background())
	require.NoError(t, err)

	require.Len(t, index["function:receiving"], 1)
	assert.Equal(t, "Pat", index["function:receiving"][0].Author)
	assert.False(t, index["function:receiving"][0].IsReply)

	require.Len(t, index["base:silo"], 2)
	assert.True(t, index["base:silo"][1].IsReply)
}

func TestCommentStore_Submit_ReplyToGivenThread(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/planner/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer ghp_test", r.Header.Get("Authorization"))
		var payload map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "**From:** Sam\n\nAgreed", payload["body"])
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]interface{}{"id": 555})
	})
	mux.HandleFunc("/repos/acme/planner/issues", func(w http.ResponseWriter, r *http.Request) {
		t.Error("no search when the thread is known")
	})

	result, err := newTestStore(t, "ghp_test", mux).Submit(context.Background(), ports.SubmitRequest{
		Key: "function:receiving", Author: "Sam", Text: "Agreed", ThreadID: 7,
	})

	require.NoError(t, err)
	assert.Equal(t, ports.SubmitResult{ThreadID: 7, CommentID: 555}, result)
}

func TestCommentStore_Submit_FindsExistingThread(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/planner/issues", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			t.Error("an existing thread must not be duplicated")
			return
		}
		writeJSON(w, []map[string]interface{}{
			{"number": 3, "title": "base:silo", "body": "x", "comments": 0},
			{"number": 4, "title": "customer:farm", "body": "y", "comments": 0},
		})
	})
	mux.HandleFunc("/repos/acme/planner/issues/4/comments", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]interface{}{"id": 42})
	})

	result, err := newTestStore(t, "ghp_test", mux).Submit(context.Background(), ports.SubmitRequest{
		Key: "customer:farm", Author: "Pat", Text: "hi",
	})

	require.NoError(t, err)
	assert.Equal(t, ports.SubmitResult{ThreadID: 4, CommentID: 42}, result)
}

func TestCommentStore_Submit_OpensNewThread(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/planner/issues", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(w, []map[string]interface{}{})
			return
		}
		var payload struct {
			Title  string   `json:"title"`
			Body   string   `json:"body"`
			Labels []string `json:"labels"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "input:grain", payload.Title)
		assert.Equal(t, "**From:** Pat\n\nMoisture?", payload.Body)
		assert.Equal(t, []string{"comment"}, payload.Labels)

		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]interface{}{"id": 9001, "number": 15})
	})

	result, err := newTestStore(t, "ghp_test", mux).Submit(context.Background(), ports.SubmitRequest{
		Key: "input:grain", Author: "Pat", Text: "Moisture?",
	})

	require.NoError(t, err)
	assert.Equal(t, ports.SubmitResult{ThreadID: 15, CommentID: 9001, Created: true}, result)
}

func TestCommentStore_Submit_RequiresToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request without a token")
	})

	_, err := newTestStore(t, "", mux).Submit(context.Background(), ports.SubmitRequest{
		Key: "base:silo", Author: "Pat", Text: "hi",
	})

	require.True(t, appErrors.IsConfiguration(err))
	assert.Equal(t, "GitHub token not configured", appErrors.GetAppError(err).Message)
}

func TestCommentStore_Submit_UpstreamRejects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/planner/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		writeJSON(w, map[string]string{"message": "Validation Failed"})
	})

	_, err := newTestStore(t, "ghp_test", mux).Submit(context.Background(), ports.SubmitRequest{
		Key: "base:silo", Author: "Pat", Text: "hi", ThreadID: 7,
	})

	require.True(t, appErrors.IsRemoteStore(err))
	assert.Equal(t, "GitHub API error: 422 - Validation Failed", appErrors.GetAppError(err).Message)
}
