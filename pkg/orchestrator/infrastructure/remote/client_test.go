package remote_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/tigerroll/swell/pkg/orchestrator/core/config"
	"github.com/tigerroll/swell/pkg/orchestrator/infrastructure/remote"
	"github.com/tigerroll/swell/pkg/orchestrator/support/util/exception"
)

func newTestClient(baseURL string, pageSize int) *remote.Client {
	c := config.NewConfig()
	c.Swell.Remote.BaseURL = baseURL
	c.Swell.Remote.PageSize = pageSize
	c.Swell.Remote.Retry = config.RetryConfig{
		MaxAttempts:     5,
		InitialInterval: 1,
		MaxInterval:     2,
		Factor:          2.0,
	}
	return remote.NewClient(c, nil)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// --- Request ---

func TestRequest_ExhaustsRetriesOnServerError(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "maintenance"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 100)
	_, err := client.Request(context.Background(), http.MethodGet, "/workflows/wf-1/status", nil, nil, nil, 0)
	require.Error(t, err)
	assert.True(t, exception.IsTransient(err))
	assert.Equal(t, int32(5), atomic.LoadInt32(&requests))
}

func TestRequest_RetryPolicyByStatusCode(t *testing.T) {
	tests := []struct {
		status       int
		wantRequests int32
		wantCheck    func(error) bool
	}{
		{http.StatusTooManyRequests, 5, exception.IsTransient},
		{http.StatusInternalServerError, 5, exception.IsTransient},
		{http.StatusBadGateway, 5, exception.IsTransient},
		{http.StatusServiceUnavailable, 5, exception.IsTransient},
		{http.StatusGatewayTimeout, 5, exception.IsTransient},
		{http.StatusBadRequest, 1, exception.IsRemoteService},
		{http.StatusNotFound, 1, exception.IsRemoteService},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			var requests int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&requests, 1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := newTestClient(srv.URL, 100)
			_, err := client.Request(context.Background(), http.MethodGet, "/workflows/wf-1/status", nil, nil, nil, 0)
			require.Error(t, err)
			assert.True(t, tt.wantCheck(err))
			assert.Equal(t, tt.wantRequests, atomic.LoadInt32(&requests))
		})
	}
}

func TestRequest_RecoversWithinRetryBudget(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "RUNNING"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 100)
	resp, err := client.Request(context.Background(), http.MethodGet, "/workflows/wf-1/status", nil, nil, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
}

func TestRequest_ClientErrorIsNeverRetried(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed payload"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 100)
	_, err := client.Request(context.Background(), http.MethodPost, "/workflows",
		nil, map[string]string{"unit": "u"}, nil, 0)
	require.Error(t, err)
	assert.True(t, exception.IsRemoteService(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))

	code, ok := exception.Detail(err, "status_code")
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, code)
	body, ok := exception.Detail(err, "body")
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"error": "malformed payload"}, body)
}

func TestRequest_ConnectionFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := newTestClient(srv.URL, 100)
	_, err := client.Request(context.Background(), http.MethodGet, "/workflows/wf-1/status", nil, nil, nil, 0)
	require.Error(t, err)
	assert.True(t, exception.IsTransient(err))
}

// --- StartWorkflow ---

func TestStartWorkflow_ExtractsWorkflowIDFromLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/workflows", r.URL.Path)
		w.Header().Set("Location", "/workflows/abc123")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 100)
	started, err := client.StartWorkflow(context.Background(), "/workflows", map[string]interface{}{"unit": "u"})
	require.NoError(t, err)
	assert.Equal(t, "abc123", started.WorkflowID)
	assert.Equal(t, srv.URL+"/workflows/abc123", started.WorkflowURL)
	assert.Equal(t, http.StatusAccepted, started.StatusCode)
}

func TestStartWorkflow_MissingLocationHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 100)
	_, err := client.StartWorkflow(context.Background(), "/workflows", nil)
	require.Error(t, err)
	assert.True(t, exception.IsRemoteService(err))
}

func TestStartWorkflow_SynchronousResponseSkipsPolling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"result": "computed inline"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 100)
	started, err := client.StartWorkflow(context.Background(), "/workflows", nil)
	require.NoError(t, err)
	assert.Empty(t, started.WorkflowID)
	assert.Equal(t, http.StatusOK, started.StatusCode)
	assert.Contains(t, string(started.Body), "computed inline")
}

// --- FetchWorkflowStatus ---

func TestFetchWorkflowStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/workflows/wf-1/status", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "RUNNING", "progress": 0.5})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 100)
	ws, err := client.FetchWorkflowStatus(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "wf-1", ws.WorkflowID)
	assert.Equal(t, "RUNNING", ws.Status)
	progress, ok := ws.Detail.Get("progress")
	require.True(t, ok)
	assert.Equal(t, 0.5, progress)
}

func TestFetchWorkflowStatus_MissingStatusField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"progress": 0.5})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 100)
	_, err := client.FetchWorkflowStatus(context.Background(), "wf-1")
	require.Error(t, err)
	assert.True(t, exception.IsRemoteService(err))
}

// --- PollWorkflow ---

func TestPollWorkflow_UntilTerminal(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&polls, 1) < 3 {
			writeJSON(w, http.StatusOK, map[string]string{"status": "RUNNING"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "SUCCEEDED", "records": 7})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 100)
	ws, err := client.PollWorkflow(context.Background(), srv.URL+"/workflows/wf-1",
		5*time.Millisecond, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "SUCCEEDED", ws.Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&polls))
}

func TestPollWorkflow_TimeoutNamesLastStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "RUNNING"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 100)
	_, err := client.PollWorkflow(context.Background(), srv.URL+"/workflows/wf-1",
		5*time.Millisecond, 30*time.Millisecond)
	require.Error(t, err)
	assert.True(t, exception.IsTimeout(err))

	lastStatus, ok := exception.Detail(err, "last_status")
	require.True(t, ok)
	assert.Equal(t, "RUNNING", lastStatus)
}

func TestPollWorkflow_InvalidURLFailsBeforeAnyRequest(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 100)
	for _, badURL := range []string{"", "http://", "http:///workflows/wf-1", srv.URL + "/"} {
		_, err := client.PollWorkflow(context.Background(), badURL, time.Millisecond, time.Second)
		require.Error(t, err, "url %q", badURL)
		assert.True(t, exception.IsValidation(err), "url %q", badURL)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&requests))
}

func TestPollWorkflow_ContinuesThroughTransientFailures(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// First round of attempts all fail; the next poll succeeds.
		if atomic.AddInt32(&polls, 1) <= 5 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "FINISHED"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 100)
	ws, err := client.PollWorkflow(context.Background(), srv.URL+"/workflows/wf-1",
		5*time.Millisecond, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "FINISHED", ws.Status)
}

// --- PollWorkflowsBatch ---

func batchStatusHandler(t *testing.T, statuses map[string]string, maxIDsPerCall int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/workflows/status", r.URL.Path)
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		require.LessOrEqual(t, len(ids), maxIDsPerCall)

		type wire struct {
			WorkflowID string `json:"workflow_id"`
			Status     string `json:"status"`
		}
		workflows := make([]wire, 0, len(ids))
		for _, id := range ids {
			status, ok := statuses[id]
			require.True(t, ok, "unknown workflow id %q", id)
			workflows = append(workflows, wire{WorkflowID: id, Status: status})
		}

		// Serve one workflow per page to exercise cursor following.
		page := 0
		if cursor := r.URL.Query().Get("page"); cursor != "" {
			_, err := fmt.Sscanf(cursor, "%d", &page)
			require.NoError(t, err)
		}
		next := ""
		if page+1 < len(workflows) {
			next = fmt.Sprintf("%d", page+1)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"workflows": []wire{workflows[page]},
			"next_page": next,
		})
	}
}

func TestPollWorkflowsBatch_PagesAndCursors(t *testing.T) {
	statuses := map[string]string{
		"wf-1": "FINISHED",
		"wf-2": "FAILED",
		"wf-3": "CANCELLED",
	}
	srv := httptest.NewServer(batchStatusHandler(t, statuses, 2))
	defer srv.Close()

	client := newTestClient(srv.URL, 2)
	urls := []string{
		srv.URL + "/workflows/wf-1",
		srv.URL + "/workflows/wf-2",
		srv.URL + "/workflows/wf-3",
	}
	results, err := client.PollWorkflowsBatch(context.Background(), urls,
		5*time.Millisecond, time.Second)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "FINISHED", results["wf-1"].Status)
	assert.Equal(t, "FAILED", results["wf-2"].Status)
	assert.Equal(t, "CANCELLED", results["wf-3"].Status)
}

func TestPollWorkflowsBatch_TimeoutNamesUnresolved(t *testing.T) {
	statuses := map[string]string{
		"wf-1": "FINISHED",
		"wf-2": "RUNNING",
	}
	srv := httptest.NewServer(batchStatusHandler(t, statuses, 2))
	defer srv.Close()

	client := newTestClient(srv.URL, 2)
	urls := []string{
		srv.URL + "/workflows/wf-1",
		srv.URL + "/workflows/wf-2",
	}
	results, err := client.PollWorkflowsBatch(context.Background(), urls,
		5*time.Millisecond, 30*time.Millisecond)
	require.Error(t, err)
	assert.True(t, exception.IsTimeout(err))

	// The last observed status of every workflow is still returned.
	require.Len(t, results, 2)
	assert.Equal(t, "FINISHED", results["wf-1"].Status)
	assert.Equal(t, "RUNNING", results["wf-2"].Status)

	unresolved, ok := exception.Detail(err, "unresolved_workflow_ids")
	require.True(t, ok)
	assert.Equal(t, []string{"wf-2"}, unresolved)
}

func TestPollWorkflowsBatch_InvalidURLFailsUpfront(t *testing.T) {
	client := newTestClient("http://localhost:1", 100)
	_, err := client.PollWorkflowsBatch(context.Background(),
		[]string{"http://localhost:1/workflows/wf-1", ""},
		time.Millisecond, time.Second)
	require.Error(t, err)
	assert.True(t, exception.IsValidation(err))
}

// --- ExecuteWorkflow ---

func TestExecuteWorkflow_StartsAndPollsToCompletion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/workflows", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/workflows/abc123")
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/workflows/abc123/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "SUCCEEDED"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(srv.URL, 100)
	ws, err := client.ExecuteWorkflow(context.Background(), "/workflows",
		map[string]interface{}{"unit": "u"}, 5*time.Millisecond, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "abc123", ws.WorkflowID)
	assert.Equal(t, "SUCCEEDED", ws.Status)
}

func TestExecuteWorkflow_SynchronousResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"result": "done"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 100)
	ws, err := client.ExecuteWorkflow(context.Background(), "/workflows", nil,
		5*time.Millisecond, time.Second)
	require.NoError(t, err)
	assert.Empty(t, ws.WorkflowID)
	code, ok := ws.Detail.Get("status_code")
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, code)
}
