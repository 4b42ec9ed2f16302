// Package remote implements the resilient transport to the remote modeling
// service: a retrying request layer, workflow triggering with Location-header
// id extraction, single-workflow polling with an explicit timeout, and
// paginated multi-workflow polling.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	port "github.com/tigerroll/swell/pkg/orchestrator/core/application/port"
	cfg "github.com/tigerroll/swell/pkg/orchestrator/core/config"
	model "github.com/tigerroll/swell/pkg/orchestrator/core/domain/model"
	metrics "github.com/tigerroll/swell/pkg/orchestrator/core/metrics"
	"github.com/tigerroll/swell/pkg/orchestrator/support/util/exception"
	logger "github.com/tigerroll/swell/pkg/orchestrator/support/util/logger"
)

const moduleName = "remote"

// retryableStatusCodes are the HTTP statuses retried by Request. Every other
// non-2xx status surfaces immediately.
var retryableStatusCodes = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// Response is the outcome of a successful Request call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON unmarshals the response body into target.
func (r *Response) DecodeJSON(target interface{}) error {
	return json.Unmarshal(r.Body, target)
}

// Client implements port.WorkflowClient over HTTP.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	retry           cfg.RetryConfig
	defaultTimeout  time.Duration
	defaultInterval time.Duration
	pageSize        int
	recorder        metrics.Recorder
}

// NewClient creates a Client from the remote section of the configuration.
// Zero-valued settings fall back to the contract defaults (5 attempts, 200s
// request timeout, 100 ids per batch status page).
func NewClient(c *cfg.Config, recorder metrics.Recorder) *Client {
	remote := c.Swell.Remote

	retry := remote.Retry
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 5
	}
	if retry.InitialInterval <= 0 {
		retry.InitialInterval = 500
	}
	if retry.Factor <= 0 {
		retry.Factor = 2.0
	}

	timeout := time.Duration(remote.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 200 * time.Second
	}
	interval := time.Duration(remote.PollingIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	pageSize := remote.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}
	if recorder == nil {
		recorder = metrics.NewNoOpRecorder()
	}

	return &Client{
		httpClient:      &http.Client{},
		baseURL:         strings.TrimRight(remote.BaseURL, "/"),
		retry:           retry,
		defaultTimeout:  timeout,
		defaultInterval: interval,
		pageSize:        pageSize,
		recorder:        recorder,
	}
}

// resolveURL turns a path or absolute URL into an absolute URL against the
// client's base.
func (c *Client) resolveURL(urlOrPath string) string {
	if strings.HasPrefix(urlOrPath, "http://") || strings.HasPrefix(urlOrPath, "https://") {
		return urlOrPath
	}
	return c.baseURL + "/" + strings.TrimLeft(urlOrPath, "/")
}

// parseBody parses a response body as JSON when possible, falling back to the
// raw text. The parsed form is attached to errors so callers can act on the
// remote service's own diagnostics without re-querying.
func parseBody(body []byte) interface{} {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	var parsed interface{}
	if err := json.Unmarshal(trimmed, &parsed); err == nil {
		return parsed
	}
	return string(trimmed)
}

// Request performs an HTTP request against the remote service with automatic
// retry on 429/500/502/503/504. Other 4xx statuses are never retried and fail
// with the parsed response body. Connection failures are treated as transient
// and retried; a transient failure is surfaced only after attempts are
// exhausted. timeout bounds the whole call including retries; zero selects the
// configured default.
func (c *Client) Request(ctx context.Context, method, urlOrPath string, params map[string]string, jsonBody interface{}, headers http.Header, timeout time.Duration) (*Response, error) {
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fullURL := c.resolveURL(urlOrPath)

	var payload []byte
	if jsonBody != nil {
		var err error
		payload, err = json.Marshal(jsonBody)
		if err != nil {
			return nil, exception.New(exception.KindValidation, moduleName,
				"failed to marshal request body", err).
				WithDetail("url", fullURL)
		}
	}

	backoff := time.Duration(c.retry.InitialInterval) * time.Millisecond
	maxBackoff := time.Duration(c.retry.MaxInterval) * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			c.recorder.RecordRemoteRetry(ctx, statusCodeOf(lastErr))
			if err := sleepWithContext(reqCtx, backoff); err != nil {
				return nil, exception.Newf(exception.KindTimeout, moduleName,
					"%s %s interrupted while waiting to retry", method, fullURL, lastErr).
					WithDetail("attempts", attempt-1)
			}
			if c.retry.Factor > 1 {
				backoff = time.Duration(float64(backoff) * c.retry.Factor)
				if maxBackoff > 0 && backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(reqCtx, method, fullURL, bodyReader)
		if err != nil {
			return nil, exception.Newf(exception.KindValidation, moduleName,
				"failed to build %s request for %s", method, fullURL, err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, vs := range headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		if len(params) > 0 {
			q := req.URL.Query()
			for k, v := range params {
				q.Set(k, v)
			}
			req.URL.RawQuery = q.Encode()
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if reqCtx.Err() != nil {
				return nil, exception.Newf(exception.KindTimeout, moduleName,
					"%s %s timed out after %v", method, fullURL, timeout, err).
					WithDetail("attempts", attempt)
			}
			// Connection-level failure; retry as transient.
			lastErr = exception.Newf(exception.KindTransient, moduleName,
				"%s %s failed", method, fullURL, err).
				WithDetail("attempt", attempt)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = exception.Newf(exception.KindTransient, moduleName,
				"failed to read response body from %s %s", method, fullURL, readErr).
				WithDetail("attempt", attempt)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
		}

		if _, retryable := retryableStatusCodes[resp.StatusCode]; retryable {
			logger.Warnf("Remote service returned %d for %s %s (attempt %d/%d).",
				resp.StatusCode, method, fullURL, attempt, c.retry.MaxAttempts)
			lastErr = exception.Newf(exception.KindTransient, moduleName,
				"%s %s returned retryable status %d", method, fullURL, resp.StatusCode).
				WithDetail("status_code", resp.StatusCode).
				WithDetail("body", parseBody(body)).
				WithDetail("attempt", attempt)
			continue
		}

		// Non-retryable failure; surface immediately with the parsed body.
		return nil, exception.Newf(exception.KindRemoteService, moduleName,
			"%s %s returned status %d", method, fullURL, resp.StatusCode).
			WithDetail("status_code", resp.StatusCode).
			WithDetail("body", parseBody(body))
	}

	return nil, lastErr
}

// statusCodeOf extracts the remote status code detail from a transient error,
// 0 when the failure never reached the HTTP layer.
func statusCodeOf(err error) int {
	if v, ok := exception.Detail(err, "status_code"); ok {
		if code, ok := v.(int); ok {
			return code
		}
	}
	return 0
}

// sleepWithContext sleeps for d or returns the context error if it is
// cancelled first.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ port.WorkflowClient = (*Client)(nil)

// workflowIDFromLocation extracts the workflow id from a Location header
// value: the last non-empty path segment.
func workflowIDFromLocation(location string) string {
	u, err := url.Parse(location)
	path := location
	if err == nil {
		path = u.Path
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return ""
}

// StartWorkflow issues the triggering call for a workflow. On 201/202 the
// workflow id is extracted from the Location header (header lookup is
// case-insensitive); any other success status returns the raw response with
// no workflow reference, signalling the caller to skip polling.
func (c *Client) StartWorkflow(ctx context.Context, path string, payload model.Payload) (*port.StartResult, error) {
	resp, err := c.Request(ctx, http.MethodPost, path, nil, payload, nil, 0)
	if err != nil {
		return nil, err
	}

	result := &port.StartResult{StatusCode: resp.StatusCode, Body: resp.Body}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return result, nil
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return nil, exception.Newf(exception.KindRemoteService, moduleName,
			"trigger response %d is missing the Location header", resp.StatusCode).
			WithDetail("status_code", resp.StatusCode).
			WithDetail("body", parseBody(resp.Body))
	}

	id := workflowIDFromLocation(location)
	if id == "" {
		return nil, exception.Newf(exception.KindRemoteService, moduleName,
			"could not extract a workflow id from Location '%s'", location).
			WithDetail("location", location)
	}

	result.WorkflowID = id
	result.WorkflowURL = c.resolveURL(location)
	logger.Debugf("Started workflow '%s' (status %d).", id, resp.StatusCode)
	return result, nil
}

// FetchWorkflowStatus fetches the current status document of one workflow.
func (c *Client) FetchWorkflowStatus(ctx context.Context, workflowID string) (*port.WorkflowStatus, error) {
	return c.fetchStatusByURL(ctx, c.resolveURL("/workflows/"+workflowID), workflowID)
}

// fetchStatusByURL fetches <workflowURL>/status and extracts the status field.
func (c *Client) fetchStatusByURL(ctx context.Context, workflowURL, workflowID string) (*port.WorkflowStatus, error) {
	resp, err := c.Request(ctx, http.MethodGet, workflowURL+"/status", nil, nil, nil, 0)
	if err != nil {
		return nil, err
	}

	detail := model.NewPayload()
	if err := resp.DecodeJSON(&detail); err != nil {
		return nil, exception.Newf(exception.KindRemoteService, moduleName,
			"workflow '%s' status response is not a JSON document", workflowID, err).
			WithDetail("body", parseBody(resp.Body))
	}
	status, ok := detail.GetString("status")
	if !ok || status == "" {
		return nil, exception.Newf(exception.KindRemoteService, moduleName,
			"workflow '%s' status response has no status field", workflowID).
			WithDetail("body", parseBody(resp.Body))
	}

	return &port.WorkflowStatus{WorkflowID: workflowID, Status: status, Detail: detail}, nil
}

// validateWorkflowURL rejects structurally invalid workflow URLs before any
// network call is made.
func validateWorkflowURL(workflowURL string) (id string, err error) {
	u, parseErr := url.Parse(workflowURL)
	if parseErr != nil || strings.TrimSpace(workflowURL) == "" ||
		(u.Scheme != "" && u.Host == "") || strings.Trim(u.Path, "/") == "" {
		return "", exception.Newf(exception.KindValidation, moduleName,
			"structurally invalid workflow URL '%s'", workflowURL).
			WithDetail("workflow_url", workflowURL)
	}
	id = workflowIDFromLocation(workflowURL)
	if id == "" {
		return "", exception.Newf(exception.KindValidation, moduleName,
			"workflow URL '%s' names no workflow id", workflowURL).
			WithDetail("workflow_url", workflowURL)
	}
	return id, nil
}

// PollWorkflow polls a workflow at a fixed interval until it reaches a
// terminal status or timeout elapses. Reaching the deadline fails with a
// timeout error carrying the last observed status; it never reports success
// silently. Transient fetch failures are logged and polling continues.
func (c *Client) PollWorkflow(ctx context.Context, workflowURL string, interval, timeout time.Duration) (*port.WorkflowStatus, error) {
	workflowID, err := validateWorkflowURL(workflowURL)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = c.defaultInterval
	}
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}

	resolved := c.resolveURL(workflowURL)
	deadline := time.Now().Add(timeout)
	lastStatus := ""

	for {
		ws, err := c.fetchStatusByURL(ctx, resolved, workflowID)
		switch {
		case err == nil:
			lastStatus = ws.Status
			mapped, mapErr := model.ParseRemoteWorkflowStatus(ws.Status)
			if mapErr != nil {
				return nil, mapErr
			}
			if mapped.IsTerminal() {
				logger.Debugf("Workflow '%s' reached terminal status %s.", workflowID, ws.Status)
				return ws, nil
			}
		case exception.IsTransient(err):
			// The request layer has already exhausted its retries; keep
			// polling until the overall deadline instead of giving up.
			logger.Warnf("Transient failure while polling workflow '%s': %v", workflowID, err)
		default:
			return nil, err
		}

		if time.Now().Add(interval).After(deadline) {
			return nil, exception.Newf(exception.KindTimeout, moduleName,
				"workflow '%s' did not reach a terminal status within %v", workflowID, timeout).
				WithDetail("workflow_id", workflowID).
				WithDetail("last_status", lastStatus)
		}
		if err := sleepWithContext(ctx, interval); err != nil {
			return nil, exception.Newf(exception.KindTimeout, moduleName,
				"polling of workflow '%s' interrupted", workflowID, err).
				WithDetail("workflow_id", workflowID)
		}
	}
}

// batchStatusPage is the wire shape of one page of the paginated
// multi-workflow status endpoint.
type batchStatusPage struct {
	Workflows []struct {
		WorkflowID string                 `json:"workflow_id"`
		Status     string                 `json:"status"`
		Detail     map[string]interface{} `json:"detail"`
	} `json:"workflows"`
	NextPage string `json:"next_page"`
}

// fetchStatusPage resolves one chunk of at most pageSize workflow ids,
// following the server's page cursor until the chunk is fully enumerated.
func (c *Client) fetchStatusPage(ctx context.Context, ids []string, results map[string]*port.WorkflowStatus) error {
	cursor := ""
	for {
		params := map[string]string{"ids": strings.Join(ids, ",")}
		if cursor != "" {
			params["page"] = cursor
		}
		resp, err := c.Request(ctx, http.MethodGet, "/workflows/status", params, nil, nil, 0)
		if err != nil {
			return err
		}

		var page batchStatusPage
		if err := resp.DecodeJSON(&page); err != nil {
			return exception.New(exception.KindRemoteService, moduleName,
				"batch status response is not a JSON document", err).
				WithDetail("body", parseBody(resp.Body))
		}
		for _, w := range page.Workflows {
			results[w.WorkflowID] = &port.WorkflowStatus{
				WorkflowID: w.WorkflowID,
				Status:     w.Status,
				Detail:     model.Payload(w.Detail),
			}
		}
		if page.NextPage == "" {
			return nil
		}
		cursor = page.NextPage
	}
}

// PollWorkflowsBatch resolves many workflows via the paginated status
// endpoint, fanning out across pages of at most the configured page size each
// interval until every workflow is terminal or the single overall deadline
// elapses. The returned map always carries the last observed status of every
// workflow, so mixed completion states are surfaced rather than hidden; on
// timeout the unresolved ids are named in the error.
func (c *Client) PollWorkflowsBatch(ctx context.Context, workflowURLs []string, interval, timeout time.Duration) (map[string]*port.WorkflowStatus, error) {
	ids := make([]string, 0, len(workflowURLs))
	for _, wu := range workflowURLs {
		id, err := validateWorkflowURL(wu)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if interval <= 0 {
		interval = c.defaultInterval
	}
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}

	results := make(map[string]*port.WorkflowStatus, len(ids))
	pending := ids
	deadline := time.Now().Add(timeout)

	for {
		for start := 0; start < len(pending); start += c.pageSize {
			end := start + c.pageSize
			if end > len(pending) {
				end = len(pending)
			}
			if err := c.fetchStatusPage(ctx, pending[start:end], results); err != nil {
				if exception.IsTransient(err) {
					logger.Warnf("Transient failure while polling workflow batch: %v", err)
					continue
				}
				return results, err
			}
		}

		unresolved := make([]string, 0, len(pending))
		for _, id := range pending {
			ws, ok := results[id]
			if !ok {
				unresolved = append(unresolved, id)
				continue
			}
			mapped, err := model.ParseRemoteWorkflowStatus(ws.Status)
			if err != nil {
				return results, err
			}
			if !mapped.IsTerminal() {
				unresolved = append(unresolved, id)
			}
		}
		if len(unresolved) == 0 {
			return results, nil
		}
		pending = unresolved

		if time.Now().Add(interval).After(deadline) {
			return results, exception.Newf(exception.KindTimeout, moduleName,
				"%d of %d workflows did not reach a terminal status within %v",
				len(unresolved), len(ids), timeout).
				WithDetail("unresolved_workflow_ids", unresolved)
		}
		if err := sleepWithContext(ctx, interval); err != nil {
			return results, exception.New(exception.KindTimeout, moduleName,
				"batch polling interrupted", err).
				WithDetail("unresolved_workflow_ids", unresolved)
		}
	}
}

// ExecuteWorkflow composes StartWorkflow and PollWorkflow. When the trigger
// response is not 201/202 there is nothing to poll; the parsed response is
// returned as the workflow detail instead.
func (c *Client) ExecuteWorkflow(ctx context.Context, path string, payload model.Payload, interval, timeout time.Duration) (*port.WorkflowStatus, error) {
	started, err := c.StartWorkflow(ctx, path, payload)
	if err != nil {
		return nil, err
	}
	if started.WorkflowID == "" {
		detail := model.NewPayload()
		detail.Put("status_code", started.StatusCode)
		detail.Put("body", parseBody(started.Body))
		return &port.WorkflowStatus{Detail: detail}, nil
	}
	return c.PollWorkflow(ctx, started.WorkflowURL, interval, timeout)
}
