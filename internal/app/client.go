package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrCommandRejected is returned when the backend answers a command call with
// success == false despite a 2xx status.
var ErrCommandRejected = errors.New("backend rejected the command")

// BackendClient talks to the job hunter backend over HTTP. It satisfies
// ProcessAPI for the supervisor and additionally exposes the health probe.
type BackendClient struct {
	BaseURL string
	HTTP    *http.Client
}

type statusResponse struct {
	Success bool          `json:"success"`
	Status  ProcessStatus `json:"status"`
}

type commandResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type rewriteRequest struct {
	UseLastCache bool `json:"use_last_cache"`
}

// HealthInfo is the backend's self-report from /api/health.
type HealthInfo struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func NewBackendClient(baseURL string) *BackendClient {
	return &BackendClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchProcessStatus reads the current run status. The snapshot's capability
// booleans are normalized against the phase so an inconsistent payload can't
// enable a meaningless control.
func (c *BackendClient) FetchProcessStatus(ctx context.Context) (ProcessStatus, error) {
	var resp statusResponse
	if err := c.do(ctx, http.MethodGet, "/api/process-status", nil, &resp); err != nil {
		return ProcessStatus{}, err
	}
	if !resp.Success {
		return ProcessStatus{}, fmt.Errorf("status read: %w", ErrCommandRejected)
	}
	return resp.Status.Normalized(), nil
}

// CancelProcess asks the backend to stop the running hunt gracefully.
func (c *BackendClient) CancelProcess(ctx context.Context) error {
	return c.command(ctx, "/api/process/cancel", nil)
}

// RestartProcess starts a fresh run with the given parameter bag
// (keywords, max_jobs, location...). An empty bag uses backend defaults.
func (c *BackendClient) RestartProcess(ctx context.Context, params map[string]any) error {
	if params == nil {
		params = map[string]any{}
	}
	return c.command(ctx, "/api/process/restart", params)
}

// RewriteApplications regenerates application drafts from the last search.
// The backend requires the cache flag; there is no rewrite without it.
func (c *BackendClient) RewriteApplications(ctx context.Context, useLastCache bool) error {
	return c.command(ctx, "/api/process/rewrite", rewriteRequest{UseLastCache: useLastCache})
}

// Health probes /api/health. Used once at startup to label the backend
// reachable; a failure here is informational, not fatal.
func (c *BackendClient) Health(ctx context.Context) (HealthInfo, error) {
	var info HealthInfo
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &info); err != nil {
		return HealthInfo{}, err
	}
	return info, nil
}

func (c *BackendClient) command(ctx context.Context, path string, body any) error {
	var resp commandResponse
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		if resp.Error != "" {
			return fmt.Errorf("%w: %s", ErrCommandRejected, resp.Error)
		}
		return ErrCommandRejected
	}
	return nil
}

func (c *BackendClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(request)
	if err != nil {
		return fmt.Errorf("backend request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %v", err)
	}
	if resp.StatusCode >= 300 {
		var errResp commandResponse
		_ = json.Unmarshal(data, &errResp)
		if errResp.Error != "" {
			return fmt.Errorf("backend error: status %d, error: %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("backend error: status %d, response: %s", resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid backend response: %s", string(data))
	}
	return nil
}
