package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestFetchProcessStatusNormalizesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/process-status" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		// Inconsistent payload: claims cancellable while completed.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"status": map[string]any{
				"status":     "completed",
				"is_running": true,
				"can_cancel": true,
				"timestamp":  time.Now().Format(time.RFC3339),
			},
		})
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL)
	st, err := c.FetchProcessStatus(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.Phase != PhaseCompleted {
		t.Fatalf("phase = %q, want completed", st.Phase)
	}
	if st.IsRunning || st.CanCancel {
		t.Fatalf("normalization did not strip impossible capabilities: %+v", st)
	}
	if !st.CanRestart {
		t.Fatalf("completed run should allow restart")
	}
}

func TestCommandPathsAndPayloads(t *testing.T) {
	var mu sync.Mutex
	got := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		payload, _ := json.Marshal(body)
		mu.Lock()
		got[r.URL.Path] = r.Method + " " + string(payload)
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL)
	ctx := context.Background()

	if err := c.CancelProcess(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.RestartProcess(ctx, map[string]any{"max_jobs": 5}); err != nil {
		t.Fatal(err)
	}
	if err := c.RewriteApplications(ctx, true); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if got["/api/process/cancel"] != "POST {}" {
		t.Fatalf("cancel request = %q", got["/api/process/cancel"])
	}
	if got["/api/process/restart"] != `POST {"max_jobs":5}` {
		t.Fatalf("restart request = %q", got["/api/process/restart"])
	}
	if got["/api/process/rewrite"] != `POST {"use_last_cache":true}` {
		t.Fatalf("rewrite request = %q", got["/api/process/rewrite"])
	}
}

func TestCommandRejectedByBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "nothing running"})
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL)
	err := c.CancelProcess(context.Background())
	if !errors.Is(err, ErrCommandRejected) {
		t.Fatalf("err = %v, want ErrCommandRejected", err)
	}
}

func TestNon2xxIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL)
	if _, err := c.FetchProcessStatus(context.Background()); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestUnreachableBackendIsAnError(t *testing.T) {
	c := NewBackendClient("http://127.0.0.1:1")
	c.HTTP.Timeout = 200 * time.Millisecond
	if _, err := c.FetchProcessStatus(context.Background()); err == nil {
		t.Fatal("expected error for unreachable backend")
	}
}

func TestHealthProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "healthy", "version": "3.0"})
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL)
	info, err := c.Health(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if info.Status != "healthy" || info.Version != "3.0" {
		t.Fatalf("unexpected health info: %+v", info)
	}
}
