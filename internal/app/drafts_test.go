package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListAndExportDrafts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/drafts":
			if r.URL.Query().Get("limit") != "50" {
				t.Errorf("limit not forwarded: %s", r.URL.RawQuery)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"drafts": []map[string]any{
					{"id": 1, "company": "ACME GmbH", "title": "Marketing Manager", "letter_text": "Sehr geehrte ..."},
					{"id": 2, "company": "Initech", "title": "Go Developer", "letter_text": "Dear ..."},
				},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/drafts/export":
			var req ExportRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if len(req.IDs) != 2 {
				t.Errorf("export ids = %v", req.IDs)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success":  true,
				"exported": []string{"/tmp/acme.pdf", "/tmp/initech.pdf"},
			})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL)
	drafts, err := c.ListDrafts(context.Background(), 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(drafts) != 2 || drafts[0].Company != "ACME GmbH" {
		t.Fatalf("unexpected drafts: %+v", drafts)
	}

	files, err := c.ExportDrafts(context.Background(), ExportRequest{IDs: []int{1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("exported %d files, want 2", len(files))
	}
}

func TestJobSelectionAndApprovalRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch r.URL.Path {
		case "/job-selection":
			if body["type"] != "job_selection" {
				t.Errorf("selection type = %v", body["type"])
			}
			ids, _ := body["selected_job_ids"].([]any)
			if len(ids) != 3 {
				t.Errorf("selected ids = %v", body["selected_job_ids"])
			}
		case "/application-approval":
			if body["type"] != "application_approval" {
				t.Errorf("approval type = %v", body["type"])
			}
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success"})
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL)
	if err := c.PostJobSelection(context.Background(), []int{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	approved := []ApprovedApplication{{JobID: 1, ApplicationText: "Dear ..."}}
	if err := c.PostApplicationApproval(context.Background(), approved); err != nil {
		t.Fatal(err)
	}
}
