package app

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Draft is a generated application letter held by the backend's draft store.
type Draft struct {
	ID         int       `json:"id"`
	Company    string    `json:"company"`
	Title      string    `json:"title"`
	LetterText string    `json:"letter_text"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

type draftListEnvelope struct {
	Success bool    `json:"success"`
	Drafts  []Draft `json:"drafts"`
	Error   string  `json:"error,omitempty"`
}

type draftEnvelope struct {
	Success bool   `json:"success"`
	Draft   Draft  `json:"draft"`
	Error   string `json:"error,omitempty"`
}

// ExportRequest names the drafts to export as PDFs and where to put them.
type ExportRequest struct {
	IDs        []int  `json:"ids"`
	ExportPath string `json:"export_path,omitempty"`
}

type exportResponse struct {
	Success  bool     `json:"success"`
	Exported []string `json:"exported"`
	Error    string   `json:"error,omitempty"`
}

// ListDrafts returns stored drafts, newest first.
func (c *BackendClient) ListDrafts(ctx context.Context, limit int) ([]Draft, error) {
	path := "/drafts"
	if limit > 0 {
		path = fmt.Sprintf("/drafts?limit=%d", limit)
	}
	var resp draftListEnvelope
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("list drafts: %s", orUnknown(resp.Error))
	}
	return resp.Drafts, nil
}

// GetDraft fetches one draft by ID.
func (c *BackendClient) GetDraft(ctx context.Context, id int) (Draft, error) {
	var resp draftEnvelope
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/drafts/%d", id), nil, &resp); err != nil {
		return Draft{}, err
	}
	if !resp.Success {
		return Draft{}, fmt.Errorf("get draft %d: %s", id, orUnknown(resp.Error))
	}
	return resp.Draft, nil
}

// DeleteDraft removes a draft by ID.
func (c *BackendClient) DeleteDraft(ctx context.Context, id int) error {
	var resp commandResponse
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/drafts/%d", id), nil, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("delete draft %d: %s", id, orUnknown(resp.Error))
	}
	return nil
}

// ExportDrafts asks the backend to render the named drafts to PDF and
// returns the written file paths.
func (c *BackendClient) ExportDrafts(ctx context.Context, req ExportRequest) ([]string, error) {
	var resp exportResponse
	if err := c.do(ctx, http.MethodPost, "/drafts/export", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("export drafts: %s", orUnknown(resp.Error))
	}
	return resp.Exported, nil
}

// PostJobSelection forwards the user's picks from the interactive hunt to
// the backend, which consumes them exactly once.
func (c *BackendClient) PostJobSelection(ctx context.Context, jobIDs []int) error {
	body := map[string]any{
		"type":             "job_selection",
		"selected_job_ids": jobIDs,
	}
	return c.do(ctx, http.MethodPost, "/job-selection", body, nil)
}

// ApprovedApplication pairs a job with its approved letter text.
type ApprovedApplication struct {
	JobID           int    `json:"job_id"`
	ApplicationText string `json:"application_text"`
}

// PostApplicationApproval forwards the user's approval decisions.
func (c *BackendClient) PostApplicationApproval(ctx context.Context, approved []ApprovedApplication) error {
	body := map[string]any{
		"type":                  "application_approval",
		"approved_applications": approved,
	}
	return c.do(ctx, http.MethodPost, "/application-approval", body, nil)
}
