package app

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// SearchProfile is a saved set of hunt parameters, managed by the backend's
// profile store and edited through the TUI wizard.
type SearchProfile struct {
	ID            string   `json:"id,omitempty"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Keywords      []string `json:"keywords"`
	Location      string   `json:"location,omitempty"`
	IncludeRemote bool     `json:"include_remote"`
	MaxJobs       int      `json:"max_jobs,omitempty"`
	MaxAgeDays    int      `json:"max_age_days,omitempty"`
	IsTemplate    bool     `json:"is_template,omitempty"`
}

// RestartParams flattens the profile into the parameter bag a restart
// command carries.
func (p SearchProfile) RestartParams() map[string]any {
	params := map[string]any{}
	if len(p.Keywords) > 0 {
		params["keywords"] = p.Keywords
	}
	if p.Location != "" {
		params["location"] = p.Location
	}
	if p.IncludeRemote {
		params["include_remote"] = true
	}
	if p.MaxJobs > 0 {
		params["max_jobs"] = p.MaxJobs
	}
	if p.MaxAgeDays > 0 {
		params["max_age_days"] = p.MaxAgeDays
	}
	if p.ID != "" {
		params["profile"] = p.ID
	}
	return params
}

type profileEnvelope struct {
	Success bool          `json:"success"`
	Profile SearchProfile `json:"profile"`
	Error   string        `json:"error,omitempty"`
}

type profileListEnvelope struct {
	Success  bool            `json:"success"`
	Profiles []SearchProfile `json:"profiles"`
	Error    string          `json:"error,omitempty"`
}

// ListProfiles returns all saved search profiles.
func (c *BackendClient) ListProfiles(ctx context.Context) ([]SearchProfile, error) {
	var resp profileListEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/profiles", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("list profiles: %s", orUnknown(resp.Error))
	}
	return resp.Profiles, nil
}

// GetProfile fetches one profile by ID.
func (c *BackendClient) GetProfile(ctx context.Context, id string) (SearchProfile, error) {
	var resp profileEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/profiles/"+url.PathEscape(id), nil, &resp); err != nil {
		return SearchProfile{}, err
	}
	if !resp.Success {
		return SearchProfile{}, fmt.Errorf("get profile %s: %s", id, orUnknown(resp.Error))
	}
	return resp.Profile, nil
}

// SaveProfile creates the profile (or updates it when it already carries an
// ID) and returns the stored version, ID included.
func (c *BackendClient) SaveProfile(ctx context.Context, profile SearchProfile) (SearchProfile, error) {
	method := http.MethodPost
	path := "/api/profiles"
	if profile.ID != "" {
		method = http.MethodPut
		path = "/api/profiles/" + url.PathEscape(profile.ID)
	}
	var resp profileEnvelope
	if err := c.do(ctx, method, path, profile, &resp); err != nil {
		return SearchProfile{}, err
	}
	if !resp.Success {
		return SearchProfile{}, fmt.Errorf("save profile: %s", orUnknown(resp.Error))
	}
	return resp.Profile, nil
}

// DeleteProfile removes a profile by ID.
func (c *BackendClient) DeleteProfile(ctx context.Context, id string) error {
	var resp commandResponse
	if err := c.do(ctx, http.MethodDelete, "/api/profiles/"+url.PathEscape(id), nil, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("delete profile %s: %s", id, orUnknown(resp.Error))
	}
	return nil
}

// ActiveProfile returns the profile the backend currently hunts with.
func (c *BackendClient) ActiveProfile(ctx context.Context) (SearchProfile, error) {
	var resp profileEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/profiles/active", nil, &resp); err != nil {
		return SearchProfile{}, err
	}
	if !resp.Success {
		return SearchProfile{}, fmt.Errorf("active profile: %s", orUnknown(resp.Error))
	}
	return resp.Profile, nil
}

// SetActiveProfile marks a profile as the active one.
func (c *BackendClient) SetActiveProfile(ctx context.Context, id string) error {
	body := map[string]string{"id": id}
	var resp commandResponse
	if err := c.do(ctx, http.MethodPost, "/api/profiles/active", body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("set active profile %s: %s", id, orUnknown(resp.Error))
	}
	return nil
}

func orUnknown(msg string) string {
	if msg == "" {
		return "unknown error"
	}
	return msg
}
