package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func profileServer(t *testing.T) (*httptest.Server, *map[string]SearchProfile) {
	t.Helper()
	store := map[string]SearchProfile{}
	active := ""

	mux := http.NewServeMux()
	mux.HandleFunc("/api/profiles", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			profiles := make([]SearchProfile, 0, len(store))
			for _, p := range store {
				profiles = append(profiles, p)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "profiles": profiles})
		case http.MethodPost:
			var p SearchProfile
			_ = json.NewDecoder(r.Body).Decode(&p)
			p.ID = "profile_1"
			store[p.ID] = p
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "profile": p})
		}
	})
	mux.HandleFunc("/api/profiles/active", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			p, ok := store[active]
			if !ok {
				_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "no active profile"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "profile": p})
		case http.MethodPost:
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			active = body["id"]
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
		}
	})
	mux.HandleFunc("/api/profiles/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/api/profiles/"):]
		switch r.Method {
		case http.MethodGet:
			p, ok := store[id]
			if !ok {
				_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "not found"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "profile": p})
		case http.MethodPut:
			var p SearchProfile
			_ = json.NewDecoder(r.Body).Decode(&p)
			p.ID = id
			store[id] = p
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "profile": p})
		case http.MethodDelete:
			delete(store, id)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &store
}

func TestProfileRoundTrip(t *testing.T) {
	srv, store := profileServer(t)
	c := NewBackendClient(srv.URL)
	ctx := context.Background()

	saved, err := c.SaveProfile(ctx, SearchProfile{
		Name:          "Backend roles",
		Keywords:      []string{"golang", "backend"},
		Location:      "Berlin",
		IncludeRemote: true,
		MaxJobs:       10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if saved.ID == "" {
		t.Fatal("save did not assign an ID")
	}

	saved.Location = "Hamburg"
	updated, err := c.SaveProfile(ctx, saved)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Location != "Hamburg" {
		t.Fatalf("update not applied: %+v", updated)
	}

	list, err := c.ListProfiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d profiles, want 1", len(list))
	}

	if err := c.SetActiveProfile(ctx, saved.ID); err != nil {
		t.Fatal(err)
	}
	activeProfile, err := c.ActiveProfile(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if activeProfile.ID != saved.ID {
		t.Fatalf("active profile = %q, want %q", activeProfile.ID, saved.ID)
	}

	if err := c.DeleteProfile(ctx, saved.ID); err != nil {
		t.Fatal(err)
	}
	if len(*store) != 0 {
		t.Fatalf("delete did not remove the profile")
	}
}

func TestRestartParamsFromProfile(t *testing.T) {
	p := SearchProfile{
		ID:            "profile_7",
		Keywords:      []string{"data engineer"},
		Location:      "Munich",
		IncludeRemote: true,
		MaxJobs:       20,
		MaxAgeDays:    14,
	}
	params := p.RestartParams()

	if params["profile"] != "profile_7" {
		t.Fatalf("profile id missing: %v", params)
	}
	if params["location"] != "Munich" || params["max_jobs"] != 20 || params["max_age_days"] != 14 {
		t.Fatalf("unexpected params: %v", params)
	}
	if params["include_remote"] != true {
		t.Fatalf("include_remote not set: %v", params)
	}

	// An empty profile yields an empty bag, not a bag of zero values.
	if got := (SearchProfile{}).RestartParams(); len(got) != 0 {
		t.Fatalf("empty profile produced params: %v", got)
	}
}
