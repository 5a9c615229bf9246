package lyra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProfile_SaveAndGet(t *testing.T) {
	var saved map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/profile" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		switch r.Method {
		case http.MethodPost:
			if err := json.NewDecoder(r.Body).Decode(&saved); err != nil {
				t.Fatalf("decode profile: %v", err)
			}
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			writeJSON(t, w, http.StatusOK, saved)
		}
	}))
	defer srv.Close()

	client := New(WithBaseURL(srv.URL), WithCredentialStore(&memStore{access: "t", refresh: "r"}))
	ctx := context.Background()

	in := map[string]any{"display_name": "Alice", "focus": "contracts"}
	if err := client.Profile.Save(ctx, in); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	out, err := client.Profile.Get(ctx)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if out["display_name"] != "Alice" || out["focus"] != "contracts" {
		t.Errorf("profile = %v, want round-tripped fields", out)
	}
}
