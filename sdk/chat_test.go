package lyra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("Authorization = %q, want bearer token-1", got)
		}

		var body struct {
			Message             string `json:"message"`
			ConversationHistory []Turn `json:"conversation_history"`
			IncludeSources      bool   `json:"include_sources"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode chat body: %v", err)
		}
		if body.Message != "what is a lease?" {
			t.Errorf("message = %q", body.Message)
		}
		if !body.IncludeSources {
			t.Error("include_sources = false, want true")
		}
		if len(body.ConversationHistory) != 2 {
			t.Errorf("history length = %d, want 2", len(body.ConversationHistory))
		}

		writeJSON(t, w, http.StatusOK, map[string]any{
			"response": "A lease is a rental contract.",
			"sources": []map[string]string{
				{"title": "Tenancy basics", "category": "housing"},
				{"title": "Glossary"},
			},
		})
	}))
	defer srv.Close()

	client := New(WithBaseURL(srv.URL), WithCredentialStore(&memStore{access: "token-1", refresh: "r"}))

	history := []Turn{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}
	resp, err := client.Chat.SendMessage(context.Background(), "what is a lease?", history)
	if err != nil {
		t.Fatalf("SendMessage error: %v", err)
	}

	if resp.Response != "A lease is a rental contract." {
		t.Errorf("response = %q", resp.Response)
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(resp.Sources))
	}
	if resp.Sources[0].Title != "Tenancy basics" || resp.Sources[0].Content != "housing" {
		t.Errorf("source[0] = %+v", resp.Sources[0])
	}
	if resp.Sources[1].Title != "Glossary" || resp.Sources[1].Content != "" {
		t.Errorf("source[1] = %+v, want empty category to stay empty", resp.Sources[1])
	}
}

func TestSendMessage_NilHistoryEncodesEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Fatalf("decode chat body: %v", err)
		}
		if string(raw["conversation_history"]) != "[]" {
			t.Errorf("conversation_history = %s, want []", raw["conversation_history"])
		}
		writeJSON(t, w, http.StatusOK, map[string]string{"response": "ok"})
	}))
	defer srv.Close()

	client := New(WithBaseURL(srv.URL), WithCredentialStore(&memStore{access: "t", refresh: "r"}))
	if _, err := client.Chat.SendMessage(context.Background(), "hi", nil); err != nil {
		t.Fatalf("SendMessage error: %v", err)
	}
}
