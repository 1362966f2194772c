package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCompleteSendsJSONHint(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"[{\"question\":\"q\",\"answer\":\"a\"}]"}}]}`))
	}))
	defer srv.Close()

	client, err := New(Config{APIKey: "test-key", Endpoint: srv.URL + "/"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	out, err := client.Complete(context.Background(), "extract", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out, `"question":"q"`) {
		t.Fatalf("unexpected output: %q", out)
	}
	if got.Model != defaultModel {
		t.Fatalf("expected default model, got %q", got.Model)
	}
	if got.Temperature != defaultTemperature {
		t.Fatalf("expected default temperature, got %v", got.Temperature)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format, got %+v", got.ResponseFormat)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "extract" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestCompleteOmitsHintForProse(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"An ideal answer."}}]}`))
	}))
	defer srv.Close()

	client, err := New(Config{APIKey: "k", Endpoint: srv.URL, Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := client.Complete(context.Background(), "ideal", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := raw["response_format"]; ok {
		t.Fatalf("response_format must be omitted for prose requests")
	}
	if raw["model"] != "gpt-4o" {
		t.Fatalf("unexpected model: %v", raw["model"])
	}
}

func TestCompleteErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{name: "http status", status: http.StatusTooManyRequests, body: `{"error":{"message":"quota"}}`},
		{name: "api error body", status: http.StatusOK, body: `{"error":{"message":"bad model"}}`},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`},
		{name: "empty content", status: http.StatusOK, body: `{"choices":[{"message":{"content":"  "}}]}`},
		{name: "garbage", status: http.StatusOK, body: `not json`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client, err := New(Config{APIKey: "k", Endpoint: srv.URL})
			if err != nil {
				t.Fatalf("new client: %v", err)
			}

			if _, err := client.Complete(context.Background(), "p", true); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{APIKey: "  "}); err == nil {
		t.Fatal("expected missing api key error")
	}
}
