package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCompleteJoinsTextBlocks(t *testing.T) {
	var got messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "secret" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("anthropic-version") != apiVersion {
			t.Errorf("missing version header")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"score\": 7,"},{"type":"tool_use"},{"type":"text","text":"\"justification\": \"ok\"}"}]}`))
	}))
	defer srv.Close()

	client, err := New(Config{APIKey: "secret", Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	out, err := client.Complete(context.Background(), "score it", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out != "{\"score\": 7,\n\"justification\": \"ok\"}" {
		t.Fatalf("unexpected output: %q", out)
	}
	if got.Model != defaultModel || got.MaxTokens != defaultMaxTokens {
		t.Fatalf("unexpected defaults: %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "score it" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestCompleteErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":{"message":"invalid x-api-key"}}`},
		{name: "error body", status: http.StatusOK, body: `{"error":{"type":"overloaded_error","message":"overloaded"}}`},
		{name: "empty content", status: http.StatusOK, body: `{"content":[]}`},
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

			if _, err := client.Complete(context.Background(), "p", false); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
