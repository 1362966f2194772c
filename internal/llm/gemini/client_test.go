package gemini

import (
	"context"
	"net/http"
	"testing"

	"google.golang.org/genai"
)

type fakeModels struct {
	calls []fakeCall
	resp  *genai.GenerateContentResponse
	err   error
}

type fakeCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls = append(f.calls, fakeCall{model: model, contents: contents, config: config})
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func TestCompleteSetsJSONMIMEType(t *testing.T) {
	models := &fakeModels{resp: textResponse(`{"score": 9}`)}
	g := &Generator{models: models, modelName: "gemini-pro"}

	out, err := g.Complete(context.Background(), "score", true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != `{"score": 9}` {
		t.Fatalf("unexpected output: %q", out)
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(models.calls))
	}
	call := models.calls[0]
	if call.model != "gemini-pro" {
		t.Fatalf("unexpected model: %q", call.model)
	}
	if call.config == nil || call.config.ResponseMIMEType != jsonMIMEType {
		t.Fatalf("expected json mime type, got %+v", call.config)
	}
	if got := call.contents[0].Parts[0].Text; got != "score" {
		t.Fatalf("unexpected prompt: %q", got)
	}
}

func TestCompleteProseHasNoConfig(t *testing.T) {
	models := &fakeModels{resp: textResponse("First paragraph.", "  ", "Second paragraph.")}
	g := &Generator{models: models, modelName: "gemini-pro"}

	out, err := g.Complete(context.Background(), "ideal", false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "First paragraph.\nSecond paragraph." {
		t.Fatalf("unexpected output: %q", out)
	}
	if models.calls[0].config != nil {
		t.Fatalf("expected nil config for prose request")
	}
}

func TestCompleteDoesNotRetry(t *testing.T) {
	models := &fakeModels{err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}}
	g := &Generator{models: models, modelName: "gemini-pro"}

	if _, err := g.Complete(context.Background(), "p", true); err == nil {
		t.Fatal("expected error")
	}
	if len(models.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(models.calls))
	}
}

func TestCompleteEmptyResponse(t *testing.T) {
	g := &Generator{models: &fakeModels{resp: &genai.GenerateContentResponse{}}, modelName: "m"}
	if _, err := g.Complete(context.Background(), "p", false); err == nil {
		t.Fatal("expected empty response error")
	}
}

func TestNilGenerator(t *testing.T) {
	var g *Generator
	if _, err := g.Complete(context.Background(), "p", false); err == nil {
		t.Fatal("expected error for nil generator")
	}
	if g.Model() != "" {
		t.Fatal("expected empty model for nil generator")
	}
}
