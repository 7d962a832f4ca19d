package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genai"
)

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type modelCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

type fakeModels struct {
	mu    sync.Mutex
	calls []modelCall
	queue []fakeResponse
}

func (f *fakeModels) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeResponse{resp: resp, err: err})
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, modelCall{model: model, contents: contents, config: config})
	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	return res.resp, res.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func newTestGenerator(models contentModel, maxRetries int, log *zap.Logger) (*Generator, *[]time.Duration) {
	var waits []time.Duration
	g := newGenerator(models, "gemini-pro", maxRetries, log)
	g.wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return g, &waits
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	models.enqueue(textResponse("retry ok"), nil)

	g, waits := newTestGenerator(models, 2, zap.New(core))

	output, err := g.GenerateContent(context.Background(), "system", "message")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}

	if len(*waits) != 1 || (*waits)[0] != baseRetryDelay {
		t.Fatalf("unexpected waits: %v", *waits)
	}

	for _, call := range models.calls {
		if call.model != "gemini-pro" {
			t.Fatalf("unexpected model %q", call.model)
		}
		if call.config == nil || call.config.SystemInstruction == nil {
			t.Fatalf("expected system instruction to be set")
		}
		if got := call.config.SystemInstruction.Parts[0].Text; got != "system" {
			t.Fatalf("unexpected system instruction: %q", got)
		}
		if got := call.contents[0].Parts[0].Text; got != "message" {
			t.Fatalf("unexpected prompt: %q", got)
		}
	}

	entries := observed.FilterMessage("gemini request failed, retrying").All()
	if len(entries) != 1 {
		t.Fatalf("expected one retry log entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["ai_model"] != "gemini-pro" {
		t.Fatalf("expected model field on retry log: %v", entries[0].ContextMap())
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	models := &fakeModels{}
	tempErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	models.enqueue(nil, tempErr)
	models.enqueue(nil, tempErr)

	g, waits := newTestGenerator(models, 2, zap.NewNop())

	_, err := g.GenerateContent(context.Background(), "sys", "msg")
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected wrapped api error, got %v", err)
	}

	if len(models.calls) != 2 || len(*waits) != 1 {
		t.Fatalf("expected 2 calls and 1 wait, got %d and %d", len(models.calls), len(*waits))
	}
}

func TestGeneratorQuotaDelays(t *testing.T) {
	t.Run("long hint is not retried", func(t *testing.T) {
		models := &fakeModels{}
		models.enqueue(nil, genai.APIError{
			Code:    http.StatusTooManyRequests,
			Status:  "RESOURCE_EXHAUSTED",
			Message: "quota exhausted, retry after 60 seconds",
		})

		g, _ := newTestGenerator(models, 3, zap.NewNop())

		if _, err := g.GenerateContent(context.Background(), "sys", "msg"); err == nil {
			t.Fatal("expected error when quota delay too long")
		}
		if len(models.calls) != 1 {
			t.Fatalf("expected single call, got %d", len(models.calls))
		}
	})

	t.Run("short hint is honoured", func(t *testing.T) {
		models := &fakeModels{}
		models.enqueue(nil, genai.APIError{
			Code:    http.StatusTooManyRequests,
			Message: "Please retry in 1.5s.",
		})
		models.enqueue(textResponse("ok"), nil)

		g, waits := newTestGenerator(models, 3, zap.NewNop())

		if _, err := g.GenerateContent(context.Background(), "", "msg"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(*waits) != 1 || (*waits)[0] != 1500*time.Millisecond {
			t.Fatalf("unexpected waits: %v", *waits)
		}
		if models.calls[0].config != nil {
			t.Fatalf("expected no config without system instruction")
		}
	})
}

func TestGeneratorDoesNotRetryClientErrors(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	g, waits := newTestGenerator(models, 3, zap.NewNop())

	if _, err := g.GenerateContent(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected error")
	}
	if len(models.calls) != 1 || len(*waits) != 0 {
		t.Fatalf("expected no retries, got %d calls", len(models.calls))
	}
}

func TestGeneratorRejectsEmptyInputAndOutput(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(textResponse("   "), nil)

	g, _ := newTestGenerator(models, 1, zap.NewNop())

	if _, err := g.GenerateContent(context.Background(), "sys", "  "); err == nil {
		t.Fatal("expected error for empty prompt")
	}

	if _, err := g.GenerateContent(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected error for empty response")
	}

	var nilGenerator *Generator
	if _, err := nilGenerator.GenerateContent(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected error for nil generator")
	}
}

func TestNewGeneratorDefaults(t *testing.T) {
	g := newGenerator(&fakeModels{}, " ", 0, nil)
	if g.Model() != defaultModel || g.maxRetries != defaultMaxRetries {
		t.Fatalf("unexpected defaults: model=%q retries=%d", g.Model(), g.maxRetries)
	}

	if _, err := NewGenerator(context.Background(), " ", "", 0, nil); err == nil {
		t.Fatal("expected error without api key")
	}
}
