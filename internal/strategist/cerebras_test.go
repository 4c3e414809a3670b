package strategist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aether/internal/domain/models"
	"aether/pkg/config"
	applogger "aether/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func testDetails() *models.AnomalyDetails {
	return &models.AnomalyDetails{
		Symbol:    "X:BTCUSD",
		Type:      "Spike",
		Message:   "Close price 200.00 broke above the upper band 105.20",
		Timestamp: time.Date(2026, 8, 28, 16, 0, 0, 0, time.UTC),
	}
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := &config.Config{}
	cfg.Strategist.BaseURL = baseURL
	cfg.Strategist.APIKey = "test-key"
	cfg.Strategist.Model = "llama3.1-8b"
	return New(cfg, testLogger(t))
}

func TestAnalyzeReturnsNarrative(t *testing.T) {
	var gotModel string
	var gotMessages int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotModel = req.Model
		gotMessages = len(req.Messages)
		for _, m := range req.Messages {
			if m.Role == "user" && !strings.Contains(m.Content, "X:BTCUSD") {
				t.Errorf("user prompt does not carry the symbol: %q", m.Content)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "cmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Event: breakout."}}]
		}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	narrative := c.Analyze(context.Background(), testDetails())
	if narrative != "Event: breakout." {
		t.Errorf("narrative %q, want completion content", narrative)
	}
	if gotModel != "llama3.1-8b" {
		t.Errorf("model %q, want llama3.1-8b", gotModel)
	}
	if gotMessages != 2 {
		t.Errorf("expected system + user messages, got %d", gotMessages)
	}
	if IsUnavailableNarrative(narrative) {
		t.Error("successful completion flagged as unavailable")
	}
}

func TestAnalyzeServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "invalid request"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	narrative := c.Analyze(context.Background(), testDetails())
	if !IsUnavailableNarrative(narrative) {
		t.Fatalf("expected a placeholder narrative, got %q", narrative)
	}
}

func TestAnalyzeEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "cmpl-2", "object": "chat.completion", "choices": []}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	narrative := c.Analyze(context.Background(), testDetails())
	if !IsUnavailableNarrative(narrative) {
		t.Fatalf("expected a placeholder narrative, got %q", narrative)
	}
}

func TestAnalyzeUnreachableService(t *testing.T) {
	// Closed server: the dial fails immediately.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := newTestClient(t, srv.URL)
	narrative := c.Analyze(context.Background(), testDetails())
	if !IsUnavailableNarrative(narrative) {
		t.Fatalf("expected a placeholder narrative, got %q", narrative)
	}
}

func TestIsUnavailableNarrative(t *testing.T) {
	if !IsUnavailableNarrative(unavailablePrefix + "timeout") {
		t.Error("prefix-marked narrative not recognized")
	}
	if IsUnavailableNarrative("Event: breakout.") {
		t.Error("regular narrative misclassified")
	}
}
