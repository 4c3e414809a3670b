package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aether/pkg/config"
)

func TestNormalizePolygon(t *testing.T) {
	payload := []byte(`{
		"ticker": "X:BTCUSD",
		"resultsCount": 2,
		"results": [
			{"t": 1700000000000, "o": 100.5, "h": 102.0, "l": 99.5, "c": 101.25, "v": 1500},
			{"t": 1700000300000, "o": 101.25, "h": 103.0, "l": 100.0, "c": 102.75, "v": 900}
		]
	}`)

	series, err := normalizePolygon(payload)
	if err != nil {
		t.Fatalf("normalizePolygon failed: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(series))
	}

	first := series[0]
	if got := first.Timestamp; !got.Equal(time.UnixMilli(1700000000000).UTC()) {
		t.Errorf("unexpected timestamp: %v", got)
	}
	if first.Open != 100.5 || first.High != 102.0 || first.Low != 99.5 || first.Close != 101.25 {
		t.Errorf("unexpected OHLC: %+v", first)
	}
	if first.Volume != 1500 {
		t.Errorf("expected volume 1500, got %d", first.Volume)
	}
}

func TestNormalizePolygonRoundTrip(t *testing.T) {
	type bar struct {
		T int64   `json:"t"`
		O float64 `json:"o"`
		H float64 `json:"h"`
		L float64 `json:"l"`
		C float64 `json:"c"`
		V float64 `json:"v"`
	}
	in := []bar{
		{T: 1700000000000, O: 41000.12, H: 41250.99, L: 40895.01, C: 41100.55, V: 312},
		{T: 1700000300000, O: 41100.55, H: 41300.00, L: 41050.25, C: 41280.10, V: 488},
	}
	payload, err := json.Marshal(map[string]any{"results": in})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	series, err := normalizePolygon(payload)
	if err != nil {
		t.Fatalf("normalizePolygon failed: %v", err)
	}
	if len(series) != len(in) {
		t.Fatalf("expected %d bars, got %d", len(in), len(series))
	}
	for i, b := range series {
		if b.Timestamp.UnixMilli() != in[i].T {
			t.Errorf("bar %d: timestamp %d, want %d", i, b.Timestamp.UnixMilli(), in[i].T)
		}
		if b.Open != in[i].O || b.High != in[i].H || b.Low != in[i].L || b.Close != in[i].C {
			t.Errorf("bar %d: OHLC mismatch: %+v", i, b)
		}
		if b.Volume != int64(in[i].V) {
			t.Errorf("bar %d: volume %d, want %d", i, b.Volume, int64(in[i].V))
		}
	}
}

func TestNormalizePolygonEmptyResults(t *testing.T) {
	_, err := normalizePolygon([]byte(`{"results": []}`))
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestNormalizePolygonMissingResults(t *testing.T) {
	_, err := normalizePolygon([]byte(`{"status": "OK"}`))
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestNormalizePolygonMalformedEnvelope(t *testing.T) {
	_, err := normalizePolygon([]byte(`not json`))
	if err == nil {
		t.Fatal("expected decode error")
	}
	if errors.Is(err, ErrNoData) {
		t.Fatalf("malformed envelope must not map to ErrNoData: %v", err)
	}
}

func TestNormalizePolygonDropsMalformedBar(t *testing.T) {
	payload := []byte(`{
		"results": [
			{"t": "not-a-number", "c": 100},
			{"t": 1700000000000, "o": 1, "h": 2, "l": 0.5, "c": 1.5, "v": 10},
			{"t": 0, "c": 200}
		]
	}`)

	series, err := normalizePolygon(payload)
	if err != nil {
		t.Fatalf("normalizePolygon failed: %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("expected 1 bar after dropping malformed entries, got %d", len(series))
	}
	if series[0].Close != 1.5 {
		t.Errorf("kept the wrong bar: %+v", series[0])
	}
}

func TestNormalizePolygonAllBarsMalformed(t *testing.T) {
	payload := []byte(`{"results": [{"t": "x"}, {"t": -5, "c": 1}]}`)
	_, err := normalizePolygon(payload)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData when nothing survives, got %v", err)
	}
}

func TestPolygonFetch(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("apiKey")
		fmt.Fprint(w, `{"results": [{"t": 1700000000000, "o": 1, "h": 2, "l": 0.5, "c": 1.5, "v": 10}]}`)
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.Provider.PolygonBaseURL = srv.URL
	cfg.Provider.PolygonAPIKey = "test-key"
	p := NewPolygon(cfg)

	from := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	series, err := p.Fetch(context.Background(), "X:BTCUSD", from, to)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(series))
	}
	want := "/v2/aggs/ticker/X:BTCUSD/range/5/minute/2026-08-27/2026-08-29"
	if gotPath != want {
		t.Errorf("request path %q, want %q", gotPath, want)
	}
	if gotKey != "test-key" {
		t.Errorf("apiKey query %q, want %q", gotKey, "test-key")
	}
}

func TestPolygonFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.Provider.PolygonBaseURL = srv.URL
	p := NewPolygon(cfg)

	_, err := p.Fetch(context.Background(), "X:BTCUSD", time.Now().Add(-time.Hour), time.Now())
	if err == nil {
		t.Fatal("expected error on non-2xx status")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fe.Vendor != "polygon" {
		t.Errorf("vendor %q, want polygon", fe.Vendor)
	}
	if !strings.Contains(err.Error(), "polygon") {
		t.Errorf("error message should name the vendor: %v", err)
	}
}
