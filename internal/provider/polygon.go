package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"aether/internal/domain/models"
	"aether/pkg/config"
	xhttp "aether/pkg/http"
	"aether/pkg/util"
)

// Polygon fetches 5-minute aggregates from the Polygon.io REST API and
// normalizes them into a BarSeries.
type Polygon struct {
	baseURL string
	apiKey  string
	client  *xhttp.Client
}

// NewPolygon creates a Polygon bar provider.
func NewPolygon(cfg *config.Config) *Polygon {
	timeout := cfg.Provider.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Polygon{
		baseURL: cfg.Provider.PolygonBaseURL,
		apiKey:  cfg.Provider.PolygonAPIKey,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

func (p *Polygon) Name() string { return "polygon" }

// polygonAggs is the envelope of the aggregates endpoint. Results are kept
// raw so one malformed bar invalidates only itself.
type polygonAggs struct {
	Results []json.RawMessage `json:"results"`
}

type polygonBar struct {
	T int64   `json:"t"` // epoch millis
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

// Fetch retrieves aggregates for the window and normalizes them.
func (p *Polygon) Fetch(ctx context.Context, symbol string, from, to time.Time) (models.BarSeries, error) {
	url := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/5/minute/%s/%s",
		p.baseURL, symbol, util.FormatDate(from), util.FormatDate(to))

	var raw []byte
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    url,
		QueryParams: map[string][]string{
			"adjusted": {"true"},
			"sort":     {"asc"},
			"limit":    {"5000"},
			"apiKey":   {p.apiKey},
		},
	}, &raw)
	if err != nil {
		return nil, &FetchError{Vendor: p.Name(), Err: err}
	}

	series, err := normalizePolygon(raw)
	if err != nil {
		return nil, &FetchError{Vendor: p.Name(), Err: err}
	}
	return series, nil
}

// normalizePolygon converts a raw aggregates payload into a BarSeries. It is
// a pure transform: no I/O, unknown fields dropped, a bar that fails numeric
// decoding is skipped rather than failing the series.
func normalizePolygon(payload []byte) (models.BarSeries, error) {
	var envelope polygonAggs
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("decode aggregates: %w", err)
	}
	if envelope.Results == nil {
		return nil, fmt.Errorf("missing results field: %w", ErrNoData)
	}
	if len(envelope.Results) == 0 {
		return nil, ErrNoData
	}

	series := make(models.BarSeries, 0, len(envelope.Results))
	for _, raw := range envelope.Results {
		var b polygonBar
		if err := json.Unmarshal(raw, &b); err != nil {
			continue
		}
		if b.T <= 0 {
			continue
		}
		series = append(series, models.Bar{
			Timestamp: time.UnixMilli(b.T).UTC(),
			Open:      b.O,
			High:      b.H,
			Low:       b.L,
			Close:     b.C,
			Volume:    int64(b.V),
		})
	}
	if len(series) == 0 {
		return nil, ErrNoData
	}
	return series, nil
}
