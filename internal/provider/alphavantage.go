package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"aether/internal/domain/models"
	"aether/pkg/config"
	xhttp "aether/pkg/http"
	"aether/pkg/util"
)

const avSeriesKey = "Time Series (5min)"

// AlphaVantage fetches the intraday time series from the Alpha Vantage API.
// Every numeric field arrives as text and is parsed during normalization.
type AlphaVantage struct {
	baseURL string
	apiKey  string
	client  *xhttp.Client
}

// NewAlphaVantage creates an Alpha Vantage bar provider.
func NewAlphaVantage(cfg *config.Config) *AlphaVantage {
	timeout := cfg.Provider.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AlphaVantage{
		baseURL: cfg.Provider.AlphaVantageBaseURL,
		apiKey:  cfg.Provider.AlphaVantageAPIKey,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

func (a *AlphaVantage) Name() string { return "alphavantage" }

type avBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// Fetch retrieves the intraday series. Alpha Vantage has no range parameters
// for this endpoint; the from/to window only documents the caller's intent.
func (a *AlphaVantage) Fetch(ctx context.Context, symbol string, from, to time.Time) (models.BarSeries, error) {
	var raw []byte
	err := a.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    a.baseURL + "/query",
		QueryParams: map[string][]string{
			"function": {"TIME_SERIES_INTRADAY"},
			"symbol":   {symbol},
			"interval": {"5min"},
			"apikey":   {a.apiKey},
		},
	}, &raw)
	if err != nil {
		return nil, &FetchError{Vendor: a.Name(), Err: err}
	}

	series, err := normalizeAlphaVantage(raw)
	if err != nil {
		return nil, &FetchError{Vendor: a.Name(), Err: err}
	}
	return series, nil
}

// normalizeAlphaVantage converts the string-typed intraday payload into a
// BarSeries. Bars with an unparsable timestamp or numeric field are dropped;
// the series fails only when nothing usable remains.
func normalizeAlphaVantage(payload []byte) (models.BarSeries, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	rawSeries, ok := envelope[avSeriesKey]
	if !ok {
		return nil, fmt.Errorf("missing %q field: %w", avSeriesKey, ErrNoData)
	}

	var entries map[string]avBar
	if err := json.Unmarshal(rawSeries, &entries); err != nil {
		return nil, fmt.Errorf("decode time series: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrNoData
	}

	series := make(models.BarSeries, 0, len(entries))
	for ts, e := range entries {
		t, ok := util.ParseTime(ts)
		if !ok {
			continue
		}
		open, err1 := strconv.ParseFloat(e.Open, 64)
		high, err2 := strconv.ParseFloat(e.High, 64)
		low, err3 := strconv.ParseFloat(e.Low, 64)
		closeP, err4 := strconv.ParseFloat(e.Close, 64)
		volume, err5 := strconv.ParseInt(e.Volume, 10, 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			continue
		}
		series = append(series, models.Bar{
			Timestamp: t,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closeP,
			Volume:    volume,
		})
	}
	if len(series) == 0 {
		return nil, ErrNoData
	}
	return series, nil
}
