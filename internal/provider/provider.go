package provider

import (
	"errors"
	"fmt"

	"aether/internal/domain/repository"
	"aether/pkg/config"
)

// ErrNoData marks a well-formed vendor response that carries zero bars.
var ErrNoData = errors.New("provider: no data in response")

// FetchError wraps any failure to obtain a usable bar series from a vendor.
type FetchError struct {
	Vendor string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch: %v", e.Vendor, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ForVendor returns the adapter selected by configuration.
func ForVendor(cfg *config.Config) (repository.BarProvider, error) {
	switch cfg.Provider.Vendor {
	case "polygon":
		return NewPolygon(cfg), nil
	case "alphavantage":
		return NewAlphaVantage(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider vendor: %s", cfg.Provider.Vendor)
	}
}
