package models

import (
	"sort"
	"time"
)

// Bar represents a single OHLCV observation for a fixed interval.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// BarSeries is a chronologically orderable collection of bars. Providers may
// return bars in any order; SortAscending must be called before any
// window-based statistic is read.
type BarSeries []Bar

// SortAscending orders the series by timestamp, oldest first.
func (s BarSeries) SortAscending() {
	sort.Slice(s, func(i, j int) bool {
		return s[i].Timestamp.Before(s[j].Timestamp)
	})
}

// Latest returns the most recent bar without mutating the series order.
func (s BarSeries) Latest() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	latest := s[0]
	for _, b := range s[1:] {
		if b.Timestamp.After(latest.Timestamp) {
			latest = b
		}
	}
	return latest, true
}

// Closes extracts close prices in the current series order.
func (s BarSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, b := range s {
		closes[i] = b.Close
	}
	return closes
}

// Trade is a single trade event from the live stream path.
type Trade struct {
	Pair      string  `json:"pair"`
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	Timestamp int64   `json:"t"` // ms
}
