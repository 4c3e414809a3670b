package detector

import (
	"fmt"
	"math"

	"aether/internal/domain/models"
)

// Bollinger band parameters. Fixed by product decision; do not tune without a
// requirement to parameterize them.
const (
	Window     = 20
	Multiplier = 2.5
)

// Detect classifies the latest bar of the series against a trailing
// volatility band. It returns nil when the series is empty or the latest
// close sits within the bands. The function is pure: same series in, same
// classification out.
//
// With fewer than Window bars the band is computed over whatever bars exist.
// A single-bar series yields a zero-width band and therefore no report.
func Detect(series models.BarSeries) *models.AnomalyReport {
	if len(series) == 0 {
		return nil
	}

	series.SortAscending()
	closes := series.Closes()

	window := Window
	if len(closes) < window {
		window = len(closes)
	}
	trailing := closes[len(closes)-window:]

	mean := meanOf(trailing)
	sd := sampleStdDev(trailing, mean)
	upper := mean + Multiplier*sd
	lower := mean - Multiplier*sd

	latest := closes[len(closes)-1]
	switch {
	case latest > upper:
		return &models.AnomalyReport{
			Kind:    models.AnomalySpike,
			Message: fmt.Sprintf("Close price %.2f broke above the upper band %.2f", latest, upper),
		}
	case latest < lower:
		return &models.AnomalyReport{
			Kind:    models.AnomalyDrop,
			Message: fmt.Sprintf("Close price %.2f fell below the lower band %.2f", latest, lower),
		}
	default:
		return nil
	}
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev uses the N-1 denominator, matching conventional rolling-window
// statistics libraries. A window of one has no spread.
func sampleStdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}
