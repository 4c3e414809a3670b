package usecase

import (
	"context"
	"time"

	"aether/internal/detector"
	"aether/internal/domain/models"
	drepo "aether/internal/domain/repository"
	applogger "aether/pkg/logger"
	"aether/pkg/util"
)

const barInterval = 5 * time.Minute

// Analyzer sequences one analysis run: fetch bars, detect an anomaly, and
// conditionally obtain a strategic narrative. It holds no state between
// invocations; every run starts from a fresh fetch.
type Analyzer struct {
	provider   drepo.BarProvider
	strategist drepo.Strategist
	metrics    drepo.Metrics
	logger     *applogger.Logger
	lookback   time.Duration
	now        func() time.Time
}

// NewAnalyzer creates an Analyzer instance.
func NewAnalyzer(
	provider drepo.BarProvider,
	strategist drepo.Strategist,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	lookback time.Duration,
) *Analyzer {
	if lookback <= 0 {
		lookback = 48 * time.Hour
	}
	return &Analyzer{
		provider:   provider,
		strategist: strategist,
		metrics:    metrics,
		logger:     logger,
		lookback:   lookback,
		now:        time.Now,
	}
}

// RunAnalysis produces one of three terminal outcomes: fetch failed, no
// anomaly, or anomaly detected with a narrative embedded unconditionally.
// Provider and strategist failures are absorbed here; the result is always a
// well-formed response, never an error.
func (a *Analyzer) RunAnalysis(ctx context.Context, symbol string) *models.AnalysisResult {
	start := a.now()
	to := start.UTC()
	from, to := util.AlignFromTo(to.Add(-a.lookback), to, barInterval)

	series, err := a.provider.Fetch(ctx, symbol, from, to)
	if err != nil {
		a.logger.Warn("market data fetch failed",
			applogger.String("symbol", symbol),
			applogger.String("vendor", a.provider.Name()),
			applogger.Error(err),
		)
		a.metrics.RecordError("fetch")
		a.metrics.RecordAnalysis("fetch_failed")
		return &models.AnalysisResult{
			Status: models.StatusFetchFailed,
			Error:  "could not fetch market data",
		}
	}

	latest, ok := series.Latest()
	if !ok {
		// A provider returning an empty series with a nil error is
		// indistinguishable from a failed fetch for the caller.
		a.logger.Warn("market data fetch returned no bars",
			applogger.String("symbol", symbol),
			applogger.String("vendor", a.provider.Name()),
		)
		a.metrics.RecordError("fetch")
		a.metrics.RecordAnalysis("fetch_failed")
		return &models.AnalysisResult{
			Status: models.StatusFetchFailed,
			Error:  "could not fetch market data",
		}
	}

	report := detector.Detect(series)

	if report == nil {
		a.metrics.RecordAnalysis("no_anomaly")
		a.metrics.RecordLatency("analysis", time.Since(start).Seconds())
		return &models.AnalysisResult{
			Status: models.StatusNoAnomaly,
			LatestData: &models.LatestData{
				Symbol:     symbol,
				Timestamp:  latest.Timestamp,
				ClosePrice: latest.Close,
			},
		}
	}

	details := &models.AnomalyDetails{
		Symbol:    symbol,
		Type:      report.Kind,
		Message:   report.Message,
		Timestamp: latest.Timestamp,
	}
	a.logger.Info("anomaly detected",
		applogger.String("symbol", symbol),
		applogger.String("kind", string(report.Kind)),
		applogger.String("message", report.Message),
	)

	narrative := a.strategist.Analyze(ctx, details)

	a.metrics.RecordAnalysis("anomaly")
	a.metrics.RecordLatency("analysis", time.Since(start).Seconds())
	return &models.AnalysisResult{
		Status:            models.StatusAnomaly,
		RawAnomalyDetails: details,
		StrategicAnalysis: narrative,
	}
}
