package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"aether/internal/handler/api"
	"aether/internal/usecase"
	"aether/pkg/config"
	xhttp "aether/pkg/http"
	applogger "aether/pkg/logger"
)

// App encapsulates the entire application lifecycle: the HTTP analysis
// surface and the optional live trade relay.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	handler    *api.AnalysisHandler
	relay      *usecase.TradeRelay
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler *api.AnalysisHandler,
	relay *usecase.TradeRelay,
) *App {
	return &App{
		cfg:     cfg,
		logger:  l,
		handler: handler,
		relay:   relay,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(a.cfg.Metrics.Enabled, a.cfg.Metrics.Path),
	)

	if a.cfg.Stream.Enabled && a.relay != nil {
		go func() {
			if err := a.relay.Start(ctx); err != nil {
				a.logger.Error("trade relay error", applogger.Error(err))
			}
		}()
		a.logger.Info("trade relay started",
			applogger.String("pair", a.cfg.Stream.Pair),
			applogger.Strings("sinks", a.cfg.Stream.Sinks),
		)
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("analysis server listening",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("symbol", a.cfg.Provider.Symbol),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.cfg.Stream.Enabled && a.relay != nil {
		if err := a.relay.Shutdown(ctx); err != nil {
			a.logger.Warn("trade relay stop error", applogger.Error(err))
		}
		a.relay.Fanout().Close()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		return err
	}

	a.logger.Info("shutdown complete")
	return nil
}
