//go:build wireinject
// +build wireinject

package di

import (
	"aether/pkg/config"
	"aether/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient infrastructure
		ProvideLogger,
		ProvideMetrics,

		// Analysis pipeline
		ProvideBarProvider,
		ProvideStrategist,
		ProvideAnalyzer,

		// Trade relay
		ProvideMarketStream,
		ProvideTradeSinks,
		ProvideSinkFanout,
		ProvideTradeRelay,

		// HTTP surface
		ProvideAnalysisHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
