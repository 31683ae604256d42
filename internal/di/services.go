package di

import (
	"fmt"

	"github.com/aristath/eventscope/internal/clients/attention"
	"github.com/aristath/eventscope/internal/config"
	"github.com/aristath/eventscope/internal/marketdata"
	"github.com/aristath/eventscope/internal/modules/analysis"
	"github.com/aristath/eventscope/internal/modules/eventwindow"
	"github.com/aristath/eventscope/internal/modules/holding"
	"github.com/rs/zerolog"
)

// InitializeServices creates the store, the attention client and the
// analysis session on top of an initialized container
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.MarketStore = marketdata.NewStore(container.MarketDB.Conn(), log)

	container.AttentionClient = attention.NewClient(
		cfg.Attention.BaseURL,
		log,
		attention.WithTimeout(cfg.Attention.Timeout),
		attention.WithRateLimit(cfg.Attention.RateLimit),
	)

	detector, err := eventwindow.NewDetector(cfg.DetectorConfig())
	if err != nil {
		return fmt.Errorf("failed to create event window detector: %w", err)
	}
	container.Detector = detector
	container.Optimizer = holding.NewOptimizer(
		cfg.HoldingCoverage(),
		holding.WithMaxOffset(cfg.Analysis.MaxOffset),
	)

	container.AnalysisService = analysis.NewService(
		container.MarketStore,
		container.AttentionClient,
		container.Detector,
		container.Optimizer,
		cfg.Analysis.Benchmark,
		log,
	)

	log.Info().
		Str("benchmark", cfg.Analysis.Benchmark).
		Str("coverage", container.Optimizer.Coverage().String()).
		Int("max_offset", container.Optimizer.MaxOffset()).
		Msg("Analysis services initialized")

	return nil
}
