package di

import (
	"testing"
	"time"

	"github.com/aristath/eventscope/internal/config"
	"github.com/aristath/eventscope/internal/database"
	"github.com/aristath/eventscope/internal/modules/analysis"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DataDir:      t.TempDir(),
		DatabaseFile: "market.db",
		LogLevel:     "info",
		Port:         8080,
		Attention: config.AttentionConfig{
			BaseURL:   "http://localhost:9100",
			Timeout:   time.Second,
			RateLimit: 1,
		},
		Analysis: config.AnalysisConfig{
			Benchmark:  "上证综指",
			Coverage:   "partial",
			LeadDays:   30,
			SpanDays:   60,
			Multiplier: 3,
			MaxBefore:  30,
			MaxAfter:   30,
			MaxOffset:  90,
		},
	}
}

func TestWire(t *testing.T) {
	cfg := testConfig(t)

	container, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	assert.NotNil(t, container.MarketDB)
	assert.NotNil(t, container.MarketStore)
	assert.NotNil(t, container.AttentionClient)
	assert.NotNil(t, container.Detector)
	assert.NotNil(t, container.Optimizer)
	require.NotNil(t, container.AnalysisService)

	assert.Equal(t, database.ProfileStandard, container.MarketDB.Profile())
	assert.Equal(t, "partial", container.Optimizer.Coverage().String())
	assert.Equal(t, 90, container.Optimizer.MaxOffset())
	assert.Equal(t, analysis.StateUnfit, container.AnalysisService.State())
	assert.Equal(t, "上证综指", container.AnalysisService.Benchmark())
}

func TestWire_InvalidDetectorConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Analysis.SpanDays = 0

	_, err := Wire(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestInitializeDatabases_ReadOnly(t *testing.T) {
	cfg := testConfig(t)

	// create the schema first
	container, err := InitializeDatabases(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, container.Close())

	cfg.ReadOnly = true
	container, err = InitializeDatabases(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()
	assert.Equal(t, database.ProfileReadOnly, container.MarketDB.Profile())
}

func TestContainerCloseNil(t *testing.T) {
	var c *Container
	assert.NoError(t, c.Close())
}
