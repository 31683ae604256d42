package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/eventscope/internal/config"
	"github.com/aristath/eventscope/internal/database"
	"github.com/aristath/eventscope/internal/marketdata"
	testingpkg "github.com/aristath/eventscope/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMarket(t *testing.T, cfg *config.Config) {
	t.Helper()
	db, err := database.New(database.Config{Path: cfg.DatabasePath(), Profile: database.ProfileStandard, Name: "market"})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	store := marketdata.NewStore(db.Conn(), zerolog.Nop())
	f := testingpkg.NewMarketFixture()
	require.NoError(t, store.ReplaceIndex(f.Indices))
	require.NoError(t, store.ReplaceIndustry(f.Industries))
	require.NoError(t, store.ReplaceStock(f.Stocks))
	require.NoError(t, store.ReplaceMembership(f.Membership))
}

func attentionServer(t *testing.T) *httptest.Server {
	t.Helper()
	type point struct {
		Date  string  `json:"date"`
		Index float64 `json:"index"`
	}
	var points []point
	for _, p := range testingpkg.SpikeAttention(testingpkg.FixtureEvents(), 1) {
		points = append(points, point{Date: p.Date.String(), Index: p.Magnitude})
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(points)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRun(t *testing.T) {
	cfg := &config.Config{
		DataDir:      t.TempDir(),
		DatabaseFile: "market.db",
		LogLevel:     "info",
		Port:         8080,
		Attention: config.AttentionConfig{
			BaseURL:   attentionServer(t).URL,
			Timeout:   5 * time.Second,
			RateLimit: 0,
		},
		Analysis: config.AnalysisConfig{
			Benchmark:  testingpkg.FixtureBenchmark,
			Coverage:   "full",
			LeadDays:   30,
			SpanDays:   60,
			Multiplier: 3,
			MaxBefore:  3,
			MaxAfter:   3,
		},
	}
	require.NoError(t, cfg.Validate())
	seedMarket(t, cfg)

	var out bytes.Buffer
	err := run(context.Background(), cfg, options{
		event:    "降准",
		dates:    testingpkg.FixtureEventStrings(),
		industry: "Banks",
		stock:    "600036.XSHG",
		limit:    5,
		detail:   true,
	}, &out, zerolog.Nop())
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Influenced windows for 降准")
	assert.Contains(t, text, "2018-10-14")
	assert.Contains(t, text, "Index effect")
	assert.Contains(t, text, "深证成指")
	assert.Contains(t, text, "Industry effect (excess over 上证综指)")
	assert.Contains(t, text, "Stock effect Banks")
	assert.Contains(t, text, "Holding period for 600036.XSHG (Banks)")
	assert.Contains(t, text, "buy 3 days before, sell 3 days after")
}

func TestRun_UnknownStock(t *testing.T) {
	cfg := &config.Config{
		DataDir:      t.TempDir(),
		DatabaseFile: "market.db",
		Attention:    config.AttentionConfig{BaseURL: attentionServer(t).URL, Timeout: time.Second},
		Analysis: config.AnalysisConfig{
			Benchmark:  testingpkg.FixtureBenchmark,
			Coverage:   "full",
			LeadDays:   30,
			SpanDays:   60,
			Multiplier: 3,
			MaxBefore:  3,
			MaxAfter:   3,
		},
	}
	seedMarket(t, cfg)

	var out bytes.Buffer
	err := run(context.Background(), cfg, options{
		event:    "降准",
		dates:    testingpkg.FixtureEventStrings(),
		industry: "",
		stock:    "999999.XSHG",
		limit:    5,
	}, &out, zerolog.Nop())
	assert.Error(t, err)
	assert.Contains(t, out.String(), "Stock effect")
}
