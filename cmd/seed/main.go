// Package main loads CSV exports of the market tables into the market
// database.
//
//	seed --table index    index.csv
//	seed --table industry industry.csv
//	seed --table stock    stock_2018.csv stock_2019.csv
//	seed --table membership stock_industry.csv
package main

import (
	"fmt"
	"os"

	"github.com/aristath/eventscope/internal/config"
	"github.com/aristath/eventscope/internal/di"
	"github.com/aristath/eventscope/internal/marketdata"
	"github.com/aristath/eventscope/pkg/logger"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
)

func main() {
	configPath := flag.StringP("config", "c", "", "optional config file")
	tableName := flag.StringP("table", "t", "", "table to load: index, industry, stock or membership")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true, Output: os.Stderr})

	kind, err := marketdata.ParseKind(*tableName)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid --table")
	}

	if err := run(cfg, kind, flag.Args(), log); err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}
}

func run(cfg *config.Config, kind marketdata.Kind, paths []string, log zerolog.Logger) error {
	if len(paths) == 0 {
		return fmt.Errorf("no CSV files given")
	}
	if cfg.ReadOnly {
		return fmt.Errorf("market database is configured read-only")
	}

	container, err := di.InitializeDatabases(cfg, log)
	if err != nil {
		return err
	}
	defer container.Close()

	store := marketdata.NewStore(container.MarketDB.Conn(), log)

	total := 0
	for _, path := range paths {
		n, err := importFile(store, kind, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		log.Info().Str("file", path).Str("table", string(kind)).Int("rows", n).Msg("Imported file")
		total += n
	}

	log.Info().Str("table", string(kind)).Int("files", len(paths)).Int("rows", total).Msg("Seeding complete")
	return nil
}

func importFile(store *marketdata.Store, kind marketdata.Kind, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open: %w", err)
	}
	defer f.Close()

	return store.Import(kind, f)
}
