package di

import (
	"fmt"

	"github.com/aristath/eventscope/internal/config"
	"github.com/aristath/eventscope/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the market database and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	profile := database.ProfileStandard
	if cfg.ReadOnly {
		profile = database.ProfileReadOnly
	}

	marketDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: profile,
		Name:    "market",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize market database: %w", err)
	}

	if err := marketDB.Migrate(); err != nil {
		marketDB.Close()
		return nil, fmt.Errorf("failed to migrate market database: %w", err)
	}

	log.Info().
		Str("path", marketDB.Path()).
		Str("profile", string(marketDB.Profile())).
		Msg("Market database initialized")

	return &Container{MarketDB: marketDB}, nil
}
