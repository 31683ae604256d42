/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the command entry points.
 */
package di

import (
	"github.com/aristath/eventscope/internal/clients/attention"
	"github.com/aristath/eventscope/internal/database"
	"github.com/aristath/eventscope/internal/marketdata"
	"github.com/aristath/eventscope/internal/modules/analysis"
	"github.com/aristath/eventscope/internal/modules/eventwindow"
	"github.com/aristath/eventscope/internal/modules/holding"
)

// Container holds all dependencies for the application.
type Container struct {
	// Databases
	MarketDB *database.DB // index, industry, stock and membership tables

	// Repositories
	MarketStore *marketdata.Store

	// Clients
	AttentionClient *attention.Client

	// Services
	Detector        *eventwindow.Detector
	Optimizer       *holding.Optimizer
	AnalysisService *analysis.Service
}

// Close releases the container's databases.
func (c *Container) Close() error {
	if c == nil || c.MarketDB == nil {
		return nil
	}
	return c.MarketDB.Close()
}
