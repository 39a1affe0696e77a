// Package di provides dependency injection configuration for the StagePass server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/stagepass/stagepass-server/internal/config"
	"github.com/stagepass/stagepass-server/internal/di/providers"
	"github.com/stagepass/stagepass-server/internal/genre"
	"github.com/stagepass/stagepass-server/internal/logger"
	"github.com/stagepass/stagepass-server/internal/metrics"
	"github.com/stagepass/stagepass-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideAnalyticsStore)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideGenreCache)

	// Business services
	do.Provide(injector, providers.ProvideGenreService)
	do.Provide(injector, providers.ProvideArtistService)
	do.Provide(injector, providers.ProvideEventService)
	do.Provide(injector, providers.ProvideSearchService)
	do.Provide(injector, providers.ProvideAnalyticsService)

	// Server
	do.Provide(injector, providers.ProvideIngestLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes the catalog services without starting the HTTP
// server. Tools like cmd/seed stop here.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*metrics.Metrics](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*genre.Cache](injector)

	_ = do.MustInvoke[*service.GenreService](injector)
	_ = do.MustInvoke[*service.ArtistService](injector)
	_ = do.MustInvoke[*service.EventService](injector)
	_ = do.MustInvoke[*service.SearchService](injector)

	return nil
}

// Start bootstraps everything and starts serving HTTP.
func Start(injector *do.RootScope) error {
	if err := Bootstrap(injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*providers.AnalyticsStoreHandle](injector)
	_ = do.MustInvoke[*service.AnalyticsService](injector)
	_ = do.MustInvoke[*providers.IngestLimiterHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Rebuild a lost or outdated index in the background.
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
