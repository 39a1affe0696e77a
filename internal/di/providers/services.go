package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/stagepass/stagepass-server/internal/config"
	"github.com/stagepass/stagepass-server/internal/genre"
	"github.com/stagepass/stagepass-server/internal/logger"
	"github.com/stagepass/stagepass-server/internal/metrics"
	"github.com/stagepass/stagepass-server/internal/service"
)

// ProvideGenreCache provides the genre tree cache, instrumented with metrics.
func ProvideGenreCache(i do.Injector) (*genre.Cache, error) {
	cfg := do.MustInvoke[*config.Config](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	cache, err := genre.NewCache(cfg.Genre.CacheSize, genre.WithLanguage(cfg.Genre.LanguageTag()))
	if err != nil {
		return nil, err
	}
	if err := m.InstrumentGenreCache(cache); err != nil {
		return nil, err
	}
	return cache, nil
}

// ProvideGenreService provides the genre service and seeds the default
// taxonomy into an empty catalog when configured to.
func ProvideGenreService(i do.Injector) (*service.GenreService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cache := do.MustInvoke[*genre.Cache](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewGenreService(storeHandle.Store, cache, log.Component("genres").Logger)

	if cfg.Genre.SeedDefaults {
		created, err := svc.SeedDefaults(context.Background())
		if err != nil {
			return nil, err
		}
		if created > 0 {
			log.Info("Seeded default genre taxonomy", "genres", created)
		}
	}

	return svc, nil
}

// ProvideArtistService provides the artist service.
func ProvideArtistService(i do.Injector) (*service.ArtistService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	genres := do.MustInvoke[*service.GenreService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewArtistService(storeHandle.Store, genres, log.Component("artists").Logger), nil
}

// ProvideEventService provides the event service.
func ProvideEventService(i do.Injector) (*service.EventService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	genres := do.MustInvoke[*service.GenreService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewEventService(storeHandle.Store, genres, log.Component("events").Logger), nil
}

// ProvideSearchService provides the search service and wires it into every
// catalog service so writes keep the index current.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	genres := do.MustInvoke[*service.GenreService](i)
	artists := do.MustInvoke[*service.ArtistService](i)
	events := do.MustInvoke[*service.EventService](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewSearchService(indexHandle.SearchIndex, storeHandle.Store, genres, log.Component("search").Logger)

	genres.SetSearchIndexer(svc)
	artists.SetSearchIndexer(svc)
	events.SetSearchIndexer(svc)

	return svc, nil
}

// ProvideAnalyticsService provides the visitor analytics service.
func ProvideAnalyticsService(i do.Injector) (*service.AnalyticsService, error) {
	storeHandle := do.MustInvoke[*AnalyticsStoreHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewAnalyticsService(storeHandle.Store, log.Component("analytics").Logger)
	svc.SetRecordHook(m.SessionRecorded)
	return svc, nil
}
