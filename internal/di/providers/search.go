package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/stagepass/stagepass-server/internal/config"
	"github.com/stagepass/stagepass-server/internal/logger"
	"github.com/stagepass/stagepass-server/internal/search"
	"github.com/stagepass/stagepass-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Search.IndexPath,
		InMemory: cfg.Search.InMemory,
		Logger:   log.Component("search").Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount, "in_memory", cfg.Search.InMemory)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds an empty index from the catalog in the background.
// Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	go func() {
		rebuilt, err := searchService.ReindexIfEmpty(context.Background())
		switch {
		case err != nil:
			log.Error("Initial search reindex failed", "error", err)
		case rebuilt:
			count, _ := searchService.DocumentCount()
			log.Info("Initial search reindex completed", "documents", count)
		}
	}()
}
