package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/stagepass/stagepass-server/internal/analytics"
	"github.com/stagepass/stagepass-server/internal/config"
	"github.com/stagepass/stagepass-server/internal/logger"
	"github.com/stagepass/stagepass-server/internal/store/sqlite"
)

// StoreHandle wraps the catalog store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite catalog store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.Open(cfg.Database.SQLitePath, log.Component("store").Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Database.SQLitePath)
	return &StoreHandle{Store: db}, nil
}

// AnalyticsStoreHandle owns the session store and its value-log GC loop.
type AnalyticsStoreHandle struct {
	*analytics.Store
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *AnalyticsStoreHandle) Shutdown() error {
	h.cancel()
	<-h.done
	return h.Close()
}

// ProvideAnalyticsStore opens the Badger session store and starts its GC loop.
func ProvideAnalyticsStore(i do.Injector) (*AnalyticsStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := analytics.Open(analytics.Options{
		Path:      cfg.Analytics.Path,
		Retention: cfg.Analytics.Retention,
	}, log.Component("analytics").Logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		st.RunGC(ctx, cfg.Analytics.GCInterval)
	}()

	log.Info("Analytics store initialized",
		"path", cfg.Analytics.Path,
		"retention", cfg.Analytics.Retention,
	)

	return &AnalyticsStoreHandle{Store: st, cancel: cancel, done: done}, nil
}
