package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/stagepass/stagepass-server/internal/api"
	"github.com/stagepass/stagepass-server/internal/config"
	"github.com/stagepass/stagepass-server/internal/logger"
	"github.com/stagepass/stagepass-server/internal/metrics"
	"github.com/stagepass/stagepass-server/internal/service"
)

// IngestLimiterHandle owns the per-IP limiter of the analytics ingest endpoint.
type IngestLimiterHandle struct {
	*api.RateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *IngestLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideIngestLimiter provides the analytics ingest rate limiter.
func ProvideIngestLimiter(i do.Injector) (*IngestLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	limiter := api.NewRateLimiter(cfg.Analytics.IngestPerMinute, time.Minute, cfg.Analytics.IngestBurst)
	return &IngestLimiterHandle{RateLimiter: limiter}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	limiterHandle := do.MustInvoke[*IngestLimiterHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Genre:     do.MustInvoke[*service.GenreService](i),
		Artist:    do.MustInvoke[*service.ArtistService](i),
		Event:     do.MustInvoke[*service.EventService](i),
		Search:    do.MustInvoke[*service.SearchService](i),
		Analytics: do.MustInvoke[*service.AnalyticsService](i),
	}

	handler := api.NewServer(api.Options{
		Store:          storeHandle.Store,
		Services:       services,
		Metrics:        m,
		Logger:         log.Component("http").Logger,
		AdminKey:       cfg.Admin.APIKey,
		DevMode:        cfg.App.Environment == "development",
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		IngestLimiter:  limiterHandle.RateLimiter,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
