package api

import (
	"github.com/stagepass/stagepass-server/internal/service"
)

// Services groups the business services used by the API server.
type Services struct {
	Genre     *service.GenreService
	Artist    *service.ArtistService
	Event     *service.EventService
	Search    *service.SearchService
	Analytics *service.AnalyticsService
}
