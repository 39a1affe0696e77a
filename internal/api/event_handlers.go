package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/stagepass/stagepass-server/internal/domain"
	"github.com/stagepass/stagepass-server/internal/genre"
	"github.com/stagepass/stagepass-server/internal/service"
	"github.com/stagepass/stagepass-server/internal/store"
)

func (s *Server) registerEventRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listEvents",
		Method:      http.MethodGet,
		Path:        "/api/v1/events",
		Summary:     "List events",
		Description: "Returns events ordered by start time, filtered by genre, artist, city, status or date",
		Tags:        []string{"Events"},
	}, s.handleListEvents)

	huma.Register(s.api, huma.Operation{
		OperationID: "getEvent",
		Method:      http.MethodGet,
		Path:        "/api/v1/events/{id}",
		Summary:     "Get event",
		Description: "Returns an event with its line-up and genres",
		Tags:        []string{"Events"},
	}, s.handleGetEvent)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createEvent",
		Method:        http.MethodPost,
		Path:          "/api/v1/events",
		Summary:       "Create event",
		Description:   "Creates an event; status defaults to scheduled",
		Tags:          []string{"Events"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateEvent)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateEvent",
		Method:      http.MethodPatch,
		Path:        "/api/v1/events/{id}",
		Summary:     "Update event",
		Description: "Updates the given event fields",
		Tags:        []string{"Events"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateEvent)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteEvent",
		Method:      http.MethodDelete,
		Path:        "/api/v1/events/{id}",
		Summary:     "Delete event",
		Description: "Deletes an event",
		Tags:        []string{"Events"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteEvent)
}

// === DTOs ===

// ArtistRef is a line-up entry.
type ArtistRef struct {
	ID   string `json:"id" doc:"Artist ID"`
	Name string `json:"name" doc:"Artist name"`
	Slug string `json:"slug" doc:"URL-safe slug"`
}

type EventResponse struct {
	ID            string             `json:"id" doc:"Event ID"`
	Title         string             `json:"title" doc:"Event title"`
	Slug          string             `json:"slug" doc:"URL-safe slug"`
	Description   string             `json:"description,omitempty" doc:"Description in Markdown"`
	Venue         string             `json:"venue" doc:"Venue name"`
	City          string             `json:"city" doc:"City"`
	StartsAt      time.Time          `json:"starts_at" doc:"Start time (UTC)"`
	EndsAt        *time.Time         `json:"ends_at,omitempty" doc:"End time (UTC)"`
	TicketURL     string             `json:"ticket_url,omitempty" doc:"Ticket shop URL"`
	PriceMinCents int64              `json:"price_min_cents,omitempty" doc:"Lowest ticket price in minor units"`
	PriceMaxCents int64              `json:"price_max_cents,omitempty" doc:"Highest ticket price in minor units"`
	Currency      string             `json:"currency,omitempty" doc:"ISO 4217 currency code"`
	Status        domain.EventStatus `json:"status" doc:"scheduled, cancelled or sold_out"`
	ArtistIDs     []string           `json:"artist_ids" doc:"Line-up in billing order"`
	Artists       []ArtistRef        `json:"artists,omitempty" doc:"Resolved line-up; only on single-event responses"`
	Genres        []GenreRef         `json:"genres" doc:"Genres with display paths"`
	CreatedAt     time.Time          `json:"created_at" doc:"Creation time"`
	UpdatedAt     time.Time          `json:"updated_at" doc:"Last update time"`
}

type ListEventsInput struct {
	PageInput
	Query            string    `query:"q" maxLength:"100" doc:"Substring of title, venue or city"`
	GenreID          string    `query:"genre_id" doc:"Only events tagged with this genre"`
	IncludeSubgenres bool      `query:"include_subgenres" default:"true" doc:"Also match events tagged with subgenres of genre_id"`
	ArtistID         string    `query:"artist_id" doc:"Only events featuring this artist"`
	City             string    `query:"city" doc:"Exact city, case-insensitive"`
	Status           string    `query:"status" enum:"scheduled,cancelled,sold_out" doc:"Event status"`
	From             time.Time `query:"from" doc:"Starting at or after (RFC 3339)"`
	To               time.Time `query:"to" doc:"Starting before (RFC 3339)"`
	Upcoming         bool      `query:"upcoming" doc:"Only events that have not started and are not cancelled"`
}

type ListEventsResponse struct {
	Events []EventResponse `json:"events" doc:"Events on this page"`
	PageInfo
}

type ListEventsOutput struct {
	Body ListEventsResponse
}

type GetEventInput struct {
	ID string `path:"id" doc:"Event ID"`
}

type EventOutput struct {
	Body EventResponse
}

type CreateEventRequest struct {
	Title         string     `json:"title" minLength:"1" maxLength:"200" doc:"Event title"`
	Slug          string     `json:"slug,omitempty" maxLength:"200" doc:"Slug; derived from title, city and date when empty"`
	Description   string     `json:"description,omitempty" doc:"Description, Markdown or HTML"`
	Venue         string     `json:"venue" minLength:"1" maxLength:"200" doc:"Venue name"`
	City          string     `json:"city" minLength:"1" maxLength:"100" doc:"City"`
	StartsAt      time.Time  `json:"starts_at" doc:"Start time"`
	EndsAt        *time.Time `json:"ends_at,omitempty" doc:"End time; must be after starts_at"`
	TicketURL     string     `json:"ticket_url,omitempty" doc:"Ticket shop URL"`
	PriceMinCents int64      `json:"price_min_cents,omitempty" minimum:"0" doc:"Lowest price in minor units"`
	PriceMaxCents int64      `json:"price_max_cents,omitempty" minimum:"0" doc:"Highest price in minor units"`
	Currency      string     `json:"currency,omitempty" doc:"ISO 4217 currency code"`
	Status        string     `json:"status,omitempty" enum:"scheduled,cancelled,sold_out" doc:"Initial status"`
	ArtistIDs     []string   `json:"artist_ids,omitempty" maxItems:"50" doc:"Line-up in billing order"`
	GenreIDs      []string   `json:"genre_ids,omitempty" maxItems:"20" doc:"Genre IDs"`
}

type CreateEventInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateEventRequest
}

type UpdateEventRequest struct {
	Title         *string    `json:"title,omitempty" doc:"Event title"`
	Slug          *string    `json:"slug,omitempty" doc:"URL-safe slug"`
	Description   *string    `json:"description,omitempty" doc:"Description"`
	Venue         *string    `json:"venue,omitempty" doc:"Venue name"`
	City          *string    `json:"city,omitempty" doc:"City"`
	StartsAt      *time.Time `json:"starts_at,omitempty" doc:"Start time"`
	EndsAt        *time.Time `json:"ends_at,omitempty" doc:"End time; the zero time clears it"`
	TicketURL     *string    `json:"ticket_url,omitempty" doc:"Ticket shop URL"`
	PriceMinCents *int64     `json:"price_min_cents,omitempty" doc:"Lowest price in minor units"`
	PriceMaxCents *int64     `json:"price_max_cents,omitempty" doc:"Highest price in minor units"`
	Currency      *string    `json:"currency,omitempty" doc:"ISO 4217 currency code"`
	Status        *string    `json:"status,omitempty" enum:"scheduled,cancelled,sold_out" doc:"Status"`
	ArtistIDs     *[]string  `json:"artist_ids,omitempty" doc:"Replaces the line-up"`
	GenreIDs      *[]string  `json:"genre_ids,omitempty" doc:"Replaces the genre list"`
}

type UpdateEventInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Event ID"`
	Body          UpdateEventRequest
}

type DeleteEventInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Event ID"`
}

// === Handlers ===

func (s *Server) handleListEvents(ctx context.Context, input *ListEventsInput) (*ListEventsOutput, error) {
	q := service.EventQuery{
		Query:            input.Query,
		GenreID:          input.GenreID,
		IncludeSubgenres: input.IncludeSubgenres,
		ArtistID:         input.ArtistID,
		City:             input.City,
		Status:           domain.EventStatus(input.Status),
		Upcoming:         input.Upcoming,
	}
	if !input.From.IsZero() {
		q.From = &input.From
	}
	if !input.To.IsZero() {
		q.To = &input.To
	}

	res, err := s.services.Event.ListEvents(ctx, q, input.params())
	if err != nil {
		return nil, err
	}

	tree, err := s.services.Genre.Tree(ctx)
	if err != nil {
		return nil, err
	}

	events := make([]EventResponse, len(res.Items))
	for i, e := range res.Items {
		events[i] = mapEventResponse(e, tree)
	}

	return &ListEventsOutput{Body: ListEventsResponse{
		Events:   events,
		PageInfo: pageInfo(res),
	}}, nil
}

func (s *Server) handleGetEvent(ctx context.Context, input *GetEventInput) (*EventOutput, error) {
	e, err := s.services.Event.GetEvent(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return s.eventOutput(ctx, e)
}

func (s *Server) handleCreateEvent(ctx context.Context, input *CreateEventInput) (*EventOutput, error) {
	if err := s.requireAdmin(input.Authorization); err != nil {
		return nil, err
	}

	b := input.Body
	e, err := s.services.Event.CreateEvent(ctx, service.CreateEventRequest{
		Title:         b.Title,
		Slug:          b.Slug,
		Description:   b.Description,
		Venue:         b.Venue,
		City:          b.City,
		StartsAt:      b.StartsAt,
		EndsAt:        b.EndsAt,
		TicketURL:     b.TicketURL,
		PriceMinCents: b.PriceMinCents,
		PriceMaxCents: b.PriceMaxCents,
		Currency:      b.Currency,
		Status:        domain.EventStatus(b.Status),
		ArtistIDs:     b.ArtistIDs,
		GenreIDs:      b.GenreIDs,
	})
	if err != nil {
		return nil, err
	}
	return s.eventOutput(ctx, e)
}

func (s *Server) handleUpdateEvent(ctx context.Context, input *UpdateEventInput) (*EventOutput, error) {
	if err := s.requireAdmin(input.Authorization); err != nil {
		return nil, err
	}

	b := input.Body
	req := service.UpdateEventRequest{
		Title:         b.Title,
		Slug:          b.Slug,
		Description:   b.Description,
		Venue:         b.Venue,
		City:          b.City,
		StartsAt:      b.StartsAt,
		EndsAt:        b.EndsAt,
		TicketURL:     b.TicketURL,
		PriceMinCents: b.PriceMinCents,
		PriceMaxCents: b.PriceMaxCents,
		Currency:      b.Currency,
		ArtistIDs:     b.ArtistIDs,
		GenreIDs:      b.GenreIDs,
	}
	if b.Status != nil {
		status := domain.EventStatus(*b.Status)
		req.Status = &status
	}

	e, err := s.services.Event.UpdateEvent(ctx, input.ID, req)
	if err != nil {
		return nil, err
	}
	return s.eventOutput(ctx, e)
}

func (s *Server) handleDeleteEvent(ctx context.Context, input *DeleteEventInput) (*struct{}, error) {
	if err := s.requireAdmin(input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Event.DeleteEvent(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

// eventOutput resolves the line-up and genres of a single event.
func (s *Server) eventOutput(ctx context.Context, e *domain.Event) (*EventOutput, error) {
	tree, err := s.services.Genre.Tree(ctx)
	if err != nil {
		return nil, err
	}

	resp := mapEventResponse(e, tree)
	resp.Artists = make([]ArtistRef, 0, len(e.ArtistIDs))
	for _, artistID := range e.ArtistIDs {
		a, err := s.services.Artist.GetArtist(ctx, artistID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		resp.Artists = append(resp.Artists, ArtistRef{ID: a.ID, Name: a.Name, Slug: a.Slug})
	}

	return &EventOutput{Body: resp}, nil
}

func mapEventResponse(e *domain.Event, tree *genre.Tree) EventResponse {
	return EventResponse{
		ID:            e.ID,
		Title:         e.Title,
		Slug:          e.Slug,
		Description:   e.Description,
		Venue:         e.Venue,
		City:          e.City,
		StartsAt:      e.StartsAt,
		EndsAt:        e.EndsAt,
		TicketURL:     e.TicketURL,
		PriceMinCents: e.PriceMinCents,
		PriceMaxCents: e.PriceMaxCents,
		Currency:      e.Currency,
		Status:        e.Status,
		ArtistIDs:     orEmpty(e.ArtistIDs),
		Genres:        genreRefs(tree, e.GenreIDs),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}
