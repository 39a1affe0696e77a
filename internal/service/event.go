package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stagepass/stagepass-server/internal/domain"
	domainerrors "github.com/stagepass/stagepass-server/internal/errors"
	"github.com/stagepass/stagepass-server/internal/genre"
	"github.com/stagepass/stagepass-server/internal/id"
	"github.com/stagepass/stagepass-server/internal/normalize"
	"github.com/stagepass/stagepass-server/internal/store"
	"github.com/stagepass/stagepass-server/internal/validation"
)

// EventService manages ticketed events and their line-ups.
type EventService struct {
	store     store.EventStore
	genres    *GenreService
	indexer   SearchIndexer
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewEventService creates a new event service.
func NewEventService(st store.EventStore, genres *GenreService, logger *slog.Logger) *EventService {
	return &EventService{
		store:     st,
		genres:    genres,
		indexer:   noopIndexer{},
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// SetSearchIndexer wires index updates for event writes.
func (s *EventService) SetSearchIndexer(ix SearchIndexer) {
	s.indexer = ix
}

// EventQuery filters event listings.
type EventQuery struct {
	Query            string
	GenreID          string
	IncludeSubgenres bool
	ArtistID         string
	City             string
	Status           domain.EventStatus
	From             *time.Time
	To               *time.Time
	// Upcoming limits results to events that start after now and are not cancelled.
	Upcoming bool
}

// ListEvents returns one page of events ordered by start time.
func (s *EventService) ListEvents(ctx context.Context, q EventQuery, params store.PaginationParams) (*store.PaginatedResult[*domain.Event], error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, domainerrors.Validationf("unknown event status %q", q.Status)
	}

	filter := store.EventFilter{
		Query:    q.Query,
		ArtistID: q.ArtistID,
		City:     strings.TrimSpace(q.City),
		Status:   q.Status,
		From:     q.From,
		To:       q.To,
	}
	if q.Upcoming {
		now := s.now()
		if filter.From == nil || filter.From.Before(now) {
			filter.From = &now
		}
		filter.OnSale = true
	}
	if q.GenreID != "" {
		ids, err := genreFilter(ctx, s.genres, q.GenreID, q.IncludeSubgenres)
		if err != nil {
			return nil, err
		}
		filter.GenreIDs = ids
	}
	return s.store.ListEvents(ctx, filter, params)
}

// GetEvent returns an event by ID.
func (s *EventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	return s.store.GetEvent(ctx, eventID)
}

// EventGenres resolves an event's genre IDs to tree nodes, skipping deleted genres.
func (s *EventService) EventGenres(ctx context.Context, e *domain.Event) ([]*genre.Node, error) {
	tree, err := s.genres.Tree(ctx)
	if err != nil {
		return nil, err
	}
	return resolveGenres(tree, e.GenreIDs), nil
}

// CreateEventRequest contains fields for creating an event.
type CreateEventRequest struct {
	Title         string             `json:"title" validate:"required,max=200"`
	Slug          string             `json:"slug,omitempty" validate:"omitempty,slug,max=200"`
	Description   string             `json:"description,omitempty" validate:"max=20000"`
	Venue         string             `json:"venue" validate:"required,max=200"`
	City          string             `json:"city" validate:"required,max=100"`
	StartsAt      time.Time          `json:"starts_at" validate:"required"`
	EndsAt        *time.Time         `json:"ends_at,omitempty"`
	TicketURL     string             `json:"ticket_url,omitempty" validate:"omitempty,http_url"`
	PriceMinCents int64              `json:"price_min_cents,omitempty" validate:"gte=0"`
	PriceMaxCents int64              `json:"price_max_cents,omitempty" validate:"gte=0"`
	Currency      string             `json:"currency,omitempty"`
	Status        domain.EventStatus `json:"status,omitempty"`
	ArtistIDs     []string           `json:"artist_ids,omitempty" validate:"max=50"`
	GenreIDs      []string           `json:"genre_ids,omitempty" validate:"max=20"`
}

// CreateEvent creates an event. Status defaults to scheduled.
func (s *EventService) CreateEvent(ctx context.Context, req CreateEventRequest) (*domain.Event, error) {
	req.Title = normalize.Text(req.Title)
	req.Venue = normalize.Text(req.Venue)
	req.City = normalize.Text(req.City)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Status == "" {
		req.Status = domain.EventScheduled
	}

	slug := req.Slug
	if slug == "" {
		slug = genre.Slugify(req.Title + " " + req.City + " " + req.StartsAt.UTC().Format("2006-01-02"))
	}

	eventID, err := id.Generate(id.PrefixEvent)
	if err != nil {
		return nil, err
	}

	e := &domain.Event{
		Syncable:      domain.Syncable{ID: eventID},
		Title:         req.Title,
		Slug:          slug,
		Description:   normalize.Markdown(req.Description),
		Venue:         req.Venue,
		City:          req.City,
		StartsAt:      req.StartsAt.UTC(),
		EndsAt:        utcPtr(req.EndsAt),
		TicketURL:     req.TicketURL,
		PriceMinCents: req.PriceMinCents,
		PriceMaxCents: req.PriceMaxCents,
		Currency:      req.Currency,
		Status:        req.Status,
		ArtistIDs:     dedupe(req.ArtistIDs),
		GenreIDs:      dedupe(req.GenreIDs),
	}
	if err := s.check(ctx, e); err != nil {
		return nil, err
	}
	e.InitTimestamps()

	if err := s.store.CreateEvent(ctx, e); err != nil {
		return nil, err
	}
	if err := s.indexer.IndexEvent(ctx, e); err != nil {
		s.logger.Warn("failed to index event", "id", e.ID, "error", err)
	}

	s.logger.Info("event created", "id", e.ID, "title", e.Title, "starts_at", e.StartsAt)
	return e, nil
}

// UpdateEventRequest contains fields for updating an event. Nil fields are left alone.
// A zero EndsAt clears the end time.
type UpdateEventRequest struct {
	Title         *string             `json:"title,omitempty" validate:"omitempty,max=200"`
	Slug          *string             `json:"slug,omitempty" validate:"omitempty,slug,max=200"`
	Description   *string             `json:"description,omitempty" validate:"omitempty,max=20000"`
	Venue         *string             `json:"venue,omitempty" validate:"omitempty,max=200"`
	City          *string             `json:"city,omitempty" validate:"omitempty,max=100"`
	StartsAt      *time.Time          `json:"starts_at,omitempty"`
	EndsAt        *time.Time          `json:"ends_at,omitempty"`
	TicketURL     *string             `json:"ticket_url,omitempty" validate:"omitempty,http_url"`
	PriceMinCents *int64              `json:"price_min_cents,omitempty" validate:"omitempty,gte=0"`
	PriceMaxCents *int64              `json:"price_max_cents,omitempty" validate:"omitempty,gte=0"`
	Currency      *string             `json:"currency,omitempty"`
	Status        *domain.EventStatus `json:"status,omitempty"`
	ArtistIDs     *[]string           `json:"artist_ids,omitempty"`
	GenreIDs      *[]string           `json:"genre_ids,omitempty"`
}

// UpdateEvent applies a partial update.
//
//nolint:gocyclo // One branch per optional field.
func (s *EventService) UpdateEvent(ctx context.Context, eventID string, req UpdateEventRequest) (*domain.Event, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	e, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	required := func(field string, v *string, dst *string) error {
		if v == nil {
			return nil
		}
		text := normalize.Text(*v)
		if text == "" {
			return domainerrors.ValidationWithDetails("validation failed", map[string]string{field: "is required"})
		}
		*dst = text
		return nil
	}
	if err := required("title", req.Title, &e.Title); err != nil {
		return nil, err
	}
	if err := required("venue", req.Venue, &e.Venue); err != nil {
		return nil, err
	}
	if err := required("city", req.City, &e.City); err != nil {
		return nil, err
	}
	if req.Slug != nil {
		e.Slug = *req.Slug
	}
	if req.Description != nil {
		e.Description = normalize.Markdown(*req.Description)
	}
	if req.StartsAt != nil {
		e.StartsAt = req.StartsAt.UTC()
	}
	if req.EndsAt != nil {
		if req.EndsAt.IsZero() {
			e.EndsAt = nil
		} else {
			e.EndsAt = utcPtr(req.EndsAt)
		}
	}
	if req.TicketURL != nil {
		e.TicketURL = *req.TicketURL
	}
	if req.PriceMinCents != nil {
		e.PriceMinCents = *req.PriceMinCents
	}
	if req.PriceMaxCents != nil {
		e.PriceMaxCents = *req.PriceMaxCents
	}
	if req.Currency != nil {
		e.Currency = *req.Currency
	}
	if req.Status != nil {
		e.Status = *req.Status
	}
	if req.ArtistIDs != nil {
		e.ArtistIDs = dedupe(*req.ArtistIDs)
	}
	if req.GenreIDs != nil {
		e.GenreIDs = dedupe(*req.GenreIDs)
	}

	if err := s.check(ctx, e); err != nil {
		return nil, err
	}

	e.Touch()
	if err := s.store.UpdateEvent(ctx, e); err != nil {
		return nil, err
	}
	if err := s.indexer.IndexEvent(ctx, e); err != nil {
		s.logger.Warn("failed to index event", "id", e.ID, "error", err)
	}
	return e, nil
}

// check enforces the cross-field rules on a fully populated event and
// normalizes its currency in place.
func (s *EventService) check(ctx context.Context, e *domain.Event) error {
	fields := map[string]string{}

	if e.StartsAt.IsZero() {
		fields["starts_at"] = "is required"
	}
	if e.EndsAt != nil && !e.EndsAt.After(e.StartsAt) {
		fields["ends_at"] = "must be after starts_at"
	}
	if !e.Status.Valid() {
		fields["status"] = fmt.Sprintf("must be one of: %s %s %s", domain.EventScheduled, domain.EventCancelled, domain.EventSoldOut)
	}
	if e.PriceMaxCents > 0 && e.PriceMaxCents < e.PriceMinCents {
		fields["price_max_cents"] = "must not be below price_min_cents"
	}
	if e.Currency != "" || e.PriceMinCents > 0 || e.PriceMaxCents > 0 {
		code := normalize.CurrencyCode(e.Currency)
		if code == "" {
			fields["currency"] = "must be an ISO 4217 currency code"
		}
		e.Currency = code
	}
	if len(e.ArtistIDs) > 50 {
		fields["artist_ids"] = "must contain at most 50 items"
	}
	if len(e.GenreIDs) > 20 {
		fields["genre_ids"] = "must contain at most 20 items"
	}
	if e.Slug == "" {
		fields["slug"] = "could not be derived from the title"
	}

	if len(fields) > 0 {
		return domainerrors.ValidationWithDetails("validation failed", fields)
	}
	return s.genres.CheckIDs(ctx, e.GenreIDs)
}

// DeleteEvent soft-deletes an event.
func (s *EventService) DeleteEvent(ctx context.Context, eventID string) error {
	if err := s.store.DeleteEvent(ctx, eventID); err != nil {
		return err
	}
	if err := s.indexer.DeleteDocument(ctx, eventID); err != nil {
		s.logger.Warn("failed to remove event from search index", "id", eventID, "error", err)
	}
	s.logger.Info("event deleted", "id", eventID)
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
