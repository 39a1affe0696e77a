package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/stagepass/stagepass-server/internal/domain"
	"github.com/stagepass/stagepass-server/internal/store"
)

// eventColumns must match the scan order in scanEvent.
const eventColumns = `id, created_at, updated_at, deleted_at, title, slug, description, venue, city,
	starts_at, ends_at, ticket_url, price_min_cents, price_max_cents, currency, status`

func scanEvent(scanner interface{ Scan(dest ...any) error }) (*domain.Event, error) {
	var e domain.Event

	var (
		createdAt   string
		updatedAt   string
		deletedAt   sql.NullString
		description sql.NullString
		startsAt    string
		endsAt      sql.NullString
		ticketURL   sql.NullString
		priceMin    sql.NullInt64
		priceMax    sql.NullInt64
		currency    sql.NullString
		status      string
	)

	err := scanner.Scan(
		&e.ID,
		&createdAt,
		&updatedAt,
		&deletedAt,
		&e.Title,
		&e.Slug,
		&description,
		&e.Venue,
		&e.City,
		&startsAt,
		&endsAt,
		&ticketURL,
		&priceMin,
		&priceMax,
		&currency,
		&status,
	)
	if err != nil {
		return nil, err
	}

	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if e.DeletedAt, err = parseNullableTime(deletedAt); err != nil {
		return nil, err
	}
	if e.StartsAt, err = parseTime(startsAt); err != nil {
		return nil, err
	}
	if e.EndsAt, err = parseNullableTime(endsAt); err != nil {
		return nil, err
	}

	e.Description = description.String
	e.TicketURL = ticketURL.String
	e.PriceMinCents = priceMin.Int64
	e.PriceMaxCents = priceMax.Int64
	e.Currency = currency.String
	e.Status = domain.EventStatus(status)
	e.ArtistIDs = []string{}
	e.GenreIDs = []string{}

	return &e, nil
}

// CreateEvent inserts an event with its line-up and genres.
func (s *Store) CreateEvent(ctx context.Context, e *domain.Event) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO events (`+eventColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID,
			formatTime(e.CreatedAt),
			formatTime(e.UpdatedAt),
			nullTimeString(e.DeletedAt),
			e.Title,
			e.Slug,
			nullString(e.Description),
			e.Venue,
			e.City,
			formatTime(e.StartsAt),
			nullTimeString(e.EndsAt),
			nullString(e.TicketURL),
			nullInt64(e.PriceMinCents),
			nullInt64(e.PriceMaxCents),
			nullString(e.Currency),
			string(e.Status),
		)
		if err != nil {
			return mapWriteError(err, "event")
		}
		if err := eventArtists.replace(ctx, tx, e.ID, e.ArtistIDs); err != nil {
			return err
		}
		return eventGenres.replace(ctx, tx, e.ID, e.GenreIDs)
	})
}

// GetEvent retrieves a live event with its artist and genre IDs.
func (s *Store) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	events, err := s.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, store.ErrNotFound.WithMessagef("event %s not found", id)
	}
	return events[0], nil
}

// UpdateEvent replaces a live event's fields and links.
func (s *Store) UpdateEvent(ctx context.Context, e *domain.Event) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE events SET
				updated_at = ?,
				title = ?,
				slug = ?,
				description = ?,
				venue = ?,
				city = ?,
				starts_at = ?,
				ends_at = ?,
				ticket_url = ?,
				price_min_cents = ?,
				price_max_cents = ?,
				currency = ?,
				status = ?
			WHERE id = ? AND deleted_at IS NULL`,
			formatTime(e.UpdatedAt),
			e.Title,
			e.Slug,
			nullString(e.Description),
			e.Venue,
			e.City,
			formatTime(e.StartsAt),
			nullTimeString(e.EndsAt),
			nullString(e.TicketURL),
			nullInt64(e.PriceMinCents),
			nullInt64(e.PriceMaxCents),
			nullString(e.Currency),
			string(e.Status),
			e.ID,
		)
		if err != nil {
			return mapWriteError(err, "event")
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound.WithMessagef("event %s not found", e.ID)
		}
		if err := eventArtists.replace(ctx, tx, e.ID, e.ArtistIDs); err != nil {
			return err
		}
		return eventGenres.replace(ctx, tx, e.ID, e.GenreIDs)
	})
}

// DeleteEvent soft-deletes an event.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	now := formatTime(time.Now())
	result, err := s.db.ExecContext(ctx, `
		UPDATE events SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		now, now, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound.WithMessagef("event %s not found", id)
	}
	return nil
}

// ListEvents returns one page of live events ordered by start time.
func (s *Store) ListEvents(ctx context.Context, filter store.EventFilter, params store.PaginationParams) (*store.PaginatedResult[*domain.Event], error) {
	params.Validate()
	offset, err := params.Offset()
	if err != nil {
		return nil, store.ErrInvalidInput.WithCause(err)
	}

	where := []string{"e.deleted_at IS NULL"}
	var args []any
	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, `(e.title LIKE ? ESCAPE '\' OR e.venue LIKE ? ESCAPE '\' OR e.city LIKE ? ESCAPE '\')`)
		p := likePattern(q)
		args = append(args, p, p, p)
	}
	if len(filter.GenreIDs) > 0 {
		where = append(where, `e.id IN (SELECT event_id FROM event_genres WHERE genre_id IN (`+placeholders(len(filter.GenreIDs))+`))`)
		args = append(args, idsOf(filter.GenreIDs)...)
	}
	if filter.ArtistID != "" {
		where = append(where, `e.id IN (SELECT event_id FROM event_artists WHERE artist_id = ?)`)
		args = append(args, filter.ArtistID)
	}
	if filter.City != "" {
		where = append(where, `e.city = ? COLLATE NOCASE`)
		args = append(args, filter.City)
	}
	if filter.Status != "" {
		where = append(where, `e.status = ?`)
		args = append(args, string(filter.Status))
	}
	if filter.OnSale {
		where = append(where, `e.status <> ?`)
		args = append(args, string(domain.EventCancelled))
	}
	if filter.From != nil {
		where = append(where, `e.starts_at >= ?`)
		args = append(args, formatTime(*filter.From))
	}
	if filter.To != nil {
		where = append(where, `e.starts_at < ?`)
		args = append(args, formatTime(*filter.To))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events e WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, err
	}

	events, err := s.queryEvents(ctx,
		`SELECT `+prefixed("e", eventColumns)+` FROM events e WHERE `+clause+
			` ORDER BY e.starts_at, e.id LIMIT ? OFFSET ?`,
		append(args, params.Limit+1, offset)...)
	if err != nil {
		return nil, err
	}
	return page(events, offset, params.Limit, total), nil
}

// ListAllEvents returns every live event, for search reindexing.
func (s *Store) ListAllEvents(ctx context.Context) ([]*domain.Event, error) {
	return s.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM events WHERE deleted_at IS NULL ORDER BY starts_at, id`)
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*domain.Event{}
	ids := []string{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	artists, err := eventArtists.load(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	genres, err := eventGenres.load(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		if a, ok := artists[e.ID]; ok {
			e.ArtistIDs = a
		}
		if g, ok := genres[e.ID]; ok {
			e.GenreIDs = g
		}
	}
	return events, nil
}
