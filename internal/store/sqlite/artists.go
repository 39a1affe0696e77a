package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/stagepass/stagepass-server/internal/domain"
	"github.com/stagepass/stagepass-server/internal/store"
)

// artistColumns must match the scan order in scanArtist.
const artistColumns = `id, created_at, updated_at, deleted_at, name, slug, bio, image_url, website, country`

func scanArtist(scanner interface{ Scan(dest ...any) error }) (*domain.Artist, error) {
	var a domain.Artist

	var (
		createdAt string
		updatedAt string
		deletedAt sql.NullString
		bio       sql.NullString
		imageURL  sql.NullString
		website   sql.NullString
		country   sql.NullString
	)

	err := scanner.Scan(
		&a.ID,
		&createdAt,
		&updatedAt,
		&deletedAt,
		&a.Name,
		&a.Slug,
		&bio,
		&imageURL,
		&website,
		&country,
	)
	if err != nil {
		return nil, err
	}

	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if a.DeletedAt, err = parseNullableTime(deletedAt); err != nil {
		return nil, err
	}

	a.Bio = bio.String
	a.ImageURL = imageURL.String
	a.Website = website.String
	a.Country = country.String
	a.GenreIDs = []string{}

	return &a, nil
}

// CreateArtist inserts an artist and its genre links.
func (s *Store) CreateArtist(ctx context.Context, a *domain.Artist) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO artists (`+artistColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID,
			formatTime(a.CreatedAt),
			formatTime(a.UpdatedAt),
			nullTimeString(a.DeletedAt),
			a.Name,
			a.Slug,
			nullString(a.Bio),
			nullString(a.ImageURL),
			nullString(a.Website),
			nullString(a.Country),
		)
		if err != nil {
			return mapWriteError(err, "artist")
		}
		return artistGenres.replace(ctx, tx, a.ID, a.GenreIDs)
	})
}

// GetArtist retrieves a live artist with its genre IDs.
func (s *Store) GetArtist(ctx context.Context, id string) (*domain.Artist, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+artistColumns+` FROM artists WHERE id = ? AND deleted_at IS NULL`, id)

	a, err := scanArtist(row)
	if err != nil {
		return nil, notFound(err, "artist", id)
	}

	links, err := artistGenres.load(ctx, s.db, []string{id})
	if err != nil {
		return nil, err
	}
	if ids, ok := links[id]; ok {
		a.GenreIDs = ids
	}
	return a, nil
}

// UpdateArtist replaces a live artist's fields and genre links.
func (s *Store) UpdateArtist(ctx context.Context, a *domain.Artist) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE artists SET
				updated_at = ?,
				name = ?,
				slug = ?,
				bio = ?,
				image_url = ?,
				website = ?,
				country = ?
			WHERE id = ? AND deleted_at IS NULL`,
			formatTime(a.UpdatedAt),
			a.Name,
			a.Slug,
			nullString(a.Bio),
			nullString(a.ImageURL),
			nullString(a.Website),
			nullString(a.Country),
			a.ID,
		)
		if err != nil {
			return mapWriteError(err, "artist")
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound.WithMessagef("artist %s not found", a.ID)
		}
		return artistGenres.replace(ctx, tx, a.ID, a.GenreIDs)
	})
}

// DeleteArtist soft-deletes an artist and removes it from event line-ups.
func (s *Store) DeleteArtist(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		now := formatTime(time.Now())
		result, err := tx.ExecContext(ctx, `
			UPDATE artists SET deleted_at = ?, updated_at = ?
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
			return store.ErrNotFound.WithMessagef("artist %s not found", id)
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM event_artists WHERE artist_id = ?`, id)
		return err
	})
}

// ListArtists returns one page of live artists ordered by name.
func (s *Store) ListArtists(ctx context.Context, filter store.ArtistFilter, params store.PaginationParams) (*store.PaginatedResult[*domain.Artist], error) {
	params.Validate()
	offset, err := params.Offset()
	if err != nil {
		return nil, store.ErrInvalidInput.WithCause(err)
	}

	where := []string{"a.deleted_at IS NULL"}
	var args []any
	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, `a.name LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(q))
	}
	if len(filter.GenreIDs) > 0 {
		where = append(where, `a.id IN (SELECT artist_id FROM artist_genres WHERE genre_id IN (`+placeholders(len(filter.GenreIDs))+`))`)
		args = append(args, idsOf(filter.GenreIDs)...)
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM artists a WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, err
	}

	artists, err := s.queryArtists(ctx,
		`SELECT `+prefixed("a", artistColumns)+` FROM artists a WHERE `+clause+
			` ORDER BY a.name COLLATE NOCASE, a.id LIMIT ? OFFSET ?`,
		append(args, params.Limit+1, offset)...)
	if err != nil {
		return nil, err
	}
	return page(artists, offset, params.Limit, total), nil
}

// ListAllArtists returns every live artist, for search reindexing.
func (s *Store) ListAllArtists(ctx context.Context) ([]*domain.Artist, error) {
	return s.queryArtists(ctx,
		`SELECT `+artistColumns+` FROM artists WHERE deleted_at IS NULL ORDER BY name COLLATE NOCASE, id`)
}

func (s *Store) queryArtists(ctx context.Context, query string, args ...any) ([]*domain.Artist, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	artists := []*domain.Artist{}
	ids := []string{}
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, err
		}
		artists = append(artists, a)
		ids = append(ids, a.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	links, err := artistGenres.load(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for _, a := range artists {
		if g, ok := links[a.ID]; ok {
			a.GenreIDs = g
		}
	}
	return artists, nil
}

// prefixed qualifies a comma-separated column list with a table alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
