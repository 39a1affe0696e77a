package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/stagepass/stagepass-server/internal/domain"
	"github.com/stagepass/stagepass-server/internal/store"
)

// genreColumns is the ordered list of columns selected in genre queries.
// Must match the scan order in scanGenre.
const genreColumns = `id, created_at, updated_at, deleted_at, name, slug, description, parent_id, color`

// scanGenre scans a sql.Row (or sql.Rows via its Scan method) into a domain.Genre.
func scanGenre(scanner interface{ Scan(dest ...any) error }) (*domain.Genre, error) {
	var g domain.Genre

	var (
		createdAt   string
		updatedAt   string
		deletedAt   sql.NullString
		description sql.NullString
		parentID    sql.NullString
		color       sql.NullString
	)

	err := scanner.Scan(
		&g.ID,
		&createdAt,
		&updatedAt,
		&deletedAt,
		&g.Name,
		&g.Slug,
		&description,
		&parentID,
		&color,
	)
	if err != nil {
		return nil, err
	}

	g.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	g.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	g.DeletedAt, err = parseNullableTime(deletedAt)
	if err != nil {
		return nil, err
	}

	g.Description = description.String
	g.ParentID = parentID.String
	g.Color = color.String

	return &g, nil
}

// checkParent rejects a parent ID that does not name a live genre.
func checkParent(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, parentID string) error {
	if parentID == "" {
		return nil
	}
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM genres WHERE id = ? AND deleted_at IS NULL`, parentID).Scan(&n)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrInvalidInput.WithMessagef("parent genre %s does not exist", parentID)
	}
	return nil
}

// CreateGenre inserts a new genre.
// Returns store.ErrAlreadyExists if the ID or slug is taken and
// store.ErrInvalidInput if the parent does not exist.
func (s *Store) CreateGenre(ctx context.Context, g *domain.Genre) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkParent(ctx, tx, g.ParentID); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO genres (`+genreColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			g.ID,
			formatTime(g.CreatedAt),
			formatTime(g.UpdatedAt),
			nullTimeString(g.DeletedAt),
			g.Name,
			g.Slug,
			nullString(g.Description),
			nullString(g.ParentID),
			nullString(g.Color),
		)
		return mapWriteError(err, "genre")
	})
}

// GetGenre retrieves a genre by ID, excluding soft-deleted records.
// Returns store.ErrNotFound if the genre does not exist.
func (s *Store) GetGenre(ctx context.Context, id string) (*domain.Genre, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+genreColumns+` FROM genres WHERE id = ? AND deleted_at IS NULL`, id)

	g, err := scanGenre(row)
	if err != nil {
		return nil, notFound(err, "genre", id)
	}
	return g, nil
}

// GetGenreBySlug retrieves a genre by slug, excluding soft-deleted records.
// Returns store.ErrNotFound if the genre does not exist.
func (s *Store) GetGenreBySlug(ctx context.Context, slug string) (*domain.Genre, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+genreColumns+` FROM genres WHERE slug = ? AND deleted_at IS NULL`, slug)

	g, err := scanGenre(row)
	if err != nil {
		return nil, notFound(err, "genre", slug)
	}
	return g, nil
}

// ListGenres returns all non-deleted genres ordered by name.
// This is the flat snapshot the genre tree is built from.
func (s *Store) ListGenres(ctx context.Context) ([]*domain.Genre, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+genreColumns+` FROM genres WHERE deleted_at IS NULL ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	genres := []*domain.Genre{}
	for rows.Next() {
		g, err := scanGenre(rows)
		if err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return genres, nil
}

// CountGenres returns the number of live genres.
func (s *Store) CountGenres(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM genres WHERE deleted_at IS NULL`).Scan(&n)
	return n, err
}

// UpdateGenre performs a full row update on an existing genre.
// Returns store.ErrNotFound if the genre does not exist or is soft-deleted.
// Cycle prevention is the caller's job; the store only checks that the parent exists.
func (s *Store) UpdateGenre(ctx context.Context, g *domain.Genre) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if g.ParentID == g.ID {
			return store.ErrInvalidInput.WithMessage("genre cannot be its own parent")
		}
		if err := checkParent(ctx, tx, g.ParentID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE genres SET
				updated_at = ?,
				name = ?,
				slug = ?,
				description = ?,
				parent_id = ?,
				color = ?
			WHERE id = ? AND deleted_at IS NULL`,
			formatTime(g.UpdatedAt),
			g.Name,
			g.Slug,
			nullString(g.Description),
			nullString(g.ParentID),
			nullString(g.Color),
			g.ID,
		)
		if err != nil {
			return mapWriteError(err, "genre")
		}

		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound.WithMessagef("genre %s not found", g.ID)
		}
		return nil
	})
}

// DeleteGenre soft-deletes a genre and drops its artist and event links.
// Returns store.ErrConflict while live child genres still point at it.
func (s *Store) DeleteGenre(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var children int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM genres WHERE parent_id = ? AND deleted_at IS NULL`, id).Scan(&children)
		if err != nil {
			return err
		}
		if children > 0 {
			return store.ErrConflict.WithMessagef("genre %s still has %d subgenres", id, children)
		}

		now := formatTime(time.Now())
		result, err := tx.ExecContext(ctx, `
			UPDATE genres SET deleted_at = ?, updated_at = ?
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
			return store.ErrNotFound.WithMessagef("genre %s not found", id)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM artist_genres WHERE genre_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM event_genres WHERE genre_id = ?`, id); err != nil {
			return err
		}
		return nil
	})
}
