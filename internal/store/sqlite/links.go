package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// link describes an ordered many-to-many join table.
type link struct {
	table string // "artist_genres"
	owner string // "artist_id"
	other string // "genre_id"
}

var (
	artistGenres = link{table: "artist_genres", owner: "artist_id", other: "genre_id"}
	eventArtists = link{table: "event_artists", owner: "event_id", other: "artist_id"}
	eventGenres  = link{table: "event_genres", owner: "event_id", other: "genre_id"}
)

// replace swaps the owner's links for ids, keeping their order. Duplicate IDs
// are collapsed to their first position.
func (l link) replace(ctx context.Context, tx *sql.Tx, ownerID string, ids []string) error {
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, l.table, l.owner), ownerID); err != nil {
		return fmt.Errorf("clear %s: %w", l.table, err)
	}

	insert := fmt.Sprintf(`INSERT OR IGNORE INTO %s (%s, %s, position) VALUES (?, ?, ?)`,
		l.table, l.owner, l.other)
	for i, id := range ids {
		if _, err := tx.ExecContext(ctx, insert, ownerID, id, i); err != nil {
			return mapWriteError(err, l.table)
		}
	}
	return nil
}

// load returns the linked IDs for each owner, in stored order.
func (l link) load(ctx context.Context, q interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}, ownerIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return out, nil
	}

	rows, err := q.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s, %s FROM %s WHERE %s IN (%s) ORDER BY %s, position`,
		l.owner, l.other, l.table, l.owner, placeholders(len(ownerIDs)), l.owner), idsOf(ownerIDs)...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", l.table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var owner, other string
		if err := rows.Scan(&owner, &other); err != nil {
			return nil, err
		}
		out[owner] = append(out[owner], other)
	}
	return out, rows.Err()
}

// idsOf converts strings to query arguments.
func idsOf(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
