package store

import (
	"encoding/base64"
	"fmt"
	"strconv"
)

// PaginationParams contains pagination request parameters.
type PaginationParams struct {
	Limit  int    // Items per page (defaults to 50, at most 500)
	Cursor string // Opaque cursor for the next page (empty for the first page)
}

// PaginatedResult contains one page of items and the cursor to the next.
type PaginatedResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"` // Empty if no more pages
	HasMore    bool   `json:"has_more"`
	Total      int    `json:"total"`
}

// DefaultPaginationParams returns sensible defaults.
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{Limit: 50}
}

// Validate clamps the limit into range.
func (p *PaginationParams) Validate() {
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Limit > 500 {
		p.Limit = 500
	}
}

// Offset decodes the cursor as a row offset. An empty cursor is offset 0.
func (p PaginationParams) Offset() (int, error) {
	key, err := DecodeCursor(p.Cursor)
	if err != nil {
		return 0, err
	}
	if key == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(key)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid cursor offset %q", key)
	}
	return n, nil
}

// EncodeCursor creates an opaque cursor from a key.
// SQLite listings use the next row offset; Badger scans use the last key seen.
func EncodeCursor(key string) string {
	if key == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(key))
}

// EncodeOffset creates an opaque cursor for a row offset.
func EncodeOffset(offset int) string {
	return EncodeCursor(strconv.Itoa(offset))
}

// DecodeCursor decodes a cursor back to a key.
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("invalid cursor: %w", err)
	}

	return string(decoded), nil
}
