package analytics

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/stagepass/stagepass-server/internal/domain"
	"github.com/stagepass/stagepass-server/internal/store"
)

// Query describes a dashboard view over sessions. Zero values match everything.
type Query struct {
	Search    string        // Substring of landing page or referrer, case-insensitive
	Device    domain.Device // Exact device class
	Country   string        // Exact country code, case-insensitive
	Converted *bool         // Conversion flag
	From      time.Time     // Started at or after
	To        time.Time     // Started before
	Sort      string        // "-started_at,page_views"; default newest first
	Offset    int
	Limit     int // Zero means no limit
}

// Result is one page of sessions plus the size of the filtered set.
type Result struct {
	Items []*domain.Session `json:"items"`
	Total int               `json:"total"`
}

// SortKey is one field of a multi-key sort.
type SortKey struct {
	Field string
	Desc  bool
}

type sessionCompare func(a, b *domain.Session) int

var sortFields = map[string]sessionCompare{
	"started_at":   func(a, b *domain.Session) int { return a.StartedAt.Compare(b.StartedAt) },
	"duration":     func(a, b *domain.Session) int { return cmp.Compare(a.Duration(), b.Duration()) },
	"page_views":   func(a, b *domain.Session) int { return cmp.Compare(a.PageViews, b.PageViews) },
	"landing_page": func(a, b *domain.Session) int { return cmp.Compare(a.LandingPage, b.LandingPage) },
	"country":      func(a, b *domain.Session) int { return cmp.Compare(a.Country, b.Country) },
	"device":       func(a, b *domain.Session) int { return cmp.Compare(a.Device, b.Device) },
	"converted":    func(a, b *domain.Session) int { return cmp.Compare(boolRank(a.Converted), boolRank(b.Converted)) },
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// DefaultSort lists newest sessions first.
const DefaultSort = "-started_at"

// ParseSort parses a comma-separated list of fields, each optionally prefixed
// with "-" for descending order.
func ParseSort(s string) ([]SortKey, error) {
	if strings.TrimSpace(s) == "" {
		s = DefaultSort
	}

	var keys []SortKey
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key := SortKey{Field: part}
		if rest, ok := strings.CutPrefix(part, "-"); ok {
			key = SortKey{Field: rest, Desc: true}
		} else if rest, ok := strings.CutPrefix(part, "+"); ok {
			key.Field = rest
		}
		if _, ok := sortFields[key.Field]; !ok {
			return nil, store.ErrInvalidInput.WithMessagef("unknown sort field %q", key.Field)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Matches reports whether sess passes the query's filters.
func (q Query) Matches(sess *domain.Session) bool {
	if q.Device != "" && sess.Device != q.Device {
		return false
	}
	if q.Country != "" && !strings.EqualFold(sess.Country, q.Country) {
		return false
	}
	if q.Converted != nil && sess.Converted != *q.Converted {
		return false
	}
	if !q.From.IsZero() && sess.StartedAt.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && !sess.StartedAt.Before(q.To) {
		return false
	}
	if needle := strings.ToLower(strings.TrimSpace(q.Search)); needle != "" {
		if !strings.Contains(strings.ToLower(sess.LandingPage), needle) &&
			!strings.Contains(strings.ToLower(sess.Referrer), needle) {
			return false
		}
	}
	return true
}

// Apply filters, sorts and pages sessions. The input slice is not modified and
// ties keep input order.
func Apply(sessions []*domain.Session, q Query) (*Result, error) {
	keys, err := ParseSort(q.Sort)
	if err != nil {
		return nil, err
	}
	if q.Offset < 0 || q.Limit < 0 {
		return nil, store.ErrInvalidInput.WithMessage("offset and limit must not be negative")
	}

	filtered := make([]*domain.Session, 0, len(sessions))
	for _, s := range sessions {
		if s != nil && q.Matches(s) {
			filtered = append(filtered, s)
		}
	}

	slices.SortStableFunc(filtered, func(a, b *domain.Session) int {
		for _, k := range keys {
			c := sortFields[k.Field](a, b)
			if k.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})

	total := len(filtered)
	start := min(q.Offset, total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}

	return &Result{Items: filtered[start:end], Total: total}, nil
}
