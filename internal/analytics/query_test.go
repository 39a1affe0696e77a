package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagepass/stagepass-server/internal/domain"
	"github.com/stagepass/stagepass-server/internal/store"
)

func fixtureSessions() []*domain.Session {
	end := func(start time.Time, d time.Duration) *time.Time {
		e := start.Add(d)
		return &e
	}
	s1 := &domain.Session{ID: "1", VisitorID: "v1", StartedAt: t0, LandingPage: "/artists/peggy-gou", PageViews: 3, Country: "GB", Device: domain.DeviceMobile, Referrer: "https://instagram.com"}
	s2 := &domain.Session{ID: "2", VisitorID: "v2", StartedAt: t0.Add(time.Hour), LandingPage: "/events/warehouse", PageViews: 8, Country: "DE", Device: domain.DeviceDesktop, Converted: true}
	s3 := &domain.Session{ID: "3", VisitorID: "v1", StartedAt: t0.Add(2 * time.Hour), LandingPage: "/events/open-air", PageViews: 3, Country: "gb", Device: domain.DeviceMobile, Converted: true}
	s4 := &domain.Session{ID: "4", VisitorID: "v3", StartedAt: t0.Add(24 * time.Hour), LandingPage: "/", PageViews: 1, Country: "FR", Device: domain.DeviceTablet, Referrer: "https://google.com/search?q=events"}
	s1.EndedAt = end(s1.StartedAt, 2*time.Minute)
	s2.EndedAt = end(s2.StartedAt, 10*time.Minute)
	s4.EndedAt = end(s4.StartedAt, 30*time.Second)
	return []*domain.Session{s1, s2, s3, s4}
}

func resultIDs(r *Result) []string {
	out := make([]string, len(r.Items))
	for i, s := range r.Items {
		out[i] = s.ID
	}
	return out
}

func TestParseSort(t *testing.T) {
	keys, err := ParseSort("-started_at, page_views,+country")
	require.NoError(t, err)
	assert.Equal(t, []SortKey{
		{Field: "started_at", Desc: true},
		{Field: "page_views"},
		{Field: "country"},
	}, keys)

	keys, err = ParseSort("")
	require.NoError(t, err)
	assert.Equal(t, []SortKey{{Field: "started_at", Desc: true}}, keys)

	_, err = ParseSort("-password")
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestApply(t *testing.T) {
	yes := true
	no := false

	tests := []struct {
		name  string
		query Query
		want  []string
		total int
	}{
		{name: "default newest first", query: Query{}, want: []string{"4", "3", "2", "1"}, total: 4},
		{name: "search landing page", query: Query{Search: "EVENTS/"}, want: []string{"3", "2"}, total: 2},
		{name: "search referrer", query: Query{Search: "instagram"}, want: []string{"1"}, total: 1},
		{name: "device", query: Query{Device: domain.DeviceMobile}, want: []string{"3", "1"}, total: 2},
		{name: "country ignores case", query: Query{Country: "GB", Sort: "started_at"}, want: []string{"1", "3"}, total: 2},
		{name: "converted", query: Query{Converted: &yes, Sort: "started_at"}, want: []string{"2", "3"}, total: 2},
		{name: "not converted", query: Query{Converted: &no, Sort: "started_at"}, want: []string{"1", "4"}, total: 2},
		{name: "window", query: Query{From: t0.Add(time.Hour), To: t0.Add(24 * time.Hour), Sort: "started_at"}, want: []string{"2", "3"}, total: 2},
		{name: "multi-key sort keeps ties stable", query: Query{Sort: "-page_views,started_at"}, want: []string{"2", "1", "3", "4"}, total: 4},
		{name: "duration", query: Query{Sort: "-duration"}, want: []string{"2", "1", "4", "3"}, total: 4},
		{name: "page", query: Query{Sort: "started_at", Offset: 1, Limit: 2}, want: []string{"2", "3"}, total: 4},
		{name: "offset past end", query: Query{Offset: 10}, want: []string{}, total: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Apply(fixtureSessions(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resultIDs(res))
			assert.Equal(t, tt.total, res.Total)
		})
	}
}

func TestApply_DoesNotReorderInput(t *testing.T) {
	input := fixtureSessions()

	_, err := Apply(input, Query{Sort: "-page_views"})
	require.NoError(t, err)

	assert.Equal(t, "1", input[0].ID)
	assert.Equal(t, "4", input[3].ID)
}

func TestApply_Errors(t *testing.T) {
	_, err := Apply(fixtureSessions(), Query{Sort: "bogus"})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = Apply(fixtureSessions(), Query{Limit: -1})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}
