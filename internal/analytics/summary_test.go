package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stagepass/stagepass-server/internal/domain"
)

func TestSummarize(t *testing.T) {
	sum := Summarize(fixtureSessions(), 2)

	assert.Equal(t, 4, sum.TotalSessions)
	assert.Equal(t, 3, sum.UniqueVisitors)
	assert.Equal(t, 2, sum.Conversions)
	assert.InDelta(t, 0.5, sum.ConversionRate, 1e-9)
	assert.InDelta(t, 3.75, sum.AvgPageViews, 1e-9)
	// Closed sessions: 120s, 600s, 30s.
	assert.InDelta(t, 250.0, sum.AvgDurationSeconds, 1e-9)

	assert.Equal(t, map[domain.Device]int{
		domain.DeviceMobile:  2,
		domain.DeviceDesktop: 1,
		domain.DeviceTablet:  1,
	}, sum.ByDevice)

	// All pages have one session; ties break by page.
	assert.Equal(t, []PageCount{
		{Page: "/", Sessions: 1},
		{Page: "/artists/peggy-gou", Sessions: 1},
	}, sum.TopLandingPages)

	assert.Equal(t, []DayCount{
		{Day: "2026-05-01", Sessions: 3, Conversions: 2},
		{Day: "2026-05-02", Sessions: 1, Conversions: 0},
	}, sum.PerDay)
}

func TestSummarize_Empty(t *testing.T) {
	sum := Summarize(nil, 5)

	assert.Zero(t, sum.TotalSessions)
	assert.Zero(t, sum.ConversionRate)
	assert.NotNil(t, sum.TopLandingPages)
	assert.NotNil(t, sum.PerDay)
}

func TestSummarize_TopPagesOrdering(t *testing.T) {
	sessions := []*domain.Session{
		{ID: "1", LandingPage: "/b", StartedAt: t0},
		{ID: "2", LandingPage: "/a", StartedAt: t0},
		{ID: "3", LandingPage: "/b", StartedAt: t0},
	}

	sum := Summarize(sessions, 0)

	assert.Equal(t, []PageCount{{Page: "/b", Sessions: 2}, {Page: "/a", Sessions: 1}}, sum.TopLandingPages)
}
