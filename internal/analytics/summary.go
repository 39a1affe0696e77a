package analytics

import (
	"cmp"
	"slices"
	"time"

	"github.com/stagepass/stagepass-server/internal/domain"
)

// PageCount is a landing page and how many sessions started on it.
type PageCount struct {
	Page     string `json:"page"`
	Sessions int    `json:"sessions"`
}

// DayCount is the number of sessions that started on a UTC day.
type DayCount struct {
	Day         string `json:"day"` // 2006-01-02
	Sessions    int    `json:"sessions"`
	Conversions int    `json:"conversions"`
}

// Summary aggregates sessions for the dashboard header cards and charts.
type Summary struct {
	TotalSessions      int                   `json:"total_sessions"`
	UniqueVisitors     int                   `json:"unique_visitors"`
	Conversions        int                   `json:"conversions"`
	ConversionRate     float64               `json:"conversion_rate"` // 0..1
	AvgDurationSeconds float64               `json:"avg_duration_seconds"`
	AvgPageViews       float64               `json:"avg_page_views"`
	ByDevice           map[domain.Device]int `json:"by_device"`
	TopLandingPages    []PageCount           `json:"top_landing_pages"`
	PerDay             []DayCount            `json:"per_day"` // Oldest first
}

// Summarize aggregates sessions. Average duration only counts closed sessions.
// topPages bounds TopLandingPages; zero or less keeps every page.
func Summarize(sessions []*domain.Session, topPages int) Summary {
	sum := Summary{
		ByDevice:        map[domain.Device]int{},
		TopLandingPages: []PageCount{},
		PerDay:          []DayCount{},
	}

	visitors := make(map[string]struct{})
	pages := make(map[string]int)
	days := make(map[string]*DayCount)
	var (
		totalDuration time.Duration
		closed        int
		totalViews    int
	)

	for _, s := range sessions {
		if s == nil {
			continue
		}
		sum.TotalSessions++
		visitors[s.VisitorID] = struct{}{}
		pages[s.LandingPage]++
		totalViews += s.PageViews
		if s.Device != "" {
			sum.ByDevice[s.Device]++
		}
		if s.EndedAt != nil {
			totalDuration += s.Duration()
			closed++
		}

		day := s.StartedAt.UTC().Format(time.DateOnly)
		dc, ok := days[day]
		if !ok {
			dc = &DayCount{Day: day}
			days[day] = dc
		}
		dc.Sessions++
		if s.Converted {
			sum.Conversions++
			dc.Conversions++
		}
	}

	sum.UniqueVisitors = len(visitors)
	if sum.TotalSessions > 0 {
		sum.ConversionRate = float64(sum.Conversions) / float64(sum.TotalSessions)
		sum.AvgPageViews = float64(totalViews) / float64(sum.TotalSessions)
	}
	if closed > 0 {
		sum.AvgDurationSeconds = totalDuration.Seconds() / float64(closed)
	}

	for page, n := range pages {
		sum.TopLandingPages = append(sum.TopLandingPages, PageCount{Page: page, Sessions: n})
	}
	slices.SortFunc(sum.TopLandingPages, func(a, b PageCount) int {
		if c := cmp.Compare(b.Sessions, a.Sessions); c != 0 {
			return c
		}
		return cmp.Compare(a.Page, b.Page)
	})
	if topPages > 0 && len(sum.TopLandingPages) > topPages {
		sum.TopLandingPages = sum.TopLandingPages[:topPages]
	}

	for _, dc := range days {
		sum.PerDay = append(sum.PerDay, *dc)
	}
	slices.SortFunc(sum.PerDay, func(a, b DayCount) int { return cmp.Compare(a.Day, b.Day) })

	return sum
}
