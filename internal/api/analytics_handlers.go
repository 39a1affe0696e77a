package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/stagepass/stagepass-server/internal/analytics"
	"github.com/stagepass/stagepass-server/internal/domain"
	"github.com/stagepass/stagepass-server/internal/service"
)

func (s *Server) registerAnalyticsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "recordSession",
		Method:        http.MethodPost,
		Path:          "/api/v1/analytics/sessions",
		Summary:       "Record visitor session",
		Description:   "Stores a session from the site's tracking snippet. Posting again with the returned ID updates it.",
		Tags:          []string{"Analytics"},
		DefaultStatus: http.StatusAccepted,
		Middlewares:   huma.Middlewares{s.rateLimit(s.ingestLimiter)},
	}, s.handleRecordSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/analytics/sessions",
		Summary:     "List sessions",
		Description: "Filters, sorts and pages recorded sessions",
		Tags:        []string{"Analytics"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListSessions)

	huma.Register(s.api, huma.Operation{
		OperationID: "analyticsSummary",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/analytics/summary",
		Summary:     "Analytics summary",
		Description: "Aggregates sessions over a window; defaults to the last 30 days",
		Tags:        []string{"Analytics"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAnalyticsSummary)
}

// === DTOs ===

type RecordSessionRequest struct {
	ID          string     `json:"id,omitempty" doc:"Session ID from an earlier post"`
	VisitorID   string     `json:"visitor_id" minLength:"1" maxLength:"64" doc:"Anonymous visitor ID"`
	StartedAt   time.Time  `json:"started_at,omitempty" doc:"Session start; defaults to now"`
	EndedAt     *time.Time `json:"ended_at,omitempty" doc:"Session end"`
	LandingPage string     `json:"landing_page" minLength:"1" maxLength:"2048" doc:"First page path"`
	PageViews   int        `json:"page_views,omitempty" minimum:"0" doc:"Pages viewed so far"`
	Referrer    string     `json:"referrer,omitempty" maxLength:"2048" doc:"Referrer URL"`
	Country     string     `json:"country,omitempty" doc:"Country code"`
	Device      string     `json:"device,omitempty" enum:"desktop,mobile,tablet" doc:"Device class; defaults to desktop"`
	Converted   bool       `json:"converted,omitempty" doc:"Visitor clicked through to a ticket page"`
}

type RecordSessionInput struct {
	Body RecordSessionRequest
}

type SessionOutput struct {
	Body *domain.Session
}

type ListSessionsInput struct {
	Authorization string    `header:"Authorization"`
	Search        string    `query:"search" maxLength:"200" doc:"Substring of landing page or referrer"`
	Device        string    `query:"device" enum:"desktop,mobile,tablet" doc:"Device class"`
	Country       string    `query:"country" doc:"Country code"`
	Converted     string    `query:"converted" enum:"true,false" doc:"Conversion flag"`
	From          time.Time `query:"from" doc:"Started at or after (RFC 3339)"`
	To            time.Time `query:"to" doc:"Started before (RFC 3339)"`
	Sort          string    `query:"sort" doc:"Comma-separated fields, '-' prefix for descending (default -started_at)"`
	Offset        int       `query:"offset" minimum:"0" doc:"Items to skip"`
	Limit         int       `query:"limit" default:"50" minimum:"1" maximum:"1000" doc:"Items per page"`
}

type ListSessionsOutput struct {
	Body *analytics.Result
}

type AnalyticsSummaryInput struct {
	Authorization string    `header:"Authorization"`
	Device        string    `query:"device" enum:"desktop,mobile,tablet" doc:"Device class"`
	Country       string    `query:"country" doc:"Country code"`
	From          time.Time `query:"from" doc:"Window start (RFC 3339); defaults to 30 days ago"`
	To            time.Time `query:"to" doc:"Window end (RFC 3339)"`
	Top           int       `query:"top" default:"10" minimum:"0" maximum:"100" doc:"Number of top landing pages"`
}

type AnalyticsSummaryOutput struct {
	Body analytics.Summary
}

// === Handlers ===

func (s *Server) handleRecordSession(ctx context.Context, input *RecordSessionInput) (*SessionOutput, error) {
	b := input.Body
	sess, err := s.services.Analytics.RecordSession(ctx, service.RecordSessionRequest{
		ID:          b.ID,
		VisitorID:   b.VisitorID,
		StartedAt:   b.StartedAt,
		EndedAt:     b.EndedAt,
		LandingPage: b.LandingPage,
		PageViews:   b.PageViews,
		Referrer:    b.Referrer,
		Country:     b.Country,
		Device:      domain.Device(b.Device),
		Converted:   b.Converted,
	})
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: sess}, nil
}

func (s *Server) handleListSessions(ctx context.Context, input *ListSessionsInput) (*ListSessionsOutput, error) {
	if err := s.requireAdmin(input.Authorization); err != nil {
		return nil, err
	}

	res, err := s.services.Analytics.ListSessions(ctx, analytics.Query{
		Search:    input.Search,
		Device:    domain.Device(input.Device),
		Country:   input.Country,
		Converted: parseOptionalBool(input.Converted),
		From:      input.From,
		To:        input.To,
		Sort:      input.Sort,
		Offset:    input.Offset,
		Limit:     input.Limit,
	})
	if err != nil {
		return nil, err
	}
	res.Items = orEmpty(res.Items)
	return &ListSessionsOutput{Body: res}, nil
}

func (s *Server) handleAnalyticsSummary(ctx context.Context, input *AnalyticsSummaryInput) (*AnalyticsSummaryOutput, error) {
	if err := s.requireAdmin(input.Authorization); err != nil {
		return nil, err
	}

	sum, err := s.services.Analytics.Summary(ctx, analytics.Query{
		Device:  domain.Device(input.Device),
		Country: input.Country,
		From:    input.From,
		To:      input.To,
	}, input.Top)
	if err != nil {
		return nil, err
	}
	return &AnalyticsSummaryOutput{Body: sum}, nil
}

func parseOptionalBool(v string) *bool {
	switch v {
	case "true":
		b := true
		return &b
	case "false":
		b := false
		return &b
	default:
		return nil
	}
}
