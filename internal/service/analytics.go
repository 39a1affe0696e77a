package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/stagepass/stagepass-server/internal/analytics"
	"github.com/stagepass/stagepass-server/internal/domain"
	domainerrors "github.com/stagepass/stagepass-server/internal/errors"
	"github.com/stagepass/stagepass-server/internal/id"
	"github.com/stagepass/stagepass-server/internal/normalize"
	"github.com/stagepass/stagepass-server/internal/validation"
)

// DefaultSummaryWindow is how far back Summary looks when no range is given.
const DefaultSummaryWindow = 30 * 24 * time.Hour

// AnalyticsService records visitor sessions and serves the dashboard views over them.
type AnalyticsService struct {
	store     *analytics.Store
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
	recorded  func()
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(st *analytics.Store, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{
		store:     st,
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
		recorded:  func() {},
	}
}

// SetRecordHook registers fn to run after every stored session.
func (s *AnalyticsService) SetRecordHook(fn func()) {
	s.recorded = fn
}

// RecordSessionRequest is what the site's tracking snippet posts.
// Posting again with the returned ID replaces the stored session, which is how
// the snippet reports page views and the end of a visit.
type RecordSessionRequest struct {
	ID          string        `json:"id,omitempty" validate:"omitempty,uuid"`
	VisitorID   string        `json:"visitor_id" validate:"required,max=64"`
	StartedAt   time.Time     `json:"started_at,omitempty"`
	EndedAt     *time.Time    `json:"ended_at,omitempty"`
	LandingPage string        `json:"landing_page" validate:"required,max=2048"`
	PageViews   int           `json:"page_views" validate:"gte=0,lte=10000"`
	Referrer    string        `json:"referrer,omitempty" validate:"max=2048"`
	Country     string        `json:"country,omitempty"`
	Device      domain.Device `json:"device,omitempty"`
	Converted   bool          `json:"converted"`
}

// RecordSession stores a session. StartedAt defaults to now and Device to desktop.
func (s *AnalyticsService) RecordSession(ctx context.Context, req RecordSessionRequest) (*domain.Session, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sess := &domain.Session{
		ID:          req.ID,
		VisitorID:   req.VisitorID,
		StartedAt:   req.StartedAt.UTC(),
		EndedAt:     utcPtr(req.EndedAt),
		LandingPage: strings.TrimSpace(req.LandingPage),
		PageViews:   req.PageViews,
		Referrer:    strings.TrimSpace(req.Referrer),
		Country:     normalize.CountryCode(req.Country),
		Device:      req.Device,
		Converted:   req.Converted,
	}
	if req.StartedAt.IsZero() {
		sess.StartedAt = now
		if req.ID != "" {
			// A follow-up post keeps the original start time.
			if prev, err := s.store.Get(ctx, req.ID); err == nil {
				sess.StartedAt = prev.StartedAt
			}
		}
	}
	if sess.Device == "" {
		sess.Device = domain.DeviceDesktop
	}
	if !sess.Device.Valid() {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"device": "must be one of: desktop mobile tablet",
		})
	}
	if sess.StartedAt.After(now.Add(time.Minute)) {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"started_at": "must not be in the future",
		})
	}
	if sess.EndedAt != nil && sess.EndedAt.Before(sess.StartedAt) {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"ended_at": "must not be before started_at",
		})
	}
	if sess.ID == "" {
		sessionID, err := id.NewSessionID()
		if err != nil {
			return nil, err
		}
		sess.ID = sessionID
	}

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.recorded()

	s.logger.Debug("session recorded", "id", sess.ID, "landing_page", sess.LandingPage)
	return sess, nil
}

// GetSession returns a stored session.
func (s *AnalyticsService) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.store.Get(ctx, sessionID)
}

// ListSessions filters, sorts and pages the sessions inside q's time window.
func (s *AnalyticsService) ListSessions(ctx context.Context, q analytics.Query) (*analytics.Result, error) {
	// Validate the sort before scanning.
	if _, err := analytics.ParseSort(q.Sort); err != nil {
		return nil, err
	}
	sessions, err := s.store.List(ctx, q.From, q.To)
	if err != nil {
		return nil, err
	}
	return analytics.Apply(sessions, q)
}

// Summary aggregates the sessions matching q. With no From, the window is the
// last DefaultSummaryWindow. Sorting and paging fields of q are ignored.
func (s *AnalyticsService) Summary(ctx context.Context, q analytics.Query, topPages int) (analytics.Summary, error) {
	if q.From.IsZero() {
		q.From = s.now().UTC().Add(-DefaultSummaryWindow)
	}
	q.Sort, q.Offset, q.Limit = "", 0, 0

	sessions, err := s.store.List(ctx, q.From, q.To)
	if err != nil {
		return analytics.Summary{}, err
	}
	res, err := analytics.Apply(sessions, q)
	if err != nil {
		return analytics.Summary{}, err
	}
	return analytics.Summarize(res.Items, topPages), nil
}
