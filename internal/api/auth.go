package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	domainerrors "github.com/stagepass/stagepass-server/internal/errors"
	"github.com/stagepass/stagepass-server/internal/http/response"
)

// requireAdmin checks the static admin bearer key.
//
// With no key configured the admin surface is open in development and closed
// everywhere else.
func (s *Server) requireAdmin(authHeader string) error {
	if s.adminKey == "" {
		if s.devMode {
			return nil
		}
		return domainerrors.Forbidden("admin API is disabled")
	}

	if authHeader == "" {
		return domainerrors.Unauthorized("missing authorization header")
	}
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return domainerrors.Unauthorized("invalid authorization header format")
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(s.adminKey)) != 1 {
		return domainerrors.Unauthorized("invalid admin key")
	}
	return nil
}

// requireAdminHTTP applies requireAdmin to plain chi routes such as /metrics.
func (s *Server) requireAdminHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.requireAdmin(r.Header.Get("Authorization")); err != nil {
			response.HandleError(w, err, s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}
