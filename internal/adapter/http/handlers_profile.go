package adapthttp

import (
	"net/http"
	"time"

	"glucotrack/internal/domain"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	profile, err := s.profile.GetProfile(r.Context(), user.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)

	var body domain.ProfileUpdate
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	profile, err := s.profile.UpdateProfile(r.Context(), user.ID, body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
}

func (s *Server) handleProfileMetrics(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	m, err := s.profile.Metrics(r.Context(), user.ID, time.Now())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"metrics": m})
}
