package adapthttp

import (
	"net/http"
	"time"

	"glucotrack/internal/app"
)

const kindGlucose = "glucose"

func (s *Server) handleListGlucose(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	items, err := s.glucose.List(r.Context(), user.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleAddGlucose(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)

	var body app.GlucoseInput
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	entry, err := s.glucose.Add(r.Context(), user.ID, body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.metrics.RecordEntriesCreated(kindGlucose, 1)
	writeJSON(w, http.StatusCreated, map[string]any{"entry": entry})
}

func (s *Server) handleUpdateGlucose(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var body app.GlucoseInput
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	entry, err := s.glucose.Update(r.Context(), user.ID, id, body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
}

func (s *Server) handleDeleteGlucose(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.glucose.Delete(r.Context(), user.ID, id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.metrics.RecordEntriesDeleted(kindGlucose, 1)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleDeleteGlucoseLogs(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)

	var body deleteManyRequest
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	n, err := s.glucose.DeleteMany(r.Context(), user.ID, body.IDs)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.metrics.RecordEntriesDeleted(kindGlucose, n)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
}

func (s *Server) handleGlucoseStats(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	days := intQuery(r, "days", 14)
	if days > 366 {
		days = 366
	}
	since := time.Now().AddDate(0, 0, -days)

	stats, err := s.glucose.Stats(r.Context(), user.ID, since)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days, "stats": stats})
}
