package adapthttp

import (
	"net/http"

	"glucotrack/internal/app"
)

const kindWeight = "weight"

type deleteManyRequest struct {
	IDs []int64 `json:"ids"`
}

func (s *Server) handleListWeights(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	items, err := s.weight.List(r.Context(), user.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleAddWeight(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)

	var body app.WeightInput
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	entry, err := s.weight.Add(r.Context(), user.ID, body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.metrics.RecordEntriesCreated(kindWeight, 1)
	writeJSON(w, http.StatusCreated, map[string]any{"entry": entry})
}

func (s *Server) handleUpdateWeight(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var body app.WeightInput
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	entry, err := s.weight.Update(r.Context(), user.ID, id, body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
}

func (s *Server) handleDeleteWeight(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.weight.Delete(r.Context(), user.ID, id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.metrics.RecordEntriesDeleted(kindWeight, 1)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleDeleteWeights(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)

	var body deleteManyRequest
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	n, err := s.weight.DeleteMany(r.Context(), user.ID, body.IDs)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.metrics.RecordEntriesDeleted(kindWeight, n)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
}
