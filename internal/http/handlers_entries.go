package http

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.ListEntries(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	payloads := make([]entryPayload, 0, len(entries))
	for _, e := range entries {
		payloads = append(payloads, fromEntry(e))
	}
	writeJSON(w, http.StatusOK, payloads)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.service.GetEntry(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fromEntry(e))
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var payload entryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	e, err := payload.toEntry()
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	created, err := s.service.CreateEntry(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateScenario(created.ScenarioID)
	writeJSON(w, http.StatusCreated, fromEntry(created))
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var payload entryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	payload.ID = r.PathValue("id")

	e, err := payload.toEntry()
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.service.UpdateEntry(r.Context(), e); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateScenario(e.ScenarioID)
	writeJSON(w, http.StatusOK, fromEntry(e))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	e, err := s.service.GetEntry(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.service.DeleteEntry(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateScenario(e.ScenarioID)
	w.WriteHeader(http.StatusNoContent)
}

// invalidateScenario drops cached read responses touched by a mutation.
// Base timeline changes affect every scenario view, so they flush the
// whole cache.
func (s *Server) invalidateScenario(scenarioID string) {
	if scenarioID == "" {
		s.projectionCache.DeleteByPrefix("")
		return
	}
	s.projectionCache.DeleteByPrefix(scenarioID + "|")
}
