package http

import (
	"encoding/json"
	"net/http"
	"strings"
)

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := s.service.ListScenarios(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	payloads := make([]scenarioPayload, 0, len(scenarios))
	for _, sc := range scenarios {
		payloads = append(payloads, scenarioPayload{
			ID:          sc.ID,
			Name:        sc.Name,
			Description: sc.Description,
		})
	}
	writeJSON(w, http.StatusOK, payloads)
}

func (s *Server) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	var payload scenarioPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		writeBadRequest(w, "scenario name is required")
		return
	}

	sc, err := s.service.CreateScenario(r.Context(), payload.Name, payload.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, scenarioPayload{
		ID:          sc.ID,
		Name:        sc.Name,
		Description: sc.Description,
	})
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.service.ListAccounts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	payloads := make([]balancePayload, 0, len(accounts))
	for _, a := range accounts {
		payloads = append(payloads, balancePayload{
			ID:           a.ID,
			Name:         a.Name,
			BalanceCents: a.Balance.Cents,
		})
	}
	writeJSON(w, http.StatusOK, payloads)
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := s.service.ListDebts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	payloads := make([]balancePayload, 0, len(debts))
	for _, d := range debts {
		payloads = append(payloads, balancePayload{
			ID:           d.ID,
			Name:         d.Name,
			BalanceCents: d.Balance.Cents,
		})
	}
	writeJSON(w, http.StatusOK, payloads)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.service.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	payloads := make([]categoryPayload, 0, len(cats))
	for _, c := range cats {
		payloads = append(payloads, categoryPayload{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			IsPos:       c.IsPos,
		})
	}
	writeJSON(w, http.StatusOK, payloads)
}
