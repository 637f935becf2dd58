package http

import (
	"net/http"
	"strings"
)

type mealRequest struct {
	Type        string `json:"tipo"`
	Description string `json:"descrizione"`
	Timestamp   string `json:"data_ora"`
}

func (s *Server) handleListMeals(w http.ResponseWriter, r *http.Request, username string) {
	meals, err := s.meals.List(r.Context(), username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meals)
}

func (s *Server) handleCreateMeal(w http.ResponseWriter, r *http.Request, username string) {
	var req mealRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		writeError(w, http.StatusUnprocessableEntity, "la descrizione è obbligatoria")
		return
	}

	meal, err := s.meals.Create(r.Context(), username, req.Type, req.Description, req.Timestamp)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, meal)
}

func (s *Server) handleUpdateMeal(w http.ResponseWriter, r *http.Request, username string) {
	index, err := parseIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "indice non valido")
		return
	}

	var req mealRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		writeError(w, http.StatusUnprocessableEntity, "la descrizione è obbligatoria")
		return
	}

	meal, err := s.meals.Update(r.Context(), username, index, req.Type, req.Description, req.Timestamp)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

func (s *Server) handleDeleteMeal(w http.ResponseWriter, r *http.Request, username string) {
	index, err := parseIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "indice non valido")
		return
	}

	if err := s.meals.Delete(r.Context(), username, index); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"stato": "eliminato"})
}
