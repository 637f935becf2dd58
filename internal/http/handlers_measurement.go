package http

import (
	"net/http"

	"dietario/internal/core"
)

func (s *Server) handleListMeasurements(w http.ResponseWriter, r *http.Request, username string) {
	ms, err := s.measurements.List(r.Context(), username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

func (s *Server) handleLatestMeasurement(w http.ResponseWriter, r *http.Request, username string) {
	latest, err := s.measurements.Latest(r.Context(), username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if latest == nil {
		writeError(w, http.StatusNotFound, "nessuna misurazione registrata")
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

func (s *Server) handleCreateMeasurement(w http.ResponseWriter, r *http.Request, username string) {
	var m core.Measurement
	if !decodeBody(w, r, &m) {
		return
	}
	m.User = username

	created, err := s.measurements.Create(r.Context(), m)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateMeasurement(w http.ResponseWriter, r *http.Request, username string) {
	index, err := parseIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "indice non valido")
		return
	}

	var m core.Measurement
	if !decodeBody(w, r, &m) {
		return
	}

	updated, err := s.measurements.Update(r.Context(), username, index, m)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteMeasurement(w http.ResponseWriter, r *http.Request, username string) {
	index, err := parseIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "indice non valido")
		return
	}

	if err := s.measurements.Delete(r.Context(), username, index); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"stato": "eliminato"})
}
