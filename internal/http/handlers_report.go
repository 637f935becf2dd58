package http

import (
	"net/http"
)

func (s *Server) handleMealReport(w http.ResponseWriter, r *http.Request, username string) {
	dateRange, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "intervallo date non valido, atteso AAAA-MM-GG")
		return
	}
	analyze := r.URL.Query().Get("analizza") == "true"

	report, err := s.reports.MealReport(r.Context(), username, dateRange, analyze)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleMeasurementReport(w http.ResponseWriter, r *http.Request, username string) {
	dateRange, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "intervallo date non valido, atteso AAAA-MM-GG")
		return
	}

	report, err := s.reports.MeasurementReport(r.Context(), username, dateRange)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
