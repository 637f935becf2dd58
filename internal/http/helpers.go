package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"dietario/internal/core"
	"dietario/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"errore": message})
}

// writeServiceError maps the domain errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidTimestamp):
		writeError(w, http.StatusUnprocessableEntity, "formato data/ora non valido, atteso GG/MM/AAAA - HH:MM")
	case errors.Is(err, core.ErrInvalidIndex):
		writeError(w, http.StatusNotFound, "record non trovato")
	case errors.Is(err, services.ErrIncompleteMeasurement):
		writeError(w, http.StatusUnprocessableEntity, "tutti i campi della misurazione sono obbligatori")
	case errors.Is(err, core.ErrUserExists):
		writeError(w, http.StatusConflict, "nome utente già in uso")
	case errors.Is(err, core.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "utente non trovato")
	case errors.Is(err, core.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "credenziali non valide")
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "url", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "errore interno")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "corpo della richiesta non valido")
		return false
	}
	return true
}

// parseIndex reads the positional index path segment.
func parseIndex(r *http.Request) (int, error) {
	return strconv.Atoi(r.PathValue("index"))
}

// parseRange reads the optional start/end query parameters, defaulting
// each missing bound to the last-30-days window.
func parseRange(r *http.Request) (core.DateRange, error) {
	return core.ParseRange(
		r.URL.Query().Get("start"),
		r.URL.Query().Get("end"),
		time.Now(),
	)
}
