package http

import (
	"net/http"
	"sort"
)

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request, _ string) {
	users, err := s.users.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	views := make([]profileView, 0, len(users))
	for username, u := range users {
		views = append(views, viewOf(username, u))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Username < views[j].Username })

	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request, admin string) {
	target := r.PathValue("username")
	if target == admin {
		writeError(w, http.StatusUnprocessableEntity, "impossibile eliminare il proprio account da amministratore")
		return
	}

	if err := s.users.Delete(r.Context(), target); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"stato": "utente eliminato"})
}
