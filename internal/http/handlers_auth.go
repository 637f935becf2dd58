package http

import (
	"net/http"
	"strings"

	"dietario/internal/core"
)

type registerRequest struct {
	Username        string  `json:"username"`
	Password        string  `json:"password"`
	ConfirmPassword string  `json:"conferma_password"`
	Name            string  `json:"nome"`
	Surname         string  `json:"cognome"`
	Email           string  `json:"email"`
	Sex             string  `json:"sesso"`
	Age             int     `json:"eta"`
	InitialWeight   float64 `json:"peso_iniziale"`
	Height          int     `json:"altezza"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "username e password sono obbligatori")
		return
	}
	if req.Password != req.ConfirmPassword {
		writeError(w, http.StatusUnprocessableEntity, "le password non coincidono")
		return
	}

	profile := core.User{
		Name:          req.Name,
		Surname:       req.Surname,
		Email:         req.Email,
		Sex:           req.Sex,
		Age:           req.Age,
		InitialWeight: req.InitialWeight,
		Height:        req.Height,
	}
	if err := s.users.Register(r.Context(), req.Username, req.Password, profile); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"username": req.Username})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := s.users.Authenticate(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	token, expires, err := s.sessions.issue(strings.TrimSpace(req.Username))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.sessions.setCookie(w, token, expires)

	writeJSON(w, http.StatusOK, map[string]any{
		"username": strings.TrimSpace(req.Username),
		"admin":    user.Admin,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.clearCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"stato": "disconnesso"})
}

// profileView is a User without the password hash.
type profileView struct {
	Username      string  `json:"username"`
	Name          string  `json:"nome"`
	Surname       string  `json:"cognome"`
	Email         string  `json:"email"`
	Sex           string  `json:"sesso"`
	Age           int     `json:"eta"`
	InitialWeight float64 `json:"peso_iniziale"`
	Height        int     `json:"altezza"`
	Admin         bool    `json:"admin,omitempty"`
}

func viewOf(username string, u core.User) profileView {
	return profileView{
		Username:      username,
		Name:          u.Name,
		Surname:       u.Surname,
		Email:         u.Email,
		Sex:           u.Sex,
		Age:           u.Age,
		InitialWeight: u.InitialWeight,
		Height:        u.Height,
		Admin:         u.Admin,
	}
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request, username string) {
	user, err := s.users.Get(r.Context(), username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(username, user))
}

type updateProfileRequest struct {
	Name          string  `json:"nome"`
	Surname       string  `json:"cognome"`
	Email         string  `json:"email"`
	Sex           string  `json:"sesso"`
	Age           int     `json:"eta"`
	InitialWeight float64 `json:"peso_iniziale"`
	Height        int     `json:"altezza"`
	NewPassword   string  `json:"nuova_password"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, username string) {
	var req updateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	profile := core.User{
		Name:          req.Name,
		Surname:       req.Surname,
		Email:         req.Email,
		Sex:           req.Sex,
		Age:           req.Age,
		InitialWeight: req.InitialWeight,
		Height:        req.Height,
	}
	if err := s.users.UpdateProfile(r.Context(), username, profile, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, err := s.users.Get(r.Context(), username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(username, user))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request, username string) {
	if err := s.users.Delete(r.Context(), username); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.sessions.clearCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"stato": "account eliminato"})
}
