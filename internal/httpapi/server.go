// Package httpapi exposes the JSON API: account endpoints, catalog search,
// album details, and the saved-album list.
package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"musica/internal/app/albums"
	"musica/internal/app/profile"
	"musica/internal/app/users"
	"musica/internal/catalog"
	"musica/internal/store"
)

// UserService captures the account operations needed by the HTTP handlers.
type UserService interface {
	Signup(ctx context.Context, email, password, displayName string) error
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (store.User, error)
	GoogleAuthURL(state string) string
	GoogleCallback(ctx context.Context, code string) (string, error)
	RequestReset(ctx context.Context, email string) error
	ConfirmReset(ctx context.Context, token, newPassword string) error
}

// AlbumService exposes the album detail workflows.
type AlbumService interface {
	Find(ctx context.Context, query catalog.SearchQuery, token string) (albums.Detail, error)
	ByID(ctx context.Context, id int64, token string) (albums.Detail, error)
}

// ProfileService coordinates the saved-album list.
type ProfileService interface {
	Page(ctx context.Context, token string, page int) (profile.ListPage, error)
	PublicPage(ctx context.Context, displayName string, page int) (profile.ListPage, error)
	Add(ctx context.Context, token string, albumID int64) (profile.Landing, error)
	Remove(ctx context.Context, token string, albumID int64) (profile.Landing, error)
	Move(ctx context.Context, token string, albumID int64, newPosition int) (profile.Landing, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	users   UserService
	albums  AlbumService
	profile ProfileService
}

// New configures a Server over the given services.
func New(users UserService, albums AlbumService, profile ProfileService) *Server {
	return &Server{users: users, albums: albums, profile: profile}
}

// Routes exposes the HTTP handlers.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /api/v1/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/v1/auth/google", s.handleGoogleRedirect)
	mux.HandleFunc("GET /api/v1/auth/google/callback", s.handleGoogleCallback)
	mux.HandleFunc("POST /api/v1/auth/reset", s.handleResetRequest)
	mux.HandleFunc("POST /api/v1/auth/reset/confirm", s.handleResetConfirm)
	mux.HandleFunc("GET /api/v1/me", s.handleMe)

	mux.HandleFunc("GET /api/v1/search", s.handleSearch)
	mux.HandleFunc("GET /api/v1/albums/{id}", s.handleAlbum)

	mux.HandleFunc("GET /api/v1/me/albums", s.handleSavedList)
	mux.HandleFunc("POST /api/v1/me/albums", s.handleSaveAlbum)
	mux.HandleFunc("DELETE /api/v1/me/albums/{albumID}", s.handleRemoveAlbum)
	mux.HandleFunc("POST /api/v1/me/albums/{albumID}/move", s.handleMoveAlbum)
	mux.HandleFunc("GET /api/v1/users/{displayName}/albums", s.handlePublicList)

	return mux
}

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	if err := s.users.Signup(r.Context(), req.Email, req.Password, req.DisplayName); err != nil {
		switch {
		case errors.Is(err, store.ErrUserExists):
			writeJSON(w, http.StatusConflict, errorResponse{Error: "email or display name already taken"})
		default:
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	token, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		status := http.StatusUnauthorized
		if !errors.Is(err, store.ErrInvalidCredentials) {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := parseBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return
	}

	if err := s.users.Logout(r.Context(), token); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	token := parseBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return
	}

	user, err := s.users.Me(r.Context(), token)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// stateCookie carries the OAuth anti-forgery state between the redirect and
// the callback.
const stateCookie = "oauth_state"

func (s *Server) handleGoogleRedirect(w http.ResponseWriter, r *http.Request) {
	state, err := newState()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not start sign-in"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/api/v1/auth/google",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.users.GoogleAuthURL(state), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "state mismatch"})
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing authorization code"})
		return
	}

	token, err := s.users.GoogleCallback(r.Context(), code)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	if err := s.users.RequestReset(r.Context(), req.Email); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	if err := s.users.ConfirmReset(r.Context(), req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidResetToken):
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid or expired reset token"})
		case errors.Is(err, store.ErrResetNotRequested):
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		default:
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondError maps the service sentinels onto HTTP statuses.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrUnauthorized),
		errors.Is(err, store.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, store.ErrUserExists),
		errors.Is(err, store.ErrAlbumAlreadySaved):
		status = http.StatusConflict
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrSavedAlbumNotFound),
		errors.Is(err, catalog.ErrNoResults),
		errors.Is(err, catalog.ErrReleaseNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrInvalidPosition),
		errors.Is(err, store.ErrSamePosition):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrInvalidSavedAlbum):
		status = http.StatusBadRequest
	case errors.Is(err, catalog.ErrUnavailable):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func parseBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
