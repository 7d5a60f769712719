package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
)

type saveAlbumRequest struct {
	AlbumID int64 `json:"albumId"`
}

type moveAlbumRequest struct {
	Position int `json:"position"`
}

func (s *Server) handleSavedList(w http.ResponseWriter, r *http.Request) {
	token := parseBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return
	}

	page, err := s.profile.Page(r.Context(), token, pageParam(r))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handlePublicList(w http.ResponseWriter, r *http.Request) {
	displayName := r.PathValue("displayName")
	if displayName == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing display name"})
		return
	}

	page, err := s.profile.PublicPage(r.Context(), displayName, pageParam(r))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleSaveAlbum(w http.ResponseWriter, r *http.Request) {
	token := parseBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return
	}

	var req saveAlbumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AlbumID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	landing, err := s.profile.Add(r.Context(), token, req.AlbumID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, landing)
}

func (s *Server) handleRemoveAlbum(w http.ResponseWriter, r *http.Request) {
	token := parseBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return
	}

	albumID, err := strconv.ParseInt(r.PathValue("albumID"), 10, 64)
	if err != nil || albumID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid album id"})
		return
	}

	landing, err := s.profile.Remove(r.Context(), token, albumID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, landing)
}

func (s *Server) handleMoveAlbum(w http.ResponseWriter, r *http.Request) {
	token := parseBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return
	}

	albumID, err := strconv.ParseInt(r.PathValue("albumID"), 10, 64)
	if err != nil || albumID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid album id"})
		return
	}

	var req moveAlbumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	landing, err := s.profile.Move(r.Context(), token, albumID, req.Position)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, landing)
}

// pageParam reads the requested page number; anything unparseable falls back
// to the first page.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
