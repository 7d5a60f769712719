package httpapi

import (
	"net/http"
	"strconv"

	"musica/internal/catalog"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	sq := catalog.SearchQuery{
		Artist: query.Get("artist"),
		Title:  query.Get("title"),
		Year:   query.Get("year"),
	}
	if sq.Artist == "" && sq.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "artist or title is required"})
		return
	}

	// The token is optional here: anonymous searches just lose the saved flag.
	token := parseBearerToken(r.Header.Get("Authorization"))

	detail, err := s.albums.Find(r.Context(), sq, token)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id parameter"})
		return
	}

	token := parseBearerToken(r.Header.Get("Authorization"))

	detail, err := s.albums.ByID(r.Context(), id, token)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
