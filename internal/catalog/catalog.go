package catalog

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNoResults signals an empty search result set.
	ErrNoResults = errors.New("no catalog results")
	// ErrReleaseNotFound signals the catalog has no release with the requested id.
	ErrReleaseNotFound = errors.New("release not found")
	// ErrUnavailable indicates the catalog did not answer (transport failure,
	// timeout, or a 5xx response). Safe to surface as retryable.
	ErrUnavailable = errors.New("catalog unavailable")
)

// SearchQuery narrows a catalog search. Zero-value fields are omitted from
// the request; ReleaseID short-circuits to an exact lookup.
type SearchQuery struct {
	Artist    string
	Title     string
	Year      string
	ReleaseID int64
}

// SearchResult is the summary record returned per candidate release.
type SearchResult struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Year       string `json:"year"`
	Country    string `json:"country"`
	CoverImage string `json:"cover_image"`
	Thumb      string `json:"thumb"`
}

// Artist is one credited artist on a release.
type Artist struct {
	Name string `json:"name"`
}

// Image is one piece of release artwork.
type Image struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
}

// Track is a raw tracklist entry. Position and Type come straight from the
// catalog: headings carry Type "heading", and bonus-video rows are marked by
// a Position label starting with "video".
type Track struct {
	Position string `json:"position"`
	Type     string `json:"type_"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
}

// Video is a bonus-video entry on a release.
type Video struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Release is the full catalog record for one pressing of an album.
type Release struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Artists   []Artist `json:"artists"`
	Year      int      `json:"year"`
	Country   string   `json:"country"`
	Images    []Image  `json:"images"`
	Genres    []string `json:"genres"`
	Styles    []string `json:"styles"`
	Tracklist []Track  `json:"tracklist"`
	Videos    []Video  `json:"videos"`
}

// ArtistName joins the credited artists for display.
func (r *Release) ArtistName() string {
	names := make([]string, 0, len(r.Artists))
	for _, a := range r.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}

// CoverURL returns the primary image, falling back to the first one.
func (r *Release) CoverURL() string {
	for _, img := range r.Images {
		if img.Type == "primary" {
			return img.URI
		}
	}
	if len(r.Images) > 0 {
		return r.Images[0].URI
	}
	return ""
}

// Client is the external catalog boundary used by the services.
type Client interface {
	Search(ctx context.Context, query SearchQuery) ([]SearchResult, error)
	Release(ctx context.Context, id int64) (*Release, error)
}
