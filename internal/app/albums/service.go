// Package albums assembles the album detail view: a catalog search narrowed
// to one canonical release, its formatted tracklist, and the bonus videos
// aligned against the track titles.
package albums

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"musica/internal/catalog"
	"musica/internal/store"
)

// SavedChecker answers whether a release is already on the viewer's list.
type SavedChecker interface {
	IsAlbumSaved(ctx context.Context, token string, albumID int64) (bool, error)
}

// Detail is the album view served by search and by direct id lookup.
type Detail struct {
	AlbumID  int64               `json:"albumId"`
	Artist   string              `json:"artist"`
	Title    string              `json:"title"`
	Year     string              `json:"year"`
	CoverURL string              `json:"coverUrl"`
	Genres   []string            `json:"genres"`
	Tracks   []string            `json:"trackList"`
	Videos   []catalog.VideoLink `json:"videos"`
	Saved    bool                `json:"saved"`
}

// Service builds album details from the external catalog.
type Service struct {
	catalog catalog.Client
	saved   SavedChecker
}

// New wires the album service.
func New(c catalog.Client, saved SavedChecker) *Service {
	return &Service{catalog: c, saved: saved}
}

// Find searches the catalog, picks the canonical release among the results,
// and returns its full detail view. The token is optional; when present the
// view carries the already-saved flag.
func (s *Service) Find(ctx context.Context, query catalog.SearchQuery, token string) (Detail, error) {
	results, err := s.catalog.Search(ctx, query)
	if err != nil {
		return Detail{}, fmt.Errorf("search catalog: %w", err)
	}

	picked, err := catalog.PickCanonical(results)
	if err != nil {
		return Detail{}, err
	}

	return s.ByID(ctx, picked.ID, token)
}

// ByID fetches one release and assembles its detail view.
func (s *Service) ByID(ctx context.Context, id int64, token string) (Detail, error) {
	release, err := s.catalog.Release(ctx, id)
	if err != nil {
		return Detail{}, fmt.Errorf("fetch release %d: %w", id, err)
	}

	artist := release.ArtistName()
	detail := Detail{
		AlbumID:  release.ID,
		Artist:   artist,
		Title:    release.Title,
		Year:     formatYear(release.Year),
		CoverURL: release.CoverURL(),
		Genres:   append(append([]string{}, release.Genres...), release.Styles...),
		Tracks:   catalog.FormatTracklist(release.Tracklist),
		Videos:   catalog.AlignVideos(artist, release.Videos, release.Tracklist),
	}

	if token != "" {
		saved, err := s.saved.IsAlbumSaved(ctx, token, release.ID)
		if err != nil {
			// A stale session should not break an otherwise public view.
			if !errors.Is(err, store.ErrUnauthorized) {
				return Detail{}, fmt.Errorf("check saved flag: %w", err)
			}
		} else {
			detail.Saved = saved
		}
	}

	return detail, nil
}

func formatYear(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}
