// Package profile runs the saved-album list workflows: the paged list view,
// and the add/remove/move mutations together with the page the client should
// land on afterwards.
package profile

import (
	"context"
	"fmt"

	"musica/internal/catalog"
	"musica/internal/paging"
	"musica/internal/store"
)

// ListStore is the persistence surface of the saved list.
type ListStore interface {
	SaveAlbum(ctx context.Context, token string, album store.SavedAlbum) (int, error)
	RemoveSavedAlbum(ctx context.Context, token string, albumID int64) (int, int, error)
	MoveSavedAlbum(ctx context.Context, token string, albumID int64, newPosition int) error
	SavedAlbumsPage(ctx context.Context, token string, offset, limit int) ([]store.SavedAlbum, int, error)
	PublicSavedAlbumsPage(ctx context.Context, displayName string, offset, limit int) ([]store.SavedAlbum, int, error)
}

// ListPage is one page of a saved list plus its pagination frame.
type ListPage struct {
	Items       []store.SavedAlbum `json:"items"`
	CurrentPage int                `json:"currentPage"`
	PageCount   int                `json:"pageCount"`
	TotalCount  int                `json:"totalCount"`
}

// Landing names the page a client should show after a list mutation, and the
// list position the affected album ended up at (zero after a removal).
type Landing struct {
	Page     int `json:"page"`
	Position int `json:"position,omitempty"`
}

// Service runs the saved-list workflows.
type Service struct {
	store   ListStore
	catalog catalog.Client
}

// New wires the profile service.
func New(list ListStore, c catalog.Client) *Service {
	return &Service{store: list, catalog: c}
}

// Page serves one page of the owner's list. Out-of-range page numbers are
// clamped into the valid range, never rejected.
func (s *Service) Page(ctx context.Context, token string, requested int) (ListPage, error) {
	return s.page(ctx, requested, func(offset, limit int) ([]store.SavedAlbum, int, error) {
		return s.store.SavedAlbumsPage(ctx, token, offset, limit)
	})
}

// PublicPage serves one page of another user's list, addressed by the public
// display-name handle.
func (s *Service) PublicPage(ctx context.Context, displayName string, requested int) (ListPage, error) {
	return s.page(ctx, requested, func(offset, limit int) ([]store.SavedAlbum, int, error) {
		return s.store.PublicSavedAlbumsPage(ctx, displayName, offset, limit)
	})
}

func (s *Service) page(ctx context.Context, requested int, fetch func(offset, limit int) ([]store.SavedAlbum, int, error)) (ListPage, error) {
	if requested < 1 {
		requested = 1
	}

	items, total, err := fetch(paging.Offset(requested), paging.PageSize)
	if err != nil {
		return ListPage{}, err
	}

	// The requested page may lie past the end of the list; the total from the
	// first query tells us where the list actually ends.
	page := paging.Clamp(requested, paging.PageCount(total))
	if page != requested {
		items, total, err = fetch(paging.Offset(page), paging.PageSize)
		if err != nil {
			return ListPage{}, err
		}
	}

	return ListPage{
		Items:       items,
		CurrentPage: page,
		PageCount:   paging.PageCount(total),
		TotalCount:  total,
	}, nil
}

// Add fetches the release from the catalog, formats it for the list, and
// appends it to the end of the owner's list.
func (s *Service) Add(ctx context.Context, token string, albumID int64) (Landing, error) {
	release, err := s.catalog.Release(ctx, albumID)
	if err != nil {
		return Landing{}, fmt.Errorf("fetch release %d: %w", albumID, err)
	}

	album := store.SavedAlbum{
		AlbumID:  release.ID,
		Title:    listTitle(release),
		Year:     formatYear(release.Year),
		CoverURL: release.CoverURL(),
		Tracks:   catalog.FormatTracklist(release.Tracklist),
	}

	position, err := s.store.SaveAlbum(ctx, token, album)
	if err != nil {
		return Landing{}, err
	}
	return Landing{Page: paging.PageOf(position), Position: position}, nil
}

// Remove deletes the album and reports the page that held it, clamped in case
// the removal emptied the last page.
func (s *Service) Remove(ctx context.Context, token string, albumID int64) (Landing, error) {
	removed, newTotal, err := s.store.RemoveSavedAlbum(ctx, token, albumID)
	if err != nil {
		return Landing{}, err
	}
	return Landing{Page: paging.AfterRemoval(removed, newTotal)}, nil
}

// Move reorders the album to newPosition and reports the page now showing it.
func (s *Service) Move(ctx context.Context, token string, albumID int64, newPosition int) (Landing, error) {
	if err := s.store.MoveSavedAlbum(ctx, token, albumID, newPosition); err != nil {
		return Landing{}, err
	}
	return Landing{Page: paging.AfterMove(newPosition), Position: newPosition}, nil
}

// listTitle renders the "Artist - Title" line the saved list displays.
func listTitle(release *catalog.Release) string {
	artist := release.ArtistName()
	if artist == "" {
		return release.Title
	}
	return artist + " - " + release.Title
}

func formatYear(year int) string {
	if year == 0 {
		return ""
	}
	return fmt.Sprintf("%d", year)
}
