package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

var (
	// ErrInvalidSavedAlbum indicates validation failure for saved-album data.
	ErrInvalidSavedAlbum = errors.New("invalid saved album")
	// ErrSavedAlbumNotFound signals the album is not on the owner's list.
	ErrSavedAlbumNotFound = errors.New("saved album not found")
	// ErrAlbumAlreadySaved signals a duplicate add of the same release.
	ErrAlbumAlreadySaved = errors.New("album already saved")
	// ErrInvalidPosition rejects a reorder target outside 1..count.
	ErrInvalidPosition = errors.New("invalid position")
	// ErrSamePosition reports a reorder to the album's current slot.
	ErrSamePosition = errors.New("album already at that position")
)

// maxTxAttempts bounds retries of transactions that fail with a transient
// serialization error.
const maxTxAttempts = 3

// SavedAlbum is one entry on a user's personal album list. Positions within
// one owner's list are always the dense range 1..count; every mutation below
// preserves that.
type SavedAlbum struct {
	ID       int64    `json:"id"`
	AlbumID  int64    `json:"albumId"`
	Title    string   `json:"title"`
	Year     string   `json:"year"`
	CoverURL string   `json:"coverUrl"`
	Tracks   []string `json:"trackList"`
	Position int      `json:"position"`
}

// SaveAlbum appends a release to the end of the owner's list and returns the
// assigned position.
func (s *Store) SaveAlbum(ctx context.Context, token string, album SavedAlbum) (int, error) {
	if err := validateSavedAlbum(album); err != nil {
		return 0, err
	}
	album.Title = strings.TrimSpace(album.Title)

	var position int
	err := s.ownerTx(ctx, token, func(tx *sql.Tx, userID int64) error {
		var count int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*)
			FROM saved_albums
			WHERE user_id = $1
		`, userID).Scan(&count); err != nil {
			return fmt.Errorf("count saved albums: %w", err)
		}

		position = count + 1
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO saved_albums (user_id, album_id, title, year, cover_url, tracks, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, userID, album.AlbumID, album.Title, album.Year, album.CoverURL, pq.Array(album.Tracks), position); err != nil {
			if isUniqueViolation(err) {
				return ErrAlbumAlreadySaved
			}
			return fmt.Errorf("insert saved album: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return position, nil
}

// RemoveSavedAlbum deletes a release from the owner's list and closes the
// gap. It returns the position the album held and the new list size.
func (s *Store) RemoveSavedAlbum(ctx context.Context, token string, albumID int64) (int, int, error) {
	var removed, newTotal int
	err := s.ownerTx(ctx, token, func(tx *sql.Tx, userID int64) error {
		var count int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*)
			FROM saved_albums
			WHERE user_id = $1
		`, userID).Scan(&count); err != nil {
			return fmt.Errorf("count saved albums: %w", err)
		}

		position, err := savedAlbumPosition(ctx, tx, userID, albumID)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM saved_albums
			WHERE user_id = $1 AND album_id = $2
		`, userID, albumID); err != nil {
			return fmt.Errorf("delete saved album: %w", err)
		}

		// Compact one row at a time, ascending, so each update moves a row
		// into the slot vacated by the previous step and the per-owner
		// position uniqueness is never violated mid-flight.
		for pos := position + 1; pos <= count; pos++ {
			if _, err := tx.ExecContext(ctx, `
				UPDATE saved_albums
				SET position = position - 1
				WHERE user_id = $1 AND position = $2
			`, userID, pos); err != nil {
				return fmt.Errorf("compact position %d: %w", pos, err)
			}
		}

		removed = position
		newTotal = count - 1
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return removed, newTotal, nil
}

// MoveSavedAlbum places a release at newPosition and shifts everything
// between its old and new slots by one toward the vacated side.
func (s *Store) MoveSavedAlbum(ctx context.Context, token string, albumID int64, newPosition int) error {
	return s.ownerTx(ctx, token, func(tx *sql.Tx, userID int64) error {
		var count int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*)
			FROM saved_albums
			WHERE user_id = $1
		`, userID).Scan(&count); err != nil {
			return fmt.Errorf("count saved albums: %w", err)
		}

		current, err := savedAlbumPosition(ctx, tx, userID, albumID)
		if err != nil {
			return err
		}

		if newPosition < 1 || newPosition > count {
			return ErrInvalidPosition
		}
		if newPosition == current {
			return ErrSamePosition
		}

		// Park the moved row outside the dense range so the shifts below
		// never collide with it under the (user_id, position) unique index.
		if _, err := tx.ExecContext(ctx, `
			UPDATE saved_albums
			SET position = 0
			WHERE user_id = $1 AND album_id = $2
		`, userID, albumID); err != nil {
			return fmt.Errorf("park moved album: %w", err)
		}

		if newPosition > current {
			for pos := current + 1; pos <= newPosition; pos++ {
				if _, err := tx.ExecContext(ctx, `
					UPDATE saved_albums
					SET position = position - 1
					WHERE user_id = $1 AND position = $2
				`, userID, pos); err != nil {
					return fmt.Errorf("shift position %d: %w", pos, err)
				}
			}
		} else {
			for pos := current - 1; pos >= newPosition; pos-- {
				if _, err := tx.ExecContext(ctx, `
					UPDATE saved_albums
					SET position = position + 1
					WHERE user_id = $1 AND position = $2
				`, userID, pos); err != nil {
					return fmt.Errorf("shift position %d: %w", pos, err)
				}
			}
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE saved_albums
			SET position = $3
			WHERE user_id = $1 AND album_id = $2
		`, userID, albumID, newPosition); err != nil {
			return fmt.Errorf("place moved album: %w", err)
		}
		return nil
	})
}

// SavedAlbumsPage returns one page window of the owner's list in position
// order, plus the total list size.
func (s *Store) SavedAlbumsPage(ctx context.Context, token string, offset, limit int) ([]SavedAlbum, int, error) {
	userID, err := s.userIDForToken(ctx, token)
	if err != nil {
		return nil, 0, err
	}
	return s.savedAlbumsPageForUser(ctx, userID, offset, limit)
}

// PublicSavedAlbumsPage serves another user's list looked up by its public
// handle (the unique display name).
func (s *Store) PublicSavedAlbumsPage(ctx context.Context, displayName string, offset, limit int) ([]SavedAlbum, int, error) {
	var userID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id
		FROM users
		WHERE display_name = $1
	`, displayName).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrUserNotFound
		}
		return nil, 0, fmt.Errorf("lookup user by display name: %w", err)
	}
	return s.savedAlbumsPageForUser(ctx, userID, offset, limit)
}

// IsAlbumSaved reports whether the release is already on the owner's list.
func (s *Store) IsAlbumSaved(ctx context.Context, token string, albumID int64) (bool, error) {
	userID, err := s.userIDForToken(ctx, token)
	if err != nil {
		return false, err
	}

	var one int
	err = s.db.QueryRowContext(ctx, `
		SELECT 1
		FROM saved_albums
		WHERE user_id = $1 AND album_id = $2
	`, userID, albumID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check saved album: %w", err)
	}
	return true, nil
}

func (s *Store) savedAlbumsPageForUser(ctx context.Context, userID int64, offset, limit int) ([]SavedAlbum, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM saved_albums
		WHERE user_id = $1
	`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count saved albums: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, album_id, title, year, cover_url, tracks, position
		FROM saved_albums
		WHERE user_id = $1
		ORDER BY position ASC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("select saved albums: %w", err)
	}
	defer rows.Close()

	albums := make([]SavedAlbum, 0, limit)
	for rows.Next() {
		var a SavedAlbum
		if err := rows.Scan(&a.ID, &a.AlbumID, &a.Title, &a.Year, &a.CoverURL, pq.Array(&a.Tracks), &a.Position); err != nil {
			return nil, 0, fmt.Errorf("scan saved album: %w", err)
		}
		albums = append(albums, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate saved albums: %w", err)
	}

	return albums, total, nil
}

// ownerTx runs fn inside a transaction holding the owner's advisory lock, so
// list mutations for one owner are serialized while different owners proceed
// in parallel. Transient serialization failures are retried a bounded number
// of times.
func (s *Store) ownerTx(ctx context.Context, token string, fn func(tx *sql.Tx, userID int64) error) error {
	userID, err := s.userIDForToken(ctx, token)
	if err != nil {
		return err
	}

	for attempt := 1; ; attempt++ {
		err = s.runOwnerTx(ctx, userID, fn)
		if err == nil || !isRetryable(err) || attempt == maxTxAttempts {
			return err
		}
	}
}

func (s *Store) runOwnerTx(ctx context.Context, userID int64, fn func(tx *sql.Tx, userID int64) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, userID); err != nil {
		return fmt.Errorf("acquire owner lock: %w", err)
	}

	if err := fn(tx, userID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return nil
}

func savedAlbumPosition(ctx context.Context, tx *sql.Tx, userID, albumID int64) (int, error) {
	var position int
	err := tx.QueryRowContext(ctx, `
		SELECT position
		FROM saved_albums
		WHERE user_id = $1 AND album_id = $2
	`, userID, albumID).Scan(&position)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrSavedAlbumNotFound
		}
		return 0, fmt.Errorf("lookup saved album: %w", err)
	}
	return position, nil
}

func validateSavedAlbum(album SavedAlbum) error {
	switch {
	case album.AlbumID <= 0:
		return fmt.Errorf("%w: album id is required", ErrInvalidSavedAlbum)
	case strings.TrimSpace(album.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidSavedAlbum)
	}
	return nil
}
