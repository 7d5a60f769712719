package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"musica/internal/store"
)

const demoEmail = "demo@musica.local"

func bootstrapDemoData(ctx context.Context, db *sql.DB, dataStore *store.Store) error {
	if err := ensureDemoUser(ctx, dataStore); err != nil {
		return err
	}
	return ensureDemoAlbums(ctx, db)
}

func ensureDemoUser(ctx context.Context, dataStore *store.Store) error {
	err := dataStore.CreateUser(ctx, demoEmail, "demo123", "Demo")
	if err != nil && !errors.Is(err, store.ErrUserExists) {
		return fmt.Errorf("bootstrap demo user: %w", err)
	}
	return nil
}

func ensureDemoAlbums(ctx context.Context, db *sql.DB) error {
	var userID int64
	if err := db.QueryRowContext(ctx, `
		SELECT id
		FROM users
		WHERE email = $1
	`, demoEmail).Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("lookup demo user: %w", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM saved_albums
		WHERE user_id = $1
	`, userID).Scan(&count); err != nil {
		return fmt.Errorf("count demo albums: %w", err)
	}
	if count > 0 {
		return nil
	}

	type seedAlbum struct {
		AlbumID int64
		Title   string
		Year    string
		Tracks  []string
	}

	albums := []seedAlbum{
		{
			AlbumID: 3329867,
			Title:   "Boards of Canada - Music Has the Right to Children",
			Year:    "1998",
			Tracks:  []string{"1. Wildlife Analysis (1:17)", "2. An Eagle In Your Mind (6:23)", "3. Roygbiv (2:31)"},
		},
		{
			AlbumID: 3687,
			Title:   "Massive Attack - Mezzanine",
			Year:    "1998",
			Tracks:  []string{"1. Angel (6:18)", "2. Risingson (4:58)", "3. Teardrop (5:29)"},
		},
		{
			AlbumID: 124284,
			Title:   "Portishead - Dummy",
			Year:    "1994",
			Tracks:  []string{"1. Mysterons (5:02)", "2. Sour Times (4:11)", "3. Glory Box (5:06)"},
		},
		{
			AlbumID: 1551624,
			Title:   "Radiohead - OK Computer",
			Year:    "1997",
			Tracks:  []string{"1. Airbag (4:44)", "2. Paranoid Android (6:23)", "3. No Surprises (3:48)"},
		},
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	for i, album := range albums {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO saved_albums (user_id, album_id, title, year, cover_url, tracks, position)
			VALUES ($1, $2, $3, $4, '', $5, $6)
		`, userID, album.AlbumID, album.Title, album.Year, pq.Array(album.Tracks), i+1); err != nil {
			return fmt.Errorf("insert demo album %q: %w", album.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	tx = nil

	return nil
}
