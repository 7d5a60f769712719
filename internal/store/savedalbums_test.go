package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505"}
}

const (
	countSavedSQL    = `SELECT COUNT(*) FROM saved_albums WHERE user_id = $1`
	positionSQL      = `SELECT position FROM saved_albums WHERE user_id = $1 AND album_id = $2`
	sessionLookupSQL = `SELECT user_id FROM sessions WHERE token = $1`
	ownerLockSQL     = `SELECT pg_advisory_xact_lock($1)`
	shiftDownSQL     = `UPDATE saved_albums SET position = position - 1 WHERE user_id = $1 AND position = $2`
	shiftUpSQL       = `UPDATE saved_albums SET position = position + 1 WHERE user_id = $1 AND position = $2`
	parkSQL          = `UPDATE saved_albums SET position = 0 WHERE user_id = $1 AND album_id = $2`
	placeSQL         = `UPDATE saved_albums SET position = $3 WHERE user_id = $1 AND album_id = $2`
)

func expectOwner(mock sqlmock.Sqlmock, userID int64) {
	mock.ExpectQuery(regexp.QuoteMeta(sessionLookupSQL)).
		WithArgs("token").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(userID))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(ownerLockSQL)).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestSaveAlbumAssignsNextPosition(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	expectOwner(mock, 42)
	mock.ExpectQuery(regexp.QuoteMeta(countSavedSQL)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO saved_albums (user_id, album_id, title, year, cover_url, tracks, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)).
		WithArgs(int64(42), int64(101), "Queen - A Night At The Opera", "1975", "https://img/101", pq.Array([]string{"1. Death On Two Legs (3:43)"}), 4).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	position, err := s.SaveAlbum(context.Background(), "token", SavedAlbum{
		AlbumID:  101,
		Title:    "Queen - A Night At The Opera",
		Year:     "1975",
		CoverURL: "https://img/101",
		Tracks:   []string{"1. Death On Two Legs (3:43)"},
	})
	if err != nil {
		t.Fatalf("SaveAlbum error: %v", err)
	}
	if position != 4 {
		t.Fatalf("position = %d, want 4", position)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveAlbumRejectsDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	expectOwner(mock, 42)
	mock.ExpectQuery(regexp.QuoteMeta(countSavedSQL)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec("INSERT INTO saved_albums").
		WillReturnError(uniqueViolation())
	mock.ExpectRollback()

	_, err = s.SaveAlbum(context.Background(), "token", SavedAlbum{AlbumID: 101, Title: "Dup"})
	if !errors.Is(err, ErrAlbumAlreadySaved) {
		t.Fatalf("expected ErrAlbumAlreadySaved, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRemoveSavedAlbumCompacts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	// Three albums, removing the middle one: the row at 3 slides into 2.
	expectOwner(mock, 42)
	mock.ExpectQuery(regexp.QuoteMeta(countSavedSQL)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(positionSQL)).
		WithArgs(int64(42), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM saved_albums WHERE user_id = $1 AND album_id = $2`)).
		WithArgs(int64(42), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(shiftDownSQL)).
		WithArgs(int64(42), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	removed, newTotal, err := s.RemoveSavedAlbum(context.Background(), "token", 7)
	if err != nil {
		t.Fatalf("RemoveSavedAlbum error: %v", err)
	}
	if removed != 2 || newTotal != 2 {
		t.Fatalf("removed=%d newTotal=%d, want 2 and 2", removed, newTotal)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRemoveSavedAlbumNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	expectOwner(mock, 42)
	mock.ExpectQuery(regexp.QuoteMeta(countSavedSQL)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(positionSQL)).
		WithArgs(int64(42), int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"position"}))
	mock.ExpectRollback()

	_, _, err = s.RemoveSavedAlbum(context.Background(), "token", 9)
	if !errors.Is(err, ErrSavedAlbumNotFound) {
		t.Fatalf("expected ErrSavedAlbumNotFound, got %v", err)
	}
}

func TestSaveThenRemoveRestoresPositions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	// Appending to a 3-item list puts the album at position 4; removing it
	// again issues no shift updates, so the original three rows keep their
	// positions and the list is back where it started.
	expectOwner(mock, 42)
	mock.ExpectQuery(regexp.QuoteMeta(countSavedSQL)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec("INSERT INTO saved_albums").
		WithArgs(int64(42), int64(9), "Artist - Fourth", "", "", sqlmock.AnyArg(), 4).
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectCommit()

	expectOwner(mock, 42)
	mock.ExpectQuery(regexp.QuoteMeta(countSavedSQL)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta(positionSQL)).
		WithArgs(int64(42), int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(4))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM saved_albums WHERE user_id = $1 AND album_id = $2`)).
		WithArgs(int64(42), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	position, err := s.SaveAlbum(context.Background(), "token", SavedAlbum{AlbumID: 9, Title: "Artist - Fourth"})
	if err != nil {
		t.Fatalf("SaveAlbum error: %v", err)
	}
	if position != 4 {
		t.Fatalf("position = %d, want 4", position)
	}

	removed, newTotal, err := s.RemoveSavedAlbum(context.Background(), "token", 9)
	if err != nil {
		t.Fatalf("RemoveSavedAlbum error: %v", err)
	}
	if removed != position {
		t.Fatalf("removed = %d, want the appended position %d", removed, position)
	}
	if newTotal != 3 {
		t.Fatalf("newTotal = %d, want the prior list size 3", newTotal)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMoveSavedAlbumForward(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	// Five albums, moving the one at position 2 to position 5: the rows at
	// 3, 4 and 5 each slide one slot toward the vacated spot.
	expectOwner(mock, 42)
	mock.ExpectQuery(regexp.QuoteMeta(countSavedSQL)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(regexp.QuoteMeta(positionSQL)).
		WithArgs(int64(42), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta(parkSQL)).
		WithArgs(int64(42), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	for pos := 3; pos <= 5; pos++ {
		mock.ExpectExec(regexp.QuoteMeta(shiftDownSQL)).
			WithArgs(int64(42), pos).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(regexp.QuoteMeta(placeSQL)).
		WithArgs(int64(42), int64(7), 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.MoveSavedAlbum(context.Background(), "token", 7, 5); err != nil {
		t.Fatalf("MoveSavedAlbum error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMoveSavedAlbumBackward(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	// Moving position 4 to position 2: rows at 3 and 2 slide up.
	expectOwner(mock, 42)
	mock.ExpectQuery(regexp.QuoteMeta(countSavedSQL)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(regexp.QuoteMeta(positionSQL)).
		WithArgs(int64(42), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(4))
	mock.ExpectExec(regexp.QuoteMeta(parkSQL)).
		WithArgs(int64(42), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	for pos := 3; pos >= 2; pos-- {
		mock.ExpectExec(regexp.QuoteMeta(shiftUpSQL)).
			WithArgs(int64(42), pos).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(regexp.QuoteMeta(placeSQL)).
		WithArgs(int64(42), int64(7), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.MoveSavedAlbum(context.Background(), "token", 7, 2); err != nil {
		t.Fatalf("MoveSavedAlbum error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMoveSavedAlbumInvalidPosition(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	expectOwner(mock, 42)
	mock.ExpectQuery(regexp.QuoteMeta(countSavedSQL)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(positionSQL)).
		WithArgs(int64(42), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(1))
	mock.ExpectRollback()

	err = s.MoveSavedAlbum(context.Background(), "token", 7, 4)
	if !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestMoveSavedAlbumSamePosition(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	expectOwner(mock, 42)
	mock.ExpectQuery(regexp.QuoteMeta(countSavedSQL)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(positionSQL)).
		WithArgs(int64(42), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(2))
	mock.ExpectRollback()

	err = s.MoveSavedAlbum(context.Background(), "token", 7, 2)
	if !errors.Is(err, ErrSamePosition) {
		t.Fatalf("expected ErrSamePosition, got %v", err)
	}
}

func TestSavedAlbumsPage(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(sessionLookupSQL)).
		WithArgs("token").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(42)))
	mock.ExpectQuery(regexp.QuoteMeta(countSavedSQL)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, album_id, title, year, cover_url, tracks, position
		FROM saved_albums
		WHERE user_id = $1
		ORDER BY position ASC
		LIMIT $2 OFFSET $3
	`)).
		WithArgs(int64(42), 10, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "album_id", "title", "year", "cover_url", "tracks", "position"}).
			AddRow(int64(11), int64(301), "Artist - Eleventh", "1990", "https://img/301", "{\"1. One\"}", 11).
			AddRow(int64(12), int64(302), "Artist - Twelfth", "1991", "https://img/302", "{\"1. Uno\"}", 12))

	albums, total, err := s.SavedAlbumsPage(context.Background(), "token", 10, 10)
	if err != nil {
		t.Fatalf("SavedAlbumsPage error: %v", err)
	}
	if total != 12 {
		t.Fatalf("total = %d, want 12", total)
	}
	if len(albums) != 2 || albums[0].Position != 11 || albums[1].AlbumID != 302 {
		t.Fatalf("unexpected page %+v", albums)
	}
}

func TestSavedAlbumValidation(t *testing.T) {
	s := New(nil)

	if _, err := s.SaveAlbum(context.Background(), "token", SavedAlbum{Title: "No ID"}); !errors.Is(err, ErrInvalidSavedAlbum) {
		t.Fatalf("expected ErrInvalidSavedAlbum, got %v", err)
	}
	if _, err := s.SaveAlbum(context.Background(), "token", SavedAlbum{AlbumID: 1}); !errors.Is(err, ErrInvalidSavedAlbum) {
		t.Fatalf("expected ErrInvalidSavedAlbum, got %v", err)
	}
}
