// Package sqlitestore keeps notes and tickets in SQLite through the pure-Go
// modernc driver.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/keshon/scrims-bot/internal/store"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		note TEXT NOT NULL,
		creator_id TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_user_id ON notes(user_id)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		channel_id TEXT PRIMARY KEY,
		creator_id TEXT NOT NULL,
		target_id TEXT NOT NULL,
		opened_at INTEGER NOT NULL
	)`,
}

// Store is a store.Store over a *sql.DB.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens the database at path (":memory:" works) and migrates it.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// a single connection keeps :memory: databases alive and serializes writers
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for i, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	log.Debug().Int("migrations", len(migrations)).Msg("sqlite schema up to date")
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) NotesFor(ctx context.Context, userID string) ([]store.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, note, creator_id, created_at FROM notes WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query notes of %s: %w", userID, err)
	}
	defer rows.Close()

	var notes []store.Note
	for rows.Next() {
		var (
			n  store.Note
			at int64
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Text, &n.CreatorID, &at); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		n.CreatedAt = time.Unix(at, 0).UTC()
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read notes of %s: %w", userID, err)
	}
	return notes, nil
}

func (s *Store) AddNote(ctx context.Context, userID string, at time.Time, text, creatorID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (user_id, note, creator_id, created_at) VALUES (?, ?, ?, ?)`,
		userID, text, creatorID, at.Unix())
	if err != nil {
		return 0, fmt.Errorf("insert note for %s: %w", userID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read note id: %w", err)
	}
	return id, nil
}

func (s *Store) RemoveNote(ctx context.Context, userID string, noteID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE user_id = ? AND id = ?`, userID, noteID)
	if err != nil {
		return fmt.Errorf("delete note %d of %s: %w", noteID, userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note %d of %s: %w", noteID, userID, err)
	}
	if n == 0 {
		return store.ErrNoteNotFound
	}
	return nil
}

func (s *Store) IsTicket(ctx context.Context, channelID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM tickets WHERE channel_id = ?`, channelID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query ticket %s: %w", channelID, err)
	}
	return true, nil
}

func (s *Store) OpenTicket(ctx context.Context, t store.Ticket) error {
	if t.OpenedAt.IsZero() {
		t.OpenedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tickets (channel_id, creator_id, target_id, opened_at) VALUES (?, ?, ?, ?)`,
		t.ChannelID, t.CreatorID, t.TargetID, t.OpenedAt.Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrTicketExists
		}
		return fmt.Errorf("insert ticket %s: %w", t.ChannelID, err)
	}
	return nil
}

func (s *Store) CloseTicket(ctx context.Context, channelID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tickets WHERE channel_id = ?`, channelID)
	if err != nil {
		return fmt.Errorf("delete ticket %s: %w", channelID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrTicketNotFound
	}
	return nil
}

func (s *Store) Tickets(ctx context.Context) ([]store.Ticket, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT channel_id, creator_id, target_id, opened_at FROM tickets ORDER BY opened_at, channel_id`)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()

	var out []store.Ticket
	for rows.Next() {
		var (
			t  store.Ticket
			at int64
		)
		if err := rows.Scan(&t.ChannelID, &t.CreatorID, &t.TargetID, &at); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		t.OpenedAt = time.Unix(at, 0).UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}
