// Package jsonstore keeps notes and tickets in the JSON file datastore.
package jsonstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/keshon/scrims-bot/datastore"
	"github.com/keshon/scrims-bot/internal/store"
)

const (
	notesPrefix   = "notes:"
	ticketsPrefix = "tickets:"
	noteSeqKey    = "seq:notes"
)

// userRecord holds every note of one user.
type userRecord struct {
	Notes []store.Note `json:"notes"`
}

// Store is a store.Store over a datastore.DataStore. Read-modify-write
// sequences are serialized by mu.
type Store struct {
	mu sync.Mutex
	ds *datastore.DataStore
}

var _ store.Store = (*Store)(nil)

// Open opens the datastore file at path.
func Open(path string) (*Store, error) {
	ds, err := datastore.New(path)
	if err != nil {
		return nil, err
	}
	return &Store{ds: ds}, nil
}

// New wraps an already open datastore.
func New(ds *datastore.DataStore) *Store {
	return &Store{ds: ds}
}

func (s *Store) Close() error {
	return s.ds.Close()
}

func (s *Store) loadUserRecord(userID string) (*userRecord, error) {
	var rec userRecord
	if _, err := s.ds.Get(notesPrefix+userID, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) NotesFor(ctx context.Context, userID string) ([]store.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.loadUserRecord(userID)
	if err != nil {
		return nil, fmt.Errorf("load notes of %s: %w", userID, err)
	}
	notes := append([]store.Note(nil), rec.Notes...)
	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })
	return notes, nil
}

func (s *Store) AddNote(ctx context.Context, userID string, at time.Time, text, creatorID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.loadUserRecord(userID)
	if err != nil {
		return 0, fmt.Errorf("load notes of %s: %w", userID, err)
	}

	var seq int64
	if _, err := s.ds.Get(noteSeqKey, &seq); err != nil {
		return 0, fmt.Errorf("load note sequence: %w", err)
	}
	seq++

	rec.Notes = append(rec.Notes, store.Note{
		ID:        seq,
		UserID:    userID,
		Text:      text,
		CreatorID: creatorID,
		CreatedAt: at.UTC(),
	})
	if err := s.ds.Put(notesPrefix+userID, rec); err != nil {
		return 0, fmt.Errorf("save notes of %s: %w", userID, err)
	}
	if err := s.ds.Put(noteSeqKey, seq); err != nil {
		return 0, fmt.Errorf("save note sequence: %w", err)
	}
	return seq, nil
}

func (s *Store) RemoveNote(ctx context.Context, userID string, noteID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.loadUserRecord(userID)
	if err != nil {
		return fmt.Errorf("load notes of %s: %w", userID, err)
	}

	kept := rec.Notes[:0]
	for _, n := range rec.Notes {
		if n.ID != noteID {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(rec.Notes) {
		return store.ErrNoteNotFound
	}
	rec.Notes = kept

	if len(rec.Notes) == 0 {
		err = s.ds.Delete(notesPrefix + userID)
	} else {
		err = s.ds.Put(notesPrefix+userID, rec)
	}
	if err != nil {
		return fmt.Errorf("save notes of %s: %w", userID, err)
	}
	return nil
}

func (s *Store) IsTicket(ctx context.Context, channelID string) (bool, error) {
	var t store.Ticket
	ok, err := s.ds.Get(ticketsPrefix+channelID, &t)
	if err != nil {
		return false, fmt.Errorf("load ticket %s: %w", channelID, err)
	}
	return ok, nil
}

func (s *Store) OpenTicket(ctx context.Context, t store.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.IsTicket(ctx, t.ChannelID)
	if err != nil {
		return err
	}
	if exists {
		return store.ErrTicketExists
	}
	if t.OpenedAt.IsZero() {
		t.OpenedAt = time.Now()
	}
	t.OpenedAt = t.OpenedAt.UTC()
	if err := s.ds.Put(ticketsPrefix+t.ChannelID, t); err != nil {
		return fmt.Errorf("save ticket %s: %w", t.ChannelID, err)
	}
	return nil
}

func (s *Store) CloseTicket(ctx context.Context, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.IsTicket(ctx, channelID)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrTicketNotFound
	}
	if err := s.ds.Delete(ticketsPrefix + channelID); err != nil {
		return fmt.Errorf("delete ticket %s: %w", channelID, err)
	}
	return nil
}

func (s *Store) Tickets(ctx context.Context) ([]store.Ticket, error) {
	var out []store.Ticket
	for _, key := range s.ds.Keys(ticketsPrefix) {
		var t store.Ticket
		ok, err := s.ds.Get(key, &t)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", key, err)
		}
		if ok {
			out = append(out, t)
		}
	}
	return out, nil
}
