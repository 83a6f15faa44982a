// Package store declares the persistence contracts for moderator notes and
// screenshare tickets. Backends live in sub-packages.
package store

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrNoteNotFound   = errors.New("note not found")
	ErrTicketNotFound = errors.New("ticket not found")
	ErrTicketExists   = errors.New("channel is already a ticket")
)

// Note is a moderator note attached to a user.
type Note struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"note"`
	CreatorID string    `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Ticket marks a channel as an open screenshare ticket.
type Ticket struct {
	ChannelID string    `json:"channel_id"`
	CreatorID string    `json:"creator_id"`
	TargetID  string    `json:"target_id"`
	OpenedAt  time.Time `json:"opened_at"`
}

// NoteStore persists notes. NotesFor returns notes in ascending id order.
type NoteStore interface {
	NotesFor(ctx context.Context, userID string) ([]Note, error)
	AddNote(ctx context.Context, userID string, at time.Time, text, creatorID string) (int64, error)
	RemoveNote(ctx context.Context, userID string, noteID int64) error
}

// TicketStore persists screenshare tickets.
type TicketStore interface {
	IsTicket(ctx context.Context, channelID string) (bool, error)
	OpenTicket(ctx context.Context, t Ticket) error
	CloseTicket(ctx context.Context, channelID string) error
	Tickets(ctx context.Context) ([]Ticket, error)
}

// Store is a full backend.
type Store interface {
	NoteStore
	TicketStore
	io.Closer
}
