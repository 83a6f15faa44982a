// Package storetest is a behavioural suite every store backend must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/keshon/scrims-bot/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh backend from open for each sub-test.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("notes", func(t *testing.T) { testNotes(t, open(t)) })
	t.Run("remove missing note", func(t *testing.T) { testRemoveMissing(t, open(t)) })
	t.Run("tickets", func(t *testing.T) { testTickets(t, open(t)) })
}

func testNotes(t *testing.T, s store.Store) {
	ctx := context.Background()
	at := time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC)

	notes, err := s.NotesFor(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, notes)

	first, err := s.AddNote(ctx, "u1", at, "toxic in queue", "mod1")
	require.NoError(t, err)
	second, err := s.AddNote(ctx, "u1", at.Add(time.Hour), "alt account", "mod2")
	require.NoError(t, err)
	other, err := s.AddNote(ctx, "u2", at, "other user", "mod1")
	require.NoError(t, err)

	assert.Greater(t, first, int64(0))
	assert.Greater(t, second, first)
	assert.NotEqual(t, second, other)

	notes, err = s.NotesFor(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, store.Note{ID: first, UserID: "u1", Text: "toxic in queue", CreatorID: "mod1", CreatedAt: at}, notes[0])
	assert.Equal(t, second, notes[1].ID)

	require.NoError(t, s.RemoveNote(ctx, "u1", first))
	notes, err = s.NotesFor(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "alt account", notes[0].Text)

	assert.ErrorIs(t, s.RemoveNote(ctx, "u1", other), store.ErrNoteNotFound, "note ids are scoped to their user")
}

func testRemoveMissing(t *testing.T, s store.Store) {
	assert.ErrorIs(t, s.RemoveNote(context.Background(), "nobody", 42), store.ErrNoteNotFound)
}

func testTickets(t *testing.T, s store.Store) {
	ctx := context.Background()

	ok, err := s.IsTicket(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.OpenTicket(ctx, store.Ticket{ChannelID: "c1", CreatorID: "mod", TargetID: "u1"}))
	assert.ErrorIs(t, s.OpenTicket(ctx, store.Ticket{ChannelID: "c1"}), store.ErrTicketExists)

	ok, err = s.IsTicket(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, ok)

	tickets, err := s.Tickets(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "u1", tickets[0].TargetID)
	assert.False(t, tickets[0].OpenedAt.IsZero())

	require.NoError(t, s.CloseTicket(ctx, "c1"))
	assert.ErrorIs(t, s.CloseTicket(ctx, "c1"), store.ErrTicketNotFound)

	ok, err = s.IsTicket(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)
}
