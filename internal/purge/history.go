package purge

import (
	"context"
	"fmt"
	"io"

	"github.com/bwmarrin/discordgo"
)

// maxPageSize is the most messages Discord returns per history request.
const maxPageSize = 100

// History is a single-pass, newest-first message sequence. Next returns io.EOF
// once the sequence is exhausted; any other error concerns that item only.
type History interface {
	Next(ctx context.Context) (*discordgo.Message, error)
}

// MessageLister is the slice of the Discord session ChannelHistory reads from.
type MessageLister interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
}

// ChannelHistory walks a channel backwards one page at a time, fetching the
// next page only when the buffered one is drained.
type ChannelHistory struct {
	lister    MessageLister
	channelID string
	pageSize  int
	before    string
	buf       []*discordgo.Message
	done      bool
}

// NewChannelHistory reads channelID newest first in pages of pageSize (clamped to 1..100).
func NewChannelHistory(lister MessageLister, channelID string, pageSize int) *ChannelHistory {
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return &ChannelHistory{lister: lister, channelID: channelID, pageSize: pageSize}
}

func (h *ChannelHistory) Next(ctx context.Context) (*discordgo.Message, error) {
	if len(h.buf) == 0 {
		if h.done {
			return nil, io.EOF
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := h.lister.ChannelMessages(h.channelID, h.pageSize, h.before, "", "")
		if err != nil {
			return nil, fmt.Errorf("fetch history of %s before %q: %w", h.channelID, h.before, err)
		}
		if len(page) == 0 {
			h.done = true
			return nil, io.EOF
		}
		if len(page) < h.pageSize {
			h.done = true
		}
		h.before = page[len(page)-1].ID
		h.buf = page
	}

	msg := h.buf[0]
	h.buf = h.buf[1:]
	return msg, nil
}
