// Package commandtest provides an in-memory command.Session and helpers for
// building interaction events in tests.
package commandtest

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Call is one recorded REST call.
type Call struct {
	Method string
	Args   []interface{}
}

// FakeSession records every call. Channel histories and channel metadata are
// served from the exported maps; Errors forces a method to fail.
type FakeSession struct {
	mu sync.Mutex

	Calls     []Call
	Responses []*discordgo.InteractionResponse
	Edits     []*discordgo.WebhookEdit
	Followups []*discordgo.WebhookParams
	Sent      map[string][]*discordgo.MessageSend
	Deleted   []string

	// History is newest first per channel.
	History  map[string][]*discordgo.Message
	Channels map[string]*discordgo.Channel
	Errors   map[string]error
}

// NewFakeSession returns an empty session.
func NewFakeSession() *FakeSession {
	return &FakeSession{
		Sent:     make(map[string][]*discordgo.MessageSend),
		History:  make(map[string][]*discordgo.Message),
		Channels: make(map[string]*discordgo.Channel),
		Errors:   make(map[string]error),
	}
}

func (f *FakeSession) record(method string, args ...interface{}) error {
	f.Calls = append(f.Calls, Call{Method: method, Args: args})
	return f.Errors[method]
}

// Count returns how many times method was called.
func (f *FakeSession) Count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (f *FakeSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("InteractionRespond", resp); err != nil {
		return err
	}
	f.Responses = append(f.Responses, resp)
	return nil
}

func (f *FakeSession) InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("InteractionResponseEdit", newresp); err != nil {
		return nil, err
	}
	f.Edits = append(f.Edits, newresp)
	return &discordgo.Message{}, nil
}

func (f *FakeSession) FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("FollowupMessageCreate", data); err != nil {
		return nil, err
	}
	f.Followups = append(f.Followups, data)
	return &discordgo.Message{}, nil
}

func (f *FakeSession) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ChannelMessages", channelID, limit, beforeID); err != nil {
		return nil, err
	}

	msgs := f.History[channelID]
	start := 0
	if beforeID != "" {
		start = len(msgs)
		for i, m := range msgs {
			if m.ID == beforeID {
				start = i + 1
				break
			}
		}
	}
	end := min(start+limit, len(msgs))
	if start >= end {
		return nil, nil
	}
	return append([]*discordgo.Message(nil), msgs[start:end]...), nil
}

func (f *FakeSession) ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ChannelMessageDelete", channelID, messageID); err != nil {
		return err
	}
	f.Deleted = append(f.Deleted, messageID)
	return nil
}

func (f *FakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ChannelMessageSendComplex", channelID, data); err != nil {
		return nil, err
	}
	f.Sent[channelID] = append(f.Sent[channelID], data)
	return &discordgo.Message{ChannelID: channelID, Content: data.Content}, nil
}

func (f *FakeSession) Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Channel", channelID); err != nil {
		return nil, err
	}
	ch, ok := f.Channels[channelID]
	if !ok {
		return nil, fmt.Errorf("unknown channel %s", channelID)
	}
	return ch, nil
}

func (f *FakeSession) ChannelPermissionSet(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("ChannelPermissionSet", channelID, targetID, targetType, allow, deny)
}

func (f *FakeSession) ChannelPermissionDelete(channelID, targetID string, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("ChannelPermissionDelete", channelID, targetID)
}

// LastText returns the text the actor saw last: the most recent follow-up,
// edit or immediate response, in that order of precedence.
func (f *FakeSession) LastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.Calls) - 1; i >= 0; i-- {
		switch v := f.Calls[i].Args[0].(type) {
		case *discordgo.WebhookParams:
			return textOf(v.Content, v.Embeds)
		case *discordgo.WebhookEdit:
			content := ""
			if v.Content != nil {
				content = *v.Content
			}
			var embeds []*discordgo.MessageEmbed
			if v.Embeds != nil {
				embeds = *v.Embeds
			}
			return textOf(content, embeds)
		case *discordgo.InteractionResponse:
			if v.Data == nil {
				continue
			}
			if v.Type == discordgo.InteractionResponseDeferredChannelMessageWithSource {
				continue
			}
			return textOf(v.Data.Content, v.Data.Embeds)
		}
	}
	return ""
}

func textOf(content string, embeds []*discordgo.MessageEmbed) string {
	if content != "" || len(embeds) == 0 {
		return content
	}
	return embeds[0].Title
}
