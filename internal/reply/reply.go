// Package reply sends interaction responses. Immediate replies go through the
// Respond helpers; slow commands Acknowledge first and fill the response in
// later through the returned Deferred.
package reply

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"
)

// EmbedColor is the default embed accent.
const EmbedColor = 0x74a8ee

// ErrorColor marks failure embeds.
const ErrorColor = 0xd0312d

// Session is the part of *discordgo.Session needed to answer an interaction.
type Session interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Respond sends a public message response.
func Respond(s Session, i *discordgo.InteractionCreate, content string) error {
	return respond(s, i, &discordgo.InteractionResponseData{Content: content})
}

// RespondEphemeral sends a message only the actor can see.
func RespondEphemeral(s Session, i *discordgo.InteractionCreate, content string) error {
	return respond(s, i, &discordgo.InteractionResponseData{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

// RespondEmbed sends a public embed response.
func RespondEmbed(s Session, i *discordgo.InteractionCreate, e *discordgo.MessageEmbed) error {
	return respond(s, i, &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{e}})
}

// RespondEmbedEphemeral sends an embed only the actor can see.
func RespondEmbedEphemeral(s Session, i *discordgo.InteractionCreate, e *discordgo.MessageEmbed) error {
	return respond(s, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{e},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

func respond(s Session, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

// Deferred is an acknowledged interaction whose content is still pending.
type Deferred struct {
	s         Session
	i         *discordgo.Interaction
	ephemeral bool
	finalized bool
}

// Acknowledge defers the response so the command can take longer than the
// initial response window.
func Acknowledge(s Session, i *discordgo.InteractionCreate, ephemeral bool) (*Deferred, error) {
	data := &discordgo.InteractionResponseData{}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("acknowledge interaction: %w", err)
	}
	return &Deferred{s: s, i: i.Interaction, ephemeral: ephemeral}, nil
}

// Ephemeral reports whether the deferred response is only visible to the actor.
func (d *Deferred) Ephemeral() bool { return d.ephemeral }

// Finalized reports whether the placeholder has been replaced.
func (d *Deferred) Finalized() bool { return d.finalized }

// Finalize replaces the deferred placeholder with embeds.
func (d *Deferred) Finalize(embeds ...*discordgo.MessageEmbed) error {
	_, err := d.s.InteractionResponseEdit(d.i, &discordgo.WebhookEdit{Embeds: &embeds})
	if err != nil {
		return fmt.Errorf("finalize response: %w", err)
	}
	d.finalized = true
	return nil
}

// FinalizeText replaces the deferred placeholder with plain text.
func (d *Deferred) FinalizeText(content string) error {
	_, err := d.s.InteractionResponseEdit(d.i, &discordgo.WebhookEdit{Content: &content})
	if err != nil {
		return fmt.Errorf("finalize response: %w", err)
	}
	d.finalized = true
	return nil
}

// FollowUp posts an additional message after the response, with the same visibility.
func (d *Deferred) FollowUp(embeds ...*discordgo.MessageEmbed) error {
	params := &discordgo.WebhookParams{Embeds: embeds}
	if d.ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}
	if _, err := d.s.FollowupMessageCreate(d.i, true, params); err != nil {
		return fmt.Errorf("send follow-up: %w", err)
	}
	return nil
}

// FollowupEphemeral posts an ephemeral follow-up to an interaction that was
// already answered some other way.
func FollowupEphemeral(s Session, i *discordgo.InteractionCreate, content string) error {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	return err
}

// Embed builds a titled embed in the default color.
func Embed(title, description string) *discordgo.MessageEmbed {
	return embed.NewEmbed().
		SetTitle(title).
		SetDescription(description).
		SetColor(EmbedColor).
		MessageEmbed
}

// Failure builds the apologetic embed shown when a transport or store call failed.
func Failure(title string) *discordgo.MessageEmbed {
	return embed.NewEmbed().
		SetTitle(title).
		SetDescription("Sorry, something went wrong on our side. Please try again later.").
		SetColor(ErrorColor).
		MessageEmbed
}

// FollowupEmbedEphemeral posts an ephemeral embed follow-up. After a deferred
// acknowledgement the first follow-up replaces the loading placeholder.
func FollowupEmbedEphemeral(s Session, i *discordgo.InteractionCreate, e *discordgo.MessageEmbed) error {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{e},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
	return err
}
