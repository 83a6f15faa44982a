// Package suggestion forwards member suggestions to the staff channel.
package suggestion

import (
	"context"
	"fmt"

	"github.com/keshon/scrims-bot/internal/command"
	"github.com/keshon/scrims-bot/internal/config"
	"github.com/keshon/scrims-bot/internal/reply"
	"github.com/keshon/scrims-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"
)

const footer = "Bridge Scrims"

type SuggestionCommand struct{}

func (c *SuggestionCommand) Name() string        { return "suggestion" }
func (c *SuggestionCommand) Description() string { return "Create a suggestion" }

func (c *SuggestionCommand) SlashDefinition(g *config.Guild) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "suggestion",
				Description: "Put your suggestion here",
				Required:    true,
			},
		},
	}
}

func (c *SuggestionCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	v, ok := inv.Data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}

	d, err := v.Acknowledge(true)
	if err != nil {
		return err
	}

	text := v.Options().String("suggestion")
	if text == "" {
		return v.CorrectDeferred(d, command.Reject("Your suggestion cannot be empty."))
	}

	channelID := v.Services.Guild.SuggestionsChannel
	_, err = v.Session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: "_ _",
		Embeds:  []*discordgo.MessageEmbed{Render(v.Actor(), text)},
	})
	if err != nil {
		return fmt.Errorf("deliver suggestion to %s: %w", channelID, err)
	}
	return d.Finalize(reply.Embed("Suggestions", "Your suggestion has been delivered successfully"))
}

// Render builds the embed posted to the suggestions channel.
func Render(from *discordgo.User, text string) *discordgo.MessageEmbed {
	return embed.NewEmbed().
		SetTitle("Recieved a new suggestion! from: ").
		SetDescription(from.Mention()).
		AddField("Suggestion:", text).
		SetColor(reply.EmbedColor).
		SetFooter(footer).
		MessageEmbed
}
