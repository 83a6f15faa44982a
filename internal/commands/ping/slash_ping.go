// Package ping provides the configurable role-ping commands. Each entry of the
// guild's ping list becomes its own slash command.
package ping

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/keshon/scrims-bot/internal/command"
	"github.com/keshon/scrims-bot/internal/config"
	"github.com/keshon/scrims-bot/internal/cooldown"
	"github.com/keshon/scrims-bot/internal/permission"
	"github.com/keshon/scrims-bot/internal/reply"
	"github.com/keshon/scrims-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

const defaultDescription = "Ping a desired role upon request"

// Command pings one of the roles its definition offers.
type Command struct {
	def config.Ping
}

// New returns the command for def.
func New(def config.Ping) *Command {
	return &Command{def: def}
}

// All returns one command per configured ping.
func All(g *config.Guild) []*Command {
	out := make([]*Command, 0, len(g.Pings))
	for _, p := range g.Pings {
		out = append(out, New(p))
	}
	return out
}

func (c *Command) Name() string { return c.def.Name }

func (c *Command) Description() string {
	if c.def.Description != "" {
		return c.def.Description
	}
	return defaultDescription
}

func (c *Command) Roles(g *config.Guild) []string {
	return permission.Roles(c.def.RequiredRoles, []string{g.Roles.Staff})
}

func (c *Command) SlashDefinition(g *config.Guild) *discordgo.ApplicationCommand {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(c.def.Choices))
	for _, ch := range c.def.Choices {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: ch.Name, Value: ch.Role})
	}
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "role",
				Description: "The role you would like to mention",
				Required:    true,
				Choices:     choices,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "text",
				Description: "An optional additional text to put in the message",
			},
		},
	}
}

func (c *Command) Run(ctx context.Context, inv *cmd.Invocation) error {
	v, ok := inv.Data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	event := v.Event
	opts := v.Options()

	roleID := opts.String("role")
	if _, ok := c.def.Choice(roleID); !ok {
		return v.Correct(command.Reject(fmt.Sprintf("The role <@&%s> cannot be pinged with /%s.", roleID, c.Name())))
	}

	allowed, err := c.channelAllowed(v.Session, event.ChannelID)
	if err != nil {
		return err
	}
	if !allowed {
		return v.Correct(command.Reject("This command is disabled in this channel."))
	}

	actor := v.Actor().ID
	cd := v.Services.Guild.Cooldowns
	wait, ok := v.Services.Cooldowns.Acquire(
		cooldown.Hold{Key: cooldown.GlobalKey(roleID), For: cd.PingGlobal},
		cooldown.Hold{Key: cooldown.ActorKey(actor, roleID), For: cd.PingActor},
	)
	if !ok {
		return v.Correct(command.Reject(fmt.Sprintf("You are on a cooldown. Please wait %.2f seconds.", wait.Seconds())))
	}

	content := strings.TrimSpace(fmt.Sprintf("<@!%s>: <@&%s> %s", actor, roleID, opts.String("text")))
	_, err = v.Session.ChannelMessageSendComplex(event.ChannelID, &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: &discordgo.MessageAllowedMentions{Roles: []string{roleID}},
	})
	if err != nil {
		return fmt.Errorf("send ping to %s: %w", event.ChannelID, err)
	}
	return reply.RespondEphemeral(v.Session, event, "Ping sent!")
}

// channelAllowed reports whether channelID, or the category it sits in, is on
// the allow list. No list means every channel is allowed.
func (c *Command) channelAllowed(s command.Session, channelID string) (bool, error) {
	if len(c.def.AllowedChannels) == 0 || slices.Contains(c.def.AllowedChannels, channelID) {
		return true, nil
	}
	ch, err := s.Channel(channelID)
	if err != nil {
		return false, fmt.Errorf("look up channel %s: %w", channelID, err)
	}
	return ch.ParentID != "" && slices.Contains(c.def.AllowedChannels, ch.ParentID), nil
}
