// Package ticket adds and removes members from screenshare ticket channels.
package ticket

import (
	"context"
	"fmt"

	"github.com/keshon/scrims-bot/internal/command"
	"github.com/keshon/scrims-bot/internal/config"
	"github.com/keshon/scrims-bot/internal/permission"
	"github.com/keshon/scrims-bot/internal/reply"
	"github.com/keshon/scrims-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// MemberAllow is what a member added to a ticket may do in it.
const MemberAllow int64 = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionReadMessageHistory |
	discordgo.PermissionAttachFiles |
	discordgo.PermissionEmbedLinks

// MemberDeny is what a member added to a ticket may not do in it.
const MemberDeny int64 = discordgo.PermissionMentionEveryone |
	discordgo.PermissionManageMessages |
	discordgo.PermissionCreatePublicThreads |
	discordgo.PermissionCreatePrivateThreads

const (
	opAdd    = "a"
	opRemove = "r"
)

type TicketCommand struct{}

func (c *TicketCommand) Name() string        { return "ticket" }
func (c *TicketCommand) Description() string { return "Adds/removes someone to an existing ticket" }

func (c *TicketCommand) Roles(g *config.Guild) []string {
	return permission.Roles([]string{g.Roles.ScreenshareSupport, g.Roles.Staff})
}

func (c *TicketCommand) SlashDefinition(g *config.Guild) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "operation",
				Description: "Whether to add or remove someone",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Add", Value: opAdd},
					{Name: "Remove", Value: opRemove},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "target",
				Description: "The user that is affected by the change",
				Required:    true,
			},
		},
	}
}

func (c *TicketCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	v, ok := inv.Data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	channelID := v.Event.ChannelID
	opts := v.Options()
	target := opts.UserID("target")

	isTicket, err := v.Services.Tickets.IsTicket(ctx, channelID)
	if err != nil {
		return command.DatabaseError("look up ticket", err)
	}
	if !isTicket {
		return v.Correct(command.Reject("That channel is not a ticket!"))
	}
	if target == "" {
		return v.Correct(command.Reject("Please pick a target user."))
	}

	switch opts.String("operation") {
	case opAdd:
		err := v.Session.ChannelPermissionSet(channelID, target, discordgo.PermissionOverwriteTypeMember, MemberAllow, MemberDeny)
		if err != nil {
			return fmt.Errorf("add %s to ticket %s: %w", target, channelID, err)
		}
		return reply.Respond(v.Session, v.Event, fmt.Sprintf("<@%s> has been added to the ticket.", target))
	case opRemove:
		if err := v.Session.ChannelPermissionDelete(channelID, target); err != nil {
			return fmt.Errorf("remove %s from ticket %s: %w", target, channelID, err)
		}
		return reply.Respond(v.Session, v.Event, fmt.Sprintf("<@%s> has been removed from the ticket.", target))
	default:
		return v.Correct(command.Reject("That is not an option."))
	}
}
