// Package command is the Discord adapter layer on top of pkg/cmd: the session
// surface commands may use, the per-invocation context, the shared services and
// the provider interfaces registration looks for.
package command

import (
	"context"
	"time"

	"github.com/keshon/scrims-bot/internal/config"
	"github.com/keshon/scrims-bot/internal/cooldown"
	"github.com/keshon/scrims-bot/internal/purge"
	"github.com/keshon/scrims-bot/internal/reply"
	"github.com/keshon/scrims-bot/internal/store"
	"github.com/keshon/scrims-bot/pkg/jobmgr"

	"github.com/bwmarrin/discordgo"
)

// Session is the subset of *discordgo.Session that commands call.
type Session interface {
	reply.Session
	purge.MessageLister
	purge.Deleter

	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelPermissionSet(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64, options ...discordgo.RequestOption) error
	ChannelPermissionDelete(channelID, targetID string, options ...discordgo.RequestOption) error
}

// Services is everything shared between invocations. It is built once in main
// and handed to every context.
type Services struct {
	Guild     *config.Guild
	Notes     store.NoteStore
	Tickets   store.TicketStore
	Cooldowns *cooldown.Engine
	Purger    *purge.Engine
	Jobs      *jobmgr.Manager
	Now       func() time.Time
}

// Clock returns s.Now, or time.Now when unset.
func (s *Services) Clock() time.Time {
	if s == nil || s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// SlashInteractionContext is the Invocation.Data of a slash command.
type SlashInteractionContext struct {
	Session      Session
	Event        *discordgo.InteractionCreate
	Services     *Services
	InvocationID string

	deferred *reply.Deferred
}

// SlashProvider is implemented by commands exposed as slash commands.
type SlashProvider interface {
	SlashDefinition(g *config.Guild) *discordgo.ApplicationCommand
}

// RoleProvider is implemented by commands restricted to certain roles. An empty
// list means the command is open to everyone.
type RoleProvider interface {
	Roles(g *config.Guild) []string
}

// RunJob runs fn under name through Jobs, or directly when no manager is set.
func (s *Services) RunJob(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if s == nil || s.Jobs == nil {
		return fn(ctx)
	}
	return s.Jobs.Run(ctx, name, fn)
}
