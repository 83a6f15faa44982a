package discord

import (
	"context"
	"errors"

	"github.com/keshon/scrims-bot/internal/command"
	"github.com/keshon/scrims-bot/internal/reply"
	"github.com/keshon/scrims-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const databaseFailure = "There was an error when communicating with the database."

// Dispatcher routes slash interactions to registered commands.
type Dispatcher struct {
	registry *cmd.Registry
	services *command.Services
}

// NewDispatcher returns a dispatcher over reg sharing services with every invocation.
func NewDispatcher(reg *cmd.Registry, services *command.Services) *Dispatcher {
	return &Dispatcher{registry: reg, services: services}
}

// Dispatch runs the command named by i. Interactions of other kinds and unknown
// commands are ignored. A failing command gets an apologetic reply: ephemeral
// when answered directly, in the pending placeholder when it was deferred.
func (d *Dispatcher) Dispatch(ctx context.Context, s command.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		log.Debug().Int("type", int(i.Type)).Msg("ignoring interaction")
		return
	}
	data := i.ApplicationCommandData()

	c, args := d.registry.Resolve(data.Name, command.Path(data)...)
	if c == nil {
		log.Debug().Str("command", data.Name).Msg("unknown command")
		return
	}

	v := &command.SlashInteractionContext{Session: s, Event: i, Services: d.services}
	err := c.Run(ctx, &cmd.Invocation{Args: args, Data: v})
	if err == nil {
		return
	}

	failure := reply.Failure("Something went wrong!")
	if errors.Is(err, command.ErrDatabase) {
		failure = reply.Failure("Database Error!")
		failure.Description = databaseFailure
	}
	if rerr := report(s, i, v.Deferred(), failure); rerr != nil {
		log.Warn().Err(rerr).Str("command", data.Name).Msg("could not report command failure")
	}
}

// report shows failure on whatever the command left behind: the immediate
// response, a still pending placeholder, or a follow-up after a finished one.
func report(s command.Session, i *discordgo.InteractionCreate, d *reply.Deferred, failure *discordgo.MessageEmbed) error {
	switch {
	case d == nil:
		if err := reply.RespondEmbedEphemeral(s, i, failure); err == nil {
			return nil
		}
		return reply.FollowupEmbedEphemeral(s, i, failure)
	case !d.Finalized():
		return d.Finalize(failure)
	default:
		return reply.FollowupEmbedEphemeral(s, i, failure)
	}
}
