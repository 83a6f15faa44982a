package middleware

import (
	"context"

	"github.com/keshon/scrims-bot/internal/command"
	"github.com/keshon/scrims-bot/pkg/cmd"

	"github.com/rs/zerolog/log"
)

// WithGuildOnly drops invocations outside the configured guild, including DMs.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			v, ok := inv.Data.(*command.SlashInteractionContext)
			if !ok {
				return c.Run(ctx, inv)
			}
			guildID := v.Event.GuildID
			if guildID == "" || (v.Services != nil && v.Services.Guild != nil && guildID != v.Services.Guild.ID) {
				log.Debug().Str("command", c.Name()).Str("guild", guildID).Msg("ignoring command outside the guild")
				return nil
			}
			return c.Run(ctx, inv)
		})
	}
}
