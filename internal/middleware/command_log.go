// Package middleware holds the cmd.Middleware chain applied to every slash command.
package middleware

import (
	"context"
	"time"

	"github.com/keshon/scrims-bot/internal/command"
	"github.com/keshon/scrims-bot/pkg/cmd"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

// WithCommandLogger tags each invocation with an id and logs how it went.
func WithCommandLogger() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			v, ok := inv.Data.(*command.SlashInteractionContext)
			if !ok {
				return c.Run(ctx, inv)
			}
			if v.InvocationID == "" {
				if id, err := uuid.NewV4(); err == nil {
					v.InvocationID = id.String()
				}
			}

			start := time.Now()
			err := c.Run(ctx, inv)

			user := v.Actor()
			ev := log.Info()
			if err != nil {
				ev = log.Error().Err(err)
			}
			ev.Str("invocation", v.InvocationID).
				Str("command", c.Name()).
				Strs("path", inv.Args).
				Str("guild", v.Event.GuildID).
				Str("channel", v.Event.ChannelID).
				Str("user", user.ID).
				Str("username", user.Username).
				Dur("took", time.Since(start)).
				Msg("command handled")
			return err
		})
	}
}
