package middleware

import (
	"context"

	"github.com/keshon/scrims-bot/internal/command"
	"github.com/keshon/scrims-bot/internal/permission"
	"github.com/keshon/scrims-bot/internal/reply"
	"github.com/keshon/scrims-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// DeniedMessage is shown to members without any of the required roles.
const DeniedMessage = "You do not have permission to use this command."

// WithRoleCheck enforces the command's role list at run time as well, since
// registered grants can be edited by guild admins. Administrators always pass.
func WithRoleCheck() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			v, ok := inv.Data.(*command.SlashInteractionContext)
			if !ok || v.Services == nil || v.Services.Guild == nil {
				return c.Run(ctx, inv)
			}

			roles := command.RolesOf(c, v.Services.Guild)
			m := v.Event.Member
			if m != nil && m.Permissions&discordgo.PermissionAdministrator != 0 {
				return c.Run(ctx, inv)
			}
			if !permission.Allowed(roles, v.MemberRoles()) {
				return reply.RespondEphemeral(v.Session, v.Event, DeniedMessage)
			}
			return c.Run(ctx, inv)
		})
	}
}
