package command

import (
	"github.com/keshon/scrims-bot/internal/config"
	"github.com/keshon/scrims-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// RegisterCommand wraps c in mws and adds it to reg under its own name.
func RegisterCommand(reg *cmd.Registry, c cmd.Command, mws ...cmd.Middleware) error {
	return reg.Register(cmd.Apply(c, mws...))
}

// Definition returns the slash schema of c (looking through wrappers), or nil.
func Definition(c cmd.Command, g *config.Guild) *discordgo.ApplicationCommand {
	if sp, ok := cmd.Root(c).(SlashProvider); ok {
		return sp.SlashDefinition(g)
	}
	return nil
}

// RolesOf returns the role restriction of c (looking through wrappers).
func RolesOf(c cmd.Command, g *config.Guild) []string {
	if rp, ok := cmd.Root(c).(RoleProvider); ok {
		return rp.Roles(g)
	}
	return nil
}
