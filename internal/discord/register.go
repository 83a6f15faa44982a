package discord

import (
	"fmt"

	"github.com/keshon/scrims-bot/internal/command"
	"github.com/keshon/scrims-bot/internal/config"
	"github.com/keshon/scrims-bot/internal/permission"
	"github.com/keshon/scrims-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// Registrar is the part of *discordgo.Session used to declare commands.
type Registrar interface {
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandCreate(appID string, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
	ApplicationCommandPermissionsEdit(appID, guildID, cmdID string, permissions *discordgo.ApplicationCommandPermissionsList, options ...discordgo.RequestOption) error
}

// Definitions builds the slash schema of every command in reg, with default
// visibility set from its role list.
func Definitions(reg *cmd.Registry, g *config.Guild) []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, c := range reg.GetAll() {
		def := command.Definition(c, g)
		if def == nil {
			continue
		}
		if def.Type == 0 {
			def.Type = discordgo.ChatApplicationCommand
		}
		permission.Apply(def, command.RolesOf(c, g))
		defs = append(defs, def)
	}
	return defs
}

// RegisterCommands declares every command of reg in the configured guild.
// Remote commands that are no longer defined are deleted first. Role grants are
// written when g.ApplyPermissions is set. The first failure aborts.
func RegisterCommands(api Registrar, appID string, g *config.Guild, reg *cmd.Registry) error {
	defs := Definitions(reg, g)
	wanted := make(map[string]bool, len(defs))
	for _, d := range defs {
		wanted[d.Name] = true
	}

	remote, err := api.ApplicationCommands(appID, g.ID)
	if err != nil {
		return fmt.Errorf("list commands of guild %s: %w", g.ID, err)
	}
	for _, rc := range remote {
		if wanted[rc.Name] {
			continue
		}
		log.Info().Str("guild", g.ID).Str("command", rc.Name).Msg("deleting stale command")
		if err := api.ApplicationCommandDelete(appID, g.ID, rc.ID); err != nil {
			return fmt.Errorf("delete stale command %s: %w", rc.Name, err)
		}
	}

	for _, d := range defs {
		created, err := api.ApplicationCommandCreate(appID, g.ID, d)
		if err != nil {
			return fmt.Errorf("register command %s: %w", d.Name, err)
		}

		roles := command.RolesOf(reg.Get(d.Name), g)
		if g.ApplyPermissions && len(roles) > 0 {
			list := &discordgo.ApplicationCommandPermissionsList{Permissions: permission.Grants(roles)}
			if err := api.ApplicationCommandPermissionsEdit(appID, g.ID, created.ID, list); err != nil {
				return fmt.Errorf("grant roles on command %s: %w", d.Name, err)
			}
		}
		log.Debug().Str("guild", g.ID).Str("command", d.Name).Strs("roles", roles).Msg("registered command")
	}

	log.Info().Str("guild", g.ID).Int("count", len(defs)).Msg("slash commands registered")
	return nil
}
