package commandtest

import "github.com/bwmarrin/discordgo"

// Opt is a leaf option for Slash.
func Opt(name string, t discordgo.ApplicationCommandOptionType, value interface{}) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: t, Value: value}
}

// StringOpt is a string option.
func StringOpt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return Opt(name, discordgo.ApplicationCommandOptionString, value)
}

// IntOpt is an integer option. Values are float64 as they arrive over JSON.
func IntOpt(name string, value int) *discordgo.ApplicationCommandInteractionDataOption {
	return Opt(name, discordgo.ApplicationCommandOptionInteger, float64(value))
}

// UserOpt is a user option.
func UserOpt(name, userID string) *discordgo.ApplicationCommandInteractionDataOption {
	return Opt(name, discordgo.ApplicationCommandOptionUser, userID)
}

// Sub wraps options in a sub-command.
func Sub(name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:    name,
		Type:    discordgo.ApplicationCommandOptionSubCommand,
		Options: opts,
	}
}

// Slash builds a guild slash command event from member actorID holding roles.
func Slash(guildID, channelID, actorID string, roles []string, name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:        "interaction-" + name,
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   guildID,
		ChannelID: channelID,
		Member: &discordgo.Member{
			User:  &discordgo.User{ID: actorID, Username: "user" + actorID},
			Roles: roles,
		},
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    name,
			Options: opts,
		},
	}}
}
