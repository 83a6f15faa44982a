package command

import "github.com/bwmarrin/discordgo"

// Options holds the leaf options of a slash invocation keyed by name.
type Options map[string]*discordgo.ApplicationCommandInteractionDataOption

// Path returns the sub-command (and group) names selected in data, outermost first.
func Path(data discordgo.ApplicationCommandInteractionData) []string {
	var path []string
	opts := data.Options
	for len(opts) > 0 {
		o := opts[0]
		if o.Type != discordgo.ApplicationCommandOptionSubCommand && o.Type != discordgo.ApplicationCommandOptionSubCommandGroup {
			break
		}
		path = append(path, o.Name)
		opts = o.Options
	}
	return path
}

// ParseOptions collects the leaf options of data, descending through sub-commands.
func ParseOptions(data discordgo.ApplicationCommandInteractionData) Options {
	out := make(Options)
	opts := data.Options
	for len(opts) > 0 {
		o := opts[0]
		if o.Type == discordgo.ApplicationCommandOptionSubCommand || o.Type == discordgo.ApplicationCommandOptionSubCommandGroup {
			opts = o.Options
			continue
		}
		for _, leaf := range opts {
			out[leaf.Name] = leaf
		}
		break
	}
	return out
}

// Options returns the parsed options of the interaction.
func (c *SlashInteractionContext) Options() Options {
	if c.Event.Type != discordgo.InteractionApplicationCommand {
		return Options{}
	}
	return ParseOptions(c.Event.ApplicationCommandData())
}

// String returns the string value of name, or "".
func (o Options) String(name string) string {
	if v, ok := o[name]; ok && v.Type == discordgo.ApplicationCommandOptionString {
		return v.StringValue()
	}
	return ""
}

// Int returns the integer value of name and whether it was given.
func (o Options) Int(name string) (int64, bool) {
	if v, ok := o[name]; ok && v.Type == discordgo.ApplicationCommandOptionInteger {
		return v.IntValue(), true
	}
	return 0, false
}

// UserID returns the snowflake of a user option, or "". Only the raw value is
// read so no session lookup is needed.
func (o Options) UserID(name string) string {
	v, ok := o[name]
	if !ok || v.Type != discordgo.ApplicationCommandOptionUser {
		return ""
	}
	if s, ok := v.Value.(string); ok {
		return s
	}
	return ""
}
