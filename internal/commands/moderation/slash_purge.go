// Package moderation holds the staff tools: purge and user notes.
package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/keshon/scrims-bot/internal/command"
	"github.com/keshon/scrims-bot/internal/config"
	"github.com/keshon/scrims-bot/internal/permission"
	"github.com/keshon/scrims-bot/internal/purge"
	"github.com/keshon/scrims-bot/internal/reply"
	"github.com/keshon/scrims-bot/pkg/cmd"
	"github.com/keshon/scrims-bot/pkg/jobmgr"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"
)

type PurgeCommand struct{}

func (c *PurgeCommand) Name() string        { return "purge" }
func (c *PurgeCommand) Description() string { return "Purges a specific amount of messages from the channel" }

func (c *PurgeCommand) Roles(g *config.Guild) []string {
	return permission.Roles([]string{g.Roles.Support, g.Roles.TrialSupport, g.Roles.Staff})
}

func (c *PurgeCommand) SlashDefinition(g *config.Guild) *discordgo.ApplicationCommand {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(purge.Choices()))
	for _, ch := range purge.Choices() {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: ch.Label, Value: ch.Name})
	}
	minAmount := 1.0

	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "filter",
				Description: "The specific type of messages to purge.",
				Required:    true,
				Choices:     choices,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "amount",
				Description: "The amount of messages to go through to purge (total messages)",
				Required:    true,
				MinValue:    &minAmount,
				MaxValue:    float64(g.Purge.MaxScan),
			},
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "The user who's messages are to be purged (if the from_user option is selected)",
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "text",
				Description: "The text to search for in purging messages (if the contains option is selected)",
			},
		},
	}
}

func (c *PurgeCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	v, ok := inv.Data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	event := v.Event
	g := v.Services.Guild

	d, err := v.Acknowledge(true)
	if err != nil {
		return err
	}

	opts := v.Options()
	f, err := purge.ParseFilter(opts.String("filter"), opts.UserID("user"), opts.String("text"))
	if err != nil {
		return v.CorrectDeferred(d, command.Reject(filterProblem(err)))
	}

	amount := g.Purge.DefaultScan
	if n, ok := opts.Int("amount"); ok && n > 0 {
		amount = int(n)
	}
	amount = min(amount, g.Purge.MaxScan)

	engine := v.Services.Purger
	if engine == nil {
		engine = purge.NewEngine(v.Session, nil)
	}

	var report purge.Report
	job := "purge:" + event.ChannelID
	err = v.Services.RunJob(ctx, job, func(ctx context.Context) error {
		history := purge.NewChannelHistory(v.Session, event.ChannelID, 100)
		report = engine.Run(ctx, history, f, amount)
		return nil
	})
	if errors.Is(err, jobmgr.ErrRunning) {
		return v.CorrectDeferred(d, command.Reject("A purge is already running in this channel."))
	}
	if err != nil {
		return err
	}

	summary := embed.NewEmbed().
		SetTitle("Purge Successful!").
		SetDescription(fmt.Sprintf("Deleted %d of %d scanned messages (%s).", report.Deleted, report.Scanned, f.Kind)).
		SetColor(reply.EmbedColor)
	if report.Failed > 0 || report.Skipped > 0 {
		summary.AddField("Not deleted", fmt.Sprintf("%d failed, %d unreadable", report.Failed, report.Skipped))
	}
	return d.Finalize(summary.MessageEmbed)
}

func filterProblem(err error) string {
	switch {
	case errors.Is(err, purge.ErrMissingUser):
		return "The `from_user` filter needs the `user` option."
	case errors.Is(err, purge.ErrInvalidUser):
		return "That `user` is not a valid user."
	case errors.Is(err, purge.ErrMissingText):
		return "The `contains` filter needs the `text` option."
	default:
		return fmt.Sprintf("%v. Pick one of the listed filters.", err)
	}
}
