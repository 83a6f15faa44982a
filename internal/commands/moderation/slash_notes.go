package moderation

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/keshon/scrims-bot/internal/command"
	"github.com/keshon/scrims-bot/internal/config"
	"github.com/keshon/scrims-bot/internal/paging"
	"github.com/keshon/scrims-bot/internal/permission"
	"github.com/keshon/scrims-bot/internal/reply"
	"github.com/keshon/scrims-bot/internal/store"
	"github.com/keshon/scrims-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// NoteMaxLength caps the text of a single note.
const NoteMaxLength = 900

// NotesCommand lets staff keep notes on users. It is registered once and
// dispatches on the selected sub-command.
type NotesCommand struct{}

func (c *NotesCommand) Name() string        { return "notes" }
func (c *NotesCommand) Description() string { return "A way for staff to set notes for users." }

func (c *NotesCommand) Roles(g *config.Guild) []string {
	return permission.Roles([]string{g.Roles.Support, g.Roles.TrialSupport, g.Roles.Staff})
}

func (c *NotesCommand) SlashDefinition(g *config.Guild) *discordgo.ApplicationCommand {
	user := func(desc string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: desc,
			Required:    true,
		}
	}
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "The notes for a given user.",
				Options:     []*discordgo.ApplicationCommandOption{user("The user who's notes to retrieve.")},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "add",
				Description: "Add a note for a given user.",
				Options: []*discordgo.ApplicationCommandOption{
					user("The user to add a note to."),
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "note",
						Description: "The note to add.",
						Required:    true,
						MaxLength:   NoteMaxLength,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "remove",
				Description: "Delete a note from a user.",
				Options: []*discordgo.ApplicationCommandOption{
					user("The user to remove a note from."),
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "noteid",
						Description: "The note id to delete.",
						Required:    true,
					},
				},
			},
		},
	}
}

func (c *NotesCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	v, ok := inv.Data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}

	d, err := v.Acknowledge(false)
	if err != nil {
		return err
	}

	opts := v.Options()
	userID := opts.UserID("user")
	if userID == "" {
		return v.CorrectDeferred(d, command.Reject("Please pick a user."))
	}

	switch inv.Sub() {
	case "list":
		return c.list(ctx, v, d, userID)
	case "add":
		return c.add(ctx, v, d, userID, opts.String("note"))
	case "remove":
		id, ok := opts.Int("noteid")
		if !ok {
			return v.CorrectDeferred(d, command.Reject("Please give the id of the note to remove."))
		}
		return c.remove(ctx, v, d, userID, id)
	default:
		return v.CorrectDeferred(d, command.Reject("That is not an option."))
	}
}

func (c *NotesCommand) list(ctx context.Context, v *command.SlashInteractionContext, d *reply.Deferred, userID string) error {
	notes, err := v.Services.Notes.NotesFor(ctx, userID)
	if err != nil {
		return command.DatabaseError("list notes", err)
	}

	fields := make([]paging.Field, 0, len(notes))
	for _, n := range notes {
		fields = append(fields, NoteField(n))
	}
	return paging.Send(d, fields, paging.Options{
		Color:  reply.EmbedColor,
		Header: fmt.Sprintf("<@%s> currently the following notes:", userID),
		Empty:  reply.Embed("No notes found!", fmt.Sprintf("<@%s> currently has no notes.", userID)),
	})
}

func (c *NotesCommand) add(ctx context.Context, v *command.SlashInteractionContext, d *reply.Deferred, userID, text string) error {
	if text == "" {
		return v.CorrectDeferred(d, command.Reject("The note cannot be empty."))
	}
	if utf8.RuneCountInString(text) > NoteMaxLength {
		return v.CorrectDeferred(d, command.Reject(fmt.Sprintf("A note can be at most %d characters long.", NoteMaxLength)))
	}
	id, err := v.Services.Notes.AddNote(ctx, userID, v.Services.Clock(), text, v.Actor().ID)
	if err != nil {
		return command.DatabaseError("add note", err)
	}
	return d.Finalize(reply.Embed("Note Added",
		fmt.Sprintf("The note `%s` has been added to <@%s> with id %d.", text, userID, id)))
}

func (c *NotesCommand) remove(ctx context.Context, v *command.SlashInteractionContext, d *reply.Deferred, userID string, noteID int64) error {
	err := v.Services.Notes.RemoveNote(ctx, userID, noteID)
	if errors.Is(err, store.ErrNoteNotFound) {
		return v.CorrectDeferred(d, command.Reject(fmt.Sprintf("<@%s> has no note with id %d.", userID, noteID)))
	}
	if err != nil {
		return command.DatabaseError("remove note", err)
	}
	return d.Finalize(reply.Embed("Note Removed",
		fmt.Sprintf("The note has been deleted from <@%s> with id %d.", userID, noteID)))
}

// NoteField renders a note as a page field.
func NoteField(n store.Note) paging.Field {
	return paging.Field{
		Name:  fmt.Sprintf("Note %d:", n.ID),
		Value: fmt.Sprintf("<t:%d>: `%s` by <@!%s>", n.CreatedAt.Unix(), n.Text, n.CreatorID),
	}
}
