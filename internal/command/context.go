package command

import (
	"errors"
	"fmt"

	"github.com/keshon/scrims-bot/internal/reply"

	"github.com/bwmarrin/discordgo"
)

// UserError is bad input from the actor. Message is shown to them verbatim.
type UserError struct {
	Message string
}

func (e UserError) Error() string { return e.Message }

// Reject builds a UserError.
func Reject(message string) error {
	return UserError{Message: message}
}

// Actor returns the user who triggered the interaction.
func (c *SlashInteractionContext) Actor() *discordgo.User {
	e := c.Event
	if e.Member != nil && e.Member.User != nil {
		return e.Member.User
	}
	if e.User != nil {
		return e.User
	}
	return &discordgo.User{ID: "unknown", Username: "Unknown"}
}

// MemberRoles returns the actor's role ids, empty outside a guild.
func (c *SlashInteractionContext) MemberRoles() []string {
	if c.Event.Member == nil {
		return nil
	}
	return c.Event.Member.Roles
}

// Acknowledge defers the response and remembers the acknowledgement, so a
// later failure is reported on the pending response.
func (c *SlashInteractionContext) Acknowledge(ephemeral bool) (*reply.Deferred, error) {
	d, err := reply.Acknowledge(c.Session, c.Event, ephemeral)
	if err != nil {
		return nil, err
	}
	c.deferred = d
	return d, nil
}

// Deferred returns the acknowledgement made through Acknowledge, nil when the
// interaction has not been deferred.
func (c *SlashInteractionContext) Deferred() *reply.Deferred { return c.deferred }

// Correct answers a UserError with an ephemeral message and swallows it. Any
// other error is returned unchanged.
func (c *SlashInteractionContext) Correct(err error) error {
	var ue UserError
	if !errors.As(err, &ue) {
		return err
	}
	return reply.RespondEphemeral(c.Session, c.Event, ue.Message)
}

// CorrectDeferred is Correct for an interaction that was already acknowledged.
func (c *SlashInteractionContext) CorrectDeferred(d *reply.Deferred, err error) error {
	var ue UserError
	if !errors.As(err, &ue) {
		return err
	}
	return d.FinalizeText(ue.Message)
}

// ErrDatabase marks failures of the note or ticket store. The dispatcher renders
// them as "Database Error!" rather than the generic apology.
var ErrDatabase = errors.New("database error")

// DatabaseError wraps a store failure with ErrDatabase and a short action.
func DatabaseError(action string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDatabase, action, err)
}
