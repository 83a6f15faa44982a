package purge

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Kind enumerates the purge predicates.
type Kind int

const (
	All Kind = iota
	FromActor
	HasEmbed
	IsImage
	HasAttachment
	ContainsText
	IsAutomated
	ContainsLink
)

var (
	ErrUnknownFilter = errors.New("unknown filter")
	ErrMissingUser   = errors.New("filter needs a user")
	ErrInvalidUser   = errors.New("user id is not numeric")
	ErrMissingText   = errors.New("filter needs text")
)

// filterNames maps option values to kinds, in the order they are offered.
var filterNames = []struct {
	name  string
	label string
	kind  Kind
}{
	{"all", "All messages", All},
	{"from_user", "From a user", FromActor},
	{"embeds", "With embeds", HasEmbed},
	{"images", "With images", IsImage},
	{"attachments", "With attachments", HasAttachment},
	{"contains", "Containing text", ContainsText},
	{"bots", "From bots", IsAutomated},
	{"links", "Containing links", ContainsLink},
}

// Filter is one predicate over a message. Actor is set for FromActor, Needle
// (already lower-cased) for ContainsText.
type Filter struct {
	Kind   Kind
	Actor  uint64
	Needle string
}

// Choice is a selectable filter name with a human label.
type Choice struct {
	Name  string
	Label string
}

// Choices lists every filter name in display order.
func Choices() []Choice {
	out := make([]Choice, 0, len(filterNames))
	for _, f := range filterNames {
		out = append(out, Choice{Name: f.name, Label: f.label})
	}
	return out
}

func (k Kind) String() string {
	for _, f := range filterNames {
		if f.kind == k {
			return f.name
		}
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseFilter builds a filter from the actor-supplied name. userID is required
// for from_user and text for contains.
func ParseFilter(name, userID, text string) (Filter, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range filterNames {
		if f.name != name {
			continue
		}
		switch f.kind {
		case FromActor:
			if userID == "" {
				return Filter{}, ErrMissingUser
			}
			id, err := strconv.ParseUint(userID, 10, 64)
			if err != nil {
				return Filter{}, fmt.Errorf("%w: %q", ErrInvalidUser, userID)
			}
			return Filter{Kind: FromActor, Actor: id}, nil
		case ContainsText:
			if text == "" {
				return Filter{}, ErrMissingText
			}
			return Filter{Kind: ContainsText, Needle: strings.ToLower(text)}, nil
		default:
			return Filter{Kind: f.kind}, nil
		}
	}
	return Filter{}, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
}

// Match evaluates the filter against m.
func (f Filter) Match(m *discordgo.Message) bool {
	if m == nil {
		return false
	}
	switch f.Kind {
	case All:
		return true
	case FromActor:
		if m.Author == nil {
			return false
		}
		id, err := strconv.ParseUint(m.Author.ID, 10, 64)
		return err == nil && id == f.Actor
	case HasEmbed:
		return len(m.Embeds) > 0
	case IsImage:
		if len(m.Attachments) == 0 || m.Attachments[0] == nil {
			return false
		}
		first := m.Attachments[0]
		return first.Height > 0 || first.Width > 0
	case HasAttachment:
		return len(m.Attachments) > 0
	case ContainsText:
		return strings.Contains(strings.ToLower(m.Content), f.Needle)
	case IsAutomated:
		return m.Author != nil && m.Author.Bot
	case ContainsLink:
		content := strings.ToLower(m.Content)
		return strings.Contains(content, "http://") || strings.Contains(content, "https://")
	default:
		return false
	}
}
