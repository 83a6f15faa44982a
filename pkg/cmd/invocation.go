// Package cmd provides a transport-agnostic command core: a command is something
// with a name, description, and Run(ctx, invocation). How it is declared to a
// platform and how events reach it is defined by adapters that wrap this.
package cmd

import "context"

// Invocation carries what any adapter can pass to a command. Args holds the
// sub-command path left over after resolution (empty for flat commands). Data is
// the adapter's own context, e.g. *command.SlashInteractionContext.
type Invocation struct {
	Args []string
	Data interface{}
}

// Sub returns the first remaining sub-command name, or "".
func (inv *Invocation) Sub() string {
	if inv == nil || len(inv.Args) == 0 {
		return ""
	}
	return inv.Args[0]
}

// Command is identity plus execution. Permissions, option schemas and
// registration stay in adapters.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}
