// Command cli is an operator tool working directly on the bot's store.
//
//	cli notes list <user>
//	cli ticket open <channel> <user>
//	cli ticket close <channel>
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/keshon/scrims-bot/internal/logging"
	"github.com/keshon/scrims-bot/internal/storage"
	"github.com/keshon/scrims-bot/internal/store"
	"github.com/keshon/scrims-bot/pkg/cmd"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// cliEnv is the subset of the bot environment the CLI needs; no token required.
type cliEnv struct {
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"json"`
	StoragePath   string `env:"STORAGE_PATH" envDefault:"datastore.json"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"warn"`
}

var errUsage = errors.New("usage")

// cliContext is the Invocation.Data of every CLI command.
type cliContext struct {
	store store.Store
	out   io.Writer
	now   func() time.Time
}

type opFunc struct {
	name, desc string
	nargs      int
	run        func(ctx context.Context, c *cliContext, args []string) error
}

func (o *opFunc) Name() string        { return o.name }
func (o *opFunc) Description() string { return o.desc }

func (o *opFunc) Run(ctx context.Context, inv *cmd.Invocation) error {
	if len(inv.Args) != o.nargs {
		return fmt.Errorf("%w: %s", errUsage, o.desc)
	}
	return o.run(ctx, inv.Data.(*cliContext), inv.Args)
}

func registry() *cmd.Registry {
	reg := cmd.NewRegistry()
	ops := []*opFunc{
		{name: "notes list", desc: "notes list <user>", nargs: 1, run: listNotes},
		{name: "ticket open", desc: "ticket open <channel> <user>", nargs: 2, run: openTicket},
		{name: "ticket close", desc: "ticket close <channel>", nargs: 1, run: closeTicket},
	}
	for _, op := range ops {
		if err := reg.RegisterAs(op.name, op); err != nil {
			panic(err)
		}
	}
	return reg
}

func listNotes(ctx context.Context, c *cliContext, args []string) error {
	notes, err := c.store.NotesFor(ctx, args[0])
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		fmt.Fprintf(c.out, "%s has no notes\n", args[0])
		return nil
	}
	for _, n := range notes {
		fmt.Fprintf(c.out, "%d\t%s\t%s\t%s\n", n.ID, n.CreatedAt.Format(time.RFC3339), n.CreatorID, n.Text)
	}
	return nil
}

func openTicket(ctx context.Context, c *cliContext, args []string) error {
	err := c.store.OpenTicket(ctx, store.Ticket{
		ChannelID: args[0],
		TargetID:  args[1],
		CreatorID: "cli",
		OpenedAt:  c.now(),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "channel %s is now a ticket for %s\n", args[0], args[1])
	return nil
}

func closeTicket(ctx context.Context, c *cliContext, args []string) error {
	if err := c.store.CloseTicket(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "ticket %s closed\n", args[0])
	return nil
}

func run(ctx context.Context, reg *cmd.Registry, c *cliContext, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: %s", errUsage, strings.Join(reg.Names(), " | "))
	}
	found, rest := reg.Resolve(args[0], args[1:]...)
	if found == nil {
		return fmt.Errorf("%w: unknown command %q; have %s", errUsage, strings.Join(args, " "), strings.Join(reg.Names(), " | "))
	}
	return found.Run(ctx, &cmd.Invocation{Args: rest, Data: c})
}

func main() {
	_ = godotenv.Load()
	var e cliEnv
	if err := env.Parse(&e); err != nil {
		log.Fatal().Err(err).Msg("Failed to parse environment")
	}
	defer logging.Setup(logging.Options{Level: e.LogLevel}).Close()

	st, err := storage.Open(e.StorageDriver, e.StoragePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}

	c := &cliContext{store: st, out: os.Stdout, now: time.Now}
	err = run(context.Background(), registry(), c, os.Args[1:])
	if cerr := st.Close(); cerr != nil {
		log.Error().Err(cerr).Msg("Failed to close storage")
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
