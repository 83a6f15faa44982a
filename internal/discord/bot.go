// Package discord connects the command registry to a Discord gateway session:
// it declares the commands when the session is ready and dispatches
// interactions to them.
package discord

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/keshon/scrims-bot/internal/command"
	"github.com/keshon/scrims-bot/internal/config"
	"github.com/keshon/scrims-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// NewSession creates a bot session for token without connecting it.
func NewSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent
	return dg, nil
}

// Bot is a running Discord bot
type Bot struct {
	dg         *discordgo.Session
	api        Registrar
	guild      *config.Guild
	registry   *cmd.Registry
	dispatcher *Dispatcher
	errCh      chan error
	ctx        context.Context

	registered atomic.Bool
	inflight   sync.WaitGroup
}

// NewBot wires reg and services to dg.
func NewBot(dg *discordgo.Session, guild *config.Guild, reg *cmd.Registry, services *command.Services) *Bot {
	return &Bot{
		dg:         dg,
		api:        dg,
		guild:      guild,
		registry:   reg,
		dispatcher: NewDispatcher(reg, services),
		errCh:      make(chan error, 1),
		ctx:        context.Background(),
	}
}

// Run connects, registers commands once the gateway is first ready and serves
// interactions until ctx is done. A registration failure ends Run with an error.
// Run returns after interactions already being handled have finished.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onInteractionCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	var err error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received, closing Discord session")
	case err = <-b.errCh:
	}
	if cerr := b.dg.Close(); cerr != nil {
		log.Warn().Err(cerr).Msg("Failed to close Discord session")
	}
	b.drain()
	return err
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.ready(r)
}

// ready registers the commands on the first READY only. Later READY events
// come from re-identifying after a dropped connection.
func (b *Bot) ready(r *discordgo.Ready) {
	if !b.registered.CompareAndSwap(false, true) {
		log.Info().Msg("Gateway session re-established")
		return
	}
	appID := r.User.ID
	if r.Application != nil && r.Application.ID != "" {
		appID = r.Application.ID
	}
	if err := RegisterCommands(b.api, appID, b.guild, b.registry); err != nil {
		b.fail(fmt.Errorf("register commands: %w", err))
		return
	}
	log.Info().Str("user", r.User.Username).Msg("Discord bot is running")
}

// onInteractionCreate runs in its own goroutine; discordgo does not serialize handlers.
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.inflight.Add(1)
	defer b.inflight.Done()
	b.dispatcher.Dispatch(b.ctx, s, i)
}

// drain waits for interactions being handled.
func (b *Bot) drain() {
	b.inflight.Wait()
}

func (b *Bot) fail(err error) {
	select {
	case b.errCh <- err:
	default:
	}
}
