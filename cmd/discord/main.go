package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keshon/scrims-bot/internal/command"
	"github.com/keshon/scrims-bot/internal/commands/moderation"
	"github.com/keshon/scrims-bot/internal/commands/ping"
	"github.com/keshon/scrims-bot/internal/commands/suggestion"
	"github.com/keshon/scrims-bot/internal/commands/ticket"
	"github.com/keshon/scrims-bot/internal/config"
	"github.com/keshon/scrims-bot/internal/cooldown"
	"github.com/keshon/scrims-bot/internal/discord"
	"github.com/keshon/scrims-bot/internal/logging"
	"github.com/keshon/scrims-bot/internal/middleware"
	"github.com/keshon/scrims-bot/internal/purge"
	"github.com/keshon/scrims-bot/internal/status"
	"github.com/keshon/scrims-bot/internal/storage"
	"github.com/keshon/scrims-bot/pkg/cmd"
	"github.com/keshon/scrims-bot/pkg/jobmgr"
	"github.com/keshon/scrims-bot/pkg/throttle"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// shutdownTimeout bounds how long main waits for running commands on a signal.
const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	closer := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer closer.Close()
	log.Info().Str("guild", cfg.Guild.ID).Msg("Starting scrims bot...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := storage.Open(cfg.StorageDriver, cfg.StoragePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer st.Close()

	dg, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Discord session")
	}

	g := &cfg.Guild
	cooldowns := cooldown.New(cooldown.WithMaxEntries(g.Cooldowns.MaxEntries))
	go cooldowns.Run(ctx, g.Cooldowns.SweepInterval)

	deleteRate := rate.Limit(g.Purge.DeleteRate)
	limiter := throttle.New(deleteRate, 1, deleteRate*2, 0.5, 0.5).WithClassifier(purge.RESTClassifier)

	jobs := jobmgr.NewManager(func(s string) { log.Debug().Str("event", s).Msg("job") })

	services := &command.Services{
		Guild:     g,
		Notes:     st,
		Tickets:   st,
		Cooldowns: cooldowns,
		Purger:    purge.NewEngine(dg, limiter),
		Jobs:      jobs,
	}

	reg, err := buildRegistry(g)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register commands")
	}

	if cfg.StatusAddr != "" {
		srv := status.New(reg, jobs, cooldowns)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.StatusAddr); err != nil {
				log.Error().Err(err).Msg("Status server stopped")
			}
		}()
	}

	bot := discord.NewBot(dg, g, reg, services)

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("Received signal, shutting down...")
		cancel()
		select {
		case err := <-errCh:
			if err != nil {
				log.Error().Err(err).Msg("Discord bot error during shutdown")
			}
		case <-time.After(shutdownTimeout):
			log.Warn().Dur("timeout", shutdownTimeout).Msg("Timed out waiting for running commands")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("Discord bot error")
		}
		cancel()
	}

	log.Info().Msg("Discord bot exited cleanly")
}

func buildRegistry(g *config.Guild) (*cmd.Registry, error) {
	reg := cmd.NewRegistry()
	mws := []cmd.Middleware{
		middleware.WithRoleCheck(),
		middleware.WithGuildOnly(),
		middleware.WithCommandLogger(),
	}

	cmds := []cmd.Command{
		&moderation.PurgeCommand{},
		&moderation.NotesCommand{},
		&ticket.TicketCommand{},
		&suggestion.SuggestionCommand{},
	}
	for _, p := range ping.All(g) {
		cmds = append(cmds, p)
	}
	for _, c := range cmds {
		if err := command.RegisterCommand(reg, c, mws...); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
