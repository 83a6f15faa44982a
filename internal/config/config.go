// Package config loads process settings from the environment (and an optional
// .env file) and the guild layout from a TOML file. Both are read once at
// startup and treated as immutable afterwards.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Env holds settings that come from the process environment.
type Env struct {
	DiscordToken  string `env:"DISCORD_TOKEN,required"`
	GuildConfig   string `env:"BOT_CONFIG" envDefault:"config.toml"`
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"json"`
	StoragePath   string `env:"STORAGE_PATH" envDefault:"datastore.json"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"LOG_FILE"`
	StatusAddr    string `env:"STATUS_ADDR"`
}

// Config is everything the bot needs to start.
type Config struct {
	Env
	Guild Guild
}

// Roles names the role ids commands are gated on.
type Roles struct {
	Staff              string `mapstructure:"staff"`
	Support            string `mapstructure:"support"`
	TrialSupport       string `mapstructure:"trial_support"`
	ScreenshareSupport string `mapstructure:"screenshare_support"`
}

// PingChoice is one selectable role of a ping command.
type PingChoice struct {
	Name string `mapstructure:"name"`
	Role string `mapstructure:"role"`
}

// Ping defines one role-ping command.
type Ping struct {
	Name            string       `mapstructure:"name"`
	Description     string       `mapstructure:"description"`
	Choices         []PingChoice `mapstructure:"choices"`
	AllowedChannels []string     `mapstructure:"allowed_channels"`
	RequiredRoles   []string     `mapstructure:"required_roles"`
}

// Choice returns the configured choice whose role id is roleID.
func (p Ping) Choice(roleID string) (PingChoice, bool) {
	for _, c := range p.Choices {
		if c.Role == roleID {
			return c, true
		}
	}
	return PingChoice{}, false
}

type Cooldowns struct {
	PingGlobal    time.Duration `mapstructure:"ping_global"`
	PingActor     time.Duration `mapstructure:"ping_actor"`
	MaxEntries    int           `mapstructure:"max_entries"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type Purge struct {
	DefaultScan int     `mapstructure:"default_scan"`
	MaxScan     int     `mapstructure:"max_scan"`
	DeleteRate  float64 `mapstructure:"delete_rate"`
}

// Guild is the layout of the single guild the bot serves.
type Guild struct {
	ID                 string    `mapstructure:"guild"`
	SuggestionsChannel string    `mapstructure:"suggestions_channel"`
	ApplyPermissions   bool      `mapstructure:"apply_permissions"`
	Roles              Roles     `mapstructure:"roles"`
	Pings              []Ping    `mapstructure:"pings"`
	Cooldowns          Cooldowns `mapstructure:"cooldowns"`
	Purge              Purge     `mapstructure:"purge"`
}

var commandName = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)

// maxChoices is Discord's limit on choices per option.
const maxChoices = 25

// Load reads .env (when present), the environment and the guild file it points to.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, falling back to system environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg.Env); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	guild, err := LoadGuild(cfg.GuildConfig)
	if err != nil {
		return nil, err
	}
	cfg.Guild = *guild
	return &cfg, nil
}

// LoadGuild reads and validates the guild file at path.
func LoadGuild(path string) (*Guild, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read guild config %s: %w", path, err)
	}

	var g Guild
	if err := v.Unmarshal(&g); err != nil {
		return nil, fmt.Errorf("decode guild config %s: %w", path, err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid guild config %s: %w", path, err)
	}
	return &g, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("apply_permissions", true)
	v.SetDefault("cooldowns.ping_global", time.Minute)
	v.SetDefault("cooldowns.ping_actor", 5*time.Minute)
	v.SetDefault("cooldowns.max_entries", 10000)
	v.SetDefault("cooldowns.sweep_interval", time.Minute)
	v.SetDefault("purge.default_scan", 50)
	v.SetDefault("purge.max_scan", 1000)
	v.SetDefault("purge.delete_rate", 5.0)
}

// Validate reports every problem in g at once.
func (g *Guild) Validate() error {
	var errs []error
	if g.ID == "" {
		errs = append(errs, errors.New("guild is required"))
	}
	if g.Roles.Staff == "" {
		errs = append(errs, errors.New("roles.staff is required"))
	}
	if g.Purge.DefaultScan <= 0 || g.Purge.MaxScan < g.Purge.DefaultScan {
		errs = append(errs, fmt.Errorf("purge scan bounds %d/%d are inconsistent", g.Purge.DefaultScan, g.Purge.MaxScan))
	}
	if g.Purge.DeleteRate <= 0 {
		errs = append(errs, errors.New("purge.delete_rate must be positive"))
	}

	var seen []string
	for i, p := range g.Pings {
		switch {
		case !commandName.MatchString(p.Name):
			errs = append(errs, fmt.Errorf("pings[%d]: invalid command name %q", i, p.Name))
		case slices.Contains(seen, p.Name):
			errs = append(errs, fmt.Errorf("pings[%d]: duplicate command name %q", i, p.Name))
		}
		seen = append(seen, p.Name)

		if len(p.Choices) == 0 || len(p.Choices) > maxChoices {
			errs = append(errs, fmt.Errorf("pings[%d] %q: needs 1 to %d role choices", i, p.Name, maxChoices))
		}
		for j, c := range p.Choices {
			if c.Name == "" || c.Role == "" {
				errs = append(errs, fmt.Errorf("pings[%d] %q: choice %d needs a name and a role", i, p.Name, j))
			}
		}
	}
	return errors.Join(errs...)
}

// Ping returns the ping definition named name.
func (g *Guild) Ping(name string) (Ping, bool) {
	for _, p := range g.Pings {
		if p.Name == name {
			return p, true
		}
	}
	return Ping{}, false
}
