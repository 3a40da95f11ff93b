// Package config loads the deployment configuration. All game constants are
// fixed at process start; nothing here is runtime-mutable.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Chain   ChainConfig   `mapstructure:"chain"`
	Game    GameConfig    `mapstructure:"game"`
	Ledger  LedgerConfig  `mapstructure:"ledger"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig configures the HTTP/WebSocket surface.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ChainConfig configures the execution host.
type ChainConfig struct {
	ID uint64 `mapstructure:"id"`
}

// GameConfig holds the engine's deployment constants.
type GameConfig struct {
	Owner           string `mapstructure:"owner"`
	TreasuryAddress string `mapstructure:"treasury_address"`
	PrizeAmount     int64  `mapstructure:"prize_amount"`
	CooldownSeconds int64  `mapstructure:"cooldown_seconds"`
	MaxPrizePool    int64  `mapstructure:"max_prize_pool"`
	MaxNumber       uint64 `mapstructure:"max_number"`
}

// Cooldown returns the configured cooldown as a duration.
func (g GameConfig) Cooldown() time.Duration {
	return time.Duration(g.CooldownSeconds) * time.Second
}

// Ledger backends.
const (
	LedgerBackendMemory   = "memory"
	LedgerBackendPostgres = "postgres"
)

// LedgerConfig selects and configures the token ledger backend.
type LedgerConfig struct {
	Backend     string         `mapstructure:"backend"`
	PostgresURL string         `mapstructure:"postgres_url"`
	Genesis     []GenesisGrant `mapstructure:"genesis"`
}

// GenesisGrant seeds a balance on the memory ledger at startup.
type GenesisGrant struct {
	Address string `mapstructure:"address"`
	Amount  int64  `mapstructure:"amount"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the YAML config at path, applies DICEHOUSE_* environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("DICEHOUSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("chain.id", 1)
	v.SetDefault("game.treasury_address", "dice:treasury")
	v.SetDefault("game.prize_amount", 10_000)
	v.SetDefault("game.cooldown_seconds", 10)
	v.SetDefault("game.max_prize_pool", 1_000_000)
	v.SetDefault("game.max_number", 6)
	v.SetDefault("ledger.backend", LedgerBackendMemory)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Validate rejects configurations the engine would refuse anyway, with
// clearer messages.
func (c *Config) Validate() error {
	if c.Game.Owner == "" {
		return fmt.Errorf("config: game.owner is required")
	}
	if c.Game.TreasuryAddress == "" {
		return fmt.Errorf("config: game.treasury_address is required")
	}
	if c.Game.PrizeAmount <= 0 {
		return fmt.Errorf("config: game.prize_amount must be positive")
	}
	if c.Game.MaxPrizePool < c.Game.PrizeAmount {
		return fmt.Errorf("config: game.max_prize_pool must cover at least one prize")
	}
	if c.Game.CooldownSeconds < 0 {
		return fmt.Errorf("config: game.cooldown_seconds must not be negative")
	}
	if c.Game.MaxNumber < 2 {
		return fmt.Errorf("config: game.max_number must be at least 2")
	}
	switch c.Ledger.Backend {
	case LedgerBackendMemory:
	case LedgerBackendPostgres:
		if c.Ledger.PostgresURL == "" {
			return fmt.Errorf("config: ledger.postgres_url required for postgres backend")
		}
	default:
		return fmt.Errorf("config: unknown ledger backend %q", c.Ledger.Backend)
	}
	for _, grant := range c.Ledger.Genesis {
		if grant.Address == "" || grant.Amount <= 0 {
			return fmt.Errorf("config: invalid genesis grant %+v", grant)
		}
	}
	return nil
}
