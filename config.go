package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds process settings read from the environment
type Config struct {
	Addr        string `env:"ADDR" envDefault:":8080"`
	DBPath      string `env:"DB_PATH" envDefault:"command.db"`
	ContentPath string `env:"CONTENT_PATH"` // empty = embedded catalog
	JournalDir  string `env:"JOURNAL_DIR"`  // empty = journal disabled

	TickRate         int    `env:"TICK_RATE" envDefault:"60"`
	BroadcastRate    int    `env:"BROADCAST_RATE" envDefault:"10"`
	WorldWidth       int    `env:"WORLD_WIDTH" envDefault:"200"`
	WorldHeight      int    `env:"WORLD_HEIGHT" envDefault:"200"`
	BatchExpiryTicks uint64 `env:"BATCH_EXPIRY_TICKS" envDefault:"600"`
	CommandChunkSize int    `env:"COMMAND_CHUNK_SIZE" envDefault:"200"`
	MaxLineLength    int    `env:"MAX_LINE_LENGTH" envDefault:"100"`

	ActionRate       float64  `env:"ACTION_RATE" envDefault:"30"`
	ActionBurst      int      `env:"ACTION_BURST" envDefault:"60"`
	AdminOnlyActions []string `env:"ADMIN_ONLY_ACTIONS" envSeparator:","`

	MaxConns      int `env:"MAX_CONNS" envDefault:"1000"`
	MaxConnsPerIP int `env:"MAX_CONNS_PER_IP" envDefault:"5"`

	Rules Rules
}

// Rules are the gameplay switches the protocol handlers consult
type Rules struct {
	ItemTransferRange   float64       `env:"ITEM_TRANSFER_RANGE" envDefault:"24"`
	ItemDepositCooldown time.Duration `env:"ITEM_DEPOSIT_COOLDOWN" envDefault:"500ms"`
	OnlyDepositCore     bool          `env:"ONLY_DEPOSIT_CORE" envDefault:"false"`
	PossessionAllowed   bool          `env:"POSSESSION_ALLOWED" envDefault:"true"`
}

// DefaultRules returns the rules used when no environment is parsed
func DefaultRules() Rules {
	return Rules{
		ItemTransferRange:   24,
		ItemDepositCooldown: 500 * time.Millisecond,
		PossessionAllowed:   true,
	}
}

// LoadConfig parses the environment into a Config
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.TickRate <= 0 {
		return cfg, fmt.Errorf("TICK_RATE must be positive, got %d", cfg.TickRate)
	}
	if cfg.CommandChunkSize <= 0 {
		return cfg, fmt.Errorf("COMMAND_CHUNK_SIZE must be positive, got %d", cfg.CommandChunkSize)
	}
	if cfg.BroadcastRate <= 0 || cfg.BroadcastRate > cfg.TickRate {
		cfg.BroadcastRate = cfg.TickRate
	}
	return cfg, nil
}
