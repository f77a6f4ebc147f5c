package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultAddr is the default TCP address the simulation service listens on.
	DefaultAddr = ":43180"
	// DefaultTickRate is the simulation frequency in ticks per second.
	DefaultTickRate = 60
	// DefaultSeed feeds the deterministic track and spawn generators.
	DefaultSeed uint32 = 0x5EED0D17
	// DefaultMaxPayloadBytes limits inbound WebSocket frame size.
	DefaultMaxPayloadBytes int64 = 1 << 16
	// DefaultMaxClients bounds concurrent WebSocket consumers. Zero disables the limit.
	DefaultMaxClients = 64
	// DefaultPingInterval controls the keepalive cadence for WebSocket connections.
	DefaultPingInterval = 30 * time.Second

	// DefaultLogLevel controls verbosity for service logs.
	DefaultLogLevel = "info"
	// DefaultLogPath is where structured logs are written.
	DefaultLogPath = "simd.log"
	// DefaultLogMaxSizeMB caps the size of a single log file before rotation.
	DefaultLogMaxSizeMB = 100
	// DefaultLogMaxBackups limits retained rotated log files.
	DefaultLogMaxBackups = 10
)

// Mode selects the gameplay ruleset applied by the spawners.
type Mode string

const (
	// ModeArcade is the full ruleset with hazards enabled.
	ModeArcade Mode = "arcade"
	// ModeRelaxed disables hazard spawning while keeping traffic alive.
	ModeRelaxed Mode = "relaxed"
)

// Config captures all runtime tunables for the simulation service.
type Config struct {
	Address         string
	Seed            uint32
	Mode            Mode
	TickRate        int
	TuningPath      string
	JournalDir      string
	MaxPayloadBytes int64
	MaxClients      int
	PingInterval    time.Duration
	Logging         LoggingConfig
}

// LoggingConfig captures structured logging configuration options.
type LoggingConfig struct {
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

// Load reads the service configuration from environment variables, applying sane
// defaults and returning descriptive errors for invalid overrides.
func Load() (*Config, error) {
	cfg := &Config{
		Address:         getString("OVERDRIVE_ADDR", DefaultAddr),
		Seed:            DefaultSeed,
		Mode:            ModeArcade,
		TickRate:        DefaultTickRate,
		TuningPath:      strings.TrimSpace(os.Getenv("OVERDRIVE_TUNING")),
		JournalDir:      strings.TrimSpace(os.Getenv("OVERDRIVE_JOURNAL_DIR")),
		MaxPayloadBytes: DefaultMaxPayloadBytes,
		MaxClients:      DefaultMaxClients,
		PingInterval:    DefaultPingInterval,
		Logging: LoggingConfig{
			Level:      strings.TrimSpace(getString("OVERDRIVE_LOG_LEVEL", DefaultLogLevel)),
			Path:       strings.TrimSpace(getString("OVERDRIVE_LOG_PATH", DefaultLogPath)),
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
		},
	}

	var problems []string

	if raw := strings.TrimSpace(os.Getenv("OVERDRIVE_SEED")); raw != "" {
		value, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			problems = append(problems, fmt.Sprintf("OVERDRIVE_SEED must be a 32-bit unsigned integer, got %q", raw))
		} else {
			cfg.Seed = uint32(value)
		}
	}

	if raw := strings.TrimSpace(os.Getenv("OVERDRIVE_MODE")); raw != "" {
		switch Mode(strings.ToLower(raw)) {
		case ModeArcade:
			cfg.Mode = ModeArcade
		case ModeRelaxed:
			cfg.Mode = ModeRelaxed
		default:
			problems = append(problems, fmt.Sprintf("OVERDRIVE_MODE must be %q or %q, got %q", ModeArcade, ModeRelaxed, raw))
		}
	}

	if raw := strings.TrimSpace(os.Getenv("OVERDRIVE_TICK_HZ")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 || value > 240 {
			problems = append(problems, fmt.Sprintf("OVERDRIVE_TICK_HZ must be in (0, 240], got %q", raw))
		} else {
			cfg.TickRate = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("OVERDRIVE_MAX_PAYLOAD_BYTES")); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("OVERDRIVE_MAX_PAYLOAD_BYTES must be a positive integer, got %q", raw))
		} else {
			cfg.MaxPayloadBytes = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("OVERDRIVE_MAX_CLIENTS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("OVERDRIVE_MAX_CLIENTS must be a non-negative integer, got %q", raw))
		} else {
			cfg.MaxClients = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("OVERDRIVE_PING_INTERVAL")); raw != "" {
		value, err := time.ParseDuration(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("OVERDRIVE_PING_INTERVAL must be a positive duration, got %q", raw))
		} else {
			cfg.PingInterval = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("OVERDRIVE_LOG_MAX_SIZE_MB")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("OVERDRIVE_LOG_MAX_SIZE_MB must be a positive integer, got %q", raw))
		} else {
			cfg.Logging.MaxSizeMB = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("OVERDRIVE_LOG_MAX_BACKUPS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("OVERDRIVE_LOG_MAX_BACKUPS must be a non-negative integer, got %q", raw))
		} else {
			cfg.Logging.MaxBackups = value
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
