package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultListenAddr       = "127.0.0.1:9090"
	defaultExecutor         = "starlark"
	defaultLoopInterval     = 100 * time.Millisecond
	defaultDispatchInterval = 500 * time.Millisecond
	defaultMaxSteps         = 10_000_000
	defaultMaxBacklog       = 4

	envConfigFile       = "LCH_CONFIG"
	envListenAddr       = "LCH_LISTEN_ADDR"
	envLogLevel         = "LCH_LOG_LEVEL"
	envExecutor         = "LCH_EXECUTOR"
	envLoopInterval     = "LCH_LOOP_INTERVAL"
	envDispatchInterval = "LCH_DISPATCH_INTERVAL"
	envMaxSteps         = "LCH_MAX_STEPS"
	envMaxBacklog       = "LCH_MAX_BACKLOG"
)

// ErrNonLoopback is returned when the listen address is not a loopback address.
var ErrNonLoopback = errors.New("listen address must be loopback")

// Config holds application configuration loaded from an optional YAML file and
// environment variables.
type Config struct {
	ListenAddr       string
	LogLevel         slog.Level
	Executor         string
	LoopInterval     time.Duration
	DispatchInterval time.Duration
	MaxSteps         uint64
	MaxBacklog       int
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		ListenAddr:       defaultListenAddr,
		LogLevel:         slog.LevelInfo,
		Executor:         defaultExecutor,
		LoopInterval:     defaultLoopInterval,
		DispatchInterval: defaultDispatchInterval,
		MaxSteps:         defaultMaxSteps,
		MaxBacklog:       defaultMaxBacklog,
	}
}

// Load reads configuration with the precedence defaults < YAML file < environment.
// The YAML file is only read when LCH_CONFIG names one.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(envConfigFile); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(envListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	if v := os.Getenv(envExecutor); v != "" {
		cfg.Executor = v
	}
	if v := os.Getenv(envLoopInterval); v != "" {
		d, err := parseDuration(envLoopInterval, v)
		if err != nil {
			return err
		}
		cfg.LoopInterval = d
	}
	if v := os.Getenv(envDispatchInterval); v != "" {
		d, err := parseDuration(envDispatchInterval, v)
		if err != nil {
			return err
		}
		cfg.DispatchInterval = d
	}
	if v := os.Getenv(envMaxSteps); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q: %w", envMaxSteps, v, err)
		}
		cfg.MaxSteps = n
	}
	if v := os.Getenv(envMaxBacklog); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q: %w", envMaxBacklog, v, err)
		}
		cfg.MaxBacklog = n
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if err := CheckLoopback(c.ListenAddr); err != nil {
		return err
	}
	if c.Executor == "" {
		return errors.New("executor must not be empty")
	}
	if c.LoopInterval <= 0 {
		return fmt.Errorf("loop interval must be positive, got %s", c.LoopInterval)
	}
	if c.DispatchInterval <= 0 {
		return fmt.Errorf("dispatch interval must be positive, got %s", c.DispatchInterval)
	}
	if c.MaxBacklog < 0 {
		return fmt.Errorf("max backlog must not be negative, got %d", c.MaxBacklog)
	}
	return nil
}

// CheckLoopback returns ErrNonLoopback unless addr is host:port with a loopback host.
// "localhost" is accepted; an empty host (all interfaces) is not.
func CheckLoopback(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("parse listen address %q: %w", addr, err)
	}
	if strings.EqualFold(host, "localhost") {
		return nil
	}
	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("%w: %q", ErrNonLoopback, addr)
	}
	return nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	return d, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
