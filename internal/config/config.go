package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	defaultListenAddr        = ":8080"
	defaultDBPath            = "batchcam.db"
	defaultHostURL           = "http://localhost:8080"
	defaultTimeoutS          = 30
	defaultMaxConcurrentRuns = 4

	envConfigFile        = "BATCHCAM_CONFIG"
	envListenAddr        = "BATCHCAM_LISTEN_ADDR"
	envDBPath            = "BATCHCAM_DB_PATH"
	envLogLevel          = "BATCHCAM_LOG_LEVEL"
	envHostURL           = "BATCHCAM_HOST_URL"
	envDefaultTimeoutS   = "BATCHCAM_DEFAULT_TIMEOUT_S"
	envMaxConcurrentRuns = "BATCHCAM_MAX_CONCURRENT_RUNS"
	envBridgeBin         = "BATCHCAM_BRIDGE_BIN"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid config")

// Bridge locates the executable hosting native processes.
type Bridge struct {
	Bin      string
	Args     []string
	TimeoutS int
}

// Config holds application configuration loaded from an optional TOML file
// and environment variables.
type Config struct {
	ListenAddr        string
	DBPath            string
	LogLevel          slog.Level
	HostURL           string
	DefaultTimeoutS   int
	MaxConcurrentRuns int
	Bridge            Bridge
}

type fileConfig struct {
	ListenAddr        string `toml:"listen_addr"`
	DBPath            string `toml:"db_path"`
	LogLevel          string `toml:"log_level"`
	HostURL           string `toml:"host_url"`
	DefaultTimeoutS   int    `toml:"default_timeout_s"`
	MaxConcurrentRuns int    `toml:"max_concurrent_runs"`
	Bridge            struct {
		Bin      string   `toml:"bin"`
		Args     []string `toml:"args"`
		TimeoutS int      `toml:"timeout_s"`
	} `toml:"bridge"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		ListenAddr:        defaultListenAddr,
		DBPath:            defaultDBPath,
		LogLevel:          slog.LevelInfo,
		HostURL:           defaultHostURL,
		DefaultTimeoutS:   defaultTimeoutS,
		MaxConcurrentRuns: defaultMaxConcurrentRuns,
	}
}

// Load reads the TOML file named by BATCHCAM_CONFIG, if any, and then
// applies environment overrides.
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
	return cfg, nil
}

// LoadFile is Load with an explicit TOML file instead of BATCHCAM_CONFIG.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if err := applyFile(&cfg, path); err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	if meta.IsDefined("listen_addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
	}
	if meta.IsDefined("db_path") {
		cfg.DBPath = strings.TrimSpace(raw.DBPath)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = parseLogLevel(raw.LogLevel)
	}
	if meta.IsDefined("host_url") {
		cfg.HostURL = strings.TrimSpace(raw.HostURL)
	}
	if meta.IsDefined("default_timeout_s") {
		cfg.DefaultTimeoutS = raw.DefaultTimeoutS
	}
	if meta.IsDefined("max_concurrent_runs") {
		cfg.MaxConcurrentRuns = raw.MaxConcurrentRuns
	}
	if meta.IsDefined("bridge", "bin") {
		cfg.Bridge.Bin = strings.TrimSpace(raw.Bridge.Bin)
	}
	if meta.IsDefined("bridge", "args") {
		cfg.Bridge.Args = raw.Bridge.Args
	}
	if meta.IsDefined("bridge", "timeout_s") {
		cfg.Bridge.TimeoutS = raw.Bridge.TimeoutS
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(envListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	if v := os.Getenv(envHostURL); v != "" {
		cfg.HostURL = v
	}
	if v := os.Getenv(envBridgeBin); v != "" {
		cfg.Bridge.Bin = v
	}
	if err := envInt(envDefaultTimeoutS, &cfg.DefaultTimeoutS); err != nil {
		return err
	}
	return envInt(envMaxConcurrentRuns, &cfg.MaxConcurrentRuns)
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = n
	return nil
}

// Validate reports the first setting the host cannot start with.
func (c Config) Validate() error {
	switch {
	case c.ListenAddr == "":
		return fmt.Errorf("%w: listen_addr is empty", ErrInvalid)
	case c.MaxConcurrentRuns <= 0:
		return fmt.Errorf("%w: max_concurrent_runs must be positive, got %d", ErrInvalid, c.MaxConcurrentRuns)
	case c.DefaultTimeoutS < 0:
		return fmt.Errorf("%w: default_timeout_s must not be negative, got %d", ErrInvalid, c.DefaultTimeoutS)
	case c.Bridge.TimeoutS < 0:
		return fmt.Errorf("%w: bridge timeout_s must not be negative, got %d", ErrInvalid, c.Bridge.TimeoutS)
	}
	return nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// ParseLogLevel maps a level name to a slog level; unknown names are info.
func ParseLogLevel(s string) slog.Level {
	return parseLogLevel(s)
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
