package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds everything tally needs to reach a voting node.
type Config struct {
	APIBind        string
	CollectionPath string
	ItemPath       string
	NodePath       string
	PollInterval   time.Duration
	NodeInterval   time.Duration
	RequestTimeout time.Duration
	LogFile        string
	LogLevel       string
	MetricsAddr    string
}

const (
	defaultConfigPath     = "~/.config/tally/config.toml"
	defaultLogFile        = "~/.local/state/tally/tally.log"
	defaultAPIBind        = "127.0.0.1:8080"
	defaultCollectionPath = "/voting/polls"
	defaultItemPath       = "/voting/poll"
	defaultNodePath       = "/id"
	defaultLogLevel       = "info"

	defaultPollInterval   = 100 * time.Millisecond
	defaultNodeInterval   = 5 * time.Second
	defaultRequestTimeout = 5 * time.Second
)

type rawConfig struct {
	APIBind          string `toml:"api_bind" yaml:"api_bind"`
	CollectionPath   string `toml:"collection_path" yaml:"collection_path"`
	ItemPath         string `toml:"item_path" yaml:"item_path"`
	NodePath         string `toml:"node_path" yaml:"node_path"`
	PollIntervalMS   int64  `toml:"poll_interval_ms" yaml:"poll_interval_ms"`
	NodeIntervalMS   int64  `toml:"node_interval_ms" yaml:"node_interval_ms"`
	RequestTimeoutMS int64  `toml:"request_timeout_ms" yaml:"request_timeout_ms"`
	LogFile          string `toml:"log_file" yaml:"log_file"`
	LogLevel         string `toml:"log_level" yaml:"log_level"`
	MetricsAddr      string `toml:"metrics_addr" yaml:"metrics_addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBind:        defaultAPIBind,
		CollectionPath: defaultCollectionPath,
		ItemPath:       defaultItemPath,
		NodePath:       defaultNodePath,
		PollInterval:   defaultPollInterval,
		NodeInterval:   defaultNodeInterval,
		RequestTimeout: defaultRequestTimeout,
		LogFile:        mustExpand(defaultLogFile),
		LogLevel:       defaultLogLevel,
	}
}

// Load locates and parses the tally config, falling back to defaults when
// missing. Files ending in .yaml or .yml are read as YAML, anything else as
// TOML.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	default:
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg := Default()
	cfg.APIBind = orDefault(raw.APIBind, defaultAPIBind)
	cfg.CollectionPath = orDefault(raw.CollectionPath, defaultCollectionPath)
	cfg.ItemPath = orDefault(raw.ItemPath, defaultItemPath)
	cfg.NodePath = orDefault(raw.NodePath, defaultNodePath)
	cfg.PollInterval = millisOrDefault(raw.PollIntervalMS, defaultPollInterval)
	cfg.NodeInterval = millisOrDefault(raw.NodeIntervalMS, defaultNodeInterval)
	cfg.RequestTimeout = millisOrDefault(raw.RequestTimeoutMS, defaultRequestTimeout)
	cfg.LogFile = mustExpand(orDefault(raw.LogFile, defaultLogFile))
	cfg.LogLevel = strings.ToLower(orDefault(raw.LogLevel, defaultLogLevel))
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)

	return cfg, nil
}

// LogPath returns tally's own log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogFile) == "" {
		return mustExpand(defaultLogFile)
	}
	return c.LogFile
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func millisOrDefault(ms int64, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
