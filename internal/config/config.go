// Package config loads the application settings from YAML, the environment
// and command-line flags, in that order of precedence (flags win).
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultSampleRate = 44100
	DefaultBlockSize  = 512
	DefaultBuffer     = 100 * time.Millisecond
	DefaultDecks      = 16
	DefaultLibrary    = "config.json"
	DefaultLogLevel   = "info"
	DefaultLogFile    = "decks.log"
	DefaultFPS        = 60

	// DefaultPath is searched when no config file is given.
	DefaultPath = "decks.yaml"
)

// Environment overrides.
const (
	EnvLogLevel      = "DECKS_LOG_LEVEL"
	EnvBroadcastAddr = "DECKS_BROADCAST_ADDR"
)

// Config is the full application configuration.
type Config struct {
	Audio     AudioConfig     `yaml:"audio"`
	Decks     int             `yaml:"decks"`
	Library   LibraryConfig   `yaml:"library"`
	Log       LogConfig       `yaml:"log"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	UI        UIConfig        `yaml:"ui"`
}

// AudioConfig holds output device settings.
type AudioConfig struct {
	SampleRate int           `yaml:"sample_rate"` // Device rate in Hz.
	BlockSize  int           `yaml:"block_size"`  // Frames per processing block.
	Buffer     time.Duration `yaml:"buffer"`      // Device buffer length.
}

// LibraryConfig locates the saved playlist.
type LibraryConfig struct {
	Path string `yaml:"path"`
}

// LogConfig controls logrus.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // Empty discards log output.
}

// BroadcastConfig enables the websocket visualization sink.
type BroadcastConfig struct {
	Addr string `yaml:"addr"` // Empty disables the server.
}

// UIConfig controls the terminal UI.
type UIConfig struct {
	FPS int `yaml:"fps"` // Poll and redraw rate.
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate: DefaultSampleRate,
			BlockSize:  DefaultBlockSize,
			Buffer:     DefaultBuffer,
		},
		Decks:   DefaultDecks,
		Library: LibraryConfig{Path: DefaultLibrary},
		Log:     LogConfig{Level: DefaultLogLevel, File: DefaultLogFile},
		UI:      UIConfig{FPS: DefaultFPS},
	}
}

// Load reads path over the defaults. An empty path tries DefaultPath and
// falls back to the defaults when it does not exist. Environment overrides
// are applied and the result validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvBroadcastAddr); v != "" {
		c.Broadcast.Addr = v
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Audio.BlockSize <= 0 {
		return fmt.Errorf("audio.block_size must be positive, got %d", c.Audio.BlockSize)
	}
	if c.Audio.Buffer < 0 {
		return fmt.Errorf("audio.buffer must not be negative, got %s", c.Audio.Buffer)
	}
	if c.Decks <= 0 {
		return fmt.Errorf("decks must be positive, got %d", c.Decks)
	}
	if c.UI.FPS <= 0 {
		return fmt.Errorf("ui.fps must be positive, got %d", c.UI.FPS)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// LogLevel returns the parsed log level. Call after Validate.
func (c *Config) LogLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// TickInterval is the UI poll period.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.UI.FPS)
}
