package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the main structure of the configuration file.
type Config struct {
	Nick           string `json:"nick,omitempty"`
	Server         string `json:"server,omitempty"`
	HistoryLimit   int    `json:"history_limit,omitempty"`
	SendIntervalMs int    `json:"send_interval_ms,omitempty"`
	LivenessSecs   int    `json:"liveness_secs,omitempty"`

	path string `json:"-"`
}

// LoadConfig reads the user's config file, creating a default one on first run.
func LoadConfig() (*Config, error) {
	// os.UserConfigDir() returns the correct path for Windows, macOS, or Linux.
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("could not get user config directory: %w", err)
	}
	return loadConfigFrom(filepath.Join(configDir, "twitchat-tui", "config.json"))
}

func loadConfigFrom(configPath string) (*Config, error) {
	conf := &Config{path: configPath}

	file, err := os.Open(configPath)
	if err != nil {
		// If the file doesn't exist, create a default one.
		if os.IsNotExist(err) {
			return createDefaultConfig(configPath)
		}
		return nil, fmt.Errorf("could not open config file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(conf); err != nil {
		return nil, fmt.Errorf("could not decode config file: %w", err)
	}
	conf.applyDefaults()

	return conf, nil
}

// Save writes the current configuration back to the file.
func (c *Config) Save() error {
	// Ensure the parent directory exists before writing the file.
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	file, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("could not create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	// Use indentation for a human-readable JSON file.
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("could not encode config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes a fresh config with the built-in defaults.
func createDefaultConfig(path string) (*Config, error) {
	conf := &Config{path: path}
	conf.applyDefaults()
	return conf, conf.Save()
}

func (c *Config) applyDefaults() {
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = defaultHistoryLimit
	}
	if c.SendIntervalMs <= 0 {
		// 20 messages per 30 seconds, the platform's default outbound limit.
		c.SendIntervalMs = 1500
	}
	if c.LivenessSecs <= 0 {
		c.LivenessSecs = 360
	}
}
