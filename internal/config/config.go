package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/codefionn/curlgate/internal/consts"
	"github.com/codefionn/curlgate/internal/diagnostics"
)

const appName = "curlgate"

// Environment overrides. They are read by the host process only and are
// never forwarded to the child.
const (
	EnvLogLevel = "CURLGATE_LOG_LEVEL"
	EnvLogPath  = "CURLGATE_LOG_PATH"
	EnvListen   = "CURLGATE_LISTEN"
)

// Config represents application configuration. The security limits of the
// pipeline live in package consts and are deliberately absent here.
type Config struct {
	LogLevel          string `json:"log_level"` // debug, info, warn, error, none
	LogPath           string `json:"-"`
	PidPath           string `json:"-"`
	ListenAddr        string `json:"listen_addr"`
	MaxConcurrent     int    `json:"max_concurrent"`
	DiagnosticsFormat string `json:"diagnostics_format"`
}

func defaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appData := strings.TrimSpace(os.Getenv("APPDATA")); appData != "" {
			return filepath.Join(appData, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Roaming", appName)
	default:
		if configHome := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); configHome != "" {
			return filepath.Join(configHome, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".config", appName)
	}
}

func defaultStateDir() string {
	switch runtime.GOOS {
	case "linux":
		if stateHome := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); stateHome != "" {
			return filepath.Join(stateHome, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".local", "state", appName)
	case "windows":
		if localAppData := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); localAppData != "" {
			return filepath.Join(localAppData, appName)
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Local", appName)
	default:
		return defaultConfigDir()
	}
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel:          "info",
		LogPath:           filepath.Join(defaultStateDir(), appName+".log"),
		PidPath:           filepath.Join(defaultStateDir(), appName+".pid"),
		ListenAddr:        "127.0.0.1:8377",
		MaxConcurrent:     consts.DefaultMaxConcurrent,
		DiagnosticsFormat: diagnostics.CurlVerboseV1,
	}
}

// Load loads configuration from file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Unmarshal into default config (overrides only provided fields)
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	defaults := DefaultConfig()
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.LogPath == "" {
		config.LogPath = defaults.LogPath
	}
	if config.PidPath == "" {
		config.PidPath = defaults.PidPath
	}
	if config.DiagnosticsFormat == "" {
		config.DiagnosticsFormat = defaults.DiagnosticsFormat
	}

	return config, nil
}

// ApplyEnv overlays the CURLGATE_* environment variables.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogPath)); v != "" {
		c.LogPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvListen)); v != "" {
		c.ListenAddr = v
	}
}

// Validate reports settings the rest of the program cannot work with.
func (c *Config) Validate() error {
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("max_concurrent must be positive, got %d", c.MaxConcurrent)
	}
	if c.MaxConcurrent > consts.MaxParallelCommands {
		return fmt.Errorf("max_concurrent must be at most %d, got %d", consts.MaxParallelCommands, c.MaxConcurrent)
	}
	if _, ok := diagnostics.Lookup(c.DiagnosticsFormat); !ok {
		return fmt.Errorf("unknown diagnostics_format %q (known: %s)", c.DiagnosticsFormat, strings.Join(diagnostics.Names(), ", "))
	}
	return nil
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetConfigPath returns the default config path
func GetConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.json")
}
