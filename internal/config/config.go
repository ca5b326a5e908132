package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/logger"
)

// Config represents the application configuration
type Config struct {
	ServerPort int           `json:"server_port" yaml:"server_port"`
	LogLevel   string        `json:"log_level" yaml:"log_level"`
	Capture    CaptureConfig `json:"capture" yaml:"capture"`
}

// CaptureConfig represents capture behavior settings
type CaptureConfig struct {
	// TimeoutSeconds bounds each backend attempt, not the whole chain.
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds"`
	// SaveDir is where captures land; empty means ~/Pictures/Screenshots.
	SaveDir        string `json:"save_dir" yaml:"save_dir"`
	FilenamePrefix string `json:"filename_prefix" yaml:"filename_prefix"`
	// ThumbnailMax is the longest edge of preview thumbnails in pixels.
	ThumbnailMax int `json:"thumbnail_max" yaml:"thumbnail_max"`
}

// AttemptTimeout returns the per-backend timeout as a duration.
func (c *Config) AttemptTimeout() time.Duration {
	if c.Capture.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Capture.TimeoutSeconds) * time.Second
}

// Filename builds a capture's file name from the configured prefix and
// a timestamp, second resolution.
func (c CaptureConfig) Filename(now time.Time) string {
	prefix := c.FilenamePrefix
	if prefix == "" {
		prefix = "screenshot"
	}
	return fmt.Sprintf("%s_%s.png", prefix, now.Format("2006-01-02_15-04-05"))
}

// ResolveSaveDir returns the directory captures are written to,
// expanding the default when none is configured.
func (c *Config) ResolveSaveDir() string {
	if c.Capture.SaveDir != "" {
		return c.Capture.SaveDir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, "Pictures", "Screenshots")
}

// Manager handles configuration
type Manager struct {
	configPath string
	config     *Config
	mu         sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configFile string) (*Manager, error) {
	// Set default configuration path
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "screenshot-gnome")
	defaultConfigPath := filepath.Join(configDir, "config.yaml")

	// Use provided config file or default
	actualConfigPath := defaultConfigPath
	if configFile != "" {
		actualConfigPath = configFile
	}

	m := &Manager{
		configPath: actualConfigPath,
	}

	// Try to read config file
	if err := m.load(); err != nil {
		if os.IsNotExist(err) {
			// Config file not found, create it with defaults
			logger.WithComponent("config").Info().
				Str("path", m.configPath).
				Msg("Config file not found, creating new config")
			m.config = m.getDefaults()
			if err := m.Save(); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger.WithComponent("config").Info().
		Str("path", m.configPath).
		Msg("Config loaded")

	return m, nil
}

// getDefaults returns default configuration
func (m *Manager) getDefaults() *Config {
	return &Config{
		ServerPort: 8080,
		LogLevel:   "info",
		Capture: CaptureConfig{
			TimeoutSeconds: 5,
			FilenamePrefix: "screenshot",
			ThumbnailMax:   320,
		},
	}
}

// load reads the configuration from disk
func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	// Fill gaps left by hand-edited files.
	defaults := m.getDefaults()
	if cfg.ServerPort == 0 {
		cfg.ServerPort = defaults.ServerPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.Capture.TimeoutSeconds == 0 {
		cfg.Capture.TimeoutSeconds = defaults.Capture.TimeoutSeconds
	}
	if cfg.Capture.FilenamePrefix == "" {
		cfg.Capture.FilenamePrefix = defaults.Capture.FilenamePrefix
	}
	if cfg.Capture.ThumbnailMax == 0 {
		cfg.Capture.ThumbnailMax = defaults.Capture.ThumbnailMax
	}

	m.mu.Lock()
	m.config = &cfg
	m.mu.Unlock()

	return nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return m.getDefaults()
	}

	// Return a copy to prevent external modification
	cfg := *m.config
	return &cfg
}

// Save saves the current configuration to disk
func (m *Manager) Save() error {
	m.mu.RLock()
	cfg := m.config
	m.mu.RUnlock()

	if cfg == nil {
		cfg = m.getDefaults()
	}

	// Ensure the directory exists
	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		logger.WithComponent("config").Error().
			Err(err).
			Str("config_dir", configDir).
			Msg("Failed to create config directory")
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Marshal to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		logger.WithComponent("config").Error().
			Err(err).
			Str("path", m.configPath).
			Msg("Failed to write config")
		return err
	}

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Msg("Config saved")
	return nil
}

// Update updates the entire configuration
func (m *Manager) Update(cfg *Config) error {
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return m.Save()
}

// Set updates a single setting by its dotted key and persists it.
func (m *Manager) Set(key, value string) error {
	m.mu.Lock()
	if m.config == nil {
		m.config = m.getDefaults()
	}

	var err error
	switch key {
	case "server_port":
		var port int
		if port, err = strconv.Atoi(value); err == nil {
			if port < 1 || port > 65535 {
				err = fmt.Errorf("port out of range: %d", port)
			} else {
				m.config.ServerPort = port
			}
		}
	case "log_level":
		m.config.LogLevel = value
	case "capture.timeout_seconds":
		var secs int
		if secs, err = strconv.Atoi(value); err == nil {
			if secs < 1 {
				err = fmt.Errorf("timeout must be at least 1 second")
			} else {
				m.config.Capture.TimeoutSeconds = secs
			}
		}
	case "capture.save_dir":
		m.config.Capture.SaveDir = value
	case "capture.filename_prefix":
		m.config.Capture.FilenamePrefix = value
	case "capture.thumbnail_max":
		var px int
		if px, err = strconv.Atoi(value); err == nil {
			if px < 16 {
				err = fmt.Errorf("thumbnail size must be at least 16 pixels")
			} else {
				m.config.Capture.ThumbnailMax = px
			}
		}
	default:
		err = fmt.Errorf("unknown setting: %s", key)
	}
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return m.Save()
}

// Keys lists the settable configuration keys.
func Keys() []string {
	return []string{
		"server_port",
		"log_level",
		"capture.timeout_seconds",
		"capture.save_dir",
		"capture.filename_prefix",
		"capture.thumbnail_max",
	}
}

// SetPort sets the server port
func (m *Manager) SetPort(port int) error {
	m.mu.Lock()
	m.config.ServerPort = port
	m.mu.Unlock()
	return m.Save()
}

// GetPort gets the server port
func (m *Manager) GetPort() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ServerPort
}

// SetLogLevel sets the log level
func (m *Manager) SetLogLevel(level string) error {
	m.mu.Lock()
	m.config.LogLevel = level
	m.mu.Unlock()
	return m.Save()
}

// GetLogLevel gets the log level
func (m *Manager) GetLogLevel() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.LogLevel
}

// GetConfigPath returns the path to the config file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// GetConfigDir returns the config directory path
func (m *Manager) GetConfigDir() string {
	return filepath.Dir(m.configPath)
}
