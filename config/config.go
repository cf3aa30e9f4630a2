// Package config handles safe client configuration.
//
// Settings come from built-in defaults, then an optional key=value file in
// the data directory, then command-line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds the client's runtime configuration.
type Config struct {
	DataDir string `conf:"datadir"`

	// Ledger service
	Ledger LedgerConfig

	// Keystore
	Keystore KeystoreConfig

	// Logging
	Log LogConfig
}

// LedgerConfig holds ledger service client settings.
type LedgerConfig struct {
	Endpoint        string        `conf:"ledger.endpoint"`
	Timeout         time.Duration `conf:"ledger.timeout"`       // Per HTTP round trip.
	GhostKeyTimeout time.Duration `conf:"ledger.ghost_timeout"` // Bounds the batched one-time key request.
}

// KeystoreConfig holds keystore settings.
type KeystoreConfig struct {
	File string `conf:"keystore.file"` // Relative paths resolve against DataDir.
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.klingnet-safe
//	macOS:   ~/Library/Application Support/KlingnetSafe
//	Windows: %APPDATA%\KlingnetSafe
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingnet-safe"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "KlingnetSafe")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "KlingnetSafe")
		}
		return filepath.Join(home, "AppData", "Roaming", "KlingnetSafe")
	default:
		return filepath.Join(home, ".klingnet-safe")
	}
}

// KeystoreFile returns the absolute keystore path.
func (c *Config) KeystoreFile() string {
	if filepath.IsAbs(c.Keystore.File) {
		return c.Keystore.File
	}
	return filepath.Join(c.DataDir, c.Keystore.File)
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "safe.conf")
}
