package config

import (
	"fmt"
	"net/url"

	klog "github.com/Klingon-tech/klingnet-safe/internal/log"
)

// Validate checks runtime config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("datadir must not be empty")
	}

	u, err := url.Parse(cfg.Ledger.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("ledger.endpoint must be an http(s) URL, got %q", cfg.Ledger.Endpoint)
	}
	if cfg.Ledger.Timeout <= 0 {
		return fmt.Errorf("ledger.timeout must be positive")
	}
	if cfg.Ledger.GhostKeyTimeout <= 0 {
		return fmt.Errorf("ledger.ghost_timeout must be positive")
	}

	if cfg.Keystore.File == "" {
		return fmt.Errorf("keystore.file must not be empty")
	}
	if !klog.ValidLevel(cfg.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, error or disabled")
	}
	return nil
}
