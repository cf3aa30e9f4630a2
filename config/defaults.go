package config

import "time"

// Default returns the default client configuration.
func Default() *Config {
	return &Config{
		DataDir: DefaultDataDir(),
		Ledger: LedgerConfig{
			Endpoint:        "http://127.0.0.1:8239",
			Timeout:         10 * time.Second,
			GhostKeyTimeout: 10 * time.Second,
		},
		Keystore: KeystoreConfig{
			File: "keystore.json",
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}
