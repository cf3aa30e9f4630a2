// safe-cli is a command-line client for building, signing and inspecting
// safe transactions.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/Klingon-tech/klingnet-safe/config"
	klog "github.com/Klingon-tech/klingnet-safe/internal/log"
)

// cfg is loaded once by the app's Before hook.
var cfg *config.Config

func main() {
	app := cli.NewApp()

	app.Name = "safe-cli"
	app.Usage = "Build, sign and inspect safe transactions"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "datadir",
			Usage: "data directory",
			Value: config.DefaultDataDir(),
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "config file (default: <datadir>/safe.conf)",
		},
		&cli.StringFlag{
			Name:    "ledger",
			Usage:   "ledger service endpoint, overrides ledger.endpoint",
			EnvVars: []string{"SAFE_LEDGER"},
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn, error or disabled",
		},
	}
	app.Before = loadConfig
	app.Commands = append(
		app.Commands,
		&addressCmd,
		&mixCmd,
		&invoiceCmd,
		&txCmd,
		&keystoreCmd,
		&sendCmd,
	)

	if err := app.Run(os.Args); err != nil {
		fatal("%v", err)
	}
}

// loadConfig layers defaults, the config file and global flags.
func loadConfig(c *cli.Context) error {
	cfg = config.Default()
	cfg.DataDir = c.String("datadir")

	path := c.String("config")
	if path == "" {
		path = cfg.ConfigFile()
	}
	values, err := config.LoadFile(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.ApplyFileConfig(cfg, values); err != nil {
		return err
	}

	// Flags win over the file.
	if c.IsSet("datadir") {
		cfg.DataDir = c.String("datadir")
	}
	if v := c.String("ledger"); v != "" {
		cfg.Ledger.Endpoint = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logFile := cfg.Log.File
	if logFile != "" && !filepath.IsAbs(logFile) {
		if err := os.MkdirAll(cfg.LogsDir(), 0700); err != nil {
			return fmt.Errorf("create logs dir: %w", err)
		}
		logFile = filepath.Join(cfg.LogsDir(), logFile)
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	klog.CLI.Debug().
		Str("config", path).
		Str("ledger", cfg.Ledger.Endpoint).
		Str("keystore", cfg.KeystoreFile()).
		Msg("Configuration loaded")
	return nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// ── Password helper ─────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

// password returns the --password flag value or prompts for it.
func password(c *cli.Context, confirm bool) ([]byte, error) {
	if v := c.String("password"); v != "" {
		return []byte(v), nil
	}
	pw, err := readPassword("Password: ")
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	if confirm {
		again, err := readPassword("Confirm password: ")
		if err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
		if string(pw) != string(again) {
			return nil, fmt.Errorf("passwords do not match")
		}
	}
	return pw, nil
}

var passwordFlag = &cli.StringFlag{
	Name:    "password",
	Usage:   "keystore password (prompted when empty)",
	EnvVars: []string{"SAFE_PASSWORD"},
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
