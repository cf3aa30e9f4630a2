package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Klingon-tech/klingnet-safe/internal/keystore"
	klog "github.com/Klingon-tech/klingnet-safe/internal/log"
)

var keystoreCmd = cli.Command{
	Name:  "keystore",
	Usage: "manage the encrypted spend key",
	Subcommands: []*cli.Command{
		{
			Name:   "create",
			Usage:  "generate a new spend key and print its backup phrase",
			Flags:  []cli.Flag{passwordFlag},
			Action: keystoreCreateAction,
		},
		{
			Name:  "import",
			Usage: "import a spend key from a backup phrase or a raw seed",
			Flags: []cli.Flag{
				passwordFlag,
				&cli.StringFlag{Name: "mnemonic", Usage: "BIP-39 backup phrase"},
				&cli.StringFlag{Name: "passphrase", Usage: "optional BIP-39 passphrase"},
				&cli.StringFlag{Name: "seed", Usage: "raw 32-byte ed25519 seed (hex)"},
			},
			Action: keystoreImportAction,
		},
		{
			Name:   "show",
			Usage:  "print the public spend key",
			Action: keystoreShowAction,
		},
	},
}

func openKeystore() (*keystore.Keystore, error) {
	return keystore.New(cfg.KeystoreFile())
}

func keystoreCreateAction(c *cli.Context) error {
	ks, err := openKeystore()
	if err != nil {
		return err
	}
	if ks.Exists() {
		return fmt.Errorf("%w: %s", keystore.ErrExists, ks.Path())
	}

	mnemonic, err := keystore.GenerateMnemonic()
	if err != nil {
		return err
	}
	seed, err := keystore.SpendSeedFromMnemonic(mnemonic, "")
	if err != nil {
		return err
	}

	pw, err := password(c, true)
	if err != nil {
		return err
	}
	pub, err := ks.Create(seed, pw, keystore.DefaultParams())
	if err != nil {
		return err
	}
	klog.Keystore.Info().Str("path", ks.Path()).Msg("Keystore created")

	fmt.Fprintln(os.Stderr, "Write down this backup phrase and keep it offline:")
	fmt.Println(mnemonic)
	fmt.Fprintf(os.Stderr, "Public spend key: %s\n", pub)
	return nil
}

func keystoreImportAction(c *cli.Context) error {
	var seed []byte
	var err error
	switch {
	case c.String("mnemonic") != "" && c.String("seed") != "":
		return fmt.Errorf("use either --mnemonic or --seed")
	case c.String("mnemonic") != "":
		seed, err = keystore.SpendSeedFromMnemonic(c.String("mnemonic"), c.String("passphrase"))
	case c.String("seed") != "":
		seed, err = hex.DecodeString(c.String("seed"))
	default:
		return fmt.Errorf("--mnemonic or --seed is required")
	}
	if err != nil {
		return err
	}
	if len(seed) != keystore.SpendSeedSize {
		return fmt.Errorf("seed must be %d bytes, got %d", keystore.SpendSeedSize, len(seed))
	}

	ks, err := openKeystore()
	if err != nil {
		return err
	}
	pw, err := password(c, true)
	if err != nil {
		return err
	}
	pub, err := ks.Create(seed, pw, keystore.DefaultParams())
	if err != nil {
		return err
	}
	klog.Keystore.Info().Str("path", ks.Path()).Msg("Keystore imported")
	fmt.Println(pub.String())
	return nil
}

func keystoreShowAction(c *cli.Context) error {
	ks, err := openKeystore()
	if err != nil {
		return err
	}
	pub, err := ks.PublicSpendKey()
	if err != nil {
		return err
	}
	return printJSON(map[string]string{
		"path":             ks.Path(),
		"public_spend_key": pub.String(),
	})
}
