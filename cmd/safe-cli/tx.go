package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/Klingon-tech/klingnet-safe/pkg/tx"
)

var txCmd = cli.Command{
	Name:  "tx",
	Usage: "inspect raw transactions",
	Subcommands: []*cli.Command{
		{
			Name:      "decode",
			Usage:     "decode a hex transaction to JSON",
			ArgsUsage: "<hex>",
			Action:    txDecodeAction,
		},
		{
			Name:      "hash",
			Usage:     "print the hash and payload hash of a hex transaction",
			ArgsUsage: "<hex>",
			Action:    txHashAction,
		},
	},
}

func decodeArg(c *cli.Context) (*tx.Transaction, error) {
	if c.NArg() != 1 {
		return nil, fmt.Errorf("expected one hex transaction")
	}
	return tx.UnmarshalHex(strings.TrimSpace(c.Args().First()))
}

func txDecodeAction(c *cli.Context) error {
	t, err := decodeArg(c)
	if err != nil {
		return err
	}
	return printJSON(t)
}

func txHashAction(c *cli.Context) error {
	t, err := decodeArg(c)
	if err != nil {
		return err
	}
	hash, err := t.Hash()
	if err != nil {
		return err
	}
	payload, err := t.PayloadHash()
	if err != nil {
		return err
	}
	return printJSON(map[string]string{
		"hash":         hash.String(),
		"payload_hash": payload.String(),
	})
}
