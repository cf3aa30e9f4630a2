package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/Klingon-tech/klingnet-safe/pkg/address"
	"github.com/Klingon-tech/klingnet-safe/pkg/crypto"
)

var addressCmd = cli.Command{
	Name:  "address",
	Usage: "encode or decode XIN single-key addresses",
	Subcommands: []*cli.Command{
		{
			Name:  "encode",
			Usage: "build an address from public spend and view keys",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "spend", Usage: "public spend key (hex)", Required: true},
				&cli.StringFlag{Name: "view", Usage: "public view key (hex)", Required: true},
			},
			Action: addressEncodeAction,
		},
		{
			Name:      "decode",
			Usage:     "print the keys of an address",
			ArgsUsage: "<XIN...>",
			Action:    addressDecodeAction,
		},
	},
}

func addressEncodeAction(c *cli.Context) error {
	spend, err := crypto.KeyFromString(c.String("spend"))
	if err != nil {
		return fmt.Errorf("spend key: %w", err)
	}
	view, err := crypto.KeyFromString(c.String("view"))
	if err != nil {
		return fmt.Errorf("view key: %w", err)
	}
	fmt.Println(address.NewSingleKeyAddress(spend, view).String())
	return nil
}

func addressDecodeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected one address")
	}
	a, err := address.ParseSingleKeyAddress(c.Args().First())
	if err != nil {
		return err
	}
	return printJSON(map[string]string{
		"address":          a.String(),
		"public_spend_key": a.PublicSpendKey.String(),
		"public_view_key":  a.PublicViewKey.String(),
	})
}
