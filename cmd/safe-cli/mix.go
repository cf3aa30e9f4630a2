package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/Klingon-tech/klingnet-safe/pkg/address"
)

var mixCmd = cli.Command{
	Name:  "mix",
	Usage: "encode or decode MIX group addresses",
	Subcommands: []*cli.Command{
		{
			Name:  "encode",
			Usage: "build a group address from members and a threshold",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{Name: "member", Usage: "member identifier or XIN address (repeatable)", Required: true},
				&cli.UintFlag{Name: "threshold", Usage: "signatures required", Value: 1},
			},
			Action: mixEncodeAction,
		},
		{
			Name:      "decode",
			Usage:     "print the members and threshold of a group address",
			ArgsUsage: "<MIX...>",
			Action:    mixDecodeAction,
		},
	},
}

func mixEncodeAction(c *cli.Context) error {
	threshold := c.Uint("threshold")
	if threshold > address.MaxGroupMembers {
		return fmt.Errorf("threshold %d exceeds %d", threshold, address.MaxGroupMembers)
	}
	g, err := address.NewGroupAddress(c.StringSlice("member"), uint8(threshold))
	if err != nil {
		return err
	}
	s, err := g.Encode()
	if err != nil {
		return err
	}
	fmt.Println(s)
	return nil
}

func mixDecodeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected one address")
	}
	g, err := address.ParseGroupAddress(c.Args().First())
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"address":   g.String(),
		"version":   g.Version,
		"threshold": g.Threshold,
		"members":   g.Members,
	})
}
