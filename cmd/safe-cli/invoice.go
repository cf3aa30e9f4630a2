package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/Klingon-tech/klingnet-safe/pkg/address"
	"github.com/Klingon-tech/klingnet-safe/pkg/invoice"
	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

var entryFlags = []cli.Flag{
	&cli.StringFlag{Name: "asset", Usage: "asset identifier", Required: true},
	&cli.StringFlag{Name: "amount", Usage: "decimal amount", Required: true},
	&cli.StringFlag{Name: "trace", Usage: "trace identifier (random when empty)"},
	&cli.StringFlag{Name: "memo", Usage: "extra data as text"},
	&cli.StringSliceFlag{Name: "ref", Usage: "referenced transaction hash (repeatable)"},
	&cli.IntSliceFlag{Name: "ref-entry", Usage: "referenced earlier entry index (repeatable)"},
}

var invoiceCmd = cli.Command{
	Name:  "invoice",
	Usage: "create, extend or decode MIN invoices",
	Subcommands: []*cli.Command{
		{
			Name:   "create",
			Usage:  "create an invoice with one entry",
			Flags:  append([]cli.Flag{&cli.StringFlag{Name: "recipient", Usage: "MIX group address", Required: true}}, entryFlags...),
			Action: invoiceCreateAction,
		},
		{
			Name:      "add",
			Usage:     "append an entry to an existing invoice",
			ArgsUsage: "<MIN...>",
			Flags:     entryFlags,
			Action:    invoiceAddAction,
		},
		{
			Name:      "decode",
			Usage:     "print the contents of an invoice",
			ArgsUsage: "<MIN...>",
			Action:    invoiceDecodeAction,
		},
	},
}

func invoiceCreateAction(c *cli.Context) error {
	recipient, err := address.ParseGroupAddress(c.String("recipient"))
	if err != nil {
		return err
	}
	inv := invoice.NewInvoice(recipient)
	if err := addEntry(c, inv); err != nil {
		return err
	}
	s, err := inv.Encode()
	if err != nil {
		return err
	}
	fmt.Println(s)
	return nil
}

func invoiceAddAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected one invoice")
	}
	inv, err := invoice.Parse(c.Args().First())
	if err != nil {
		return err
	}
	if err := addEntry(c, inv); err != nil {
		return err
	}
	s, err := inv.Encode()
	if err != nil {
		return err
	}
	fmt.Println(s)
	return nil
}

func addEntry(c *cli.Context, inv *invoice.Invoice) error {
	amount, err := types.NewIntegerFromString(c.String("amount"))
	if err != nil {
		return err
	}
	trace := c.String("trace")
	if trace == "" {
		trace = types.NewIdentifier()
	}

	var refs []invoice.Reference
	for _, s := range c.StringSlice("ref") {
		h, err := types.HexToHash(s)
		if err != nil {
			return fmt.Errorf("ref %q: %w", s, err)
		}
		refs = append(refs, invoice.HashReference(h))
	}
	for _, i := range c.IntSlice("ref-entry") {
		if i < 0 || i > 255 {
			return fmt.Errorf("ref-entry %d out of range", i)
		}
		refs = append(refs, invoice.IndexReference(uint8(i)))
	}

	var extra []byte
	if memo := c.String("memo"); memo != "" {
		extra = []byte(memo)
	}
	return inv.AddEntry(trace, c.String("asset"), amount, extra, refs...)
}

func invoiceDecodeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected one invoice")
	}
	inv, err := invoice.Parse(c.Args().First())
	if err != nil {
		return err
	}
	return printJSON(invoiceView(inv))
}

type invoiceEntryView struct {
	TraceID    string   `json:"trace_id"`
	AssetID    string   `json:"asset_id"`
	Amount     string   `json:"amount"`
	Extra      string   `json:"extra,omitempty"`
	References []string `json:"references,omitempty"`
}

func invoiceView(inv *invoice.Invoice) map[string]interface{} {
	entries := make([]invoiceEntryView, len(inv.Entries))
	for i, e := range inv.Entries {
		v := invoiceEntryView{
			TraceID: e.TraceID,
			AssetID: e.AssetID,
			Amount:  e.Amount.String(),
			Extra:   hex.EncodeToString(e.Extra),
		}
		for _, r := range e.References {
			if r.Kind == invoice.ReferenceIndex {
				v.References = append(v.References, fmt.Sprintf("entry:%d", r.Index))
			} else {
				v.References = append(v.References, r.Hash.String())
			}
		}
		entries[i] = v
	}
	return map[string]interface{}{
		"version":   inv.Version,
		"recipient": inv.Recipient.String(),
		"entries":   entries,
	}
}
