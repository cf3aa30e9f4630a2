package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/Klingon-tech/klingnet-safe/internal/keystore"
	klog "github.com/Klingon-tech/klingnet-safe/internal/log"
	"github.com/Klingon-tech/klingnet-safe/internal/rpcclient"
	"github.com/Klingon-tech/klingnet-safe/pkg/address"
	"github.com/Klingon-tech/klingnet-safe/pkg/safe"
	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

var sendCmd = cli.Command{
	Name:  "send",
	Usage: "pay from a group's unspent outputs, sign with the keystore and submit",
	Flags: []cli.Flag{
		passwordFlag,
		&cli.StringFlag{Name: "asset", Usage: "asset hash (hex)", Required: true},
		&cli.StringSliceFlag{Name: "member", Usage: "spending group member (repeatable)", Required: true},
		&cli.UintFlag{Name: "threshold", Usage: "spending group threshold", Value: 1},
		&cli.StringFlag{Name: "amount", Usage: "decimal amount", Required: true},
		&cli.StringFlag{Name: "to", Usage: "recipient XIN or MIX address"},
		&cli.StringSliceFlag{Name: "to-member", Usage: "recipient group member (repeatable)"},
		&cli.UintFlag{Name: "to-threshold", Usage: "recipient group threshold", Value: 1},
		&cli.StringFlag{Name: "withdraw", Usage: "external withdrawal destination"},
		&cli.StringFlag{Name: "tag", Usage: "withdrawal tag or memo"},
		&cli.StringFlag{Name: "memo", Usage: "transaction extra as text"},
		&cli.StringSliceFlag{Name: "ref", Usage: "referenced transaction hash (repeatable)"},
		&cli.StringFlag{Name: "trace", Usage: "trace identifier (random when empty)"},
		&cli.BoolFlag{Name: "dry-run", Usage: "print the unsigned transaction and stop"},
	},
	Action: sendAction,
}

// recipientFlags is the recipient part of the send flags.
type recipientFlags struct {
	To          string
	Members     []string
	Threshold   uint
	Destination string
	Tag         string
}

func (s recipientFlags) recipient(amount types.Integer) (*safe.Recipient, error) {
	set := 0
	if s.To != "" {
		set++
	}
	if len(s.Members) > 0 {
		set++
	}
	if s.Destination != "" {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("exactly one of --to, --to-member or --withdraw is required")
	}

	switch {
	case s.To != "":
		a, err := address.Parse(s.To)
		if err != nil {
			return nil, err
		}
		return safe.NewAddressRecipient(a, amount)
	case len(s.Members) > 0:
		if s.Threshold > address.MaxGroupMembers {
			return nil, fmt.Errorf("threshold %d exceeds %d", s.Threshold, address.MaxGroupMembers)
		}
		return safe.NewGroupRecipient(s.Members, uint8(s.Threshold), amount)
	default:
		return safe.NewWithdrawalRecipient(s.Destination, s.Tag, amount)
	}
}

func sendAction(c *cli.Context) error {
	asset, err := types.HexToHash(c.String("asset"))
	if err != nil {
		return fmt.Errorf("asset: %w", err)
	}
	amount, err := types.NewIntegerFromString(c.String("amount"))
	if err != nil {
		return err
	}
	threshold := c.Uint("threshold")
	if threshold > address.MaxGroupMembers {
		return fmt.Errorf("threshold %d exceeds %d", threshold, address.MaxGroupMembers)
	}
	recipient, err := recipientFlags{
		To:          c.String("to"),
		Members:     c.StringSlice("to-member"),
		Threshold:   c.Uint("to-threshold"),
		Destination: c.String("withdraw"),
		Tag:         c.String("tag"),
	}.recipient(amount)
	if err != nil {
		return err
	}

	var refs []types.Hash
	for _, s := range c.StringSlice("ref") {
		h, err := types.HexToHash(s)
		if err != nil {
			return fmt.Errorf("ref %q: %w", s, err)
		}
		refs = append(refs, h)
	}
	trace := c.String("trace")
	if trace == "" {
		trace = types.NewIdentifier()
	}
	if trace, err = types.CanonicalIdentifier(trace); err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	// The builder tags its own entries with the trace.
	builderLogger := klog.Builder

	client := rpcclient.NewWithTimeout(cfg.Ledger.Endpoint, cfg.Ledger.Timeout)
	defer client.Close()

	builder := safe.NewBuilder(client, safe.Options{
		Logger:          &builderLogger,
		GhostKeyTimeout: cfg.Ledger.GhostKeyTimeout,
	})
	done := klog.Benchmark(klog.WithTrace(klog.CLI, trace), "transfer")
	t, spent, err := builder.Transfer(c.Context, client, &safe.TransferRequest{
		TraceID:    trace,
		Asset:      asset,
		Members:    c.StringSlice("member"),
		Threshold:  uint8(threshold),
		Recipients: []*safe.Recipient{recipient},
		Extra:      []byte(c.String("memo")),
		References: refs,
	})
	done()
	if err != nil {
		return err
	}
	raw, err := t.Hex()
	if err != nil {
		return err
	}
	if c.Bool("dry-run") {
		fmt.Println(raw)
		return nil
	}

	req, err := client.CreateTransactionRequest(c.Context, trace, raw)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	klog.RPC.Info().Str("request", req.RequestID).Str("state", req.State).Msg("Transaction request created")

	ks, err := keystore.New(cfg.KeystoreFile())
	if err != nil {
		return err
	}
	pw, err := password(c, false)
	if err != nil {
		return err
	}
	creds, err := ks.Credentials(pw)
	if err != nil {
		return err
	}

	signerLogger := klog.WithTrace(klog.Signer, trace)
	signed, err := safe.NewSigner(creds, &signerLogger).SignTransaction(t, req.Views, safe.InputKeys(spent))
	if err != nil {
		return err
	}
	signedRaw, err := signed.Hex()
	if err != nil {
		return err
	}

	receipt, err := client.SubmitTransaction(c.Context, req.RequestID, signedRaw)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return printJSON(receipt)
}
