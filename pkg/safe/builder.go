package safe

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-safe/pkg/tx"
	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

// Builder limits.
const (
	MaxUTXOs     = 256
	MaxOutputs   = 255
	MaxExtraSize = 512
)

// DefaultGhostKeyTimeout bounds the batched ghost key request.
const DefaultGhostKeyTimeout = 10 * time.Second

// Options configures a Builder.
type Options struct {
	// Logger defaults to a disabled logger.
	Logger          *zerolog.Logger
	GhostKeyTimeout time.Duration
}

// Builder assembles unsigned safe transactions.
type Builder struct {
	issuer  GhostKeyIssuer
	logger  zerolog.Logger
	timeout time.Duration
}

// NewBuilder creates a builder that asks issuer for identifier-group keys.
func NewBuilder(issuer GhostKeyIssuer, opts Options) *Builder {
	b := &Builder{
		issuer:  issuer,
		logger:  zerolog.Nop(),
		timeout: opts.GhostKeyTimeout,
	}
	if opts.Logger != nil {
		b.logger = *opts.Logger
	}
	if b.timeout <= 0 {
		b.timeout = DefaultGhostKeyTimeout
	}
	return b
}

// BuildTransaction spends utxos to recipients. Any remainder is returned to
// the utxos' own group as a final change output. traceID seeds the ghost key
// request hints and must be an identifier; an empty traceID gets a random one.
func (b *Builder) BuildTransaction(ctx context.Context, traceID string, utxos []*UTXO,
	recipients []*Recipient, extra []byte, references []types.Hash) (*tx.Transaction, error) {
	if len(utxos) == 0 || len(utxos) > MaxUTXOs {
		return nil, fmt.Errorf("%w: %d outputs to spend, want 1 to %d", types.ErrValidation, len(utxos), MaxUTXOs)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%w: no recipients", types.ErrValidation)
	}
	if len(extra) > MaxExtraSize {
		return nil, fmt.Errorf("%w: extra is %d bytes, max %d", types.ErrValidation, len(extra), MaxExtraSize)
	}
	if traceID == "" {
		traceID = types.NewIdentifier()
	}
	traceID, err := types.CanonicalIdentifier(traceID)
	if err != nil {
		return nil, fmt.Errorf("%w: trace id: %w", types.ErrValidation, err)
	}

	asset, receivers, threshold, err := checkHomogeneous(utxos)
	if err != nil {
		return nil, err
	}

	var inputTotal, outputTotal types.Integer
	for _, u := range utxos {
		inputTotal = inputTotal.Add(u.Amount)
	}
	for i, r := range recipients {
		if r == nil || r.Amount.Sign() <= 0 {
			return nil, fmt.Errorf("%w: recipient %d has no amount", types.ErrValidation, i)
		}
		outputTotal = outputTotal.Add(r.Amount)
	}
	change, err := inputTotal.Sub(outputTotal)
	if err != nil {
		return nil, fmt.Errorf("%w: inputs %s, outputs %s", types.ErrInsufficientBalance, inputTotal, outputTotal)
	}

	outputs := slices.Clone(recipients)
	if change.Sign() > 0 {
		cr, err := NewGroupRecipient(receivers, threshold, change)
		if err != nil {
			return nil, fmt.Errorf("change recipient: %w", err)
		}
		outputs = append(outputs, cr)
	}
	if len(outputs) > MaxOutputs {
		return nil, fmt.Errorf("%w: %d outputs, max %d", types.ErrValidation, len(outputs), MaxOutputs)
	}

	keys, err := b.ghostKeys(ctx, traceID, outputs)
	if err != nil {
		return nil, err
	}

	builder := tx.NewBuilder(asset).SetExtra(extra)
	for _, u := range utxos {
		builder.AddInput(u.TransactionHash, u.OutputIndex)
	}
	for i, r := range outputs {
		if r.IsWithdrawal() {
			builder.AddWithdrawalOutput(r.Amount, tx.WithdrawalData{Address: r.Destination, Tag: r.Tag})
			continue
		}
		builder.AddScriptOutput(r.Amount, keys[i].Keys, keys[i].Mask, r.Group.Threshold)
	}
	for _, ref := range references {
		builder.AddReference(ref)
	}
	t := builder.Build()
	if err := t.Validate(); err != nil {
		return nil, err
	}

	b.logger.Debug().
		Str("trace", traceID).
		Str("asset", asset.String()).
		Int("inputs", len(t.Inputs)).
		Int("outputs", len(t.Outputs)).
		Str("change", change.String()).
		Msg("Built transaction")
	return t, nil
}

// checkHomogeneous verifies that utxos share one asset and one receiver group.
func checkHomogeneous(utxos []*UTXO) (types.Hash, []string, uint8, error) {
	first := utxos[0]
	receivers := slices.Sorted(slices.Values(first.Receivers))
	for i, u := range utxos[1:] {
		if u.Asset != first.Asset {
			return types.Hash{}, nil, 0, fmt.Errorf("%w: output %d has asset %s, want %s",
				types.ErrValidation, i+1, u.Asset, first.Asset)
		}
		if u.ReceiversThreshold != first.ReceiversThreshold {
			return types.Hash{}, nil, 0, fmt.Errorf("%w: output %d has threshold %d, want %d",
				types.ErrValidation, i+1, u.ReceiversThreshold, first.ReceiversThreshold)
		}
		if !slices.Equal(receivers, slices.Sorted(slices.Values(u.Receivers))) {
			return types.Hash{}, nil, 0, fmt.Errorf("%w: output %d has different receivers", types.ErrValidation, i+1)
		}
	}
	return first.Asset, receivers, first.ReceiversThreshold, nil
}

// ghostKeys returns one key set per output; withdrawal outputs get nil.
// Key groups are derived locally, identifier groups in one ledger request.
func (b *Builder) ghostKeys(ctx context.Context, traceID string, outputs []*Recipient) ([]*GhostKeySet, error) {
	sets := make([]*GhostKeySet, len(outputs))
	var requests []*GhostKeyRequest
	var requested []int
	for i, r := range outputs {
		if r.IsWithdrawal() {
			continue
		}
		members, err := r.Group.KeyMembers()
		if err != nil {
			return nil, err
		}
		if members != nil {
			if sets[i], err = DeriveGhostKeys(members, uint16(i)); err != nil {
				return nil, fmt.Errorf("output %d: %w", i, err)
			}
			continue
		}
		hint, err := outputHint(traceID, i)
		if err != nil {
			return nil, fmt.Errorf("%w: output %d hint: %w", types.ErrValidation, i, err)
		}
		requests = append(requests, &GhostKeyRequest{
			Receivers: r.Group.Members,
			Index:     uint16(i),
			Hint:      hint,
		})
		requested = append(requested, i)
	}
	if len(requests) == 0 {
		return sets, nil
	}
	if b.issuer == nil {
		return nil, fmt.Errorf("%w: no ghost key issuer configured", ErrLedgerUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	issued, err := b.issuer.IssueGhostKeys(ctx, requests)
	if err != nil {
		b.logger.Warn().Err(err).Str("trace", traceID).Int("requests", len(requests)).Msg("Ghost key request failed")
		return nil, fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
	}
	if len(issued) != len(requests) {
		return nil, fmt.Errorf("%w: %d ghost key sets for %d requests", ErrLedgerUnavailable, len(issued), len(requests))
	}
	for j, i := range requested {
		set := issued[j]
		if set == nil || len(set.Keys) != len(requests[j].Receivers) {
			return nil, fmt.Errorf("%w: output %d: malformed ghost key set", ErrLedgerUnavailable, i)
		}
		sets[i] = set
	}
	return sets, nil
}

// TransferRequest describes a payment from a group's unspent outputs.
type TransferRequest struct {
	TraceID    string
	Asset      types.Hash
	Members    []string
	Threshold  uint8
	Recipients []*Recipient
	Extra      []byte
	References []types.Hash
}

// Transfer lists the group's unspent outputs, selects enough of them and
// builds the transaction. It returns the transaction and the spent outputs.
func (b *Builder) Transfer(ctx context.Context, ledger LedgerService, req *TransferRequest) (*tx.Transaction, []*UTXO, error) {
	var target types.Integer
	for i, r := range req.Recipients {
		if r == nil {
			return nil, nil, fmt.Errorf("%w: recipient %d is nil", types.ErrValidation, i)
		}
		target = target.Add(r.Amount)
	}
	utxos, err := ledger.ListUnspentOutputs(ctx, req.Asset, req.Members, req.Threshold)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
	}
	sel, err := SelectOutputs(utxos, target)
	if err != nil {
		if errors.Is(err, ErrNoOutputs) {
			return nil, nil, fmt.Errorf("%w: %w", types.ErrInsufficientBalance, err)
		}
		return nil, nil, err
	}
	b.logger.Debug().
		Int("available", len(utxos)).
		Int("selected", len(sel.Outputs)).
		Str("total", sel.Total.String()).
		Msg("Selected outputs")

	t, err := b.BuildTransaction(ctx, req.TraceID, sel.Outputs, req.Recipients, req.Extra, req.References)
	if err != nil {
		return nil, nil, err
	}
	return t, sel.Outputs, nil
}
