// Package invoice implements MIN payment requests: a group recipient plus an
// ordered list of asset transfers that may reference each other.
package invoice

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/Klingon-tech/klingnet-safe/pkg/address"
	"github.com/Klingon-tech/klingnet-safe/pkg/crypto"
	"github.com/Klingon-tech/klingnet-safe/pkg/encoding"
	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

// Prefix is the invoice string prefix.
const Prefix = "MIN"

// Invoice limits.
const (
	Version          = 0
	MaxEntries       = 128
	MaxReferences    = 2
	MaxExtraSize     = 512
	MaxAmountSize    = 128
	MaxRecipientSize = 1024
	checksumSize     = 4
)

var (
	// ErrInvalidInvoiceFormat is returned for malformed invoice payloads.
	ErrInvalidInvoiceFormat = fmt.Errorf("%w: invalid invoice format", types.ErrFormat)
	// ErrInvalidInvoiceChecksum is returned when the invoice checksum does not match.
	ErrInvalidInvoiceChecksum = fmt.Errorf("%w: invalid invoice checksum", types.ErrChecksum)
)

// Invoice asks the payer to send each entry to Recipient.
type Invoice struct {
	Version   byte
	Recipient *address.GroupAddress
	Entries   []*Entry
}

// Entry is one requested transfer.
type Entry struct {
	TraceID    string
	AssetID    string
	Amount     types.Integer
	Extra      []byte
	References []Reference
}

// NewInvoice returns an empty invoice for recipient.
func NewInvoice(recipient *address.GroupAddress) *Invoice {
	return &Invoice{Version: Version, Recipient: recipient}
}

// AddEntry appends a transfer. Index references must point at entries
// added earlier.
func (inv *Invoice) AddEntry(traceID, assetID string, amount types.Integer, extra []byte, refs ...Reference) error {
	if _, err := inv.recipientPayload(); err != nil {
		return err
	}
	traceID, err := types.CanonicalIdentifier(traceID)
	if err != nil {
		return fmt.Errorf("trace id: %w", err)
	}
	assetID, err = types.CanonicalIdentifier(assetID)
	if err != nil {
		return fmt.Errorf("asset id: %w", err)
	}
	e := &Entry{
		TraceID:    traceID,
		AssetID:    assetID,
		Amount:     amount,
		Extra:      extra,
		References: refs,
	}
	if err := validateEntry(e, len(inv.Entries)); err != nil {
		return err
	}
	if len(inv.Entries) >= MaxEntries {
		return fmt.Errorf("%w: invoice has %d entries, max %d", types.ErrValidation, len(inv.Entries), MaxEntries)
	}
	inv.Entries = append(inv.Entries, e)
	return nil
}

func validateEntry(e *Entry, position int) error {
	if e.Amount.Sign() <= 0 {
		return fmt.Errorf("%w: entry %d amount must be positive", types.ErrValidation, position)
	}
	if n := len(e.Amount.String()); n > MaxAmountSize {
		return fmt.Errorf("%w: entry %d amount is %d characters, max %d",
			types.ErrValidation, position, n, MaxAmountSize)
	}
	if len(e.Extra) > MaxExtraSize {
		return fmt.Errorf("%w: entry %d extra is %d bytes, max %d",
			types.ErrValidation, position, len(e.Extra), MaxExtraSize)
	}
	if len(e.References) > MaxReferences {
		return fmt.Errorf("%w: entry %d has %d references, max %d",
			types.ErrValidation, position, len(e.References), MaxReferences)
	}
	for _, r := range e.References {
		if r.Kind == ReferenceIndex && int(r.Index) >= position {
			return fmt.Errorf("%w: entry %d references entry %d",
				types.ErrValidation, position, r.Index)
		}
	}
	return nil
}

// recipientPayload returns the encoded recipient, bounded by
// MaxRecipientSize.
func (inv *Invoice) recipientPayload() ([]byte, error) {
	if inv.Recipient == nil {
		return nil, fmt.Errorf("%w: invoice has no recipient", types.ErrValidation)
	}
	recipient, err := inv.Recipient.Payload()
	if err != nil {
		return nil, err
	}
	if len(recipient) > MaxRecipientSize {
		return nil, fmt.Errorf("%w: recipient is %d bytes, max %d", types.ErrValidation, len(recipient), MaxRecipientSize)
	}
	return recipient, nil
}

// Validate checks the invoice against the format limits.
func (inv *Invoice) Validate() error {
	if _, err := inv.recipientPayload(); err != nil {
		return err
	}
	if len(inv.Entries) == 0 || len(inv.Entries) > MaxEntries {
		return fmt.Errorf("%w: invoice has %d entries", types.ErrValidation, len(inv.Entries))
	}
	for i, e := range inv.Entries {
		if !types.IsIdentifier(e.TraceID) || !types.IsIdentifier(e.AssetID) {
			return fmt.Errorf("%w: entry %d has an invalid identifier", types.ErrValidation, i)
		}
		if err := validateEntry(e, i); err != nil {
			return err
		}
	}
	return nil
}

// Bytes serializes the invoice payload without prefix or checksum.
func (inv *Invoice) Bytes() ([]byte, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	recipient, err := inv.recipientPayload()
	if err != nil {
		return nil, err
	}

	enc := encoding.NewEncoder()
	enc.WriteUint8(inv.Version)
	if err := enc.WriteBytes(recipient); err != nil {
		return nil, err
	}
	enc.WriteUint8(byte(len(inv.Entries)))
	for _, e := range inv.Entries {
		trace, _ := types.PackIdentifier(e.TraceID)
		asset, _ := types.PackIdentifier(e.AssetID)
		enc.Write(trace)
		enc.Write(asset)

		amount := e.Amount.String()
		enc.WriteUint8(byte(len(amount)))
		enc.Write([]byte(amount))

		if err := enc.WriteBytes(e.Extra); err != nil {
			return nil, err
		}
		enc.WriteUint8(byte(len(e.References)))
		for _, r := range e.References {
			enc.WriteUint8(byte(r.Kind))
			switch r.Kind {
			case ReferenceHash:
				enc.Write(r.Hash[:])
			case ReferenceIndex:
				enc.WriteUint8(r.Index)
			}
		}
	}
	return enc.Bytes(), nil
}

// Encode returns the MIN form: prefix, then base64url of payload ‖ checksum.
func (inv *Invoice) Encode() (string, error) {
	payload, err := inv.Bytes()
	if err != nil {
		return "", err
	}
	payload = append(payload, crypto.Checksum(Prefix, payload)...)
	return Prefix + base64.RawURLEncoding.EncodeToString(payload), nil
}

// String returns the MIN form, or an empty string when the invoice fails
// validation. Callers that need the failure use Encode.
func (inv *Invoice) String() string {
	s, _ := inv.Encode()
	return s
}

// Parse decodes a MIN invoice string.
func Parse(s string) (*Invoice, error) {
	if !strings.HasPrefix(s, Prefix) {
		return nil, fmt.Errorf("%w: missing %s prefix", ErrInvalidInvoiceFormat, Prefix)
	}
	data, err := base64.RawURLEncoding.DecodeString(s[len(Prefix):])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInvoiceFormat, err)
	}
	if len(data) <= checksumSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidInvoiceFormat, len(data))
	}
	payload := data[:len(data)-checksumSize]
	if !bytes.Equal(crypto.Checksum(Prefix, payload), data[len(payload):]) {
		return nil, ErrInvalidInvoiceChecksum
	}
	inv, err := decode(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInvoiceFormat, err)
	}
	return inv, nil
}
