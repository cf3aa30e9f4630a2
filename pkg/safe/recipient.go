package safe

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-safe/pkg/address"
	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

// Recipient is either a group output or a withdrawal to an external address.
type Recipient struct {
	Group       *address.GroupAddress
	Destination string
	Tag         string
	Amount      types.Integer
}

// IsWithdrawal reports whether the recipient is a withdrawal.
func (r *Recipient) IsWithdrawal() bool {
	return r.Group == nil
}

// NewGroupRecipient pays amount to members under threshold.
func NewGroupRecipient(members []string, threshold uint8, amount types.Integer) (*Recipient, error) {
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: recipient amount must be positive", types.ErrValidation)
	}
	g, err := address.NewGroupAddress(members, threshold)
	if err != nil {
		return nil, err
	}
	return &Recipient{Group: g, Amount: amount}, nil
}

// NewAddressRecipient pays amount to a parsed address. A single-key address
// becomes a group of one with threshold 1.
func NewAddressRecipient(a address.Address, amount types.Integer) (*Recipient, error) {
	switch a := a.(type) {
	case *address.SingleKeyAddress:
		return NewGroupRecipient([]string{a.String()}, 1, amount)
	case *address.GroupAddress:
		return NewGroupRecipient(a.Members, a.Threshold, amount)
	default:
		return nil, fmt.Errorf("%w: unsupported address %T", types.ErrValidation, a)
	}
}

// NewWithdrawalRecipient withdraws amount to an external destination.
func NewWithdrawalRecipient(destination, tag string, amount types.Integer) (*Recipient, error) {
	if destination == "" {
		return nil, fmt.Errorf("%w: empty withdrawal destination", types.ErrValidation)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: recipient amount must be positive", types.ErrValidation)
	}
	return &Recipient{Destination: destination, Tag: tag, Amount: amount}, nil
}
