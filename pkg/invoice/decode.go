package invoice

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-safe/pkg/address"
	"github.com/Klingon-tech/klingnet-safe/pkg/encoding"
	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

func decode(payload []byte) (*Invoice, error) {
	dec := encoding.NewDecoder(payload)

	version, err := dec.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("unsupported version %d", version)
	}
	rb, err := dec.ReadBytes()
	if err != nil {
		return nil, err
	}
	if len(rb) > MaxRecipientSize {
		return nil, fmt.Errorf("recipient is %d bytes", len(rb))
	}
	recipient, err := address.DecodeGroupPayload(rb)
	if err != nil {
		return nil, err
	}

	count, err := dec.ReadByte()
	if err != nil {
		return nil, err
	}
	if count == 0 || int(count) > MaxEntries {
		return nil, fmt.Errorf("invalid entry count %d", count)
	}

	inv := &Invoice{Version: version, Recipient: recipient}
	for i := 0; i < int(count); i++ {
		e, err := decodeEntry(dec)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if err := validateEntry(e, i); err != nil {
			return nil, err
		}
		inv.Entries = append(inv.Entries, e)
	}
	if err := dec.ExpectEOF(); err != nil {
		return nil, err
	}
	return inv, nil
}

func decodeEntry(dec *encoding.Decoder) (*Entry, error) {
	trace, err := dec.Read(types.IdentifierSize)
	if err != nil {
		return nil, err
	}
	asset, err := dec.Read(types.IdentifierSize)
	if err != nil {
		return nil, err
	}
	e := &Entry{}
	e.TraceID, _ = types.UnpackIdentifier(trace)
	e.AssetID, _ = types.UnpackIdentifier(asset)

	al, err := dec.ReadByte()
	if err != nil {
		return nil, err
	}
	if al > MaxAmountSize {
		return nil, fmt.Errorf("amount is %d characters", al)
	}
	amount, err := dec.Read(int(al))
	if err != nil {
		return nil, err
	}
	if e.Amount, err = types.NewIntegerFromString(string(amount)); err != nil {
		return nil, err
	}

	if e.Extra, err = dec.ReadBytes(); err != nil {
		return nil, err
	}
	if len(e.Extra) > MaxExtraSize {
		return nil, fmt.Errorf("extra is %d bytes", len(e.Extra))
	}

	rc, err := dec.ReadByte()
	if err != nil {
		return nil, err
	}
	if rc > MaxReferences {
		return nil, fmt.Errorf("%d references", rc)
	}
	for j := 0; j < int(rc); j++ {
		tag, err := dec.ReadByte()
		if err != nil {
			return nil, err
		}
		switch ReferenceKind(tag) {
		case ReferenceHash:
			var h types.Hash
			if err := dec.ReadInto(h[:]); err != nil {
				return nil, err
			}
			e.References = append(e.References, HashReference(h))
		case ReferenceIndex:
			idx, err := dec.ReadByte()
			if err != nil {
				return nil, err
			}
			e.References = append(e.References, IndexReference(idx))
		default:
			return nil, fmt.Errorf("unknown reference tag %d", tag)
		}
	}
	return e, nil
}
