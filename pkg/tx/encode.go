package tx

import (
	"maps"
	"slices"

	"github.com/Klingon-tech/klingnet-safe/pkg/encoding"
)

// AggregatedSignaturePrefix follows the 0xFFFF signature count.
var AggregatedSignaturePrefix = []byte{0xFF, 0x01}

// Signer set encodings of an aggregated signature.
const (
	AggregatedSignatureOrdinaryMask = 0x00
	AggregatedSignatureSparseMask   = 0x01
)

// Marshal returns the canonical encoding. The transaction is validated first.
func (tx *Transaction) Marshal() ([]byte, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx.encode(true)
}

// PayloadMarshal returns the canonical encoding with an empty signature section.
func (tx *Transaction) PayloadMarshal() ([]byte, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx.encode(false)
}

func (tx *Transaction) encode(withSignatures bool) ([]byte, error) {
	enc := encoding.NewEncoder()
	enc.WriteMagic()
	enc.Write([]byte{0x00, tx.Version})
	enc.Write(tx.Asset[:])

	if err := enc.WriteInt(len(tx.Inputs)); err != nil {
		return nil, err
	}
	for _, in := range tx.Inputs {
		if err := encodeInput(enc, in); err != nil {
			return nil, err
		}
	}

	if err := enc.WriteInt(len(tx.Outputs)); err != nil {
		return nil, err
	}
	for _, out := range tx.Outputs {
		if err := encodeOutput(enc, out); err != nil {
			return nil, err
		}
	}

	if tx.Version >= TxVersionReferences {
		if err := enc.WriteInt(len(tx.References)); err != nil {
			return nil, err
		}
		for _, r := range tx.References {
			enc.Write(r[:])
		}
	}

	enc.WriteUint32(uint32(len(tx.Extra)))
	enc.Write(tx.Extra)

	switch {
	case !withSignatures:
		enc.WriteUint16(0)
	case tx.AggregatedSignature != nil:
		encodeAggregatedSignature(enc, tx.AggregatedSignature)
	default:
		if err := enc.WriteInt(len(tx.SignaturesMap)); err != nil {
			return nil, err
		}
		for _, sm := range tx.SignaturesMap {
			enc.WriteUint16(uint16(len(sm)))
			for _, k := range slices.Sorted(maps.Keys(sm)) {
				enc.WriteUint16(k)
				enc.Write(sm[k][:])
			}
		}
	}
	return enc.Bytes(), nil
}

func encodeInput(enc *encoding.Encoder, in *Input) error {
	enc.Write(in.Hash[:])
	enc.WriteUint16(in.Index)
	if err := enc.WriteBytes(in.Genesis); err != nil {
		return err
	}

	if d := in.Deposit; d != nil {
		enc.WriteMagic()
		enc.Write(d.Chain[:])
		if err := enc.WriteBytes([]byte(d.AssetKey)); err != nil {
			return err
		}
		if err := enc.WriteBytes([]byte(d.TransactionHash)); err != nil {
			return err
		}
		enc.WriteUint64(d.OutputIndex)
		if err := enc.WriteInteger(d.Amount); err != nil {
			return err
		}
	} else {
		enc.WriteNull()
	}

	if m := in.Mint; m != nil {
		enc.WriteMagic()
		if err := enc.WriteBytes([]byte(m.Group)); err != nil {
			return err
		}
		enc.WriteUint64(m.Batch)
		if err := enc.WriteInteger(m.Amount); err != nil {
			return err
		}
	} else {
		enc.WriteNull()
	}
	return nil
}

func encodeOutput(enc *encoding.Encoder, out *Output) error {
	enc.Write([]byte{0x00, out.Type})
	if err := enc.WriteInteger(out.Amount); err != nil {
		return err
	}
	if err := enc.WriteInt(len(out.Keys)); err != nil {
		return err
	}
	for _, k := range out.Keys {
		enc.Write(k[:])
	}
	enc.Write(out.Mask[:])
	if err := enc.WriteBytes(out.Script); err != nil {
		return err
	}

	if w := out.Withdrawal; w != nil {
		enc.WriteMagic()
		enc.Write(w.Chain[:])
		for _, s := range []string{w.AssetKey, w.Address, w.Tag} {
			if err := enc.WriteBytes([]byte(s)); err != nil {
				return err
			}
		}
	} else {
		enc.WriteNull()
	}
	return nil
}

// encodeAggregatedSignature expects signers validated as strictly ascending.
func encodeAggregatedSignature(enc *encoding.Encoder, as *AggregatedSignature) {
	enc.WriteUint16(encoding.MaxEncodingInt)
	enc.Write(AggregatedSignaturePrefix)
	enc.Write(as.Signature[:])

	if useSparseSigners(as.Signers) {
		enc.WriteUint8(AggregatedSignatureSparseMask)
		enc.WriteUint16(uint16(len(as.Signers)))
		for _, m := range as.Signers {
			enc.WriteUint16(uint16(m))
		}
		return
	}

	enc.WriteUint8(AggregatedSignatureOrdinaryMask)
	var masks []byte
	if len(as.Signers) > 0 {
		masks = make([]byte, as.Signers[len(as.Signers)-1]/8+1)
		for _, m := range as.Signers {
			masks[m/8] |= 1 << (m % 8)
		}
	}
	enc.WriteUint16(uint16(len(masks)))
	enc.Write(masks)
}

// useSparseSigners reports whether the bitmap would be longer than twice
// the signature length.
func useSparseSigners(signers []int) bool {
	if len(signers) == 0 {
		return false
	}
	return signers[len(signers)-1]/8+1 > 2*len(AggregatedSignature{}.Signature)
}
