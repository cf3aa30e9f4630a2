package tx

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/Klingon-tech/klingnet-safe/pkg/crypto"
	"github.com/Klingon-tech/klingnet-safe/pkg/encoding"
	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

// ErrTransactionFormat is returned when bytes do not decode as a transaction.
var ErrTransactionFormat = fmt.Errorf("%w: invalid transaction format", types.ErrFormat)

// UnmarshalHex decodes a hex-encoded transaction.
func UnmarshalHex(s string) (*Transaction, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransactionFormat, err)
	}
	return Unmarshal(b)
}

// Unmarshal decodes a transaction. It is the exact inverse of Marshal and
// rejects trailing bytes.
func Unmarshal(b []byte) (*Transaction, error) {
	tx, err := decode(encoding.NewDecoder(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransactionFormat, err)
	}
	return tx, nil
}

func decode(dec *encoding.Decoder) (*Transaction, error) {
	magic, err := dec.Read(2)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(magic, encoding.Magic) {
		return nil, fmt.Errorf("invalid magic %x", magic)
	}
	ver, err := dec.Read(2)
	if err != nil {
		return nil, err
	}
	if ver[0] != 0 || ver[1] == 0 || ver[1] > TxVersionHashSignature {
		return nil, fmt.Errorf("invalid version %x", ver)
	}

	tx := &Transaction{Version: ver[1]}
	if err := dec.ReadInto(tx.Asset[:]); err != nil {
		return nil, err
	}

	il, err := dec.ReadInt()
	if err != nil {
		return nil, err
	}
	for i := 0; i < il; i++ {
		in, err := decodeInput(dec)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		tx.Inputs = append(tx.Inputs, in)
	}

	ol, err := dec.ReadInt()
	if err != nil {
		return nil, err
	}
	for i := 0; i < ol; i++ {
		out, err := decodeOutput(dec)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		tx.Outputs = append(tx.Outputs, out)
	}

	if tx.Version >= TxVersionReferences {
		rl, err := dec.ReadInt()
		if err != nil {
			return nil, err
		}
		for i := 0; i < rl; i++ {
			var r types.Hash
			if err := dec.ReadInto(r[:]); err != nil {
				return nil, err
			}
			tx.References = append(tx.References, r)
		}
	}

	el, err := dec.ReadUint32()
	if err != nil {
		return nil, err
	}
	if el > ExtraSizeStorageCapacity {
		return nil, fmt.Errorf("extra is %d bytes", el)
	}
	if el > 0 {
		if tx.Extra, err = dec.Read(int(el)); err != nil {
			return nil, err
		}
	}

	sl, err := dec.ReadInt()
	if err != nil {
		return nil, err
	}
	if sl == encoding.MaxEncodingInt {
		if tx.AggregatedSignature, err = decodeAggregatedSignature(dec); err != nil {
			return nil, err
		}
	} else {
		for i := 0; i < sl; i++ {
			sm, err := decodeSignatures(dec)
			if err != nil {
				return nil, fmt.Errorf("signatures %d: %w", i, err)
			}
			tx.SignaturesMap = append(tx.SignaturesMap, sm)
		}
	}

	if err := dec.ExpectEOF(); err != nil {
		return nil, err
	}
	return tx, nil
}

func decodeInput(dec *encoding.Decoder) (*Input, error) {
	in := &Input{}
	if err := dec.ReadInto(in.Hash[:]); err != nil {
		return nil, err
	}
	var err error
	if in.Index, err = dec.ReadUint16(); err != nil {
		return nil, err
	}
	if in.Genesis, err = dec.ReadBytes(); err != nil {
		return nil, err
	}

	present, err := dec.ReadMagic()
	if err != nil {
		return nil, err
	}
	if present {
		d := &DepositData{}
		if err := dec.ReadInto(d.Chain[:]); err != nil {
			return nil, err
		}
		ak, err := dec.ReadBytes()
		if err != nil {
			return nil, err
		}
		th, err := dec.ReadBytes()
		if err != nil {
			return nil, err
		}
		d.AssetKey, d.TransactionHash = string(ak), string(th)
		if d.OutputIndex, err = dec.ReadUint64(); err != nil {
			return nil, err
		}
		if d.Amount, err = dec.ReadInteger(); err != nil {
			return nil, err
		}
		in.Deposit = d
	}

	present, err = dec.ReadMagic()
	if err != nil {
		return nil, err
	}
	if present {
		m := &MintData{}
		group, err := dec.ReadBytes()
		if err != nil {
			return nil, err
		}
		m.Group = string(group)
		if m.Batch, err = dec.ReadUint64(); err != nil {
			return nil, err
		}
		if m.Amount, err = dec.ReadInteger(); err != nil {
			return nil, err
		}
		in.Mint = m
	}
	return in, nil
}

func decodeOutput(dec *encoding.Decoder) (*Output, error) {
	tb, err := dec.Read(2)
	if err != nil {
		return nil, err
	}
	if tb[0] != 0 {
		return nil, fmt.Errorf("invalid output type prefix %x", tb)
	}
	out := &Output{Type: tb[1]}
	if out.Amount, err = dec.ReadInteger(); err != nil {
		return nil, err
	}

	kl, err := dec.ReadInt()
	if err != nil {
		return nil, err
	}
	for i := 0; i < kl; i++ {
		var k crypto.Key
		if err := dec.ReadInto(k[:]); err != nil {
			return nil, err
		}
		out.Keys = append(out.Keys, k)
	}
	if err := dec.ReadInto(out.Mask[:]); err != nil {
		return nil, err
	}
	script, err := dec.ReadBytes()
	if err != nil {
		return nil, err
	}
	out.Script = script

	present, err := dec.ReadMagic()
	if err != nil {
		return nil, err
	}
	if present {
		w := &WithdrawalData{}
		if err := dec.ReadInto(w.Chain[:]); err != nil {
			return nil, err
		}
		var fields [3][]byte
		for i := range fields {
			if fields[i], err = dec.ReadBytes(); err != nil {
				return nil, err
			}
		}
		w.AssetKey, w.Address, w.Tag = string(fields[0]), string(fields[1]), string(fields[2])
		out.Withdrawal = w
	}
	return out, nil
}

func decodeSignatures(dec *encoding.Decoder) (map[uint16]*crypto.Signature, error) {
	n, err := dec.ReadInt()
	if err != nil {
		return nil, err
	}
	if n == encoding.MaxEncodingInt {
		return nil, fmt.Errorf("invalid signature count %d", n)
	}
	sm := make(map[uint16]*crypto.Signature, n)
	prev := -1
	for i := 0; i < n; i++ {
		k, err := dec.ReadUint16()
		if err != nil {
			return nil, err
		}
		if int(k) <= prev {
			return nil, fmt.Errorf("signature index %d out of order", k)
		}
		prev = int(k)
		var sig crypto.Signature
		if err := dec.ReadInto(sig[:]); err != nil {
			return nil, err
		}
		sm[k] = &sig
	}
	return sm, nil
}

func decodeAggregatedSignature(dec *encoding.Decoder) (*AggregatedSignature, error) {
	prefix, err := dec.Read(len(AggregatedSignaturePrefix))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(prefix, AggregatedSignaturePrefix) {
		return nil, fmt.Errorf("invalid aggregated signature prefix %x", prefix)
	}
	as := &AggregatedSignature{}
	if err := dec.ReadInto(as.Signature[:]); err != nil {
		return nil, err
	}

	mode, err := dec.ReadByte()
	if err != nil {
		return nil, err
	}
	switch mode {
	case AggregatedSignatureOrdinaryMask:
		masks, err := dec.ReadBytes()
		if err != nil {
			return nil, err
		}
		if len(masks) > 0 && masks[len(masks)-1] == 0 {
			return nil, fmt.Errorf("aggregated signer bitmap has a trailing zero byte")
		}
		for i, m := range masks {
			for j := 0; j < 8; j++ {
				if m&(1<<j) == 0 {
					continue
				}
				signer := i*8 + j
				if signer >= encoding.MaxEncodingInt {
					return nil, fmt.Errorf("signer index %d out of range", signer)
				}
				as.Signers = append(as.Signers, signer)
			}
		}
	case AggregatedSignatureSparseMask:
		n, err := dec.ReadInt()
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			m, err := dec.ReadInt()
			if err != nil {
				return nil, err
			}
			if m >= encoding.MaxEncodingInt {
				return nil, fmt.Errorf("signer index %d out of range", m)
			}
			if i > 0 && m <= as.Signers[i-1] {
				return nil, fmt.Errorf("signer index %d not ascending", m)
			}
			as.Signers = append(as.Signers, m)
		}
	default:
		return nil, fmt.Errorf("invalid aggregated signature mode %d", mode)
	}
	if len(as.Signers) == 0 {
		return nil, fmt.Errorf("aggregated signature has no signers")
	}
	if useSparseSigners(as.Signers) != (mode == AggregatedSignatureSparseMask) {
		return nil, fmt.Errorf("non-canonical aggregated signer encoding")
	}
	return as, nil
}
