package tx

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-safe/pkg/crypto"
	"github.com/Klingon-tech/klingnet-safe/pkg/encoding"
	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

// MaxCount bounds every uint16 count field. 0xFFFF marks an aggregated signature.
const MaxCount = encoding.MaxEncodingInt - 1

// Validation errors.
var (
	ErrInvalidVersion         = fmt.Errorf("%w: invalid transaction version", types.ErrValidation)
	ErrNoAsset                = fmt.Errorf("%w: transaction has no asset", types.ErrValidation)
	ErrNoInputs               = fmt.Errorf("%w: transaction has no inputs", types.ErrValidation)
	ErrNoOutputs              = fmt.Errorf("%w: transaction has no outputs", types.ErrValidation)
	ErrTooManyInputs          = fmt.Errorf("%w: too many inputs", types.ErrValidation)
	ErrTooManyOutputs         = fmt.Errorf("%w: too many outputs", types.ErrValidation)
	ErrTooManyReferences      = fmt.Errorf("%w: too many references", types.ErrValidation)
	ErrExtraTooLarge          = fmt.Errorf("%w: extra too large", types.ErrValidation)
	ErrInvalidOutputType      = fmt.Errorf("%w: invalid output type", types.ErrValidation)
	ErrConflictingSignatures  = fmt.Errorf("%w: both signature maps and aggregated signature", types.ErrValidation)
	ErrInvalidSigners         = fmt.Errorf("%w: invalid aggregated signers", types.ErrValidation)
	ErrMissingSignature       = fmt.Errorf("%w: nil signature", types.ErrValidation)
	ErrReferencesNotSupported = fmt.Errorf("%w: references need version 4 or later", types.ErrValidation)
)

// Validate checks the structural rules the encoder relies on. It does not
// check signatures against keys.
func (tx *Transaction) Validate() error {
	if tx.Version == 0 || tx.Version > TxVersionHashSignature {
		return fmt.Errorf("%w: %d", ErrInvalidVersion, tx.Version)
	}
	if tx.Asset.IsZero() {
		return ErrNoAsset
	}
	if len(tx.Inputs) == 0 {
		return ErrNoInputs
	}
	if len(tx.Outputs) == 0 {
		return ErrNoOutputs
	}
	if len(tx.Inputs) > MaxCount {
		return fmt.Errorf("%w: %d inputs, max %d", ErrTooManyInputs, len(tx.Inputs), MaxCount)
	}
	if len(tx.Outputs) > MaxCount {
		return fmt.Errorf("%w: %d outputs, max %d", ErrTooManyOutputs, len(tx.Outputs), MaxCount)
	}
	if len(tx.References) > MaxCount {
		return fmt.Errorf("%w: %d references, max %d", ErrTooManyReferences, len(tx.References), MaxCount)
	}
	if len(tx.References) > 0 && tx.Version < TxVersionReferences {
		return ErrReferencesNotSupported
	}
	if len(tx.Extra) > ExtraSizeStorageCapacity {
		return fmt.Errorf("%w: %d bytes, max %d", ErrExtraTooLarge, len(tx.Extra), ExtraSizeStorageCapacity)
	}

	for i, in := range tx.Inputs {
		if in == nil {
			return fmt.Errorf("input %d: %w: nil input", i, types.ErrValidation)
		}
	}
	for i, out := range tx.Outputs {
		if err := validateOutput(out); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
	}

	if tx.AggregatedSignature != nil {
		if len(tx.SignaturesMap) > 0 {
			return ErrConflictingSignatures
		}
		return validateSigners(tx.AggregatedSignature.Signers)
	}
	if len(tx.SignaturesMap) > MaxCount {
		return fmt.Errorf("%w: %d signature maps", types.ErrValidation, len(tx.SignaturesMap))
	}
	for i, sm := range tx.SignaturesMap {
		if len(sm) > MaxCount {
			return fmt.Errorf("signatures %d: %w: %d entries", i, types.ErrValidation, len(sm))
		}
		for k, sig := range sm {
			if sig == nil {
				return fmt.Errorf("signatures %d key %d: %w", i, k, ErrMissingSignature)
			}
		}
	}
	return nil
}

func validateOutput(out *Output) error {
	if out == nil {
		return fmt.Errorf("%w: nil output", types.ErrValidation)
	}
	switch out.Type {
	case OutputTypeScript:
		if out.Withdrawal != nil {
			return fmt.Errorf("%w: script output carries withdrawal data", ErrInvalidOutputType)
		}
	case OutputTypeWithdrawalSubmit:
		if out.Withdrawal == nil {
			return fmt.Errorf("%w: withdrawal output has no withdrawal data", ErrInvalidOutputType)
		}
	default:
		return fmt.Errorf("%w: 0x%02x", ErrInvalidOutputType, out.Type)
	}
	if len(out.Keys) > MaxCount {
		return fmt.Errorf("%w: %d keys", types.ErrValidation, len(out.Keys))
	}
	return nil
}

func validateSigners(signers []int) error {
	if len(signers) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidSigners)
	}
	for i, m := range signers {
		if m < 0 || m >= encoding.MaxEncodingInt {
			return fmt.Errorf("%w: index %d out of range", ErrInvalidSigners, m)
		}
		if i > 0 && m <= signers[i-1] {
			return fmt.Errorf("%w: %d after %d", ErrInvalidSigners, m, signers[i-1])
		}
	}
	return nil
}

// VerifySignatures checks every per-input signature against the output keys
// being spent. keys[i] are the one-time keys of the output consumed by input i.
func (tx *Transaction) VerifySignatures(keys [][]crypto.Key) error {
	if len(keys) != len(tx.Inputs) || len(tx.SignaturesMap) != len(tx.Inputs) {
		return fmt.Errorf("%w: %d inputs, %d key sets, %d signature maps",
			types.ErrValidation, len(tx.Inputs), len(keys), len(tx.SignaturesMap))
	}
	hash, err := tx.PayloadHash()
	if err != nil {
		return err
	}
	for i, sm := range tx.SignaturesMap {
		for k, sig := range sm {
			if int(k) >= len(keys[i]) {
				return fmt.Errorf("input %d: %w: key index %d of %d", i, types.ErrValidation, k, len(keys[i]))
			}
			if !keys[i][k].Verify(hash, *sig) {
				return fmt.Errorf("input %d key %d: %w: invalid signature", i, k, types.ErrValidation)
			}
		}
	}
	return nil
}
