package tx

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-safe/pkg/crypto"
	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

// validTx creates a minimal valid unsigned transaction for testing.
func validTx(t *testing.T) *Transaction {
	t.Helper()
	return NewBuilder(types.Hash{0xaa}).
		AddInput(types.Hash{0x01}, 0).
		AddScriptOutput(types.NewInteger(1), []crypto.Key{{0x02}}, crypto.Key{0x03}, 1).
		Build()
}

func TestValidate_Valid(t *testing.T) {
	tx := validTx(t)
	if err := tx.Validate(); err != nil {
		t.Errorf("valid tx should pass: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"zero version", func(tx *Transaction) { tx.Version = 0 }, ErrInvalidVersion},
		{"future version", func(tx *Transaction) { tx.Version = 6 }, ErrInvalidVersion},
		{"no asset", func(tx *Transaction) { tx.Asset = types.Hash{} }, ErrNoAsset},
		{"no inputs", func(tx *Transaction) { tx.Inputs = nil }, ErrNoInputs},
		{"no outputs", func(tx *Transaction) { tx.Outputs = nil }, ErrNoOutputs},
		{"too many inputs", func(tx *Transaction) {
			for len(tx.Inputs) <= MaxCount {
				tx.Inputs = append(tx.Inputs, &Input{})
			}
		}, ErrTooManyInputs},
		{"references before v4", func(tx *Transaction) {
			tx.Version = 3
			tx.References = []types.Hash{{0x01}}
		}, ErrReferencesNotSupported},
		{"extra too large", func(tx *Transaction) { tx.Extra = make([]byte, ExtraSizeStorageCapacity+1) }, ErrExtraTooLarge},
		{"unknown output type", func(tx *Transaction) { tx.Outputs[0].Type = 0x07 }, ErrInvalidOutputType},
		{"withdrawal without data", func(tx *Transaction) { tx.Outputs[0].Type = OutputTypeWithdrawalSubmit }, ErrInvalidOutputType},
		{"script with withdrawal data", func(tx *Transaction) { tx.Outputs[0].Withdrawal = &WithdrawalData{} }, ErrInvalidOutputType},
		{"both signature kinds", func(tx *Transaction) {
			tx.SignaturesMap = []map[uint16]*crypto.Signature{{0: {}}}
			tx.AggregatedSignature = &AggregatedSignature{Signers: []int{0}}
		}, ErrConflictingSignatures},
		{"empty signers", func(tx *Transaction) { tx.AggregatedSignature = &AggregatedSignature{} }, ErrInvalidSigners},
		{"unsorted signers", func(tx *Transaction) {
			tx.AggregatedSignature = &AggregatedSignature{Signers: []int{2, 1}}
		}, ErrInvalidSigners},
		{"duplicate signers", func(tx *Transaction) {
			tx.AggregatedSignature = &AggregatedSignature{Signers: []int{1, 1}}
		}, ErrInvalidSigners},
		{"signer out of range", func(tx *Transaction) {
			tx.AggregatedSignature = &AggregatedSignature{Signers: []int{0xFFFF}}
		}, ErrInvalidSigners},
		{"nil signature", func(tx *Transaction) {
			tx.SignaturesMap = []map[uint16]*crypto.Signature{{0: nil}}
		}, ErrMissingSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTx(t)
			tt.mutate(tx)
			err := tx.Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got: %v", tt.want, err)
			}
			if !errors.Is(err, types.ErrValidation) {
				t.Errorf("expected a validation error, got: %v", err)
			}
			if _, err := tx.Marshal(); err == nil {
				t.Error("Marshal should refuse an invalid transaction")
			}
		})
	}
}

func TestValidate_ReferencesAtV4(t *testing.T) {
	tx := validTx(t)
	tx.Version = TxVersionReferences
	tx.References = []types.Hash{{0x01}}
	if err := tx.Validate(); err != nil {
		t.Fatalf("v4 references should pass: %v", err)
	}
}

func TestEncode_OlderVersionOmitsReferences(t *testing.T) {
	tx := validTx(t)
	tx.Version = 3
	v3, err := tx.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	tx.Version = TxVersionHashSignature
	v5, err := tx.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if len(v5)-len(v3) != 2 {
		t.Errorf("v5 should add a 2-byte reference count, got %d vs %d", len(v5), len(v3))
	}
	decoded, err := Unmarshal(v3)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Version != 3 || decoded.References != nil {
		t.Errorf("unexpected decode: version %d refs %v", decoded.Version, decoded.References)
	}
}

func signedTx(t *testing.T) (*Transaction, [][]crypto.Key, crypto.PrivateKey) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	other, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	tx := validTx(t)
	hash, err := tx.PayloadHash()
	if err != nil {
		t.Fatal(err)
	}
	sig := key.Sign(hash)
	tx.SignaturesMap = []map[uint16]*crypto.Signature{{1: &sig}}
	return tx, [][]crypto.Key{{other.Public(), key.Public()}}, key
}

func TestVerifySignatures_Valid(t *testing.T) {
	tx, keys, _ := signedTx(t)
	if err := tx.VerifySignatures(keys); err != nil {
		t.Errorf("valid signatures should verify: %v", err)
	}
}

func TestVerifySignatures_WrongKey(t *testing.T) {
	tx, keys, _ := signedTx(t)
	keys[0][0], keys[0][1] = keys[0][1], keys[0][0]
	if err := tx.VerifySignatures(keys); err == nil {
		t.Error("signature should not verify under another key")
	}
}

func TestVerifySignatures_TamperedOutput(t *testing.T) {
	tx, keys, _ := signedTx(t)
	tx.Outputs[0].Amount = types.NewInteger(2)
	if err := tx.VerifySignatures(keys); err == nil {
		t.Error("signature should not verify after tampering")
	}
}

func TestVerifySignatures_KeyIndexOutOfRange(t *testing.T) {
	tx, keys, _ := signedTx(t)
	keys[0] = keys[0][:1]
	if err := tx.VerifySignatures(keys); !errors.Is(err, types.ErrValidation) {
		t.Errorf("expected validation error, got: %v", err)
	}
}

func TestVerifySignatures_CountMismatch(t *testing.T) {
	tx, _, _ := signedTx(t)
	if err := tx.VerifySignatures(nil); !errors.Is(err, types.ErrValidation) {
		t.Errorf("expected validation error, got: %v", err)
	}
}
