package safe

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-safe/pkg/crypto"
	"github.com/Klingon-tech/klingnet-safe/pkg/tx"
	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

// Credentials hold the private spend key of one group member.
type Credentials struct {
	spend crypto.PrivateKey
}

// NewCredentials wraps a private spend key.
func NewCredentials(spend crypto.PrivateKey) (Credentials, error) {
	if !spend.CheckScalar() {
		return Credentials{}, fmt.Errorf("%w: spend key is not a canonical scalar", types.ErrValidation)
	}
	return Credentials{spend: spend}, nil
}

// CredentialsFromSeed derives the spend key from a 32-byte ed25519 seed.
func CredentialsFromSeed(seed []byte) (Credentials, error) {
	k, err := crypto.KeyFromEd25519Seed(seed)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{spend: k}, nil
}

// PublicSpendKey returns the public half of the spend key.
func (c Credentials) PublicSpendKey() crypto.Key {
	return c.spend.Public()
}

// Signer signs transaction inputs with one member's credentials.
type Signer struct {
	creds  Credentials
	logger zerolog.Logger
}

// NewSigner creates a signer. A nil logger disables logging.
func NewSigner(creds Credentials, logger *zerolog.Logger) *Signer {
	s := &Signer{creds: creds, logger: zerolog.Nop()}
	if logger != nil {
		s.logger = *logger
	}
	return s
}

// InputKeys returns the one-time keys of each spent output, in input order.
func InputKeys(utxos []*UTXO) [][]crypto.Key {
	keys := make([][]crypto.Key, len(utxos))
	for i, u := range utxos {
		keys[i] = u.Keys
	}
	return keys
}

// SignTransaction signs every input of t. views[i] is the view part of the
// one-time key of input i and inputKeys[i] the keys of the output it spends.
// Signatures already present are kept. It returns a signed copy and leaves t
// untouched; on any failure no signatures are returned.
func (s *Signer) SignTransaction(t *tx.Transaction, views []crypto.PrivateKey, inputKeys [][]crypto.Key) (*tx.Transaction, error) {
	if len(views) != len(t.Inputs) || len(inputKeys) != len(t.Inputs) {
		return nil, fmt.Errorf("%w: %d inputs, %d views, %d key sets",
			types.ErrValidation, len(t.Inputs), len(views), len(inputKeys))
	}
	if n := len(t.SignaturesMap); n != 0 && n != len(t.Inputs) {
		return nil, fmt.Errorf("%w: %d signature maps for %d inputs", types.ErrValidation, n, len(t.Inputs))
	}
	if t.AggregatedSignature != nil {
		return nil, fmt.Errorf("%w: transaction has an aggregated signature", types.ErrValidation)
	}
	hash, err := t.PayloadHash()
	if err != nil {
		return nil, err
	}

	signed := t.Clone()
	if len(signed.SignaturesMap) == 0 {
		signed.SignaturesMap = make([]map[uint16]*crypto.Signature, len(t.Inputs))
	}
	for i := range t.Inputs {
		priv := views[i].Add(s.creds.spend)
		pub := priv.Public()

		index := -1
		for j, k := range inputKeys[i] {
			if k == pub {
				index = j
				break
			}
		}
		if index < 0 {
			return nil, fmt.Errorf("%w: input %d: no output key matches", types.ErrKeyDerivation, i)
		}
		if index >= tx.MaxCount {
			return nil, fmt.Errorf("%w: input %d: key index %d", types.ErrValidation, i, index)
		}

		sig := priv.Sign(hash)
		if !pub.Verify(hash, sig) {
			return nil, fmt.Errorf("%w: input %d: signature does not verify", types.ErrKeyDerivation, i)
		}
		if signed.SignaturesMap[i] == nil {
			signed.SignaturesMap[i] = make(map[uint16]*crypto.Signature)
		}
		signed.SignaturesMap[i][uint16(index)] = &sig
	}

	s.logger.Debug().
		Str("hash", hash.String()).
		Int("inputs", len(t.Inputs)).
		Msg("Signed transaction")
	return signed, nil
}
