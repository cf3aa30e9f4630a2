package crypto

import (
	"bytes"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

// Key and signature sizes.
const (
	KeySize       = 32
	SignatureSize = 64
)

// Key is an edwards25519 point in compressed form (public spend/view keys,
// one-time output keys, masks).
type Key [KeySize]byte

// PrivateKey is an edwards25519 scalar in little-endian form.
type PrivateKey [KeySize]byte

// Signature is R || s.
type Signature [SignatureSize]byte

// GenerateKey returns a private key drawn from a cryptographically secure source.
func GenerateKey() (PrivateKey, error) {
	seed := make([]byte, 64)
	if _, err := rand.Read(seed); err != nil {
		return PrivateKey{}, fmt.Errorf("generate key: %w", err)
	}
	return NewKeyFromSeed(seed)
}

// NewKeyFromSeed reduces 64 uniform bytes into a private scalar.
func NewKeyFromSeed(seed []byte) (PrivateKey, error) {
	s, err := edwards25519.NewScalar().SetUniformBytes(seed)
	if err != nil {
		return PrivateKey{}, fmt.Errorf("%w: seed must be 64 bytes, got %d", types.ErrValidation, len(seed))
	}
	var k PrivateKey
	copy(k[:], s.Bytes())
	return k, nil
}

// KeyFromEd25519Seed expands a 32-byte ed25519 seed (the spend key form
// issued to accounts) into its clamped private scalar.
func KeyFromEd25519Seed(seed []byte) (PrivateKey, error) {
	if len(seed) != 32 {
		return PrivateKey{}, fmt.Errorf("%w: ed25519 seed must be 32 bytes, got %d", types.ErrValidation, len(seed))
	}
	h := sha512.Sum512(seed)
	s, err := edwards25519.NewScalar().SetBytesWithClamping(h[:32])
	if err != nil {
		return PrivateKey{}, err
	}
	var k PrivateKey
	copy(k[:], s.Bytes())
	return k, nil
}

// scalar reduces k modulo the group order. Canonical keys are unchanged.
func (k PrivateKey) scalar() *edwards25519.Scalar {
	var wide [64]byte
	copy(wide[:], k[:])
	s, _ := edwards25519.NewScalar().SetUniformBytes(wide[:])
	return s
}

func privateKeyFromScalar(s *edwards25519.Scalar) PrivateKey {
	var k PrivateKey
	copy(k[:], s.Bytes())
	return k
}

// Public returns k·G.
func (k PrivateKey) Public() Key {
	p := edwards25519.NewIdentityPoint().ScalarBaseMult(k.scalar())
	var pub Key
	copy(pub[:], p.Bytes())
	return pub
}

// CheckScalar reports whether k is a canonical scalar.
func (k PrivateKey) CheckScalar() bool {
	_, err := edwards25519.NewScalar().SetCanonicalBytes(k[:])
	return err == nil
}

// Add returns (k + o) mod L.
func (k PrivateKey) Add(o PrivateKey) PrivateKey {
	return privateKeyFromScalar(edwards25519.NewScalar().Add(k.scalar(), o.scalar()))
}

// Sign produces a signature over a 32-byte message hash. The nonce is
// derived deterministically from the key and the message.
func (k PrivateKey) Sign(message types.Hash) Signature {
	var digest1, messageDigest, hramDigest [64]byte

	h := sha512.New()
	h.Write(k[:])
	h.Sum(digest1[:0])

	h.Reset()
	h.Write(digest1[32:])
	h.Write(message[:])
	h.Sum(messageDigest[:0])

	z, _ := edwards25519.NewScalar().SetUniformBytes(messageDigest[:])
	R := edwards25519.NewIdentityPoint().ScalarBaseMult(z)

	pub := k.Public()
	h.Reset()
	h.Write(R.Bytes())
	h.Write(pub[:])
	h.Write(message[:])
	h.Sum(hramDigest[:0])
	x, _ := edwards25519.NewScalar().SetUniformBytes(hramDigest[:])

	s := edwards25519.NewScalar().MultiplyAdd(x, k.scalar(), z)

	var sig Signature
	copy(sig[:32], R.Bytes())
	copy(sig[32:], s.Bytes())
	return sig
}

// CheckKey reports whether k decodes to a curve point.
func (k Key) CheckKey() bool {
	_, err := edwards25519.NewIdentityPoint().SetBytes(k[:])
	return err == nil
}

// Verify checks sig over message against the public key k. Returns false
// on any decoding failure.
func (k Key) Verify(message types.Hash, sig Signature) bool {
	A, err := edwards25519.NewIdentityPoint().SetBytes(k[:])
	if err != nil {
		return false
	}
	s, err := edwards25519.NewScalar().SetCanonicalBytes(sig[32:])
	if err != nil {
		return false
	}

	var hramDigest [64]byte
	h := sha512.New()
	h.Write(sig[:32])
	h.Write(k[:])
	h.Write(message[:])
	h.Sum(hramDigest[:0])
	x, _ := edwards25519.NewScalar().SetUniformBytes(hramDigest[:])

	minusA := edwards25519.NewIdentityPoint().Negate(A)
	R := edwards25519.NewIdentityPoint().VarTimeDoubleScalarBaseMult(x, minusA, s)
	return bytes.Equal(sig[:32], R.Bytes())
}

// String returns the hex-encoded key.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// String returns the hex-encoded signature.
func (s Signature) String() string {
	return hex.EncodeToString(s[:])
}

// Hex returns the hex-encoded scalar. PrivateKey has no String method.
func (k PrivateKey) Hex() string {
	return hex.EncodeToString(k[:])
}

// KeyFromString parses a hex-encoded 32-byte key.
func KeyFromString(s string) (Key, error) {
	var k Key
	err := decodeFixedHex(s, k[:])
	return k, err
}

// PrivateKeyFromString parses a hex-encoded 32-byte scalar.
func PrivateKeyFromString(s string) (PrivateKey, error) {
	var k PrivateKey
	err := decodeFixedHex(s, k[:])
	return k, err
}

// SignatureFromString parses a hex-encoded 64-byte signature.
func SignatureFromString(s string) (Signature, error) {
	var sig Signature
	err := decodeFixedHex(s, sig[:])
	return sig, err
}

func decodeFixedHex(s string, dst []byte) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("%w: invalid hex: %v", types.ErrFormat, err)
	}
	if len(b) != len(dst) {
		return fmt.Errorf("%w: want %d bytes, got %d", types.ErrFormat, len(dst), len(b))
	}
	copy(dst, b)
	return nil
}

// MarshalJSON encodes the key as hex.
func (k Key) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a hex key.
func (k *Key) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := KeyFromString(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// UnmarshalJSON decodes a hex scalar, as returned by signing requests.
func (k *PrivateKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := PrivateKeyFromString(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalJSON encodes the signature as hex.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a hex signature.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := SignatureFromString(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
