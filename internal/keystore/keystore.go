// Package keystore keeps a member's spend seed encrypted on disk.
package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Klingon-tech/klingnet-safe/pkg/crypto"
	"github.com/Klingon-tech/klingnet-safe/pkg/safe"
)

// FileVersion is the current keystore file version.
const FileVersion = 1

// Keystore errors.
var (
	ErrExists   = errors.New("keystore already exists")
	ErrNotFound = errors.New("keystore not found")
)

// keystoreFile is the on-disk JSON format for an encrypted spend seed.
type keystoreFile struct {
	Version        int        `json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
	PublicSpendKey crypto.Key `json:"public_spend_key"`
	EncryptedSeed  []byte     `json:"encrypted_seed"`
}

// Keystore manages one encrypted keystore file.
type Keystore struct {
	path string
}

// New returns a keystore backed by the file at path. The parent directory is
// created if it doesn't exist.
func New(path string) (*Keystore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{path: path}, nil
}

// Path returns the keystore file path.
func (ks *Keystore) Path() string {
	return ks.path
}

// Exists reports whether the keystore file is present.
func (ks *Keystore) Exists() bool {
	_, err := os.Stat(ks.path)
	return err == nil
}

// Create seals a 32-byte spend seed under password and writes a new file.
// It returns the public spend key recorded in the file.
func (ks *Keystore) Create(seed, password []byte, params EncryptionParams) (crypto.Key, error) {
	if ks.Exists() {
		return crypto.Key{}, fmt.Errorf("%w: %s", ErrExists, ks.path)
	}

	creds, err := safe.CredentialsFromSeed(seed)
	if err != nil {
		return crypto.Key{}, err
	}

	encrypted, err := Seal(seed, password, params)
	if err != nil {
		return crypto.Key{}, fmt.Errorf("encrypt seed: %w", err)
	}

	kf := keystoreFile{
		Version:        FileVersion,
		CreatedAt:      time.Now().UTC(),
		PublicSpendKey: creds.PublicSpendKey(),
		EncryptedSeed:  encrypted,
	}
	if err := ks.writeFile(&kf); err != nil {
		return crypto.Key{}, err
	}
	return kf.PublicSpendKey, nil
}

// PublicSpendKey returns the recorded public spend key without decrypting.
func (ks *Keystore) PublicSpendKey() (crypto.Key, error) {
	kf, err := ks.readFile()
	if err != nil {
		return crypto.Key{}, err
	}
	return kf.PublicSpendKey, nil
}

// Credentials decrypts the spend seed and returns the signing credentials.
func (ks *Keystore) Credentials(password []byte) (safe.Credentials, error) {
	kf, err := ks.readFile()
	if err != nil {
		return safe.Credentials{}, err
	}

	seed, err := Open(kf.EncryptedSeed, password)
	if err != nil {
		return safe.Credentials{}, fmt.Errorf("decrypt keystore: %w", err)
	}
	defer zero(seed)

	creds, err := safe.CredentialsFromSeed(seed)
	if err != nil {
		return safe.Credentials{}, err
	}
	if creds.PublicSpendKey() != kf.PublicSpendKey {
		return safe.Credentials{}, fmt.Errorf("keystore public key does not match sealed seed")
	}
	return creds, nil
}

func (ks *Keystore) writeFile(kf *keystoreFile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal keystore: %w", err)
	}
	if err := os.WriteFile(ks.path, data, 0600); err != nil {
		return fmt.Errorf("write keystore: %w", err)
	}
	return nil
}

func (ks *Keystore) readFile() (*keystoreFile, error) {
	data, err := os.ReadFile(ks.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ks.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}
	var kf keystoreFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse keystore: %w", err)
	}
	if kf.Version != FileVersion {
		return nil, fmt.Errorf("unsupported keystore version: %d", kf.Version)
	}
	return &kf, nil
}
