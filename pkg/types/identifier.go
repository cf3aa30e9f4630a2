package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// IdentifierSize is the length of a packed identifier in bytes.
const IdentifierSize = 16

// ErrInvalidIdentifierFormat is returned when an identifier is neither 32 hex
// digits (dashes ignored) nor exactly 16 raw bytes.
var ErrInvalidIdentifierFormat = fmt.Errorf("%w: invalid identifier format", ErrFormat)

// PackIdentifier converts a dashed identifier string into its 16-byte form.
// Dashes are ignored, so "0123...cdef" and the 8-4-4-4-12 form both pack.
func PackIdentifier(s string) ([]byte, error) {
	digits := strings.ReplaceAll(s, "-", "")
	if len(digits) != 2*IdentifierSize {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifierFormat, s)
	}
	b, err := hex.DecodeString(digits)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifierFormat, s)
	}
	return b, nil
}

// UnpackIdentifier renders 16 raw bytes as a lowercase 8-4-4-4-12 string.
func UnpackIdentifier(b []byte) (string, error) {
	u, err := uuid.FromBytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: %d bytes", ErrInvalidIdentifierFormat, len(b))
	}
	return u.String(), nil
}

// CanonicalIdentifier normalizes an identifier string to its lowercase dashed form.
func CanonicalIdentifier(s string) (string, error) {
	b, err := PackIdentifier(s)
	if err != nil {
		return "", err
	}
	return UnpackIdentifier(b)
}

// IsIdentifier reports whether s packs into a valid identifier.
func IsIdentifier(s string) bool {
	_, err := PackIdentifier(s)
	return err == nil
}

// NewIdentifier returns a random (version 4) identifier.
func NewIdentifier() string {
	return uuid.NewString()
}

// UniqueIdentifier derives a deterministic (version 5) identifier from a
// namespace identifier and a name. The namespace must be a valid identifier.
func UniqueIdentifier(namespace, name string) (string, error) {
	b, err := PackIdentifier(namespace)
	if err != nil {
		return "", err
	}
	ns, err := uuid.FromBytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifierFormat, namespace)
	}
	return uuid.NewSHA1(ns, []byte(name)).String(), nil
}
