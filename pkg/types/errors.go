package types

import "errors"

// Error categories shared by every package in the module. Package-level
// errors wrap one of these so callers can classify failures with errors.Is.
var (
	// ErrFormat reports malformed or truncated binary/string input.
	ErrFormat = errors.New("format error")
	// ErrChecksum reports an address or invoice checksum mismatch.
	ErrChecksum = errors.New("checksum mismatch")
	// ErrValidation reports an argument with an invalid shape.
	ErrValidation = errors.New("validation error")
	// ErrInsufficientBalance reports outputs exceeding the available inputs.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrKeyDerivation reports that no one-time key matched during signing.
	ErrKeyDerivation = errors.New("key derivation error")
)
