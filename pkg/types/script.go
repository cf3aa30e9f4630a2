package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Script operators understood by the safe protocol.
const (
	OperatorSum byte = 0xfe
	OperatorCmp byte = 0xff
)

// Script defines the spending condition for an output. The only form used by
// safe outputs is the threshold script OperatorCmp|OperatorSum|threshold.
type Script []byte

// NewThresholdScript returns the script requiring threshold signatures.
func NewThresholdScript(threshold uint8) Script {
	return Script{OperatorCmp, OperatorSum, threshold}
}

// VerifyFormat checks that s is a well-formed threshold script.
func (s Script) VerifyFormat() error {
	if len(s) != 3 {
		return fmt.Errorf("%w: script length %d, want 3", ErrValidation, len(s))
	}
	if s[0] != OperatorCmp || s[1] != OperatorSum {
		return fmt.Errorf("%w: unknown script operators %x", ErrValidation, []byte(s[:2]))
	}
	return nil
}

// Threshold returns the signature threshold encoded in a threshold script.
func (s Script) Threshold() (uint8, error) {
	if err := s.VerifyFormat(); err != nil {
		return 0, err
	}
	return s[2], nil
}

// String returns the hex-encoded script.
func (s Script) String() string {
	return hex.EncodeToString(s)
}

// MarshalJSON encodes the script as hex.
func (s Script) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a hex script.
func (s *Script) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if str == "" {
		*s = nil
		return nil
	}
	b, err := hex.DecodeString(str)
	if err != nil {
		return fmt.Errorf("%w: invalid script hex: %v", ErrFormat, err)
	}
	*s = b
	return nil
}
