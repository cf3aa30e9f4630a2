package types

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_IsZero(t *testing.T) {
	var zero Hash
	assert.True(t, zero.IsZero())
	assert.False(t, Hash{0x01}.IsZero())
}

func TestHash_String(t *testing.T) {
	var h Hash
	assert.Equal(t, strings.Repeat("0", 64), h.String())

	h[0] = 0xab
	h[31] = 0xcd
	s := h.String()
	assert.True(t, strings.HasPrefix(s, "ab"))
	assert.True(t, strings.HasSuffix(s, "cd"))
}

func TestHash_Bytes(t *testing.T) {
	h := Hash{0x01, 0x02, 0x03}
	b := h.Bytes()
	require.Len(t, b, HashSize)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, b[:3])

	// Ensure it's a copy, not a reference
	b[0] = 0xFF
	assert.Equal(t, byte(0x01), h[0])
}

func TestHexToHash(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid 64 hex chars", input: "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"},
		{name: "all zeros", input: strings.Repeat("0", 64)},
		{name: "too short", input: "abcd", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 66), wantErr: true},
		{name: "not hex", input: strings.Repeat("z", 64), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := HexToHash(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, h.String())
		})
	}
}

func TestHash_JSON_Roundtrip(t *testing.T) {
	h := Hash{0xde, 0xad, 0xbe, 0xef}
	data, err := json.Marshal(h)
	require.NoError(t, err)

	var got Hash
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, h, got)

	require.NoError(t, json.Unmarshal([]byte(`""`), &got))
	assert.True(t, got.IsZero())
}
