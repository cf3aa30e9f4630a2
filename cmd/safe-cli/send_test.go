package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

func TestRecipientSpec(t *testing.T) {
	amount := types.NewInteger(1)
	members := []string{"7ed9292d-7c95-4333-a48a-8c640064186a", "0a1b2c3d-0000-4000-8000-000000000001"}

	r, err := recipientFlags{Members: members, Threshold: 2}.recipient(amount)
	require.NoError(t, err)
	assert.False(t, r.IsWithdrawal())
	assert.Equal(t, uint8(2), r.Group.Threshold)

	// Round trip the same group through its MIX string.
	r2, err := recipientFlags{To: r.Group.String()}.recipient(amount)
	require.NoError(t, err)
	assert.Equal(t, r.Group.String(), r2.Group.String())

	w, err := recipientFlags{Destination: "bc1qexample", Tag: "memo"}.recipient(amount)
	require.NoError(t, err)
	assert.True(t, w.IsWithdrawal())
	assert.Equal(t, "memo", w.Tag)
}

func TestRecipientSpec_Exclusive(t *testing.T) {
	amount := types.NewInteger(1)
	_, err := recipientFlags{}.recipient(amount)
	assert.Error(t, err)

	_, err = recipientFlags{To: "MIX3QEezkMEfKTnofT28SBMW6MftV3WSRF", Destination: "x"}.recipient(amount)
	assert.Error(t, err)

	_, err = recipientFlags{Members: []string{"7ed9292d-7c95-4333-a48a-8c640064186a"}, Threshold: 300}.recipient(amount)
	assert.Error(t, err)
}
