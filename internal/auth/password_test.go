package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHasher(t *testing.T) {
	tests := []struct {
		name     string
		cost     int
		wantCost int
		wantErr  bool
	}{
		{name: "default cost", cost: 0, wantCost: 12},
		{name: "boundary cost 10", cost: 10, wantCost: 10},
		{name: "boundary cost 14", cost: 14, wantCost: 14},
		{name: "cost too low", cost: 9, wantErr: true},
		{name: "cost too high", cost: 15, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHasher(tt.cost, "")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCost, h.Cost())
		})
	}
}

func TestHasher_HashAndVerify(t *testing.T) {
	h, err := NewHasher(MinBcryptCost, "")
	require.NoError(t, err)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.True(t, h.Verify("correct horse", hash))
	assert.False(t, h.Verify("wrong", hash))
	assert.False(t, h.Verify("correct horse", "not-a-hash"))
}

func TestHasher_Pepper(t *testing.T) {
	peppered, err := NewHasher(MinBcryptCost, "pepper")
	require.NoError(t, err)
	plain, err := NewHasher(MinBcryptCost, "")
	require.NoError(t, err)

	hash, err := peppered.Hash("pw")
	require.NoError(t, err)

	assert.True(t, peppered.Verify("pw", hash))
	assert.False(t, plain.Verify("pw", hash))
}

func TestHasher_PasswordTooLong(t *testing.T) {
	h, err := NewHasher(MinBcryptCost, "")
	require.NoError(t, err)

	_, err = h.Hash(strings.Repeat("a", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	hash, err := h.Hash(strings.Repeat("a", MaxPasswordBytes))
	require.NoError(t, err)
	assert.True(t, h.Verify(strings.Repeat("a", MaxPasswordBytes), hash))

	peppered, err := NewHasher(MinBcryptCost, "0123456789")
	require.NoError(t, err)
	assert.Equal(t, MaxPasswordBytes-10, peppered.MaxPasswordLen())

	_, err = peppered.Hash(strings.Repeat("a", MaxPasswordBytes-9))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}
