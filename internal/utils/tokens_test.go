package utils

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomToken(t *testing.T) {
	tok, err := RandomToken(16)
	require.NoError(t, err)
	assert.Len(t, tok, 32)
	_, err = hex.DecodeString(tok)
	assert.NoError(t, err)

	def, err := RandomToken(0)
	require.NoError(t, err)
	assert.Len(t, def, 2*defaultTokenBytes)

	other, err := RandomToken(16)
	require.NoError(t, err)
	assert.NotEqual(t, tok, other)
}
