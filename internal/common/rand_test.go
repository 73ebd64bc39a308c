package common

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString(t *testing.T) {
	for _, n := range []int{0, 1, 32} {
		s, err := MakeRandHexString(n)
		require.NoError(t, err)
		assert.Len(t, s, 2*n)
		_, err = hex.DecodeString(s)
		assert.NoError(t, err)
	}

	a, _ := MakeRandHexString(32)
	b, _ := MakeRandHexString(32)
	assert.NotEqual(t, a, b)
}

func TestWipeByteArray(t *testing.T) {
	pw := []byte("password123")
	WipeByteArray(pw)
	assert.Equal(t, make([]byte, len("password123")), pw)

	assert.NotPanics(t, func() { WipeByteArray(nil) })
}
