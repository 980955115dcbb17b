package neutron

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddress_ToShortAddress(t *testing.T) {
	t.Parallel()

	address := Address{Version: 2, Data: []byte("some contract address data")}
	short := address.ToShortAddress()

	expected := sha256.Sum256(address.Data)
	require.Equal(t, uint32(2), short.Version)
	require.Equal(t, expected[:ShortAddressLen], short.Data[:])

	// derivation is deterministic
	require.Equal(t, short, address.ToShortAddress())
}

func TestAddress_Equal(t *testing.T) {
	t.Parallel()

	first := Address{Version: 1, Data: []byte{1, 2, 3}}
	second := Address{Version: 1, Data: []byte{1, 2, 3}}
	third := Address{Version: 2, Data: []byte{1, 2, 3}}
	fourth := Address{Version: 1, Data: []byte{1, 2, 4}}

	require.True(t, first.Equal(second))
	require.False(t, first.Equal(third))
	require.False(t, first.Equal(fourth))
}

func TestAddress_Bytes(t *testing.T) {
	t.Parallel()

	address := Address{Version: 0x01020304, Data: []byte{0xAA, 0xBB}}
	require.Equal(t, []byte{0x04, 0x03, 0x02, 0x01, 0xAA, 0xBB}, address.Bytes())

	short := address.ToShortAddress()
	require.Equal(t, 4+ShortAddressLen, len(short.Bytes()))
}

func TestNewRandomAddress(t *testing.T) {
	t.Parallel()

	first := NewRandomAddress(2)
	second := NewRandomAddress(2)

	require.Equal(t, uint32(2), first.Version)
	require.Equal(t, 32, len(first.Data))
	require.False(t, first.Equal(second))
}
