package sidechain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActorIDHexRoundTrips(t *testing.T) {
	var raw [32]byte
	raw[0] = 0xab
	raw[31] = 0xcd

	a, err := BytesToActorID(raw[:])
	require.NoError(t, err)
	require.Equal(t, "0xab000000000000000000000000000000000000000000000000000000000000cd", a.Hex())
	require.Equal(t, a.Hex(), a.String())
}

func TestBytesToActorIDRejectsWrongLength(t *testing.T) {
	_, err := BytesToActorID([]byte{1, 2, 3})
	require.Error(t, err)
}
