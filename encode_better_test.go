package s2

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeBetterRoundtrip(t *testing.T) {
	inputs := [][]byte{
		{},
		[]byte("a"),
		[]byte("abababababababababababababababababab"),
		bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 50),
	}

	for _, in := range inputs {
		enc := EncodeBetter(nil, in)
		out, err := Decode(nil, enc)
		require.Nil(t, err)
		require.Equal(t, in, out)
	}
}

func TestEncodeBetterRandomRoundtrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	for i := 0; i < 20; i++ {
		n := r.Intn(4096)
		in := make([]byte, n)
		r.Read(in)

		enc := EncodeBetter(nil, in)
		out, err := Decode(nil, enc)
		require.Nil(t, err)
		require.Equal(t, in, out)
	}
}

func TestEncodeBetterWithinMaxEncodedLen(t *testing.T) {
	in := bytes.Repeat([]byte{0x42}, 10000)
	enc := EncodeBetter(nil, in)
	require.LessOrEqual(t, len(enc), MaxEncodedLen(len(in)))
}
