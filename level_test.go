package s2

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeEmptyRoundtrip(t *testing.T) {
	enc := Encode(nil, nil)
	out, err := Decode(nil, enc)
	require.Nil(t, err)
	require.Equal(t, []byte{}, out)
}

func TestEncodeSmallBlockIsLiteral(t *testing.T) {
	in := []byte("tiny")
	enc := Encode(nil, in)
	out, err := Decode(nil, enc)
	require.Nil(t, err)
	require.Equal(t, in, out)
}

func TestEncodeSnappyRoundtrip(t *testing.T) {
	in := bytes.Repeat([]byte("snappy compatible data "), 100)
	enc := EncodeSnappy(nil, in)
	out, err := Decode(nil, enc)
	require.Nil(t, err)
	require.Equal(t, in, out)
}

func TestEncodeIncompressibleFallsBackToLiteral(t *testing.T) {
	// A 16-byte input is below minNonLiteralBlock, so Encode emits it as a
	// single literal without running the block search; it must round-trip.
	in := []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}
	enc := Encode(nil, in)
	out, err := Decode(nil, enc)
	require.Nil(t, err)
	require.Equal(t, in, out)
}

func TestEncodeReusesDstCapacity(t *testing.T) {
	in := []byte("hello hello hello hello hello hello")
	dst := make([]byte, 0, MaxEncodedLen(len(in)))
	enc := Encode(dst, in)
	require.LessOrEqual(t, len(enc), cap(dst))
}

func TestEncodeWithDictRoundtrip(t *testing.T) {
	dictData := bytes.Repeat([]byte("shared prefix material "), 8)
	dict, ok := MakeDict(dictData, nil)
	require.True(t, ok)

	in := []byte("independent payload bytes")
	enc := EncodeWithDict(nil, in, dict)
	out, err := DecodeWithDict(nil, enc, dict)
	require.Nil(t, err)
	require.Equal(t, in, out)
}
