package s2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEmpty(t *testing.T) {
	out, err := Decode(nil, []byte{0x00})
	require.Nil(t, err)
	require.Equal(t, []byte{}, out)
}

func TestDecodeSingleLiteral(t *testing.T) {
	out, err := Decode(nil, []byte{0x04, 0x0c, 'a', 'b', 'c', 'd'})
	require.Nil(t, err)
	require.Equal(t, []byte("abcd"), out)
}

func TestDecodeLiteralPlusOverlappingCopy2(t *testing.T) {
	src := []byte{0x09, 0x0c, 'a', 'b', 'c', 'd', 0x12, 0x04, 0x00}
	out, err := Decode(nil, src)
	require.Nil(t, err)
	require.Equal(t, []byte("abcdabcda"), out)
}

func TestDecodeCopy4LargeOffset(t *testing.T) {
	var src []byte
	src = append(src, 0x89, 0x80, 0x04)
	src = append(src, 0x0c, 'p', 'q', 'r', 's')
	src = append(src, 0xf4, 0xff, 0xff)

	for i := 0; i < 65536; i++ {
		src = append(src, '.')
	}

	src = append(src, 0x13, 0x04, 0x00, 0x01, 0x00)

	out, err := Decode(nil, src)
	require.Nil(t, err)

	var want []byte
	want = append(want, 'p', 'q', 'r', 's')

	for i := 0; i < 65536; i++ {
		want = append(want, '.')
	}

	want = append(want, 'p', 'q', 'r', 's', '.')
	require.Equal(t, want, out)
}

func TestDecodeInvalidVarintAllContinuation(t *testing.T) {
	src := make([]byte, 10)

	for i := range src {
		src[i] = 0xff
	}

	src = append(src, 0x00)
	_, err := Decode(nil, src)
	require.NotNil(t, err)
	require.Equal(t, ErrCorrupt, err.Code)
}

func TestDecodeZeroOffsetNonRepeat(t *testing.T) {
	src := []byte{0x08, 0x0c, 'a', 'b', 'c', 'd', 0x01, 0x05}
	_, err := Decode(nil, src)
	require.NotNil(t, err)
	require.Equal(t, ErrCorrupt, err.Code)
}

func TestDecodeNeverPanicsOnRandomBytes(t *testing.T) {
	inputs := [][]byte{
		{},
		{0x01},
		{0xff, 0xff, 0xff, 0xff, 0xff},
		{0x04, 0x01},
		{0x00, 0x01, 0x02, 0x03},
	}

	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Decode panicked on %v: %v", in, r)
				}
			}()
			_, _ = Decode(nil, in)
		}()
	}
}

func TestDecodeWithDictResolvesLeadingOffset(t *testing.T) {
	dict, ok := MakeDict([]byte("0123456789abcdefgh"), nil)
	require.True(t, ok)

	dst := make([]byte, MaxEncodedLen(4))
	n := emitCopy2(dst, len(dict.data), 4)
	block := make([]byte, uvarintSize(4))
	encodeUvarint(block, 4)
	block = append(block, dst[:n]...)

	out, err := DecodeWithDict(nil, block, dict)
	require.Nil(t, err)
	require.Equal(t, dict.data[:4], out)
}
