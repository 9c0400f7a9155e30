package sizeflag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSuffixes(t *testing.T) {
	cases := map[string]int{
		"1024": 1024,
		"4K":   4 * 1024,
		"4k":   4 * 1024,
		"16M":  16 * 1024 * 1024,
		"1G":   1024 * 1024 * 1024,
	}

	for in, want := range cases {
		got, err := Parse(in)
		require.Nil(t, err)
		require.Equal(t, want, got)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := Parse("")
	require.NotNil(t, err)

	_, err = Parse("-4K")
	require.NotNil(t, err)

	_, err = Parse("abc")
	require.NotNil(t, err)
}

func TestValueSetAndString(t *testing.T) {
	v := New(1024)
	require.False(t, v.IsSet())
	require.Nil(t, v.Set("4M"))
	require.True(t, v.IsSet())
	require.Equal(t, 4*1024*1024, v.Int())
	require.Equal(t, "4194304", v.String())
}
