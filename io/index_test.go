package io

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndexBuilderSerializeParseRoundtrip(t *testing.T) {
	b := newIndexBuilder(1 << 20)

	var comp, uncomp int64

	for i := 0; i < 10; i++ {
		b.add(comp, uncomp)
		comp += 1 << 18
		uncomp += 1 << 20
	}

	b.totalUncomp = uncomp
	b.totalComp = comp

	body := b.serialize()

	idx, err := parseIndex(body)
	require.Nil(t, err)
	require.Equal(t, uncomp, idx.totalUncomp)
	require.Equal(t, comp, idx.totalComp)
	require.Len(t, idx.entries, 10)

	for i, e := range idx.entries {
		require.Equal(t, int64(i)<<20, e.uncompOffset)
		require.Equal(t, int64(i)<<18, e.compOffset)
	}
}

func TestIndexBuilderSkipsEntriesBelowMinDist(t *testing.T) {
	b := newIndexBuilder(1 << 10)

	b.add(0, 0)
	b.add(100, 1<<10)
	b.add(200, 2<<10)

	require.Len(t, b.entries, 1)
}

func TestIndexBuilderOverwritesSameUncompressedOffset(t *testing.T) {
	b := newIndexBuilder(1 << 20)

	b.add(0, 0)
	b.add(50, 0)

	require.Len(t, b.entries, 1)
	require.Equal(t, int64(50), b.entries[0].compOffset)
}

func TestIndexFind(t *testing.T) {
	b := newIndexBuilder(1 << 20)

	var comp, uncomp int64

	for i := 0; i < 5; i++ {
		b.add(comp, uncomp)
		comp += 1 << 19
		uncomp += 1 << 20
	}

	b.totalUncomp = uncomp
	b.totalComp = comp

	idx, err := parseIndex(b.serialize())
	require.Nil(t, err)

	c, u, err := idx.find(int64(3) << 20)
	require.Nil(t, err)
	require.Equal(t, int64(3)<<19, c)
	require.Equal(t, int64(3)<<20, u)

	c, u, err = idx.find(-1)
	require.Nil(t, err)
	require.Equal(t, int64(4)<<19, c)
	require.Equal(t, int64(4)<<20, u)
}
