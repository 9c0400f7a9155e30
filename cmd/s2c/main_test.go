package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutputExtension(t *testing.T) {
	require.Equal(t, ".s2", outputExtension(false))
	require.Equal(t, ".sz", outputExtension(true))
}

func TestStripExtension(t *testing.T) {
	require.Equal(t, "archive", stripExtension("archive.s2"))
	require.Equal(t, "archive", stripExtension("archive.sz"))
	require.Equal(t, "archive.out", stripExtension("archive"))
}
