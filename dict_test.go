/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package s2

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakeDictRejectsEmptyAndUndersized(t *testing.T) {
	_, ok := MakeDict(nil, nil)
	require.False(t, ok)

	_, ok = MakeDict(bytes.Repeat([]byte("a"), minDictSize-1), nil)
	require.False(t, ok)
}

func TestMakeDictTruncatesToMaxSize(t *testing.T) {
	data := bytes.Repeat([]byte("x"), maxDictSize+4096)
	d, ok := MakeDict(data, nil)
	require.True(t, ok)
	require.Len(t, d.Data(), maxDictSize)
	require.Equal(t, data[len(data)-maxDictSize:], d.Data())
}

func TestMakeDictFindsRepeatOffsetFromSearchStart(t *testing.T) {
	// MakeDict tries searchStart[:l] for decreasing l, so it finds the
	// longest prefix of searchStart that occurs in dictData.
	dictData := []byte("the quick brown fox jumps over the lazy dog lorem ipsum tail1234")
	searchStart := []byte("the lazy dogZZZZ")

	d, ok := MakeDict(dictData, searchStart)
	require.True(t, ok)

	want := bytes.LastIndex(dictData, []byte("the lazy dog"))
	require.Equal(t, want, d.Repeat())
}

func TestMakeDictNoSearchStartLeavesRepeatZero(t *testing.T) {
	d, ok := MakeDict(bytes.Repeat([]byte("y"), minDictSize), nil)
	require.True(t, ok)
	require.Equal(t, 0, d.Repeat())
}

func TestMakeDictManual(t *testing.T) {
	data := bytes.Repeat([]byte("z"), minDictSize)

	d, ok := MakeDictManual(data, 3)
	require.True(t, ok)
	require.Equal(t, 3, d.Repeat())
	require.Equal(t, data, d.Data())

	_, ok = MakeDictManual(data, uint16(len(data)-8))
	require.False(t, ok)

	_, ok = MakeDictManual(bytes.Repeat([]byte("z"), minDictSize-1), 0)
	require.False(t, ok)

	_, ok = MakeDictManual(bytes.Repeat([]byte("z"), maxDictSize+1), 0)
	require.False(t, ok)
}

func TestDictBytesLoadDictRoundtrip(t *testing.T) {
	dictData := bytes.Repeat([]byte("roundtrip-dictionary-contents "), 4)

	d, ok := MakeDict(dictData, nil)
	require.True(t, ok)

	serialized := d.Bytes()

	loaded, err := LoadDict(serialized)
	require.Nil(t, err)
	require.Equal(t, d.Data(), loaded.Data())
	require.Equal(t, d.Repeat(), loaded.Repeat())
}

func TestLoadDictRejectsEmptyInput(t *testing.T) {
	_, err := LoadDict(nil)
	require.NotNil(t, err)
	require.Equal(t, ErrCorrupt, err.Code)
}

func TestLoadDictRejectsOutOfRangeBodySize(t *testing.T) {
	out := make([]byte, uvarintSize(0))
	encodeUvarint(out, 0)
	out = append(out, bytes.Repeat([]byte("a"), minDictSize-1)...)

	_, err := LoadDict(out)
	require.NotNil(t, err)
	require.Equal(t, ErrCorrupt, err.Code)
}

func TestLoadDictRejectsRepeatOffsetOutOfRange(t *testing.T) {
	body := bytes.Repeat([]byte("a"), minDictSize)

	repeat := uint64(len(body) + 100)
	out := make([]byte, uvarintSize(repeat))
	n := encodeUvarint(out, repeat)
	out = append(out[:n], body...)

	_, err := LoadDict(out)
	require.NotNil(t, err)
	require.Equal(t, ErrCorrupt, err.Code)
}
