package io

import (
	"bytes"
	"errors"
	"io"
	"testing"

	s2 "github.com/KarpelesLab/gos2"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WithBlockSize(minBlockSize))

	payload := bytes.Repeat([]byte("round trip through the stream layer "), 2000)

	n, err := w.Write(payload)
	require.Nil(t, err)
	require.Equal(t, len(payload), n)
	require.Nil(t, w.Close())

	r := NewReader(&buf)
	out, err := readAllFromReader(r)
	require.Nil(t, err)
	require.Equal(t, payload, out)
}

func TestWriterConcurrentRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WithBlockSize(minBlockSize), WithConcurrency(4), WithLevel(LevelBetter))

	payload := bytes.Repeat([]byte("concurrent block dispatch must preserve order "), 3000)

	_, err := w.Write(payload)
	require.Nil(t, err)
	require.Nil(t, w.Close())

	r := NewReader(&buf)
	out, err := readAllFromReader(r)
	require.Nil(t, err)
	require.Equal(t, payload, out)
}

func TestWriterSnappyRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WithSnappy())

	payload := []byte("snappy compatible stream payload")
	_, err := w.Write(payload)
	require.Nil(t, err)
	require.Nil(t, w.Close())

	r := NewReader(&buf)
	out, err := readAllFromReader(r)
	require.Nil(t, err)
	require.Equal(t, payload, out)
}

func TestWriterPaddingAlignsToMultiple(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WithPadding(512))

	_, err := w.Write([]byte("short payload"))
	require.Nil(t, err)
	require.Nil(t, w.Close())

	require.Equal(t, 0, buf.Len()%512)
}

func TestWriterIndexRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WithBlockSize(minBlockSize), WithIndex(true))

	payload := bytes.Repeat([]byte("indexed stream content "), 5000)
	_, err := w.Write(payload)
	require.Nil(t, err)
	require.Nil(t, w.Close())

	r := NewReader(&buf)
	out, err := readAllFromReader(r)
	require.Nil(t, err)
	require.Equal(t, payload, out)
}

func TestWriterCloseIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.Nil(t, w.Close())
	require.Nil(t, w.Close())
}

func TestWriterRejectsWriteAfterClose(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.Nil(t, w.Close())

	_, err := w.Write([]byte("too late"))
	require.NotNil(t, err)
}

type recordingListener struct {
	flushed int
	closed  int
}

func (l *recordingListener) ProcessEvent(evt *s2.Event) {
	switch evt.Type() {
	case s2.EvtBlockFlushed:
		l.flushed++
	case s2.EvtStreamClosed:
		l.closed++
	}
}

func TestWriterNotifiesListenerPerBlock(t *testing.T) {
	var buf bytes.Buffer
	l := &recordingListener{}
	w := NewWriter(&buf, WithBlockSize(minBlockSize), WithListener(l))

	payload := bytes.Repeat([]byte("listener coverage "), 4000)
	_, err := w.Write(payload)
	require.Nil(t, err)
	require.Nil(t, w.Close())

	require.Greater(t, l.flushed, 0)
	require.Equal(t, 1, l.closed)
}

func readAllFromReader(r *Reader) ([]byte, error) {
	var out bytes.Buffer
	buf := make([]byte, 4096)

	for {
		n, err := r.Read(buf)

		if n > 0 {
			out.Write(buf[:n])
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return out.Bytes(), nil
			}

			return out.Bytes(), err
		}
	}
}
