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

// Package io provides the stream Writer and Reader that frame S2/Snappy
// blocks into chunks over an underlying io.Writer/io.Reader.
package io

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	s2 "github.com/KarpelesLab/gos2"
)

const (
	chunkStreamIdentifier = 0xff
	chunkCompressed       = 0x00
	chunkUncompressed     = 0x01
	chunkIndex            = 0x99
	chunkPadding          = 0xfe

	minBlockSize     = 4 * 1024
	maxBlockSize     = 4 * 1024 * 1024
	defaultBlockSize = 1 * 1024 * 1024

	maxChunkPayload = 1<<24 - 1
)

var magicS2 = []byte("S2sTwO")
var magicSnappy = []byte("sNaPpY")

// Encoding level selects which block tier Writer uses to compress.
const (
	LevelFast = iota
	LevelBetter
	LevelBest
)

// Listener receives Events from a Writer. Re-exported from the s2
// package so callers need not import it directly.
type Listener = s2.Listener

// WriterOption configures a Writer constructed by NewWriter.
type WriterOption func(*Writer)

// WithBlockSize sets the uncompressed block size, clamped to
// [4KiB, 4MiB].
func WithBlockSize(n int) WriterOption {
	return func(w *Writer) {
		if n < minBlockSize {
			n = minBlockSize
		}

		if n > maxBlockSize {
			n = maxBlockSize
		}

		w.blockSize = n
	}
}

// WithPadding pads the stream to a multiple of n bytes on Close.
func WithPadding(n int) WriterOption {
	return func(w *Writer) { w.padding = n }
}

// WithIndex enables building a seek index, appended as a trailer chunk
// on Close.
func WithIndex(enabled bool) WriterOption {
	return func(w *Writer) { w.indexing = enabled }
}

// WithConcurrency sets how many blocks may be compressed in parallel.
func WithConcurrency(n int) WriterOption {
	return func(w *Writer) {
		if n < 1 {
			n = 1
		}

		w.jobs = n
	}
}

// WithLevel selects the block tier (LevelFast, LevelBetter, LevelBest).
func WithLevel(level int) WriterOption {
	return func(w *Writer) { w.level = level }
}

// WithSnappy makes the stream Snappy-compatible: the identifier chunk
// and every block use the Snappy-safe encoder.
func WithSnappy() WriterOption {
	return func(w *Writer) { w.snappy = true }
}

// WithListener registers a Listener that receives block/stream events.
func WithListener(l Listener) WriterOption {
	return func(w *Writer) { w.listeners = append(w.listeners, l) }
}

// Writer frames compressed S2 (or Snappy) blocks into chunks written to
// an underlying io.Writer. States progress Fresh -> HeaderWritten ->
// (BlockFlushed)* -> Closed, matching §4.9.
type Writer struct {
	w         io.Writer
	blockSize int
	level     int
	snappy    bool
	padding   int
	indexing  bool
	jobs      int
	listeners []Listener

	buf           []byte
	pending       [][]byte
	headerWritten bool
	closed        bool
	blockID       int
	totalUncomp   int64
	totalComp     int64
	idx           *indexBuilder
}

// NewWriter creates a Writer with the given options applied over
// sensible defaults (1MiB blocks, Fast tier, no padding, no index,
// single-threaded).
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	wr := &Writer{
		w:         w,
		blockSize: defaultBlockSize,
		level:     LevelFast,
		jobs:      1,
	}

	for _, opt := range opts {
		opt(wr)
	}

	if wr.indexing {
		wr.idx = newIndexBuilder(wr.blockSize)
	}

	return wr
}

// AddListener registers bl to receive future events. Returns true.
func (w *Writer) AddListener(bl Listener) bool {
	w.listeners = append(w.listeners, bl)
	return true
}

// RemoveListener unregisters bl. Returns true if it was registered.
func (w *Writer) RemoveListener(bl Listener) bool {
	for i, l := range w.listeners {
		if l == bl {
			w.listeners = append(w.listeners[:i], w.listeners[i+1:]...)
			return true
		}
	}

	return false
}

// Write buffers p, queueing complete blocks for compression and
// dispatching them once w.jobs blocks are queued (or immediately, when
// running single-threaded). It never returns a short write without an
// error.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("s2: write on closed stream")
	}

	if err := w.ensureHeader(); err != nil {
		return 0, err
	}

	total := len(p)

	for len(p) > 0 {
		room := w.blockSize - len(w.buf)

		if room > len(p) {
			room = len(p)
		}

		w.buf = append(w.buf, p[:room]...)
		p = p[room:]

		if len(w.buf) == w.blockSize {
			full := make([]byte, w.blockSize)
			copy(full, w.buf)
			w.buf = w.buf[:0]
			w.pending = append(w.pending, full)

			if len(w.pending) >= w.jobs {
				if err := w.flushPending(); err != nil {
					return total - len(p), err
				}
			}
		}
	}

	return total, nil
}

// Flush compresses and emits any queued full blocks plus the current
// partially filled block, without closing the stream.
func (w *Writer) Flush() error {
	if err := w.ensureHeader(); err != nil {
		return err
	}

	if err := w.flushPending(); err != nil {
		return err
	}

	if len(w.buf) == 0 {
		return nil
	}

	tail := make([]byte, len(w.buf))
	copy(tail, w.buf)
	w.buf = w.buf[:0]
	return w.flushBlocks([][]byte{tail})
}

// Close flushes any remaining buffered bytes, writes the index trailer
// (if enabled), writes padding (if enabled), and marks the stream
// closed. Close is idempotent.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}

	if err := w.Flush(); err != nil {
		return err
	}

	if w.idx != nil {
		w.idx.totalUncomp = w.totalUncomp
		w.idx.totalComp = w.totalComp
		body := w.idx.serialize()

		if err := w.writeChunk(chunkIndex, body); err != nil {
			return err
		}

		notifyListeners(w.listeners, s2.NewEvent(s2.EvtIndexWritten, -1, int64(len(body)), int64(len(body))))
	}

	if w.padding > 1 {
		need := int(w.totalComp % int64(w.padding))

		if need != 0 {
			need = w.padding - need
		}

		if need < 4 {
			need += w.padding
		}

		if need > 0 {
			if err := w.writeChunk(chunkPadding, make([]byte, need-4)); err != nil {
				return err
			}

			notifyListeners(w.listeners, s2.NewEvent(s2.EvtPaddingWritten, -1, 0, int64(need)))
		}
	}

	w.closed = true
	notifyListeners(w.listeners, s2.NewEvent(s2.EvtStreamClosed, -1, w.totalUncomp, w.totalComp))
	return nil
}

// Written returns the number of bytes written to the underlying writer
// so far.
func (w *Writer) Written() int64 {
	return w.totalComp
}

func (w *Writer) ensureHeader() error {
	if w.headerWritten {
		return nil
	}

	magic := magicS2

	if w.snappy {
		magic = magicSnappy
	}

	if err := w.writeChunk(chunkStreamIdentifier, magic); err != nil {
		return err
	}

	w.headerWritten = true
	return nil
}

func (w *Writer) flushPending() error {
	if len(w.pending) == 0 {
		return nil
	}

	blocks := w.pending
	w.pending = nil
	return w.flushBlocks(blocks)
}

// flushBlocks compresses blocks concurrently (bounded to w.jobs workers
// at a time via a goroutine-per-block plus sync.WaitGroup) and then
// writes the resulting chunks to w.w strictly in submission order, so
// ordering never depends on which worker finishes first.
func (w *Writer) flushBlocks(blocks [][]byte) error {
	if len(blocks) == 0 {
		return nil
	}

	type blockResult struct {
		compressed []byte
		raw        bool
	}

	results := make([]blockResult, len(blocks))
	sem := make(chan struct{}, w.jobs)
	var wg sync.WaitGroup

	for i, data := range blocks {
		wg.Add(1)
		sem <- struct{}{}

		go func(i int, data []byte) {
			defer wg.Done()
			defer func() { <-sem }()

			compressed := w.encodeBlock(data)

			if len(compressed) < len(data) {
				results[i] = blockResult{compressed: compressed}
			} else {
				results[i] = blockResult{raw: true}
			}
		}(i, data)
	}

	wg.Wait()

	for i, data := range blocks {
		uncompOffset := w.totalUncomp
		compOffset := w.totalComp

		var err error

		if results[i].raw {
			err = w.writeUncompressedChunk(data)
		} else {
			err = w.writeCompressedChunk(data, results[i].compressed)
		}

		if err != nil {
			return err
		}

		w.totalUncomp += int64(len(data))

		if w.idx != nil {
			w.idx.add(compOffset, uncompOffset)
		}

		notifyListeners(w.listeners, s2.NewEvent(s2.EvtBlockFlushed, w.blockID, int64(len(data)), w.totalComp-compOffset))
		w.blockID++
	}

	return nil
}

func (w *Writer) encodeBlock(data []byte) []byte {
	switch {
	case w.snappy:
		return s2.EncodeSnappy(nil, data)
	case w.level == LevelBetter:
		return s2.EncodeBetter(nil, data)
	case w.level == LevelBest:
		return s2.EncodeBest(nil, data)
	default:
		return s2.Encode(nil, data)
	}
}

func (w *Writer) writeCompressedChunk(data, compressed []byte) error {
	payload := make([]byte, 4+len(compressed))
	binary.LittleEndian.PutUint32(payload, s2.MaskedCRC(data))
	copy(payload[4:], compressed)
	return w.writeChunk(chunkCompressed, payload)
}

func (w *Writer) writeUncompressedChunk(data []byte) error {
	payload := make([]byte, 4+len(data))
	binary.LittleEndian.PutUint32(payload, s2.MaskedCRC(data))
	copy(payload[4:], data)
	return w.writeChunk(chunkUncompressed, payload)
}

// writeChunk writes the 4-byte chunk header (type + 3-byte LE length)
// followed by payload, splitting payload across multiple chunks of the
// same type if it would otherwise exceed the 2^24-1 length field.
func (w *Writer) writeChunk(typ byte, payload []byte) error {
	for {
		n := len(payload)

		if n > maxChunkPayload {
			n = maxChunkPayload
		}

		hdr := [4]byte{typ, byte(n), byte(n >> 8), byte(n >> 16)}

		if _, err := w.w.Write(hdr[:]); err != nil {
			return err
		}

		if n > 0 {
			if _, err := w.w.Write(payload[:n]); err != nil {
				return err
			}
		}

		w.totalComp += int64(4 + n)
		payload = payload[n:]

		if len(payload) == 0 {
			return nil
		}
	}
}

func notifyListeners(listeners []Listener, evt *s2.Event) {
	defer func() {
		recover()
	}()

	for _, l := range listeners {
		l.ProcessEvent(evt)
	}
}
