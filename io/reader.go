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

package io

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	s2 "github.com/KarpelesLab/gos2"
)

const checksumSize = 4

// ReaderOption configures a Reader constructed by NewReader.
type ReaderOption func(*Reader)

// WithMaxBlockSize caps the uncompressed size a single chunk may expand
// to, bounding memory use when the caller knows the stream was written
// with small blocks (Snappy streams are commonly 64KiB).
func WithMaxBlockSize(n int) ReaderOption {
	return func(r *Reader) { r.maxBlockSize = n }
}

// WithIgnoreStreamIdentifier skips the leading 0xff magic chunk check,
// for readers positioned mid-stream (e.g. after an index-assisted seek).
func WithIgnoreStreamIdentifier() ReaderOption {
	return func(r *Reader) { r.readHeader = true }
}

// Reader decompresses an S2 (or Snappy) stream written by Writer. It
// implements io.Reader and, when the underlying reader is an io.Seeker,
// io.Seeker.
type Reader struct {
	r            io.Reader
	buf          []byte
	pos          int
	readHeader   bool
	eof          bool
	maxBlockSize int

	uncompRead int64
	idx        *index
}

// NewReader creates a Reader with the given options applied over
// defaults (4MiB max block size, stream identifier required).
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	rd := &Reader{r: r, maxBlockSize: maxBlockSize}

	for _, opt := range opts {
		opt(rd)
	}

	return rd
}

// Read implements io.Reader, returning decompressed bytes drawn from
// chunks read and verified (CRC) on demand.
func (r *Reader) Read(p []byte) (int, error) {
	if !r.readHeader {
		if err := r.readStreamIdentifier(); err != nil {
			return 0, err
		}

		r.readHeader = true
	}

	for r.pos >= len(r.buf) && !r.eof {
		r.buf = r.buf[:0]
		r.pos = 0

		ok, err := r.readChunk()
		if err != nil {
			return 0, err
		}

		if !ok {
			break
		}
	}

	available := len(r.buf) - r.pos

	if available == 0 {
		return 0, io.EOF
	}

	n := copy(p, r.buf[r.pos:])
	r.pos += n
	r.uncompRead += int64(n)
	return n, nil
}

func (r *Reader) readStreamIdentifier() error {
	var hdr [4]byte

	if _, err := io.ReadFull(r.r, hdr[:]); err != nil {
		return err
	}

	length := int(hdr[1]) | int(hdr[2])<<8 | int(hdr[3])<<16

	if hdr[0] != chunkStreamIdentifier || length != len(magicS2) {
		return &s2.S2Error{Code: s2.ErrCorrupt, Message: "invalid stream identifier"}
	}

	magic := make([]byte, length)

	if _, err := io.ReadFull(r.r, magic); err != nil {
		return err
	}

	if !bytes.Equal(magic, magicS2) && !bytes.Equal(magic, magicSnappy) {
		return &s2.S2Error{Code: s2.ErrCorrupt, Message: "invalid stream identifier"}
	}

	return nil
}

// readChunk reads and dispatches one chunk, returning false (no error)
// at a clean end-of-stream.
func (r *Reader) readChunk() (bool, error) {
	var hdr [4]byte

	if _, err := io.ReadFull(r.r, hdr[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			r.eof = true
			return false, nil
		}

		return false, err
	}

	typ := hdr[0]
	length := int(hdr[1]) | int(hdr[2])<<8 | int(hdr[3])<<16

	switch {
	case typ == chunkCompressed:
		return true, r.readDataChunk(length, true)
	case typ == chunkUncompressed:
		return true, r.readDataChunk(length, false)
	case typ == chunkPadding || typ == chunkIndex || typ == chunkStreamIdentifier:
		if err := r.skip(length); err != nil {
			return false, err
		}

		return r.readChunk()
	case typ >= 0x80 && typ <= 0xfd:
		if err := r.skip(length); err != nil {
			return false, err
		}

		return r.readChunk()
	default:
		return false, &s2.S2Error{Code: s2.ErrCorrupt, Message: fmt.Sprintf("unknown chunk type 0x%02x", typ)}
	}
}

func (r *Reader) readDataChunk(length int, compressed bool) error {
	if length < checksumSize {
		return &s2.S2Error{Code: s2.ErrCorrupt, Message: "chunk shorter than checksum"}
	}

	var crcBytes [checksumSize]byte

	if _, err := io.ReadFull(r.r, crcBytes[:]); err != nil {
		return err
	}

	expected := binary.LittleEndian.Uint32(crcBytes[:])
	payloadLen := length - checksumSize
	payload := make([]byte, payloadLen)

	if _, err := io.ReadFull(r.r, payload); err != nil {
		return err
	}

	var data []byte

	if compressed {
		out, err := s2.Decode(nil, payload)
		if err != nil {
			return err
		}

		if len(out) > r.maxBlockSize {
			return &s2.S2Error{Code: s2.ErrTooLarge, Message: "decoded block exceeds max block size"}
		}

		data = out
	} else {
		data = payload
	}

	if s2.MaskedCRC(data) != expected {
		return &s2.S2Error{Code: s2.ErrCorrupt, Message: "chunk CRC mismatch"}
	}

	r.buf = append(r.buf, data...)
	return nil
}

func (r *Reader) skip(length int) error {
	_, err := io.CopyN(io.Discard, r.r, int64(length))
	return err
}

// Reset discards buffered state and switches to a new underlying
// reader, as though a fresh Reader had been constructed with the same
// options.
func (r *Reader) Reset(reader io.Reader) {
	r.r = reader
	r.buf = r.buf[:0]
	r.pos = 0
	r.readHeader = false
	r.eof = false
	r.uncompRead = 0
}

// Seek implements io.Seeker. Within-buffer seeks move the read cursor
// only. Backwards or out-of-buffer seeks rewind the underlying reader
// to position 0 (which must itself be an io.Seeker) and re-decode
// forward. io.SeekEnd requires a loaded index.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekCurrent:
		offset += r.uncompRead
	case io.SeekEnd:
		if r.idx == nil {
			return 0, &s2.S2Error{Code: s2.ErrUnsupported, Message: "SeekEnd requires an index"}
		}

		offset += r.idx.totalUncomp
	case io.SeekStart:
		// offset already absolute
	default:
		return 0, &s2.S2Error{Code: s2.ErrInvalidInput, Message: "invalid whence"}
	}

	if offset < 0 {
		return 0, &s2.S2Error{Code: s2.ErrInvalidInput, Message: "negative absolute offset"}
	}

	if offset >= r.uncompRead-int64(r.pos) && offset <= r.uncompRead+int64(len(r.buf)-r.pos) {
		delta := offset - r.uncompRead
		r.pos += int(delta)
		r.uncompRead = offset
		return offset, nil
	}

	seeker, ok := r.r.(io.Seeker)
	if !ok {
		return 0, &s2.S2Error{Code: s2.ErrUnsupported, Message: "underlying reader is not seekable"}
	}

	if _, err := seeker.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	r.Reset(r.r)

	remaining := offset
	discard := make([]byte, 32*1024)

	for remaining > 0 {
		chunk := int64(len(discard))

		if chunk > remaining {
			chunk = remaining
		}

		n, err := r.Read(discard[:chunk])

		if n > 0 {
			remaining -= int64(n)
		}

		if err != nil {
			if err == io.EOF {
				break
			}

			return 0, err
		}
	}

	return offset, nil
}
