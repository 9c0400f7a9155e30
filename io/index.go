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
	"encoding/binary"

	s2 "github.com/KarpelesLab/gos2"
)

var (
	indexHeader  = []byte("s2idx\x00")
	indexTrailer = []byte("\x00xdi2s")
)

const (
	maxIndexEntries = 1 << 16
	minIndexDist    = 1 << 20
)

type indexEntry struct {
	compOffset   int64
	uncompOffset int64
}

// indexBuilder accumulates (compressed, uncompressed) offset pairs while a
// Writer flushes blocks, and serializes them into the body of an 0x99
// index chunk on Close.
type indexBuilder struct {
	entries     []indexEntry
	estBlock    int64
	totalUncomp int64
	totalComp   int64
}

func newIndexBuilder(blockSize int) *indexBuilder {
	return &indexBuilder{estBlock: int64(blockSize)}
}

// add records the offsets a just-flushed block started at. Adds must
// arrive in non-decreasing order; a repeated uncompressed offset updates
// the last entry's compressed offset in place instead of appending.
func (b *indexBuilder) add(compOffset, uncompOffset int64) {
	if n := len(b.entries); n > 0 {
		last := &b.entries[n-1]

		if last.uncompOffset == uncompOffset {
			last.compOffset = compOffset
			return
		}

		if last.uncompOffset+minIndexDist > uncompOffset {
			return
		}
	}

	b.entries = append(b.entries, indexEntry{compOffset: compOffset, uncompOffset: uncompOffset})
}

// reduce decimates entries down toward maxIndexEntries (and a MIN_INDEX_DIST
// average spacing) by keeping 1 of every removeN+1 entries, the way
// original_source/src/index.rs's Index::reduce does.
func (b *indexBuilder) reduce() {
	if len(b.entries) < maxIndexEntries && b.estBlock >= minIndexDist {
		return
	}

	removeN := (len(b.entries) + 1) / maxIndexEntries

	for b.estBlock*int64(removeN+1) < minIndexDist && len(b.entries)/(removeN+1) > 1000 {
		removeN++
	}

	j := 0

	for idx := 0; idx < len(b.entries); idx += removeN + 1 {
		b.entries[j] = b.entries[idx]
		j++
	}

	b.entries = b.entries[:j]
	b.estBlock += b.estBlock * int64(removeN)
}

// serialize finalizes totals, reduces if necessary, and returns the
// index chunk's body (header, fields, entries, trailer) for the caller to
// wrap in an 0x99 chunk frame.
func (b *indexBuilder) serialize() []byte {
	b.reduce()

	var body []byte
	body = append(body, indexHeader...)

	var tmp [maxVarintBytes]byte
	body = appendSignedVarint(body, tmp[:], b.totalUncomp)
	body = appendSignedVarint(body, tmp[:], b.totalComp)
	body = appendSignedVarint(body, tmp[:], b.estBlock)
	body = appendSignedVarint(body, tmp[:], int64(len(b.entries)))

	hasUncompressed := byte(0)

	for idx, e := range b.entries {
		if idx == 0 {
			if e.uncompOffset != 0 {
				hasUncompressed = 1
				break
			}

			continue
		}

		expected := b.entries[idx-1].uncompOffset + b.estBlock

		if e.uncompOffset != expected {
			hasUncompressed = 1
			break
		}
	}

	body = append(body, hasUncompressed)

	if hasUncompressed == 1 {
		for idx, e := range b.entries {
			var off int64

			if idx == 0 {
				off = e.uncompOffset
			} else {
				off = e.uncompOffset - b.entries[idx-1].uncompOffset - b.estBlock
			}

			body = appendSignedVarint(body, tmp[:], off)
		}
	}

	cPredict := b.estBlock / 2

	for idx, e := range b.entries {
		var off int64

		if idx == 0 {
			off = e.compOffset
		} else {
			off = e.compOffset - b.entries[idx-1].compOffset - cPredict
			cPredict += off / 2
		}

		body = appendSignedVarint(body, tmp[:], off)
	}

	var sizeField [4]byte
	binary.LittleEndian.PutUint32(sizeField[:], uint32(len(body)+4+len(indexTrailer)))
	body = append(body, sizeField[:]...)
	body = append(body, indexTrailer...)

	return body
}

func appendSignedVarint(dst, scratch []byte, v int64) []byte {
	n := encodeSignedVarint(scratch, v)
	return append(dst, scratch[:n]...)
}

// parseIndex parses an 0x99 chunk body produced by indexBuilder.serialize,
// returning an immutable lookup table for Reader.Seek/Find.
func parseIndex(body []byte) (*index, error) {
	if len(body) < len(indexHeader)+4+len(indexTrailer) {
		return nil, &s2.S2Error{Code: s2.ErrBufferTooSmall, Message: "index chunk too small"}
	}

	if string(body[:len(indexHeader)]) != string(indexHeader) {
		return nil, &s2.S2Error{Code: s2.ErrUnsupported, Message: "bad index header"}
	}

	b := body[len(indexHeader):]

	totalUncomp, n, err := decodeSignedVarint(b)
	if err != nil {
		return nil, err
	}
	b = b[n:]

	totalComp, n, err := decodeSignedVarint(b)
	if err != nil {
		return nil, err
	}
	b = b[n:]

	estBlock, n, err := decodeSignedVarint(b)
	if err != nil {
		return nil, err
	}
	b = b[n:]

	count, n, err := decodeSignedVarint(b)
	if err != nil {
		return nil, err
	}
	b = b[n:]

	if count < 0 || count > maxIndexEntries {
		return nil, &s2.S2Error{Code: s2.ErrCorrupt, Message: "index entry count out of range"}
	}

	if len(b) < 1 {
		return nil, &s2.S2Error{Code: s2.ErrCorrupt, Message: "index missing hasUncompressed flag"}
	}

	hasUncompressed := b[0]
	b = b[1:]

	uncompOffsets := make([]int64, count)

	if hasUncompressed == 1 {
		for i := int64(0); i < count; i++ {
			v, n, err := decodeSignedVarint(b)
			if err != nil {
				return nil, err
			}
			b = b[n:]

			if i == 0 {
				uncompOffsets[i] = v
			} else {
				uncompOffsets[i] = uncompOffsets[i-1] + estBlock + v
			}
		}
	} else {
		for i := int64(0); i < count; i++ {
			uncompOffsets[i] = i * estBlock
		}
	}

	entries := make([]indexEntry, count)
	cPredict := estBlock / 2

	for i := int64(0); i < count; i++ {
		v, n, err := decodeSignedVarint(b)
		if err != nil {
			return nil, err
		}
		b = b[n:]

		var compOff int64

		if i == 0 {
			compOff = v
		} else {
			compOff = entries[i-1].compOffset + cPredict + v
			cPredict += v / 2
		}

		entries[i] = indexEntry{compOffset: compOff, uncompOffset: uncompOffsets[i]}
	}

	if len(b) < 4+len(indexTrailer) {
		return nil, &s2.S2Error{Code: s2.ErrCorrupt, Message: "index missing trailer"}
	}

	trailerStart := len(b) - len(indexTrailer)

	if string(b[trailerStart:]) != string(indexTrailer) {
		return nil, &s2.S2Error{Code: s2.ErrCorrupt, Message: "bad index trailer"}
	}

	return &index{entries: entries, totalUncomp: totalUncomp, totalComp: totalComp}, nil
}

// index is the immutable, parsed form of an index chunk, used by Reader
// to answer Find/Seek queries.
type index struct {
	entries     []indexEntry
	totalUncomp int64
	totalComp   int64
}

// find returns the (compressed, uncompressed) offset pair at or before
// the requested uncompressed offset. A negative offset counts from the
// end of the stream, mirroring Index::find in the original_source
// reference.
func (x *index) find(offset int64) (int64, int64, error) {
	if x.totalUncomp < 0 {
		return 0, 0, &s2.S2Error{Code: s2.ErrCorrupt, Message: "index has no total size"}
	}

	if offset < 0 {
		offset += x.totalUncomp

		if offset < 0 {
			return 0, 0, &s2.S2Error{Code: s2.ErrInvalidInput, Message: "offset before start"}
		}
	}

	if offset > x.totalUncomp {
		return 0, 0, &s2.S2Error{Code: s2.ErrInvalidInput, Message: "offset beyond end"}
	}

	if len(x.entries) >= 200 {
		lo, hi := 0, len(x.entries)

		for lo < hi {
			mid := (lo + hi) / 2

			if x.entries[mid].uncompOffset <= offset {
				lo = mid + 1
			} else {
				hi = mid
			}
		}

		if lo == 0 {
			return 0, 0, nil
		}

		e := x.entries[lo-1]
		return e.compOffset, e.uncompOffset, nil
	}

	var compOff, uncompOff int64

	for _, e := range x.entries {
		if e.uncompOffset > offset {
			break
		}

		compOff, uncompOff = e.compOffset, e.uncompOffset
	}

	return compOff, uncompOff, nil
}
