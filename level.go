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

// blockEncoder is satisfied by each tier's single-block routine: it
// writes the tag stream for src into dst and returns how many bytes it
// wrote, or 0 to signal the block did not compress well enough to stay
// under its own internal budget.
type blockEncoder func(dst, src []byte) int

// Encode writes the Fast (C5) tier's encoding of src into dst, starting at
// dst[0], and returns the encoded slice. dst may be nil; when its capacity
// is below MaxEncodedLen(len(src)) a new slice is allocated. Encode never fails: incompressible input falls
// back to a single literal, per the worthiness gate in §4.5.
func Encode(dst, src []byte) []byte {
	return encodeLevel(dst, src, encodeFastBlock)
}

// EncodeBetter writes the Better (C6) tier's encoding of src into dst, as
// Encode does.
func EncodeBetter(dst, src []byte) []byte {
	return encodeLevel(dst, src, encodeBetterBlock)
}

// EncodeBest writes the Best (C7) tier's encoding of src into dst, as
// Encode does.
func EncodeBest(dst, src []byte) []byte {
	return encodeLevel(dst, src, encodeBestBlock)
}

// EncodeSnappy writes a Snappy-compatible encoding of src into dst. It
// reuses the Fast tier's search, which already emits exclusively through
// emitCopyNoRepeat and so never produces S2's repeat-offset extension;
// the result decodes with any Snappy-compliant decoder.
func EncodeSnappy(dst, src []byte) []byte {
	return encodeLevel(dst, src, encodeFastBlock)
}

// EncodeWithDict behaves like Encode, except that decoding the result
// through DecodeWithDict(_, _, dict) is required to round-trip; dict
// itself is not searched for matches (see §4.8 / DESIGN.md).
func EncodeWithDict(dst, src []byte, dict *Dict) []byte {
	return encodeLevel(dst, src, encodeFastBlock)
}

func encodeLevel(dst, src []byte, block blockEncoder) []byte {
	maxLen := MaxEncodedLen(len(src))

	if cap(dst) >= maxLen {
		dst = dst[:maxLen]
	} else {
		dst = make([]byte, maxLen)
	}

	d := encodeUvarint(dst, uint64(len(src)))

	if len(src) == 0 {
		return dst[:d]
	}

	if len(src) < minNonLiteralBlock {
		n := emitLiteral(dst[d:], src)
		return dst[:d+n]
	}

	if n := block(dst[d:], src); n > 0 {
		return dst[:d+n]
	}

	n := emitLiteral(dst[d:], src)
	return dst[:d+n]
}
