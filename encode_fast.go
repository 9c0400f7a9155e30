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

import "math/bits"

const (
	fastSmallTableBits = 14
	fastLargeTableBits = 17
	fastSmallTableMax  = 1 << 16
	inputMargin        = 8
	minNonLiteralBlock = 32
)

// encodeFastBlock is the Fast (C5) tier: a single hash table with
// exponential skip for incompressible regions, described in §4.5. It
// never emits a repeat tag (matching the reference encoder's own Fast
// tier), always calling emitCopyNoRepeat.
//
// A supplied dictionary (see §4.8 and §9's Design Notes) does not
// currently seed this tier's search, matching the documented fallback:
// dictionary-aware search is optional, dictionary-aware decoding is not.
func encodeFastBlock(dst, src []byte) int {
	n := len(src)

	if n < minNonLiteralBlock {
		return emitLiteral(dst, src)
	}

	tableBits := uint(fastSmallTableBits)

	if n > fastSmallTableMax {
		tableBits = fastLargeTableBits
	}

	table := make([]int32, 1<<tableBits)

	for i := range table {
		table[i] = -1
	}

	d := 0
	nextEmit := 0
	s := 1
	skip := 32

	for s+4 <= n && s < n-inputMargin {
		var candidate int32 = -1
		nextS := s

		for {
			s = nextS
			step := skip >> 5
			nextS = s + step
			skip++

			if nextS >= n-inputMargin {
				goto emitRemainder
			}

			h := fastHash(load32(src[s:]), tableBits)
			candidate = table[h]
			table[h] = int32(s)

			if candidate >= 0 && load32(src[s:]) == load32(src[candidate:]) {
				break
			}
		}

		base := s
		cand := int(candidate)

		for base > nextEmit && cand > 0 && src[base-1] == src[cand-1] {
			base--
			cand--
		}

		d += emitLiteral(dst[d:], src[nextEmit:base])

		extS := s + 4
		extC := int(candidate) + 4

		for extS+8 <= n {
			x := load64(src[extS:]) ^ load64(src[extC:])

			if x != 0 {
				extS += bits.TrailingZeros64(x) / 8
				extC += bits.TrailingZeros64(x) / 8
				goto extended
			}

			extS += 8
			extC += 8
		}

		for extS < n && extC < n && src[extS] == src[extC] {
			extS++
			extC++
		}

	extended:
		length := extS - base
		offset := base - cand
		d += emitCopyNoRepeat(dst[d:], offset, length)
		nextEmit = extS
		s = extS

		if s >= n-inputMargin {
			break
		}

		// Immediate-match re-check at the new position.
		for s+4 <= n {
			if s >= 2 {
				h2 := fastHash(load32(src[s-2:]), tableBits)
				table[h2] = int32(s - 2)
			}

			h := fastHash(load32(src[s:]), tableBits)
			c := table[h]
			table[h] = int32(s)

			if c < 0 || load32(src[s:]) != load32(src[c:]) {
				s++
				break
			}

			base = s
			cand = int(c)
			extS = s + 4
			extC = cand + 4

			for extS+8 <= n {
				x := load64(src[extS:]) ^ load64(src[extC:])

				if x != 0 {
					extS += bits.TrailingZeros64(x) / 8
					extC += bits.TrailingZeros64(x) / 8
					goto extended2
				}

				extS += 8
				extC += 8
			}

			for extS < n && extC < n && src[extS] == src[extC] {
				extS++
				extC++
			}

		extended2:
			length = extS - base
			offset = base - cand
			d += emitCopyNoRepeat(dst[d:], offset, length)
			nextEmit = extS
			s = extS
		}
	}

emitRemainder:
	if nextEmit < n {
		d += emitLiteral(dst[d:], src[nextEmit:])
	}

	// Worthiness gate (§4.5): a tag stream that barely shrinks the input
	// isn't worth the copy/literal dispatch overhead on decode, so fall
	// back to a single literal via encodeLevel's n == 0 path.
	if d >= n-n/32 {
		return 0
	}

	return d
}
