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
	betterLongTableBits  = 17
	betterShortTableBits = 14
)

// encodeBetterBlock is the Better (C6) tier described in §4.6: two hash
// tables, a long one (17 bits, 7-byte hash) favored for its longer reach
// and a short one (14 bits, 4-byte hash) that catches matches the long
// table misses, plus repeat-offset tracking shared with emitRepeat/
// emitCopy. It returns 0 when the block does not compress well enough to
// beat the dst budget from §4.6, signaling the caller to fall back to a
// single literal; candidate position 0 is never a real match, matching
// the zero-initialized tables below.
func encodeBetterBlock(dst, src []byte) int {
	n := len(src)

	if n < minNonLiteralBlock || n < 8 {
		return 0
	}

	lTable := make([]int32, 1<<betterLongTableBits)
	sTable := make([]int32, 1<<betterShortTableBits)

	dstLimit := n - n/32 - 6
	sLimit := n - inputMargin

	nextEmit := 0
	s := 1
	d := 0
	repeat := 0

	cv := load64(src[s:])

	for {
		var candidateL int
		var nextS int

		for {
			nextS = s + (s-nextEmit)/128 + 1

			if nextS > sLimit {
				goto emitRemainder
			}

			hashL := hash7(cv, betterLongTableBits)
			hashS := hash4(cv, betterShortTableBits)
			candidateL = int(lTable[hashL])
			candidateS := int(sTable[hashS])
			lTable[hashL] = int32(s)
			sTable[hashS] = int32(s)

			var valLong, valShort uint64

			okLong := candidateL > 0 && candidateL < n-8
			okShort := candidateS > 0 && candidateS < n-8

			if okLong {
				valLong = load64(src[candidateL:])
			}

			if okShort {
				valShort = load64(src[candidateS:])
			}

			if okLong && cv == valLong {
				break
			}

			if okShort && cv == valShort {
				candidateL = candidateS
				break
			}

			if okLong && uint32(cv) == uint32(valLong) {
				break
			}

			if okShort && uint32(cv) == uint32(valShort) {
				hl := hash7(cv>>8, betterLongTableBits)
				candidateLNext := int(lTable[hl])
				lTable[hl] = int32(s + 1)

				if candidateLNext > 0 && candidateLNext < n-4 && uint32(cv>>8) == load32(src[candidateLNext:]) {
					s++
					candidateL = candidateLNext
					break
				}

				candidateL = candidateS
				break
			}

			if nextS+8 <= n {
				cv = load64(src[nextS:])
			}

			s = nextS
		}

		for candidateL > 0 && s > nextEmit && src[candidateL-1] == src[s-1] {
			candidateL--
			s--
		}

		if d+(s-nextEmit) > dstLimit {
			return 0
		}

		base := s
		offset := base - candidateL

		s += 4
		candidate := candidateL + 4

		for s < n {
			if n-s < 8 {
				if s < n && candidate < n && src[s] == src[candidate] {
					s++
					candidate++
					continue
				}

				break
			}

			if candidate+8 > n {
				break
			}

			diff := load64(src[s:]) ^ load64(src[candidate:])

			if diff != 0 {
				s += bits.TrailingZeros64(diff) / 8
				break
			}

			s += 8
			candidate += 8
		}

		if offset > 65535 && s-base <= 5 && repeat != offset {
			s = nextS + 1

			if s >= sLimit {
				break
			}

			if s+8 <= n {
				cv = load64(src[s:])
			}

			continue
		}

		d += emitLiteral(dst[d:], src[nextEmit:base])

		if repeat == offset {
			d += emitRepeat(dst[d:], offset, s-base)
		} else {
			d += emitCopy(dst[d:], offset, s-base)
			repeat = offset
		}

		nextEmit = s

		if s >= sLimit {
			break
		}

		if d > dstLimit {
			return 0
		}

		index0 := base + 1
		index1 := s - 2

		if index0 < n-8 {
			cv0 := load64(src[index0:])
			lTable[hash7(cv0, betterLongTableBits)] = int32(index0)

			if index0+1 < n-8 {
				sTable[hash4(cv0>>8, betterShortTableBits)] = int32(index0 + 1)
			}
		}

		if index1 > 0 && index1 < n-8 {
			cv1 := load64(src[index1:])
			lTable[hash7(cv1, betterLongTableBits)] = int32(index1)

			if index1+1 < n-8 {
				sTable[hash4(cv1>>8, betterShortTableBits)] = int32(index1 + 1)
			}
		}

		idx0 := index0 + 1
		idx2 := (idx0 + index1 + 1) / 2

		for idx2 < index1 {
			if idx0 < n-8 {
				lTable[hash7(load64(src[idx0:]), betterLongTableBits)] = int32(idx0)
			}

			if idx2 < n-8 {
				lTable[hash7(load64(src[idx2:]), betterLongTableBits)] = int32(idx2)
			}

			idx0 += 2
			idx2 += 2
		}

		if s+8 <= n {
			cv = load64(src[s:])
		}
	}

emitRemainder:
	if nextEmit < n {
		if d+n-nextEmit > dstLimit {
			return 0
		}

		d += emitLiteral(dst[d:], src[nextEmit:])
	}

	return d
}
