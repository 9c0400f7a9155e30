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

import s2 "github.com/KarpelesLab/gos2"

// maxVarintBytes bounds a 64-bit zig-zag varint the same way the block
// codec's own varint does; the index format uses signed varints rather
// than the block format's unsigned ones, so it gets its own tiny codec
// here instead of exporting the s2 package's internal one.
const maxVarintBytes = 10

func encodeSignedVarint(dst []byte, v int64) int {
	u := uint64(v<<1) ^ uint64(v>>63)
	i := 0

	for u >= 0x80 {
		dst[i] = byte(u) | 0x80
		u >>= 7
		i++
	}

	dst[i] = byte(u)
	return i + 1
}

func decodeSignedVarint(src []byte) (int64, int, error) {
	var u uint64
	var shift uint

	for i := 0; i < len(src); i++ {
		if i >= maxVarintBytes {
			return 0, 0, &s2.S2Error{Code: s2.ErrCorrupt, Message: "index varint too long"}
		}

		b := src[i]

		if b < 0x80 {
			u |= uint64(b) << shift
			v := int64(u>>1) ^ -int64(u&1)
			return v, i + 1, nil
		}

		u |= uint64(b&0x7f) << shift
		shift += 7
	}

	return 0, 0, &s2.S2Error{Code: s2.ErrCorrupt, Message: "truncated index varint"}
}
