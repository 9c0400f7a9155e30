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

import "hash/crc32"

// maskDelta is the additive term applied after rotating a CRC32C value, a
// constant fixed by the wire format and never to be altered.
const maskDelta = 0xa282ead8

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// MaskedCRC computes the masked CRC32C checksum used throughout the S2
// stream format: rotr(crc32c(data), 15) + 0xa282ead8 (mod 2^32).
func MaskedCRC(data []byte) uint32 {
	c := crc32.Checksum(data, castagnoliTable)
	return rotateRight32(c, 15) + maskDelta
}

func rotateRight32(v uint32, n uint) uint32 {
	return (v >> n) | (v << (32 - n))
}
