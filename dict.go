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

const (
	minDictSize     = 16
	maxDictSize     = 65536
	maxDictSrcOffet = 65535
)

// Dict holds a fixed block of common data that never appears in the
// stream itself but that copy offsets may reach back into. Per §9's
// Design Notes, none of the three encoder tiers search a dictionary's
// contents for matches (encoding against a dictionary is optional);
// decoding through one is fully supported and required to round-trip,
// resolved in selfCopy against Data().
type Dict struct {
	data   []byte
	repeat int
}

// MakeDict builds a Dict from data, keeping only the last maxDictSize
// bytes when data is longer. If searchStart is non-nil, the dictionary's
// initial repeat offset is set to the position of the longest prefix of
// searchStart (at least 4 bytes) found inside the dictionary; otherwise
// the repeat offset is 0. Returns false if data is too short to dictionary
// at all.
func MakeDict(data []byte, searchStart []byte) (*Dict, bool) {
	if len(data) == 0 {
		return nil, false
	}

	dictData := data

	if len(dictData) > maxDictSize {
		dictData = dictData[len(dictData)-maxDictSize:]
	}

	if len(dictData) < minDictSize {
		return nil, false
	}

	repeat := 0

	if searchStart != nil {
		for l := len(searchStart); l >= 4; l-- {
			pos, found := findLastOccurrence(dictData, searchStart[:l])

			if found && pos <= len(dictData)-8 {
				repeat = pos
				break
			}
		}
	}

	owned := make([]byte, len(dictData))
	copy(owned, dictData)

	return &Dict{data: owned, repeat: repeat}, true
}

// MakeDictManual builds a Dict with an explicit repeat offset rather than
// one discovered by suffix search. firstIdx must be less than
// len(data)-8.
func MakeDictManual(data []byte, firstIdx uint16) (*Dict, bool) {
	if len(data) < minDictSize || len(data) > maxDictSize || int(firstIdx) >= len(data)-8 {
		return nil, false
	}

	owned := make([]byte, len(data))
	copy(owned, data)

	return &Dict{data: owned, repeat: int(firstIdx)}, true
}

// LoadDict parses a dictionary from its serialized form: an unsigned
// varint repeat offset followed by the dictionary bytes.
func LoadDict(src []byte) (*Dict, *S2Error) {
	if len(src) == 0 {
		return nil, newErr(ErrCorrupt, "empty dictionary")
	}

	repeat, n, err := decodeUvarint(src)
	if err != nil {
		return nil, err
	}

	body := src[n:]

	if len(body) < minDictSize || len(body) > maxDictSize {
		return nil, newErr(ErrCorrupt, "dictionary body size %d out of range", len(body))
	}

	if int(repeat) > len(body) {
		return nil, newErr(ErrCorrupt, "dictionary repeat offset out of range")
	}

	owned := make([]byte, len(body))
	copy(owned, body)

	return &Dict{data: owned, repeat: int(repeat)}, nil
}

// Bytes serializes the dictionary: an unsigned varint repeat offset
// followed by the dictionary bytes.
func (d *Dict) Bytes() []byte {
	size := uvarintSize(uint64(d.repeat))
	out := make([]byte, size+len(d.data))
	n := encodeUvarint(out, uint64(d.repeat))
	copy(out[n:], d.data)
	return out
}

// Data returns the dictionary's raw bytes.
func (d *Dict) Data() []byte {
	return d.data
}

// Repeat returns the dictionary's initial repeat offset.
func (d *Dict) Repeat() int {
	return d.repeat
}

func findLastOccurrence(haystack, needle []byte) (int, bool) {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return 0, false
	}

	for i := len(haystack) - len(needle); i >= 0; i-- {
		if string(haystack[i:i+len(needle)]) == string(needle) {
			return i, true
		}
	}

	return 0, false
}
