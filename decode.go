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

// maxDecodedLen is the platform-independent ceiling on a decoded block's
// length, fixed by the wire format at 2^32-1.
const maxDecodedLen = 0xffffffff

// Decode decodes a complete S2 or Snappy block from src into dst (reusing
// its backing array when it has enough capacity) and returns the
// decompressed bytes. Decode never panics on adversarial input: every
// format violation is reported as an *S2Error with Code ErrCorrupt or
// ErrTooLarge.
func Decode(dst, src []byte) ([]byte, *S2Error) {
	return decode(dst, src, nil)
}

// DecodeWithDict decodes src the way Decode does, except that copy
// offsets reaching before the start of the output are resolved against the
// tail of dict's data instead of being rejected as corrupt. The dictionary
// bytes are never copied into the returned output.
func DecodeWithDict(dst, src []byte, dict *Dict) ([]byte, *S2Error) {
	if dict == nil {
		return decode(dst, src, nil)
	}

	return decode(dst, src, dict.data)
}

func decode(dst, src []byte, dict []byte) ([]byte, *S2Error) {
	if len(src) == 0 {
		return nil, newErr(ErrCorrupt, "empty block")
	}

	decodedLen, n, err := decodeUvarint(src)
	if err != nil {
		return nil, err
	}

	if decodedLen > maxDecodedLen || decodedLen > uint64(^uint(0)>>1) {
		return nil, newErr(ErrTooLarge, "decoded length %d exceeds platform ceiling", decodedLen)
	}

	dl := int(decodedLen)

	if dst != nil && cap(dst) >= dl {
		dst = dst[:dl]
	} else {
		dst = make([]byte, dl)
	}

	if err := decodeBlock(dst, src[n:], dict); err != nil {
		return nil, err
	}

	return dst, nil
}

func decodeBlock(dst, src []byte, dict []byte) *S2Error {
	d := 0
	s := 0
	lastOffset := 0
	dl := len(dst)
	sl := len(src)

	for s < sl {
		tag := src[s]

		switch tag & 0x03 {
		case tagLiteral:
			x := int(tag >> 2)
			var l int

			switch {
			case x < 60:
				l = x + 1
				s++
			case x == 60:
				if s+2 > sl {
					return newErr(ErrCorrupt, "truncated literal header")
				}

				l = int(src[s+1]) + 1
				s += 2
			case x == 61:
				if s+3 > sl {
					return newErr(ErrCorrupt, "truncated literal header")
				}

				l = int(src[s+1]) | int(src[s+2])<<8
				l++
				s += 3
			case x == 62:
				if s+4 > sl {
					return newErr(ErrCorrupt, "truncated literal header")
				}

				l = int(src[s+1]) | int(src[s+2])<<8 | int(src[s+3])<<16
				l++
				s += 4
			default:
				if s+5 > sl {
					return newErr(ErrCorrupt, "truncated literal header")
				}

				l = int(src[s+1]) | int(src[s+2])<<8 | int(src[s+3])<<16 | int(src[s+4])<<24
				l++
				s += 5
			}

			if s+l > sl || d+l > dl {
				return newErr(ErrCorrupt, "literal overruns buffer")
			}

			copy(dst[d:d+l], src[s:s+l])
			d += l
			s += l

		case tagCopy1:
			if s+2 > sl {
				return newErr(ErrCorrupt, "truncated copy1 tag")
			}

			hi3 := int(tag >> 5)
			field := int((tag >> 2) & 0x07)
			lo8 := int(src[s+1])
			offset := (hi3 << 8) | lo8

			if offset == 0 {
				var length int

				switch {
				case field <= 4:
					length = field + 4
					s += 2
				case field == 5:
					if s+3 > sl {
						return newErr(ErrCorrupt, "truncated repeat tag")
					}

					length = int(src[s+2]) + 8
					s += 3
				case field == 6:
					if s+4 > sl {
						return newErr(ErrCorrupt, "truncated repeat tag")
					}

					length = int(src[s+2]) | int(src[s+3])<<8
					length += 260
					s += 4
				default:
					if s+5 > sl {
						return newErr(ErrCorrupt, "truncated repeat tag")
					}

					length = int(src[s+2]) | int(src[s+3])<<8 | int(src[s+4])<<16
					length += 65540
					s += 5
				}

				if lastOffset == 0 {
					return newErr(ErrCorrupt, "repeat before any copy")
				}

				if err := selfCopy(dst, d, lastOffset, length, dict); err != nil {
					return err
				}

				d += length
			} else {
				length := field + 4
				s += 2

				if err := selfCopy(dst, d, offset, length, dict); err != nil {
					return err
				}

				lastOffset = offset
				d += length
			}

		case tagCopy2:
			if s+3 > sl {
				return newErr(ErrCorrupt, "truncated copy2 tag")
			}

			length := int(tag>>2) + 1
			offset := int(src[s+1]) | int(src[s+2])<<8
			s += 3

			if offset == 0 {
				return newErr(ErrCorrupt, "copy2 with zero offset")
			}

			if err := selfCopy(dst, d, offset, length, dict); err != nil {
				return err
			}

			lastOffset = offset
			d += length

		default: // tagCopy4
			if s+5 > sl {
				return newErr(ErrCorrupt, "truncated copy4 tag")
			}

			length := int(tag>>2) + 1
			offset := int(src[s+1]) | int(src[s+2])<<8 | int(src[s+3])<<16 | int(src[s+4])<<24
			s += 5

			if offset == 0 {
				return newErr(ErrCorrupt, "copy4 with zero offset")
			}

			if err := selfCopy(dst, d, offset, length, dict); err != nil {
				return err
			}

			lastOffset = offset
			d += length
		}
	}

	if d != dl {
		return newErr(ErrCorrupt, "decoded %d bytes, expected %d", d, dl)
	}

	return nil
}

// selfCopy performs the decoder's repeating copy: length bytes are written
// to dst[d:d+length], each read from offset bytes earlier. When offset is
// at least length the regions never overlap and a bulk copy suffices; when
// offset < length, byte N must observe a byte written earlier in this very
// copy, so the copy proceeds one byte at a time. When offset reaches
// before the start of dst and a dictionary is supplied, the missing bytes
// are resolved against the dictionary's tail instead.
func selfCopy(dst []byte, d, offset, length int, dict []byte) *S2Error {
	if offset <= 0 || d+length > len(dst) {
		return newErr(ErrCorrupt, "copy out of range: offset=%d length=%d d=%d", offset, length, d)
	}

	if offset <= d {
		src := d - offset

		if offset >= length {
			copy(dst[d:d+length], dst[src:src+length])
		} else {
			for i := 0; i < length; i++ {
				dst[d+i] = dst[src+i]
			}
		}

		return nil
	}

	if dict == nil {
		return newErr(ErrCorrupt, "offset %d exceeds current position %d", offset, d)
	}

	need := offset - d

	if need > len(dict) {
		return newErr(ErrCorrupt, "offset %d reaches before dictionary start", offset)
	}

	dictPos := len(dict) - need

	for i := 0; i < length; i++ {
		if dictPos+i < len(dict) {
			dst[d+i] = dict[dictPos+i]
		} else {
			dst[d+i] = dst[dictPos+i-len(dict)]
		}
	}

	return nil
}
