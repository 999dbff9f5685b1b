// Copyright 2025 The peanutbutterandjam Authors
// This file is part of the peanutbutterandjam library.
//
// The peanutbutterandjam library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The peanutbutterandjam library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the peanutbutterandjam library. If not, see <http://www.gnu.org/licenses/>.

package codec

// Natural numbers are encoded with a one-to-nine octet
// variable-length scheme. The first octet's magnitude selects how many
// trailing little-endian octets carry the value; this is NOT a LEB128
// variant and must not be replaced with a generic varint encoder: the
// scheme straddles a sign-bit threshold at 2^56 that off-the-shelf varint
// libraries do not reproduce.

// EncodeNatural returns the canonical (shortest) encoding of v.
func EncodeNatural(v uint64) []byte {
	if v == 0 {
		return []byte{0}
	}
	if v < 128 {
		return []byte{byte(v)}
	}
	for l := 1; l <= 7; l++ {
		if v < uint64(1)<<uint(7*(l+1)) {
			prefix := byte(256 - int(1<<uint(8-l)))
			high := byte(v >> uint(8*l))
			out := make([]byte, 1+l)
			out[0] = prefix + high
			putLE(out[1:], v, l)
			return out
		}
	}
	// v >= 2^56: full 9-octet form.
	out := make([]byte, 9)
	out[0] = 0xFF
	putLE(out[1:], v, 8)
	return out
}

// DecodeNatural parses a Nat from the front of b, returning the value and
// the number of octets consumed.
func DecodeNatural(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, ErrTruncated
	}
	b0 := b[0]
	switch {
	case b0 == 0:
		return 0, 1, nil
	case b0 == 0xFF:
		if len(b) < 9 {
			return 0, 0, ErrTruncated
		}
		return getLE(b[1:9], 8), 9, nil
	case b0 <= 127:
		return uint64(b0), 1, nil
	}
	// b0 in [128, 254]: find the smallest l in [1,7] whose prefix range
	// covers b0.
	for l := 1; l <= 7; l++ {
		prefix := byte(256 - int(1<<uint(8-l)))
		nextPrefix := 256 - int(1<<uint(8-(l+1)))
		if int(b0) < nextPrefix {
			if len(b) < 1+l {
				return 0, 0, ErrTruncated
			}
			high := uint64(b0 - prefix)
			low := getLE(b[1:1+l], l)
			return (high << uint(8*l)) | low, 1 + l, nil
		}
	}
	return 0, 0, ErrInvalidPrefix
}

func putLE(dst []byte, v uint64, n int) {
	for i := 0; i < n; i++ {
		dst[i] = byte(v >> uint(8*i))
	}
}

func getLE(src []byte, n int) uint64 {
	var v uint64
	for i := 0; i < n; i++ {
		v |= uint64(src[i]) << uint(8*i)
	}
	return v
}
