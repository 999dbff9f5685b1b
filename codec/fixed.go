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

// EncodeFixed writes v as length little-endian octets, wrapping modulo
// 2^(8*length). length must be in [1,8].
func EncodeFixed(v uint64, length int) []byte {
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		out[i] = byte(v >> uint(8*i))
	}
	return out
}

// DecodeFixed reads length little-endian octets from the front of b.
func DecodeFixed(b []byte, length int) (uint64, error) {
	if len(b) < length {
		return 0, ErrTruncated
	}
	return getLE(b[:length], length), nil
}
