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

// EncodeVarTerm encodes a variable-length byte term as Nat(len) || bytes.
func EncodeVarTerm(b []byte) []byte {
	out := EncodeNatural(uint64(len(b)))
	return append(out, b...)
}

// DecodeVarTerm decodes a Nat(len) || bytes term from the front of b,
// returning the term and the number of octets consumed.
func DecodeVarTerm(b []byte) ([]byte, int, error) {
	n, nl, err := DecodeNatural(b)
	if err != nil {
		return nil, 0, err
	}
	total := nl + int(n)
	if total < nl || len(b) < total {
		return nil, 0, ErrTruncated
	}
	out := make([]byte, n)
	copy(out, b[nl:total])
	return out, total, nil
}

// EncodeVarSeq encodes a variable sequence Nat(n) || elem_0 || ... || elem_{n-1}
// using enc to encode each element.
func EncodeVarSeq(n int, enc func(i int) []byte) []byte {
	out := EncodeNatural(uint64(n))
	for i := 0; i < n; i++ {
		out = append(out, enc(i)...)
	}
	return out
}

// DecodeVarSeq decodes a variable sequence from the front of b, calling dec
// once per element; dec must return the element's consumed length. Returns
// the total number of octets consumed.
func DecodeVarSeq(b []byte, dec func(b []byte, i int) (int, error)) (int, error) {
	n, nl, err := DecodeNatural(b)
	if err != nil {
		return 0, err
	}
	off := nl
	for i := 0; i < int(n); i++ {
		if off > len(b) {
			return 0, ErrTruncated
		}
		consumed, err := dec(b[off:], i)
		if err != nil {
			return 0, err
		}
		off += consumed
	}
	return off, nil
}
