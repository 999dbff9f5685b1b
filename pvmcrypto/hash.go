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

// Package pvmcrypto provides the single hash primitive the engine core
// depends on: BLAKE2b-256, used for derived storage/preimage keys, preimage
// addressing and the request-slot namespace.
package pvmcrypto

import (
	"hash"

	"golang.org/x/crypto/blake2b"
)

// HashLength is the output size of the hash used throughout the engine.
const HashLength = 32

// Hash is a 32-byte BLAKE2b-256 digest.
type Hash [HashLength]byte

// Bytes returns a copy of the digest.
func (h Hash) Bytes() []byte { return h[:] }

// State wraps hash.Hash so callers can stream data before reading the sum.
type State interface {
	hash.Hash
}

// NewState returns a fresh streaming BLAKE2b-256 state.
func NewState() State {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only errors on a non-empty key; nil key never fails.
		panic(err)
	}
	return h
}

// Sum256 hashes the concatenation of data and returns the 32-byte digest.
func Sum256(data ...[]byte) Hash {
	h := NewState()
	for _, b := range data {
		h.Write(b)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Sum256Bytes is Sum256 returning a plain slice, for call sites that don't
// need the fixed-size type.
func Sum256Bytes(data ...[]byte) []byte {
	h := Sum256(data...)
	return h[:]
}
