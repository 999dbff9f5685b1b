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

package accumulate

import (
	"bytes"
	"encoding/binary"

	"github.com/Esscrypt/peanutbutterandjam/codec"
	"github.com/Esscrypt/peanutbutterandjam/pvmcrypto"
)

// KeySize is the width of a derived ledger key.
const KeySize = 31

// Namespace prefixes. Storage and preimage entries hash under a fixed
// prefix; request entries hash under the four little-endian bytes of the
// preimage length, which is what makes a request slot distinct per length.
var (
	storagePrefix  = [4]byte{0xFF, 0xFF, 0xFF, 0xFF}
	preimagePrefix = [4]byte{0xFE, 0xFF, 0xFF, 0xFF}
)

// DeriveKey computes the ledger key C(s, h): the four little-endian bytes of
// the service id interleaved with the first four bytes of
// blake2b-256(prefix || payload), followed by the next 23 bytes of that
// hash.
func DeriveKey(serviceID uint32, prefix [4]byte, payload []byte) [KeySize]byte {
	h := pvmcrypto.Sum256(prefix[:], payload)
	var sid [4]byte
	binary.LittleEndian.PutUint32(sid[:], serviceID)

	var key [KeySize]byte
	for i := 0; i < 4; i++ {
		key[2*i] = sid[i]
		key[2*i+1] = h[i]
	}
	copy(key[8:], h[4:27])
	return key
}

// StorageKey derives the key for a raw storage entry.
func StorageKey(serviceID uint32, rawKey []byte) [KeySize]byte {
	return DeriveKey(serviceID, storagePrefix, rawKey)
}

// PreimageKey derives the key for a preimage entry addressed by its hash.
func PreimageKey(serviceID uint32, hash []byte) [KeySize]byte {
	return DeriveKey(serviceID, preimagePrefix, hash)
}

// RequestKey derives the key for a request slot on (hash, preimageLength).
func RequestKey(serviceID uint32, hash []byte, preimageLength uint64) [KeySize]byte {
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(preimageLength))
	return DeriveKey(serviceID, prefix, hash)
}

// rawGet looks key up in the account's raw key-value slice.
func rawGet(a *codec.CompleteServiceAccount, key [KeySize]byte) ([]byte, bool) {
	for i := range a.KeyVals {
		if bytes.Equal(a.KeyVals[i].Key, key[:]) {
			return a.KeyVals[i].Value, true
		}
	}
	return nil, false
}

func rawSet(a *codec.CompleteServiceAccount, key [KeySize]byte, value []byte) {
	for i := range a.KeyVals {
		if bytes.Equal(a.KeyVals[i].Key, key[:]) {
			a.KeyVals[i].Value = value
			return
		}
	}
	a.KeyVals = append(a.KeyVals, codec.RawKeyValue{Key: append([]byte(nil), key[:]...), Value: value})
}

func rawDelete(a *codec.CompleteServiceAccount, key [KeySize]byte) bool {
	for i := range a.KeyVals {
		if bytes.Equal(a.KeyVals[i].Key, key[:]) {
			a.KeyVals = append(a.KeyVals[:i], a.KeyVals[i+1:]...)
			return true
		}
	}
	return false
}

// StorageGet returns the value stored under rawKey, if any.
func StorageGet(a *codec.CompleteServiceAccount, serviceID uint32, rawKey []byte) ([]byte, bool) {
	return rawGet(a, StorageKey(serviceID, rawKey))
}

func StorageSet(a *codec.CompleteServiceAccount, serviceID uint32, rawKey, value []byte) {
	rawSet(a, StorageKey(serviceID, rawKey), value)
}

func StorageDelete(a *codec.CompleteServiceAccount, serviceID uint32, rawKey []byte) bool {
	return rawDelete(a, StorageKey(serviceID, rawKey))
}

// PreimageGet returns the preimage stored under hash, if any.
func PreimageGet(a *codec.CompleteServiceAccount, serviceID uint32, hash []byte) ([]byte, bool) {
	return rawGet(a, PreimageKey(serviceID, hash))
}

func PreimageSet(a *codec.CompleteServiceAccount, serviceID uint32, hash, preimage []byte) {
	rawSet(a, PreimageKey(serviceID, hash), preimage)
}

func PreimageDelete(a *codec.CompleteServiceAccount, serviceID uint32, hash []byte) bool {
	return rawDelete(a, PreimageKey(serviceID, hash))
}

// RequestGet returns the encoded timeslot list of the request slot on
// (hash, preimageLength), if the slot exists. An existing slot with an empty
// list returns an empty, non-nil value.
func RequestGet(a *codec.CompleteServiceAccount, serviceID uint32, hash []byte, preimageLength uint64) ([]byte, bool) {
	v, ok := rawGet(a, RequestKey(serviceID, hash, preimageLength))
	if ok && v == nil {
		v = []byte{}
	}
	return v, ok
}

func RequestSet(a *codec.CompleteServiceAccount, serviceID uint32, hash []byte, preimageLength uint64, value []byte) {
	rawSet(a, RequestKey(serviceID, hash, preimageLength), value)
}

func RequestDelete(a *codec.CompleteServiceAccount, serviceID uint32, hash []byte, preimageLength uint64) bool {
	return rawDelete(a, RequestKey(serviceID, hash, preimageLength))
}

// EncodeTimeslots packs a request slot's timeslot list as consecutive
// little-endian u32 values.
func EncodeTimeslots(ts []uint32) []byte {
	out := make([]byte, 4*len(ts))
	for i, t := range ts {
		binary.LittleEndian.PutUint32(out[4*i:], t)
	}
	return out
}

// DecodeTimeslots unpacks a request slot value; a length that is not a
// multiple of four is malformed.
func DecodeTimeslots(v []byte) ([]uint32, bool) {
	if len(v)%4 != 0 {
		return nil, false
	}
	out := make([]uint32, len(v)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(v[4*i:])
	}
	return out, true
}
