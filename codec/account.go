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

// RawKeyValue is one entry of a service account's raw 31-byte-keyed store.
type RawKeyValue struct {
	Key   []byte // 31 bytes in a well-formed account, but the codec is lenient on decode
	Value []byte
}

// CompleteServiceAccount is the full on-wire layout of a service account:
// var{rawCshKeyvals} followed by the fixed-width fields.
type CompleteServiceAccount struct {
	KeyVals    []RawKeyValue
	Octets     uint64
	Items      uint32
	Gratis     uint64
	CodeHash   [32]byte
	Balance    uint64
	MinAccGas  uint64
	MinMemoGas uint64
	Created    uint32
	LastAcc    uint32
	Parent     uint32
}

// Encode writes the account in CompleteServiceAccount wire order.
func (a *CompleteServiceAccount) Encode() []byte {
	out := EncodeVarSeq(len(a.KeyVals), func(i int) []byte {
		kv := a.KeyVals[i]
		b := EncodeVarTerm(kv.Key)
		b = append(b, EncodeVarTerm(kv.Value)...)
		return b
	})
	out = append(out, EncodeFixed(a.Octets, 8)...)
	out = append(out, EncodeFixed(uint64(a.Items), 4)...)
	out = append(out, EncodeFixed(a.Gratis, 8)...)
	out = append(out, a.CodeHash[:]...)
	out = append(out, EncodeFixed(a.Balance, 8)...)
	out = append(out, EncodeFixed(a.MinAccGas, 8)...)
	out = append(out, EncodeFixed(a.MinMemoGas, 8)...)
	out = append(out, EncodeFixed(uint64(a.Created), 4)...)
	out = append(out, EncodeFixed(uint64(a.LastAcc), 4)...)
	out = append(out, EncodeFixed(uint64(a.Parent), 4)...)
	return out
}

// DecodeCompleteServiceAccount decodes a CompleteServiceAccount from the
// front of b, returning the account and the number of octets consumed.
func DecodeCompleteServiceAccount(b []byte) (*CompleteServiceAccount, int, error) {
	a := &CompleteServiceAccount{}
	off, err := DecodeVarSeq(b, func(buf []byte, i int) (int, error) {
		key, kn, err := DecodeVarTerm(buf)
		if err != nil {
			return 0, err
		}
		val, vn, err := DecodeVarTerm(buf[kn:])
		if err != nil {
			return 0, err
		}
		a.KeyVals = append(a.KeyVals, RawKeyValue{Key: key, Value: val})
		return kn + vn, nil
	})
	if err != nil {
		return nil, 0, err
	}
	read := func(n int) ([]byte, error) {
		if len(b) < off+n {
			return nil, ErrTruncated
		}
		s := b[off : off+n]
		off += n
		return s, nil
	}
	octetsB, err := read(8)
	if err != nil {
		return nil, 0, err
	}
	a.Octets = getLE(octetsB, 8)
	itemsB, err := read(4)
	if err != nil {
		return nil, 0, err
	}
	a.Items = uint32(getLE(itemsB, 4))
	gratisB, err := read(8)
	if err != nil {
		return nil, 0, err
	}
	a.Gratis = getLE(gratisB, 8)
	codeHashB, err := read(32)
	if err != nil {
		return nil, 0, err
	}
	copy(a.CodeHash[:], codeHashB)
	balanceB, err := read(8)
	if err != nil {
		return nil, 0, err
	}
	a.Balance = getLE(balanceB, 8)
	minAccB, err := read(8)
	if err != nil {
		return nil, 0, err
	}
	a.MinAccGas = getLE(minAccB, 8)
	minMemoB, err := read(8)
	if err != nil {
		return nil, 0, err
	}
	a.MinMemoGas = getLE(minMemoB, 8)
	createdB, err := read(4)
	if err != nil {
		return nil, 0, err
	}
	a.Created = uint32(getLE(createdB, 4))
	lastAccB, err := read(4)
	if err != nil {
		return nil, 0, err
	}
	a.LastAcc = uint32(getLE(lastAccB, 4))
	parentB, err := read(4)
	if err != nil {
		return nil, 0, err
	}
	a.Parent = uint32(getLE(parentB, 4))
	return a, off, nil
}

// AccountEntry is serviceId[4] || CompleteServiceAccount.
type AccountEntry struct {
	ServiceID uint32
	Account   CompleteServiceAccount
}

func (e *AccountEntry) Encode() []byte {
	out := EncodeFixed(uint64(e.ServiceID), 4)
	return append(out, e.Account.Encode()...)
}

func DecodeAccountEntry(b []byte) (*AccountEntry, int, error) {
	idB, err := DecodeFixed(b, 4)
	if err != nil {
		return nil, 0, err
	}
	acc, n, err := DecodeCompleteServiceAccount(b[4:])
	if err != nil {
		return nil, 0, err
	}
	return &AccountEntry{ServiceID: uint32(idB), Account: *acc}, 4 + n, nil
}
