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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNaturalRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 191, 192, 223, 224, 16383, 16384,
		1 << 20, 1 << 27, 1 << 34, 1 << 41, 1 << 48, (1 << 56) - 1, 1 << 56,
		1<<63 - 1, ^uint64(0)}
	for _, v := range cases {
		enc := EncodeNatural(v)
		require.LessOrEqual(t, len(enc), 9)
		require.GreaterOrEqual(t, len(enc), 1)
		got, n, err := DecodeNatural(enc)
		require.NoError(t, err)
		require.Equal(t, len(enc), n)
		require.Equal(t, v, got)
	}
}

func TestNaturalZeroIsSingleByte(t *testing.T) {
	require.Equal(t, []byte{0x00}, EncodeNatural(0))
}

func TestNaturalLargeValuesUse9Octets(t *testing.T) {
	enc := EncodeNatural(1 << 56)
	require.Len(t, enc, 9)
	require.Equal(t, byte(0xFF), enc[0])
}

func TestNaturalTruncated(t *testing.T) {
	_, _, err := DecodeNatural(nil)
	require.ErrorIs(t, err, ErrTruncated)

	_, _, err = DecodeNatural([]byte{0xFF, 1, 2})
	require.ErrorIs(t, err, ErrTruncated)

	_, _, err = DecodeNatural([]byte{192})
	require.ErrorIs(t, err, ErrTruncated)
}

func TestFixedWraps(t *testing.T) {
	enc := EncodeFixed(1<<32, 4)
	v, err := DecodeFixed(enc, 4)
	require.NoError(t, err)
	require.Equal(t, uint64(0), v)
}

func TestVarTermRoundTrip(t *testing.T) {
	for _, b := range [][]byte{nil, {}, []byte("k"), []byte("hello world"), make([]byte, 500)} {
		enc := EncodeVarTerm(b)
		got, n, err := DecodeVarTerm(enc)
		require.NoError(t, err)
		require.Equal(t, len(enc), n)
		// nil and {} share one encoding; both decode to a non-nil empty slice.
		want := b
		if want == nil {
			want = []byte{}
		}
		require.Equal(t, want, got)
	}
}

func TestVarSeqRoundTrip(t *testing.T) {
	elems := [][]byte{[]byte("a"), []byte("bb"), []byte("ccc")}
	enc := EncodeVarSeq(len(elems), func(i int) []byte { return EncodeVarTerm(elems[i]) })
	var got [][]byte
	n, err := DecodeVarSeq(enc, func(b []byte, i int) (int, error) {
		e, c, err := DecodeVarTerm(b)
		if err != nil {
			return 0, err
		}
		got = append(got, e)
		return c, nil
	})
	require.NoError(t, err)
	require.Equal(t, len(enc), n)
	require.Equal(t, elems, got)
}

func TestDeferredTransferRoundTrip(t *testing.T) {
	tr := DeferredTransfer{Source: 1, Dest: 2, Amount: 200, GasLimit: 10}
	copy(tr.Memo[:], "hello")
	enc := tr.Encode()
	require.Len(t, enc, 4+4+8+128+8)
	got, n, err := DecodeDeferredTransfer(enc)
	require.NoError(t, err)
	require.Equal(t, len(enc), n)
	require.Equal(t, tr, *got)
}

func TestCompleteServiceAccountRoundTrip(t *testing.T) {
	a := CompleteServiceAccount{
		KeyVals:    []RawKeyValue{{Key: []byte("k1"), Value: []byte("v1")}, {Key: []byte("k2"), Value: []byte("v2")}},
		Octets:     84,
		Items:      2,
		Gratis:     0,
		Balance:    250,
		MinAccGas:  10,
		MinMemoGas: 5,
		Created:    7,
		LastAcc:    8,
		Parent:     1,
	}
	enc := a.Encode()
	got, n, err := DecodeCompleteServiceAccount(enc)
	require.NoError(t, err)
	require.Equal(t, len(enc), n)
	require.Equal(t, a, *got)
}

func TestImplicationsPairRoundTrip(t *testing.T) {
	hash := [32]byte{1, 2, 3}
	pair := ImplicationsPair{
		Regular: Implications{
			ServiceID: 65536,
			State: PartialState{
				Manager:      1,
				Assigners:    []uint32{2, 3},
				Delegator:    4,
				Registrar:    5,
				AlwaysAccers: []AlwaysAccerEntry{{ServiceID: 6, Gas: 1000}},
				AuthQueue:    []CoreAuthQueue{{{1}, {2}}},
				StagingSet:   []ValidatorKey{{}},
				Accounts: []AccountEntry{
					{ServiceID: 65536, Account: CompleteServiceAccount{Balance: 100}},
					{ServiceID: 65537, Account: CompleteServiceAccount{Balance: 200}},
				},
			},
			NextFreeID: 65538,
			Transfers:  []DeferredTransfer{{Source: 1, Dest: 2, Amount: 5}},
			YieldHash:  &hash,
			Provisions: []ProvisionEntry{{ServiceID: 1, Blob: []byte("p")}},
		},
		Exceptional: Implications{ServiceID: 1},
	}
	enc := pair.Encode()
	got, n, err := DecodeImplicationsPair(enc)
	require.NoError(t, err)
	require.Equal(t, len(enc), n)
	require.Equal(t, pair, *got)
}

func TestProgramBlobRoundTrip(t *testing.T) {
	pb := ProgramBlob{
		JumpTable: []uint32{0, 4},
		Code:      []byte{0x00, 0x01, 0x02, 0x03, 0x04},
		Bitmask:   []bool{true, false, true, false, true},
	}
	enc := pb.Encode()
	got, err := DecodeProgramBlob(enc)
	require.NoError(t, err)
	require.Equal(t, pb, *got)
}

func TestEmptyProgramBlobDecodesToHaltingProgram(t *testing.T) {
	got, err := DecodeProgramBlob([]byte{0x00, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	require.Empty(t, got.JumpTable)
	require.Empty(t, got.Code)
	require.Empty(t, got.Bitmask)
}

func TestProgramImageRoundTrip(t *testing.T) {
	img := ProgramImage{
		ReadOnly:        []byte("readonly"),
		ReadWrite:       []byte("readwrite"),
		HeapZeroPadding: 4096,
		StackSize:       8192,
		Code:            []byte{0x00},
	}
	enc := img.Encode()
	got, err := DecodeProgramImage(enc)
	require.NoError(t, err)
	require.Equal(t, img, *got)
}

func TestPreimageRoundTrip(t *testing.T) {
	p := Preimage{Meta: []byte("meta"), CodeBlob: []byte{1, 2, 3}}
	enc := p.Encode()
	got, err := DecodePreimage(enc)
	require.NoError(t, err)
	require.Equal(t, p, *got)
}
