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

package program

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Esscrypt/peanutbutterandjam/codec"
)

// stubTerminator treats opcode 0 (TRAP) and 10 (an arbitrary stand-in, not
// isa.JUMP's value) as block terminators; it stands in for isa.IsTerminator so this
// package's tests don't need to import isa.
func stubTerminator(op byte) bool {
	return op == 0 || op == 10
}

func TestDecodePadsCodeAndBitmask(t *testing.T) {
	pb := &codec.ProgramBlob{
		JumpTable: nil,
		Code:      []byte{1, 2, 3},
		Bitmask:   []bool{true, false, false},
	}
	l, err := Decode(pb.Encode())
	require.NoError(t, err)
	require.Equal(t, 3, l.CodeLen)
	require.Len(t, l.Code, 3+CodePadding)
	require.Len(t, l.Bitmask, 3+BitmaskPadding)
	for i := 3; i < len(l.Bitmask); i++ {
		require.True(t, l.Bitmask[i], "padding bit %d must be set", i)
	}
}

func TestEmptyBlobDecodes(t *testing.T) {
	l, err := Decode([]byte{0x00, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	require.Equal(t, 0, l.CodeLen)
}

func TestFskipStopsAtNextBitmaskBit(t *testing.T) {
	pb := &codec.ProgramBlob{
		Code:    []byte{1, 2, 3, 4, 5},
		Bitmask: []bool{true, false, false, true, false},
	}
	l, err := Decode(pb.Encode())
	require.NoError(t, err)
	require.Equal(t, 2, l.Fskip(0))
	require.Equal(t, 1, l.Fskip(3))
}

func TestFskipCapsAtMaxSkip(t *testing.T) {
	code := make([]byte, MaxSkip+10)
	bitmask := make([]bool, len(code))
	bitmask[0] = true
	pb := &codec.ProgramBlob{Code: code, Bitmask: bitmask}
	l, err := Decode(pb.Encode())
	require.NoError(t, err)
	require.Equal(t, MaxSkip, l.Fskip(0))
}

func TestValidBlockStartsIncludesOffsetZero(t *testing.T) {
	pb := &codec.ProgramBlob{
		Code:    []byte{0, 1, 2},
		Bitmask: []bool{true, true, true},
	}
	blob := pb.Encode()
	l, err := Decode(blob)
	require.NoError(t, err)
	starts := ValidBlockStarts(blob, l, stubTerminator)
	require.True(t, starts[0])
}

func TestValidBlockStartsFollowsTerminator(t *testing.T) {
	pb := &codec.ProgramBlob{
		// offset 0: opcode 0 (terminator), no operand -> next block at 1
		// offset 1: opcode 1 (non-terminator)
		// offset 2: opcode 10 (terminator) -> next block at 3
		// offset 3: opcode 1
		Code:    []byte{0, 1, 10, 1},
		Bitmask: []bool{true, true, true, true},
	}
	blob := pb.Encode()
	l, err := Decode(blob)
	require.NoError(t, err)
	starts := ValidBlockStarts(blob, l, stubTerminator)
	require.True(t, starts[0])
	require.True(t, starts[1])
	require.True(t, starts[3])
	require.False(t, starts[2])
}

func TestIsValidBlockStartRejectsOutOfBounds(t *testing.T) {
	pb := &codec.ProgramBlob{
		Code:    []byte{0, 1},
		Bitmask: []bool{true, true},
	}
	blob := pb.Encode()
	l, err := Decode(blob)
	require.NoError(t, err)
	require.False(t, l.IsValidBlockStart(blob, 99, stubTerminator))
}
