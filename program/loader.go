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

// Package program decodes the "deblob" program format into the padded
// code/bitmask/jump-table triple the interpreter steps over, and implements
// Fskip and basic-block target validation.
package program

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/Esscrypt/peanutbutterandjam/codec"
	"github.com/Esscrypt/peanutbutterandjam/pvmcrypto"
)

// CodePadding is the number of zero bytes appended to the code array so
// operand fetch at the tail of code is always safe.
const CodePadding = 16

// BitmaskPadding is the number of one-bits appended to the bitmask so a run
// past the end of code halts cleanly.
const BitmaskPadding = 25

// MaxSkip is Fskip's upper bound.
const MaxSkip = 24

// Loaded is a decoded, padded program image ready for the interpreter.
type Loaded struct {
	Code      []byte // original code, padded by CodePadding zero bytes
	Bitmask   []bool // one entry per Code byte, padded by BitmaskPadding true bits
	JumpTable []uint32
	CodeLen   int // length of the original, unpadded code
}

// Decode decodes a raw deblob and pads it for safe tail fetches.
func Decode(blob []byte) (*Loaded, error) {
	pb, err := codec.DecodeProgramBlob(blob)
	if err != nil {
		return nil, fmt.Errorf("program: decode blob: %w", err)
	}
	code := make([]byte, len(pb.Code)+CodePadding)
	copy(code, pb.Code)

	bitmask := make([]bool, len(pb.Bitmask)+BitmaskPadding)
	copy(bitmask, pb.Bitmask)
	for i := len(pb.Bitmask); i < len(bitmask); i++ {
		bitmask[i] = true
	}

	return &Loaded{
		Code:      code,
		Bitmask:   bitmask,
		JumpTable: pb.JumpTable,
		CodeLen:   len(pb.Code),
	}, nil
}

// Fskip computes the operand length at code offset i: the instruction at i
// occupies 1+Fskip(i) bytes.
func (l *Loaded) Fskip(i int) int {
	limit := i + MaxSkip
	for j := i + 1; j <= limit; j++ {
		if j >= len(l.Bitmask) || l.Bitmask[j] {
			return j - i - 1
		}
	}
	return MaxSkip
}

// InstructionLength returns 1+Fskip(i).
func (l *Loaded) InstructionLength(i int) int {
	return 1 + l.Fskip(i)
}

// contentKey is the BLAKE2b-256 hash of the raw blob, used to key the
// shared valid-block-start cache.
func contentKey(blob []byte) pvmcrypto.Hash {
	return pvmcrypto.Sum256(blob)
}

// IsTerminator classifies an opcode byte as ending a basic block.
// Supplied by the caller (package isa owns the opcode
// table) so this package never depends on isa: only isa and interpreter
// depend on program, never the reverse.
type IsTerminator func(opcode byte) bool

// blockCache caches the set of valid basic-block starts per program,
// avoiding re-walking the whole code array on every branch/jump for large,
// repeatedly-invoked programs.
var blockCache, _ = lru.New(256)

// ValidBlockStarts returns the set of code offsets that are valid jump
// targets for l, computing it once per distinct blob and caching the result.
func ValidBlockStarts(blob []byte, l *Loaded, isTerminator IsTerminator) map[uint32]bool {
	key := contentKey(blob)
	if v, ok := blockCache.Get(key); ok {
		return v.(map[uint32]bool)
	}
	set := computeValidBlockStarts(l, isTerminator)
	blockCache.Add(key, set)
	return set
}

// computeValidBlockStarts walks the code from offset 0 and marks every
// offset reachable as a basic-block start: offset 0, and the offset
// immediately following any terminator instruction.
func computeValidBlockStarts(l *Loaded, isTerminator IsTerminator) map[uint32]bool {
	set := make(map[uint32]bool)
	if l.CodeLen > 0 && l.Bitmask[0] {
		set[0] = true
	}
	i := 0
	for i < l.CodeLen {
		length := l.InstructionLength(i)
		next := i + length
		if isTerminator(l.Code[i]) && next < l.CodeLen && l.Bitmask[next] {
			set[uint32(next)] = true
		}
		i = next
	}
	return set
}

// IsValidBlockStart reports whether t is a valid basic-block entry: within
// code bounds, bitmask-aligned, and either 0 or immediately following a
// terminator instruction.
func (l *Loaded) IsValidBlockStart(blob []byte, t uint32, isTerminator IsTerminator) bool {
	if int(t) >= l.CodeLen {
		return false
	}
	if !l.Bitmask[t] {
		return false
	}
	return ValidBlockStarts(blob, l, isTerminator)[t]
}
