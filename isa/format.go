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

package isa

// Format identifies one of the instruction operand layouts. Every opcode
// has exactly one format; Decode uses it to know which bytes to read out of
// the code stream following the opcode byte.
//
// Two layouts are refinements the operand-length rule alone cannot express:
// FormatOneImm (ECALLI carries only the host-call id) and FormatOneRegImm64
// (LOAD_IMM_64's immediate is a full 8 little-endian octets, not clamped to
// 4 like every other immediate).
type Format int

const (
	FormatNone Format = iota
	FormatOneImm
	FormatTwoReg
	FormatThreeReg
	FormatOneRegImm
	FormatOneRegImm64
	FormatTwoRegImm
	FormatOneRegTwoImm
	FormatTwoRegTwoImm
	FormatOneOffset
)

// FormatOf returns op's operand format, or FormatNone if op is unrecognized.
func FormatOf(op Opcode) Format {
	if f, ok := formats[op]; ok {
		return f
	}
	return FormatNone
}

var formats = buildFormatTable()

func buildFormatTable() map[Opcode]Format {
	m := make(map[Opcode]Format, opcodeCount)

	m[TRAP] = FormatNone
	m[FALLTHROUGH] = FormatNone

	m[JUMP] = FormatOneOffset
	// JUMP_IND jumps to (RegA + ImmX) mod 2^32 via the jump table.
	m[JUMP_IND] = FormatOneRegImm
	// LOAD_IMM_JUMP sets RegA = ImmX then jumps to PC + ImmY.
	m[LOAD_IMM_JUMP] = FormatOneRegTwoImm
	// LOAD_IMM_JUMP_IND sets RegA = ImmX then jumps to (RegB + ImmY) mod 2^32.
	m[LOAD_IMM_JUMP_IND] = FormatTwoRegTwoImm
	m[ECALLI] = FormatOneImm

	// RegA is the destination, RegB the source operand, ImmX the immediate.
	twoRegImm := []Opcode{
		ADD_IMM_32, SUB_IMM_32, MUL_IMM_32, DIV_U_IMM_32, DIV_S_IMM_32, REM_U_IMM_32, REM_S_IMM_32, NEG_ADD_IMM_32,
		ADD_IMM_64, SUB_IMM_64, MUL_IMM_64, DIV_U_IMM_64, DIV_S_IMM_64, REM_U_IMM_64, REM_S_IMM_64, NEG_ADD_IMM_64,
		AND_IMM, OR_IMM, XOR_IMM,
		SHLO_L_IMM_32, SHLO_R_IMM_32, SHAR_R_IMM_32, SHLO_L_IMM_64, SHLO_R_IMM_64, SHAR_R_IMM_64,
		ROT_L_IMM_32, ROT_R_IMM_32, ROT_L_IMM_64, ROT_R_IMM_64,
		SHLO_L_IMM_ALT_32, SHLO_R_IMM_ALT_32, SHAR_R_IMM_ALT_32,
		SHLO_L_IMM_ALT_64, SHLO_R_IMM_ALT_64, SHAR_R_IMM_ALT_64,
		ROT_R_IMM_ALT_32, ROT_R_IMM_ALT_64,
		SET_LT_U_IMM, SET_LT_S_IMM, SET_GT_U_IMM, SET_GT_S_IMM,
		CMOV_IZ_IMM, CMOV_NZ_IMM,
		LOAD_U8_IND, LOAD_I8_IND, LOAD_U16_IND, LOAD_I16_IND, LOAD_U32_IND, LOAD_I32_IND, LOAD_U64_IND,
		STORE_U8_IND, STORE_U16_IND, STORE_U32_IND, STORE_U64_IND,
		// Register-register branches: ImmX is the relative branch offset.
		BRANCH_EQ, BRANCH_NE, BRANCH_LT_U, BRANCH_LT_S, BRANCH_GE_U, BRANCH_GE_S,
	}
	for _, op := range twoRegImm {
		m[op] = FormatTwoRegImm
	}

	// Register-immediate branches: ImmX is the comparison value, ImmY the
	// relative branch offset.
	oneRegTwoImm := []Opcode{
		BRANCH_EQ_IMM, BRANCH_NE_IMM, BRANCH_LT_U_IMM, BRANCH_LT_S_IMM,
		BRANCH_LE_U_IMM, BRANCH_LE_S_IMM, BRANCH_GE_U_IMM, BRANCH_GE_S_IMM,
		BRANCH_GT_U_IMM, BRANCH_GT_S_IMM,
	}
	for _, op := range oneRegTwoImm {
		m[op] = FormatOneRegTwoImm
	}

	oneRegImm := []Opcode{
		LOAD_IMM,
		LOAD_U8, LOAD_I8, LOAD_U16, LOAD_I16, LOAD_U32, LOAD_I32, LOAD_U64,
		STORE_U8, STORE_U16, STORE_U32, STORE_U64,
	}
	for _, op := range oneRegImm {
		m[op] = FormatOneRegImm
	}
	m[LOAD_IMM_64] = FormatOneRegImm64

	threeReg := []Opcode{
		ADD_32, SUB_32, MUL_32, DIV_U_32, DIV_S_32, REM_U_32, REM_S_32,
		ADD_64, SUB_64, MUL_64, DIV_U_64, DIV_S_64, REM_U_64, REM_S_64,
		AND, OR, XOR, AND_INV, OR_INV, XNOR,
		SHLO_L_32, SHLO_R_32, SHAR_R_32, SHLO_L_64, SHLO_R_64, SHAR_R_64,
		ROT_L_32, ROT_R_32, ROT_L_64, ROT_R_64,
		SET_LT_U, SET_LT_S, SET_GT_U, SET_GT_S,
		CMOV_IZ, CMOV_NZ,
		MAX, MAX_U, MIN, MIN_U,
		MUL_UPPER_S_S, MUL_UPPER_U_U, MUL_UPPER_S_U,
	}
	for _, op := range threeReg {
		m[op] = FormatThreeReg
	}

	twoReg := []Opcode{
		MOVE_REG, SBRK,
		COUNT_SET_BITS_32, COUNT_SET_BITS_64,
		LEADING_ZERO_BITS_32, LEADING_ZERO_BITS_64,
		TRAILING_ZERO_BITS_32, TRAILING_ZERO_BITS_64,
		SIGN_EXTEND_8, SIGN_EXTEND_16, ZERO_EXTEND_16, REVERSE_BYTES,
	}
	for _, op := range twoReg {
		m[op] = FormatTwoReg
	}

	return m
}

// clampReg clamps a 4-bit register field to the valid [0,12] range.
func clampReg(v byte) int {
	r := int(v & 0x0F)
	if r > 12 {
		return 12
	}
	return r
}

func clampLen(v int) int {
	if v < 0 {
		return 0
	}
	if v > 4 {
		return 4
	}
	return v
}

func leLoad(code []byte, off, n int) uint64 {
	var v uint64
	for j := 0; j < n; j++ {
		v |= uint64(code[off+j]) << (8 * uint(j))
	}
	return v
}

func signExtend(v uint64, nbytes int) int64 {
	if nbytes == 0 {
		return 0
	}
	shift := uint(64 - 8*nbytes)
	return int64(v<<shift) >> shift
}

// Decoded holds the operand values extracted from an instruction, in a
// form-agnostic shape: callers read only the fields their opcode's format
// populates.
type Decoded struct {
	RegD, RegA, RegB int
	ImmX, ImmY       int64
	Offset           int64
}

// Decode reads the operands for the instruction at code offset i, given
// skip = Fskip(i) (the operand byte count).
func Decode(op Opcode, code []byte, i int, skip int) Decoded {
	var d Decoded
	switch FormatOf(op) {
	case FormatNone:

	case FormatOneImm:
		lx := clampLen(skip)
		d.ImmX = signExtend(leLoad(code, i+1, lx), lx)

	case FormatTwoReg:
		b0 := code[i+1]
		d.RegD = clampReg(b0)
		d.RegA = clampReg(b0 >> 4)

	case FormatThreeReg:
		b0 := code[i+1]
		d.RegA = clampReg(b0)
		d.RegB = clampReg(b0 >> 4)
		if skip >= 2 {
			d.RegD = clampReg(code[i+2])
		}

	case FormatOneRegImm:
		d.RegA = clampReg(code[i+1])
		lx := clampLen(skip - 1)
		d.ImmX = signExtend(leLoad(code, i+2, lx), lx)

	case FormatOneRegImm64:
		d.RegA = clampReg(code[i+1])
		d.ImmX = int64(leLoad(code, i+2, 8))

	case FormatTwoRegImm:
		b0 := code[i+1]
		d.RegA = clampReg(b0)
		d.RegB = clampReg(b0 >> 4)
		lx := clampLen(skip - 1)
		d.ImmX = signExtend(leLoad(code, i+2, lx), lx)

	case FormatOneRegTwoImm:
		b0 := code[i+1]
		d.RegA = clampReg(b0)
		lx := clampLen(int(b0>>4) & 7)
		ly := clampLen(skip - lx - 1)
		d.ImmX = signExtend(leLoad(code, i+2, lx), lx)
		d.ImmY = signExtend(leLoad(code, i+2+lx, ly), ly)

	case FormatTwoRegTwoImm:
		b0 := code[i+1]
		d.RegA = clampReg(b0)
		d.RegB = clampReg(b0 >> 4)
		b1 := code[i+2]
		lx := clampLen(int(b1) & 7)
		ly := clampLen(skip - lx - 2)
		d.ImmX = signExtend(leLoad(code, i+3, lx), lx)
		d.ImmY = signExtend(leLoad(code, i+3+lx, ly), ly)

	case FormatOneOffset:
		lx := clampLen(skip)
		d.Offset = signExtend(leLoad(code, i+1, lx), lx)
	}
	return d
}
