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

import "fmt"

var names = map[Opcode]string{
	TRAP:              "TRAP",
	FALLTHROUGH:       "FALLTHROUGH",
	JUMP:              "JUMP",
	JUMP_IND:          "JUMP_IND",
	LOAD_IMM_JUMP:     "LOAD_IMM_JUMP",
	LOAD_IMM_JUMP_IND: "LOAD_IMM_JUMP_IND",
	ECALLI:            "ECALLI",

	ADD_32:   "ADD_32",
	SUB_32:   "SUB_32",
	MUL_32:   "MUL_32",
	DIV_U_32: "DIV_U_32",
	DIV_S_32: "DIV_S_32",
	REM_U_32: "REM_U_32",
	REM_S_32: "REM_S_32",

	ADD_64:   "ADD_64",
	SUB_64:   "SUB_64",
	MUL_64:   "MUL_64",
	DIV_U_64: "DIV_U_64",
	DIV_S_64: "DIV_S_64",
	REM_U_64: "REM_U_64",
	REM_S_64: "REM_S_64",

	ADD_IMM_32:     "ADD_IMM_32",
	SUB_IMM_32:     "SUB_IMM_32",
	MUL_IMM_32:     "MUL_IMM_32",
	DIV_U_IMM_32:   "DIV_U_IMM_32",
	DIV_S_IMM_32:   "DIV_S_IMM_32",
	REM_U_IMM_32:   "REM_U_IMM_32",
	REM_S_IMM_32:   "REM_S_IMM_32",
	NEG_ADD_IMM_32: "NEG_ADD_IMM_32",

	ADD_IMM_64:     "ADD_IMM_64",
	SUB_IMM_64:     "SUB_IMM_64",
	MUL_IMM_64:     "MUL_IMM_64",
	DIV_U_IMM_64:   "DIV_U_IMM_64",
	DIV_S_IMM_64:   "DIV_S_IMM_64",
	REM_U_IMM_64:   "REM_U_IMM_64",
	REM_S_IMM_64:   "REM_S_IMM_64",
	NEG_ADD_IMM_64: "NEG_ADD_IMM_64",

	AND:     "AND",
	OR:      "OR",
	XOR:     "XOR",
	AND_INV: "AND_INV",
	OR_INV:  "OR_INV",
	XNOR:    "XNOR",

	AND_IMM: "AND_IMM",
	OR_IMM:  "OR_IMM",
	XOR_IMM: "XOR_IMM",

	SHLO_L_32: "SHLO_L_32",
	SHLO_R_32: "SHLO_R_32",
	SHAR_R_32: "SHAR_R_32",
	SHLO_L_64: "SHLO_L_64",
	SHLO_R_64: "SHLO_R_64",
	SHAR_R_64: "SHAR_R_64",
	ROT_L_32:  "ROT_L_32",
	ROT_R_32:  "ROT_R_32",
	ROT_L_64:  "ROT_L_64",
	ROT_R_64:  "ROT_R_64",

	SHLO_L_IMM_32: "SHLO_L_IMM_32",
	SHLO_R_IMM_32: "SHLO_R_IMM_32",
	SHAR_R_IMM_32: "SHAR_R_IMM_32",
	SHLO_L_IMM_64: "SHLO_L_IMM_64",
	SHLO_R_IMM_64: "SHLO_R_IMM_64",
	SHAR_R_IMM_64: "SHAR_R_IMM_64",
	ROT_L_IMM_32:  "ROT_L_IMM_32",
	ROT_R_IMM_32:  "ROT_R_IMM_32",
	ROT_L_IMM_64:  "ROT_L_IMM_64",
	ROT_R_IMM_64:  "ROT_R_IMM_64",

	SHLO_L_IMM_ALT_32: "SHLO_L_IMM_ALT_32",
	SHLO_R_IMM_ALT_32: "SHLO_R_IMM_ALT_32",
	SHAR_R_IMM_ALT_32: "SHAR_R_IMM_ALT_32",
	SHLO_L_IMM_ALT_64: "SHLO_L_IMM_ALT_64",
	SHLO_R_IMM_ALT_64: "SHLO_R_IMM_ALT_64",
	SHAR_R_IMM_ALT_64: "SHAR_R_IMM_ALT_64",
	ROT_R_IMM_ALT_32:  "ROT_R_IMM_ALT_32",
	ROT_R_IMM_ALT_64:  "ROT_R_IMM_ALT_64",

	SET_LT_U: "SET_LT_U",
	SET_LT_S: "SET_LT_S",
	SET_GT_U: "SET_GT_U",
	SET_GT_S: "SET_GT_S",

	SET_LT_U_IMM: "SET_LT_U_IMM",
	SET_LT_S_IMM: "SET_LT_S_IMM",
	SET_GT_U_IMM: "SET_GT_U_IMM",
	SET_GT_S_IMM: "SET_GT_S_IMM",

	CMOV_IZ:     "CMOV_IZ",
	CMOV_NZ:     "CMOV_NZ",
	CMOV_IZ_IMM: "CMOV_IZ_IMM",
	CMOV_NZ_IMM: "CMOV_NZ_IMM",

	BRANCH_EQ:   "BRANCH_EQ",
	BRANCH_NE:   "BRANCH_NE",
	BRANCH_LT_U: "BRANCH_LT_U",
	BRANCH_LT_S: "BRANCH_LT_S",
	BRANCH_GE_U: "BRANCH_GE_U",
	BRANCH_GE_S: "BRANCH_GE_S",

	BRANCH_EQ_IMM:   "BRANCH_EQ_IMM",
	BRANCH_NE_IMM:   "BRANCH_NE_IMM",
	BRANCH_LT_U_IMM: "BRANCH_LT_U_IMM",
	BRANCH_LT_S_IMM: "BRANCH_LT_S_IMM",
	BRANCH_LE_U_IMM: "BRANCH_LE_U_IMM",
	BRANCH_LE_S_IMM: "BRANCH_LE_S_IMM",
	BRANCH_GE_U_IMM: "BRANCH_GE_U_IMM",
	BRANCH_GE_S_IMM: "BRANCH_GE_S_IMM",
	BRANCH_GT_U_IMM: "BRANCH_GT_U_IMM",
	BRANCH_GT_S_IMM: "BRANCH_GT_S_IMM",

	LOAD_IMM:    "LOAD_IMM",
	LOAD_IMM_64: "LOAD_IMM_64",

	LOAD_U8:  "LOAD_U8",
	LOAD_I8:  "LOAD_I8",
	LOAD_U16: "LOAD_U16",
	LOAD_I16: "LOAD_I16",
	LOAD_U32: "LOAD_U32",
	LOAD_I32: "LOAD_I32",
	LOAD_U64: "LOAD_U64",

	LOAD_U8_IND:  "LOAD_U8_IND",
	LOAD_I8_IND:  "LOAD_I8_IND",
	LOAD_U16_IND: "LOAD_U16_IND",
	LOAD_I16_IND: "LOAD_I16_IND",
	LOAD_U32_IND: "LOAD_U32_IND",
	LOAD_I32_IND: "LOAD_I32_IND",
	LOAD_U64_IND: "LOAD_U64_IND",

	STORE_U8:  "STORE_U8",
	STORE_U16: "STORE_U16",
	STORE_U32: "STORE_U32",
	STORE_U64: "STORE_U64",

	STORE_U8_IND:  "STORE_U8_IND",
	STORE_U16_IND: "STORE_U16_IND",
	STORE_U32_IND: "STORE_U32_IND",
	STORE_U64_IND: "STORE_U64_IND",

	SBRK: "SBRK",

	MOVE_REG:              "MOVE_REG",
	COUNT_SET_BITS_32:     "COUNT_SET_BITS_32",
	COUNT_SET_BITS_64:     "COUNT_SET_BITS_64",
	LEADING_ZERO_BITS_32:  "LEADING_ZERO_BITS_32",
	LEADING_ZERO_BITS_64:  "LEADING_ZERO_BITS_64",
	TRAILING_ZERO_BITS_32: "TRAILING_ZERO_BITS_32",
	TRAILING_ZERO_BITS_64: "TRAILING_ZERO_BITS_64",
	SIGN_EXTEND_8:         "SIGN_EXTEND_8",
	SIGN_EXTEND_16:        "SIGN_EXTEND_16",
	ZERO_EXTEND_16:        "ZERO_EXTEND_16",
	REVERSE_BYTES:         "REVERSE_BYTES",
	MAX:                   "MAX",
	MAX_U:                 "MAX_U",
	MIN:                   "MIN",
	MIN_U:                 "MIN_U",
	MUL_UPPER_S_S:         "MUL_UPPER_S_S",
	MUL_UPPER_U_U:         "MUL_UPPER_U_U",
	MUL_UPPER_S_U:         "MUL_UPPER_S_U",
}

// String returns op's mnemonic, or a hex form for undefined bytes.
func (op Opcode) String() string {
	if s, ok := names[op]; ok {
		return s
	}
	return fmt.Sprintf("OP_%02X", byte(op))
}
