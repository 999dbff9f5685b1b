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

package interpreter

import (
	"errors"
	"math/bits"

	"github.com/holiman/uint256"

	"github.com/Esscrypt/peanutbutterandjam/isa"
	"github.com/Esscrypt/peanutbutterandjam/ram"
)

// handler executes one decoded instruction against the machine.
type handler func(m *Machine, d isa.Decoded) Outcome

// handlers is a dense dispatch table over the opcode byte.
var handlers [isa.Count]handler

// Execute runs the handler for op. Callers must have validated op.
func Execute(m *Machine, op isa.Opcode, d isa.Decoded) Outcome {
	fn := handlers[op]
	if fn == nil {
		return Panic()
	}
	return fn(m, d)
}

// sext32 sign-extends the low 32 bits of v to 64, the result rule shared by
// every 32-bit instruction.
func sext32(v uint32) uint64 {
	return uint64(int64(int32(v)))
}

func boolTo01(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// faultOutcome converts a RAM access error into the Fault outcome carrying
// the offending page base.
func faultOutcome(err error) Outcome {
	var fe *ram.FaultError
	if errors.As(err, &fe) {
		return Fault(fe.FaultAddress)
	}
	return Panic()
}

// djump resolves an indirect jump target a: HALT_ADDRESS halts; otherwise
// a must be non-zero, even, and name an in-range jump-table
// entry that is itself a valid basic-block start.
func djump(m *Machine, a uint32) Outcome {
	if a == ram.HaltAddress {
		return Halt()
	}
	if a == 0 || a%2 != 0 {
		return Panic()
	}
	idx := a/2 - 1
	if int(idx) >= len(m.Loaded.JumpTable) {
		return Panic()
	}
	target := m.Loaded.JumpTable[idx]
	if !m.ValidBlockStart(target) {
		return Panic()
	}
	return Jump(target)
}

// branchTo validates a PC-relative target and jumps, panicking on an invalid
// basic-block entry.
func branchTo(m *Machine, offset int64) Outcome {
	target := uint32(int64(m.PC) + offset)
	if !m.ValidBlockStart(target) {
		return Panic()
	}
	return Jump(target)
}

// loadN reads size bytes at addr into RegA, optionally sign-extending.
func loadN(m *Machine, reg int, addr uint32, size uint32, signed bool) Outcome {
	data, err := m.RAM.ReadOctets(addr, size)
	if err != nil {
		return faultOutcome(err)
	}
	var v uint64
	for i := uint32(0); i < size; i++ {
		v |= uint64(data[i]) << (8 * i)
	}
	if signed {
		shift := uint(64 - 8*size)
		v = uint64(int64(v<<shift) >> shift)
	}
	m.Regs.Set(reg, v)
	return Continue()
}

// storeN writes the low size bytes of v at addr. Stores below the reserved
// zone are a program-logic panic; protection violations above it fault with
// the page base.
func storeN(m *Machine, addr uint32, v uint64, size uint32) Outcome {
	if addr < ram.ReservedMemoryEnd {
		return Panic()
	}
	buf := make([]byte, size)
	for i := uint32(0); i < size; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	if err := m.RAM.WriteOctets(addr, buf); err != nil {
		return faultOutcome(err)
	}
	return Continue()
}

// mulhu returns the upper 64 bits of the unsigned 128-bit product a*b.
func mulhu(a, b uint64) uint64 {
	var x, y, z uint256.Int
	x.SetUint64(a)
	y.SetUint64(b)
	z.Mul(&x, &y)
	return z[1]
}

// mulhs / mulhsu derive the signed upper halves from the unsigned one via
// the usual two's-complement correction terms.
func mulhs(a, b uint64) uint64 {
	h := mulhu(a, b)
	if int64(a) < 0 {
		h -= b
	}
	if int64(b) < 0 {
		h -= a
	}
	return h
}

func mulhsu(a, b uint64) uint64 {
	h := mulhu(a, b)
	if int64(a) < 0 {
		h -= b
	}
	return h
}

func init() {
	reg := func(op isa.Opcode, fn handler) { handlers[op] = fn }

	// Control flow.
	reg(isa.TRAP, func(m *Machine, d isa.Decoded) Outcome { return Panic() })
	reg(isa.FALLTHROUGH, func(m *Machine, d isa.Decoded) Outcome { return Continue() })
	reg(isa.JUMP, func(m *Machine, d isa.Decoded) Outcome {
		return branchTo(m, d.Offset)
	})
	reg(isa.JUMP_IND, func(m *Machine, d isa.Decoded) Outcome {
		a := uint32(m.Regs.Get(d.RegA) + uint64(d.ImmX))
		return djump(m, a)
	})
	reg(isa.LOAD_IMM_JUMP, func(m *Machine, d isa.Decoded) Outcome {
		m.Regs.Set(d.RegA, uint64(d.ImmX))
		return branchTo(m, d.ImmY)
	})
	reg(isa.LOAD_IMM_JUMP_IND, func(m *Machine, d isa.Decoded) Outcome {
		// Resolve the target before the load: RegA may alias RegB.
		a := uint32(m.Regs.Get(d.RegB) + uint64(d.ImmY))
		m.Regs.Set(d.RegA, uint64(d.ImmX))
		return djump(m, a)
	})
	reg(isa.ECALLI, func(m *Machine, d isa.Decoded) Outcome {
		return Suspend(uint64(d.ImmX))
	})

	// 32-bit arithmetic, register-register.
	alu32 := func(op isa.Opcode, fn func(a, b uint32) uint64) {
		reg(op, func(m *Machine, d isa.Decoded) Outcome {
			a := uint32(m.Regs.Get(d.RegA))
			b := uint32(m.Regs.Get(d.RegB))
			m.Regs.Set(d.RegD, fn(a, b))
			return Continue()
		})
	}
	alu32(isa.ADD_32, func(a, b uint32) uint64 { return sext32(a + b) })
	alu32(isa.SUB_32, func(a, b uint32) uint64 { return sext32(a - b) })
	alu32(isa.MUL_32, func(a, b uint32) uint64 { return sext32(a * b) })
	alu32(isa.DIV_U_32, divU32)
	alu32(isa.DIV_S_32, divS32)
	alu32(isa.REM_U_32, remU32)
	alu32(isa.REM_S_32, remS32)

	// 64-bit arithmetic, register-register.
	alu64 := func(op isa.Opcode, fn func(a, b uint64) uint64) {
		reg(op, func(m *Machine, d isa.Decoded) Outcome {
			m.Regs.Set(d.RegD, fn(m.Regs.Get(d.RegA), m.Regs.Get(d.RegB)))
			return Continue()
		})
	}
	alu64(isa.ADD_64, func(a, b uint64) uint64 { return a + b })
	alu64(isa.SUB_64, func(a, b uint64) uint64 { return a - b })
	alu64(isa.MUL_64, func(a, b uint64) uint64 { return a * b })
	alu64(isa.DIV_U_64, divU64)
	alu64(isa.DIV_S_64, divS64)
	alu64(isa.REM_U_64, remU64)
	alu64(isa.REM_S_64, remS64)

	// Immediate arithmetic: RegA' = RegB op ImmX.
	aluImm32 := func(op isa.Opcode, fn func(b, x uint32) uint64) {
		reg(op, func(m *Machine, d isa.Decoded) Outcome {
			b := uint32(m.Regs.Get(d.RegB))
			m.Regs.Set(d.RegA, fn(b, uint32(d.ImmX)))
			return Continue()
		})
	}
	aluImm32(isa.ADD_IMM_32, func(b, x uint32) uint64 { return sext32(b + x) })
	aluImm32(isa.SUB_IMM_32, func(b, x uint32) uint64 { return sext32(b - x) })
	aluImm32(isa.MUL_IMM_32, func(b, x uint32) uint64 { return sext32(b * x) })
	aluImm32(isa.DIV_U_IMM_32, func(b, x uint32) uint64 { return divU32(b, x) })
	aluImm32(isa.DIV_S_IMM_32, func(b, x uint32) uint64 { return divS32(b, x) })
	aluImm32(isa.REM_U_IMM_32, func(b, x uint32) uint64 { return remU32(b, x) })
	aluImm32(isa.REM_S_IMM_32, func(b, x uint32) uint64 { return remS32(b, x) })
	aluImm32(isa.NEG_ADD_IMM_32, func(b, x uint32) uint64 { return sext32(x - b) })

	aluImm64 := func(op isa.Opcode, fn func(b, x uint64) uint64) {
		reg(op, func(m *Machine, d isa.Decoded) Outcome {
			m.Regs.Set(d.RegA, fn(m.Regs.Get(d.RegB), uint64(d.ImmX)))
			return Continue()
		})
	}
	aluImm64(isa.ADD_IMM_64, func(b, x uint64) uint64 { return b + x })
	aluImm64(isa.SUB_IMM_64, func(b, x uint64) uint64 { return b - x })
	aluImm64(isa.MUL_IMM_64, func(b, x uint64) uint64 { return b * x })
	aluImm64(isa.DIV_U_IMM_64, divU64)
	aluImm64(isa.DIV_S_IMM_64, divS64)
	aluImm64(isa.REM_U_IMM_64, remU64)
	aluImm64(isa.REM_S_IMM_64, remS64)
	aluImm64(isa.NEG_ADD_IMM_64, func(b, x uint64) uint64 { return x - b })

	// Bitwise.
	alu64(isa.AND, func(a, b uint64) uint64 { return a & b })
	alu64(isa.OR, func(a, b uint64) uint64 { return a | b })
	alu64(isa.XOR, func(a, b uint64) uint64 { return a ^ b })
	alu64(isa.AND_INV, func(a, b uint64) uint64 { return a &^ b })
	alu64(isa.OR_INV, func(a, b uint64) uint64 { return a | ^b })
	alu64(isa.XNOR, func(a, b uint64) uint64 { return ^(a ^ b) })
	aluImm64(isa.AND_IMM, func(b, x uint64) uint64 { return b & x })
	aluImm64(isa.OR_IMM, func(b, x uint64) uint64 { return b | x })
	aluImm64(isa.XOR_IMM, func(b, x uint64) uint64 { return b ^ x })

	// Shifts and rotations, register-register: value in RegA, amount in RegB.
	alu32(isa.SHLO_L_32, func(a, b uint32) uint64 { return sext32(a << (b % 32)) })
	alu32(isa.SHLO_R_32, func(a, b uint32) uint64 { return sext32(a >> (b % 32)) })
	alu32(isa.SHAR_R_32, func(a, b uint32) uint64 { return uint64(int64(int32(a)) >> (b % 32)) })
	alu64(isa.SHLO_L_64, func(a, b uint64) uint64 { return a << (b % 64) })
	alu64(isa.SHLO_R_64, func(a, b uint64) uint64 { return a >> (b % 64) })
	alu64(isa.SHAR_R_64, func(a, b uint64) uint64 { return uint64(int64(a) >> (b % 64)) })
	alu32(isa.ROT_L_32, func(a, b uint32) uint64 { return sext32(bits.RotateLeft32(a, int(b%32))) })
	alu32(isa.ROT_R_32, func(a, b uint32) uint64 { return sext32(bits.RotateLeft32(a, -int(b%32))) })
	alu64(isa.ROT_L_64, func(a, b uint64) uint64 { return bits.RotateLeft64(a, int(b%64)) })
	alu64(isa.ROT_R_64, func(a, b uint64) uint64 { return bits.RotateLeft64(a, -int(b%64)) })

	// Shift/rotate immediates: value in RegB, amount in ImmX.
	aluImm32(isa.SHLO_L_IMM_32, func(b, x uint32) uint64 { return sext32(b << (x % 32)) })
	aluImm32(isa.SHLO_R_IMM_32, func(b, x uint32) uint64 { return sext32(b >> (x % 32)) })
	aluImm32(isa.SHAR_R_IMM_32, func(b, x uint32) uint64 { return uint64(int64(int32(b)) >> (x % 32)) })
	aluImm64(isa.SHLO_L_IMM_64, func(b, x uint64) uint64 { return b << (x % 64) })
	aluImm64(isa.SHLO_R_IMM_64, func(b, x uint64) uint64 { return b >> (x % 64) })
	aluImm64(isa.SHAR_R_IMM_64, func(b, x uint64) uint64 { return uint64(int64(b) >> (x % 64)) })
	aluImm32(isa.ROT_L_IMM_32, func(b, x uint32) uint64 { return sext32(bits.RotateLeft32(b, int(x%32))) })
	aluImm32(isa.ROT_R_IMM_32, func(b, x uint32) uint64 { return sext32(bits.RotateLeft32(b, -int(x%32))) })
	aluImm64(isa.ROT_L_IMM_64, func(b, x uint64) uint64 { return bits.RotateLeft64(b, int(x%64)) })
	aluImm64(isa.ROT_R_IMM_64, func(b, x uint64) uint64 { return bits.RotateLeft64(b, -int(x%64)) })

	// Alt variants swap the roles: value in ImmX, amount in RegB.
	aluImm32(isa.SHLO_L_IMM_ALT_32, func(b, x uint32) uint64 { return sext32(x << (b % 32)) })
	aluImm32(isa.SHLO_R_IMM_ALT_32, func(b, x uint32) uint64 { return sext32(x >> (b % 32)) })
	aluImm32(isa.SHAR_R_IMM_ALT_32, func(b, x uint32) uint64 { return uint64(int64(int32(x)) >> (b % 32)) })
	aluImm64(isa.SHLO_L_IMM_ALT_64, func(b, x uint64) uint64 { return x << (b % 64) })
	aluImm64(isa.SHLO_R_IMM_ALT_64, func(b, x uint64) uint64 { return x >> (b % 64) })
	aluImm64(isa.SHAR_R_IMM_ALT_64, func(b, x uint64) uint64 { return uint64(int64(x) >> (b % 64)) })
	aluImm32(isa.ROT_R_IMM_ALT_32, func(b, x uint32) uint64 { return sext32(bits.RotateLeft32(x, -int(b%32))) })
	aluImm64(isa.ROT_R_IMM_ALT_64, func(b, x uint64) uint64 { return bits.RotateLeft64(x, -int(b%64)) })

	// Comparisons.
	alu64(isa.SET_LT_U, func(a, b uint64) uint64 { return boolTo01(a < b) })
	alu64(isa.SET_LT_S, func(a, b uint64) uint64 { return boolTo01(int64(a) < int64(b)) })
	alu64(isa.SET_GT_U, func(a, b uint64) uint64 { return boolTo01(a > b) })
	alu64(isa.SET_GT_S, func(a, b uint64) uint64 { return boolTo01(int64(a) > int64(b)) })
	aluImm64(isa.SET_LT_U_IMM, func(b, x uint64) uint64 { return boolTo01(b < x) })
	aluImm64(isa.SET_LT_S_IMM, func(b, x uint64) uint64 { return boolTo01(int64(b) < int64(x)) })
	aluImm64(isa.SET_GT_U_IMM, func(b, x uint64) uint64 { return boolTo01(b > x) })
	aluImm64(isa.SET_GT_S_IMM, func(b, x uint64) uint64 { return boolTo01(int64(b) > int64(x)) })

	// Conditional moves: RegD' = RegA when RegB meets the condition.
	reg(isa.CMOV_IZ, func(m *Machine, d isa.Decoded) Outcome {
		if m.Regs.Get(d.RegB) == 0 {
			m.Regs.Set(d.RegD, m.Regs.Get(d.RegA))
		}
		return Continue()
	})
	reg(isa.CMOV_NZ, func(m *Machine, d isa.Decoded) Outcome {
		if m.Regs.Get(d.RegB) != 0 {
			m.Regs.Set(d.RegD, m.Regs.Get(d.RegA))
		}
		return Continue()
	})
	reg(isa.CMOV_IZ_IMM, func(m *Machine, d isa.Decoded) Outcome {
		if m.Regs.Get(d.RegB) == 0 {
			m.Regs.Set(d.RegA, uint64(d.ImmX))
		}
		return Continue()
	})
	reg(isa.CMOV_NZ_IMM, func(m *Machine, d isa.Decoded) Outcome {
		if m.Regs.Get(d.RegB) != 0 {
			m.Regs.Set(d.RegA, uint64(d.ImmX))
		}
		return Continue()
	})

	// Branches, register-register: offset in ImmX.
	branch := func(op isa.Opcode, cond func(a, b uint64) bool) {
		reg(op, func(m *Machine, d isa.Decoded) Outcome {
			if cond(m.Regs.Get(d.RegA), m.Regs.Get(d.RegB)) {
				return branchTo(m, d.ImmX)
			}
			return Continue()
		})
	}
	branch(isa.BRANCH_EQ, func(a, b uint64) bool { return a == b })
	branch(isa.BRANCH_NE, func(a, b uint64) bool { return a != b })
	branch(isa.BRANCH_LT_U, func(a, b uint64) bool { return a < b })
	branch(isa.BRANCH_LT_S, func(a, b uint64) bool { return int64(a) < int64(b) })
	branch(isa.BRANCH_GE_U, func(a, b uint64) bool { return a >= b })
	branch(isa.BRANCH_GE_S, func(a, b uint64) bool { return int64(a) >= int64(b) })

	// Branches, register-immediate: comparison value in ImmX, offset in ImmY.
	branchImm := func(op isa.Opcode, cond func(a, x uint64) bool) {
		reg(op, func(m *Machine, d isa.Decoded) Outcome {
			if cond(m.Regs.Get(d.RegA), uint64(d.ImmX)) {
				return branchTo(m, d.ImmY)
			}
			return Continue()
		})
	}
	branchImm(isa.BRANCH_EQ_IMM, func(a, x uint64) bool { return a == x })
	branchImm(isa.BRANCH_NE_IMM, func(a, x uint64) bool { return a != x })
	branchImm(isa.BRANCH_LT_U_IMM, func(a, x uint64) bool { return a < x })
	branchImm(isa.BRANCH_LT_S_IMM, func(a, x uint64) bool { return int64(a) < int64(x) })
	branchImm(isa.BRANCH_LE_U_IMM, func(a, x uint64) bool { return a <= x })
	branchImm(isa.BRANCH_LE_S_IMM, func(a, x uint64) bool { return int64(a) <= int64(x) })
	branchImm(isa.BRANCH_GE_U_IMM, func(a, x uint64) bool { return a >= x })
	branchImm(isa.BRANCH_GE_S_IMM, func(a, x uint64) bool { return int64(a) >= int64(x) })
	branchImm(isa.BRANCH_GT_U_IMM, func(a, x uint64) bool { return a > x })
	branchImm(isa.BRANCH_GT_S_IMM, func(a, x uint64) bool { return int64(a) > int64(x) })

	// Immediate loads.
	reg(isa.LOAD_IMM, func(m *Machine, d isa.Decoded) Outcome {
		m.Regs.Set(d.RegA, uint64(d.ImmX))
		return Continue()
	})
	reg(isa.LOAD_IMM_64, func(m *Machine, d isa.Decoded) Outcome {
		m.Regs.Set(d.RegA, uint64(d.ImmX))
		return Continue()
	})

	// Memory loads, absolute address in ImmX.
	loadAbs := func(op isa.Opcode, size uint32, signed bool) {
		reg(op, func(m *Machine, d isa.Decoded) Outcome {
			return loadN(m, d.RegA, uint32(uint64(d.ImmX)), size, signed)
		})
	}
	loadAbs(isa.LOAD_U8, 1, false)
	loadAbs(isa.LOAD_I8, 1, true)
	loadAbs(isa.LOAD_U16, 2, false)
	loadAbs(isa.LOAD_I16, 2, true)
	loadAbs(isa.LOAD_U32, 4, false)
	loadAbs(isa.LOAD_I32, 4, true)
	loadAbs(isa.LOAD_U64, 8, false)

	// Memory loads, RegB + ImmX.
	loadInd := func(op isa.Opcode, size uint32, signed bool) {
		reg(op, func(m *Machine, d isa.Decoded) Outcome {
			addr := uint32(m.Regs.Get(d.RegB) + uint64(d.ImmX))
			return loadN(m, d.RegA, addr, size, signed)
		})
	}
	loadInd(isa.LOAD_U8_IND, 1, false)
	loadInd(isa.LOAD_I8_IND, 1, true)
	loadInd(isa.LOAD_U16_IND, 2, false)
	loadInd(isa.LOAD_I16_IND, 2, true)
	loadInd(isa.LOAD_U32_IND, 4, false)
	loadInd(isa.LOAD_I32_IND, 4, true)
	loadInd(isa.LOAD_U64_IND, 8, false)

	// Memory stores, absolute address in ImmX, value in RegA.
	storeAbs := func(op isa.Opcode, size uint32) {
		reg(op, func(m *Machine, d isa.Decoded) Outcome {
			return storeN(m, uint32(uint64(d.ImmX)), m.Regs.Get(d.RegA), size)
		})
	}
	storeAbs(isa.STORE_U8, 1)
	storeAbs(isa.STORE_U16, 2)
	storeAbs(isa.STORE_U32, 4)
	storeAbs(isa.STORE_U64, 8)

	// Memory stores, RegB + ImmX, value in RegA.
	storeInd := func(op isa.Opcode, size uint32) {
		reg(op, func(m *Machine, d isa.Decoded) Outcome {
			addr := uint32(m.Regs.Get(d.RegB) + uint64(d.ImmX))
			return storeN(m, addr, m.Regs.Get(d.RegA), size)
		})
	}
	storeInd(isa.STORE_U8_IND, 1)
	storeInd(isa.STORE_U16_IND, 2)
	storeInd(isa.STORE_U32_IND, 4)
	storeInd(isa.STORE_U64_IND, 8)

	reg(isa.SBRK, func(m *Machine, d isa.Decoded) Outcome {
		size := m.Regs.Get(d.RegA)
		prev := m.RAM.HeapPointer()
		if size == 0 {
			m.Regs.Set(d.RegD, uint64(prev))
			return Continue()
		}
		end := uint64(prev) + size
		if end > ram.MaxAddress {
			end = ram.MaxAddress
		}
		startPage := prev / ram.PageSize
		endPage := (uint32(end) + ram.PageSize - 1) / ram.PageSize
		if endPage > startPage {
			if err := m.RAM.AllocatePages(startPage, endPage-startPage); err != nil {
				return faultOutcome(err)
			}
		}
		m.RAM.SetHeapPointer(uint32(end))
		m.Regs.Set(d.RegD, uint64(prev))
		return Continue()
	})

	// Register manipulation: RegD' = f(RegA).
	unary := func(op isa.Opcode, fn func(a uint64) uint64) {
		reg(op, func(m *Machine, d isa.Decoded) Outcome {
			m.Regs.Set(d.RegD, fn(m.Regs.Get(d.RegA)))
			return Continue()
		})
	}
	unary(isa.MOVE_REG, func(a uint64) uint64 { return a })
	unary(isa.COUNT_SET_BITS_32, func(a uint64) uint64 { return uint64(bits.OnesCount32(uint32(a))) })
	unary(isa.COUNT_SET_BITS_64, func(a uint64) uint64 { return uint64(bits.OnesCount64(a)) })
	unary(isa.LEADING_ZERO_BITS_32, func(a uint64) uint64 { return uint64(bits.LeadingZeros32(uint32(a))) })
	unary(isa.LEADING_ZERO_BITS_64, func(a uint64) uint64 { return uint64(bits.LeadingZeros64(a)) })
	unary(isa.TRAILING_ZERO_BITS_32, func(a uint64) uint64 { return uint64(bits.TrailingZeros32(uint32(a))) })
	unary(isa.TRAILING_ZERO_BITS_64, func(a uint64) uint64 { return uint64(bits.TrailingZeros64(a)) })
	unary(isa.SIGN_EXTEND_8, func(a uint64) uint64 { return uint64(int64(int8(a))) })
	unary(isa.SIGN_EXTEND_16, func(a uint64) uint64 { return uint64(int64(int16(a))) })
	unary(isa.ZERO_EXTEND_16, func(a uint64) uint64 { return uint64(uint16(a)) })
	unary(isa.REVERSE_BYTES, bits.ReverseBytes64)

	alu64(isa.MAX, func(a, b uint64) uint64 {
		if int64(a) > int64(b) {
			return a
		}
		return b
	})
	alu64(isa.MAX_U, func(a, b uint64) uint64 {
		if a > b {
			return a
		}
		return b
	})
	alu64(isa.MIN, func(a, b uint64) uint64 {
		if int64(a) < int64(b) {
			return a
		}
		return b
	})
	alu64(isa.MIN_U, func(a, b uint64) uint64 {
		if a < b {
			return a
		}
		return b
	})
	alu64(isa.MUL_UPPER_S_S, mulhs)
	alu64(isa.MUL_UPPER_U_U, mulhu)
	alu64(isa.MUL_UPPER_S_U, mulhsu)
}

// Division and remainder follow RISC-V-style wrap semantics: divide-by-zero yields all-ones, INT_MIN/-1 wraps to
// the dividend, remainder of zero divisor is the dividend.
func divU32(a, b uint32) uint64 {
	if b == 0 {
		return ^uint64(0)
	}
	return sext32(a / b)
}

func divS32(a, b uint32) uint64 {
	if b == 0 {
		return ^uint64(0)
	}
	sa, sb := int32(a), int32(b)
	if sa == -1<<31 && sb == -1 {
		return sext32(a)
	}
	return uint64(int64(sa / sb))
}

func remU32(a, b uint32) uint64 {
	if b == 0 {
		return sext32(a)
	}
	return sext32(a % b)
}

func remS32(a, b uint32) uint64 {
	if b == 0 {
		return sext32(a)
	}
	sa, sb := int32(a), int32(b)
	if sa == -1<<31 && sb == -1 {
		return 0
	}
	return uint64(int64(sa % sb))
}

func divU64(a, b uint64) uint64 {
	if b == 0 {
		return ^uint64(0)
	}
	return a / b
}

func divS64(a, b uint64) uint64 {
	if b == 0 {
		return ^uint64(0)
	}
	sa, sb := int64(a), int64(b)
	if sa == -1<<63 && sb == -1 {
		return a
	}
	return uint64(sa / sb)
}

func remU64(a, b uint64) uint64 {
	if b == 0 {
		return a
	}
	return a % b
}

func remS64(a, b uint64) uint64 {
	if b == 0 {
		return a
	}
	sa, sb := int64(a), int64(b)
	if sa == -1<<63 && sb == -1 {
		return 0
	}
	return uint64(sa % sb)
}
