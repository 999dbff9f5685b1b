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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Esscrypt/peanutbutterandjam/codec"
	"github.com/Esscrypt/peanutbutterandjam/isa"
	"github.com/Esscrypt/peanutbutterandjam/program"
	"github.com/Esscrypt/peanutbutterandjam/ram"
)

// asm builds a test program instruction by instruction, tracking the
// bitmask alongside the code bytes.
type asm struct {
	code    []byte
	bitmask []bool
	jt      []uint32
}

func (a *asm) emit(op isa.Opcode, operands ...byte) *asm {
	a.code = append(a.code, byte(op))
	a.bitmask = append(a.bitmask, true)
	a.code = append(a.code, operands...)
	for range operands {
		a.bitmask = append(a.bitmask, false)
	}
	return a
}

func (a *asm) machine(t *testing.T, gas uint64, hosts HostTable) *Machine {
	t.Helper()
	blob := (&codec.ProgramBlob{JumpTable: a.jt, Code: a.code, Bitmask: a.bitmask}).Encode()
	loaded, err := program.Decode(blob)
	require.NoError(t, err)
	r := ram.NewSimpleRAM()
	return New(loaded, blob, r, gas, hosts)
}

func TestTrapPanicsWithZeroExitArg(t *testing.T) {
	a := &asm{}
	a.emit(isa.TRAP)
	m := a.machine(t, 100, nil)
	Run(m, 0)
	require.Equal(t, StatusPanic, m.Status)
	require.Equal(t, uint64(0), m.ExitArg)
}

func TestRunPastEndHalts(t *testing.T) {
	a := &asm{}
	a.emit(isa.FALLTHROUGH)
	m := a.machine(t, 100, nil)
	Run(m, 0)
	require.Equal(t, StatusHalt, m.Status)
}

func TestEmptyProgramHaltsAtPCZero(t *testing.T) {
	a := &asm{}
	m := a.machine(t, 100, nil)
	Run(m, 0)
	require.Equal(t, StatusHalt, m.Status)
	require.Equal(t, uint32(0), m.PC)
}

func TestAddImm32(t *testing.T) {
	// ADD_IMM_32 r1, r0, 5; FALLTHROUGH.
	a := &asm{}
	a.emit(isa.ADD_IMM_32, 0x01, 5)
	a.emit(isa.FALLTHROUGH)
	m := a.machine(t, 100, nil)
	m.Regs.Set(0, 3)
	Run(m, 0)
	require.Equal(t, StatusHalt, m.Status)
	require.Equal(t, uint64(8), m.Regs.Get(1))
}

func TestAdd32SignExtendsResult(t *testing.T) {
	a := &asm{}
	a.emit(isa.ADD_32, 0x21, 0x03)
	m := a.machine(t, 100, nil)
	m.Regs.Set(1, 0xFFFF_FFFF)
	m.Regs.Set(2, 1)
	Run(m, 0)
	// 0xFFFFFFFF + 1 wraps to 0, sign-extended stays 0.
	require.Equal(t, uint64(0), m.Regs.Get(3))

	a = &asm{}
	a.emit(isa.ADD_32, 0x21, 0x03)
	m = a.machine(t, 100, nil)
	m.Regs.Set(1, 0x7FFF_FFFF)
	m.Regs.Set(2, 1)
	Run(m, 0)
	require.Equal(t, uint64(0xFFFF_FFFF_8000_0000), m.Regs.Get(3))
}

func TestDivisionEdgeCases(t *testing.T) {
	require.Equal(t, ^uint64(0), divU32(5, 0))
	require.Equal(t, ^uint64(0), divS64(5, 0))
	require.Equal(t, uint64(5), remU64(5, 0))
	require.Equal(t, sext32(0x8000_0000), divS32(0x8000_0000, 0xFFFF_FFFF))
	require.Equal(t, uint64(0), remS32(0x8000_0000, 0xFFFF_FFFF))
	require.Equal(t, uint64(1<<63), divS64(1<<63, ^uint64(0)))
	require.Equal(t, uint64(0), remS64(1<<63, ^uint64(0)))
	require.Equal(t, uint64(2), divU64(7, 3))
	require.Equal(t, uint64(0xFFFF_FFFF_FFFF_FFFE), uint64(int64(remS64(^uint64(6), 5))))
}

func TestCountSetBits32IgnoresUpperHalf(t *testing.T) {
	a := &asm{}
	a.emit(isa.COUNT_SET_BITS_32, 0x10) // dest r0, src r1
	m := a.machine(t, 100, nil)
	m.Regs.Set(1, 0xFFFF_FFFF_0000_000F)
	Run(m, 0)
	require.Equal(t, uint64(4), m.Regs.Get(0))
}

func TestBranchTakenValidatesTarget(t *testing.T) {
	// BRANCH_EQ_IMM r0, 0, +offset to next instruction (a valid block
	// start, since a branch terminates its block).
	a := &asm{}
	a.emit(isa.BRANCH_EQ_IMM, 0x10, 0, 4) // l_X=1 (high nibble), imm=0, offset=4
	a.emit(isa.TRAP)
	a.emit(isa.FALLTHROUGH)
	m := a.machine(t, 100, nil)
	Run(m, 0)
	// r0 == 0 so the branch is taken to offset 4, a valid block start
	// holding the TRAP, which panics.
	require.Equal(t, StatusPanic, m.Status)
}

func TestBranchSkipsTrap(t *testing.T) {
	// Instruction lengths: branch is 4 bytes (op + reg + imm + offset),
	// TRAP is 1. Branch to offset 5 skips the trap.
	a := &asm{}
	a.emit(isa.BRANCH_EQ_IMM, 0x10, 0, 5)
	a.emit(isa.TRAP)
	a.emit(isa.FALLTHROUGH)
	m := a.machine(t, 100, nil)
	Run(m, 0)
	require.Equal(t, StatusHalt, m.Status)
}

func TestBranchNotTakenFallsThrough(t *testing.T) {
	a := &asm{}
	a.emit(isa.BRANCH_EQ_IMM, 0x10, 7, 5)
	a.emit(isa.TRAP)
	m := a.machine(t, 100, nil)
	Run(m, 0)
	// r0 != 7: fall through into the TRAP.
	require.Equal(t, StatusPanic, m.Status)
}

func TestJumpToNonBlockStartPanics(t *testing.T) {
	a := &asm{}
	a.emit(isa.JUMP, 3) // offset 3 lands mid-instruction
	a.emit(isa.ADD_IMM_32, 0x01, 5)
	m := a.machine(t, 100, nil)
	Run(m, 0)
	require.Equal(t, StatusPanic, m.Status)
}

func TestJumpIndHaltAddress(t *testing.T) {
	a := &asm{}
	// JUMP_IND r0 + 0 where r0 = HALT_ADDRESS.
	a.emit(isa.JUMP_IND, 0x00)
	m := a.machine(t, 100, nil)
	m.Regs.Set(0, uint64(ram.HaltAddress))
	Run(m, 0)
	require.Equal(t, StatusHalt, m.Status)
}

func TestJumpIndThroughJumpTable(t *testing.T) {
	a := &asm{}
	a.jt = []uint32{2}         // entry 0 -> code offset 2
	a.emit(isa.JUMP_IND, 0x00) // 2-byte instruction, so offset 2 follows it
	a.emit(isa.FALLTHROUGH)
	m := a.machine(t, 100, nil)
	// a = 2 selects jump-table index a/2-1 = 0.
	m.Regs.Set(0, 2)
	Run(m, 0)
	require.Equal(t, StatusHalt, m.Status)
}

func TestJumpIndOddAddressPanics(t *testing.T) {
	a := &asm{}
	a.jt = []uint32{2}
	a.emit(isa.JUMP_IND, 0x00)
	a.emit(isa.FALLTHROUGH)
	m := a.machine(t, 100, nil)
	m.Regs.Set(0, 3)
	Run(m, 0)
	require.Equal(t, StatusPanic, m.Status)
}

func TestStoreBelowReservedZonePanics(t *testing.T) {
	a := &asm{}
	a.emit(isa.STORE_U8, 0x00, 0x10) // address 16 < ZONE_SIZE
	m := a.machine(t, 100, nil)
	Run(m, 0)
	require.Equal(t, StatusPanic, m.Status)
}

func TestStoreToUnmappedPageFaultsWithPageBase(t *testing.T) {
	a := &asm{}
	// STORE_U8 r0 at 0x20001 (past the reserved zone, unmapped).
	a.emit(isa.STORE_U8, 0x00, 0x01, 0x00, 0x02)
	m := a.machine(t, 100, nil)
	Run(m, 0)
	require.Equal(t, StatusFault, m.Status)
	require.Equal(t, uint64(0x20000), m.ExitArg)
}

func TestLoadStoreRoundTrip(t *testing.T) {
	a := &asm{}
	a.emit(isa.STORE_U32, 0x01, 0x00, 0x00, 0x02) // store r1 at 0x20000
	a.emit(isa.LOAD_U32, 0x02, 0x00, 0x00, 0x02)  // load r2 from 0x20000
	m := a.machine(t, 100, nil)
	require.NoError(t, m.RAM.InitPage(0x20000, ram.PageSize, ram.Write))
	m.Regs.Set(1, 0xDEADBEEF)
	Run(m, 0)
	require.Equal(t, StatusHalt, m.Status)
	require.Equal(t, uint64(0xDEADBEEF), m.Regs.Get(2))
	require.Equal(t, uint32(0x20000), m.RAM.LastLoadAddress())
	require.Equal(t, uint32(0x20000), m.RAM.LastStoreAddress())
}

func TestLoadSignExtends(t *testing.T) {
	a := &asm{}
	a.emit(isa.STORE_U8, 0x01, 0x00, 0x00, 0x02)
	a.emit(isa.LOAD_I8, 0x02, 0x00, 0x00, 0x02)
	a.emit(isa.LOAD_U8, 0x03, 0x00, 0x00, 0x02)
	m := a.machine(t, 100, nil)
	require.NoError(t, m.RAM.InitPage(0x20000, ram.PageSize, ram.Write))
	m.Regs.Set(1, 0x80)
	Run(m, 0)
	require.Equal(t, uint64(0xFFFF_FFFF_FFFF_FF80), m.Regs.Get(2))
	require.Equal(t, uint64(0x80), m.Regs.Get(3))
}

func TestGasExhaustion(t *testing.T) {
	a := &asm{}
	a.emit(isa.FALLTHROUGH)
	a.emit(isa.FALLTHROUGH)
	a.emit(isa.FALLTHROUGH)
	m := a.machine(t, 2, nil)
	Run(m, 0)
	require.Equal(t, StatusOutOfGas, m.Status)
	require.Equal(t, uint64(0), m.Gas)
}

func TestGasMonotonicity(t *testing.T) {
	a := &asm{}
	for i := 0; i < 10; i++ {
		a.emit(isa.FALLTHROUGH)
	}
	m := a.machine(t, 100, nil)
	prev := m.Gas
	for !m.Status.Terminal() {
		m.Step()
		require.LessOrEqual(t, m.Gas, prev)
		prev = m.Gas
	}
}

func TestEcalliUnknownHostSetsWhat(t *testing.T) {
	a := &asm{}
	a.emit(isa.ECALLI, 42)
	a.emit(isa.FALLTHROUGH)
	m := a.machine(t, 100, HostTable{})
	Run(m, 0)
	require.Equal(t, StatusHalt, m.Status)
	require.Equal(t, RegWhat, m.Regs.Get(ResultRegister))
}

func TestEcalliDispatchesAndDeductsBaseGas(t *testing.T) {
	a := &asm{}
	a.emit(isa.ECALLI, 7)
	a.emit(isa.FALLTHROUGH)
	called := false
	hosts := HostTable{
		7: func(m *Machine) Outcome {
			called = true
			m.Regs.Set(ResultRegister, RegOK)
			return Continue()
		},
	}
	m := a.machine(t, 100, hosts)
	Run(m, 0)
	require.True(t, called)
	require.Equal(t, StatusHalt, m.Status)
	// 2 instruction steps + 10 base host gas.
	require.Equal(t, uint64(100-2-10), m.Gas)
}

func TestCmovAndComparisons(t *testing.T) {
	a := &asm{}
	a.emit(isa.SET_LT_U, 0x21, 0x03) // r3 = r1 < r2
	a.emit(isa.CMOV_IZ, 0x41, 0x05)  // if r4 == 0: r5 = r1
	m := a.machine(t, 100, nil)
	m.Regs.Set(1, 3)
	m.Regs.Set(2, 5)
	Run(m, 0)
	require.Equal(t, uint64(1), m.Regs.Get(3))
	require.Equal(t, uint64(3), m.Regs.Get(5))
}

func TestMulUpper(t *testing.T) {
	require.Equal(t, uint64(0), mulhu(2, 3))
	require.Equal(t, uint64(1), mulhu(1<<32, 1<<32))
	// (-1) * (-1) = 1 -> upper 0.
	require.Equal(t, uint64(0), mulhs(^uint64(0), ^uint64(0)))
	// (-1) * 2 = -2 -> upper all-ones.
	require.Equal(t, ^uint64(0), mulhs(^uint64(0), 2))
	require.Equal(t, ^uint64(0), mulhsu(^uint64(0), 2))
}

func TestSbrkReturnsPreviousPointerAndAllocates(t *testing.T) {
	a := &asm{}
	a.emit(isa.SBRK, 0x10) // r0 = sbrk(r1)
	m := a.machine(t, 100, nil)
	m.RAM.SetHeapPointer(0x30000)
	m.Regs.Set(1, 100)
	Run(m, 0)
	require.Equal(t, StatusHalt, m.Status)
	require.Equal(t, uint64(0x30000), m.Regs.Get(0))
	require.True(t, m.RAM.IsWritable(0x30000, 100))
	require.Equal(t, uint32(0x30000+100), m.RAM.HeapPointer())
}

func TestSbrkZeroQueriesHeapPointer(t *testing.T) {
	a := &asm{}
	a.emit(isa.SBRK, 0x10)
	m := a.machine(t, 100, nil)
	m.RAM.SetHeapPointer(0x12345)
	Run(m, 0)
	require.Equal(t, uint64(0x12345), m.Regs.Get(0))
}

func TestLoadImmJumpIndAliasedRegister(t *testing.T) {
	a := &asm{}
	// LOAD_IMM_JUMP_IND r0 = 99 then djump(r0 + 0): the target must be
	// resolved from r0's old value, which is HALT_ADDRESS.
	a.emit(isa.LOAD_IMM_JUMP_IND, 0x00, 0x01, 99)
	m := a.machine(t, 100, nil)
	m.Regs.Set(0, uint64(ram.HaltAddress))
	Run(m, 0)
	require.Equal(t, StatusHalt, m.Status)
	require.Equal(t, uint64(99), m.Regs.Get(0))
}

func TestShiftRotateSemantics(t *testing.T) {
	a := &asm{}
	a.emit(isa.SHLO_L_IMM_32, 0x12, 4) // r2 = r1 << 4 (32-bit)
	a.emit(isa.SHAR_R_IMM_64, 0x13, 1) // r3 = r1 >> 1 arithmetic
	a.emit(isa.ROT_R_IMM_64, 0x14, 8)  // r4 = ror64(r1, 8)
	m := a.machine(t, 100, nil)
	m.Regs.Set(1, 0x8000_0000_0000_0001)
	Run(m, 0)
	require.Equal(t, uint64(0x10), m.Regs.Get(2))
	require.Equal(t, uint64(0xC000_0000_0000_0000), m.Regs.Get(3))
	require.Equal(t, uint64(0x0180_0000_0000_0000), m.Regs.Get(4))
}

func TestRegisterOps(t *testing.T) {
	a := &asm{}
	a.emit(isa.SIGN_EXTEND_8, 0x12)  // r2 = sext8(r1)
	a.emit(isa.ZERO_EXTEND_16, 0x13) // r3 = zext16(r1)
	a.emit(isa.REVERSE_BYTES, 0x14)  // r4 = bswap(r1)
	m := a.machine(t, 100, nil)
	m.Regs.Set(1, 0x1122_3344_5566_FF80)
	Run(m, 0)
	require.Equal(t, uint64(0xFFFF_FFFF_FFFF_FF80), m.Regs.Get(2))
	require.Equal(t, uint64(0xFF80), m.Regs.Get(3))
	require.Equal(t, uint64(0x80FF_6655_4433_2211), m.Regs.Get(4))
}

func TestTracerRecordsSteps(t *testing.T) {
	a := &asm{}
	a.emit(isa.ADD_IMM_32, 0x01, 5)
	a.emit(isa.FALLTHROUGH)
	m := a.machine(t, 100, nil)
	tr := &Tracer{}
	tr.Run(m, 0)
	require.Equal(t, StatusHalt, m.Status)
	require.Len(t, tr.Records, 2)
	require.Equal(t, isa.ADD_IMM_32, tr.Records[0].Opcode)
	require.Equal(t, uint32(0), tr.Records[0].PC)
	require.Equal(t, isa.FALLTHROUGH, tr.Records[1].Opcode)

	var buf strings.Builder
	tr.Dump(&buf, m)
	require.Contains(t, buf.String(), "ADD_IMM_32")
	require.Contains(t, buf.String(), "status=Halt")
}

func TestTracerLimitKeepsTail(t *testing.T) {
	a := &asm{}
	for i := 0; i < 6; i++ {
		a.emit(isa.FALLTHROUGH)
	}
	m := a.machine(t, 100, nil)
	tr := &Tracer{Limit: 3}
	tr.Run(m, 0)
	require.Len(t, tr.Records, 3)
	require.Equal(t, uint64(4), tr.Records[0].Step)
	require.Equal(t, uint64(6), tr.Records[2].Step)
}
