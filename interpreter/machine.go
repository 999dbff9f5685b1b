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
	"github.com/Esscrypt/peanutbutterandjam/isa"
	"github.com/Esscrypt/peanutbutterandjam/program"
	"github.com/Esscrypt/peanutbutterandjam/ram"
)

// HostFunc handles one ECALLI-dispatched host call id. It receives the
// machine so it can read/write registers, RAM and gas; it returns the
// continuation Outcome. Implementations live in package
// host; this package only needs the function shape to route ECALLI, which
// keeps interpreter free of any dependency on host (host depends on
// interpreter, not the reverse).
type HostFunc func(m *Machine) Outcome

// HostTable maps a host call id to its handler. An id with no entry yields
// WHAT at the ABI level; dispatchHost writes it to the result register.
type HostTable map[uint64]HostFunc

// Machine is one PVM invocation: registers, PC, gas, RAM and the decoded
// program it steps over.
type Machine struct {
	Regs   Registers
	PC     uint32
	Gas    uint64
	Status Status

	LastOpcode byte
	ExitArg    uint64

	YieldHash *[32]byte

	RAM    ram.RAM
	Loaded *program.Loaded
	Blob   []byte // raw deblob, used as the basic-block-cache key
	Hosts  HostTable

	steps uint64
}

// New constructs a Machine ready to run loaded at PC 0 with the given gas
// budget and RAM. hosts may be nil if the program never issues ECALLI.
func New(loaded *program.Loaded, blob []byte, r ram.RAM, gas uint64, hosts HostTable) *Machine {
	return &Machine{
		Loaded: loaded,
		Blob:   blob,
		RAM:    r,
		Gas:    gas,
		Hosts:  hosts,
		Status: StatusOk,
	}
}

// deductGas saturating-subtracts cost from the gas counter; if it would go
// negative, gas is pinned at zero and the caller should treat this as
// OutOfGas.
func (m *Machine) deductGas(cost uint64) bool {
	if m.Gas < cost {
		m.Gas = 0
		return false
	}
	m.Gas -= cost
	return true
}

// DeductGas saturating-subtracts cost from the gas counter, for host
// functions with costs beyond the flat base (TRANSFER's caller-provided gas
// limit). Returns false if the budget was exhausted.
func (m *Machine) DeductGas(cost uint64) bool {
	return m.deductGas(cost)
}

// Steps returns the number of instructions executed so far.
func (m *Machine) Steps() uint64 { return m.steps }

// terminatorSet adapts isa's terminator classification to the
// program.IsTerminator callback shape expected by ValidBlockStarts.
var terminatorSet program.IsTerminator = isa.IsTerminatorByte

// ValidBlockStart reports whether t is a legal jump/branch target.
func (m *Machine) ValidBlockStart(t uint32) bool {
	return m.Loaded.IsValidBlockStart(m.Blob, t, terminatorSet)
}
