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
)

// HostBaseGas is the flat cost deducted before a host handler runs.
const HostBaseGas = 10

// Step executes exactly one instruction and updates m.Status. Callers
// should stop calling Step once m.Status.Terminal() is true.
func (m *Machine) Step() {
	if m.Status.Terminal() {
		return
	}
	i := int(m.PC)
	// Running off the end of the code is a clean halt: the bitmask padding
	// guarantees the tail parses, and a run past the end must halt rather
	// than trap.
	if i < 0 || i >= m.Loaded.CodeLen {
		m.Status = StatusHalt
		return
	}
	if !m.deductGas(1) {
		m.Status = StatusOutOfGas
		return
	}
	opByte := m.Loaded.Code[i]
	m.LastOpcode = opByte
	op := isa.Opcode(opByte)
	if !op.Valid() {
		m.Status = StatusPanic
		return
	}

	skip := m.Loaded.Fskip(i)
	operands := isa.Decode(op, m.Loaded.Code, i, skip)
	length := uint32(1 + skip)

	out := Execute(m, op, operands)

	if out.Status == StatusHostSuspension {
		out = m.dispatchHost(out.ExitArg)
	}

	m.steps++

	switch out.Status {
	case StatusOk:
		if out.Advance {
			m.PC += length
		} else {
			m.PC = out.NextPC
		}
	default:
		m.Status = out.Status
		m.ExitArg = out.ExitArg
	}
}

// dispatchHost deducts the host base cost and invokes the handler for
// callID. An id with no registered handler writes WHAT to the result
// register and resumes: sentinel codes never terminate the invocation on
// their own.
func (m *Machine) dispatchHost(callID uint64) Outcome {
	if !m.deductGas(HostBaseGas) {
		return Outcome{Status: StatusOutOfGas}
	}
	if m.Hosts != nil {
		if fn, ok := m.Hosts[callID]; ok {
			return fn(m)
		}
	}
	m.Regs.Set(ResultRegister, RegWhat)
	return Continue()
}

// Run steps the machine until it reaches a terminal status or maxSteps
// instructions have executed (0 meaning unbounded), and returns the final
// status.
func Run(m *Machine, maxSteps uint64) Status {
	for !m.Status.Terminal() {
		if maxSteps != 0 && m.steps >= maxSteps {
			break
		}
		m.Step()
	}
	return m.Status
}
