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
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"

	"github.com/Esscrypt/peanutbutterandjam/isa"
)

// StepRecord is one observed step for trace output.
type StepRecord struct {
	Step   uint64
	PC     uint32
	Opcode isa.Opcode
	Gas    uint64

	LastLoadAddress  uint32
	LastLoadValue    uint64
	LastStoreAddress uint32
	LastStoreValue   uint64
}

// Tracer collects per-step records while driving a machine. It exists for
// debugging and the CLI's verbose mode; the plain Run loop carries no
// tracing overhead.
type Tracer struct {
	Records []StepRecord
	// Limit caps the number of retained records; zero keeps everything.
	Limit int
}

// Step executes one machine step and records what it observed. Steps that
// execute no instruction (the clean halt past the end of code) leave no
// record.
func (tr *Tracer) Step(m *Machine) {
	pc := m.PC
	gasBefore := m.Gas
	stepsBefore := m.Steps()
	m.Step()
	if m.Steps() == stepsBefore {
		return
	}
	rec := StepRecord{
		Step:             m.Steps(),
		PC:               pc,
		Opcode:           isa.Opcode(m.LastOpcode),
		Gas:              gasBefore,
		LastLoadAddress:  m.RAM.LastLoadAddress(),
		LastLoadValue:    m.RAM.LastLoadValue(),
		LastStoreAddress: m.RAM.LastStoreAddress(),
		LastStoreValue:   m.RAM.LastStoreValue(),
	}
	if tr.Limit > 0 && len(tr.Records) >= tr.Limit {
		copy(tr.Records, tr.Records[1:])
		tr.Records[len(tr.Records)-1] = rec
		return
	}
	tr.Records = append(tr.Records, rec)
}

// Run drives m to a terminal status (or maxSteps), tracing every step.
func (tr *Tracer) Run(m *Machine, maxSteps uint64) Status {
	for !m.Status.Terminal() {
		if maxSteps != 0 && m.Steps() >= maxSteps {
			break
		}
		tr.Step(m)
	}
	return m.Status
}

// Dump writes the collected records and the final register file to w.
func (tr *Tracer) Dump(w io.Writer, m *Machine) {
	for _, r := range tr.Records {
		fmt.Fprintf(w, "%6d  pc=%-8d %-20s gas=%d", r.Step, r.PC, r.Opcode, r.Gas)
		if r.LastStoreAddress != 0 {
			fmt.Fprintf(w, "  store[%#x]=%d", r.LastStoreAddress, r.LastStoreValue)
		}
		if r.LastLoadAddress != 0 {
			fmt.Fprintf(w, "  load[%#x]=%d", r.LastLoadAddress, r.LastLoadValue)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "status=%s exitArg=%d gas=%d\n", m.Status, m.ExitArg, m.Gas)
	spew.Fdump(w, m.Regs)
}
