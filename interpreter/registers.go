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

// Package interpreter implements the PVM step/run loop over a decoded
// program, paged RAM, and a 13-register file. It owns
// execution; package isa only supplies opcode numbering and operand
// decoding, package program only supplies the padded code/bitmask.
package interpreter

// NumRegisters is the register-file width.
const NumRegisters = 13

// Registers is the VM's general-purpose register file, r0..r12.
type Registers [NumRegisters]uint64

// Get returns register idx, clamping idx into range defensively (decoded
// register indices are already clamped by package isa, but callers that
// build indices by hand, e.g. tests, get the same safety net).
func (r *Registers) Get(idx int) uint64 {
	if idx < 0 {
		idx = 0
	}
	if idx >= NumRegisters {
		idx = NumRegisters - 1
	}
	return r[idx]
}

func (r *Registers) Set(idx int, v uint64) {
	if idx < 0 || idx >= NumRegisters {
		return
	}
	r[idx] = v
}
