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

// Status is the machine's execution status.
type Status int

const (
	// StatusOk is the running state; the interpreter keeps stepping.
	StatusOk Status = iota
	StatusHalt
	StatusPanic
	StatusFault
	StatusHostSuspension
	StatusOutOfGas
)

func (s Status) String() string {
	switch s {
	case StatusOk:
		return "Ok"
	case StatusHalt:
		return "Halt"
	case StatusPanic:
		return "Panic"
	case StatusFault:
		return "Fault"
	case StatusHostSuspension:
		return "HostSuspension"
	case StatusOutOfGas:
		return "OutOfGas"
	default:
		return "Unknown"
	}
}

// Terminal reports whether s ends the run loop (everything but StatusOk and
// a host suspension the interpreter itself resolves).
func (s Status) Terminal() bool {
	switch s {
	case StatusHalt, StatusPanic, StatusFault, StatusOutOfGas:
		return true
	default:
		return false
	}
}

// Outcome is what a single instruction handler or host call returns: the
// resulting status plus, for non-Ok statuses, the exit argument (fault
// address, host call id, etc).
type Outcome struct {
	Status  Status
	ExitArg uint64
	// NextPC, when Advance is false, is the PC the interpreter should jump
	// to instead of falling through to the next instruction (branches,
	// jumps). Ignored when Advance is true.
	NextPC  uint32
	Advance bool
}

// Continue is the outcome of an instruction that falls through normally.
func Continue() Outcome { return Outcome{Status: StatusOk, Advance: true} }

// Jump is the outcome of a taken branch/jump to target.
func Jump(target uint32) Outcome { return Outcome{Status: StatusOk, NextPC: target} }

// Halt terminates the invocation successfully.
func Halt() Outcome { return Outcome{Status: StatusHalt} }

// Panic terminates the invocation with a panic (invalid instruction, bad
// jump target, store below ZONE_SIZE, etc).
func Panic() Outcome { return Outcome{Status: StatusPanic} }

// Fault terminates the invocation with a memory fault at pageBase.
func Fault(pageBase uint32) Outcome {
	return Outcome{Status: StatusFault, ExitArg: uint64(pageBase)}
}

// Suspend yields to the host table for call id.
func Suspend(callID uint64) Outcome {
	return Outcome{Status: StatusHostSuspension, ExitArg: callID}
}
