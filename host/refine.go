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

package host

import (
	"github.com/Esscrypt/peanutbutterandjam/interpreter"
)

// RefineContext is the host-side contract of the refine-invocation guest
// machine manager. Each method receives the caller's machine so it
// can move data between the outer RAM and the guest's, and returns the host
// outcome directly.
type RefineContext interface {
	Export(m *interpreter.Machine) interpreter.Outcome
	Machine(m *interpreter.Machine) interpreter.Outcome
	Peek(m *interpreter.Machine) interpreter.Outcome
	Poke(m *interpreter.Machine) interpreter.Outcome
	Pages(m *interpreter.Machine) interpreter.Outcome
	Invoke(m *interpreter.Machine) interpreter.Outcome
	Expunge(m *interpreter.Machine) interpreter.Outcome
}

// With no refine context configured, the calls that would read or write
// guest RAM panic, and EXPUNGE reports WHO and halts.

func (e *Env) refineExport(m *interpreter.Machine) interpreter.Outcome {
	if e.Refine == nil {
		return interpreter.Panic()
	}
	return e.Refine.Export(m)
}

func (e *Env) refineMachine(m *interpreter.Machine) interpreter.Outcome {
	if e.Refine == nil {
		return interpreter.Panic()
	}
	return e.Refine.Machine(m)
}

func (e *Env) refinePeek(m *interpreter.Machine) interpreter.Outcome {
	if e.Refine == nil {
		return interpreter.Panic()
	}
	return e.Refine.Peek(m)
}

func (e *Env) refinePoke(m *interpreter.Machine) interpreter.Outcome {
	if e.Refine == nil {
		return interpreter.Panic()
	}
	return e.Refine.Poke(m)
}

func (e *Env) refinePages(m *interpreter.Machine) interpreter.Outcome {
	if e.Refine == nil {
		return interpreter.Panic()
	}
	return e.Refine.Pages(m)
}

func (e *Env) refineInvoke(m *interpreter.Machine) interpreter.Outcome {
	if e.Refine == nil {
		return interpreter.Panic()
	}
	return e.Refine.Invoke(m)
}

func (e *Env) refineExpunge(m *interpreter.Machine) interpreter.Outcome {
	if e.Refine == nil {
		setResult(m, interpreter.RegWho)
		return interpreter.Halt()
	}
	return e.Refine.Expunge(m)
}
