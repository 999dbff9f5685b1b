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

// Package host implements the host function table reachable through
// ECALLI: the general calls that read and write the current service's
// ledger entries, the refine delegation stubs, and the accumulation calls
// that drive the transactional implication state.
package host

import (
	"github.com/Esscrypt/peanutbutterandjam/accumulate"
	"github.com/Esscrypt/peanutbutterandjam/interpreter"
)

// Host function ids.
const (
	FuncGas              uint64 = 0
	FuncFetch            uint64 = 1
	FuncLookup           uint64 = 2
	FuncRead             uint64 = 3
	FuncWrite            uint64 = 4
	FuncInfo             uint64 = 5
	FuncHistoricalLookup uint64 = 6
	FuncExport           uint64 = 7
	FuncMachine          uint64 = 8
	FuncPeek             uint64 = 9
	FuncPoke             uint64 = 10
	FuncPages            uint64 = 11
	FuncInvoke           uint64 = 12
	FuncExpunge          uint64 = 13
	FuncBless            uint64 = 14
	FuncAssign           uint64 = 15
	FuncDesignate        uint64 = 16
	FuncCheckpoint       uint64 = 17
	FuncNew              uint64 = 18
	FuncUpgrade          uint64 = 19
	FuncTransfer         uint64 = 20
	FuncEject            uint64 = 21
	FuncQuery            uint64 = 22
	FuncSolicit          uint64 = 23
	FuncForget           uint64 = 24
	FuncYield            uint64 = 25
	FuncProvide          uint64 = 26
	FuncLog              uint64 = 100
)

// LogFunc receives LOG host-call output. The engine itself never prints;
// the binding layer decides what to do with guest diagnostics.
type LogFunc func(level uint64, target, message string)

// Env is the per-invocation wiring of a host table: which optional inputs
// are configured decides whether HISTORICAL_LOOKUP and the accumulation
// calls are registered. An unregistered call surfaces as WHAT at the ABI
// level; the other calls are always registered.
type Env struct {
	// Acc enables the accumulation calls (14-26) and backs the ledger-based
	// general calls, which stay registered without it.
	Acc *accumulate.Context

	// LookupTimeslot enables HISTORICAL_LOOKUP.
	LookupTimeslot *uint64

	// Refine enables the sub-VM delegation calls (7-13). Leaving it nil
	// makes those calls surface their documented unconfigured behavior.
	Refine RefineContext

	Log LogFunc

	// FETCH data sources, by selector. A nil source makes its
	// selector yield NONE.
	EntropyAccumulator   []byte
	AuthorizerTrace      []byte
	ExportSegments       [][][]byte
	ImportSegments       [][][]byte
	WorkItemIndex        *uint64
	WorkPackageEncoded   []byte
	AuthConfig           []byte
	AuthToken            []byte
	RefineContextEncoded []byte
	WorkItemSummaries    [][]byte
	WorkItemPayloads     [][]byte
	AccumulateInputs     [][]byte

	Config *accumulate.Config
}

// config returns the effective accumulation config, defaulting when the
// caller supplied none.
func (e *Env) config() *accumulate.Config {
	if e.Config != nil {
		return e.Config
	}
	if e.Acc != nil && e.Acc.Config != nil {
		return e.Acc.Config
	}
	return accumulate.DefaultConfig()
}

// Table builds the host dispatch table for env. HISTORICAL_LOOKUP without
// LookupTimeslot and the accumulation calls without Acc are not registered;
// the interpreter reports WHAT for them. All other calls are registered.
func Table(env *Env) interpreter.HostTable {
	t := interpreter.HostTable{}

	t[FuncGas] = env.gas
	t[FuncFetch] = env.fetch
	t[FuncLookup] = env.lookup
	t[FuncRead] = env.read
	t[FuncWrite] = env.write
	t[FuncInfo] = env.info
	t[FuncLog] = env.log

	if env.LookupTimeslot != nil {
		t[FuncHistoricalLookup] = env.historicalLookup
	}

	t[FuncExport] = env.refineExport
	t[FuncMachine] = env.refineMachine
	t[FuncPeek] = env.refinePeek
	t[FuncPoke] = env.refinePoke
	t[FuncPages] = env.refinePages
	t[FuncInvoke] = env.refineInvoke
	t[FuncExpunge] = env.refineExpunge

	if env.Acc != nil {
		acc := func(fn interpreter.HostFunc) interpreter.HostFunc {
			return func(m *interpreter.Machine) interpreter.Outcome {
				out := fn(m)
				// The regular to exceptional copy happens after the
				// CHECKPOINT host returns control, not inside it.
				if env.Acc.CheckpointRequested {
					env.Acc.ApplyCheckpoint()
				}
				return out
			}
		}
		t[FuncBless] = acc(env.bless)
		t[FuncAssign] = acc(env.assign)
		t[FuncDesignate] = acc(env.designate)
		t[FuncCheckpoint] = acc(env.checkpoint)
		t[FuncNew] = acc(env.newService)
		t[FuncUpgrade] = acc(env.upgrade)
		t[FuncTransfer] = acc(env.transfer)
		t[FuncEject] = acc(env.eject)
		t[FuncQuery] = acc(env.query)
		t[FuncSolicit] = acc(env.solicit)
		t[FuncForget] = acc(env.forget)
		t[FuncYield] = acc(env.yield)
		t[FuncProvide] = acc(env.provide)
	}

	return t
}

// readMem reads a required input range. Failure is a panic and the result
// register stays untouched.
func readMem(m *interpreter.Machine, addr uint64, length uint64) ([]byte, bool) {
	data, err := m.RAM.ReadOctets(uint32(addr), uint32(length))
	if err != nil {
		return nil, false
	}
	return data, true
}

// writeMem writes a host output range; failure is likewise a panic.
func writeMem(m *interpreter.Machine, addr uint64, data []byte) bool {
	if len(data) == 0 {
		return true
	}
	return m.RAM.WriteOctets(uint32(addr), data) == nil
}

// setResult writes v to the result register r7.
func setResult(m *interpreter.Machine, v uint64) {
	m.Regs.Set(interpreter.ResultRegister, v)
}
