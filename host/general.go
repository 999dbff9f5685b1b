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
	"github.com/Esscrypt/peanutbutterandjam/accumulate"
	"github.com/Esscrypt/peanutbutterandjam/codec"
	"github.com/Esscrypt/peanutbutterandjam/interpreter"
	"github.com/Esscrypt/peanutbutterandjam/pvmcrypto"
)

// gas (0): r7 <- remaining gas.
func (e *Env) gas(m *interpreter.Machine) interpreter.Outcome {
	setResult(m, m.Gas)
	return interpreter.Continue()
}

// sliceRange clamps [from, from+length) into v, the shared windowing rule
// of every host call that copies a stored value out to guest memory.
func sliceRange(v []byte, from, length uint64) []byte {
	n := uint64(len(v))
	if from > n {
		from = n
	}
	avail := n - from
	if length > avail {
		length = avail
	}
	return v[from : from+length]
}

// resolveAccount applies the self-or-other selector convention: NONE (or
// the caller's own id) names the invoking service, anything else is looked
// up in the ledger.
func (e *Env) resolveAccount(selector uint64) (*codec.CompleteServiceAccount, uint64) {
	if e.Acc == nil {
		return nil, 0
	}
	id := selector
	if selector == interpreter.RegNone || selector == e.Acc.ServiceID {
		id = e.Acc.ServiceID
	}
	return e.Acc.Accounts[id], id
}

// lookup (2): preimage fetch by hash. r7=service selector, r8=hash offset,
// r9=output offset, r10=from, r11=length.
func (e *Env) lookup(m *interpreter.Machine) interpreter.Outcome {
	selector := m.Regs.Get(7)
	hashOff := m.Regs.Get(8)
	outOff := m.Regs.Get(9)
	from := m.Regs.Get(10)
	length := m.Regs.Get(11)

	hash, ok := readMem(m, hashOff, 32)
	if !ok {
		return interpreter.Panic()
	}
	account, id := e.resolveAccount(selector)
	if account == nil {
		setResult(m, interpreter.RegNone)
		return interpreter.Continue()
	}
	preimage, ok := accumulate.PreimageGet(account, uint32(id), hash)
	if !ok {
		setResult(m, interpreter.RegNone)
		return interpreter.Continue()
	}
	if !writeMem(m, outOff, sliceRange(preimage, from, length)) {
		return interpreter.Panic()
	}
	setResult(m, uint64(len(preimage)))
	return interpreter.Continue()
}

// read (3): storage fetch. r7=service selector, r8=key offset, r9=key
// length, r10=output offset, r11=from, r12=length.
func (e *Env) read(m *interpreter.Machine) interpreter.Outcome {
	selector := m.Regs.Get(7)
	keyOff := m.Regs.Get(8)
	keyLen := m.Regs.Get(9)
	outOff := m.Regs.Get(10)
	from := m.Regs.Get(11)
	length := m.Regs.Get(12)

	key, ok := readMem(m, keyOff, keyLen)
	if !ok {
		return interpreter.Panic()
	}
	account, id := e.resolveAccount(selector)
	if account == nil {
		setResult(m, interpreter.RegNone)
		return interpreter.Continue()
	}
	value, ok := accumulate.StorageGet(account, uint32(id), key)
	if !ok {
		setResult(m, interpreter.RegNone)
		return interpreter.Continue()
	}
	if !writeMem(m, outOff, sliceRange(value, from, length)) {
		return interpreter.Panic()
	}
	setResult(m, uint64(len(value)))
	return interpreter.Continue()
}

// write (4): storage update against the invoking service. r7=key offset,
// r8=key length, r9=value offset, r10=value length. An empty value deletes.
// Result is the previous value's length, or NONE if the key was absent;
// FULL when the new footprint would break the min-balance invariant, with
// no partial write.
func (e *Env) write(m *interpreter.Machine) interpreter.Outcome {
	if e.Acc == nil || e.Acc.Current() == nil {
		return interpreter.Panic()
	}
	account := e.Acc.Current()
	serviceID := uint32(e.Acc.ServiceID)

	keyOff := m.Regs.Get(7)
	keyLen := m.Regs.Get(8)
	valOff := m.Regs.Get(9)
	valLen := m.Regs.Get(10)

	key, ok := readMem(m, keyOff, keyLen)
	if !ok {
		return interpreter.Panic()
	}
	prev, had := accumulate.StorageGet(account, serviceID, key)

	if valLen == 0 {
		newItems := uint64(account.Items)
		newOctets := account.Octets
		if had {
			newItems--
			newOctets -= 34 + uint64(len(key)) + uint64(len(prev))
		}
		if accumulate.MinBalance(newItems, newOctets, account.Gratis) > account.Balance {
			setResult(m, interpreter.RegFull)
			return interpreter.Continue()
		}
		if had {
			accumulate.StorageDelete(account, serviceID, key)
		}
		account.Items = uint32(newItems)
		account.Octets = newOctets
		if had {
			setResult(m, uint64(len(prev)))
		} else {
			setResult(m, interpreter.RegNone)
		}
		return interpreter.Continue()
	}

	value, ok := readMem(m, valOff, valLen)
	if !ok {
		return interpreter.Panic()
	}
	newItems := uint64(account.Items)
	newOctets := account.Octets
	if had {
		newOctets = newOctets - uint64(len(prev)) + uint64(len(value))
	} else {
		newItems++
		newOctets += 34 + uint64(len(key)) + uint64(len(value))
	}
	if accumulate.MinBalance(newItems, newOctets, account.Gratis) > account.Balance {
		setResult(m, interpreter.RegFull)
		return interpreter.Continue()
	}
	accumulate.StorageSet(account, serviceID, key, value)
	account.Items = uint32(newItems)
	account.Octets = newOctets
	if had {
		setResult(m, uint64(len(prev)))
	} else {
		setResult(m, interpreter.RegNone)
	}
	return interpreter.Continue()
}

// infoLen is the width of the INFO account summary.
const infoLen = 96

// info (5): 96-byte account summary. r7=service selector, r8=output offset,
// r9=from, r10=length.
func (e *Env) info(m *interpreter.Machine) interpreter.Outcome {
	if e.Acc == nil {
		return interpreter.Panic()
	}
	selector := m.Regs.Get(7)
	outOff := m.Regs.Get(8)
	from := m.Regs.Get(9)
	length := m.Regs.Get(10)

	account, _ := e.resolveAccount(selector)
	if account == nil {
		setResult(m, interpreter.RegNone)
		return interpreter.Continue()
	}

	var buf [infoLen]byte
	copy(buf[0:32], account.CodeHash[:])
	putLE(buf[32:40], account.Balance)
	putLE(buf[40:48], accumulate.AccountMinBalance(account))
	putLE(buf[48:56], account.MinAccGas)
	putLE(buf[56:64], account.MinMemoGas)
	putLE(buf[64:72], account.Octets)
	putLE(buf[72:76], uint64(account.Items))
	putLE(buf[76:84], account.Gratis)
	putLE(buf[84:88], uint64(account.Created))
	putLE(buf[88:92], uint64(account.LastAcc))
	putLE(buf[92:96], uint64(account.Parent))

	slice := sliceRange(buf[:], from, length)
	if len(slice) == 0 {
		setResult(m, interpreter.RegNone)
		return interpreter.Continue()
	}
	if !writeMem(m, outOff, slice) {
		return interpreter.Panic()
	}
	setResult(m, infoLen)
	return interpreter.Continue()
}

// historicalLookup (6): preimage lookup gated by the request slot's
// validity at the configured lookup timeslot. r7=service selector, r8=hash
// offset, r9=output offset, r10=from, r11=length.
func (e *Env) historicalLookup(m *interpreter.Machine) interpreter.Outcome {
	if e.Acc == nil || e.LookupTimeslot == nil {
		return interpreter.Panic()
	}
	selector := m.Regs.Get(7)
	hashOff := m.Regs.Get(8)
	outOff := m.Regs.Get(9)
	from := m.Regs.Get(10)
	length := m.Regs.Get(11)

	account, id := e.resolveAccount(selector)
	if account == nil {
		setResult(m, interpreter.RegNone)
		return interpreter.Continue()
	}
	hash, ok := readMem(m, hashOff, 32)
	if !ok {
		return interpreter.Panic()
	}

	preimage, ok := histLookup(account, uint32(id), hash, *e.LookupTimeslot)
	if !ok {
		setResult(m, interpreter.RegNone)
		return interpreter.Continue()
	}
	slice := sliceRange(preimage, from, length)
	if len(slice) == 0 {
		setResult(m, interpreter.RegNone)
		return interpreter.Continue()
	}
	if !writeMem(m, outOff, slice) {
		return interpreter.Panic()
	}
	setResult(m, uint64(len(preimage)))
	return interpreter.Continue()
}

// histLookup returns the preimage only if its request slot was live at
// timeslot: available from x, withdrawn at y, re-available from z.
func histLookup(a *codec.CompleteServiceAccount, serviceID uint32, hash []byte, timeslot uint64) ([]byte, bool) {
	preimage, ok := accumulate.PreimageGet(a, serviceID, hash)
	if !ok {
		return nil, false
	}
	value, ok := accumulate.RequestGet(a, serviceID, hash, uint64(len(preimage)))
	if !ok {
		return nil, false
	}
	ts, ok := accumulate.DecodeTimeslots(value)
	if !ok {
		return nil, false
	}
	valid := false
	switch len(ts) {
	case 1:
		valid = uint64(ts[0]) <= timeslot
	case 2:
		valid = uint64(ts[0]) <= timeslot && timeslot < uint64(ts[1])
	case 3:
		valid = (uint64(ts[0]) <= timeslot && timeslot < uint64(ts[1])) || uint64(ts[2]) <= timeslot
	}
	if !valid {
		return nil, false
	}
	return preimage, true
}

// log (100): guest diagnostics. Fault-tolerant by design: an unreadable
// range is ignored and execution continues with no side effect.
func (e *Env) log(m *interpreter.Machine) interpreter.Outcome {
	level := m.Regs.Get(7)
	targetOff := m.Regs.Get(8)
	targetLen := m.Regs.Get(9)
	msgOff := m.Regs.Get(10)
	msgLen := m.Regs.Get(11)

	var target string
	if targetOff != 0 && targetLen != 0 {
		if data, ok := readMem(m, targetOff, targetLen); ok {
			target = string(data)
		}
	}
	msg, ok := readMem(m, msgOff, msgLen)
	if !ok {
		return interpreter.Continue()
	}
	if e.Log != nil {
		e.Log(level, target, string(msg))
	}
	return interpreter.Continue()
}

// putLE writes v little-endian across the whole of dst.
func putLE(dst []byte, v uint64) {
	for i := range dst {
		dst[i] = byte(v >> (8 * uint(i)))
	}
}

// hashPreimage is the content address of a provided preimage.
func hashPreimage(data []byte) [32]byte {
	h := pvmcrypto.Sum256(data)
	var out [32]byte
	copy(out[:], h[:])
	return out
}
