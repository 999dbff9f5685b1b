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
	"bytes"
	"encoding/binary"

	"github.com/Esscrypt/peanutbutterandjam/accumulate"
	"github.com/Esscrypt/peanutbutterandjam/codec"
	"github.com/Esscrypt/peanutbutterandjam/interpreter"
)

// maxServiceID bounds every service id carried in registers.
const maxServiceID = uint64(1) << 32

// bless (14): install manager/delegator/registrar, the per-core assigner
// array and the always-accessor list. r7=manager, r8=assigners offset,
// r9=delegator, r10=registrar, r11=accessors offset, r12=accessor count.
func (e *Env) bless(m *interpreter.Machine) interpreter.Outcome {
	manager := m.Regs.Get(7)
	assignersOff := m.Regs.Get(8)
	delegator := m.Regs.Get(9)
	registrar := m.Regs.Get(10)
	accessorsOff := m.Regs.Get(11)
	accessorCount := m.Regs.Get(12)

	numCores := uint64(e.config().NumCores)
	assignersData, ok := readMem(m, assignersOff, numCores*4)
	if !ok {
		return interpreter.Panic()
	}
	accessorsData, ok := readMem(m, accessorsOff, accessorCount*12)
	if !ok {
		return interpreter.Panic()
	}

	if manager >= maxServiceID || delegator >= maxServiceID || registrar >= maxServiceID {
		setResult(m, interpreter.RegWho)
		return interpreter.Continue()
	}

	assigners := make([]uint32, numCores)
	for i := range assigners {
		assigners[i] = binary.LittleEndian.Uint32(assignersData[4*i:])
	}
	accessors := make([]codec.AlwaysAccerEntry, accessorCount)
	for i := range accessors {
		accessors[i] = codec.AlwaysAccerEntry{
			ServiceID: binary.LittleEndian.Uint32(accessorsData[12*i:]),
			Gas:       binary.LittleEndian.Uint64(accessorsData[12*i+4:]),
		}
	}

	state := &e.Acc.State
	state.Manager = uint32(manager)
	state.Delegator = uint32(delegator)
	state.Registrar = uint32(registrar)
	state.Assigners = assigners
	state.AlwaysAccers = accessors

	setResult(m, interpreter.RegOK)
	return interpreter.Continue()
}

// assign (15): replace core c's authorization queue. Only the core's
// current assigner may do so, and it hands the role to the named service.
// r7=core, r8=queue offset, r9=service to assign.
func (e *Env) assign(m *interpreter.Machine) interpreter.Outcome {
	core := m.Regs.Get(7)
	queueOff := m.Regs.Get(8)
	assignee := m.Regs.Get(9)

	queueSize := uint64(e.config().AuthQueueSize)
	queueData, ok := readMem(m, queueOff, queueSize*32)
	if !ok {
		return interpreter.Panic()
	}

	if core >= uint64(e.config().NumCores) {
		setResult(m, interpreter.RegCore)
		return interpreter.Continue()
	}

	state := &e.Acc.State
	for uint64(len(state.Assigners)) <= core {
		state.Assigners = append(state.Assigners, 0)
	}
	if e.Acc.ServiceID != uint64(state.Assigners[core]) {
		setResult(m, interpreter.RegHuh)
		return interpreter.Continue()
	}
	if assignee >= maxServiceID {
		setResult(m, interpreter.RegWho)
		return interpreter.Continue()
	}

	queue := make(codec.CoreAuthQueue, queueSize)
	for i := range queue {
		copy(queue[i][:], queueData[32*i:32*i+32])
	}
	for uint64(len(state.AuthQueue)) <= core {
		state.AuthQueue = append(state.AuthQueue, nil)
	}
	state.AuthQueue[core] = queue
	state.Assigners[core] = uint32(assignee)

	setResult(m, interpreter.RegOK)
	return interpreter.Continue()
}

// designate (16): replace the validator staging set. Delegator only.
// r7=validators offset.
func (e *Env) designate(m *interpreter.Machine) interpreter.Outcome {
	validatorsOff := m.Regs.Get(7)
	n := uint64(e.config().NumValidators)

	data, ok := readMem(m, validatorsOff, n*accumulate.ValidatorKeySize)
	if !ok {
		return interpreter.Panic()
	}
	if e.Acc.ServiceID != uint64(e.Acc.State.Delegator) {
		setResult(m, interpreter.RegHuh)
		return interpreter.Continue()
	}

	staging := make([]codec.ValidatorKey, n)
	for i := range staging {
		copy(staging[i][:], data[accumulate.ValidatorKeySize*i:])
	}
	e.Acc.State.StagingSet = staging

	setResult(m, interpreter.RegOK)
	return interpreter.Continue()
}

// checkpoint (17): request the regular→exceptional snapshot; the dispatcher
// applies it once this call has returned. r7 reports the gas counter after
// the base deduction.
func (e *Env) checkpoint(m *interpreter.Machine) interpreter.Outcome {
	e.Acc.CheckpointRequested = true
	setResult(m, m.Gas)
	return interpreter.Continue()
}

// newService (18): create a service account. r7=code hash offset,
// r8=expected code length, r9=min accumulation gas, r10=min memo gas,
// r11=gratis, r12=desired reserved id.
func (e *Env) newService(m *interpreter.Machine) interpreter.Outcome {
	hashOff := m.Regs.Get(7)
	codeLength := m.Regs.Get(8)
	minAccGas := m.Regs.Get(9)
	minMemoGas := m.Regs.Get(10)
	gratis := m.Regs.Get(11)
	desiredID := m.Regs.Get(12)

	if codeLength >= maxServiceID {
		return interpreter.Panic()
	}
	hashData, ok := readMem(m, hashOff, 32)
	if !ok {
		return interpreter.Panic()
	}
	var codeHash [32]byte
	copy(codeHash[:], hashData)

	ctx := e.Acc
	caller := ctx.Current()
	if caller == nil {
		setResult(m, interpreter.RegHuh)
		return interpreter.Continue()
	}

	// Only the manager hands out fee credit.
	if gratis != 0 && ctx.ServiceID != uint64(ctx.State.Manager) {
		setResult(m, interpreter.RegHuh)
		return interpreter.Continue()
	}

	newOctets := accumulate.RequestOctetsBase + codeLength
	const newItems = 2
	minBalance := accumulate.MinBalance(newItems, newOctets, gratis)

	if caller.Balance < minBalance {
		setResult(m, interpreter.RegCash)
		return interpreter.Continue()
	}
	remaining := caller.Balance - minBalance
	if remaining < accumulate.AccountMinBalance(caller) {
		setResult(m, interpreter.RegCash)
		return interpreter.Continue()
	}

	useReserved := gratis == 0 &&
		ctx.ServiceID == uint64(ctx.State.Registrar) &&
		desiredID < uint64(accumulate.MinPublicIndex)

	var newID uint64
	if useReserved {
		if _, taken := ctx.Accounts[desiredID]; taken {
			setResult(m, interpreter.RegFull)
			return interpreter.Continue()
		}
		newID = desiredID
	} else {
		newID = ctx.AllocateServiceID()
	}

	account := &codec.CompleteServiceAccount{
		CodeHash:   codeHash,
		Balance:    minBalance,
		MinAccGas:  minAccGas,
		MinMemoGas: minMemoGas,
		Octets:     newOctets,
		Gratis:     gratis,
		Items:      newItems,
		Created:    uint32(ctx.Timeslot),
		Parent:     uint32(ctx.ServiceID),
	}
	accumulate.RequestSet(account, uint32(newID), codeHash[:], codeLength, accumulate.EncodeTimeslots(nil))

	caller.Balance = remaining
	ctx.Accounts[newID] = account

	setResult(m, newID)
	return interpreter.Continue()
}

// upgrade (19): rewrite the caller's code hash and minimum gas fields.
// r7=code hash offset, r8=min accumulation gas, r9=min memo gas.
func (e *Env) upgrade(m *interpreter.Machine) interpreter.Outcome {
	hashOff := m.Regs.Get(7)
	minAccGas := m.Regs.Get(8)
	minMemoGas := m.Regs.Get(9)

	hashData, ok := readMem(m, hashOff, 32)
	if !ok {
		return interpreter.Panic()
	}
	account := e.Acc.Current()
	if account == nil {
		setResult(m, interpreter.RegHuh)
		return interpreter.Continue()
	}
	copy(account.CodeHash[:], hashData)
	account.MinAccGas = minAccGas
	account.MinMemoGas = minMemoGas

	setResult(m, interpreter.RegOK)
	return interpreter.Continue()
}

// transfer (20): deduct from the caller and record a deferred transfer in
// the regular xfers. r7=destination, r8=amount, r9=gas limit, r10=memo
// offset. The gas limit is deducted from the counter on success, on top of
// the base host cost.
func (e *Env) transfer(m *interpreter.Machine) interpreter.Outcome {
	dest := m.Regs.Get(7)
	amount := m.Regs.Get(8)
	gasLimit := m.Regs.Get(9)
	memoOff := m.Regs.Get(10)

	memoData, ok := readMem(m, memoOff, accumulate.MemoSize)
	if !ok {
		return interpreter.Panic()
	}

	ctx := e.Acc
	caller := ctx.Current()
	if caller == nil {
		setResult(m, interpreter.RegHuh)
		return interpreter.Continue()
	}
	destAccount := ctx.Accounts[dest]
	if destAccount == nil {
		setResult(m, interpreter.RegWho)
		return interpreter.Continue()
	}
	if gasLimit < destAccount.MinMemoGas {
		setResult(m, interpreter.RegLow)
		return interpreter.Continue()
	}
	if caller.Balance < amount {
		setResult(m, interpreter.RegCash)
		return interpreter.Continue()
	}
	remaining := caller.Balance - amount
	if remaining < accumulate.AccountMinBalance(caller) {
		setResult(m, interpreter.RegCash)
		return interpreter.Continue()
	}

	caller.Balance = remaining
	xfer := codec.DeferredTransfer{
		Source:   uint32(ctx.ServiceID),
		Dest:     uint32(dest),
		Amount:   amount,
		GasLimit: gasLimit,
	}
	copy(xfer.Memo[:], memoData)
	ctx.Xfers = append(ctx.Xfers, xfer)

	m.DeductGas(gasLimit)
	setResult(m, interpreter.RegOK)
	return interpreter.Continue()
}

// eject (21): remove a target service whose code hash is the encoded caller
// id, crediting its balance to the caller; permitted only once the target's
// request slot has fully expired and its footprint is the single request.
// r7=target id, r8=hash offset.
func (e *Env) eject(m *interpreter.Machine) interpreter.Outcome {
	targetID := m.Regs.Get(7)
	hashOff := m.Regs.Get(8)

	hashData, ok := readMem(m, hashOff, 32)
	if !ok {
		return interpreter.Panic()
	}

	ctx := e.Acc
	caller := ctx.Current()
	if caller == nil || targetID == ctx.ServiceID {
		setResult(m, interpreter.RegWho)
		return interpreter.Continue()
	}
	target := ctx.Accounts[targetID]
	if target == nil {
		setResult(m, interpreter.RegWho)
		return interpreter.Continue()
	}

	// The target must name the caller in its code hash: the caller id as
	// 32 little-endian octets.
	var expected [32]byte
	binary.LittleEndian.PutUint32(expected[:4], uint32(ctx.ServiceID))
	if !bytes.Equal(target.CodeHash[:], expected[:]) {
		setResult(m, interpreter.RegWho)
		return interpreter.Continue()
	}

	if target.Items != 2 {
		setResult(m, interpreter.RegHuh)
		return interpreter.Continue()
	}
	preimageLength := uint64(0)
	if target.Octets > accumulate.RequestOctetsBase {
		preimageLength = target.Octets - accumulate.RequestOctetsBase
	}
	value, ok := accumulate.RequestGet(target, uint32(targetID), hashData, preimageLength)
	if !ok {
		setResult(m, interpreter.RegHuh)
		return interpreter.Continue()
	}
	ts, ok := accumulate.DecodeTimeslots(value)
	if !ok || len(ts) < 2 {
		setResult(m, interpreter.RegHuh)
		return interpreter.Continue()
	}
	expunge := uint64(e.config().PreimageExpungePeriod)
	if uint64(ts[1])+expunge >= ctx.Timeslot {
		setResult(m, interpreter.RegHuh)
		return interpreter.Continue()
	}

	caller.Balance += target.Balance
	delete(ctx.Accounts, targetID)

	setResult(m, interpreter.RegOK)
	return interpreter.Continue()
}

// query (22): report a request slot's state as a packed 128-bit triple in
// (r7, r8). r7=hash offset, r8=preimage length.
func (e *Env) query(m *interpreter.Machine) interpreter.Outcome {
	hashOff := m.Regs.Get(7)
	preimageLength := m.Regs.Get(8)

	hashData, ok := readMem(m, hashOff, 32)
	if !ok {
		return interpreter.Panic()
	}

	ctx := e.Acc
	account := ctx.Current()
	if account == nil {
		setResult(m, interpreter.RegNone)
		m.Regs.Set(8, 0)
		return interpreter.Continue()
	}
	value, ok := accumulate.RequestGet(account, uint32(ctx.ServiceID), hashData, preimageLength)
	if !ok {
		setResult(m, interpreter.RegNone)
		m.Regs.Set(8, 0)
		return interpreter.Continue()
	}
	ts, ok := accumulate.DecodeTimeslots(value)
	if !ok {
		setResult(m, interpreter.RegNone)
		m.Regs.Set(8, 0)
		return interpreter.Continue()
	}

	const two32 = uint64(1) << 32
	switch len(ts) {
	case 0:
		setResult(m, 0)
		m.Regs.Set(8, 0)
	case 1:
		setResult(m, 1+two32*uint64(ts[0]))
		m.Regs.Set(8, 0)
	case 2:
		setResult(m, 2+two32*uint64(ts[0]))
		m.Regs.Set(8, uint64(ts[1]))
	case 3:
		setResult(m, 3+two32*uint64(ts[0]))
		m.Regs.Set(8, uint64(ts[1])+two32*uint64(ts[2]))
	default:
		setResult(m, interpreter.RegNone)
		m.Regs.Set(8, 0)
	}
	return interpreter.Continue()
}

// solicit (23): open a request slot, or re-solicit a withdrawn one by
// appending the current timeslot. r7=hash offset, r8=preimage length.
func (e *Env) solicit(m *interpreter.Machine) interpreter.Outcome {
	hashOff := m.Regs.Get(7)
	preimageLength := m.Regs.Get(8)

	hashData, ok := readMem(m, hashOff, 32)
	if !ok {
		return interpreter.Panic()
	}

	ctx := e.Acc
	account := ctx.Current()
	if account == nil {
		setResult(m, interpreter.RegHuh)
		return interpreter.Continue()
	}
	serviceID := uint32(ctx.ServiceID)

	value, exists := accumulate.RequestGet(account, serviceID, hashData, preimageLength)

	var newTimeslots []uint32
	isNew := false
	if !exists {
		isNew = true
	} else {
		ts, ok := accumulate.DecodeTimeslots(value)
		if !ok || len(ts) != 2 {
			setResult(m, interpreter.RegHuh)
			return interpreter.Continue()
		}
		newTimeslots = append(ts, uint32(ctx.Timeslot))
	}

	newItems := uint64(account.Items)
	newOctets := account.Octets
	if isNew {
		newItems += 2
		if accumulate.AddWouldOverflow(accumulate.RequestOctetsBase, preimageLength) {
			setResult(m, interpreter.RegFull)
			return interpreter.Continue()
		}
		increment := accumulate.RequestOctetsBase + preimageLength
		if accumulate.AddWouldOverflow(newOctets, increment) {
			setResult(m, interpreter.RegFull)
			return interpreter.Continue()
		}
		newOctets += increment
	}

	if accumulate.MinBalance(newItems, newOctets, account.Gratis) > account.Balance {
		setResult(m, interpreter.RegFull)
		return interpreter.Continue()
	}

	accumulate.RequestSet(account, serviceID, hashData, preimageLength, accumulate.EncodeTimeslots(newTimeslots))
	if isNew {
		account.Items = uint32(newItems)
		account.Octets = newOctets
	}

	setResult(m, interpreter.RegOK)
	return interpreter.Continue()
}

// forget (24): walk the request slot's lifecycle: drop an
// unfulfilled request, withdraw a live one, expunge an expired one, or
// recycle an expired re-solicit. r7=hash offset, r8=preimage length.
func (e *Env) forget(m *interpreter.Machine) interpreter.Outcome {
	hashOff := m.Regs.Get(7)
	preimageLength := m.Regs.Get(8)

	hashData, ok := readMem(m, hashOff, 32)
	if !ok {
		return interpreter.Panic()
	}

	ctx := e.Acc
	account := ctx.Current()
	if account == nil {
		setResult(m, interpreter.RegHuh)
		return interpreter.Continue()
	}
	serviceID := uint32(ctx.ServiceID)

	value, exists := accumulate.RequestGet(account, serviceID, hashData, preimageLength)
	if !exists {
		setResult(m, interpreter.RegHuh)
		return interpreter.Continue()
	}
	ts, ok := accumulate.DecodeTimeslots(value)
	if !ok {
		setResult(m, interpreter.RegHuh)
		return interpreter.Continue()
	}

	t := ctx.Timeslot
	expunge := uint64(e.config().PreimageExpungePeriod)

	drop := func() {
		accumulate.RequestDelete(account, serviceID, hashData, preimageLength)
		accumulate.PreimageDelete(account, serviceID, hashData)
		if account.Items >= 2 {
			account.Items -= 2
		} else {
			account.Items = 0
		}
		delta := accumulate.RequestOctetsBase + preimageLength
		if account.Octets >= delta {
			account.Octets -= delta
		} else {
			account.Octets = 0
		}
	}

	switch len(ts) {
	case 0:
		drop()
	case 1:
		accumulate.RequestSet(account, serviceID, hashData, preimageLength,
			accumulate.EncodeTimeslots([]uint32{ts[0], uint32(t)}))
	case 2:
		if uint64(ts[1])+expunge < t {
			drop()
		} else {
			setResult(m, interpreter.RegHuh)
			return interpreter.Continue()
		}
	case 3:
		if uint64(ts[1])+expunge < t {
			accumulate.RequestSet(account, serviceID, hashData, preimageLength,
				accumulate.EncodeTimeslots([]uint32{ts[2], uint32(t)}))
		} else {
			setResult(m, interpreter.RegHuh)
			return interpreter.Continue()
		}
	default:
		setResult(m, interpreter.RegHuh)
		return interpreter.Continue()
	}

	setResult(m, interpreter.RegOK)
	return interpreter.Continue()
}

// yield (25): set the invocation's commitment hash. r7=hash offset.
func (e *Env) yield(m *interpreter.Machine) interpreter.Outcome {
	hashOff := m.Regs.Get(7)
	hashData, ok := readMem(m, hashOff, 32)
	if !ok {
		return interpreter.Panic()
	}
	var h [32]byte
	copy(h[:], hashData)
	e.Acc.YieldHash = &h
	m.YieldHash = &h

	setResult(m, interpreter.RegOK)
	return interpreter.Continue()
}

// provide (26): supply a solicited preimage. r7=target service (NONE =
// self), r8=preimage offset, r9=preimage length. The (hash, length) pair
// must name an existing request, and a duplicate provision is rejected.
func (e *Env) provide(m *interpreter.Machine) interpreter.Outcome {
	targetSel := m.Regs.Get(7)
	preimageOff := m.Regs.Get(8)
	preimageLength := m.Regs.Get(9)

	ctx := e.Acc
	targetID := targetSel
	if targetSel == interpreter.RegNone {
		targetID = ctx.ServiceID
	}

	data, ok := readMem(m, preimageOff, preimageLength)
	if !ok {
		return interpreter.Panic()
	}

	target := ctx.Accounts[targetID]
	if target == nil {
		setResult(m, interpreter.RegWho)
		return interpreter.Continue()
	}

	hash := hashPreimage(data)
	if _, ok := accumulate.RequestGet(target, uint32(targetID), hash[:], preimageLength); !ok {
		setResult(m, interpreter.RegHuh)
		return interpreter.Continue()
	}

	for i := range ctx.Provisions {
		p := &ctx.Provisions[i]
		if uint64(p.ServiceID) == targetID && bytes.Equal(p.Blob, data) {
			setResult(m, interpreter.RegHuh)
			return interpreter.Continue()
		}
	}
	ctx.Provisions = append(ctx.Provisions, codec.ProvisionEntry{
		ServiceID: uint32(targetID),
		Blob:      append([]byte(nil), data...),
	})

	setResult(m, interpreter.RegOK)
	return interpreter.Continue()
}
