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
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Esscrypt/peanutbutterandjam/accumulate"
	"github.com/Esscrypt/peanutbutterandjam/codec"
	"github.com/Esscrypt/peanutbutterandjam/interpreter"
	"github.com/Esscrypt/peanutbutterandjam/program"
	"github.com/Esscrypt/peanutbutterandjam/pvmcrypto"
	"github.com/Esscrypt/peanutbutterandjam/ram"
)

const scratchBase = 0x20000

// testMachine builds a machine with an empty program and a writable
// scratch region for host-call buffers.
func testMachine(t *testing.T) *interpreter.Machine {
	t.Helper()
	blob := (&codec.ProgramBlob{}).Encode()
	loaded, err := program.Decode(blob)
	require.NoError(t, err)
	r := ram.NewPvmRAM()
	require.NoError(t, r.InitPage(scratchBase, 4*ram.PageSize, ram.Write))
	return interpreter.New(loaded, blob, r, 1_000_000, nil)
}

func smallConfig() *accumulate.Config {
	cfg := accumulate.DefaultConfig()
	cfg.NumCores = 2
	cfg.NumValidators = 1
	cfg.AuthQueueSize = 2
	return cfg
}

// testEnv builds an Env over a single-service ledger.
func testEnv(t *testing.T, account *codec.CompleteServiceAccount, timeslot uint64) (*Env, *interpreter.Machine) {
	t.Helper()
	pair := &codec.ImplicationsPair{
		Regular: codec.Implications{
			ServiceID: 65536,
			State: codec.PartialState{
				Accounts: []codec.AccountEntry{{ServiceID: 65536, Account: *account}},
			},
			NextFreeID: 65537,
		},
		Exceptional: codec.Implications{ServiceID: 65536},
	}
	cfg := smallConfig()
	env := &Env{Acc: accumulate.NewContext(pair, cfg, timeslot), Config: cfg}
	return env, testMachine(t)
}

func writeScratch(t *testing.T, m *interpreter.Machine, off uint32, data []byte) uint64 {
	t.Helper()
	require.NoError(t, m.RAM.WriteOctets(scratchBase+off, data))
	return uint64(scratchBase + off)
}

func TestWriteThenReadStorage(t *testing.T) {
	env, m := testEnv(t, &codec.CompleteServiceAccount{Balance: 1000}, 0)

	keyOff := writeScratch(t, m, 0, []byte("k"))
	valOff := writeScratch(t, m, 8, []byte("v"))

	m.Regs.Set(7, keyOff)
	m.Regs.Set(8, 1)
	m.Regs.Set(9, valOff)
	m.Regs.Set(10, 1)
	out := env.write(m)
	require.Equal(t, interpreter.StatusOk, out.Status)
	// Fresh key: previous value was absent.
	require.Equal(t, interpreter.RegNone, m.Regs.Get(7))

	account := env.Acc.Current()
	require.Equal(t, uint32(1), account.Items)
	require.Equal(t, uint64(34+1+1), account.Octets)

	outOff := uint64(scratchBase + 64)
	m.Regs.Set(7, interpreter.RegNone) // self
	m.Regs.Set(8, keyOff)
	m.Regs.Set(9, 1)
	m.Regs.Set(10, outOff)
	m.Regs.Set(11, 0)
	m.Regs.Set(12, 1)
	out = env.read(m)
	require.Equal(t, interpreter.StatusOk, out.Status)
	require.Equal(t, uint64(1), m.Regs.Get(7))
	got, err := m.RAM.ReadOctets(uint32(outOff), 1)
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)
}

func TestWriteRejectsWhenMinBalanceBroken(t *testing.T) {
	// Balance 100 covers only the base deposit; any stored item pushes the
	// minimum above it.
	env, m := testEnv(t, &codec.CompleteServiceAccount{Balance: 100}, 0)

	keyOff := writeScratch(t, m, 0, []byte("k"))
	valOff := writeScratch(t, m, 8, []byte("v"))
	m.Regs.Set(7, keyOff)
	m.Regs.Set(8, 1)
	m.Regs.Set(9, valOff)
	m.Regs.Set(10, 1)
	env.write(m)
	require.Equal(t, interpreter.RegFull, m.Regs.Get(7))
	require.Equal(t, uint32(0), env.Acc.Current().Items)
	require.Equal(t, uint64(0), env.Acc.Current().Octets)
}

func TestWriteEmptyValueDeletes(t *testing.T) {
	env, m := testEnv(t, &codec.CompleteServiceAccount{Balance: 1000}, 0)
	keyOff := writeScratch(t, m, 0, []byte("k"))
	valOff := writeScratch(t, m, 8, []byte("v"))

	m.Regs.Set(7, keyOff)
	m.Regs.Set(8, 1)
	m.Regs.Set(9, valOff)
	m.Regs.Set(10, 1)
	env.write(m)

	m.Regs.Set(7, keyOff)
	m.Regs.Set(8, 1)
	m.Regs.Set(9, 0)
	m.Regs.Set(10, 0)
	env.write(m)
	require.Equal(t, uint64(1), m.Regs.Get(7)) // previous length
	require.Equal(t, uint32(0), env.Acc.Current().Items)
	require.Equal(t, uint64(0), env.Acc.Current().Octets)
}

func TestSolicitLifecycle(t *testing.T) {
	hash := pvmcrypto.Sum256([]byte("preimage"))

	// Balance 150 cannot cover the post-solicit minimum of
	// 100 + 10*2 + 1*(81+3) = 204.
	env, m := testEnv(t, &codec.CompleteServiceAccount{Balance: 150}, 10)
	hashOff := writeScratch(t, m, 0, hash[:])
	m.Regs.Set(7, hashOff)
	m.Regs.Set(8, 3)
	env.solicit(m)
	require.Equal(t, interpreter.RegFull, m.Regs.Get(7))

	// With 250 it fits.
	env, m = testEnv(t, &codec.CompleteServiceAccount{Balance: 250}, 10)
	hashOff = writeScratch(t, m, 0, hash[:])
	m.Regs.Set(7, hashOff)
	m.Regs.Set(8, 3)
	env.solicit(m)
	require.Equal(t, interpreter.RegOK, m.Regs.Get(7))

	account := env.Acc.Current()
	require.Equal(t, uint32(2), account.Items)
	require.Equal(t, uint64(84), account.Octets)
	value, ok := accumulate.RequestGet(account, 65536, hash[:], 3)
	require.True(t, ok)
	require.Empty(t, value)

	// FORGET on the empty slot deletes immediately and restores the
	// footprint.
	m.Regs.Set(7, hashOff)
	m.Regs.Set(8, 3)
	env.forget(m)
	require.Equal(t, interpreter.RegOK, m.Regs.Get(7))
	require.Equal(t, uint32(0), account.Items)
	require.Equal(t, uint64(0), account.Octets)
	_, ok = accumulate.RequestGet(account, 65536, hash[:], 3)
	require.False(t, ok)
}

func TestForgetStateMachine(t *testing.T) {
	hash := pvmcrypto.Sum256([]byte("p"))
	expunge := uint64(smallConfig().PreimageExpungePeriod)

	setSlot := func(env *Env, ts []uint32) {
		accumulate.RequestSet(env.Acc.Current(), 65536, hash[:], 3, accumulate.EncodeTimeslots(ts))
	}

	// [x] -> withdraw: becomes [x, t].
	env, m := testEnv(t, &codec.CompleteServiceAccount{Balance: 1000}, 100)
	hashOff := writeScratch(t, m, 0, hash[:])
	setSlot(env, []uint32{7})
	m.Regs.Set(7, hashOff)
	m.Regs.Set(8, 3)
	env.forget(m)
	require.Equal(t, interpreter.RegOK, m.Regs.Get(7))
	value, _ := accumulate.RequestGet(env.Acc.Current(), 65536, hash[:], 3)
	ts, ok := accumulate.DecodeTimeslots(value)
	require.True(t, ok)
	require.Equal(t, []uint32{7, 100}, ts)

	// [x, y] unexpired -> HUH.
	env, m = testEnv(t, &codec.CompleteServiceAccount{Balance: 1000}, 100)
	hashOff = writeScratch(t, m, 0, hash[:])
	setSlot(env, []uint32{7, 90})
	m.Regs.Set(7, hashOff)
	m.Regs.Set(8, 3)
	env.forget(m)
	require.Equal(t, interpreter.RegHuh, m.Regs.Get(7))

	// [x, y] expired -> deleted.
	env, m = testEnv(t, &codec.CompleteServiceAccount{Balance: 1000}, expunge+100)
	hashOff = writeScratch(t, m, 0, hash[:])
	setSlot(env, []uint32{7, 90})
	m.Regs.Set(7, hashOff)
	m.Regs.Set(8, 3)
	env.forget(m)
	require.Equal(t, interpreter.RegOK, m.Regs.Get(7))
	_, ok = accumulate.RequestGet(env.Acc.Current(), 65536, hash[:], 3)
	require.False(t, ok)

	// [x, y, w] expired -> [w, t].
	env, m = testEnv(t, &codec.CompleteServiceAccount{Balance: 1000}, expunge+100)
	hashOff = writeScratch(t, m, 0, hash[:])
	setSlot(env, []uint32{7, 90, 95})
	m.Regs.Set(7, hashOff)
	m.Regs.Set(8, 3)
	env.forget(m)
	require.Equal(t, interpreter.RegOK, m.Regs.Get(7))
	value, _ = accumulate.RequestGet(env.Acc.Current(), 65536, hash[:], 3)
	ts, _ = accumulate.DecodeTimeslots(value)
	require.Equal(t, []uint32{95, uint32(expunge + 100)}, ts)
}

func TestQueryPacking(t *testing.T) {
	hash := pvmcrypto.Sum256([]byte("q"))
	const two32 = uint64(1) << 32

	cases := []struct {
		ts     []uint32
		r7, r8 uint64
	}{
		{[]uint32{}, 0, 0},
		{[]uint32{5}, 1 + two32*5, 0},
		{[]uint32{5, 9}, 2 + two32*5, 9},
		{[]uint32{5, 9, 11}, 3 + two32*5, 9 + two32*11},
	}
	for _, tc := range cases {
		env, m := testEnv(t, &codec.CompleteServiceAccount{Balance: 1000}, 0)
		accumulate.RequestSet(env.Acc.Current(), 65536, hash[:], 3, accumulate.EncodeTimeslots(tc.ts))
		hashOff := writeScratch(t, m, 0, hash[:])
		m.Regs.Set(7, hashOff)
		m.Regs.Set(8, 3)
		env.query(m)
		require.Equal(t, tc.r7, m.Regs.Get(7), "len %d", len(tc.ts))
		require.Equal(t, tc.r8, m.Regs.Get(8), "len %d", len(tc.ts))
	}

	// Absent slot -> NONE.
	env, m := testEnv(t, &codec.CompleteServiceAccount{Balance: 1000}, 0)
	hashOff := writeScratch(t, m, 0, hash[:])
	m.Regs.Set(7, hashOff)
	m.Regs.Set(8, 3)
	env.query(m)
	require.Equal(t, interpreter.RegNone, m.Regs.Get(7))
}

func TestTransferRecordsDeferredTransfer(t *testing.T) {
	pair := &codec.ImplicationsPair{
		Regular: codec.Implications{
			ServiceID: 1,
			State: codec.PartialState{
				Accounts: []codec.AccountEntry{
					{ServiceID: 1, Account: codec.CompleteServiceAccount{Balance: 1000}},
					{ServiceID: 2, Account: codec.CompleteServiceAccount{MinMemoGas: 5}},
				},
			},
		},
		Exceptional: codec.Implications{ServiceID: 1},
	}
	cfg := smallConfig()
	env := &Env{Acc: accumulate.NewContext(pair, cfg, 0), Config: cfg}
	m := testMachine(t)

	memo := make([]byte, accumulate.MemoSize)
	copy(memo, "hi")
	memoOff := writeScratch(t, m, 0, memo)

	gasBefore := m.Gas
	m.Regs.Set(7, 2)
	m.Regs.Set(8, 200)
	m.Regs.Set(9, 10)
	m.Regs.Set(10, memoOff)
	env.transfer(m)

	require.Equal(t, interpreter.RegOK, m.Regs.Get(7))
	require.Equal(t, uint64(800), env.Acc.Accounts[1].Balance)
	require.Equal(t, gasBefore-10, m.Gas)
	require.Len(t, env.Acc.Xfers, 1)
	x := env.Acc.Xfers[0]
	require.Equal(t, uint32(1), x.Source)
	require.Equal(t, uint32(2), x.Dest)
	require.Equal(t, uint64(200), x.Amount)
	require.Equal(t, uint64(10), x.GasLimit)
	require.Equal(t, memo, x.Memo[:])

	// Gas limit below the destination's minimum memo gas.
	m.Regs.Set(7, 2)
	m.Regs.Set(8, 1)
	m.Regs.Set(9, 4)
	m.Regs.Set(10, memoOff)
	env.transfer(m)
	require.Equal(t, interpreter.RegLow, m.Regs.Get(7))

	// Unknown destination.
	m.Regs.Set(7, 99)
	m.Regs.Set(8, 1)
	m.Regs.Set(9, 10)
	m.Regs.Set(10, memoOff)
	env.transfer(m)
	require.Equal(t, interpreter.RegWho, m.Regs.Get(7))

	// Amount beyond the balance.
	m.Regs.Set(7, 2)
	m.Regs.Set(8, 10_000)
	m.Regs.Set(9, 10)
	m.Regs.Set(10, memoOff)
	env.transfer(m)
	require.Equal(t, interpreter.RegCash, m.Regs.Get(7))
}

func TestNewServiceAllocation(t *testing.T) {
	env, m := testEnv(t, &codec.CompleteServiceAccount{Balance: 10_000}, 42)
	codeHash := pvmcrypto.Sum256([]byte("code"))
	hashOff := writeScratch(t, m, 0, codeHash[:])

	m.Regs.Set(7, hashOff)
	m.Regs.Set(8, 100) // expected code length
	m.Regs.Set(9, 7)
	m.Regs.Set(10, 8)
	m.Regs.Set(11, 0)
	m.Regs.Set(12, 0)
	env.newService(m)

	newID := m.Regs.Get(7)
	require.Equal(t, uint64(65537), newID) // nextfreeid from the fixture
	account := env.Acc.Accounts[newID]
	require.NotNil(t, account)
	require.Equal(t, uint32(2), account.Items)
	require.Equal(t, uint64(81+100), account.Octets)
	require.Equal(t, codeHash[:], account.CodeHash[:])
	require.Equal(t, uint32(42), account.Created)
	require.Equal(t, uint32(65536), account.Parent)
	require.Equal(t, accumulate.MinBalance(2, 181, 0), account.Balance)
	// Caller paid the endowment.
	require.Equal(t, uint64(10_000)-account.Balance, env.Acc.Current().Balance)
	// The seeded request slot is an empty timeslot list.
	value, ok := accumulate.RequestGet(account, uint32(newID), codeHash[:], 100)
	require.True(t, ok)
	require.Empty(t, value)
	// nextfreeid advanced by the +42 step.
	require.Equal(t, uint32(65537+42), env.Acc.NextFreeID)
}

func TestNewServiceInsufficientFunds(t *testing.T) {
	env, m := testEnv(t, &codec.CompleteServiceAccount{Balance: 10}, 0)
	codeHash := pvmcrypto.Sum256([]byte("code"))
	hashOff := writeScratch(t, m, 0, codeHash[:])
	m.Regs.Set(7, hashOff)
	m.Regs.Set(8, 100)
	env.newService(m)
	require.Equal(t, interpreter.RegCash, m.Regs.Get(7))
}

func TestNewServiceGratisRequiresManager(t *testing.T) {
	env, m := testEnv(t, &codec.CompleteServiceAccount{Balance: 10_000}, 0)
	codeHash := pvmcrypto.Sum256([]byte("code"))
	hashOff := writeScratch(t, m, 0, codeHash[:])
	m.Regs.Set(7, hashOff)
	m.Regs.Set(8, 10)
	m.Regs.Set(11, 50) // gratis without being manager
	env.newService(m)
	require.Equal(t, interpreter.RegHuh, m.Regs.Get(7))
}

func TestCheckpointSnapshotsAfterReturn(t *testing.T) {
	env, m := testEnv(t, &codec.CompleteServiceAccount{Balance: 777}, 0)
	table := Table(env)

	before := env.Acc.ExceptionalEncoded()
	out := table[FuncCheckpoint](m)
	require.Equal(t, interpreter.StatusOk, out.Status)
	require.Equal(t, m.Gas, m.Regs.Get(7))
	require.False(t, env.Acc.CheckpointRequested)

	after := env.Acc.ExceptionalEncoded()
	require.NotEqual(t, before, after)
	reg := env.Acc.BuildRegular()
	require.Equal(t, reg.Encode(), after)
}

func TestBlessInstallsPrivilegedServices(t *testing.T) {
	env, m := testEnv(t, &codec.CompleteServiceAccount{Balance: 1000}, 0)

	assigners := make([]byte, 8)
	binary.LittleEndian.PutUint32(assigners[0:], 11)
	binary.LittleEndian.PutUint32(assigners[4:], 12)
	assignersOff := writeScratch(t, m, 0, assigners)

	accessor := make([]byte, 12)
	binary.LittleEndian.PutUint32(accessor[0:], 9)
	binary.LittleEndian.PutUint64(accessor[4:], 5000)
	accessorsOff := writeScratch(t, m, 64, accessor)

	m.Regs.Set(7, 1)
	m.Regs.Set(8, assignersOff)
	m.Regs.Set(9, 2)
	m.Regs.Set(10, 3)
	m.Regs.Set(11, accessorsOff)
	m.Regs.Set(12, 1)
	env.bless(m)

	require.Equal(t, interpreter.RegOK, m.Regs.Get(7))
	state := env.Acc.State
	require.Equal(t, uint32(1), state.Manager)
	require.Equal(t, uint32(2), state.Delegator)
	require.Equal(t, uint32(3), state.Registrar)
	require.Equal(t, []uint32{11, 12}, state.Assigners)
	require.Equal(t, []codec.AlwaysAccerEntry{{ServiceID: 9, Gas: 5000}}, state.AlwaysAccers)
}

func TestBlessRejectsOverflowingServiceID(t *testing.T) {
	env, m := testEnv(t, &codec.CompleteServiceAccount{Balance: 1000}, 0)
	assignersOff := writeScratch(t, m, 0, make([]byte, 8))
	m.Regs.Set(7, uint64(1)<<32)
	m.Regs.Set(8, assignersOff)
	m.Regs.Set(11, assignersOff)
	m.Regs.Set(12, 0)
	env.bless(m)
	require.Equal(t, interpreter.RegWho, m.Regs.Get(7))
}

func TestAssignRequiresCurrentAssigner(t *testing.T) {
	env, m := testEnv(t, &codec.CompleteServiceAccount{Balance: 1000}, 0)
	queueOff := writeScratch(t, m, 0, make([]byte, 2*32))

	m.Regs.Set(7, 0)
	m.Regs.Set(8, queueOff)
	m.Regs.Set(9, 70000)
	env.assign(m)
	require.Equal(t, interpreter.RegHuh, m.Regs.Get(7))

	// Install the caller as core 0's assigner and retry.
	env.Acc.State.Assigners = []uint32{65536, 0}
	queue := make([]byte, 2*32)
	queue[0] = 0xAB
	queueOff = writeScratch(t, m, 0, queue)
	m.Regs.Set(7, 0)
	m.Regs.Set(8, queueOff)
	m.Regs.Set(9, 70000)
	env.assign(m)
	require.Equal(t, interpreter.RegOK, m.Regs.Get(7))
	require.Equal(t, uint32(70000), env.Acc.State.Assigners[0])
	require.Equal(t, byte(0xAB), env.Acc.State.AuthQueue[0][0][0])

	// Core out of range.
	m.Regs.Set(7, 5)
	m.Regs.Set(8, queueOff)
	m.Regs.Set(9, 70000)
	env.assign(m)
	require.Equal(t, interpreter.RegCore, m.Regs.Get(7))
}

func TestDesignateRequiresDelegator(t *testing.T) {
	env, m := testEnv(t, &codec.CompleteServiceAccount{Balance: 1000}, 0)
	data := make([]byte, accumulate.ValidatorKeySize)
	data[0] = 0xCD
	off := writeScratch(t, m, 0, data)

	m.Regs.Set(7, off)
	env.designate(m)
	require.Equal(t, interpreter.RegHuh, m.Regs.Get(7))

	env.Acc.State.Delegator = 65536
	m.Regs.Set(7, off)
	env.designate(m)
	require.Equal(t, interpreter.RegOK, m.Regs.Get(7))
	require.Len(t, env.Acc.State.StagingSet, 1)
	require.Equal(t, byte(0xCD), env.Acc.State.StagingSet[0][0])
}

func TestEjectExpiredService(t *testing.T) {
	hash := pvmcrypto.Sum256([]byte("ejectable"))
	expunge := uint64(smallConfig().PreimageExpungePeriod)

	var targetCodeHash [32]byte
	binary.LittleEndian.PutUint32(targetCodeHash[:4], 1) // caller id 1

	target := codec.CompleteServiceAccount{
		CodeHash: targetCodeHash,
		Balance:  500,
		Items:    2,
		Octets:   accumulate.RequestOctetsBase + 3,
	}
	accumulate.RequestSet(&target, 2, hash[:], 3, accumulate.EncodeTimeslots([]uint32{5, 9}))

	pair := &codec.ImplicationsPair{
		Regular: codec.Implications{
			ServiceID: 1,
			State: codec.PartialState{
				Accounts: []codec.AccountEntry{
					{ServiceID: 1, Account: codec.CompleteServiceAccount{Balance: 1000}},
					{ServiceID: 2, Account: target},
				},
			},
		},
		Exceptional: codec.Implications{ServiceID: 1},
	}
	cfg := smallConfig()
	env := &Env{Acc: accumulate.NewContext(pair, cfg, expunge+100), Config: cfg}
	m := testMachine(t)
	hashOff := writeScratch(t, m, 0, hash[:])

	m.Regs.Set(7, 2)
	m.Regs.Set(8, hashOff)
	env.eject(m)
	require.Equal(t, interpreter.RegOK, m.Regs.Get(7))
	require.Nil(t, env.Acc.Accounts[2])
	require.Equal(t, uint64(1500), env.Acc.Accounts[1].Balance)
}

func TestProvideAndYield(t *testing.T) {
	preimage := []byte("the preimage")
	hash := pvmcrypto.Sum256(preimage)

	account := codec.CompleteServiceAccount{Balance: 1000}
	accumulate.RequestSet(&account, 65536, hash[:], uint64(len(preimage)), accumulate.EncodeTimeslots(nil))
	env, m := testEnv(t, &account, 0)

	preOff := writeScratch(t, m, 0, preimage)
	m.Regs.Set(7, interpreter.RegNone) // self
	m.Regs.Set(8, preOff)
	m.Regs.Set(9, uint64(len(preimage)))
	env.provide(m)
	require.Equal(t, interpreter.RegOK, m.Regs.Get(7))
	require.Len(t, env.Acc.Provisions, 1)
	require.Equal(t, preimage, env.Acc.Provisions[0].Blob)

	// Duplicate provision is rejected.
	m.Regs.Set(7, interpreter.RegNone)
	m.Regs.Set(8, preOff)
	m.Regs.Set(9, uint64(len(preimage)))
	env.provide(m)
	require.Equal(t, interpreter.RegHuh, m.Regs.Get(7))

	// YIELD records the commitment hash.
	yieldHash := pvmcrypto.Sum256([]byte("commitment"))
	yieldOff := writeScratch(t, m, 64, yieldHash[:])
	m.Regs.Set(7, yieldOff)
	env.yield(m)
	require.Equal(t, interpreter.RegOK, m.Regs.Get(7))
	require.NotNil(t, env.Acc.YieldHash)
	require.Equal(t, yieldHash[:], env.Acc.YieldHash[:])
}

func TestGasHost(t *testing.T) {
	env, m := testEnv(t, &codec.CompleteServiceAccount{Balance: 1}, 0)
	env.gas(m)
	require.Equal(t, m.Gas, m.Regs.Get(7))
}

func TestFetchConstantsBlock(t *testing.T) {
	env, m := testEnv(t, &codec.CompleteServiceAccount{Balance: 1}, 0)
	outOff := uint64(scratchBase)
	m.Regs.Set(7, outOff)
	m.Regs.Set(8, 0)
	m.Regs.Set(9, systemConstantsLen)
	m.Regs.Set(10, fetchConstants)
	env.fetch(m)
	require.Equal(t, uint64(systemConstantsLen), m.Regs.Get(7))

	data, err := m.RAM.ReadOctets(uint32(outOff), systemConstantsLen)
	require.NoError(t, err)
	require.Equal(t, accumulate.ItemDeposit, binary.LittleEndian.Uint64(data[0:8]))
	require.Equal(t, accumulate.ByteDeposit, binary.LittleEndian.Uint64(data[8:16]))
	require.Equal(t, accumulate.BaseDeposit, binary.LittleEndian.Uint64(data[16:24]))
	require.Equal(t, uint16(2), binary.LittleEndian.Uint16(data[24:26])) // cores
}

func TestFetchUnconfiguredSelectorYieldsNone(t *testing.T) {
	env, m := testEnv(t, &codec.CompleteServiceAccount{Balance: 1}, 0)
	m.Regs.Set(10, fetchEntropy)
	env.fetch(m)
	require.Equal(t, interpreter.RegNone, m.Regs.Get(7))
}

func TestInfoSummary(t *testing.T) {
	account := codec.CompleteServiceAccount{
		Balance:    900,
		MinAccGas:  7,
		MinMemoGas: 3,
		Octets:     50,
		Items:      4,
		Gratis:     20,
		Created:    1,
		LastAcc:    2,
		Parent:     3,
	}
	env, m := testEnv(t, &account, 0)
	outOff := uint64(scratchBase)
	m.Regs.Set(7, interpreter.RegNone)
	m.Regs.Set(8, outOff)
	m.Regs.Set(9, 0)
	m.Regs.Set(10, infoLen)
	env.info(m)
	require.Equal(t, uint64(infoLen), m.Regs.Get(7))

	data, err := m.RAM.ReadOctets(uint32(outOff), infoLen)
	require.NoError(t, err)
	require.Equal(t, uint64(900), binary.LittleEndian.Uint64(data[32:40]))
	require.Equal(t, accumulate.AccountMinBalance(&account), binary.LittleEndian.Uint64(data[40:48]))
	require.Equal(t, uint32(4), binary.LittleEndian.Uint32(data[72:76]))
	require.Equal(t, uint32(3), binary.LittleEndian.Uint32(data[92:96]))
}

func TestHistoricalLookupGating(t *testing.T) {
	preimage := []byte("hist")
	hash := pvmcrypto.Sum256(preimage)

	account := codec.CompleteServiceAccount{Balance: 1000}
	accumulate.PreimageSet(&account, 65536, hash[:], preimage)
	accumulate.RequestSet(&account, 65536, hash[:], uint64(len(preimage)),
		accumulate.EncodeTimeslots([]uint32{10, 20}))

	run := func(at uint64) uint64 {
		env, m := testEnv(t, &account, 0)
		ts := at
		env.LookupTimeslot = &ts
		hashOff := writeScratch(t, m, 0, hash[:])
		m.Regs.Set(7, interpreter.RegNone)
		m.Regs.Set(8, hashOff)
		m.Regs.Set(9, scratchBase+64)
		m.Regs.Set(10, 0)
		m.Regs.Set(11, uint64(len(preimage)))
		env.historicalLookup(m)
		return m.Regs.Get(7)
	}

	require.Equal(t, uint64(len(preimage)), run(15)) // inside [10, 20)
	require.Equal(t, interpreter.RegNone, run(5))    // before availability
	require.Equal(t, interpreter.RegNone, run(25))   // after withdrawal
}

func TestLookupPreimage(t *testing.T) {
	preimage := []byte("blobby")
	hash := pvmcrypto.Sum256(preimage)
	account := codec.CompleteServiceAccount{Balance: 1000}
	accumulate.PreimageSet(&account, 65536, hash[:], preimage)

	env, m := testEnv(t, &account, 0)
	hashOff := writeScratch(t, m, 0, hash[:])
	outOff := uint64(scratchBase + 64)
	m.Regs.Set(7, interpreter.RegNone)
	m.Regs.Set(8, hashOff)
	m.Regs.Set(9, outOff)
	m.Regs.Set(10, 2)
	m.Regs.Set(11, 3)
	env.lookup(m)
	require.Equal(t, uint64(len(preimage)), m.Regs.Get(7))
	data, err := m.RAM.ReadOctets(uint32(outOff), 3)
	require.NoError(t, err)
	require.Equal(t, []byte("obb"), data)
}

func TestLogIsFaultTolerant(t *testing.T) {
	var got string
	env, m := testEnv(t, &codec.CompleteServiceAccount{Balance: 1}, 0)
	env.Log = func(level uint64, target, message string) { got = message }

	msgOff := writeScratch(t, m, 0, []byte("hello"))
	m.Regs.Set(7, 2)
	m.Regs.Set(8, 0)
	m.Regs.Set(9, 0)
	m.Regs.Set(10, msgOff)
	m.Regs.Set(11, 5)
	out := env.log(m)
	require.Equal(t, interpreter.StatusOk, out.Status)
	require.Equal(t, "hello", got)

	// Unreadable message range: continue with no side effect.
	got = ""
	m.Regs.Set(10, 0x10)
	m.Regs.Set(11, 5)
	out = env.log(m)
	require.Equal(t, interpreter.StatusOk, out.Status)
	require.Empty(t, got)
}

func TestRefineStubsWithoutContext(t *testing.T) {
	env, m := testEnv(t, &codec.CompleteServiceAccount{Balance: 1}, 0)
	require.Equal(t, interpreter.StatusPanic, env.refinePeek(m).Status)
	require.Equal(t, interpreter.StatusPanic, env.refineInvoke(m).Status)
	out := env.refineExpunge(m)
	require.Equal(t, interpreter.StatusHalt, out.Status)
	require.Equal(t, interpreter.RegWho, m.Regs.Get(7))
}
