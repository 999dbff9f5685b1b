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

package accumulate

import (
	"fmt"
	"sort"

	"github.com/Esscrypt/peanutbutterandjam/codec"
)

// Context is the transactional bookkeeping of one accumulation
// invocation: the mutable account ledger, the partial state the privileged
// hosts rewrite, pending transfers and provisions, the optional yield hash,
// and the exceptional checkpoint snapshot.
type Context struct {
	ServiceID  uint64
	Accounts   map[uint64]*codec.CompleteServiceAccount
	NextFreeID uint32
	State      codec.PartialState

	Timeslot uint64
	Config   *Config

	Xfers      []codec.DeferredTransfer
	Provisions []codec.ProvisionEntry
	YieldHash  *[32]byte

	// CheckpointRequested is set by the CHECKPOINT host; the dispatcher
	// applies the snapshot after the host call returns control to the VM.
	CheckpointRequested bool

	// exceptional holds the encoded checkpoint snapshot. It starts as the
	// supplied pair's exceptional half and is overwritten on CHECKPOINT.
	exceptional []byte
}

// NewContext builds a Context from a decoded implications pair.
func NewContext(pair *codec.ImplicationsPair, cfg *Config, timeslot uint64) *Context {
	reg := &pair.Regular
	accounts := make(map[uint64]*codec.CompleteServiceAccount, len(reg.State.Accounts))
	for i := range reg.State.Accounts {
		e := &reg.State.Accounts[i]
		if _, ok := accounts[uint64(e.ServiceID)]; !ok {
			a := e.Account
			accounts[uint64(e.ServiceID)] = &a
		}
	}
	return &Context{
		ServiceID:   uint64(reg.ServiceID),
		Accounts:    accounts,
		NextFreeID:  reg.NextFreeID,
		State:       reg.State,
		Timeslot:    timeslot,
		Config:      cfg,
		Xfers:       append([]codec.DeferredTransfer(nil), reg.Transfers...),
		Provisions:  append([]codec.ProvisionEntry(nil), reg.Provisions...),
		YieldHash:   reg.YieldHash,
		exceptional: pair.Exceptional.Encode(),
	}
}

// Current returns the invoking service's account, or nil if it is not in
// the ledger.
func (c *Context) Current() *codec.CompleteServiceAccount {
	return c.Accounts[c.ServiceID]
}

// BuildRegular assembles the regular implication from the live ledger:
// accounts re-serialized in ascending id order, pending transfers, provisions and yield attached.
func (c *Context) BuildRegular() codec.Implications {
	state := c.State
	ids := make([]uint64, 0, len(c.Accounts))
	for id := range c.Accounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	state.Accounts = make([]codec.AccountEntry, 0, len(ids))
	for _, id := range ids {
		state.Accounts = append(state.Accounts, codec.AccountEntry{
			ServiceID: uint32(id),
			Account:   *c.Accounts[id],
		})
	}
	return codec.Implications{
		ServiceID:  uint32(c.ServiceID),
		State:      state,
		NextFreeID: c.NextFreeID,
		Transfers:  c.Xfers,
		YieldHash:  c.YieldHash,
		Provisions: c.Provisions,
	}
}

// ApplyCheckpoint copies the current regular implication over the
// exceptional snapshot. Called by the host dispatcher after CHECKPOINT
// returns, not inside it, so the snapshot observes the completed host call.
func (c *Context) ApplyCheckpoint() {
	reg := c.BuildRegular()
	c.exceptional = reg.Encode()
	c.CheckpointRequested = false
}

// Finalize encodes the implications pair: the live regular state plus the
// last checkpoint.
func (c *Context) Finalize() []byte {
	reg := c.BuildRegular()
	out := reg.Encode()
	return append(out, c.exceptional...)
}

// ExceptionalEncoded returns the current checkpoint snapshot bytes.
func (c *Context) ExceptionalEncoded() []byte {
	return append([]byte(nil), c.exceptional...)
}

// AllocateServiceID reserves a fresh public service id. The probe sequence
// over the public-id space is deterministic: the candidate is the current
// nextfreeid stepped past collisions by +1, and nextfreeid then advances by
// +42 (again stepping collisions), both mod 2^32 - 2^8 - MinPublicIndex.
func (c *Context) AllocateServiceID() uint64 {
	id := c.probeFree(uint64(c.NextFreeID))
	next := c.probeFree(stepPublicID(id, 42))
	c.NextFreeID = uint32(next)
	return id
}

func (c *Context) probeFree(candidate uint64) uint64 {
	for {
		if _, taken := c.Accounts[candidate]; !taken {
			return candidate
		}
		candidate = stepPublicID(candidate, 1)
	}
}

// stepPublicID advances id by step within the public-id ring.
func stepPublicID(id uint64, step uint64) uint64 {
	minPub := uint64(MinPublicIndex)
	modulus := uint64(1)<<32 - 256 - minPub
	return minPub + (id-minPub+step)%modulus
}

// String implements fmt.Stringer for trace output.
func (c *Context) String() string {
	return fmt.Sprintf("accumulate.Context{service=%d accounts=%d nextfree=%d xfers=%d provisions=%d}",
		c.ServiceID, len(c.Accounts), c.NextFreeID, len(c.Xfers), len(c.Provisions))
}
