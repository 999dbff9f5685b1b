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

package codec

// DeferredTransfer is source[4] || dest[4] || amount[8] || memo[128] || gasLimit[8].
type DeferredTransfer struct {
	Source   uint32
	Dest     uint32
	Amount   uint64
	Memo     [128]byte
	GasLimit uint64
}

func (t *DeferredTransfer) Encode() []byte {
	out := EncodeFixed(uint64(t.Source), 4)
	out = append(out, EncodeFixed(uint64(t.Dest), 4)...)
	out = append(out, EncodeFixed(t.Amount, 8)...)
	out = append(out, t.Memo[:]...)
	out = append(out, EncodeFixed(t.GasLimit, 8)...)
	return out
}

func DecodeDeferredTransfer(b []byte) (*DeferredTransfer, int, error) {
	if len(b) < 4+4+8+128+8 {
		return nil, 0, ErrTruncated
	}
	t := &DeferredTransfer{}
	off := 0
	src, _ := DecodeFixed(b[off:], 4)
	t.Source = uint32(src)
	off += 4
	dst, _ := DecodeFixed(b[off:], 4)
	t.Dest = uint32(dst)
	off += 4
	amt, _ := DecodeFixed(b[off:], 8)
	t.Amount = amt
	off += 8
	copy(t.Memo[:], b[off:off+128])
	off += 128
	gl, _ := DecodeFixed(b[off:], 8)
	t.GasLimit = gl
	off += 8
	return t, off, nil
}

// ProvisionEntry is serviceId[4] || var{blob}.
type ProvisionEntry struct {
	ServiceID uint32
	Blob      []byte
}

func (p *ProvisionEntry) Encode() []byte {
	out := EncodeFixed(uint64(p.ServiceID), 4)
	return append(out, EncodeVarTerm(p.Blob)...)
}

func DecodeProvisionEntry(b []byte) (*ProvisionEntry, int, error) {
	id, err := DecodeFixed(b, 4)
	if err != nil {
		return nil, 0, err
	}
	blob, n, err := DecodeVarTerm(b[4:])
	if err != nil {
		return nil, 0, err
	}
	return &ProvisionEntry{ServiceID: uint32(id), Blob: blob}, 4 + n, nil
}

// AlwaysAccerEntry is one always-accessor: a service id granted a standing
// accumulation gas allowance. On the wire it is serviceId[4] || gas[8], the
// same 12-byte shape BLESS reads from guest memory.
type AlwaysAccerEntry struct {
	ServiceID uint32
	Gas       uint64
}

// ValidatorKey is a 336-byte validator key bundle (opaque to the engine
// beyond its fixed width: bandersnatch/ed25519/bls/metadata keys packed by
// the higher layer).
type ValidatorKey [336]byte

// CoreAuthQueue is one core's authorization queue: up to CAuthQueueSize
// 32-byte authorizer hashes.
type CoreAuthQueue [][32]byte

// PartialState is the global accumulation-relevant slice of state threaded
// through an implication: manager/delegator/registrar/
// assigners/always-accessors, the validator staging set, the per-core
// authorization queue, and the account ledger.
//
// Field order on the wire: manager, assigners, delegator, registrar,
// alwaysaccers, authqueue, stagingset, accounts.
type PartialState struct {
	Manager      uint32
	Assigners    []uint32 // per-core assigner service id
	Delegator    uint32
	Registrar    uint32
	AlwaysAccers []AlwaysAccerEntry
	AuthQueue    []CoreAuthQueue // per-core queue, outer length = numCores
	StagingSet   []ValidatorKey
	Accounts     []AccountEntry // must be ascending by ServiceID on encode
}

func (s *PartialState) Encode() []byte {
	out := EncodeFixed(uint64(s.Manager), 4)
	out = append(out, EncodeVarSeq(len(s.Assigners), func(i int) []byte {
		return EncodeFixed(uint64(s.Assigners[i]), 4)
	})...)
	out = append(out, EncodeFixed(uint64(s.Delegator), 4)...)
	out = append(out, EncodeFixed(uint64(s.Registrar), 4)...)
	out = append(out, EncodeVarSeq(len(s.AlwaysAccers), func(i int) []byte {
		b := EncodeFixed(uint64(s.AlwaysAccers[i].ServiceID), 4)
		return append(b, EncodeFixed(s.AlwaysAccers[i].Gas, 8)...)
	})...)
	out = append(out, EncodeVarSeq(len(s.AuthQueue), func(i int) []byte {
		q := s.AuthQueue[i]
		return EncodeVarSeq(len(q), func(j int) []byte { return q[j][:] })
	})...)
	out = append(out, EncodeVarSeq(len(s.StagingSet), func(i int) []byte {
		return s.StagingSet[i][:]
	})...)
	out = append(out, EncodeVarSeq(len(s.Accounts), func(i int) []byte {
		return s.Accounts[i].Encode()
	})...)
	return out
}

func DecodePartialState(b []byte) (*PartialState, int, error) {
	s := &PartialState{}
	off := 0
	mgr, err := DecodeFixed(b, 4)
	if err != nil {
		return nil, 0, err
	}
	s.Manager = uint32(mgr)
	off += 4

	n, err := decodeVarSeqInto(b[off:], func(buf []byte, i int) (int, error) {
		v, err := DecodeFixed(buf, 4)
		if err != nil {
			return 0, err
		}
		s.Assigners = append(s.Assigners, uint32(v))
		return 4, nil
	})
	if err != nil {
		return nil, 0, err
	}
	off += n

	del, err := DecodeFixed(b[off:], 4)
	if err != nil {
		return nil, 0, err
	}
	s.Delegator = uint32(del)
	off += 4

	reg, err := DecodeFixed(b[off:], 4)
	if err != nil {
		return nil, 0, err
	}
	s.Registrar = uint32(reg)
	off += 4

	n, err = decodeVarSeqInto(b[off:], func(buf []byte, i int) (int, error) {
		id, err := DecodeFixed(buf, 4)
		if err != nil {
			return 0, err
		}
		gas, err := DecodeFixed(buf[4:], 8)
		if err != nil {
			return 0, err
		}
		s.AlwaysAccers = append(s.AlwaysAccers, AlwaysAccerEntry{ServiceID: uint32(id), Gas: gas})
		return 12, nil
	})
	if err != nil {
		return nil, 0, err
	}
	off += n

	n, err = decodeVarSeqInto(b[off:], func(buf []byte, i int) (int, error) {
		var q CoreAuthQueue
		m, err := decodeVarSeqInto(buf, func(inner []byte, j int) (int, error) {
			if len(inner) < 32 {
				return 0, ErrTruncated
			}
			var h [32]byte
			copy(h[:], inner[:32])
			q = append(q, h)
			return 32, nil
		})
		if err != nil {
			return 0, err
		}
		s.AuthQueue = append(s.AuthQueue, q)
		return m, nil
	})
	if err != nil {
		return nil, 0, err
	}
	off += n

	n, err = decodeVarSeqInto(b[off:], func(buf []byte, i int) (int, error) {
		if len(buf) < 336 {
			return 0, ErrTruncated
		}
		var v ValidatorKey
		copy(v[:], buf[:336])
		s.StagingSet = append(s.StagingSet, v)
		return 336, nil
	})
	if err != nil {
		return nil, 0, err
	}
	off += n

	n, err = decodeVarSeqInto(b[off:], func(buf []byte, i int) (int, error) {
		e, m, err := DecodeAccountEntry(buf)
		if err != nil {
			return 0, err
		}
		s.Accounts = append(s.Accounts, *e)
		return m, nil
	})
	if err != nil {
		return nil, 0, err
	}
	off += n

	return s, off, nil
}

// decodeVarSeqInto is DecodeVarSeq with a closure signature that matches
// this file's call sites (kept distinct from DecodeVarSeq's public name so
// callers elsewhere aren't tempted to rely on element accumulation order).
func decodeVarSeqInto(b []byte, dec func(b []byte, i int) (int, error)) (int, error) {
	return DecodeVarSeq(b, dec)
}

// Implications bundles the service id, partial state, next-free-id
// counter, pending transfers, optional yield hash and provisions.
type Implications struct {
	ServiceID  uint32
	State      PartialState
	NextFreeID uint32
	Transfers  []DeferredTransfer
	YieldHash  *[32]byte
	Provisions []ProvisionEntry
}

func (im *Implications) Encode() []byte {
	out := EncodeFixed(uint64(im.ServiceID), 4)
	out = append(out, im.State.Encode()...)
	out = append(out, EncodeFixed(uint64(im.NextFreeID), 4)...)
	out = append(out, EncodeVarSeq(len(im.Transfers), func(i int) []byte {
		return im.Transfers[i].Encode()
	})...)
	if im.YieldHash != nil {
		out = append(out, 0x01)
		out = append(out, im.YieldHash[:]...)
	} else {
		out = append(out, 0x00)
	}
	out = append(out, EncodeVarSeq(len(im.Provisions), func(i int) []byte {
		return im.Provisions[i].Encode()
	})...)
	return out
}

func DecodeImplications(b []byte) (*Implications, int, error) {
	im := &Implications{}
	off := 0
	id, err := DecodeFixed(b, 4)
	if err != nil {
		return nil, 0, err
	}
	im.ServiceID = uint32(id)
	off += 4

	state, n, err := DecodePartialState(b[off:])
	if err != nil {
		return nil, 0, err
	}
	im.State = *state
	off += n

	nfid, err := DecodeFixed(b[off:], 4)
	if err != nil {
		return nil, 0, err
	}
	im.NextFreeID = uint32(nfid)
	off += 4

	n, err = decodeVarSeqInto(b[off:], func(buf []byte, i int) (int, error) {
		t, m, err := DecodeDeferredTransfer(buf)
		if err != nil {
			return 0, err
		}
		im.Transfers = append(im.Transfers, *t)
		return m, nil
	})
	if err != nil {
		return nil, 0, err
	}
	off += n

	if off >= len(b) {
		return nil, 0, ErrTruncated
	}
	switch b[off] {
	case 0x00:
		off++
	case 0x01:
		off++
		if len(b) < off+32 {
			return nil, 0, ErrTruncated
		}
		var h [32]byte
		copy(h[:], b[off:off+32])
		im.YieldHash = &h
		off += 32
	default:
		return nil, 0, ErrInvalidPrefix
	}

	n, err = decodeVarSeqInto(b[off:], func(buf []byte, i int) (int, error) {
		p, m, err := DecodeProvisionEntry(buf)
		if err != nil {
			return 0, err
		}
		im.Provisions = append(im.Provisions, *p)
		return m, nil
	})
	if err != nil {
		return nil, 0, err
	}
	off += n

	return im, off, nil
}

// ImplicationsPair is the two-snapshot transactional value (regular,
// exceptional): on panic the caller restores exceptional, on success it
// publishes regular.
type ImplicationsPair struct {
	Regular     Implications
	Exceptional Implications
}

func (p *ImplicationsPair) Encode() []byte {
	out := p.Regular.Encode()
	return append(out, p.Exceptional.Encode()...)
}

func DecodeImplicationsPair(b []byte) (*ImplicationsPair, int, error) {
	reg, n1, err := DecodeImplications(b)
	if err != nil {
		return nil, 0, err
	}
	exc, n2, err := DecodeImplications(b[n1:])
	if err != nil {
		return nil, 0, err
	}
	return &ImplicationsPair{Regular: *reg, Exceptional: *exc}, n1 + n2, nil
}
