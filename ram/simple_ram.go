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

package ram

// MaxSimpleRAMBytes bounds SimpleRAM's backing buffer growth. A contiguous
// backend that grows on every write invites pathological argument-range
// writes; past the cap a write faults instead of allocating.
const MaxSimpleRAMBytes = 64 << 20

// SimpleRAM is a contiguous-buffer RAM used for simple blob runs (no region
// layout; access rights are kept per page, as in PvmRAM).
type SimpleRAM struct {
	buf    []byte
	access map[uint32]AccessMode

	heapPointer uint32

	lastLoadAddr   uint32
	lastLoadValue  uint64
	lastStoreAddr  uint32
	lastStoreValue uint64
}

func NewSimpleRAM() *SimpleRAM {
	return &SimpleRAM{access: make(map[uint32]AccessMode)}
}

func (r *SimpleRAM) ensure(size uint32) error {
	if uint64(size) > MaxSimpleRAMBytes {
		return &FaultError{FaultAddress: pageBase(uint32(MaxSimpleRAMBytes))}
	}
	if uint32(len(r.buf)) < size {
		grown := make([]byte, alignUpPage(size))
		copy(grown, r.buf)
		r.buf = grown
	}
	return nil
}

func (r *SimpleRAM) checkRange(addr, length uint32, required AccessMode) error {
	if length == 0 {
		return nil
	}
	start := pageIndex(addr)
	numPages := (addr%PageSize + length + PageSize - 1) / PageSize
	for i := uint32(0); i < numPages; i++ {
		idx := start + i
		mode := r.access[idx]
		ok := false
		switch required {
		case Read:
			ok = mode == Read || mode == Write
		case Write:
			ok = mode == Write
		}
		if !ok {
			return &FaultError{FaultAddress: idx * PageSize}
		}
	}
	return nil
}

func (r *SimpleRAM) IsReadable(addr, length uint32) bool {
	return r.checkRange(addr, length, Read) == nil
}
func (r *SimpleRAM) IsWritable(addr, length uint32) bool {
	return r.checkRange(addr, length, Write) == nil
}

func (r *SimpleRAM) ReadOctets(addr, length uint32) ([]byte, error) {
	if err := r.checkRange(addr, length, Read); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	if uint32(len(r.buf)) >= addr+length {
		copy(out, r.buf[addr:addr+length])
	} else if uint32(len(r.buf)) > addr {
		copy(out, r.buf[addr:])
	}
	r.lastLoadAddr = addr
	r.lastLoadValue = le8(out)
	return out, nil
}

func (r *SimpleRAM) WriteOctets(addr uint32, data []byte) error {
	if err := r.checkRange(addr, uint32(len(data)), Write); err != nil {
		return err
	}
	if err := r.ensure(addr + uint32(len(data))); err != nil {
		return err
	}
	copy(r.buf[addr:addr+uint32(len(data))], data)
	r.lastStoreAddr = addr
	r.lastStoreValue = le8(data)
	return nil
}

func (r *SimpleRAM) WriteOctetsDuringInitialization(addr uint32, data []byte) {
	_ = r.ensure(addr + uint32(len(data)))
	if uint32(len(r.buf)) >= addr+uint32(len(data)) {
		copy(r.buf[addr:addr+uint32(len(data))], data)
	}
}

func (r *SimpleRAM) InitPage(addr, length uint32, access AccessMode) error {
	return r.SetPageAccessRights(addr, length, access)
}

func (r *SimpleRAM) SetPageAccessRights(addr, length uint32, access AccessMode) error {
	if length == 0 {
		return nil
	}
	start := pageIndex(addr)
	numPages := (addr%PageSize + length + PageSize - 1) / PageSize
	for i := uint32(0); i < numPages; i++ {
		r.access[start+i] = access
	}
	if err := r.ensure(alignUpPage(addr + length)); err != nil {
		return err
	}
	return nil
}

func (r *SimpleRAM) AllocatePages(startPage, count uint32) error {
	if err := r.SetPageAccessRights(startPage*PageSize, count*PageSize, Write); err != nil {
		return err
	}
	end := (startPage + count) * PageSize
	if end > r.heapPointer {
		if end > MaxAddress {
			end = MaxAddress
		}
		r.heapPointer = end
	}
	return nil
}

func (r *SimpleRAM) GetPageDump(pageIndex uint32) []byte {
	out := make([]byte, PageSize)
	start := pageIndex * PageSize
	if uint32(len(r.buf)) > start {
		end := start + PageSize
		if end > uint32(len(r.buf)) {
			end = uint32(len(r.buf))
		}
		copy(out, r.buf[start:end])
	}
	return out
}

func (r *SimpleRAM) HeapPointer() uint32     { return r.heapPointer }
func (r *SimpleRAM) SetHeapPointer(v uint32) { r.heapPointer = v }

func (r *SimpleRAM) LastLoadAddress() uint32  { return r.lastLoadAddr }
func (r *SimpleRAM) LastLoadValue() uint64    { return r.lastLoadValue }
func (r *SimpleRAM) LastStoreAddress() uint32 { return r.lastStoreAddr }
func (r *SimpleRAM) LastStoreValue() uint64   { return r.lastStoreValue }

var _ RAM = (*SimpleRAM)(nil)
