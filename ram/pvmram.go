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

// PvmRAM is the sparse, page-mapped implementation: a map from page index
// to a 4 KiB buffer plus a separate access-rights map. Pages zero-initialize
// on first touch. The page store is an exact map rather than a third-party
// cache because page bytes must never be silently evicted.
type PvmRAM struct {
	pages  map[uint32][]byte
	access map[uint32]AccessMode

	heapPointer uint32

	lastLoadAddr   uint32
	lastLoadValue  uint64
	lastStoreAddr  uint32
	lastStoreValue uint64
}

// NewPvmRAM returns an empty PvmRAM with no mapped pages.
func NewPvmRAM() *PvmRAM {
	return &PvmRAM{
		pages:  make(map[uint32][]byte),
		access: make(map[uint32]AccessMode),
	}
}

func (r *PvmRAM) pageFor(idx uint32, create bool) []byte {
	p, ok := r.pages[idx]
	if !ok {
		if !create {
			return nil
		}
		p = make([]byte, PageSize)
		r.pages[idx] = p
	}
	return p
}

// accessFor reports the effective access mode for a page; unmapped pages
// default to None.
func (r *PvmRAM) accessFor(idx uint32) AccessMode {
	return r.access[idx]
}

func (r *PvmRAM) IsReadable(addr uint32, length uint32) bool {
	return r.checkRange(addr, length, Read) == nil
}

func (r *PvmRAM) IsWritable(addr uint32, length uint32) bool {
	return r.checkRange(addr, length, Write) == nil
}

// checkRange walks the pages covering [addr, addr+length) and returns a
// *FaultError naming the first inaccessible page, or nil if the whole range
// satisfies the required mode.
func (r *PvmRAM) checkRange(addr uint32, length uint32, required AccessMode) error {
	if length == 0 {
		return nil
	}
	start := pageIndex(addr)
	numPages := (addr%PageSize + length + PageSize - 1) / PageSize
	for i := uint32(0); i < numPages; i++ {
		idx := start + i
		mode := r.accessFor(idx)
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

func (r *PvmRAM) ReadOctets(addr uint32, length uint32) ([]byte, error) {
	if err := r.checkRange(addr, length, Read); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	var written uint32
	for written < length {
		a := addr + written
		idx := pageIndex(a)
		offsetInPage := a % PageSize
		chunk := PageSize - offsetInPage
		remaining := length - written
		if chunk > remaining {
			chunk = remaining
		}
		page := r.pageFor(idx, false)
		if page != nil {
			copy(out[written:written+chunk], page[offsetInPage:offsetInPage+chunk])
		}
		written += chunk
	}
	r.lastLoadAddr = addr
	r.lastLoadValue = le8(out)
	return out, nil
}

func (r *PvmRAM) WriteOctets(addr uint32, data []byte) error {
	if err := r.checkRange(addr, uint32(len(data)), Write); err != nil {
		return err
	}
	r.writeRaw(addr, data)
	r.lastStoreAddr = addr
	r.lastStoreValue = le8(data)
	return nil
}

func (r *PvmRAM) writeRaw(addr uint32, data []byte) {
	var written uint32
	length := uint32(len(data))
	for written < length {
		a := addr + written
		idx := pageIndex(a)
		offsetInPage := a % PageSize
		chunk := PageSize - offsetInPage
		remaining := length - written
		if chunk > remaining {
			chunk = remaining
		}
		page := r.pageFor(idx, true)
		copy(page[offsetInPage:offsetInPage+chunk], data[written:written+chunk])
		written += chunk
	}
}

// WriteOctetsDuringInitialization bypasses access rights; construction only.
func (r *PvmRAM) WriteOctetsDuringInitialization(addr uint32, data []byte) {
	r.writeRaw(addr, data)
}

// InitPage creates pages covering [addr, addr+length) and sets their access
// mode without going through the runtime write path. Used during program
// initialization only.
func (r *PvmRAM) InitPage(addr uint32, length uint32, access AccessMode) error {
	if length == 0 {
		return nil
	}
	start := pageIndex(addr)
	end := pageIndex(addr + length - 1)
	for idx := start; idx <= end; idx++ {
		r.pageFor(idx, true)
		r.access[idx] = access
	}
	return nil
}

func (r *PvmRAM) SetPageAccessRights(addr uint32, length uint32, access AccessMode) error {
	return r.InitPage(addr, length, access)
}

// AllocatePages creates count zeroed pages starting at startPage and marks
// them Write, advancing the heap pointer if the allocation extends past it.
func (r *PvmRAM) AllocatePages(startPage uint32, count uint32) error {
	for i := uint32(0); i < count; i++ {
		idx := startPage + i
		r.pageFor(idx, true)
		r.access[idx] = Write
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

func (r *PvmRAM) GetPageDump(pageIndex uint32) []byte {
	page := r.pageFor(pageIndex, false)
	if page == nil {
		return make([]byte, PageSize)
	}
	out := make([]byte, PageSize)
	copy(out, page)
	return out
}

func (r *PvmRAM) HeapPointer() uint32     { return r.heapPointer }
func (r *PvmRAM) SetHeapPointer(v uint32) { r.heapPointer = v }

func (r *PvmRAM) LastLoadAddress() uint32  { return r.lastLoadAddr }
func (r *PvmRAM) LastLoadValue() uint64    { return r.lastLoadValue }
func (r *PvmRAM) LastStoreAddress() uint32 { return r.lastStoreAddr }
func (r *PvmRAM) LastStoreValue() uint64   { return r.lastStoreValue }

var _ RAM = (*PvmRAM)(nil)
