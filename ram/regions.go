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

// Regions describes the accumulation-entry memory layout computed from a
// decoded program.
type Regions struct {
	ReadOnlyStart  uint32
	ReadOnlyEnd    uint32
	ReadWriteStart uint32
	ReadWriteEnd   uint32
	HeapStart      uint32
	ArgsStart      uint32
	ArgsEnd        uint32
	StackStart     uint32
	StackEnd       uint32
}

// ComputeRegions lays out the read-only, read-write/heap, argument and
// stack regions for a program whose read-only segment is roLen bytes, whose
// read-write segment is rwLen bytes followed by heapZeroPadding zero bytes,
// whose stack is stackSize bytes, and whose argument segment holds argsLen
// bytes.
func ComputeRegions(roLen, rwLen, heapZeroPadding, stackSize, argsLen uint32) Regions {
	roStart := alignUpZone(ZoneSize)
	roEnd := roStart + roLen

	// The heap begins at the first zone boundary at or after the end of the
	// read-only data, so the two regions can never share a page.
	rwStart := roStart + alignUpZone(roLen)
	rwEnd := rwStart + rwLen + heapZeroPadding

	argsStart := ArgsSegmentStart
	argsEnd := argsStart + argsLen

	stackEnd := StackSegmentEnd
	stackStart := stackEnd - stackSize

	return Regions{
		ReadOnlyStart:  roStart,
		ReadOnlyEnd:    roEnd,
		ReadWriteStart: rwStart,
		ReadWriteEnd:   rwEnd,
		HeapStart:      alignUpPage(rwEnd),
		ArgsStart:      argsStart,
		ArgsEnd:        argsEnd,
		StackStart:     stackStart,
		StackEnd:       stackEnd,
	}
}
