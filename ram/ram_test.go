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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPvmRAMReadWriteRoundTrip(t *testing.T) {
	r := NewPvmRAM()
	require.NoError(t, r.InitPage(0, PageSize, Write))
	require.NoError(t, r.WriteOctets(10, []byte("hello")))
	got, err := r.ReadOctets(10, 5)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)
}

func TestPvmRAMFaultsOnUnmappedRead(t *testing.T) {
	r := NewPvmRAM()
	_, err := r.ReadOctets(PageSize*3, 4)
	require.Error(t, err)
	fe, ok := err.(*FaultError)
	require.True(t, ok)
	require.Equal(t, uint32(PageSize*3), fe.FaultAddress)
}

func TestPvmRAMWriteRequiresWriteAccess(t *testing.T) {
	r := NewPvmRAM()
	require.NoError(t, r.InitPage(0, PageSize, Read))
	err := r.WriteOctets(0, []byte("x"))
	require.Error(t, err)
}

func TestPvmRAMZeroInitializesOnFirstTouch(t *testing.T) {
	r := NewPvmRAM()
	require.NoError(t, r.InitPage(0, PageSize, Write))
	got, err := r.ReadOctets(100, 4)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0}, got)
}

func TestPvmRAMAllocatePagesAdvancesHeap(t *testing.T) {
	r := NewPvmRAM()
	require.NoError(t, r.AllocatePages(1, 2))
	require.Equal(t, uint32(3*PageSize), r.HeapPointer())
}

func TestPvmRAMFaultAddressIsPageBase(t *testing.T) {
	r := NewPvmRAM()
	require.NoError(t, r.InitPage(0, PageSize, Read))
	_, err := r.ReadOctets(PageSize-2, 4)
	require.Error(t, err)
	fe := err.(*FaultError)
	require.Equal(t, uint32(PageSize), fe.FaultAddress)
}

func TestSimpleRAMCapsGrowth(t *testing.T) {
	r := NewSimpleRAM()
	require.NoError(t, r.SetPageAccessRights(0, PageSize, Write))
	err := r.WriteOctets(MaxSimpleRAMBytes+1, []byte("x"))
	require.Error(t, err)
}

func TestSimpleRAMReadWrite(t *testing.T) {
	r := NewSimpleRAM()
	require.NoError(t, r.SetPageAccessRights(0, PageSize, Write))
	require.NoError(t, r.WriteOctets(5, []byte("abc")))
	got, err := r.ReadOctets(5, 3)
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), got)
}

func TestComputeRegionsLayout(t *testing.T) {
	regions := ComputeRegions(100, 200, 0, 4096, 16)
	require.Equal(t, uint32(ZoneSize), regions.ReadOnlyStart)
	require.Equal(t, uint32(ZoneSize+100), regions.ReadOnlyEnd)
	require.Equal(t, ArgsSegmentStart, regions.ArgsStart)
	require.Equal(t, StackSegmentEnd, regions.StackEnd)
	require.Equal(t, StackSegmentEnd-4096, regions.StackStart)
}
