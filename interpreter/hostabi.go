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

package interpreter

// ResultRegister is the register host calls write their outcome to.
const ResultRegister = 7

// Host-call result sentinels. These are part of the guest-visible
// ABI: reserved high u64 values that cannot collide with a valid buffer
// length. They live here rather than in package host because the interpreter
// itself must write WHAT when an ECALLI names a call id with no handler.
const (
	RegOK   uint64 = 0
	RegNone uint64 = ^uint64(0)
	RegWhat uint64 = ^uint64(0) - 1
	RegOOB  uint64 = ^uint64(0) - 2
	RegWho  uint64 = ^uint64(0) - 3
	RegFull uint64 = ^uint64(0) - 4
	RegCore uint64 = ^uint64(0) - 5
	RegCash uint64 = ^uint64(0) - 6
	RegLow  uint64 = ^uint64(0) - 7
	RegHuh  uint64 = ^uint64(0) - 8
)
