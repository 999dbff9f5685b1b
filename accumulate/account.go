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
	"github.com/Esscrypt/peanutbutterandjam/codec"
)

// MinBalance computes the minimum balance a footprint must keep:
// max(0, Base + Item*items + Byte*octets - gratis).
// Intermediate sums saturate rather than wrap.
func MinBalance(items uint64, octets uint64, gratis uint64) uint64 {
	total := satAdd(BaseDeposit, satAdd(satMul(ItemDeposit, items), satMul(ByteDeposit, octets)))
	if total <= gratis {
		return 0
	}
	return total - gratis
}

// AccountMinBalance is MinBalance over an account's current footprint.
func AccountMinBalance(a *codec.CompleteServiceAccount) uint64 {
	return MinBalance(uint64(a.Items), a.Octets, a.Gratis)
}

func satAdd(a, b uint64) uint64 {
	if a > ^uint64(0)-b {
		return ^uint64(0)
	}
	return a + b
}

func satMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > ^uint64(0)/b {
		return ^uint64(0)
	}
	return a * b
}

// AddWouldOverflow reports whether a+b wraps a u64, the overflow guard
// SOLICIT applies to footprint growth.
func AddWouldOverflow(a, b uint64) bool {
	return a > ^uint64(0)-b
}
