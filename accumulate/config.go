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

// Package accumulate holds the accumulation side of the engine: the service
// account ledger, the derived-key namespaces over each account's raw
// key-value store, and the transactional invocation context with its
// regular/exceptional snapshot pair.
package accumulate

// Deposit constants for the minimum-balance rule
// minbalance = max(0, Base + Item*items + Byte*octets - gratis).
const (
	BaseDeposit uint64 = 100
	ItemDeposit uint64 = 10
	ByteDeposit uint64 = 1
)

// MinPublicIndex is the lowest public service id; ids below it are reserved
// and may only be allocated by the registrar.
const MinPublicIndex uint32 = 65536

// MemoSize is the fixed width of a transfer memo.
const MemoSize = 128

// RequestOctetsBase is the byte-footprint charge of one request slot on top
// of the preimage length itself.
const RequestOctetsBase uint64 = 81

// ValidatorKeySize is the packed width of one staging-set validator entry.
const ValidatorKeySize = 336

// Protocol constants that are fixed rather than per-deployment. They feed
// the FETCH system-constants block and the EJECT/FORGET timing rules.
const (
	ReportAccGas           uint64 = 10_000_000
	PackageAuthGas         uint64 = 50_000_000
	RecentHistoryLen              = 8
	MaxPackageItems               = 16
	MaxReportDeps                 = 8
	AuthPoolSize                  = 8
	MaxPackageXts                 = 128
	AssuranceTimeoutPeriod        = 5
	MaxAuthCodeSize        uint32 = 64_000
	MaxBundleSize          uint32 = 13_794_305
	MaxServiceCodeSize     uint32 = 4_000_000
	MaxPackageImports      uint32 = 3072
	MaxPackageExports      uint32 = 3072
	MaxReportVarSize       uint32 = 49_152
)

// Config carries the per-deployment accumulation knobs supplied by the
// caller of the entry point. Zero values are not meaningful;
// construct with DefaultConfig and override.
type Config struct {
	NumCores      uint32
	NumValidators uint32
	AuthQueueSize uint32

	PreimageExpungePeriod  uint32
	EpochDuration          uint32
	MaxBlockGas            uint64
	MaxRefineGas           uint64
	MaxTicketsPerExtrinsic uint16
	TicketsPerValidator    uint16
	SlotDuration           uint16
	RotationPeriod         uint16
	ECPieceSize            uint32
	ECPiecesPerSegment     uint32
	ContestDuration        uint32
	MaxLookupAnchorage     uint32
}

// DefaultConfig returns the full-scale deployment parameters.
func DefaultConfig() *Config {
	return &Config{
		NumCores:      341,
		NumValidators: 1023,
		AuthQueueSize: 80,

		PreimageExpungePeriod:  19_200,
		EpochDuration:          600,
		MaxBlockGas:            3_500_000_000,
		MaxRefineGas:           5_000_000_000,
		MaxTicketsPerExtrinsic: 16,
		TicketsPerValidator:    2,
		SlotDuration:           6,
		RotationPeriod:         10,
		ECPieceSize:            684,
		ECPiecesPerSegment:     6,
		ContestDuration:        500,
		MaxLookupAnchorage:     14_400,
	}
}
