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
	"github.com/Esscrypt/peanutbutterandjam/accumulate"
	"github.com/Esscrypt/peanutbutterandjam/codec"
	"github.com/Esscrypt/peanutbutterandjam/interpreter"
)

// Fetch selectors.
const (
	fetchConstants        = 0
	fetchEntropy          = 1
	fetchAuthorizerTrace  = 2
	fetchExportByItem     = 3
	fetchExportImplicit   = 4
	fetchImportByItem     = 5
	fetchImportImplicit   = 6
	fetchWorkPackage      = 7
	fetchAuthConfig       = 8
	fetchAuthToken        = 9
	fetchRefineContext    = 10
	fetchItemSummariesSeq = 11
	fetchItemSummary      = 12
	fetchItemPayload      = 13
	fetchAccInputsSeq     = 14
	fetchAccInput         = 15
)

// fetch (1): selector-driven data fetch. Output offset in r7, window in
// r8/r9, selector in r10, selector-specific indices in r11/r12. A selector
// with no configured source yields NONE; a fault on the output range is a
// panic.
func (e *Env) fetch(m *interpreter.Machine) interpreter.Outcome {
	outOff := m.Regs.Get(7)
	from := m.Regs.Get(8)
	length := m.Regs.Get(9)
	selector := uint32(m.Regs.Get(10))

	data, ok := e.fetchData(m, selector)
	if !ok {
		setResult(m, interpreter.RegNone)
		return interpreter.Continue()
	}
	if !writeMem(m, outOff, sliceRange(data, from, length)) {
		return interpreter.Panic()
	}
	setResult(m, uint64(len(data)))
	return interpreter.Continue()
}

func (e *Env) fetchData(m *interpreter.Machine, selector uint32) ([]byte, bool) {
	idx1 := m.Regs.Get(11)
	idx2 := m.Regs.Get(12)

	segAt := func(segments [][][]byte, item, idx uint64) ([]byte, bool) {
		if item >= uint64(len(segments)) {
			return nil, false
		}
		if idx >= uint64(len(segments[item])) {
			return nil, false
		}
		return segments[item][idx], true
	}
	present := func(b []byte) ([]byte, bool) {
		if b == nil {
			return nil, false
		}
		return b, true
	}
	listAt := func(items [][]byte, idx uint64) ([]byte, bool) {
		if items == nil || idx >= uint64(len(items)) {
			return nil, false
		}
		return items[idx], true
	}
	listSeq := func(items [][]byte) ([]byte, bool) {
		if items == nil {
			return nil, false
		}
		out := codec.EncodeNatural(uint64(len(items)))
		for _, it := range items {
			out = append(out, it...)
		}
		return out, true
	}

	switch selector {
	case fetchConstants:
		return encodeSystemConstants(e.config()), true
	case fetchEntropy:
		return present(e.EntropyAccumulator)
	case fetchAuthorizerTrace:
		return present(e.AuthorizerTrace)
	case fetchExportByItem:
		if e.ExportSegments == nil {
			return nil, false
		}
		return segAt(e.ExportSegments, idx1, idx2)
	case fetchExportImplicit:
		if e.ExportSegments == nil || e.WorkItemIndex == nil {
			return nil, false
		}
		return segAt(e.ExportSegments, *e.WorkItemIndex, idx1)
	case fetchImportByItem:
		if e.ImportSegments == nil {
			return nil, false
		}
		return segAt(e.ImportSegments, idx1, idx2)
	case fetchImportImplicit:
		if e.ImportSegments == nil || e.WorkItemIndex == nil {
			return nil, false
		}
		return segAt(e.ImportSegments, *e.WorkItemIndex, idx1)
	case fetchWorkPackage:
		return present(e.WorkPackageEncoded)
	case fetchAuthConfig:
		return present(e.AuthConfig)
	case fetchAuthToken:
		return present(e.AuthToken)
	case fetchRefineContext:
		return present(e.RefineContextEncoded)
	case fetchItemSummariesSeq:
		return listSeq(e.WorkItemSummaries)
	case fetchItemSummary:
		return listAt(e.WorkItemSummaries, idx1)
	case fetchItemPayload:
		return listAt(e.WorkItemPayloads, idx1)
	case fetchAccInputsSeq:
		return listSeq(e.AccumulateInputs)
	case fetchAccInput:
		return listAt(e.AccumulateInputs, idx1)
	}
	return nil, false
}

// systemConstantsLen is the width of the packed constants block.
const systemConstantsLen = 134

// encodeSystemConstants packs the protocol constants and deployment config
// into the fixed 134-byte block of FETCH selector 0. Field order follows
// fixed field order; every field is little-endian.
func encodeSystemConstants(cfg *accumulate.Config) []byte {
	buf := make([]byte, systemConstantsLen)
	off := 0
	u64 := func(v uint64) { putLE(buf[off:off+8], v); off += 8 }
	u32 := func(v uint32) { putLE(buf[off:off+4], uint64(v)); off += 4 }
	u16 := func(v uint16) { putLE(buf[off:off+2], uint64(v)); off += 2 }

	u64(accumulate.ItemDeposit)
	u64(accumulate.ByteDeposit)
	u64(accumulate.BaseDeposit)
	u16(uint16(cfg.NumCores))
	u32(cfg.PreimageExpungePeriod)
	u32(cfg.EpochDuration)
	u64(accumulate.ReportAccGas)
	u64(accumulate.PackageAuthGas)
	u64(cfg.MaxRefineGas)
	u64(cfg.MaxBlockGas)
	u16(accumulate.RecentHistoryLen)
	u16(accumulate.MaxPackageItems)
	u16(accumulate.MaxReportDeps)
	u16(cfg.MaxTicketsPerExtrinsic)
	u32(cfg.MaxLookupAnchorage)
	u16(cfg.TicketsPerValidator)
	u16(accumulate.AuthPoolSize)
	u16(cfg.SlotDuration)
	u16(uint16(cfg.AuthQueueSize))
	u16(cfg.RotationPeriod)
	u16(accumulate.MaxPackageXts)
	u16(accumulate.AssuranceTimeoutPeriod)
	u16(uint16(cfg.NumValidators))
	u32(accumulate.MaxAuthCodeSize)
	u32(accumulate.MaxBundleSize)
	u32(accumulate.MaxServiceCodeSize)
	u32(cfg.ECPieceSize)
	u32(accumulate.MaxPackageImports)
	u32(cfg.ECPiecesPerSegment)
	u32(accumulate.MaxReportVarSize)
	u32(accumulate.MemoSize)
	u32(accumulate.MaxPackageExports)
	u32(cfg.ContestDuration)
	return buf
}
