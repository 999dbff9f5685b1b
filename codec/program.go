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

// ProgramBlob is the raw "deblob" on-wire program format:
//
//	encodeNatural(len(jumpTable)) || [elementSize:1] || encodeNatural(len(code)) ||
//	jumpTable (LE, elementSize each) || code || packedBitmask
//
// Decoding here produces the unpadded arrays; padding code by 16 zero bytes
// and the bitmask by 25 set bits is the program loader's job
// (package `program`), not the codec's: the codec is the bit-exact wire
// format, the loader is what the interpreter actually walks.
type ProgramBlob struct {
	JumpTable []uint32
	Code      []byte
	Bitmask   []bool // one entry per code byte; true iff that byte starts an instruction
}

// jumpTableElementSize returns the smallest octet width that can hold any
// offset into a code array of length codeLen.
func jumpTableElementSize(codeLen int) byte {
	for e := 1; e <= 4; e++ {
		if uint64(codeLen) < uint64(1)<<uint(8*e) {
			return byte(e)
		}
	}
	return 4
}

func (p *ProgramBlob) Encode() []byte {
	var elemSize byte
	if len(p.JumpTable) > 0 {
		elemSize = jumpTableElementSize(len(p.Code))
	}
	out := EncodeNatural(uint64(len(p.JumpTable)))
	out = append(out, elemSize)
	out = append(out, EncodeNatural(uint64(len(p.Code)))...)
	for _, off := range p.JumpTable {
		out = append(out, EncodeFixed(uint64(off), int(elemSize))...)
	}
	out = append(out, p.Code...)
	out = append(out, packBitmask(p.Bitmask)...)
	return out
}

func packBitmask(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, set := range bits {
		if set {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func unpackBitmask(packed []byte, n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = packed[i/8]&(1<<uint(i%8)) != 0
	}
	return out
}

// DecodeProgramBlob decodes a deblob from the front of b. The packed bitmask
// is read as exactly ceil(len(code)/8) octets; any octets after it are
// ignored.
func DecodeProgramBlob(b []byte) (*ProgramBlob, error) {
	jtLen, n1, err := DecodeNatural(b)
	if err != nil {
		return nil, err
	}
	off := n1
	if len(b) < off+1 {
		return nil, ErrTruncated
	}
	elemSize := int(b[off])
	off++
	if jtLen > 0 && (elemSize < 1 || elemSize > 8) {
		return nil, ErrInvalidPrefix
	}
	codeLen, n2, err := DecodeNatural(b[off:])
	if err != nil {
		return nil, err
	}
	off += n2

	jumpTable := make([]uint32, jtLen)
	for i := range jumpTable {
		v, err := DecodeFixed(b[off:], elemSize)
		if err != nil {
			return nil, err
		}
		jumpTable[i] = uint32(v)
		off += elemSize
	}

	if uint64(len(b)) < uint64(off)+codeLen {
		return nil, ErrTruncated
	}
	code := make([]byte, codeLen)
	copy(code, b[off:uint64(off)+codeLen])
	off += int(codeLen)

	bitmaskLen := (int(codeLen) + 7) / 8
	if len(b) < off+bitmaskLen {
		return nil, ErrTruncated
	}
	bits := unpackBitmask(b[off:off+bitmaskLen], int(codeLen))

	return &ProgramBlob{JumpTable: jumpTable, Code: code, Bitmask: bits}, nil
}

// ProgramImage is the Y format carried inside an accumulation-entry
// preimage:
//
//	E3(|ro|) || E3(|rw|) || E2(heapZeroPadding) || E3(stackSize) || ro || rw || E4(|code|) || code
type ProgramImage struct {
	ReadOnly        []byte
	ReadWrite       []byte
	HeapZeroPadding uint32
	StackSize       uint32
	Code            []byte
}

func (y *ProgramImage) Encode() []byte {
	out := EncodeFixed(uint64(len(y.ReadOnly)), 3)
	out = append(out, EncodeFixed(uint64(len(y.ReadWrite)), 3)...)
	out = append(out, EncodeFixed(uint64(y.HeapZeroPadding), 2)...)
	out = append(out, EncodeFixed(uint64(y.StackSize), 3)...)
	out = append(out, y.ReadOnly...)
	out = append(out, y.ReadWrite...)
	out = append(out, EncodeFixed(uint64(len(y.Code)), 4)...)
	out = append(out, y.Code...)
	return out
}

func DecodeProgramImage(b []byte) (*ProgramImage, error) {
	roLen, err := DecodeFixed(b, 3)
	if err != nil {
		return nil, err
	}
	rwLen, err := DecodeFixed(b[3:], 3)
	if err != nil {
		return nil, err
	}
	heapPad, err := DecodeFixed(b[6:], 2)
	if err != nil {
		return nil, err
	}
	stackSize, err := DecodeFixed(b[8:], 3)
	if err != nil {
		return nil, err
	}
	off := 11
	if uint64(len(b)) < uint64(off)+roLen+rwLen {
		return nil, ErrTruncated
	}
	ro := append([]byte(nil), b[off:uint64(off)+roLen]...)
	off += int(roLen)
	rw := append([]byte(nil), b[off:uint64(off)+rwLen]...)
	off += int(rwLen)

	codeLen, err := DecodeFixed(b[off:], 4)
	if err != nil {
		return nil, err
	}
	off += 4
	if uint64(len(b)) < uint64(off)+codeLen {
		return nil, ErrTruncated
	}
	code := append([]byte(nil), b[off:uint64(off)+codeLen]...)

	return &ProgramImage{
		ReadOnly:        ro,
		ReadWrite:       rw,
		HeapZeroPadding: uint32(heapPad),
		StackSize:       uint32(stackSize),
		Code:            code,
	}, nil
}

// Preimage is Nat(|meta|) || meta || codeBlob. For a program preimage,
// codeBlob is itself in Y format.
type Preimage struct {
	Meta     []byte
	CodeBlob []byte
}

func (p *Preimage) Encode() []byte {
	out := EncodeVarTerm(p.Meta)
	return append(out, p.CodeBlob...)
}

func DecodePreimage(b []byte) (*Preimage, error) {
	meta, n, err := DecodeVarTerm(b)
	if err != nil {
		return nil, err
	}
	return &Preimage{Meta: meta, CodeBlob: append([]byte(nil), b[n:]...)}, nil
}
