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

// Package invoke wires the components into the accumulation entry point:
// it decodes the program preimage, lays out RAM, initializes the
// register file, runs the step loop with the host table attached, and
// re-encodes the implications pair on the way out.
package invoke

import (
	"errors"
	"fmt"

	"github.com/Esscrypt/peanutbutterandjam/accumulate"
	"github.com/Esscrypt/peanutbutterandjam/codec"
	"github.com/Esscrypt/peanutbutterandjam/host"
	"github.com/Esscrypt/peanutbutterandjam/interpreter"
	"github.com/Esscrypt/peanutbutterandjam/program"
	"github.com/Esscrypt/peanutbutterandjam/ram"
)

var (
	ErrBadPreimage     = errors.New("invoke: malformed program preimage")
	ErrBadArgs         = errors.New("invoke: malformed argument blob")
	ErrBadImplications = errors.New("invoke: malformed implications pair")
)

// Args is the decoded accumulation argument blob:
// Nat(timeslot) || Nat(serviceId) || Nat(inputLength).
type Args struct {
	Timeslot    uint64
	ServiceID   uint64
	InputLength uint64
}

// DecodeArgs parses the argument blob's header fields.
func DecodeArgs(b []byte) (*Args, error) {
	timeslot, n1, err := codec.DecodeNatural(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArgs, err)
	}
	serviceID, n2, err := codec.DecodeNatural(b[n1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArgs, err)
	}
	inputLength, _, err := codec.DecodeNatural(b[n1+n2:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArgs, err)
	}
	return &Args{Timeslot: timeslot, ServiceID: serviceID, InputLength: inputLength}, nil
}

// AccumulateParams carries everything the caller supplies to an
// accumulation entry.
type AccumulateParams struct {
	// ProgramPreimage is Nat(|meta|) || meta || Y-format program image.
	ProgramPreimage []byte
	// Args is the raw argument blob deposited into the argument segment.
	Args []byte
	// EncodedImplications is the encoded (regular, exceptional) pair.
	EncodedImplications []byte

	GasLimit uint64

	EntropyAccumulator []byte
	AccumulateInputs   [][]byte

	Config *accumulate.Config
	Log    host.LogFunc
}

// Result is what the caller observes after the invocation terminates.
type Result struct {
	Status  interpreter.Status
	ExitArg uint64
	GasUsed uint64
	Steps   uint64

	// Output is ram[r7 .. r7+r8] on a halt; empty when the range is empty
	// or unreadable.
	Output []byte

	YieldHash *[32]byte

	// EncodedImplications is the re-encoded pair: the live regular state
	// alongside the last checkpoint. On panic or out-of-gas the caller
	// restores the exceptional half.
	EncodedImplications []byte
}

// Accumulate runs one accumulation invocation to termination.
func Accumulate(p *AccumulateParams) (*Result, error) {
	cfg := p.Config
	if cfg == nil {
		cfg = accumulate.DefaultConfig()
	}

	preimage, err := codec.DecodePreimage(p.ProgramPreimage)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPreimage, err)
	}
	image, err := codec.DecodeProgramImage(preimage.CodeBlob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPreimage, err)
	}
	loaded, err := program.Decode(image.Code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPreimage, err)
	}

	args, err := DecodeArgs(p.Args)
	if err != nil && len(p.Args) > 0 {
		return nil, err
	}
	timeslot := uint64(0)
	if args != nil {
		timeslot = args.Timeslot
	}

	pair, _, err := codec.DecodeImplicationsPair(p.EncodedImplications)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImplications, err)
	}
	ctx := accumulate.NewContext(pair, cfg, timeslot)

	r := ram.NewPvmRAM()
	if err := layoutMemory(r, image, p.Args); err != nil {
		return nil, err
	}

	env := &host.Env{
		Acc:                ctx,
		Log:                p.Log,
		EntropyAccumulator: p.EntropyAccumulator,
		AccumulateInputs:   p.AccumulateInputs,
		Config:             cfg,
	}

	m := interpreter.New(loaded, image.Code, r, p.GasLimit, host.Table(env))
	m.Regs.Set(0, uint64(ram.HaltAddress))
	m.Regs.Set(1, uint64(ram.StackSegmentEnd))
	m.Regs.Set(7, uint64(ram.ArgsSegmentStart))
	m.Regs.Set(8, uint64(len(p.Args)))

	status := interpreter.Run(m, 0)

	res := &Result{
		Status:              status,
		ExitArg:             m.ExitArg,
		GasUsed:             p.GasLimit - m.Gas,
		Steps:               m.Steps(),
		YieldHash:           ctx.YieldHash,
		EncodedImplications: ctx.Finalize(),
	}
	if status == interpreter.StatusHalt {
		res.Output = haltOutput(m)
	}
	return res, nil
}

// layoutMemory builds the accumulation-entry region model and
// deposits the program's data segments.
func layoutMemory(r ram.RAM, image *codec.ProgramImage, args []byte) error {
	regions := ram.ComputeRegions(
		uint32(len(image.ReadOnly)),
		uint32(len(image.ReadWrite)),
		image.HeapZeroPadding,
		image.StackSize,
		uint32(len(args)),
	)

	if len(image.ReadOnly) > 0 {
		if err := r.InitPage(regions.ReadOnlyStart, uint32(len(image.ReadOnly)), ram.Read); err != nil {
			return err
		}
		r.WriteOctetsDuringInitialization(regions.ReadOnlyStart, image.ReadOnly)
	}
	if regions.ReadWriteEnd > regions.ReadWriteStart {
		if err := r.InitPage(regions.ReadWriteStart, regions.ReadWriteEnd-regions.ReadWriteStart, ram.Write); err != nil {
			return err
		}
		r.WriteOctetsDuringInitialization(regions.ReadWriteStart, image.ReadWrite)
	}
	if regions.StackEnd > regions.StackStart {
		if err := r.InitPage(regions.StackStart, regions.StackEnd-regions.StackStart, ram.Write); err != nil {
			return err
		}
	}
	if len(args) > 0 {
		if err := r.InitPage(regions.ArgsStart, uint32(len(args)), ram.Read); err != nil {
			return err
		}
		r.WriteOctetsDuringInitialization(regions.ArgsStart, args)
	}
	r.SetHeapPointer(regions.HeapStart)
	return nil
}

// haltOutput extracts ram[r7 .. r7+r8]; an empty or unreadable range yields
// an empty buffer.
func haltOutput(m *interpreter.Machine) []byte {
	addr := m.Regs.Get(7)
	length := m.Regs.Get(8)
	if length == 0 {
		return []byte{}
	}
	data, err := m.RAM.ReadOctets(uint32(addr), uint32(length))
	if err != nil {
		return []byte{}
	}
	return data
}

// PrepareBlob builds a machine over a bare deblob on a SimpleRAM with no
// host wiring beyond the defaults, ready for stepping. Tooling that wants
// to trace drives the returned machine itself.
func PrepareBlob(blob []byte, gas uint64) (*interpreter.Machine, error) {
	loaded, err := program.Decode(blob)
	if err != nil {
		return nil, err
	}
	r := ram.NewSimpleRAM()
	env := &host.Env{}
	return interpreter.New(loaded, blob, r, gas, host.Table(env)), nil
}

// RunBlob executes a bare deblob to termination, for tooling and tests
// that drive raw programs.
func RunBlob(blob []byte, gas uint64, maxSteps uint64) (*interpreter.Machine, error) {
	m, err := PrepareBlob(blob, gas)
	if err != nil {
		return nil, err
	}
	interpreter.Run(m, maxSteps)
	return m, nil
}
