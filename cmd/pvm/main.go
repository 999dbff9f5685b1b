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

// pvm is the command-line front end of the engine: it decodes program
// blobs, runs them standalone, and drives full accumulation invocations
// from fixture files.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/davecgh/go-spew/spew"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/Esscrypt/peanutbutterandjam/accumulate"
	"github.com/Esscrypt/peanutbutterandjam/codec"
	"github.com/Esscrypt/peanutbutterandjam/interpreter"
	"github.com/Esscrypt/peanutbutterandjam/invoke"
	"github.com/Esscrypt/peanutbutterandjam/isa"
	"github.com/Esscrypt/peanutbutterandjam/program"
)

var (
	gasFlag = cli.Uint64Flag{
		Name:  "gas",
		Usage: "gas budget for the invocation",
		Value: 1_000_000,
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "log verbosity (0=error 1=info 2=debug 3=trace)",
		Value: 1,
	}
	maxStepsFlag = cli.Uint64Flag{
		Name:  "max-steps",
		Usage: "stop after this many steps (0 = unbounded)",
	}
	coresFlag = cli.UintFlag{
		Name:  "cores",
		Usage: "number of cores in the accumulation config",
	}
	validatorsFlag = cli.UintFlag{
		Name:  "validators",
		Usage: "number of validators in the accumulation config",
	}
	concurrencyFlag = cli.IntFlag{
		Name:  "j",
		Usage: "batch concurrency",
		Value: 4,
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "pvm"
	app.Usage = "deterministic polynomial virtual machine driver"
	app.Flags = []cli.Flag{verbosityFlag}
	app.Commands = []cli.Command{
		{
			Name:      "decode",
			Usage:     "decode a program blob and print its layout",
			ArgsUsage: "<blob-file>",
			Action:    decodeCommand,
		},
		{
			Name:      "run",
			Usage:     "run a bare program blob to termination",
			ArgsUsage: "<blob-file>",
			Flags:     []cli.Flag{gasFlag, maxStepsFlag},
			Action:    runCommand,
		},
		{
			Name:      "accumulate",
			Usage:     "run an accumulation invocation from a JSON fixture",
			ArgsUsage: "<fixture-file>",
			Flags:     []cli.Flag{gasFlag, coresFlag, validatorsFlag},
			Action:    accumulateCommand,
		},
		{
			Name:      "batch",
			Usage:     "run every accumulation fixture in a directory",
			ArgsUsage: "<fixture-dir>",
			Flags:     []cli.Flag{gasFlag, coresFlag, validatorsFlag, concurrencyFlag},
			Action:    batchCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "pvm:", err)
		os.Exit(1)
	}
}

func appLogger(ctx *cli.Context) *logger {
	return newLogger(ctx.GlobalInt(verbosityFlag.Name))
}

func decodeCommand(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("decode: expected one blob file", 1)
	}
	blob, err := ioutil.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}
	loaded, err := program.Decode(blob)
	if err != nil {
		return err
	}
	fmt.Printf("code: %d bytes\n", loaded.CodeLen)
	fmt.Printf("jump table: %d entries\n", len(loaded.JumpTable))
	for i, target := range loaded.JumpTable {
		fmt.Printf("  j[%d] = %d\n", i, target)
	}
	for i := 0; i < loaded.CodeLen; {
		op := isa.Opcode(loaded.Code[i])
		length := loaded.InstructionLength(i)
		fmt.Printf("  %6d: %-20s % x\n", i, op, loaded.Code[i+1:i+length])
		i += length
	}
	return nil
}

func runCommand(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("run: expected one blob file", 1)
	}
	lg := appLogger(ctx)
	blob, err := ioutil.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}
	if lg.level >= lvlTrace {
		m, err := invoke.PrepareBlob(blob, ctx.Uint64(gasFlag.Name))
		if err != nil {
			return err
		}
		tr := &interpreter.Tracer{}
		tr.Run(m, ctx.Uint64(maxStepsFlag.Name))
		tr.Dump(os.Stderr, m)
		return nil
	}
	m, err := invoke.RunBlob(blob, ctx.Uint64(gasFlag.Name), ctx.Uint64(maxStepsFlag.Name))
	if err != nil {
		return err
	}
	fmt.Printf("status: %s\n", m.Status)
	fmt.Printf("exit arg: %d\n", m.ExitArg)
	fmt.Printf("steps: %d, gas left: %d\n", m.Steps(), m.Gas)
	if lg.level >= lvlDebug {
		spew.Fdump(os.Stderr, m.Regs)
	}
	return nil
}

// fixture is the on-disk shape of one accumulation invocation: hex blobs
// for the binary inputs, so fixtures stay diffable.
type fixture struct {
	ProgramPreimage string   `json:"programPreimage"`
	Args            string   `json:"args"`
	Implications    string   `json:"implications"`
	Entropy         string   `json:"entropy,omitempty"`
	AccumulateInput []string `json:"accumulateInputs,omitempty"`
	Gas             uint64   `json:"gas,omitempty"`
}

func loadFixture(data []byte) (*invoke.AccumulateParams, error) {
	var f fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	unhex := func(s string) ([]byte, error) {
		return hex.DecodeString(strings.TrimPrefix(s, "0x"))
	}
	p := &invoke.AccumulateParams{GasLimit: f.Gas}
	var err error
	if p.ProgramPreimage, err = unhex(f.ProgramPreimage); err != nil {
		return nil, fmt.Errorf("programPreimage: %v", err)
	}
	if p.Args, err = unhex(f.Args); err != nil {
		return nil, fmt.Errorf("args: %v", err)
	}
	if p.EncodedImplications, err = unhex(f.Implications); err != nil {
		return nil, fmt.Errorf("implications: %v", err)
	}
	if f.Entropy != "" {
		if p.EntropyAccumulator, err = unhex(f.Entropy); err != nil {
			return nil, fmt.Errorf("entropy: %v", err)
		}
	}
	for i, in := range f.AccumulateInput {
		b, err := unhex(in)
		if err != nil {
			return nil, fmt.Errorf("accumulateInputs[%d]: %v", i, err)
		}
		p.AccumulateInputs = append(p.AccumulateInputs, b)
	}
	return p, nil
}

func configFromFlags(ctx *cli.Context) *accumulate.Config {
	cfg := accumulate.DefaultConfig()
	if ctx.IsSet(coresFlag.Name) {
		cfg.NumCores = uint32(ctx.Uint(coresFlag.Name))
	}
	if ctx.IsSet(validatorsFlag.Name) {
		cfg.NumValidators = uint32(ctx.Uint(validatorsFlag.Name))
	}
	return cfg
}

func runFixture(path string, ctx *cli.Context, lg *logger, cache *fastcache.Cache) (*invoke.Result, error) {
	var data []byte
	if cache != nil {
		data = cache.GetBig(nil, []byte(path))
	}
	if len(data) == 0 {
		var err error
		data, err = ioutil.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if cache != nil {
			cache.SetBig([]byte(path), data)
		}
	}
	p, err := loadFixture(data)
	if err != nil {
		return nil, err
	}
	if p.GasLimit == 0 {
		p.GasLimit = ctx.Uint64(gasFlag.Name)
	}
	p.Config = configFromFlags(ctx)
	p.Log = lg.guestLog
	return invoke.Accumulate(p)
}

func accumulateCommand(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("accumulate: expected one fixture file", 1)
	}
	lg := appLogger(ctx)
	res, err := runFixture(ctx.Args().First(), ctx, lg, nil)
	if err != nil {
		return err
	}
	fmt.Printf("status: %s\n", res.Status)
	fmt.Printf("exit arg: %d\n", res.ExitArg)
	fmt.Printf("gas used: %d over %d steps\n", res.GasUsed, res.Steps)
	fmt.Printf("output: %s\n", hex.EncodeToString(res.Output))
	if res.YieldHash != nil {
		fmt.Printf("yield: %s\n", hex.EncodeToString(res.YieldHash[:]))
	}
	if lg.level >= lvlDebug {
		pair, _, err := codec.DecodeImplicationsPair(res.EncodedImplications)
		if err == nil {
			spew.Fdump(os.Stderr, pair.Regular.State.Accounts)
		}
	}
	return nil
}

// batchCommand runs every fixture in a directory concurrently. Safe because
// each invocation owns its whole state.
func batchCommand(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("batch: expected one fixture directory", 1)
	}
	lg := appLogger(ctx)
	dir := ctx.Args().First()
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return err
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	cache := fastcache.New(32 << 20)
	results := make([]*invoke.Result, len(paths))

	var g errgroup.Group
	sem := make(chan struct{}, ctx.Int(concurrencyFlag.Name))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()
			res, err := runFixture(path, ctx, lg, cache)
			if err != nil {
				return fmt.Errorf("%s: %v", path, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, res := range results {
		fmt.Printf("%-40s %-8s gas=%d steps=%d\n", filepath.Base(paths[i]), res.Status, res.GasUsed, res.Steps)
	}
	return nil
}
