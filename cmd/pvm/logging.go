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

package main

import (
	"log"
	"os"
)

// Verbosity levels for the CLI boundary. The engine packages are silent;
// everything a guest LOGs or the stepper traces funnels through here.
const (
	lvlError = iota
	lvlInfo
	lvlDebug
	lvlTrace
)

type logger struct {
	level int
	out   *log.Logger
}

func newLogger(level int) *logger {
	return &logger{level: level, out: log.New(os.Stderr, "pvm | ", log.Ltime|log.Lmicroseconds)}
}

func (l *logger) Errorf(format string, args ...interface{}) {
	l.out.Printf("ERROR "+format, args...)
}

func (l *logger) Infof(format string, args ...interface{}) {
	if l.level >= lvlInfo {
		l.out.Printf("INFO  "+format, args...)
	}
}

func (l *logger) Debugf(format string, args ...interface{}) {
	if l.level >= lvlDebug {
		l.out.Printf("DEBUG "+format, args...)
	}
}

func (l *logger) Tracef(format string, args ...interface{}) {
	if l.level >= lvlTrace {
		l.out.Printf("TRACE "+format, args...)
	}
}

// guestLog adapts a guest LOG host call onto the CLI logger. Guest levels
// follow the usual fatal/warn/info/debug/trace numbering.
func (l *logger) guestLog(level uint64, target, message string) {
	if target != "" {
		l.Infof("guest[%d] [%s] %s", level, target, message)
		return
	}
	l.Infof("guest[%d] %s", level, message)
}
