// Package nlog is a minimal leveled logger, adapted from the teacher's
// cmn/nlog: package-level functions writing timestamped lines, with a
// verbosity guard so hot paths can skip formatting entirely.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
)

var (
	mu     sync.Mutex
	out    io.Writer = os.Stderr
	logger           = log.New(os.Stderr, "", log.Ldate|log.Lmicroseconds)
	verbose int32
)

// SetOutput redirects all log output (tests use this to capture lines).
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	logger = log.New(w, "", log.Ldate|log.Lmicroseconds)
}

// SetVerbose sets the verbosity threshold consulted by V().
func SetVerbose(v int) { atomic.StoreInt32(&verbose, int32(v)) }

// V reports whether logging at the given verbosity level is enabled,
// letting a caller skip building an expensive log line entirely:
//
//	if nlog.V(2) { nlog.Infof("read %d bytes at %d", n, off) }
func V(level int) bool { return atomic.LoadInt32(&verbose) >= int32(level) }

func line(sev, format string, args ...any) string {
	return sev + " " + fmt.Sprintf(format, args...)
}

func Infof(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	logger.Print(line("I", format, args...))
}

func Infoln(args ...any) {
	mu.Lock()
	defer mu.Unlock()
	logger.Print("I ", fmt.Sprintln(args...))
}

func Warningf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	logger.Print(line("W", format, args...))
}

func Errorf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	logger.Print(line("E", format, args...))
}

func Errorln(args ...any) {
	mu.Lock()
	defer mu.Unlock()
	logger.Print("E ", fmt.Sprintln(args...))
}
