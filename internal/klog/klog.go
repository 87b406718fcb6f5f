// Package klog is the kernel's own small leveled logger. It funnels
// every call through one print-shaped primitive so boot-time log
// lines survive before a real console device, or even an allocator,
// exists: the sink defaults to os.Stderr until SetOutput repoints it.
package klog

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Level orders log severity; Fatalf always halts regardless of level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

var (
	mu       sync.Mutex
	sink     io.Writer = os.Stderr
	minLevel           = LevelDebug
	// halt is called after a Fatalf line is written. It defaults to a
	// host no-op so tests can observe the log line without the
	// process actually exiting; cmd/kernel rewires it to cpu.Halt.
	halt = func() {}
)

// SetOutput repoints every subsequent log line at w; until it is
// called, lines go to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	sink = w
}

// SetMinLevel suppresses lines below level.
func SetMinLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = level
}

// SetHaltFunc overrides what Fatalf does after logging. cmd/kernel
// points this at cpu.Halt; tests leave it as a no-op.
func SetHaltFunc(f func()) {
	mu.Lock()
	defer mu.Unlock()
	halt = f
}

func logf(level Level, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if level < minLevel {
		return
	}
	fmt.Fprintf(sink, "[%s] %s\n", level, fmt.Sprintf(format, args...))
}

func Debugf(format string, args ...interface{}) { logf(LevelDebug, format, args...) }
func Infof(format string, args ...interface{})  { logf(LevelInfo, format, args...) }
func Warnf(format string, args ...interface{})  { logf(LevelWarn, format, args...) }

// Fatalf logs at error level then invokes the registered halt
// function. It does not itself call os.Exit/panic: on real hardware
// "fatal" means halt the CPU, which the registered halt func does.
func Fatalf(format string, args ...interface{}) {
	logf(LevelError, format, args...)
	mu.Lock()
	h := halt
	mu.Unlock()
	h()
}
