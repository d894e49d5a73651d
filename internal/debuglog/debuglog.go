// Package debuglog is a small leveled logger modeled on gravedigger's
// mods/debug.c (error/warn/info/trace levels, timestamped stderr lines). It
// exists so per-candidate derivation failures inside the worker hot loop
// (spec.md §4.2, §7) can be reported without introducing a third-party
// logging library the teacher never imports.
package debuglog

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// Level selects which messages are emitted.
type Level int32

const (
	None Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelTrace
)

var current atomic.Int32

// SetLevel sets the global debug level. The zero value (None) suppresses
// all output.
func SetLevel(l Level) {
	current.Store(int32(l))
}

func enabled(l Level) bool {
	return Level(current.Load()) >= l
}

func logf(l Level, tag, format string, args ...interface{}) {
	if !enabled(l) {
		return
	}
	ts := time.Now().Format(time.RFC3339)
	fmt.Fprintf(os.Stderr, "[%s] [%s] %s\n", ts, tag, fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...interface{}) { logf(LevelError, "ERROR", format, args...) }
func Warnf(format string, args ...interface{})  { logf(LevelWarn, "WARN", format, args...) }
func Infof(format string, args ...interface{})  { logf(LevelInfo, "INFO", format, args...) }
func Tracef(format string, args ...interface{}) { logf(LevelTrace, "TRACE", format, args...) }
