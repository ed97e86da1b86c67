// Package logger traces the corpus pipeline to stderr when verbose
// mode is on. It is deliberately small: a process-wide switch set from
// the --verbose flag plus leveled print helpers, nothing structured.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var state = struct {
	sync.RWMutex
	verbose bool
	out     io.Writer
}{out: os.Stderr}

// SetVerbose switches verbose logging on or off.
func SetVerbose(v bool) {
	state.Lock()
	state.verbose = v
	state.Unlock()
}

// IsVerbose reports whether verbose logging is on.
func IsVerbose() bool {
	state.RLock()
	defer state.RUnlock()
	return state.verbose
}

// SetOutput redirects log output, which defaults to os.Stderr.
func SetOutput(w io.Writer) {
	state.Lock()
	state.out = w
	state.Unlock()
}

// emit writes one formatted line when verbose is on.
func emit(prefix, format string, args ...any) {
	state.RLock()
	defer state.RUnlock()
	if state.verbose {
		fmt.Fprintf(state.out, prefix+format+"\n", args...)
	}
}

// Debug traces low-level pipeline detail.
func Debug(format string, args ...any) { emit("[DEBUG] ", format, args...) }

// Info reports pipeline milestones.
func Info(format string, args ...any) { emit("[INFO] ", format, args...) }

// Warn reports recoverable problems.
func Warn(format string, args ...any) { emit("[WARN] ", format, args...) }

// Section prints a banner marking the start of a pipeline stage.
func Section(format string, args ...any) {
	emit("\n=== ", format+" ===", args...)
}
