// Package debug provides an opt-in, env-var-gated logger for the hot
// read/write paths (chunk enumeration, IO coalescing, flush decisions).
// It is a no-op unless OMFILES_DEBUG_LOG is set, so callers can sprinkle
// debug.Log calls through the planner and writer without cost in the
// common case.
package debug

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
)

var opts struct {
	isEnabled bool
	logger    *log.Logger
}

var _ = initDebug()

func initDebug() bool {
	debugfile := os.Getenv("OMFILES_DEBUG_LOG")
	if debugfile == "" {
		opts.isEnabled = false
		return false
	}

	f, err := os.OpenFile(debugfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to open debug log file: %v\n", err)
		os.Exit(2)
	}

	opts.logger = log.New(f, "", log.LstdFlags)
	opts.isEnabled = true
	return true
}

func getPosition() (fn, file string, line int) {
	pc, file, line, ok := runtime.Caller(2)
	if !ok {
		return "", "", 0
	}

	f := runtime.FuncForPC(pc)
	name := "unknown"
	if f != nil {
		name = filepath.Base(f.Name())
	}
	return name, filepath.Base(file), line
}

// Log writes a message to the debug log, prefixed with the caller's
// function/file/line, if debug logging was enabled via OMFILES_DEBUG_LOG.
func Log(f string, args ...interface{}) {
	if !opts.isEnabled {
		return
	}

	fn, file, line := getPosition()
	if len(f) == 0 || f[len(f)-1] != '\n' {
		f += "\n"
	}

	opts.logger.Printf("%s:%d\t%s\t%s", file, line, fn, fmt.Sprintf(f, args...))
}

// Enabled reports whether debug logging is currently active, so callers
// can skip building an expensive message when it would be discarded.
func Enabled() bool { return opts.isEnabled }
