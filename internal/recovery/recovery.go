// Package recovery turns panics in main and in hardware reader goroutines
// into a logged, clean exit.
package recovery

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
)

// exit and stderr are replaced in tests.
var (
	exit             = os.Exit
	stderr io.Writer = os.Stderr
)

// HandlePanic should be deferred at the top of main() or goroutines.
// It logs panic details and exits with code 1.
func HandlePanic() {
	if r := recover(); r != nil {
		fatal("main", r, nil)
	}
}

// HandlePanicFunc logs panic details and calls the provided cleanup function
// before exiting. The caller's other deferred calls never run, so cleanup
// must release anything a live session holds, such as a keyed sidetone.
func HandlePanicFunc(cleanup func()) {
	if r := recover(); r != nil {
		fatal("", r, cleanup)
	}
}

// Go runs fn on a new goroutine. A panic in fn is reported under name and
// ends the process, since a dead device reader would leave a paddle stuck.
func Go(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				fatal(name, r, nil)
			}
		}()
		fn()
	}()
}

func fatal(where string, r any, cleanup func()) {
	stack := debug.Stack()
	slog.Error("panic", "goroutine", where, "panic", r)
	_, _ = fmt.Fprintf(stderr, "FATAL: %v\n\nStack trace:\n%s\n", r, stack)
	if cleanup != nil {
		cleanup()
	}
	exit(1)
}
