package core

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync/atomic"
)

// CrashHandler receives panics recovered from goroutines started with Go
type CrashHandler func(r any, stack []byte)

var crashHandler atomic.Pointer[CrashHandler]

// SetCrashHandler replaces the process-wide handler used by Go
// Passing nil restores the default (log and exit)
func SetCrashHandler(h CrashHandler) {
	if h == nil {
		crashHandler.Store(nil)
		return
	}
	crashHandler.Store(&h)
}

// HandleCrash dispatches a recovered panic to the installed handler
func HandleCrash(r any) {
	if r == nil {
		return
	}
	stack := debug.Stack()
	if h := crashHandler.Load(); h != nil {
		(*h)(r, stack)
		return
	}

	slog.Error("goroutine crashed", slog.Any("panic", r))
	fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", stack)
	os.Exit(1)
}

// Go runs a function in a new goroutine with panic recovery
// Use this instead of the 'go' keyword for long-lived workers
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}

// Isolate runs fn and converts a panic into a logged error
// Returns true if fn panicked; the caller keeps running
func Isolate(logger *slog.Logger, what string, fn func()) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			if logger == nil {
				logger = slog.Default()
			}
			logger.Error("recovered panic",
				slog.String("in", what),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	fn()
	return false
}
