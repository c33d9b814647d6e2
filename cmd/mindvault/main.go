package main

import (
	"fmt"
	"os"
)

var (
	// exit is replaced in tests.
	exit = os.Exit

	cleanups []func()
)

func main() {
	Execute()
}

// atExit registers fn to run when fatal ends the process, since os.Exit
// skips deferred calls. Cleanups run in reverse order.
func atExit(fn func()) {
	cleanups = append(cleanups, fn)
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	cleanups = nil
	exit(1)
}
