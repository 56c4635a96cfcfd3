// Command cadpath evaluates survey scripts and runs single path and
// intersection computations from the command line.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
