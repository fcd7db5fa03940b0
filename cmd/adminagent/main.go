// Command adminagent is the store admin assistant CLI. It accepts
// natural-language admin commands, runs them through the guarded
// workflow pipeline, and asks for confirmation before risky changes.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
