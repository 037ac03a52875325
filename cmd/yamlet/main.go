// Command yamlet evaluates Yamlet documents from the shell: one-shot
// evaluation (`eval`), provenance narratives (`explain`), and an
// interactive loop (`repl`) built on the same public façade embedders use
// (yamlet.dev/go), the way cmd/cue is a thin shell over cue.Runtime.
package main

import "os"

func main() {
	os.Exit(run())
}

// run is the entry point testscript.RunMain re-executes this binary
// through (cmd/yamlet/main_test.go), so the golden-script tests exercise
// the exact same code path as the installed binary.
func run() int {
	if err := newRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}
