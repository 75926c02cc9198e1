package main

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/kongscript/kong/repl"
)

// replCmd launches the interactive Bubble Tea REPL. It is the verb kong runs
// when invoked with no arguments at all.
type replCmd struct {
	noColor bool
	debug   bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "start the interactive REPL" }
func (*replCmd) Usage() string {
	return `repl [-no-color] [-debug]:
	Start an interactive read-eval-print loop. Symbols, constants, and
	globals persist across lines typed into the same session.
`
}

func (cmd *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.noColor, "no-color", false, "disable syntax highlighting and colored output")
	f.BoolVar(&cmd.debug, "debug", false, "enable debug mode with compile/run timings")
}

func (cmd *replCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	repl.Start(currentUsername(), repl.Options{
		NoColor: cmd.noColor,
		Debug:   cmd.debug,
	})
	return subcommands.ExitSuccess
}
