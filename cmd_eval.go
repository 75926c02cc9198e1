package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/kongscript/kong/compiler"
	"github.com/kongscript/kong/vm"
)

// evalCmd compiles and executes a single expression or program passed as an argument.
type evalCmd struct{}

func (*evalCmd) Name() string     { return "eval" }
func (*evalCmd) Synopsis() string { return "compile and execute a single expression" }
func (*evalCmd) Usage() string {
	return `eval <code>:
	Compile and run the given code, printing the last popped value.
`
}

func (*evalCmd) SetFlags(*flag.FlagSet) {}

func (*evalCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) == 0 {
		_, _ = fmt.Fprintln(os.Stderr, "eval: expected code to evaluate")
		return subcommands.ExitUsageError
	}

	program, ok := parseSource(strings.Join(args, " "))
	if !ok {
		return subcommands.ExitFailure
	}

	comp := compiler.New()
	if err := comp.Compile(program); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "compilation error: %s\n", err)
		return subcommands.ExitFailure
	}

	machine := vm.New(comp.Bytecode())
	if err := machine.Run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "runtime error: %s\n", err)
		return subcommands.ExitFailure
	}

	if top := machine.LastPoppedStackElem(); top != nil {
		fmt.Println(top.Inspect())
	}

	return subcommands.ExitSuccess
}
