package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/kongscript/kong/ast"
	"github.com/kongscript/kong/compiler"
	"github.com/kongscript/kong/lexer"
	"github.com/kongscript/kong/parser"
	"github.com/kongscript/kong/vm"
)

// runCmd compiles and executes a single .monkey source file.
type runCmd struct {
	debug bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "compile and execute a source file" }
func (*runCmd) Usage() string {
	return `run [-debug] <file>:
	Compile the given file and run it in the virtual machine.
`
}

func (cmd *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.debug, "debug", false, "print the last popped value after execution")
}

func (cmd *runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) != 1 {
		_, _ = fmt.Fprintln(os.Stderr, "run: expected exactly one file argument")
		return subcommands.ExitUsageError
	}

	absolute, err := filepath.Abs(filepath.Clean(args[0]))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "run: %s\n", err)
		return subcommands.ExitFailure
	}

	//nolint:gosec // the path comes from an explicit CLI argument, not untrusted input
	content, err := os.ReadFile(absolute)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "run: %s\n", err)
		return subcommands.ExitFailure
	}

	program, ok := parseSource(string(content))
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

	if cmd.debug {
		if top := machine.LastPoppedStackElem(); top != nil {
			fmt.Println(top.Inspect())
		}
	}

	return subcommands.ExitSuccess
}

// parseSource lexes and parses source, printing parser errors to stderr on failure.
func parseSource(src string) (*ast.Program, bool) {
	l := lexer.New(src)
	p := parser.New(l)
	program := p.ParseProgram()

	if len(p.Errors()) != 0 {
		printParserErrors(p.Errors())
		return nil, false
	}

	return program, true
}
