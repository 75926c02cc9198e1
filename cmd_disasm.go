package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/kongscript/kong/compiler"
)

// disasmCmd compiles a file and prints its disassembled instruction stream
// alongside the constant pool, for debugging compiler output.
type disasmCmd struct{}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "compile a file and print its bytecode" }
func (*disasmCmd) Usage() string {
	return `disasm <file>:
	Compile the given file and print its disassembled instructions and
	constant pool without running it.
`
}

func (*disasmCmd) SetFlags(*flag.FlagSet) {}

func (*disasmCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) != 1 {
		_, _ = fmt.Fprintln(os.Stderr, "disasm: expected exactly one file argument")
		return subcommands.ExitUsageError
	}

	absolute, err := filepath.Abs(filepath.Clean(args[0]))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "disasm: %s\n", err)
		return subcommands.ExitFailure
	}

	//nolint:gosec // the path comes from an explicit CLI argument, not untrusted input
	content, err := os.ReadFile(absolute)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "disasm: %s\n", err)
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

	bytecode := comp.Bytecode()

	fmt.Println("instructions:")
	fmt.Print(bytecode.Instructions.String())

	fmt.Println("constants:")
	for i, c := range bytecode.Constants {
		fmt.Printf("%4d %s\n", i, c.Inspect())
	}

	return subcommands.ExitSuccess
}
