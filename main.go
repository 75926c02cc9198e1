// kong compiles Monkey source code into bytecode and runs it in a virtual machine.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/user"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&replCmd{}, "")
	subcommands.Register(&runCmd{}, "")
	subcommands.Register(&evalCmd{}, "")
	subcommands.Register(&disasmCmd{}, "")

	flag.Parse()

	// No verb given: fall back to the REPL, same as typing "kong repl".
	if flag.NArg() == 0 {
		os.Exit(int((&replCmd{}).Execute(context.Background(), flag.CommandLine)))
	}

	os.Exit(int(subcommands.Execute(context.Background())))
}

func currentUsername() string {
	if usr, err := user.Current(); err == nil {
		return usr.Username
	}
	return "unknown"
}

func printParserErrors(errors []string) {
	_, _ = fmt.Fprintln(os.Stderr, "parser errors:")
	for _, msg := range errors {
		_, _ = fmt.Fprintln(os.Stderr, "\t"+msg)
	}
}
