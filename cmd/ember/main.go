// Command ember is the CLI entry point for the parser core: tokenize,
// parse, and an interactive REPL, all driven through the same
// internal/lexer and internal/parser pipeline. There is no "run"
// subcommand — this module stops at the AST, it never executes one.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ember",
		Short:         "ember is the parser-core toolchain for the ember language",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newTokensCmd())
	root.AddCommand(newParseCmd())
	root.AddCommand(newReplCmd())
	return root
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	return string(data), nil
}
