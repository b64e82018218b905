package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/diag"
	"github.com/emberlang/ember/internal/lexer"
	"github.com/emberlang/ember/internal/parser"
	"github.com/emberlang/ember/internal/token"
)

// ---- tokens command ----

func newTokensCmd() *cobra.Command {
	var jsonMode bool

	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "Tokenize a source file and print the token stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args[0])
			if err != nil {
				return err
			}

			r := diag.NewReporter()
			tokens := lexer.New(source, r).Tokenize()

			if jsonMode {
				printTokensJSON(cmd, tokens, r)
			} else {
				printTokensText(cmd, tokens, r)
			}

			if r.HasErrors() {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "print tokens as JSON")
	return cmd
}

func printTokensText(cmd *cobra.Command, tokens []token.Token, r *diag.Reporter) {
	out := cmd.OutOrStdout()
	for _, tok := range tokens {
		fmt.Fprintf(out, "%-14s %-20q %d:%d\n", tok.Kind, tok.Lexeme, tok.Span.Start.Line, tok.Span.Start.Column)
	}
	printDiagsText(cmd, r.Diagnostics())
}

func printTokensJSON(cmd *cobra.Command, tokens []token.Token, r *diag.Reporter) {
	type tokenJSON struct {
		Kind   string `json:"kind"`
		Lexeme string `json:"lexeme"`
		Line   int    `json:"line"`
		Column int    `json:"column"`
		Offset int    `json:"offset"`
	}

	toks := make([]tokenJSON, len(tokens))
	for i, tok := range tokens {
		toks[i] = tokenJSON{
			Kind:   tok.Kind.String(),
			Lexeme: tok.Lexeme,
			Line:   tok.Span.Start.Line,
			Column: tok.Span.Start.Column,
			Offset: tok.Span.Start.Offset,
		}
	}

	printJSON(cmd, map[string]interface{}{
		"tokens":      toks,
		"diagnostics": diagsToSlice(r.Diagnostics()),
	})
}

// ---- parse command ----

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a source file and print its AST as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args[0])
			if err != nil {
				return err
			}

			r := diag.NewReporter()
			tokens := lexer.New(source, r).Tokenize()
			program := parser.New(tokens, r).Parse()

			printJSON(cmd, map[string]interface{}{
				"ast":         ast.ProgramToMap(program),
				"diagnostics": diagsToSlice(r.Diagnostics()),
			})

			if r.HasErrors() {
				os.Exit(1)
			}
			return nil
		},
	}
	return cmd
}

// ---- output helpers ----

func printJSON(cmd *cobra.Command, v interface{}) {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: JSON encoding failed: %v\n", err)
		os.Exit(1)
	}
}

func printDiagsText(cmd *cobra.Command, diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(cmd.ErrOrStderr(), d.String())
	}
}

func diagsToSlice(diags []diag.Diagnostic) []map[string]interface{} {
	result := make([]map[string]interface{}, len(diags))
	for i, d := range diags {
		entry := map[string]interface{}{
			"severity": d.Severity.String(),
			"message":  d.Message,
			"line":     d.Span.Start.Line,
			"column":   d.Span.Start.Column,
			"offset":   d.Span.Start.Offset,
		}
		if len(d.Notes) > 0 {
			notes := make([]map[string]interface{}, len(d.Notes))
			for j, n := range d.Notes {
				notes[j] = map[string]interface{}{
					"message": n.Message,
					"line":    n.Span.Start.Line,
					"column":  n.Span.Start.Column,
					"offset":  n.Span.Start.Offset,
				}
			}
			entry["notes"] = notes
		}
		result[i] = entry
	}
	return result
}
