// Command fhirpath is a thin cobra CLI over the fhirpath facade package: it
// holds no FHIRPath semantics of its own, mirroring the teacher's root
// cmd/devcmd + runtime/cli cobra wiring pattern.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atomic-ehr/fhirpath-sub008/fhirpath"
	"github.com/atomic-ehr/fhirpath-sub008/parser"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fhirpath",
		Short: "Evaluate and parse FHIRPath expressions",
	}
	root.AddCommand(newEvalCmd(), newParseCmd())
	return root
}

func newEvalCmd() *cobra.Command {
	var inputFile string
	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate a FHIRPath expression against a JSON input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(inputFile)
			if err != nil {
				return err
			}
			out, err := fhirpath.Evaluate(args[0], input)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().StringVarP(&inputFile, "file", "f", "", "JSON input file (default: empty input)")
	return cmd
}

func newParseCmd() *cobra.Command {
	var recovery, ranges bool
	cmd := &cobra.Command{
		Use:   "parse <expression>",
		Short: "Parse a FHIRPath expression and print its AST and diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []parser.Option
			if recovery {
				opts = append(opts, parser.WithErrorRecovery())
			}
			if ranges {
				opts = append(opts, parser.WithTrackRanges())
			}
			result, err := fhirpath.Parse(args[0], opts...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.AST.String())
			for _, d := range result.Diagnostics {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", d.Severity, d.Message, d.Code)
			}
			if result.HasErrors {
				return fmt.Errorf("parse completed with errors")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&recovery, "recovery", false, "Enable error-recovery mode")
	cmd.Flags().BoolVar(&ranges, "ranges", false, "Track source ranges on every node")
	return cmd
}

func readInput(path string) (interface{}, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding input file as JSON: %w", err)
	}
	return v, nil
}

func printJSON(cmd *cobra.Command, seq fhirpath.Sequence) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(seq)
}
