package cmd

import (
	"fmt"
	"os"

	"github.com/basislang/sml/pkg/sml"
	"github.com/spf13/cobra"
)

var (
	runEvalExpr     string
	runAllowUTF8    bool
	runShowBindings bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Elaborate and evaluate one chunk of source",
	Long: `Run a file (or inline expression) through the full pipeline --
lex, parse with fixity resolution, simplify, Hindley-Milner elaborate,
and evaluate -- against a fresh sml.GetInitialState() (spec.md §6).

The whole chunk is treated as a single sequence of declarations
(spec.md §4.2's ';'-separated top level), matching sml.Interpret's
atomicity contract: a failure anywhere in the chunk leaves no bindings
at all, rather than the ones before the failing declaration.

Examples:
  # Run a script file
  sml run script.sml

  # Evaluate an inline expression
  sml run -e "val rec fac = fn n => if n<1 then 1 else n*fac(n-1); fac 10;"

  # Print every binding the chunk introduced
  sml run --show-bindings script.sml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runEvalExpr, "eval", "e", "", "evaluate inline code instead of reading from file")
	runCmd.Flags().BoolVar(&runAllowUTF8, "allow-unicode", false, "permit non-ASCII runes inside identifiers")
	runCmd.Flags().BoolVar(&runShowBindings, "show-bindings", false, "print every binding the chunk introduced")
}

func runRun(_ *cobra.Command, args []string) error {
	input, filename, err := readSource(runEvalExpr, args)
	if err != nil {
		return err
	}

	state := sml.GetInitialState()
	stopID := state.ID()

	res := sml.Interpret(input, state, sml.Options{AllowUnicode: runAllowUTF8})

	if res.EvaluationErrored {
		if res.Error != nil {
			fmt.Fprintf(os.Stderr, "%s\n", res.Error.Format())
			return fmt.Errorf("%s: interpretation failed", filename)
		}
		fmt.Fprintf(os.Stderr, "uncaught exception %s\n", res.Exception.Value.String())
		return fmt.Errorf("%s: uncaught exception", filename)
	}

	if v, ok := res.State.LookupValue("it"); ok {
		fmt.Println(v.String())
	}

	if runShowBindings {
		fmt.Print(res.State.ToString(sml.PrintOptions{StopID: stopID}))
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w.String())
	}

	return nil
}
