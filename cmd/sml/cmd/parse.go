package cmd

import (
	"fmt"

	"github.com/basislang/sml/internal/ast"
	"github.com/basislang/sml/internal/lexer"
	"github.com/basislang/sml/internal/parser"
	"github.com/basislang/sml/pkg/sml"
	"github.com/spf13/cobra"
)

var (
	parseEvalExpr string
	parseSimplify bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse source and print the surface AST",
	Long: `Parse a chunk of source and print the resulting surface
abstract syntax tree (spec.md §4.3). Fixity is resolved against a fresh
sml.GetInitialState(), so user-declared infix operators must be declared
within the same chunk before use.

Use --simplify to print the core calculus the AST lowers to instead of
the surface tree (spec.md §4.3's derived-forms simplification pass).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&parseEvalExpr, "eval", "e", "", "parse inline code instead of reading from file")
	parseCmd.Flags().BoolVar(&parseSimplify, "simplify", false, "print the lowered core calculus instead of the surface AST")
}

func runParse(cmd *cobra.Command, args []string) error {
	input, _, err := readSource(parseEvalExpr, args)
	if err != nil {
		return err
	}

	state := sml.GetInitialState()

	toks, lerr := lexer.Lex(input)
	if lerr != nil {
		return fmt.Errorf("%s", lerr.WithSource(input).Format())
	}

	dec, perr := parser.Parse(toks, state, input)
	if perr != nil {
		return fmt.Errorf("%s", perr.Format())
	}

	if !parseSimplify {
		fmt.Printf("%#v\n", dec)
		return nil
	}

	coreDec, serr := ast.Simplify(dec)
	if serr != nil {
		return fmt.Errorf("%s", serr.Format())
	}
	fmt.Printf("%#v\n", coreDec)
	return nil
}
