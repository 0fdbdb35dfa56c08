package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/basislang/sml/internal/lexer"
	"github.com/basislang/sml/pkg/token"
	"github.com/spf13/cobra"
)

var (
	lexEvalExpr   string
	lexShowPos    bool
	lexOnlyErrors bool
	lexAllowUTF8  bool
)

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize source and print the resulting token stream",
	Long: `Tokenize (lex) a chunk of source and print the resulting tokens.

This command is useful for debugging the lexer and understanding how
source text is scanned into the token vocabulary spec.md §3 describes.

Examples:
  # Tokenize a script file
  sml lex script.sml

  # Tokenize an inline expression
  sml lex -e "val x = 4*7+3;"

  # Show token byte offsets
  sml lex --show-pos script.sml

  # Show only illegal tokens
  sml lex --only-errors script.sml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLex,
}

func init() {
	rootCmd.AddCommand(lexCmd)

	lexCmd.Flags().StringVarP(&lexEvalExpr, "eval", "e", "", "tokenize inline code instead of reading from file")
	lexCmd.Flags().BoolVar(&lexShowPos, "show-pos", false, "show each token's byte offset")
	lexCmd.Flags().BoolVar(&lexOnlyErrors, "only-errors", false, "stop at the first lexical error and report only that")
	lexCmd.Flags().BoolVar(&lexAllowUTF8, "allow-unicode", false, "permit non-ASCII runes inside identifiers")
}

func runLex(cmd *cobra.Command, args []string) error {
	input, filename, err := readSource(lexEvalExpr, args)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		fmt.Printf("Tokenizing: %s\n", filename)
		fmt.Printf("Input length: %d bytes\n", len(input))
		fmt.Println("---")
	}

	var opts []lexer.Option
	if lexAllowUTF8 {
		opts = append(opts, lexer.WithAllowUnicode(true))
	}

	toks, lerr := lexer.Lex(input, opts...)
	if lerr != nil && !lexOnlyErrors {
		for _, t := range toks {
			printToken(t)
		}
	}
	if lerr != nil {
		fmt.Fprintln(os.Stderr, lerr.WithSource(input).Format())
		return fmt.Errorf("lexing failed")
	}

	if !lexOnlyErrors {
		for _, t := range toks {
			printToken(t)
		}
	}
	if verbose {
		fmt.Println("---")
		fmt.Printf("Total tokens: %d\n", len(toks))
	}
	return nil
}

func printToken(t token.Token) {
	output := t.String()
	if lexShowPos {
		output += fmt.Sprintf(" @%d", int(t.Pos))
	}
	fmt.Println(output)
}

// readSource resolves the (expr, file) precedence every subcommand
// shares: -e wins over a positional file argument, and no argument at
// all means "read from stdin".
func readSource(expr string, args []string) (input, filename string, err error) {
	if expr != "" {
		return expr, "<eval>", nil
	}
	if len(args) == 1 {
		content, rerr := os.ReadFile(args[0])
		if rerr != nil {
			return "", "", fmt.Errorf("failed to read file %s: %w", args[0], rerr)
		}
		return string(content), args[0], nil
	}
	content, rerr := io.ReadAll(os.Stdin)
	if rerr != nil {
		return "", "", fmt.Errorf("either provide a file path, use -e, or pipe source on stdin")
	}
	return string(content), "<stdin>", nil
}
