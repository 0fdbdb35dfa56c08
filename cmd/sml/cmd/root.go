package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "sml",
	Short: "A batch interpreter for a Standard-ML-family language",
	Long: `sml is a batch driver over the language's front end and evaluator:
lexer, parser with user-definable infix resolution, Hindley-Milner type
elaborator, and tree-walking evaluator.

It exposes three subcommands for inspecting each pipeline stage:
  sml lex    tokenize source and print the token stream
  sml parse  parse source and print the surface AST
  sml run    elaborate and evaluate one chunk of source`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
