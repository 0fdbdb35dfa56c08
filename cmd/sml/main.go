// Command sml is the batch CLI driver over pkg/sml: lex, parse, and run
// (spec.md §6's external interfaces, fronted by spf13/cobra the way the
// teacher's cmd/dwscript does).
package main

import (
	"fmt"
	"os"

	"github.com/basislang/sml/cmd/sml/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
