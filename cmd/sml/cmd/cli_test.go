package cmd

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

// captureStdout redirects os.Stdout for the duration of fn and returns
// whatever it wrote, since the subcommands print directly to it rather
// than taking a writer (mirroring the teacher's cobra commands).
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w
	fn()
	w.Close()
	os.Stdout = orig

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("io.Copy: %v", err)
	}
	return buf.String()
}

func TestRunCommandEvaluatesExpression(t *testing.T) {
	runEvalExpr = "val x = 4*7+3; x;"
	defer func() { runEvalExpr = "" }()

	out := captureStdout(t, func() {
		if err := runRun(nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if strings.TrimSpace(out) != "31" {
		t.Fatalf("expected 31, got %q", out)
	}
}

func TestRunCommandReportsUncaughtException(t *testing.T) {
	runEvalExpr = "1 div 0;"
	defer func() { runEvalExpr = "" }()

	err := runRun(nil, nil)
	if err == nil {
		t.Fatal("expected an error for an uncaught Div exception")
	}
}

func TestRunCommandShowsBindings(t *testing.T) {
	runEvalExpr = "val a = 1; val b = 2;"
	runShowBindings = true
	defer func() { runEvalExpr = ""; runShowBindings = false }()

	out := captureStdout(t, func() {
		if err := runRun(nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "val a : int = 1") || !strings.Contains(out, "val b : int = 2") {
		t.Fatalf("expected both bindings rendered, got %q", out)
	}
}

func TestLexCommandTokenizesExpression(t *testing.T) {
	lexEvalExpr = "val x = 1;"
	defer func() { lexEvalExpr = "" }()

	out := captureStdout(t, func() {
		if err := runLex(rootCmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "Keyword(\"val\")") {
		t.Fatalf("expected a Keyword(\"val\") token in output, got %q", out)
	}
}

func TestParseCommandPrintsAST(t *testing.T) {
	parseEvalExpr = "val x = 1;"
	defer func() { parseEvalExpr = "" }()

	out := captureStdout(t, func() {
		if err := runParse(nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "ValDec") {
		t.Fatalf("expected a ValDec node in the printed AST, got %q", out)
	}
}

func TestParseCommandSimplifiesToCore(t *testing.T) {
	parseEvalExpr = "if true then 1 else 2;"
	parseSimplify = true
	defer func() { parseEvalExpr = ""; parseSimplify = false }()

	out := captureStdout(t, func() {
		if err := runParse(nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "Case") {
		t.Fatalf("expected the lowered core Case node, got %q", out)
	}
}
