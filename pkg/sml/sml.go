// Package sml is the public, language-neutral facade spec.md §6
// describes: getInitialState, interpret, and State.toString. It wires
// the lexer, parser, simplifier, elaborator, and evaluator into the
// single-chunk pipeline described in spec.md §2, and is the only
// package a host (a REPL, a browser UI, a batch CLI) needs to import.
package sml

import (
	"github.com/basislang/sml/internal/ast"
	"github.com/basislang/sml/internal/diag"
	"github.com/basislang/sml/internal/elaborator"
	"github.com/basislang/sml/internal/evaluator"
	"github.com/basislang/sml/internal/lexer"
	"github.com/basislang/sml/internal/parser"
	"github.com/basislang/sml/internal/runtime"
)

// State is the parent-linked environment frame spec.md §3 describes.
// Re-exported from internal/runtime so host code never has to import
// an internal package directly.
type State = runtime.State

// PrintOptions configures State.ToString.
type PrintOptions = runtime.PrintOptions

// Value is the runtime value union spec.md §3 describes.
type Value = runtime.Value

// Options configures a single Interpret call (spec.md §6). Most of
// these toggle dialect extensions the core grammar does not implement;
// they are accepted so a host can pass the same Options literal across
// every call without the facade rejecting unknown fields, but only
// AllowUnicode, DisableElaboration, and DisableEvaluation currently
// change pipeline behavior.
type Options struct {
	// AllowSuccessorML permits Successor ML syntax extensions. No
	// extension grammar is implemented; reserved for parity with the
	// source project's option surface.
	AllowSuccessorML bool
	// AllowVector permits vector literals/patterns. Not implemented;
	// reserved for parity with the source project's option surface.
	AllowVector bool
	// DisableElaboration skips type elaboration entirely: the chunk is
	// evaluated dynamically-typed, against a freshly opened child frame
	// with no static bindings of its own.
	DisableElaboration bool
	// DisableEvaluation stops after elaboration and returns the
	// statically elaborated state without running the evaluator.
	DisableEvaluation bool
	// StrictMode reserved for parity with the source project's option
	// surface; no additional checks are currently gated on it.
	StrictMode bool
	// AllowUnicode permits non-ASCII runes inside identifiers.
	AllowUnicode bool
	// AllowUnicodeTypeVariables reserved for parity with the source
	// project's option surface; type variables are ASCII-only today.
	AllowUnicodeTypeVariables bool
}

// Result is what Interpret returns: spec.md §6's `{ state,
// evaluationErrored, error?, warnings? }`.
type Result struct {
	// State is the state to continue with. On success it is the child
	// frame the chunk introduced; on any failure it equals the State
	// passed in, per spec.md §7's "the state returned on error equals
	// the state before the chunk".
	State *State
	// EvaluationErrored is true whenever the chunk produced no updated
	// bindings: a lexer/parser/elaboration/evaluation Error, or an
	// uncaught runtime exception.
	EvaluationErrored bool
	// Error is set for a LexerError/IncompleteError/ParserError/
	// ElaborationError/EvaluationError/FeatureDisabledError/
	// InternalInterpreterError. Nil when the chunk raised an uncaught
	// SML exception instead (see Exception).
	Error *diag.Error
	// Exception is set when the chunk's top-level evaluation raised an
	// SML exception (Bind, Match, Div, a user exception, ...) that no
	// `handle` inside the chunk caught.
	Exception *runtime.Exception
	// Warnings collects non-fatal diagnostics (non-exhaustive match,
	// shadowing, stubbed `open`) even on a successful chunk.
	Warnings []diag.Warning
}

// GetInitialState builds the primordial environment spec.md §6
// describes: built-in types, exceptions, value constructors, and
// operators with their fixity.
func GetInitialState() *State {
	return runtime.GetInitialState()
}

// Interpret lexes, parses, elaborates, and evaluates one chunk of
// source against state, returning an updated state or a diagnostic
// (spec.md §2, §6). state itself is never mutated: every write lands in
// a fresh child frame that is only returned on success, so a failed
// chunk leaves the caller's environment exactly as it was (spec.md §5
// "Ordering guarantees").
func Interpret(source string, state *State, opts Options) Result {
	var lexOpts []lexer.Option
	if opts.AllowUnicode {
		lexOpts = append(lexOpts, lexer.WithAllowUnicode(true))
	}

	toks, lerr := lexer.Lex(source, lexOpts...)
	if lerr != nil {
		return Result{State: state, EvaluationErrored: true, Error: lerr}
	}

	fixFrame := runtime.NewChild(state)
	surface, perr := parser.Parse(toks, fixFrame, source)
	if perr != nil {
		return Result{State: state, EvaluationErrored: true, Error: perr}
	}

	coreDec, serr := ast.Simplify(surface)
	if serr != nil {
		return Result{State: state, EvaluationErrored: true, Error: serr}
	}

	var child *State
	var warnings []diag.Warning
	if opts.DisableElaboration {
		child = runtime.NewChild(fixFrame)
	} else {
		var eerr *diag.Error
		child, warnings, eerr = elaborator.Elaborate(coreDec, fixFrame)
		if eerr != nil {
			return Result{State: state, EvaluationErrored: true, Error: eerr.WithSource(source), Warnings: warnings}
		}
	}

	if opts.DisableEvaluation {
		return Result{State: child, Warnings: warnings}
	}

	derr, exn := evaluator.EvalDec(coreDec, child)
	if derr != nil {
		return Result{State: state, EvaluationErrored: true, Error: derr.WithSource(source), Warnings: warnings}
	}
	if exn != nil {
		return Result{State: state, EvaluationErrored: true, Exception: exn, Warnings: warnings}
	}

	return Result{State: child, Warnings: warnings}
}
