// Package diag provides the error taxonomy and source-context formatting
// shared by every phase of the interpreter pipeline (spec.md §7).
package diag

import (
	"fmt"
	"strings"

	"github.com/basislang/sml/pkg/token"
)

// Kind tags which phase raised an Error, matching spec.md §7's taxonomy.
type Kind int

const (
	LexerError Kind = iota
	IncompleteError
	ParserError
	ElaborationError
	EvaluationError
	FeatureDisabledError
	InternalInterpreterError
)

func (k Kind) String() string {
	switch k {
	case LexerError:
		return "LexerError"
	case IncompleteError:
		return "IncompleteError"
	case ParserError:
		return "ParserError"
	case ElaborationError:
		return "ElaborationError"
	case EvaluationError:
		return "EvaluationError"
	case FeatureDisabledError:
		return "FeatureDisabledError"
	case InternalInterpreterError:
		return "InternalInterpreterError"
	default:
		return "UnknownError"
	}
}

// Error is a single diagnostic with a position and a human-readable
// message. All phase-level failures (lexer, parser, elaborator,
// evaluator) are reported using this shape so the host can render them
// uniformly (spec.md §6 "Diagnostics"). SubKind carries the finer
// classification spec.md §4.4 defines for ElaborationError specifically
// (TypeMismatch, OccursCheck, UnboundIdentifier, UnboundConstructor,
// EqualityRequired, UnguardedTypeVariable, ArityMismatch,
// RecordLabelMismatch); it is empty for every other Kind.
type Error struct {
	Kind    Kind
	SubKind string
	Message string
	Pos     token.Position
	Source  string // the full chunk being processed, for source-context rendering
}

// New constructs an Error of the given kind at pos.
func New(kind Kind, pos token.Position, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// NewElaboration constructs an ElaborationError carrying one of the
// finer-grained sub-kinds spec.md §4.4 names.
func NewElaboration(subKind string, pos token.Position, format string, args ...any) *Error {
	return &Error{Kind: ElaborationError, SubKind: subKind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// WithSource attaches the source chunk so Format can render a caret.
func (e *Error) WithSource(src string) *Error {
	e.Source = src
	return e
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Format() }

// Format renders "Kind at offset N: message", plus a caret line
// under the offending position when Source is available.
func (e *Error) Format() string {
	var sb strings.Builder
	kind := e.Kind.String()
	if e.SubKind != "" {
		kind = kind + "/" + e.SubKind
	}
	if e.Pos.IsSynthetic() {
		fmt.Fprintf(&sb, "%s: %s", kind, e.Message)
		return sb.String()
	}
	fmt.Fprintf(&sb, "%s at offset %d: %s", kind, int(e.Pos), e.Message)
	if e.Source == "" {
		return sb.String()
	}
	line, col, lineText := lineAndColumn(e.Source, int(e.Pos))
	if lineText == "" {
		return sb.String()
	}
	sb.WriteString("\n")
	header := fmt.Sprintf("%4d | ", line)
	sb.WriteString(header)
	sb.WriteString(lineText)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(" ", len(header)+col-1))
	sb.WriteString("^")
	return sb.String()
}

// lineAndColumn translates a byte offset into a 1-indexed line/column and
// returns the text of that source line.
func lineAndColumn(src string, offset int) (line, col int, text string) {
	if offset < 0 || offset > len(src) {
		return 0, 0, ""
	}
	line = 1
	lineStart := 0
	for i := 0; i < offset && i < len(src); i++ {
		if src[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	col = offset - lineStart + 1
	lineEnd := len(src)
	if idx := strings.IndexByte(src[lineStart:], '\n'); idx >= 0 {
		lineEnd = lineStart + idx
	}
	return line, col, src[lineStart:lineEnd]
}

// Warning is a non-fatal diagnostic collected during elaboration
// (non-exhaustive match, unused variable, shadowing a built-in) and
// returned to the caller alongside the new State (spec.md §6).
type Warning struct {
	Message string
	Pos     token.Position
}

func (w Warning) String() string {
	if w.Pos.IsSynthetic() {
		return w.Message
	}
	return fmt.Sprintf("at offset %d: %s", int(w.Pos), w.Message)
}
