package interp

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrorKind enumerates the representative error kinds of §7. Not
// exhaustive, per spec.
type ErrorKind int

const (
	ErrSyntax ErrorKind = iota
	ErrMissingLine
	ErrMissingVariable
	ErrMissingProc
	ErrMissingFn
	ErrTypeMismatch
	ErrNumberTooBig
	ErrDivByZero
	ErrBadDimension
	ErrStackFull
	ErrNoEndif
	ErrNoEndcase
	ErrNoEndwhile
	ErrNoFor
	ErrNoRepeat
	ErrOutOfData
	ErrEscape
	ErrUnsupportedFeature
	ErrSilly
	ErrBroken
)

var errorMessages = map[ErrorKind]string{
	ErrSyntax:             "Syntax error",
	ErrMissingLine:        "Line not found",
	ErrMissingVariable:    "No such variable",
	ErrMissingProc:        "No such PROC",
	ErrMissingFn:          "No such FN",
	ErrTypeMismatch:       "Type mismatch",
	ErrNumberTooBig:       "Number too big",
	ErrDivByZero:          "Division by zero",
	ErrBadDimension:       "Bad dimension",
	ErrStackFull:          "Stack full",
	ErrNoEndif:            "ENDIF missing",
	ErrNoEndcase:          "ENDCASE missing",
	ErrNoEndwhile:         "ENDWHILE missing",
	ErrNoFor:              "NEXT without FOR",
	ErrNoRepeat:           "UNTIL without REPEAT",
	ErrOutOfData:          "Out of data",
	ErrEscape:             "Escape",
	ErrUnsupportedFeature: "Unsupported feature",
	ErrSilly:              "Silly",
	ErrBroken:             "Broken",
}

// BasicError is the value non-local transfer carries from a raise site
// to the installed handler (§7). It is the payload of a Go panic; the
// dispatcher's outer frame (global handler) or an installed ON ERROR
// LOCAL recover point catches it, per the design note in §9 replacing
// the original's long-jump with "a panicking error that the dispatcher's
// outer frame catches".
type BasicError struct {
	Kind ErrorKind
	Line int
	Name string
	// Cause carries a stack trace for Broken (engine-invariant) errors.
	Cause error
}

func (e *BasicError) Error() string {
	msg := errorMessages[e.Kind]
	if e.Name != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Name)
	}
	if e.Line > 0 {
		msg = fmt.Sprintf("%s at line %d", msg, e.Line)
	}
	return msg
}

func newBasicError(kind ErrorKind, name string) *BasicError {
	return &BasicError{Kind: kind, Name: name}
}

// raise panics with a *BasicError, the mechanism used throughout the
// dispatcher and evaluator for non-local transfer to the active handler.
func raise(kind ErrorKind, name string) {
	panic(newBasicError(kind, name))
}

// raiseBroken reports an engine-invariant violation (§7: "never silently
// recovered"). It always carries a pkg/errors stack trace so a recover
// far from the origin still reports where the invariant failed.
func raiseBroken(component string, line int) {
	err := &BasicError{
		Kind:  ErrBroken,
		Line:  line,
		Name:  component,
		Cause: errors.Errorf("broken: invariant violated in %s", component),
	}
	logrus.WithFields(logrus.Fields{
		"component": component,
		"line":      line,
	}).Error("engine invariant violated")
	panic(err)
}

// ErrorHandler is one level of the two-tier ON ERROR mechanism (§7).
// Global handlers (installed by ON ERROR) push no stack frame; LOCAL
// handlers (ON ERROR LOCAL) push an ERROR frame, popped by RESTORE
// ERROR or subprogram exit.
type ErrorHandler struct {
	// HandlerAddr is the first statement token address to jump to.
	HandlerAddr int
	// StackSnapshot is the Value Stack pointer to reset to on raise.
	StackSnapshot int
	// Local is true for ON ERROR LOCAL handlers (pushed as an ERROR
	// frame rather than installed globally).
	Local bool
}

// ErrorController owns the handler chain and last-raised-error state
// (§7, plus the REPORT/last-error tracking named in SPEC_FULL.md).
type ErrorController struct {
	// Global is the handler installed by the most recent ON ERROR,
	// or nil if none is installed (falls back to the REPL default).
	Global *ErrorHandler
	// Locals is the stack of ON ERROR LOCAL handlers, topmost last.
	Locals []*ErrorHandler
	// Last is the most recently raised error, for REPORT.
	Last *BasicError
}

func newErrorController() *ErrorController {
	return &ErrorController{}
}

// Active returns the innermost installed handler, or nil if none.
func (ec *ErrorController) Active() (*ErrorHandler, bool) {
	if n := len(ec.Locals); n > 0 {
		return ec.Locals[n-1], true
	}
	if ec.Global != nil {
		return ec.Global, true
	}
	return nil, false
}

// PushLocal installs an ON ERROR LOCAL handler.
func (ec *ErrorController) PushLocal(h *ErrorHandler) {
	ec.Locals = append(ec.Locals, h)
}

// PopLocal removes the innermost ON ERROR LOCAL handler (RESTORE ERROR).
func (ec *ErrorController) PopLocal() {
	if n := len(ec.Locals); n > 0 {
		ec.Locals = ec.Locals[:n-1]
	}
}

// SetGlobal installs (or replaces) the global handler (ON ERROR).
func (ec *ErrorController) SetGlobal(h *ErrorHandler) {
	ec.Global = h
}
