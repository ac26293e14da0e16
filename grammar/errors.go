package grammar

import (
	"errors"
	"fmt"
)

// Sentinel errors for grammar declaration and finalization.
var (
	// ErrFinalized is returned by declaration methods called after Finalize.
	ErrFinalized = errors.New("grammar: table already finalized")

	// ErrUndeclaredSymbol is returned when a rule references an unknown symbol.
	ErrUndeclaredSymbol = errors.New("grammar: undeclared symbol")

	// ErrContextPosition is returned when a context symbol is used anywhere but
	// the first element of an expansion.
	ErrContextPosition = errors.New("grammar: context symbol must be the first element")

	// ErrContextOnlyRule is returned for a rule whose expansion is a single
	// context symbol.
	ErrContextOnlyRule = errors.New("grammar: rule cannot consist of a context symbol alone")

	// ErrContextRule is returned when a rule is added to a context symbol.
	ErrContextRule = errors.New("grammar: context symbols cannot own rules")

	// ErrNameCollision is returned when a context name is already taken.
	ErrNameCollision = errors.New("grammar: name already declared")

	// ErrInvalidWeight is returned for a zero, negative or non-finite rule weight.
	ErrInvalidWeight = errors.New("grammar: rule weight must be positive")

	// ErrNilCombiner is returned when AddRule receives no combiner.
	ErrNilCombiner = errors.New("grammar: rule has no combiner")

	// ErrDuplicateFunction is returned when a function name is declared twice.
	ErrDuplicateFunction = errors.New("grammar: function already declared")

	// ErrConflictingType is returned when a constant token is registered with
	// two different type specs.
	ErrConflictingType = errors.New("grammar: conflicting constant type")

	// ErrUnknownRoot is returned by Finalize when the root symbol has no
	// declaration.
	ErrUnknownRoot = errors.New("grammar: root symbol not declared")

	// ErrRootWithoutContext is returned by Finalize for a contextual grammar
	// whose root does not depend on any context.
	ErrRootWithoutContext = errors.New("grammar: root does not depend on context")
)

// TypeError describes a malformed grammar. It is fatal to the table.
type TypeError struct {
	// Symbol is the non-terminal being declared or checked.
	Symbol string
	// Rule is the rule number within Symbol, or -1 when not rule specific.
	Rule int
	// Detail adds free-form information such as the offending reference.
	Detail string
	Err    error
}

func newTypeError(symbol string, rule int, err error, detail string) *TypeError {
	return &TypeError{Symbol: symbol, Rule: rule, Err: err, Detail: detail}
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	msg := e.Err.Error()
	if e.Symbol != "" {
		if e.Rule >= 0 {
			msg = fmt.Sprintf("%s (symbol %q, rule %d)", msg, e.Symbol, e.Rule)
		} else {
			msg = fmt.Sprintf("%s (symbol %q)", msg, e.Symbol)
		}
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap returns the sentinel error.
func (e *TypeError) Unwrap() error { return e.Err }
