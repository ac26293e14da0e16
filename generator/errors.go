package generator

import (
	"errors"
	"fmt"
)

var (
	// ErrNotContextual is returned by GenerateOne on a non-contextual generator.
	ErrNotContextual = errors.New("generator: operation requires a contextual generator")

	// ErrNoContextInitializer is returned by New for a contextual generator
	// without a ContextInitializer.
	ErrNoContextInitializer = errors.New("generator: contextual generator requires a context initializer")

	// ErrBusy is returned when a generation call is made while another one is
	// running on the same generator.
	ErrBusy = errors.New("generator: generation already in progress")

	// ErrInvalidOptions is returned by New for out-of-range options.
	ErrInvalidOptions = errors.New("generator: invalid options")
)

// ExpansionError reports a combiner that failed with a hard error. Soft
// rejections (a nil derivation) never produce one.
type ExpansionError struct {
	NonTerminal string
	Rule        int
	Expansion   string
	Depth       int
	Err         error
}

func (e *ExpansionError) Error() string {
	return fmt.Sprintf("generator: expanding %s -> %s (rule %d, depth %d): %v",
		e.NonTerminal, e.Expansion, e.Rule, e.Depth, e.Err)
}

func (e *ExpansionError) Unwrap() error { return e.Err }
