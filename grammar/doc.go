// Package grammar is the expansion grammar table of the sentence generator.
//
// A Table maps non-terminal symbols to dense indices and to their ordered
// list of rules, maps context tags to the non-terminals that carry them, and
// maps constant-token names to the non-terminals that consume them.
//
// # Lifecycle
//
//  1. Declaration: DeclareSymbol, DeclareContext, DeclareFunction, AddRule and
//     AddConstants are called in declaration order, normally by code that a
//     template compiler produced.
//  2. Finalization: Finalize resolves symbolic references, checks the
//     context-first constraint, propagates repeat flags, computes which
//     non-terminals depend on context, and computes every non-terminal's
//     minimum distance from the root. After Finalize the table is frozen; every
//     declaration method fails with ErrFinalized.
//  3. Generation: package generator reads the table, toggles Rule.Enabled,
//     updates Rule.PruneFactor, and injects and purges temporary rules.
//
// # Errors
//
// Declaration and finalization failures are *TypeError values wrapping one of
// the sentinel errors in this package; use errors.Is to classify them.
// Finalize reports every problem it finds at once, joined with errors.Join.
package grammar
