// Package derivation defines the two values that flow through a generation
// pass: Derivation, one concrete generated output, and Context, the opaque
// caller state that context-tagged non-terminals attach to it.
//
// # Derivations
//
// A Derivation is immutable. It holds a semantic value, a lazy token sequence
// (see package tokens) and at most one Context. Combining sub-derivations
// never copies tokens; the surface text is built only when String or
// Tokens().All() is called.
//
// # Contexts
//
// Each context input handed to the generator becomes one *Context. Two
// contexts are compatible when they are the same object, when either is nil,
// or when both carry the same non-nil equivalence key (the key is produced by
// a caller-supplied key function, so distinct inputs may be declared equal).
// Compatible contexts meet into a single context; a derivation is never split
// across two contexts.
package derivation
