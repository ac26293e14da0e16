package derivation

import "github.com/vk/sentgrid/tokens"

// Derivation is one generated output: a semantic value, its surface tokens
// and an optional context.
type Derivation struct {
	value   any
	toks    tokens.Seq
	context *Context
}

// New returns a derivation. ctx may be nil.
func New(value any, toks tokens.Seq, ctx *Context) *Derivation {
	return &Derivation{value: value, toks: toks, context: ctx}
}

// Terminal returns a derivation for one literal token whose value is the
// token itself.
func Terminal(tok string) *Derivation {
	return &Derivation{value: tok, toks: tokens.Of(tok)}
}

// FromContext returns the derivation standing for a context element: no
// tokens, the context's info as value, and the context attached.
func FromContext(c *Context) *Derivation {
	return &Derivation{value: c.Info(), context: c}
}

// Value is the semantic value.
func (d *Derivation) Value() any { return d.value }

// Tokens is the lazy surface token sequence.
func (d *Derivation) Tokens() tokens.Seq { return d.toks }

// Context is the attached context, or nil.
func (d *Derivation) Context() *Context { return d.context }

// WithContext returns a copy of d carrying c.
func (d *Derivation) WithContext(c *Context) *Derivation {
	if d.context == c {
		return d
	}
	cp := *d
	cp.context = c
	return &cp
}

// String materializes the surface text.
func (d *Derivation) String() string { return d.toks.String() }

// ConcatTokens joins the token sequences of all children in order.
func ConcatTokens(children []*Derivation) tokens.Seq {
	var out tokens.Seq
	for _, c := range children {
		out = tokens.Concat(out, c.toks)
	}
	return out
}
