package derivation

import "reflect"

// Context wraps one caller-supplied context input together with the tags and
// info payload the context initializer derived from it.
type Context struct {
	input any
	tags  []string
	info  any
	key   any
}

// NewContext builds a Context. key is the equivalence key used by Compatible;
// pass nil to fall back to object identity. A key whose dynamic type is not
// comparable (a map, slice or func) is dropped and identity is used instead.
func NewContext(input any, tags []string, info any, key any) *Context {
	t := make([]string, len(tags))
	copy(t, tags)
	if key != nil && !reflect.TypeOf(key).Comparable() {
		key = nil
	}
	return &Context{input: input, tags: t, info: info, key: key}
}

// Input is the opaque value the caller passed to the generator.
func (c *Context) Input() any { return c.input }

// Tags are the context non-terminals this context was pushed into.
func (c *Context) Tags() []string { return c.tags }

// Info is the payload produced by the context initializer.
func (c *Context) Info() any { return c.info }

// Key is the equivalence key, or nil when identity is used.
func (c *Context) Key() any { return c.key }

// Compatible reports whether a and b may appear in the same derivation.
func Compatible(a, b *Context) bool {
	if a == nil || b == nil || a == b {
		return true
	}
	return a.key != nil && b.key != nil && a.key == b.key
}

// Meet combines two compatible contexts into one. It returns false when they
// are incompatible.
func Meet(a, b *Context) (*Context, bool) {
	switch {
	case a == nil:
		return b, true
	case b == nil:
		return a, true
	case Compatible(a, b):
		return a, true
	}
	return nil, false
}

// MeetAll folds Meet over every context in cs, ignoring nils.
func MeetAll(cs ...*Context) (*Context, bool) {
	var out *Context
	for _, c := range cs {
		var ok bool
		if out, ok = Meet(out, c); !ok {
			return nil, false
		}
	}
	return out, true
}
