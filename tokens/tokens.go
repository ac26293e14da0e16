// Package tokens implements the surface-token sequence carried by every
// derivation: an immutable, shareable rope with O(1) concatenation whose
// tokens are only materialized when somebody walks them.
//
// A Seq is a value type wrapping a pointer to an immutable node, so copying a
// Seq or concatenating two of them never copies tokens. Sub-sequences are
// shared freely between derivations.
package tokens

import (
	"iter"
	"strings"
)

// node is either a leaf holding one or more tokens, or an inner node joining
// two non-empty sequences.
type node struct {
	left, right *node
	leaf        []string
	n           int
}

// Seq is an immutable sequence of tokens. The zero value is the empty sequence.
type Seq struct {
	root *node
}

// Empty returns the empty sequence.
func Empty() Seq { return Seq{} }

// Of returns a sequence holding the given tokens. The slice is copied.
func Of(toks ...string) Seq {
	if len(toks) == 0 {
		return Seq{}
	}
	leaf := make([]string, len(toks))
	copy(leaf, toks)
	return Seq{root: &node{leaf: leaf, n: len(leaf)}}
}

// Concat returns a followed by b in O(1).
func Concat(a, b Seq) Seq {
	switch {
	case a.root == nil:
		return b
	case b.root == nil:
		return a
	}
	return Seq{root: &node{left: a.root, right: b.root, n: a.root.n + b.root.n}}
}

// Join concatenates all sequences left to right.
func Join(seqs ...Seq) Seq {
	var out Seq
	for _, s := range seqs {
		out = Concat(out, s)
	}
	return out
}

// Len is the number of tokens in s.
func (s Seq) Len() int {
	if s.root == nil {
		return 0
	}
	return s.root.n
}

// IsEmpty reports whether s has no tokens.
func (s Seq) IsEmpty() bool { return s.root == nil }

// All yields the tokens of s in order. The traversal uses an explicit stack,
// so deeply nested sequences cannot overflow the goroutine stack, and it can
// be restarted any number of times.
func (s Seq) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		if s.root == nil {
			return
		}
		stack := []*node{s.root}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if n.leaf != nil {
				for _, tok := range n.leaf {
					if !yield(tok) {
						return
					}
				}
				continue
			}
			stack = append(stack, n.right, n.left)
		}
	}
}

// Slice materializes s into a fresh slice.
func (s Seq) Slice() []string {
	out := make([]string, 0, s.Len())
	for tok := range s.All() {
		out = append(out, tok)
	}
	return out
}

// String joins the tokens with single spaces.
func (s Seq) String() string {
	var b strings.Builder
	first := true
	for tok := range s.All() {
		if !first {
			b.WriteByte(' ')
		}
		b.WriteString(tok)
		first = false
	}
	return b.String()
}
