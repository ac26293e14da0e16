package grammar

import (
	"strconv"
	"strings"
)

// ElementKind tags the variant held by an Element.
type ElementKind int

const (
	// KindTerminal is a literal token.
	KindTerminal ElementKind = iota
	// KindNonTerminal references another symbol.
	KindNonTerminal
	// KindChoice picks one of a fixed set of literal tokens at execution time.
	KindChoice
)

// Element is one position of a rule expansion.
type Element struct {
	Kind ElementKind
	// Token is the literal of a terminal.
	Token string
	// Symbol is the referenced name of a non-terminal element.
	Symbol string
	// Index is the resolved non-terminal index; -1 until Finalize.
	Index int
	// Choices are the alternatives of a choice element.
	Choices []string
}

// Terminal returns a literal-token element.
func Terminal(tok string) Element {
	return Element{Kind: KindTerminal, Token: tok, Index: -1}
}

// Ref returns a reference to the non-terminal or context named symbol.
func Ref(symbol string) Element {
	return Element{Kind: KindNonTerminal, Symbol: symbol, Index: -1}
}

// Choice returns an element that expands to one of toks, picked uniformly.
func Choice(toks ...string) Element {
	c := make([]string, len(toks))
	copy(c, toks)
	return Element{Kind: KindChoice, Choices: c, Index: -1}
}

// Terminals is a shorthand for a sequence of terminal elements.
func Terminals(toks ...string) []Element {
	out := make([]Element, len(toks))
	for i, tok := range toks {
		out[i] = Terminal(tok)
	}
	return out
}

// String renders the element the way it is written in grammar files.
func (e Element) String() string {
	switch e.Kind {
	case KindNonTerminal:
		return "$" + e.Symbol
	case KindChoice:
		return "{" + strings.Join(e.Choices, "|") + "}"
	default:
		return strconv.Quote(e.Token)
	}
}

// ExpansionString renders a whole expansion.
func ExpansionString(expansion []Element) string {
	parts := make([]string, len(expansion))
	for i, e := range expansion {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}
