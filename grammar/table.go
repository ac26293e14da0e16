package grammar

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// Unreachable is the MinDistance of a non-terminal that cannot contribute to
// the root within the configured depth.
const Unreachable = math.MaxInt

// DefaultMaxConstants caps AddConstants when Options.MaxConstants is zero.
const DefaultMaxConstants = 5

// DefaultRootSymbol is used when Options.RootSymbol is empty.
const DefaultRootSymbol = "root"

// passes are the disjoint generation passes that can share one namespace.
var passes = []string{"agent", "user"}

// FunctionTable holds the functions declared with DeclareFunction. It is
// handed to the context initializer.
type FunctionTable map[string]any

// Options configure a Table.
type Options struct {
	RootSymbol   string
	Contextual   bool
	MaxDepth     int
	MaxConstants int
	// Pass selects a generation pass ("agent" or "user"). Rules for symbols
	// private to the other pass are ignored. Empty disables filtering.
	Pass      string
	Constants ConstantProvider
	Logger    *slog.Logger
}

// Table is the expansion grammar table.
type Table struct {
	opts Options

	symbols      map[string]int
	contexts     map[string]int
	nonTerminals []*NonTerminal
	functions    FunctionTable

	constantConsumers map[string][]int
	constantTypes     map[string]string

	root        int
	finalized   bool
	finalizeErr error
}

// New returns an empty table.
func New(opts Options) *Table {
	if opts.RootSymbol == "" {
		opts.RootSymbol = DefaultRootSymbol
	}
	if opts.MaxConstants <= 0 {
		opts.MaxConstants = DefaultMaxConstants
	}
	if opts.Constants == nil {
		opts.Constants = DefaultConstants
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Table{
		opts:              opts,
		symbols:           make(map[string]int),
		contexts:          make(map[string]int),
		functions:         make(FunctionTable),
		constantConsumers: make(map[string][]int),
		constantTypes:     make(map[string]string),
		root:              -1,
	}
}

// Options returns the options the table was built with, defaults applied.
func (t *Table) Options() Options { return t.opts }

// DeclareSymbol declares a non-terminal. Declaring a symbol twice is a no-op.
func (t *Table) DeclareSymbol(name string) error {
	if t.finalized {
		return newTypeError(name, -1, ErrFinalized, "")
	}
	if idx, ok := t.symbols[name]; ok {
		if t.nonTerminals[idx].IsContext {
			return newTypeError(name, -1, ErrNameCollision, "already declared as a context")
		}
		return nil
	}
	t.declare(name, false)
	return nil
}

// DeclareContext declares a context tag. It fails if the name is taken by a
// non-terminal or another context.
func (t *Table) DeclareContext(name string) error {
	if t.finalized {
		return newTypeError(name, -1, ErrFinalized, "")
	}
	if _, ok := t.symbols[name]; ok {
		return newTypeError(name, -1, ErrNameCollision, "")
	}
	idx := t.declare(name, true)
	t.contexts[name] = idx
	return nil
}

func (t *Table) declare(name string, isContext bool) int {
	idx := len(t.nonTerminals)
	t.symbols[name] = idx
	t.nonTerminals = append(t.nonTerminals, &NonTerminal{
		Index:       idx,
		Name:        name,
		IsContext:   isContext,
		MinDistance: Unreachable,
	})
	return idx
}

// DeclareFunction registers a named function for the context initializer.
func (t *Table) DeclareFunction(name string, fn any) error {
	if t.finalized {
		return newTypeError("", -1, ErrFinalized, "function "+name)
	}
	if _, ok := t.functions[name]; ok {
		return newTypeError("", -1, ErrDuplicateFunction, name)
	}
	t.functions[name] = fn
	return nil
}

// Functions returns the declared function table.
func (t *Table) Functions() FunctionTable { return t.functions }

// ignored reports whether symbol belongs to a pass other than the active one.
func (t *Table) ignored(symbol string) bool {
	if t.opts.Pass == "" || symbol == t.opts.RootSymbol {
		return false
	}
	for _, p := range passes {
		if p != t.opts.Pass && strings.HasPrefix(symbol, p+"_") {
			return true
		}
	}
	return false
}

// AddRule appends a rule to symbol, declaring symbol if needed. References
// in expansion are resolved by Finalize.
func (t *Table) AddRule(symbol string, expansion []Element, combiner Combiner, attrs Attrs) error {
	if t.finalized {
		return newTypeError(symbol, -1, ErrFinalized, "")
	}
	if t.ignored(symbol) {
		return nil
	}
	if combiner == nil {
		return newTypeError(symbol, -1, ErrNilCombiner, ExpansionString(expansion))
	}
	weight, err := normalizeWeight(symbol, attrs.Weight)
	if err != nil {
		return err
	}
	idx, ok := t.symbols[symbol]
	if !ok {
		idx = t.declare(symbol, false)
	}
	nt := t.nonTerminals[idx]
	if nt.IsContext {
		return newTypeError(symbol, -1, ErrContextRule, ExpansionString(expansion))
	}
	t.appendRule(nt, expansion, combiner, weight, attrs)
	return nil
}

func normalizeWeight(symbol string, w *float64) (float64, error) {
	if w == nil {
		return 1, nil
	}
	if math.IsNaN(*w) || math.IsInf(*w, 0) || *w <= 0 {
		return 0, newTypeError(symbol, -1, ErrInvalidWeight, fmt.Sprintf("weight %v", *w))
	}
	return *w, nil
}

func (t *Table) appendRule(nt *NonTerminal, expansion []Element, combiner Combiner, weight float64, attrs Attrs) *Rule {
	exp := make([]Element, len(expansion))
	copy(exp, expansion)
	for i := range exp {
		exp[i].Index = -1
	}
	r := &Rule{
		Number:      len(nt.Rules),
		Expansion:   exp,
		Combiner:    combiner,
		Weight:      weight,
		Repeat:      attrs.Repeat,
		ForConstant: attrs.ForConstant,
		Temporary:   attrs.Temporary,
		Enabled:     true,
		PruneFactor: 1,
	}
	nt.Rules = append(nt.Rules, r)
	return r
}

// AddConstants registers symbol as a consumer of the constant token and adds
// one ForConstant rule per constant the provider returns, capped at
// MaxConstants in provider order.
func (t *Table) AddConstants(symbol, token, typeSpec string, attrs Attrs) error {
	if t.finalized {
		return newTypeError(symbol, -1, ErrFinalized, "")
	}
	if t.ignored(symbol) {
		return nil
	}
	if prev, ok := t.constantTypes[token]; ok && prev != typeSpec {
		return newTypeError(symbol, -1, ErrConflictingType,
			fmt.Sprintf("token %s declared as %q and %q", token, prev, typeSpec))
	}
	weight, err := normalizeWeight(symbol, attrs.Weight)
	if err != nil {
		return err
	}
	idx, ok := t.symbols[symbol]
	if !ok {
		idx = t.declare(symbol, false)
	}
	nt := t.nonTerminals[idx]
	if nt.IsContext {
		return newTypeError(symbol, -1, ErrContextRule, "constants "+token)
	}
	t.constantTypes[token] = typeSpec
	t.addConsumer(token, idx)

	consts := t.opts.Constants.Constants(token, typeSpec)
	added := 0
	for _, c := range consts {
		if added >= t.opts.MaxConstants {
			break
		}
		if len(c.Display) == 0 {
			continue
		}
		attrs.ForConstant = true
		t.appendRule(nt, Terminals(c.Display...), c, weight, attrs)
		added++
	}
	t.opts.Logger.Debug("Registered constants.", "symbol", symbol, "token", token, "type", typeSpec, "count", added)
	return nil
}

func (t *Table) addConsumer(token string, idx int) {
	for _, existing := range t.constantConsumers[token] {
		if existing == idx {
			return
		}
	}
	t.constantConsumers[token] = append(t.constantConsumers[token], idx)
}

// NonTerminals returns every non-terminal, indexed by NonTerminal.Index.
func (t *Table) NonTerminals() []*NonTerminal { return t.nonTerminals }

// Lookup returns the non-terminal or context named name.
func (t *Table) Lookup(name string) (*NonTerminal, bool) {
	idx, ok := t.symbols[name]
	if !ok {
		return nil, false
	}
	return t.nonTerminals[idx], true
}

// Context returns the index of the non-terminal carrying context tag name.
func (t *Table) Context(name string) (int, bool) {
	idx, ok := t.contexts[name]
	return idx, ok
}

// ConstantConsumers returns the non-terminals registered for token.
func (t *Table) ConstantConsumers(token string) []int {
	return t.constantConsumers[token]
}

// Root returns the root non-terminal; nil before a successful Finalize.
func (t *Table) Root() *NonTerminal {
	if t.root < 0 {
		return nil
	}
	return t.nonTerminals[t.root]
}

// Finalized reports whether Finalize has been called.
func (t *Table) Finalized() bool { return t.finalized }

// Err returns the error of the first Finalize call, if any.
func (t *Table) Err() error { return t.finalizeErr }

// InjectConstants adds one temporary ForConstant rule per constant to every
// consumer of token and returns how many rules were added. It is meant to be
// called by the generator after Finalize, once per generation pass.
func (t *Table) InjectConstants(token string, consts []Constant) int {
	added := 0
	for _, idx := range t.constantConsumers[token] {
		nt := t.nonTerminals[idx]
		for _, c := range consts {
			if len(c.Display) == 0 {
				continue
			}
			r := t.appendRule(nt, Terminals(c.Display...), c, 1, Attrs{ForConstant: true, Temporary: true})
			r.Repeat = ntRepeats(nt)
			r.HasContext = false
			added++
		}
	}
	return added
}

// ntRepeats reports whether the non-terminal's persistent rules repeat, so
// injected rules keep output densities comparable.
func ntRepeats(nt *NonTerminal) bool {
	for _, r := range nt.Rules {
		if !r.Temporary {
			return r.Repeat
		}
	}
	return false
}

// PurgeTemporary removes every temporary rule and its statistics.
func (t *Table) PurgeTemporary() int {
	removed := 0
	for _, nt := range t.nonTerminals {
		kept := nt.Rules[:0]
		for _, r := range nt.Rules {
			if r.Temporary {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		for i := len(kept); i < len(nt.Rules); i++ {
			nt.Rules[i] = nil
		}
		nt.Rules = kept
	}
	return removed
}

// SetAllEnabled sets Enabled on every rule.
func (t *Table) SetAllEnabled(enabled bool) {
	for _, nt := range t.nonTerminals {
		for _, r := range nt.Rules {
			r.Enabled = enabled
		}
	}
}

// EnabledState captures Rule.Enabled for every rule, for RestoreEnabled.
func (t *Table) EnabledState() [][]bool {
	state := make([][]bool, len(t.nonTerminals))
	for i, nt := range t.nonTerminals {
		state[i] = make([]bool, len(nt.Rules))
		for j, r := range nt.Rules {
			state[i][j] = r.Enabled
		}
	}
	return state
}

// RestoreEnabled undoes enablement changes recorded by EnabledState. Rules
// added since the snapshot keep their current flag.
func (t *Table) RestoreEnabled(state [][]bool) {
	for i, nt := range t.nonTerminals {
		if i >= len(state) {
			return
		}
		for j, r := range nt.Rules {
			if j < len(state[i]) {
				r.Enabled = state[i][j]
			}
		}
	}
}
