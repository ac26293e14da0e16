package grammar

import "strconv"

// ConstantProvider resolves a constant token and its type spec into literal
// display/value pairs. Language packs implement it; the table caps the
// result at Options.MaxConstants.
type ConstantProvider interface {
	Constants(token, typeSpec string) []Constant
}

// ConstantProviderFunc adapts a function to ConstantProvider.
type ConstantProviderFunc func(token, typeSpec string) []Constant

// Constants implements ConstantProvider.
func (f ConstantProviderFunc) Constants(token, typeSpec string) []Constant {
	return f(token, typeSpec)
}

// StaticConstants is a fixed pool of constants keyed by token name.
type StaticConstants map[string][]Constant

// Constants implements ConstantProvider; the type spec is ignored.
func (s StaticConstants) Constants(token, _ string) []Constant {
	return s[token]
}

// DefaultConstants is used when Options.Constants is nil.
var DefaultConstants ConstantProvider = StaticConstants{
	"NUMBER": numberConstants(),
}

var numberWords = []string{
	"zero", "one", "two", "three", "four", "five", "six",
	"seven", "eight", "nine", "ten", "eleven", "twelve",
}

func numberConstants() []Constant {
	out := make([]Constant, 0, 2*len(numberWords))
	for i, w := range numberWords {
		out = append(out, Constant{Display: []string{w}, Value: i})
	}
	for i := range numberWords {
		out = append(out, Constant{Display: []string{strconv.Itoa(i)}, Value: i})
	}
	return out
}
