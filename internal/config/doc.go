// Package config defines the format-agnostic model of a grammar definition,
// along with the interfaces (Loader, Converter) for loading it and for
// moving semantic values between Go and cty.
//
// The `config.Model` is what the app turns into a generator. Concrete
// implementations of the interfaces, such as for HCL, are provided in
// separate packages.
package config
