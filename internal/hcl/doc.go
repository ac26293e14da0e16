// Package hcl provides the concrete HCL implementation of the grammar
// loading and value conversion interfaces defined in the `config` package.
// It is responsible for file parsing, HCL-to-model translation, and for
// compiling rule `value` expressions into combiners.
package hcl
