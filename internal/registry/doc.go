// Package registry provides the central "glue" between grammar files and Go
// code.
//
// The Registry maps the names used in grammar files (combiner names such as
// "tokens", and declared function names) to the Go implementations that
// modules register. Before a grammar is built, ValidateModel checks that
// every name the model uses resolves, and reports all mismatches at once.
package registry
