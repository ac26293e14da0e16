// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the generation lifecycle: load grammar
// files, validate them against the registered Go modules, build a generator
// and stream its derivations as JSON lines. It is decoupled from any
// specific entrypoint like a CLI.
package app
