// Package generator enumerates random derivations of a finalized grammar,
// depth by depth, with bounded memory.
//
// At every depth each reachable non-terminal owns a chart cell, a reservoir of
// derivations of exactly that depth. A rule at depth d combines one child at
// depth d-1 with children of smaller depths, so every combination is visited
// once. Rules whose worst-case enumeration is too large are sub-sampled with a
// learned prune factor, and their output is capped by a per-rule quota.
//
// In contextual mode the caller supplies inputs that become contexts; only
// combinations whose contexts agree survive, and chart cells that do not
// depend on context are computed once and shared across calls.
//
// Concurrency:
//   - A Generator is single-threaded and not re-entrant. Use GenerateSharded
//     to spread inputs over independent generators.
package generator
