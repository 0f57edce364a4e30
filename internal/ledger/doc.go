// Package ledger implements the debt ledger core: an incremental
// double-entry pairwise balance accumulator and a deterministic debt
// simplifier.
//
// The Accumulator translates ledger events (expense added or removed,
// settlement recorded or removed) into mirrored signed increments and applies
// them as one atomic batch through a BalanceStore. It never recomputes from
// history; every event maps to a fixed set of deltas, and removing an event
// replays their exact negation.
//
// Simplify is a pure function from a positive pairwise balance snapshot to
// the minimum-cardinality list of payments that zeroes all net balances,
// using greedy largest-creditor against largest-debtor matching.
package ledger
