// Package models defines the core domain models for CoconutSplit.
//
// # Models
//
//   - User: registered account, identified by UUID
//   - Group: a set of users who share expenses
//   - Expense: money paid by one member, split among the others; splits are
//     stored verbatim so a deletion can replay their exact inverse
//   - BalanceRow / Increment: the pairwise debt ledger and its deltas
//   - SimplifiedDebt: a proposed settling payment (ephemeral)
//   - Settlement: a recorded payment between members
//
// # Design Principles
//
//  1. All money fields are money.Amount (int64 cents). Decimal strings
//     appear only at the RPC boundary.
//  2. Relationships use ID strings instead of pointers to avoid circular
//     references.
//  3. The pairwise balance table is double-entry: every increment on
//     (a, b) is mirrored by its negation on (b, a), so
//     amount(a, b) == -amount(b, a) holds after every applied event.
package models
