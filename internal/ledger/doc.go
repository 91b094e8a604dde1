// Package ledger records rewrite runs in a local SQLite database.
//
// The ledger is an append-only audit: one row per run, one row per
// document outcome, written as the batch progresses. Writes are idempotent
// (ON CONFLICT DO NOTHING on natural keys) so a crashed and re-driven run
// never duplicates rows. Reads always carry an explicit ORDER BY, so run
// history renders deterministically.
package ledger
