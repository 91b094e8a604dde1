// Package schema validates notebook files against the document shape this
// tool binds to, using an embedded CUE schema.
//
// Validation is stricter than the codec's structural checks: it pins the
// upstream producer's contract (markdown cells, nbformat 4) so drift in a
// corpus is caught before a rewrite run touches it.
package schema
