// Package rewrite splices generated reasoning into documents and runs the
// per-document transaction around it.
//
// A transaction moves one document through load, extract, prompt, generate,
// rewrite, and save. Any stage failure aborts the whole transaction and the
// on-disk file is left byte-identical to what was loaded; a save that does
// happen goes through a temp file and rename so no reader ever sees a
// partial document.
package rewrite
