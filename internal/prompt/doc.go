// Package prompt renders an extracted action trace into the request text
// sent to the generation service.
//
// Rendering is pure: the template is fixed, step arguments keep document
// order, and the final string is NFC-normalized, so structurally equal
// traces always produce byte-identical prompts.
package prompt
