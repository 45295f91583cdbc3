// Package wren holds shared metadata for the wren CLI.
//
// Wren samples very large XML documents down to small, structurally
// representative fixtures and infers a permissive XSD from what it saw.
package wren

// Version is the current wren release.
var Version = "0.1.0"
