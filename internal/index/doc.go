// Package index builds the symbol index audit checks consume.
//
// The indexer parses every Go file visible to a run and records one
// Symbol per top-level declaration: functions, methods, types,
// constants, and variables, each with its location, export status, doc
// comment, and receiver. Checks never parse source themselves to answer
// symbol questions; they read this shared index so a symbol means the
// same thing to every engine.
//
// Load is idempotent. The auditor calls it at the start of every run,
// and only the first call parses; a second run over the same index
// reuses the parsed result.
package index
