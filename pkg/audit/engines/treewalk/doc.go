/*
Package treewalk implements the syntax-tree check family.

Checks in this engine parse candidate source files into Go syntax trees
and walk them looking for structural shapes: calls to banned output
primitives, unguarded dynamic execution, missing identity anchors on
exported symbols, references into retired legacy namespaces, and
process-control hygiene (os.Exit, panic, init). They are deterministic
and require no network or model inference. All checks share one parse
cache, so a file is parsed once per content version no matter how many
checks visit it.

# Rules

	tree_walk.banned_output   calls to banned output primitives
	tree_walk.guarded_exec    dynamic execution without a validation
	                          call on the preceding line
	tree_walk.symbol_anchor   exported symbols without an identity
	                          anchor directive in their doc comment
	tree_walk.legacy_import   imports of deny-listed namespaces
	tree_walk.legacy_call     calls into deny-listed namespaces
	tree_walk.no_exit         os.Exit and friends outside package main
	tree_walk.no_panic        panic calls outside test files
	tree_walk.no_init         package init functions

# Matching

Call targets are matched by name against the file's import table, not
by type information: a call is flagged as fmt.Println only when the file
imports a package named or aliased fmt. This keeps checks fast and
self-contained at the cost of exotic shadowing cases.

Files that do not parse are skipped rather than crashing the rule;
surfacing compilation problems is the workflow engine's job.
*/
package treewalk
