// Package semantic evaluates CEL expressions against the symbol index.
// Every policy rule whose ID starts with "semantic." materializes one
// check that runs its expression once per indexed declaration; each
// symbol the expression selects produces one finding at the declaration
// site.
//
// # Rule Parameters
//
//	expression  CEL expression over the "symbol" variable (required)
//	message     finding message for selected symbols (default provided)
//
// A rule such as
//
//	- id: semantic.exported_needs_doc
//	  severity: WARNING
//	  params:
//	    expression: symbol.exported && symbol.kind == "func" && symbol.doc == ""
//	    message: exported function has no doc comment
//
// flags every exported, undocumented function in the tree.
//
// # Symbol Shape
//
// The expression sees one declaration at a time as the map "symbol":
//
//	name      declared identifier
//	kind      "func", "method", "type", "const", or "var"
//	file      repo-relative path of the declaration
//	line      1-based declaration line
//	exported  whether the identifier is exported
//	doc       doc comment text, empty when absent
//	receiver  receiver type name, empty for non-methods
//
// # Evaluation
//
// Expressions compile once at engine construction, so a malformed or
// non-boolean expression is rejected through Registry.Get before any
// audit runs. Compiled programs are immutable and shared safely across
// concurrent runs. A runtime evaluation error is an execution error:
// the bound rule counts as crashed rather than clean.
package semantic
