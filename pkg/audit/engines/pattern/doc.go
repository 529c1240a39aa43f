/*
Package pattern implements the text and file-shape check family.

Unlike the tree-walk engine, these checks never parse syntax: they work
on raw file content and file paths, which keeps them applicable to any
file the policy scopes them to, not just Go source.

# Rules

	pattern.header_path          the first non-blank line of a file must
	                             restate the file's repo-relative path
	                             as a comment
	pattern.file_naming          file base names must match a compiled
	                             pattern, with explicit exclusion globs
	pattern.logic_conservation   an edited file must retain a minimum
	                             share of its pre-edit non-whitespace
	                             density

# Logic Conservation

The conservation check guards against logic evaporation: an autonomous
edit that passes surface checks by deleting code rather than fixing it.
Density is the character count after removing all whitespace. For every
modified file with a known pre-edit density, the check compares
post/pre against the configured minimum ratio and emits one blocking
finding per file that shrank below it. New files and files with zero
pre-edit density are skipped; there is nothing to conserve. The
heuristic is deliberately crude and false positives are acceptable
given the failure mode it guards against.
*/
package pattern
