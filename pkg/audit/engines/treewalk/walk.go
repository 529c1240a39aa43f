package treewalk

import (
	"go/ast"
	"strconv"
	"strings"
)

// importTable maps the local name of each import in a file to its path.
// The local name is the declared alias when present, otherwise the last
// path segment.
func importTable(file *ast.File) map[string]string {
	table := make(map[string]string, len(file.Imports))
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		name := path
		if i := strings.LastIndex(path, "/"); i >= 0 {
			name = path[i+1:]
		}
		if imp.Name != nil {
			name = imp.Name.Name
		}
		table[name] = path
	}
	return table
}

// callTarget renders the target of a call expression as a bare
// identifier ("println") or a package-qualified selector
// ("fmt.Println"). It returns false for shapes a name-based rule cannot
// address, such as calls through struct fields or method values.
func callTarget(call *ast.CallExpr) (string, bool) {
	switch fn := call.Fun.(type) {
	case *ast.Ident:
		return fn.Name, true
	case *ast.SelectorExpr:
		if x, ok := fn.X.(*ast.Ident); ok {
			return x.Name + "." + fn.Sel.Name, true
		}
	}
	return "", false
}

// importedTarget reports whether a package-qualified target's qualifier
// is actually imported by the file. Bare identifiers pass through.
func importedTarget(target string, imports map[string]string) bool {
	pkg, _, qualified := strings.Cut(target, ".")
	if !qualified {
		return true
	}
	_, ok := imports[pkg]
	return ok
}

// matchNamespace reports whether an import path falls inside one of the
// deny-listed namespace prefixes, returning the matched prefix. A prefix
// matches exactly or as a path ancestor.
func matchNamespace(path string, namespaces []string) (string, bool) {
	for _, ns := range namespaces {
		if path == ns || strings.HasPrefix(path, ns+"/") {
			return ns, true
		}
	}
	return "", false
}
