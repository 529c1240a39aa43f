package index

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"log/slog"
	"strings"
	"sync"

	"wardenhq/warden/pkg/audit"
)

// GoIndex is the symbol index for Go source trees. It implements
// audit.SymbolIndex over the pre-enumerated file list of a run.
type GoIndex struct {
	files  []audit.SourceFile
	reader audit.FileReader
	logger *slog.Logger

	once    sync.Once
	loadErr error
	symbols []audit.Symbol
}

// New creates an index over the given files. Only files ending in .go
// are parsed; everything else is ignored, so callers can hand over the
// full run file list unfiltered. Reads go through the given reader,
// which is the same reader checks use.
func New(files []audit.SourceFile, reader audit.FileReader, logger *slog.Logger) *GoIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoIndex{
		files:  files,
		reader: reader,
		logger: logger.With("component", "index"),
	}
}

// Load parses the Go files and populates the symbol table. It runs at
// most once; later calls return the first outcome.
func (x *GoIndex) Load(ctx context.Context) error {
	x.once.Do(func() {
		x.loadErr = x.build(ctx)
	})
	return x.loadErr
}

// Symbols returns every indexed symbol in file order. Callers must not
// modify the returned slice. Symbols is only meaningful after Load.
func (x *GoIndex) Symbols() []audit.Symbol {
	return x.symbols
}

// build parses each Go file and collects its declarations. Files that
// fail to read or parse are logged and skipped: a file with a syntax
// error has no symbols, but it must not take the whole index down with
// it, because tree-walk checks report on such files independently.
func (x *GoIndex) build(ctx context.Context) error {
	fset := token.NewFileSet()
	parsed := 0

	for _, f := range x.files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !strings.HasSuffix(f.Path, ".go") {
			continue
		}

		src, err := x.reader.ReadFile(f.Path)
		if err != nil {
			x.logger.Warn("skipping unreadable file", "path", f.Path, "error", err)
			continue
		}

		file, err := parser.ParseFile(fset, f.Path, src, parser.ParseComments)
		if err != nil {
			x.logger.Warn("skipping unparsable file", "path", f.Path, "error", err)
			continue
		}

		x.collectFile(fset, f.Path, file)
		parsed++
	}

	x.logger.Debug("symbol index built",
		"files", parsed,
		"symbols", len(x.symbols),
	)
	return nil
}

// collectFile appends one Symbol per top-level declaration in the file.
func (x *GoIndex) collectFile(fset *token.FileSet, path string, file *ast.File) {
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			x.symbols = append(x.symbols, funcSymbol(fset, path, d))

		case *ast.GenDecl:
			for _, spec := range d.Specs {
				x.symbols = append(x.symbols, genSymbols(fset, path, d, spec)...)
			}
		}
	}
}

// funcSymbol records a function or method declaration.
func funcSymbol(fset *token.FileSet, path string, d *ast.FuncDecl) audit.Symbol {
	sym := audit.Symbol{
		Name:     d.Name.Name,
		Kind:     audit.KindFunc,
		File:     path,
		Line:     fset.Position(d.Pos()).Line,
		Exported: d.Name.IsExported(),
		Doc:      d.Doc.Text(),
	}
	if d.Recv != nil && len(d.Recv.List) > 0 {
		sym.Kind = audit.KindMethod
		sym.Receiver = receiverName(d.Recv.List[0].Type)
	}
	return sym
}

// genSymbols records type, const, and var specs. A single spec can
// declare several names (var a, b int), yielding one symbol each.
func genSymbols(fset *token.FileSet, path string, d *ast.GenDecl, spec ast.Spec) []audit.Symbol {
	// Per-spec docs win over the group doc; "const ( ... )" blocks
	// usually document the group once.
	groupDoc := d.Doc.Text()

	switch s := spec.(type) {
	case *ast.TypeSpec:
		doc := s.Doc.Text()
		if doc == "" {
			doc = groupDoc
		}
		return []audit.Symbol{{
			Name:     s.Name.Name,
			Kind:     audit.KindType,
			File:     path,
			Line:     fset.Position(s.Pos()).Line,
			Exported: s.Name.IsExported(),
			Doc:      doc,
		}}

	case *ast.ValueSpec:
		kind := audit.KindVar
		if d.Tok == token.CONST {
			kind = audit.KindConst
		}
		doc := s.Doc.Text()
		if doc == "" {
			doc = groupDoc
		}
		symbols := make([]audit.Symbol, 0, len(s.Names))
		for _, name := range s.Names {
			if name.Name == "_" {
				continue
			}
			symbols = append(symbols, audit.Symbol{
				Name:     name.Name,
				Kind:     kind,
				File:     path,
				Line:     fset.Position(name.Pos()).Line,
				Exported: name.IsExported(),
				Doc:      doc,
			})
		}
		return symbols
	}
	return nil
}

// receiverName extracts the bare type name from a method receiver,
// unwrapping pointers and type parameters: *Store, Store[T], and
// *Store[K, V] all index as "Store".
func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	default:
		return ""
	}
}
