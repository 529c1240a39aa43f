package index

import (
	"context"
	"fmt"
	"testing"

	"wardenhq/warden/pkg/audit"
)

// memReader serves file contents from a map, the same substitution
// checks use in their own tests.
type memReader map[string]string

func (m memReader) ReadFile(relPath string) ([]byte, error) {
	content, ok := m[relPath]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", relPath)
	}
	return []byte(content), nil
}

func sourceFiles(reader memReader) []audit.SourceFile {
	files := make([]audit.SourceFile, 0, len(reader))
	for path := range reader {
		files = append(files, audit.SourceFile{Path: path})
	}
	return files
}

func findSymbol(symbols []audit.Symbol, name string) (audit.Symbol, bool) {
	for _, s := range symbols {
		if s.Name == name {
			return s, true
		}
	}
	return audit.Symbol{}, false
}

func TestGoIndex_Load(t *testing.T) {
	reader := memReader{
		"store.go": `package store

// Store keeps things.
type Store struct{}

// Get fetches one thing.
func (s *Store) Get(id string) string { return id }

func newStore() *Store { return &Store{} }

// DefaultLimit bounds Get results.
const DefaultLimit = 100

var registry = map[string]string{}
`,
		"notes.md": "not go\n",
	}

	idx := New(sourceFiles(reader), reader, nil)
	if err := idx.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name     string
		kind     audit.SymbolKind
		exported bool
		receiver string
		wantDoc  bool
	}{
		{name: "Store", kind: audit.KindType, exported: true, wantDoc: true},
		{name: "Get", kind: audit.KindMethod, exported: true, receiver: "Store", wantDoc: true},
		{name: "newStore", kind: audit.KindFunc, exported: false},
		{name: "DefaultLimit", kind: audit.KindConst, exported: true, wantDoc: true},
		{name: "registry", kind: audit.KindVar, exported: false},
	}

	symbols := idx.Symbols()
	if len(symbols) != len(tests) {
		t.Fatalf("Symbols() returned %d symbols, want %d: %+v", len(symbols), len(tests), symbols)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym, ok := findSymbol(symbols, tt.name)
			if !ok {
				t.Fatalf("symbol %q not indexed", tt.name)
			}
			if sym.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", sym.Kind, tt.kind)
			}
			if sym.Exported != tt.exported {
				t.Errorf("Exported = %v, want %v", sym.Exported, tt.exported)
			}
			if sym.Receiver != tt.receiver {
				t.Errorf("Receiver = %q, want %q", sym.Receiver, tt.receiver)
			}
			if tt.wantDoc && sym.Doc == "" {
				t.Errorf("Doc is empty, want doc comment")
			}
			if sym.File != "store.go" {
				t.Errorf("File = %q, want %q", sym.File, "store.go")
			}
			if sym.Line == 0 {
				t.Errorf("Line = 0, want positive")
			}
		})
	}
}

func TestGoIndex_Load_Idempotent(t *testing.T) {
	reader := memReader{"a.go": "package a\n\nfunc A() {}\n"}

	idx := New(sourceFiles(reader), reader, nil)
	if err := idx.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	first := idx.Symbols()

	// Mutating the backing map after the first Load must not change the
	// index: the second call is a no-op.
	reader["b.go"] = "package a\n\nfunc B() {}\n"
	if err := idx.Load(context.Background()); err != nil {
		t.Fatalf("Load() second call error = %v", err)
	}

	second := idx.Symbols()
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("Symbols() = %d then %d, want 1 then 1", len(first), len(second))
	}
}

func TestGoIndex_Load_SkipsBrokenFiles(t *testing.T) {
	reader := memReader{
		"ok.go":     "package ok\n\nfunc OK() {}\n",
		"broken.go": "package broken\n\nfunc {{{\n",
	}

	idx := New(sourceFiles(reader), reader, nil)
	if err := idx.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	symbols := idx.Symbols()
	if len(symbols) != 1 {
		t.Fatalf("Symbols() returned %d, want 1 (broken file skipped)", len(symbols))
	}
	if symbols[0].Name != "OK" {
		t.Errorf("Symbols()[0].Name = %q, want %q", symbols[0].Name, "OK")
	}
}

func TestGoIndex_Load_CancelledContext(t *testing.T) {
	reader := memReader{"a.go": "package a\n"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	idx := New(sourceFiles(reader), reader, nil)
	if err := idx.Load(ctx); err == nil {
		t.Fatal("Load() error = nil, want cancellation")
	}
}

func TestGoIndex_MultiNameSpecs(t *testing.T) {
	reader := memReader{
		"vars.go": `package vars

var A, B int

const (
	// Mode constants.
	ModeFast = iota
	ModeSlow
)
`,
	}

	idx := New(sourceFiles(reader), reader, nil)
	if err := idx.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	for _, name := range []string{"A", "B", "ModeFast", "ModeSlow"} {
		if _, ok := findSymbol(idx.Symbols(), name); !ok {
			t.Errorf("symbol %q not indexed", name)
		}
	}
}
