package treewalk

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"sync"

	"wardenhq/warden/pkg/audit"
)

// errSyntax marks files that do not parse. Checks skip them instead of
// crashing their rules.
var errSyntax = errors.New("syntax error")

// parsedFile is one cached syntax tree with the fileset needed to
// resolve positions.
type parsedFile struct {
	fset *token.FileSet
	file *ast.File
	hash [sha256.Size]byte
}

// astCache parses source files once per content version and shares the
// trees across every check of the engine. Safe for concurrent use.
type astCache struct {
	mu      sync.RWMutex
	entries map[string]*parsedFile
}

func newASTCache() *astCache {
	return &astCache{entries: make(map[string]*parsedFile)}
}

// parse returns the syntax tree for a repo-relative path, reusing the
// cached tree while the file content is unchanged. Parse failures are
// reported as errSyntax and are not cached.
func (c *astCache) parse(actx *audit.Context, path string) (*token.FileSet, *ast.File, error) {
	src, err := actx.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	sum := sha256.Sum256(src)

	c.mu.RLock()
	entry, ok := c.entries[path]
	c.mu.RUnlock()
	if ok && entry.hash == sum {
		return entry.fset, entry.file, nil
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errSyntax, err)
	}

	c.mu.Lock()
	c.entries[path] = &parsedFile{fset: fset, file: file, hash: sum}
	c.mu.Unlock()

	return fset, file, nil
}

// size returns the number of cached trees.
func (c *astCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
