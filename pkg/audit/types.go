package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
	"unicode"

	"wardenhq/warden/pkg/policy"
)

// Finding is one immutable observation produced by a check. Findings are
// value objects; once returned from a check they are never modified.
type Finding struct {
	// CheckID identifies the check that produced the finding
	CheckID string `json:"check_id"`

	// RuleID identifies the declared rule the finding enforces
	RuleID string `json:"rule_id"`

	// Severity is the rule's severity at the time of the run
	Severity policy.Severity `json:"severity"`

	// Message is the human-readable description of the violation
	Message string `json:"message"`

	// FilePath is the repo-relative path the finding points at, if any
	FilePath string `json:"file_path,omitempty"`

	// Line is the 1-based line number, 0 when the finding has no line
	Line int `json:"line,omitempty"`
}

// String renders the finding in a compact single-line form.
func (f Finding) String() string {
	loc := f.FilePath
	if f.Line > 0 {
		loc = fmt.Sprintf("%s:%d", f.FilePath, f.Line)
	}
	if loc == "" {
		return fmt.Sprintf("[%s] %s: %s", f.Severity, f.CheckID, f.Message)
	}
	return fmt.Sprintf("[%s] %s: %s (%s)", f.Severity, f.CheckID, f.Message, loc)
}

// SortFindings orders findings by (file path, line, check ID) in place.
// Checks run concurrently, so run-internal finding order is unspecified;
// callers that display or archive findings sort them first.
func SortFindings(findings []Finding) {
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].FilePath != findings[j].FilePath {
			return findings[i].FilePath < findings[j].FilePath
		}
		if findings[i].Line != findings[j].Line {
			return findings[i].Line < findings[j].Line
		}
		return findings[i].CheckID < findings[j].CheckID
	})
}

// SourceFile is one file visible to an audit run.
type SourceFile struct {
	// Path is the repo-relative, slash-separated path
	Path string `json:"path"`

	// AbsPath is the absolute path on disk
	AbsPath string `json:"-"`
}

// FileReader supplies file contents to checks. The default implementation
// reads from the repository root; tests substitute in-memory readers.
type FileReader interface {
	ReadFile(relPath string) ([]byte, error)
}

// SymbolIndex is the symbol/metadata index collaborator. Load is
// idempotent; implementations typically parse lazily on first use.
type SymbolIndex interface {
	// Load ensures the index is populated. Calling it twice is cheap.
	Load(ctx context.Context) error

	// Symbols returns every indexed symbol. Callers must not modify the
	// returned slice.
	Symbols() []Symbol
}

// Symbol is one indexed declaration from the audited tree.
type Symbol struct {
	// Name is the declared identifier
	Name string `json:"name"`

	// Kind is the declaration kind
	Kind SymbolKind `json:"kind"`

	// File is the repo-relative path of the declaration
	File string `json:"file"`

	// Line is the 1-based declaration line
	Line int `json:"line"`

	// Exported reports whether the identifier is exported
	Exported bool `json:"exported"`

	// Doc is the declaration's doc comment, if any
	Doc string `json:"doc,omitempty"`

	// Receiver is the receiver type name for methods
	Receiver string `json:"receiver,omitempty"`
}

// SymbolKind classifies indexed symbols.
type SymbolKind string

// Symbol kinds produced by the index.
const (
	KindFunc   SymbolKind = "func"
	KindMethod SymbolKind = "method"
	KindType   SymbolKind = "type"
	KindConst  SymbolKind = "const"
	KindVar    SymbolKind = "var"
)

// BaselineSource supplies pre-edit content densities for modified files.
// Density is the number of non-whitespace characters; ok is false when
// the path has no pre-image (a new file).
type BaselineSource interface {
	Density(relPath string) (density int, ok bool, err error)
}

// Density counts the characters left after removing all whitespace.
// Every BaselineSource implementation and every consumer measures
// content with this one function, so ratios compare like with like.
func Density(content []byte) int {
	n := 0
	for _, r := range string(content) {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// ContextConfig assembles an audit Context.
type ContextConfig struct {
	// RepoRoot is the absolute path of the audited tree
	RepoRoot string

	// Files is the pre-enumerated list of files visible to the run
	Files []SourceFile

	// ModifiedFiles lists repo-relative paths changed since the baseline
	ModifiedFiles []string

	// Index is the symbol index collaborator; may be nil when no check
	// needs symbols
	Index SymbolIndex

	// Baseline supplies pre-edit densities; may be nil when no baseline
	// is available
	Baseline BaselineSource

	// Reader overrides file access; defaults to reading under RepoRoot
	Reader FileReader
}

// Context is the read-only bundle of inputs shared by every check in a
// run. It is safe for concurrent readers; checks may only read source
// files and the pre-supplied index through it.
type Context struct {
	repoRoot string
	files    []SourceFile
	modified map[string]bool
	modList  []string
	index    SymbolIndex
	baseline BaselineSource
	reader   FileReader
}

// NewContext builds an audit context from the given configuration.
func NewContext(cfg ContextConfig) *Context {
	reader := cfg.Reader
	if reader == nil {
		reader = osFileReader{root: cfg.RepoRoot}
	}
	modified := make(map[string]bool, len(cfg.ModifiedFiles))
	for _, p := range cfg.ModifiedFiles {
		modified[p] = true
	}
	return &Context{
		repoRoot: cfg.RepoRoot,
		files:    cfg.Files,
		modified: modified,
		modList:  append([]string(nil), cfg.ModifiedFiles...),
		index:    cfg.Index,
		baseline: cfg.Baseline,
		reader:   reader,
	}
}

// RepoRoot returns the absolute path of the audited tree.
func (c *Context) RepoRoot() string {
	return c.repoRoot
}

// Files returns every file visible to the run. Callers must not modify
// the returned slice.
func (c *Context) Files() []SourceFile {
	return c.files
}

// FilesMatching returns the files whose repo-relative path matches the
// given scope glob.
func (c *Context) FilesMatching(scope string) []SourceFile {
	var matched []SourceFile
	for _, f := range c.files {
		if policy.MatchScope(scope, f.Path) {
			matched = append(matched, f)
		}
	}
	return matched
}

// ModifiedFiles returns the repo-relative paths changed since the
// baseline. Callers must not modify the returned slice.
func (c *Context) ModifiedFiles() []string {
	return c.modList
}

// IsModified reports whether the given repo-relative path changed since
// the baseline.
func (c *Context) IsModified(relPath string) bool {
	return c.modified[relPath]
}

// Index returns the symbol index collaborator, or nil.
func (c *Context) Index() SymbolIndex {
	return c.index
}

// Baseline returns the pre-image density source, or nil.
func (c *Context) Baseline() BaselineSource {
	return c.baseline
}

// ReadFile reads a repo-relative file through the configured reader.
func (c *Context) ReadFile(relPath string) ([]byte, error) {
	return c.reader.ReadFile(relPath)
}

// DirReader returns a FileReader serving repo-relative paths from the
// given root directory. It is the reader NewContext falls back to, made
// available to collaborators that read files outside an audit context.
func DirReader(root string) FileReader {
	return osFileReader{root: root}
}

// osFileReader reads files relative to a root directory.
type osFileReader struct {
	root string
}

func (r osFileReader) ReadFile(relPath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(r.root, filepath.FromSlash(relPath)))
}

// Status distinguishes completed runs from cancelled ones. A cancelled
// run still carries every finding collected before cancellation.
type Status int

const (
	// StatusCompleted means every dispatched check ran to completion
	StatusCompleted Status = iota

	// StatusCancelled means the run stopped early on context
	// cancellation and results are partial
	StatusCancelled
)

// String returns the lower-case status name.
func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Verdict is the aggregate outcome of an audit run.
type Verdict int

const (
	// VerdictPass means no blocking findings and full mandatory coverage
	VerdictPass Verdict = iota

	// VerdictDegraded means no blocking findings, but one or more
	// mandatory rules went unenforced (unmapped or crashed)
	VerdictDegraded

	// VerdictFail means at least one blocking finding exists
	VerdictFail
)

// String returns the upper-case verdict name.
func (v Verdict) String() string {
	switch v {
	case VerdictPass:
		return "PASS"
	case VerdictDegraded:
		return "DEGRADED"
	case VerdictFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON implements json.Marshaler.
func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// CoverageStats reports how much of the declared rule set an audit run
// actually enforced.
type CoverageStats struct {
	// RulesTotal is the number of declared rules selected for the run
	RulesTotal int `json:"rules_total"`

	// RulesEnforced is the number of rules whose check executed
	RulesEnforced int `json:"rules_enforced"`

	// RulesUnmapped is the number of rules no check claims
	RulesUnmapped int `json:"rules_unmapped"`

	// RulesCrashed is the number of rules whose check crashed
	RulesCrashed int `json:"rules_crashed"`

	// ExecutionRate is RulesEnforced over RulesTotal, 1.0 for an empty set
	ExecutionRate float64 `json:"execution_rate"`

	// UnmappedRuleIDs lists the unmapped rules so gaps are visible
	UnmappedRuleIDs []string `json:"unmapped_rule_ids,omitempty"`

	// CrashedRuleIDs lists the crashed rules
	CrashedRuleIDs []string `json:"crashed_rule_ids,omitempty"`
}

// Run is the immutable result of one audit. Surrounding tooling reads
// runs; nothing mutates them after the Auditor returns.
type Run struct {
	// ID is the unique run identifier
	ID string `json:"id"`

	// StartedAt is when the run began
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run finished or was cancelled
	FinishedAt time.Time `json:"finished_at"`

	// Findings holds every finding produced by executed checks
	Findings []Finding `json:"findings"`

	// ExecutedRuleIDs lists the rules whose checks ran, sorted
	ExecutedRuleIDs []string `json:"executed_rule_ids"`

	// Stats is the coverage accounting for the run
	Stats CoverageStats `json:"stats"`

	// Verdict is the aggregate outcome
	Verdict Verdict `json:"verdict"`

	// Status distinguishes completed runs from cancelled ones
	Status Status `json:"status"`

	// PolicyVersion is the policy store version the run audited against
	PolicyVersion string `json:"policy_version,omitempty"`
}

// Duration returns the wall-clock duration of the run.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// BlockingFindings returns the findings with blocking severity.
func (r *Run) BlockingFindings() []Finding {
	var blocking []Finding
	for _, f := range r.Findings {
		if f.Severity.Blocking() {
			blocking = append(blocking, f)
		}
	}
	return blocking
}

// CountBySeverity tallies findings per severity level.
func (r *Run) CountBySeverity() map[policy.Severity]int {
	counts := make(map[policy.Severity]int)
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}
