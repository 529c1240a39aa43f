package policy

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// LoaderConfig contains configuration for the policy loader.
type LoaderConfig struct {
	// MaxFileSize is the maximum policy file size in bytes (default: 1MB)
	MaxFileSize int64

	// AllowedExtensions is the list of policy file extensions
	// (default: [".yaml", ".yml"])
	AllowedExtensions []string

	// FollowSymlinks controls whether directory loading follows symbolic
	// links (default: true)
	FollowSymlinks bool

	// SkipHidden controls whether hidden files and directories are
	// skipped (default: true)
	SkipHidden bool
}

// DefaultLoaderConfig returns the default loader configuration.
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		MaxFileSize:       1 * 1024 * 1024, // 1MB
		AllowedExtensions: []string{".yaml", ".yml"},
		FollowSymlinks:    true,
		SkipHidden:        true,
	}
}

// Loader reads policies from the file system. It supports single files
// and directory trees with validation.
type Loader struct {
	config *LoaderConfig
}

// NewLoader creates a new policy loader with the given configuration.
func NewLoader(config *LoaderConfig) *Loader {
	if config == nil {
		config = DefaultLoaderConfig()
	}
	return &Loader{config: config}
}

// policyDocument is the YAML wire form of one policy file.
type policyDocument struct {
	Policy      string         `yaml:"policy"`
	Version     string         `yaml:"version"`
	Description string         `yaml:"description"`
	Author      string         `yaml:"author"`
	Tags        []string       `yaml:"tags"`
	Rules       []ruleDocument `yaml:"rules"`
}

// ruleDocument is the YAML wire form of one rule. Severity stays a string
// here so a missing key can be told apart from a mistyped one, and
// Mandatory stays a pointer so the severity-based default only applies
// when the author said nothing.
type ruleDocument struct {
	ID        string                 `yaml:"id"`
	Severity  string                 `yaml:"severity"`
	Scope     string                 `yaml:"scope"`
	Mandatory *bool                  `yaml:"mandatory"`
	Params    map[string]interface{} `yaml:"params"`
}

// LoadFromFile loads a single policy file from the given path.
// It performs file size validation, UTF-8 validation, YAML parsing, and
// semantic validation of the decoded document.
func (l *Loader) LoadFromFile(path string) (*Policy, error) {
	// Check if file exists and get info
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{
				FilePath: path,
				Message:  "file not found",
				Cause:    err,
			}
		}
		if os.IsPermission(err) {
			return nil, &LoadError{
				FilePath: path,
				Message:  "permission denied",
				Cause:    err,
			}
		}
		return nil, &LoadError{
			FilePath: path,
			Message:  "failed to access file",
			Cause:    err,
		}
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, &LoadError{
			FilePath: path,
			Message:  "not a regular file",
		}
	}

	if fileInfo.Size() > l.config.MaxFileSize {
		return nil, &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", fileInfo.Size(), l.config.MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			FilePath: path,
			Message:  "failed to read file",
			Cause:    err,
		}
	}

	if !utf8.Valid(data) {
		return nil, &LoadError{
			FilePath: path,
			Message:  "file contains invalid UTF-8 encoding",
		}
	}

	var doc policyDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{
			FilePath: path,
			Message:  "YAML parsing failed",
			Cause:    err,
		}
	}

	return l.buildPolicy(path, &doc)
}

// buildPolicy converts a decoded document into a validated Policy.
func (l *Loader) buildPolicy(path string, doc *policyDocument) (*Policy, error) {
	if doc.Policy == "" {
		return nil, &ValidationError{
			Message: fmt.Sprintf("document %q is missing the required 'policy' identifier", path),
		}
	}

	policy := &Policy{
		ID:          doc.Policy,
		Version:     doc.Version,
		Description: doc.Description,
		Author:      doc.Author,
		Tags:        doc.Tags,
		Rules:       make([]*RuleSpec, 0, len(doc.Rules)),
		SourceFile:  path,
	}

	seen := make(map[string]bool, len(doc.Rules))
	for i, rd := range doc.Rules {
		rule, err := buildRule(policy.ID, i, rd)
		if err != nil {
			return nil, err
		}
		if seen[rule.ID] {
			return nil, &ValidationError{
				PolicyID: policy.ID,
				RuleID:   rule.ID,
				Message:  "declared more than once in the same policy",
			}
		}
		seen[rule.ID] = true
		policy.Rules = append(policy.Rules, rule)
	}

	return policy, nil
}

// buildRule converts one rule document into a validated RuleSpec.
func buildRule(policyID string, index int, rd ruleDocument) (*RuleSpec, error) {
	if rd.ID == "" {
		return nil, &ValidationError{
			PolicyID: policyID,
			Message:  fmt.Sprintf("rule at index %d is missing the required 'id'", index),
		}
	}

	if rd.Severity == "" {
		return nil, &ValidationError{
			PolicyID: policyID,
			RuleID:   rd.ID,
			Message:  "missing the required 'severity'",
		}
	}
	severity, err := ParseSeverity(rd.Severity)
	if err != nil {
		return nil, &ValidationError{
			PolicyID: policyID,
			RuleID:   rd.ID,
			Message:  "invalid severity",
			Cause:    err,
		}
	}

	if err := ValidateScope(rd.Scope); err != nil {
		return nil, &ValidationError{
			PolicyID: policyID,
			RuleID:   rd.ID,
			Message:  "invalid scope glob",
			Cause:    err,
		}
	}

	// Mandatory defaults to the blocking severities when unset so
	// existing policies keep their enforcement weight.
	mandatory := severity.Blocking()
	if rd.Mandatory != nil {
		mandatory = *rd.Mandatory
	}

	params := rd.Params
	if params == nil {
		params = map[string]interface{}{}
	}

	return &RuleSpec{
		ID:           rd.ID,
		Severity:     severity,
		Scope:        rd.Scope,
		Params:       params,
		SourcePolicy: policyID,
		Mandatory:    mandatory,
	}, nil
}

// LoadFromDirectory loads all policy files from the given directory
// recursively. It returns the successfully loaded policies and collects
// per-file errors into an ErrorList.
func (l *Loader) LoadFromDirectory(dir string) ([]*Policy, error) {
	fileInfo, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{
				FilePath: dir,
				Message:  "directory not found",
				Cause:    err,
			}
		}
		return nil, &LoadError{
			FilePath: dir,
			Message:  "failed to access directory",
			Cause:    err,
		}
	}

	if !fileInfo.IsDir() {
		return nil, &LoadError{
			FilePath: dir,
			Message:  "not a directory",
		}
	}

	policyFiles, err := l.collectPolicyFiles(dir)
	if err != nil {
		return nil, err
	}

	if len(policyFiles) == 0 {
		return nil, &LoadError{
			FilePath: dir,
			Message:  "no policy files found in directory",
		}
	}

	var policies []*Policy
	errList := &ErrorList{}

	for _, filePath := range policyFiles {
		policy, err := l.LoadFromFile(filePath)
		if err != nil {
			errList.Add(err)
			continue
		}
		policies = append(policies, policy)
	}

	// All files failed: report only the errors.
	if len(policies) == 0 && errList.HasErrors() {
		return nil, errList
	}

	// Partial success: return what loaded along with the errors.
	if errList.HasErrors() {
		return policies, errList
	}

	return policies, nil
}

// collectPolicyFiles collects all policy file paths under dir, filtering
// by extension and skipping hidden entries based on configuration.
func (l *Loader) collectPolicyFiles(dir string) ([]string, error) {
	var policyFiles []string
	visited := make(map[string]bool)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if l.config.SkipHidden && strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			if !l.config.FollowSymlinks {
				return nil
			}

			realPath, err := filepath.EvalSymlinks(path)
			if err != nil {
				return &LoadError{
					FilePath: path,
					Message:  "failed to resolve symlink",
					Cause:    err,
				}
			}

			if visited[realPath] {
				return &LoadError{
					FilePath: path,
					Message:  "symlink loop detected",
				}
			}
			visited[realPath] = true

			if !l.hasValidExtension(realPath) {
				return nil
			}

			policyFiles = append(policyFiles, path)
			return nil
		}

		if !l.hasValidExtension(path) {
			return nil
		}

		policyFiles = append(policyFiles, path)
		return nil
	})

	if err != nil {
		return nil, &LoadError{
			FilePath: dir,
			Message:  "failed to walk directory",
			Cause:    err,
		}
	}

	return policyFiles, nil
}

// hasValidExtension checks if the file has a recognized policy extension.
func (l *Loader) hasValidExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, validExt := range l.config.AllowedExtensions {
		if ext == strings.ToLower(validExt) {
			return true
		}
	}
	return false
}
