// Package ast extracts import declarations and identifier usage from Python
// source files.
//
// The package wraps a tree-sitter parse of a single file and reduces it to
// the two facts the dependency analyzer needs: the ordered list of import
// statements (with aliases, relative levels, and line spans) and the set of
// bare identifiers the file reads. It performs no scope analysis; identifier
// usage is a deliberate approximation suited to architectural triage rather
// than linting-grade precision.
//
// Design principles:
//   - Timestamps as int64 UnixMilli per project conventions
//   - No map[string]interface{} - concrete types only
//   - Parse failures produce a tagged result, never a silent drop
package ast

import (
	"fmt"
	"strings"
	"time"
)

// Location represents a position range within a source file.
//
// Line numbers are 1-indexed (first line is 1), matching the convention
// used by editors and the auto-fix collaborator.
type Location struct {
	// FilePath is the path to the source file, relative to project root.
	FilePath string `json:"file_path"`

	// StartLine is the 1-indexed line number where the statement starts.
	StartLine int `json:"start_line"`

	// EndLine is the 1-indexed line number where the statement ends.
	EndLine int `json:"end_line"`
}

// String returns a human-readable representation of the location.
func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.FilePath, l.StartLine)
}

// Import represents one imported name.
//
// A statement importing several names produces one record per name:
// `from x import a, b` yields two records sharing the statement's module
// path and location. This keeps unused-import and edge bookkeeping per
// bound name rather than per statement.
type Import struct {
	// Path is the module path as written, without leading dots.
	// Example: "os.path", or "models" for `from .models import User`.
	// Empty for `from . import x`.
	Path string `json:"path"`

	// Name is the imported name for a from-import (`User` in
	// `from .models import User`). Empty for plain and wildcard imports.
	Name string `json:"name,omitempty"`

	// Alias is the local alias, if the name was imported `as` something.
	Alias string `json:"alias,omitempty"`

	// Level is the relative-import level: the number of leading dots.
	// 0 means absolute.
	Level int `json:"level,omitempty"`

	// IsFrom distinguishes `from x import y` records from plain imports.
	IsFrom bool `json:"is_from,omitempty"`

	// IsWildcard indicates `from module import *`.
	IsWildcard bool `json:"is_wildcard,omitempty"`

	// Location is where the import statement appears in the file.
	Location Location `json:"location"`
}

// IsRelative reports whether the import is relative (level > 0).
func (i Import) IsRelative() bool {
	return i.Level > 0
}

// Statement reconstructs the canonical source form of the import.
//
// The reconstruction is used in findings so a reader can locate the
// statement without reopening the file. A record split off a multi-name
// statement reconstructs with its own name only.
func (i Import) Statement() string {
	if !i.IsFrom {
		if i.Alias != "" {
			return fmt.Sprintf("import %s as %s", i.Path, i.Alias)
		}
		return "import " + i.Path
	}

	module := strings.Repeat(".", i.Level) + i.Path
	if i.IsWildcard {
		return fmt.Sprintf("from %s import *", module)
	}
	if i.Alias != "" {
		return fmt.Sprintf("from %s import %s as %s", module, i.Name, i.Alias)
	}
	return fmt.Sprintf("from %s import %s", module, i.Name)
}

// BoundName returns the identifier this import introduces into the
// importing file's namespace: the alias if present, otherwise the first
// dotted segment for plain imports (`import os.path` binds "os") or the
// imported name for from-imports. Wildcard imports bind an unknowable set
// and return "".
func (i Import) BoundName() string {
	if i.IsWildcard {
		return ""
	}
	if i.Alias != "" {
		return i.Alias
	}
	if i.IsFrom {
		return i.Name
	}
	first, _, _ := strings.Cut(i.Path, ".")
	return first
}

// ParseResult contains the output of parsing a single source file.
//
// A file that fails to decode or parse yields a result with Failed set and
// empty Imports/UsedNames. Failed files are excluded from graph and cycle
// analysis but still counted in file-scan totals; they are never silently
// dropped.
type ParseResult struct {
	// FilePath is the path to the parsed file, relative to project root.
	FilePath string `json:"file_path"`

	// Imports lists all import statements in source order.
	Imports []Import `json:"imports"`

	// UsedNames is the set of top-level identifiers the file reads.
	// A bare name-load counts fully; an attribute access `foo.bar`
	// contributes only "foo". No scope resolution is performed.
	UsedNames map[string]struct{} `json:"-"`

	// Hash is the SHA-256 hash of the file content at parse time.
	// Used for incremental re-analysis staleness checks.
	Hash string `json:"hash"`

	// Failed indicates the file could not be analyzed (bad syntax or
	// encoding). Failed results carry no imports or used names.
	Failed bool `json:"failed,omitempty"`

	// Errors contains non-fatal parse diagnostics.
	Errors []string `json:"errors,omitempty"`

	// ParsedAtMilli is the Unix timestamp in milliseconds when parsing
	// completed.
	ParsedAtMilli int64 `json:"parsed_at_milli"`

	// ParseDurationMs is how long parsing took in milliseconds.
	ParseDurationMs int64 `json:"parse_duration_ms"`
}

// Uses reports whether the file reads the given identifier.
func (r *ParseResult) Uses(name string) bool {
	_, ok := r.UsedNames[name]
	return ok
}

// HasErrors returns true if the parse result contains any diagnostics.
func (r *ParseResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// SetParsedAt sets the ParsedAtMilli field to the current time.
func (r *ParseResult) SetParsedAt() {
	r.ParsedAtMilli = time.Now().UnixMilli()
}

// ValidationError represents a validation failure with field context.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks that the ParseResult has valid field values.
//
// Validates:
//   - FilePath is non-empty and doesn't contain path traversal
//   - Every import has a positive start line
//   - Every absolute import carries a module path
func (r *ParseResult) Validate() error {
	if r.FilePath == "" {
		return ValidationError{Field: "FilePath", Message: "must not be empty"}
	}

	if strings.Contains(r.FilePath, "..") {
		return ValidationError{Field: "FilePath", Message: "must not contain path traversal (..)"}
	}

	for i, imp := range r.Imports {
		if imp.Location.StartLine < 1 {
			return ValidationError{
				Field:   fmt.Sprintf("Imports[%d].Location.StartLine", i),
				Message: "must be >= 1",
			}
		}
		if imp.Path == "" && imp.Level == 0 {
			return ValidationError{
				Field:   fmt.Sprintf("Imports[%d].Path", i),
				Message: "must not be empty for absolute imports",
			}
		}
	}

	return nil
}
