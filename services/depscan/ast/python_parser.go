package ast

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// PythonParserOption configures a PythonParser instance.
type PythonParserOption func(*PythonParser)

// WithMaxFileSize sets the maximum file size the parser will accept.
//
// Parameters:
//   - bytes: Maximum file size in bytes. Must be positive.
//
// Example:
//
//	parser := NewPythonParser(WithMaxFileSize(5 * 1024 * 1024)) // 5MB limit
func WithMaxFileSize(bytes int64) PythonParserOption {
	return func(p *PythonParser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// PythonParser extracts import statements and identifier usage from Python
// source code.
//
// Description:
//
//	PythonParser uses tree-sitter to parse Python source files and walk the
//	resulting syntax tree once, dispatching on a closed set of node kinds:
//	import statements emit one record per imported name, and name-loads and
//	attribute-access bases populate the used-identifier set.
//
// Thread Safety:
//
//	PythonParser instances are safe for concurrent use. Each Parse call
//	creates its own tree-sitter parser instance internally.
//
// Example:
//
//	parser := NewPythonParser()
//	result, err := parser.Parse(ctx, []byte("import os"), "apps/a.py")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, imp := range result.Imports {
//	    fmt.Printf("%s at line %d\n", imp.Path, imp.Location.StartLine)
//	}
type PythonParser struct {
	maxFileSize int64
}

// NewPythonParser creates a new PythonParser with the given options.
//
// Outputs:
//   - *PythonParser: Configured parser instance, never nil
func NewPythonParser(opts ...PythonParserOption) *PythonParser {
	p := &PythonParser{
		maxFileSize: DefaultMaxFileSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Parse extracts imports and used identifiers from Python source code.
//
// Description:
//
//	Parses the provided source with tree-sitter and reduces the tree to a
//	ParseResult. Syntactically broken files yield a result with Failed set
//	and no imports: such files are excluded from graph and cycle analysis
//	but still counted in scan totals.
//
// Inputs:
//   - ctx: Context for cancellation. Checked before and after parsing.
//     Tree-sitter parsing itself cannot be interrupted mid-parse.
//   - content: Raw Python source code bytes. Must be valid UTF-8.
//   - filePath: Path to the file, relative to project root, forward slashes.
//
// Outputs:
//   - *ParseResult: Extraction output. Never nil on success.
//   - error: Non-nil for complete failures:
//   - ErrFileTooLarge: Content exceeds maxFileSize
//   - ErrInvalidContent: Content is not valid UTF-8
//   - Context errors: Context was canceled or timed out
//
// Thread Safety:
//
//	This method is safe for concurrent use.
func (p *PythonParser) Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	start := time.Now()

	if int64(len(content)) > p.maxFileSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}

	if len(content) > WarnFileSize {
		slog.Warn("parsing large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	// Compute hash before parsing (captures input)
	hash := sha256.Sum256(content)
	hashStr := hex.EncodeToString(hash[:])

	// New tree-sitter parser instance per call for thread safety
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	result := &ParseResult{
		FilePath:  filePath,
		Hash:      hashStr,
		Imports:   make([]Import, 0),
		UsedNames: make(map[string]struct{}),
		Errors:    make([]string, 0),
	}

	rootNode := tree.RootNode()
	if rootNode == nil {
		result.Failed = true
		result.Errors = append(result.Errors, "tree-sitter returned nil root node")
		return p.finish(result, start), nil
	}

	// Broken files are tagged and excluded from extraction: partial trees
	// would attribute imports to the wrong statements.
	if rootNode.HasError() {
		result.Failed = true
		result.Errors = append(result.Errors, "source contains syntax errors")
		recordParse(ctx, time.Since(start), 0, true)
		return p.finish(result, start), nil
	}

	p.walk(rootNode, content, result)

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("result validation failed: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled after extraction: %w", err)
	}

	recordParse(ctx, time.Since(start), len(result.Imports), false)
	return p.finish(result, start), nil
}

// finish stamps timing metadata on the result.
func (p *PythonParser) finish(result *ParseResult, start time.Time) *ParseResult {
	result.SetParsedAt()
	result.ParseDurationMs = time.Since(start).Milliseconds()
	return result
}

// Language returns the canonical language name for this parser.
func (p *PythonParser) Language() string {
	return "python"
}

// Extensions returns the file extensions this parser handles.
func (p *PythonParser) Extensions() []string {
	return []string{".py", ".pyi"}
}

// walk performs the single extraction traversal.
//
// Dispatch is on a closed set of node kinds. Import statements consume
// their subtree (their identifiers are declarations, not uses). Attribute
// access descends only into the object side so `foo.bar` contributes "foo"
// alone. Definition names, parameter lists, and keyword-argument names are
// bindings, not reads, and are skipped.
func (p *PythonParser) walk(node *sitter.Node, content []byte, result *ParseResult) {
	switch node.Type() {
	case "import_statement":
		p.processImportStatement(node, content, result)
		return

	case "import_from_statement":
		p.processImportFromStatement(node, content, result)
		return

	case "attribute":
		if obj := node.ChildByFieldName("object"); obj != nil {
			p.walk(obj, content, result)
		}
		return

	case "identifier":
		result.UsedNames[string(content[node.StartByte():node.EndByte()])] = struct{}{}
		return

	case "function_definition", "class_definition":
		name := node.ChildByFieldName("name")
		params := node.ChildByFieldName("parameters")
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child == name || child == params {
				continue
			}
			p.walk(child, content, result)
		}
		return

	case "keyword_argument":
		if value := node.ChildByFieldName("value"); value != nil {
			p.walk(value, content, result)
		}
		return

	case "assignment":
		// A plain-identifier target is a binding, not a read. Compound
		// targets (tuples, subscripts, attributes) still get walked.
		left := node.ChildByFieldName("left")
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child == left && child.Type() == "identifier" {
				continue
			}
			p.walk(child, content, result)
		}
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		p.walk(node.Child(i), content, result)
	}
}

// processImportStatement handles 'import foo' or 'import foo as bar' style
// imports, emitting one record per imported dotted name.
func (p *PythonParser) processImportStatement(node *sitter.Node, content []byte, result *ParseResult) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name":
			path := string(content[child.StartByte():child.EndByte()])
			p.addImport(node, result, Import{Path: path})
		case "aliased_import":
			var path, alias string
			for j := 0; j < int(child.ChildCount()); j++ {
				grandchild := child.Child(j)
				switch grandchild.Type() {
				case "dotted_name":
					path = string(content[grandchild.StartByte():grandchild.EndByte()])
				case "identifier":
					alias = string(content[grandchild.StartByte():grandchild.EndByte()])
				}
			}
			if path != "" {
				p.addImport(node, result, Import{Path: path, Alias: alias})
			}
		}
	}
}

// processImportFromStatement handles 'from x import y' style imports,
// including relative imports with leading dots. One record is emitted per
// imported name, all sharing the statement's module path and location.
func (p *PythonParser) processImportFromStatement(node *sitter.Node, content []byte, result *ParseResult) {
	var modulePath string
	var level int
	var isWildcard bool
	var sawImport bool // Flips when the "import" keyword is reached

	type namedImport struct {
		name  string
		alias string
	}
	var names []namedImport

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "from":
			// Skip the "from" keyword
		case "import":
			sawImport = true
		case "relative_import":
			// relative_import holds import_prefix (dots) and optionally
			// a dotted_name
			for j := 0; j < int(child.ChildCount()); j++ {
				grandchild := child.Child(j)
				switch grandchild.Type() {
				case "import_prefix":
					level = int(grandchild.EndByte() - grandchild.StartByte())
				case "dotted_name":
					modulePath = string(content[grandchild.StartByte():grandchild.EndByte()])
				}
			}
		case "dotted_name":
			nameStr := string(content[child.StartByte():child.EndByte()])
			if !sawImport {
				// Before "import": this is the module path
				modulePath = nameStr
			} else {
				names = append(names, namedImport{name: nameStr})
			}
		case "wildcard_import":
			isWildcard = true
		case "aliased_import":
			// from x import y as z
			var importName, alias string
			for j := 0; j < int(child.ChildCount()); j++ {
				grandchild := child.Child(j)
				switch grandchild.Type() {
				case "identifier":
					if importName == "" {
						importName = string(content[grandchild.StartByte():grandchild.EndByte()])
					} else {
						alias = string(content[grandchild.StartByte():grandchild.EndByte()])
					}
				case "dotted_name":
					if importName == "" {
						importName = string(content[grandchild.StartByte():grandchild.EndByte()])
					}
				}
			}
			if importName != "" {
				names = append(names, namedImport{name: importName, alias: alias})
			}
		case "identifier":
			if sawImport {
				names = append(names, namedImport{name: string(content[child.StartByte():child.EndByte()])})
			}
		}
	}

	if modulePath == "" && level == 0 {
		return
	}

	if isWildcard {
		p.addImport(node, result, Import{
			Path:       modulePath,
			Level:      level,
			IsFrom:     true,
			IsWildcard: true,
		})
		return
	}

	for _, n := range names {
		p.addImport(node, result, Import{
			Path:   modulePath,
			Name:   n.name,
			Alias:  n.alias,
			Level:  level,
			IsFrom: true,
		})
	}
}

// addImport stamps the statement location on the record and appends it.
func (p *PythonParser) addImport(node *sitter.Node, result *ParseResult, imp Import) {
	imp.Location = Location{
		FilePath:  result.FilePath,
		StartLine: int(node.StartPoint().Row + 1),
		EndLine:   int(node.EndPoint().Row + 1),
	}
	result.Imports = append(result.Imports, imp)
}
