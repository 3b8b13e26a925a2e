package ast

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

const simpleImports = `import os
import sys as system
import os.path

x = os.getcwd()
`

const fromImports = `from collections import OrderedDict
from typing import List, Optional
from apps.users.models import User as Account

d = OrderedDict()
items: List[int] = []
account = Account()
`

const relativeImports = `from . import models
from .models import User
from ..shared import helpers
from ...core.utils import slugify

print(models, User, helpers, slugify)
`

const wildcardImport = `from os.path import *

print(join("a", "b"))
`

const attributeUsage = `import os
import collections

path = os.path.join("a", "b")
`

const brokenSource = `def broken(:
    return None
`

func TestPythonParser_Parse_PlainImports(t *testing.T) {
	parser := NewPythonParser()
	result, err := parser.Parse(context.Background(), []byte(simpleImports), "apps/a.py")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(result.Imports) != 3 {
		t.Fatalf("expected 3 imports, got %d: %+v", len(result.Imports), result.Imports)
	}

	if result.Imports[0].Path != "os" || result.Imports[0].IsFrom {
		t.Errorf("import 0: got %+v", result.Imports[0])
	}
	if result.Imports[0].Location.StartLine != 1 {
		t.Errorf("import 0 line: got %d, want 1", result.Imports[0].Location.StartLine)
	}

	if result.Imports[1].Path != "sys" || result.Imports[1].Alias != "system" {
		t.Errorf("import 1: got %+v", result.Imports[1])
	}
	if got := result.Imports[1].BoundName(); got != "system" {
		t.Errorf("import 1 bound name: got %q, want %q", got, "system")
	}

	if result.Imports[2].Path != "os.path" {
		t.Errorf("import 2: got %+v", result.Imports[2])
	}
	if got := result.Imports[2].BoundName(); got != "os" {
		t.Errorf("import 2 bound name: got %q, want %q", got, "os")
	}
}

func TestPythonParser_Parse_FromImports(t *testing.T) {
	parser := NewPythonParser()
	result, err := parser.Parse(context.Background(), []byte(fromImports), "apps/b.py")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// from typing import List, Optional splits into two records.
	if len(result.Imports) != 4 {
		t.Fatalf("expected 4 import records, got %d: %+v", len(result.Imports), result.Imports)
	}

	tests := []struct {
		path  string
		name  string
		bound string
	}{
		{"collections", "OrderedDict", "OrderedDict"},
		{"typing", "List", "List"},
		{"typing", "Optional", "Optional"},
		{"apps.users.models", "User", "Account"},
	}
	for i, want := range tests {
		got := result.Imports[i]
		if got.Path != want.path || got.Name != want.name {
			t.Errorf("import %d: got path=%q name=%q, want path=%q name=%q",
				i, got.Path, got.Name, want.path, want.name)
		}
		if !got.IsFrom {
			t.Errorf("import %d: IsFrom not set", i)
		}
		if bound := got.BoundName(); bound != want.bound {
			t.Errorf("import %d bound name: got %q, want %q", i, bound, want.bound)
		}
	}

	// The two records from one statement share its line.
	if result.Imports[1].Location.StartLine != result.Imports[2].Location.StartLine {
		t.Error("records split from one statement should share a line")
	}
}

func TestPythonParser_Parse_RelativeImports(t *testing.T) {
	parser := NewPythonParser()
	result, err := parser.Parse(context.Background(), []byte(relativeImports), "apps/c.py")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(result.Imports) != 4 {
		t.Fatalf("expected 4 imports, got %d: %+v", len(result.Imports), result.Imports)
	}

	tests := []struct {
		path  string
		name  string
		level int
	}{
		{"", "models", 1},
		{"models", "User", 1},
		{"shared", "helpers", 2},
		{"core.utils", "slugify", 3},
	}
	for i, want := range tests {
		got := result.Imports[i]
		if got.Path != want.path || got.Name != want.name || got.Level != want.level {
			t.Errorf("import %d: got path=%q name=%q level=%d, want path=%q name=%q level=%d",
				i, got.Path, got.Name, got.Level, want.path, want.name, want.level)
		}
		if !got.IsRelative() {
			t.Errorf("import %d: expected relative", i)
		}
	}
}

func TestPythonParser_Parse_WildcardImport(t *testing.T) {
	parser := NewPythonParser()
	result, err := parser.Parse(context.Background(), []byte(wildcardImport), "apps/d.py")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(result.Imports) != 1 {
		t.Fatalf("expected 1 import, got %d", len(result.Imports))
	}
	imp := result.Imports[0]
	if !imp.IsWildcard || imp.Path != "os.path" {
		t.Errorf("got %+v", imp)
	}
	if imp.BoundName() != "" {
		t.Errorf("wildcard should bind no single name, got %q", imp.BoundName())
	}
	if got := imp.Statement(); got != "from os.path import *" {
		t.Errorf("Statement: got %q", got)
	}
}

func TestPythonParser_Parse_UsedIdentifiers(t *testing.T) {
	parser := NewPythonParser()
	result, err := parser.Parse(context.Background(), []byte(attributeUsage), "apps/e.py")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !result.Uses("os") {
		t.Error("attribute access os.path.join should mark os as used")
	}
	if result.Uses("join") {
		t.Error("attribute member join must not count as a used identifier")
	}
	if result.Uses("collections") {
		t.Error("collections is imported but never read")
	}
	if result.Uses("path") {
		t.Error("assignment target path must not count as a read")
	}
}

func TestPythonParser_Parse_SyntaxError(t *testing.T) {
	parser := NewPythonParser()
	result, err := parser.Parse(context.Background(), []byte(brokenSource), "apps/broken.py")
	if err != nil {
		t.Fatalf("broken source must yield a tagged result, not an error: %v", err)
	}

	if !result.Failed {
		t.Fatal("expected Failed to be set")
	}
	if len(result.Imports) != 0 {
		t.Errorf("failed parse must carry no imports, got %d", len(result.Imports))
	}
	if !result.HasErrors() {
		t.Error("expected a diagnostic message")
	}
}

func TestPythonParser_Parse_InvalidInput(t *testing.T) {
	parser := NewPythonParser(WithMaxFileSize(16))

	t.Run("too large", func(t *testing.T) {
		_, err := parser.Parse(context.Background(), []byte(strings.Repeat("x", 32)), "a.py")
		if !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("got %v, want ErrFileTooLarge", err)
		}
	})

	t.Run("invalid utf8", func(t *testing.T) {
		_, err := parser.Parse(context.Background(), []byte{0xff, 0xfe, 0xfd}, "a.py")
		if !errors.Is(err, ErrInvalidContent) {
			t.Errorf("got %v, want ErrInvalidContent", err)
		}
	})
}

func TestPythonParser_Parse_Canceled(t *testing.T) {
	parser := NewPythonParser()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := parser.Parse(ctx, []byte("import os\n"), "a.py")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestPythonParser_Parse_HashDeterminism(t *testing.T) {
	parser := NewPythonParser()
	a, err := parser.Parse(context.Background(), []byte(simpleImports), "a.py")
	if err != nil {
		t.Fatal(err)
	}
	b, err := parser.Parse(context.Background(), []byte(simpleImports), "a.py")
	if err != nil {
		t.Fatal(err)
	}
	if a.Hash == "" || a.Hash != b.Hash {
		t.Errorf("hashes differ: %q vs %q", a.Hash, b.Hash)
	}
}

func TestPythonParser_Parse_Concurrent(t *testing.T) {
	parser := NewPythonParser()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := parser.Parse(ctx, []byte(fromImports), "a.py")
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent parse failed: %v", err)
		}
	}
}

func TestImport_Statement(t *testing.T) {
	tests := []struct {
		name string
		imp  Import
		want string
	}{
		{"plain", Import{Path: "os"}, "import os"},
		{"plain aliased", Import{Path: "numpy", Alias: "np"}, "import numpy as np"},
		{"from", Import{Path: "typing", Name: "List", IsFrom: true}, "from typing import List"},
		{"from aliased", Import{Path: "a.b", Name: "c", Alias: "d", IsFrom: true}, "from a.b import c as d"},
		{"relative", Import{Path: "models", Name: "User", Level: 1, IsFrom: true}, "from .models import User"},
		{"bare relative", Import{Name: "x", Level: 2, IsFrom: true}, "from .. import x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.imp.Statement(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
