package format

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/AleutianAI/depscope/services/depscan"
	"github.com/AleutianAI/depscope/services/depscan/analysis"
)

func sampleReport() *depscan.Report {
	return &depscan.Report{
		RunID:        "test-run",
		Root:         "/proj",
		InternalRoot: "apps",
		FilesScanned: 4,
		FilesFailed:  1,
		FileErrors:   []depscan.FileError{{File: "apps/broken.py", Error: "source contains syntax errors"}},
		UnusedImports: []analysis.Finding{{
			Kind: analysis.KindUnusedImport, File: "apps/a.py", Line: 1,
			Statement: "import os", Name: "os",
			Description: `imported name "os" is never used`,
		}},
		CircularImports: []analysis.CircularEntry{{
			Modules: []string{"apps.a.x", "apps.b.y"}, Severity: analysis.SeverityMedium,
		}},
		StyleInconsistencies: []analysis.Finding{{
			Kind: analysis.KindMixedImportStyles, File: "apps/a.py",
			Description: "file mixes relative and absolute imports of internal modules",
		}},
		PotentialIssues: []analysis.Finding{},
		Summary: depscan.Summary{
			UnusedImports: 1, CircularImports: 1, StyleInconsistencies: 1,
		},
	}
}

func TestWriteJSON(t *testing.T) {
	var b strings.Builder
	if err := WriteJSON(&b, sampleReport()); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(b.String()), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	for _, key := range []string{"unused_imports", "circular_imports", "style_inconsistencies", "potential_issues"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
}

func TestWriteText(t *testing.T) {
	var b strings.Builder
	if err := WriteText(&b, sampleReport()); err != nil {
		t.Fatal(err)
	}
	out := b.String()

	for _, want := range []string{
		"Files scanned: 4 (1 failed)",
		"[medium] apps.a.x <-> apps.b.y",
		"apps/a.py:1  import os",
		"apps/broken.py: source contains syntax errors",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteMarkdown(t *testing.T) {
	var b strings.Builder
	if err := WriteMarkdown(&b, sampleReport()); err != nil {
		t.Fatal(err)
	}
	out := b.String()

	for _, want := range []string{
		"# Dependency Analysis",
		"## Circular Imports (1)",
		"| medium | apps.a.x, apps.b.y |",
		"`import os`",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	var b strings.Builder
	if err := Write(&b, sampleReport(), "yaml"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestWritePackageGraph(t *testing.T) {
	var b strings.Builder
	err := WritePackageGraph(&b, map[string][]string{
		"users":   {"billing", "shared"},
		"billing": {},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := "billing -> (none)\nusers -> billing, shared\n"
	if b.String() != want {
		t.Errorf("got %q, want %q", b.String(), want)
	}
}
