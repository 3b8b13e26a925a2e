package autofix

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/depscope/services/depscan/analysis"
)

const fixtureSource = `import os
import sys
import json

print(sys.argv)
`

func writeFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "apps", "tool.py")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(fixtureSource), 0o644))
	return root
}

func unusedAt(file string, line int) analysis.Finding {
	return analysis.Finding{Kind: analysis.KindUnusedImport, File: file, Line: line}
}

func TestFixer_Apply_DeletesDescending(t *testing.T) {
	root := writeFixture(t)
	fixer := NewFixer(root, false, nil)

	// Lines 1 and 3 are unused; ascending deletion would shift line 3
	// onto the wrong statement.
	result, err := fixer.Apply(context.Background(), []analysis.Finding{
		unusedAt("apps/tool.py", 1),
		unusedAt("apps/tool.py", 3),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesModified)
	assert.Equal(t, 2, result.LinesRemoved)

	content, err := os.ReadFile(filepath.Join(root, "apps", "tool.py"))
	require.NoError(t, err)
	assert.Equal(t, "import sys\n\nprint(sys.argv)\n", string(content))
}

func TestFixer_Apply_DryRun(t *testing.T) {
	root := writeFixture(t)
	fixer := NewFixer(root, true, nil)

	result, err := fixer.Apply(context.Background(), []analysis.Finding{
		unusedAt("apps/tool.py", 1),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.LinesRemoved)

	content, err := os.ReadFile(filepath.Join(root, "apps", "tool.py"))
	require.NoError(t, err)
	assert.Equal(t, fixtureSource, string(content), "dry run must not touch the file")
}

func TestFixer_Apply_SkipsOtherKindsAndDuplicates(t *testing.T) {
	root := writeFixture(t)
	fixer := NewFixer(root, false, nil)

	result, err := fixer.Apply(context.Background(), []analysis.Finding{
		unusedAt("apps/tool.py", 1),
		unusedAt("apps/tool.py", 1), // duplicate line
		{Kind: analysis.KindMixedImportStyles, File: "apps/tool.py"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.LinesRemoved)
}

func TestFixer_Apply_RemovesMultiLineSpan(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "apps", "spanned.py")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	source := "from typing import (\n    List,\n)\n\nx = 1\n"
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))

	fixer := NewFixer(root, false, nil)
	result, err := fixer.Apply(context.Background(), []analysis.Finding{
		{Kind: analysis.KindUnusedImport, File: "apps/spanned.py", Line: 1, EndLine: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.LinesRemoved)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\nx = 1\n", string(content),
		"continuation lines of the import must go with it")
}

func TestFixer_Apply_SpanClampedToFileEnd(t *testing.T) {
	root := writeFixture(t)
	fixer := NewFixer(root, false, nil)

	result, err := fixer.Apply(context.Background(), []analysis.Finding{
		{Kind: analysis.KindUnusedImport, File: "apps/tool.py", Line: 3, EndLine: 999},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesModified)

	content, err := os.ReadFile(filepath.Join(root, "apps", "tool.py"))
	require.NoError(t, err)
	assert.Equal(t, "import os\nimport sys", string(content))
}

func TestFixer_Apply_MissingFileIsSkippedNotFatal(t *testing.T) {
	root := t.TempDir()
	fixer := NewFixer(root, false, nil)

	result, err := fixer.Apply(context.Background(), []analysis.Finding{
		unusedAt("apps/gone.py", 1),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.FilesModified)
	assert.Len(t, result.Skipped, 1)
}

func TestFixer_Apply_OutOfRangeLineIgnored(t *testing.T) {
	root := writeFixture(t)
	fixer := NewFixer(root, false, nil)

	result, err := fixer.Apply(context.Background(), []analysis.Finding{
		unusedAt("apps/tool.py", 999),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.LinesRemoved)
	assert.Equal(t, 0, result.FilesModified)
}
