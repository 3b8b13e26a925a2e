package resolve

import (
	"path/filepath"
	"testing"
)

func TestResolver_FileToModule(t *testing.T) {
	r := NewResolver("/proj", "apps")

	tests := []struct {
		name string
		path string
		want string
	}{
		{"regular module", "/proj/apps/users/models.py", "apps.users.models"},
		{"package init", "/proj/apps/users/__init__.py", "apps.users"},
		{"top-level init", "/proj/apps/__init__.py", "apps"},
		{"stub file", "/proj/apps/users/models.pyi", "apps.users.models"},
		{"root-level module", "/proj/manage.py", "manage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.FileToModule(tt.path); got != tt.want {
				t.Errorf("FileToModule(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolver_ModuleToFile_RoundTrip(t *testing.T) {
	r := NewResolver("/proj", "apps")

	// file -> module -> file is stable for regular modules.
	path := filepath.Join("/proj", "apps", "users", "models.py")
	module := r.FileToModule(path)
	if got := r.ModuleToFile(module); got != path {
		t.Errorf("round trip: got %q, want %q", got, path)
	}

	// __init__.py collapses, so its round trip lands on the package file.
	init := filepath.Join("/proj", "apps", "users", "__init__.py")
	if got := r.ModuleToFile(r.FileToModule(init)); got != filepath.Join("/proj", "apps", "users.py") {
		t.Errorf("init round trip: got %q", got)
	}
}

func TestResolver_ResolveRelative(t *testing.T) {
	r := NewResolver("/proj", "apps")

	tests := []struct {
		name     string
		current  string
		imported string
		level    int
		want     string
	}{
		{"sibling", "apps.a.b", "c", 1, "apps.a.c"},
		{"bare dot", "apps.a.b", "", 1, "apps.a"},
		{"parent", "apps.a.b", "c", 2, "apps.c"},
		{"absolute passthrough", "apps.a.b", "os.path", 0, "os.path"},
		{"level equals depth", "apps.a.b", "c", 3, "c"},
		{"level exceeds depth", "apps.a", "c", 5, "c"},
		{"level exceeds depth empty", "apps", "", 3, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.ResolveRelative(tt.current, tt.imported, tt.level)
			if got != tt.want {
				t.Errorf("ResolveRelative(%q, %q, %d) = %q, want %q",
					tt.current, tt.imported, tt.level, got, tt.want)
			}
		})
	}
}

func TestResolver_IsInternal(t *testing.T) {
	r := NewResolver("/proj", "apps")

	if !r.IsInternal("apps.users.models") {
		t.Error("apps.users.models should be internal")
	}
	if !r.IsInternal("apps") {
		t.Error("the prefix itself should be internal")
	}
	if r.IsInternal("appserver.models") {
		t.Error("prefix match must respect dotted boundaries")
	}
	if r.IsInternal("os.path") {
		t.Error("os.path is external")
	}

	none := NewResolver("/proj", "")
	if none.IsInternal("apps.users") {
		t.Error("empty prefix marks nothing internal")
	}
}

func TestResolver_PackageOf(t *testing.T) {
	r := NewResolver("/proj", "apps")

	if got := r.PackageOf("apps.users.models"); got != "users" {
		t.Errorf("got %q, want users", got)
	}
	if got := r.PackageOf("apps"); got != "apps" {
		t.Errorf("got %q, want apps", got)
	}
	if got := r.PackageOf("os.path"); got != "os" {
		t.Errorf("got %q, want os", got)
	}
}
