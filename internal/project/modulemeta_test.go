package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"loom/internal/source"
)

func TestResolveImportPath(t *testing.T) {
	tests := []struct {
		name       string
		modulePath string
		basePath   string
		segments   []string
		want       string
		wantErr    bool
	}{
		{
			name:       "simple",
			modulePath: "core/main",
			basePath:   "",
			segments:   []string{"std", "io"},
			want:       "core/std/io",
		},
		{
			name:       "relative same dir",
			modulePath: "core/main",
			basePath:   "",
			segments:   []string{".", "util"},
			want:       "core/util",
		},
		{
			name:       "relative parent",
			modulePath: "included/d",
			basePath:   "",
			segments:   []string{"..", "a"},
			want:       "a",
		},
		{
			name:       "multiple parent",
			modulePath: "a/b/c",
			basePath:   "",
			segments:   []string{"..", "..", "d"},
			want:       "d",
		},
		{
			name:       "escape root",
			modulePath: "a",
			basePath:   "",
			segments:   []string{"..", "b"},
			wantErr:    true,
		},
		{
			name:       "sibling module",
			modulePath: "examples/imports/a",
			basePath:   "",
			segments:   []string{"b"},
			want:       "examples/imports/b",
		},
		{
			name:       "absolute from base",
			modulePath: "included/d",
			basePath:   "examples/imports",
			segments:   []string{"examples", "imports", "a"},
			want:       "examples/imports/a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveImportPath(tt.modulePath, tt.basePath, tt.segments)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveImportPath returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ResolveImportPath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadModuleFiles(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 3)
	want := make([]string, 3)
	for i := range paths {
		p := filepath.Join(dir, string(rune('a'+i))+".loom")
		content := "module " + string(rune('a'+i)) + "\n"
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		paths[i] = p
		want[i] = content
	}

	fs := source.NewFileSet()
	metas, err := LoadModuleFiles(context.Background(), fs, paths)
	if err != nil {
		t.Fatalf("LoadModuleFiles returned error: %v", err)
	}
	if len(metas) != len(paths) {
		t.Fatalf("got %d metas, want %d", len(metas), len(paths))
	}

	for i, p := range paths {
		if metas[i].Path != p {
			t.Fatalf("metas[%d].Path = %q, want %q", i, metas[i].Path, p)
		}
		file, ok := fs.GetByPath(p)
		if !ok {
			t.Fatalf("file %q was not registered in the file set", p)
		}
		if string(file.Content) != want[i] {
			t.Fatalf("file %q content = %q, want %q", p, file.Content, want[i])
		}
		if metas[i].Hash != Digest(file.Hash) {
			t.Fatalf("metas[%d].Hash does not match the file set's own hash for %q", i, p)
		}
	}
}

func TestLoadModuleFilesMissingFile(t *testing.T) {
	fs := source.NewFileSet()
	_, err := LoadModuleFiles(context.Background(), fs, []string{filepath.Join(t.TempDir(), "missing.loom")})
	if err == nil {
		t.Fatal("expected an error for a nonexistent file, got nil")
	}
}
