package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		filename string
		want     string
		wantErr  bool
	}{
		{"001_init.sql", "001", false},
		{"002_add_users_table.sql", "002", false},
		{"20240101120000_create_orders.sql", "20240101120000", false},
		{"noseparator.sql", "", true},
		{"_leading.sql", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := ParseIdentifier(tt.filename)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got identifier %q", tt.filename, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("identifier = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadSortsByFilename(t *testing.T) {
	dir := t.TempDir()

	// Written out of order on purpose; directory listing order must not matter
	writeScript(t, dir, "010_later.sql", "SELECT 10")
	writeScript(t, dir, "001_first.sql", "SELECT 1")
	writeScript(t, dir, "002_second.sql", "SELECT 2")

	scripts, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := []string{"001", "002", "010"}
	if len(scripts) != len(want) {
		t.Fatalf("got %d scripts, want %d", len(scripts), len(want))
	}
	for i, id := range want {
		if scripts[i].Identifier != id {
			t.Errorf("scripts[%d].Identifier = %q, want %q", i, scripts[i].Identifier, id)
		}
	}
	if scripts[0].Body != "SELECT 1" {
		t.Errorf("scripts[0].Body = %q, want %q", scripts[0].Body, "SELECT 1")
	}
}

func TestLoadIgnoresNonScriptFiles(t *testing.T) {
	dir := t.TempDir()

	writeScript(t, dir, "001_init.sql", "CREATE TABLE t (id int)")
	writeScript(t, dir, "README.md", "not a script")
	writeScript(t, dir, "notes.txt", "also not a script")
	if err := os.Mkdir(filepath.Join(dir, "archive"), 0o755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}

	scripts, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(scripts) != 1 {
		t.Fatalf("got %d scripts, want 1", len(scripts))
	}
	if scripts[0].Filename != "001_init.sql" {
		t.Errorf("Filename = %q, want %q", scripts[0].Filename, "001_init.sql")
	}
}

func TestLoadEmptyDirectory(t *testing.T) {
	scripts, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(scripts) != 0 {
		t.Errorf("got %d scripts, want 0", len(scripts))
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if !errors.Is(err, ErrMissingDir) {
		t.Fatalf("expected ErrMissingDir, got %v", err)
	}
}

func TestLoadRejectsDuplicateIdentifiers(t *testing.T) {
	dir := t.TempDir()

	writeScript(t, dir, "001_init.sql", "SELECT 1")
	writeScript(t, dir, "001_also_init.sql", "SELECT 2")

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected duplicate identifier error")
	}
	if got := err.Error(); !strings.Contains(got, "001") || !strings.Contains(got, "duplicate") {
		t.Errorf("error %q should name the duplicate identifier", got)
	}
}
