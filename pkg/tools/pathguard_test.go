package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPathEscapes(t *testing.T) {
	root := t.TempDir()
	cases := []struct {
		target string
		want   bool
	}{
		{filepath.Join(root, "inside.txt"), false},
		{filepath.Join(root, "sub", "deep.txt"), false},
		{root, false},
		{filepath.Join(root, "..", "outside.txt"), true},
		{filepath.Dir(root), true},
		{"/etc/passwd", true},
	}
	for _, c := range cases {
		if got := pathEscapes(root, c.target); got != c.want {
			t.Errorf("pathEscapes(%q, %q) = %v, want %v", root, c.target, got, c.want)
		}
	}

	// Empty root disables confinement.
	if pathEscapes("", "/anywhere/at/all") {
		t.Error("empty root must not confine")
	}
}

func TestFileToolsRefusePathEscape(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "escaped.txt")
	os.WriteFile(outside, []byte("secret"), 0o644)

	read := &FileReadTool{Root: root}
	out, err := read.Execute(context.Background(), map[string]any{"file_path": outside})
	if err != nil {
		t.Fatal(err)
	}
	if !out.IsError || !strings.Contains(out.Content, "PathEscape") {
		t.Errorf("Read outside root: got %q", out.Content)
	}

	write := &FileWriteTool{Root: root}
	out, err = write.Execute(context.Background(), map[string]any{"file_path": outside, "content": "x"})
	if err != nil {
		t.Fatal(err)
	}
	if !out.IsError || !strings.Contains(out.Content, "PathEscape") {
		t.Errorf("Write outside root: got %q", out.Content)
	}

	edit := &FileEditTool{Root: root}
	out, err = edit.Execute(context.Background(), map[string]any{"file_path": outside, "old_string": "secret", "new_string": "redacted"})
	if err != nil {
		t.Fatal(err)
	}
	if !out.IsError || !strings.Contains(out.Content, "PathEscape") {
		t.Errorf("Edit outside root: got %q", out.Content)
	}

	// Inside the root everything still works.
	inside := filepath.Join(root, "ok.txt")
	out, err = write.Execute(context.Background(), map[string]any{"file_path": inside, "content": "fine"})
	if err != nil {
		t.Fatal(err)
	}
	if out.IsError {
		t.Errorf("Write inside root: unexpected error %q", out.Content)
	}
}
