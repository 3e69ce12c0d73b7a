package fileutils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomicSameDir_CreatesDirAndReplaces(t *testing.T) {
	t.Parallel()

	dst := filepath.Join(t.TempDir(), "out", "table.xlsx")
	if err := WriteFileAtomicSameDir(dst, []byte("first"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteFileAtomicSameDir(dst, []byte("second"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "second" {
		t.Fatalf("content=%q, want %q", string(b), "second")
	}

	ents, err := os.ReadDir(filepath.Dir(dst))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(ents) != 1 {
		t.Fatalf("len(entries)=%d, want 1 (temp files left behind?)", len(ents))
	}
}

func TestEnsureWritable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "a.json")

	if err := EnsureWritable(p, false); err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := EnsureWritable(p, false); !errors.Is(err, ErrExists) {
		t.Fatalf("err=%v, want ErrExists", err)
	}
	if err := EnsureWritable(p, true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}

func TestWriteJSONFileAtomic_TrailingNewline(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "x.json")
	if err := WriteJSONFileAtomic(p, map[string]int{"a": 1}, false); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, _ := os.ReadFile(p)
	if string(b) != "{\"a\":1}\n" {
		t.Fatalf("content=%q", string(b))
	}
}

func TestTruncate_RuneSafe(t *testing.T) {
	t.Parallel()

	if got := Truncate("  héllo  ", 10); got != "héllo" {
		t.Fatalf("got=%q, want %q", got, "héllo")
	}
	if got := Truncate("ééééé", 2); got != "éé…" {
		t.Fatalf("got=%q, want %q", got, "éé…")
	}
	if got := Truncate("abc", 0); got != "abc" {
		t.Fatalf("got=%q, want abc", got)
	}
}

func TestDecodeModelJSON(t *testing.T) {
	t.Parallel()

	var out struct {
		Name string `json:"name"`
	}
	if err := DecodeModelJSON("```json\n{\"name\":\"x\"}\n```", &out); err != nil {
		t.Fatalf("decode fenced: %v", err)
	}
	if out.Name != "x" {
		t.Fatalf("Name=%q", out.Name)
	}
	if err := DecodeModelJSON("   ", &out); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err=%v, want io.ErrUnexpectedEOF", err)
	}
	if err := DecodeModelJSON("no json here", &out); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSanitizeNewlines(t *testing.T) {
	t.Parallel()

	if got := SanitizeNewlines("a\r\nb\rc\nd"); got != `a\nb\nc\nd` {
		t.Fatalf("got=%q", got)
	}
}
