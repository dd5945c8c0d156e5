package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.jsonl")
	in := []Example{
		{Instruction: "How do I play Anti-Mage effectively?", Output: "Farm <efficiently> & split push."},
		{Instruction: "Что такое Roshan?", Output: "Рошан"},
		{Instruction: "How do I play Anti-Mage effectively?", Output: "Farm <efficiently> & split push."},
	}
	if err := WriteFile(path, in); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(raw)
	if strings.Count(text, "\n") != len(in) {
		t.Errorf("expected %d lines, got %q", len(in), text)
	}
	for _, want := range []string{"Рошан", "<efficiently> & split"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q unescaped in output", want)
		}
	}

	out, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("read %d examples, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("example %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestWriteFileTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.jsonl")
	if err := WriteFile(path, []Example{{"a", "b"}, {"c", "d"}}); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(path, []Example{{"e", "f"}}); err != nil {
		t.Fatal(err)
	}
	out, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Instruction != "e" {
		t.Errorf("expected overwrite, got %+v", out)
	}
}

func TestWriteFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.jsonl")
	if err := WriteFile(path, nil); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 0 {
		t.Errorf("expected empty file, got %d bytes", info.Size())
	}
}

func TestDecode_SkipsBlankLines(t *testing.T) {
	in := "{\"instruction\":\"q\",\"output\":\"a\"}\n\n   \n{\"instruction\":\"q2\",\"output\":\"a2\"}"
	out, err := Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(out) != 2 || out[1].Output != "a2" {
		t.Errorf("unexpected examples: %+v", out)
	}
}

func TestDecode_BadLineNamesLine(t *testing.T) {
	in := "{\"instruction\":\"q\",\"output\":\"a\"}\n\n{broken\n"
	_, err := Decode(strings.NewReader(in))
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("expected error naming line 3, got %v", err)
	}
}

func TestWriteFileBadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(filepath.Join(blocker, "data.jsonl"), nil); err == nil {
		t.Fatal("expected error writing under a regular file")
	}
}
