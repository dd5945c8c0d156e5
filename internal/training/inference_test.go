package training

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeRunner creates an executable shell script standing in for the model
// runtime.
func writeRunner(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runner.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAskerReturnsAnswer(t *testing.T) {
	// Echo the prompt back like a causal LM would, followed by an answer.
	runner := writeRunner(t, `prompt=$(cat | sed 's/.*"prompt":"\([^"]*\)".*/\1/')
echo "$prompt Ward the enemy jungle. model=$2"`)

	answer, err := NewAsker(runner, "models/dota2").Ask(context.Background(), "How do I win mid lane?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer != "Ward the enemy jungle. model=models/dota2" {
		t.Errorf("Ask() = %q", answer)
	}
}

func TestAskerSurfacesStderr(t *testing.T) {
	runner := writeRunner(t, `echo "adapter weights not found" >&2; exit 3`)
	_, err := NewAsker(runner, "missing").Ask(context.Background(), "q")
	if err == nil || !strings.Contains(err.Error(), "adapter weights not found") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}
