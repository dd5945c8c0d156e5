// Package dataset reads and writes instruction/output training examples as
// line-delimited JSON.
package dataset

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// Example is one instruction/output pair. Duplicates are allowed.
type Example struct {
	Instruction string `json:"instruction"`
	Output      string `json:"output"`
}

const maxLine = 4 * 1024 * 1024

// Encode writes one JSON object per line. Non-ASCII and HTML characters are
// written as-is.
func Encode(w io.Writer, examples []Example) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for i := range examples {
		if err := enc.Encode(&examples[i]); err != nil {
			return fmt.Errorf("encode example %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// WriteFile truncates path and writes examples to it, creating the parent
// directory when needed.
func WriteFile(path string, examples []Example) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	if err := Encode(f, examples); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Decode reads examples until EOF. Blank lines are skipped.
func Decode(r io.Reader) ([]Example, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	var examples []Example
	line := 0
	for scanner.Scan() {
		line++
		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 {
			continue
		}
		var ex Example
		if err := json.Unmarshal(b, &ex); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		examples = append(examples, ex)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}
	return examples, nil
}

// ReadFile loads a whole dataset into memory.
func ReadFile(path string) ([]Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	examples, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return examples, nil
}
