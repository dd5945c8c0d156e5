package storage

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/smrichards/dota2-llm/internal/opendota"
)

// ReadMatches loads every archived match under dir, recursing into
// subdirectories. Plain .jsonl and gzipped .jsonl.gz files are read in
// lexical path order.
func ReadMatches(dir string) ([]*opendota.Match, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".jsonl") || strings.HasSuffix(path, ".jsonl.gz") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan archive: %w", err)
	}
	sort.Strings(paths)

	var matches []*opendota.Match
	for _, path := range paths {
		ms, err := readFile(path)
		if err != nil {
			return nil, err
		}
		matches = append(matches, ms...)
	}
	return matches, nil
}

func readFile(path string) ([]*opendota.Match, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 256*1024), 16*1024*1024)

	var matches []*opendota.Match
	line := 0
	for scanner.Scan() {
		line++
		if len(strings.TrimSpace(scanner.Text())) == 0 {
			continue
		}
		var m opendota.Match
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		matches = append(matches, &m)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return matches, nil
}
