// Package storage archives raw match records as rotating JSONL files.
//
// Files are written under hot/, moved to warm/ when they rotate or the
// rotator is closed, and gzip-compressed into cold/ by Compact.
package storage

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/smrichards/dota2-llm/internal/logging"
	"github.com/smrichards/dota2-llm/internal/opendota"
)

const (
	DefaultMaxMatchesPerFile = 1000
	DefaultMaxFileAge        = 1 * time.Hour
)

// Option configures a FileRotator.
type Option func(*FileRotator)

// WithMaxMatches sets how many matches a file holds before rotating.
func WithMaxMatches(n int) Option {
	return func(r *FileRotator) {
		if n > 0 {
			r.maxMatches = n
		}
	}
}

// WithMaxAge sets how long a file stays open before rotating.
func WithMaxAge(d time.Duration) Option {
	return func(r *FileRotator) {
		if d > 0 {
			r.maxAge = d
		}
	}
}

// FileRotator writes one match record per line to the current hot file.
type FileRotator struct {
	mu sync.Mutex

	hotDir  string
	warmDir string
	coldDir string
	prefix  string

	maxMatches int
	maxAge     time.Duration

	file     *os.File
	w        *bufio.Writer
	path     string
	count    int
	openedAt time.Time
	seq      int
}

// NewFileRotator creates hot/, warm/ and cold/ under baseDir and opens the
// first file. prefix, usually the run id, keeps files of different runs
// apart.
func NewFileRotator(baseDir, prefix string, opts ...Option) (*FileRotator, error) {
	r := &FileRotator{
		hotDir:     filepath.Join(baseDir, "hot"),
		warmDir:    filepath.Join(baseDir, "warm"),
		coldDir:    filepath.Join(baseDir, "cold"),
		prefix:     prefix,
		maxMatches: DefaultMaxMatchesPerFile,
		maxAge:     DefaultMaxFileAge,
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, dir := range []string{r.hotDir, r.warmDir, r.coldDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	if err := r.rotate(); err != nil {
		return nil, err
	}
	return r, nil
}

// WriteMatch appends m to the current file, flushing after each record and
// rotating when the file is full or too old.
func (r *FileRotator) WriteMatch(m *opendota.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return fmt.Errorf("rotator closed")
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal match %d: %w", m.MatchID, err)
	}
	if _, err := r.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write match %d: %w", m.MatchID, err)
	}
	if err := r.w.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	r.count++

	if r.count >= r.maxMatches || time.Since(r.openedAt) >= r.maxAge {
		return r.rotate()
	}
	return nil
}

func (r *FileRotator) rotate() error {
	if r.file != nil {
		if err := r.closeCurrent(); err != nil {
			return err
		}
	}

	r.seq++
	name := fmt.Sprintf("raw_matches_%s_%s_%03d.jsonl", r.prefix, time.Now().Format("2006-01-02_15-04-05"), r.seq)
	r.path = filepath.Join(r.hotDir, name)

	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	r.file = f
	r.w = bufio.NewWriterSize(f, 64*1024)
	r.count = 0
	r.openedAt = time.Now()
	return nil
}

// closeCurrent moves a non-empty file to warm/ and removes an empty one.
func (r *FileRotator) closeCurrent() error {
	if err := r.w.Flush(); err != nil {
		return fmt.Errorf("flush before rotation: %w", err)
	}
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", r.path, err)
	}
	r.file = nil

	if r.count == 0 {
		return os.Remove(r.path)
	}
	warm := filepath.Join(r.warmDir, filepath.Base(r.path))
	if err := os.Rename(r.path, warm); err != nil {
		return fmt.Errorf("move to warm storage: %w", err)
	}
	logging.For("storage").Debug().Str("file", filepath.Base(warm)).Int("matches", r.count).Msg("moved to warm")
	return nil
}

// Close flushes the current file and moves it to warm/.
func (r *FileRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	return r.closeCurrent()
}

// Compact compresses every file in warm/ into cold/ and returns how many
// were moved.
func (r *FileRotator) Compact() (int, error) {
	entries, err := os.ReadDir(r.warmDir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		if err := CompressToCold(filepath.Join(r.warmDir, e.Name()), r.coldDir); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// CompressToCold gzips warmPath into coldDir and removes the original.
func CompressToCold(warmPath, coldDir string) error {
	src, err := os.Open(warmPath)
	if err != nil {
		return err
	}
	defer src.Close()

	coldPath := filepath.Join(coldDir, filepath.Base(warmPath)+".gz")
	dst, err := os.Create(coldPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return os.Remove(warmPath)
}
