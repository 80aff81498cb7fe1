// Package cache implements the atomic JSON artifact store. Every artifact is a
// single JSON object at a fixed filename inside the cache directory, written
// with write-temp-then-rename so readers always observe a complete file.
package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Store is the filesystem-backed artifact store.
type Store struct {
	dir string
	log zerolog.Logger
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string, log zerolog.Logger) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Store{
		dir: abs,
		log: log.With().Str("component", "cache").Logger(),
	}, nil
}

// Dir returns the absolute cache directory path.
func (s *Store) Dir() string {
	return s.dir
}

// resolve validates an artifact name and returns its absolute path. Names with
// path separators or parent references are rejected outright: an artifact name
// must equal its own basename.
func (s *Store) resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("artifact name is empty")
	}
	if filepath.Base(name) != name || name == "." || name == ".." {
		return "", fmt.Errorf("invalid artifact name %q: path traversal not allowed", name)
	}
	return filepath.Join(s.dir, name), nil
}

// Read returns the decoded JSON object for an artifact. Missing files, invalid
// JSON and non-object roots all yield an empty map; Read never fails.
func (s *Store) Read(name string) map[string]interface{} {
	path, err := s.resolve(name)
	if err != nil {
		s.log.Warn().Str("artifact", name).Err(err).Msg("Rejected artifact name")
		return map[string]interface{}{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return map[string]interface{}{}
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		s.log.Warn().Str("artifact", name).Msg("Artifact is not a JSON object, treating as empty")
		return map[string]interface{}{}
	}
	return obj
}

// ReadInto decodes an artifact into a typed document. Unlike Read it reports
// failure, so callers can distinguish "absent" from "present but malformed".
func (s *Store) ReadInto(name string, v interface{}) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read artifact %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode artifact %s: %w", name, err)
	}
	return nil
}

// Write atomically replaces an artifact. The document is written to a temp
// file in the same directory and renamed over the target, so a concurrent
// reader sees either the old or the new complete file.
func (s *Store) Write(name string, v interface{}) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode artifact %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file for %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file for %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file for %s: %w", name, err)
	}
	return nil
}

// Exists reports whether an artifact file is present.
func (s *Store) Exists(name string) bool {
	path, err := s.resolve(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// MTime returns the artifact's modification time.
func (s *Store) MTime(name string) (time.Time, error) {
	path, err := s.resolve(name)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat artifact %s: %w", name, err)
	}
	return info.ModTime(), nil
}

// AgeSeconds returns seconds since the artifact was last written, or a
// negative value when the artifact is missing.
func (s *Store) AgeSeconds(name string) float64 {
	mtime, err := s.MTime(name)
	if err != nil {
		return -1
	}
	return time.Since(mtime).Seconds()
}

// IsStale reports whether the artifact is older than maxAge. Missing artifacts
// are always stale.
func (s *Store) IsStale(name string, maxAge time.Duration) bool {
	mtime, err := s.MTime(name)
	if err != nil {
		return true
	}
	return time.Since(mtime) > maxAge
}

// List returns the sorted JSON artifact names in the cache directory.
func (s *Store) List() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// Delete removes an artifact. Best-effort: missing files are not an error.
func (s *Store) Delete(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete artifact %s: %w", name, err)
	}
	return nil
}
