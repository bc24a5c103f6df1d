package features

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// FileStore persists a cache as one indented JSON object in a flat file.
//
// Writes go to a uniquely named temp file in the same directory, are synced,
// and then renamed over the target. Before each write the current file is
// copied to a single backup, which Restore reads after a failed write.
type FileStore[R any] struct {
	path   string
	backup string
	lock   *flock.Flock
}

// NewFileStore returns a store for kind under dir, named "<kind>_cache.json".
func NewFileStore[R any](dir string, kind Kind) *FileStore[R] {
	path := filepath.Join(dir, string(kind)+"_cache.json")
	return &FileStore[R]{
		path:   path,
		backup: filepath.Join(dir, string(kind)+"_cache.bak.json"),
		lock:   flock.New(path + ".lock"),
	}
}

// Path returns the cache file path.
func (s *FileStore[R]) Path() string {
	return s.path
}

// Load reads the cache file.
func (s *FileStore[R]) Load(_ context.Context) (map[string]R, error) {
	return readEntries[R](s.path)
}

// Restore reads the backup file.
func (s *FileStore[R]) Restore(_ context.Context) (map[string]R, error) {
	return readEntries[R](s.backup)
}

// Save replaces the cache file with entries.
func (s *FileStore[R]) Save(_ context.Context, entries map[string]R) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("locking cache file: %w", err)
	}
	defer s.lock.Unlock()

	// The backup always holds the last good file, whether or not this write succeeds.
	if err := copyFile(s.path, s.backup); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("backing up cache file: %w", err)
	}

	tmpPath, err := writeTemp(dir, filepath.Base(s.path), entries)
	if err != nil {
		return err
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// readEntries decodes a JSON object of records from path.
func readEntries[R any](path string) (map[string]R, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var entries map[string]R
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if entries == nil {
		entries = make(map[string]R)
	}
	return entries, nil
}

// writeTemp encodes entries into a synced temp file in dir and returns its path.
func writeTemp[R any](dir, base string, entries map[string]R) (string, error) {
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", base, uuid.NewString()))

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if entries == nil {
		entries = map[string]R{}
	}
	if err := enc.Encode(entries); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("encoding cache: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("syncing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	return tmpPath, nil
}

// copyFile copies src over dst through a temp file and rename.
// Returns an error matching fs.ErrNotExist when src is missing.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, dst)
}
