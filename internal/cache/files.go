package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// FileStore keeps binary assets (cover images, preloaded pages) as files
// under a per-type directory instead of in-memory blobs. Lookups scan the
// type directory for a stable key prefix; there is no index to corrupt.
type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create file store: %w", err)
	}
	return &FileStore{root: root}, nil
}

var underscoreRuns = regexp.MustCompile(`_+`)

// SafeKey flattens an arbitrary key (usually a URL) into a filename-safe
// prefix.
func SafeKey(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return strings.Trim(underscoreRuns.ReplaceAllString(b.String(), "_"), "_")
}

// Put writes the asset under root/kind with the given key prefix and
// extension. The write goes to a temp file first so a torn write never
// leaves a half-asset behind the stable name.
func (s *FileStore) Put(kind, key, ext string, r io.Reader) (string, error) {
	dir := filepath.Join(s.root, kind)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	if ext == "" {
		ext = ".bin"
	}
	final := filepath.Join(dir, SafeKey(key)+ext)

	tmp, err := os.CreateTemp(dir, ".part-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	return final, nil
}

// Find scans the kind directory for a file whose name starts with the key's
// safe prefix.
func (s *FileStore) Find(kind, key string) (string, bool) {
	entries, err := os.ReadDir(filepath.Join(s.root, kind))
	if err != nil {
		return "", false
	}

	prefix := SafeKey(key)
	if prefix == "" {
		return "", false
	}

	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".part-") {
			continue
		}
		if strings.HasPrefix(e.Name(), prefix) {
			return filepath.Join(s.root, kind, e.Name()), true
		}
	}

	return "", false
}

// ClearKind removes every asset of one type.
func (s *FileStore) ClearKind(kind string) error {
	return os.RemoveAll(filepath.Join(s.root, kind))
}
