package docstore

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileMedium persists the document as one JSON file, replaced atomically via
// a temp file and rename so a crash mid-write never corrupts the store.
type FileMedium struct {
	path string
}

// NewFileMedium creates a file medium at the given path. The parent
// directory is created on first write.
func NewFileMedium(path string) *FileMedium {
	return &FileMedium{path: path}
}

// Path returns the file the document lives in.
func (f *FileMedium) Path() string { return f.path }

// Load implements Medium.
func (f *FileMedium) Load() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read document file: %w", err)
	}
	return data, nil
}

// Store implements Medium.
func (f *FileMedium) Store(data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create document directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".edudash-*.json.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace document file: %w", err)
	}
	return nil
}
