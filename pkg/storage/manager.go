package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"inatscraper/pkg/config"
	errs "inatscraper/pkg/errors"
)

// Manager owns the output root and hands out per-species directories
type Manager struct {
	root string
}

// NewManager creates the output root if needed. An error here means the run
// cannot proceed at all.
func NewManager(root string) (*Manager, error) {
	if root == "" {
		return nil, errs.New(errs.ErrorTypeConfig, 0, "output directory is empty")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeConfig, 0, fmt.Sprintf("failed to create output directory %q", root), err)
	}
	return &Manager{root: root}, nil
}

// Root returns the output root
func (m *Manager) Root() string {
	return m.root
}

// SpeciesDir creates and returns the folder for one species
func (m *Manager) SpeciesDir(sp config.Species) (*SpeciesDir, error) {
	dir := filepath.Join(m.root, sp.FolderName())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeIO, 0, fmt.Sprintf("failed to create species directory %q", dir), err)
	}
	return &SpeciesDir{dir: dir}, nil
}

// SpeciesDir is the on-disk folder holding one species' images
type SpeciesDir struct {
	dir string
}

// Path returns the download target for the index-th photo (1-based) of an
// observation: <dir>/<observationID>_<index>.<ext>
func (d *SpeciesDir) Path(observationID int64, index int, ext string) string {
	return filepath.Join(d.dir, FileName(observationID, index, ext))
}

// Dir returns the directory path
func (d *SpeciesDir) Dir() string {
	return d.dir
}

// ImageCount counts image files already in the folder
func (d *SpeciesDir) ImageCount(extensions []string) (int, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory: %w", err)
	}

	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed["."+strings.ToLower(ext)] = true
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if allowed[strings.ToLower(filepath.Ext(entry.Name()))] {
			count++
		}
	}
	return count, nil
}

// FileName formats <observationID>_<index>.<ext>
func FileName(observationID int64, index int, ext string) string {
	return fmt.Sprintf("%d_%d.%s", observationID, index, strings.TrimPrefix(ext, "."))
}

// Exists reports whether something is already at path
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Limits bounds the size of a written file; zero means unbounded
type Limits struct {
	MinBytes int64
	MaxBytes int64
}

// WriteAtomic copies r to path through a temporary file and a rename, so a
// partially written file never appears under the final name. Bytes are
// written verbatim.
func WriteAtomic(path string, r io.Reader, limits Limits) (int64, error) {
	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return 0, errs.Wrap(errs.ErrorTypeIO, 0, "failed to create temporary file", err)
	}

	src := r
	if limits.MaxBytes > 0 {
		src = io.LimitReader(r, limits.MaxBytes+1)
	}

	n, err := io.Copy(out, src)
	closeErr := out.Close()

	switch {
	case err != nil:
		os.Remove(tempFile)
		return n, errs.Wrap(errs.ErrorTypeIO, 0, "failed to write file data", err)
	case closeErr != nil:
		os.Remove(tempFile)
		return n, errs.Wrap(errs.ErrorTypeIO, 0, "failed to close file", closeErr)
	case limits.MaxBytes > 0 && n > limits.MaxBytes:
		os.Remove(tempFile)
		return n, errs.New(errs.ErrorTypeIO, 0, fmt.Sprintf("file exceeds %d bytes", limits.MaxBytes))
	case n < limits.MinBytes:
		os.Remove(tempFile)
		return n, errs.New(errs.ErrorTypeIO, 0, fmt.Sprintf("file has %d bytes, want at least %d", n, limits.MinBytes))
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return n, errs.Wrap(errs.ErrorTypeIO, 0, "failed to rename temporary file", err)
	}
	return n, nil
}
