// Package staging keeps uploaded files on local disk while their ingestion
// pipeline runs.
package staging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Dir is a directory that receives staged uploads.
type Dir struct {
	path string
}

// New returns a Dir rooted at path, creating it if needed. An empty path
// uses the OS temp directory.
func New(path string) (*Dir, error) {
	if path == "" {
		path = os.TempDir()
	}
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Dir{path: path}, nil
}

// Path returns the directory location.
func (d *Dir) Path() string { return d.path }

// File is one staged upload.
type File struct {
	Path string // location on disk
	Name string // original client file name
	Size int64
}

// Stage copies r into a new file named "<uuid>-<base name>". On failure the
// partial file is removed.
func (d *Dir) Stage(name string, r io.Reader) (*File, error) {
	base := safeBase(name)
	path := filepath.Join(d.path, uuid.NewString()+"-"+base)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("stage %s: %w", base, err)
	}

	return &File{Path: path, Name: name, Size: n}, nil
}

// Open opens the staged file for reading.
func (f *File) Open() (*os.File, error) {
	return os.Open(f.Path)
}

// Remove deletes the staged file. A file that is already gone is not an error.
func (f *File) Remove() error {
	err := os.Remove(f.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Cleanup removes the file and logs a failure instead of returning it.
func (f *File) Cleanup() {
	if err := f.Remove(); err != nil {
		slog.Warn("failed to remove staged file", "path", f.Path, "error", err)
	}
}

func safeBase(name string) string {
	// client names may use either separator
	name = strings.ReplaceAll(name, `\`, "/")
	base := filepath.Base(name)
	if base == "." || base == "/" || base == ".." || base == "" {
		return "upload"
	}
	return base
}
