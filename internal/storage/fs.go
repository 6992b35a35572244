package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/zk/internal/apperr"
	"github.com/starford/zk/internal/checksum"
	"github.com/starford/zk/internal/models"
	"github.com/starford/zk/internal/parser"
)

// Ext is the file extension of every zettel file.
const Ext = ".md"

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to zettelkasten directory
}

// NewFS creates a new FS provider rooted at the given directory, creating the
// directory and any missing parents.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute zettelkasten directory.
func (f *FS) Root() string {
	return f.root
}

// Path returns the file path for id. It does not validate id.
func (f *FS) Path(id string) string {
	return filepath.Join(f.root, id+Ext)
}

// Contains reports whether a regular file exists for id. Invalid ids are
// never contained.
func (f *FS) Contains(id string) bool {
	if models.ValidateID(id) != nil {
		return false
	}
	info, err := os.Stat(f.Path(id))
	return err == nil && info.Mode().IsRegular()
}

// List returns metadata for every regular .md file directly under the root,
// sorted by id. Stems that are not valid ids are included.
func (f *FS) List() ([]models.NoteMetadata, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	var out []models.NoteMetadata
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, Ext) {
			continue
		}
		p := filepath.Join(f.root, name)
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("storage: list: %w", err)
		}
		out = append(out, models.NoteMetadata{
			ID:        strings.TrimSuffix(name, Ext),
			Checksum:  checksum.Sum(data),
			UpdatedAt: info.ModTime(),
		})
	}
	return out, nil
}

// Read returns the raw bytes of the zettel file for id.
func (f *FS) Read(id string) ([]byte, error) {
	if err := models.ValidateID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("storage: read %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("storage: read %s: %w", id, err)
	}
	return data, nil
}

// Load decodes the zettel stored for id. It fails with apperr.ErrNotFound
// when no file exists.
func (f *FS) Load(id string) (*models.Zettel, error) {
	if err := models.ValidateID(id); err != nil {
		return nil, err
	}
	if !f.Contains(id) {
		return nil, fmt.Errorf("storage: zettel %q: %w", id, apperr.ErrNotFound)
	}
	data, err := f.Read(id)
	if err != nil {
		return nil, err
	}
	z, err := parser.Decode(data, id)
	if err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", id, err)
	}
	return z, nil
}

// Save encodes z and writes it to its path, replacing any existing file. A
// zettel that cannot be encoded faithfully is rejected before anything is
// written.
func (f *FS) Save(z *models.Zettel) error {
	if err := models.ValidateID(z.ID()); err != nil {
		return err
	}
	data, err := parser.Encode(z)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", z.ID(), err)
	}
	return f.write(f.Path(z.ID()), data)
}

// Add saves z, failing with apperr.ErrAlreadyExists if its id is taken.
func (f *FS) Add(z *models.Zettel) error {
	if f.Contains(z.ID()) {
		return fmt.Errorf("storage: zettel %q: %w", z.ID(), apperr.ErrAlreadyExists)
	}
	return f.Save(z)
}

// write atomically writes content: tmp file → fsync → rename.
func (f *FS) write(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".zk-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
