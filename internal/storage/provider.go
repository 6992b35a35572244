// Package storage maps zettel ids to files in the zettelkasten directory.
package storage

import "github.com/starford/zk/internal/models"

// Provider is the interface for zettelkasten file operations.
type Provider interface {
	// Root returns the absolute path of the zettelkasten directory.
	Root() string
	// Path returns the file path backing id.
	Path(id string) string
	// Contains reports whether a zettel file exists for id.
	Contains(id string) bool
	// List returns metadata for every zettel file in the directory.
	List() ([]models.NoteMetadata, error)
	// Read returns the raw bytes stored for id.
	Read(id string) ([]byte, error)
	// Load decodes the zettel stored for id.
	Load(id string) (*models.Zettel, error)
	// Save encodes z and overwrites its file.
	Save(z *models.Zettel) error
	// Add is Save for a zettel whose id must not exist yet.
	Add(z *models.Zettel) error
	// Reidentify renames z to newID and rewrites every citation of it.
	Reidentify(z *models.Zettel, newID string) (*models.Zettel, error)
}
