// Package testutil provides shared test helpers for setting up zettelkastens
// and index databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/zk/internal/index"
	"github.com/starford/zk/internal/models"
	"github.com/starford/zk/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "zk-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary zettelkasten directory with a storage.FS.
func TestStore(t *testing.T) *storage.FS {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// SaveZettel saves a zettel with the given id, title and content lines.
func SaveZettel(t *testing.T, store storage.Provider, id, title string, content ...string) *models.Zettel {
	t.Helper()
	z, err := models.New(id, title, nil, content)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(z); err != nil {
		t.Fatal(err)
	}
	return z
}
