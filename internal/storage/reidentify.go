package storage

import (
	"fmt"
	"os"

	"github.com/starford/zk/internal/apperr"
	"github.com/starford/zk/internal/models"
	"github.com/starford/zk/internal/parser"
)

// pendingWrite is one file of a rename. prev is nil for files that did not
// exist before the rename.
type pendingWrite struct {
	path string
	data []byte
	prev []byte
}

// Reidentify moves the stored file of z to newID. Every stored zettel citing
// z's old id (z included) has those citations rewritten to newID, then the old
// file is removed. Only citation tokens in content change: front-matter bytes
// are kept as written, so a zettel without a title line still takes its title
// from its (new) id. If any write fails, files already written are restored
// and the error is returned. z itself is left untouched; the renamed zettel is
// returned.
func (f *FS) Reidentify(z *models.Zettel, newID string) (*models.Zettel, error) {
	oldID := z.ID()
	if err := models.ValidateID(newID); err != nil {
		return nil, err
	}
	if !f.Contains(oldID) {
		return nil, fmt.Errorf("storage: reidentify %q: %w", oldID, apperr.ErrNotFound)
	}
	if oldID == newID {
		return z, nil
	}
	if f.Contains(newID) {
		return nil, fmt.Errorf("storage: reidentify to %q: %w", newID, apperr.ErrAlreadyExists)
	}

	raw, err := f.Read(oldID)
	if err != nil {
		return nil, err
	}
	data, _ := parser.RewriteFileRefs(raw, oldID, newID)
	renamed, err := parser.Decode(data, newID)
	if err != nil {
		return nil, fmt.Errorf("storage: reidentify: decode %s: %w", oldID, err)
	}
	plan := []pendingWrite{{path: f.Path(newID), data: data}}

	metas, err := f.List()
	if err != nil {
		return nil, err
	}
	for _, m := range metas {
		if m.ID == oldID || models.ValidateID(m.ID) != nil {
			continue
		}
		raw, err := f.Read(m.ID)
		if err != nil {
			return nil, err
		}
		rewritten, changed := parser.RewriteFileRefs(raw, oldID, newID)
		if !changed {
			continue
		}
		plan = append(plan, pendingWrite{path: f.Path(m.ID), data: rewritten, prev: raw})
	}

	for i, w := range plan {
		if err := f.write(w.path, w.data); err != nil {
			f.rollback(plan[:i])
			return nil, fmt.Errorf("storage: reidentify %q: %w", oldID, err)
		}
	}
	if err := os.Remove(f.Path(oldID)); err != nil {
		f.rollback(plan)
		return nil, fmt.Errorf("storage: reidentify: remove %q: %w", oldID, err)
	}
	return renamed, nil
}

func (f *FS) rollback(done []pendingWrite) {
	for _, w := range done {
		if w.prev == nil {
			_ = os.Remove(w.path)
			continue
		}
		_ = f.write(w.path, w.prev)
	}
}
