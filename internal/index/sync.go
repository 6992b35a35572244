package index

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/zk/internal/checksum"
	"github.com/starford/zk/internal/models"
	"github.com/starford/zk/internal/parser"
	"github.com/starford/zk/internal/storage"
)

// Sync walks the zettelkasten and brings the index up to date:
//   - new/changed zettels are parsed and upserted
//   - zettels removed from disk are deleted from the index
//
// Files whose stem is not a valid zettel id are skipped at debug level; the
// graph reports them. Zettels that fail to read or decode are logged and
// skipped.
func Sync(db NoteIndex, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List()
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.ID] = struct{}{}

		if checksums[m.ID] == m.Checksum {
			continue
		}
		if err := models.ValidateID(m.ID); err != nil {
			logger.Debug("sync: skipped", slog.String("file", m.ID+storage.Ext), slog.String("reason", err.Error()))
			continue
		}

		data, err := store.Read(m.ID)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("id", m.ID), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, m.ID, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("id", m.ID), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("id", m.ID))
		}
	}

	// Remove stale entries.
	for id := range checksums {
		if _, ok := disk[id]; !ok {
			if err := db.DeleteNote(id); err != nil {
				logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("id", id))
			}
		}
	}

	return nil
}

// IndexFile decodes the raw zettel data stored under id and upserts it.
func IndexFile(db NoteIndex, id string, data []byte, updatedAt time.Time) error {
	z, err := parser.Decode(data, id)
	if err != nil {
		return fmt.Errorf("index: decode %s: %w", id, err)
	}
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	row := NoteRow{
		ID:        z.ID(),
		Title:     z.Title,
		Checksum:  checksum.Sum(data),
		Metadata:  z.Metadata,
		UpdatedAt: updatedAt,
	}
	return db.UpsertNote(row, z.Body(), parser.ExtractRefs(z))
}
