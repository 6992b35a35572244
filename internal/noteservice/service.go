// Package noteservice coordinates the zettel store, the search index and
// the citation graph for the API and MCP layers.
package noteservice

import (
	"context"
	"log/slog"
	"time"

	"github.com/yuin/goldmark"

	"github.com/starford/zk/internal/apperr"
	"github.com/starford/zk/internal/checksum"
	"github.com/starford/zk/internal/graph"
	"github.com/starford/zk/internal/index"
	"github.com/starford/zk/internal/models"
	"github.com/starford/zk/internal/parser"
	"github.com/starford/zk/internal/storage"
)

// NoteDetail is the full representation of a zettel.
type NoteDetail struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Metadata   map[string]string `json:"metadata"`
	Content    string            `json:"content"`
	Raw        string            `json:"raw"`
	Checksum   string            `json:"checksum"`
	References []string          `json:"references"`
	Backlinks  []string          `json:"backlinks"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GraphNode is a node of the citation graph.
type GraphNode struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// GraphView is the whole citation graph with its build warnings.
type GraphView struct {
	Root     string          `json:"root,omitempty"`
	Nodes    []GraphNode     `json:"nodes"`
	Links    []models.Ref    `json:"links"`
	Warnings []graph.Warning `json:"warnings"`
}

// Service coordinates storage and index operations.
type Service struct {
	store    storage.Provider
	db       index.NoteIndex
	rootID   string
	logger   *slog.Logger
	markdown goldmark.Markdown
}

// NewService creates a new note service. rootID names the zettel the graph
// is rooted at.
func NewService(store storage.Provider, db index.NoteIndex, rootID string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		db:       db,
		rootID:   rootID,
		logger:   logger,
		markdown: newMarkdown(),
	}
}

// Store returns the underlying zettel store.
func (s *Service) Store() storage.Provider {
	return s.store
}

// GetNote reads a zettel from storage and enriches it with its citations and
// backlinks.
func (s *Service) GetNote(_ context.Context, id string) (*NoteDetail, error) {
	data, err := s.store.Read(id)
	if err != nil {
		return nil, err
	}
	return s.buildNoteDetail(id, data)
}

// CreateNote decodes raw content as zettel id, adds it, and indexes it.
func (s *Service) CreateNote(_ context.Context, id string, content []byte) (*NoteDetail, error) {
	z, err := parser.Decode(content, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.Add(z); err != nil {
		return nil, err
	}
	return s.reindex(id)
}

// UpdateNote replaces a zettel's content. A non-empty ifMatch must equal the
// checksum of the stored file.
func (s *Service) UpdateNote(_ context.Context, id string, content []byte, ifMatch string) (*NoteDetail, error) {
	existing, err := s.store.Read(id)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && !checksum.Matches(existing, ifMatch) {
		return nil, apperr.ErrConflict
	}
	z, err := parser.Decode(content, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(z); err != nil {
		return nil, err
	}
	return s.reindex(id)
}

// RenameNote moves zettel id to newID, rewriting citations of it, and
// refreshes the index.
func (s *Service) RenameNote(_ context.Context, id, newID string) (*NoteDetail, error) {
	z, err := s.store.Load(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Reidentify(z, newID); err != nil {
		return nil, err
	}
	if err := s.db.DeleteNote(id); err != nil {
		return nil, err
	}
	if err := s.SyncIndex(); err != nil {
		return nil, err
	}
	data, err := s.store.Read(newID)
	if err != nil {
		return nil, err
	}
	return s.buildNoteDetail(newID, data)
}

// ListNotes returns a page of indexed zettels.
func (s *Service) ListNotes(_ context.Context, limit, offset int, sort string) ([]NoteListItem, int, error) {
	rows, total, err := s.db.ListNotes(limit, offset, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			ID:        r.ID,
			Title:     r.Title,
			Checksum:  r.Checksum,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Backlinks returns the ids of zettels citing id.
func (s *Service) Backlinks(_ context.Context, id string) ([]string, error) {
	return s.db.Backlinks(id)
}

// References returns the ids cited by zettel id.
func (s *Service) References(_ context.Context, id string) ([]string, error) {
	return s.db.References(id)
}

// Graph builds the citation graph from the store.
func (s *Service) Graph(_ context.Context) (*GraphView, error) {
	g, warnings, err := graph.Build(s.store, s.rootID)
	if err != nil {
		return nil, err
	}
	view := &GraphView{
		Nodes:    []GraphNode{},
		Links:    nonNilSlice(g.Links()),
		Warnings: nonNilSlice(warnings),
	}
	if root := g.Root(); root != nil {
		view.Root = root.ID()
	}
	for _, n := range g.Nodes() {
		view.Nodes = append(view.Nodes, GraphNode{ID: n.ID(), Title: n.Zettel.Title})
	}
	return view, nil
}

// SyncIndex brings the index up to date with the store.
func (s *Service) SyncIndex() error {
	return index.Sync(s.db, s.store, s.logger)
}

func (s *Service) reindex(id string) (*NoteDetail, error) {
	data, err := s.store.Read(id)
	if err != nil {
		return nil, err
	}
	if err := index.IndexFile(s.db, id, data, time.Now()); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(id, data)
}

// buildNoteDetail constructs a NoteDetail from raw data without re-reading the file.
func (s *Service) buildNoteDetail(id string, data []byte) (*NoteDetail, error) {
	z, err := parser.Decode(data, id)
	if err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(id)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{
		ID:         id,
		Title:      z.Title,
		Metadata:   z.Metadata,
		Content:    z.Body(),
		Raw:        string(data),
		Checksum:   checksum.Sum(data),
		References: nonNilSlice(parser.ExtractRefs(z)),
		Backlinks:  nonNilSlice(bl),
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
