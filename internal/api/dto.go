package api

import (
	"github.com/starford/zk/internal/graph"
	"github.com/starford/zk/internal/models"
	"github.com/starford/zk/internal/noteservice"
)

// CreateNoteRequest is the request body for creating a zettel.
type CreateNoteRequest struct {
	ID      string `json:"id" example:"20200314-note" validate:"required"`
	Content string `json:"content" example:"title: Hello\nSee @index" validate:"required"`
}

// UpdateNoteRequest is the request body for updating a zettel.
type UpdateNoteRequest struct {
	Content string `json:"content" example:"title: Updated\nContent" validate:"required"`
}

// RenameNoteRequest is the request body for renaming a zettel.
type RenameNoteRequest struct {
	NewID string `json:"new_id" example:"20200315-note" validate:"required"`
}

// NoteDetail is the full zettel response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps paginated zettel listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	ID      string `json:"id" example:"20200314-note" validate:"required"`
	Title   string `json:"title" example:"Hello" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// BacklinksResponse lists the zettels citing one zettel.
type BacklinksResponse struct {
	ID        string   `json:"id" validate:"required"`
	Backlinks []string `json:"backlinks" validate:"required"`
}

// GraphResponse wraps the citation graph.
type GraphResponse struct {
	Root     string                  `json:"root,omitempty" example:"index"`
	Nodes    []noteservice.GraphNode `json:"nodes" validate:"required"`
	Links    []models.Ref            `json:"links" validate:"required"`
	Warnings []WarningDTO            `json:"warnings" validate:"required"`
}

// WarningDTO is a graph build warning.
type WarningDTO struct {
	Kind    graph.WarningKind `json:"kind" example:"dangling"`
	Source  string            `json:"source" example:"index"`
	Target  string            `json:"target,omitempty" example:"ghost"`
	Message string            `json:"message"`
}

func toGraphResponse(v *noteservice.GraphView) GraphResponse {
	out := GraphResponse{
		Root:     v.Root,
		Nodes:    v.Nodes,
		Links:    v.Links,
		Warnings: make([]WarningDTO, len(v.Warnings)),
	}
	for i, w := range v.Warnings {
		out.Warnings[i] = WarningDTO{Kind: w.Kind, Source: w.Source, Target: w.Target, Message: w.String()}
	}
	return out
}
