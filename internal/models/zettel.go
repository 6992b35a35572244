// Package models defines the domain types for zk.
package models

import (
	"fmt"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/zk/internal/apperr"
)

// TitleKey is the front-matter key that holds a zettel's title.
const TitleKey = "title"

// idRe matches a valid zettel id, e.g. "20200314-note".
var idRe = regexp.MustCompile(`^[\w-]+$`)

// ValidateID reports whether id can name a zettel. The returned error wraps
// apperr.ErrInvalidID.
func ValidateID(id string) error {
	if err := validation.Validate(id, validation.Required, validation.Match(idRe)); err != nil {
		return fmt.Errorf("%w: %q: %v", apperr.ErrInvalidID, id, err)
	}
	return nil
}

// Zettel is a single note: an id, a title, front-matter metadata and the
// content lines as stored (line terminators included).
//
// Two zettels are the same entity when their ids match; see Equal.
type Zettel struct {
	id       string
	Title    string
	Metadata map[string]string
	Content  []string
}

// New creates a zettel. An empty title defaults to id; nil metadata and
// content are replaced with fresh empty containers.
func New(id, title string, metadata map[string]string, content []string) (*Zettel, error) {
	z := &Zettel{}
	if err := z.SetID(id); err != nil {
		return nil, err
	}
	if title == "" {
		title = id
	}
	if metadata == nil {
		metadata = make(map[string]string)
	}
	if content == nil {
		content = []string{}
	}
	z.Title = title
	z.Metadata = metadata
	z.Content = content
	return z, nil
}

// ID returns the zettel id.
func (z *Zettel) ID() string {
	return z.id
}

// SetID replaces the id. An invalid id leaves the zettel unchanged.
func (z *Zettel) SetID(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	z.id = id
	return nil
}

// Equal reports whether z and other identify the same zettel.
func (z *Zettel) Equal(other *Zettel) bool {
	if z == nil || other == nil {
		return z == other
	}
	return z.id == other.id
}

// Body returns the content lines joined back into a single string.
func (z *Zettel) Body() string {
	n := 0
	for _, l := range z.Content {
		n += len(l)
	}
	b := make([]byte, 0, n)
	for _, l := range z.Content {
		b = append(b, l...)
	}
	return string(b)
}

// NoteMetadata is a lightweight representation returned by list operations.
// ID is the file stem and is not guaranteed to be a valid zettel id.
type NoteMetadata struct {
	ID        string    `json:"id"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ref represents a directed citation between two zettels.
type Ref struct {
	Source string `json:"source"`
	Target string `json:"target"`
}
