package noteservice

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghhtml "github.com/yuin/goldmark/renderer/html"

	zkparser "github.com/starford/zk/internal/parser"
)

// Rendered is a zettel converted to HTML.
type Rendered struct {
	ID      string
	Title   string
	Content template.HTML
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithRendererOptions(
			ghhtml.WithHardWraps(),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
}

// Render converts zettel id to HTML. Citations of stored zettels become links
// built by href; dangling citations stay plain text.
func (s *Service) Render(_ context.Context, id string, href func(id string) string) (*Rendered, error) {
	z, err := s.store.Load(id)
	if err != nil {
		return nil, err
	}
	body := zkparser.ReplaceRefs(z.Body(), func(ref string) string {
		if !s.store.Contains(ref) {
			return "@" + ref
		}
		return fmt.Sprintf("[@%s](%s)", ref, (&url.URL{Path: href(ref)}).EscapedPath())
	})

	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(body), &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", id, err)
	}
	return &Rendered{
		ID:      z.ID(),
		Title:   z.Title,
		Content: template.HTML(buf.String()), //nolint:gosec // goldmark escapes raw HTML without WithUnsafe
	}, nil
}
