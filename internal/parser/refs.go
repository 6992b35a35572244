package parser

import (
	"regexp"
	"strings"

	"github.com/starford/zk/internal/models"
)

// citationRe matches a citation token, e.g. "@20200314-note".
var citationRe = regexp.MustCompile(`@([\w-]+)`)

// ExtractRefs returns the ids cited in z's content, deduplicated, in order of
// first appearance. Ids are not checked against any store.
func ExtractRefs(z *models.Zettel) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, line := range z.Content {
		for _, m := range citationRe.FindAllStringSubmatch(line, -1) {
			id := m[1]
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// ReplaceRefs returns s with every citation token replaced by fn(id).
func ReplaceRefs(s string, fn func(id string) string) string {
	return citationRe.ReplaceAllStringFunc(s, func(tok string) string {
		return fn(tok[1:])
	})
}

// RewriteRefs returns a copy of lines where every citation of oldID cites
// newID instead, and whether anything changed. Tokens that merely start with
// oldID ("@old-more") are left alone.
func RewriteRefs(lines []string, oldID, newID string) ([]string, bool) {
	changed := false
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = ReplaceRefs(line, func(id string) string {
			if id == oldID {
				changed = true
				return "@" + newID
			}
			return "@" + id
		})
	}
	return out, changed
}

// RewriteFileRefs is RewriteRefs applied to the content of a raw zettel file.
// The front-matter is returned byte for byte, so a file whose content does not
// cite oldID comes back unchanged.
func RewriteFileRefs(data []byte, oldID, newID string) ([]byte, bool) {
	lines := splitLines(string(data))
	n := frontMatterLen(lines)
	content, changed := RewriteRefs(lines[n:], oldID, newID)
	if !changed {
		return data, false
	}
	var b strings.Builder
	b.Grow(len(data) + len(newID))
	for _, line := range lines[:n] {
		b.WriteString(line)
	}
	for _, line := range content {
		b.WriteString(line)
	}
	return []byte(b.String()), true
}
