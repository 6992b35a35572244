// Package parser reads and writes the on-disk zettel format and extracts
// @id citations from zettel content.
//
// A zettel file is a run of leading "key: value" lines (the front-matter)
// followed by free-form content. Front-matter parsing stops at the first line
// that is not a key/value pair; that line and everything after it is content.
package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/starford/zk/internal/apperr"
	"github.com/starford/zk/internal/models"
)

var (
	// metadataRe matches a front-matter line, e.g. "key: value".
	metadataRe = regexp.MustCompile(`^([\w-]+):(.*)$`)
	keyRe      = regexp.MustCompile(`^[\w-]+$`)
)

// Decode parses raw file contents into a zettel with the given id. The id is
// supplied by the caller (normally the file stem) and must be valid.
func Decode(data []byte, id string) (*models.Zettel, error) {
	if err := models.ValidateID(id); err != nil {
		return nil, err
	}

	lines := splitLines(string(data))
	metadata := make(map[string]string)

	i := frontMatterLen(lines)
	for _, line := range lines[:i] {
		m := metadataRe.FindStringSubmatch(strings.TrimSuffix(line, "\n"))
		metadata[strings.TrimSpace(m[1])] = strings.TrimSpace(m[2])
	}

	content := make([]string, len(lines)-i)
	copy(content, lines[i:])

	title := metadata[models.TitleKey]
	delete(metadata, models.TitleKey)

	return models.New(id, title, metadata, content)
}

// Encode renders z in the on-disk format: the title line, the remaining
// metadata sorted by key, then the content lines unmodified. It fails with an
// error wrapping apperr.ErrInvalidMetadata if z would not decode back to the
// same title, metadata and content; see Check.
func Encode(z *models.Zettel) ([]byte, error) {
	if err := Check(z); err != nil {
		return nil, err
	}

	var b strings.Builder
	writeMeta(&b, models.TitleKey, z.Title)
	for _, k := range sortedKeys(z.Metadata) {
		writeMeta(&b, k, z.Metadata[k])
	}
	for _, line := range z.Content {
		b.WriteString(line)
	}
	return []byte(b.String()), nil
}

// Check reports whether z can be written in the on-disk format without
// changing on the next Decode. Keys must be word or hyphen runs other than
// "title". The title and values must be single lines without surrounding
// whitespace. The first content line must not look like front-matter, and
// every content line but the last must end with its only newline.
func Check(z *models.Zettel) error {
	if err := checkValue(models.TitleKey, z.Title); err != nil {
		return err
	}
	for _, k := range sortedKeys(z.Metadata) {
		if k == models.TitleKey || !keyRe.MatchString(k) {
			return fmt.Errorf("%w: key %q", apperr.ErrInvalidMetadata, k)
		}
		if err := checkValue(k, z.Metadata[k]); err != nil {
			return err
		}
	}
	for i, line := range z.Content {
		body, last := strings.TrimSuffix(line, "\n"), i == len(z.Content)-1
		if strings.Contains(body, "\n") || (!last && body == line) {
			return fmt.Errorf("%w: content line %d is not a single line", apperr.ErrInvalidMetadata, i+1)
		}
		if i == 0 && metadataRe.MatchString(body) {
			return fmt.Errorf("%w: content starts with front-matter line %q", apperr.ErrInvalidMetadata, body)
		}
	}
	return nil
}

func checkValue(key, value string) error {
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("%w: %s spans several lines", apperr.ErrInvalidMetadata, key)
	}
	if strings.TrimSpace(value) != value {
		return fmt.Errorf("%w: %s has surrounding whitespace", apperr.ErrInvalidMetadata, key)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeMeta(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteByte('\n')
}

// frontMatterLen returns how many leading lines are front-matter.
func frontMatterLen(lines []string) int {
	for i, line := range lines {
		if !metadataRe.MatchString(strings.TrimSuffix(line, "\n")) {
			return i
		}
	}
	return len(lines)
}

// splitLines splits s after every newline, keeping the terminators. A final
// line without a newline is kept as is.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
