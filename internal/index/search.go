package index

import (
	"database/sql"
	"regexp"
	"strings"
	"unicode/utf8"
)

const defaultSearchLimit = 20

// citeTermRe matches a query term of the form @id.
var citeTermRe = regexp.MustCompile(`^@([\w-]+)$`)

// searchQuery is a parsed search string. Terms written @id restrict results
// to zettels citing id; every other term must appear in the id, title or body.
type searchQuery struct {
	terms []string
	cites []string
}

func parseQuery(q string) searchQuery {
	var sq searchQuery
	for _, f := range strings.Fields(q) {
		if m := citeTermRe.FindStringSubmatch(f); m != nil {
			sq.cites = append(sq.cites, m[1])
			continue
		}
		sq.terms = append(sq.terms, f)
	}
	return sq
}

func (q searchQuery) empty() bool {
	return len(q.terms) == 0 && len(q.cites) == 0
}

// citeFilter returns a WHERE fragment restricting col to zettels citing every
// @id of the query, with its arguments.
func (q searchQuery) citeFilter(col string) (string, []any) {
	var b strings.Builder
	args := make([]any, 0, len(q.cites))
	for _, id := range q.cites {
		b.WriteString(" AND " + col + " IN (SELECT source FROM refs WHERE target = ?)")
		args = append(args, id)
	}
	return b.String(), args
}

// excerpt returns about width runes of body around the first occurrence of
// any term, case-insensitively. Without a match it returns the start of body.
func excerpt(body string, terms []string, width int) string {
	body = strings.Join(strings.Fields(body), " ")
	lower := strings.ToLower(body)
	at := -1
	for _, t := range terms {
		if i := strings.Index(lower, strings.ToLower(t)); i >= 0 && (at < 0 || i < at) {
			at = i
		}
	}
	if at < 0 {
		at = 0
	}

	start := at
	for n := 0; start > 0 && n < width/4; n++ {
		_, size := utf8.DecodeLastRuneInString(body[:start])
		start -= size
	}
	end := start
	for n := 0; end < len(body) && n < width; n++ {
		_, size := utf8.DecodeRuneInString(body[end:])
		end += size
	}

	out := body[start:end]
	if start > 0 {
		out = "..." + out
	}
	if end < len(body) {
		out += "..."
	}
	return out
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
