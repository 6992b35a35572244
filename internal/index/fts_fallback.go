//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

// Without FTS5 the notes table is searched directly; there is nothing extra
// to maintain.
func initFTS(*sql.DB) error { return nil }

func ftsUpsert(*sql.Tx, string, string, string) error { return nil }

func ftsDelete(*sql.Tx, string) {}

// Search returns zettels containing every term of query in their id, title
// or body, title matches first. Terms written @id keep only zettels citing id.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	q := parseQuery(query)
	if q.empty() {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	var where strings.Builder
	where.WriteString("1 = 1")
	var args []any
	for _, t := range q.terms {
		like := "%" + escapeLike(t) + "%"
		where.WriteString(` AND (id LIKE ? ESCAPE '\' OR title LIKE ? ESCAPE '\' OR body LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	cites, citeArgs := q.citeFilter("id")
	where.WriteString(cites)
	args = append(args, citeArgs...)

	titleRank := "0"
	if len(q.terms) > 0 {
		titleRank = `title LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(q.terms[0])+"%")
	}
	args = append(args, limit)

	rows, err := db.conn.Query(`
		SELECT id, title, body
		FROM notes
		WHERE `+where.String()+`
		ORDER BY `+titleRank+` DESC, id
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}

	results, err := scanResults(rows)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Snippet = excerpt(results[i].Snippet, q.terms, 120)
	}
	return results, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
