//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			id UNINDEXED,
			title,
			body,
			tokenize = 'unicode61 remove_diacritics 2 tokenchars ''-_'''
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, id, title, body string) error {
	ftsDelete(tx, id)
	if _, err := tx.Exec(`INSERT INTO notes_fts (id, title, body) VALUES (?, ?, ?)`, id, title, body); err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, id string) {
	_, _ = tx.Exec(`DELETE FROM notes_fts WHERE id = ?`, id)
}

// Search ranks zettels matching every term of query with FTS5. Terms written
// @id keep only zettels citing id; a query of citations alone lists them by
// id.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	q := parseQuery(query)
	if q.empty() {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	var (
		rows *sql.Rows
		err  error
	)
	if len(q.terms) == 0 {
		cites, args := q.citeFilter("id")
		rows, err = db.conn.Query(`
			SELECT id, title, substr(body, 1, 120)
			FROM notes
			WHERE 1 = 1`+cites+`
			ORDER BY id
			LIMIT ?
		`, append(args, limit)...)
	} else {
		cites, args := q.citeFilter("id")
		rows, err = db.conn.Query(`
			SELECT id,
			       title,
			       snippet(notes_fts, 2, '*', '*', '...', 24)
			FROM notes_fts
			WHERE notes_fts MATCH ?`+cites+`
			ORDER BY rank
			LIMIT ?
		`, append(append([]any{matchExpr(q.terms)}, args...), limit)...)
	}
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanResults(rows)
}

// matchExpr quotes every term so ids like 20200314-note are not read as FTS5
// operators. Quoted terms are ANDed.
func matchExpr(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}
