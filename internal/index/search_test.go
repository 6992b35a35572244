package index

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func seedSearch(t *testing.T) *DB {
	t.Helper()
	db := testDB(t)
	now := time.Now()
	notes := []struct {
		id, title, body string
		refs            []string
	}{
		{"20200314-note", "Pi day", "circles and ratios", nil},
		{"hub", "Hub", "see the circles note and the ratios note", []string{"20200314-note", "other"}},
		{"loose", "Loose", "circles only", []string{"other"}},
	}
	for _, n := range notes {
		row := NoteRow{ID: n.id, Title: n.title, Checksum: n.id, UpdatedAt: now}
		if err := db.UpsertNote(row, n.body, n.refs); err != nil {
			t.Fatal(err)
		}
	}
	return db
}

func resultIDs(rs []SearchResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestParseQuery(t *testing.T) {
	q := parseQuery("  circles @hub ratios @a-b email@host ")
	if !reflect.DeepEqual(q.terms, []string{"circles", "ratios", "email@host"}) {
		t.Errorf("terms = %q", q.terms)
	}
	if !reflect.DeepEqual(q.cites, []string{"hub", "a-b"}) {
		t.Errorf("cites = %q", q.cites)
	}
	if !parseQuery(" \t").empty() {
		t.Error("blank query should be empty")
	}
}

func TestSearch_AllTermsRequired(t *testing.T) {
	db := seedSearch(t)

	results, err := db.Search("circles ratios", 10)
	if err != nil {
		t.Fatal(err)
	}
	got := resultIDs(results)
	if len(got) != 2 || strings.Contains(strings.Join(got, ","), "loose") {
		t.Errorf("results = %v, want 20200314-note and hub", got)
	}
}

func TestSearch_CitationFilter(t *testing.T) {
	db := seedSearch(t)

	results, err := db.Search("@other", 10)
	if err != nil {
		t.Fatal(err)
	}
	if got := resultIDs(results); !reflect.DeepEqual(got, []string{"hub", "loose"}) {
		t.Errorf("@other = %v, want [hub loose]", got)
	}

	results, err = db.Search("circles @20200314-note", 10)
	if err != nil {
		t.Fatal(err)
	}
	if got := resultIDs(results); !reflect.DeepEqual(got, []string{"hub"}) {
		t.Errorf("circles @20200314-note = %v, want [hub]", got)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	db := seedSearch(t)
	results, err := db.Search("   ", 10)
	if err != nil || len(results) != 0 {
		t.Errorf("empty query = %v, %v", results, err)
	}
}

func TestSearch_Limit(t *testing.T) {
	db := seedSearch(t)
	results, err := db.Search("circles", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("len = %d, want 1", len(results))
	}
}

func TestExcerpt(t *testing.T) {
	body := strings.Repeat("a ", 50) + "needle" + strings.Repeat(" b", 50)

	got := excerpt(body, []string{"NEEDLE"}, 20)
	if !strings.Contains(got, "needle") {
		t.Errorf("excerpt %q misses the match", got)
	}
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "...") {
		t.Errorf("excerpt %q should be elided on both sides", got)
	}

	if got := excerpt("short\n\ttext", nil, 20); got != "short text" {
		t.Errorf("excerpt = %q, want whitespace collapsed", got)
	}
}
