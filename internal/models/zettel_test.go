package models

import (
	"errors"
	"testing"

	"github.com/starford/zk/internal/apperr"
)

func TestValidateID(t *testing.T) {
	valid := []string{"index", "20200314-note", "a", "A_b-9", "__", "-"}
	for _, id := range valid {
		if err := ValidateID(id); err != nil {
			t.Errorf("ValidateID(%q) = %v, want nil", id, err)
		}
	}
	invalid := []string{"", "a b", "a/b", "../etc", "note.md", "é", "a\n", "tab\t", "x@y", "a:b"}
	for _, id := range invalid {
		err := ValidateID(id)
		if err == nil {
			t.Errorf("ValidateID(%q) = nil, want error", id)
			continue
		}
		if !errors.Is(err, apperr.ErrInvalidID) {
			t.Errorf("ValidateID(%q) error %v does not wrap ErrInvalidID", id, err)
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	z, err := New("note", "", nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if z.ID() != "note" {
		t.Errorf("id = %q", z.ID())
	}
	if z.Title != "note" {
		t.Errorf("title = %q, want id", z.Title)
	}
	if z.Metadata == nil || z.Content == nil {
		t.Fatal("metadata and content must be non-nil")
	}
}

func TestNew_FreshContainers(t *testing.T) {
	a, _ := New("a", "", nil, nil)
	b, _ := New("b", "", nil, nil)
	a.Metadata["k"] = "v"
	a.Content = append(a.Content, "line\n")
	if len(b.Metadata) != 0 || len(b.Content) != 0 {
		t.Error("zettels share default containers")
	}
}

func TestNew_InvalidID(t *testing.T) {
	z, err := New("bad id", "x", nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if z != nil {
		t.Error("invalid zettel must not be returned")
	}
}

func TestSetID_InvalidKeepsOld(t *testing.T) {
	z, _ := New("good", "", nil, nil)
	if err := z.SetID("no good"); err == nil {
		t.Fatal("expected error")
	}
	if z.ID() != "good" {
		t.Errorf("id changed to %q", z.ID())
	}
}

func TestEqual_ByID(t *testing.T) {
	a, _ := New("same", "One", map[string]string{"k": "1"}, []string{"x\n"})
	b, _ := New("same", "Two", nil, nil)
	c, _ := New("other", "One", nil, nil)
	if !a.Equal(b) {
		t.Error("zettels with the same id should be equal")
	}
	if a.Equal(c) {
		t.Error("zettels with different ids should differ")
	}
	set := map[string]*Zettel{a.ID(): a}
	if _, ok := set[b.ID()]; !ok {
		t.Error("id-keyed lookup failed")
	}
}

func TestBody(t *testing.T) {
	z, _ := New("b", "", nil, []string{"one\n", "\n", "two"})
	if got := z.Body(); got != "one\n\ntwo" {
		t.Errorf("body = %q", got)
	}
}
