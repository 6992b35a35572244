package graph

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/starford/zk/internal/models"
	"github.com/starford/zk/internal/storage"
)

func testStore(t *testing.T, notes map[string]string) *storage.FS {
	t.Helper()
	s, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for id, body := range notes {
		z, err := models.New(id, "", nil, []string{body})
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Save(z); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func ids(nodes []*Node) []string {
	out := []string{}
	for _, n := range nodes {
		out = append(out, n.ID())
	}
	return out
}

func mustNode(t *testing.T, g *Graph, id string) *Node {
	t.Helper()
	n, ok := g.Node(id)
	if !ok {
		t.Fatalf("node %q missing", id)
	}
	return n
}

func TestBuild_Chain(t *testing.T) {
	s := testStore(t, map[string]string{
		"A": "cites @B\n",
		"B": "cites @C\n",
		"C": "cites nothing\n",
	})
	g, warnings, err := Build(s, "A")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	a, b, c := mustNode(t, g, "A"), mustNode(t, g, "B"), mustNode(t, g, "C")

	check := func(name string, got []*Node, want ...string) {
		t.Helper()
		if want == nil {
			want = []string{}
		}
		if !reflect.DeepEqual(ids(got), want) {
			t.Errorf("%s = %v, want %v", name, ids(got), want)
		}
	}
	check("A.upstream", a.Upstream())
	check("A.downstream", a.Downstream(), "B")
	check("B.upstream", b.Upstream(), "A")
	check("B.downstream", b.Downstream(), "C")
	check("C.upstream", c.Upstream(), "B")
	check("C.downstream", c.Downstream())
	check("B.neighbors", b.Neighbors(), "A", "C")

	if root := g.Root(); root == nil || !root.Equal(a) {
		t.Errorf("root = %v, want A", root)
	}
	if len(g.Unreachable()) != 0 {
		t.Errorf("unreachable = %v", ids(g.Unreachable()))
	}
	if !reflect.DeepEqual(ids(g.DeadEnds()), []string{"C"}) {
		t.Errorf("dead ends = %v", ids(g.DeadEnds()))
	}
	want := []models.Ref{{Source: "A", Target: "B"}, {Source: "B", Target: "C"}}
	if !reflect.DeepEqual(g.Links(), want) {
		t.Errorf("links = %v", g.Links())
	}
}

func TestBuild_Dangling(t *testing.T) {
	s := testStore(t, map[string]string{
		"A": "see @ghost and @B\n",
		"B": "also @ghost\n",
	})
	g, warnings, err := Build(s, "index")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var dangling []Warning
	for _, w := range warnings {
		if w.Kind == WarnDangling {
			dangling = append(dangling, w)
		}
	}
	if len(dangling) != 2 {
		t.Fatalf("dangling warnings = %v, want one per source", dangling)
	}
	for _, w := range dangling {
		if w.Target != "ghost" {
			t.Errorf("warning target = %q", w.Target)
		}
	}
	if _, ok := g.Node("ghost"); ok {
		t.Error("ghost node must not exist")
	}
	if !reflect.DeepEqual(ids(mustNode(t, g, "A").Downstream()), []string{"B"}) {
		t.Error("A must only link to B")
	}
	if g.Root() != nil {
		t.Error("root should be nil when missing")
	}
}

func TestBuild_CycleAndSelfReference(t *testing.T) {
	s := testStore(t, map[string]string{
		"x": "@y @x\n",
		"y": "@x\n",
	})
	g, warnings, err := Build(s, "x")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	x := mustNode(t, g, "x")
	if !reflect.DeepEqual(ids(x.Downstream()), []string{"x", "y"}) {
		t.Errorf("x.downstream = %v", ids(x.Downstream()))
	}
	if !reflect.DeepEqual(ids(x.Upstream()), []string{"x", "y"}) {
		t.Errorf("x.upstream = %v", ids(x.Upstream()))
	}
	if !reflect.DeepEqual(ids(x.Neighbors()), []string{"x", "y"}) {
		t.Errorf("x.neighbors = %v", ids(x.Neighbors()))
	}
}

func TestBuild_DecodeFailureAndOrphan(t *testing.T) {
	s := testStore(t, map[string]string{
		"index": "@a\n",
		"a":     "text\n",
		"lone":  "nothing\n",
	})
	if err := os.WriteFile(filepath.Join(s.Root(), "bad name.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	g, warnings, err := Build(s, "index")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Len() != 3 {
		t.Errorf("len = %d, want 3", g.Len())
	}
	kinds := map[WarningKind][]string{}
	for _, w := range warnings {
		kinds[w.Kind] = append(kinds[w.Kind], w.Source)
		if w.String() == "" {
			t.Error("empty warning string")
		}
	}
	if !reflect.DeepEqual(kinds[WarnDecode], []string{"bad name"}) {
		t.Errorf("decode warnings = %v", kinds[WarnDecode])
	}
	if !reflect.DeepEqual(kinds[WarnOrphan], []string{"lone"}) {
		t.Errorf("orphan warnings = %v", kinds[WarnOrphan])
	}
	if !reflect.DeepEqual(ids(g.Unreachable()), []string{"lone"}) {
		t.Errorf("unreachable = %v", ids(g.Unreachable()))
	}
}

type failingSource struct{}

func (failingSource) List() ([]models.NoteMetadata, error) { return nil, errors.New("boom") }
func (failingSource) Load(string) (*models.Zettel, error)  { return nil, errors.New("unused") }

func TestBuild_ListError(t *testing.T) {
	if _, _, err := Build(failingSource{}, "index"); err == nil {
		t.Fatal("expected error")
	}
}
