package update

import (
	"testing"

	"github.com/jgraley/inferno-cpp2v-sub002/tree"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// sampleMain is the main tree every fixture starts from.
const sampleMain = "Root(head=Ident:a body=[Stmt:s0(expr=Ident:x) Stmt:s1(expr=Call:f(args=[Ident:y Ident:z])) Stmt:s2] tags={Tag:t1 Tag:t2})"

type fixture struct {
	t *testing.T
	s *tree.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := tree.NewStore(tree.Options{})
	mk := func(kind, value string, items ...tree.ItemSpec) tree.NodeID {
		id, err := s.Make(kind, value, items...)
		require.NoError(t, err)
		return id
	}
	s0 := mk("Stmt", "s0", tree.Singular("expr", s.Leaf("Ident", "x")))
	call := mk("Call", "f", tree.Sequence("args", s.Leaf("Ident", "y"), s.Leaf("Ident", "z")))
	s1 := mk("Stmt", "s1", tree.Singular("expr", call))
	root := mk("Root", "",
		tree.Singular("head", s.Leaf("Ident", "a")),
		tree.Sequence("body", s0, s1, s.Leaf("Stmt", "s2")),
		tree.Collection("tags", s.Leaf("Tag", "t1"), s.Leaf("Tag", "t2")),
	)
	_, err := s.CreateMainTree(root)
	require.NoError(t, err)
	f := &fixture{t: t, s: s}
	require.Equal(t, sampleMain, f.main())
	return f
}

func (f *fixture) loc(path string) tree.Location {
	f.t.Helper()
	loc, err := f.s.Resolve(f.s.Main(), path)
	require.NoError(f.t, err)
	return loc
}

// node returns the content at path.
func (f *fixture) node(path string) tree.NodeID {
	f.t.Helper()
	id, err := f.s.Child(f.loc(path))
	require.NoError(f.t, err)
	return id
}

// main formats the main tree's root content.
func (f *fixture) main() string {
	return f.format("/")
}

func (f *fixture) format(path string) string {
	f.t.Helper()
	return f.s.Format(f.node(path))
}

func (f *fixture) zone(base string, terminii ...string) *TreeZone {
	f.t.Helper()
	locs := make([]tree.Location, len(terminii))
	for i, p := range terminii {
		locs[i] = f.loc(p)
	}
	z, err := NewTreeZone(f.s, f.loc(base), locs...)
	require.NoError(f.t, err)
	return z
}

func (f *fixture) tree(z *TreeZone, children ...Patch) *TreeZonePatch {
	f.t.Helper()
	p, err := NewTreeZonePatch(z, children)
	require.NoError(f.t, err)
	return p
}

// subtree is a tree patch over the complete subtree at path.
func (f *fixture) subtree(path string) *TreeZonePatch {
	f.t.Helper()
	return f.tree(f.zone(path))
}

// freeZone builds a free zone from a YAML node document in which "$"
// marks terminii.
func (f *fixture) freeZone(doc string) *FreeZone {
	f.t.Helper()
	var nd tree.NodeDoc
	require.NoError(f.t, yaml.Unmarshal([]byte(doc), &nd))
	z, err := NewFreeZoneFromDoc(f.s, &nd)
	require.NoError(f.t, err)
	return z
}

func (f *fixture) free(doc string, children ...Patch) *FreePatch {
	f.t.Helper()
	p, err := NewFreePatch(f.freeZone(doc), children)
	require.NoError(f.t, err)
	return p
}

// wrap is a free node Wrap:<value> with a single terminus.
func wrap(value string) string {
	return "{kind: Wrap, value: " + value + ", items: [{name: x, node: {kind: $}}]}"
}
