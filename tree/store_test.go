package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleTree builds
//
//	Root(head=Ident:a body=[Stmt:s0(expr=Ident:x) Stmt:s1(expr=Call:f(args=[Ident:y Ident:z])) Stmt:s2] tags={Tag:t1 Tag:t2})
//
// as the store's main tree.
func sampleTree(t *testing.T) *Store {
	t.Helper()
	s := NewStore(Options{})

	mk := func(kind, value string, items ...ItemSpec) NodeID {
		id, err := s.Make(kind, value, items...)
		require.NoError(t, err)
		return id
	}
	s0 := mk("Stmt", "s0", Singular("expr", s.Leaf("Ident", "x")))
	call := mk("Call", "f", Sequence("args", s.Leaf("Ident", "y"), s.Leaf("Ident", "z")))
	s1 := mk("Stmt", "s1", Singular("expr", call))
	s2 := s.Leaf("Stmt", "s2")
	root := mk("Root", "",
		Singular("head", s.Leaf("Ident", "a")),
		Sequence("body", s0, s1, s2),
		Collection("tags", s.Leaf("Tag", "t1"), s.Leaf("Tag", "t2")),
	)
	_, err := s.CreateMainTree(root)
	require.NoError(t, err)
	return s
}

func resolve(t *testing.T, s *Store, path string) Location {
	t.Helper()
	loc, err := s.Resolve(s.Main(), path)
	require.NoError(t, err)
	return loc
}

func mainRoot(t *testing.T, s *Store) NodeID {
	t.Helper()
	root, err := s.Root(s.Main())
	require.NoError(t, err)
	id, err := s.Child(root)
	require.NoError(t, err)
	return id
}

func TestSampleTreeFormat(t *testing.T) {
	s := sampleTree(t)
	assert.Equal(t,
		"Root(head=Ident:a body=[Stmt:s0(expr=Ident:x) Stmt:s1(expr=Call:f(args=[Ident:y Ident:z])) Stmt:s2] tags={Tag:t1 Tag:t2})",
		s.Format(mainRoot(t, s)))
	assert.Equal(t, Stats{Nodes: 11, Trees: 1}, s.Stats())
}

func TestMakeRejectsAttachedChildren(t *testing.T) {
	s := NewStore(Options{})
	leaf := s.Leaf("Ident", "x")
	_, err := s.Make("Stmt", "", Singular("expr", leaf))
	require.NoError(t, err)

	_, err = s.Make("Stmt", "", Singular("expr", leaf))
	assert.ErrorIs(t, err, ErrAttached)

	other := s.Leaf("Ident", "y")
	_, err = s.Make("Pair", "", Singular("l", other), Singular("r", other))
	assert.ErrorIs(t, err, ErrAttached)

	_, err = s.Make("Bad", "", ItemSpec{Name: "x", Kind: ItemSingular})
	assert.ErrorIs(t, err, ErrItemKind)
}

func TestExchangeInsertDelete(t *testing.T) {
	s := sampleTree(t)
	head := resolve(t, s, "/head")

	old, err := s.Exchange(head, s.Leaf("Ident", "b"))
	require.NoError(t, err)
	_, attached := s.ParentOf(old)
	assert.False(t, attached, "previous occupant must be detached")

	err = s.Insert(head, s.Leaf("Ident", "c"))
	assert.ErrorIs(t, err, ErrNotHole)

	require.NoError(t, s.Delete(head))
	child, err := s.Child(head)
	require.NoError(t, err)
	assert.Equal(t, NodeID(0), child)

	require.NoError(t, s.Insert(head, old))
	loc, ok := s.ParentOf(old)
	require.True(t, ok)
	assert.Equal(t, head, loc)

	// Attached content cannot be written elsewhere.
	_, err = s.Exchange(resolve(t, s, "/body[2]"), old)
	assert.ErrorIs(t, err, ErrAttached)
}

func TestBuildTreeAndTeardown(t *testing.T) {
	s := sampleTree(t)
	before := s.Stats().Nodes

	content, err := s.Make("Block", "", Sequence("stmts", s.Leaf("Stmt", "q")))
	require.NoError(t, err)
	aux, err := s.BuildTree(content)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Stats().AuxiliaryTrees)

	root, err := s.Root(aux)
	require.NoError(t, err)
	tid, ok := s.TreeOf(root)
	require.True(t, ok)
	assert.Equal(t, aux, tid)
	assert.Equal(t, "#2/stmts[0]", s.PathOf(s.ChildLocations(content)[0]))

	require.NoError(t, s.Teardown(aux))
	assert.Equal(t, before, s.Stats().Nodes)
	assert.False(t, s.Has(content))
	assert.ErrorIs(t, s.Teardown(aux), ErrTreeNotFound)
	assert.ErrorIs(t, s.Teardown(s.Main()), ErrTeardownMain)
}

func TestCreateMainTreeTwice(t *testing.T) {
	s := sampleTree(t)
	_, err := s.CreateMainTree(s.Leaf("Root", ""))
	assert.ErrorIs(t, err, ErrMainTreeExists)
}

func TestDuplicateRegion(t *testing.T) {
	s := sampleTree(t)
	base := resolve(t, s, "/body[1]")
	term := resolve(t, s, "/body[1]/expr/args[0]")

	copyRoot, terms, err := s.DuplicateRegion(Region{Base: base, Terminii: []Location{term}})
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, "Stmt:s1(expr=Call:f(args=[_ Ident:z]))", s.Format(copyRoot))

	hole, err := s.Child(terms[0])
	require.NoError(t, err)
	assert.Equal(t, NodeID(0), hole)
	assert.NotEqual(t, term, terms[0])

	// The original is untouched.
	assert.Equal(t,
		"Stmt:s1(expr=Call:f(args=[Ident:y Ident:z]))",
		s.Format(mustChild(t, s, base)))

	empty, terms, err := s.DuplicateRegion(Region{Base: base, Terminii: []Location{base}})
	require.NoError(t, err)
	assert.Equal(t, NodeID(0), empty)
	assert.Empty(t, terms)
}

func TestEqualAndFingerprint(t *testing.T) {
	s := NewStore(Options{})
	a, err := s.Make("Set", "", Collection("xs", s.Leaf("X", "1"), s.Leaf("X", "2")))
	require.NoError(t, err)
	b, err := s.Make("Set", "", Collection("xs", s.Leaf("X", "2"), s.Leaf("X", "1")))
	require.NoError(t, err)
	c, err := s.Make("Set", "", Sequence("xs", s.Leaf("X", "1"), s.Leaf("X", "2")))
	require.NoError(t, err)
	d, err := s.Make("Set", "", Sequence("xs", s.Leaf("X", "2"), s.Leaf("X", "1")))
	require.NoError(t, err)

	assert.True(t, s.Equal(a, b), "collections compare without order")
	assert.False(t, s.Equal(c, d), "sequences compare in order")
	assert.False(t, s.Equal(a, c))
	assert.True(t, s.Equal(a, s.Copy(a)))
	assert.Equal(t, 3, s.Size(a))
	assert.True(t, s.Equal(0, 0))
	assert.False(t, s.Equal(a, 0))
}

func TestScaffold(t *testing.T) {
	s := NewStore(Options{})
	id, slots := s.MakeScaffold("Stmt", 3)
	require.Len(t, slots, 3)
	n, err := s.Node(id)
	require.NoError(t, err)
	assert.True(t, n.IsScaffold())
	assert.Equal(t, "Stmt", n.Value())
	assert.Equal(t, "@scaffold:Stmt(slots=[_ _ _])", s.Format(id))
	for _, slot := range slots {
		assert.True(t, s.IsContainerSlot(slot))
	}
}

func mustChild(t *testing.T, s *Store, loc Location) NodeID {
	t.Helper()
	id, err := s.Child(loc)
	require.NoError(t, err)
	return id
}
