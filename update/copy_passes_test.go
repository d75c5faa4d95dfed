package update

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChooseCopiesKeepsOneReference(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.subtree("/body[1]"), f.subtree("/body[1]"), f.subtree("/body[1]")
	b.SetIntent(IntentMovable)
	var root Patch = f.free(triple, a, b, c)

	copies := NewChooseCopiesPass(f.s).Run(root, f.loc("/"))
	assert.Equal(t, 2, copies)
	assert.Equal(t, []Intent{IntentDefault, IntentCopyable, IntentCopyable}, intents(a, b, c))

	n, err := NewCopyingPass(f.s).Run(&root)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	kids := root.Children()
	assert.Same(t, a, kids[0])
	for _, k := range kids[1:] {
		fp, ok := k.(*FreePatch)
		require.True(t, ok)
		assert.True(t, f.s.Equal(fp.FreeZone().Base(), f.node("/body[1]")))
		assert.NotEqual(t, f.node("/body[1]"), fp.FreeZone().Base())
	}
	assert.Equal(t, sampleMain, f.main())
}

func TestChooseCopiesPrefersDefaultKeeper(t *testing.T) {
	f := newFixture(t)
	a, b := f.subtree("/head"), f.subtree("/head")
	a.SetIntent(IntentMovable)
	root := f.free("{kind: Pair, items: [{name: l, node: {kind: $}}, {name: r, node: {kind: $}}]}", a, b)

	assert.Equal(t, 1, NewChooseCopiesPass(f.s).Run(root, f.loc("/")))
	assert.Equal(t, []Intent{IntentCopyable, IntentDefault}, intents(a, b))
}

func TestChooseCopiesNeverMovesContentOutsideOrigin(t *testing.T) {
	f := newFixture(t)
	outside := f.subtree("/body[0]/expr")
	outside.SetIntent(IntentMovable)
	root := f.free(wrap("w"), outside)

	assert.Equal(t, 1, NewChooseCopiesPass(f.s).Run(root, f.loc("/body[1]")))
	assert.Equal(t, IntentCopyable, outside.Intent())
}

func TestCopyingKeepsChildren(t *testing.T) {
	f := newFixture(t)
	child := f.subtree("/body[1]/expr/args[1]")
	tp := f.tree(f.zone("/body[1]", "/body[1]/expr/args[1]"), child)
	tp.SetIntent(IntentCopyable)
	var root Patch = tp

	_, err := NewCopyingPass(f.s).Run(&root)
	require.NoError(t, err)
	fp, ok := root.(*FreePatch)
	require.True(t, ok)
	assert.Equal(t, "Stmt:s1(expr=Call:f(args=[Ident:y _]))", fp.Zone().Describe(f.s))
	require.Len(t, fp.Children(), 1)
	assert.Same(t, child, fp.Children()[0])
}
