package update

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareZones(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		a, b *TreeZone
		want ZoneRelation
	}{
		{"equal", f.zone("/body[1]"), f.zone("/body[1]"), RelationEqual},
		{"same base other terminii", f.zone("/body[1]"), f.zone("/body[1]", "/body[1]/expr"), RelationOverlapTerminii},
		{"base inside content", f.zone("/body[1]"), f.zone("/body[1]/expr"), RelationOverlapGeneral},
		{"content inside base", f.zone("/body[1]/expr/args[0]"), f.zone("/body[1]", "/body[1]/expr/args[1]"), RelationOverlapGeneral},
		{"below a terminus", f.zone("/body[1]", "/body[1]/expr"), f.zone("/body[1]/expr/args[0]"), RelationDistinctSubtree},
		{"above a terminus", f.zone("/body[1]/expr"), f.zone("/", "/body[1]"), RelationDistinctSubtree},
		{"below an empty zone", f.zone("/body[1]", "/body[1]"), f.zone("/body[1]/expr"), RelationDistinctSubtree},
		{"siblings", f.zone("/body[0]"), f.zone("/body[2]"), RelationDistinctSiblings},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CompareZones(f.s, tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Overlaps(), got >= RelationOverlapGeneral)
		})
	}
}

func TestOverlapDuplicatesLaterOfEqualZones(t *testing.T) {
	f := newFixture(t)
	a, b := f.subtree("/body[1]"), f.subtree("/body[1]")
	var root Patch = f.free("{kind: Pair, items: [{name: l, node: {kind: $}}, {name: r, node: {kind: $}}]}", a, b)

	pass := NewOverlapPass(f.s)
	assert.ErrorIs(t, pass.Check(root), ErrInvariant)

	n, err := pass.Run(&root)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Same(t, a, root.Children()[0])
	_, ok := root.Children()[1].(*FreePatch)
	assert.True(t, ok)
	assert.NoError(t, pass.Check(root))
}

func TestOverlapDuplicatesDeeperZone(t *testing.T) {
	f := newFixture(t)
	inner := f.subtree("/body[1]/expr")
	outer := f.subtree("/body[1]")
	var root Patch = f.free("{kind: Pair, items: [{name: l, node: {kind: $}}, {name: r, node: {kind: $}}]}", inner, outer)

	n, err := NewOverlapPass(f.s).Run(&root)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	fp, ok := root.Children()[0].(*FreePatch)
	require.True(t, ok, "the deeper zone is the one duplicated")
	assert.Equal(t, "Call:f(args=[Ident:y Ident:z])", fp.Zone().Describe(f.s))
	assert.Same(t, outer, root.Children()[1])
}

func TestOverlapLeavesDistinctZones(t *testing.T) {
	f := newFixture(t)
	var root Patch = f.tree(f.zone("/", "/body[1]/expr"), f.subtree("/body[1]/expr"))
	n, err := NewOverlapPass(f.s).Run(&root)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
