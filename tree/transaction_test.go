package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRollbackRestoresMainTree(t *testing.T) {
	s := sampleTree(t)
	before := s.Format(mainRoot(t, s))
	stats := s.Stats()
	identA := mustChild(t, s, resolve(t, s, "/head"))

	require.NoError(t, s.Begin("test"))
	assert.ErrorIs(t, s.Begin("again"), ErrTransactionPending)

	// Swap a body statement out into an auxiliary tree, then tear it down.
	wrap, err := s.Make("Wrap", "", Singular("x", 0))
	require.NoError(t, err)
	aux, err := s.BuildTree(wrap)
	require.NoError(t, err)
	auxRoot, err := s.Root(aux)
	require.NoError(t, err)
	_, _, err = s.Swap(Region{Base: resolve(t, s, "/body[0]")}, nil, Region{Base: auxRoot}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Teardown(aux))
	require.NoError(t, s.Delete(resolve(t, s, "/head")))
	_, err = s.AppendElement(mainRoot(t, s), 1, s.Leaf("Stmt", "new"))
	require.NoError(t, err)
	assert.NotEqual(t, before, s.Format(mainRoot(t, s)))

	require.NoError(t, s.Rollback())
	assert.False(t, s.InTransaction())
	assert.Equal(t, before, s.Format(mainRoot(t, s)))
	assert.Equal(t, stats, s.Stats())
	assert.Equal(t, identA, mustChild(t, s, resolve(t, s, "/head")), "node identity survives rollback")
	assert.ErrorIs(t, s.Rollback(), ErrNoTransaction)
}

func TestTransactionCommitDefersReleases(t *testing.T) {
	s := sampleTree(t)
	head := resolve(t, s, "/head")
	identA := mustChild(t, s, head)

	require.NoError(t, s.Begin("test"))
	require.NoError(t, s.Delete(head))
	assert.True(t, s.Has(identA), "release is deferred until commit")

	require.NoError(t, s.Commit())
	assert.False(t, s.Has(identA))
	assert.Equal(t, 10, s.Stats().Nodes)
	assert.ErrorIs(t, s.Commit(), ErrNoTransaction)
}

func TestTransactionRollbackRestoresTornDownTree(t *testing.T) {
	s := sampleTree(t)
	aux, err := s.BuildTree(s.Leaf("Lit", "1"))
	require.NoError(t, err)

	require.NoError(t, s.Begin("test"))
	require.NoError(t, s.Teardown(aux))
	_, err = s.Root(aux)
	assert.ErrorIs(t, err, ErrTreeNotFound)
	require.NoError(t, s.Rollback())

	root, err := s.Root(aux)
	require.NoError(t, err)
	assert.Equal(t, "Lit:1", s.Format(mustChild(t, s, root)))
}
