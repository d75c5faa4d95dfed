package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jgraley/inferno-cpp2v-sub002/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const treeDoc = `
kind: Root
items:
  - name: head
    node: {kind: Ident, value: a}
  - name: body
    seq:
      - {kind: Stmt, value: s0}
      - {kind: Stmt, value: s1}
`

const swapPlan = `
origin: /
patch:
  tree:
    base: /
    terminii:
      - /body[0]
      - /body[1]
  children:
    - tree:
        base: /body[1]
    - tree:
        base: "/body[0]"
`

func newTestSession(t *testing.T) (*session, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	for name, body := range map[string]string{"tree.yaml": treeDoc, "swap.yaml": swapPlan} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	var out bytes.Buffer
	return newSession(&out, config.Default(), zerolog.Nop()), &out, dir
}

func TestSessionLoadPlanApply(t *testing.T) {
	r, out, dir := newTestSession(t)

	r.handle("show")
	assert.Contains(t, out.String(), "no tree is loaded")

	require.True(t, r.handle("load "+filepath.Join(dir, "tree.yaml")))
	out.Reset()
	r.handle("show")
	assert.Equal(t, "Root(head=Ident:a body=[Stmt:s0 Stmt:s1])\n", out.String())

	r.handle("plan " + filepath.Join(dir, "swap.yaml"))
	assert.Contains(t, out.String(), "3 tree patches")
	require.NotNil(t, r.plan)

	out.Reset()
	r.handle("apply")
	assert.Contains(t, out.String(), "moves=2")
	assert.Nil(t, r.plan)

	out.Reset()
	r.handle("show /body")
	assert.Contains(t, out.String(), "Error")
	out.Reset()
	r.handle("show /body[0]")
	assert.Equal(t, "Stmt:s1\n", out.String())

	out.Reset()
	r.handle("apply")
	assert.Contains(t, out.String(), "no plan is loaded")
	assert.Equal(t, uint64(1), r.updater.Count())
}

func TestSessionSaveRestore(t *testing.T) {
	r, out, dir := newTestSession(t)
	r.handle("load " + filepath.Join(dir, "tree.yaml"))
	r.handle("apply " + filepath.Join(dir, "swap.yaml"))

	snap := filepath.Join(dir, "tree.cbor")
	r.handle("save " + snap)
	r.handle("load " + filepath.Join(dir, "tree.yaml"))
	r.handle("restore " + snap)

	out.Reset()
	r.handle("show")
	assert.Equal(t, "Root(head=Ident:a body=[Stmt:s1 Stmt:s0])\n", out.String())

	out.Reset()
	r.handle("stats")
	assert.Contains(t, out.String(), "Nodes:       4")
	assert.Contains(t, out.String(), "Updates:     0")
}

func TestSessionPaths(t *testing.T) {
	r, out, dir := newTestSession(t)
	r.handle("load " + filepath.Join(dir, "tree.yaml"))
	out.Reset()
	r.handle("paths")
	for _, p := range []string{"/head", "/body[0]", "/body[1]"} {
		assert.Contains(t, out.String(), p)
	}
	assert.True(t, r.handle("bogus"))
	assert.Contains(t, out.String(), "Unknown command: bogus")
	assert.False(t, r.handle("quit"))
}
