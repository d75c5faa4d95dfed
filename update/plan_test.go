package update

import (
	"strings"
	"testing"

	"github.com/jgraley/inferno-cpp2v-sub002/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// movePlan uses block sequences, where bracketed paths need no quoting.
const movePlan = `
origin: /
patch:
  tree:
    base: /
    terminii:
      - /head
      - /body[1]
  originators: [hoist]
  children:
    - tree:
        base: /body[1]
        terminii:
          - /body[1]/expr
      intent: movable
      children:
        - free: {kind: Lit, value: '9'}
    - tree:
        base: /body[1]/expr
`

// quotedPlan is the same plan in flow style, with every path quoted.
const quotedPlan = `
origin: "/"
patch:
  tree: {base: "/", terminii: ["/head", "/body[1]"]}
  originators: [hoist]
  children:
    - tree: {base: "/body[1]", terminii: ["/body[1]/expr"]}
      intent: movable
      children:
        - free: {kind: Lit, value: '9'}
    - tree: {base: "/body[1]/expr"}
`

func TestLoadPlanYAML(t *testing.T) {
	for name, doc := range map[string]string{"block": movePlan, "quoted flow": quotedPlan} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			plan, origin, err := LoadPlanYAML(f.s, f.s.Main(), strings.NewReader(doc))
			require.NoError(t, err)
			assert.Equal(t, f.loc("/"), origin)

			trees, frees := Count(plan)
			assert.Equal(t, 3, trees)
			assert.Equal(t, 1, frees)
			assert.Equal(t, []string{"hoist"}, plan.Originators())
			assert.Equal(t, IntentMovable, plan.Children()[0].(*TreeZonePatch).Intent())

			f.apply(plan, "/")
			assert.Equal(t,
				"Root(head=Stmt:s1(expr=Lit:9) body=[Stmt:s0(expr=Ident:x) Call:f(args=[Ident:y Ident:z]) Stmt:s2] tags={Tag:t1 Tag:t2})",
				f.main())
		})
	}
}

func TestLoadPlanYAMLUnquotedFlowPath(t *testing.T) {
	f := newFixture(t)
	_, _, err := LoadPlanYAML(f.s, f.s.Main(), strings.NewReader("origin: /\npatch: {tree: {base: /, terminii: [/body[1]]}}"))
	assert.ErrorIs(t, err, tree.ErrDecode, "brackets are flow syntax unless the path is quoted")
}

func TestLoadPlanYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"bad yaml", "origin: [", tree.ErrDecode},
		{"no patch", "origin: /", tree.ErrDecode},
		{"bad origin", "origin: /nope\npatch: {tree: {base: /}}", tree.ErrInvalidLocation},
		{"both kinds", "origin: /\npatch: {tree: {base: /}, free: {kind: Lit}}", tree.ErrDecode},
		{"neither kind", "origin: /\npatch: {originators: [r]}", tree.ErrDecode},
		{"bad intent", "origin: /\npatch: {tree: {base: /head}, intent: sticky}", tree.ErrDecode},
		{"free intent", "origin: /\npatch: {free: {kind: Lit}, intent: movable}", tree.ErrDecode},
		{"arity", "origin: /\npatch: {free: {kind: Wrap, items: [{name: x, node: {kind: $}}]}}", ErrArity},
		{"bad terminus", "origin: /\npatch: {tree: {base: /head, terminii: [\"/body[0]\"]}}", ErrInvalidZone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			before := f.s.Stats()
			_, _, err := LoadPlanYAML(f.s, f.s.Main(), strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, f.s.Stats(), "free content is released")
		})
	}
}
