package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapExchangesRegionsAndKeepsTerminusSubtrees(t *testing.T) {
	s := sampleTree(t)
	base := resolve(t, s, "/body[0]")
	term := resolve(t, s, "/body[0]/expr")
	identX := mustChild(t, s, term)

	paren, err := s.Make("Paren", "", Singular("inner", s.Leaf("Lit", "1")))
	require.NoError(t, err)
	aux, err := s.BuildTree(paren)
	require.NoError(t, err)
	auxRoot, err := s.Root(aux)
	require.NoError(t, err)
	inner := Location{Parent: paren}
	lit := mustChild(t, s, inner)

	fixA := term
	fixB := inner
	newA, newB, err := s.Swap(
		Region{Base: base, Terminii: []Location{term}}, []*Location{&fixA},
		Region{Base: auxRoot, Terminii: []Location{inner}}, []*Location{&fixB},
	)
	require.NoError(t, err)

	assert.Equal(t,
		"Root(head=Ident:a body=[Paren(inner=Ident:x) Stmt:s1(expr=Call:f(args=[Ident:y Ident:z])) Stmt:s2] tags={Tag:t1 Tag:t2})",
		s.Format(mainRoot(t, s)))
	assert.Equal(t, "Stmt:s0(expr=Lit:1)", s.Format(mustChild(t, s, auxRoot)))

	// Fixups follow the subtrees they referred to.
	assert.Equal(t, inner, fixA)
	assert.Equal(t, identX, mustChild(t, s, fixA))
	assert.Equal(t, term, fixB)
	assert.Equal(t, lit, mustChild(t, s, fixB))

	assert.Equal(t, Region{Base: base, Terminii: []Location{inner}}, newA)
	assert.Equal(t, Region{Base: auxRoot, Terminii: []Location{term}}, newB)

	// Node identity is preserved on both sides.
	loc, ok := s.ParentOf(paren)
	require.True(t, ok)
	assert.Equal(t, base, loc)
}

func TestSwapWithEmptyRegion(t *testing.T) {
	s := sampleTree(t)
	head := resolve(t, s, "/head")
	identA := mustChild(t, s, head)

	neg, err := s.Make("Neg", "", Singular("op", 0))
	require.NoError(t, err)
	aux, err := s.BuildTree(neg)
	require.NoError(t, err)
	auxRoot, err := s.Root(aux)
	require.NoError(t, err)
	op := Location{Parent: neg}

	fix := head
	_, _, err = s.Swap(
		Region{Base: head, Terminii: []Location{head}}, []*Location{&fix},
		Region{Base: auxRoot, Terminii: []Location{op}}, nil,
	)
	require.NoError(t, err)

	assert.Equal(t, "Neg(op=Ident:a)", s.Format(mustChild(t, s, head)))
	assert.Equal(t, NodeID(0), mustChild(t, s, auxRoot))
	assert.Equal(t, op, fix)
	assert.Equal(t, identA, mustChild(t, s, fix))

	require.NoError(t, s.Teardown(aux))
	assert.True(t, s.Has(identA))
}

func TestSwapCompleteSubtrees(t *testing.T) {
	s := sampleTree(t)
	first := resolve(t, s, "/body[0]")
	last := resolve(t, s, "/body[2]")

	_, _, err := s.Swap(Region{Base: first}, nil, Region{Base: last}, nil)
	require.NoError(t, err)
	assert.Equal(t,
		"Root(head=Ident:a body=[Stmt:s2 Stmt:s1(expr=Call:f(args=[Ident:y Ident:z])) Stmt:s0(expr=Ident:x)] tags={Tag:t1 Tag:t2})",
		s.Format(mainRoot(t, s)))
}

func TestSwapErrors(t *testing.T) {
	s := sampleTree(t)
	a := resolve(t, s, "/body[0]")
	b := resolve(t, s, "/body[2]")
	term := resolve(t, s, "/body[0]/expr")

	tests := []struct {
		name string
		ra   Region
		fixA []*Location
		rb   Region
		want error
	}{
		{
			name: "terminus count differs",
			ra:   Region{Base: a, Terminii: []Location{term}},
			rb:   Region{Base: b},
			want: ErrRegionMismatch,
		},
		{
			name: "same base",
			ra:   Region{Base: a},
			rb:   Region{Base: a},
			want: ErrRegionMismatch,
		},
		{
			name: "invalid location",
			ra:   Region{Base: Location{Parent: 12345}},
			rb:   Region{Base: b},
			want: ErrInvalidLocation,
		},
		{
			name: "fixup not a terminus",
			ra:   Region{Base: a},
			fixA: []*Location{&b},
			rb:   Region{Base: resolve(t, s, "/head")},
			want: ErrFixupNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := s.Format(mainRoot(t, s))
			_, _, err := s.Swap(tt.ra, tt.fixA, tt.rb, nil)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, s.Format(mainRoot(t, s)), "failed swap must not mutate")
		})
	}
}
