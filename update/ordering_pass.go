package update

import (
	"fmt"
	"sort"

	"github.com/google/btree"
	"github.com/jgraley/inferno-cpp2v-sub002/tree"
)

// OrderingPolicy decides which of two nested candidate zones stays in place
// when both want the same part of the tree.
type OrderingPolicy int

const (
	// OrderingKeepAncestor keeps the outer zone and moves the nested one.
	OrderingKeepAncestor OrderingPolicy = iota

	// OrderingKeepDescendant keeps the nested zone and moves the outer one.
	OrderingKeepDescendant
)

func (p OrderingPolicy) String() string {
	if p == OrderingKeepDescendant {
		return "keep-descendant"
	}
	return "keep-ancestor"
}

// ParseOrderingPolicy parses "keep-ancestor" or "keep-descendant".
func ParseOrderingPolicy(s string) (OrderingPolicy, error) {
	switch s {
	case "", "keep-ancestor":
		return OrderingKeepAncestor, nil
	case "keep-descendant":
		return OrderingKeepDescendant, nil
	default:
		return 0, fmt.Errorf("unknown ordering policy %q", s)
	}
}

// OrderingPass marks as Movable every tree zone patch that cannot stay where
// it is, because its base lies outside the subtree the plan puts it in, it is
// out of depth-first order with its siblings, or another patch already
// claimed its base.
type OrderingPass struct {
	store  *tree.Store
	policy OrderingPolicy

	claimed *btree.BTreeG[tree.Location]
	moved   int
}

// NewOrderingPass returns an ordering pass over s.
func NewOrderingPass(s *tree.Store, policy OrderingPolicy) *OrderingPass {
	return &OrderingPass{store: s, policy: policy}
}

// Run constrains the plan against the main tree below origin and returns
// the number of patches marked Movable.
func (p *OrderingPass) Run(root Patch, origin tree.Location) (int, error) {
	p.claimed = btree.NewG[tree.Location](16, p.store.DepthFirstLess)
	p.moved = 0
	if err := p.constrain(root, origin); err != nil {
		return p.moved, err
	}
	return p.moved, nil
}

// constrain settles the tree patches that are next below start, all of which
// the plan places inside bound.
func (p *OrderingPass) constrain(start Patch, bound tree.Location) error {
	work := nextDescendants(start, nil)
	for {
		keep := p.inOrder(work, bound)
		if len(keep) == len(work) {
			break
		}
		var next []*TreeZonePatch
		for _, tp := range work {
			if keep[tp] {
				next = append(next, tp)
				continue
			}
			tp.intent = IntentMovable
			p.moved++
			for _, c := range tp.children {
				next = nextDescendants(c, next)
			}
		}
		work = next
	}

	for _, tp := range work {
		p.claimed.ReplaceOrInsert(tp.zone.base)
	}
	for _, tp := range work {
		for i, c := range tp.children {
			if err := p.constrain(c, tp.zone.terminii[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// inOrder returns the members of work that may stay where they are.
func (p *OrderingPass) inOrder(work []*TreeZonePatch, bound tree.Location) map[*TreeZonePatch]bool {
	var cands []*TreeZonePatch
	for _, tp := range work {
		if p.claimed.Has(tp.zone.base) || !p.store.IsAncestorOrEqual(bound, tp.zone.base) {
			continue
		}
		cands = append(cands, tp)
	}
	cands = p.resolveNesting(cands)

	keep := make(map[*TreeZonePatch]bool, len(cands))
	for _, i := range longestIncreasing(len(cands), func(i, j int) bool {
		return p.store.DepthFirstLess(cands[i].zone.base, cands[j].zone.base)
	}) {
		keep[cands[i]] = true
	}
	return keep
}

// resolveNesting drops candidates whose bases are nested in (or equal to)
// another candidate's, according to the policy. Of equal bases the first
// one wins.
func (p *OrderingPass) resolveNesting(cands []*TreeZonePatch) []*TreeZonePatch {
	var out []*TreeZonePatch
	for i, a := range cands {
		drop := false
		for j, b := range cands {
			if i == j {
				continue
			}
			_, rel, _ := p.store.CompareHierarchical(a.zone.base, b.zone.base)
			switch rel {
			case tree.RelEqual:
				drop = j < i
			case tree.RelRightIsAncestor:
				drop = p.policy == OrderingKeepAncestor
			case tree.RelLeftIsAncestor:
				drop = p.policy == OrderingKeepDescendant
			}
			if drop {
				break
			}
		}
		if !drop {
			out = append(out, a)
		}
	}
	return out
}

// Check verifies that every tree patch left in place lies inside its bound,
// and that siblings are in strictly increasing depth-first order with none
// nested in another.
func (p *OrderingPass) Check(root Patch, origin tree.Location) error {
	seen := make(map[tree.Location]bool)
	return p.check(root, origin, seen)
}

func (p *OrderingPass) check(start Patch, bound tree.Location, seen map[tree.Location]bool) error {
	s := p.store
	work := nextDescendants(start, nil)
	for i, tp := range work {
		base := tp.zone.base
		if seen[base] {
			return fmt.Errorf("%w: base %s used twice", ErrInvariant, s.PathOf(base))
		}
		seen[base] = true
		if !s.IsAncestorOrEqual(bound, base) {
			return fmt.Errorf("%w: %s is outside %s", ErrInvariant, s.PathOf(base), s.PathOf(bound))
		}
		if i == 0 {
			continue
		}
		prev := work[i-1].zone.base
		ord, rel, err := s.CompareHierarchical(prev, base)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvariant, err)
		}
		if ord >= 0 || rel != tree.RelSiblings {
			return fmt.Errorf("%w: %s and %s out of order", ErrInvariant, s.PathOf(prev), s.PathOf(base))
		}
	}
	for _, tp := range work {
		for i, c := range tp.children {
			if err := p.check(c, tp.zone.terminii[i], seen); err != nil {
				return err
			}
		}
	}
	return nil
}

// nextDescendants appends to out the tree patches at or below p that stay in
// place and have no such patch between them and p. Free patches and patches
// already marked to move or copy are looked through.
func nextDescendants(p Patch, out []*TreeZonePatch) []*TreeZonePatch {
	if tp, ok := p.(*TreeZonePatch); ok && tp.intent == IntentDefault {
		return append(out, tp)
	}
	for _, c := range p.Children() {
		out = nextDescendants(c, out)
	}
	return out
}

// longestIncreasing returns, in ascending order, the indices of a longest
// strictly increasing subsequence of n items under less. It uses patience
// sorting.
func longestIncreasing(n int, less func(i, j int) bool) []int {
	if n == 0 {
		return nil
	}
	var tails []int
	prev := make([]int, n)
	for i := 0; i < n; i++ {
		k := sort.Search(len(tails), func(k int) bool { return !less(tails[k], i) })
		prev[i] = -1
		if k > 0 {
			prev[i] = tails[k-1]
		}
		if k == len(tails) {
			tails = append(tails, i)
		} else {
			tails[k] = i
		}
	}
	out := make([]int, len(tails))
	for k, i := len(tails)-1, tails[len(tails)-1]; k >= 0; k-- {
		out[k] = i
		i = prev[i]
	}
	return out
}
