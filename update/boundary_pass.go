package update

import (
	"fmt"

	"github.com/google/btree"
	"github.com/jgraley/inferno-cpp2v-sub002/tree"
)

// BoundaryPass splits tree zones so that no zone has another zone's base or
// terminus strictly inside its content. A split zone becomes a parent patch
// ending at the boundary and a child patch starting there.
type BoundaryPass struct {
	store *tree.Store
}

// NewBoundaryPass returns a boundary pass over s.
func NewBoundaryPass(s *tree.Store) *BoundaryPass {
	return &BoundaryPass{store: s}
}

// boundaries collects the bases and terminii of every tree zone in the plan
// in depth-first order.
func (p *BoundaryPass) boundaries(root Patch) *btree.BTreeG[tree.Location] {
	set := btree.NewG[tree.Location](16, p.store.DepthFirstLess)
	_ = Walk(root, func(pt Patch) error {
		if tp, ok := pt.(*TreeZonePatch); ok {
			set.ReplaceOrInsert(tp.zone.base)
			for _, t := range tp.zone.terminii {
				set.ReplaceOrInsert(t)
			}
		}
		return nil
	})
	return set
}

// interiorBoundary returns the first boundary strictly inside z's content.
func (p *BoundaryPass) interiorBoundary(set *btree.BTreeG[tree.Location], z *TreeZone) (tree.Location, bool) {
	var cut tree.Location
	found := false
	set.AscendGreaterOrEqual(z.base, func(loc tree.Location) bool {
		if loc == z.base {
			return true
		}
		if !p.store.IsAncestorOrEqual(z.base, loc) {
			return false
		}
		if z.interior(p.store, loc) {
			cut, found = loc, true
			return false
		}
		return true
	})
	return cut, found
}

// Run splits zones until no boundary lies inside any zone, and returns the
// number of splits.
func (p *BoundaryPass) Run(root *Patch) (int, error) {
	set := p.boundaries(*root)
	splits := 0
	for {
		split := false
		for _, slot := range treeSlots(root) {
			tp := (*slot).(*TreeZonePatch)
			cut, ok := p.interiorBoundary(set, tp.zone)
			if !ok {
				continue
			}
			*slot = p.split(tp, cut)
			splits++
			split = true
			break
		}
		if !split {
			return splits, nil
		}
	}
}

// split cuts tp at cut into an upper patch whose new terminus at cut holds
// a lower patch.
func (p *BoundaryPass) split(tp *TreeZonePatch, cut tree.Location) *TreeZonePatch {
	upperZone, lowerZone, first, count := tp.zone.splitAt(p.store, cut)
	lower := &TreeZonePatch{
		zone:        lowerZone,
		children:    append([]Patch(nil), tp.children[first:first+count]...),
		intent:      tp.intent,
		originators: tp.originators,
	}
	children := make([]Patch, 0, len(tp.children)-count+1)
	children = append(children, tp.children[:first]...)
	children = append(children, lower)
	children = append(children, tp.children[first+count:]...)
	return &TreeZonePatch{
		zone:        upperZone,
		children:    children,
		intent:      tp.intent,
		originators: tp.originators,
	}
}

// Check verifies that no boundary lies inside any zone.
func (p *BoundaryPass) Check(root Patch) error {
	set := p.boundaries(root)
	return Walk(root, func(pt Patch) error {
		tp, ok := pt.(*TreeZonePatch)
		if !ok {
			return nil
		}
		if cut, found := p.interiorBoundary(set, tp.zone); found {
			return fmt.Errorf("%w: boundary %s inside zone %s", ErrInvariant,
				p.store.PathOf(cut), tp.zone.Describe(p.store))
		}
		return nil
	})
}
