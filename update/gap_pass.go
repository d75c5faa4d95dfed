package update

import (
	"fmt"

	"github.com/jgraley/inferno-cpp2v-sub002/tree"
)

// GapFindingPass inserts an empty free patch wherever a tree zone patch does
// not start exactly at the terminus (or origin) above it. Committing that
// empty free zone later drops the content in the gap.
type GapFindingPass struct{}

// NewGapFindingPass returns a gap-finding pass.
func NewGapFindingPass() *GapFindingPass {
	return &GapFindingPass{}
}

// Run inserts gap patches and returns how many it inserted.
func (p *GapFindingPass) Run(root *Patch, origin tree.Location) int {
	n := 0
	if tp, ok := (*root).(*TreeZonePatch); ok && tp.zone.base != origin {
		*root = gap(tp)
		n++
	}
	_ = walkSlots(root, func(slot *Patch) error {
		tp, ok := (*slot).(*TreeZonePatch)
		if !ok {
			return nil
		}
		for i, c := range tp.children {
			if ctp, ok := c.(*TreeZonePatch); ok && ctp.zone.base != tp.zone.terminii[i] {
				tp.children[i] = gap(ctp)
				n++
			}
		}
		return nil
	})
	return n
}

func gap(child Patch) *FreePatch {
	return &FreePatch{zone: NewEmptyFreeZone(), children: []Patch{child}}
}

// EmptyZonePass elides empty tree zone patches by replacing each with its
// only child.
type EmptyZonePass struct{}

// NewEmptyZonePass returns an empty-zone pass.
func NewEmptyZonePass() *EmptyZonePass {
	return &EmptyZonePass{}
}

// Run elides empty tree zones and returns how many it removed.
func (p *EmptyZonePass) Run(root *Patch) int {
	n := 0
	_ = walkSlots(root, func(slot *Patch) error {
		for {
			tp, ok := (*slot).(*TreeZonePatch)
			if !ok || !tp.zone.IsEmpty() {
				return nil
			}
			*slot = withOriginators(tp.children[0], tp.originators)
			n++
		}
	})
	return n
}

// Check verifies that no empty tree zone patches remain.
func (p *EmptyZonePass) Check(root Patch) error {
	return Walk(root, func(pt Patch) error {
		if tp, ok := pt.(*TreeZonePatch); ok && tp.zone.IsEmpty() {
			return fmt.Errorf("%w: empty tree zone at %v", ErrInvariant, tp.zone.base)
		}
		return nil
	})
}

// withOriginators adds names to p's originators and returns p.
func withOriginators(p Patch, names []string) Patch {
	if len(names) == 0 {
		return p
	}
	switch p := p.(type) {
	case *TreeZonePatch:
		p.originators = unionOriginators(p.originators, names)
	case *FreePatch:
		p.originators = unionOriginators(p.originators, names)
	}
	return p
}
