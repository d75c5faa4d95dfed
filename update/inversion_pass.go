package update

import (
	"fmt"

	"github.com/jgraley/inferno-cpp2v-sub002/tree"
)

// InversionPass commits every free patch into the main tree. Walking the
// plan in lock-step with the tree, each free zone is planted in an
// auxiliary tree and swapped with the target zone that runs from the
// free patch's location down to its children's bases. The auxiliary tree,
// now holding the replaced content, is then torn down.
type InversionPass struct {
	store   *tree.Store
	commits int
}

// NewInversionPass returns an inversion pass over s.
func NewInversionPass(s *tree.Store) *InversionPass {
	return &InversionPass{store: s}
}

// Run commits the plan rooted at root at origin and returns the number of
// free zones committed.
func (p *InversionPass) Run(root Patch, origin tree.Location) (int, error) {
	p.commits = 0
	err := p.invert(root, origin, false)
	return p.commits, err
}

func (p *InversionPass) invert(pt Patch, loc tree.Location, underFree bool) error {
	switch pt := pt.(type) {
	case *TreeZonePatch:
		if !underFree && pt.zone.base != loc {
			return fmt.Errorf("%w: tree zone at %s expected at %s", ErrInvariant,
				p.store.PathOf(pt.zone.base), p.store.PathOf(loc))
		}
		for i, c := range pt.children {
			if err := p.invert(c, pt.zone.terminii[i], false); err != nil {
				return err
			}
		}
		return nil

	case *FreePatch:
		for i, c := range pt.children {
			if _, ok := c.(*FreePatch); ok {
				return fmt.Errorf("%w: unmerged free child %d", ErrInvariant, i)
			}
			if err := p.invert(c, pt.zone.terminii[i].loc, true); err != nil {
				return err
			}
		}
		return p.commit(pt, loc)
	}
	return nil
}

// commit replaces the content between target and fp's children's bases with
// fp's content. The children's bases are rewritten to where their subtrees
// land inside that content.
func (p *InversionPass) commit(fp *FreePatch, target tree.Location) error {
	s := p.store
	if fp.zone.IsVoid() && s.IsContainerSlot(target) {
		return fmt.Errorf("%w: void zone at container element %v", ErrUnsupported, target)
	}
	bases := make([]tree.Location, len(fp.children))
	fixups := make([]*tree.Location, len(fp.children))
	for i, c := range fp.children {
		tp := c.(*TreeZonePatch)
		bases[i] = tp.zone.base
		fixups[i] = &tp.zone.base
	}
	targetZone, err := NewTreeZone(s, target, bases...)
	if err != nil {
		return fmt.Errorf("%w: target of free zone: %v", ErrInvariant, err)
	}
	if err := fp.zone.unwrap(s); err != nil {
		return err
	}

	aux, planted, err := fp.zone.plant(s)
	if err != nil {
		return err
	}
	if _, _, err := s.Swap(targetZone.Region(), fixups, planted.Region(), nil); err != nil {
		return err
	}
	if err := s.Teardown(aux); err != nil {
		return err
	}
	p.commits++
	return nil
}
