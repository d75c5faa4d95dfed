package update

import (
	"fmt"

	"github.com/jgraley/inferno-cpp2v-sub002/tree"
)

// MergeFreesPass merges every free patch that is the child of another free
// patch into its parent: the child's content is joined at the parent's
// terminus, the child's terminii take that terminus's place, and the child's
// children take the child's place.
type MergeFreesPass struct {
	store *tree.Store
}

// NewMergeFreesPass returns a merge pass over s.
func NewMergeFreesPass(s *tree.Store) *MergeFreesPass {
	return &MergeFreesPass{store: s}
}

// Run merges free patches and returns how many merges it made.
func (p *MergeFreesPass) Run(root *Patch) (int, error) {
	n := 0
	err := walkSlots(root, func(slot *Patch) error {
		fp, ok := (*slot).(*FreePatch)
		if !ok {
			return nil
		}
		for i := 0; i < len(fp.children); {
			child, ok := fp.children[i].(*FreePatch)
			if !ok {
				i++
				continue
			}
			if err := p.merge(fp, i, child); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

// merge joins child, the free patch at position i of fp, into fp.
func (p *MergeFreesPass) merge(fp *FreePatch, i int, child *FreePatch) error {
	t := fp.zone.terminii[i]
	var terms []Terminus

	switch {
	case child.zone.IsEmpty():
		terms = []Terminus{t}
	case t.kind == TerminusBase:
		// fp is empty: the child's content becomes fp's content.
		fp.zone.base = child.zone.base
		terms = child.zone.terminii
	case child.zone.IsVoid() && t.kind == TerminusContainer:
		return fmt.Errorf("%w: void zone joined at a container terminus", ErrUnsupported)
	default:
		if err := child.zone.unwrap(p.store); err != nil {
			return err
		}
		if _, err := t.Exchange(p.store, child.zone.base); err != nil {
			return err
		}
		terms = child.zone.terminii
	}
	child.zone.base = 0

	newTerms := make([]Terminus, 0, len(fp.zone.terminii)-1+len(terms))
	newTerms = append(newTerms, fp.zone.terminii[:i]...)
	newTerms = append(newTerms, terms...)
	newTerms = append(newTerms, fp.zone.terminii[i+1:]...)
	fp.zone.terminii = newTerms

	children := make([]Patch, 0, len(fp.children)-1+len(child.children))
	children = append(children, fp.children[:i]...)
	children = append(children, child.children...)
	children = append(children, fp.children[i+1:]...)
	fp.children = children

	fp.originators = unionOriginators(fp.originators, child.originators)
	return nil
}

// Check verifies that no free patch has a free patch child.
func (p *MergeFreesPass) Check(root Patch) error {
	return Walk(root, func(pt Patch) error {
		fp, ok := pt.(*FreePatch)
		if !ok {
			return nil
		}
		if err := checkArity(fp.zone, fp.children); err != nil {
			return fmt.Errorf("%w: %v", ErrInvariant, err)
		}
		for i, c := range fp.children {
			if _, ok := c.(*FreePatch); ok {
				return fmt.Errorf("%w: free patch %s has a free child at %d", ErrInvariant, fp.zone.Describe(p.store), i)
			}
		}
		return nil
	})
}

// unwrap replaces sub-container content holding a single element with that
// element. Sub-containers of any other size are refused.
func (z *FreeZone) unwrap(s *tree.Store) error {
	if z.base == 0 {
		return nil
	}
	n, err := s.Node(z.base)
	if err != nil {
		return err
	}
	if !n.IsSubContainer() {
		return nil
	}
	elems := s.ChildLocations(z.base)
	if len(elems) != 1 {
		return fmt.Errorf("%w: %d-element %s content", ErrUnsupported, len(elems), n.Kind())
	}
	elem, err := s.Exchange(elems[0], 0)
	if err != nil {
		return err
	}
	if elem == 0 {
		return fmt.Errorf("%w: sub-container holding only a terminus", ErrUnsupported)
	}
	s.Release(z.base)
	z.base = elem
	return nil
}
