package update

import (
	"github.com/jgraley/inferno-cpp2v-sub002/tree"
)

// ChooseCopiesPass decides which tree zone patches are satisfied by copying.
// When several patches refer to the same zone, one keeps its intent and the
// rest become Copyable; a Default patch is preferred as the keeper. Movable
// patches whose content lies outside the update's origin become Copyable,
// since content outside the origin must not change.
type ChooseCopiesPass struct {
	store *tree.Store
}

// NewChooseCopiesPass returns a copy-choosing pass over s.
func NewChooseCopiesPass(s *tree.Store) *ChooseCopiesPass {
	return &ChooseCopiesPass{store: s}
}

// Run retags patches and returns how many became Copyable.
func (p *ChooseCopiesPass) Run(root Patch, origin tree.Location) int {
	var groups [][]*TreeZonePatch
	index := make(map[string]int)
	_ = Walk(root, func(pt Patch) error {
		tp, ok := pt.(*TreeZonePatch)
		if !ok {
			return nil
		}
		key := tp.zone.Region().String()
		if g, ok := index[key]; ok {
			groups[g] = append(groups[g], tp)
			return nil
		}
		index[key] = len(groups)
		groups = append(groups, []*TreeZonePatch{tp})
		return nil
	})

	copies := 0
	for _, g := range groups {
		keeper := 0
		for i, tp := range g {
			if tp.intent == IntentDefault {
				keeper = i
				break
			}
		}
		for i, tp := range g {
			if i != keeper && tp.intent != IntentCopyable {
				tp.intent = IntentCopyable
				copies++
			}
		}
		tp := g[keeper]
		if tp.intent == IntentMovable && !p.store.IsAncestorOrEqual(origin, tp.zone.base) {
			tp.intent = IntentCopyable
			copies++
		}
	}
	return copies
}

// CopyingPass replaces every Copyable tree zone patch with a free patch
// holding a duplicate of the zone's content.
type CopyingPass struct {
	store *tree.Store
}

// NewCopyingPass returns a copying pass over s.
func NewCopyingPass(s *tree.Store) *CopyingPass {
	return &CopyingPass{store: s}
}

// Run duplicates Copyable zones and returns how many it duplicated.
func (p *CopyingPass) Run(root *Patch) (int, error) {
	n := 0
	err := walkSlots(root, func(slot *Patch) error {
		tp, ok := (*slot).(*TreeZonePatch)
		if !ok || tp.intent != IntentCopyable {
			return nil
		}
		if err := duplicateInto(p.store, slot, tp); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

// duplicateInto replaces the tree zone patch in slot with a free patch
// holding a copy of its content.
func duplicateInto(s *tree.Store, slot *Patch, tp *TreeZonePatch) error {
	fz, err := tp.zone.Duplicate(s)
	if err != nil {
		return err
	}
	*slot = &FreePatch{zone: fz, children: tp.children, originators: tp.originators}
	return nil
}
