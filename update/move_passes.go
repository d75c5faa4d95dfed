package update

import (
	"fmt"

	"github.com/jgraley/inferno-cpp2v-sub002/tree"
)

// moveRecord remembers where moved content is parked while the plan is
// committed.
type moveRecord struct {
	order   int
	aux     tree.TreeID
	inExtra *TreeZone
}

// MoveOutPass lifts every Movable tree zone out of the main tree into an
// auxiliary tree, leaving a scaffold in its place, and replaces its patch
// with a free patch holding a second scaffold that marks where the content
// must return.
type MoveOutPass struct {
	store *tree.Store
}

// NewMoveOutPass returns a move-out pass over s.
func NewMoveOutPass(s *tree.Store) *MoveOutPass {
	return &MoveOutPass{store: s}
}

// Run moves content out and returns the move map, keyed by the return
// scaffold.
func (p *MoveOutPass) Run(root *Patch) (map[tree.NodeID]moveRecord, error) {
	moves := make(map[tree.NodeID]moveRecord)
	err := walkSlots(root, func(slot *Patch) error {
		tp, ok := (*slot).(*TreeZonePatch)
		if !ok || tp.intent != IntentMovable {
			return nil
		}
		scaffold, rec, err := p.moveOut(*root, tp)
		if err != nil {
			return err
		}
		rec.order = len(moves)
		moves[scaffold] = rec

		n := tp.zone.NumTerminii()
		terms := make([]Terminus, n)
		for i, loc := range p.store.ChildLocations(scaffold) {
			terms[i] = Terminus{loc: loc, kind: TerminusContainer}
		}
		*slot = &FreePatch{
			zone:        &FreeZone{base: scaffold, terminii: terms},
			children:    tp.children,
			originators: tp.originators,
		}
		return nil
	})
	return moves, err
}

// moveOut swaps tp's content with a plugged scaffold parked in a new
// auxiliary tree. It returns a fresh return scaffold and the move record.
func (p *MoveOutPass) moveOut(root Patch, tp *TreeZonePatch) (tree.NodeID, moveRecord, error) {
	s := p.store
	mimic := mimicKind(s, tp.zone.base)
	n := tp.zone.NumTerminii()

	stand, slots := s.MakeScaffold(mimic, n)
	for i, slot := range slots {
		plug, _ := s.MakeScaffold(mimicKind(s, tp.zone.terminii[i]), 0)
		if err := s.Insert(slot, plug); err != nil {
			return 0, moveRecord{}, err
		}
	}
	aux, err := s.BuildTree(stand)
	if err != nil {
		return 0, moveRecord{}, err
	}
	auxRoot, err := s.Root(aux)
	if err != nil {
		return 0, moveRecord{}, err
	}
	inExtra := &TreeZone{base: auxRoot, terminii: slots}

	fixups := fixupsFor(root, tp)
	_, parked, err := s.Swap(tp.zone.Region(), fixups, inExtra.Region(), nil)
	if err != nil {
		return 0, moveRecord{}, err
	}
	inExtra.terminii = parked.Terminii

	ret, _ := s.MakeScaffold(mimic, n)
	return ret, moveRecord{aux: aux, inExtra: inExtra}, nil
}

// fixupsFor returns pointers to the bases of every tree zone in the plan
// that starts at one of tp's terminii.
func fixupsFor(root Patch, tp *TreeZonePatch) []*tree.Location {
	var out []*tree.Location
	_ = Walk(root, func(pt Patch) error {
		other, ok := pt.(*TreeZonePatch)
		if !ok || other == tp {
			return nil
		}
		for _, t := range tp.zone.terminii {
			if other.zone.base == t {
				out = append(out, &other.zone.base)
				break
			}
		}
		return nil
	})
	return out
}

// mimicKind is the kind a scaffold at loc stands in for.
func mimicKind(s *tree.Store, loc tree.Location) string {
	id, err := s.Child(loc)
	if err != nil || id == 0 {
		return ""
	}
	n, err := s.Node(id)
	if err != nil {
		return ""
	}
	if n.IsScaffold() {
		return n.Value()
	}
	return n.Kind()
}

// MoveInPass returns parked content to the places marked by return
// scaffolds, then tears down the auxiliary trees.
type MoveInPass struct {
	store *tree.Store
}

// NewMoveInPass returns a move-in pass over s.
func NewMoveInPass(s *tree.Store) *MoveInPass {
	return &MoveInPass{store: s}
}

// Run moves every parked zone back into the main tree.
func (p *MoveInPass) Run(moves map[tree.NodeID]moveRecord) error {
	s := p.store
	ordered := make([]tree.NodeID, len(moves))
	for scaffold, rec := range moves {
		ordered[rec.order] = scaffold
	}
	for _, scaffold := range ordered {
		rec := moves[scaffold]
		loc, ok := s.ParentOf(scaffold)
		if !ok {
			return fmt.Errorf("%w: return scaffold %d is detached", ErrNotFound, scaffold)
		}
		if id, inTree := s.TreeOf(loc); !inTree || id != s.Main() {
			return fmt.Errorf("%w: return scaffold %d is not in the main tree", ErrNotFound, scaffold)
		}
		target, err := NewTreeZone(s, loc, s.ChildLocations(scaffold)...)
		if err != nil {
			return err
		}
		if _, _, err := s.Swap(target.Region(), nil, rec.inExtra.Region(), nil); err != nil {
			return err
		}
		if err := s.Teardown(rec.aux); err != nil {
			return err
		}
	}
	return nil
}
