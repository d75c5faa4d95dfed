package update

import (
	"fmt"

	"github.com/jgraley/inferno-cpp2v-sub002/tree"
)

// ZoneRelation is how the content of two tree zones relates.
type ZoneRelation int

const (
	// RelationDistinctSiblings means neither base is an ancestor of the other.
	RelationDistinctSiblings ZoneRelation = iota

	// RelationDistinctSubtree means one zone lies wholly below a terminus of the other.
	RelationDistinctSubtree

	// RelationOverlapGeneral means one zone's base is inside the other's content.
	RelationOverlapGeneral

	// RelationOverlapTerminii means the zones share a base but differ in terminii.
	RelationOverlapTerminii

	// RelationEqual means the zones cover the same region.
	RelationEqual
)

func (r ZoneRelation) String() string {
	switch r {
	case RelationDistinctSiblings:
		return "distinct-siblings"
	case RelationDistinctSubtree:
		return "distinct-subtree"
	case RelationOverlapGeneral:
		return "overlap-general"
	case RelationOverlapTerminii:
		return "overlap-terminii"
	case RelationEqual:
		return "equal"
	default:
		return "unknown"
	}
}

// Overlaps reports whether the two zones share content.
func (r ZoneRelation) Overlaps() bool {
	return r >= RelationOverlapGeneral
}

// CompareZones reports how a and b relate.
func CompareZones(s *tree.Store, a, b *TreeZone) (ZoneRelation, error) {
	_, rel, err := s.CompareHierarchical(a.base, b.base)
	if err != nil {
		return RelationDistinctSiblings, err
	}
	switch rel {
	case tree.RelEqual:
		if a.Equal(b) {
			return RelationEqual, nil
		}
		return RelationOverlapTerminii, nil
	case tree.RelLeftIsAncestor:
		if a.shields(s, b.base) || a.IsEmpty() {
			return RelationDistinctSubtree, nil
		}
		return RelationOverlapGeneral, nil
	case tree.RelRightIsAncestor:
		if b.shields(s, a.base) || b.IsEmpty() {
			return RelationDistinctSubtree, nil
		}
		return RelationOverlapGeneral, nil
	default:
		return RelationDistinctSiblings, nil
	}
}

// OverlapPass duplicates tree zones until no two tree zone patches share
// content. Of two overlapping zones, the deeper one is duplicated when one
// base is inside the other's content; otherwise the later one in plan order.
type OverlapPass struct {
	store *tree.Store
}

// NewOverlapPass returns an overlap pass over s.
func NewOverlapPass(s *tree.Store) *OverlapPass {
	return &OverlapPass{store: s}
}

// Run resolves overlaps and returns the number of zones duplicated.
func (p *OverlapPass) Run(root *Patch) (int, error) {
	total := 0
	for {
		n, err := p.resolve(root)
		total += n
		if err != nil || n == 0 {
			return total, err
		}
	}
}

func (p *OverlapPass) resolve(root *Patch) (int, error) {
	slots := treeSlots(root)
	gone := make([]bool, len(slots))
	n := 0
	for i := range slots {
		for j := i + 1; j < len(slots) && !gone[i]; j++ {
			if gone[j] {
				continue
			}
			a := (*slots[i]).(*TreeZonePatch)
			b := (*slots[j]).(*TreeZonePatch)
			rel, err := CompareZones(p.store, a.zone, b.zone)
			if err != nil {
				return n, err
			}
			if !rel.Overlaps() {
				continue
			}
			victim := j
			if rel == RelationOverlapGeneral && p.store.IsAncestorOrEqual(b.zone.base, a.zone.base) {
				victim = i
			}
			vp := (*slots[victim]).(*TreeZonePatch)
			if err := duplicateInto(p.store, slots[victim], vp); err != nil {
				return n, err
			}
			gone[victim] = true
			n++
		}
	}
	return n, nil
}

// Check verifies that no two tree zone patches share content.
func (p *OverlapPass) Check(root Patch) error {
	var zones []*TreeZonePatch
	_ = Walk(root, func(pt Patch) error {
		if tp, ok := pt.(*TreeZonePatch); ok {
			zones = append(zones, tp)
		}
		return nil
	})
	for i := range zones {
		for j := i + 1; j < len(zones); j++ {
			rel, err := CompareZones(p.store, zones[i].zone, zones[j].zone)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvariant, err)
			}
			if rel.Overlaps() {
				return fmt.Errorf("%w: zones %s and %s are %s", ErrInvariant,
					zones[i].zone.Describe(p.store), zones[j].zone.Describe(p.store), rel)
			}
		}
	}
	return nil
}
