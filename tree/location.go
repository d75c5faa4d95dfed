package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// Location addresses one slot: item Item of node Parent, and for container
// items the element Slot. A Location stays valid for as long as its parent
// node exists and, for container elements, the element has not been removed.
// Because it is relative to its parent node, a Location is unaffected when
// the content around it is moved elsewhere.
type Location struct {
	Parent NodeID
	Item   int
	Slot   SlotID
}

// IsZero reports whether l is the zero Location, which addresses nothing.
func (l Location) IsZero() bool {
	return l == Location{}
}

func (l Location) String() string {
	if l.Slot == 0 {
		return fmt.Sprintf("%d.%d", l.Parent, l.Item)
	}
	return fmt.Sprintf("%d.%d#%d", l.Parent, l.Item, l.Slot)
}

// Relation is the hierarchical relationship between two locations.
type Relation int

const (
	// RelEqual means both locations are the same slot.
	RelEqual Relation = iota

	// RelLeftIsAncestor means the first location is a strict ancestor of the second.
	RelLeftIsAncestor

	// RelRightIsAncestor means the second location is a strict ancestor of the first.
	RelRightIsAncestor

	// RelSiblings means neither is an ancestor of the other.
	RelSiblings
)

func (r Relation) String() string {
	switch r {
	case RelEqual:
		return "equal"
	case RelLeftIsAncestor:
		return "left-is-ancestor"
	case RelRightIsAncestor:
		return "right-is-ancestor"
	case RelSiblings:
		return "siblings"
	default:
		return "unknown"
	}
}

// step is one edge on the path from a tree's top down to a location.
type step struct {
	item  int
	index int
}

// path returns the top node above loc (a holder, or the root of detached
// content) and the steps from it down to loc.
func (s *Store) path(loc Location) (NodeID, []step, error) {
	var steps []step
	cur := loc
	for {
		n, ok := s.nodes[cur.Parent]
		if !ok || cur.Item < 0 || cur.Item >= len(n.items) {
			return 0, nil, fmt.Errorf("%w: %v", ErrInvalidLocation, loc)
		}
		idx := 0
		if n.items[cur.Item].kind.IsContainer() {
			idx = n.slotIndex(cur.Item, cur.Slot)
			if idx < 0 {
				return 0, nil, fmt.Errorf("%w: %v", ErrInvalidLocation, loc)
			}
		}
		steps = append(steps, step{item: cur.Item, index: idx})
		if n.holderOf != 0 || n.parent.IsZero() {
			for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
				steps[i], steps[j] = steps[j], steps[i]
			}
			return n.id, steps, nil
		}
		cur = n.parent
	}
}

// TopOf returns the node at the top of loc's path: a tree's holder, or the
// root of the detached content containing loc.
func (s *Store) TopOf(loc Location) (NodeID, error) {
	top, _, err := s.path(loc)
	return top, err
}

// CompareHierarchical returns the depth-first order of a and b (-1, 0, +1)
// and their hierarchical relation. Locations under different tops are
// ordered by top and reported as siblings.
func (s *Store) CompareHierarchical(a, b Location) (int, Relation, error) {
	if a == b {
		if !s.HasLocation(a) {
			return 0, RelEqual, fmt.Errorf("%w: %v", ErrInvalidLocation, a)
		}
		return 0, RelEqual, nil
	}
	topA, pa, err := s.path(a)
	if err != nil {
		return 0, RelSiblings, err
	}
	topB, pb, err := s.path(b)
	if err != nil {
		return 0, RelSiblings, err
	}
	if topA != topB {
		if topA < topB {
			return -1, RelSiblings, nil
		}
		return 1, RelSiblings, nil
	}
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] == pb[i] {
			continue
		}
		if pa[i].item < pb[i].item || (pa[i].item == pb[i].item && pa[i].index < pb[i].index) {
			return -1, RelSiblings, nil
		}
		return 1, RelSiblings, nil
	}
	switch {
	case len(pa) < len(pb):
		return -1, RelLeftIsAncestor, nil
	case len(pa) > len(pb):
		return 1, RelRightIsAncestor, nil
	default:
		return 0, RelEqual, nil
	}
}

// DepthFirstLess reports whether a precedes b in depth-first pre-order.
// Invalid locations sort last.
func (s *Store) DepthFirstLess(a, b Location) bool {
	ord, _, err := s.CompareHierarchical(a, b)
	if err != nil {
		return s.HasLocation(a) && !s.HasLocation(b)
	}
	return ord < 0
}

// IsAncestorOrEqual reports whether anc is loc or a strict ancestor of loc.
func (s *Store) IsAncestorOrEqual(anc, loc Location) bool {
	_, rel, err := s.CompareHierarchical(anc, loc)
	return err == nil && (rel == RelEqual || rel == RelLeftIsAncestor)
}

// LastDescendant returns the last location in depth-first order within the
// subtree at loc (loc itself when its content has no slots).
func (s *Store) LastDescendant(loc Location) (Location, error) {
	cur := loc
	for {
		child, err := s.Child(cur)
		if err != nil {
			return Location{}, err
		}
		locs := s.ChildLocations(child)
		if len(locs) == 0 {
			return cur, nil
		}
		cur = locs[len(locs)-1]
	}
}

// PathOf renders loc as a slash-separated path of item names from its tree's
// root, with container positions in brackets, e.g. "/body[2]/cond". Paths in
// auxiliary trees are prefixed with "#<tree>", paths in detached content with
// "~<node>".
func (s *Store) PathOf(loc Location) string {
	top, steps, err := s.path(loc)
	if err != nil {
		return "?" + loc.String()
	}
	var b strings.Builder
	tn := s.nodes[top]
	switch {
	case tn.holderOf != 0 && tn.holderOf != s.main:
		fmt.Fprintf(&b, "#%d", tn.holderOf)
	case tn.holderOf == 0:
		fmt.Fprintf(&b, "~%d", top)
	}

	cur := top
	for i, st := range steps {
		n := s.nodes[cur]
		it := n.items[st.item]
		if n.holderOf == 0 {
			b.WriteString("/")
			b.WriteString(it.name)
			if it.kind.IsContainer() {
				fmt.Fprintf(&b, "[%d]", st.index)
			}
		}
		if i == len(steps)-1 {
			break
		}
		if it.kind == ItemSingular {
			cur = it.child
		} else {
			cur = it.elems[st.index].child
		}
	}
	if b.Len() == 0 || strings.HasPrefix(b.String(), "#") && !strings.Contains(b.String(), "/") {
		b.WriteString("/")
	}
	return b.String()
}

// Resolve parses a path of the form produced by PathOf (without a tree
// prefix) relative to the root of tree id.
func (s *Store) Resolve(id TreeID, path string) (Location, error) {
	loc, err := s.Root(id)
	if err != nil {
		return Location{}, err
	}
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		return Location{}, fmt.Errorf("%w: %q must start with /", ErrPathSyntax, path)
	}
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg == "" {
			continue
		}
		name, index := seg, -1
		if open := strings.IndexByte(seg, '['); open >= 0 {
			if !strings.HasSuffix(seg, "]") {
				return Location{}, fmt.Errorf("%w: %q", ErrPathSyntax, seg)
			}
			n, err := strconv.Atoi(seg[open+1 : len(seg)-1])
			if err != nil || n < 0 {
				return Location{}, fmt.Errorf("%w: %q", ErrPathSyntax, seg)
			}
			name, index = seg[:open], n
		}

		child, err := s.Child(loc)
		if err != nil {
			return Location{}, err
		}
		n, ok := s.nodes[child]
		if !ok {
			return Location{}, fmt.Errorf("%w: %q descends into a hole", ErrInvalidLocation, path)
		}
		next, err := n.lookup(name, index)
		if err != nil {
			return Location{}, fmt.Errorf("%w: %q", err, path)
		}
		loc = next
	}
	return loc, nil
}

// lookup finds the slot named by an item name and optional element index.
func (n *Node) lookup(name string, index int) (Location, error) {
	for i, it := range n.items {
		if it.name != name {
			continue
		}
		if it.kind == ItemSingular {
			if index >= 0 {
				return Location{}, ErrItemKind
			}
			return Location{Parent: n.id, Item: i}, nil
		}
		if index < 0 || index >= len(it.elems) {
			return Location{}, ErrInvalidLocation
		}
		return Location{Parent: n.id, Item: i, Slot: it.elems[index].slot}, nil
	}
	return Location{}, fmt.Errorf("%w: no item %q on %s", ErrInvalidLocation, name, n.kind)
}
