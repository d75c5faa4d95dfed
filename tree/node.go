package tree

import (
	"encoding/binary"
	"sort"

	"github.com/zeebo/blake3"
)

// NodeID uniquely identifies a node within a Store. The zero NodeID is the
// hole: the content of a slot that holds nothing.
type NodeID uint64

// SlotID identifies one element of a container item. SlotIDs are unique
// within a Store so that several placeholders in one container remain
// individually addressable.
type SlotID uint64

// TreeID identifies a tree (main or auxiliary) within a Store.
type TreeID uint64

// ItemKind is the kind of a node's child item.
type ItemKind int

const (
	// ItemSingular holds exactly one child (possibly the hole).
	ItemSingular ItemKind = iota

	// ItemSequence holds an ordered list of children.
	ItemSequence

	// ItemCollection holds an unordered list of children. Elements keep their
	// insertion order for depth-first purposes but compare order-insensitively.
	ItemCollection
)

func (k ItemKind) String() string {
	switch k {
	case ItemSingular:
		return "singular"
	case ItemSequence:
		return "sequence"
	case ItemCollection:
		return "collection"
	default:
		return "unknown"
	}
}

// IsContainer reports whether the item holds a list of elements.
func (k ItemKind) IsContainer() bool {
	return k == ItemSequence || k == ItemCollection
}

// Reserved node kinds.
const (
	// KindScaffold marks a synthetic placeholder node. Its value names the
	// kind it stands in for and its single sequence item holds its slots.
	KindScaffold = "@scaffold"

	// KindSubSequence marks multi-element content destined for a sequence.
	KindSubSequence = "@subsequence"

	// KindSubCollection marks multi-element content destined for a collection.
	KindSubCollection = "@subcollection"

	// kindHolder is the hidden node that owns a tree's root slot.
	kindHolder = "@holder"
)

// element is one entry of a container item.
type element struct {
	slot  SlotID
	child NodeID
}

// item is one named child field of a node.
type item struct {
	name  string
	kind  ItemKind
	child NodeID    // singular items
	elems []element // container items
}

// Node is a content value held in the store's registry. Nodes are owned by
// the Store and referenced everywhere else by NodeID.
type Node struct {
	id    NodeID
	kind  string
	value string
	items []*item

	// parent is the slot currently holding this node; zero when detached.
	parent Location

	// holderOf is set on holder nodes only.
	holderOf TreeID
}

// ID returns the node's identifier.
func (n *Node) ID() NodeID {
	return n.id
}

// Kind returns the node's kind tag.
func (n *Node) Kind() string {
	return n.kind
}

// Value returns the node's payload (identifier name, literal text, or for a
// scaffold the kind it mimics).
func (n *Node) Value() string {
	return n.value
}

// NumItems returns the number of child items.
func (n *Node) NumItems() int {
	return len(n.items)
}

// ItemName returns the name of item i.
func (n *Node) ItemName(i int) string {
	return n.items[i].name
}

// ItemKind returns the kind of item i.
func (n *Node) ItemKind(i int) ItemKind {
	return n.items[i].kind
}

// IsScaffold reports whether the node is a scaffold placeholder.
func (n *Node) IsScaffold() bool {
	return n.kind == KindScaffold
}

// IsSubContainer reports whether the node is multi-element content.
func (n *Node) IsSubContainer() bool {
	return n.kind == KindSubSequence || n.kind == KindSubCollection
}

// slotIndex returns the position of slot within container item i, or -1.
func (n *Node) slotIndex(i int, slot SlotID) int {
	for j, e := range n.items[i].elems {
		if e.slot == slot {
			return j
		}
	}
	return -1
}

// ItemSpec describes one item when building a node.
type ItemSpec struct {
	Name     string
	Kind     ItemKind
	Children []NodeID
}

// Singular describes a singular item holding child (which may be the hole).
func Singular(name string, child NodeID) ItemSpec {
	return ItemSpec{Name: name, Kind: ItemSingular, Children: []NodeID{child}}
}

// Sequence describes an ordered container item.
func Sequence(name string, children ...NodeID) ItemSpec {
	return ItemSpec{Name: name, Kind: ItemSequence, Children: children}
}

// Collection describes an unordered container item.
func Collection(name string, children ...NodeID) ItemSpec {
	return ItemSpec{Name: name, Kind: ItemCollection, Children: children}
}

// Make registers a new detached node. Every non-hole child must be detached;
// it becomes owned by the new node.
func (s *Store) Make(kind, value string, items ...ItemSpec) (NodeID, error) {
	seen := make(map[NodeID]bool)
	for _, spec := range items {
		if spec.Kind == ItemSingular && len(spec.Children) != 1 {
			return 0, ErrItemKind
		}
		for _, c := range spec.Children {
			if c == 0 {
				continue
			}
			if seen[c] {
				return 0, ErrAttached
			}
			seen[c] = true
			cn, ok := s.nodes[c]
			if !ok {
				return 0, ErrNodeNotFound
			}
			if cn.parent != (Location{}) || cn.holderOf != 0 {
				return 0, ErrAttached
			}
		}
	}

	n := s.newNode(kind, value)
	for i, spec := range items {
		it := &item{name: spec.Name, kind: spec.Kind}
		n.items = append(n.items, it)
		if spec.Kind == ItemSingular {
			it.child = spec.Children[0]
			s.link(Location{Parent: n.id, Item: i}, it.child)
			continue
		}
		for _, c := range spec.Children {
			slot := s.nextSlot()
			it.elems = append(it.elems, element{slot: slot, child: c})
			s.link(Location{Parent: n.id, Item: i, Slot: slot}, c)
		}
	}
	return n.id, nil
}

// Leaf registers a new detached node with no items.
func (s *Store) Leaf(kind, value string) NodeID {
	return s.newNode(kind, value).id
}

// MakeScaffold registers a scaffold node mimicking kind with n placeholder
// slots, returning the node and the locations of its slots in order.
func (s *Store) MakeScaffold(mimic string, n int) (NodeID, []Location) {
	node := s.newNode(KindScaffold, mimic)
	it := &item{name: "slots", kind: ItemSequence}
	node.items = append(node.items, it)
	slots := make([]Location, n)
	for i := 0; i < n; i++ {
		slot := s.nextSlot()
		it.elems = append(it.elems, element{slot: slot})
		slots[i] = Location{Parent: node.id, Item: 0, Slot: slot}
	}
	return node.id, slots
}

// AppendElement adds a new element holding child (or a placeholder when child
// is the hole) to the end of container item i of node id.
func (s *Store) AppendElement(id NodeID, i int, child NodeID) (Location, error) {
	n, ok := s.nodes[id]
	if !ok {
		return Location{}, ErrNodeNotFound
	}
	if i < 0 || i >= len(n.items) || !n.items[i].kind.IsContainer() {
		return Location{}, ErrItemKind
	}
	if child != 0 {
		cn, ok := s.nodes[child]
		if !ok {
			return Location{}, ErrNodeNotFound
		}
		if cn.parent != (Location{}) {
			return Location{}, ErrAttached
		}
	}
	slot := s.nextSlot()
	n.items[i].elems = append(n.items[i].elems, element{slot: slot, child: child})
	loc := Location{Parent: id, Item: i, Slot: slot}
	s.link(loc, child)
	s.journal(journalEntry{loc: loc, appended: true})
	return loc, nil
}

// Equal reports whether the subtrees rooted at a and b are structurally
// equal: same kinds, values and item shapes, with collection elements
// compared without regard to order.
func (s *Store) Equal(a, b NodeID) bool {
	if a == 0 || b == 0 {
		return a == b
	}
	return s.Fingerprint(a) == s.Fingerprint(b)
}

// Fingerprint returns a blake3 hash of the subtree's structure and payload.
// Identical structure yields identical fingerprints regardless of NodeIDs.
func (s *Store) Fingerprint(id NodeID) [32]byte {
	var out [32]byte
	h := blake3.New()
	s.hashInto(h, id)
	copy(out[:], h.Sum(nil))
	return out
}

func (s *Store) hashInto(h *blake3.Hasher, id NodeID) {
	n, ok := s.nodes[id]
	if id == 0 || !ok {
		h.Write([]byte{0})
		return
	}
	h.Write([]byte{1})
	writeString(h, n.kind)
	writeString(h, n.value)
	writeUint(h, uint64(len(n.items)))
	for _, it := range n.items {
		writeString(h, it.name)
		writeUint(h, uint64(it.kind))
		switch it.kind {
		case ItemSingular:
			s.hashInto(h, it.child)
		case ItemSequence:
			writeUint(h, uint64(len(it.elems)))
			for _, e := range it.elems {
				s.hashInto(h, e.child)
			}
		case ItemCollection:
			// Order-insensitive: hash the sorted child fingerprints.
			sums := make([][32]byte, len(it.elems))
			for j, e := range it.elems {
				sums[j] = s.Fingerprint(e.child)
			}
			sort.Slice(sums, func(x, y int) bool {
				return string(sums[x][:]) < string(sums[y][:])
			})
			writeUint(h, uint64(len(sums)))
			for _, sum := range sums {
				h.Write(sum[:])
			}
		}
	}
}

func writeString(h *blake3.Hasher, v string) {
	writeUint(h, uint64(len(v)))
	h.Write([]byte(v))
}

func writeUint(h *blake3.Hasher, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	h.Write(buf[:])
}

// Size returns the number of nodes in the subtree rooted at id.
func (s *Store) Size(id NodeID) int {
	n, ok := s.nodes[id]
	if id == 0 || !ok {
		return 0
	}
	total := 1
	for _, it := range n.items {
		if it.kind == ItemSingular {
			total += s.Size(it.child)
			continue
		}
		for _, e := range it.elems {
			total += s.Size(e.child)
		}
	}
	return total
}
