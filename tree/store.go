package tree

import (
	"fmt"

	"github.com/rs/zerolog"
)

// TreeKind distinguishes the main tree from auxiliary trees.
type TreeKind int

const (
	// TreeMain is the single long-lived tree being transformed.
	TreeMain TreeKind = iota

	// TreeAuxiliary is a short-lived tree used to park content in transit.
	TreeAuxiliary
)

func (k TreeKind) String() string {
	if k == TreeMain {
		return "main"
	}
	return "auxiliary"
}

// Options configures a Store.
type Options struct {
	// Logger receives trace events for auxiliary tree lifecycle. Defaults to
	// a disabled logger.
	Logger *zerolog.Logger
}

// treeInfo records one tree's holder node.
type treeInfo struct {
	id     TreeID
	kind   TreeKind
	holder NodeID
}

// Stats summarizes the contents of a Store.
type Stats struct {
	Nodes          int // registered nodes, excluding holders
	Trees          int // live trees, main included
	AuxiliaryTrees int
}

// Store is an arena of nodes plus the trees built from them.
// A Store is not safe for concurrent use.
type Store struct {
	nodes      map[NodeID]*Node
	nextNodeID NodeID
	nextSlotID SlotID

	trees      map[TreeID]*treeInfo
	nextTreeID TreeID
	main       TreeID

	txn *transaction
	log zerolog.Logger
}

// NewStore creates an empty Store.
func NewStore(opts Options) *Store {
	s := &Store{
		nodes:      make(map[NodeID]*Node),
		nextNodeID: 1,
		nextSlotID: 1,
		trees:      make(map[TreeID]*treeInfo),
		nextTreeID: 1,
		log:        zerolog.Nop(),
	}
	if opts.Logger != nil {
		s.log = *opts.Logger
	}
	return s
}

func (s *Store) newNode(kind, value string) *Node {
	n := &Node{id: s.nextNodeID, kind: kind, value: value}
	s.nextNodeID++
	s.nodes[n.id] = n
	return n
}

func (s *Store) nextSlot() SlotID {
	id := s.nextSlotID
	s.nextSlotID++
	return id
}

// link records that child now occupies loc.
func (s *Store) link(loc Location, child NodeID) {
	if child == 0 {
		return
	}
	s.nodes[child].parent = loc
}

// Node returns the registered node for id.
func (s *Store) Node(id NodeID) (*Node, error) {
	n, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	return n, nil
}

// Has reports whether id is registered.
func (s *Store) Has(id NodeID) bool {
	_, ok := s.nodes[id]
	return ok
}

// ParentOf returns the location currently holding id. The boolean is false
// for detached content.
func (s *Store) ParentOf(id NodeID) (Location, bool) {
	n, ok := s.nodes[id]
	if !ok || n.parent == (Location{}) {
		return Location{}, false
	}
	return n.parent, true
}

// HasLocation reports whether loc addresses an existing slot.
func (s *Store) HasLocation(loc Location) bool {
	_, _, err := s.slot(loc)
	return err == nil
}

// slot resolves loc to its node and item.
func (s *Store) slot(loc Location) (*Node, *item, error) {
	n, ok := s.nodes[loc.Parent]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %v: parent missing", ErrInvalidLocation, loc)
	}
	if loc.Item < 0 || loc.Item >= len(n.items) {
		return nil, nil, fmt.Errorf("%w: %v: no such item", ErrInvalidLocation, loc)
	}
	it := n.items[loc.Item]
	if it.kind == ItemSingular {
		if loc.Slot != 0 {
			return nil, nil, fmt.Errorf("%w: %v: slot on singular item", ErrInvalidLocation, loc)
		}
		return n, it, nil
	}
	if n.slotIndex(loc.Item, loc.Slot) < 0 {
		return nil, nil, fmt.Errorf("%w: %v: no such slot", ErrInvalidLocation, loc)
	}
	return n, it, nil
}

// IsContainerSlot reports whether loc is an element of a container item.
func (s *Store) IsContainerSlot(loc Location) bool {
	_, it, err := s.slot(loc)
	return err == nil && it.kind.IsContainer()
}

// Child returns the content held at loc, which is the hole (0) for an empty slot.
func (s *Store) Child(loc Location) (NodeID, error) {
	n, it, err := s.slot(loc)
	if err != nil {
		return 0, err
	}
	if it.kind == ItemSingular {
		return it.child, nil
	}
	return it.elems[n.slotIndex(loc.Item, loc.Slot)].child, nil
}

// Exchange writes content into loc and returns the previous occupant, which
// becomes detached. content must be detached (or the hole).
func (s *Store) Exchange(loc Location, content NodeID) (NodeID, error) {
	n, it, err := s.slot(loc)
	if err != nil {
		return 0, err
	}
	if content != 0 {
		cn, ok := s.nodes[content]
		if !ok {
			return 0, fmt.Errorf("%w: %d", ErrNodeNotFound, content)
		}
		if cn.parent != (Location{}) || cn.holderOf != 0 {
			return 0, fmt.Errorf("%w: node %d at %v", ErrAttached, content, cn.parent)
		}
	}

	var old NodeID
	if it.kind == ItemSingular {
		old = it.child
		it.child = content
	} else {
		j := n.slotIndex(loc.Item, loc.Slot)
		old = it.elems[j].child
		it.elems[j].child = content
	}
	if old != 0 {
		s.nodes[old].parent = Location{}
	}
	s.link(loc, content)
	s.journal(journalEntry{loc: loc, prev: old})
	return old, nil
}

// Insert places detached content into the hole at loc.
func (s *Store) Insert(loc Location, content NodeID) error {
	old, err := s.Child(loc)
	if err != nil {
		return err
	}
	if old != 0 {
		return fmt.Errorf("%w: %v", ErrNotHole, loc)
	}
	_, err = s.Exchange(loc, content)
	return err
}

// Delete removes the content at loc, leaving a hole, and releases it.
func (s *Store) Delete(loc Location) error {
	old, err := s.Exchange(loc, 0)
	if err != nil {
		return err
	}
	s.Release(old)
	return nil
}

// Release unregisters a detached subtree. Releasing the hole is a no-op.
// Within a transaction the release takes effect at Commit.
func (s *Store) Release(id NodeID) {
	if s.txn != nil {
		if id != 0 {
			s.txn.released = append(s.txn.released, id)
		}
		return
	}
	s.release(id)
}

func (s *Store) release(id NodeID) {
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	for _, it := range n.items {
		if it.kind == ItemSingular {
			s.releaseChild(id, it.child)
			continue
		}
		for _, e := range it.elems {
			s.releaseChild(id, e.child)
		}
	}
	delete(s.nodes, id)
}

// releaseChild releases child only if it is still owned by parent.
func (s *Store) releaseChild(parent, child NodeID) {
	if cn, ok := s.nodes[child]; ok && cn.parent.Parent == parent {
		s.release(child)
	}
}

// ChildLocations returns the locations of every slot of node id in
// depth-first order.
func (s *Store) ChildLocations(id NodeID) []Location {
	n, ok := s.nodes[id]
	if !ok {
		return nil
	}
	var locs []Location
	for i, it := range n.items {
		if it.kind == ItemSingular {
			locs = append(locs, Location{Parent: id, Item: i})
			continue
		}
		for _, e := range it.elems {
			locs = append(locs, Location{Parent: id, Item: i, Slot: e.slot})
		}
	}
	return locs
}

// CreateMainTree makes content the root of the store's main tree.
func (s *Store) CreateMainTree(content NodeID) (TreeID, error) {
	if s.main != 0 {
		return 0, ErrMainTreeExists
	}
	id, err := s.createTree(TreeMain, content)
	if err != nil {
		return 0, err
	}
	s.main = id
	return id, nil
}

// BuildTree makes content the root of a new auxiliary tree.
func (s *Store) BuildTree(content NodeID) (TreeID, error) {
	id, err := s.createTree(TreeAuxiliary, content)
	if err != nil {
		return 0, err
	}
	s.log.Trace().Uint64("tree", uint64(id)).Uint64("root", uint64(content)).Msg("auxiliary tree built")
	return id, nil
}

func (s *Store) createTree(kind TreeKind, content NodeID) (TreeID, error) {
	info := &treeInfo{id: s.nextTreeID, kind: kind}
	holder := s.newNode(kindHolder, "")
	holder.items = []*item{{name: "root", kind: ItemSingular}}
	holder.holderOf = info.id
	info.holder = holder.id

	if err := s.Insert(Location{Parent: holder.id}, content); err != nil {
		delete(s.nodes, holder.id)
		return 0, err
	}
	s.nextTreeID++
	s.trees[info.id] = info
	return info.id, nil
}

// Teardown releases every node of an auxiliary tree and forgets the tree.
func (s *Store) Teardown(id TreeID) error {
	info, ok := s.trees[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrTreeNotFound, id)
	}
	if info.kind == TreeMain {
		return ErrTeardownMain
	}
	if err := s.Delete(Location{Parent: info.holder}); err != nil {
		return err
	}
	if s.txn != nil {
		s.txn.dropped = append(s.txn.dropped, info)
	} else {
		delete(s.nodes, info.holder)
	}
	delete(s.trees, id)
	s.log.Trace().Uint64("tree", uint64(id)).Msg("auxiliary tree torn down")
	return nil
}

// Main returns the main tree's ID, or 0 if none was created.
func (s *Store) Main() TreeID {
	return s.main
}

// Root returns the root location of tree id.
func (s *Store) Root(id TreeID) (Location, error) {
	info, ok := s.trees[id]
	if !ok {
		return Location{}, fmt.Errorf("%w: %d", ErrTreeNotFound, id)
	}
	return Location{Parent: info.holder}, nil
}

// TreeOf returns the tree containing loc. The boolean is false when loc lies
// in detached content.
func (s *Store) TreeOf(loc Location) (TreeID, bool) {
	id := loc.Parent
	for {
		n, ok := s.nodes[id]
		if !ok {
			return 0, false
		}
		if n.holderOf != 0 {
			return n.holderOf, true
		}
		if n.parent == (Location{}) {
			return 0, false
		}
		id = n.parent.Parent
	}
}

// Stats reports the number of live nodes and trees.
func (s *Store) Stats() Stats {
	st := Stats{Nodes: len(s.nodes) - len(s.trees), Trees: len(s.trees)}
	for _, info := range s.trees {
		if info.kind == TreeAuxiliary {
			st.AuxiliaryTrees++
		}
	}
	return st
}

// Copy duplicates the subtree rooted at id into new detached content.
func (s *Store) Copy(id NodeID) NodeID {
	root, _ := s.copyRegion(id, nil)
	return root
}

// DuplicateRegion copies the content of region r from its base down to (not
// including) its terminii. The copy's terminus slots are holes; their
// locations are returned in the order of r.Terminii. Duplicating an empty
// region yields the hole and no terminus locations.
func (s *Store) DuplicateRegion(r Region) (NodeID, []Location, error) {
	if err := s.checkRegionLocations(r); err != nil {
		return 0, nil, err
	}
	if r.IsEmpty() {
		return 0, nil, nil
	}
	base, err := s.Child(r.Base)
	if err != nil {
		return 0, nil, err
	}
	stops := make(map[Location]int, len(r.Terminii))
	for i, t := range r.Terminii {
		stops[t] = i
	}
	root, mapped := s.copyRegion(base, stops)
	out := make([]Location, len(r.Terminii))
	for i, t := range r.Terminii {
		loc, ok := mapped[t]
		if !ok {
			s.Release(root)
			return 0, nil, fmt.Errorf("%w: terminus %v not under base %v", ErrInvalidLocation, t, r.Base)
		}
		out[i] = loc
	}
	return root, out, nil
}

// copyRegion copies the subtree at id, leaving holes at any slot listed in
// stops and reporting where each stop landed in the copy.
func (s *Store) copyRegion(id NodeID, stops map[Location]int) (NodeID, map[Location]Location) {
	mapped := make(map[Location]Location)
	var walk func(id NodeID) NodeID
	walk = func(id NodeID) NodeID {
		src, ok := s.nodes[id]
		if id == 0 || !ok {
			return 0
		}
		dst := s.newNode(src.kind, src.value)
		for i, it := range src.items {
			cp := &item{name: it.name, kind: it.kind}
			dst.items = append(dst.items, cp)
			if it.kind == ItemSingular {
				from := Location{Parent: id, Item: i}
				to := Location{Parent: dst.id, Item: i}
				if _, stop := stops[from]; stop {
					mapped[from] = to
					continue
				}
				cp.child = walk(it.child)
				s.link(to, cp.child)
				continue
			}
			for _, e := range it.elems {
				slot := s.nextSlot()
				from := Location{Parent: id, Item: i, Slot: e.slot}
				to := Location{Parent: dst.id, Item: i, Slot: slot}
				var child NodeID
				if _, stop := stops[from]; stop {
					mapped[from] = to
				} else {
					child = walk(e.child)
				}
				cp.elems = append(cp.elems, element{slot: slot, child: child})
				s.link(to, child)
			}
		}
		return dst.id
	}
	return walk(id), mapped
}
