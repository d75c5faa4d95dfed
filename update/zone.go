package update

import (
	"fmt"
	"strings"

	"github.com/jgraley/inferno-cpp2v-sub002/tree"
)

// Zone is a region of content with a base and an ordered list of terminii.
// It is either a *TreeZone or a *FreeZone.
type Zone interface {
	// NumTerminii returns the number of terminii.
	NumTerminii() int

	// IsEmpty reports whether the zone has no content of its own.
	IsEmpty() bool

	// Describe renders the zone for logs and the REPL.
	Describe(s *tree.Store) string

	isZone()
}

// TreeZone is a region of a tree (main or auxiliary) bounded by a base slot
// and terminus slots. A zone whose single terminus is its base is empty.
type TreeZone struct {
	base     tree.Location
	terminii []tree.Location
}

// NewTreeZone validates and returns the zone at base with the given
// terminii. The terminii must lie strictly below base, in depth-first order,
// with none an ancestor of another; or be exactly {base}.
func NewTreeZone(s *tree.Store, base tree.Location, terminii ...tree.Location) (*TreeZone, error) {
	if _, ok := s.TreeOf(base); !ok {
		return nil, fmt.Errorf("%w: base %v is not in a tree", ErrInvalidZone, base)
	}
	if err := checkTerminii(s, base, terminii); err != nil {
		return nil, err
	}
	return &TreeZone{base: base, terminii: append([]tree.Location(nil), terminii...)}, nil
}

// NewEmptyTreeZone returns the empty zone at loc.
func NewEmptyTreeZone(s *tree.Store, loc tree.Location) (*TreeZone, error) {
	return NewTreeZone(s, loc, loc)
}

func checkTerminii(s *tree.Store, base tree.Location, terminii []tree.Location) error {
	if len(terminii) == 1 && terminii[0] == base {
		if !s.HasLocation(base) {
			return fmt.Errorf("%w: base %v", ErrInvalidZone, base)
		}
		return nil
	}
	if !s.HasLocation(base) {
		return fmt.Errorf("%w: base %v", ErrInvalidZone, base)
	}
	for i, t := range terminii {
		_, rel, err := s.CompareHierarchical(base, t)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidZone, err)
		}
		if rel != tree.RelLeftIsAncestor {
			return fmt.Errorf("%w: terminus %v is not below base %v", ErrInvalidZone, t, base)
		}
		if i == 0 {
			continue
		}
		ord, rel, err := s.CompareHierarchical(terminii[i-1], t)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidZone, err)
		}
		if ord >= 0 || rel != tree.RelSiblings {
			return fmt.Errorf("%w: terminii %v and %v out of order or nested", ErrInvalidZone, terminii[i-1], t)
		}
	}
	return nil
}

func (*TreeZone) isZone() {}

// Base returns the zone's base location.
func (z *TreeZone) Base() tree.Location {
	return z.base
}

// Terminii returns a copy of the zone's terminus locations.
func (z *TreeZone) Terminii() []tree.Location {
	return append([]tree.Location(nil), z.terminii...)
}

// Terminus returns terminus i.
func (z *TreeZone) Terminus(i int) tree.Location {
	return z.terminii[i]
}

// NumTerminii implements Zone.
func (z *TreeZone) NumTerminii() int {
	return len(z.terminii)
}

// IsEmpty implements Zone.
func (z *TreeZone) IsEmpty() bool {
	return len(z.terminii) == 1 && z.terminii[0] == z.base
}

// Region returns the zone's raw shape for tree.Store.Swap.
func (z *TreeZone) Region() tree.Region {
	return tree.Region{Base: z.base, Terminii: z.Terminii()}
}

// Equal reports whether both zones cover the same region.
func (z *TreeZone) Equal(o *TreeZone) bool {
	if z.base != o.base || len(z.terminii) != len(o.terminii) {
		return false
	}
	for i := range z.terminii {
		if z.terminii[i] != o.terminii[i] {
			return false
		}
	}
	return true
}

// Describe implements Zone.
func (z *TreeZone) Describe(s *tree.Store) string {
	terms := make([]string, len(z.terminii))
	for i, t := range z.terminii {
		terms[i] = s.PathOf(t)
	}
	return fmt.Sprintf("%s [%s]", s.PathOf(z.base), strings.Join(terms, " "))
}

// Check revalidates the zone against the current state of the store.
func (z *TreeZone) Check(s *tree.Store) error {
	return checkTerminii(s, z.base, z.terminii)
}

// Duplicate copies the zone's content into a new free zone. Terminii of the
// copy correspond one to one with the zone's terminii.
func (z *TreeZone) Duplicate(s *tree.Store) (*FreeZone, error) {
	if z.IsEmpty() {
		return NewEmptyFreeZone(), nil
	}
	root, locs, err := s.DuplicateRegion(z.Region())
	if err != nil {
		return nil, err
	}
	terms := make([]Terminus, len(locs))
	for i, loc := range locs {
		if terms[i], err = NewTerminus(s, loc); err != nil {
			s.Release(root)
			return nil, err
		}
	}
	return &FreeZone{base: root, terminii: terms}, nil
}

// shields reports whether loc lies at or below one of z's terminii, and so
// outside z's content.
func (z *TreeZone) shields(s *tree.Store, loc tree.Location) bool {
	for _, t := range z.terminii {
		if s.IsAncestorOrEqual(t, loc) {
			return true
		}
	}
	return false
}

// interior reports whether loc is strictly inside z's content: below the
// base and not shielded by a terminus.
func (z *TreeZone) interior(s *tree.Store, loc tree.Location) bool {
	if loc == z.base || z.IsEmpty() {
		return false
	}
	return s.IsAncestorOrEqual(z.base, loc) && !z.shields(s, loc)
}

// splitAt cuts z at an interior location into an upper zone ending at loc
// and a lower zone starting there. The lower zone takes the run of z's
// terminii beginning at index first and of length count.
func (z *TreeZone) splitAt(s *tree.Store, loc tree.Location) (upper, lower *TreeZone, first, count int) {
	first = -1
	before := 0
	for i, t := range z.terminii {
		if s.IsAncestorOrEqual(loc, t) {
			if first < 0 {
				first = i
			}
			count++
		} else if s.DepthFirstLess(t, loc) {
			before++
		}
	}
	if first < 0 {
		first = before
	}
	upperTerms := make([]tree.Location, 0, len(z.terminii)-count+1)
	upperTerms = append(upperTerms, z.terminii[:first]...)
	upperTerms = append(upperTerms, loc)
	upperTerms = append(upperTerms, z.terminii[first+count:]...)

	upper = &TreeZone{base: z.base, terminii: upperTerms}
	lower = &TreeZone{base: loc, terminii: append([]tree.Location(nil), z.terminii[first:first+count]...)}
	return upper, lower, first, count
}

// TerminusKind says how a free zone's terminus accepts content.
type TerminusKind int

const (
	// TerminusBase stands for the base of an empty free zone: content joined
	// there replaces the whole zone.
	TerminusBase TerminusKind = iota

	// TerminusSingular is the hole of a singular item.
	TerminusSingular

	// TerminusContainer is a placeholder element of a sequence or collection.
	TerminusContainer
)

func (k TerminusKind) String() string {
	switch k {
	case TerminusBase:
		return "base"
	case TerminusSingular:
		return "singular"
	case TerminusContainer:
		return "container"
	default:
		return "unknown"
	}
}

// Terminus is a hole in free content into which a child's content is joined.
type Terminus struct {
	loc  tree.Location
	kind TerminusKind
}

// NewTerminus returns the terminus at loc, which must be a hole.
func NewTerminus(s *tree.Store, loc tree.Location) (Terminus, error) {
	child, err := s.Child(loc)
	if err != nil {
		return Terminus{}, fmt.Errorf("%w: %v", ErrInvalidZone, err)
	}
	if child != 0 {
		return Terminus{}, fmt.Errorf("%w: terminus %v is not a hole", ErrInvalidZone, loc)
	}
	kind := TerminusSingular
	if s.IsContainerSlot(loc) {
		kind = TerminusContainer
	}
	return Terminus{loc: loc, kind: kind}, nil
}

// BaseTerminus returns the sole terminus of an empty free zone.
func BaseTerminus() Terminus {
	return Terminus{kind: TerminusBase}
}

// Location returns the terminus slot. It is the zero Location for a base terminus.
func (t Terminus) Location() tree.Location {
	return t.loc
}

// Kind returns the terminus kind.
func (t Terminus) Kind() TerminusKind {
	return t.kind
}

// Exchange writes content into the terminus slot and returns the previous
// occupant.
func (t Terminus) Exchange(s *tree.Store, content tree.NodeID) (tree.NodeID, error) {
	if t.kind == TerminusBase {
		return 0, fmt.Errorf("%w: exchange at a base terminus", ErrUnsupported)
	}
	return s.Exchange(t.loc, content)
}

// FreeZone is detached content with holes for terminii. An empty free zone
// has no content and a single base terminus.
type FreeZone struct {
	base     tree.NodeID
	terminii []Terminus
}

// NewFreeZone validates and returns the free zone rooted at detached content
// base. Each terminus must be a hole inside base's content; terminii must be
// in depth-first order with none an ancestor of another.
func NewFreeZone(s *tree.Store, base tree.NodeID, terminii ...Terminus) (*FreeZone, error) {
	if base == 0 {
		if len(terminii) == 0 || (len(terminii) == 1 && terminii[0].kind == TerminusBase) {
			return &FreeZone{terminii: append([]Terminus(nil), terminii...)}, nil
		}
		return nil, fmt.Errorf("%w: free zone without content has %d terminii", ErrInvalidZone, len(terminii))
	}
	if !s.Has(base) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidZone, tree.ErrNodeNotFound)
	}
	if loc, attached := s.ParentOf(base); attached {
		return nil, fmt.Errorf("%w: base %d is attached at %v", ErrInvalidZone, base, loc)
	}
	for i, t := range terminii {
		if t.kind == TerminusBase {
			return nil, fmt.Errorf("%w: base terminus in non-empty free zone", ErrInvalidZone)
		}
		top, err := s.TopOf(t.loc)
		if err != nil || top != base {
			return nil, fmt.Errorf("%w: terminus %v is not inside %d", ErrInvalidZone, t.loc, base)
		}
		if child, _ := s.Child(t.loc); child != 0 {
			return nil, fmt.Errorf("%w: terminus %v is not a hole", ErrInvalidZone, t.loc)
		}
		if i == 0 {
			continue
		}
		ord, rel, err := s.CompareHierarchical(terminii[i-1].loc, t.loc)
		if err != nil || ord >= 0 || rel != tree.RelSiblings {
			return nil, fmt.Errorf("%w: terminii %v and %v out of order", ErrInvalidZone, terminii[i-1].loc, t.loc)
		}
	}
	return &FreeZone{base: base, terminii: append([]Terminus(nil), terminii...)}, nil
}

// NewEmptyFreeZone returns a free zone with no content and one base terminus.
func NewEmptyFreeZone() *FreeZone {
	return &FreeZone{terminii: []Terminus{BaseTerminus()}}
}

// NewFreeZoneFromDoc builds the content described by doc and returns it as a
// free zone. Marker nodes in doc become the zone's terminii; a document that
// is just a marker yields an empty free zone.
func NewFreeZoneFromDoc(s *tree.Store, doc *tree.NodeDoc) (*FreeZone, error) {
	root, markers, err := s.BuildDoc(doc)
	if err != nil {
		return nil, err
	}
	if root == 0 && len(markers) == 1 {
		return NewEmptyFreeZone(), nil
	}
	terms := make([]Terminus, len(markers))
	for i, m := range markers {
		if terms[i], err = NewTerminus(s, m); err != nil {
			s.Release(root)
			return nil, err
		}
	}
	z, err := NewFreeZone(s, root, terms...)
	if err != nil {
		s.Release(root)
		return nil, err
	}
	return z, nil
}

func (*FreeZone) isZone() {}

// Base returns the zone's content; the hole for an empty zone.
func (z *FreeZone) Base() tree.NodeID {
	return z.base
}

// Terminii returns a copy of the zone's terminii.
func (z *FreeZone) Terminii() []Terminus {
	return append([]Terminus(nil), z.terminii...)
}

// Terminus returns terminus i.
func (z *FreeZone) Terminus(i int) Terminus {
	return z.terminii[i]
}

// NumTerminii implements Zone.
func (z *FreeZone) NumTerminii() int {
	return len(z.terminii)
}

// IsEmpty implements Zone.
func (z *FreeZone) IsEmpty() bool {
	return z.base == 0 && len(z.terminii) == 1 && z.terminii[0].kind == TerminusBase
}

// IsVoid reports whether z has no content and no terminii. A void zone can
// stand for an unset singular slot but not for a container element.
func (z *FreeZone) IsVoid() bool {
	return z.base == 0 && len(z.terminii) == 0
}

// Describe implements Zone.
func (z *FreeZone) Describe(s *tree.Store) string {
	if z.IsEmpty() {
		return "<empty>"
	}
	return s.Format(z.base)
}

// plant moves the zone's content into a new auxiliary tree and returns that
// tree along with a tree zone describing the content in it. The free zone
// gives up its content.
func (z *FreeZone) plant(s *tree.Store) (tree.TreeID, *TreeZone, error) {
	aux, err := s.BuildTree(z.base)
	if err != nil {
		return 0, nil, err
	}
	root, err := s.Root(aux)
	if err != nil {
		return 0, nil, err
	}
	zone := &TreeZone{base: root}
	if z.IsEmpty() {
		zone.terminii = []tree.Location{root}
	} else {
		for _, t := range z.terminii {
			zone.terminii = append(zone.terminii, t.loc)
		}
	}
	z.base = 0
	return aux, zone, nil
}
