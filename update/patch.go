package update

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jgraley/inferno-cpp2v-sub002/tree"
)

// Intent says how a tree zone patch's content may be obtained.
type Intent int

const (
	// IntentDefault zones are used in place.
	IntentDefault Intent = iota

	// IntentMovable zones are moved away from their current location.
	IntentMovable

	// IntentCopyable zones are duplicated, leaving the original untouched.
	IntentCopyable
)

func (i Intent) String() string {
	switch i {
	case IntentDefault:
		return "default"
	case IntentMovable:
		return "movable"
	case IntentCopyable:
		return "copyable"
	default:
		return "unknown"
	}
}

// Patch is a node of a patch tree: a zone plus one child patch per terminus.
// It is either a *TreeZonePatch or a *FreePatch.
type Patch interface {
	// Zone returns the patch's zone.
	Zone() Zone

	// Children returns the child patches, one per terminus of Zone. The
	// returned slice is owned by the patch.
	Children() []Patch

	// Originators returns the sorted names of the rules that produced the patch.
	Originators() []string

	isPatch()
}

// TreeZonePatch refers to a region of the main tree.
type TreeZonePatch struct {
	zone        *TreeZone
	children    []Patch
	intent      Intent
	originators []string
}

// NewTreeZonePatch returns a patch over zone. children must have one entry
// per terminus.
func NewTreeZonePatch(zone *TreeZone, children []Patch, originators ...string) (*TreeZonePatch, error) {
	if err := checkArity(zone, children); err != nil {
		return nil, err
	}
	return &TreeZonePatch{zone: zone, children: children, originators: normalize(originators)}, nil
}

func (*TreeZonePatch) isPatch() {}

// Zone implements Patch.
func (p *TreeZonePatch) Zone() Zone { return p.zone }

// TreeZone returns the patch's zone.
func (p *TreeZonePatch) TreeZone() *TreeZone { return p.zone }

// Children implements Patch.
func (p *TreeZonePatch) Children() []Patch { return p.children }

// Originators implements Patch.
func (p *TreeZonePatch) Originators() []string { return p.originators }

// Intent returns the patch's intent.
func (p *TreeZonePatch) Intent() Intent { return p.intent }

// SetIntent sets the patch's intent.
func (p *TreeZonePatch) SetIntent(i Intent) { p.intent = i }

// FreePatch carries new content.
type FreePatch struct {
	zone        *FreeZone
	children    []Patch
	originators []string
}

// NewFreePatch returns a patch over zone. children must have one entry per
// terminus.
func NewFreePatch(zone *FreeZone, children []Patch, originators ...string) (*FreePatch, error) {
	if err := checkArity(zone, children); err != nil {
		return nil, err
	}
	return &FreePatch{zone: zone, children: children, originators: normalize(originators)}, nil
}

func (*FreePatch) isPatch() {}

// Zone implements Patch.
func (p *FreePatch) Zone() Zone { return p.zone }

// FreeZone returns the patch's zone.
func (p *FreePatch) FreeZone() *FreeZone { return p.zone }

// Children implements Patch.
func (p *FreePatch) Children() []Patch { return p.children }

// Originators implements Patch.
func (p *FreePatch) Originators() []string { return p.originators }

func checkArity(z Zone, children []Patch) error {
	if len(children) != z.NumTerminii() {
		return fmt.Errorf("%w: %d children for %d terminii", ErrArity, len(children), z.NumTerminii())
	}
	for i, c := range children {
		if c == nil {
			return fmt.Errorf("%w: child %d is nil", ErrArity, i)
		}
	}
	return nil
}

// normalize sorts and de-duplicates originator names.
func normalize(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := append([]string(nil), names...)
	sort.Strings(out)
	j := 0
	for i := range out {
		if i == 0 || out[i] != out[j-1] {
			out[j] = out[i]
			j++
		}
	}
	return out[:j]
}

func unionOriginators(a, b []string) []string {
	return normalize(append(append([]string(nil), a...), b...))
}

// Walk calls fn for every patch of the tree rooted at p in pre-order.
func Walk(p Patch, fn func(Patch) error) error {
	if err := fn(p); err != nil {
		return err
	}
	for _, c := range p.Children() {
		if err := Walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}

// walkSlots calls fn for every patch slot in pre-order. fn may replace the
// patch in *slot; the walk then continues into the replacement's children.
func walkSlots(slot *Patch, fn func(slot *Patch) error) error {
	if err := fn(slot); err != nil {
		return err
	}
	children := (*slot).Children()
	for i := range children {
		if err := walkSlots(&children[i], fn); err != nil {
			return err
		}
	}
	return nil
}

// treeSlots returns the slots holding tree zone patches, in pre-order.
func treeSlots(root *Patch) []*Patch {
	var out []*Patch
	_ = walkSlots(root, func(slot *Patch) error {
		if _, ok := (*slot).(*TreeZonePatch); ok {
			out = append(out, slot)
		}
		return nil
	})
	return out
}

// Count reports how many tree zone and free patches the tree contains.
func Count(p Patch) (treePatches, freePatches int) {
	_ = Walk(p, func(p Patch) error {
		if _, ok := p.(*TreeZonePatch); ok {
			treePatches++
		} else {
			freePatches++
		}
		return nil
	})
	return treePatches, freePatches
}

// Dump renders the patch tree, one patch per line.
func Dump(s *tree.Store, p Patch) string {
	var b strings.Builder
	dump(&b, s, p, 0)
	return b.String()
}

func dump(b *strings.Builder, s *tree.Store, p Patch, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	switch p := p.(type) {
	case *TreeZonePatch:
		fmt.Fprintf(b, "tree %s %s", p.zone.Describe(s), p.intent)
	case *FreePatch:
		fmt.Fprintf(b, "free %s", p.zone.Describe(s))
	}
	if o := p.Originators(); len(o) > 0 {
		fmt.Fprintf(b, " <%s>", strings.Join(o, ","))
	}
	b.WriteString("\n")
	for _, c := range p.Children() {
		dump(b, s, c, depth+1)
	}
}
