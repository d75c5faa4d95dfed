package tree

import "fmt"

// Region is the raw shape of a zone: a base slot and the boundary slots below
// it whose content does not belong to the region. A region whose only
// terminus is its base is empty.
type Region struct {
	Base     Location
	Terminii []Location
}

// IsEmpty reports whether the region has no content of its own.
func (r Region) IsEmpty() bool {
	return len(r.Terminii) == 1 && r.Terminii[0] == r.Base
}

func (r Region) String() string {
	return fmt.Sprintf("%v%v", r.Base, r.Terminii)
}

func (s *Store) checkRegionLocations(r Region) error {
	if !s.HasLocation(r.Base) {
		return fmt.Errorf("%w: base %v", ErrInvalidLocation, r.Base)
	}
	for _, t := range r.Terminii {
		if !s.HasLocation(t) {
			return fmt.Errorf("%w: terminus %v", ErrInvalidLocation, t)
		}
	}
	return nil
}

// Swap exchanges the content of region a with the content of region b. The
// subtrees hanging below each region's terminii stay where they are in
// their own trees: after the swap, a's base holds b's content with a's
// terminus subtrees plugged into b's terminii, and vice versa.
//
// fixA and fixB point at locations held by other parties. Each must equal one
// of the terminii of its region; it is rewritten to where that terminus's
// subtree lives after the swap.
//
// The returned regions describe what now occupies a.Base and b.Base.
func (s *Store) Swap(a Region, fixA []*Location, b Region, fixB []*Location) (Region, Region, error) {
	if len(a.Terminii) != len(b.Terminii) {
		return Region{}, Region{}, fmt.Errorf("%w: %d terminii vs %d", ErrRegionMismatch, len(a.Terminii), len(b.Terminii))
	}
	if a.Base == b.Base {
		return Region{}, Region{}, fmt.Errorf("%w: same base %v", ErrRegionMismatch, a.Base)
	}
	if err := s.checkRegionLocations(a); err != nil {
		return Region{}, Region{}, err
	}
	if err := s.checkRegionLocations(b); err != nil {
		return Region{}, Region{}, err
	}
	fixIdxA, err := fixupIndices(a, fixA)
	if err != nil {
		return Region{}, Region{}, err
	}
	fixIdxB, err := fixupIndices(b, fixB)
	if err != nil {
		return Region{}, Region{}, err
	}

	// Where each region's terminii will be once it sits at the other base.
	landA := landing(a, b.Base)
	landB := landing(b, a.Base)

	// Lift the terminus subtrees out of both regions.
	n := len(a.Terminii)
	subA := make([]NodeID, n)
	subB := make([]NodeID, n)
	for i := 0; i < n; i++ {
		if subA[i], err = s.Exchange(a.Terminii[i], 0); err != nil {
			return Region{}, Region{}, err
		}
		if subB[i], err = s.Exchange(b.Terminii[i], 0); err != nil {
			return Region{}, Region{}, err
		}
	}

	// Exchange the region contents.
	contentA, err := s.Exchange(a.Base, 0)
	if err != nil {
		return Region{}, Region{}, err
	}
	contentB, err := s.Exchange(b.Base, 0)
	if err != nil {
		return Region{}, Region{}, err
	}
	if _, err := s.Exchange(a.Base, contentB); err != nil {
		return Region{}, Region{}, err
	}
	if _, err := s.Exchange(b.Base, contentA); err != nil {
		return Region{}, Region{}, err
	}

	// Plug each side's subtrees into the other side's terminii.
	for i := 0; i < n; i++ {
		if _, err := s.Exchange(landB[i], subA[i]); err != nil {
			return Region{}, Region{}, err
		}
		if _, err := s.Exchange(landA[i], subB[i]); err != nil {
			return Region{}, Region{}, err
		}
	}

	for j, f := range fixA {
		*f = landB[fixIdxA[j]]
	}
	for j, f := range fixB {
		*f = landA[fixIdxB[j]]
	}

	return Region{Base: a.Base, Terminii: landB}, Region{Base: b.Base, Terminii: landA}, nil
}

// landing maps r's terminii to their locations once r's content sits at
// newBase: unchanged for slots inside the content, newBase for an empty
// region's terminus.
func landing(r Region, newBase Location) []Location {
	out := make([]Location, len(r.Terminii))
	for i, t := range r.Terminii {
		if t == r.Base {
			out[i] = newBase
		} else {
			out[i] = t
		}
	}
	return out
}

func fixupIndices(r Region, fixups []*Location) ([]int, error) {
	idx := make([]int, len(fixups))
	for j, f := range fixups {
		idx[j] = -1
		for i, t := range r.Terminii {
			if *f == t {
				idx[j] = i
				break
			}
		}
		if idx[j] < 0 {
			return nil, fmt.Errorf("%w: %v not in %v", ErrFixupNotFound, *f, r)
		}
	}
	return idx, nil
}
