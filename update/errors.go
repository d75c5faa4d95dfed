// Package update applies a patch tree, a declarative description of how
// regions of a main tree should be rearranged, duplicated, replaced and
// inserted, to a tree.Store in one atomic operation.
//
// An update runs a fixed pipeline of passes. The earlier passes rewrite the
// patch tree until every remaining tree zone can be committed by swapping
// rather than copying, and every free zone sits in exactly one place. The
// later passes move content out to auxiliary trees, commit free zones into
// the main tree, and move content back in.
package update

import "errors"

// Zone and patch errors
var (
	// ErrInvalidZone indicates that a zone's base and terminii violate zone structure.
	ErrInvalidZone = errors.New("invalid zone")

	// ErrArity indicates that a patch's child count differs from its zone's terminus count.
	ErrArity = errors.New("child count does not match terminus count")
)

// Pipeline errors
var (
	// ErrInvariant indicates that a pass postcondition does not hold.
	ErrInvariant = errors.New("invariant violated")

	// ErrNotFound indicates that content expected in the main tree could not be found.
	ErrNotFound = errors.New("not found")

	// ErrUnsupported indicates a patch shape the pipeline refuses to handle.
	ErrUnsupported = errors.New("unsupported")
)
