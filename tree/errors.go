// Package tree provides an indexed, arena-backed store of tree-structured
// content: nodes with named singular and container items, one main tree and
// any number of short-lived auxiliary trees, depth-first navigation, and the
// region swap primitive used to commit updates.
package tree

import "errors"

// Node errors
var (
	// ErrNodeNotFound indicates that a NodeID is not registered in the store.
	ErrNodeNotFound = errors.New("node not found")

	// ErrAttached indicates that content expected to be detached already has a parent.
	ErrAttached = errors.New("content is already attached")

	// ErrItemKind indicates that an item was used in a way its kind does not allow.
	ErrItemKind = errors.New("wrong item kind")
)

// Location errors
var (
	// ErrInvalidLocation indicates that a location does not address an existing slot.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrNotHole indicates that a slot was expected to be empty but holds content.
	ErrNotHole = errors.New("slot is not a hole")

	// ErrPathSyntax indicates that a textual path could not be parsed.
	ErrPathSyntax = errors.New("malformed path")
)

// Tree errors
var (
	// ErrTreeNotFound indicates that a TreeID does not exist.
	ErrTreeNotFound = errors.New("tree not found")

	// ErrMainTreeExists indicates that the store already has a main tree.
	ErrMainTreeExists = errors.New("main tree already exists")

	// ErrTeardownMain indicates an attempt to tear down the main tree.
	ErrTeardownMain = errors.New("cannot tear down the main tree")
)

// Swap errors
var (
	// ErrRegionMismatch indicates that two regions cannot be swapped with each other.
	ErrRegionMismatch = errors.New("regions do not match")

	// ErrFixupNotFound indicates that a fixup does not refer to any terminus of its region.
	ErrFixupNotFound = errors.New("fixup does not match a terminus")
)

// Encoding errors
var (
	// ErrDecode indicates that an encoded tree could not be decoded.
	ErrDecode = errors.New("cannot decode tree")
)
