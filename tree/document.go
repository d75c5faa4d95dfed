package tree

import (
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// MarkerKind is the kind used in documents to mark a terminus: it builds a
// hole whose location is reported back to the caller.
const MarkerKind = "$"

// NodeDoc is the portable form of a subtree, shared by the YAML and CBOR
// encodings. A nil *NodeDoc is the hole.
type NodeDoc struct {
	Kind  string     `yaml:"kind" cbor:"1,keyasint"`
	Value string     `yaml:"value,omitempty" cbor:"2,keyasint,omitempty"`
	Items []*ItemDoc `yaml:"items,omitempty" cbor:"3,keyasint,omitempty"`
}

// ItemDoc is the portable form of one item. Exactly one of Node, Seq or Set
// is meaningful, selected by which is present (Node for singular items).
type ItemDoc struct {
	Name string     `yaml:"name" cbor:"1,keyasint"`
	Node *NodeDoc   `yaml:"node,omitempty" cbor:"2,keyasint,omitempty"`
	Seq  []*NodeDoc `yaml:"seq,omitempty" cbor:"3,keyasint,omitempty"`
	Set  []*NodeDoc `yaml:"set,omitempty" cbor:"4,keyasint,omitempty"`

	// Kind is explicit in CBOR so that empty containers survive a round trip.
	Kind ItemKind `yaml:"-" cbor:"5,keyasint"`
}

func (d *ItemDoc) kind() ItemKind {
	switch {
	case d.Kind != ItemSingular:
		return d.Kind
	case d.Set != nil:
		return ItemCollection
	case d.Seq != nil:
		return ItemSequence
	default:
		return ItemSingular
	}
}

// Doc exports the subtree at id.
func (s *Store) Doc(id NodeID) *NodeDoc {
	n, ok := s.nodes[id]
	if id == 0 || !ok {
		return nil
	}
	doc := &NodeDoc{Kind: n.kind, Value: n.value}
	for _, it := range n.items {
		idoc := &ItemDoc{Name: it.name, Kind: it.kind}
		switch it.kind {
		case ItemSingular:
			idoc.Node = s.Doc(it.child)
		case ItemSequence:
			idoc.Seq = make([]*NodeDoc, 0, len(it.elems))
			for _, e := range it.elems {
				idoc.Seq = append(idoc.Seq, s.Doc(e.child))
			}
		case ItemCollection:
			idoc.Set = make([]*NodeDoc, 0, len(it.elems))
			for _, e := range it.elems {
				idoc.Set = append(idoc.Set, s.Doc(e.child))
			}
		}
		doc.Items = append(doc.Items, idoc)
	}
	return doc
}

// BuildDoc registers detached content described by doc. Marker nodes become
// holes; their locations are returned in depth-first order. A marker at the
// top of doc yields the hole and the zero Location.
func (s *Store) BuildDoc(doc *NodeDoc) (NodeID, []Location, error) {
	if doc == nil {
		return 0, nil, nil
	}
	if doc.Kind == MarkerKind {
		return 0, []Location{{}}, nil
	}
	var markers []Location
	id, err := s.buildDoc(doc, &markers)
	if err != nil {
		return 0, nil, err
	}
	return id, markers, nil
}

func (s *Store) buildDoc(doc *NodeDoc, markers *[]Location) (NodeID, error) {
	if strings.TrimSpace(doc.Kind) == "" {
		return 0, fmt.Errorf("%w: node without kind", ErrDecode)
	}
	n := s.newNode(doc.Kind, doc.Value)
	for i, idoc := range doc.Items {
		if idoc == nil {
			s.Release(n.id)
			return 0, fmt.Errorf("%w: empty item on %s", ErrDecode, doc.Kind)
		}
		it := &item{name: idoc.Name, kind: idoc.kind()}
		n.items = append(n.items, it)

		var children []*NodeDoc
		switch it.kind {
		case ItemSingular:
			children = []*NodeDoc{idoc.Node}
		case ItemSequence:
			children = idoc.Seq
		case ItemCollection:
			children = idoc.Set
		}
		for _, cdoc := range children {
			loc := Location{Parent: n.id, Item: i}
			if it.kind.IsContainer() {
				loc.Slot = s.nextSlot()
				it.elems = append(it.elems, element{slot: loc.Slot})
			}
			if cdoc == nil {
				continue
			}
			if cdoc.Kind == MarkerKind {
				*markers = append(*markers, loc)
				continue
			}
			child, err := s.buildDoc(cdoc, markers)
			if err != nil {
				s.Release(n.id)
				return 0, err
			}
			if it.kind == ItemSingular {
				it.child = child
			} else {
				it.elems[len(it.elems)-1].child = child
			}
			s.link(loc, child)
		}
	}
	return n.id, nil
}

// LoadYAML reads one YAML document describing a subtree and registers it as
// detached content.
func (s *Store) LoadYAML(r io.Reader) (NodeID, error) {
	var doc NodeDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	id, markers, err := s.BuildDoc(&doc)
	if err != nil {
		return 0, err
	}
	if len(markers) > 0 {
		s.Release(id)
		return 0, fmt.Errorf("%w: terminus markers are only allowed in plans", ErrDecode)
	}
	return id, nil
}

// EncodeCBOR serializes the subtree at id.
func (s *Store) EncodeCBOR(id NodeID) ([]byte, error) {
	if !s.Has(id) {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	return cbor.Marshal(s.Doc(id))
}

// DecodeCBOR registers detached content from data produced by EncodeCBOR.
func (s *Store) DecodeCBOR(data []byte) (NodeID, error) {
	var doc NodeDoc
	if err := cbor.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	id, _, err := s.BuildDoc(&doc)
	return id, err
}

// Format renders the subtree at id compactly, for logs and tests:
//
//	Call:f(callee=Ident:g args=[Ident:x _])
//
// Holes render as "_", sequences in brackets, collections in braces.
func (s *Store) Format(id NodeID) string {
	var b strings.Builder
	s.format(&b, id)
	return b.String()
}

func (s *Store) format(b *strings.Builder, id NodeID) {
	n, ok := s.nodes[id]
	if id == 0 || !ok {
		b.WriteString("_")
		return
	}
	b.WriteString(n.kind)
	if n.value != "" {
		b.WriteString(":")
		b.WriteString(n.value)
	}
	if len(n.items) == 0 {
		return
	}
	b.WriteString("(")
	for i, it := range n.items {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(it.name)
		b.WriteString("=")
		switch it.kind {
		case ItemSingular:
			s.format(b, it.child)
		case ItemSequence, ItemCollection:
			open, close := "[", "]"
			if it.kind == ItemCollection {
				open, close = "{", "}"
			}
			b.WriteString(open)
			for j, e := range it.elems {
				if j > 0 {
					b.WriteString(" ")
				}
				s.format(b, e.child)
			}
			b.WriteString(close)
		}
	}
	b.WriteString(")")
}
