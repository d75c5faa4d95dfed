package update

import (
	"fmt"
	"io"

	"github.com/jgraley/inferno-cpp2v-sub002/tree"
	"gopkg.in/yaml.v3"
)

// PlanDoc is the YAML form of an update: where it applies and what to do.
type PlanDoc struct {
	Origin string    `yaml:"origin"`
	Patch  *PatchDoc `yaml:"patch"`
}

// PatchDoc describes one patch. Exactly one of Tree and Free is set.
type PatchDoc struct {
	Tree        *TreeZoneDoc  `yaml:"tree,omitempty"`
	Free        *tree.NodeDoc `yaml:"free,omitempty"`
	Intent      string        `yaml:"intent,omitempty"`
	Children    []*PatchDoc   `yaml:"children,omitempty"`
	Originators []string      `yaml:"originators,omitempty"`
}

// TreeZoneDoc names a tree zone by paths in the main tree. An empty zone
// lists its base as its only terminus.
//
// Paths with an index such as /body[1] must be quoted inside flow
// collections, where brackets are YAML syntax. Block style needs no quoting.
type TreeZoneDoc struct {
	Base     string   `yaml:"base"`
	Terminii []string `yaml:"terminii,omitempty"`
}

// LoadPlanYAML reads a plan document and builds its patch tree against the
// main tree. Free content is registered in s; it is released again if the
// plan is invalid.
func LoadPlanYAML(s *tree.Store, mainTree tree.TreeID, r io.Reader) (Patch, tree.Location, error) {
	var doc PlanDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, tree.Location{}, fmt.Errorf("%w: %v", tree.ErrDecode, err)
	}
	return BuildPlan(s, mainTree, &doc)
}

// BuildPlan builds the patch tree described by doc.
func BuildPlan(s *tree.Store, mainTree tree.TreeID, doc *PlanDoc) (Patch, tree.Location, error) {
	if doc.Patch == nil {
		return nil, tree.Location{}, fmt.Errorf("%w: plan has no patch", tree.ErrDecode)
	}
	origin, err := s.Resolve(mainTree, doc.Origin)
	if err != nil {
		return nil, tree.Location{}, fmt.Errorf("origin: %w", err)
	}
	b := &planBuilder{store: s, tree: mainTree}
	p, err := b.build(doc.Patch)
	if err != nil {
		for _, id := range b.built {
			s.Release(id)
		}
		return nil, tree.Location{}, err
	}
	return p, origin, nil
}

type planBuilder struct {
	store *tree.Store
	tree  tree.TreeID
	built []tree.NodeID
}

func (b *planBuilder) build(doc *PatchDoc) (Patch, error) {
	if (doc.Tree == nil) == (doc.Free == nil) {
		return nil, fmt.Errorf("%w: patch needs exactly one of tree and free", tree.ErrDecode)
	}
	children := make([]Patch, len(doc.Children))
	for i, c := range doc.Children {
		if c == nil {
			return nil, fmt.Errorf("%w: child %d is empty", tree.ErrDecode, i)
		}
		p, err := b.build(c)
		if err != nil {
			return nil, err
		}
		children[i] = p
	}

	if doc.Free != nil {
		if doc.Intent != "" {
			return nil, fmt.Errorf("%w: free patch with intent", tree.ErrDecode)
		}
		zone, err := NewFreeZoneFromDoc(b.store, doc.Free)
		if err != nil {
			return nil, err
		}
		if zone.base != 0 {
			b.built = append(b.built, zone.base)
		}
		return NewFreePatch(zone, children, doc.Originators...)
	}

	base, err := b.store.Resolve(b.tree, doc.Tree.Base)
	if err != nil {
		return nil, err
	}
	terms := make([]tree.Location, len(doc.Tree.Terminii))
	for i, path := range doc.Tree.Terminii {
		if terms[i], err = b.store.Resolve(b.tree, path); err != nil {
			return nil, err
		}
	}
	zone, err := NewTreeZone(b.store, base, terms...)
	if err != nil {
		return nil, err
	}
	tp, err := NewTreeZonePatch(zone, children, doc.Originators...)
	if err != nil {
		return nil, err
	}
	intent, err := parseIntent(doc.Intent)
	if err != nil {
		return nil, err
	}
	tp.SetIntent(intent)
	return tp, nil
}

func parseIntent(s string) (Intent, error) {
	switch s {
	case "", "default":
		return IntentDefault, nil
	case "movable":
		return IntentMovable, nil
	case "copyable":
		return IntentCopyable, nil
	default:
		return 0, fmt.Errorf("%w: unknown intent %q", tree.ErrDecode, s)
	}
}
