package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/jgraley/inferno-cpp2v-sub002/tree"
	"github.com/jgraley/inferno-cpp2v-sub002/update"
)

// bench holds the generated tree and the updater driving it.
type bench struct {
	rng    *rand.Rand
	size   int
	rounds int

	store   *tree.Store
	updater *update.Updater
}

var negDoc = &tree.NodeDoc{
	Kind:  "Neg",
	Items: []*tree.ItemDoc{{Name: "op", Node: &tree.NodeDoc{Kind: tree.MarkerKind}}},
}

var pairDoc = &tree.NodeDoc{
	Kind: tree.KindSubSequence,
	Items: []*tree.ItemDoc{{Name: "elems", Seq: []*tree.NodeDoc{
		{Kind: "Stmt", Value: "p"},
		{Kind: "Stmt", Value: "q"},
	}}},
}

func (b *bench) loc(format string, args ...any) tree.Location {
	loc, err := b.store.Resolve(b.store.Main(), fmt.Sprintf(format, args...))
	if err != nil {
		panic(err)
	}
	return loc
}

func (b *bench) subtree(path string, args ...any) *update.TreeZonePatch {
	z, err := update.NewTreeZone(b.store, b.loc(path, args...))
	if err != nil {
		panic(err)
	}
	p, err := update.NewTreeZonePatch(z, nil)
	if err != nil {
		panic(err)
	}
	return p
}

func (b *bench) rootContent() tree.NodeID {
	id, err := b.store.Child(b.loc("/"))
	if err != nil {
		panic(err)
	}
	return id
}

// pick returns two distinct statement indices in increasing order.
func (b *bench) pick() (int, int) {
	i, j := b.rng.Intn(b.size), b.rng.Intn(b.size-1)
	if j >= i {
		j++
	}
	if i > j {
		i, j = j, i
	}
	return i, j
}

// build generates Root(body=[Stmt:i(expr=Neg(op=Ident:vi)) ...]).
func (b *bench) build() BenchResult {
	start := time.Now()
	b.store = tree.NewStore(tree.Options{})
	stmts := make([]tree.NodeID, b.size)
	for i := range stmts {
		neg, _ := b.store.Make("Neg", "", tree.Singular("op", b.store.Leaf("Ident", fmt.Sprintf("v%d", i))))
		stmts[i], _ = b.store.Make("Stmt", fmt.Sprint(i), tree.Singular("expr", neg))
	}
	root, _ := b.store.Make("Root", "", tree.Sequence("body", stmts...))
	if _, err := b.store.CreateMainTree(root); err != nil {
		return BenchResult{Name: "Build tree", Extra: fmt.Sprintf("ERROR: %v", err)}
	}
	return BenchResult{
		Name:     "Build tree",
		Duration: time.Since(start),
		Extra:    fmt.Sprintf("%d nodes", b.store.Stats().Nodes),
	}
}

// run applies each plan returned by next and counts the successes.
func (b *bench) run(name string, next func() (update.Patch, tree.Location, bool)) BenchResult {
	ops, failed := 0, 0
	start := time.Now()
	for i := 0; i < b.rounds; i++ {
		plan, origin, ok := next()
		if !ok {
			continue
		}
		if _, err := b.updater.Apply(plan, origin); err != nil {
			failed++
			continue
		}
		ops++
	}
	r := BenchResult{Name: name, Duration: time.Since(start), Ops: ops}
	if failed > 0 {
		r.Extra = fmt.Sprintf("%d failed", failed)
	}
	return r
}

func (b *bench) swaps() BenchResult {
	return b.run("Swap statements", func() (update.Patch, tree.Location, bool) {
		if b.size < 2 {
			return nil, tree.Location{}, false
		}
		i, j := b.pick()
		z, err := update.NewTreeZone(b.store, b.loc("/"), b.loc("/body[%d]", i), b.loc("/body[%d]", j))
		if err != nil {
			return nil, tree.Location{}, false
		}
		plan, err := update.NewTreeZonePatch(z, []update.Patch{b.subtree("/body[%d]", j), b.subtree("/body[%d]", i)})
		return plan, b.loc("/"), err == nil
	})
}

func (b *bench) wraps() BenchResult {
	return b.run("Wrap expressions", func() (update.Patch, tree.Location, bool) {
		i := b.rng.Intn(b.size)
		fz, err := update.NewFreeZoneFromDoc(b.store, negDoc)
		if err != nil {
			return nil, tree.Location{}, false
		}
		plan, err := update.NewFreePatch(fz, []update.Patch{b.subtree("/body[%d]/expr", i)})
		return plan, b.loc("/body[%d]/expr", i), err == nil
	})
}

func (b *bench) unwraps() BenchResult {
	return b.run("Unwrap expressions", func() (update.Patch, tree.Location, bool) {
		i := b.rng.Intn(b.size)
		expr := b.loc("/body[%d]/expr", i)
		id, err := b.store.Child(expr)
		if err != nil {
			return nil, tree.Location{}, false
		}
		if n, err := b.store.Node(id); err != nil || n.Kind() != "Neg" {
			return nil, tree.Location{}, false
		}
		z, err := update.NewTreeZone(b.store, expr, b.loc("/body[%d]/expr/op", i))
		if err != nil {
			return nil, tree.Location{}, false
		}
		plan, err := update.NewTreeZonePatch(z, []update.Patch{b.subtree("/body[%d]/expr/op", i)})
		return plan, expr, err == nil
	})
}

func (b *bench) copies() BenchResult {
	return b.run("Copy statements", func() (update.Patch, tree.Location, bool) {
		if b.size < 2 {
			return nil, tree.Location{}, false
		}
		i, j := b.pick()
		if b.rng.Intn(2) == 0 {
			i, j = j, i
		}
		z, err := update.NewTreeZone(b.store, b.loc("/"), b.loc("/body[%d]", j))
		if err != nil {
			return nil, tree.Location{}, false
		}
		plan, err := update.NewTreeZonePatch(z, []update.Patch{b.subtree("/body[%d]", i)})
		return plan, b.loc("/"), err == nil
	})
}

// failures applies plans that are rejected at commit time and verifies the
// tree is untouched by each.
func (b *bench) failures() BenchResult {
	before := b.store.Fingerprint(b.rootContent())
	r := b.run("Failed updates (rollback)", func() (update.Patch, tree.Location, bool) {
		i := b.rng.Intn(b.size)
		fz, err := update.NewFreeZoneFromDoc(b.store, pairDoc)
		if err != nil {
			return nil, tree.Location{}, false
		}
		free, err := update.NewFreePatch(fz, nil)
		if err != nil {
			return nil, tree.Location{}, false
		}
		z, err := update.NewTreeZone(b.store, b.loc("/"), b.loc("/body[%d]", i))
		if err != nil {
			return nil, tree.Location{}, false
		}
		plan, err := update.NewTreeZonePatch(z, []update.Patch{free})
		return plan, b.loc("/"), err == nil
	})
	if b.store.Fingerprint(b.rootContent()) != before {
		r.Extra += ", ERROR: tree changed"
	} else {
		r.Extra += ", tree unchanged"
	}
	return r
}

func (b *bench) snapshot() BenchResult {
	start := time.Now()
	root := b.rootContent()
	data, err := b.store.EncodeCBOR(root)
	if err != nil {
		return BenchResult{Name: "CBOR round trip", Extra: fmt.Sprintf("ERROR: %v", err)}
	}
	other := tree.NewStore(tree.Options{})
	copied, err := other.DecodeCBOR(data)
	if err != nil {
		return BenchResult{Name: "CBOR round trip", Extra: fmt.Sprintf("ERROR: %v", err)}
	}
	extra := fmt.Sprintf("%d KB", len(data)/1024)
	if other.Fingerprint(copied) != b.store.Fingerprint(root) {
		extra = "ERROR: fingerprint mismatch"
	}
	return BenchResult{Name: "CBOR round trip", Duration: time.Since(start), Ops: 1, Extra: extra}
}
