package update

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jgraley/inferno-cpp2v-sub002/tree"
	"github.com/rs/zerolog"
)

// Stats counts what one update did.
type Stats struct {
	ID      string
	Elided  int // empty tree zones removed
	Moves   int // zones moved out and back in
	Copies  int // zones duplicated, by choice or to resolve overlap
	Splits  int // zones split at foreign boundaries
	Gaps    int // empty free zones inserted to drop content
	Merges  int // free zones merged into their parents
	Commits int // free zones committed into the tree
}

// Recorder receives the outcome of each update.
type Recorder interface {
	RecordUpdate(stats Stats, elapsed time.Duration, err error)
}

// Options configures an Updater.
type Options struct {
	// OrderingPolicy resolves nested zones competing for the same place.
	OrderingPolicy OrderingPolicy

	// SkipChecks disables the postcondition checks run after each pass.
	SkipChecks bool

	// Logger receives one debug event per pass and one info event per
	// update. Defaults to a disabled logger.
	Logger *zerolog.Logger

	// Recorder, if set, is told about every update.
	Recorder Recorder
}

// Updater applies patch trees to the main tree of a store. An Updater owns
// its store for the duration of Apply and is not safe for concurrent use.
type Updater struct {
	store *tree.Store
	opts  Options
	log   zerolog.Logger
	count uint64
}

// New returns an Updater for the main tree of s.
func New(s *tree.Store, opts Options) *Updater {
	u := &Updater{store: s, opts: opts, log: zerolog.Nop()}
	if opts.Logger != nil {
		u.log = *opts.Logger
	}
	return u
}

// Count returns the number of updates applied successfully.
func (u *Updater) Count() uint64 {
	return u.count
}

// Apply rewrites the main tree below origin as described by plan. Apply
// consumes plan: its zones and content are spent whether or not it
// succeeds. On error the main tree is left as it was.
func (u *Updater) Apply(plan Patch, origin tree.Location) (Stats, error) {
	stats := Stats{ID: uuid.NewString()}
	log := u.log.With().Str("update", stats.ID).Logger()
	start := time.Now()

	err := u.apply(&plan, origin, &stats, log)
	elapsed := time.Since(start)
	if u.opts.Recorder != nil {
		u.opts.Recorder.RecordUpdate(stats, elapsed, err)
	}
	if err != nil {
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("update failed")
		return stats, err
	}
	u.count++
	log.Info().
		Int("moves", stats.Moves).
		Int("copies", stats.Copies).
		Int("commits", stats.Commits).
		Dur("elapsed", elapsed).
		Msg("update applied")
	return stats, nil
}

func (u *Updater) apply(root *Patch, origin tree.Location, stats *Stats, log zerolog.Logger) (err error) {
	s := u.store
	if *root == nil {
		return fmt.Errorf("%w: nil plan", ErrArity)
	}
	if id, ok := s.TreeOf(origin); !ok || id != s.Main() {
		return fmt.Errorf("%w: origin %v is not in the main tree", ErrNotFound, origin)
	}
	auxBefore := s.Stats().AuxiliaryTrees

	if err := s.Begin(stats.ID); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := s.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("rollback failed")
			}
			return
		}
		err = s.Commit()
	}()

	step := func(pass string, run func() error) error {
		if err := run(); err != nil {
			return fmt.Errorf("%s: %w", pass, err)
		}
		log.Debug().Str("pass", pass).Msg("pass complete")
		return nil
	}
	check := func(pass string, run func() error) error {
		if u.opts.SkipChecks {
			return nil
		}
		return step(pass+" check", run)
	}

	emptyZones := NewEmptyZonePass()
	ordering := NewOrderingPass(s, u.opts.OrderingPolicy)
	overlap := NewOverlapPass(s)
	boundary := NewBoundaryPass(s)
	merge := NewMergeFreesPass(s)
	var moves map[tree.NodeID]moveRecord

	steps := []struct {
		name  string
		check bool
		run   func() error
	}{
		{"empty-zone", false, func() error {
			stats.Elided = emptyZones.Run(root)
			return nil
		}},
		{"ordering", false, func() error {
			_, err := ordering.Run(*root, origin)
			return err
		}},
		{"ordering", true, func() error { return ordering.Check(*root, origin) }},
		{"choose-copies", false, func() error {
			NewChooseCopiesPass(s).Run(*root, origin)
			return nil
		}},
		{"copying", false, func() error {
			n, err := NewCopyingPass(s).Run(root)
			stats.Copies += n
			return err
		}},
		{"overlap", false, func() error {
			n, err := overlap.Run(root)
			stats.Copies += n
			return err
		}},
		{"overlap", true, func() error { return overlap.Check(*root) }},
		{"boundary", false, func() error {
			n, err := boundary.Run(root)
			stats.Splits = n
			return err
		}},
		{"boundary", true, func() error { return boundary.Check(*root) }},
		{"gap-finding", false, func() error {
			stats.Gaps = NewGapFindingPass().Run(root, origin)
			return nil
		}},
		{"empty-zone", true, func() error { return emptyZones.Check(*root) }},
		{"merge-frees", false, func() error {
			n, err := merge.Run(root)
			stats.Merges += n
			return err
		}},
		{"merge-frees", true, func() error { return merge.Check(*root) }},
		{"move-out", false, func() error {
			var err error
			moves, err = NewMoveOutPass(s).Run(root)
			stats.Moves = len(moves)
			return err
		}},
		{"merge-frees", false, func() error {
			n, err := merge.Run(root)
			stats.Merges += n
			return err
		}},
		{"merge-frees", true, func() error { return merge.Check(*root) }},
		{"inversion", false, func() error {
			n, err := NewInversionPass(s).Run(*root, origin)
			stats.Commits = n
			return err
		}},
		{"move-in", false, func() error { return NewMoveInPass(s).Run(moves) }},
		{"scaffold", true, func() error { return u.checkScaffoldFree(origin) }},
	}
	for _, st := range steps {
		if st.check {
			err = check(st.name, st.run)
		} else {
			err = step(st.name, st.run)
		}
		if err != nil {
			return err
		}
	}

	if n := s.Stats().AuxiliaryTrees; n != auxBefore {
		return fmt.Errorf("%w: %d auxiliary trees left behind", ErrInvariant, n-auxBefore)
	}
	return nil
}

// checkScaffoldFree verifies that no scaffold remains below origin.
func (u *Updater) checkScaffoldFree(origin tree.Location) error {
	s := u.store
	var visit func(loc tree.Location) error
	visit = func(loc tree.Location) error {
		id, err := s.Child(loc)
		if err != nil || id == 0 {
			return err
		}
		n, err := s.Node(id)
		if err != nil {
			return err
		}
		if n.IsScaffold() {
			return fmt.Errorf("%w: scaffold left at %s", ErrInvariant, s.PathOf(loc))
		}
		for _, c := range s.ChildLocations(id) {
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(origin)
}
