package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jgraley/inferno-cpp2v-sub002/internal/config"
	"github.com/jgraley/inferno-cpp2v-sub002/internal/observability"
	"github.com/jgraley/inferno-cpp2v-sub002/tree"
	"github.com/jgraley/inferno-cpp2v-sub002/update"
	"github.com/rs/zerolog"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// session holds the state of one interactive session.
type session struct {
	out io.Writer
	cfg config.Config
	log zerolog.Logger

	store   *tree.Store
	updater *update.Updater

	// pending plan, loaded by "plan" and consumed by "apply"
	plan   update.Patch
	origin tree.Location
}

func newSession(out io.Writer, cfg config.Config, log zerolog.Logger) *session {
	return &session{out: out, cfg: cfg, log: log}
}

// handle runs one command line. It returns false when the session should end.
func (r *session) handle(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help":
		r.printHelp()
	case "quit", "exit":
		fmt.Fprintln(r.out, "Goodbye!")
		return false
	case "load":
		err = r.cmdLoad(args)
	case "show":
		err = r.cmdShow(args)
	case "paths":
		err = r.cmdPaths(args)
	case "plan":
		err = r.cmdPlan(args)
	case "apply":
		err = r.cmdApply(args)
	case "save":
		err = r.cmdSave(args)
	case "restore":
		err = r.cmdRestore(args)
	case "stats":
		err = r.cmdStats()
	default:
		fmt.Fprintf(r.out, "Unknown command: %s. Type 'help' for available commands.\n", cmd)
	}
	if err != nil {
		fmt.Fprintln(r.out, errStyle.Render("Error: "+err.Error()))
	}
	return true
}

func (r *session) printHelp() {
	help := `
Available Commands:
-------------------

TREE:
  load <file.yaml>        Load a YAML node document as the main tree
  show [path]             Show the subtree at path (default /)
  paths [path]            List every location below path
  save <file>             Write the main tree as a CBOR snapshot
  restore <file>          Replace the main tree with a CBOR snapshot

UPDATES:
  plan <file.yaml>        Load a plan and show its patch tree
  apply [file.yaml]       Apply the loaded plan, or load and apply a file

OTHER:
  stats                   Show store and update counters
  help                    Show this help message
  quit, exit              Exit the REPL
`
	fmt.Fprintln(r.out, help)
}

func (r *session) ensureTree() error {
	if r.store == nil {
		return fmt.Errorf("no tree is loaded; use 'load <file.yaml>'")
	}
	return nil
}

// install replaces the store with a new one whose main tree holds the
// content built by build.
func (r *session) install(build func(s *tree.Store) (tree.NodeID, error)) error {
	storeLog := r.log.With().Str("component", "store").Logger()
	s := tree.NewStore(tree.Options{Logger: &storeLog})
	root, err := build(s)
	if err != nil {
		return err
	}
	if _, err := s.CreateMainTree(root); err != nil {
		return err
	}
	opts := r.cfg.UpdateOptions()
	updLog := r.log.With().Str("component", "update").Logger()
	opts.Logger = &updLog
	opts.Recorder = observability.Recorder()

	r.store = s
	r.updater = update.New(s, opts)
	r.plan = nil
	return nil
}

func (r *session) cmdLoad(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: load <file.yaml>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	if err := r.install(func(s *tree.Store) (tree.NodeID, error) { return s.LoadYAML(f) }); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Loaded %s (%d nodes)\n", args[0], r.store.Stats().Nodes)
	return nil
}

func (r *session) resolve(args []string) (tree.Location, error) {
	path := "/"
	if len(args) > 0 {
		path = args[0]
	}
	return r.store.Resolve(r.store.Main(), path)
}

func (r *session) cmdShow(args []string) error {
	if err := r.ensureTree(); err != nil {
		return err
	}
	loc, err := r.resolve(args)
	if err != nil {
		return err
	}
	id, err := r.store.Child(loc)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, r.store.Format(id))
	return nil
}

func (r *session) cmdPaths(args []string) error {
	if err := r.ensureTree(); err != nil {
		return err
	}
	loc, err := r.resolve(args)
	if err != nil {
		return err
	}
	var walk func(loc tree.Location, depth int) error
	walk = func(loc tree.Location, depth int) error {
		id, err := r.store.Child(loc)
		if err != nil {
			return err
		}
		kind := "_"
		if n, err := r.store.Node(id); err == nil {
			kind = n.Kind()
		}
		fmt.Fprintf(r.out, "%s%s %s\n", strings.Repeat("  ", depth),
			r.store.PathOf(loc), labelStyle.Render(kind))
		for _, c := range r.store.ChildLocations(id) {
			if err := walk(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(loc, 0)
}

// discardPlan releases the free content of the pending plan.
func (r *session) discardPlan() {
	if r.plan == nil {
		return
	}
	_ = update.Walk(r.plan, func(p update.Patch) error {
		if fp, ok := p.(*update.FreePatch); ok && fp.FreeZone().Base() != 0 {
			r.store.Release(fp.FreeZone().Base())
		}
		return nil
	})
	r.plan = nil
}

func (r *session) cmdPlan(args []string) error {
	if err := r.ensureTree(); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: plan <file.yaml>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	plan, origin, err := update.LoadPlanYAML(r.store, r.store.Main(), f)
	if err != nil {
		return err
	}
	r.discardPlan()
	r.plan, r.origin = plan, origin

	trees, frees := update.Count(plan)
	fmt.Fprintf(r.out, "Plan at %s: %d tree patches, %d free patches\n",
		r.store.PathOf(origin), trees, frees)
	fmt.Fprint(r.out, update.Dump(r.store, plan))
	return nil
}

func (r *session) cmdApply(args []string) error {
	if len(args) > 0 {
		if err := r.cmdPlan(args); err != nil {
			return err
		}
	}
	if err := r.ensureTree(); err != nil {
		return err
	}
	if r.plan == nil {
		return fmt.Errorf("no plan is loaded; use 'plan <file.yaml>'")
	}
	plan := r.plan
	r.plan = nil
	stats, err := r.updater.Apply(plan, r.origin)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, okStyle.Render("Applied "+stats.ID))
	fmt.Fprintf(r.out, "  moves=%d copies=%d splits=%d gaps=%d merges=%d commits=%d elided=%d\n",
		stats.Moves, stats.Copies, stats.Splits, stats.Gaps, stats.Merges, stats.Commits, stats.Elided)
	return nil
}

func (r *session) cmdSave(args []string) error {
	if err := r.ensureTree(); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: save <file>")
	}
	loc, err := r.store.Root(r.store.Main())
	if err != nil {
		return err
	}
	root, err := r.store.Child(loc)
	if err != nil {
		return err
	}
	data, err := r.store.EncodeCBOR(root)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Saved %d bytes to %s\n", len(data), args[0])
	return nil
}

func (r *session) cmdRestore(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: restore <file>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	if err := r.install(func(s *tree.Store) (tree.NodeID, error) { return s.DecodeCBOR(data) }); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Restored %s (%d nodes)\n", args[0], r.store.Stats().Nodes)
	return nil
}

func (r *session) cmdStats() error {
	if err := r.ensureTree(); err != nil {
		return err
	}
	st := r.store.Stats()
	loc, err := r.store.Root(r.store.Main())
	if err != nil {
		return err
	}
	root, err := r.store.Child(loc)
	if err != nil {
		return err
	}
	sum := r.store.Fingerprint(root)
	fmt.Fprintln(r.out, "Store Status:")
	fmt.Fprintf(r.out, "  Nodes:       %d\n", st.Nodes)
	fmt.Fprintf(r.out, "  Trees:       %d (auxiliary: %d)\n", st.Trees, st.AuxiliaryTrees)
	fmt.Fprintf(r.out, "  Updates:     %d\n", r.updater.Count())
	fmt.Fprintf(r.out, "  Pending:     %v\n", r.plan != nil)
	fmt.Fprintf(r.out, "  Fingerprint: %s\n", hex.EncodeToString(sum[:8]))
	return nil
}
