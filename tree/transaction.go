package tree

import "errors"

// Transaction errors
var (
	// ErrTransactionPending indicates that a transaction is already active.
	ErrTransactionPending = errors.New("transaction already active")

	// ErrNoTransaction indicates that there is no active transaction.
	ErrNoTransaction = errors.New("no active transaction")
)

// journalEntry records that loc held prev before a write.
type journalEntry struct {
	loc  Location
	prev NodeID

	// appended marks an element added by AppendElement; rollback removes it.
	appended bool
}

// transaction holds the undo state of an active transaction.
type transaction struct {
	name     string
	markNode NodeID
	markTree TreeID
	entries  []journalEntry

	// released nodes are only unregistered at commit, so that rollback can
	// put them back.
	released []NodeID

	// dropped trees were torn down during the transaction.
	dropped []*treeInfo
}

// Begin starts a transaction. Until Commit or Rollback, every write to the
// store is journaled and releases are deferred.
func (s *Store) Begin(name string) error {
	if s.txn != nil {
		return ErrTransactionPending
	}
	s.txn = &transaction{name: name, markNode: s.nextNodeID, markTree: s.nextTreeID}
	s.log.Trace().Str("txn", name).Msg("transaction started")
	return nil
}

// InTransaction reports whether a transaction is active.
func (s *Store) InTransaction() bool {
	return s.txn != nil
}

// Commit makes the active transaction's writes permanent and unregisters the
// content it released.
func (s *Store) Commit() error {
	txn := s.txn
	if txn == nil {
		return ErrNoTransaction
	}
	s.txn = nil
	for _, id := range txn.released {
		if _, attached := s.ParentOf(id); !attached {
			s.release(id)
		}
	}
	for _, info := range txn.dropped {
		delete(s.nodes, info.holder)
	}
	s.log.Trace().Str("txn", txn.name).Int("writes", len(txn.entries)).Msg("transaction committed")
	return nil
}

// Rollback undoes every write of the active transaction, restores torn-down
// trees, and unregisters content created since Begin.
func (s *Store) Rollback() error {
	txn := s.txn
	if txn == nil {
		return ErrNoTransaction
	}
	s.txn = nil

	for i := len(txn.entries) - 1; i >= 0; i-- {
		e := txn.entries[i]
		if e.appended {
			s.removeElement(e.loc)
			continue
		}
		// The content being displaced was itself written during the
		// transaction and is detached again by this exchange.
		if _, err := s.Exchange(e.loc, 0); err != nil {
			continue
		}
		if e.prev != 0 {
			_, _ = s.Exchange(e.loc, e.prev)
		}
	}

	for _, info := range txn.dropped {
		if info.id < txn.markTree {
			s.trees[info.id] = info
		}
	}
	for id := range s.trees {
		if id >= txn.markTree {
			delete(s.trees, id)
		}
	}
	for id := range s.nodes {
		if id >= txn.markNode {
			delete(s.nodes, id)
		}
	}
	// Older content adopted by nodes created in the transaction is detached.
	for _, n := range s.nodes {
		if n.parent != (Location{}) && !s.Has(n.parent.Parent) {
			n.parent = Location{}
		}
	}
	s.log.Trace().Str("txn", txn.name).Int("writes", len(txn.entries)).Msg("transaction rolled back")
	return nil
}

// journal records a write when a transaction is active.
func (s *Store) journal(e journalEntry) {
	if s.txn != nil {
		s.txn.entries = append(s.txn.entries, e)
	}
}

// removeElement deletes the container element at loc.
func (s *Store) removeElement(loc Location) {
	n, ok := s.nodes[loc.Parent]
	if !ok || loc.Item >= len(n.items) {
		return
	}
	j := n.slotIndex(loc.Item, loc.Slot)
	if j < 0 {
		return
	}
	it := n.items[loc.Item]
	if c := it.elems[j].child; c != 0 {
		if cn, ok := s.nodes[c]; ok {
			cn.parent = Location{}
		}
	}
	it.elems = append(it.elems[:j], it.elems[j+1:]...)
}
