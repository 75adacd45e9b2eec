// Package buffered implements the double-buffered value cells that let
// every agent write its next state without racing readers on other
// workers: writers mutate the tentative side, flip() (called only from
// the owning worker's flip barrier) promotes tentative to committed,
// and readers always see committed. See spec.md §4.1.
package buffered

import "sync/atomic"

// Flippable is satisfied by any buffered cell. A worker's subscription
// list is a []Flippable assembled from an Agent's own cells plus its
// current Role's cells (spec.md §9).
type Flippable interface {
	flip()
}

// Cell is a double-buffered slot holding one committed and one
// tentative value of T. Reads are wait-free; writes are wait-free and
// restricted (by convention, not the type system - see worker.Worker)
// to the owning agent's update phase.
type Cell[T any] struct {
	committed atomic.Pointer[T]
	tentative T
	written   bool
}

// NewCell creates a Cell with both sides initialized to v.
func NewCell[T any](v T) *Cell[T] {
	c := &Cell[T]{tentative: v}
	c.committed.Store(&v)
	return c
}

// Get returns the committed value. Safe to call from any goroutine at
// any time; per spec.md invariant 2 it should only be called outside
// the writer's update-to-flip window to observe a value written this
// tick.
func (c *Cell[T]) Get() T {
	return *c.committed.Load()
}

// Set writes the tentative value. Only the owning agent should call
// this, and only between the update and flip barriers of its worker.
func (c *Cell[T]) Set(v T) {
	c.tentative = v
	c.written = true
}

// flip promotes the tentative value to committed. Called only by the
// owning worker during its flip barrier phase; never called
// concurrently with Set on the same Cell because Set only happens
// during the update phase and flip only happens after every worker has
// cleared the update barrier.
func (c *Cell[T]) flip() {
	if !c.written {
		return
	}
	v := c.tentative
	c.committed.Store(&v)
	c.written = false
}

// SubscriptionList is the ordered set of cells a worker flips for one
// agent: the agent's own cells plus its current Role's cells.
type SubscriptionList []Flippable

// Flip flips every cell in the list. Called once per tick, per agent,
// during the owning worker's flip barrier phase.
func (s SubscriptionList) Flip() {
	for _, f := range s {
		f.flip()
	}
}

// Diff returns the cells present in next but not in prev, by identity.
// The Worker does not call it: it re-reads every agent's
// SubscriptionList each tick, so cells added by a Role change are
// flipped from the next flip phase on.
func Diff(prev, next SubscriptionList) SubscriptionList {
	seen := make(map[Flippable]struct{}, len(prev))
	for _, f := range prev {
		seen[f] = struct{}{}
	}
	added := make(SubscriptionList, 0, len(next))
	for _, f := range next {
		if _, ok := seen[f]; !ok {
			added = append(added, f)
		}
	}
	return added
}
