package worker

import "sync"

// Barrier is a cyclic rendezvous point for a fixed number of parties
// that is reused tick after tick: once every party has called Arrive
// for the current generation, all of them are released together and
// the barrier is ready for the next round. Modeled on the cond-based
// wait/mark-done loop of a cycle coordinator, collapsed to a plain
// generation counter since every party always advances together here
// (there is no per-party target cycle to track).
type Barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	parties    int
	arrived    int
	generation uint64
	stopped    bool
}

// NewBarrier creates a Barrier for the given number of parties. parties
// must be at least 1.
func NewBarrier(parties int) *Barrier {
	b := &Barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Arrive blocks the calling goroutine until every party has called
// Arrive for the current generation, then returns for all of them at
// once. A Stop call unblocks every current and future caller
// immediately.
func (b *Barrier) Arrive() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	gen := b.generation
	b.arrived++
	if b.arrived == b.parties {
		b.arrived = 0
		b.generation++
		b.cond.Broadcast()
		return
	}
	for gen == b.generation && !b.stopped {
		b.cond.Wait()
	}
}

// Stop releases every goroutine currently blocked in Arrive and makes
// all future Arrive calls return immediately. Used to unwind worker
// goroutines when a run ends.
func (b *Barrier) Stop() {
	b.mu.Lock()
	b.stopped = true
	b.cond.Broadcast()
	b.mu.Unlock()
}
