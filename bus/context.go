// Package bus implements the thread-context-aware publish/subscribe
// message bus that lets agents on different workers exchange messages
// and events without touching each other's memory directly. See
// spec.md §4.7.
//
// The original design exposes thread identity through OS thread-local
// storage: whichever thread calls RegisterThread "is" that context from
// then on, implicitly, for every later call. Goroutines are not bound
// to OS threads, so that trick does not translate; a Context here is an
// explicit token a Worker acquires once and passes to every Bus call it
// makes. This is a deliberate deviation from the original API, not an
// oversight - see DESIGN.md.
package bus

import "sync"

// Context identifies one participant in the bus: the simulation driver
// (the "main thread") or one Worker. All delivery ordering guarantees
// are scoped to a (sender Context, target Handler) pair.
type Context struct {
	name string

	outMu sync.Mutex
	out   []job

	inMu sync.Mutex
	in   []job
}

// Name returns the label the context was registered with.
func (c *Context) Name() string {
	return c.name
}

func (c *Context) enqueueOut(j job) {
	c.outMu.Lock()
	c.out = append(c.out, j)
	c.outMu.Unlock()
}

func (c *Context) drainOut() []job {
	c.outMu.Lock()
	out := c.out
	c.out = nil
	c.outMu.Unlock()
	return out
}

func (c *Context) enqueueIn(j job) {
	c.inMu.Lock()
	c.in = append(c.in, j)
	c.inMu.Unlock()
}

func (c *Context) drainIn() []job {
	c.inMu.Lock()
	in := c.in
	c.in = nil
	c.inMu.Unlock()
	return in
}
