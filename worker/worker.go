// Package worker implements the barrier-synchronized tick loop that
// drives agents in parallel: a Worker owns a fixed subset of agents and
// a tick granularity, and a WorkGroup is a set of Workers sharing both.
package worker

import (
	"sync"

	"github.com/smart-fm/simkernel/bus"
	"github.com/smart-fm/simkernel/entity"
	"github.com/smart-fm/simkernel/simerr"
	"github.com/smart-fm/simkernel/utils/container"
)

// SetupFunc is an ad-hoc callback a Worker runs once per aligned tick,
// before updating its agents. The zero-time loader step uses this to
// run setup work that needs to happen on a worker's own thread.
type SetupFunc func(w *Worker, tickMs int64) error

// Worker drives one fixed subset of agents at its WorkGroup's tick
// granularity. Add and WorkGroup.Migrate only queue changes, which the
// Worker applies at the end of its own tick (or when
// WorkGroup.PrimeAgents runs); an agent leaves the set once the Worker
// sees its removal flag.
type Worker struct {
	idx   int
	group *WorkGroup

	agents *container.IncrementalArray[entity.Updatable]
	setup  SetupFunc

	busInst *bus.Bus
	busCtx  *bus.Context

	mu    sync.Mutex
	fatal error
}

func newWorker(idx int, g *WorkGroup) *Worker {
	return &Worker{
		idx:    idx,
		group:  g,
		agents: container.NewIncrementalArray[entity.Updatable](),
	}
}

// Index returns this Worker's position within its WorkGroup.
func (w *Worker) Index() int { return w.idx }

// Add queues an agent for insertion into this Worker's set, applied at
// the next tick boundary. An Add queued before StartAll only takes
// effect once something calls Prepare: WorkGroup.PrimeAgents, or the
// end of the Worker's first tick.
func (w *Worker) Add(agent entity.Updatable) {
	w.agents.Add(agent)
}

// Len returns the number of agents currently assigned to this Worker
// (after the most recently applied tick boundary).
func (w *Worker) Len() int { return w.agents.Len() }

// Agents returns this Worker's current agent set. The slice is owned by
// the Worker and must not be mutated by the caller.
func (w *Worker) Agents() []entity.Updatable { return w.agents.Data() }

// AttachBus registers this Worker on the given bus under its own
// thread context, so ThreadDispatchMessages runs once per base tick on
// this Worker's own goroutine, matching the original's per-thread
// message dispatch.
func (w *Worker) AttachBus(b *bus.Bus, name string) {
	w.busInst = b
	w.busCtx = b.RegisterThread(name)
}

// FatalErr returns the first fatal error raised by an agent Update on
// this Worker, or nil if none occurred.
func (w *Worker) FatalErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fatal
}

func (w *Worker) setFatal(err error) {
	w.mu.Lock()
	if w.fatal == nil {
		w.fatal = err
	}
	w.mu.Unlock()
}

// run is the Worker's main loop, per spec.md §4.2: every base tick it
// dispatches queued messages, conditionally updates its agents, then
// crosses the update and flip barriers shared by the whole simulation,
// and finally applies pending removals and migrations before
// rendezvousing with its WorkGroup's own per-tick completion barrier.
func (w *Worker) run(baseGranMs int64) {
	for tick := int64(0); ; tick++ {
		if w.group.stopRequested() {
			w.group.updateBarrier.Arrive()
			w.group.flipBarrier.Arrive()
			w.group.doneBarrier.Arrive()
			return
		}

		tickMs := tick * baseGranMs

		if w.busInst != nil {
			w.busInst.ThreadDispatchMessages(w.busCtx)
		}

		aligned := tick%w.group.granularityTicks == 0
		if aligned {
			w.doWork(tickMs)
		}

		w.group.updateBarrier.Arrive()

		if aligned {
			w.flipAll()
		}

		w.group.flipBarrier.Arrive()

		if aligned {
			w.reapRemoved()
		}
		w.group.prepareWorker(w)

		w.group.doneBarrier.Arrive()
	}
}

func (w *Worker) doWork(tickMs int64) {
	if w.setup != nil {
		if err := w.setup(w, tickMs); err != nil {
			w.handleErr(err)
		}
	}
	for _, a := range w.agents.Data() {
		if a.StartTimeMs() > tickMs {
			continue
		}
		if err := a.Update(tickMs); err != nil {
			w.handleErr(err)
		}
	}
}

func (w *Worker) handleErr(err error) {
	kind, ok := simerr.KindOf(err)
	if ok && !kind.Fatal() {
		log.Errorf("worker %d: %v", w.idx, err)
		return
	}
	log.Errorf("worker %d: fatal error: %v", w.idx, err)
	w.setFatal(err)
	w.group.requestStop()
}

func (w *Worker) flipAll() {
	for _, a := range w.agents.Data() {
		a.SubscriptionList().Flip()
	}
}

// reapRemoved queues every agent whose removal flag is set for removal
// at this tick's Prepare(). The agent struct itself is kept alive until
// Prepare runs so in-flight message references from this tick stay
// valid.
func (w *Worker) reapRemoved() {
	for _, a := range w.agents.Data() {
		if a.Removed() {
			w.agents.Remove(a)
		}
	}
}
