package worker

import (
	"sync"
	"sync/atomic"

	"github.com/smart-fm/simkernel/entity"
	"github.com/smart-fm/simkernel/simerr"
)

// WorkGroup is a set of Workers sharing a tick granularity. Workers in
// different WorkGroups of the same run share the update and flip
// barriers passed to NewWorkGroup, so every group stays locked to the
// same base tick even though only aligned groups do useful work on it.
type WorkGroup struct {
	name             string
	granularityTicks int64

	workers []*Worker

	updateBarrier *Barrier
	flipBarrier   *Barrier
	doneBarrier   *Barrier // sized len(workers)+1; the +1 is this group's Wait caller

	stopped atomic.Bool
	started sync.Once

	// prepareMu serializes the IncrementalArray.Prepare() calls of every
	// Worker in this group. A migrated agent's index is mutated by both
	// the source and destination array's Prepare(); without this lock two
	// Workers' goroutines could write that shared field concurrently.
	prepareMu sync.Mutex
}

// NewWorkGroup creates a WorkGroup of numWorkers Workers ticking every
// granularityTicks base ticks, sharing updateBarrier/flipBarrier with
// every other WorkGroup in the same run.
func NewWorkGroup(name string, numWorkers int, granularityTicks int64, updateBarrier, flipBarrier *Barrier) *WorkGroup {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if granularityTicks < 1 {
		granularityTicks = 1
	}
	g := &WorkGroup{
		name:             name,
		granularityTicks: granularityTicks,
		updateBarrier:    updateBarrier,
		flipBarrier:      flipBarrier,
	}
	g.doneBarrier = NewBarrier(numWorkers + 1)
	g.workers = make([]*Worker, numWorkers)
	for i := range g.workers {
		g.workers[i] = newWorker(i, g)
	}
	return g
}

// Name returns this WorkGroup's label, used only for logging and the
// driver's fixed evaluation order.
func (g *WorkGroup) Name() string { return g.name }

// Workers returns the Workers belonging to this group, in index order.
func (g *WorkGroup) Workers() []*Worker { return g.workers }

// InitWorkers assigns an optional per-tick setup callback to every
// Worker in the group; see SetupFunc.
func (g *WorkGroup) InitWorkers(setup SetupFunc) {
	for _, w := range g.workers {
		w.setup = setup
	}
}

// StartAll spawns one goroutine per Worker, each running its tick loop
// at baseGranMs milliseconds per base tick.
func (g *WorkGroup) StartAll(baseGranMs int64) {
	g.started.Do(func() {
		for _, w := range g.workers {
			w := w
			go w.run(baseGranMs)
		}
	})
}

// PrimeAgents applies every agent queued via Worker.Add before StartAll
// runs. Without this, an agent added before the first tick would only
// become visible to doWork starting from the second tick, since Add is
// only applied by the Prepare() a running Worker calls at the end of
// its own tick loop.
func (g *WorkGroup) PrimeAgents() {
	for _, w := range g.workers {
		g.prepareWorker(w)
	}
}

// Wait is called once per base tick by the driver, in the fixed
// cross-group order the run requires. It blocks until every Worker in
// this group has cleared both the update and flip barriers and applied
// its removals and migrations for the current tick.
func (g *WorkGroup) Wait() {
	g.doneBarrier.Arrive()
}

// Migrate moves an agent from one Worker to another within this group.
// The transfer is queued and takes effect at the next tick boundary,
// per spec.md §4.2: migration is only safe while no worker is between
// the two barriers.
func (g *WorkGroup) Migrate(agent entity.Updatable, fromWorkerIdx, toWorkerIdx int) error {
	if fromWorkerIdx < 0 || fromWorkerIdx >= len(g.workers) || toWorkerIdx < 0 || toWorkerIdx >= len(g.workers) {
		return simerr.New(simerr.ConfigInvalid,
			"work-group %s: migrate index out of range (%d -> %d, have %d workers)", g.name, fromWorkerIdx, toWorkerIdx, len(g.workers))
	}
	if fromWorkerIdx == toWorkerIdx {
		return nil
	}
	g.workers[fromWorkerIdx].agents.Remove(agent)
	g.workers[toWorkerIdx].agents.Add(agent)
	return nil
}

// FatalErr returns the first fatal error any Worker in this group
// raised, or nil.
func (g *WorkGroup) FatalErr() error {
	for _, w := range g.workers {
		if err := w.FatalErr(); err != nil {
			return err
		}
	}
	return nil
}

// Stop requests every Worker in this group to exit after its current
// tick's barriers. It does not block; call Wait afterward to drain the
// final tick.
func (g *WorkGroup) Stop() {
	g.requestStop()
}

func (g *WorkGroup) requestStop() {
	g.stopped.Store(true)
}

func (g *WorkGroup) stopRequested() bool {
	return g.stopped.Load()
}

func (g *WorkGroup) prepareWorker(w *Worker) {
	g.prepareMu.Lock()
	defer g.prepareMu.Unlock()
	w.agents.Prepare()
}
