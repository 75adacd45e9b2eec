package worker_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-fm/simkernel/buffered"
	"github.com/smart-fm/simkernel/entity"
	"github.com/smart-fm/simkernel/worker"
)

// fakeAgent is a minimal entity.Updatable test double that records
// every tick it was updated at.
type fakeAgent struct {
	id          entity.ID
	startTimeMs int64
	index       int
	removed     bool
	removeAfter int // mark removed once updateCount reaches this; 0 = never

	mu          sync.Mutex
	updateCount int
	ticksSeenMs []int64

	cell *buffered.Cell[int64]
}

func newFakeAgent(id entity.ID) *fakeAgent {
	return &fakeAgent{id: id, cell: buffered.NewCell[int64](0)}
}

func (a *fakeAgent) Index() int        { return a.index }
func (a *fakeAgent) SetIndex(i int)    { a.index = i }
func (a *fakeAgent) ID() entity.ID     { return a.id }
func (a *fakeAgent) StartTimeMs() int64 { return a.startTimeMs }
func (a *fakeAgent) Removed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.removed
}
func (a *fakeAgent) SubscriptionList() buffered.SubscriptionList {
	return buffered.SubscriptionList{a.cell}
}

func (a *fakeAgent) Update(tickMs int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.updateCount++
	a.ticksSeenMs = append(a.ticksSeenMs, tickMs)
	a.cell.Set(tickMs)
	if a.removeAfter > 0 && a.updateCount >= a.removeAfter {
		a.removed = true
	}
	return nil
}

func (a *fakeAgent) snapshot() (count int, ticks []int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]int64, len(a.ticksSeenMs))
	copy(out, a.ticksSeenMs)
	return a.updateCount, out
}

func TestWorkGroupGranularityControlsUpdateFrequency(t *testing.T) {
	updateBarrier := worker.NewBarrier(3) // agents group (1 worker) + signals group (1 worker) + main
	flipBarrier := worker.NewBarrier(3)

	agentsGroup := worker.NewWorkGroup("agents", 1, 1, updateBarrier, flipBarrier)
	signalsGroup := worker.NewWorkGroup("signals", 1, 5, updateBarrier, flipBarrier)

	a1 := newFakeAgent(1)
	agentsGroup.Workers()[0].Add(a1)
	s1 := newFakeAgent(2)
	signalsGroup.Workers()[0].Add(s1)
	agentsGroup.PrimeAgents()
	signalsGroup.PrimeAgents()

	const baseGranMs = 100
	agentsGroup.StartAll(baseGranMs)
	signalsGroup.StartAll(baseGranMs)

	for tick := 0; tick < 10; tick++ {
		updateBarrier.Arrive()
		flipBarrier.Arrive()
		agentsGroup.Wait()
		signalsGroup.Wait()
	}

	agentsGroup.Stop()
	signalsGroup.Stop()
	updateBarrier.Arrive()
	flipBarrier.Arrive()
	agentsGroup.Wait()
	signalsGroup.Wait()

	agentCount, _ := a1.snapshot()
	signalCount, _ := s1.snapshot()
	assert.Equal(t, 10, agentCount, "granularity-1 group should update every base tick")
	assert.Equal(t, 2, signalCount, "granularity-5 group should update on ticks 0 and 5 only")
}

func TestWorkerFlipsCellsAfterBarrier(t *testing.T) {
	updateBarrier := worker.NewBarrier(2)
	flipBarrier := worker.NewBarrier(2)
	group := worker.NewWorkGroup("agents", 1, 1, updateBarrier, flipBarrier)

	a1 := newFakeAgent(1)
	group.Workers()[0].Add(a1)
	group.StartAll(50)

	updateBarrier.Arrive()
	flipBarrier.Arrive()
	group.Wait()

	assert.Equal(t, int64(0), a1.cell.Get(), "committed value only visible to readers after the flip")

	updateBarrier.Arrive()
	flipBarrier.Arrive()
	group.Wait()

	assert.Equal(t, int64(50), a1.cell.Get())

	group.Stop()
	updateBarrier.Arrive()
	flipBarrier.Arrive()
	group.Wait()
}

func TestWorkerReapsRemovedAgent(t *testing.T) {
	updateBarrier := worker.NewBarrier(2)
	flipBarrier := worker.NewBarrier(2)
	group := worker.NewWorkGroup("agents", 1, 1, updateBarrier, flipBarrier)

	a1 := newFakeAgent(1)
	a1.removeAfter = 2
	group.Workers()[0].Add(a1)
	group.StartAll(10)

	for tick := 0; tick < 3; tick++ {
		updateBarrier.Arrive()
		flipBarrier.Arrive()
		group.Wait()
	}

	require.Eventually(t, func() bool {
		return group.Workers()[0].Len() == 0
	}, time.Second, time.Millisecond, "removed agent should be dropped from the worker's set")

	group.Stop()
	updateBarrier.Arrive()
	flipBarrier.Arrive()
	group.Wait()
}

func TestWorkGroupMigrateMovesAgentAtNextTick(t *testing.T) {
	updateBarrier := worker.NewBarrier(2)
	flipBarrier := worker.NewBarrier(2)
	group := worker.NewWorkGroup("agents", 2, 1, updateBarrier, flipBarrier)

	a1 := newFakeAgent(1)
	group.Workers()[0].Add(a1)
	group.StartAll(10)

	updateBarrier.Arrive()
	flipBarrier.Arrive()
	group.Wait()
	require.Equal(t, 1, group.Workers()[0].Len())
	require.Equal(t, 0, group.Workers()[1].Len())

	require.NoError(t, group.Migrate(a1, 0, 1))

	updateBarrier.Arrive()
	flipBarrier.Arrive()
	group.Wait()

	assert.Equal(t, 0, group.Workers()[0].Len())
	assert.Equal(t, 1, group.Workers()[1].Len())

	group.Stop()
	updateBarrier.Arrive()
	flipBarrier.Arrive()
	group.Wait()
}

func TestBarrierReleasesAllPartiesTogether(t *testing.T) {
	b := worker.NewBarrier(3)
	var wg sync.WaitGroup
	results := make([]int64, 3)
	start := time.Now()
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i == 0 {
				time.Sleep(20 * time.Millisecond)
			}
			b.Arrive()
			results[i] = time.Since(start).Milliseconds()
		}(i)
	}
	wg.Wait()
	for i, ms := range results {
		assert.GreaterOrEqual(t, ms, int64(15), "party %d released before the slow party arrived", i)
	}
}
