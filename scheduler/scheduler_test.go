package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-fm/simkernel/entity"
	"github.com/smart-fm/simkernel/person"
	"github.com/smart-fm/simkernel/scheduler"
	"github.com/smart-fm/simkernel/timeutil"
)

func walkChain() person.TripChain {
	return person.TripChain{
		{
			Kind: person.ItemTrip,
			Trip: &person.Trip{
				TripID: 1,
				SubTrips: []person.SubTrip{
					{FromNode: 1, ToNode: 2, Mode: person.ModeWalk},
				},
			},
		},
	}
}

func TestPendingQueuePopReadyOrdersByStartTime(t *testing.T) {
	q := scheduler.NewPendingQueue()
	cfg := person.Config{BaseGranMs: 100}
	p1 := person.New(1, 3599000, walkChain(), cfg)
	p2 := person.New(2, 1800000, walkChain(), cfg)
	p3 := person.New(3, 0, walkChain(), cfg)

	q.Push(p1)
	q.Push(p2)
	q.Push(p3)

	ready := q.PopReady(0)
	require.Len(t, ready, 1)
	assert.Equal(t, entity.ID(3), ready[0].ID())

	ready = q.PopReady(1800000)
	require.Len(t, ready, 1)
	assert.Equal(t, entity.ID(2), ready[0].ID())

	ready = q.PopReady(3599000)
	require.Len(t, ready, 1)
	assert.Equal(t, entity.ID(1), ready[0].ID())

	assert.Equal(t, 0, q.Len())
}

// fakeSource returns exactly the three-row window from the spec's
// pending-loader scenario: P1 at startTime 0, P2 at 1800s, P3 at 3599s.
type fakeSource struct {
	calls int
}

func (f *fakeSource) LoadWindow(window timeutil.HalfHourWindow) ([]scheduler.ChainRecord, error) {
	f.calls++
	if f.calls > 1 {
		return nil, nil
	}
	return []scheduler.ChainRecord{
		{PersonID: 1, StartTimeMs: 0, Chain: walkChain()},
		{PersonID: 2, StartTimeMs: 1800 * 1000, Chain: walkChain()},
		{PersonID: 3, StartTimeMs: 3599 * 1000, Chain: walkChain()},
	}, nil
}

func TestLoaderActivatesOnlyZeroStartTimeImmediately(t *testing.T) {
	const baseGranMs = 100
	src := &fakeSource{}
	loader := scheduler.NewLoader(src, person.Config{BaseGranMs: baseGranMs}, 3600*1000, 4)
	pending := scheduler.NewPendingQueue()

	active, err := loader.Tick(3600*1000, pending)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, entity.ID(1), active[0].ID())
	assert.Equal(t, 2, pending.Len())

	readyAt1800 := pending.PopReady(1800 * 1000)
	require.Len(t, readyAt1800, 1)
	assert.Equal(t, entity.ID(2), readyAt1800[0].ID())

	readyAt3599 := pending.PopReady(3599 * 1000)
	require.Len(t, readyAt3599, 1)
	assert.Equal(t, entity.ID(3), readyAt3599[0].ID())

	assert.Equal(t, 0, pending.Len())
}

func TestLoaderDoesNothingBeforeIntervalElapses(t *testing.T) {
	src := &fakeSource{}
	loader := scheduler.NewLoader(src, person.Config{BaseGranMs: 100}, 3600*1000, 4)
	pending := scheduler.NewPendingQueue()

	active, err := loader.Tick(1000, pending)
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.Equal(t, 0, pending.Len())
	assert.Equal(t, 0, src.calls)
}
