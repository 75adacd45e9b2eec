package role_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-fm/simkernel/person/role"
	"github.com/smart-fm/simkernel/simerr"
)

type fakePositioner struct {
	x, y int64
}

func (f *fakePositioner) SetPosition(x, y int64) { f.x, f.y = x, y }

func TestActivityPerformerDoneAtEndTime(t *testing.T) {
	pos := &fakePositioner{}
	a := role.NewActivityPerformer(pos, 100, 200, 5000)
	require.NoError(t, a.Init(role.Params{CurrentTimeMs: 0, BaseGranMs: 100}))
	assert.Equal(t, int64(100), pos.x)
	assert.False(t, a.Done())

	require.NoError(t, a.Tick(role.Params{CurrentTimeMs: 4900, BaseGranMs: 100}))
	assert.False(t, a.Done())

	require.NoError(t, a.Tick(role.Params{CurrentTimeMs: 5000, BaseGranMs: 100}))
	assert.True(t, a.Done())
}

func TestPedestrianWalksAndArrives(t *testing.T) {
	pos := &fakePositioner{}
	p := role.NewPedestrian(pos, 0, 0, 1340, 0, 134) // 1340cm at 134cm/s = 10s
	require.NoError(t, p.Init(role.Params{}))
	assert.False(t, p.Done())

	for i := 0; i < 9; i++ {
		require.NoError(t, p.Tick(role.Params{BaseGranMs: 1000}))
		assert.False(t, p.Done(), "should not arrive before full distance covered")
	}
	require.NoError(t, p.Tick(role.Params{BaseGranMs: 1000}))
	assert.True(t, p.Done())
	assert.Equal(t, int64(1340), pos.x)
}

func TestDriverRaisesUnsupportedRole(t *testing.T) {
	d := role.NewDriver()
	err := d.Init(role.Params{})
	require.Error(t, err)
	kind, ok := simerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, simerr.UnsupportedRole, kind)
}

func TestBusBoardingTwoPhaseProtocol(t *testing.T) {
	driverA := role.NewBusDriver(nil, 1, 1200, 1)
	driverB := role.NewBusDriver(nil, 2, 1200, 1)
	waiter := role.NewWaitBusActivity(42, 2)

	waiter.MakeBoardingDecision(driverA) // wrong line, ignored
	assert.False(t, waiter.CanBoardBus())

	waiter.MakeBoardingDecision(driverB) // right line
	assert.True(t, waiter.CanBoardBus())
	assert.Same(t, driverB, waiter.ChosenDriver())

	ok := driverB.AddPassenger(42)
	require.True(t, ok)
	waiter.MarkBoarded()
	assert.True(t, waiter.Done())
	assert.Equal(t, 1, driverB.Occupancy())

	// A second waiter for the same, now-full, bus must be refused.
	ok = driverB.AddPassenger(43)
	assert.False(t, ok)
}
