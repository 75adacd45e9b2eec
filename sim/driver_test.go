package sim_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-fm/simkernel/busstop"
	"github.com/smart-fm/simkernel/config"
	"github.com/smart-fm/simkernel/person"
	"github.com/smart-fm/simkernel/person/role"
	"github.com/smart-fm/simkernel/scheduler"
	"github.com/smart-fm/simkernel/sim"
	"github.com/smart-fm/simkernel/simerr"
	"github.com/smart-fm/simkernel/store"
	"github.com/smart-fm/simkernel/timeutil"
)

func allProcs() map[string]string {
	return map[string]string{
		"node":                  "SELECT id, x_m, y_m FROM node",
		"section":               "SELECT id, from_node, to_node, length_m FROM section",
		"lane":                  "SELECT id, section_id, lane_index, width_m FROM lane",
		"crossing":              "SELECT id, node_id FROM crossing",
		"turning":               "SELECT id, from_lane, to_lane FROM turning",
		"polyline":              "SELECT id FROM node",
		"tripchain":             "SELECT * FROM day_activity_schedule",
		"taxi_fleet":            "SELECT id FROM node",
		"day_activity_schedule": "SELECT * FROM day_activity_schedule",
	}
}

func testConfig() config.Config {
	return config.Config{
		BaseGranMs:        1000,
		TotalRuntimeTicks: 5,
		WorkGroups: map[string]config.WorkGroupConfig{
			"agents":       {Granularity: 1, Workers: 2},
			"signals":      {Granularity: 1, Workers: 1},
			"shortestPath": {Granularity: 1, Workers: 1},
		},
		StoredProcedures: allProcs(),
	}
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(":memory:", allProcs())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// fakeSource hands out one Person's chain the first time its configured
// window is requested, then stays silent - just enough to exercise the
// Driver's immediate-activation path without a real persistent store.
type fakeSource struct {
	window timeutil.HalfHourWindow
	fired  bool
	chain  person.TripChain
}

func (f *fakeSource) LoadWindow(w timeutil.HalfHourWindow) ([]scheduler.ChainRecord, error) {
	if f.fired || w != f.window {
		return nil, nil
	}
	f.fired = true
	return []scheduler.ChainRecord{{PersonID: 1, StartTimeMs: 0, Chain: f.chain}}, nil
}

func walkChain() person.TripChain {
	return person.TripChain{
		{
			Kind:           person.ItemTrip,
			SequenceNumber: 0,
			Trip: &person.Trip{
				TripID:   1,
				SubTrips: []person.SubTrip{{FromNode: 0, ToNode: 1, Mode: person.ModeWalk}},
			},
		},
	}
}

func TestDriverRunsActivatesAndRetiresAPerson(t *testing.T) {
	s := openTestStore(t)
	source := &fakeSource{window: 3.25, chain: walkChain()}

	d, err := sim.New(testConfig(), s, source, person.Config{BaseGranMs: 1000}, nil)
	require.NoError(t, err)

	var heartbeats int32
	err = d.Run(func(tick int64, clockString string) {
		atomic.AddInt32(&heartbeats, 1)
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, heartbeats, int32(1), "heartbeat should fire at least once at tick 0")
}

func TestDriverStopsRunOnBusStopFatalErr(t *testing.T) {
	s := openTestStore(t)
	source := &fakeSource{window: 3.25}

	stop := busstop.New(1, 1000)
	// Force the bus stop into a fatal state before the run even starts:
	// a bus longer than the bay's whole capacity never fits.
	stop.HandleMessage(busstop.MsgBusArrival, busstop.BusDriverMessage{
		Driver: role.NewBusDriver(nil, 1, 5000, 10),
	})
	require.Error(t, stop.FatalErr())

	d, err := sim.New(testConfig(), s, source, person.Config{BaseGranMs: 1000}, []*busstop.BusStopAgent{stop})
	require.NoError(t, err)

	err = d.Run(nil)
	require.Error(t, err)
	kind, ok := simerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, simerr.CapacityExceeded, kind)
}
