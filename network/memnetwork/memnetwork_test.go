package memnetwork_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-fm/simkernel/network/memnetwork"
	"github.com/smart-fm/simkernel/store"
)

func openSeededStore(t *testing.T) *store.Store {
	t.Helper()
	procs := map[string]string{
		"node":                  "SELECT id, x_m, y_m FROM node",
		"section":               "SELECT id, from_node, to_node, length_m FROM section",
		"lane":                  "SELECT id, section_id, lane_index, width_m FROM lane",
		"crossing":              "SELECT id, node_id FROM crossing",
		"turning":               "SELECT id, from_lane, to_lane FROM turning",
		"signal":                "SELECT id, node_id FROM signal",
		"polyline":              "SELECT id FROM node",
		"tripchain":             "SELECT * FROM day_activity_schedule",
		"taxi_fleet":            "SELECT id FROM node",
		"day_activity_schedule": "SELECT * FROM day_activity_schedule",
	}
	s, err := store.New(":memory:", procs)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.DB().Exec(`
		INSERT INTO node (id, x_m, y_m) VALUES (1, 10.0, 20.5), (2, 30.0, 0.0);
		INSERT INTO section (id, from_node, to_node, length_m) VALUES (1, 1, 2, 22.36);
		INSERT INTO lane (id, section_id, lane_index, width_m) VALUES (1, 1, 0, 3.5);
		INSERT INTO signal (id, node_id) VALUES (1, 2);
	`)
	require.NoError(t, err)
	return s
}

func TestLoadConvertsMetersToCentimeters(t *testing.T) {
	s := openSeededStore(t)
	net, err := memnetwork.Load(s)
	require.NoError(t, err)

	node, ok := net.Node(1)
	require.True(t, ok)
	assert.EqualValues(t, 1000, node.XCm)
	assert.EqualValues(t, 2050, node.YCm)

	section, ok := net.Section(1)
	require.True(t, ok)
	assert.EqualValues(t, 2236, section.LengthCm)
}

func TestSectionsFromIndexesByOrigin(t *testing.T) {
	s := openSeededStore(t)
	net, err := memnetwork.Load(s)
	require.NoError(t, err)

	sections := net.SectionsFrom(1)
	require.Len(t, sections, 1)
	assert.EqualValues(t, 2, sections[0].ToNode)

	assert.Empty(t, net.SectionsFrom(2))
}

func TestPositionOfImplementsNodeResolver(t *testing.T) {
	s := openSeededStore(t)
	net, err := memnetwork.Load(s)
	require.NoError(t, err)

	x, y := net.PositionOf(2)
	assert.EqualValues(t, 3000, x)
	assert.EqualValues(t, 0, y)

	x, y = net.PositionOf(999)
	assert.EqualValues(t, 0, x)
	assert.EqualValues(t, 0, y)
}
