// Package memnetwork is an in-memory network.Network reference
// implementation, built once from a store.Store and never mutated
// afterward.
package memnetwork

import (
	"github.com/smart-fm/simkernel/network"
	"github.com/smart-fm/simkernel/store"
)

// Network is a fully-loaded, read-only road network kept in plain Go
// maps. It satisfies both network.Network and person.NodeResolver.
type Network struct {
	nodes     map[int64]network.Node
	sections  map[int64]network.Section
	lanes     map[int64]network.Lane
	crossings map[int64]network.Crossing
	turnings  map[int64]network.Turning
	signals   map[int64]network.Signal

	sectionsFrom map[int64][]network.Section
}

// Load reads every network entity from s and converts node coordinates
// from meters to centimeters exactly once, here, per spec.md §9: no
// other component repeats this conversion.
func Load(s *store.Store) (*Network, error) {
	nodeRows, err := s.LoadNodes()
	if err != nil {
		return nil, err
	}
	sectionRows, err := s.LoadSections()
	if err != nil {
		return nil, err
	}
	laneRows, err := s.LoadLanes()
	if err != nil {
		return nil, err
	}
	crossingRows, err := s.LoadCrossings()
	if err != nil {
		return nil, err
	}
	turningRows, err := s.LoadTurnings()
	if err != nil {
		return nil, err
	}
	signalRows, err := s.LoadSignals()
	if err != nil {
		return nil, err
	}

	n := &Network{
		nodes:        make(map[int64]network.Node, len(nodeRows)),
		sections:     make(map[int64]network.Section, len(sectionRows)),
		lanes:        make(map[int64]network.Lane, len(laneRows)),
		crossings:    make(map[int64]network.Crossing, len(crossingRows)),
		turnings:     make(map[int64]network.Turning, len(turningRows)),
		signals:      make(map[int64]network.Signal, len(signalRows)),
		sectionsFrom: make(map[int64][]network.Section),
	}

	const metersToCentimeters = 100
	for _, r := range nodeRows {
		n.nodes[r.ID] = network.Node{
			ID:  r.ID,
			XCm: int64(r.XM * metersToCentimeters),
			YCm: int64(r.YM * metersToCentimeters),
		}
	}
	for _, r := range sectionRows {
		sec := network.Section{
			ID:       r.ID,
			FromNode: r.FromNode,
			ToNode:   r.ToNode,
			LengthCm: int64(r.LengthM * metersToCentimeters),
		}
		n.sections[r.ID] = sec
		n.sectionsFrom[r.FromNode] = append(n.sectionsFrom[r.FromNode], sec)
	}
	for _, r := range laneRows {
		n.lanes[r.ID] = network.Lane{
			ID:        r.ID,
			SectionID: r.SectionID,
			Index:     r.Index,
			WidthCm:   int64(r.WidthM * metersToCentimeters),
		}
	}
	for _, r := range crossingRows {
		n.crossings[r.ID] = network.Crossing{ID: r.ID, NodeID: r.NodeID}
	}
	for _, r := range turningRows {
		n.turnings[r.ID] = network.Turning{ID: r.ID, FromLane: r.FromLane, ToLane: r.ToLane}
	}
	for _, r := range signalRows {
		n.signals[r.ID] = network.Signal{ID: r.ID, NodeID: r.NodeID}
	}

	log.Infof("memnetwork: loaded %d nodes, %d sections, %d lanes, %d signals",
		len(n.nodes), len(n.sections), len(n.lanes), len(n.signals))
	return n, nil
}

func (n *Network) Node(id int64) (network.Node, bool)         { v, ok := n.nodes[id]; return v, ok }
func (n *Network) Section(id int64) (network.Section, bool)   { v, ok := n.sections[id]; return v, ok }
func (n *Network) Lane(id int64) (network.Lane, bool)         { v, ok := n.lanes[id]; return v, ok }
func (n *Network) Crossing(id int64) (network.Crossing, bool) { v, ok := n.crossings[id]; return v, ok }
func (n *Network) Turning(id int64) (network.Turning, bool)   { v, ok := n.turnings[id]; return v, ok }
func (n *Network) Signal(id int64) (network.Signal, bool)     { v, ok := n.signals[id]; return v, ok }

func (n *Network) SectionsFrom(node int64) []network.Section {
	return n.sectionsFrom[node]
}

// PositionOf implements person.NodeResolver directly off the loaded
// node table, so a Network can be handed straight to person.Config's
// Resolver field with no adapter type.
func (n *Network) PositionOf(node int64) (xCm, yCm int64) {
	v, ok := n.nodes[node]
	if !ok {
		return 0, 0
	}
	return v.XCm, v.YCm
}
