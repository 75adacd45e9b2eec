// Package network defines the read-only road-network contract the
// kernel depends on: node positions, directed sections between them,
// lanes within a section, pedestrian crossings, permitted turnings, and
// signal-controlled nodes. Routing, lane geometry, and car-following
// are out of scope; a Network only needs to answer "where is this
// node" and "what movements exist" for the Role implementations and
// the pending-loader's coordinate lookups.
package network

// Node is a point in the network, in centimeters.
type Node struct {
	ID   int64
	XCm  int64
	YCm  int64
}

// Section is a directed road segment between two nodes.
type Section struct {
	ID       int64
	FromNode int64
	ToNode   int64
	LengthCm int64
}

// Lane is one lane within a Section.
type Lane struct {
	ID        int64
	SectionID int64
	Index     int
	WidthCm   int64
}

// Crossing marks a node as a pedestrian crossing point.
type Crossing struct {
	ID     int64
	NodeID int64
}

// Turning is one permitted lane-to-lane movement through a node.
type Turning struct {
	ID       int64
	FromLane int64
	ToLane   int64
}

// Signal marks a node as signal-controlled.
type Signal struct {
	ID     int64
	NodeID int64
}

// Network is the read-only view every component downstream of Load
// depends on. A concrete implementation (memnetwork.Network is the
// reference one) is immutable once built: there is no network topology
// editing after initialization.
type Network interface {
	Node(id int64) (Node, bool)
	Section(id int64) (Section, bool)
	Lane(id int64) (Lane, bool)
	Crossing(id int64) (Crossing, bool)
	Turning(id int64) (Turning, bool)
	Signal(id int64) (Signal, bool)

	// SectionsFrom returns every Section whose FromNode is node, for
	// callers that need outgoing movements without a routing library.
	SectionsFrom(node int64) []Section
}
