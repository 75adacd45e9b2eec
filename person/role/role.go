// Package role implements the pluggable per-tick behaviors a Person
// switches between as its trip chain advances. See spec.md §3 item 4
// and §4.4.
package role

import "github.com/smart-fm/simkernel/buffered"

// Type tags which concrete Role a Person currently holds.
type Type int

const (
	TypeActivityPerformer Type = iota
	TypePedestrian
	TypeDriver
	TypeBusDriver
	TypeWaitBusActivity
	TypePassenger
)

func (t Type) String() string {
	switch t {
	case TypeActivityPerformer:
		return "ActivityPerformer"
	case TypePedestrian:
		return "Pedestrian"
	case TypeDriver:
		return "Driver"
	case TypeBusDriver:
		return "BusDriver"
	case TypeWaitBusActivity:
		return "WaitBusActivity"
	case TypePassenger:
		return "Passenger"
	default:
		return "Unknown"
	}
}

// Params is the per-tick argument bundle a Person passes to its Role's
// hooks. It carries just enough for a Role to act without reaching back
// into Person internals.
type Params struct {
	CurrentTimeMs int64
	BaseGranMs    int64
}

// Role is the pluggable behavior a Person delegates to for one phase of
// its trip chain: Init runs once on the first tick after assignment,
// Tick runs on every tick including that first one, Output runs after
// Tick unless the Role reports Done. Cells returns the buffered cells this Role
// contributes to its Person's subscription list.
type Role interface {
	Type() Type
	Init(p Params) error
	Tick(p Params) error
	Output(p Params) error
	Cells() buffered.SubscriptionList
	// Done reports whether this Role has finished its work for this
	// trip-chain item and the Person should advance.
	Done() bool
}
