package person

import "github.com/smart-fm/simkernel/entity"

// Mode names the travel mode of a SubTrip. Only Walk is fully
// supported by a Role today; Car is recognized but unimplemented
// (simerr.UnsupportedRole), and anything else is simerr.UnknownMode.
type Mode string

const (
	ModeCar  Mode = "Car"
	ModeWalk Mode = "Walk"
	ModeBus  Mode = "Bus"
)

// ItemKind discriminates the two TripChainItem shapes.
type ItemKind int

const (
	ItemTrip ItemKind = iota
	ItemActivity
)

// TripChainItem is one entry in a Person's immutable trip chain: either
// a Trip (itself a sequence of SubTrips) or a standalone Activity. See
// spec.md §3.
type TripChainItem struct {
	Kind           ItemKind
	PersonID       entity.ID
	SequenceNumber int
	StartTimeMs    int64
	EndTimeMs      int64

	Trip     *Trip     // set iff Kind == ItemTrip
	Activity *Activity // set iff Kind == ItemActivity
}

// Trip is an ordered list of SubTrips sharing one trip id.
type Trip struct {
	TripID   int64
	SubTrips []SubTrip
}

// SubTrip is one leg of a Trip: a mode, an origin/destination node pair
// and (for transit legs) the line it rides.
type SubTrip struct {
	FromNode      int64
	ToNode        int64
	Mode          Mode
	IsPrimaryMode bool
	PTLineID      int64
	StartTimeMs   int64
}

// Activity is a standalone (non-Trip) trip-chain item: stay at a
// location for a purpose.
type Activity struct {
	Description  string
	LocationNode int64
	IsPrimary    bool
	IsFlexible   bool
	IsMandatory  bool
}

// TripChain is the ordered, immutable plan a Person advances through.
type TripChain []TripChainItem
