package person

import (
	"github.com/smart-fm/simkernel/person/role"
	"github.com/smart-fm/simkernel/simerr"
)

// NodeResolver maps a graph node reference to a position in
// centimeters. The network package's implementations satisfy this;
// tests can supply a trivial one.
type NodeResolver interface {
	PositionOf(node int64) (xCm, yCm int64)
}

// identityResolver treats a node id as an x coordinate one meter per
// unit, y fixed at zero. Used only when a Person is built without a
// real NodeResolver (unit tests, or an ActivityPerformer-only person
// with no network dependency).
type identityResolver struct{}

func (identityResolver) PositionOf(node int64) (xCm, yCm int64) {
	return node * 100, 0
}

// nextItem advances the sub-trip / trip-chain-item cursor per spec.md
// §4.5 step 1-2, returning the item now current, or nil if the chain
// is exhausted.
func (p *Person) nextItem() *TripChainItem {
	if p.itemIndex < 0 {
		p.itemIndex = 0
		p.subTripIndex = 0
	} else if p.itemIndex < len(p.tripChain) {
		item := &p.tripChain[p.itemIndex]
		if item.Kind == ItemTrip {
			p.subTripIndex++
			if p.subTripIndex >= len(item.Trip.SubTrips) {
				p.itemIndex++
				p.subTripIndex = 0
			}
		} else {
			p.itemIndex++
			p.subTripIndex = 0
		}
	}
	if p.itemIndex >= len(p.tripChain) {
		return nil
	}
	return &p.tripChain[p.itemIndex]
}

// buildRole implements spec.md §4.5 step 4: construct the Role for the
// trip-chain item now current, returning the new origin/destination
// node pair too.
func buildRole(p *Person, item TripChainItem) (role.Role, int64, int64, error) {
	resolver := p.resolver
	if resolver == nil {
		resolver = identityResolver{}
	}

	switch item.Kind {
	case ItemActivity:
		a := item.Activity
		x, y := resolver.PositionOf(a.LocationNode)
		r := role.NewActivityPerformer(p, x, y, item.EndTimeMs)
		return r, a.LocationNode, a.LocationNode, nil

	case ItemTrip:
		sub := item.Trip.SubTrips[p.subTripIndex]
		fromX, fromY := resolver.PositionOf(sub.FromNode)
		toX, toY := resolver.PositionOf(sub.ToNode)
		switch sub.Mode {
		case ModeWalk:
			r := role.NewPedestrian(p, fromX, fromY, toX, toY, role.DefaultWalkingSpeedCmPerS)
			return r, sub.FromNode, sub.ToNode, nil
		case ModeCar:
			return nil, 0, 0, simerr.New(simerr.UnsupportedRole,
				"person %d: car driving requested for sub-trip %d->%d, not implemented", p.ID(), sub.FromNode, sub.ToNode)
		default:
			return nil, 0, 0, simerr.New(simerr.UnknownMode,
				"person %d: unrecognized trip mode %q", p.ID(), sub.Mode)
		}

	default:
		return nil, 0, 0, simerr.New(simerr.ConfigInvalid, "person %d: trip-chain item has unknown kind %d", p.ID(), item.Kind)
	}
}
