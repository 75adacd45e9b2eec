package role

import (
	"math"

	"github.com/smart-fm/simkernel/buffered"
)

// DefaultWalkingSpeedCmPerS is the fallback walking speed, 1.34 m/s,
// for pedestrians with no speed of their own.
const DefaultWalkingSpeedCmPerS = 134.0

// Pedestrian walks in a straight line from its origin to its
// destination node at a fixed speed, reporting Done once it arrives.
// Real lane-by-lane routing is out of scope (see SPEC_FULL.md §6
// network contract); this captures the timing and position semantics
// spec.md actually tests.
type Pedestrian struct {
	pos Positioner

	fromXCm, fromYCm int64
	toXCm, toYCm     int64
	speedCmPerS      float64

	traveledCm float64
	totalCm    float64
	done       bool
}

// NewPedestrian builds a walking Role between two points.
func NewPedestrian(pos Positioner, fromXCm, fromYCm, toXCm, toYCm int64, speedCmPerS float64) *Pedestrian {
	if speedCmPerS <= 0 {
		speedCmPerS = DefaultWalkingSpeedCmPerS
	}
	dx := float64(toXCm - fromXCm)
	dy := float64(toYCm - fromYCm)
	return &Pedestrian{
		pos:         pos,
		fromXCm:     fromXCm,
		fromYCm:     fromYCm,
		toXCm:       toXCm,
		toYCm:       toYCm,
		speedCmPerS: speedCmPerS,
		totalCm:     math.Hypot(dx, dy),
	}
}

func (r *Pedestrian) Type() Type { return TypePedestrian }

func (r *Pedestrian) Init(p Params) error {
	r.pos.SetPosition(r.fromXCm, r.fromYCm)
	if r.totalCm == 0 {
		r.done = true
	}
	return nil
}

func (r *Pedestrian) Tick(p Params) error {
	if r.done {
		return nil
	}
	dtS := float64(p.BaseGranMs) / 1000.0
	r.traveledCm += r.speedCmPerS * dtS
	if r.traveledCm >= r.totalCm {
		r.traveledCm = r.totalCm
		r.done = true
	}
	frac := r.traveledCm / r.totalCm
	x := r.fromXCm + int64(frac*float64(r.toXCm-r.fromXCm))
	y := r.fromYCm + int64(frac*float64(r.toYCm-r.fromYCm))
	r.pos.SetPosition(x, y)
	return nil
}

func (r *Pedestrian) Output(p Params) error { return nil }

func (r *Pedestrian) Cells() buffered.SubscriptionList { return nil }

func (r *Pedestrian) Done() bool { return r.done }
