package role

import "github.com/smart-fm/simkernel/buffered"

// Positioner is implemented by whatever owns the XPos/YPos cells a Role
// writes into - a Person's embedded Agent, in practice. Keeping this as
// an interface rather than a concrete type lets a Role be unit-tested
// without constructing a full Person.
type Positioner interface {
	SetPosition(xCm, yCm int64)
}

// ActivityPerformer occupies a single location until the activity's end
// time, then reports Done. See spec.md §4.5 item 4.
type ActivityPerformer struct {
	pos Positioner

	nodeXCm, nodeYCm int64
	endTimeMs        int64
	done             bool
}

// NewActivityPerformer builds a Role bound to one location node, active
// until endTimeMs.
func NewActivityPerformer(pos Positioner, nodeXCm, nodeYCm, endTimeMs int64) *ActivityPerformer {
	return &ActivityPerformer{pos: pos, nodeXCm: nodeXCm, nodeYCm: nodeYCm, endTimeMs: endTimeMs}
}

func (r *ActivityPerformer) Type() Type { return TypeActivityPerformer }

func (r *ActivityPerformer) Init(p Params) error {
	r.pos.SetPosition(r.nodeXCm, r.nodeYCm)
	return nil
}

func (r *ActivityPerformer) Tick(p Params) error {
	if p.CurrentTimeMs >= r.endTimeMs {
		r.done = true
	}
	return nil
}

func (r *ActivityPerformer) Output(p Params) error { return nil }

func (r *ActivityPerformer) Cells() buffered.SubscriptionList { return nil }

func (r *ActivityPerformer) Done() bool { return r.done }
