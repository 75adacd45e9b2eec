package role

import (
	"github.com/smart-fm/simkernel/buffered"
	"github.com/smart-fm/simkernel/simerr"
)

// Driver stands in for car-mode trips. Trip-chain advance (spec.md
// §4.5) already raises simerr.UnsupportedRole before ever constructing
// one of these; this type exists so RoleType enumerates every role the
// data model names, and so a future car implementation has a home.
type Driver struct{}

func NewDriver() *Driver { return &Driver{} }

func (r *Driver) Type() Type { return TypeDriver }

func (r *Driver) Init(p Params) error {
	return simerr.New(simerr.UnsupportedRole, "car driving is not implemented")
}

func (r *Driver) Tick(p Params) error {
	return simerr.New(simerr.UnsupportedRole, "car driving is not implemented")
}

func (r *Driver) Output(p Params) error { return nil }

func (r *Driver) Cells() buffered.SubscriptionList { return nil }

func (r *Driver) Done() bool { return true }
