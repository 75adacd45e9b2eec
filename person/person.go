// Package person implements the Person state machine: an Agent that
// owns an immutable trip chain and swaps its Role as it advances
// through it. See spec.md §4.4 and §4.5.
package person

import (
	"github.com/smart-fm/simkernel/buffered"
	"github.com/smart-fm/simkernel/entity"
	"github.com/smart-fm/simkernel/person/role"
	"github.com/smart-fm/simkernel/simerr"
)

// Person is an Agent driven by a trip chain. Its currRole is swapped
// atomically as the chain advances; prevRole is kept for one extra
// tick so any reader still holding a reference from the transition
// tick sees a coherent role.
type Person struct {
	entity.Agent

	tripChain    TripChain
	itemIndex    int // index into tripChain; -1 before the chain starts
	subTripIndex int // index into current item's SubTrips; meaningless for Activity items

	currRole role.Role
	prevRole role.Role

	firstFrameTick bool

	originNode int64
	destNode   int64

	baseGranMs      int64
	dynamicDispatch bool
	strict          bool
	resolver        NodeResolver
}

// Config bundles the per-run settings Update needs that don't belong
// on the Person itself.
type Config struct {
	BaseGranMs      int64
	DynamicDispatch bool
	Strict          bool
	Resolver        NodeResolver // optional; defaults to a trivial identity mapping
}

// New builds a Person and assigns its first Role from chain[0]. If the
// chain is empty, the Person is born already marked for removal.
func New(id entity.ID, startTimeMs int64, chain TripChain, cfg Config) *Person {
	p := &Person{
		Agent:           entity.NewAgent(id, startTimeMs),
		tripChain:       chain,
		itemIndex:       -1,
		subTripIndex:    -1,
		baseGranMs:      cfg.BaseGranMs,
		dynamicDispatch: cfg.DynamicDispatch,
		strict:          cfg.Strict,
		resolver:        cfg.Resolver,
	}
	p.bootstrap()
	return p
}

// bootstrap assigns the Person's first Role directly from its trip
// chain, without the one-tick delay mid-run trip-chain advance
// applies: the Loader already chose startTimeMs as this Person's first
// eligible tick, so firstFrameTick must fire then, not one tick later.
func (p *Person) bootstrap() {
	next := p.nextItem()
	if next == nil {
		p.MarkRemoved()
		return
	}
	newRole, originNode, destNode, err := buildRole(p, *next)
	if err != nil {
		log.Errorf("person %d: initial role assignment failed: %v", p.ID(), err)
		p.MarkRemoved()
		return
	}
	p.currRole = newRole
	p.originNode = originNode
	p.destNode = destNode
	p.firstFrameTick = true
}

// SetPosition implements role.Positioner by writing into the Agent's
// own buffered cells.
func (p *Person) SetPosition(xCm, yCm int64) {
	p.XPos.Set(xCm)
	p.YPos.Set(yCm)
}

// CurrentRole returns the Role this Person is currently running.
func (p *Person) CurrentRole() role.Role { return p.currRole }

// SubscriptionList returns this Person's own cells plus its current
// Role's cells, for the Worker's flip barrier.
func (p *Person) SubscriptionList() buffered.SubscriptionList {
	list := p.OwnCells()
	if p.currRole != nil {
		list = append(list, p.currRole.Cells()...)
	}
	return list
}

// Update drives one tick of this Person per spec.md §4.4. currentTimeMs
// is the simulation clock in milliseconds. A returned error is either
// fatal (caller should terminate the run), a RoleFailure re-raised in
// strict mode without removing the Person, or, for everything else,
// already reflected in p.Removed() - the caller only needs to log it.
func (p *Person) Update(currentTimeMs int64) error {
	if currentTimeMs < p.StartTimeMs() {
		if p.dynamicDispatch {
			return nil
		}
		return simerr.New(simerr.SchedulingOutOfOrder,
			"person %d updated at %dms before its start time %dms", p.ID(), currentTimeMs, p.StartTimeMs())
	}

	if p.currRole == nil {
		return nil // already marked for removal; nothing to drive
	}

	if p.firstFrameTick {
		if delta := currentTimeMs - p.StartTimeMs(); delta >= p.baseGranMs || delta <= -p.baseGranMs {
			return simerr.New(simerr.StartMissed,
				"person %d first tick at %dms, more than one granularity from start %dms", p.ID(), currentTimeMs, p.StartTimeMs())
		}
		if err := p.runRole(p.currRole.Init, currentTimeMs); err != nil {
			return err
		}
		p.firstFrameTick = false
	}

	if err := p.runRole(p.currRole.Tick, currentTimeMs); err != nil {
		return err
	}

	if !p.currRole.Done() {
		return p.runRole(p.currRole.Output, currentTimeMs)
	}

	// The role finished its trip-chain item; advance. Until advance
	// decides otherwise the agent is considered for removal.
	p.MarkRemoved()
	return p.advance(currentTimeMs)
}

// runRole executes one Role hook and converts any error escaping it
// into Person removal, except fatal kinds and (in strict mode)
// RoleFailure, both of which propagate.
func (p *Person) runRole(hook func(role.Params) error, currentTimeMs int64) error {
	params := role.Params{CurrentTimeMs: currentTimeMs, BaseGranMs: p.baseGranMs}
	err := hook(params)
	if err == nil {
		return nil
	}
	kind, ok := simerr.KindOf(err)
	if !ok {
		err = simerr.Wrap(simerr.RoleFailure, err,
			"role %s failed for person %d (origin=%d dest=%d)", p.currRole.Type(), p.ID(), p.originNode, p.destNode)
		kind = simerr.RoleFailure
	}
	if kind.Fatal() {
		return err
	}
	if p.strict && kind == simerr.RoleFailure {
		return err
	}
	log.Errorf("person %d: %v", p.ID(), err)
	p.MarkRemoved()
	return nil
}

// advance runs the trip-chain advance algorithm of spec.md §4.5. On
// success with a new item it clears the removal flag, swaps roles, and
// delays the next Update so the new role gets a fresh Init. On chain
// exhaustion it leaves removalFlag set.
func (p *Person) advance(currentTimeMs int64) error {
	next := p.nextItem()
	if next == nil {
		p.currRole = nil // chain exhausted; agent stays marked for removal
		return nil
	}

	newRole, originNode, destNode, err := buildRole(p, *next)
	if err != nil {
		log.Errorf("person %d: trip-chain advance failed: %v", p.ID(), err)
		p.currRole = nil // removalFlag remains set; isolate to this agent
		return nil
	}

	p.prevRole = p.currRole
	p.currRole = newRole
	p.originNode = originNode
	p.destNode = destNode
	p.firstFrameTick = true
	p.SetStartTimeMs(currentTimeMs + p.baseGranMs)
	p.ClearRemoved()
	return nil
}
