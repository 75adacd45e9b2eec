// Package entity defines the base Agent every simulated thing in the
// kernel embeds: a stable id, a start time, a position, a removal flag
// and the subscription list a Worker flips on its behalf. See spec.md
// §3 Data Model.
package entity

import (
	"github.com/smart-fm/simkernel/buffered"
	"github.com/smart-fm/simkernel/utils/container"
)

// ID is a 64-bit monotonically assigned entity identifier.
type ID int64

// Tick is a discrete simulation step, counted in base ticks.
type Tick int64

// Updatable is anything a Worker can drive through one tick: a Person,
// a signal controller, anything with the shape "do work, maybe ask to
// be removed". Agent satisfies it through embedding plus an Update
// method supplied by the concrete type (Person.Update).
type Updatable interface {
	container.IIncrementalItem
	ID() ID
	StartTimeMs() int64
	Removed() bool
	SubscriptionList() buffered.SubscriptionList
	Update(currentTimeMs int64) error
}

// Agent is the state every Updatable embeds: identity, position and
// the bookkeeping the Worker's IncrementalArray needs to place it.
type Agent struct {
	container.IncrementalItemBase

	id          ID
	startTimeMs int64

	XPos *buffered.Cell[int64] // centimeters
	YPos *buffered.Cell[int64]

	removed bool
}

// NewAgent creates an Agent with the given id and start time, its
// position cells initialized to (0,0).
func NewAgent(id ID, startTimeMs int64) Agent {
	return Agent{
		id:          id,
		startTimeMs: startTimeMs,
		XPos:        buffered.NewCell[int64](0),
		YPos:        buffered.NewCell[int64](0),
	}
}

// ID returns the agent's stable identifier.
func (a *Agent) ID() ID {
	return a.id
}

// StartTimeMs returns the simulation time, in milliseconds, at which
// this agent becomes eligible for update().
func (a *Agent) StartTimeMs() int64 {
	return a.startTimeMs
}

// SetStartTimeMs updates the start time; used by trip-chain advance to
// delay the next Update call by one base tick after a role change.
func (a *Agent) SetStartTimeMs(t int64) {
	a.startTimeMs = t
}

// Removed reports whether this agent has asked to be removed.
func (a *Agent) Removed() bool {
	return a.removed
}

// MarkRemoved sets the removal flag. It is cooperative: the owning
// Worker drops the agent from its set on the tick after this is set,
// never mid-tick, so in-flight message references stay valid.
func (a *Agent) MarkRemoved() {
	a.removed = true
}

// ClearRemoved reverses a pending removal. Trip-chain advance calls
// this when it finds a next item, so a Person that tentatively marked
// itself for removal survives into its next Role.
func (a *Agent) ClearRemoved() {
	a.removed = false
}

// OwnCells returns this Agent's own buffered cells (XPos, YPos),
// without any Role cells. Person.SubscriptionList() appends the
// current Role's cells to this.
func (a *Agent) OwnCells() buffered.SubscriptionList {
	return buffered.SubscriptionList{a.XPos, a.YPos}
}
